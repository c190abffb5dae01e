package bridge

import (
	"context"
	"testing"
	"time"

	"codeberg.org/mutker/pointbridge/internal/pointcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, batchSize int) (*StreamScheduler, *ConnectionManager, *testServer) {
	t.Helper()

	ts := newTestServer(t)
	m := NewConnectionManager(nil)
	tx := NewTransmitter(m)
	s := NewStreamScheduler(tx, pointcloud.NewSeededGenerator(1), batchSize)
	t.Cleanup(func() {
		s.Stop()
		_ = m.Disconnect()
	})

	return s, m, ts
}

func TestSchedulerStartIdempotent(t *testing.T) {
	s, _, _ := newTestScheduler(t, 8)

	s.Start(time.Hour)
	first := s.session
	require.NotNil(t, first)

	s.Start(time.Hour)
	assert.Same(t, first, s.session, "a second Start must not replace the active session")
	assert.True(t, s.Active())
}

func TestSchedulerStopIdempotent(t *testing.T) {
	s, _, _ := newTestScheduler(t, 8)

	s.Stop()
	assert.False(t, s.Active())

	s.Start(time.Hour)
	s.Stop()
	s.Stop()
	assert.False(t, s.Active())
	assert.Nil(t, s.session)
}

func TestSchedulerSessionInvariant(t *testing.T) {
	s, _, _ := newTestScheduler(t, 8)

	s.Start(time.Hour)
	require.True(t, s.session.active)
	require.NotNil(t, s.session.cancel)

	session := s.session
	s.Stop()
	assert.False(t, session.active)
	assert.Nil(t, session.cancel)
}

func TestSchedulerStreams(t *testing.T) {
	s, m, ts := newTestScheduler(t, 256)
	require.NoError(t, m.Connect(context.Background(), ts.URL()))

	s.Start(100 * time.Millisecond)

	require.Eventually(t, func() bool {
		return ts.FrameCount() >= 2
	}, 2*time.Second, 10*time.Millisecond, "expected at least two sends")

	for _, frame := range ts.Frames()[:2] {
		decoded, err := pointcloud.Decode(frame)
		require.NoError(t, err)
		assert.Len(t, decoded.Data, 256, "each tick must carry a full batch")
	}
}

func TestSchedulerStopPreventsPendingTick(t *testing.T) {
	s, m, ts := newTestScheduler(t, 8)
	require.NoError(t, m.Connect(context.Background(), ts.URL()))

	s.Start(time.Hour)
	stale := s.session
	s.Stop()

	// A tick that fired before Stop completed must find the session
	// cleared and abort without sending.
	s.tick(stale)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, ts.FrameCount(), "a tick racing Stop must not send")
	assert.Zero(t, s.tx.SentMessages())
}

func TestSchedulerTickAfterRestartIgnoresOldSession(t *testing.T) {
	s, m, ts := newTestScheduler(t, 8)
	require.NoError(t, m.Connect(context.Background(), ts.URL()))

	s.Start(time.Hour)
	old := s.session
	s.Stop()
	s.Start(time.Hour)

	s.tick(old)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, ts.FrameCount(), "a stale tick must not send into the new session")
}

func TestSchedulerSendsWhileDisconnectedAreDropped(t *testing.T) {
	s, _, ts := newTestScheduler(t, 8)

	s.Start(50 * time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, ts.FrameCount(), "no frames may reach the wire while disconnected")
	assert.Positive(t, s.tx.Failures(), "rejected ticks count as failures")
}
