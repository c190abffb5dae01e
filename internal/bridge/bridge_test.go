package bridge

import (
	"context"
	"testing"
	"time"

	"codeberg.org/mutker/pointbridge/internal/pointcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty endpoint", Config{Interval: defaultInterval, BatchSize: defaultBatchSize}},
		{"http scheme", Config{Endpoint: "http://localhost:8081", Interval: defaultInterval, BatchSize: defaultBatchSize}},
		{"zero interval", Config{Endpoint: defaultEndpoint, BatchSize: defaultBatchSize}},
		{"negative batch", Config{Endpoint: defaultEndpoint, Interval: defaultInterval, BatchSize: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			require.Error(t, err)
		})
	}

	_, err := New(DefaultConfig())
	require.NoError(t, err)
}

func TestBridgeSimulatedStreamScenario(t *testing.T) {
	ts := newTestServer(t)
	cfg := Config{
		Endpoint:  ts.URL(),
		Interval:  100 * time.Millisecond,
		BatchSize: 256,
	}

	rec := &stateRecorder{}
	b, err := New(cfg, WithStateListener(rec.record))
	require.NoError(t, err)

	require.NoError(t, b.Connect(context.Background()))
	require.Equal(t, StateConnected, b.State())

	b.StartSimulatedStream()
	b.StartSimulatedStream() // idempotent
	require.True(t, b.Streaming())

	require.Eventually(t, func() bool {
		return ts.FrameCount() >= 2
	}, 3*time.Second, 10*time.Millisecond, "expected at least two sends while streaming")

	for _, frame := range ts.Frames()[:2] {
		decoded, err := pointcloud.Decode(frame)
		require.NoError(t, err)
		assert.Len(t, decoded.Data, 256)
	}

	// Disconnecting during an active stream stops further sends
	// immediately, even though the scheduler keeps ticking.
	require.NoError(t, b.Disconnect())
	require.Equal(t, StateDisconnected, b.State())

	time.Sleep(100 * time.Millisecond) // let in-flight frames land
	n := ts.FrameCount()
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, n, ts.FrameCount(), "no sends may follow a completed disconnect")

	states := rec.recorded()
	assert.Equal(t, StateDisconnected, states[len(states)-1])

	require.NoError(t, b.Close())
	assert.False(t, b.Streaming())
}

func TestBridgeCaptureDropScenario(t *testing.T) {
	ts := newTestServer(t)
	cfg := Config{
		Endpoint:  ts.URL(),
		Interval:  defaultInterval,
		BatchSize: defaultBatchSize,
	}

	rec := &dropRecorder{}
	b, err := New(cfg, WithDropListener(rec.record))
	require.NoError(t, err)

	producer := &fakeProducer{}
	require.NoError(t, b.AttachCaptureProducer(producer))

	producer.emit([]pointcloud.Sample{{X: 0.4, Y: 0.6, Z: 0.8}})

	notices := rec.recorded()
	require.Len(t, notices, 1, "a batch delivered while disconnected must surface a drop notice")
	assert.Equal(t, StateDisconnected, notices[0].State)
	assert.Equal(t, 1, notices[0].Samples)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, ts.FrameCount())

	stats := b.Stats()
	assert.EqualValues(t, 1, stats.CaptureDrops)
	assert.Zero(t, stats.SentMessages)

	require.NoError(t, b.Close())
	assert.True(t, producer.closed, "teardown must detach the capture producer")
}

func TestBridgeTeardownOrder(t *testing.T) {
	ts := newTestServer(t)
	cfg := Config{
		Endpoint:  ts.URL(),
		Interval:  50 * time.Millisecond,
		BatchSize: 16,
	}

	b, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, b.Connect(context.Background()))
	b.StartSimulatedStream()

	producer := &fakeProducer{}
	require.NoError(t, b.AttachCaptureProducer(producer))

	require.NoError(t, b.Close())

	assert.False(t, b.Streaming(), "scheduler must be stopped")
	assert.True(t, producer.closed, "capture producer must be closed")
	assert.Equal(t, StateDisconnected, b.State(), "connection must be closed")

	// Close is idempotent.
	require.NoError(t, b.Close())
}

func TestBridgeStats(t *testing.T) {
	ts := newTestServer(t)
	cfg := Config{
		Endpoint:  ts.URL(),
		Interval:  defaultInterval,
		BatchSize: 8,
	}

	b, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, b.Connect(context.Background()))
	defer b.Close()

	require.NoError(t, b.tx.Send(pointcloud.NewMessage(pointcloud.NewSeededGenerator(9).Batch(8))))

	stats := b.Stats()
	assert.Equal(t, StateConnected, stats.State)
	assert.EqualValues(t, 1, stats.SentMessages)
	assert.EqualValues(t, 8, stats.SentSamples)
	assert.Zero(t, stats.SendFailures)
	assert.Zero(t, stats.CaptureDrops)
}
