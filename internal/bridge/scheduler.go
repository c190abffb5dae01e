package bridge

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/pointbridge/internal/logger"
	"codeberg.org/mutker/pointbridge/internal/pointcloud"
)

// StreamSession holds the cancellable handle of one streaming run.
// Invariant: cancel is non-nil exactly while the session is active.
type StreamSession struct {
	cancel context.CancelFunc
	done   chan struct{}
	active bool
}

// StreamScheduler drives the synthetic stream: on each tick it draws a
// batch from the generator and hands it to the transmitter.
type StreamScheduler struct {
	mu        sync.Mutex
	session   *StreamSession
	tx        *Transmitter
	gen       *pointcloud.Generator
	batchSize int
}

func NewStreamScheduler(tx *Transmitter, gen *pointcloud.Generator, batchSize int) *StreamScheduler {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &StreamScheduler{
		tx:        tx,
		gen:       gen,
		batchSize: batchSize,
	}
}

// Start begins periodic streaming at the given cadence. Idempotent: a
// no-op when a session is already active.
func (s *StreamScheduler) Start(cadence time.Duration) {
	if cadence <= 0 {
		cadence = defaultInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	session := &StreamSession{
		cancel: cancel,
		done:   make(chan struct{}),
		active: true,
	}
	s.session = session

	logger.Debug().Dur("cadence", cadence).Int("batch_size", s.batchSize).
		Msg("Stream scheduler started")
	go s.run(ctx, session, cadence)
}

// Stop cancels the active session. Idempotent and effective before it
// returns: any tick racing the teardown finds the session cleared and
// performs no send.
func (s *StreamScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return
	}

	s.session.active = false
	s.session.cancel()
	s.session.cancel = nil
	s.session = nil

	logger.Debug().Msg("Stream scheduler stopped")
}

// Active reports whether a streaming session is running.
func (s *StreamScheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

func (s *StreamScheduler) run(ctx context.Context, session *StreamSession, cadence time.Duration) {
	defer close(session.done)

	ticker := time.NewTicker(cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(session)
		}
	}
}

// tick is one self-contained unit of work. The liveness check and the
// send happen under the scheduler lock, so a tick cannot slip past a
// completed Stop.
func (s *StreamScheduler) tick(session *StreamSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != session || !session.active {
		return
	}

	msg := pointcloud.NewMessage(s.gen.Batch(s.batchSize))
	if err := s.tx.Send(msg); err != nil {
		logger.Debug().Err(err).Msg("Synthetic batch not sent")
	}
}
