package bridge

import (
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/pointbridge/internal/errors"
	"codeberg.org/mutker/pointbridge/internal/logger"
	"codeberg.org/mutker/pointbridge/internal/pointcloud"
)

// DropNotice tells the operator that a capture batch was lost because
// the bridge was not connected. Distinct from a transmission error:
// capture batches are rare and operator-relevant, unlike the synthetic
// stream.
type DropNotice struct {
	State   State
	Samples int
	Time    time.Time
}

// CaptureBridge adapts a producer's asynchronous batch notifications
// into transmitter calls. No buffering, no coalescing.
type CaptureBridge struct {
	mu       sync.Mutex
	conn     *ConnectionManager
	tx       *Transmitter
	producer Producer
	onDrop   func(DropNotice)
	drops    atomic.Int64

	errFactory errors.Factory
}

func NewCaptureBridge(conn *ConnectionManager, tx *Transmitter, onDrop func(DropNotice)) *CaptureBridge {
	return &CaptureBridge{
		conn:       conn,
		tx:         tx,
		onDrop:     onDrop,
		errFactory: errors.New(),
	}
}

// Attach registers the bridge as the producer's single subscriber.
// Only one producer per bridge.
func (b *CaptureBridge) Attach(p Producer) error {
	if p == nil {
		return b.errFactory.New(errors.ErrInvalidArgument)
	}

	b.mu.Lock()
	if b.producer != nil {
		b.mu.Unlock()
		return b.errFactory.New(ErrProducerAttached)
	}
	b.producer = p
	b.mu.Unlock()

	p.Subscribe(b.deliver)
	logger.Debug().Msg("Capture producer attached")

	return nil
}

// Detach closes the producer and stops delivery. Idempotent.
func (b *CaptureBridge) Detach() error {
	b.mu.Lock()
	p := b.producer
	b.producer = nil
	b.mu.Unlock()

	if p == nil {
		return nil
	}

	logger.Debug().Msg("Capture producer detached")
	return p.Close()
}

// Attached reports whether a producer is registered.
func (b *CaptureBridge) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.producer != nil
}

// Drops returns the number of batches lost while not connected.
func (b *CaptureBridge) Drops() int64 {
	return b.drops.Load()
}

func (b *CaptureBridge) deliver(batch []pointcloud.Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.producer == nil {
		// Detach raced the notification.
		return
	}

	if st := b.conn.State(); st != StateConnected {
		b.drops.Add(1)
		notice := DropNotice{State: st, Samples: len(batch), Time: time.Now()}
		logger.Warn().
			Str("state", st.String()).
			Int("samples", notice.Samples).
			Msg("Capture batch dropped: not connected")
		if b.onDrop != nil {
			b.onDrop(notice)
		}
		return
	}

	if err := b.tx.Send(pointcloud.NewMessage(batch)); err != nil {
		logger.Error().Err(err).Msg("Capture batch transmission failed")
	}
}
