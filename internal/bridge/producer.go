package bridge

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/pointbridge/internal/pointcloud"
)

// Producer is a capture source: anything that delivers sample batches
// asynchronously via a callback. Variants (native-backed or synthetic)
// are selected at composition time.
type Producer interface {
	// Subscribe registers the callback invoked with each batch. Only
	// one subscriber is supported; a later call replaces the earlier.
	Subscribe(fn func(batch []pointcloud.Sample))

	// Close stops delivery. No callback fires after Close returns.
	Close() error
}

// SyntheticProducer is the simulated capture variant: a ticker-driven
// generator standing in for a native capture device.
type SyntheticProducer struct {
	mu       sync.Mutex
	fn       func([]pointcloud.Sample)
	gen      *pointcloud.Generator
	interval time.Duration
	batch    int
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSyntheticProducer(interval time.Duration, batch int) *SyntheticProducer {
	if interval <= 0 {
		interval = defaultInterval
	}
	if batch <= 0 {
		batch = defaultBatchSize
	}

	return &SyntheticProducer{
		gen:      pointcloud.NewGenerator(),
		interval: interval,
		batch:    batch,
	}
}

func (p *SyntheticProducer) Subscribe(fn func(batch []pointcloud.Sample)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fn = fn
	if p.cancel != nil || fn == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
}

func (p *SyntheticProducer) Close() error {
	p.mu.Lock()
	if p.cancel == nil {
		p.fn = nil
		p.mu.Unlock()
		return nil
	}
	p.cancel()
	p.cancel = nil
	p.fn = nil
	done := p.done
	p.mu.Unlock()

	<-done
	return nil
}

func (p *SyntheticProducer) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			fn := p.fn
			var batch []pointcloud.Sample
			if fn != nil {
				batch = p.gen.Batch(p.batch)
			}
			p.mu.Unlock()
			if fn != nil {
				fn(batch)
			}
		}
	}
}
