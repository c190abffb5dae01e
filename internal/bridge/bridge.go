package bridge

import (
	"context"

	"codeberg.org/mutker/pointbridge/internal/pointcloud"
)

// Bridge composes the connection manager, transmitter, stream
// scheduler and capture bridge, and guarantees teardown ordering on
// shutdown.
type Bridge struct {
	cfg       Config
	conn      *ConnectionManager
	tx        *Transmitter
	scheduler *StreamScheduler
	capture   *CaptureBridge

	onState func(State)
	onDrop  func(DropNotice)
}

// Stats is a point-in-time snapshot of bridge counters.
type Stats struct {
	State        State
	SentMessages int64
	SentSamples  int64
	SendFailures int64
	CaptureDrops int64
}

type Option func(*Bridge)

// WithStateListener registers a callback for connection state changes.
func WithStateListener(fn func(State)) Option {
	return func(b *Bridge) {
		b.onState = fn
	}
}

// WithDropListener registers a callback for capture drop notices.
func WithDropListener(fn func(DropNotice)) Option {
	return func(b *Bridge) {
		b.onDrop = fn
	}
}

func New(cfg Config, opts ...Option) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Bridge{cfg: cfg}
	for _, opt := range opts {
		opt(b)
	}

	b.conn = NewConnectionManager(b.onState)
	b.tx = NewTransmitter(b.conn)
	b.scheduler = NewStreamScheduler(b.tx, pointcloud.NewGenerator(), cfg.BatchSize)
	b.capture = NewCaptureBridge(b.conn, b.tx, b.onDrop)

	return b, nil
}

// Connect opens the connection to the configured endpoint.
func (b *Bridge) Connect(ctx context.Context) error {
	return b.conn.Connect(ctx, b.cfg.Endpoint)
}

// Disconnect closes the connection. Streaming and capture stay
// attached; their sends fail until the operator reconnects.
func (b *Bridge) Disconnect() error {
	return b.conn.Disconnect()
}

// State returns the current connection state.
func (b *Bridge) State() State {
	return b.conn.State()
}

// StartSimulatedStream begins the synthetic stream at the configured
// cadence. Idempotent.
func (b *Bridge) StartSimulatedStream() {
	b.scheduler.Start(b.cfg.Interval)
}

// StopSimulatedStream cancels the synthetic stream. Idempotent.
func (b *Bridge) StopSimulatedStream() {
	b.scheduler.Stop()
}

// Streaming reports whether the synthetic stream is active.
func (b *Bridge) Streaming() bool {
	return b.scheduler.Active()
}

// AttachCaptureProducer wires an external capture source into the
// bridge.
func (b *Bridge) AttachCaptureProducer(p Producer) error {
	return b.capture.Attach(p)
}

// DetachCaptureProducer closes and removes the capture source.
func (b *Bridge) DetachCaptureProducer() error {
	return b.capture.Detach()
}

// Stats returns a snapshot of the bridge counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		State:        b.conn.State(),
		SentMessages: b.tx.SentMessages(),
		SentSamples:  b.tx.SentSamples(),
		SendFailures: b.tx.Failures(),
		CaptureDrops: b.capture.Drops(),
	}
}

// Close tears the bridge down in order: stop the scheduler, detach the
// capture producer, then disconnect. Afterwards no timers are pending
// and no connection is open.
func (b *Bridge) Close() error {
	b.scheduler.Stop()

	err := b.capture.Detach()
	if derr := b.conn.Disconnect(); err == nil {
		err = derr
	}

	return err
}
