package bridge

import (
	"sync/atomic"

	"codeberg.org/mutker/pointbridge/internal/errors"
	"codeberg.org/mutker/pointbridge/internal/logger"
	"codeberg.org/mutker/pointbridge/internal/pointcloud"
)

// Transmitter serializes messages into the wire envelope and delivers
// them over the bridge connection. Fire and forget: no retry, no
// buffering; a rejected send is dropped.
type Transmitter struct {
	conn *ConnectionManager

	sentMessages atomic.Int64
	sentSamples  atomic.Int64
	failures     atomic.Int64

	errFactory errors.Factory
}

func NewTransmitter(conn *ConnectionManager) *Transmitter {
	return &Transmitter{
		conn:       conn,
		errFactory: errors.New(),
	}
}

// Send delivers one message. Requires a connected state; otherwise it
// fails without performing any network I/O.
func (t *Transmitter) Send(msg *pointcloud.Message) error {
	if msg == nil {
		return t.errFactory.New(errors.ErrInvalidArgument)
	}

	if t.conn.State() != StateConnected {
		t.failures.Add(1)
		return t.errFactory.New(ErrNotConnected)
	}

	data, err := msg.Encode()
	if err != nil {
		// Unreachable for well-formed messages; drop and move on.
		t.failures.Add(1)
		logger.Error().Err(err).Msg("Message serialization failed, dropping")
		return t.errFactory.Wrap(ErrEncodeFailed, err)
	}

	if err := t.conn.WriteText(data); err != nil {
		t.failures.Add(1)
		return err
	}

	t.sentMessages.Add(1)
	t.sentSamples.Add(int64(len(msg.Data)))

	return nil
}

// SentMessages returns the number of messages delivered to the wire.
func (t *Transmitter) SentMessages() int64 {
	return t.sentMessages.Load()
}

// SentSamples returns the number of samples delivered to the wire.
func (t *Transmitter) SentSamples() int64 {
	return t.sentSamples.Load()
}

// Failures returns the number of rejected or failed sends.
func (t *Transmitter) Failures() int64 {
	return t.failures.Load()
}
