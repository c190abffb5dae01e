package pointcloud

import (
	"encoding/json"
	"time"

	"codeberg.org/mutker/pointbridge/internal/errors"
)

// TypePointCloud is the wire discriminator for point cloud messages.
const TypePointCloud = "pointcloud"

// Sample is a single 3D point produced by a capture source. Synthetic
// samples keep each coordinate in [0, 1); real capture data is
// unconstrained.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Message is the wire-level container carrying a timestamped batch of
// samples. Immutable once constructed.
type Message struct {
	Type      string   `json:"type"`
	Timestamp int64    `json:"timestamp"`
	Data      []Sample `json:"data"`
}

// NewMessage builds a point cloud message around the given batch,
// stamped with the current time in milliseconds since epoch.
func NewMessage(samples []Sample) *Message {
	if samples == nil {
		samples = []Sample{}
	}

	return &Message{
		Type:      TypePointCloud,
		Timestamp: time.Now().UnixMilli(),
		Data:      samples,
	}
}

// Encode serializes the message to its JSON envelope. Encoding is total
// over well-formed messages; it only fails on non-finite coordinates.
func (m *Message) Encode() ([]byte, error) {
	errFactory := errors.New()

	data, err := json.Marshal(m)
	if err != nil {
		return nil, errFactory.Wrap(ErrEncodeFailed, err)
	}

	return data, nil
}

// Decode parses a JSON envelope back into a message.
func Decode(data []byte) (*Message, error) {
	errFactory := errors.New()

	msg := &Message{}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, errFactory.Wrap(ErrDecodeFailed, err)
	}

	if msg.Type != TypePointCloud {
		return nil, errFactory.WithData(ErrUnknownType, msg.Type)
	}

	return msg, nil
}
