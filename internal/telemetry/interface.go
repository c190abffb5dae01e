package telemetry

import (
	"context"
	"time"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

// Repository defines the interface for telemetry data storage
type Repository interface {
	Record(snapshot *Snapshot) error
	Close() error
}

// Snapshot is a point-in-time record of bridge activity.
type Snapshot struct {
	Timestamp    time.Time
	State        string
	SentMessages int64
	SentSamples  int64
	SendFailures int64
	CaptureDrops int64
}
