package bridge

import (
	"net/url"
	"time"

	"codeberg.org/mutker/pointbridge/internal/errors"
)

const (
	defaultEndpoint  = "ws://localhost:8081"
	defaultInterval  = 500 * time.Millisecond
	defaultBatchSize = 256

	connectTimeout = 10 * time.Second
	closeGrace     = 2 * time.Second
)

type Config struct {
	Endpoint  string
	Interval  time.Duration
	BatchSize int
}

func DefaultConfig() Config {
	return Config{
		Endpoint:  defaultEndpoint,
		Interval:  defaultInterval,
		BatchSize: defaultBatchSize,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return errFactory.Wrap(ErrInvalidEndpoint, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return errFactory.WithData(ErrInvalidEndpoint, c.Endpoint)
	}

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	if c.BatchSize <= 0 {
		return errFactory.WithData(errors.ErrInvalidBatchSize, c.BatchSize)
	}

	return nil
}
