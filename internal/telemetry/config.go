package telemetry

import "codeberg.org/mutker/pointbridge/internal/errors"

const (
	defaultDirPerm = 0o755
	defaultDBPath  = "/var/lib/pointbridge/telemetry.db"
)

type Config struct {
	DBPath  string
	Enabled bool
}

func DefaultConfig() Config {
	return Config{
		DBPath:  defaultDBPath,
		Enabled: false,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate DBPath if telemetry is enabled
	if c.Enabled && c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	return nil
}
