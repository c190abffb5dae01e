package config

import (
	"os"

	"codeberg.org/mutker/pointbridge/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultEndpoint  = "ws://localhost:8081"
	DefaultInterval  = 500
	DefaultBatchSize = 256
	DefaultLogLevel  = "info"
)

type Config struct {
	Endpoint    string `mapstructure:"endpoint"`
	Interval    int    `mapstructure:"interval"`
	BatchSize   int    `mapstructure:"batch_size"`
	Simulate    bool   `mapstructure:"simulate"`
	LogLevel    string `mapstructure:"log_level"`
	Telemetry   bool   `mapstructure:"telemetry"`
	TelemetryDB string `mapstructure:"database"`
}

// Load reads configuration from defaults, an optional TOML config file
// (POINTBRIDGE_CONFIG or /etc/pointbridge.toml) and command line flags,
// in increasing order of precedence.
func Load() (*Config, error) {
	errFactory := errors.New()
	v := viper.New()

	v.SetDefault("endpoint", DefaultEndpoint)
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("batch_size", DefaultBatchSize)
	v.SetDefault("simulate", true)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("telemetry", false)
	v.SetDefault("database", "")

	fs := pflag.NewFlagSet("pointbridge", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.String("endpoint", DefaultEndpoint, "WebSocket endpoint of the remote consumer")
	fs.Int("interval", DefaultInterval, "Interval between simulated batches in milliseconds")
	fs.Int("batch-size", DefaultBatchSize, "Number of samples per simulated batch")
	fs.Bool("simulate", true, "Stream synthetic samples when no capture device is attached")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.Bool("telemetry", false, "Enable telemetry collection")
	fs.String("database", "", "Path to the telemetry database")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	// Load configuration from file
	if path := os.Getenv("POINTBRIDGE_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pointbridge")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.WithMessage(errors.ErrReadConfig,
				"Failed to read config file").WithData(err.Error())
		}
	}

	// Override config file values with command line flags
	fs.Visit(func(f *pflag.Flag) {
		key := f.Name
		if key == "batch-size" {
			key = "batch_size"
		}
		if key == "log-level" {
			key = "log_level"
		}
		v.Set(key, f.Value.String())
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the loaded configuration for values the bridge
// cannot operate with.
func (c *Config) Validate() error {
	errFactory := errors.New()

	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	if c.BatchSize <= 0 {
		return errFactory.WithData(errors.ErrInvalidBatchSize, c.BatchSize)
	}

	if c.Endpoint == "" {
		return errFactory.New(errors.ErrInvalidEndpoint)
	}

	return nil
}
