package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/pointbridge/internal/bridge"
	"codeberg.org/mutker/pointbridge/internal/config"
	"codeberg.org/mutker/pointbridge/internal/logger"
	"codeberg.org/mutker/pointbridge/internal/pid"
	"codeberg.org/mutker/pointbridge/internal/telemetry"
)

const statsInterval = 30 * time.Second

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	collector, err := telemetry.NewService(telemetry.Config{
		Enabled: cfg.Telemetry,
		DBPath:  cfg.TelemetryDB,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize telemetry")
	}

	b, err := bridge.New(bridge.Config{
		Endpoint:  cfg.Endpoint,
		Interval:  time.Duration(cfg.Interval) * time.Millisecond,
		BatchSize: cfg.BatchSize,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize bridge")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := b.Connect(ctx); err != nil {
		// Non-fatal: the operator may fix the endpoint and restart, or
		// the remote may come up later.
		logger.Error().Err(err).Msg("initial connect failed")
	}

	if cfg.Simulate {
		b.StartSimulatedStream()
	}

	if err := loop(ctx, b, collector); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}

	cleanup(b, collector)
}

func loop(ctx context.Context, b *bridge.Bridge, collector telemetry.Collector) error {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats := b.Stats()
			snapshot := &telemetry.Snapshot{
				Timestamp:    time.Now(),
				State:        stats.State.String(),
				SentMessages: stats.SentMessages,
				SentSamples:  stats.SentSamples,
				SendFailures: stats.SendFailures,
				CaptureDrops: stats.CaptureDrops,
			}
			if err := collector.Record(ctx, snapshot); err != nil {
				logger.Error().Err(err).Msg("failed to record telemetry")
			}

			logger.Info().
				Str("state", snapshot.State).
				Int64("sent_messages", snapshot.SentMessages).
				Int64("sent_samples", snapshot.SentSamples).
				Int64("send_failures", snapshot.SendFailures).
				Int64("capture_drops", snapshot.CaptureDrops).
				Msg("")
		}
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func cleanup(b *bridge.Bridge, collector telemetry.Collector) {
	if err := b.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close bridge")
	}
	if err := collector.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close telemetry")
	}
	logger.Info().Msg("Exiting...")
}
