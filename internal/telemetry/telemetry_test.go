package telemetry_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/pointbridge/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceDisabled(t *testing.T) {
	collector, err := telemetry.NewService(telemetry.Config{Enabled: false})
	require.NoError(t, err)

	// The no-op collector accepts anything.
	require.NoError(t, collector.Record(context.Background(), nil))
	require.NoError(t, collector.Close())
}

func TestNewServiceEnabledWithoutPath(t *testing.T) {
	_, err := telemetry.NewService(telemetry.Config{Enabled: true})
	require.Error(t, err)
}

func TestRecordAndReadBack(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")
	collector, err := telemetry.NewService(telemetry.Config{Enabled: true, DBPath: dbPath})
	require.NoError(t, err)

	now := time.Now()
	snapshot := &telemetry.Snapshot{
		Timestamp:    now,
		State:        "connected",
		SentMessages: 12,
		SentSamples:  3072,
		SendFailures: 1,
		CaptureDrops: 2,
	}
	require.NoError(t, collector.Record(context.Background(), snapshot))

	// Recording the same timestamp again updates in place.
	snapshot.SentMessages = 13
	require.NoError(t, collector.Record(context.Background(), snapshot))
	require.NoError(t, collector.Close())

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count, sentMessages int64
	var state string
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM bridge_stats`).Scan(&count))
	require.NoError(t, db.QueryRow(
		`SELECT state, sent_messages FROM bridge_stats WHERE timestamp = ?`, now.Unix(),
	).Scan(&state, &sentMessages))

	assert.EqualValues(t, 1, count)
	assert.Equal(t, "connected", state)
	assert.EqualValues(t, 13, sentMessages)
}

func TestRecordNilSnapshot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")
	collector, err := telemetry.NewService(telemetry.Config{Enabled: true, DBPath: dbPath})
	require.NoError(t, err)
	defer collector.Close()

	require.Error(t, collector.Record(context.Background(), nil))
}

func TestRecordCancelledContext(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")
	collector, err := telemetry.NewService(telemetry.Config{Enabled: true, DBPath: dbPath})
	require.NoError(t, err)
	defer collector.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, collector.Record(ctx, &telemetry.Snapshot{Timestamp: time.Now()}))
}
