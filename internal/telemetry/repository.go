package telemetry

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/mutker/pointbridge/internal/errors"
	"codeberg.org/mutker/pointbridge/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewRepository(cfg Config) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	logger.Debug().Msgf("Initializing telemetry repository at: %s", cfg.DBPath)

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	return &sqliteRepository{
		db: db,
	}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS bridge_stats (
            timestamp INTEGER PRIMARY KEY,
            state TEXT,
            sent_messages INTEGER,
            sent_samples INTEGER,
            send_failures INTEGER,
            capture_drops INTEGER
        )
    `)

	return err
}

func (r *sqliteRepository) Record(snapshot *Snapshot) error {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`
        INSERT INTO bridge_stats (
            timestamp, state,
            sent_messages, sent_samples, send_failures, capture_drops
        ) VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(timestamp) DO UPDATE SET
            state = excluded.state,
            sent_messages = excluded.sent_messages,
            sent_samples = excluded.sent_samples,
            send_failures = excluded.send_failures,
            capture_drops = excluded.capture_drops
    `,
		snapshot.Timestamp.Unix(),
		snapshot.State,
		snapshot.SentMessages,
		snapshot.SentSamples,
		snapshot.SendFailures,
		snapshot.CaptureDrops,
	)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Close() error {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errFactory.Wrap(ErrStorageClose, err)
	}
	return nil
}
