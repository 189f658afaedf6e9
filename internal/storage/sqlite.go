package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	applog "finanzas/internal/log"
	"finanzas/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Persister = (*SQLiteSnapshots)(nil)

// SQLiteSnapshots keeps snapshots as rows of the snapshots table, one per key.
type SQLiteSnapshots struct {
	db     *sql.DB
	logger *applog.Logger
}

// NewSQLiteSnapshots opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteSnapshots(dbPath string) (*SQLiteSnapshots, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteSnapshots{db: db, logger: applog.Discard()}, nil
}

// WithLogger sets the logger used for save diagnostics.
func (r *SQLiteSnapshots) WithLogger(l *applog.Logger) *SQLiteSnapshots {
	r.logger = l.WithComponent(applog.ComponentStorage)
	return r
}

func (r *SQLiteSnapshots) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get snapshot: %w", err)
	}
	return data, true, nil
}

func (r *SQLiteSnapshots) Set(ctx context.Context, key string, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data)
	if err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}

	r.logger.DebugContext(ctx, "Snapshot saved to SQLite", applog.FieldKey, key, "bytes", len(data))
	return nil
}

func (r *SQLiteSnapshots) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
