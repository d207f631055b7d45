package storage

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	"github.com/wippyai/wasm-playhost/errors"
)

// SQLiteStore keeps blobs in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite database at dbPath and runs the
// schema migration.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseStorage, errors.KindOperationFailed, err, "open store db")
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.PhaseStorage, errors.KindOperationFailed, err, "set WAL mode")
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.PhaseStorage, errors.KindOperationFailed, err, "migrate store db")
	}
	Logger().Debug("sqlite store opened", zap.String("path", dbPath))
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			path       TEXT PRIMARY KEY,
			data       BLOB,
			updated_at TEXT NOT NULL
		)
	`)
	return err
}

func (s *SQLiteStore) Read(ctx context.Context, p string) ([]byte, error) {
	name, err := Clean(p)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = s.db.QueryRowContext(ctx, "SELECT data FROM files WHERE path = ?", name).Scan(&data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound(p)
	}
	if err != nil {
		return nil, errors.Wrap(errors.PhaseStorage, errors.KindOperationFailed, err, "read "+name)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (s *SQLiteStore) Write(ctx context.Context, p string, data []byte) error {
	name, err := Clean(p)
	if err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO files (path, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, data, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.Wrap(errors.PhaseStorage, errors.KindOperationFailed, err, "write "+name)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
