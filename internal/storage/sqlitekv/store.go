// Package sqlitekv implements storage.KVEngine on a single SQLite table.
package sqlitekv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yndnr/recofeed-go/internal/storage"
	_ "modernc.org/sqlite"
)

// DefaultFileName is the database file created inside the data directory.
const DefaultFileName = "recofeed.db"

const schema = `CREATE TABLE IF NOT EXISTS kv (
	k BLOB PRIMARY KEY,
	v BLOB NOT NULL,
	updated_at INTEGER NOT NULL
) WITHOUT ROWID`

// Store provides SQLite-backed key/value persistence.
type Store struct {
	sqlDB  *sql.DB
	path   string
	closed atomic.Bool
}

// Open opens (creating if needed) the database at path and ensures the kv
// table exists. Use ":memory:" for a private in-memory database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := ":memory:"
	if path != ":memory:" {
		cleanPath := filepath.Clean(path)
		if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		path = cleanPath
		dsn = "file:" + cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A ":memory:" database is per-connection.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	return &Store{sqlDB: sqlDB, path: path}, nil
}

// OpenDir opens DefaultFileName inside dir.
func OpenDir(dir string) (*Store, error) {
	return Open(filepath.Join(dir, DefaultFileName))
}

// Get loads the value stored under key.
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.sqlDB.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrKeyNotFound
		}
		return nil, fmt.Errorf("get kv: %w", err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Set upserts key.
func (s *Store) Set(ctx context.Context, key, value []byte) error {
	if err := s.check(); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO kv (k, v, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put kv: %w", err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key []byte) error {
	if err := s.check(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key); err != nil {
		return fmt.Errorf("delete kv: %w", err)
	}
	return nil
}

// Scan visits keys with the given prefix in ascending order.
func (s *Store) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if err := s.check(); err != nil {
		return err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT k, v FROM kv WHERE k >= ? ORDER BY k`, prefix)
	if err != nil {
		return fmt.Errorf("scan kv: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("scan kv row: %w", err)
		}
		if !strings.HasPrefix(string(k), string(prefix)) {
			break
		}
		if !fn(k, v) {
			break
		}
	}
	return rows.Err()
}

// Stats reports the key count and, for file databases, the file size.
func (s *Store) Stats(ctx context.Context) (*storage.KVStats, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var count int64
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv`).Scan(&count); err != nil {
		return nil, fmt.Errorf("count kv: %w", err)
	}

	stats := &storage.KVStats{
		Engine:    storage.EngineSQLite,
		TotalKeys: uint64(count),
	}
	if s.path != ":memory:" {
		if fi, err := os.Stat(s.path); err == nil {
			stats.TotalSize = uint64(fi.Size())
		}
	}
	return stats, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) check() error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if s.closed.Load() {
		return storage.ErrClosed
	}
	return nil
}

var _ storage.KVEngine = (*Store)(nil)
