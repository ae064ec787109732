package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultDiskBytes bounds a Disk cache opened with a zero capacity.
const DefaultDiskBytes = 10 << 20

// Disk is a sqlite-backed cache that evicts the oldest entries once the
// stored total exceeds its capacity.
type Disk struct {
	db       *sql.DB
	capacity int64
}

// OpenDisk opens, creating if needed, the cache database at path.
func OpenDisk(path string, capacity int64) (*Disk, error) {
	if capacity <= 0 {
		capacity = DefaultDiskBytes
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	// A single connection serializes writers and keeps eviction atomic.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to cache database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS responses (
		key TEXT PRIMARY KEY,
		status_code INTEGER NOT NULL,
		header TEXT NOT NULL,
		data BLOB NOT NULL,
		size INTEGER NOT NULL,
		stored_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_responses_stored_at ON responses(stored_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Disk{db: db, capacity: capacity}, nil
}

func (d *Disk) Get(ctx context.Context, key string) (*Entry, error) {
	var (
		e        Entry
		header   string
		storedAt int64
	)

	row := d.db.QueryRowContext(ctx, `SELECT status_code, header, data, stored_at FROM responses WHERE key = ?`, key)
	if err := row.Scan(&e.StatusCode, &header, &e.Data, &storedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	if err := json.Unmarshal([]byte(header), &e.Header); err != nil {
		return nil, fmt.Errorf("decoding cached header: %w", err)
	}
	e.StoredAt = time.Unix(0, storedAt)

	return &e, nil
}

// Set stores e and evicts the oldest entries beyond capacity. An entry
// larger than the whole cache is not stored.
func (d *Disk) Set(ctx context.Context, key string, e *Entry) error {
	size := e.Size() + int64(len(key))
	if size > d.capacity {
		return d.Delete(ctx, key)
	}

	header, err := json.Marshal(e.Header)
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}

	storedAt := e.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning cache transaction: %w", err)
	}
	defer tx.Rollback()

	insert := `
	INSERT OR REPLACE INTO responses (key, status_code, header, data, size, stored_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert, key, e.StatusCode, string(header), e.Data, size, storedAt.UnixNano()); err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}

	evict := `
	DELETE FROM responses WHERE key IN (
		SELECT key FROM (
			SELECT key, SUM(size) OVER (ORDER BY stored_at DESC, rowid DESC) AS running
			FROM responses
		) WHERE running > ?
	)`
	if _, err := tx.ExecContext(ctx, evict, d.capacity); err != nil {
		return fmt.Errorf("evicting cache entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cache entry: %w", err)
	}

	return nil
}

func (d *Disk) Delete(ctx context.Context, key string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM responses WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

func (d *Disk) Clear(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM responses`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Close releases the database.
func (d *Disk) Close() error {
	return d.db.Close()
}
