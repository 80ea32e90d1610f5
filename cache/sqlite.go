package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a persistent Cache backed by a single-table SQLite database.
// Entries carry an expiration timestamp; 0 means the entry never expires.
// Expired rows are skipped on read and removed in bulk by Sweep.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a cache database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Get(key string) ([]byte, bool, error) {
	var data []byte
	var expiresAt int64
	err := s.db.QueryRow("SELECT data, expires_at FROM kv WHERE key = ?", key).
		Scan(&data, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %q: %w", key, err)
	}
	if expiresAt != 0 && expiresAt <= time.Now().Unix() {
		return nil, false, nil
	}
	return data, true, nil
}

func (s *SQLite) Put(key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl != 0 {
		expiresAt = time.Now().Add(ttl).Unix()
	}
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO kv (key, data, expires_at) VALUES (?, ?, ?)",
		key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("cache put %q: %w", key, err)
	}
	return nil
}

// Sweep deletes all expired entries and returns the number removed.
func (s *SQLite) Sweep() (int64, error) {
	res, err := s.db.Exec("DELETE FROM kv WHERE expires_at != 0 AND expires_at <= ?",
		time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("cache sweep: %w", err)
	}
	return res.RowsAffected()
}
