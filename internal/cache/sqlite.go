package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sajibhub/instagram-downloader/internal/domain"
)

// sqliteStore is the optional persistence layer behind the memory cache.
// Entries are stored as JSON with their absolute expiry.
type sqliteStore struct {
	db *sql.DB
}

func newSQLiteStore(path string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS resolved_posts (
			key        TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_resolved_posts_expires ON resolved_posts(expires_at);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) get(key string, now time.Time) (*domain.ResolvedPost, time.Time, bool) {
	var payload string
	var expiresUnix int64

	err := s.db.QueryRow(
		`SELECT payload, expires_at FROM resolved_posts WHERE key = ?`, key,
	).Scan(&payload, &expiresUnix)
	if err != nil {
		return nil, time.Time{}, false
	}

	expiresAt := time.Unix(expiresUnix, 0)
	if !now.Before(expiresAt) {
		s.db.Exec(`DELETE FROM resolved_posts WHERE key = ?`, key)
		return nil, time.Time{}, false
	}

	var post domain.ResolvedPost
	if err := json.Unmarshal([]byte(payload), &post); err != nil {
		return nil, time.Time{}, false
	}
	return &post, expiresAt, true
}

func (s *sqliteStore) set(key string, post *domain.ResolvedPost, expiresAt time.Time) error {
	payload, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("encode post: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO resolved_posts (key, payload, expires_at) VALUES (?, ?, ?)`,
		key, string(payload), expiresAt.Unix(),
	)
	return err
}

func (s *sqliteStore) flush() error {
	_, err := s.db.Exec(`DELETE FROM resolved_posts`)
	return err
}

func (s *sqliteStore) purgeExpired(now time.Time) error {
	_, err := s.db.Exec(`DELETE FROM resolved_posts WHERE expires_at <= ?`, now.Unix())
	return err
}

func (s *sqliteStore) close() error {
	return s.db.Close()
}
