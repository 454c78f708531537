package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Settings is a string key-value store for user preferences, the Go stand-in
// for the mobile app's defaults store.
type Settings struct {
	db *DB
}

// NewSettings creates the settings store.
func NewSettings(db *DB) *Settings {
	return &Settings{db: db}
}

// Get reads a setting. Absent keys yield "" without error.
func (s *Settings) Get(key string) (string, error) {
	var value string
	err := s.db.conn.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// Set writes a setting, overwriting any previous value.
func (s *Settings) Set(key, value string) error {
	now := float64(time.Now().UnixNano()) / float64(time.Second)
	_, err := s.db.conn.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now,
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
