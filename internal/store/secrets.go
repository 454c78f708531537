package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Secrets stores opaque secret values such as the provider API key. It
// mirrors the settings table but lives apart so secrets are easy to exclude
// from exports and debugging dumps.
type Secrets struct {
	db *DB
}

// NewSecrets creates the secret store.
func NewSecrets(db *DB) *Secrets {
	return &Secrets{db: db}
}

// Get reads a secret. An absent key yields "" without error.
func (s *Secrets) Get(key string) (string, error) {
	var value string
	err := s.db.conn.QueryRow(`SELECT value FROM secrets WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get secret: %w", err)
	}
	return value, nil
}

// Set writes a secret, overwriting any previous value.
func (s *Secrets) Set(key, value string) error {
	now := float64(time.Now().UnixNano()) / float64(time.Second)
	_, err := s.db.conn.Exec(`
		INSERT INTO secrets (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now,
	)
	if err != nil {
		return fmt.Errorf("set secret: %w", err)
	}
	return nil
}

// Delete removes a secret. Deleting an absent key is not an error.
func (s *Secrets) Delete(key string) error {
	if _, err := s.db.conn.Exec(`DELETE FROM secrets WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete secret: %w", err)
	}
	return nil
}
