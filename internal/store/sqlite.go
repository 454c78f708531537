// Package store provides the SQLite-backed collaborators of the
// conversational core: credential entries, chat transcript, settings and
// secrets.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection.
type DB struct {
	conn *sql.DB
}

// New opens (creating if needed) the database at dbPath and runs migrations.
func New(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite works best with a single connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection, used by the readiness endpoint.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// ClearAll wipes entries and the chat transcript. Settings and secrets are
// kept so the user does not have to re-enter the API key.
func (db *DB) ClearAll() error {
	for _, stmt := range []string{
		`DELETE FROM password_entries`,
		`DELETE FROM chat_messages`,
	} {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}
	return nil
}

func (db *DB) migrate() error {
	migrations := []string{
		// Credential entries with per-record sync bookkeeping. Timestamps
		// are epoch seconds.
		`CREATE TABLE IF NOT EXISTS password_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			record_uuid TEXT NOT NULL UNIQUE,
			platform TEXT NOT NULL,
			account TEXT NOT NULL,
			password TEXT NOT NULL,
			note TEXT NOT NULL,
			primary_tag TEXT NOT NULL,
			secondary_tag TEXT,
			created_at REAL NOT NULL,
			updated_at REAL NOT NULL,
			sync_version INTEGER NOT NULL,
			is_deleted INTEGER NOT NULL DEFAULT 0,
			deleted_at REAL,
			updated_by_device TEXT NOT NULL,
			sync_state TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS chat_messages (
			id TEXT PRIMARY KEY,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			payload_type TEXT NOT NULL,
			created_at REAL NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at REAL NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS secrets (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at REAL NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
