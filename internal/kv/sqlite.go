package kv

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated TEXT NOT NULL
);
`

// SQLite stores keys as rows of a single table in an embedded database.
type SQLite struct {
	db     *sql.DB
	dbPath string
}

// NewSQLite opens or creates the database at dbPath and ensures the schema exists.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening kv database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv schema: %w", err)
	}

	return &SQLite{db: db, dbPath: dbPath}, nil
}

// NewSQLiteWithRecovery opens the database, deleting and recreating it if corrupted.
func NewSQLiteWithRecovery(dbPath string) (*SQLite, error) {
	s, err := NewSQLite(dbPath)
	if err != nil {
		// Corrupted: delete and retry.
		os.Remove(dbPath)
		s, err = NewSQLite(dbPath)
		if err != nil {
			return nil, fmt.Errorf("recovery failed: %w", err)
		}
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.dbPath }

func (s *SQLite) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying key %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLite) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated = excluded.updated`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}
	return nil
}

func (s *SQLite) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("removing key %q: %w", key, err)
	}
	return nil
}

func (s *SQLite) Clear() error {
	if _, err := s.db.Exec("DELETE FROM kv"); err != nil {
		return fmt.Errorf("clearing kv: %w", err)
	}
	return nil
}

func (s *SQLite) Keys() ([]string, error) {
	rows, err := s.db.Query("SELECT key FROM kv ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// RemovePrefix deletes every key starting with prefix in one statement.
func (s *SQLite) RemovePrefix(prefix string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("DELETE FROM kv WHERE substr(key, 1, ?) = ?")
	if err != nil {
		return fmt.Errorf("preparing delete: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(len(prefix), prefix); err != nil {
		return fmt.Errorf("removing prefix %q: %w", prefix, err)
	}
	return tx.Commit()
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
