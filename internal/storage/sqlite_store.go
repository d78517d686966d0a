package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore keeps saves in a SQLite table, one row per slot.
type SQLiteStore struct {
	db   *sqlx.DB
	slot string
}

// OpenSQLite opens (or creates) the database at dbPath and prepares the schema.
func OpenSQLite(dbPath, slot string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "tycoon.db"
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and writes serialised.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, slot: slot}, nil
}

func createSchema(db *sqlx.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS saves (
		slot TEXT PRIMARY KEY,
		blob TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);`)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context) ([]byte, error) {
	var blob string
	err := s.db.GetContext(ctx, &blob, `SELECT blob FROM saves WHERE slot = ?`, s.slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load save %q: %w", s.slot, err)
	}
	return []byte(blob), nil
}

func (s *SQLiteStore) Save(ctx context.Context, blob []byte) error {
	query := `
		INSERT INTO saves (slot, blob, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			blob=excluded.blob,
			updated_at=excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, s.slot, string(blob), time.Now().UTC()); err != nil {
		return fmt.Errorf("save %q: %w", s.slot, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
