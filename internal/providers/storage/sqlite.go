package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS account_data (
	account    TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLite keeps account data in a single table
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path. ":memory:" gives a
// private in-memory database.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; an in-memory database also lives on a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Load(ctx context.Context, account string) (string, error) {
	if err := ValidateAccount(account); err != nil {
		return "", err
	}
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM account_data WHERE account = ?`, account).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return data, err
}

func (s *SQLite) Save(ctx context.Context, account, data string) error {
	if err := ValidateAccount(account); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO account_data (account, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(account) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		account, data, time.Now().UnixMilli())
	return err
}

func (s *SQLite) Delete(ctx context.Context, account string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM account_data WHERE account = ?`, account)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
