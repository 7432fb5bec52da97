package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"caspomat/internal/account/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	identity TEXT PRIMARY KEY,
	pin      TEXT NOT NULL,
	balance  INTEGER NOT NULL CHECK (balance >= 0)
);`

// SQLiteAccountStore persists the directory in a local SQLite database. An
// empty table means no durable state exists yet, so Load hands back the
// built-in defaults, mirroring the flat-file backend. Save runs in a single
// transaction so a failure never exposes a half-written directory.
type SQLiteAccountStore struct {
	db *sqlx.DB
}

func NewSQLiteAccountStore(dsn string) (*SQLiteAccountStore, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteAccountStore{db: db}, nil
}

func (s *SQLiteAccountStore) Close() error {
	return s.db.Close()
}

type accountRow struct {
	Identity string `db:"identity"`
	PIN      string `db:"pin"`
	Balance  int64  `db:"balance"`
}

func (s *SQLiteAccountStore) Load(ctx context.Context) (map[string]models.Account, error) {
	var rows []accountRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT identity, pin, balance FROM accounts`); err != nil {
		return nil, fmt.Errorf("select accounts: %v: %w", err, ErrCorruptState)
	}
	if len(rows) == 0 {
		return Defaults(), nil
	}
	accounts := make(map[string]models.Account, len(rows))
	for _, r := range rows {
		accounts[r.Identity] = models.Account{Identity: r.Identity, PIN: r.PIN, Balance: r.Balance}
	}
	return accounts, nil
}

func (s *SQLiteAccountStore) Save(ctx context.Context, accounts map[string]models.Account) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	for _, a := range accounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (identity, pin, balance) VALUES (?, ?, ?)`,
			a.Identity, a.PIN, a.Balance); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteFailed, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

func (s *SQLiteAccountStore) Get(ctx context.Context, identity string) (models.Account, error) {
	var row accountRow
	err := s.db.GetContext(ctx, &row,
		`SELECT identity, pin, balance FROM accounts WHERE identity = ?`, identity)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("select account: %w", err)
	}
	return models.Account{Identity: row.Identity, PIN: row.PIN, Balance: row.Balance}, nil
}

func (s *SQLiteAccountStore) Put(ctx context.Context, account models.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (identity, pin, balance) VALUES (?, ?, ?)
		 ON CONFLICT(identity) DO UPDATE SET pin = excluded.pin, balance = excluded.balance`,
		account.Identity, account.PIN, account.Balance)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}
