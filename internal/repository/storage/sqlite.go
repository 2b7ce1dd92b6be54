package storage

import (
	"context"
	"database/sql"
	"fmt"

	// import the SQLite driver to register it with the database/sql package.
	_ "modernc.org/sqlite"
)

type Storage struct {
	Connection *sql.DB
}

func NewSQLiteStorage(path string) (*Storage, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	// a single writer keeps balance updates serialized
	conn.SetMaxOpenConns(1)

	if err = conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Storage{Connection: conn}, nil
}

func (that *Storage) Init(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS balances (
			owner  TEXT    NOT NULL,
			asset  TEXT    NOT NULL,
			amount INTEGER NOT NULL DEFAULT 0 CHECK (amount >= 0),
			PRIMARY KEY (owner, asset)
		)`,
		`CREATE TABLE IF NOT EXISTS transfers (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			asset      TEXT    NOT NULL,
			amount     INTEGER NOT NULL,
			from_owner TEXT    NOT NULL,
			to_owner   TEXT    NOT NULL,
			authority  TEXT    NOT NULL,
			created_at INTEGER NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := that.Connection.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("can't create table: %w", err)
		}
	}

	return nil
}

func (that *Storage) Close() error {
	if err := that.Connection.Close(); err != nil {
		return fmt.Errorf("can't close database: %w", err)
	}

	return nil
}
