package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/figurabot/figura/internal/db/migrations"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/figurabot/figura/internal/logging"
)

// Open creates a SQLite database connection, runs migrations, and returns it.
// The connection is limited to a single open conn: SQLite doesn't handle
// concurrent writers well, so all access is serialized through it.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrations.Run(conn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logging.Infof("SQLite database initialized at %s", path)
	return conn, nil
}

// OpenMemory opens an in-memory database with migrations applied.
// Used by tests.
func OpenMemory() (*sql.DB, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if err := migrations.Run(conn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return conn, nil
}
