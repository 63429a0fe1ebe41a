// Package sqlite opens an order store backed by a local SQLite file using
// the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tournevent/orderquote/internal/store/sqlstore"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id           TEXT PRIMARY KEY,
		status       TEXT NOT NULL,
		customer     TEXT NOT NULL,
		items        TEXT NOT NULL DEFAULT '[]',
		quotes       TEXT NOT NULL DEFAULT '[]',
		booked_quote TEXT,
		version      INTEGER NOT NULL DEFAULT 1,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
}

// Dialect returns the SQLite flavour of the SQL store.
func Dialect() sqlstore.Dialect {
	return sqlstore.Dialect{
		Name:        "sqlite",
		Schema:      schema,
		Placeholder: sqlstore.QuestionPlaceholder,
		IsUniqueViolation: func(err error) bool {
			var sqliteErr *sqlite.Error
			return errors.As(err, &sqliteErr) &&
				(sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
					sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE)
		},
	}
}

// Open opens (or creates) the database file at path.
func Open(ctx context.Context, path string) (*sqlstore.Store, error) {
	if path == "" {
		path = "orders.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	s, err := sqlstore.New(ctx, db, Dialect())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
