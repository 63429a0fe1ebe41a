// Package postgres opens an order store backed by Postgres through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/tournevent/orderquote/internal/store/sqlstore"
)

const (
	driverName = "pgx"
	defaultDSN = "postgresql://localhost:5432/skutopia"

	uniqueViolation = "23505"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id           TEXT PRIMARY KEY,
		status       TEXT NOT NULL,
		customer     TEXT NOT NULL,
		items        TEXT NOT NULL DEFAULT '[]',
		quotes       TEXT NOT NULL DEFAULT '[]',
		booked_quote TEXT,
		version      BIGINT NOT NULL DEFAULT 1,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
}

// Dialect returns the Postgres flavour of the SQL store.
func Dialect() sqlstore.Dialect {
	return sqlstore.Dialect{
		Name:        "postgres",
		Schema:      schema,
		Placeholder: sqlstore.DollarPlaceholder,
		IsUniqueViolation: func(err error) bool {
			var pgErr *pgconn.PgError
			return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
		},
	}
}

// Open connects to dsn, falling back to the local default, and prepares the
// orders table.
func Open(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s, err := sqlstore.New(ctx, db, Dialect())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
