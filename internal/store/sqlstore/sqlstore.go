// Package sqlstore implements store.Store over database/sql. The postgres
// and sqlite packages supply the driver and dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tournevent/orderquote/internal/store"
	"github.com/tournevent/orderquote/pkg/shipper"
)

var _ store.Store = (*Store)(nil)

// Dialect captures the differences between SQL engines.
type Dialect struct {
	Name string

	// Schema is executed statement by statement when the store opens.
	Schema []string

	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string

	// IsUniqueViolation reports whether err is a primary key collision.
	IsUniqueViolation func(err error) bool
}

// DollarPlaceholder renders $1, $2, ...
func DollarPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

// QuestionPlaceholder renders ? for every parameter.
func QuestionPlaceholder(int) string { return "?" }

// Store persists orders in a single table with items and quotes as JSON.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time

	selectQuery string
	insertQuery string
	updateQuery string
}

// New applies the dialect schema to db and returns a store using it.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	for _, stmt := range dialect.Schema {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("%s: apply schema: %w", dialect.Name, err)
		}
	}

	p := dialect.Placeholder
	return &Store{
		db:      db,
		dialect: dialect,
		now:     time.Now,
		selectQuery: fmt.Sprintf(`SELECT id, status, customer, items, quotes, booked_quote, version, created_at, updated_at
			FROM orders WHERE id = %s`, p(1)),
		insertQuery: fmt.Sprintf(`INSERT INTO orders
			(id, status, customer, items, quotes, booked_quote, version, created_at, updated_at)
			VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s)`,
			p(1), p(2), p(3), p(4), p(5), p(6), p(7), p(8), p(9)),
		updateQuery: fmt.Sprintf(`UPDATE orders
			SET status = %s, customer = %s, items = %s, quotes = %s, booked_quote = %s,
				version = version + 1, updated_at = %s
			WHERE id = %s AND version = %s`,
			p(1), p(2), p(3), p(4), p(5), p(6), p(7), p(8)),
	}, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// GetOrder loads the order with id.
func (s *Store) GetOrder(ctx context.Context, id string) (*shipper.Order, error) {
	var (
		o                    shipper.Order
		status               string
		items, quotes        string
		booked               sql.NullString
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, s.selectQuery, id).
		Scan(&o.ID, &status, &o.Customer, &items, &quotes, &booked, &o.Version, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select order %s: %w", id, err)
	}

	o.Status = shipper.OrderStatus(status)
	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(quotes), &o.Quotes); err != nil {
		return nil, fmt.Errorf("decode quotes of %s: %w", id, err)
	}
	if booked.Valid {
		var q shipper.ShippingQuote
		if err := json.Unmarshal([]byte(booked.String), &q); err != nil {
			return nil, fmt.Errorf("decode booked quote of %s: %w", id, err)
		}
		o.BookedQuote = &q
	}
	if o.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at of %s: %w", id, err)
	}
	if o.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at of %s: %w", id, err)
	}
	return &o, nil
}

// CreateOrder inserts order at version 1.
func (s *Store) CreateOrder(ctx context.Context, order *shipper.Order) error {
	items, quotes, booked, err := encode(order)
	if err != nil {
		return err
	}
	now := s.now().UTC()

	_, err = s.db.ExecContext(ctx, s.insertQuery,
		order.ID, string(order.Status), order.Customer, items, quotes, booked,
		int64(1), now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		if s.dialect.IsUniqueViolation != nil && s.dialect.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", store.ErrAlreadyExists, order.ID)
		}
		return fmt.Errorf("insert order %s: %w", order.ID, err)
	}
	order.Version = 1
	order.CreatedAt = now
	order.UpdatedAt = now
	return nil
}

// UpdateOrder writes order back if nobody else has since order.Version.
func (s *Store) UpdateOrder(ctx context.Context, order *shipper.Order) error {
	items, quotes, booked, err := encode(order)
	if err != nil {
		return err
	}
	now := s.now().UTC()

	res, err := s.db.ExecContext(ctx, s.updateQuery,
		string(order.Status), order.Customer, items, quotes, booked,
		now.Format(time.RFC3339Nano), order.ID, order.Version)
	if err != nil {
		return fmt.Errorf("update order %s: %w", order.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order %s: %w", order.ID, err)
	}
	if n == 0 {
		if _, err := s.GetOrder(ctx, order.ID); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s at version %d", store.ErrVersionConflict, order.ID, order.Version)
	}
	order.Version++
	order.UpdatedAt = now
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func encode(order *shipper.Order) (items, quotes string, booked sql.NullString, err error) {
	itemList := order.Items
	if itemList == nil {
		itemList = []shipper.LineItem{}
	}
	quoteList := order.Quotes
	if quoteList == nil {
		quoteList = []shipper.ShippingQuote{}
	}

	b, err := json.Marshal(itemList)
	if err != nil {
		return "", "", booked, fmt.Errorf("encode items of %s: %w", order.ID, err)
	}
	items = string(b)
	if b, err = json.Marshal(quoteList); err != nil {
		return "", "", booked, fmt.Errorf("encode quotes of %s: %w", order.ID, err)
	}
	quotes = string(b)
	if order.BookedQuote != nil {
		if b, err = json.Marshal(order.BookedQuote); err != nil {
			return "", "", booked, fmt.Errorf("encode booked quote of %s: %w", order.ID, err)
		}
		booked = sql.NullString{String: string(b), Valid: true}
	}
	return items, quotes, booked, nil
}
