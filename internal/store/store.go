// Package store defines persistence for orders.
//
// Updates are optimistic: UpdateOrder succeeds only if the stored version
// equals order.Version, and bumps it on success. Callers that read, derive
// and write back re-read on ErrVersionConflict.
package store

import (
	"context"
	"errors"

	"github.com/tournevent/orderquote/pkg/shipper"
)

var (
	// ErrNotFound indicates no order exists with the requested ID.
	ErrNotFound = errors.New("order not found")

	// ErrVersionConflict indicates the order changed since it was read.
	ErrVersionConflict = errors.New("order version conflict")

	// ErrAlreadyExists indicates an order with the same ID is stored.
	ErrAlreadyExists = errors.New("order already exists")
)

// Store persists orders.
type Store interface {
	// GetOrder returns the order with id or ErrNotFound.
	GetOrder(ctx context.Context, id string) (*shipper.Order, error)

	// CreateOrder inserts a new order at version 1.
	CreateOrder(ctx context.Context, order *shipper.Order) error

	// UpdateOrder replaces the stored order if its version still matches.
	UpdateOrder(ctx context.Context, order *shipper.Order) error

	// Close releases the underlying resources.
	Close() error
}
