// Package memory provides an in-process order store.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tournevent/orderquote/internal/store"
	"github.com/tournevent/orderquote/pkg/shipper"
)

var _ store.Store = (*Store)(nil)

// Store keeps orders in a map. Orders are copied on the way in and out.
type Store struct {
	orders map[string]*shipper.Order
	mu     sync.RWMutex
	now    func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		orders: make(map[string]*shipper.Order),
		now:    time.Now,
	}
}

// GetOrder returns a copy of the stored order.
func (s *Store) GetOrder(ctx context.Context, id string) (*shipper.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return o.Clone(), nil
}

// CreateOrder stores a copy of order at version 1.
func (s *Store) CreateOrder(ctx context.Context, order *shipper.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; ok {
		return fmt.Errorf("%w: %s", store.ErrAlreadyExists, order.ID)
	}
	now := s.now().UTC()
	order.Version = 1
	order.CreatedAt = now
	order.UpdatedAt = now
	s.orders[order.ID] = order.Clone()
	return nil
}

// UpdateOrder replaces the order if the version matches.
func (s *Store) UpdateOrder(ctx context.Context, order *shipper.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.orders[order.ID]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, order.ID)
	}
	if current.Version != order.Version {
		return fmt.Errorf("%w: %s at version %d, have %d",
			store.ErrVersionConflict, order.ID, current.Version, order.Version)
	}
	order.Version++
	order.CreatedAt = current.CreatedAt
	order.UpdatedAt = s.now().UTC()
	s.orders[order.ID] = order.Clone()
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
