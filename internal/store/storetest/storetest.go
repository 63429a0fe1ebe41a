// Package storetest holds behaviour tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/orderquote/internal/store"
	"github.com/tournevent/orderquote/pkg/shipper"
)

// NewOrder returns an unsaved pending order.
func NewOrder(id string) *shipper.Order {
	return &shipper.Order{
		ID:       id,
		Status:   shipper.StatusPending,
		Customer: "customer-456",
		Items: []shipper.LineItem{
			{SKU: "ITEM-001", Quantity: 1, GramsPerItem: 100, PriceCents: 1000},
			{SKU: "ITEM-002", Quantity: 2, GramsPerItem: 200.5, PriceCents: 2000},
		},
		Quotes: []shipper.ShippingQuote{},
	}
}

// Run exercises s against the store.Store contract. s must be empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.GetOrder(ctx, "missing")
		assert.True(t, errors.Is(err, store.ErrNotFound))
	})

	t.Run("CreateAndGet", func(t *testing.T) {
		order := NewOrder("order-create")
		require.NoError(t, s.CreateOrder(ctx, order))
		assert.Equal(t, int64(1), order.Version)

		got, err := s.GetOrder(ctx, "order-create")
		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
		assert.Equal(t, order.Status, got.Status)
		assert.Equal(t, order.Customer, got.Customer)
		assert.Equal(t, order.Items, got.Items)
		assert.Empty(t, got.Quotes)
		assert.Nil(t, got.BookedQuote)
		assert.Equal(t, int64(1), got.Version)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		require.NoError(t, s.CreateOrder(ctx, NewOrder("order-dup")))
		err := s.CreateOrder(ctx, NewOrder("order-dup"))
		assert.True(t, errors.Is(err, store.ErrAlreadyExists))
	})

	t.Run("UpdateBumpsVersion", func(t *testing.T) {
		order := NewOrder("order-update")
		require.NoError(t, s.CreateOrder(ctx, order))

		order.Status = shipper.StatusBooked
		order.Quotes = []shipper.ShippingQuote{{Carrier: shipper.CarrierUPS, PriceCents: 815}}
		order.BookedQuote = &shipper.ShippingQuote{Carrier: shipper.CarrierUPS, PriceCents: 815}
		require.NoError(t, s.UpdateOrder(ctx, order))
		assert.Equal(t, int64(2), order.Version)

		got, err := s.GetOrder(ctx, "order-update")
		require.NoError(t, err)
		assert.Equal(t, shipper.StatusBooked, got.Status)
		assert.Equal(t, order.Quotes, got.Quotes)
		require.NotNil(t, got.BookedQuote)
		assert.Equal(t, *order.BookedQuote, *got.BookedQuote)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("UpdateStaleVersion", func(t *testing.T) {
		order := NewOrder("order-stale")
		require.NoError(t, s.CreateOrder(ctx, order))

		first, err := s.GetOrder(ctx, "order-stale")
		require.NoError(t, err)
		second, err := s.GetOrder(ctx, "order-stale")
		require.NoError(t, err)

		first.Status = shipper.StatusQuoted
		require.NoError(t, s.UpdateOrder(ctx, first))

		second.Status = shipper.StatusDraft
		err = s.UpdateOrder(ctx, second)
		assert.True(t, errors.Is(err, store.ErrVersionConflict))

		got, err := s.GetOrder(ctx, "order-stale")
		require.NoError(t, err)
		assert.Equal(t, shipper.StatusQuoted, got.Status)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		err := s.UpdateOrder(ctx, NewOrder("order-never-created"))
		assert.True(t, errors.Is(err, store.ErrNotFound))
	})

	t.Run("ReturnedOrdersAreCopies", func(t *testing.T) {
		order := NewOrder("order-copy")
		require.NoError(t, s.CreateOrder(ctx, order))
		order.Items[0].SKU = "MUTATED"

		got, err := s.GetOrder(ctx, "order-copy")
		require.NoError(t, err)
		assert.Equal(t, "ITEM-001", got.Items[0].SKU)
	})

	t.Run("ConcurrentUpdatesOneWins", func(t *testing.T) {
		require.NoError(t, s.CreateOrder(ctx, NewOrder("order-race")))

		const writers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		readers := make([]*shipper.Order, writers)
		for i := range readers {
			o, err := s.GetOrder(ctx, "order-race")
			require.NoError(t, err)
			readers[i] = o
		}
		for _, o := range readers {
			wg.Add(1)
			go func(o *shipper.Order) {
				defer wg.Done()
				o.Status = shipper.StatusQuoted
				if err := s.UpdateOrder(ctx, o); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}(o)
		}
		wg.Wait()
		assert.Equal(t, 1, succeeded)
	})
}
