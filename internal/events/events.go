// Package events publishes order lifecycle events.
package events

import (
	"context"
	"time"

	"github.com/tournevent/orderquote/pkg/shipper"
)

// Event types.
const (
	TypeOrderQuoted = "order.quoted"
	TypeOrderBooked = "order.booked"
)

// Event describes a persisted change to an order.
type Event struct {
	Type        string                  `json:"type"`
	OrderID     string                  `json:"orderId"`
	Status      shipper.OrderStatus     `json:"status"`
	Quotes      []shipper.ShippingQuote `json:"quotes,omitempty"`
	BookedQuote *shipper.ShippingQuote  `json:"bookedQuote,omitempty"`
	Version     int64                   `json:"version"`
	OccurredAt  time.Time               `json:"occurredAt"`
}

// NewEvent builds an event of type typ from the persisted order.
func NewEvent(typ string, order *shipper.Order) Event {
	return Event{
		Type:        typ,
		OrderID:     order.ID,
		Status:      order.Status,
		Quotes:      order.Quotes,
		BookedQuote: order.BookedQuote,
		Version:     order.Version,
		OccurredAt:  time.Now().UTC(),
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, Event) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
