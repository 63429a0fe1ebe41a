package shipper

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus represents the lifecycle status of a sales order.
type OrderStatus string

const (
	StatusDraft   OrderStatus = "DRAFT"
	StatusPending OrderStatus = "PENDING"
	StatusQuoted  OrderStatus = "QUOTED"
	StatusBooked  OrderStatus = "BOOKED"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusQuoted, StatusBooked:
		return true
	default:
		return false
	}
}

// CarrierCode identifies a shipping provider.
type CarrierCode string

const (
	CarrierUPS   CarrierCode = "UPS"
	CarrierUSPS  CarrierCode = "USPS"
	CarrierFedEx CarrierCode = "FEDEX"
)

// Carriers lists every supported carrier in a stable order.
func Carriers() []CarrierCode {
	return []CarrierCode{CarrierUPS, CarrierUSPS, CarrierFedEx}
}

// Valid reports whether c is a member of the supported carrier set.
func (c CarrierCode) Valid() bool {
	switch c {
	case CarrierUPS, CarrierUSPS, CarrierFedEx:
		return true
	default:
		return false
	}
}

// ParseCarrierCode converts boundary input into a CarrierCode.
// Matching is exact; "ups" is rejected.
func ParseCarrierCode(s string) (CarrierCode, error) {
	c := CarrierCode(strings.TrimSpace(s))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCarrier, s)
	}
	return c, nil
}

// LineItem is a single product line of an order.
type LineItem struct {
	SKU          string  `json:"sku"`
	Quantity     int     `json:"quantity"`
	GramsPerItem float64 `json:"gramsPerItem"`
	PriceCents   int64   `json:"price"`
}

// ShippingQuote is a carrier/price pairing computed for an order.
type ShippingQuote struct {
	Carrier    CarrierCode `json:"carrier"`
	PriceCents int64       `json:"priceCents"`
}

// Order is a sales order awaiting shipping.
type Order struct {
	ID          string          `json:"id"`
	Status      OrderStatus     `json:"status"`
	Customer    string          `json:"customer"`
	Items       []LineItem      `json:"items"`
	Quotes      []ShippingQuote `json:"quotes"`
	BookedQuote *ShippingQuote  `json:"bookedQuote,omitempty"`

	// Version is the optimistic concurrency token maintained by the store.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the order. Slices in the copy never alias
// the receiver's backing arrays.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = make([]LineItem, len(o.Items))
	copy(c.Items, o.Items)
	c.Quotes = make([]ShippingQuote, len(o.Quotes))
	copy(c.Quotes, o.Quotes)
	if o.BookedQuote != nil {
		q := *o.BookedQuote
		c.BookedQuote = &q
	}
	return &c
}

// QuoteFor returns the first quote for the given carrier.
func (o *Order) QuoteFor(carrier CarrierCode) (ShippingQuote, bool) {
	for _, q := range o.Quotes {
		if q.Carrier == carrier {
			return q, true
		}
	}
	return ShippingQuote{}, false
}
