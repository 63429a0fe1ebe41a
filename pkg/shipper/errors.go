package shipper

import (
	"errors"
	"fmt"
)

// QuoteError codes.
const (
	CodeUnknownCarrier = "UNKNOWN_CARRIER"
	CodeInvalidWeight  = "INVALID_WEIGHT"
)

// QuoteError reports why a carrier could not price a set of items. Err is
// one of the sentinels below, possibly wrapped with detail.
type QuoteError struct {
	Carrier CarrierCode
	Code    string
	Err     error
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("pricing %s [%s]: %v", e.Carrier, e.Code, e.Err)
}

func (e *QuoteError) Unwrap() error {
	return e.Err
}

// Sentinel errors for pricing and order validation.
var (
	// ErrUnknownCarrier indicates a carrier code outside the supported set
	// or missing from the rate table.
	ErrUnknownCarrier = errors.New("unknown carrier")

	// ErrInvalidItem indicates a line item with a negative, missing or
	// non-finite field.
	ErrInvalidItem = errors.New("invalid line item")

	// ErrInvalidStatus indicates an order status outside the known set.
	ErrInvalidStatus = errors.New("invalid order status")
)
