package shipper

import "fmt"

// OutcomeKind tags the result of attempting to quote an order.
type OutcomeKind string

const (
	OutcomeOrderNotFound         OutcomeKind = "ORDER_NOT_FOUND"
	OutcomeOrderAlreadyBooked    OutcomeKind = "ORDER_ALREADY_BOOKED"
	OutcomeSuccess               OutcomeKind = "SUCCESS"
	OutcomeQuoteGenerationFailed OutcomeKind = "QUOTE_GENERATION_FAILED"
	OutcomeDatabaseError         OutcomeKind = "DATABASE_ERROR"
)

// Outcome is the result of quoting an order. Order is set only for
// OutcomeSuccess; Message only for the two failure kinds that carry one.
type Outcome struct {
	Kind    OutcomeKind
	Order   *Order
	Message string
}

// NotFound returns an OutcomeOrderNotFound outcome.
func NotFound() Outcome { return Outcome{Kind: OutcomeOrderNotFound} }

// AlreadyBooked returns an OutcomeOrderAlreadyBooked outcome.
func AlreadyBooked() Outcome { return Outcome{Kind: OutcomeOrderAlreadyBooked} }

// Quoted returns an OutcomeSuccess outcome carrying order.
func Quoted(order *Order) Outcome { return Outcome{Kind: OutcomeSuccess, Order: order} }

// QuoteGenerationFailed returns an OutcomeQuoteGenerationFailed outcome.
func QuoteGenerationFailed(msg string) Outcome {
	return Outcome{Kind: OutcomeQuoteGenerationFailed, Message: msg}
}

// DatabaseError returns an OutcomeDatabaseError outcome.
func DatabaseError(msg string) Outcome {
	return Outcome{Kind: OutcomeDatabaseError, Message: msg}
}

// DeriveQuoteOutcome decides whether order can be quoted and, if so, prices
// it with every carrier in order.
//
// The input order is never modified. On success the returned order is a
// deep copy in status QUOTED whose quotes match carriers one to one. A
// pricing failure for any carrier discards every quote computed so far.
// Carriers are expected to be validated by the caller; an unknown code
// yields OutcomeQuoteGenerationFailed rather than an error.
func DeriveQuoteOutcome(order *Order, carriers []CarrierCode, rates RateTable) Outcome {
	if order == nil {
		return NotFound()
	}
	if order.Status == StatusBooked {
		return AlreadyBooked()
	}

	quotes := make([]ShippingQuote, 0, len(carriers))
	for _, carrier := range carriers {
		q, err := QuoteItems(carrier, order.Items, rates)
		if err != nil {
			return QuoteGenerationFailed(fmt.Sprintf("quoting order %s with %s: %v", order.ID, carrier, err))
		}
		quotes = append(quotes, q)
	}

	updated := order.Clone()
	updated.Status = StatusQuoted
	updated.Quotes = quotes
	return Quoted(updated)
}
