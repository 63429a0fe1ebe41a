package shipper

// BookingKind tags the result of attempting to book an order.
type BookingKind string

const (
	BookingOrderNotFound      BookingKind = "ORDER_NOT_FOUND"
	BookingOrderAlreadyBooked BookingKind = "ORDER_ALREADY_BOOKED"
	BookingQuoteNotFound      BookingKind = "QUOTE_NOT_FOUND"
	BookingSuccess            BookingKind = "SUCCESS"
	BookingDatabaseError      BookingKind = "DATABASE_ERROR"
)

// BookingOutcome is the result of booking an order with a carrier.
type BookingOutcome struct {
	Kind    BookingKind
	Order   *Order
	Message string
}

// DeriveBookingOutcome books order with a carrier it was previously
// quoted for. Like DeriveQuoteOutcome it never modifies order.
func DeriveBookingOutcome(order *Order, carrier CarrierCode) BookingOutcome {
	if order == nil {
		return BookingOutcome{Kind: BookingOrderNotFound}
	}
	if order.Status == StatusBooked {
		return BookingOutcome{Kind: BookingOrderAlreadyBooked}
	}
	if order.Status != StatusQuoted {
		return BookingOutcome{Kind: BookingQuoteNotFound, Message: "order has not been quoted"}
	}
	q, ok := order.QuoteFor(carrier)
	if !ok {
		return BookingOutcome{Kind: BookingQuoteNotFound, Message: "no quote for carrier " + string(carrier)}
	}

	updated := order.Clone()
	updated.Status = StatusBooked
	updated.BookedQuote = &q
	return BookingOutcome{Kind: BookingSuccess, Order: updated}
}
