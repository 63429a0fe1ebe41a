package shipper_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/orderquote/pkg/shipper"
)

func newPendingOrder() *shipper.Order {
	return &shipper.Order{
		ID:       "order-123",
		Status:   shipper.StatusPending,
		Customer: "customer-456",
		Items: []shipper.LineItem{
			{SKU: "ITEM-001", Quantity: 1, GramsPerItem: 100, PriceCents: 1000},
			{SKU: "ITEM-002", Quantity: 2, GramsPerItem: 200, PriceCents: 2000},
		},
		Quotes:  []shipper.ShippingQuote{},
		Version: 3,
	}
}

var allCarriers = []shipper.CarrierCode{shipper.CarrierUPS, shipper.CarrierUSPS, shipper.CarrierFedEx}

func TestDeriveQuoteOutcome_OrderNotFound(t *testing.T) {
	got := shipper.DeriveQuoteOutcome(nil, allCarriers, shipper.DefaultRateTable())
	assert.Equal(t, shipper.Outcome{Kind: shipper.OutcomeOrderNotFound}, got)
}

func TestDeriveQuoteOutcome_AlreadyBooked(t *testing.T) {
	order := newPendingOrder()
	order.Status = shipper.StatusBooked

	tests := []struct {
		name     string
		carriers []shipper.CarrierCode
	}{
		{"all carriers", allCarriers},
		{"empty", nil},
		{"unknown carrier", []shipper.CarrierCode{"DHL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shipper.DeriveQuoteOutcome(order, tt.carriers, shipper.DefaultRateTable())
			assert.Equal(t, shipper.Outcome{Kind: shipper.OutcomeOrderAlreadyBooked}, got)
		})
	}
}

func TestDeriveQuoteOutcome_Success(t *testing.T) {
	order := newPendingOrder()

	got := shipper.DeriveQuoteOutcome(order, allCarriers, shipper.DefaultRateTable())

	require.Equal(t, shipper.OutcomeSuccess, got.Kind)
	require.NotNil(t, got.Order)
	assert.Equal(t, "order-123", got.Order.ID)
	assert.Equal(t, "customer-456", got.Order.Customer)
	assert.Equal(t, shipper.StatusQuoted, got.Order.Status)
	assert.Equal(t, order.Items, got.Order.Items)
	assert.Equal(t, int64(3), got.Order.Version)
	assert.Equal(t, []shipper.ShippingQuote{
		{Carrier: shipper.CarrierUPS, PriceCents: 815},
		{Carrier: shipper.CarrierUSPS, PriceCents: 1056},
		{Carrier: shipper.CarrierFedEx, PriceCents: 1009},
	}, got.Order.Quotes)
	assert.Empty(t, got.Message)
}

func TestDeriveQuoteOutcome_PreservesCarrierOrderAndDuplicates(t *testing.T) {
	carriers := []shipper.CarrierCode{shipper.CarrierFedEx, shipper.CarrierUPS, shipper.CarrierFedEx}

	got := shipper.DeriveQuoteOutcome(newPendingOrder(), carriers, shipper.DefaultRateTable())

	require.Equal(t, shipper.OutcomeSuccess, got.Kind)
	require.Len(t, got.Order.Quotes, len(carriers))
	for i, c := range carriers {
		assert.Equal(t, c, got.Order.Quotes[i].Carrier)
	}
}

func TestDeriveQuoteOutcome_EmptyCarriers(t *testing.T) {
	got := shipper.DeriveQuoteOutcome(newPendingOrder(), []shipper.CarrierCode{}, shipper.DefaultRateTable())

	require.Equal(t, shipper.OutcomeSuccess, got.Kind)
	assert.Equal(t, shipper.StatusQuoted, got.Order.Status)
	assert.Empty(t, got.Order.Quotes)
}

func TestDeriveQuoteOutcome_ReplacesPreviousQuotes(t *testing.T) {
	order := newPendingOrder()
	order.Status = shipper.StatusQuoted
	order.Quotes = []shipper.ShippingQuote{{Carrier: shipper.CarrierUSPS, PriceCents: 1}}

	got := shipper.DeriveQuoteOutcome(order, []shipper.CarrierCode{shipper.CarrierUPS}, shipper.DefaultRateTable())

	require.Equal(t, shipper.OutcomeSuccess, got.Kind)
	assert.Equal(t, []shipper.ShippingQuote{{Carrier: shipper.CarrierUPS, PriceCents: 815}}, got.Order.Quotes)
}

func TestDeriveQuoteOutcome_AnyNonBookedStatus(t *testing.T) {
	for _, status := range []shipper.OrderStatus{shipper.StatusDraft, shipper.StatusPending, shipper.StatusQuoted} {
		order := newPendingOrder()
		order.Status = status

		got := shipper.DeriveQuoteOutcome(order, allCarriers, shipper.DefaultRateTable())
		assert.Equal(t, shipper.OutcomeSuccess, got.Kind, "status %s", status)
	}
}

func TestDeriveQuoteOutcome_NoItems(t *testing.T) {
	order := newPendingOrder()
	order.Items = []shipper.LineItem{}

	got := shipper.DeriveQuoteOutcome(order, allCarriers, shipper.DefaultRateTable())

	require.Equal(t, shipper.OutcomeSuccess, got.Kind)
	q, ok := got.Order.QuoteFor(shipper.CarrierUPS)
	require.True(t, ok)
	assert.Equal(t, int64(800), q.PriceCents)
}

func TestDeriveQuoteOutcome_UnknownCarrierFailsWhole(t *testing.T) {
	order := newPendingOrder()
	carriers := []shipper.CarrierCode{shipper.CarrierUPS, "DHL", shipper.CarrierFedEx}

	got := shipper.DeriveQuoteOutcome(order, carriers, shipper.DefaultRateTable())

	assert.Equal(t, shipper.OutcomeQuoteGenerationFailed, got.Kind)
	assert.Nil(t, got.Order)
	assert.Contains(t, got.Message, "DHL")
	assert.Contains(t, got.Message, "order-123")
}

func TestDeriveQuoteOutcome_DoesNotMutateInput(t *testing.T) {
	order := newPendingOrder()
	snapshot := order.Clone()

	got := shipper.DeriveQuoteOutcome(order, allCarriers, shipper.DefaultRateTable())
	require.Equal(t, shipper.OutcomeSuccess, got.Kind)

	assert.Equal(t, snapshot, order)
	assert.Equal(t, shipper.StatusPending, order.Status)
	assert.Empty(t, order.Quotes)

	// Writing through the result must not reach the input.
	got.Order.Items[0].SKU = "CHANGED"
	assert.Equal(t, "ITEM-001", order.Items[0].SKU)
}

func TestDeriveQuoteOutcome_Idempotent(t *testing.T) {
	order := newPendingOrder()

	first := shipper.DeriveQuoteOutcome(order, allCarriers, shipper.DefaultRateTable())
	second := shipper.DeriveQuoteOutcome(order, allCarriers, shipper.DefaultRateTable())

	assert.Equal(t, first, second)
	assert.NotSame(t, first.Order, second.Order)
}

func TestDeriveQuoteOutcome_NonFiniteWeight(t *testing.T) {
	for _, grams := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		order := newPendingOrder()
		order.Items[1].GramsPerItem = grams

		var got shipper.Outcome
		require.NotPanics(t, func() {
			got = shipper.DeriveQuoteOutcome(order, allCarriers, shipper.DefaultRateTable())
		}, "grams %v", grams)

		assert.Equal(t, shipper.OutcomeQuoteGenerationFailed, got.Kind, "grams %v", grams)
		assert.Nil(t, got.Order)
		assert.Contains(t, got.Message, shipper.CodeInvalidWeight)
	}
}

func TestCalculateFee_NonFiniteWeight(t *testing.T) {
	items := []shipper.LineItem{{SKU: "ITEM-009", GramsPerItem: math.NaN()}}

	_, err := shipper.CalculateFee(shipper.CarrierUSPS, items, shipper.DefaultRateTable())

	var qe *shipper.QuoteError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, shipper.CodeInvalidWeight, qe.Code)
	assert.Equal(t, shipper.CarrierUSPS, qe.Carrier)
	assert.ErrorIs(t, err, shipper.ErrInvalidItem)
}
