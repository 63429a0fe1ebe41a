package shipper

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// CarrierRate is the pricing of a single carrier: a flat base in cents plus
// a charge in cents for every gram shipped.
type CarrierRate struct {
	Base    decimal.Decimal
	PerGram decimal.Decimal
}

// RateTable maps each carrier to its rate. It is read-only once built.
type RateTable map[CarrierCode]CarrierRate

// DefaultRateTable returns the stock rates.
func DefaultRateTable() RateTable {
	return RateTable{
		CarrierUPS:   {Base: decimal.NewFromInt(800), PerGram: decimal.RequireFromString("0.05")},
		CarrierUSPS:  {Base: decimal.NewFromInt(1050), PerGram: decimal.RequireFromString("0.02")},
		CarrierFedEx: {Base: decimal.NewFromInt(1000), PerGram: decimal.RequireFromString("0.03")},
	}
}

// Rate returns the rate for carrier.
func (t RateTable) Rate(carrier CarrierCode) (CarrierRate, error) {
	r, ok := t[carrier]
	if !ok {
		return CarrierRate{}, &QuoteError{
			Carrier: carrier,
			Code:    CodeUnknownCarrier,
			Err:     fmt.Errorf("%w: no rate configured", ErrUnknownCarrier),
		}
	}
	return r, nil
}

// Codes returns the carriers present in the table, sorted.
func (t RateTable) Codes() []CarrierCode {
	codes := make([]CarrierCode, 0, len(t))
	for c := range t {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// CalculateFee prices shipping items with carrier in cents.
//
// The per-gram charge is applied to each line's per-unit weight; quantity
// does not multiply it.
func CalculateFee(carrier CarrierCode, items []LineItem, rates RateTable) (decimal.Decimal, error) {
	rate, err := rates.Rate(carrier)
	if err != nil {
		return decimal.Zero, err
	}

	fee := rate.Base
	for i, item := range items {
		if math.IsNaN(item.GramsPerItem) || math.IsInf(item.GramsPerItem, 0) {
			return decimal.Zero, &QuoteError{
				Carrier: carrier,
				Code:    CodeInvalidWeight,
				Err:     fmt.Errorf("%w: item %d (%s) weighs %v grams", ErrInvalidItem, i, item.SKU, item.GramsPerItem),
			}
		}
		fee = fee.Add(decimal.NewFromFloat(item.GramsPerItem).Mul(rate.PerGram))
	}
	return fee, nil
}

// QuoteItems prices items with carrier and rounds to whole cents,
// half away from zero.
func QuoteItems(carrier CarrierCode, items []LineItem, rates RateTable) (ShippingQuote, error) {
	fee, err := CalculateFee(carrier, items, rates)
	if err != nil {
		return ShippingQuote{}, err
	}
	return ShippingQuote{
		Carrier:    carrier,
		PriceCents: fee.Round(0).IntPart(),
	}, nil
}
