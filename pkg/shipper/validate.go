package shipper

import (
	"fmt"
	"math"
)

// ValidateItems checks that every line item is well formed and that no unit
// weighs more than maxGrams. A non-positive maxGrams disables the weight cap.
func ValidateItems(items []LineItem, maxGrams float64) error {
	for i, item := range items {
		var msg string
		switch {
		case item.SKU == "":
			msg = "sku is required"
		case item.Quantity < 0:
			msg = "quantity must not be negative"
		case math.IsNaN(item.GramsPerItem) || math.IsInf(item.GramsPerItem, 0):
			msg = "gramsPerItem must be a finite number"
		case item.GramsPerItem < 0:
			msg = "gramsPerItem must not be negative"
		case maxGrams > 0 && item.GramsPerItem > maxGrams:
			msg = fmt.Sprintf("gramsPerItem exceeds %g", maxGrams)
		case item.PriceCents < 0:
			msg = "price must not be negative"
		default:
			continue
		}
		return fmt.Errorf("%w: item %d: %s", ErrInvalidItem, i, msg)
	}
	return nil
}
