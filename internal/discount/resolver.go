// Package discount resolves order-level discounts against a pre-tax subtotal.
package discount

import "github.com/Mani87-nq/yardbooks-pos/internal/pos"

// Resolve computes the discount amount for the given subtotal. Percent
// discounts are value/100 of the subtotal; amount discounts apply verbatim
// and are deliberately not clamped to the subtotal. The backend is
// authoritative for whether an over-large discount is acceptable.
func Resolve(subtotal pos.Money, kind pos.DiscountType, value pos.Money) pos.Money {
	switch kind {
	case pos.DiscountPercent:
		return subtotal * value / 100
	case pos.DiscountAmount:
		return value
	default:
		return 0
	}
}
