package cart

import (
	"github.com/Mani87-nq/yardbooks-pos/internal/discount"
	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
	"github.com/Mani87-nq/yardbooks-pos/internal/tax"
)

// Totals is the derived pricing view of a cart. It is recomputed from the
// cart on every read, never stored. Total is not clamped at zero: a flat
// discount larger than subtotal plus tax produces a negative figure, and the
// backend decides what to do with it.
type Totals struct {
	Subtotal       pos.Money `json:"subtotal"`
	TaxableAmount  pos.Money `json:"taxableAmount"`
	ExemptAmount   pos.Money `json:"exemptAmount"`
	GctAmount      pos.Money `json:"gctAmount"`
	DiscountAmount pos.Money `json:"discountAmount"`
	Total          pos.Money `json:"total"`
	ItemCount      int64     `json:"itemCount"`
}

// Totals derives the pricing summary for the given tax rate in basis points.
// The order discount applies once against the pre-tax subtotal; line-level
// discount fields are carried on items but not folded in here.
func (c Cart) Totals(rateBps int) Totals {
	var t Totals
	for _, item := range c.Items {
		t.Subtotal += item.Subtotal()
		t.ItemCount += item.Qty
	}
	agg := tax.Compute(c.Items, rateBps)
	t.TaxableAmount = agg.TaxableAmount
	t.ExemptAmount = agg.ExemptAmount
	t.GctAmount = agg.GctAmount
	t.DiscountAmount = discount.Resolve(t.Subtotal, c.OrderDiscountType, c.OrderDiscountValue)
	t.Total = t.Subtotal - t.DiscountAmount + t.GctAmount
	return t
}
