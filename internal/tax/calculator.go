// Package tax computes General Consumption Tax for cart lines.
//
// All arithmetic is on minor units with the rate in basis points, so no
// rounding happens before aggregation; formatting is a presentation concern.
package tax

import "github.com/Mani87-nq/yardbooks-pos/internal/pos"

// Line is the per-line breakdown of taxable, exempt and tax amounts. A line
// contributes to exactly one of Taxable or Exempt.
type Line struct {
	Taxable pos.Money
	Exempt  pos.Money
	Tax     pos.Money
}

// Aggregate sums per-line results across a cart.
type Aggregate struct {
	TaxableAmount pos.Money
	ExemptAmount  pos.Money
	GctAmount     pos.Money
}

// ComputeLine splits one line into its taxable or exempt bucket and computes
// the tax due on it. Exempt lines carry zero tax by definition.
func ComputeLine(item pos.LineItem, rateBps int) Line {
	subtotal := item.Subtotal()
	if item.GctExempt {
		return Line{Exempt: subtotal}
	}
	return Line{
		Taxable: subtotal,
		Tax:     subtotal * pos.Money(rateBps) / 10000,
	}
}

// Compute aggregates tax over all items. The tax is derived from the summed
// taxable amount rather than per-line figures so the result is independent of
// item ordering.
func Compute(items []pos.LineItem, rateBps int) Aggregate {
	var agg Aggregate
	for _, item := range items {
		if item.GctExempt {
			agg.ExemptAmount += item.Subtotal()
			continue
		}
		agg.TaxableAmount += item.Subtotal()
	}
	agg.GctAmount = agg.TaxableAmount * pos.Money(rateBps) / 10000
	return agg
}
