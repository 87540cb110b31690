package cart_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mani87-nq/yardbooks-pos/internal/cart"
	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
)

const gct15 = 1500

func TestTotalsSingleTaxableLine(t *testing.T) {
	t.Parallel()

	c := cart.New().AddProduct(pos.Product{ID: "p1", Name: "Item", UnitPrice: 1000}, 3)
	totals := c.Totals(gct15)

	require.EqualValues(t, 3000, totals.Subtotal)
	require.EqualValues(t, 450, totals.GctAmount)
	require.EqualValues(t, 3450, totals.Total)
	require.EqualValues(t, 3, totals.ItemCount)
}

func TestTotalsWithOrderPercentDiscount(t *testing.T) {
	t.Parallel()

	c := cart.New().AddProduct(pos.Product{ID: "p1", Name: "Item", UnitPrice: 1000}, 3)
	c, err := c.WithOrderDiscount(pos.DiscountPercent, 10, "manager")
	require.NoError(t, err)

	totals := c.Totals(gct15)
	require.EqualValues(t, 300, totals.DiscountAmount)
	require.EqualValues(t, 3000-300+450, totals.Total)
}

func TestTotalsExemptAndTaxableMix(t *testing.T) {
	t.Parallel()

	c := cart.New().
		AddProduct(pos.Product{ID: "pe", Name: "Exempt", UnitPrice: 2000, GctExempt: true}, 1).
		AddProduct(pos.Product{ID: "pt", Name: "Taxable", UnitPrice: 1000}, 1)

	totals := c.Totals(gct15)
	require.EqualValues(t, 2000, totals.ExemptAmount)
	require.EqualValues(t, 1000, totals.TaxableAmount)
	require.EqualValues(t, 150, totals.GctAmount)
	require.EqualValues(t, 3000, totals.Subtotal)
	require.EqualValues(t, 3150, totals.Total)
	require.EqualValues(t, totals.Subtotal, totals.TaxableAmount+totals.ExemptAmount)
}

func TestTotalsFormulaHoldsAcrossConfigurations(t *testing.T) {
	t.Parallel()

	carts := []cart.Cart{
		cart.New(),
		cart.New().AddProduct(pos.Product{ID: "a", Name: "A", UnitPrice: 999}, 7),
		cart.New().
			AddProduct(pos.Product{ID: "a", Name: "A", UnitPrice: 999}, 7).
			AddProduct(pos.Product{ID: "b", Name: "B", UnitPrice: 12_345, GctExempt: true}, 2),
	}
	withFlat, err := carts[2].WithOrderDiscount(pos.DiscountAmount, 5_000, "")
	require.NoError(t, err)
	carts = append(carts, withFlat)

	for _, c := range carts {
		totals := c.Totals(gct15)
		require.EqualValues(t, totals.Subtotal-totals.DiscountAmount+totals.GctAmount, totals.Total)
	}
}

func TestTotalsFlatDiscountMayGoNegative(t *testing.T) {
	t.Parallel()

	c := cart.New().AddProduct(pos.Product{ID: "a", Name: "A", UnitPrice: 1000}, 1)
	c, err := c.WithOrderDiscount(pos.DiscountAmount, 5000, "")
	require.NoError(t, err)

	totals := c.Totals(gct15)
	require.Negative(t, totals.Total)
}
