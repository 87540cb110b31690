package receipt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Mani87-nq/yardbooks-pos/internal/cart"
	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
	"github.com/Mani87-nq/yardbooks-pos/internal/receipt"
)

func TestBuildAppliesExemptionAwareLineTotals(t *testing.T) {
	t.Parallel()

	settings := pos.Settings{
		GctRateBps:            1500,
		BusinessName:          "Hill View Mini Mart",
		BusinessTRN:           "123-456-789",
		GctRegistrationNumber: "GCT-0042",
		ReceiptFooter:         "Thank you for shopping with us",
	}
	c := cart.New().
		AddProduct(pos.Product{ID: "pt", Name: "Beef Patty", UnitPrice: 1000, UomCode: "EA"}, 2).
		AddProduct(pos.Product{ID: "pe", Name: "Counter Flour", UnitPrice: 2000, GctExempt: true}, 1)
	totals := c.Totals(settings.GctRateBps)
	order := pos.Order{ID: "o1", OrderNumber: "POS-000007", CreatedAt: time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)}

	doc := receipt.Build(order, c, totals, receipt.Tender{
		Method: pos.MethodCash, Amount: totals.Total, Tendered: 5000, Change: 5000 - totals.Total,
	}, settings)

	require.Equal(t, "Hill View Mini Mart", doc.BusinessName)
	require.Equal(t, "POS-000007", doc.OrderNumber)
	require.Len(t, doc.Lines, 2)

	// taxable line total includes the 15% multiplier, exempt does not
	require.EqualValues(t, 2300, doc.Lines[0].LineTotal)
	require.EqualValues(t, 2000, doc.Lines[1].LineTotal)

	require.EqualValues(t, 4000, doc.Subtotal)
	require.EqualValues(t, 300, doc.GctAmount)
	require.EqualValues(t, 4300, doc.Total)
	require.Equal(t, pos.MethodCash, doc.Payment.Method)
	require.EqualValues(t, 700, doc.Payment.Change)
	require.Equal(t, "Thank you for shopping with us", doc.Footer)
}

func TestBuildWalkInCustomer(t *testing.T) {
	t.Parallel()

	c := cart.New().AddProduct(pos.Product{ID: "p", Name: "Item", UnitPrice: 100}, 1)
	doc := receipt.Build(pos.Order{}, c, c.Totals(0), receipt.Tender{Method: pos.MethodCardVisa, Amount: 100}, pos.Settings{})
	require.Equal(t, pos.WalkInCustomerName, doc.CustomerName)
	require.Zero(t, doc.Payment.Tendered)
}
