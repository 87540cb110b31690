package cart_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mani87-nq/yardbooks-pos/internal/cart"
	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
)

func patty() pos.Product {
	return pos.Product{ID: "p-patty", Name: "Beef Patty", SKU: "PTY-001", UnitPrice: 35_000, UomCode: "EA"}
}

func flour() pos.Product {
	// Basic food items are GCT exempt.
	return pos.Product{ID: "p-flour", Name: "Counter Flour 1kg", SKU: "FLR-001", UnitPrice: 20_000, GctExempt: true}
}

func TestAddProductMergesOnSameProduct(t *testing.T) {
	t.Parallel()

	c := cart.New().AddProduct(patty(), 1)
	c = c.AddProduct(patty(), 1)

	require.Len(t, c.Items, 1)
	require.EqualValues(t, 2, c.Items[0].Qty)
	require.NotEmpty(t, c.Items[0].TempID)
}

func TestAddProductDistinctProductsAppend(t *testing.T) {
	t.Parallel()

	c := cart.New().AddProduct(patty(), 1).AddProduct(flour(), 3)

	require.Len(t, c.Items, 2)
	require.NotEqual(t, c.Items[0].TempID, c.Items[1].TempID)
	require.True(t, c.Items[1].GctExempt)
}

func TestAddProductDefaultsUom(t *testing.T) {
	t.Parallel()

	p := patty()
	p.UomCode = ""
	c := cart.New().AddProduct(p, 1)
	require.Equal(t, pos.DefaultUomCode, c.Items[0].UomCode)
}

func TestUpdateLineClampsQuantityFloor(t *testing.T) {
	t.Parallel()

	c := cart.New().AddProduct(patty(), 1)
	id := c.Items[0].TempID

	zero := int64(0)
	c, err := c.UpdateLine(id, cart.Patch{Qty: &zero})
	require.NoError(t, err)
	require.EqualValues(t, 1, c.Items[0].Qty)

	negative := int64(-5)
	c, err = c.UpdateLine(id, cart.Patch{Qty: &negative})
	require.NoError(t, err)
	require.EqualValues(t, 1, c.Items[0].Qty)
}

func TestUpdateLineUnknownID(t *testing.T) {
	t.Parallel()

	c := cart.New().AddProduct(patty(), 1)
	_, err := c.UpdateLine("missing", cart.Patch{})
	require.ErrorIs(t, err, cart.ErrLineNotFound)
}

func TestMutationsReturnFreshValues(t *testing.T) {
	t.Parallel()

	base := cart.New().AddProduct(patty(), 1)
	qty := int64(5)
	updated, err := base.UpdateLine(base.Items[0].TempID, cart.Patch{Qty: &qty})
	require.NoError(t, err)

	require.EqualValues(t, 1, base.Items[0].Qty, "original value must be untouched")
	require.EqualValues(t, 5, updated.Items[0].Qty)
}

func TestRemoveLine(t *testing.T) {
	t.Parallel()

	c := cart.New().AddProduct(patty(), 1).AddProduct(flour(), 1)
	c = c.RemoveLine(c.Items[0].TempID)
	require.Len(t, c.Items, 1)
	require.Equal(t, "p-flour", c.Items[0].ProductID)

	// unknown id is a no-op
	c = c.RemoveLine("missing")
	require.Len(t, c.Items, 1)
}

func TestClearResetsEverything(t *testing.T) {
	t.Parallel()

	c := cart.New().AddProduct(patty(), 2).WithCustomer("c1", "Marcia Brown")
	c, err := c.WithOrderDiscount(pos.DiscountPercent, 10, "loyalty")
	require.NoError(t, err)

	c = c.Clear()
	require.True(t, c.Empty())
	require.Empty(t, c.CustomerID)
	require.Equal(t, pos.WalkInCustomerName, c.CustomerName)
	require.Equal(t, pos.DiscountNone, c.OrderDiscountType)
}

func TestWithCustomerFallsBackToWalkIn(t *testing.T) {
	t.Parallel()

	c := cart.New().WithCustomer("c1", "Marcia Brown")
	require.Equal(t, "Marcia Brown", c.CustomerName)

	c = c.WithCustomer("", "")
	require.Empty(t, c.CustomerID)
	require.Equal(t, pos.WalkInCustomerName, c.CustomerName)
}

func TestAddLineAdHoc(t *testing.T) {
	t.Parallel()

	c, err := cart.New().AddLine("Delivery fee", 50_000, 0, false)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	require.Empty(t, c.Items[0].ProductID)
	require.EqualValues(t, 1, c.Items[0].Qty)

	_, err = c.AddLine("", 10, 1, false)
	require.ErrorIs(t, err, cart.ErrInvalidInput)
}
