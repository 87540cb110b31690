// Package cart holds the in-progress order for one terminal.
//
// Cart is a value type: every mutation returns a fresh Cart with a copied
// item slice, so callers can rely on reference equality to detect change and
// derived totals never observe a partially applied update.
package cart

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
)

// ErrLineNotFound indicates the referenced line is not in the cart.
var ErrLineNotFound = errors.New("cart line not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Cart is the entire in-progress order. Item order is insertion order and
// only matters for display.
type Cart struct {
	Items               []pos.LineItem   `json:"items"`
	CustomerID          string           `json:"customerId,omitempty"`
	CustomerName        string           `json:"customerName"`
	OrderDiscountType   pos.DiscountType `json:"orderDiscountType,omitempty"`
	OrderDiscountValue  pos.Money        `json:"orderDiscountValue,omitempty"`
	OrderDiscountReason string           `json:"orderDiscountReason,omitempty"`
	Notes               string           `json:"notes,omitempty"`
}

// New returns the canonical empty cart.
func New() Cart {
	return Cart{CustomerName: pos.WalkInCustomerName}
}

// Empty reports whether the cart has no lines.
func (c Cart) Empty() bool { return len(c.Items) == 0 }

func (c Cart) cloneItems() []pos.LineItem {
	items := make([]pos.LineItem, len(c.Items))
	copy(items, c.Items)
	return items
}

// AddProduct merges into an existing line for the same product or appends a
// new line with a fresh temp id. Non-positive deltas count as one.
func (c Cart) AddProduct(p pos.Product, qtyDelta int64) Cart {
	if qtyDelta <= 0 {
		qtyDelta = 1
	}
	if p.ID != "" {
		for i, item := range c.Items {
			if item.ProductID == p.ID {
				items := c.cloneItems()
				items[i].Qty += qtyDelta
				c.Items = items
				return c
			}
		}
	}
	uom := strings.TrimSpace(p.UomCode)
	if uom == "" {
		uom = pos.DefaultUomCode
	}
	items := c.cloneItems()
	items = append(items, pos.LineItem{
		TempID:    uuid.NewString(),
		ProductID: p.ID,
		Name:      p.Name,
		UomCode:   uom,
		Qty:       qtyDelta,
		UnitPrice: p.UnitPrice,
		GctExempt: p.GctExempt,
	})
	c.Items = items
	return c
}

// AddLine appends an ad-hoc line that has no catalog reference.
func (c Cart) AddLine(name string, unitPrice pos.Money, qty int64, exempt bool) (Cart, error) {
	if strings.TrimSpace(name) == "" {
		return c, ErrInvalidInput
	}
	if unitPrice < 0 {
		return c, ErrInvalidInput
	}
	if qty <= 0 {
		qty = 1
	}
	items := c.cloneItems()
	items = append(items, pos.LineItem{
		TempID:    uuid.NewString(),
		Name:      strings.TrimSpace(name),
		UomCode:   pos.DefaultUomCode,
		Qty:       qty,
		UnitPrice: unitPrice,
		GctExempt: exempt,
	})
	c.Items = items
	return c, nil
}

// Patch describes a partial line update. Nil fields are left untouched.
type Patch struct {
	Qty           *int64
	Name          *string
	UnitPrice     *pos.Money
	GctExempt     *bool
	DiscountType  *pos.DiscountType
	DiscountValue *pos.Money
}

// UpdateLine merges the patch into the matching line. Quantity is clamped to
// a minimum of one: removal is explicit, never a side effect of decrementing.
func (c Cart) UpdateLine(tempID string, patch Patch) (Cart, error) {
	for i, item := range c.Items {
		if item.TempID != tempID {
			continue
		}
		items := c.cloneItems()
		line := &items[i]
		if patch.Qty != nil {
			qty := *patch.Qty
			if qty < 1 {
				qty = 1
			}
			line.Qty = qty
		}
		if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
			line.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.UnitPrice != nil && *patch.UnitPrice >= 0 {
			line.UnitPrice = *patch.UnitPrice
		}
		if patch.GctExempt != nil {
			line.GctExempt = *patch.GctExempt
		}
		if patch.DiscountType != nil {
			line.DiscountType = *patch.DiscountType
		}
		if patch.DiscountValue != nil && *patch.DiscountValue >= 0 {
			line.DiscountValue = *patch.DiscountValue
		}
		c.Items = items
		return c, nil
	}
	return c, ErrLineNotFound
}

// RemoveLine drops the matching line. Removing an unknown id is a no-op.
func (c Cart) RemoveLine(tempID string) Cart {
	for i, item := range c.Items {
		if item.TempID != tempID {
			continue
		}
		items := make([]pos.LineItem, 0, len(c.Items)-1)
		items = append(items, c.Items[:i]...)
		items = append(items, c.Items[i+1:]...)
		c.Items = items
		return c
	}
	return c
}

// Clear resets to the canonical empty cart, dropping customer, discount and
// note state along with the lines.
func (c Cart) Clear() Cart {
	return New()
}

// WithCustomer assigns both customer fields together. Clearing the id falls
// back to the walk-in display name.
func (c Cart) WithCustomer(customerID, customerName string) Cart {
	c.CustomerID = strings.TrimSpace(customerID)
	name := strings.TrimSpace(customerName)
	if c.CustomerID == "" || name == "" {
		name = pos.WalkInCustomerName
	}
	if c.CustomerID == "" {
		c.CustomerName = pos.WalkInCustomerName
		return c
	}
	c.CustomerName = name
	return c
}

// WithOrderDiscount sets the order-level discount fields together.
func (c Cart) WithOrderDiscount(kind pos.DiscountType, value pos.Money, reason string) (Cart, error) {
	if value < 0 {
		return c, ErrInvalidInput
	}
	if kind == pos.DiscountNone {
		c.OrderDiscountType = pos.DiscountNone
		c.OrderDiscountValue = 0
		c.OrderDiscountReason = ""
		return c, nil
	}
	c.OrderDiscountType = kind
	c.OrderDiscountValue = value
	c.OrderDiscountReason = strings.TrimSpace(reason)
	return c, nil
}

// WithNotes replaces the free-text order note.
func (c Cart) WithNotes(notes string) Cart {
	c.Notes = strings.TrimSpace(notes)
	return c
}
