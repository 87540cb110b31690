// Package backend defines the capability interface the checkout engine uses
// to reach the business backend, plus its HTTP and in-memory implementations.
//
// The engine never talks to a datastore: orders, payments, sessions, products
// and settings all live behind this interface, and the backend's own
// computation of an order total is authoritative.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
)

// ErrNotFound indicates the referenced entity does not exist on the backend.
var ErrNotFound = errors.New("backend: not found")

// Operation names used to attribute failures to a specific backend call so
// the terminal can tell "order creation failed" from "payment failed".
const (
	OpListProducts  = "list_products"
	OpListCustomers = "list_customers"
	OpGetSettings   = "get_settings"
	OpListSessions  = "list_sessions"
	OpListTerminals = "list_terminals"
	OpCreateSession = "create_session"
	OpCreateOrder   = "create_order"
	OpAddPayment    = "add_payment"
	OpHoldOrder     = "hold_order"
)

// CallError wraps a backend failure with the operation that produced it.
type CallError struct {
	Op     string
	Status int
	Err    error
}

// Error implements the error interface.
func (e *CallError) Error() string {
	if e == nil {
		return ""
	}
	if e.Status > 0 {
		return fmt.Sprintf("backend %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *CallError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// OpOf returns the failed operation name when err carries one.
func OpOf(err error) string {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Op
	}
	return ""
}

// ProductFilter narrows the active-product listing.
type ProductFilter struct {
	Search   string
	Category string
}

// CustomerFilter narrows the customer listing.
type CustomerFilter struct {
	Search string
}

// TerminalFilter narrows the terminal listing.
type TerminalFilter struct {
	ActiveOnly bool
}

// OrderItem is one cart line in the shape the backend accepts.
type OrderItem struct {
	ProductID     string    `json:"productId,omitempty"`
	Name          string    `json:"name"`
	UomCode       string    `json:"uomCode"`
	Qty           int64     `json:"quantity"`
	UnitPrice     pos.Money `json:"unitPrice"`
	GctExempt     bool      `json:"isGctExempt"`
	DiscountType  string    `json:"discountType,omitempty"`
	DiscountValue pos.Money `json:"discountValue,omitempty"`
}

// CreateOrderInput is the cart snapshot submitted as a new order.
type CreateOrderInput struct {
	CustomerID          string          `json:"customerId,omitempty"`
	CustomerName        string          `json:"customerName"`
	Items               []OrderItem     `json:"items"`
	OrderDiscountType   string          `json:"orderDiscountType,omitempty"`
	OrderDiscountValue  pos.Money       `json:"orderDiscountValue,omitempty"`
	OrderDiscountReason string          `json:"orderDiscountReason,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	Status              pos.OrderStatus `json:"status"`
	SessionID           string          `json:"sessionId,omitempty"`
}

// AddPaymentInput records a tender against an existing order. Tendered is
// only meaningful for cash.
type AddPaymentInput struct {
	OrderID  string    `json:"orderId"`
	Method   string    `json:"method"`
	Amount   pos.Money `json:"amount"`
	Tendered pos.Money `json:"amountTendered,omitempty"`
	Status   string    `json:"status"`
}

// HoldOrderInput parks an order for later retrieval.
type HoldOrderInput struct {
	ID         string `json:"id"`
	HeldReason string `json:"heldReason"`
}

// CreateSessionInput opens a register shift.
type CreateSessionInput struct {
	TerminalID  string    `json:"terminalId"`
	CashierName string    `json:"cashierName"`
	OpeningCash pos.Money `json:"openingCash"`
}

// Backend is the capability set the terminal requires from the business
// backend.
type Backend interface {
	ListActiveProducts(ctx context.Context, filter ProductFilter) ([]pos.Product, error)
	ListCustomers(ctx context.Context, filter CustomerFilter) ([]pos.Customer, error)
	GetPosSettings(ctx context.Context) (pos.Settings, error)
	ListOpenSessions(ctx context.Context) ([]pos.Session, error)
	ListTerminals(ctx context.Context, filter TerminalFilter) ([]pos.Terminal, error)
	CreateSession(ctx context.Context, in CreateSessionInput) (pos.Session, error)
	CreateOrder(ctx context.Context, in CreateOrderInput) (pos.Order, error)
	AddPayment(ctx context.Context, in AddPaymentInput) (pos.Payment, error)
	HoldOrder(ctx context.Context, in HoldOrderInput) (pos.Order, error)
}
