package pos

import "time"

// Money represents a monetary value stored in minor units.
type Money = int64

// DefaultUomCode is assumed when a product carries no unit of measure.
const DefaultUomCode = "EA"

// WalkInCustomerName is used when no customer is attached to a cart.
const WalkInCustomerName = "Walk-in"

// LineItem is one product or ad-hoc line in an in-progress order. TempID is
// generated client-side and never persisted.
type LineItem struct {
	TempID        string       `json:"tempId"`
	ProductID     string       `json:"productId,omitempty"`
	Name          string       `json:"name"`
	UomCode       string       `json:"uomCode"`
	Qty           int64        `json:"quantity"`
	UnitPrice     Money        `json:"unitPrice"`
	GctExempt     bool         `json:"isGctExempt"`
	DiscountType  DiscountType `json:"discountType,omitempty"`
	DiscountValue Money        `json:"discountValue,omitempty"`
}

// Subtotal returns quantity times unit price for the line.
func (li LineItem) Subtotal() Money {
	return li.Qty * li.UnitPrice
}

// Product is a catalog entry as seen by the terminal. Defaulting from the
// wire representation (uom fallback, exempt sentinel) happens in the backend
// adapter, never downstream.
type Product struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	UnitPrice Money  `json:"unitPrice"`
	Quantity  int64  `json:"quantity"`
	Category  string `json:"category"`
	UomCode   string `json:"unit"`
	GctExempt bool   `json:"isGctExempt"`
}

// Customer identifies a known buyer.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Settings carries the POS configuration served by the business backend.
// GctRateBps is the consumption tax rate in basis points (1500 = 15%).
type Settings struct {
	GctRateBps            int    `json:"gctRateBps"`
	RequireOpenSession    bool   `json:"requireOpenSession"`
	BusinessName          string `json:"businessName"`
	BusinessAddress       string `json:"businessAddress"`
	BusinessPhone         string `json:"businessPhone"`
	BusinessTRN           string `json:"businessTRN"`
	GctRegistrationNumber string `json:"gctRegistrationNumber"`
	ReceiptFooter         string `json:"receiptFooter"`
	ShowLogo              bool   `json:"showLogo"`
	BusinessLogo          string `json:"businessLogo,omitempty"`
}

// Order is the backend's record of a submitted cart. Total is authoritative:
// payments are always recorded against it, never against a locally computed
// figure.
type Order struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"orderNumber"`
	Status      OrderStatus `json:"status"`
	Total       Money       `json:"total"`
	HeldReason  string      `json:"heldReason,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Payment is a recorded tender against an order.
type Payment struct {
	ID             string        `json:"id"`
	OrderID        string        `json:"orderId"`
	Method         PaymentMethod `json:"method"`
	Amount         Money         `json:"amount"`
	AmountTendered Money         `json:"amountTendered,omitempty"`
	Status         string        `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// Session is an open register shift with its cash float.
type Session struct {
	ID          string    `json:"id"`
	TerminalID  string    `json:"terminalId"`
	CashierName string    `json:"cashierName"`
	OpeningCash Money     `json:"openingCash"`
	OpenedAt    time.Time `json:"openedAt"`
}

// Terminal is a configured register.
type Terminal struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
