// Package receipt turns a completed order into a print-ready document and
// hands delivery to the dispatch queue.
package receipt

import (
	"time"

	"github.com/Mani87-nq/yardbooks-pos/internal/cart"
	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
)

// Line is one printed receipt row. LineTotal is tax-inclusive for taxable
// lines and the plain subtotal for exempt ones.
type Line struct {
	Name      string    `json:"name"`
	UomCode   string    `json:"uomCode"`
	Qty       int64     `json:"quantity"`
	UnitPrice pos.Money `json:"unitPrice"`
	GctExempt bool      `json:"isGctExempt"`
	LineTotal pos.Money `json:"lineTotal"`
}

// Tender is the payment block printed at the bottom of the receipt.
type Tender struct {
	Method   pos.PaymentMethod `json:"method"`
	Amount   pos.Money         `json:"amount"`
	Tendered pos.Money         `json:"tendered,omitempty"`
	Change   pos.Money         `json:"change,omitempty"`
}

// Document is the full receipt payload handed to the print/email collaborator.
type Document struct {
	BusinessName          string `json:"businessName"`
	BusinessAddress       string `json:"businessAddress,omitempty"`
	BusinessPhone         string `json:"businessPhone,omitempty"`
	BusinessTRN           string `json:"businessTRN,omitempty"`
	GctRegistrationNumber string `json:"gctRegistrationNumber,omitempty"`
	ShowLogo              bool   `json:"showLogo"`
	BusinessLogo          string `json:"businessLogo,omitempty"`

	OrderID      string    `json:"orderId"`
	OrderNumber  string    `json:"orderNumber"`
	IssuedAt     time.Time `json:"issuedAt"`
	CustomerName string    `json:"customerName"`

	Lines []Line `json:"lines"`

	Subtotal       pos.Money `json:"subtotal"`
	DiscountAmount pos.Money `json:"discountAmount"`
	TaxableAmount  pos.Money `json:"taxableAmount"`
	ExemptAmount   pos.Money `json:"exemptAmount"`
	GctAmount      pos.Money `json:"gctAmount"`
	Total          pos.Money `json:"total"`

	Payment Tender `json:"payment"`
	Footer  string `json:"footer,omitempty"`
}

// Build assembles the receipt document. It is a pure transform: printing,
// copies and email delivery belong to the dispatcher.
func Build(order pos.Order, c cart.Cart, totals cart.Totals, tender Tender, settings pos.Settings) Document {
	lines := make([]Line, 0, len(c.Items))
	for _, item := range c.Items {
		subtotal := item.Subtotal()
		lineTotal := subtotal
		if !item.GctExempt {
			lineTotal = subtotal * pos.Money(10000+settings.GctRateBps) / 10000
		}
		lines = append(lines, Line{
			Name:      item.Name,
			UomCode:   item.UomCode,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
			GctExempt: item.GctExempt,
			LineTotal: lineTotal,
		})
	}
	return Document{
		BusinessName:          settings.BusinessName,
		BusinessAddress:       settings.BusinessAddress,
		BusinessPhone:         settings.BusinessPhone,
		BusinessTRN:           settings.BusinessTRN,
		GctRegistrationNumber: settings.GctRegistrationNumber,
		ShowLogo:              settings.ShowLogo,
		BusinessLogo:          settings.BusinessLogo,
		OrderID:               order.ID,
		OrderNumber:           order.OrderNumber,
		IssuedAt:              order.CreatedAt,
		CustomerName:          c.CustomerName,
		Lines:                 lines,
		Subtotal:              totals.Subtotal,
		DiscountAmount:        totals.DiscountAmount,
		TaxableAmount:         totals.TaxableAmount,
		ExemptAmount:          totals.ExemptAmount,
		GctAmount:             totals.GctAmount,
		Total:                 totals.Total,
		Payment:               tender,
		Footer:                settings.ReceiptFooter,
	}
}
