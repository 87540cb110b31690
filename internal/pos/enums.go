package pos

import (
	"fmt"
	"strings"
)

// PaymentMethod is the UI-facing lowercase tender identifier.
type PaymentMethod string

// Supported tender methods.
const (
	MethodCash           PaymentMethod = "cash"
	MethodJamDex         PaymentMethod = "jam_dex"
	MethodLynkWallet     PaymentMethod = "lynk_wallet"
	MethodWiPay          PaymentMethod = "wipay"
	MethodCardVisa       PaymentMethod = "card_visa"
	MethodCardMastercard PaymentMethod = "card_mastercard"
	MethodBankTransfer   PaymentMethod = "bank_transfer"
)

var paymentMethods = []PaymentMethod{
	MethodCash,
	MethodJamDex,
	MethodLynkWallet,
	MethodWiPay,
	MethodCardVisa,
	MethodCardMastercard,
	MethodBankTransfer,
}

// PaymentMethods lists every supported tender method in display order.
func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(paymentMethods))
	copy(out, paymentMethods)
	return out
}

// Valid reports whether the method is part of the supported enumeration.
func (m PaymentMethod) Valid() bool {
	for _, known := range paymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// IsCash reports whether the tender is physical cash. Only cash carries a
// tendered amount and pulses the drawer.
func (m PaymentMethod) IsCash() bool { return m == MethodCash }

// API returns the upper-snake wire form expected by the business backend.
func (m PaymentMethod) API() string {
	return strings.ToUpper(string(m))
}

// ParsePaymentMethod maps either the UI or the API form, case-insensitively,
// onto the canonical method.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(value)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown payment method %q", value)
	}
	return m, nil
}

// DiscountType distinguishes percentage from flat-amount discounts.
type DiscountType string

// Discount types in their UI-facing form.
const (
	DiscountNone    DiscountType = ""
	DiscountPercent DiscountType = "percent"
	DiscountAmount  DiscountType = "amount"
)

// API returns the wire form used by the business backend.
func (d DiscountType) API() string {
	switch d {
	case DiscountPercent:
		return "PERCENTAGE"
	case DiscountAmount:
		return "FIXED"
	default:
		return ""
	}
}

// ParseDiscountType accepts both UI and API spellings.
func ParseDiscountType(value string) (DiscountType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return DiscountNone, nil
	case "percent", "percentage":
		return DiscountPercent, nil
	case "amount", "fixed":
		return DiscountAmount, nil
	default:
		return DiscountNone, fmt.Errorf("unknown discount type %q", value)
	}
}

// OrderStatus is the backend order lifecycle state relevant to the terminal.
type OrderStatus string

// Order statuses the engine reads or writes.
const (
	OrderPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderHeld           OrderStatus = "HELD"
	OrderCompleted      OrderStatus = "COMPLETED"
	OrderVoided         OrderStatus = "VOIDED"
)
