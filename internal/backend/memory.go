package backend

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
)

// Memory is an in-process Backend used for development and tests. It mirrors
// the real backend's behaviour closely enough for the engine: it recomputes
// order totals itself and is authoritative for them.
type Memory struct {
	mu        sync.Mutex
	settings  pos.Settings
	products  []pos.Product
	customers []pos.Customer
	terminals []pos.Terminal
	sessions  map[string]pos.Session
	orders    map[string]pos.Order
	payments  map[string][]pos.Payment
	orderSeq  int
	Now       func() time.Time
}

// NewMemory constructs an empty in-memory backend with the given settings.
func NewMemory(settings pos.Settings) *Memory {
	return &Memory{
		settings: settings,
		sessions: map[string]pos.Session{},
		orders:   map[string]pos.Order{},
		payments: map[string][]pos.Payment{},
	}
}

func (m *Memory) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// SeedProducts loads catalog rows.
func (m *Memory) SeedProducts(products ...pos.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, products...)
}

// SeedCustomers loads customer rows.
func (m *Memory) SeedCustomers(customers ...pos.Customer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers = append(m.customers, customers...)
}

// SeedTerminals loads register configuration.
func (m *Memory) SeedTerminals(terminals ...pos.Terminal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terminals = append(m.terminals, terminals...)
}

// ListActiveProducts implements Backend.
func (m *Memory) ListActiveProducts(_ context.Context, filter ProductFilter) ([]pos.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pos.Product, 0, len(m.products))
	for _, p := range m.products {
		if filter.Category != "" && !strings.EqualFold(p.Category, filter.Category) {
			continue
		}
		if filter.Search != "" && !containsFold(p.Name, filter.Search) && !containsFold(p.SKU, filter.Search) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ListCustomers implements Backend.
func (m *Memory) ListCustomers(_ context.Context, filter CustomerFilter) ([]pos.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pos.Customer, 0, len(m.customers))
	for _, c := range m.customers {
		if filter.Search != "" && !containsFold(c.Name, filter.Search) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// GetPosSettings implements Backend.
func (m *Memory) GetPosSettings(_ context.Context) (pos.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

// ListOpenSessions implements Backend.
func (m *Memory) ListOpenSessions(_ context.Context) ([]pos.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pos.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out, nil
}

// ListTerminals implements Backend.
func (m *Memory) ListTerminals(_ context.Context, _ TerminalFilter) ([]pos.Terminal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pos.Terminal, len(m.terminals))
	copy(out, m.terminals)
	return out, nil
}

// CreateSession implements Backend.
func (m *Memory) CreateSession(_ context.Context, in CreateSessionInput) (pos.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.TrimSpace(in.TerminalID) == "" {
		return pos.Session{}, &CallError{Op: OpCreateSession, Err: fmt.Errorf("terminal id is required")}
	}
	found := false
	for _, t := range m.terminals {
		if t.ID == in.TerminalID {
			found = true
			break
		}
	}
	if !found {
		return pos.Session{}, &CallError{Op: OpCreateSession, Err: ErrNotFound}
	}
	session := pos.Session{
		ID:          uuid.NewString(),
		TerminalID:  in.TerminalID,
		CashierName: in.CashierName,
		OpeningCash: in.OpeningCash,
		OpenedAt:    m.now(),
	}
	m.sessions[session.ID] = session
	return session, nil
}

// CreateOrder implements Backend. The total is recomputed here from the
// submitted items, not taken from the caller.
func (m *Memory) CreateOrder(_ context.Context, in CreateOrderInput) (pos.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(in.Items) == 0 {
		return pos.Order{}, &CallError{Op: OpCreateOrder, Err: fmt.Errorf("order requires at least one item")}
	}
	if in.SessionID != "" {
		if _, ok := m.sessions[in.SessionID]; !ok {
			return pos.Order{}, &CallError{Op: OpCreateOrder, Err: ErrNotFound}
		}
	}
	var subtotal, taxable pos.Money
	for _, item := range in.Items {
		line := pos.Money(item.Qty) * item.UnitPrice
		subtotal += line
		if !item.GctExempt {
			taxable += line
		}
	}
	gct := taxable * pos.Money(m.settings.GctRateBps) / 10000
	var discountAmt pos.Money
	switch in.OrderDiscountType {
	case pos.DiscountPercent.API():
		discountAmt = subtotal * in.OrderDiscountValue / 100
	case pos.DiscountAmount.API():
		discountAmt = in.OrderDiscountValue
	}
	m.orderSeq++
	status := in.Status
	if status == "" {
		status = pos.OrderPendingPayment
	}
	order := pos.Order{
		ID:          uuid.NewString(),
		OrderNumber: fmt.Sprintf("POS-%06d", m.orderSeq),
		Status:      status,
		Total:       subtotal - discountAmt + gct,
		CreatedAt:   m.now(),
	}
	m.orders[order.ID] = order
	return order, nil
}

// AddPayment implements Backend. A successful payment completes the order.
func (m *Memory) AddPayment(_ context.Context, in AddPaymentInput) (pos.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[in.OrderID]
	if !ok {
		return pos.Payment{}, &CallError{Op: OpAddPayment, Err: ErrNotFound}
	}
	if order.Status != pos.OrderPendingPayment {
		return pos.Payment{}, &CallError{Op: OpAddPayment, Err: fmt.Errorf("order status %s does not accept payments", order.Status)}
	}
	method, err := pos.ParsePaymentMethod(in.Method)
	if err != nil {
		return pos.Payment{}, &CallError{Op: OpAddPayment, Err: err}
	}
	payment := pos.Payment{
		ID:             uuid.NewString(),
		OrderID:        in.OrderID,
		Method:         method,
		Amount:         in.Amount,
		AmountTendered: in.Tendered,
		Status:         in.Status,
		CreatedAt:      m.now(),
	}
	m.payments[in.OrderID] = append(m.payments[in.OrderID], payment)
	order.Status = pos.OrderCompleted
	m.orders[in.OrderID] = order
	return payment, nil
}

// HoldOrder implements Backend.
func (m *Memory) HoldOrder(_ context.Context, in HoldOrderInput) (pos.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[in.ID]
	if !ok {
		return pos.Order{}, &CallError{Op: OpHoldOrder, Err: ErrNotFound}
	}
	order.Status = pos.OrderHeld
	order.HeldReason = in.HeldReason
	m.orders[in.ID] = order
	return order, nil
}

// Order returns a stored order by id, for assertions and the seeder.
func (m *Memory) Order(id string) (pos.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	return order, ok
}

// Payments returns recorded payments for an order.
func (m *Memory) Payments(orderID string) []pos.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pos.Payment, len(m.payments[orderID]))
	copy(out, m.payments[orderID])
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
