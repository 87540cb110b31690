// Package checkout drives a cart through payment to a completed order.
//
// A Flow owns one cart and its checkout lifecycle. The backend's order total
// is authoritative for the recorded payment amount; the locally derived
// totals are only a responsiveness optimisation and the tender pre-check.
package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Mani87-nq/yardbooks-pos/internal/backend"
	"github.com/Mani87-nq/yardbooks-pos/internal/cart"
	"github.com/Mani87-nq/yardbooks-pos/internal/events"
	"github.com/Mani87-nq/yardbooks-pos/internal/obs"
	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
	"github.com/Mani87-nq/yardbooks-pos/internal/receipt"
	"github.com/Mani87-nq/yardbooks-pos/internal/session"
)

// State is the checkout lifecycle position.
type State int

// Checkout states.
const (
	// StateIdle: cart may be edited, no payment modal open.
	StateIdle State = iota
	// StateMethodSelection: payment method is being chosen.
	StateMethodSelection
	// StateAwaitingTerminal: armed, waiting on the external card/mobile terminal.
	StateAwaitingTerminal
	// StateSubmitting: backend calls in flight.
	StateSubmitting
	// StateCompleted: receipt ready; Reset starts the next sale.
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMethodSelection:
		return "method_selection"
	case StateAwaitingTerminal:
		return "awaiting_terminal"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// DefaultHoldReason is applied when a cart is parked without a reason.
const DefaultHoldReason = "Parked from POS"

// Sentinel errors surfaced to the terminal UI.
var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrSessionRequired    = errors.New("an open session is required")
	ErrInvalidTransition  = errors.New("operation not allowed in current state")
	ErrCartLocked         = errors.New("cart cannot be edited during checkout")
	ErrMethodRequired     = errors.New("select a payment method first")
	ErrInsufficientTender = errors.New("cash tendered is below the total due")
	ErrReasonRequired     = errors.New("a void reason is required")
)

// Result is the outcome of a completed sale.
type Result struct {
	Order   pos.Order        `json:"order"`
	Payment pos.Payment      `json:"payment"`
	Change  pos.Money        `json:"change"`
	Receipt receipt.Document `json:"receipt"`
}

// Config wires a Flow's collaborators.
type Config struct {
	Backend  backend.Backend
	Gate     *session.Gate
	Settings pos.Settings
	Events   *events.Bus
	Logger   zerolog.Logger
	Now      func() time.Time

	// SettingsSource, when set, is consulted as each flow is created so a
	// settings refresh reaches the next sale without a restart. Settings is
	// the fallback when the source is unavailable.
	SettingsSource func(context.Context) (pos.Settings, error)
}

// Flow owns one cart and its checkout state machine. Methods are safe for
// concurrent use by HTTP handlers; within a flow all backend calls are
// strictly sequential.
type Flow struct {
	mu  sync.Mutex
	cfg Config

	cart     cart.Cart
	state    State
	method   pos.PaymentMethod
	tendered pos.Money

	// pendingOrder survives a failed payment step so a retry records the
	// payment against the already-created order instead of duplicating it.
	// It only outlives the failure while the cart stays unchanged; any edit
	// clears it.
	pendingOrder *pos.Order

	lastResult *Result
}

// NewFlow constructs an idle flow with an empty cart.
func NewFlow(cfg Config) (*Flow, error) {
	if cfg.Backend == nil {
		return nil, errors.New("checkout: backend is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Flow{cfg: cfg, cart: cart.New(), state: StateIdle}, nil
}

// State returns the current machine state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Cart returns the current cart value.
func (f *Flow) Cart() cart.Cart {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cart
}

// Totals derives the pricing summary for the configured tax rate.
func (f *Flow) Totals() cart.Totals {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cart.Totals(f.cfg.Settings.GctRateBps)
}

// Method returns the selected tender and, for cash, the tendered amount.
func (f *Flow) Method() (pos.PaymentMethod, pos.Money) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.method, f.tendered
}

// LastResult returns the outcome of the most recently completed sale.
func (f *Flow) LastResult() *Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastResult
}

// Edit applies a cart mutation. Edits are only allowed while idle; once the
// payment modal is open the cart is locked until cancel or completion.
func (f *Flow) Edit(mutate func(cart.Cart) (cart.Cart, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateIdle {
		return ErrCartLocked
	}
	next, err := mutate(f.cart)
	if err != nil {
		return err
	}
	f.cart = next
	// an order created for the previous cart contents no longer matches;
	// the next submit must create a fresh one
	f.pendingOrder = nil
	return nil
}

// gate checks the session requirement and returns the open session, if any.
func (f *Flow) gate(ctx context.Context) (*pos.Session, error) {
	if f.cfg.Gate == nil {
		return nil, nil
	}
	current, err := f.cfg.Gate.Current(ctx)
	if err != nil {
		return nil, err
	}
	if session.Blocked(f.cfg.Settings.RequireOpenSession, current) {
		return nil, ErrSessionRequired
	}
	return current, nil
}

// Checkout opens payment method selection. It is a no-op error on an empty
// cart and is blocked when a required session is missing.
func (f *Flow) Checkout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateIdle {
		return ErrInvalidTransition
	}
	if f.cart.Empty() {
		return ErrEmptyCart
	}
	if _, err := f.gate(ctx); err != nil {
		return err
	}
	f.state = StateMethodSelection
	f.method = ""
	f.tendered = 0
	return nil
}

// SelectMethod picks the tender. Selecting stays in method selection:
// advancing always requires an explicit confirm.
func (f *Flow) SelectMethod(m pos.PaymentMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateMethodSelection {
		return ErrInvalidTransition
	}
	if !m.Valid() {
		return ErrMethodRequired
	}
	f.method = m
	if !m.IsCash() {
		f.tendered = 0
	}
	return nil
}

// SetTendered records the cash handed over. Only meaningful for cash.
func (f *Flow) SetTendered(amount pos.Money) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateMethodSelection {
		return ErrInvalidTransition
	}
	if !f.method.IsCash() {
		return ErrInvalidTransition
	}
	if amount < 0 {
		return ErrInsufficientTender
	}
	f.tendered = amount
	return nil
}

// Confirm advances the machine. For non-cash tenders the first confirm only
// arms the terminal wait; submission happens on PaymentConfirmed (or a second
// confirm). Cash validates the tender locally, then submits.
func (f *Flow) Confirm(ctx context.Context) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StateMethodSelection:
		if !f.method.Valid() {
			return nil, ErrMethodRequired
		}
		if !f.method.IsCash() {
			f.state = StateAwaitingTerminal
			return nil, nil
		}
		total := f.cart.Totals(f.cfg.Settings.GctRateBps).Total
		if f.tendered < total {
			return nil, ErrInsufficientTender
		}
		return f.submit(ctx)
	case StateAwaitingTerminal:
		return f.submit(ctx)
	default:
		return nil, ErrInvalidTransition
	}
}

// PaymentConfirmed reports that the external terminal approved the payment.
func (f *Flow) PaymentConfirmed(ctx context.Context) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateAwaitingTerminal {
		return nil, ErrInvalidTransition
	}
	return f.submit(ctx)
}

// PaymentFailed reports a declined terminal payment. This is a normal
// transition back to method selection, not an error: the cart is untouched
// and the operator may retry or cancel.
func (f *Flow) PaymentFailed() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateAwaitingTerminal {
		return ErrInvalidTransition
	}
	f.state = StateMethodSelection
	return nil
}

// Cancel abandons checkout, returning to idle with the cart untouched.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateMethodSelection && f.state != StateAwaitingTerminal {
		return ErrInvalidTransition
	}
	f.state = StateIdle
	f.method = ""
	f.tendered = 0
	return nil
}

// Reset acknowledges a completed sale and readies the flow for the next one.
func (f *Flow) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateCompleted {
		return ErrInvalidTransition
	}
	f.state = StateIdle
	return nil
}

// submit runs the strict sequence: create order, record payment, build
// receipt, side effects, clear. Caller holds the lock.
func (f *Flow) submit(ctx context.Context) (*Result, error) {
	f.state = StateSubmitting

	ctx, span := otel.Tracer("checkout.Flow").Start(ctx, "CheckoutFlow.Submit")
	defer span.End()
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("checkout.method", string(f.method)),
			attribute.String("checkout.result", result),
		)
		if obs.CheckoutTotal != nil {
			obs.CheckoutTotal.WithLabelValues(string(f.method), result).Inc()
		}
	}()

	current, err := f.gate(ctx)
	if err != nil {
		f.state = StateMethodSelection
		return nil, err
	}

	snapshot := f.cart
	totals := snapshot.Totals(f.cfg.Settings.GctRateBps)

	order, err := f.ensureOrder(ctx, snapshot, current)
	if err != nil {
		f.state = StateMethodSelection
		return nil, err
	}

	paymentInput := backend.AddPaymentInput{
		OrderID: order.ID,
		Method:  f.method.API(),
		Amount:  order.Total,
		Status:  "COMPLETED",
	}
	if f.method.IsCash() {
		paymentInput.Tendered = f.tendered
	}
	payment, err := f.cfg.Backend.AddPayment(ctx, paymentInput)
	if err != nil {
		// remember the order so a retry does not create a duplicate
		f.pendingOrder = &order
		f.state = StateMethodSelection
		return nil, err
	}

	var change pos.Money
	if f.method.IsCash() && f.tendered > order.Total {
		change = f.tendered - order.Total
	}

	doc := receipt.Build(order, snapshot, totals, receipt.Tender{
		Method:   f.method,
		Amount:   order.Total,
		Tendered: paymentInput.Tendered,
		Change:   change,
	}, f.cfg.Settings)

	if f.method.IsCash() {
		_ = f.cfg.Events.Emit(ctx, events.TopicDrawerPulse, map[string]any{
			"orderId": order.ID,
		})
	}
	_ = f.cfg.Events.Emit(ctx, events.TopicOrderCompleted, map[string]any{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"method":      string(f.method),
		"total":       order.Total,
		"change":      change,
	})

	f.cfg.Logger.Info().
		Str("order_number", order.OrderNumber).
		Str("method", string(f.method)).
		Int64("total", order.Total).
		Msg("sale completed")

	res := &Result{Order: order, Payment: payment, Change: change, Receipt: doc}
	f.lastResult = res
	f.pendingOrder = nil
	f.cart = cart.New()
	f.method = ""
	f.tendered = 0
	f.state = StateCompleted
	result = "ok"
	return res, nil
}

// ensureOrder creates the backend order for the cart snapshot, or reuses the
// one left over from a previously failed payment attempt.
func (f *Flow) ensureOrder(ctx context.Context, snapshot cart.Cart, current *pos.Session) (pos.Order, error) {
	if f.pendingOrder != nil {
		return *f.pendingOrder, nil
	}
	input := orderInput(snapshot, current)
	return f.cfg.Backend.CreateOrder(ctx, input)
}

// Hold parks the cart as a backend order without payment, then clears it.
func (f *Flow) Hold(ctx context.Context, reason string) (pos.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateIdle {
		return pos.Order{}, ErrInvalidTransition
	}
	if f.cart.Empty() {
		return pos.Order{}, ErrEmptyCart
	}
	current, err := f.gate(ctx)
	if err != nil {
		return pos.Order{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultHoldReason
	}

	order, err := f.ensureOrder(ctx, f.cart, current)
	if err != nil {
		return pos.Order{}, err
	}
	held, err := f.cfg.Backend.HoldOrder(ctx, backend.HoldOrderInput{ID: order.ID, HeldReason: reason})
	if err != nil {
		// the order exists; retrying the hold must not re-create it
		f.pendingOrder = &order
		return pos.Order{}, err
	}

	_ = f.cfg.Events.Emit(ctx, events.TopicOrderHeld, map[string]any{
		"orderId": held.ID,
		"reason":  reason,
	})
	if obs.HoldTotal != nil {
		obs.HoldTotal.Inc()
	}
	f.cfg.Logger.Info().Str("order_number", held.OrderNumber).Str("reason", reason).Msg("cart parked")

	f.pendingOrder = nil
	f.cart = cart.New()
	return held, nil
}

// Void discards an un-submitted cart with a mandatory reason. No backend
// call happens because no order exists yet; the event is the audit note.
func (f *Flow) Void(ctx context.Context, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateIdle {
		return ErrInvalidTransition
	}
	if f.cart.Empty() {
		return ErrEmptyCart
	}
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	if _, err := f.gate(ctx); err != nil {
		return err
	}

	totals := f.cart.Totals(f.cfg.Settings.GctRateBps)
	_ = f.cfg.Events.Emit(ctx, events.TopicOrderVoided, map[string]any{
		"reason":    strings.TrimSpace(reason),
		"itemCount": totals.ItemCount,
		"total":     totals.Total,
	})
	f.cfg.Logger.Info().Str("reason", strings.TrimSpace(reason)).Msg("cart voided")
	if obs.VoidTotal != nil {
		obs.VoidTotal.Inc()
	}

	f.pendingOrder = nil
	f.cart = cart.New()
	return nil
}

func orderInput(snapshot cart.Cart, current *pos.Session) backend.CreateOrderInput {
	items := make([]backend.OrderItem, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		items = append(items, backend.OrderItem{
			ProductID:     item.ProductID,
			Name:          item.Name,
			UomCode:       item.UomCode,
			Qty:           item.Qty,
			UnitPrice:     item.UnitPrice,
			GctExempt:     item.GctExempt,
			DiscountType:  item.DiscountType.API(),
			DiscountValue: item.DiscountValue,
		})
	}
	input := backend.CreateOrderInput{
		CustomerID:          snapshot.CustomerID,
		CustomerName:        snapshot.CustomerName,
		Items:               items,
		OrderDiscountType:   snapshot.OrderDiscountType.API(),
		OrderDiscountValue:  snapshot.OrderDiscountValue,
		OrderDiscountReason: snapshot.OrderDiscountReason,
		Notes:               snapshot.Notes,
		Status:              pos.OrderPendingPayment,
	}
	if current != nil {
		input.SessionID = current.ID
	}
	return input
}
