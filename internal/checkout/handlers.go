package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Mani87-nq/yardbooks-pos/internal/backend"
	"github.com/Mani87-nq/yardbooks-pos/internal/cart"
	"github.com/Mani87-nq/yardbooks-pos/internal/catalog"
	"github.com/Mani87-nq/yardbooks-pos/internal/common"
	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
	"github.com/Mani87-nq/yardbooks-pos/internal/receipt"
)

// Handler wires the checkout flow to HTTP. Every route operates on one flow,
// addressed by the cart id issued at creation.
type Handler struct {
	Registry *Registry
	Catalog  *catalog.Service
	Receipts *receipt.Dispatcher
	Validate *validator.Validate
	Logger   zerolog.Logger
}

type flowView struct {
	CartID   string            `json:"cartId"`
	State    string            `json:"state"`
	Cart     cart.Cart         `json:"cart"`
	Totals   cart.Totals       `json:"totals"`
	Method   pos.PaymentMethod `json:"method,omitempty"`
	Tendered pos.Money         `json:"tendered,omitempty"`
}

func (h *Handler) view(id string, flow *Flow) flowView {
	method, tendered := flow.Method()
	return flowView{
		CartID:   id,
		State:    flow.State().String(),
		Cart:     flow.Cart(),
		Totals:   flow.Totals(),
		Method:   method,
		Tendered: tendered,
	}
}

// Create handles POST /api/v1/carts.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, flow, err := h.Registry.Create(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, h.view(id, flow))
}

// Get handles GET /api/v1/carts/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	common.JSONData(w, http.StatusOK, h.view(id, flow))
}

type addItemRequest struct {
	ProductID string     `json:"productId"`
	Name      string     `json:"name"`
	UnitPrice *pos.Money `json:"unitPrice" validate:"omitempty,gte=0"`
	Quantity  int64      `json:"quantity" validate:"omitempty,gte=1"`
	GctExempt bool       `json:"isGctExempt"`
}

// AddItem handles POST /api/v1/carts/{id}/items. A productId adds from the
// catalog; a name plus unitPrice adds an ad-hoc line.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}

	var editErr error
	switch {
	case strings.TrimSpace(req.ProductID) != "":
		product, err := h.lookupProduct(r, strings.TrimSpace(req.ProductID))
		if err != nil {
			h.writeError(w, err)
			return
		}
		editErr = flow.Edit(func(c cart.Cart) (cart.Cart, error) {
			return c.AddProduct(product, qty), nil
		})
	case strings.TrimSpace(req.Name) != "" && req.UnitPrice != nil:
		editErr = flow.Edit(func(c cart.Cart) (cart.Cart, error) {
			return c.AddLine(req.Name, *req.UnitPrice, qty, req.GctExempt)
		})
	default:
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "productId or name with unitPrice is required", nil)
		return
	}
	if editErr != nil {
		h.writeError(w, editErr)
		return
	}
	common.JSONData(w, http.StatusOK, h.view(id, flow))
}

type updateItemRequest struct {
	Quantity      *int64            `json:"quantity" validate:"omitempty,gte=0"`
	Name          *string           `json:"name"`
	UnitPrice     *pos.Money        `json:"unitPrice" validate:"omitempty,gte=0"`
	GctExempt     *bool             `json:"isGctExempt"`
	DiscountType  *pos.DiscountType `json:"discountType"`
	DiscountValue *pos.Money        `json:"discountValue" validate:"omitempty,gte=0"`
}

// UpdateItem handles PATCH /api/v1/carts/{id}/items/{lineId}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	lineID := chi.URLParam(r, "lineId")
	var req updateItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	patch := cart.Patch{
		Qty:           req.Quantity,
		Name:          req.Name,
		UnitPrice:     req.UnitPrice,
		GctExempt:     req.GctExempt,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
	}
	err := flow.Edit(func(c cart.Cart) (cart.Cart, error) {
		return c.UpdateLine(lineID, patch)
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, h.view(id, flow))
}

// RemoveItem handles DELETE /api/v1/carts/{id}/items/{lineId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	lineID := chi.URLParam(r, "lineId")
	err := flow.Edit(func(c cart.Cart) (cart.Cart, error) {
		return c.RemoveLine(lineID), nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, h.view(id, flow))
}

// Clear handles DELETE /api/v1/carts/{id}/items.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	err := flow.Edit(func(c cart.Cart) (cart.Cart, error) {
		return c.Clear(), nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, h.view(id, flow))
}

type customerRequest struct {
	CustomerID   string `json:"customerId"`
	CustomerName string `json:"customerName"`
}

// SetCustomer handles PUT /api/v1/carts/{id}/customer.
func (h *Handler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req customerRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := flow.Edit(func(c cart.Cart) (cart.Cart, error) {
		return c.WithCustomer(req.CustomerID, req.CustomerName), nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, h.view(id, flow))
}

type discountRequest struct {
	Type   string    `json:"type"`
	Value  pos.Money `json:"value" validate:"gte=0"`
	Reason string    `json:"reason"`
}

// SetDiscount handles PUT /api/v1/carts/{id}/discount.
func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req discountRequest
	if !h.decode(w, r, &req) {
		return
	}
	kind, err := pos.ParseDiscountType(req.Type)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, err.Error(), nil)
		return
	}
	err = flow.Edit(func(c cart.Cart) (cart.Cart, error) {
		return c.WithOrderDiscount(kind, req.Value, req.Reason)
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, h.view(id, flow))
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// SetNotes handles PUT /api/v1/carts/{id}/notes.
func (h *Handler) SetNotes(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req notesRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := flow.Edit(func(c cart.Cart) (cart.Cart, error) {
		return c.WithNotes(req.Notes), nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, h.view(id, flow))
}

// StartCheckout handles POST /api/v1/carts/{id}/checkout.
func (h *Handler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	if err := flow.Checkout(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, h.view(id, flow))
}

type methodRequest struct {
	Method   string     `json:"method" validate:"required"`
	Tendered *pos.Money `json:"tendered" validate:"omitempty,gte=0"`
}

// SelectMethod handles POST /api/v1/carts/{id}/payment-method.
func (h *Handler) SelectMethod(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req methodRequest
	if !h.decode(w, r, &req) {
		return
	}
	method, err := pos.ParsePaymentMethod(req.Method)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, err.Error(), nil)
		return
	}
	if err := flow.SelectMethod(method); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Tendered != nil && method.IsCash() {
		if err := flow.SetTendered(*req.Tendered); err != nil {
			h.writeError(w, err)
			return
		}
	}
	common.JSONData(w, http.StatusOK, h.view(id, flow))
}

type tenderRequest struct {
	Amount pos.Money `json:"amount" validate:"gte=0"`
}

// SetTendered handles POST /api/v1/carts/{id}/tendered.
func (h *Handler) SetTendered(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req tenderRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := flow.SetTendered(req.Amount); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, h.view(id, flow))
}

// Confirm handles POST /api/v1/carts/{id}/confirm. For card and mobile
// tenders the first confirm arms the terminal wait and returns the flow
// state; the sale response comes from the submit that follows.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	res, err := flow.Confirm(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if res == nil {
		common.JSONData(w, http.StatusOK, h.view(id, flow))
		return
	}
	h.enqueueReceipt(r, res)
	common.JSONData(w, http.StatusOK, res)
}

// PaymentConfirmed handles POST /api/v1/carts/{id}/payment-confirmed.
func (h *Handler) PaymentConfirmed(w http.ResponseWriter, r *http.Request) {
	_, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	res, err := flow.PaymentConfirmed(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.enqueueReceipt(r, res)
	common.JSONData(w, http.StatusOK, res)
}

// PaymentFailed handles POST /api/v1/carts/{id}/payment-failed.
func (h *Handler) PaymentFailed(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	if err := flow.PaymentFailed(); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, h.view(id, flow))
}

// Cancel handles POST /api/v1/carts/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	if err := flow.Cancel(); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, h.view(id, flow))
}

// Reset handles POST /api/v1/carts/{id}/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	if err := flow.Reset(); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, h.view(id, flow))
}

type holdRequest struct {
	Reason string `json:"reason"`
}

// Hold handles POST /api/v1/carts/{id}/hold.
func (h *Handler) Hold(w http.ResponseWriter, r *http.Request) {
	_, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req holdRequest
	if !h.decode(w, r, &req) {
		return
	}
	order, err := flow.Hold(r.Context(), req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, order)
}

type voidRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// Void handles POST /api/v1/carts/{id}/void.
func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req voidRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := flow.Void(r.Context(), req.Reason); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, h.view(id, flow))
}

// Receipt handles GET /api/v1/carts/{id}/receipt.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	_, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	res := flow.LastResult()
	if res == nil {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "no completed sale for this cart", nil)
		return
	}
	common.JSONData(w, http.StatusOK, res.Receipt)
}

type printRequest struct {
	Copies int `json:"copies" validate:"omitempty,gte=1"`
}

// PrintReceipt handles POST /api/v1/carts/{id}/receipt/print.
func (h *Handler) PrintReceipt(w http.ResponseWriter, r *http.Request) {
	_, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	res := flow.LastResult()
	if res == nil {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "no completed sale for this cart", nil)
		return
	}
	var req printRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Receipts.EnqueuePrint(r.Context(), res.Receipt, req.Copies); err != nil {
		common.JSONError(w, http.StatusBadGateway, common.CodeBackendFailed, "unable to queue receipt print", nil)
		return
	}
	common.JSONData(w, http.StatusAccepted, map[string]any{"queued": true})
}

type emailRequest struct {
	To string `json:"to" validate:"required,email"`
}

// EmailReceipt handles POST /api/v1/carts/{id}/receipt/email.
func (h *Handler) EmailReceipt(w http.ResponseWriter, r *http.Request) {
	_, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	res := flow.LastResult()
	if res == nil {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "no completed sale for this cart", nil)
		return
	}
	var req emailRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Receipts.EnqueueEmail(r.Context(), res.Receipt, req.To); err != nil {
		common.JSONError(w, http.StatusBadGateway, common.CodeBackendFailed, "unable to queue receipt email", nil)
		return
	}
	common.JSONData(w, http.StatusAccepted, map[string]any{"queued": true})
}

// Routes mounts the cart and checkout endpoints on a chi router. The confirm
// endpoints ride behind the supplied idempotency middleware when non-nil.
func (h *Handler) Routes(idem func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/items", h.AddItem)
		r.Delete("/items", h.Clear)
		r.Patch("/items/{lineId}", h.UpdateItem)
		r.Delete("/items/{lineId}", h.RemoveItem)
		r.Put("/customer", h.SetCustomer)
		r.Put("/discount", h.SetDiscount)
		r.Put("/notes", h.SetNotes)
		r.Post("/checkout", h.StartCheckout)
		r.Post("/payment-method", h.SelectMethod)
		r.Post("/tendered", h.SetTendered)
		if idem != nil {
			r.With(idem).Post("/confirm", h.Confirm)
			r.With(idem).Post("/payment-confirmed", h.PaymentConfirmed)
		} else {
			r.Post("/confirm", h.Confirm)
			r.Post("/payment-confirmed", h.PaymentConfirmed)
		}
		r.Post("/payment-failed", h.PaymentFailed)
		r.Post("/cancel", h.Cancel)
		r.Post("/reset", h.Reset)
		r.Post("/hold", h.Hold)
		r.Post("/void", h.Void)
		r.Get("/receipt", h.Receipt)
		r.Post("/receipt/print", h.PrintReceipt)
		r.Post("/receipt/email", h.EmailReceipt)
	})
	return r
}

func (h *Handler) flow(w http.ResponseWriter, r *http.Request) (string, *Flow, bool) {
	id := chi.URLParam(r, "id")
	flow, err := h.Registry.Get(id)
	if err != nil {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "cart not found", nil)
		return "", nil, false
	}
	return id, flow, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "invalid request body", nil)
			return false
		}
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(dst); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, err.Error(), nil)
			return false
		}
	}
	return true
}

func (h *Handler) lookupProduct(r *http.Request, productID string) (pos.Product, error) {
	if h.Catalog == nil {
		return pos.Product{}, common.NewAppError(common.CodeInternal, "catalog not configured", http.StatusInternalServerError, nil)
	}
	products, err := h.Catalog.Products(r.Context(), backend.ProductFilter{})
	if err != nil {
		return pos.Product{}, err
	}
	for _, p := range products {
		if p.ID == productID {
			return p, nil
		}
	}
	return pos.Product{}, common.NewAppError(common.CodeNotFound, "product not found", http.StatusNotFound, nil)
}

func (h *Handler) enqueueReceipt(r *http.Request, res *Result) {
	if res == nil || h.Receipts == nil {
		return
	}
	if err := h.Receipts.EnqueuePrint(r.Context(), res.Receipt, 1); err != nil {
		h.Logger.Warn().Err(err).Str("order_number", res.Order.OrderNumber).Msg("receipt enqueue failed")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrMethodRequired),
		errors.Is(err, ErrInsufficientTender),
		errors.Is(err, ErrReasonRequired),
		errors.Is(err, cart.ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, err.Error(), nil)
	case errors.Is(err, ErrSessionRequired):
		common.JSONError(w, http.StatusConflict, common.CodeSessionRequired, err.Error(), nil)
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrCartLocked):
		common.JSONError(w, http.StatusConflict, common.CodeStateConflict, err.Error(), nil)
	case errors.Is(err, cart.ErrLineNotFound), errors.Is(err, ErrFlowNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, err.Error(), nil)
	default:
		var ce *backend.CallError
		if errors.As(err, &ce) {
			common.JSONError(w, http.StatusBadGateway, common.CodeBackendFailed, "business backend call failed", map[string]any{"op": ce.Op})
			return
		}
		common.RenderError(w, err)
	}
}
