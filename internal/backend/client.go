package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Mani87-nq/yardbooks-pos/internal/obs"
	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
)

// Doer executes HTTP requests. The resilience wrapper satisfies this.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client talks JSON over HTTP to the business backend.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    Doer
}

// productWire is the catalog row as served by the backend. The gctRate field
// carries either a fractional rate or the "exempt" sentinel string.
type productWire struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	UnitPrice pos.Money       `json:"unitPrice"`
	Quantity  int64           `json:"quantity"`
	Category  string          `json:"category"`
	Unit      string          `json:"unit"`
	GctRate   json.RawMessage `json:"gctRate"`
}

type settingsWire struct {
	GctRate               float64 `json:"gctRate"`
	RequireOpenSession    bool    `json:"requireOpenSession"`
	BusinessName          string  `json:"businessName"`
	BusinessAddress       string  `json:"businessAddress"`
	BusinessPhone         string  `json:"businessPhone"`
	BusinessTRN           string  `json:"businessTRN"`
	GctRegistrationNumber string  `json:"gctRegistrationNumber"`
	ReceiptFooter         string  `json:"receiptFooter"`
	ShowLogo              bool    `json:"showLogo"`
	BusinessLogo          string  `json:"businessLogo"`
}

// ListActiveProducts fetches the sellable catalog, normalising uom and the
// exempt sentinel at this boundary.
func (c *Client) ListActiveProducts(ctx context.Context, filter ProductFilter) ([]pos.Product, error) {
	query := url.Values{"status": {"active"}}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	var rows []productWire
	if err := c.call(ctx, OpListProducts, http.MethodGet, "/api/v1/products?"+query.Encode(), nil, &rows); err != nil {
		return nil, err
	}
	products := make([]pos.Product, 0, len(rows))
	for _, row := range rows {
		exempt, _, err := pos.ParseGctRate(row.GctRate)
		if err != nil {
			return nil, &CallError{Op: OpListProducts, Err: fmt.Errorf("product %s: %w", row.ID, err)}
		}
		uom := strings.TrimSpace(row.Unit)
		if uom == "" {
			uom = pos.DefaultUomCode
		}
		products = append(products, pos.Product{
			ID:        row.ID,
			Name:      row.Name,
			SKU:       row.SKU,
			UnitPrice: row.UnitPrice,
			Quantity:  row.Quantity,
			Category:  row.Category,
			UomCode:   uom,
			GctExempt: exempt,
		})
	}
	return products, nil
}

// ListCustomers fetches customers matching the filter.
func (c *Client) ListCustomers(ctx context.Context, filter CustomerFilter) ([]pos.Customer, error) {
	query := url.Values{}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	var customers []pos.Customer
	if err := c.call(ctx, OpListCustomers, http.MethodGet, "/api/v1/customers?"+query.Encode(), nil, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// GetPosSettings fetches the terminal configuration, converting the
// fractional tax rate to basis points once here.
func (c *Client) GetPosSettings(ctx context.Context) (pos.Settings, error) {
	var wire settingsWire
	if err := c.call(ctx, OpGetSettings, http.MethodGet, "/api/v1/settings/pos", nil, &wire); err != nil {
		return pos.Settings{}, err
	}
	bps, err := pos.RateToBps(wire.GctRate)
	if err != nil {
		return pos.Settings{}, &CallError{Op: OpGetSettings, Err: err}
	}
	return pos.Settings{
		GctRateBps:            bps,
		RequireOpenSession:    wire.RequireOpenSession,
		BusinessName:          wire.BusinessName,
		BusinessAddress:       wire.BusinessAddress,
		BusinessPhone:         wire.BusinessPhone,
		BusinessTRN:           wire.BusinessTRN,
		GctRegistrationNumber: wire.GctRegistrationNumber,
		ReceiptFooter:         wire.ReceiptFooter,
		ShowLogo:              wire.ShowLogo,
		BusinessLogo:          wire.BusinessLogo,
	}, nil
}

// ListOpenSessions returns register shifts currently open.
func (c *Client) ListOpenSessions(ctx context.Context) ([]pos.Session, error) {
	var sessions []pos.Session
	if err := c.call(ctx, OpListSessions, http.MethodGet, "/api/v1/pos-sessions?status=open", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListTerminals returns configured registers.
func (c *Client) ListTerminals(ctx context.Context, filter TerminalFilter) ([]pos.Terminal, error) {
	path := "/api/v1/pos-terminals"
	if filter.ActiveOnly {
		path += "?status=active"
	}
	var terminals []pos.Terminal
	if err := c.call(ctx, OpListTerminals, http.MethodGet, path, nil, &terminals); err != nil {
		return nil, err
	}
	return terminals, nil
}

// CreateSession opens a register shift.
func (c *Client) CreateSession(ctx context.Context, in CreateSessionInput) (pos.Session, error) {
	var session pos.Session
	if err := c.call(ctx, OpCreateSession, http.MethodPost, "/api/v1/pos-sessions", in, &session); err != nil {
		return pos.Session{}, err
	}
	return session, nil
}

// CreateOrder submits the cart snapshot. The returned order carries the
// backend-computed total.
func (c *Client) CreateOrder(ctx context.Context, in CreateOrderInput) (pos.Order, error) {
	var order pos.Order
	if err := c.call(ctx, OpCreateOrder, http.MethodPost, "/api/v1/orders", in, &order); err != nil {
		return pos.Order{}, err
	}
	return order, nil
}

// AddPayment records a tender against an order.
func (c *Client) AddPayment(ctx context.Context, in AddPaymentInput) (pos.Payment, error) {
	var payment pos.Payment
	if err := c.call(ctx, OpAddPayment, http.MethodPost, "/api/v1/payments", in, &payment); err != nil {
		return pos.Payment{}, err
	}
	return payment, nil
}

// HoldOrder parks an already-created order with a reason.
func (c *Client) HoldOrder(ctx context.Context, in HoldOrderInput) (pos.Order, error) {
	var order pos.Order
	path := "/api/v1/orders/" + url.PathEscape(in.ID) + "/hold"
	if err := c.call(ctx, OpHoldOrder, http.MethodPost, path, in, &order); err != nil {
		return pos.Order{}, err
	}
	return order, nil
}

type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
	Err  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) call(ctx context.Context, op, method, path string, body, out any) (err error) {
	defer func() {
		if obs.BackendCallTotal == nil {
			return
		}
		result := "ok"
		if err != nil {
			result = "error"
		}
		obs.BackendCallTotal.WithLabelValues(op, result).Inc()
	}()
	if c == nil || c.HTTP == nil {
		return &CallError{Op: op, Err: errors.New("backend client not configured")}
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &CallError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &CallError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return &CallError{Op: op, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &CallError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		return &CallError{Op: op, Status: resp.StatusCode, Err: ErrNotFound}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope dataEnvelope
		if jsonErr := json.Unmarshal(payload, &envelope); jsonErr == nil && envelope.Err != nil {
			return &CallError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%s: %s", envelope.Err.Code, envelope.Err.Message)}
		}
		return &CallError{Op: op, Status: resp.StatusCode, Err: errors.New(resp.Status)}
	}
	if out == nil {
		return nil
	}
	var envelope dataEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return &CallError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	raw := envelope.Data
	if len(raw) == 0 {
		// backends without the envelope return the document directly
		raw = payload
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &CallError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
