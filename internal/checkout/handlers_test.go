package checkout_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Mani87-nq/yardbooks-pos/internal/backend"
	"github.com/Mani87-nq/yardbooks-pos/internal/catalog"
	"github.com/Mani87-nq/yardbooks-pos/internal/checkout"
	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
	"github.com/Mani87-nq/yardbooks-pos/internal/session"
)

type handlerEnv struct {
	router  http.Handler
	backend *backend.Memory
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	mem := backend.NewMemory(pos.Settings{
		GctRateBps:         1500,
		RequireOpenSession: true,
		BusinessName:       "Island Grill",
	})
	mem.SeedProducts(
		pos.Product{ID: "prod-1", Name: "Beef Patty", UnitPrice: 350, UomCode: "EA"},
		pos.Product{ID: "prod-2", Name: "Exercise Book", UnitPrice: 150, UomCode: "EA", GctExempt: true},
	)
	mem.SeedTerminals(pos.Terminal{ID: "term-1", Name: "Front Counter"})

	gate := &session.Gate{B: mem}
	_, err := gate.Open(context.Background(), "term-1", "Keisha", 5000)
	require.NoError(t, err)

	settings, err := mem.GetPosSettings(context.Background())
	require.NoError(t, err)

	svc, err := catalog.NewService(catalog.ServiceConfig{Backend: mem, Logger: zerolog.Nop()})
	require.NoError(t, err)

	h := &checkout.Handler{
		Registry: checkout.NewRegistry(checkout.Config{
			Backend:  mem,
			Gate:     gate,
			Settings: settings,
			Logger:   zerolog.Nop(),
		}),
		Catalog:  svc,
		Validate: validator.New(),
		Logger:   zerolog.Nop(),
	}
	return &handlerEnv{router: h.Routes(nil), backend: mem}
}

func (e *handlerEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error.Code
}

func createCart(t *testing.T, e *handlerEnv) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var view struct {
		CartID string `json:"cartId"`
	}
	decodeData(t, rec, &view)
	require.NotEmpty(t, view.CartID)
	return view.CartID
}

func TestHandlerCashSaleRoundTrip(t *testing.T) {
	t.Parallel()
	e := newHandlerEnv(t)
	id := createCart(t, e)

	rec := e.do(t, http.MethodPost, "/"+id+"/items", map[string]any{"productId": "prod-1", "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		State  string `json:"state"`
		Totals struct {
			Subtotal  int64 `json:"subtotal"`
			GctAmount int64 `json:"gctAmount"`
			Total     int64 `json:"total"`
		} `json:"totals"`
	}
	decodeData(t, rec, &view)
	require.Equal(t, int64(700), view.Totals.Subtotal)
	require.Equal(t, int64(105), view.Totals.GctAmount)
	require.Equal(t, int64(805), view.Totals.Total)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/"+id+"/checkout", nil).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/"+id+"/payment-method", map[string]any{"method": "cash", "tendered": 1000}).Code)

	rec = e.do(t, http.MethodPost, "/"+id+"/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result struct {
		Change  int64 `json:"change"`
		Receipt struct {
			OrderNumber string `json:"orderNumber"`
		} `json:"receipt"`
	}
	decodeData(t, rec, &result)
	require.Equal(t, int64(195), result.Change)
	require.NotEmpty(t, result.Receipt.OrderNumber)

	rec = e.do(t, http.MethodGet, "/"+id+"/receipt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerAdHocLineAndExemptTax(t *testing.T) {
	t.Parallel()
	e := newHandlerEnv(t)
	id := createCart(t, e)

	rec := e.do(t, http.MethodPost, "/"+id+"/items", map[string]any{"name": "Yard Fee", "unitPrice": 500})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodPost, "/"+id+"/items", map[string]any{"productId": "prod-2"})
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		Totals struct {
			Subtotal  int64 `json:"subtotal"`
			GctAmount int64 `json:"gctAmount"`
		} `json:"totals"`
	}
	decodeData(t, rec, &view)
	require.Equal(t, int64(650), view.Totals.Subtotal)
	// only the ad-hoc line is taxable
	require.Equal(t, int64(75), view.Totals.GctAmount)
}

func TestHandlerAddItemValidation(t *testing.T) {
	t.Parallel()
	e := newHandlerEnv(t)
	id := createCart(t, e)

	rec := e.do(t, http.MethodPost, "/"+id+"/items", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_INPUT", errorCode(t, rec))

	rec = e.do(t, http.MethodPost, "/"+id+"/items", map[string]any{"productId": "prod-1", "quantity": -1})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/"+id+"/items", map[string]any{"productId": "no-such"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", errorCode(t, rec))
}

func TestHandlerUpdateAndRemoveLine(t *testing.T) {
	t.Parallel()
	e := newHandlerEnv(t)
	id := createCart(t, e)

	rec := e.do(t, http.MethodPost, "/"+id+"/items", map[string]any{"productId": "prod-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Cart struct {
			Items []struct {
				TempID string `json:"tempId"`
				Qty    int64  `json:"quantity"`
			} `json:"items"`
		} `json:"cart"`
	}
	decodeData(t, rec, &view)
	require.Len(t, view.Cart.Items, 1)
	lineID := view.Cart.Items[0].TempID

	rec = e.do(t, http.MethodPatch, "/"+id+"/items/"+lineID, map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &view)
	require.Equal(t, int64(3), view.Cart.Items[0].Qty)

	rec = e.do(t, http.MethodPatch, "/"+id+"/items/ghost", map[string]any{"quantity": 2})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodDelete, "/"+id+"/items/"+lineID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &view)
	require.Empty(t, view.Cart.Items)
}

func TestHandlerDiscountAndNotes(t *testing.T) {
	t.Parallel()
	e := newHandlerEnv(t)
	id := createCart(t, e)

	rec := e.do(t, http.MethodPost, "/"+id+"/items", map[string]any{"productId": "prod-1", "quantity": 4})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPut, "/"+id+"/discount", map[string]any{"type": "percent", "value": -5, "reason": "staff"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPut, "/"+id+"/discount", map[string]any{"type": "percent", "value": 50, "reason": "staff"})
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Totals struct {
			DiscountAmount int64 `json:"discountAmount"`
		} `json:"totals"`
	}
	decodeData(t, rec, &view)
	require.Equal(t, int64(700), view.Totals.DiscountAmount)

	rec = e.do(t, http.MethodPut, "/"+id+"/notes", map[string]any{"notes": "no pepper"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerStateConflicts(t *testing.T) {
	t.Parallel()
	e := newHandlerEnv(t)
	id := createCart(t, e)

	rec := e.do(t, http.MethodPost, "/"+id+"/checkout", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_INPUT", errorCode(t, rec))

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/"+id+"/items", map[string]any{"productId": "prod-1"}).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/"+id+"/checkout", nil).Code)

	rec = e.do(t, http.MethodPost, "/"+id+"/items", map[string]any{"productId": "prod-1"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "STATE_CONFLICT", errorCode(t, rec))

	rec = e.do(t, http.MethodPost, "/"+id+"/confirm", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/"+id+"/cancel", nil).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/"+id+"/items", map[string]any{"productId": "prod-1"}).Code)
}

func TestHandlerTerminalPaymentLifecycle(t *testing.T) {
	t.Parallel()
	e := newHandlerEnv(t)
	id := createCart(t, e)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/"+id+"/items", map[string]any{"productId": "prod-1"}).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/"+id+"/checkout", nil).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/"+id+"/payment-method", map[string]any{"method": "JAM_DEX"}).Code)

	rec := e.do(t, http.MethodPost, "/"+id+"/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		State string `json:"state"`
	}
	decodeData(t, rec, &view)
	require.Equal(t, "awaiting_terminal", view.State)

	rec = e.do(t, http.MethodPost, "/"+id+"/payment-failed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &view)
	require.Equal(t, "method_selection", view.State)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/"+id+"/payment-method", map[string]any{"method": "lynk_wallet"}).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/"+id+"/confirm", nil).Code)

	rec = e.do(t, http.MethodPost, "/"+id+"/payment-confirmed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result struct {
		Payment struct {
			Method string `json:"method"`
		} `json:"payment"`
	}
	decodeData(t, rec, &result)
	require.Equal(t, "lynk_wallet", result.Payment.Method)
}

func TestHandlerUnknownMethodRejected(t *testing.T) {
	t.Parallel()
	e := newHandlerEnv(t)
	id := createCart(t, e)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/"+id+"/items", map[string]any{"productId": "prod-1"}).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/"+id+"/checkout", nil).Code)

	rec := e.do(t, http.MethodPost, "/"+id+"/payment-method", map[string]any{"method": "barter"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_INPUT", errorCode(t, rec))
}

func TestHandlerHoldAndVoid(t *testing.T) {
	t.Parallel()
	e := newHandlerEnv(t)

	holdID := createCart(t, e)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/"+holdID+"/items", map[string]any{"productId": "prod-1"}).Code)
	rec := e.do(t, http.MethodPost, "/"+holdID+"/hold", map[string]any{"reason": "customer stepped out"})
	require.Equal(t, http.StatusOK, rec.Code)
	var order struct {
		Status string `json:"status"`
	}
	decodeData(t, rec, &order)
	require.Equal(t, "HELD", order.Status)

	voidID := createCart(t, e)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/"+voidID+"/items", map[string]any{"productId": "prod-1"}).Code)

	rec = e.do(t, http.MethodPost, "/"+voidID+"/void", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/"+voidID+"/void", map[string]any{"reason": "wrong ring-up"})
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Cart struct {
			Items []json.RawMessage `json:"items"`
		} `json:"cart"`
	}
	decodeData(t, rec, &view)
	require.Empty(t, view.Cart.Items)
}

func TestHandlerUnknownCart(t *testing.T) {
	t.Parallel()
	e := newHandlerEnv(t)

	rec := e.do(t, http.MethodGet, "/no-such-cart", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", errorCode(t, rec))
}

func TestHandlerReceiptBeforeSale(t *testing.T) {
	t.Parallel()
	e := newHandlerEnv(t)
	id := createCart(t, e)

	rec := e.do(t, http.MethodGet, "/"+id+"/receipt", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
