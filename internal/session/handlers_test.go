package session_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/Mani87-nq/yardbooks-pos/internal/backend"
	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
	"github.com/Mani87-nq/yardbooks-pos/internal/session"
)

func newSessionRouter(t *testing.T, seedTerminal bool) (http.Handler, *backend.Memory) {
	t.Helper()
	mem := backend.NewMemory(pos.Settings{GctRateBps: 1500, RequireOpenSession: true})
	if seedTerminal {
		mem.SeedTerminals(pos.Terminal{ID: "term-1", Name: "Front Counter"})
	}
	h := &session.Handler{Gate: &session.Gate{B: mem}, Validate: validator.New()}
	return h.Routes(), mem
}

func post(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestOpenSessionAndReadBack(t *testing.T) {
	t.Parallel()
	router, _ := newSessionRouter(t, true)

	rec := get(t, router, "/sessions/current")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data": null}`, rec.Body.String())

	rec = post(t, router, "/sessions", map[string]any{
		"terminalId":  "term-1",
		"cashierName": "Keisha",
		"openingCash": 5000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = get(t, router, "/sessions/current")
	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			CashierName string `json:"cashierName"`
			TerminalID  string `json:"terminalId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "Keisha", envelope.Data.CashierName)
	require.Equal(t, "term-1", envelope.Data.TerminalID)
}

func TestOpenSessionValidation(t *testing.T) {
	t.Parallel()
	router, _ := newSessionRouter(t, true)

	rec := post(t, router, "/sessions", map[string]any{"terminalId": "term-1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, router, "/sessions", map[string]any{
		"terminalId":  "term-1",
		"cashierName": "Keisha",
		"openingCash": -1,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpenSessionWithoutTerminals(t *testing.T) {
	t.Parallel()
	router, _ := newSessionRouter(t, false)

	rec := post(t, router, "/sessions", map[string]any{
		"terminalId":  "term-1",
		"cashierName": "Keisha",
		"openingCash": 0,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestListTerminals(t *testing.T) {
	t.Parallel()
	router, _ := newSessionRouter(t, true)

	rec := get(t, router, "/terminals")
	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []pos.Terminal `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	require.Equal(t, "Front Counter", envelope.Data[0].Name)
}
