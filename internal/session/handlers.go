package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/Mani87-nq/yardbooks-pos/internal/backend"
	"github.com/Mani87-nq/yardbooks-pos/internal/common"
	"github.com/Mani87-nq/yardbooks-pos/internal/events"
	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
)

// Handler exposes register shifts and terminals over HTTP.
type Handler struct {
	Gate     *Gate
	Events   *events.Bus
	Validate *validator.Validate
}

type openRequest struct {
	TerminalID  string    `json:"terminalId" validate:"required"`
	CashierName string    `json:"cashierName" validate:"required"`
	OpeningCash pos.Money `json:"openingCash" validate:"gte=0"`
}

// Open handles POST /api/v1/sessions.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "invalid request body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, err.Error(), nil)
			return
		}
	}
	opened, err := h.Gate.Open(r.Context(), req.TerminalID, req.CashierName, req.OpeningCash)
	if err != nil {
		h.writeError(w, err)
		return
	}
	_ = h.Events.Emit(r.Context(), events.TopicSessionOpened, map[string]any{
		"sessionId":  opened.ID,
		"terminalId": opened.TerminalID,
		"cashier":    opened.CashierName,
	})
	common.JSONData(w, http.StatusCreated, opened)
}

// Current handles GET /api/v1/sessions/current. A missing session is not an
// error: the UI reads {"data": null} as "register closed".
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	current, err := h.Gate.Current(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, current)
}

// Terminals handles GET /api/v1/terminals.
func (h *Handler) Terminals(w http.ResponseWriter, r *http.Request) {
	if h.Gate == nil || h.Gate.B == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "session gate not configured", nil)
		return
	}
	terminals, err := h.Gate.B.ListTerminals(r.Context(), backend.TerminalFilter{ActiveOnly: true})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, terminals)
}

// Routes mounts the session and terminal endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/sessions", h.Open)
	r.Get("/sessions/current", h.Current)
	r.Get("/terminals", h.Terminals)
	return r
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, err.Error(), nil)
	case errors.Is(err, ErrNoTerminals):
		common.JSONError(w, http.StatusConflict, common.CodeStateConflict, err.Error(), nil)
	default:
		var ce *backend.CallError
		if errors.As(err, &ce) {
			common.JSONError(w, http.StatusBadGateway, common.CodeBackendFailed, "business backend call failed", map[string]any{"op": ce.Op})
			return
		}
		common.RenderError(w, err)
	}
}
