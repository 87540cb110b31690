package catalog

import (
	"net/http"
	"strings"

	"github.com/Mani87-nq/yardbooks-pos/internal/backend"
	"github.com/Mani87-nq/yardbooks-pos/internal/common"
	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
)

// Handler exposes the catalog lookups consumed by the terminal front end.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Products handles GET /api/v1/products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog service not configured", nil)
		return
	}
	query := r.URL.Query()
	filter := backend.ProductFilter{
		Search:   strings.TrimSpace(query.Get("search")),
		Category: strings.TrimSpace(query.Get("category")),
	}
	products, err := h.service.Products(r.Context(), filter)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	if limit := common.AtoiDefault(query.Get("limit"), 0); limit > 0 && limit < len(products) {
		products = products[:limit]
	}
	common.JSONData(w, http.StatusOK, products)
}

// Customers handles GET /api/v1/customers.
func (h *Handler) Customers(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog service not configured", nil)
		return
	}
	filter := backend.CustomerFilter{Search: strings.TrimSpace(r.URL.Query().Get("search"))}
	customers, err := h.service.Customers(r.Context(), filter)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, customers)
}

// Settings handles GET /api/v1/settings.
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog service not configured", nil)
		return
	}
	settings, err := h.service.Settings(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, settings)
}

// RefreshSettings handles POST /api/v1/settings/refresh.
func (h *Handler) RefreshSettings(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog service not configured", nil)
		return
	}
	settings, err := h.service.RefreshSettings(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, settings)
}

// PaymentMethods handles GET /api/v1/payment-methods. The list is static but
// served from the API so the front end never hardcodes tender identifiers.
func (h *Handler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	type method struct {
		ID     pos.PaymentMethod `json:"id"`
		Wire   string            `json:"wire"`
		IsCash bool              `json:"isCash"`
	}
	methods := make([]method, 0, len(pos.PaymentMethods()))
	for _, m := range pos.PaymentMethods() {
		methods = append(methods, method{ID: m, Wire: m.API(), IsCash: m.IsCash()})
	}
	common.JSONData(w, http.StatusOK, methods)
}
