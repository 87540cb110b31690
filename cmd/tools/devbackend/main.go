// Command devbackend runs a throwaway business backend for local terminal
// development. It serves the wire API the terminal consumes, backed by the
// in-memory store and seeded with a small Jamaican shop catalog.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Mani87-nq/yardbooks-pos/internal/backend"
	"github.com/Mani87-nq/yardbooks-pos/internal/common"
	"github.com/Mani87-nq/yardbooks-pos/internal/obs"
	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
)

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	flag.Parse()

	logger := obs.NewLogger("console", "info").With().Str("component", "devbackend").Logger()

	mem := backend.NewMemory(pos.Settings{
		GctRateBps:            1500,
		RequireOpenSession:    true,
		BusinessName:          "Yard Books Demo Shop",
		BusinessAddress:       "12 Half Way Tree Rd, Kingston",
		BusinessPhone:         "876-555-0123",
		BusinessTRN:           "123-456-789",
		GctRegistrationNumber: "GCT-0001234",
		ReceiptFooter:         "Thank you, come again!",
	})
	mem.SeedProducts(
		pos.Product{ID: "prod-1", Name: "Beef Patty", SKU: "PAT-001", UnitPrice: 35000, Quantity: 120, Category: "Food", UomCode: "EA"},
		pos.Product{ID: "prod-2", Name: "Cocoa Bread", SKU: "PAT-002", UnitPrice: 20000, Quantity: 80, Category: "Food", UomCode: "EA"},
		pos.Product{ID: "prod-3", Name: "Ting Grapefruit Soda", SKU: "BEV-001", UnitPrice: 25000, Quantity: 60, Category: "Beverages", UomCode: "EA"},
		pos.Product{ID: "prod-4", Name: "Exercise Book", SKU: "STA-001", UnitPrice: 15000, Quantity: 200, Category: "Stationery", UomCode: "EA", GctExempt: true},
		pos.Product{ID: "prod-5", Name: "Rice 1kg", SKU: "GRO-001", UnitPrice: 42000, Quantity: 40, Category: "Groceries", UomCode: "KG", GctExempt: true},
	)
	mem.SeedCustomers(
		pos.Customer{ID: "cust-1", Name: "Andre Campbell", Phone: "876-555-0187"},
		pos.Customer{ID: "cust-2", Name: "Keisha Brown", Email: "keisha@example.com"},
	)
	mem.SeedTerminals(
		pos.Terminal{ID: "term-1", Name: "Front Counter"},
		pos.Terminal{ID: "term-2", Name: "Drive-Through"},
	)

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/api/v1/products", func(w http.ResponseWriter, req *http.Request) {
		products, err := mem.ListActiveProducts(req.Context(), backend.ProductFilter{
			Search:   req.URL.Query().Get("search"),
			Category: req.URL.Query().Get("category"),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		rows := make([]map[string]any, 0, len(products))
		for _, p := range products {
			var rate any = 0.15
			if p.GctExempt {
				rate = "exempt"
			}
			rows = append(rows, map[string]any{
				"id":        p.ID,
				"name":      p.Name,
				"sku":       p.SKU,
				"unitPrice": p.UnitPrice,
				"quantity":  p.Quantity,
				"category":  p.Category,
				"unit":      p.UomCode,
				"gctRate":   rate,
			})
		}
		common.JSONData(w, http.StatusOK, rows)
	})

	r.Get("/api/v1/customers", func(w http.ResponseWriter, req *http.Request) {
		customers, err := mem.ListCustomers(req.Context(), backend.CustomerFilter{
			Search: req.URL.Query().Get("search"),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		common.JSONData(w, http.StatusOK, customers)
	})

	r.Get("/api/v1/settings/pos", func(w http.ResponseWriter, req *http.Request) {
		settings, err := mem.GetPosSettings(req.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		common.JSONData(w, http.StatusOK, map[string]any{
			"gctRate":               float64(settings.GctRateBps) / 10000,
			"requireOpenSession":    settings.RequireOpenSession,
			"businessName":          settings.BusinessName,
			"businessAddress":       settings.BusinessAddress,
			"businessPhone":         settings.BusinessPhone,
			"businessTRN":           settings.BusinessTRN,
			"gctRegistrationNumber": settings.GctRegistrationNumber,
			"receiptFooter":         settings.ReceiptFooter,
			"showLogo":              settings.ShowLogo,
			"businessLogo":          settings.BusinessLogo,
		})
	})

	r.Get("/api/v1/pos-terminals", func(w http.ResponseWriter, req *http.Request) {
		terminals, err := mem.ListTerminals(req.Context(), backend.TerminalFilter{ActiveOnly: true})
		if err != nil {
			writeError(w, err)
			return
		}
		common.JSONData(w, http.StatusOK, terminals)
	})

	r.Get("/api/v1/pos-sessions", func(w http.ResponseWriter, req *http.Request) {
		sessions, err := mem.ListOpenSessions(req.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		common.JSONData(w, http.StatusOK, sessions)
	})

	r.Post("/api/v1/pos-sessions", func(w http.ResponseWriter, req *http.Request) {
		var in backend.CreateSessionInput
		if !decode(w, req, &in) {
			return
		}
		session, err := mem.CreateSession(req.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		common.JSONData(w, http.StatusCreated, session)
	})

	r.Post("/api/v1/orders", func(w http.ResponseWriter, req *http.Request) {
		var in backend.CreateOrderInput
		if !decode(w, req, &in) {
			return
		}
		order, err := mem.CreateOrder(req.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		common.JSONData(w, http.StatusCreated, order)
	})

	r.Post("/api/v1/payments", func(w http.ResponseWriter, req *http.Request) {
		var in backend.AddPaymentInput
		if !decode(w, req, &in) {
			return
		}
		payment, err := mem.AddPayment(req.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		common.JSONData(w, http.StatusCreated, payment)
	})

	r.Post("/api/v1/orders/{id}/hold", func(w http.ResponseWriter, req *http.Request) {
		var in backend.HoldOrderInput
		if !decode(w, req, &in) {
			return
		}
		in.ID = chi.URLParam(req, "id")
		order, err := mem.HoldOrder(req.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		common.JSONData(w, http.StatusOK, order)
	})

	logger.Info().Str("addr", *addr).Msg("dev backend listening")
	if err := http.ListenAndServe(*addr, r); err != nil {
		logger.Fatal().Err(err).Msg("dev backend exited")
	}
}

func decode(w http.ResponseWriter, req *http.Request, dst any) bool {
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "invalid request body", nil)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, backend.ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, err.Error(), nil)
		return
	}
	common.JSONError(w, http.StatusUnprocessableEntity, common.CodeInvalidInput, err.Error(), nil)
}
