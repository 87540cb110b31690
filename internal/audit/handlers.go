package audit

import (
	"net/http"

	"github.com/Mani87-nq/yardbooks-pos/internal/common"
)

// Handler exposes the audit trail over HTTP.
type Handler struct {
	Trail *Trail
}

// List returns recent register activity, newest first.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Trail == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "audit trail not configured", nil)
		return
	}
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	entries, err := h.Trail.List(r.Context(), int64(limit))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to read audit trail", nil)
		return
	}
	common.JSONData(w, http.StatusOK, entries)
}
