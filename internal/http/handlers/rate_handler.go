// README: Read-only rate table listing for operators.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"stayprice/internal/modules/rates"
	"stayprice/internal/types"
)

// RateTableLister is satisfied by rates.Store and rates.Cache.
type RateTableLister interface {
	ListRateTables(ctx context.Context, planID types.ID) ([]rates.RateTable, error)
}

type RateHandler struct {
	rates RateTableLister
}

func NewRateHandler(lister RateTableLister) *RateHandler {
	return &RateHandler{rates: lister}
}

// ListTables returns every table of a plan sorted by start date.
func (h *RateHandler) ListTables(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid rate plan id")
		return
	}
	tables, err := h.rates.ListRateTables(c.Request.Context(), types.ID(id))
	if err != nil {
		writePricingError(c, err)
		return
	}
	sorted := rates.NewIndex(tables).All(types.ID(id))
	out := make([]rateTableResp, 0, len(sorted))
	for _, t := range sorted {
		out = append(out, rateTableRespOf(t))
	}
	writeJSON(c, http.StatusOK, map[string]any{"rate_plan_id": id, "tables": out})
}
