// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stayprice/internal/modules/pricing"
	"stayprice/internal/modules/rates"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts the generated 32-char hex IDs as well as caller-chosen slugs.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writePricingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pricing.ErrBadRequest), errors.Is(err, rates.ErrInvalid):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, rates.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, rates.ErrOverlap), errors.Is(err, rates.ErrSegmentTaken):
		writeError(c, http.StatusConflict, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
