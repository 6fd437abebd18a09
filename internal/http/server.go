// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stayprice/internal/http/handlers"
	"stayprice/internal/http/middleware"
	"stayprice/internal/modules/pricing"
)

type ServerDeps struct {
	Pricing *pricing.Service
	Rates   handlers.RateTableLister
	Logger  *zap.Logger
}

type Server struct {
	pricing *pricing.Service
	rates   handlers.RateTableLister
	log     *zap.Logger
}

func NewServer(deps ServerDeps) *Server {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		pricing: deps.Pricing,
		rates:   deps.Rates,
		log:     log,
	}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(s.log), middleware.Recovery(s.log))

	quoteHandler := handlers.NewQuoteHandler(s.pricing)
	r.POST("/api/quotes", quoteHandler.Create)
	r.GET("/api/units/:id/nightly-rate", quoteHandler.NightlyRate)

	rateHandler := handlers.NewRateHandler(s.rates)
	r.GET("/api/rate-plans/:id/tables", rateHandler.ListTables)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	return r
}
