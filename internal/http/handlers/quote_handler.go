// README: Quote handlers for stay pricing and single-night lookups.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stayprice/internal/modules/pricing"
	"stayprice/internal/modules/rates"
	"stayprice/internal/types"
)

type QuoteHandler struct {
	pricing *pricing.Service
}

func NewQuoteHandler(svc *pricing.Service) *QuoteHandler {
	return &QuoteHandler{pricing: svc}
}

func (h *QuoteHandler) Create(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	checkin, ok := parseDate(req.Checkin)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid checkin date")
		return
	}
	checkout, ok := parseDate(req.Checkout)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid checkout date")
		return
	}

	stay := pricing.StayRequest{
		Checkin:  checkin,
		Checkout: checkout,
		Guests:   req.Guests.model(),
		Segment: rates.Segment{
			SegmentID:    types.ID(req.SegmentID),
			SubSegmentID: types.ID(req.SubSegmentID),
		},
		GlobalOccupancy: req.GlobalOccupancy,
	}
	for _, u := range req.Units {
		if !isValidID(u.ID) {
			writeError(c, http.StatusBadRequest, "invalid unit id")
			return
		}
		stay.Units = append(stay.Units, pricing.UnitRequest{UnitID: types.ID(u.ID), Occupancy: u.Occupancy})
	}

	q, err := h.pricing.PriceStay(c.Request.Context(), stay)
	if err != nil {
		writePricingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, quoteRespOf(q))
}

// NightlyRate prices one night: GET /api/units/:id/nightly-rate?date=2026-06-01&adults=2&child_age=8
func (h *QuoteHandler) NightlyRate(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid unit id")
		return
	}
	var q nightlyRateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "invalid query")
		return
	}
	d, ok := parseDate(q.Date)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid date")
		return
	}
	unitOcc, ok := parseOptionalDecimal(q.Occupancy)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid occupancy")
		return
	}
	globalOcc, ok := parseOptionalDecimal(q.GlobalOccupancy)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid global_occupancy")
		return
	}

	guests := pricing.Guests{Adults: q.Adults}
	for _, age := range q.ChildAges {
		guests.Children = append(guests.Children, pricing.ChildGroup{Age: age, Quantity: 1})
	}
	night, src, err := h.pricing.NightlyRate(c.Request.Context(), pricing.NightRequest{
		UnitID: types.ID(id),
		Date:   d,
		Guests: guests,
		Segment: rates.Segment{
			SegmentID:    types.ID(q.SegmentID),
			SubSegmentID: types.ID(q.SubSegmentID),
		},
		Occupancy:       unitOcc,
		GlobalOccupancy: globalOcc,
	})
	if err != nil {
		writePricingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nightlyRateResp{
		UnitID:  id,
		Night:   nightRespOf(night),
		MinStay: src.MinStay,
		MaxStay: src.MaxStay,
	})
}
