// README: Handler tests for quotes, nightly rates and rate table listing.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"stayprice/internal/config"
	"stayprice/internal/http/handlers"
	"stayprice/internal/modules/pricing"
	"stayprice/internal/modules/rates"
	"stayprice/internal/types"
)

// stubSource is a test double for pricing.RateSource and handlers.RateTableLister.
type stubSource struct {
	defaults map[types.ID]rates.UnitDefaultRate
	plans    []rates.RatePlan
	tables   []rates.RateTable
	err      error
}

func (s *stubSource) DefaultRate(_ context.Context, unitID types.ID) (rates.UnitDefaultRate, bool, error) {
	d, ok := s.defaults[unitID]
	return d, ok, s.err
}

func (s *stubSource) EnabledRatePlan(_ context.Context, unitID types.ID, seg rates.Segment) (rates.RatePlan, int, error) {
	var plans []rates.RatePlan
	for _, p := range s.plans {
		if p.UnitID == unitID {
			plans = append(plans, p)
		}
	}
	p, n := rates.MatchPlan(plans, seg)
	return p, n, s.err
}

func (s *stubSource) CoveringRateTable(_ context.Context, planID types.ID, kind rates.RateType, d civil.Date) (rates.RateTable, int, error) {
	t, n := rates.NewIndex(s.tables).Covering(planID, kind, d)
	return t, n, s.err
}

func (s *stubSource) RateTablesInRange(_ context.Context, planID types.ID, from, to civil.Date) ([]rates.RateTable, error) {
	f := rates.NewTableFilter(planID).Overlapping(from, to)
	var out []rates.RateTable
	for _, t := range s.tables {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out, s.err
}

func (s *stubSource) ListRateTables(_ context.Context, planID types.ID) ([]rates.RateTable, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []rates.RateTable
	for _, t := range s.tables {
		if t.RatePlanID == planID {
			out = append(out, t)
		}
	}
	return out, nil
}

func newStubSource() *stubSource {
	return &stubSource{
		defaults: map[types.ID]rates.UnitDefaultRate{
			"U1": {
				ID: "def", UnitID: "U1", Nightly: decimal.NewFromInt(100), MinStay: 1,
				Fees: []rates.GuestFeeTier{{
					GuestType:  rates.GuestChild,
					Bucket:     &rates.AgeBucket{From: 0, To: 12},
					GuestCount: 1,
					AmountType: rates.AmountFlat,
					Value:      decimal.NewFromInt(20),
				}},
			},
		},
		plans: []rates.RatePlan{{ID: "p1", UnitID: "U2", Enabled: true}},
		tables: []rates.RateTable{
			{
				ID: "late", RatePlanID: "p1",
				Start: civil.Date{Year: 2026, Month: time.July, Day: 1}, End: civil.Date{Year: 2026, Month: time.July, Day: 31},
				Terms: rates.StandardTerms{Nightly: decimal.NewFromInt(140), MinStay: 3},
			},
			{
				ID: "early", RatePlanID: "p1",
				Start: civil.Date{Year: 2026, Month: time.June, Day: 1}, End: civil.Date{Year: 2026, Month: time.June, Day: 30},
				Terms: rates.StandardTerms{Nightly: decimal.NewFromInt(130), MinStay: 2},
			},
		},
	}
}

// buildTestRouter wires a minimal Gin engine with the quote and rate handlers.
func buildTestRouter(src *stubSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := pricing.NewService(src, config.DefaultPricing(), nil)
	r := gin.New()
	qh := handlers.NewQuoteHandler(svc)
	r.POST("/api/quotes", qh.Create)
	r.GET("/api/units/:id/nightly-rate", qh.NightlyRate)
	rh := handlers.NewRateHandler(src)
	r.GET("/api/rate-plans/:id/tables", rh.ListTables)
	return r
}

func doRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type quoteBody struct {
	Checkin  string `json:"checkin"`
	Checkout string `json:"checkout"`
	Nights   int    `json:"nights"`
	Units    []struct {
		UnitID             string            `json:"unit_id"`
		NightlyPriceByDate map[string]string `json:"nightly_price_by_date"`
		TotalPrice         string            `json:"total_price"`
		AveragePrice       string            `json:"average_price"`
		MinStay            *int              `json:"min_stay"`
		Degraded           bool              `json:"degraded"`
		Nights             []struct {
			Source   string `json:"source"`
			ChildFee string `json:"child_fee"`
		} `json:"nights"`
	} `json:"units"`
}

func TestCreateQuote_DefaultRate(t *testing.T) {
	r := buildTestRouter(newStubSource())
	w := doRequest(r, http.MethodPost, "/api/quotes", map[string]any{
		"checkin":  "2026-06-01",
		"checkout": "2026-06-03",
		"guests":   map[string]any{"adults": 1, "children": []map[string]int{{"age": 8, "quantity": 1}}},
		"units":    []map[string]any{{"id": "U1"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body quoteBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Nights != 2 || len(body.Units) != 1 {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	u := body.Units[0]
	if u.TotalPrice != "240.00" || u.AveragePrice != "120.00" {
		t.Fatalf("expected 240.00 / 120.00, got %s / %s", u.TotalPrice, u.AveragePrice)
	}
	if u.NightlyPriceByDate["2026-06-01"] != "120.00" || u.NightlyPriceByDate["2026-06-02"] != "120.00" {
		t.Fatalf("unexpected nightly prices %v", u.NightlyPriceByDate)
	}
	if len(u.Nights) != 2 || u.Nights[0].Source != "default" || u.Nights[0].ChildFee != "20.00" {
		t.Fatalf("unexpected breakdown %+v", u.Nights)
	}
	if u.MinStay == nil || *u.MinStay != 1 {
		t.Fatalf("expected min_stay 1, got %v", u.MinStay)
	}
}

func TestCreateQuote_BadRequests(t *testing.T) {
	r := buildTestRouter(newStubSource())
	cases := []struct {
		name string
		body any
	}{
		{"not json", "nope"},
		{"missing checkin", map[string]any{"checkout": "2026-06-03", "units": []map[string]any{{"id": "U1"}}}},
		{"unparseable date", map[string]any{"checkin": "2026-13-01", "checkout": "2026-06-03", "guests": map[string]any{"adults": 1}, "units": []map[string]any{{"id": "U1"}}}},
		{"checkout before checkin", map[string]any{"checkin": "2026-06-03", "checkout": "2026-06-01", "guests": map[string]any{"adults": 1}, "units": []map[string]any{{"id": "U1"}}}},
		{"no guests", map[string]any{"checkin": "2026-06-01", "checkout": "2026-06-03", "units": []map[string]any{{"id": "U1"}}}},
		{"bad unit id", map[string]any{"checkin": "2026-06-01", "checkout": "2026-06-03", "guests": map[string]any{"adults": 1}, "units": []map[string]any{{"id": "U1;drop"}}}},
		{"empty units", map[string]any{"checkin": "2026-06-01", "checkout": "2026-06-03", "guests": map[string]any{"adults": 1}, "units": []map[string]any{}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/api/quotes", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateQuote_DegradedUnitStillReturns200(t *testing.T) {
	src := newStubSource()
	src.err = errors.New("db down")
	r := buildTestRouter(src)
	w := doRequest(r, http.MethodPost, "/api/quotes", map[string]any{
		"checkin":  "2026-06-01",
		"checkout": "2026-06-02",
		"guests":   map[string]any{"adults": 2},
		"units":    []map[string]any{{"id": "U1"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body quoteBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Units[0].Degraded || body.Units[0].TotalPrice != "0.00" {
		t.Fatalf("expected degraded zero unit, got %+v", body.Units[0])
	}
}

func TestNightlyRate(t *testing.T) {
	r := buildTestRouter(newStubSource())

	w := doRequest(r, http.MethodGet, "/api/units/U2/nightly-rate?date=2026-06-15&adults=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Night struct {
			Source   string `json:"source"`
			SourceID string `json:"source_id"`
			Total    string `json:"total"`
		} `json:"night"`
		MinStay *int `json:"min_stay"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Night.Source != "standard" || body.Night.SourceID != "early" || body.Night.Total != "130.00" {
		t.Fatalf("unexpected night %+v", body.Night)
	}
	if body.MinStay == nil || *body.MinStay != 2 {
		t.Fatalf("expected min_stay 2, got %v", body.MinStay)
	}

	w = doRequest(r, http.MethodGet, "/api/units/U1/nightly-rate?date=2026-06-15&child_age=8&child_age=4", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// One adult absorbed, two children in the [0,12] bucket pay 20 each.
	if body.Night.Total != "140.00" {
		t.Fatalf("expected 140.00, got %s", body.Night.Total)
	}

	for _, path := range []string{
		"/api/units/U1/nightly-rate",
		"/api/units/U1/nightly-rate?date=June",
		"/api/units/U1/nightly-rate?date=2026-06-15&occupancy=high",
		"/api/units/U1/nightly-rate?date=2026-06-15&adults=0",
	} {
		if w := doRequest(r, http.MethodGet, path, nil); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestListTables(t *testing.T) {
	r := buildTestRouter(newStubSource())
	w := doRequest(r, http.MethodGet, "/api/rate-plans/p1/tables", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Tables []struct {
			ID      string `json:"id"`
			Type    string `json:"type"`
			Nightly string `json:"nightly"`
		} `json:"tables"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Tables) != 2 || body.Tables[0].ID != "early" || body.Tables[0].Nightly != "130.00" {
		t.Fatalf("expected tables sorted by start date, got %+v", body.Tables)
	}
}

func TestListTables_NotFoundMapsTo404(t *testing.T) {
	src := newStubSource()
	src.err = rates.ErrNotFound
	r := buildTestRouter(src)
	if w := doRequest(r, http.MethodGet, "/api/rate-plans/p1/tables", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	src.err = errors.New("boom")
	if w := doRequest(r, http.MethodGet, "/api/rate-plans/p1/tables", nil); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
