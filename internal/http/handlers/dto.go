// README: JSON request/response shapes of the pricing API. Money is rendered with two decimals.
package handlers

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"stayprice/internal/modules/pricing"
	"stayprice/internal/modules/rates"
	"stayprice/internal/types"
)

type childReq struct {
	Age      int `json:"age"`
	Quantity int `json:"quantity"`
}

type guestsReq struct {
	Adults   int        `json:"adults"`
	Children []childReq `json:"children"`
}

func (g guestsReq) model() pricing.Guests {
	out := pricing.Guests{Adults: g.Adults}
	for _, c := range g.Children {
		out.Children = append(out.Children, pricing.ChildGroup{Age: c.Age, Quantity: c.Quantity})
	}
	return out
}

type unitReq struct {
	ID        string           `json:"id" binding:"required"`
	Occupancy *decimal.Decimal `json:"occupancy"`
}

type quoteReq struct {
	Checkin         string           `json:"checkin" binding:"required"`
	Checkout        string           `json:"checkout" binding:"required"`
	Guests          guestsReq        `json:"guests"`
	SegmentID       string           `json:"segment_id"`
	SubSegmentID    string           `json:"sub_segment_id"`
	Units           []unitReq        `json:"units" binding:"required,dive"`
	GlobalOccupancy *decimal.Decimal `json:"global_occupancy"`
}

type nightResp struct {
	Date     string `json:"date"`
	Source   string `json:"source"`
	SourceID string `json:"source_id,omitempty"`
	Base     string `json:"base"`
	AdultFee string `json:"adult_fee"`
	ChildFee string `json:"child_fee"`
	Total    string `json:"total"`
}

func nightRespOf(n pricing.NightPrice) nightResp {
	return nightResp{
		Date:     n.Date.String(),
		Source:   string(n.Source),
		SourceID: n.SourceID.String(),
		Base:     types.FormatMoney(n.Base),
		AdultFee: types.FormatMoney(n.AdultFee),
		ChildFee: types.FormatMoney(n.ChildFee),
		Total:    types.FormatMoney(n.Total),
	}
}

type unitResp struct {
	UnitID             string            `json:"unit_id"`
	NightlyPriceByDate map[string]string `json:"nightly_price_by_date"`
	Nights             []nightResp       `json:"nights"`
	TotalPrice         string            `json:"total_price"`
	AveragePrice       string            `json:"average_price"`
	MinStay            *int              `json:"min_stay,omitempty"`
	MaxStay            *int              `json:"max_stay,omitempty"`
	Degraded           bool              `json:"degraded"`
}

type quoteResp struct {
	Checkin  string     `json:"checkin"`
	Checkout string     `json:"checkout"`
	Nights   int        `json:"nights"`
	Units    []unitResp `json:"units"`
}

func quoteRespOf(q pricing.Quote) quoteResp {
	resp := quoteResp{
		Checkin:  q.Checkin.String(),
		Checkout: q.Checkout.String(),
		Nights:   q.Nights,
		Units:    make([]unitResp, 0, len(q.Units)),
	}
	for _, u := range q.Units {
		ur := unitResp{
			UnitID:             u.UnitID.String(),
			NightlyPriceByDate: make(map[string]string, len(u.NightlyPriceByDate)),
			Nights:             make([]nightResp, 0, len(u.Nights)),
			TotalPrice:         types.FormatMoney(u.TotalPrice),
			AveragePrice:       types.FormatMoney(u.AveragePrice),
			MinStay:            u.MinStay,
			MaxStay:            u.MaxStay,
			Degraded:           u.Degraded,
		}
		for d, p := range u.NightlyPriceByDate {
			ur.NightlyPriceByDate[d.String()] = types.FormatMoney(p)
		}
		for _, n := range u.Nights {
			ur.Nights = append(ur.Nights, nightRespOf(n))
		}
		resp.Units = append(resp.Units, ur)
	}
	return resp
}

type nightlyRateQuery struct {
	Date            string `form:"date" binding:"required"`
	Adults          int    `form:"adults,default=1"`
	ChildAges       []int  `form:"child_age"`
	SegmentID       string `form:"segment_id"`
	SubSegmentID    string `form:"sub_segment_id"`
	Occupancy       string `form:"occupancy"`
	GlobalOccupancy string `form:"global_occupancy"`
}

type nightlyRateResp struct {
	UnitID string    `json:"unit_id"`
	Night  nightResp `json:"night"`
	// Stay limits of the source, when it has any.
	MinStay *int `json:"min_stay,omitempty"`
	MaxStay *int `json:"max_stay,omitempty"`
}

type overrideResp struct {
	Nightly string   `json:"nightly"`
	Days    []string `json:"days"`
}

type feeResp struct {
	GuestType  string `json:"guest_type"`
	FromAge    *int   `json:"from_age,omitempty"`
	ToAge      *int   `json:"to_age,omitempty"`
	GuestCount int    `json:"guest_count"`
	AmountType string `json:"amount_type"`
	Value      string `json:"value"`
}

type rateTableResp struct {
	ID              string         `json:"id"`
	RatePlanID      string         `json:"rate_plan_id"`
	Type            string         `json:"type"`
	Start           string         `json:"start"`
	End             string         `json:"end"`
	Nightly         string         `json:"nightly,omitempty"`
	MinStay         *int           `json:"min_stay,omitempty"`
	MaxStay         *int           `json:"max_stay,omitempty"`
	LowRate         string         `json:"low_rate,omitempty"`
	MaxRate         string         `json:"max_rate,omitempty"`
	LowestOccupancy string         `json:"lowest_occupancy,omitempty"`
	MaxOccupancy    string         `json:"max_occupancy,omitempty"`
	OccupancyMode   string         `json:"occupancy_mode,omitempty"`
	Overrides       []overrideResp `json:"overrides"`
	Fees            []feeResp      `json:"fees"`
}

func rateTableRespOf(t rates.RateTable) rateTableResp {
	resp := rateTableResp{
		ID:         t.ID.String(),
		RatePlanID: t.RatePlanID.String(),
		Type:       string(t.Type()),
		Start:      t.Start.String(),
		End:        t.End.String(),
		Overrides:  []overrideResp{},
		Fees:       []feeResp{},
	}
	switch terms := t.Terms.(type) {
	case rates.StandardTerms:
		minStay := terms.MinStay
		resp.Nightly = types.FormatMoney(terms.Nightly)
		resp.MinStay, resp.MaxStay = &minStay, terms.MaxStay
	case rates.DynamicTerms:
		resp.LowRate = types.FormatMoney(terms.LowRate)
		resp.MaxRate = types.FormatMoney(terms.MaxRate)
		resp.LowestOccupancy = terms.LowestOccupancy.String()
		resp.MaxOccupancy = terms.MaxOccupancy.String()
		resp.OccupancyMode = string(terms.Mode)
	}
	for _, o := range t.Terms.DayOverrides() {
		or := overrideResp{Nightly: types.FormatMoney(o.Nightly)}
		for _, d := range o.Days {
			or.Days = append(or.Days, d.String())
		}
		resp.Overrides = append(resp.Overrides, or)
	}
	for _, f := range t.Terms.FeeTiers() {
		fr := feeResp{
			GuestType:  string(f.GuestType),
			GuestCount: f.GuestCount,
			AmountType: string(f.AmountType),
			Value:      f.Value.String(),
		}
		if f.Bucket != nil {
			from, to := f.Bucket.From, f.Bucket.To
			fr.FromAge, fr.ToAge = &from, &to
		}
		resp.Fees = append(resp.Fees, fr)
	}
	return resp
}

// parseDate reports whether s is a valid YYYY-MM-DD calendar date.
func parseDate(s string) (civil.Date, bool) {
	d, err := civil.ParseDate(s)
	if err != nil || !d.IsValid() {
		return civil.Date{}, false
	}
	return d, true
}

// parseOptionalDecimal treats an empty string as absent.
func parseOptionalDecimal(s string) (*decimal.Decimal, bool) {
	if s == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, false
	}
	return &d, true
}
