// README: Pricing service prices stays per unit and night.
package pricing

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stayprice/internal/config"
	"stayprice/internal/modules/rates"
	"stayprice/internal/types"
)

type Service struct {
	resolver *Resolver
	cfg      config.PricingConfig
	log      *zap.Logger
}

func NewService(src RateSource, cfg config.PricingConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.UnitWorkers <= 0 {
		cfg.UnitWorkers = 1
	}
	return &Service{resolver: NewResolver(src, log), cfg: cfg, log: log}
}

// PriceStay prices every requested unit. A malformed request is rejected as a whole with
// ErrBadRequest. A unit that fails to price is returned zeroed and marked Degraded while
// the other units are priced normally.
func (s *Service) PriceStay(ctx context.Context, req StayRequest) (Quote, error) {
	if err := s.validateStay(req); err != nil {
		return Quote{}, err
	}
	dates := types.StayDates(req.Checkin, req.Checkout)
	q := Quote{
		Checkin:  req.Checkin,
		Checkout: req.Checkout,
		Nights:   len(dates),
		Units:    make([]UnitResult, len(req.Units)),
	}

	var g errgroup.Group
	g.SetLimit(s.cfg.UnitWorkers)
	for i, unit := range req.Units {
		i, unit := i, unit
		g.Go(func() error {
			res, err := s.priceUnit(ctx, req, unit, dates)
			if err != nil {
				s.log.Error("unit pricing failed; returning zero result",
					zap.String("unit_id", unit.UnitID.String()),
					zap.String("checkin", req.Checkin.String()),
					zap.String("checkout", req.Checkout.String()),
					zap.Error(err),
				)
				res = degradedResult(unit.UnitID, dates)
			}
			q.Units[i] = res
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}
	return q, nil
}

func (s *Service) priceUnit(ctx context.Context, req StayRequest, unit UnitRequest, dates []civil.Date) (res UnitResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while pricing unit %s: %v", unit.UnitID, r)
		}
	}()

	sources, err := s.resolver.ResolveStay(ctx, unit.UnitID, req.Segment, req.Checkin, req.Checkout)
	if err != nil {
		return UnitResult{}, err
	}

	res = UnitResult{
		UnitID:             unit.UnitID,
		Nights:             make([]NightPrice, 0, len(dates)),
		NightlyPriceByDate: make(map[civil.Date]decimal.Decimal, len(dates)),
		TotalPrice:         decimal.Zero,
		AveragePrice:       decimal.Zero,
	}
	for i, d := range dates {
		night := s.priceNight(unit.UnitID, d, sources[i], req.Guests, unit.Occupancy, req.GlobalOccupancy)
		res.Nights = append(res.Nights, night)
		res.NightlyPriceByDate[d] = night.Total
		res.TotalPrice = res.TotalPrice.Add(night.Total)
	}
	if len(dates) > 0 {
		res.AveragePrice = types.RoundMoney(res.TotalPrice.Div(decimal.NewFromInt(int64(len(dates)))))
		res.MinStay, res.MaxStay = sources[0].MinStay, sources[0].MaxStay
	}
	return res, nil
}

func (s *Service) priceNight(unitID types.ID, d civil.Date, src Source, g Guests, unitOcc, globalOcc *decimal.Decimal) NightPrice {
	night := NightPrice{
		Date:     d,
		Source:   src.Kind,
		SourceID: src.ID,
		Base:     decimal.Zero,
		AdultFee: decimal.Zero,
		ChildFee: decimal.Zero,
		Total:    decimal.Zero,
	}
	if !src.Priced() {
		return night
	}
	base, overrides := nightBase(src, d, occupancyFor(src, unitOcc, globalOcc))
	if overrides > 1 {
		s.log.Warn("multiple day overrides match one night",
			zap.String("unit_id", unitID.String()),
			zap.String("date", d.String()),
			zap.String("source_id", src.ID.String()),
			zap.Int("matches", overrides),
		)
	}
	fees := GuestFee(base, g, src.Fees)
	night.Base = base
	night.AdultFee = fees.Adult
	night.ChildFee = fees.Child
	night.Total = base.Add(fees.Total())
	return night
}

func degradedResult(unitID types.ID, dates []civil.Date) UnitResult {
	res := UnitResult{
		UnitID:             unitID,
		Nights:             make([]NightPrice, 0, len(dates)),
		NightlyPriceByDate: make(map[civil.Date]decimal.Decimal, len(dates)),
		TotalPrice:         decimal.Zero,
		AveragePrice:       decimal.Zero,
		Degraded:           true,
	}
	for _, d := range dates {
		res.Nights = append(res.Nights, NightPrice{
			Date: d, Source: SourceNone,
			Base: decimal.Zero, AdultFee: decimal.Zero, ChildFee: decimal.Zero, Total: decimal.Zero,
		})
		res.NightlyPriceByDate[d] = decimal.Zero
	}
	return res
}

// NightlyRate resolves and prices a single night through the per-date lookup path.
func (s *Service) NightlyRate(ctx context.Context, req NightRequest) (NightPrice, Source, error) {
	if req.UnitID.IsZero() {
		return NightPrice{}, Source{}, fmt.Errorf("%w: unit id is required", ErrBadRequest)
	}
	if err := validateGuests(req.Guests); err != nil {
		return NightPrice{}, Source{}, err
	}
	src, err := s.resolver.ResolveNight(ctx, req.UnitID, req.Segment, req.Date)
	if err != nil {
		return NightPrice{}, Source{}, err
	}
	return s.priceNight(req.UnitID, req.Date, src, req.Guests, req.Occupancy, req.GlobalOccupancy), src, nil
}

func (s *Service) validateStay(req StayRequest) error {
	nights := types.Nights(req.Checkin, req.Checkout)
	switch {
	case !req.Checkin.IsValid() || !req.Checkout.IsValid():
		return fmt.Errorf("%w: invalid stay dates", ErrBadRequest)
	case nights < 0:
		return fmt.Errorf("%w: checkout %s is before checkin %s", ErrBadRequest, req.Checkout, req.Checkin)
	case s.cfg.MaxNights > 0 && nights > s.cfg.MaxNights:
		return fmt.Errorf("%w: %d nights exceeds the limit of %d", ErrBadRequest, nights, s.cfg.MaxNights)
	case len(req.Units) == 0:
		return fmt.Errorf("%w: at least one unit is required", ErrBadRequest)
	case s.cfg.MaxUnits > 0 && len(req.Units) > s.cfg.MaxUnits:
		return fmt.Errorf("%w: %d units exceeds the limit of %d", ErrBadRequest, len(req.Units), s.cfg.MaxUnits)
	}
	seen := make(map[types.ID]bool, len(req.Units))
	for _, u := range req.Units {
		if u.UnitID.IsZero() {
			return fmt.Errorf("%w: unit id is required", ErrBadRequest)
		}
		if seen[u.UnitID] {
			return fmt.Errorf("%w: unit %s listed twice", ErrBadRequest, u.UnitID)
		}
		seen[u.UnitID] = true
	}
	return validateGuests(req.Guests)
}

func validateGuests(g Guests) error {
	if g.Adults < 0 {
		return fmt.Errorf("%w: negative adult count", ErrBadRequest)
	}
	for _, c := range g.Children {
		if c.Age < 0 {
			return fmt.Errorf("%w: negative child age", ErrBadRequest)
		}
		if c.Quantity < 1 {
			return fmt.Errorf("%w: child quantity must be at least 1", ErrBadRequest)
		}
	}
	if g.Total() == 0 {
		return fmt.Errorf("%w: at least one guest is required", ErrBadRequest)
	}
	return nil
}

var _ RateSource = (*rates.Store)(nil)
var _ RateSource = (*rates.Cache)(nil)
