// README: Decides which rate source prices each night of a unit.
package pricing

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"stayprice/internal/modules/rates"
	"stayprice/internal/types"
)

// RateSource is the read boundary the engine prices from. rates.Store and rates.Cache
// both implement it.
type RateSource interface {
	DefaultRate(ctx context.Context, unitID types.ID) (rates.UnitDefaultRate, bool, error)
	EnabledRatePlan(ctx context.Context, unitID types.ID, seg rates.Segment) (rates.RatePlan, int, error)
	CoveringRateTable(ctx context.Context, planID types.ID, kind rates.RateType, d civil.Date) (rates.RateTable, int, error)
	RateTablesInRange(ctx context.Context, planID types.ID, from, to civil.Date) ([]rates.RateTable, error)
}

// Resolver applies the fallback order: dynamic table, standard table, default rate, none.
// Exactly one source prices a night.
type Resolver struct {
	src RateSource
	log *zap.Logger
}

func NewResolver(src RateSource, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{src: src, log: log}
}

func (r *Resolver) plan(ctx context.Context, unitID types.ID, seg rates.Segment) (rates.RatePlan, bool, error) {
	plan, n, err := r.src.EnabledRatePlan(ctx, unitID, seg)
	if err != nil {
		return rates.RatePlan{}, false, fmt.Errorf("enabled rate plan: %w", err)
	}
	if n > 1 {
		r.log.Warn("multiple enabled rate plans match segment",
			zap.String("unit_id", unitID.String()),
			zap.String("segment", seg.Effective().String()),
			zap.String("rate_plan_id", plan.ID.String()),
			zap.Int("matches", n),
		)
	}
	return plan, n > 0, nil
}

func (r *Resolver) defaultSource(ctx context.Context, unitID types.ID) (Source, error) {
	d, ok, err := r.src.DefaultRate(ctx, unitID)
	if err != nil {
		return Source{}, fmt.Errorf("default rate: %w", err)
	}
	if !ok {
		return Source{Kind: SourceNone}, nil
	}
	return sourceFromDefault(d), nil
}

// ResolveNight resolves a single date with one covering-table lookup per type.
func (r *Resolver) ResolveNight(ctx context.Context, unitID types.ID, seg rates.Segment, d civil.Date) (Source, error) {
	plan, ok, err := r.plan(ctx, unitID, seg)
	if err != nil {
		return Source{}, err
	}
	if ok {
		for _, kind := range []rates.RateType{rates.RateDynamic, rates.RateStandard} {
			t, n, err := r.src.CoveringRateTable(ctx, plan.ID, kind, d)
			if err != nil {
				return Source{}, fmt.Errorf("covering %s table: %w", kind, err)
			}
			if n == 0 {
				continue
			}
			r.warnOverlap(unitID, plan.ID, kind, d, n)
			return sourceFromTable(t), nil
		}
	}
	return r.defaultSource(ctx, unitID)
}

// ResolveStay resolves every night of [checkin, checkout) from one range query. The
// result is aligned with types.StayDates and matches ResolveNight date by date.
func (r *Resolver) ResolveStay(ctx context.Context, unitID types.ID, seg rates.Segment, checkin, checkout civil.Date) ([]Source, error) {
	dates := types.StayDates(checkin, checkout)
	if len(dates) == 0 {
		return nil, nil
	}
	out := make([]Source, len(dates))

	plan, ok, err := r.plan(ctx, unitID, seg)
	if err != nil {
		return nil, err
	}
	var ix *rates.Index
	if ok {
		tables, err := r.src.RateTablesInRange(ctx, plan.ID, checkin, checkout)
		if err != nil {
			return nil, fmt.Errorf("rate tables in range: %w", err)
		}
		ix = rates.NewIndex(tables)
	}

	missing := false
	for i, d := range dates {
		if ix != nil {
			if t, found := r.covering(ix, unitID, plan.ID, d); found {
				out[i] = sourceFromTable(t)
				continue
			}
		}
		missing = true
		out[i] = Source{Kind: SourceNone}
	}
	if !missing {
		return out, nil
	}

	def, err := r.defaultSource(ctx, unitID)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Kind == SourceNone {
			out[i] = def
		}
	}
	return out, nil
}

func (r *Resolver) covering(ix *rates.Index, unitID, planID types.ID, d civil.Date) (rates.RateTable, bool) {
	for _, kind := range []rates.RateType{rates.RateDynamic, rates.RateStandard} {
		t, n := ix.Covering(planID, kind, d)
		if n == 0 {
			continue
		}
		r.warnOverlap(unitID, planID, kind, d, n)
		return t, true
	}
	return rates.RateTable{}, false
}

func (r *Resolver) warnOverlap(unitID, planID types.ID, kind rates.RateType, d civil.Date, n int) {
	if n <= 1 {
		return
	}
	r.log.Warn("overlapping rate tables cover one night",
		zap.String("unit_id", unitID.String()),
		zap.String("rate_plan_id", planID.String()),
		zap.String("type", string(kind)),
		zap.String("date", d.String()),
		zap.Int("matches", n),
	)
}
