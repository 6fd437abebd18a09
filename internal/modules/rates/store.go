// README: Rate store backed by PostgreSQL; read boundary for pricing plus serialized write helpers.
package rates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"stayprice/internal/types"
)

const (
	ownerDefaultRate = "default_rate"
	ownerRateTable   = "rate_table"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// DefaultRate loads the unit's default rate with its overrides and fee tiers.
func (s *Store) DefaultRate(ctx context.Context, unitID types.ID) (UnitDefaultRate, bool, error) {
	rec, ok, err := s.defaultRecord(ctx, unitID)
	if err != nil || !ok {
		return UnitDefaultRate{}, ok, err
	}
	return rec.model(), true, nil
}

func (s *Store) defaultRecord(ctx context.Context, unitID types.ID) (defaultRecord, bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, unit_id, nightly::text, min_stay, max_stay
		FROM unit_default_rates
		WHERE unit_id = $1`, string(unitID),
	)
	var (
		rec     defaultRecord
		nightly string
		maxStay sql.NullInt64
	)
	err := row.Scan(&rec.ID, &rec.UnitID, &nightly, &rec.MinStay, &maxStay)
	if errors.Is(err, pgx.ErrNoRows) {
		return defaultRecord{}, false, nil
	}
	if err != nil {
		return defaultRecord{}, false, fmt.Errorf("query default rate: %w", err)
	}
	if rec.Nightly, err = decimal.NewFromString(nightly); err != nil {
		return defaultRecord{}, false, fmt.Errorf("parse default rate nightly: %w", err)
	}
	rec.MaxStay = toIntPtr(maxStay)

	overrides, fees, err := loadExtras(ctx, s.db, ownerDefaultRate, []string{rec.ID})
	if err != nil {
		return defaultRecord{}, false, err
	}
	rec.Overrides, rec.Fees = overrides[rec.ID], fees[rec.ID]
	return rec, true, nil
}

// RatePlans lists every enabled plan of a unit ordered by ID.
func (s *Store) RatePlans(ctx context.Context, unitID types.ID) ([]RatePlan, error) {
	recs, err := s.planRecords(ctx, unitID)
	if err != nil {
		return nil, err
	}
	plans := make([]RatePlan, len(recs))
	for i, r := range recs {
		plans[i] = r.model()
	}
	return plans, nil
}

func (s *Store) planRecords(ctx context.Context, unitID types.ID) ([]planRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, unit_id, name, enabled, COALESCE(segment_id, ''), COALESCE(sub_segment_id, '')
		FROM rate_plans
		WHERE unit_id = $1 AND enabled
		ORDER BY id`, string(unitID),
	)
	if err != nil {
		return nil, fmt.Errorf("query rate plans: %w", err)
	}
	defer rows.Close()

	var out []planRecord
	for rows.Next() {
		var r planRecord
		if err := rows.Scan(&r.ID, &r.UnitID, &r.Name, &r.Enabled, &r.SegmentID, &r.SubSegmentID); err != nil {
			return nil, fmt.Errorf("scan rate plan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EnabledRatePlan returns the plan selected by segment precedence and the number of
// plans that matched (zero when none applies).
func (s *Store) EnabledRatePlan(ctx context.Context, unitID types.ID, seg Segment) (RatePlan, int, error) {
	plans, err := s.RatePlans(ctx, unitID)
	if err != nil {
		return RatePlan{}, 0, err
	}
	plan, n := MatchPlan(plans, seg)
	return plan, n, nil
}

// CoveringRateTable returns the earliest-starting table of the given type covering d
// and how many tables cover it.
func (s *Store) CoveringRateTable(ctx context.Context, planID types.ID, kind RateType, d civil.Date) (RateTable, int, error) {
	tables, err := s.Tables(ctx, NewTableFilter(planID).OfType(kind).Covering(d))
	if err != nil || len(tables) == 0 {
		return RateTable{}, 0, err
	}
	return tables[0], len(tables), nil
}

// RateTablesInRange returns every table of the plan pricing a night of [from, to), by start date.
func (s *Store) RateTablesInRange(ctx context.Context, planID types.ID, from, to civil.Date) ([]RateTable, error) {
	return s.Tables(ctx, NewTableFilter(planID).Overlapping(from, to))
}

// ListRateTables returns every table of the plan sorted by start date. An unknown plan
// is ErrNotFound; a known plan without tables gives an empty list.
func (s *Store) ListRateTables(ctx context.Context, planID types.ID) ([]RateTable, error) {
	tables, err := s.Tables(ctx, NewTableFilter(planID))
	if err != nil || len(tables) > 0 {
		return tables, err
	}
	return tables, requirePlan(ctx, s, planID)
}

func (s *Store) planExists(ctx context.Context, planID types.ID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rate_plans WHERE id = $1)`, string(planID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check rate plan: %w", err)
	}
	return exists, nil
}

func requirePlan(ctx context.Context, src recordSource, planID types.ID) error {
	ok, err := src.planExists(ctx, planID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: rate plan %s", ErrNotFound, planID)
	}
	return nil
}

// Tables runs a filtered rate table query.
func (s *Store) Tables(ctx context.Context, f TableFilter) ([]RateTable, error) {
	recs, err := s.tableRecords(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]RateTable, 0, len(recs))
	for _, r := range recs {
		t, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) tableRecords(ctx context.Context, f TableFilter) ([]tableRecord, error) {
	return queryTables(ctx, s.db, f)
}

func queryTables(ctx context.Context, q querier, f TableFilter) ([]tableRecord, error) {
	where, args := tableWhere(f)
	rows, err := q.Query(ctx, `
		SELECT id, rate_plan_id, rate_type, start_date, end_date,
		       nightly::text, min_stay, max_stay,
		       low_rate::text, max_rate::text, lowest_occupancy::text, max_occupancy::text,
		       COALESCE(occupancy_mode, '')
		FROM rate_tables
		WHERE `+where+`
		ORDER BY start_date, id`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query rate tables: %w", err)
	}
	defer rows.Close()

	var recs []tableRecord
	for rows.Next() {
		r, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rate tables: %w", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	overrides, fees, err := loadExtras(ctx, q, ownerRateTable, ids)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		recs[i].Overrides = overrides[recs[i].ID]
		recs[i].Fees = fees[recs[i].ID]
	}
	return recs, nil
}

// tableWhere translates a filter into SQL predicates and positional arguments.
func tableWhere(f TableFilter) (string, []any) {
	conds := []string{"rate_plan_id = $1"}
	args := []any{string(f.RatePlanID)}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Type != "" {
		conds = append(conds, "rate_type = "+next(string(f.Type)))
	}
	if d, ok := f.CoveringDate(); ok {
		p := next(dateParam(d))
		conds = append(conds, "start_date <= "+p+"::date", "end_date >= "+p+"::date")
	}
	if from, to, ok := f.StayRange(); ok {
		conds = append(conds, "start_date < "+next(dateParam(to))+"::date", "end_date >= "+next(dateParam(from))+"::date")
	}
	return strings.Join(conds, " AND "), args
}

func scanTable(rows pgx.Rows) (tableRecord, error) {
	var (
		r                  tableRecord
		kind, mode         string
		start, end         time.Time
		nightly, low, high sql.NullString
		lowest, highest    sql.NullString
		minStay, maxStay   sql.NullInt64
	)
	err := rows.Scan(&r.ID, &r.RatePlanID, &kind, &start, &end,
		&nightly, &minStay, &maxStay,
		&low, &high, &lowest, &highest,
		&mode,
	)
	if err != nil {
		return tableRecord{}, fmt.Errorf("scan rate table: %w", err)
	}
	r.Type = RateType(kind)
	r.Mode = OccupancyMode(mode)
	r.Start, r.End = civil.DateOf(start), civil.DateOf(end)
	r.MinStay, r.MaxStay = toIntPtr(minStay), toIntPtr(maxStay)
	for _, c := range []struct {
		src sql.NullString
		dst **decimal.Decimal
	}{
		{nightly, &r.Nightly}, {low, &r.LowRate}, {high, &r.MaxRate},
		{lowest, &r.LowestOccupancy}, {highest, &r.MaxOccupancy},
	} {
		if *c.dst, err = toDecimalPtr(c.src); err != nil {
			return tableRecord{}, fmt.Errorf("rate table %s: %w", r.ID, err)
		}
	}
	return r, nil
}

// loadExtras fetches day overrides and fee tiers for the given owners, keyed by owner ID.
func loadExtras(ctx context.Context, q querier, ownerType string, ownerIDs []string) (map[string][]overrideRecord, map[string][]feeRecord, error) {
	overrides := make(map[string][]overrideRecord)
	fees := make(map[string][]feeRecord)

	rows, err := q.Query(ctx, `
		SELECT owner_id, nightly::text, days
		FROM day_overrides
		WHERE owner_type = $1 AND owner_id = ANY($2)
		ORDER BY id`, ownerType, ownerIDs,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("query day overrides: %w", err)
	}
	for rows.Next() {
		var (
			owner, nightly string
			days           []int32
		)
		if err := rows.Scan(&owner, &nightly, &days); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scan day override: %w", err)
		}
		amount, err := decimal.NewFromString(nightly)
		if err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("parse day override nightly: %w", err)
		}
		rec := overrideRecord{Nightly: amount, Days: make([]int, len(days))}
		for i, d := range days {
			rec.Days[i] = int(d)
		}
		overrides[owner] = append(overrides[owner], rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate day overrides: %w", err)
	}

	rows, err = q.Query(ctx, `
		SELECT owner_id, guest_type, from_age, to_age, guest_count, amount_type, value::text
		FROM guest_fee_tiers
		WHERE owner_type = $1 AND owner_id = ANY($2)
		ORDER BY id`, ownerType, ownerIDs,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("query guest fee tiers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			owner, guestType, amountType, value string
			fromAge, toAge                      sql.NullInt64
			rec                                 feeRecord
		)
		if err := rows.Scan(&owner, &guestType, &fromAge, &toAge, &rec.GuestCount, &amountType, &value); err != nil {
			return nil, nil, fmt.Errorf("scan guest fee tier: %w", err)
		}
		if rec.Value, err = decimal.NewFromString(value); err != nil {
			return nil, nil, fmt.Errorf("parse guest fee value: %w", err)
		}
		rec.GuestType, rec.AmountType = GuestType(guestType), AmountType(amountType)
		rec.FromAge, rec.ToAge = toIntPtr(fromAge), toIntPtr(toAge)
		fees[owner] = append(fees[owner], rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate guest fee tiers: %w", err)
	}
	return overrides, fees, nil
}

// CreateDefaultRate stores a unit's default rate. A unit has at most one.
func (s *Store) CreateDefaultRate(ctx context.Context, r UnitDefaultRate) (types.ID, error) {
	if err := ValidateDefaultRate(r); err != nil {
		return "", err
	}
	if r.ID.IsZero() {
		r.ID = newID()
	}
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO unit_default_rates (id, unit_id, nightly, min_stay, max_stay)
			VALUES ($1, $2, $3::numeric, $4, $5)
			ON CONFLICT (unit_id) DO NOTHING`,
			string(r.ID), string(r.UnitID), r.Nightly.String(), r.MinStay, r.MaxStay,
		)
		if err != nil {
			return fmt.Errorf("insert default rate: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: unit %s already has a default rate", ErrInvalid, r.UnitID)
		}
		return insertExtras(ctx, tx, ownerDefaultRate, string(r.ID), r.Overrides, r.Fees)
	})
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

// CreateRatePlan stores a plan. Enabled plans of one unit must not share a segment pair;
// a per-unit advisory lock serializes the check with the insert.
func (s *Store) CreateRatePlan(ctx context.Context, p RatePlan) (types.ID, error) {
	if p.UnitID.IsZero() {
		return "", fmt.Errorf("%w: rate plan without unit", ErrInvalid)
	}
	if p.ID.IsZero() {
		p.ID = newID()
	}
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "rate_plans:"+string(p.UnitID)); err != nil {
			return fmt.Errorf("lock unit plans: %w", err)
		}
		if p.Enabled {
			var taken bool
			err := tx.QueryRow(ctx, `
				SELECT EXISTS (
					SELECT 1 FROM rate_plans
					WHERE unit_id = $1 AND enabled
					  AND COALESCE(segment_id, '') = $2
					  AND COALESCE(sub_segment_id, '') = $3
				)`, string(p.UnitID), string(p.SegmentID), string(p.SubSegmentID),
			).Scan(&taken)
			if err != nil {
				return fmt.Errorf("check plan segment: %w", err)
			}
			if taken {
				return ErrSegmentTaken
			}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO rate_plans (id, unit_id, name, enabled, segment_id, sub_segment_id)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`,
			string(p.ID), string(p.UnitID), p.Name, p.Enabled, string(p.SegmentID), string(p.SubSegmentID),
		)
		if err != nil {
			return fmt.Errorf("insert rate plan: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// CreateRateTable stores a table after checking it against the plan's existing tables
// of the same type. The plan row is locked so concurrent inserts cannot both pass the check.
func (s *Store) CreateRateTable(ctx context.Context, t RateTable) (types.ID, error) {
	if err := ValidateRateTable(t); err != nil {
		return "", err
	}
	if t.ID.IsZero() {
		t.ID = newID()
	}
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var planID string
		err := tx.QueryRow(ctx, `SELECT id FROM rate_plans WHERE id = $1 FOR UPDATE`, string(t.RatePlanID)).Scan(&planID)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: rate plan %s", ErrNotFound, t.RatePlanID)
		}
		if err != nil {
			return fmt.Errorf("lock rate plan: %w", err)
		}

		existing, err := queryTables(ctx, tx, NewTableFilter(t.RatePlanID).OfType(t.Type()))
		if err != nil {
			return err
		}
		tables := make([]RateTable, 0, len(existing))
		for _, r := range existing {
			m, err := r.model()
			if err != nil {
				return err
			}
			tables = append(tables, m)
		}
		if conflicts := NewIndex(tables).Conflicts(t); len(conflicts) > 0 {
			return fmt.Errorf("%w: [%s, %s] overlaps table %s [%s, %s]",
				ErrOverlap, t.Start, t.End, conflicts[0].ID, conflicts[0].Start, conflicts[0].End)
		}

		r := tableRecordOf(t)
		_, err = tx.Exec(ctx, `
			INSERT INTO rate_tables (
				id, rate_plan_id, rate_type, start_date, end_date,
				nightly, min_stay, max_stay,
				low_rate, max_rate, lowest_occupancy, max_occupancy, occupancy_mode
			) VALUES (
				$1, $2, $3, $4::date, $5::date,
				$6::numeric, $7, $8,
				$9::numeric, $10::numeric, $11::numeric, $12::numeric, NULLIF($13, '')
			)`,
			r.ID, r.RatePlanID, string(r.Type), dateParam(r.Start), dateParam(r.End),
			decimalParam(r.Nightly), r.MinStay, r.MaxStay,
			decimalParam(r.LowRate), decimalParam(r.MaxRate),
			decimalParam(r.LowestOccupancy), decimalParam(r.MaxOccupancy), string(r.Mode),
		)
		if err != nil {
			return fmt.Errorf("insert rate table: %w", err)
		}
		return insertExtras(ctx, tx, ownerRateTable, r.ID, t.Terms.DayOverrides(), t.Terms.FeeTiers())
	})
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

func insertExtras(ctx context.Context, q querier, ownerType, ownerID string, overrides []DayOverride, fees []GuestFeeTier) error {
	for _, o := range overrides {
		days := make([]int32, len(o.Days))
		for i, d := range o.Days {
			days[i] = int32(d)
		}
		_, err := q.Exec(ctx, `
			INSERT INTO day_overrides (owner_type, owner_id, nightly, days)
			VALUES ($1, $2, $3::numeric, $4)`,
			ownerType, ownerID, o.Nightly.String(), days,
		)
		if err != nil {
			return fmt.Errorf("insert day override: %w", err)
		}
	}
	for _, f := range fees {
		r := feeRecordOf(f)
		_, err := q.Exec(ctx, `
			INSERT INTO guest_fee_tiers (owner_type, owner_id, guest_type, from_age, to_age, guest_count, amount_type, value)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric)`,
			ownerType, ownerID, string(r.GuestType), r.FromAge, r.ToAge, r.GuestCount, string(r.AmountType), r.Value.String(),
		)
		if err != nil {
			return fmt.Errorf("insert guest fee tier: %w", err)
		}
	}
	return nil
}

func newID() types.ID {
	return types.ID(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func dateParam(d civil.Date) time.Time {
	return d.In(time.UTC)
}

func decimalParam(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func toDecimalPtr(v sql.NullString) (*decimal.Decimal, error) {
	if !v.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func toIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
