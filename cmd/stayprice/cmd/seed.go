package cmd

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stayprice/internal/modules/rates"
	"stayprice/internal/types"
)

var (
	seedUnit  string
	seedStart string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo rate data for one unit",
	Long: `Creates a default rate, an unsegmented plan with a standard and a dynamic
table, and a corporate plan for one unit. The tables start at --start
(default: today) and span 60 days.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedUnit, "unit", "", "unit id (default: a random one)")
	seedCmd.Flags().StringVar(&seedStart, "start", "", "first date of the seeded tables, YYYY-MM-DD")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, _, cache, closeFn, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	unitID := types.ID(seedUnit)
	if unitID.IsZero() {
		unitID = types.ID("unit-" + uuid.NewString()[:8])
	}
	start := civil.DateOf(time.Now())
	if seedStart != "" {
		if start, err = civil.ParseDate(seedStart); err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}
	maxStay := 28

	_, err = store.CreateDefaultRate(ctx, rates.UnitDefaultRate{
		UnitID:  unitID,
		Nightly: decimal.NewFromInt(100),
		MinStay: 1,
		MaxStay: &maxStay,
		Overrides: []rates.DayOverride{
			{Nightly: decimal.NewFromInt(130), Days: []time.Weekday{time.Friday, time.Saturday}},
		},
		Fees: []rates.GuestFeeTier{
			{GuestType: rates.GuestAdult, GuestCount: 2, AmountType: rates.AmountFlat, Value: decimal.NewFromInt(25)},
			{GuestType: rates.GuestChild, Bucket: &rates.AgeBucket{From: 0, To: 12}, GuestCount: 1, AmountType: rates.AmountFlat, Value: decimal.NewFromInt(20)},
		},
	})
	if err != nil {
		return fmt.Errorf("default rate: %w", err)
	}

	basePlan, err := store.CreateRatePlan(ctx, rates.RatePlan{UnitID: unitID, Name: "Public", Enabled: true})
	if err != nil {
		return fmt.Errorf("public plan: %w", err)
	}
	corpPlan, err := store.CreateRatePlan(ctx, rates.RatePlan{UnitID: unitID, Name: "Corporate", Enabled: true, SegmentID: "corporate"})
	if err != nil {
		return fmt.Errorf("corporate plan: %w", err)
	}

	tables := []rates.RateTable{
		{
			RatePlanID: basePlan,
			Start:      start,
			End:        start.AddDays(59),
			Terms: rates.StandardTerms{
				Nightly: decimal.NewFromInt(120),
				MinStay: 2,
				Fees: []rates.GuestFeeTier{
					{GuestType: rates.GuestAdult, GuestCount: 2, AmountType: rates.AmountPercent, Value: decimal.NewFromInt(15)},
				},
			},
		},
		{
			RatePlanID: basePlan,
			Start:      start.AddDays(14),
			End:        start.AddDays(20),
			Terms: rates.DynamicTerms{
				LowRate:         decimal.NewFromInt(80),
				MaxRate:         decimal.NewFromInt(200),
				LowestOccupancy: decimal.NewFromInt(20),
				MaxOccupancy:    decimal.NewFromInt(90),
				Mode:            rates.OccupancyGlobal,
			},
		},
		{
			RatePlanID: corpPlan,
			Start:      start,
			End:        start.AddDays(59),
			Terms:      rates.StandardTerms{Nightly: decimal.NewFromInt(95), MinStay: 1},
		},
	}
	for _, t := range tables {
		id, err := store.CreateRateTable(ctx, t)
		if err != nil {
			return fmt.Errorf("rate table %s..%s: %w", t.Start, t.End, err)
		}
		logger.Debug("rate table created", zap.String("id", id.String()), zap.String("type", string(t.Type())))
	}

	if cache != nil {
		if err := cache.Invalidate(ctx, unitID, basePlan, corpPlan); err != nil {
			logger.Warn("cache invalidation failed", zap.Error(err))
		}
	}
	logger.Info("seeded unit",
		zap.String("unit_id", unitID.String()),
		zap.String("public_plan", basePlan.String()),
		zap.String("corporate_plan", corpPlan.String()),
	)
	fmt.Fprintln(cmd.OutOrStdout(), unitID)
	return nil
}
