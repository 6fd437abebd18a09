package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"stayprice/internal/modules/pricing"
	"stayprice/internal/modules/rates"
	"stayprice/internal/types"
)

var quoteFlags struct {
	units           []string
	checkin         string
	checkout        string
	adults          int
	childAges       []int
	segment         string
	subSegment      string
	occupancy       string
	globalOccupancy string
	format          string
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a stay against the configured rate store",
	Long: `Prices the nights of [checkin, checkout) for one or more units in-process,
reading rates from Postgres (through Redis when configured).

Each --child-age adds one child of that age.`,
	Args: cobra.NoArgs,
	RunE: runQuote,
}

func init() {
	f := quoteCmd.Flags()
	f.StringSliceVar(&quoteFlags.units, "unit", nil, "unit id (repeatable)")
	f.StringVar(&quoteFlags.checkin, "checkin", "", "check-in date, YYYY-MM-DD")
	f.StringVar(&quoteFlags.checkout, "checkout", "", "check-out date, YYYY-MM-DD")
	f.IntVar(&quoteFlags.adults, "adults", 1, "number of adults")
	f.IntSliceVar(&quoteFlags.childAges, "child-age", nil, "age of a child (repeatable)")
	f.StringVar(&quoteFlags.segment, "segment", "", "customer segment id")
	f.StringVar(&quoteFlags.subSegment, "sub-segment", "", "customer sub-segment id")
	f.StringVar(&quoteFlags.occupancy, "occupancy", "", "unit occupancy percentage for unit-mode dynamic rates")
	f.StringVar(&quoteFlags.globalOccupancy, "global-occupancy", "", "property occupancy percentage for global-mode dynamic rates")
	f.StringVarP(&quoteFlags.format, "format", "o", "text", "output format: text or json")
	_ = quoteCmd.MarkFlagRequired("unit")
	_ = quoteCmd.MarkFlagRequired("checkin")
	_ = quoteCmd.MarkFlagRequired("checkout")
}

func runQuote(cmd *cobra.Command, args []string) error {
	if quoteFlags.format != "text" && quoteFlags.format != "json" {
		return fmt.Errorf("unknown --format %q", quoteFlags.format)
	}
	req, err := quoteRequestFromFlags()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	_, source, _, closeFn, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	svc := pricing.NewService(source, cfg.Pricing, logger)
	quote, err := svc.PriceStay(ctx, req)
	if err != nil {
		return err
	}

	if quoteFlags.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(quote)
	}
	return printQuote(cmd.OutOrStdout(), quote)
}

func quoteRequestFromFlags() (pricing.StayRequest, error) {
	checkin, err := civil.ParseDate(quoteFlags.checkin)
	if err != nil {
		return pricing.StayRequest{}, fmt.Errorf("invalid --checkin: %w", err)
	}
	checkout, err := civil.ParseDate(quoteFlags.checkout)
	if err != nil {
		return pricing.StayRequest{}, fmt.Errorf("invalid --checkout: %w", err)
	}
	unitOcc, err := optionalDecimal("occupancy", quoteFlags.occupancy)
	if err != nil {
		return pricing.StayRequest{}, err
	}
	globalOcc, err := optionalDecimal("global-occupancy", quoteFlags.globalOccupancy)
	if err != nil {
		return pricing.StayRequest{}, err
	}

	guests := pricing.Guests{Adults: quoteFlags.adults}
	for _, age := range quoteFlags.childAges {
		guests.Children = append(guests.Children, pricing.ChildGroup{Age: age, Quantity: 1})
	}
	units := make([]pricing.UnitRequest, 0, len(quoteFlags.units))
	for _, id := range quoteFlags.units {
		units = append(units, pricing.UnitRequest{UnitID: types.ID(id), Occupancy: unitOcc})
	}
	return pricing.StayRequest{
		Checkin:  checkin,
		Checkout: checkout,
		Guests:   guests,
		Segment: rates.Segment{
			SegmentID:    types.ID(quoteFlags.segment),
			SubSegmentID: types.ID(quoteFlags.subSegment),
		},
		Units:           units,
		GlobalOccupancy: globalOcc,
	}, nil
}

func optionalDecimal(flag, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return &d, nil
}

func printQuote(out io.Writer, q pricing.Quote) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, u := range q.Units {
		fmt.Fprintf(w, "unit %s\ttotal %s\taverage %s", u.UnitID, u.TotalPrice.StringFixed(types.MoneyPlaces), u.AveragePrice.StringFixed(types.MoneyPlaces))
		if u.Degraded {
			fmt.Fprint(w, "\t(degraded)")
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  date\tsource\tbase\tadult fee\tchild fee\ttotal")
		for _, n := range u.Nights {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n",
				n.Date, n.Source,
				n.Base.StringFixed(types.MoneyPlaces),
				n.AdultFee.StringFixed(types.MoneyPlaces),
				n.ChildFee.StringFixed(types.MoneyPlaces),
				n.Total.StringFixed(types.MoneyPlaces),
			)
		}
		fmt.Fprintf(w, "  stay limits\tmin %s\tmax %s\n", optionalInt(u.MinStay), optionalInt(u.MaxStay))
	}
	return w.Flush()
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}
