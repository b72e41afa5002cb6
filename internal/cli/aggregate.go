package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/epi-report-service/internal/aggregate"
	"github.com/couchcryptid/epi-report-service/internal/derive"
	"github.com/couchcryptid/epi-report-service/internal/domain"
	"github.com/couchcryptid/epi-report-service/internal/export"
)

// tableOptions are the flags that select and derive an aggregated table.
type tableOptions struct {
	country string
	column  string
	include []string
	exclude []string
	start   string
	form    string

	per        float64
	perCountry string
	perRegion  string
	perCounty  string
	weekly     bool
	monthly    bool

	baselineColumn string
	baselineDate   string
	baselineValue  float64

	sma       int
	normalize string
}

func (o *tableOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.country, "country", "", "aggregate the regions of this country (default: countries)")
	f.StringVar(&o.column, "column", "", "report column to aggregate")
	f.StringSliceVar(&o.include, "include", nil, "entities to aggregate, in output order")
	f.StringSliceVar(&o.exclude, "exclude", nil, "entities to leave out")
	f.StringVar(&o.start, "start", "", "first day to keep (DD-MM-YYYY)")
	f.StringVar(&o.form, "form", string(aggregate.FormWide), "wide, long or full")
	f.Float64Var(&o.per, "per", 0, "express values per this many inhabitants")
	f.StringVar(&o.perCountry, "per-country", "", "country whose population --per uses")
	f.StringVar(&o.perRegion, "per-region", "", "region whose population --per uses")
	f.StringVar(&o.perCounty, "per-county", "", "county whose population --per uses")
	f.BoolVar(&o.weekly, "weekly", false, "sum into Monday-anchored weeks")
	f.BoolVar(&o.monthly, "monthly", false, "sum into calendar months")
	f.StringVar(&o.baselineColumn, "baseline-column", "", "entity column the baseline addresses")
	f.StringVar(&o.baselineDate, "baseline-date", "", "day the baseline addresses (DD-MM-YYYY)")
	f.Float64Var(&o.baselineValue, "baseline-value", 1, "value the baseline cell should read")
	f.IntVar(&o.sma, "sma", 0, fmt.Sprintf("trailing moving average window, e.g. %d", derive.DefaultWindow))
	f.StringVar(&o.normalize, "normalize", "", "normalize each entity: minmax, signed or max")
	cmd.MarkFlagsMutuallyExclusive("weekly", "monthly")
}

func (o *tableOptions) query() (aggregate.Query, error) {
	q := aggregate.Query{Column: o.column, Include: o.include, Exclude: o.exclude}
	if o.start != "" {
		start, err := domain.ParseDay(o.start)
		if err != nil {
			return q, fmt.Errorf("--start: %w", err)
		}
		q.Start = &start
	}
	return q, nil
}

func (o *tableOptions) steps() (derive.Steps, error) {
	var s derive.Steps
	if o.per < 0 {
		return s, fmt.Errorf("--per must be positive, got %v", o.per)
	}
	if o.per > 0 {
		s.Per = o.per
		s.Location = domain.Location{Country: o.perCountry, Region: o.perRegion, County: o.perCounty}
	}
	switch {
	case o.weekly:
		s.Period = &domain.Weekly
	case o.monthly:
		s.Period = &domain.Monthly
	}
	if o.baselineColumn != "" {
		date, err := domain.ParseDay(o.baselineDate)
		if err != nil {
			return s, fmt.Errorf("--baseline-date: %w", err)
		}
		s.Baseline = &domain.Baseline{Column: o.baselineColumn, Date: date, Value: o.baselineValue}
	}
	if o.sma < 0 {
		return s, fmt.Errorf("--sma must be positive, got %d", o.sma)
	}
	s.Smooth = o.sma
	norm, err := derive.ParseNormalization(o.normalize)
	if err != nil {
		return s, fmt.Errorf("--normalize: %w", err)
	}
	s.Normalize = norm
	return s, nil
}

// build aggregates and derives the table the options describe.
func (o *tableOptions) build(a *app) (domain.Table, error) {
	q, err := o.query()
	if err != nil {
		return nil, err
	}
	steps, err := o.steps()
	if err != nil {
		return nil, err
	}
	scope := domain.Scope{Country: o.country}

	switch aggregate.Form(o.form) {
	case aggregate.FormWide:
		t, err := a.engine.Wide(scope, q)
		if err != nil {
			return nil, err
		}
		return derive.Apply(a.stats, t, steps)
	case aggregate.FormLong:
		t, err := a.engine.Long(scope, q)
		if err != nil {
			return nil, err
		}
		return derive.Apply(a.stats, t, steps)
	case aggregate.FormFull:
		t, err := a.engine.Full(scope, q)
		if err != nil {
			return nil, err
		}
		return derive.Apply(a.stats, t, steps)
	default:
		return nil, fmt.Errorf("--form: unknown form %q", o.form)
	}
}

func newAggregateCmd(a *app) *cobra.Command {
	var opts tableOptions
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate entity reports and write the table as CSV to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.wire(nil)
			tbl, err := opts.build(a)
			if err != nil {
				return err
			}
			return export.WriteCSV(cmd.OutOrStdout(), tbl)
		},
	}
	opts.bind(cmd)
	return cmd
}
