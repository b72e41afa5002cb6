// Package derive computes secondary metrics from reports and aggregated
// tables: per-capita rates, baseline rebasing, calendar resampling and
// normalisation.
package derive

import (
	"fmt"
	"time"

	"github.com/couchcryptid/epi-report-service/internal/domain"
)

// DefaultPer is the unit of PerValue when the caller has no preference.
const DefaultPer = 1000

// PopulationSource supplies stats tables at each granularity.
type PopulationSource interface {
	Countries() (domain.StatsTable, error)
	Regions(country string) (domain.StatsTable, error)
	Counties(country, region string) (domain.StatsTable, error)
}

// Scalable is a shape whose values can be multiplied uniformly:
// domain.Series, *domain.Report, *domain.WideTable or *domain.LongTable.
type Scalable[T any] interface {
	Scale(f float64) T
}

// Rebasable is a Scalable shape with addressable cells.
type Rebasable[T any] interface {
	Scalable[T]
	ValueAt(column string, date time.Time) (float64, bool)
}

// Resampler is a shape that can be summed into calendar buckets.
type Resampler[T any] interface {
	Resample(p domain.Period) T
}

// Population returns the population of the most specific entity loc names:
// the county when Region and County are set, else the region when Region
// is set, else the country.
func Population(src PopulationSource, loc domain.Location) (float64, error) {
	if loc.Country == "" {
		return 0, domain.Degenerate("population", "country is required")
	}
	if loc.County != "" && loc.Region == "" {
		return 0, domain.Degenerate("population", "county %q needs its region", loc.County)
	}

	var (
		table domain.StatsTable
		name  string
		err   error
	)
	switch {
	case loc.County != "":
		table, err = src.Counties(loc.Country, loc.Region)
		name = loc.County
	case loc.Region != "":
		table, err = src.Regions(loc.Country)
		name = loc.Region
	default:
		table, err = src.Countries()
		name = loc.Country
	}
	if err != nil {
		return 0, err
	}
	row, err := table.Get(name)
	if err != nil {
		return 0, err
	}
	if row.Population == 0 {
		return 0, domain.Degenerate("population", "population of %s is 0", loc)
	}
	return row.Population, nil
}

// PerCapita divides every value by the population of loc.
func PerCapita[T Scalable[T]](src PopulationSource, values T, loc domain.Location) (T, error) {
	pop, err := Population(src, loc)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("per capita: %w", err)
	}
	return values.Scale(1 / pop), nil
}

// PerValue expresses values per `per` inhabitants of loc, e.g. per 1000.
func PerValue[T Scalable[T]](src PopulationSource, values T, loc domain.Location, per float64) (T, error) {
	pop, err := Population(src, loc)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("per value: %w", err)
	}
	return values.Scale(1 / pop * per), nil
}

// SetBaseline rescales values so that the cell addressed by b reads b.Value.
func SetBaseline[T Rebasable[T]](values T, b domain.Baseline) (T, error) {
	f, err := baselineFactor(values, b)
	if err != nil {
		var zero T
		return zero, err
	}
	return values.Scale(f), nil
}

type addressable interface {
	ValueAt(column string, date time.Time) (float64, bool)
}

func baselineFactor(values addressable, b domain.Baseline) (float64, error) {
	actual, ok := values.ValueAt(b.Column, b.Date)
	if !ok {
		return 0, domain.NotFound("set baseline", b.Column,
			fmt.Errorf("no value on %s", domain.FormatDay(b.Date)))
	}
	if actual == 0 {
		return 0, domain.Degenerate("set baseline", "value at %s %s is 0", b.Column, domain.FormatDay(b.Date))
	}
	return b.Value / actual, nil
}

// PerWeek sums values into Monday-anchored weeks labelled with the Monday.
// Applying it to weekly data returns the same buckets.
func PerWeek[T Resampler[T]](values T) T {
	return values.Resample(domain.Weekly)
}

// PerMonth sums values into calendar months labelled with the first day.
func PerMonth[T Resampler[T]](values T) T {
	return values.Resample(domain.Monthly)
}

// Shape is any table or series the derivation steps apply to.
type Shape[T any] interface {
	Scalable[T]
	Resampler[T]
}

// Steps are optional derivations. Apply runs them in field order: the
// baseline, per-capita scaling, calendar resampling, the rolling mean and
// finally normalisation.
type Steps struct {
	Baseline *domain.Baseline
	// Per is the unit of per-capita scaling; 0 disables it.
	Per      float64
	Location domain.Location
	Period   *domain.Period

	// Smooth is the rolling mean window; 0 disables it.
	Smooth    int
	Normalize Normalization
}

// seriesMapper is a shape whose values split into independent series.
type seriesMapper[T any] interface {
	MapSeries(f func(domain.Series) (domain.Series, error)) (T, error)
}

// Apply runs s over values. A baseline needs addressable cells and the
// rolling mean and normalisation need per-entity series, so those steps are
// rejected for long tables.
func Apply[T Shape[T]](src PopulationSource, values T, s Steps) (T, error) {
	var zero T
	if s.Baseline != nil {
		cells, ok := any(values).(addressable)
		if !ok {
			return zero, domain.Degenerate("set baseline", "%T has no addressable cells", values)
		}
		f, err := baselineFactor(cells, *s.Baseline)
		if err != nil {
			return zero, err
		}
		values = values.Scale(f)
	}
	if s.Per > 0 {
		var err error
		if values, err = PerValue(src, values, s.Location, s.Per); err != nil {
			return zero, err
		}
	}
	if s.Period != nil {
		values = values.Resample(*s.Period)
	}
	if s.Smooth == 0 && s.Normalize == NormalizeNone {
		return values, nil
	}

	series, ok := any(values).(seriesMapper[T])
	if !ok {
		return zero, domain.Degenerate("map series", "%T has no per-entity series", values)
	}
	var err error
	if s.Smooth != 0 {
		window := s.Smooth
		if values, err = series.MapSeries(func(v domain.Series) (domain.Series, error) {
			return RollingMean(v, window)
		}); err != nil {
			return zero, err
		}
		series = any(values).(seriesMapper[T])
	}
	if s.Normalize != NormalizeNone {
		norm, err := s.Normalize.fn()
		if err != nil {
			return zero, err
		}
		if values, err = series.MapSeries(norm); err != nil {
			return zero, err
		}
	}
	return values, nil
}
