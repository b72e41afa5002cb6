// Package aggregate merges the reports of many entities into one table.
package aggregate

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/couchcryptid/epi-report-service/internal/domain"
	"github.com/couchcryptid/epi-report-service/internal/observability"
	"github.com/couchcryptid/epi-report-service/internal/report"
)

const opAggregate = "aggregate"

// Form is the orientation of an aggregated table.
type Form string

const (
	FormWide Form = "wide"
	FormLong Form = "long"
	FormFull Form = "full"
)

// Query selects entities and rows. Include, when non-empty, fixes both the
// entity set and its order; otherwise every listed entity is used in listing
// order. Exclude always wins over Include. Start keeps rows dated on or
// after it. Column selects one report column; empty keeps the whole record
// and is only valid in long form.
type Query struct {
	Column  string
	Include []string
	Exclude []string
	Start   *time.Time
}

// Engine loads and merges entity reports. It holds no state between calls.
type Engine struct {
	loader  *report.Loader
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewEngine creates an engine. metrics may be nil.
func NewEngine(loader *report.Loader, metrics *observability.Metrics, logger *slog.Logger) *Engine {
	return &Engine{loader: loader, metrics: metrics, logger: logger}
}

// Entities lists the entities known at scope.
func (e *Engine) Entities(scope domain.Scope) ([]string, error) {
	if scope.Country == "" {
		return e.loader.Paths().Countries()
	}
	return e.loader.Paths().Regions(scope.Country)
}

// Resolve applies include and exclude to the entities at scope.
func (e *Engine) Resolve(scope domain.Scope, include, exclude []string) ([]string, error) {
	names := lo.Uniq(lo.Compact(include))
	if len(names) == 0 {
		listed, err := e.Entities(scope)
		if err != nil {
			return nil, err
		}
		names = listed
	}
	names = lo.Without(names, exclude...)
	if len(names) == 0 {
		return nil, domain.Degenerate(opAggregate, "no %s left to aggregate", scope)
	}
	return names, nil
}

// ByColumn aggregates one column in the requested orientation and returns
// a *domain.WideTable or a *domain.LongTable.
func (e *Engine) ByColumn(scope domain.Scope, q Query, wide bool) (domain.Table, error) {
	if wide {
		return e.Wide(scope, q)
	}
	return e.Long(scope, q)
}

// Wide aligns q.Column of every entity on the union of their dates. Cells an
// entity did not report are 0.
func (e *Engine) Wide(scope domain.Scope, q Query) (*domain.WideTable, error) {
	if q.Column == "" {
		return nil, domain.Degenerate(opAggregate, "wide aggregation needs a column")
	}
	var out *domain.WideTable
	err := e.observe(FormWide, func() (int, error) {
		reports, err := e.collect(scope, q, report.Indexed)
		if err != nil {
			return 0, err
		}
		out, err = mergeWide(q.Column, reports)
		return len(reports), err
	})
	return out, err
}

// Long stacks every entity's rows, each with its own dates. With an empty
// q.Column the whole record is kept.
func (e *Engine) Long(scope domain.Scope, q Query) (*domain.LongTable, error) {
	var out *domain.LongTable
	err := e.observe(FormLong, func() (int, error) {
		reports, err := e.collect(scope, q, report.Labeled)
		if err != nil {
			return 0, err
		}
		out = mergeLong(reports)
		return len(reports), nil
	})
	return out, err
}

// Full stacks every column of every entity, for dashboards that need
// several metrics per row. q.Column is ignored.
func (e *Engine) Full(scope domain.Scope, q Query) (*domain.LongTable, error) {
	q.Column = ""
	var out *domain.LongTable
	err := e.observe(FormFull, func() (int, error) {
		reports, err := e.collect(scope, q, report.Labeled)
		if err != nil {
			return 0, err
		}
		out = mergeLong(reports)
		return len(reports), nil
	})
	return out, err
}

func (e *Engine) observe(form Form, run func() (int, error)) error {
	start := time.Now()
	n, err := run()
	if e.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		e.metrics.AggregationsTotal.WithLabelValues(string(form), outcome).Inc()
		e.metrics.AggregationDuration.WithLabelValues(string(form)).Observe(time.Since(start).Seconds())
		if err == nil {
			e.metrics.AggregationEntities.Observe(float64(n))
		}
	}
	if err != nil {
		e.logger.Warn("aggregation failed", "form", form, "error", err)
		return err
	}
	e.logger.Debug("aggregation complete", "form", form, "entities", n, "duration", time.Since(start))
	return nil
}

// collect resolves the entity set, loads each report and slices it. The
// first failing entity aborts the batch.
func (e *Engine) collect(scope domain.Scope, q Query, opts report.Options) ([]*domain.Report, error) {
	names, err := e.Resolve(scope, q.Include, q.Exclude)
	if err != nil {
		return nil, err
	}
	mode := q.slicing()
	reports := make([]*domain.Report, 0, len(names))
	for _, name := range names {
		r, err := e.load(scope, name, opts)
		if err != nil {
			return nil, fmt.Errorf("%s %s: entity %q: %w", opAggregate, scope, name, err)
		}
		r, err = slice(r, mode, q)
		if err != nil {
			return nil, fmt.Errorf("%s %s: entity %q: %w", opAggregate, scope, name, err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func (e *Engine) load(scope domain.Scope, name string, opts report.Options) (*domain.Report, error) {
	if scope.Country == "" {
		return e.loader.LoadCountry(name, opts)
	}
	return e.loader.LoadRegion(scope.Country, name, opts)
}

// sliceMode enumerates the row and column selections a query can ask for.
type sliceMode int

const (
	wholeRecord sliceMode = iota
	wholeRecordSince
	oneColumn
	oneColumnSince
)

func (q Query) slicing() sliceMode {
	switch {
	case q.Column == "" && q.Start == nil:
		return wholeRecord
	case q.Column == "":
		return wholeRecordSince
	case q.Start == nil:
		return oneColumn
	default:
		return oneColumnSince
	}
}

func slice(r *domain.Report, mode sliceMode, q Query) (*domain.Report, error) {
	switch mode {
	case wholeRecordSince:
		return r.Since(*q.Start), nil
	case oneColumn:
		return project(r, q.Column)
	case oneColumnSince:
		return project(r.Since(*q.Start), q.Column)
	default:
		return r, nil
	}
}

// project keeps a single value column.
func project(r *domain.Report, column string) (*domain.Report, error) {
	c, ok := r.Column(column)
	if !ok {
		return nil, domain.NotFound("select column", r.Name, fmt.Errorf("no column %q", column))
	}
	out := *r
	out.Columns = []domain.Column{c}
	return &out, nil
}

func mergeWide(column string, reports []*domain.Report) (*domain.WideTable, error) {
	seen := make(map[time.Time]bool)
	var index []time.Time
	for _, r := range reports {
		for _, d := range r.Dates {
			if !seen[d] {
				seen[d] = true
				index = append(index, d)
			}
		}
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })
	pos := make(map[time.Time]int, len(index))
	for i, d := range index {
		pos[d] = i
	}

	t := &domain.WideTable{
		Column:   column,
		Kind:     domain.KindOf(column),
		Index:    index,
		Values:   make(map[string][]float64, len(reports)),
		Observed: make(map[string][]bool, len(reports)),
	}
	for _, r := range reports {
		s, err := r.Series(column)
		if err != nil {
			return nil, err
		}
		values := make([]float64, len(index))
		observed := make([]bool, len(index))
		for i, d := range s.Index {
			values[pos[d]] = s.Values[i]
			observed[pos[d]] = true
		}
		t.Columns = append(t.Columns, r.Name)
		t.Values[r.Name] = values
		t.Observed[r.Name] = observed
	}
	return t, nil
}

func mergeLong(reports []*domain.Report) *domain.LongTable {
	names := lo.Uniq(lo.FlatMap(reports, func(r *domain.Report, _ int) []string { return r.ColumnNames() }))
	t := &domain.LongTable{
		Columns: lo.Map(names, func(n string, _ int) domain.ColumnSpec {
			return domain.ColumnSpec{Name: n, Kind: domain.KindOf(n)}
		}),
	}
	for _, r := range reports {
		slots := make([]int, len(r.Columns))
		for i, c := range r.Columns {
			slots[i] = lo.IndexOf(names, c.Name)
		}
		for row := 0; row < r.Len(); row++ {
			values := make([]float64, len(names))
			for i, c := range r.Columns {
				values[slots[i]] = c.Float(row)
			}
			t.Rows = append(t.Rows, domain.LongRow{Name: r.Name, Date: r.Dates[row], Values: values})
		}
	}
	return t
}
