package domain

import (
	"time"
)

// Table is an aggregated table in either orientation.
type Table interface {
	// Entities returns the entity names in aggregation order.
	Entities() []string
	// Wide reports whether the table is date-indexed with one column per entity.
	Wide() bool
}

// WideTable holds one report column for many entities aligned on the union
// of their dates. Cells an entity did not report are 0; Observed records
// which cells came from a source file.
type WideTable struct {
	Column   string
	Kind     Kind
	Index    []time.Time
	Columns  []string
	Values   map[string][]float64
	Observed map[string][]bool
}

func (t *WideTable) Entities() []string { return t.Columns }
func (t *WideTable) Wide() bool         { return true }

// Len returns the number of rows.
func (t *WideTable) Len() int { return len(t.Index) }

// Series returns the column of one entity.
func (t *WideTable) Series(entity string) (Series, bool) {
	v, ok := t.Values[entity]
	if !ok {
		return Series{}, false
	}
	return Series{Name: entity, Index: cloneTimes(t.Index), Values: append([]float64(nil), v...)}, true
}

// ValueAt returns the cell at (entity column, date).
func (t *WideTable) ValueAt(column string, date time.Time) (float64, bool) {
	v, ok := t.Values[column]
	if !ok {
		return 0, false
	}
	i, ok := search(t.Index, date)
	if !ok {
		return 0, false
	}
	return v[i], true
}

// Scale returns a copy with every cell multiplied by f.
func (t *WideTable) Scale(f float64) *WideTable {
	out := t.shell(cloneTimes(t.Index))
	out.Kind = KindFloat
	for _, c := range t.Columns {
		out.Values[c] = scaled(t.Values[c], f)
		out.Observed[c] = append([]bool(nil), t.Observed[c]...)
	}
	return out
}

// Resample sums every entity column into the buckets of p. A bucket is
// observed when any of its cells was.
func (t *WideTable) Resample(p Period) *WideTable {
	if len(t.Index) == 0 {
		return t.shell(nil)
	}
	labels := p.buckets(t.Index[0], t.Index[len(t.Index)-1])
	out := t.shell(labels)
	for _, c := range t.Columns {
		sums := make([]float64, len(labels))
		seen := make([]bool, len(labels))
		for i, d := range t.Index {
			j, ok := search(labels, p.Start(d))
			if !ok {
				continue
			}
			sums[j] += t.Values[c][i]
			seen[j] = seen[j] || t.Observed[c][i]
		}
		out.Values[c] = sums
		out.Observed[c] = seen
	}
	return out
}

// MapSeries replaces every entity column with f applied to it. f may drop
// leading points; the rows it keeps must be a trailing run of the index.
func (t *WideTable) MapSeries(f func(Series) (Series, error)) (*WideTable, error) {
	var out *WideTable
	from := 0
	for _, c := range t.Columns {
		s, err := f(Series{Name: c, Index: cloneTimes(t.Index), Values: append([]float64(nil), t.Values[c]...)})
		if err != nil {
			return nil, err
		}
		off, ok := tailOffset(t.Index, s.Index)
		if !ok || len(s.Values) != len(s.Index) || (out != nil && off != from) {
			return nil, Degenerate("map series", "%s: result is not aligned with the index", c)
		}
		if out == nil {
			from = off
			out = t.shell(cloneTimes(s.Index))
			out.Kind = KindFloat
		}
		out.Values[c] = s.Values
		out.Observed[c] = append([]bool(nil), t.Observed[c][from:]...)
	}
	if out == nil {
		return t, nil
	}
	return out, nil
}

func (t *WideTable) shell(index []time.Time) *WideTable {
	return &WideTable{
		Column:   t.Column,
		Kind:     t.Kind,
		Index:    index,
		Columns:  append([]string(nil), t.Columns...),
		Values:   make(map[string][]float64, len(t.Columns)),
		Observed: make(map[string][]bool, len(t.Columns)),
	}
}

// ColumnSpec names a value column of a long table.
type ColumnSpec struct {
	Name string `json:"name"`
	Kind Kind   `json:"-"`
}

// LongRow is one entity's record for one date.
type LongRow struct {
	Name   string
	Date   time.Time
	Values []float64
}

// LongTable stacks per-entity rows. Each entity keeps its own dates; value
// columns missing from an entity's file are 0.
type LongTable struct {
	Columns []ColumnSpec
	Rows    []LongRow
}

func (t *LongTable) Wide() bool { return false }

// Entities returns the distinct row labels in first-seen order.
func (t *LongTable) Entities() []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range t.Rows {
		if !seen[r.Name] {
			seen[r.Name] = true
			out = append(out, r.Name)
		}
	}
	return out
}

// Len returns the number of rows.
func (t *LongTable) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of a value column.
func (t *LongTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Scale returns a copy with every value multiplied by f.
func (t *LongTable) Scale(f float64) *LongTable {
	out := &LongTable{Columns: make([]ColumnSpec, len(t.Columns)), Rows: make([]LongRow, len(t.Rows))}
	for i, c := range t.Columns {
		out.Columns[i] = ColumnSpec{Name: c.Name, Kind: KindFloat}
	}
	for i, r := range t.Rows {
		out.Rows[i] = LongRow{Name: r.Name, Date: r.Date, Values: scaled(r.Values, f)}
	}
	return out
}

// Resample sums each entity's rows into the buckets of p, entity by entity.
func (t *LongTable) Resample(p Period) *LongTable {
	out := &LongTable{Columns: append([]ColumnSpec(nil), t.Columns...)}
	for _, name := range t.Entities() {
		var dates []time.Time
		var rows [][]float64
		for _, r := range t.Rows {
			if r.Name == name {
				dates = append(dates, r.Date)
				rows = append(rows, r.Values)
			}
		}
		labels := p.buckets(dates[0], dates[len(dates)-1])
		sums := make([][]float64, len(labels))
		for j := range sums {
			sums[j] = make([]float64, len(t.Columns))
		}
		for i, d := range dates {
			j, ok := search(labels, p.Start(d))
			if !ok {
				continue
			}
			for k, v := range rows[i] {
				sums[j][k] += v
			}
		}
		for j, l := range labels {
			out.Rows = append(out.Rows, LongRow{Name: name, Date: l, Values: sums[j]})
		}
	}
	return out
}

// Baseline addresses one cell and the value it should be rebased to. Column
// is ignored for a Series and names the entity column of a WideTable or the
// value column of a Report.
type Baseline struct {
	Column string
	Date   time.Time
	Value  float64
}
