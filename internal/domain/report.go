package domain

import (
	"fmt"
	"time"
)

// Column is one typed column of a report. Integer columns keep their values
// as int64 so that the schema survives loading; Floats is used otherwise.
type Column struct {
	Name   string
	Kind   Kind
	Ints   []int64
	Floats []float64
}

// Len returns the number of values in the column.
func (c Column) Len() int {
	if c.Kind == KindInt {
		return len(c.Ints)
	}
	return len(c.Floats)
}

// Float returns value i widened to float64.
func (c Column) Float(i int) float64 {
	if c.Kind == KindInt {
		return float64(c.Ints[i])
	}
	return c.Floats[i]
}

// Slice returns the rows [from, len) of the column.
func (c Column) Slice(from int) Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == KindInt {
		out.Ints = append([]int64(nil), c.Ints[from:]...)
	} else {
		out.Floats = append([]float64(nil), c.Floats[from:]...)
	}
	return out
}

// Report is the date-ordered table of one entity.
//
// When DateIndexed is true the report is in wide orientation: Dates is the
// row key. Otherwise it is in long orientation and rows belong to Name as an
// explicit label. RawDates holds the unparsed date cells and is the only date
// column when the report was loaded without date parsing.
type Report struct {
	Name        string
	DateIndexed bool
	Dates       []time.Time
	RawDates    []string
	Columns     []Column
}

// Len returns the number of rows.
func (r *Report) Len() int {
	return len(r.RawDates)
}

// HasDates reports whether the date column was parsed.
func (r *Report) HasDates() bool {
	return r.Dates != nil || len(r.RawDates) == 0
}

// ColumnNames returns the value column names in file order.
func (r *Report) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named value column.
func (r *Report) Column(name string) (Column, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Series extracts one column as a series named after the report entity.
func (r *Report) Series(column string) (Series, error) {
	c, ok := r.Column(column)
	if !ok {
		return Series{}, NotFound("select column", r.Name, fmt.Errorf("no column %q", column))
	}
	if !r.HasDates() {
		return Series{}, Malformed("select column", r.Name, "dates were not parsed")
	}
	values := make([]float64, c.Len())
	for i := range values {
		values[i] = c.Float(i)
	}
	return Series{Name: r.Name, Index: cloneTimes(r.Dates), Values: values}, nil
}

// Since returns the rows dated on or after start. A report without parsed
// dates is returned unchanged.
func (r *Report) Since(start time.Time) *Report {
	if !r.HasDates() {
		return r
	}
	from, _ := search(r.Dates, start)
	out := &Report{
		Name:        r.Name,
		DateIndexed: r.DateIndexed,
		Dates:       cloneTimes(r.Dates[from:]),
		RawDates:    append([]string(nil), r.RawDates[from:]...),
		Columns:     make([]Column, len(r.Columns)),
	}
	for i, c := range r.Columns {
		out.Columns[i] = c.Slice(from)
	}
	return out
}

// ValueAt returns the value of column on date.
func (r *Report) ValueAt(column string, date time.Time) (float64, bool) {
	c, ok := r.Column(column)
	if !ok || !r.HasDates() {
		return 0, false
	}
	i, ok := search(r.Dates, date)
	if !ok {
		return 0, false
	}
	return c.Float(i), true
}

// Scale multiplies every value by f. Scaled values are rates rather than
// counts, so every column of the result is KindFloat.
func (r *Report) Scale(f float64) *Report {
	out := r.shell(cloneTimes(r.Dates), append([]string(nil), r.RawDates...))
	for _, c := range r.Columns {
		fc := Column{Name: c.Name, Kind: KindFloat, Floats: make([]float64, c.Len())}
		for i := range fc.Floats {
			fc.Floats[i] = c.Float(i) * f
		}
		out.Columns = append(out.Columns, fc)
	}
	return out
}

// Resample sums every column into the buckets of p. Integer columns stay
// integer. A report without parsed dates is returned unchanged.
func (r *Report) Resample(p Period) *Report {
	if !r.HasDates() || r.Len() == 0 {
		return r
	}
	labels := p.buckets(r.Dates[0], r.Dates[len(r.Dates)-1])
	raw := make([]string, len(labels))
	for i, l := range labels {
		raw[i] = FormatDay(l)
	}
	out := r.shell(labels, raw)
	for _, c := range r.Columns {
		rc := Column{Name: c.Name, Kind: c.Kind}
		if c.Kind == KindInt {
			rc.Ints = make([]int64, len(labels))
		} else {
			rc.Floats = make([]float64, len(labels))
		}
		for i, t := range r.Dates {
			j, ok := search(labels, p.Start(t))
			if !ok {
				continue
			}
			if c.Kind == KindInt {
				rc.Ints[j] += c.Ints[i]
			} else {
				rc.Floats[j] += c.Floats[i]
			}
		}
		out.Columns = append(out.Columns, rc)
	}
	return out
}

// MapSeries replaces every column with f applied to it as a series named
// after the column. f may drop leading points; the rows it keeps must be a
// trailing run of the dates. Every column becomes float.
func (r *Report) MapSeries(f func(Series) (Series, error)) (*Report, error) {
	if !r.HasDates() {
		return nil, Malformed("map series", r.Name, "dates were not parsed")
	}
	var out *Report
	from := 0
	for _, c := range r.Columns {
		values := make([]float64, c.Len())
		for i := range values {
			values[i] = c.Float(i)
		}
		s, err := f(Series{Name: c.Name, Index: cloneTimes(r.Dates), Values: values})
		if err != nil {
			return nil, err
		}
		off, ok := tailOffset(r.Dates, s.Index)
		if !ok || len(s.Values) != len(s.Index) || (out != nil && off != from) {
			return nil, Degenerate("map series", "%s %s: result is not aligned with the dates", r.Name, c.Name)
		}
		if out == nil {
			from = off
			out = r.shell(cloneTimes(s.Index), append([]string(nil), r.RawDates[from:]...))
		}
		out.Columns = append(out.Columns, Column{Name: c.Name, Kind: KindFloat, Floats: s.Values})
	}
	if out == nil {
		return r, nil
	}
	return out, nil
}

func (r *Report) shell(dates []time.Time, raw []string) *Report {
	if r.Dates == nil {
		dates = nil
	}
	return &Report{Name: r.Name, DateIndexed: r.DateIndexed, Dates: dates, RawDates: raw}
}
