package domain

import (
	"sort"
	"time"
)

// Series is a single date-indexed sequence of values.
type Series struct {
	Name   string
	Index  []time.Time
	Values []float64
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Values) }

// At returns the value stamped with date.
func (s Series) At(date time.Time) (float64, bool) {
	i, ok := search(s.Index, date)
	if !ok {
		return 0, false
	}
	return s.Values[i], true
}

// ValueAt implements baseline lookup. The column is ignored for a series.
func (s Series) ValueAt(_ string, date time.Time) (float64, bool) {
	return s.At(date)
}

// Scale returns a copy with every value multiplied by f.
func (s Series) Scale(f float64) Series {
	return Series{Name: s.Name, Index: cloneTimes(s.Index), Values: scaled(s.Values, f)}
}

// Resample sums values into the buckets of p. Buckets between the first and
// last date with no points are emitted as 0.
func (s Series) Resample(p Period) Series {
	index, values := resample(s.Index, s.Values, p)
	return Series{Name: s.Name, Index: index, Values: values}
}

// MapSeries applies f to s.
func (s Series) MapSeries(f func(Series) (Series, error)) (Series, error) {
	return f(s)
}

// tailOffset returns where sub starts when it is a trailing run of index.
func tailOffset(index, sub []time.Time) (int, bool) {
	from := len(index) - len(sub)
	if from < 0 {
		return 0, false
	}
	for i, d := range sub {
		if !d.Equal(index[from+i]) {
			return 0, false
		}
	}
	return from, true
}

func resample(index []time.Time, values []float64, p Period) ([]time.Time, []float64) {
	if len(index) == 0 {
		return nil, nil
	}
	labels := p.buckets(index[0], index[len(index)-1])
	sums := make([]float64, len(labels))
	for i, t := range index {
		if j, ok := search(labels, p.Start(t)); ok {
			sums[j] += values[i]
		}
	}
	return labels, sums
}

// search finds date in a sorted index.
func search(index []time.Time, date time.Time) (int, bool) {
	i := sort.Search(len(index), func(i int) bool { return !index[i].Before(date) })
	if i < len(index) && index[i].Equal(date) {
		return i, true
	}
	return i, false
}

func scaled(values []float64, f float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * f
	}
	return out
}

func cloneTimes(ts []time.Time) []time.Time {
	return append([]time.Time(nil), ts...)
}
