// Package annotations loads key dates that charts mark on their time axis.
package annotations

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/epi-report-service/internal/domain"
)

const opLoad = "load key dates"

// KeyDate marks a day, or a span of days, with a label.
type KeyDate struct {
	Date  time.Time `json:"date"`
	Days  int       `json:"days"`
	Label string    `json:"label"`
}

// End returns the last day covered by the key date.
func (k KeyDate) End() time.Time {
	return k.Date.AddDate(0, 0, k.Days-1)
}

// IsSpan reports whether the key date covers more than one day.
func (k KeyDate) IsSpan() bool { return k.Days > 1 }

type fileEntry struct {
	Date  string `yaml:"date"`
	Days  int    `yaml:"days"`
	Label string `yaml:"label"`
}

type file struct {
	KeyDates []fileEntry `yaml:"key_dates"`
}

// Load reads a key dates file. Dates are day-first; days defaults to 1.
// Entries are returned in date order.
func Load(path string) ([]KeyDate, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.NotFound(opLoad, path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", opLoad, path, err)
	}
	return Parse(path, b)
}

// Parse decodes key dates from YAML. name is used in error messages.
func Parse(name string, b []byte) ([]KeyDate, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, domain.Malformed(opLoad, name, "%w", err)
	}
	out := make([]KeyDate, 0, len(f.KeyDates))
	for i, e := range f.KeyDates {
		d, err := domain.ParseDay(e.Date)
		if err != nil {
			return nil, domain.Malformed(opLoad, name, "entry %d: %w", i+1, err)
		}
		days := e.Days
		if days == 0 {
			days = 1
		}
		if days < 0 {
			return nil, domain.Malformed(opLoad, name, "entry %d: negative days %d", i+1, days)
		}
		out = append(out, KeyDate{Date: d, Days: days, Label: e.Label})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Within returns the key dates that overlap span.
func Within(dates []KeyDate, span domain.DateSpan) []KeyDate {
	var out []KeyDate
	for _, k := range dates {
		if !k.End().Before(span.First) && !k.Date.After(span.Last) {
			out = append(out, k)
		}
	}
	return out
}
