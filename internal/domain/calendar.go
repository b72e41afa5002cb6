package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	OneDay  = 24 * time.Hour
	OneWeek = 7 * OneDay
)

// dayFirstLayouts are tried in order when parsing report dates. ISO dates are
// unambiguous and accepted as well.
var dayFirstLayouts = []string{
	"02-01-2006",
	"2-1-2006",
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"2.1.2006",
	"2006-01-02",
}

// ParseDay parses a calendar date, resolving DD-MM against MM-DD in favour
// of day-first. The result is midnight UTC.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// FormatDay renders a date the way report files store it.
func FormatDay(t time.Time) string {
	return t.Format("02-01-2006")
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday that opens the week containing t.
func WeekStart(t time.Time) time.Time {
	d := Day(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// MonthStart returns the first day of the month containing t.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// Period describes a resampling bucket: Start maps a date to the label of
// its bucket and Next steps from one label to the following one.
type Period struct {
	Name  string
	Start func(time.Time) time.Time
	Next  func(time.Time) time.Time
}

var (
	// Weekly buckets open on Monday and are labelled with that Monday.
	Weekly = Period{
		Name:  "week",
		Start: WeekStart,
		Next:  func(t time.Time) time.Time { return t.AddDate(0, 0, 7) },
	}
	// Monthly buckets are labelled with the first day of the month.
	Monthly = Period{
		Name:  "month",
		Start: MonthStart,
		Next:  func(t time.Time) time.Time { return t.AddDate(0, 1, 0) },
	}
)

// buckets returns the contiguous bucket labels covering dates, which must be
// sorted ascending.
func (p Period) buckets(first, last time.Time) []time.Time {
	var out []time.Time
	end := p.Start(last)
	for b := p.Start(first); !b.After(end); b = p.Next(b) {
		out = append(out, b)
	}
	return out
}

// DateSpan is the inclusive range of days with reliable daily reports.
type DateSpan struct {
	First time.Time `json:"first_day"`
	Last  time.Time `json:"last_day"`
}

// Days returns the number of days in the span.
func (s DateSpan) Days() int {
	if s.Last.Before(s.First) {
		return 0
	}
	return int(s.Last.Sub(s.First)/OneDay) + 1
}

// Calendar carries the date constants chart builders use to lay out daily
// and weekly axes. It is computed once from a DateSpan and passed to callers.
type Calendar struct {
	FirstDay  time.Time `json:"first_day"`
	LastDay   time.Time `json:"last_day"`
	FirstWeek time.Time `json:"first_week"`
	LastWeek  time.Time `json:"last_week"`
}

// NewCalendar anchors the weekly constants of span on Mondays, matching
// the labels produced by weekly resampling.
func NewCalendar(span DateSpan) Calendar {
	return Calendar{
		FirstDay:  span.First,
		LastDay:   span.Last,
		FirstWeek: WeekStart(span.First),
		LastWeek:  WeekStart(span.Last),
	}
}

// Days returns every day from FirstDay to LastDay.
func (c Calendar) Days() []time.Time {
	var out []time.Time
	for d := c.FirstDay; !d.After(c.LastDay); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Weeks returns the Monday labels from FirstWeek to LastWeek.
func (c Calendar) Weeks() []time.Time {
	return Weekly.buckets(c.FirstWeek, c.LastWeek)
}
