package http

import (
	"time"

	"github.com/couchcryptid/epi-report-service/internal/aggregate"
	"github.com/couchcryptid/epi-report-service/internal/domain"
	"github.com/couchcryptid/epi-report-service/internal/export"
)

// isoDay is the date layout of JSON payloads. CSV output keeps the
// day-first layout of the report files.
const isoDay = "2006-01-02"

type calendarView struct {
	FirstDay    string    `json:"first_day"`
	LastDay     string    `json:"last_day"`
	FirstWeek   string    `json:"first_week"`
	LastWeek    string    `json:"last_week"`
	Days        int       `json:"days"`
	Weeks       int       `json:"weeks"`
	GeneratedAt time.Time `json:"generated_at"`
}

func newCalendarView(c domain.Calendar) calendarView {
	return calendarView{
		FirstDay:    c.FirstDay.Format(isoDay),
		LastDay:     c.LastDay.Format(isoDay),
		FirstWeek:   c.FirstWeek.Format(isoDay),
		LastWeek:    c.LastWeek.Format(isoDay),
		Days:        len(c.Days()),
		Weeks:       len(c.Weeks()),
		GeneratedAt: domain.Now(),
	}
}

type columnView struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Values any    `json:"values,omitempty"`
}

type reportView struct {
	Name        string       `json:"name"`
	DateIndexed bool         `json:"date_indexed"`
	Dates       []string     `json:"dates"`
	Columns     []columnView `json:"columns"`
	GeneratedAt time.Time    `json:"generated_at"`
}

func newReportView(r *domain.Report) reportView {
	v := reportView{
		Name:        r.Name,
		DateIndexed: r.DateIndexed,
		Dates:       make([]string, r.Len()),
		Columns:     make([]columnView, len(r.Columns)),
		GeneratedAt: domain.Now(),
	}
	if r.HasDates() {
		for i, d := range r.Dates {
			v.Dates[i] = d.Format(isoDay)
		}
	} else {
		copy(v.Dates, r.RawDates)
	}
	for i, c := range r.Columns {
		cv := columnView{Name: c.Name, Kind: c.Kind.String()}
		if c.Kind == domain.KindInt {
			cv.Values = nonNil(c.Ints)
		} else {
			cv.Values = export.Floats(c.Floats)
		}
		v.Columns[i] = cv
	}
	return v
}

type wideView struct {
	Form        aggregate.Form            `json:"form"`
	Column      string                    `json:"column"`
	Kind        string                    `json:"kind"`
	Index       []string                  `json:"index"`
	Columns     []string                  `json:"columns"`
	Values      map[string][]export.Float `json:"values"`
	Observed    map[string][]bool         `json:"observed"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

type longRowView struct {
	Name   string         `json:"name"`
	Date   string         `json:"date"`
	Values []export.Float `json:"values"`
}

type longView struct {
	Form        aggregate.Form `json:"form"`
	Columns     []columnView   `json:"columns"`
	Rows        []longRowView  `json:"rows"`
	GeneratedAt time.Time      `json:"generated_at"`
}

func newTableView(t domain.Table, form aggregate.Form) any {
	switch tbl := t.(type) {
	case *domain.WideTable:
		index := make([]string, len(tbl.Index))
		for i, d := range tbl.Index {
			index[i] = d.Format(isoDay)
		}
		return wideView{
			Form:        form,
			Column:      tbl.Column,
			Kind:        tbl.Kind.String(),
			Index:       index,
			Columns:     nonNil(tbl.Columns),
			Values:      export.FloatColumns(tbl.Values),
			Observed:    tbl.Observed,
			GeneratedAt: domain.Now(),
		}
	case *domain.LongTable:
		cols := make([]columnView, len(tbl.Columns))
		for i, c := range tbl.Columns {
			cols[i] = columnView{Name: c.Name, Kind: c.Kind.String()}
		}
		rows := make([]longRowView, len(tbl.Rows))
		for i, r := range tbl.Rows {
			rows[i] = longRowView{Name: r.Name, Date: r.Date.Format(isoDay), Values: export.Floats(r.Values)}
		}
		return longView{Form: form, Columns: cols, Rows: rows, GeneratedAt: domain.Now()}
	default:
		return nil
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
