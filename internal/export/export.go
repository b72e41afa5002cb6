// Package export flattens aggregated tables into rows and CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/couchcryptid/epi-report-service/internal/domain"
)

// Row is one (entity, date) record of a table.
type Row struct {
	Name   string             `json:"name"`
	Date   time.Time          `json:"date"`
	Values map[string]float64 `json:"values"`
}

// Rows flattens a table. Wide tables yield one row per entity and date with
// the aggregated column as the only value; unobserved cells are skipped.
func Rows(t domain.Table) []Row {
	switch tbl := t.(type) {
	case *domain.WideTable:
		var out []Row
		for _, name := range tbl.Columns {
			for i, d := range tbl.Index {
				if !tbl.Observed[name][i] {
					continue
				}
				out = append(out, Row{Name: name, Date: d, Values: map[string]float64{tbl.Column: tbl.Values[name][i]}})
			}
		}
		return out
	case *domain.LongTable:
		out := make([]Row, len(tbl.Rows))
		for i, r := range tbl.Rows {
			values := make(map[string]float64, len(tbl.Columns))
			for j, c := range tbl.Columns {
				values[c.Name] = r.Values[j]
			}
			out[i] = Row{Name: r.Name, Date: r.Date, Values: values}
		}
		return out
	default:
		return nil
	}
}

// WriteCSV writes a table in the layout report files use: wide tables as
// Date plus one column per entity, long tables as Name, Date and the value
// columns. Integer columns are written without a fraction.
func WriteCSV(w io.Writer, t domain.Table) error {
	cw := csv.NewWriter(w)
	var err error
	switch tbl := t.(type) {
	case *domain.WideTable:
		err = writeWide(cw, tbl)
	case *domain.LongTable:
		err = writeLong(cw, tbl)
	default:
		return fmt.Errorf("write csv: unsupported table %T", t)
	}
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func writeWide(cw *csv.Writer, t *domain.WideTable) error {
	header := append([]string{domain.ColDate}, t.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, d := range t.Index {
		rec := make([]string, 0, len(header))
		rec = append(rec, domain.FormatDay(d))
		for _, c := range t.Columns {
			rec = append(rec, FormatValue(t.Values[c][i], t.Kind))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func writeLong(cw *csv.Writer, t *domain.LongTable) error {
	header := []string{domain.ColName, domain.ColDate}
	for _, c := range t.Columns {
		header = append(header, c.Name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range t.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, r.Name, domain.FormatDay(r.Date))
		for j, c := range t.Columns {
			rec = append(rec, FormatValue(r.Values[j], c.Kind))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// FormatValue renders a cell for its column kind. Infinities use the
// spelling of the report files.
func FormatValue(v float64, kind domain.Kind) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return "NaN"
	case kind == domain.KindInt:
		return strconv.FormatInt(int64(v), 10)
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}
