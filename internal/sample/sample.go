// Package sample writes synthetic report archives in the on-disk layout the
// report packages read. It backs cmd/genmock and the package tests.
package sample

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/epi-report-service/internal/domain"
	"github.com/couchcryptid/epi-report-service/internal/export"
	"github.com/couchcryptid/epi-report-service/internal/paths"
)

// Day is one report row before cumulative columns are derived.
type Day struct {
	Date            time.Time
	ConfirmedChange int64
	DeathsChange    int64
	RecoveredChange int64
	Rt              float64
	TimeToResolve   float64
}

// Days builds consecutive days starting at start with the given new-case
// counts. Deaths and recoveries follow deterministically from the counts.
func Days(start time.Time, confirmedChanges ...int64) []Day {
	out := make([]Day, len(confirmedChanges))
	for i, c := range confirmedChanges {
		out[i] = Day{
			Date:            start.AddDate(0, 0, i),
			ConfirmedChange: c,
			DeathsChange:    c / 50,
			RecoveredChange: c / 2,
			Rt:              math.Round((0.8+float64(i%5)*0.1)*100) / 100,
			TimeToResolve:   14.5,
		}
	}
	return out
}

// Header is the column order of generated report files.
var Header = []string{
	domain.ColDate,
	domain.ColConfirmed,
	domain.ColActive,
	domain.ColRecovered,
	domain.ColDeaths,
	domain.ColConfirmedChange,
	domain.ColActiveChange,
	domain.ColRecoveredChange,
	domain.ColDeathsChange,
	domain.ColRt,
	domain.ColTimeToResolve,
}

// Records renders days as report rows with running totals.
func Records(days []Day) [][]string {
	rows := [][]string{Header}
	var confirmed, deaths, recovered, prevActive int64
	for _, d := range days {
		confirmed += d.ConfirmedChange
		deaths += d.DeathsChange
		recovered += d.RecoveredChange
		active := confirmed - deaths - recovered
		rows = append(rows, []string{
			domain.FormatDay(d.Date),
			itoa(confirmed),
			itoa(active),
			itoa(recovered),
			itoa(deaths),
			itoa(d.ConfirmedChange),
			itoa(active - prevActive),
			itoa(d.RecoveredChange),
			itoa(d.DeathsChange),
			export.FormatValue(d.Rt, domain.KindFloat),
			export.FormatValue(d.TimeToResolve, domain.KindFloat),
		})
		prevActive = active
	}
	return rows
}

// Writer lays files out under a data root.
type Writer struct {
	paths *paths.Resolver
}

// NewWriter returns a writer for root.
func NewWriter(root string) *Writer {
	return &Writer{paths: paths.New(root)}
}

// Root returns the data root.
func (w *Writer) Root() string { return w.paths.Root() }

// CountryReport writes the report of a country.
func (w *Writer) CountryReport(country string, days []Day) error {
	return WriteCSV(w.paths.CountryReport(country), Records(days))
}

// RegionReport writes the report of a region.
func (w *Writer) RegionReport(country, region string, days []Day) error {
	return WriteCSV(w.paths.RegionReport(country, region), Records(days))
}

// DailyReport writes one archive file holding a row per entity for date.
func (w *Writer) DailyReport(date time.Time, entities ...string) error {
	rows := [][]string{{domain.ColName, domain.ColConfirmed, domain.ColDeaths, domain.ColRecovered}}
	for i, e := range entities {
		n := int64(100 * (i + 1))
		rows = append(rows, []string{e, itoa(n), itoa(n / 50), itoa(n / 2)})
	}
	name := date.Format("2006-01-02") + ".csv"
	return WriteCSV(filepath.Join(w.paths.DailyReportsDir(), name), rows)
}

// CountriesStats writes the country attribute table.
func (w *Writer) CountriesStats(rows ...domain.EntityStats) error {
	return WriteCSV(w.paths.CountriesStats(), statsRecords(rows))
}

// RegionsStats writes the region attribute table of a country.
func (w *Writer) RegionsStats(country string, rows ...domain.EntityStats) error {
	return WriteCSV(w.paths.RegionsStats(country), statsRecords(rows))
}

// CountiesStats writes the county attribute table of a region.
func (w *Writer) CountiesStats(country, region string, rows ...domain.EntityStats) error {
	return WriteCSV(w.paths.CountiesStats(country, region), statsRecords(rows))
}

func statsRecords(rows []domain.EntityStats) [][]string {
	out := [][]string{{domain.ColName, "Continent", "Population"}}
	for _, r := range rows {
		out = append(out, []string{r.Name, r.Attributes["Continent"], strconv.FormatFloat(r.Population, 'f', -1, 64)})
	}
	return out
}

// WriteCSV writes records to path, creating parent directories.
func WriteCSV(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
