// Package paths maps countries, regions and counties to report and stats
// files under a data root.
package paths

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/epi-report-service/internal/domain"
)

const csvExt = ".csv"

// Resolver locates report and stats files. It never opens them.
type Resolver struct {
	root string
}

// New returns a resolver rooted at the data directory.
func New(root string) *Resolver {
	return &Resolver{root: root}
}

// Root returns the data directory.
func (r *Resolver) Root() string { return r.root }

func (r *Resolver) reportsDir() string   { return filepath.Join(r.root, "reports") }
func (r *Resolver) countriesDir() string { return filepath.Join(r.reportsDir(), "countries") }
func (r *Resolver) statsDir() string     { return filepath.Join(r.root, "stats") }

func (r *Resolver) regionsDir(country string) string {
	return filepath.Join(r.countriesDir(), country, "regions")
}

// CountryReport returns <root>/reports/countries/<country>/<country>.csv.
func (r *Resolver) CountryReport(country string) string {
	return filepath.Join(r.countriesDir(), country, country+csvExt)
}

// RegionReport returns <root>/reports/countries/<country>/regions/<region>.csv.
func (r *Resolver) RegionReport(country, region string) string {
	return filepath.Join(r.regionsDir(country), region+csvExt)
}

// DailyReportsDir returns the daily archive directory.
func (r *Resolver) DailyReportsDir() string {
	return filepath.Join(r.reportsDir(), "dayByDay")
}

// CountriesStats returns <root>/stats/countries.csv.
func (r *Resolver) CountriesStats() string {
	return filepath.Join(r.statsDir(), "countries"+csvExt)
}

// RegionsStats returns <root>/stats/<country>/regions.csv.
func (r *Resolver) RegionsStats(country string) string {
	return filepath.Join(r.statsDir(), country, "regions"+csvExt)
}

// CountiesStats returns <root>/stats/<country>/<region>/counties.csv.
func (r *Resolver) CountiesStats(country, region string) string {
	return filepath.Join(r.statsDir(), country, region, "counties"+csvExt)
}

// Countries lists the country directories in listing order.
func (r *Resolver) Countries() ([]string, error) {
	entries, err := readDir("list countries", r.countriesDir())
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// Regions lists the region reports of a country, without the file extension.
func (r *Resolver) Regions(country string) ([]string, error) {
	entries, err := readDir("list regions", r.regionsDir(country))
	if err != nil {
		return nil, err
	}
	return csvStems(entries), nil
}

// DailyReports lists the daily archive file names in listing order.
func (r *Resolver) DailyReports() ([]string, error) {
	entries, err := readDir("list daily reports", r.DailyReportsDir())
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), csvExt) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func readDir(op, dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.NotFound(op, dir, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, dir, err)
	}
	return entries, nil
}

func csvStems(entries []os.DirEntry) []string {
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), csvExt) {
			continue
		}
		out = append(out, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	return out
}
