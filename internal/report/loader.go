// Package report reads per-entity report files into typed reports.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/epi-report-service/internal/domain"
	"github.com/couchcryptid/epi-report-service/internal/observability"
	"github.com/couchcryptid/epi-report-service/internal/paths"
)

const opLoad = "load report"

// Options selects date handling. DateIsIndex is ignored when ParseDates is
// false.
type Options struct {
	ParseDates  bool
	DateIsIndex bool
}

var (
	// Indexed loads a report keyed by date, for wide aggregation.
	Indexed = Options{ParseDates: true, DateIsIndex: true}
	// Labeled loads a report with Date as a plain column and the entity name
	// as row label, for long aggregation.
	Labeled = Options{ParseDates: true}
	// Raw skips date parsing.
	Raw = Options{}
)

// Loader reads report files.
type Loader struct {
	paths   *paths.Resolver
	cache   *lruCache
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewLoader creates a loader. metrics may be nil.
func NewLoader(p *paths.Resolver, metrics *observability.Metrics, logger *slog.Logger) *Loader {
	return &Loader{paths: p, metrics: metrics, logger: logger}
}

// Paths returns the resolver the loader uses for entity lookups.
func (l *Loader) Paths() *paths.Resolver { return l.paths }

// LoadCountry loads the report of a country.
func (l *Loader) LoadCountry(country string, opts Options) (*domain.Report, error) {
	return l.Load(l.paths.CountryReport(country), opts)
}

// LoadRegion loads the report of a region within a country.
func (l *Loader) LoadRegion(country, region string, opts Options) (*domain.Report, error) {
	return l.Load(l.paths.RegionReport(country, region), opts)
}

// EnableCache keeps up to maxEntries parsed reports in memory. A cached
// report is reused only while its file's size and modification time are
// unchanged. Not safe to call concurrently with Load.
func (l *Loader) EnableCache(maxEntries int) {
	if maxEntries <= 0 {
		l.cache = nil
		return
	}
	l.cache = newLRUCache(maxEntries)
}

// Load reads the report at path. The entity name is the file stem.
// Reports served from the cache are shared and must not be mutated.
func (l *Loader) Load(path string, opts Options) (*domain.Report, error) {
	if l.cache == nil {
		return l.read(path, opts)
	}
	version, ok := statVersion(path)
	if !ok {
		return l.read(path, opts)
	}
	key := cacheKey(path, opts)
	if r, hit := l.cache.get(key, version); hit {
		l.countCache("hit")
		return r, nil
	}
	l.countCache("miss")
	r, err := l.read(path, opts)
	if err == nil {
		l.cache.put(key, version, r)
	}
	return r, err
}

func (l *Loader) countCache(result string) {
	if l.metrics != nil {
		l.metrics.ReportCacheLookups.WithLabelValues(result).Inc()
	}
}

func (l *Loader) read(path string, opts Options) (*domain.Report, error) {
	start := time.Now()
	r, err := readReport(path, opts)
	if l.metrics != nil {
		l.metrics.ReportLoadDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			l.metrics.ReportLoadErrors.WithLabelValues(domain.KindName(err)).Inc()
		} else {
			l.metrics.ReportsLoaded.Inc()
		}
	}
	if err != nil {
		l.logger.Debug("report load failed", "path", path, "error", err)
		return nil, err
	}
	l.logger.Debug("report loaded", "entity", r.Name, "rows", r.Len(), "columns", len(r.Columns))
	return r, nil
}

func readReport(path string, opts Options) (*domain.Report, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.NotFound(opLoad, path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", opLoad, path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return parse(f, path, name, opts)
}

// columnSlot maps a CSV field to a report column.
type columnSlot struct {
	field int
	col   *domain.Column
}

func parse(src io.Reader, path, name string, opts Options) (*domain.Report, error) {
	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.Malformed(opLoad, path, "empty file")
	}
	if err != nil {
		return nil, domain.Malformed(opLoad, path, "read header: %w", err)
	}

	r := &domain.Report{Name: name, DateIndexed: opts.ParseDates && opts.DateIsIndex}
	if opts.ParseDates {
		r.Dates = []time.Time{}
	}

	dateField := -1
	seen := make(map[string]bool)
	for i, h := range header {
		h = cleanHeader(h)
		switch {
		case h == domain.ColDate:
			dateField = i
		case h == "" || h == domain.ColName:
			// Index columns written by spreadsheet exports and entity labels
			// carry no values.
		case seen[h]:
			return nil, domain.Malformed(opLoad, path, "duplicate column %q", h)
		default:
			seen[h] = true
			r.Columns = append(r.Columns, domain.Column{Name: h, Kind: domain.KindOf(h)})
		}
	}
	if dateField < 0 {
		return nil, domain.Malformed(opLoad, path, "missing %s column", domain.ColDate)
	}
	var missing []string
	for _, c := range domain.RequiredColumns {
		if !seen[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, domain.Malformed(opLoad, path, "missing columns %s", strings.Join(missing, ", "))
	}
	// Slots are bound after the append loop so the pointers stay valid.
	var slots []columnSlot
	ci := 0
	for i, h := range header {
		h = cleanHeader(h)
		if h == domain.ColDate || h == "" || h == domain.ColName {
			continue
		}
		slots = append(slots, columnSlot{field: i, col: &r.Columns[ci]})
		ci++
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.Malformed(opLoad, path, "%w", err)
		}
		line, _ := reader.FieldPos(0)

		raw := strings.TrimSpace(record[dateField])
		if opts.ParseDates {
			d, err := domain.ParseDay(raw)
			if err != nil {
				return nil, domain.Malformed(opLoad, path, "line %d column %s: %w", line, domain.ColDate, err)
			}
			if n := len(r.Dates); n > 0 && !d.After(r.Dates[n-1]) {
				return nil, domain.Malformed(opLoad, path, "line %d: date %s is not after %s",
					line, domain.FormatDay(d), domain.FormatDay(r.Dates[n-1]))
			}
			r.Dates = append(r.Dates, d)
		}
		r.RawDates = append(r.RawDates, raw)

		for _, s := range slots {
			if err := appendCell(s.col, record[s.field]); err != nil {
				return nil, domain.Malformed(opLoad, path, "line %d column %s: %w", line, s.col.Name, err)
			}
		}
	}
	return r, nil
}

func cleanHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}

func isMissing(s string) bool {
	return s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null")
}

// appendCell coerces one cell to the column kind. Missing cells become 0.
func appendCell(c *domain.Column, cell string) error {
	cell = strings.TrimSpace(cell)
	if c.Kind == domain.KindFloat {
		v := 0.0
		if !isMissing(cell) {
			f, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return fmt.Errorf("invalid float %q", cell)
			}
			v = f
		}
		c.Floats = append(c.Floats, v)
		return nil
	}

	var v int64
	if !isMissing(cell) {
		n, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			// Exports of integer columns with gaps come out as "12.0".
			f, ferr := strconv.ParseFloat(cell, 64)
			if ferr != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return fmt.Errorf("invalid integer %q", cell)
			}
			n = int64(f)
		}
		v = n
	}
	c.Ints = append(c.Ints, v)
	return nil
}
