package report_test

import (
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/epi-report-service/internal/domain"
	"github.com/couchcryptid/epi-report-service/internal/observability"
	"github.com/couchcryptid/epi-report-service/internal/paths"
	"github.com/couchcryptid/epi-report-service/internal/report"
	"github.com/couchcryptid/epi-report-service/internal/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullHeader = "Date,Confirmed,Active,Recovered,Deaths,Confirmed_Change,Active_Change,Recovered_Change,Deaths_Change,Rt,Time_To_Resolve\n"

var april1 = time.Date(2020, time.April, 1, 0, 0, 0, 0, time.UTC)

func newLoader(t *testing.T) (*report.Loader, string) {
	t.Helper()
	root := t.TempDir()
	return report.NewLoader(paths.New(root), observability.NewMetricsForTesting(), slog.Default()), root
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCountry_Indexed(t *testing.T) {
	loader, root := newLoader(t)
	w := sample.NewWriter(root)
	require.NoError(t, w.CountryReport("Russia", sample.Days(april1, 10, 20, 30)))

	r, err := loader.LoadCountry("Russia", report.Indexed)
	require.NoError(t, err)

	assert.Equal(t, "Russia", r.Name)
	assert.True(t, r.DateIndexed)
	assert.Equal(t, []time.Time{april1, april1.AddDate(0, 0, 1), april1.AddDate(0, 0, 2)}, r.Dates)
	assert.Equal(t, []string{"01-04-2020", "02-04-2020", "03-04-2020"}, r.RawDates)

	confirmed, ok := r.Column(domain.ColConfirmed)
	require.True(t, ok)
	assert.Equal(t, domain.KindInt, confirmed.Kind)
	assert.Equal(t, []int64{10, 30, 60}, confirmed.Ints)

	rt, ok := r.Column(domain.ColRt)
	require.True(t, ok)
	assert.Equal(t, domain.KindFloat, rt.Kind)
	assert.Equal(t, []float64{0.8, 0.9, 1}, rt.Floats)
}

func TestLoadRegion_LabeledAndRaw(t *testing.T) {
	loader, root := newLoader(t)
	require.NoError(t, sample.NewWriter(root).RegionReport("Russia", "Moscow", sample.Days(april1, 1, 2)))

	labeled, err := loader.LoadRegion("Russia", "Moscow", report.Labeled)
	require.NoError(t, err)
	assert.False(t, labeled.DateIndexed)
	assert.Equal(t, "Moscow", labeled.Name)
	assert.Len(t, labeled.Dates, 2)

	raw, err := loader.LoadRegion("Russia", "Moscow", report.Raw)
	require.NoError(t, err)
	assert.False(t, raw.DateIndexed)
	assert.Nil(t, raw.Dates)
	assert.Equal(t, []string{"01-04-2020", "02-04-2020"}, raw.RawDates)
	c, _ := raw.Column(domain.ColConfirmedChange)
	assert.Equal(t, domain.KindInt, c.Kind, "schema applies without date parsing")
}

func TestLoad_DateIsIndexIgnoredWithoutParsing(t *testing.T) {
	loader, root := newLoader(t)
	path := writeFile(t, filepath.Join(root, "x.csv"), fullHeader+"01-04-2020,1,1,0,0,1,1,0,0,1.0,14\n")

	r, err := loader.Load(path, report.Options{ParseDates: false, DateIsIndex: true})
	require.NoError(t, err)
	assert.False(t, r.DateIndexed)
}

func TestLoad_Coercion(t *testing.T) {
	loader, root := newLoader(t)
	path := writeFile(t, filepath.Join(root, "Tyrol.csv"),
		"\ufeff"+strings.TrimSuffix(fullHeader, "\n")+",Tests\n"+
			"05-03-2020,3,,0,0,3.0,NaN,0,0,,14.5,120\n"+
			"06-03-2020,4,4,0,0,1,1,0,0,1.25,,\n")

	r, err := loader.Load(path, report.Indexed)
	require.NoError(t, err)

	active, _ := r.Column(domain.ColActive)
	assert.Equal(t, []int64{0, 4}, active.Ints, "empty integer cells load as 0")
	change, _ := r.Column(domain.ColConfirmedChange)
	assert.Equal(t, []int64{3, 1}, change.Ints, "integral floats are accepted in integer columns")
	rt, _ := r.Column(domain.ColRt)
	assert.Equal(t, []float64{0, 1.25}, rt.Floats)
	extra, ok := r.Column("Tests")
	require.True(t, ok, "extra columns are kept")
	assert.Equal(t, domain.KindFloat, extra.Kind)
	assert.Equal(t, []float64{120, 0}, extra.Floats)
	assert.Equal(t, time.Date(2020, time.March, 5, 0, 0, 0, 0, time.UTC), r.Dates[0], "dates are day-first")
}

func TestLoad_UnresolvedTimeToResolveIsInfinite(t *testing.T) {
	loader, root := newLoader(t)
	path := writeFile(t, filepath.Join(root, "Italy.csv"), fullHeader+
		"01-04-2020,1,1,0,0,1,1,0,0,1.0,5\n"+
		"02-04-2020,2,2,0,0,1,1,0,0,1.0,Infinity\n")

	r, err := loader.Load(path, report.Indexed)
	require.NoError(t, err)

	ttr, _ := r.Column(domain.ColTimeToResolve)
	require.Len(t, ttr.Floats, 2)
	assert.InDelta(t, 5, ttr.Floats[0], 0)
	assert.True(t, math.IsInf(ttr.Floats[1], 1))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		opts    report.Options
		kind    error
		msg     string
	}{
		{
			name:    "fractional integer",
			content: fullHeader + "01-04-2020,1.5,1,0,0,1,1,0,0,1.0,14\n",
			opts:    report.Indexed,
			kind:    domain.ErrMalformed,
			msg:     "column Confirmed",
		},
		{
			name:    "text in float column",
			content: fullHeader + "01-04-2020,1,1,0,0,1,1,0,0,high,14\n",
			opts:    report.Raw,
			kind:    domain.ErrMalformed,
			msg:     "column Rt",
		},
		{
			name:    "integer out of range",
			content: fullHeader + "01-04-2020,1e300,1,0,0,1,1,0,0,1.0,14\n",
			opts:    report.Indexed,
			kind:    domain.ErrMalformed,
			msg:     "column Confirmed",
		},
		{
			name:    "infinite integer",
			content: fullHeader + "01-04-2020,Infinity,1,0,0,1,1,0,0,1.0,14\n",
			opts:    report.Indexed,
			kind:    domain.ErrMalformed,
			msg:     "column Confirmed",
		},
		{
			name:    "bad date",
			content: fullHeader + "2020/31/12,1,1,0,0,1,1,0,0,1.0,14\n",
			opts:    report.Indexed,
			kind:    domain.ErrMalformed,
			msg:     "column Date",
		},
		{
			name:    "out of order dates",
			content: fullHeader + "02-04-2020,1,1,0,0,1,1,0,0,1.0,14\n01-04-2020,1,1,0,0,1,1,0,0,1.0,14\n",
			opts:    report.Indexed,
			kind:    domain.ErrMalformed,
			msg:     "is not after",
		},
		{
			name:    "missing schema column",
			content: "Date,Confirmed\n01-04-2020,1\n",
			opts:    report.Indexed,
			kind:    domain.ErrMalformed,
			msg:     "missing columns Deaths",
		},
		{
			name:    "missing date column",
			content: "Day,Confirmed\n01-04-2020,1\n",
			opts:    report.Raw,
			kind:    domain.ErrMalformed,
			msg:     "missing Date column",
		},
		{
			name:    "ragged row",
			content: fullHeader + "01-04-2020,1\n",
			opts:    report.Indexed,
			kind:    domain.ErrMalformed,
		},
		{
			name: "empty file",
			opts: report.Indexed,
			kind: domain.ErrMalformed,
			msg:  "empty file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, root := newLoader(t)
			path := writeFile(t, filepath.Join(root, "Bad.csv"), tt.content)

			_, err := loader.Load(path, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			assert.Contains(t, err.Error(), path)
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestLoad_MissingFileIsNotFound(t *testing.T) {
	loader, _ := newLoader(t)

	r, err := loader.LoadCountry("Atlantis", report.Indexed)

	assert.Nil(t, r)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_HeaderOnly(t *testing.T) {
	loader, root := newLoader(t)
	path := writeFile(t, filepath.Join(root, "Empty.csv"), fullHeader)

	r, err := loader.Load(path, report.Indexed)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestLoad_CacheReusesUntilFileChanges(t *testing.T) {
	loader, root := newLoader(t)
	loader.EnableCache(8)
	w := sample.NewWriter(root)
	require.NoError(t, w.CountryReport("Russia", sample.Days(april1, 10, 20, 30)))

	first, err := loader.LoadCountry("Russia", report.Indexed)
	require.NoError(t, err)
	again, err := loader.LoadCountry("Russia", report.Indexed)
	require.NoError(t, err)
	assert.Same(t, first, again)

	labeled, err := loader.LoadCountry("Russia", report.Labeled)
	require.NoError(t, err)
	assert.NotSame(t, first, labeled)

	require.NoError(t, w.CountryReport("Russia", sample.Days(april1, 10, 20, 30, 40)))
	fresh, err := loader.LoadCountry("Russia", report.Indexed)
	require.NoError(t, err)
	assert.Equal(t, 4, fresh.Len())
}

func TestLoad_CacheDoesNotHideMissingFiles(t *testing.T) {
	loader, _ := newLoader(t)
	loader.EnableCache(8)

	_, err := loader.LoadCountry("Atlantis", report.Indexed)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
