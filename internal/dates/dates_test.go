package dates_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/epi-report-service/internal/dates"
	"github.com/couchcryptid/epi-report-service/internal/domain"
	"github.com/couchcryptid/epi-report-service/internal/paths"
	"github.com/couchcryptid/epi-report-service/internal/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2020, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAvailable_TruncatesSingleRowLastDay(t *testing.T) {
	root := t.TempDir()
	w := sample.NewWriter(root)
	require.NoError(t, w.DailyReport(day(time.September, 28), "Russia", "Austria"))
	require.NoError(t, w.DailyReport(day(time.September, 29), "Russia", "Austria"))
	require.NoError(t, w.DailyReport(day(time.September, 30), "Russia"))

	span, err := dates.NewService(paths.New(root), nil).Available()
	require.NoError(t, err)

	assert.Equal(t, day(time.September, 28), span.First)
	assert.Equal(t, day(time.September, 29), span.Last)
}

func TestAvailable_CompleteLastDay(t *testing.T) {
	root := t.TempDir()
	w := sample.NewWriter(root)
	require.NoError(t, w.DailyReport(day(time.March, 1), "Russia", "Austria"))
	require.NoError(t, w.DailyReport(day(time.March, 2), "Russia", "Austria"))

	span, err := dates.NewService(paths.New(root), nil).Available()
	require.NoError(t, err)

	assert.Equal(t, domain.DateSpan{First: day(time.March, 1), Last: day(time.March, 2)}, span)
}

func TestAvailable_IsRecomputedOnEveryCall(t *testing.T) {
	root := t.TempDir()
	w := sample.NewWriter(root)
	svc := dates.NewService(paths.New(root), nil)
	require.NoError(t, w.DailyReport(day(time.March, 1), "Russia", "Austria"))

	span, err := svc.Available()
	require.NoError(t, err)
	assert.Equal(t, day(time.March, 1), span.Last)

	require.NoError(t, w.DailyReport(day(time.March, 2), "Russia", "Austria"))
	span, err = svc.Available()
	require.NoError(t, err)
	assert.Equal(t, day(time.March, 2), span.Last)
}

func TestAvailable_IgnoresNonCSVFiles(t *testing.T) {
	root := t.TempDir()
	w := sample.NewWriter(root)
	require.NoError(t, w.DailyReport(day(time.March, 1), "Russia", "Austria"))
	require.NoError(t, w.DailyReport(day(time.March, 3), "Russia", "Austria"))
	dir := paths.New(root).DailyReportsDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o600))

	span, err := dates.NewService(paths.New(root), nil).Available()
	require.NoError(t, err)
	assert.Equal(t, day(time.March, 3), span.Last)
}

func TestAvailable_Errors(t *testing.T) {
	t.Run("missing archive", func(t *testing.T) {
		_, err := dates.NewService(paths.New(t.TempDir()), nil).Available()
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("empty archive", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(paths.New(root).DailyReportsDir(), 0o755))
		_, err := dates.NewService(paths.New(root), nil).Available()
		assert.True(t, errors.Is(err, domain.ErrDegenerate))
	})

	t.Run("undated file name", func(t *testing.T) {
		root := t.TempDir()
		dir := paths.New(root).DailyReportsDir()
		require.NoError(t, sample.WriteCSV(filepath.Join(dir, "latest.csv"), [][]string{{"Name"}, {"Russia"}}))
		_, err := dates.NewService(paths.New(root), nil).Available()
		assert.True(t, errors.Is(err, domain.ErrMalformed))
	})
}

func TestCalendar(t *testing.T) {
	root := t.TempDir()
	w := sample.NewWriter(root)
	require.NoError(t, w.DailyReport(day(time.September, 2), "Russia", "Austria"))
	require.NoError(t, w.DailyReport(day(time.September, 30), "Russia"))

	cal, err := dates.NewService(paths.New(root), nil).Calendar()
	require.NoError(t, err)

	assert.Equal(t, day(time.August, 31), cal.FirstWeek)
	assert.Equal(t, day(time.September, 29), cal.LastDay)
	assert.Equal(t, day(time.September, 28), cal.LastWeek)
}
