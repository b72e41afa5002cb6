package stats_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/epi-report-service/internal/domain"
	"github.com/couchcryptid/epi-report-service/internal/paths"
	"github.com/couchcryptid/epi-report-service/internal/sample"
	"github.com/couchcryptid/epi-report-service/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountries_SortedByName(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, sample.NewWriter(root).CountriesStats(
		domain.EntityStats{Name: "Russia", Population: 146_748_590, Attributes: map[string]string{"Continent": "Europe"}},
		domain.EntityStats{Name: "Brazil", Population: 211_049_527, Attributes: map[string]string{"Continent": "South America"}},
		domain.EntityStats{Name: "Austria", Population: 8_901_064, Attributes: map[string]string{"Continent": "Europe"}},
	))

	tbl, err := stats.NewLookup(paths.New(root)).Countries()
	require.NoError(t, err)

	assert.Equal(t, []string{"Austria", "Brazil", "Russia"}, tbl.Names())
	brazil, err := tbl.Get("Brazil")
	require.NoError(t, err)
	assert.InDelta(t, 211_049_527, brazil.Population, 0)
	assert.Equal(t, "South America", brazil.Attributes["Continent"])
}

func TestRegionsAndCounties(t *testing.T) {
	root := t.TempDir()
	w := sample.NewWriter(root)
	require.NoError(t, w.RegionsStats("Russia", domain.EntityStats{Name: "Moscow", Population: 12_600_000}))
	require.NoError(t, w.CountiesStats("USA", "New York", domain.EntityStats{Name: "Kings", Population: 2_559_903}))
	lookup := stats.NewLookup(paths.New(root))

	regions, err := lookup.Regions("Russia")
	require.NoError(t, err)
	assert.Equal(t, []string{"Moscow"}, regions.Names())

	counties, err := lookup.Counties("USA", "New York")
	require.NoError(t, err)
	kings, err := counties.Get("Kings")
	require.NoError(t, err)
	assert.InDelta(t, 2_559_903, kings.Population, 0)
}

func TestLookup_RereadsFile(t *testing.T) {
	root := t.TempDir()
	w := sample.NewWriter(root)
	lookup := stats.NewLookup(paths.New(root))
	require.NoError(t, w.CountriesStats(domain.EntityStats{Name: "Russia", Population: 1}))

	first, err := lookup.Countries()
	require.NoError(t, err)

	require.NoError(t, w.CountriesStats(domain.EntityStats{Name: "Russia", Population: 2}))
	second, err := lookup.Countries()
	require.NoError(t, err)

	assert.InDelta(t, 1, first.Rows[0].Population, 0)
	assert.InDelta(t, 2, second.Rows[0].Population, 0)
}

func TestLookup_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := stats.NewLookup(paths.New(t.TempDir())).Regions("Atlantis")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("missing population column", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, sample.WriteCSV(filepath.Join(root, "stats", "countries.csv"), [][]string{{"Name", "Continent"}, {"Russia", "Europe"}}))
		_, err := stats.NewLookup(paths.New(root)).Countries()
		assert.True(t, errors.Is(err, domain.ErrMalformed))
	})

	t.Run("non numeric population", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, sample.WriteCSV(filepath.Join(root, "stats", "countries.csv"), [][]string{{"Name", "Population"}, {"Russia", "many"}}))
		_, err := stats.NewLookup(paths.New(root)).Countries()
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrMalformed))
		assert.Contains(t, err.Error(), "line 2")
	})

	for _, p := range []string{"NaN", "Inf", "-Infinity", "-1"} {
		t.Run("population "+p, func(t *testing.T) {
			root := t.TempDir()
			require.NoError(t, sample.WriteCSV(filepath.Join(root, "stats", "countries.csv"), [][]string{{"Name", "Population"}, {"Russia", p}}))
			_, err := stats.NewLookup(paths.New(root)).Countries()
			assert.True(t, errors.Is(err, domain.ErrMalformed), "got %v", err)
		})
	}

	t.Run("unknown entity", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, sample.NewWriter(root).CountriesStats(domain.EntityStats{Name: "Russia", Population: 1}))
		tbl, err := stats.NewLookup(paths.New(root)).Countries()
		require.NoError(t, err)
		_, err = tbl.Get("Atlantis")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}
