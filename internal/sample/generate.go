package sample

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/couchcryptid/epi-report-service/internal/domain"
)

// Country describes one generated country and its regions.
type Country struct {
	Name       string
	Continent  string
	Population float64
	Regions    []string
}

// Options controls Generate.
type Options struct {
	Start     time.Time
	Days      int
	Seed      uint64
	Countries []Country
	// PartialLastDay writes the newest daily archive file with a single row.
	PartialLastDay bool
}

// DefaultOptions returns a small archive shaped like the production one.
func DefaultOptions() Options {
	return Options{
		Start: time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC),
		Days:  90,
		Seed:  42,
		Countries: []Country{
			{Name: "Russia", Continent: "Europe", Population: 146_748_590, Regions: []string{"Moscow", "SPB", "Tatarstan"}},
			{Name: "Austria", Continent: "Europe", Population: 8_901_064, Regions: []string{"Vienna", "Tyrol"}},
			{Name: "Brazil", Continent: "South America", Population: 211_049_527},
		},
		PartialLastDay: true,
	}
}

// Stats summarises what Generate wrote.
type Stats struct {
	Reports      int
	DailyReports int
	StatsFiles   int
}

// Generate writes a complete archive: country and region reports following a
// noisy epidemic curve, a daily archive and the stats tables.
func Generate(w *Writer, opts Options) (Stats, error) {
	var st Stats
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	countryRows := make([]domain.EntityStats, 0, len(opts.Countries))
	names := make([]string, 0, len(opts.Countries))
	for _, c := range opts.Countries {
		names = append(names, c.Name)
		countryRows = append(countryRows, domain.EntityStats{
			Name:       c.Name,
			Population: c.Population,
			Attributes: map[string]string{"Continent": c.Continent},
		})

		if err := w.CountryReport(c.Name, curve(rng, opts.Start, opts.Days, c.Population/1e5)); err != nil {
			return st, err
		}
		st.Reports++

		regionRows := make([]domain.EntityStats, 0, len(c.Regions))
		for i, r := range c.Regions {
			share := 1 / float64(len(c.Regions)+i)
			// Regions start reporting a few days after the country.
			start := opts.Start.AddDate(0, 0, 3*(i+1))
			if err := w.RegionReport(c.Name, r, curve(rng, start, opts.Days-3*(i+1), c.Population*share/1e5)); err != nil {
				return st, err
			}
			st.Reports++
			regionRows = append(regionRows, domain.EntityStats{
				Name:       r,
				Population: math.Round(c.Population * share),
				Attributes: map[string]string{"Continent": c.Continent},
			})
		}
		if len(regionRows) > 0 {
			if err := w.RegionsStats(c.Name, regionRows...); err != nil {
				return st, err
			}
			st.StatsFiles++
		}
	}
	if err := w.CountriesStats(countryRows...); err != nil {
		return st, err
	}
	st.StatsFiles++

	for i := 0; i < opts.Days; i++ {
		entities := names
		if opts.PartialLastDay && i == opts.Days-1 {
			entities = names[:1]
		}
		if err := w.DailyReport(opts.Start.AddDate(0, 0, i), entities...); err != nil {
			return st, fmt.Errorf("daily report %d: %w", i, err)
		}
		st.DailyReports++
	}
	return st, nil
}

// curve produces a bell-shaped series of new cases peaking mid-way.
func curve(rng *rand.Rand, start time.Time, days int, peak float64) []Day {
	if days <= 0 {
		return nil
	}
	changes := make([]int64, days)
	mid := float64(days) / 2
	width := float64(days) / 6
	for i := range changes {
		x := (float64(i) - mid) / width
		base := peak * math.Exp(-x*x/2)
		noise := 1 + (rng.Float64()-0.5)*0.2
		changes[i] = int64(math.Max(0, math.Round(base*noise)))
	}
	return Days(start, changes...)
}
