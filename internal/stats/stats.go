// Package stats reads per-entity attribute tables such as population.
package stats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/epi-report-service/internal/domain"
	"github.com/couchcryptid/epi-report-service/internal/paths"
)

const (
	opRead        = "read stats"
	colPopulation = "Population"
)

// Lookup reads stats files on every call. Nothing is cached.
type Lookup struct {
	paths *paths.Resolver
}

// NewLookup creates a lookup over the stats files resolved by p.
func NewLookup(p *paths.Resolver) *Lookup {
	return &Lookup{paths: p}
}

// Countries returns the global countries table.
func (l *Lookup) Countries() (domain.StatsTable, error) {
	return read("countries", l.paths.CountriesStats())
}

// Regions returns the regions table of a country.
func (l *Lookup) Regions(country string) (domain.StatsTable, error) {
	return read(country+"/regions", l.paths.RegionsStats(country))
}

// Counties returns the counties table of a region.
func (l *Lookup) Counties(country, region string) (domain.StatsTable, error) {
	return read(country+"/"+region+"/counties", l.paths.CountiesStats(country, region))
}

func read(scope, path string) (domain.StatsTable, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.StatsTable{}, domain.NotFound(opRead, path, err)
	}
	if err != nil {
		return domain.StatsTable{}, fmt.Errorf("%s %s: %w", opRead, path, err)
	}
	defer f.Close()

	rows, err := parse(f, path)
	if err != nil {
		return domain.StatsTable{}, err
	}
	return domain.NewStatsTable(scope, rows), nil
}

func parse(src io.Reader, path string) ([]domain.EntityStats, error) {
	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, domain.Malformed(opRead, path, "read header: %w", err)
	}
	nameIdx, popIdx := -1, -1
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch header[i] {
		case domain.ColName:
			nameIdx = i
		case colPopulation:
			popIdx = i
		}
	}
	if nameIdx < 0 || popIdx < 0 {
		return nil, domain.Malformed(opRead, path, "header must include %s and %s", domain.ColName, colPopulation)
	}

	var rows []domain.EntityStats
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.Malformed(opRead, path, "%w", err)
		}
		line, _ := reader.FieldPos(0)

		row := domain.EntityStats{
			Name:       strings.TrimSpace(record[nameIdx]),
			Attributes: make(map[string]string, len(header)-2),
		}
		if p := strings.TrimSpace(record[popIdx]); p != "" {
			row.Population, err = strconv.ParseFloat(p, 64)
			if err != nil || row.Population < 0 || math.IsNaN(row.Population) || math.IsInf(row.Population, 0) {
				return nil, domain.Malformed(opRead, path, "line %d: invalid %s %q", line, colPopulation, p)
			}
		}
		for i, h := range header {
			if i != nameIdx && i != popIdx && h != "" {
				row.Attributes[h] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
