package domain

import (
	"fmt"
	"sort"
)

// EntityStats is one row of a stats file.
type EntityStats struct {
	Name       string            `json:"name"`
	Population float64           `json:"population"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// StatsTable is a stats file indexed by Name, sorted ascending.
type StatsTable struct {
	Scope string        `json:"scope"`
	Rows  []EntityStats `json:"rows"`
}

// NewStatsTable sorts rows by name.
func NewStatsTable(scope string, rows []EntityStats) StatsTable {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return StatsTable{Scope: scope, Rows: rows}
}

// Get returns the row for name.
func (t StatsTable) Get(name string) (EntityStats, error) {
	i := sort.Search(len(t.Rows), func(i int) bool { return t.Rows[i].Name >= name })
	if i < len(t.Rows) && t.Rows[i].Name == name {
		return t.Rows[i], nil
	}
	return EntityStats{}, NotFound("lookup stats", t.Scope, fmt.Errorf("no entity %q", name))
}

// Names returns the entity names in table order.
func (t StatsTable) Names() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Name
	}
	return out
}

// Location selects an entity at country, region or county granularity.
// The most specific non-empty level wins; a county needs its region.
type Location struct {
	Country string `json:"country"`
	Region  string `json:"region,omitempty"`
	County  string `json:"county,omitempty"`
}

func (l Location) String() string {
	s := l.Country
	if l.Region != "" {
		s += "/" + l.Region
	}
	if l.County != "" {
		s += "/" + l.County
	}
	return s
}

// Scope selects the entity level of an aggregation: countries when Country
// is empty, otherwise the regions of Country.
type Scope struct {
	Country string
}

func (s Scope) String() string {
	if s.Country == "" {
		return "countries"
	}
	return s.Country + "/regions"
}
