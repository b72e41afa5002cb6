package domain

import "strings"

// Kind is the storage type of a report column.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
)

func (k Kind) String() string {
	if k == KindInt {
		return "int"
	}
	return "float"
}

// Report column names.
const (
	ColDate            = "Date"
	ColName            = "Name"
	ColConfirmed       = "Confirmed"
	ColDeaths          = "Deaths"
	ColRecovered       = "Recovered"
	ColActive          = "Active"
	ColConfirmedChange = "Confirmed_Change"
	ColDeathsChange    = "Deaths_Change"
	ColRecoveredChange = "Recovered_Change"
	ColActiveChange    = "Active_Change"
	ColRt              = "Rt"
	ColTimeToResolve   = "Time_To_Resolve"
)

// RequiredColumns lists the value columns every report file must carry.
var RequiredColumns = []string{
	ColConfirmed,
	ColDeaths,
	ColRecovered,
	ColConfirmedChange,
	ColDeathsChange,
	ColRecoveredChange,
	ColActive,
	ColRt,
	ColTimeToResolve,
}

var schema = map[string]Kind{
	ColConfirmed:       KindInt,
	ColDeaths:          KindInt,
	ColRecovered:       KindInt,
	ColActive:          KindInt,
	ColConfirmedChange: KindInt,
	ColDeathsChange:    KindInt,
	ColRecoveredChange: KindInt,
	ColActiveChange:    KindInt,
	ColRt:              KindFloat,
	ColTimeToResolve:   KindFloat,
}

// KindOf returns the fixed kind of a column. Columns outside the schema are
// counts when they follow the "<Metric>_Change" naming, floats otherwise.
func KindOf(column string) Kind {
	if k, ok := schema[column]; ok {
		return k
	}
	if strings.HasSuffix(column, "_Change") {
		return KindInt
	}
	return KindFloat
}
