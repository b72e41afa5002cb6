// Package domain models epidemiological case reports and the tables derived
// from them.
//
// # Data Layout
//
// Reports live under a single data root:
//
//	<data>/reports/countries/<country>/<country>.csv         country report
//	<data>/reports/countries/<country>/regions/<region>.csv  region report
//	<data>/reports/dayByDay/<yyyy-mm-dd>.csv                 daily archive, all entities
//	<data>/stats/countries.csv                               country attributes
//	<data>/stats/<country>/regions.csv                       region attributes
//	<data>/stats/<country>/<region>/counties.csv             county attributes
//
// Entity names are the directory and file stems. Listing order is whatever
// the filesystem returns sorted by name; callers needing a specific order
// pass an explicit include list.
//
// # Report Conventions
//
// Report files have a Date column plus the value columns in [RequiredColumns]:
//
//	Confirmed, Deaths, Recovered          cumulative counts (int)
//	Confirmed_Change, Deaths_Change, ...  day-over-day deltas (int)
//	Active                                Confirmed - Deaths - Recovered (int)
//	Rt                                    reproduction number estimate (float)
//	Time_To_Resolve                       days from confirmation to outcome (float)
//
// Column kinds come from [KindOf], never from the file. Empty numeric cells
// load as 0; a fractional value in an integer column is malformed.
//
// Dates are day-first: "01-04-2020" is 1 April 2020. Slashes and dots are
// accepted as separators, and ISO dates parse as-is. Rows are one per day in
// ascending order; a file with out-of-order or repeated dates is malformed.
//
// # Aggregated Tables
//
// A [WideTable] is one report column for many entities on the union of their
// dates. Missing cells are filled with 0 (no reported activity), and
// [WideTable.Observed] keeps the distinction between a filled cell and a
// reported zero. A [LongTable] stacks each entity's own rows with the entity
// name as a label; missing value columns are 0.
//
// # Weeks
//
// Weekly buckets open on Monday and carry the Monday as their label. Both
// [Weekly] resampling and [Calendar] use [WeekStart], so resampled series line
// up with hand-built weekly axes.
//
// # Errors
//
// Failures match one of [ErrNotFound], [ErrMalformed] or [ErrDegenerate].
// Nothing is retried and aggregation never returns a partial table.
package domain
