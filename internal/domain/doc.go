// Package domain models secondary-forest area observations and the pure
// aggregation functions behind the dashboard's statistics endpoints.
//
// # Data Source
//
// Observations come from the FLORESER dataset published by Imazon: one CSV
// row per municipality per year with the area (in hectares) mapped in that
// year. Columns used:
//
//	state  Brazilian state name, e.g. "Pará"
//	name   municipality name, e.g. "Altamira"
//	year   four-digit year
//	area   area in hectares, decimal point notation
//
// The (state, name, year) triple is not unique in the source data. Duplicates
// are summed by the aggregations, never deduplicated.
//
// # Filtering Rules
//
// Year ranges are inclusive on both ends. String keys are trimmed and then
// compared exactly (case-sensitive). When both a municipality and a state are
// supplied to [FilteredSeries], the municipality wins and the state is ignored.
//
// # Ordering
//
// [DistinctStates] and [DistinctMunicipalities] return first-seen order, which
// is stable for a given file but carries no meaning. [RankedMunicipalityTotals]
// sorts by total area descending with a stable sort, so equal totals keep the
// order in which their municipality first appeared.
package domain
