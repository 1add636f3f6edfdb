package domain

import (
	"cmp"
	"slices"
	"strings"
)

// DistinctStates returns every non-empty trimmed state, in first-seen order.
func DistinctStates(records []Record) []string {
	seen := make(map[string]struct{})
	states := make([]string, 0)
	for _, r := range records {
		state := strings.TrimSpace(r.State)
		if state == "" {
			continue
		}
		if _, ok := seen[state]; ok {
			continue
		}
		seen[state] = struct{}{}
		states = append(states, state)
	}
	return states
}

// DistinctMunicipalities returns the trimmed municipality names recorded for
// state, in first-seen order. The comparison is exact after trimming.
func DistinctMunicipalities(records []Record, state string) []string {
	state = strings.TrimSpace(state)
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, r := range records {
		name := strings.TrimSpace(r.Name)
		if name == "" || strings.TrimSpace(r.State) != state {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// FilteredSeries returns the records inside q.Years, in source order.
// A municipality filter matches on name only and ignores q.State; a state
// filter applies only when no municipality is given.
func FilteredSeries(records []Record, q SeriesQuery) []Record {
	municipality := strings.TrimSpace(q.Municipality)
	state := strings.TrimSpace(q.State)

	out := make([]Record, 0)
	for _, r := range records {
		if !q.Years.Contains(r.Year) {
			continue
		}
		switch {
		case municipality != "":
			if strings.TrimSpace(r.Name) != municipality {
				continue
			}
		case state != "":
			if strings.TrimSpace(r.State) != state {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

type totalKey struct {
	state        string
	municipality string
}

// RankedMunicipalityTotals sums area per (state, municipality) over the
// records inside q.Years (and q.State, when set) and returns the totals in
// non-increasing order of area. Equal totals keep first-seen order; names
// are not used as a tie-break.
func RankedMunicipalityTotals(records []Record, q TotalsQuery) []MunicipalityTotal {
	state := strings.TrimSpace(q.State)

	index := make(map[totalKey]int)
	totals := make([]MunicipalityTotal, 0)
	for _, r := range records {
		rs := strings.TrimSpace(r.State)
		rn := strings.TrimSpace(r.Name)
		if rs == "" || rn == "" || !q.Years.Contains(r.Year) {
			continue
		}
		if state != "" && rs != state {
			continue
		}
		key := totalKey{state: rs, municipality: rn}
		i, ok := index[key]
		if !ok {
			i = len(totals)
			index[key] = i
			totals = append(totals, MunicipalityTotal{Municipality: rn, State: rs})
		}
		totals[i].TotalArea += r.Area
	}

	slices.SortStableFunc(totals, func(a, b MunicipalityTotal) int {
		return cmp.Compare(b.TotalArea, a.TotalArea)
	})
	return totals
}

// SeriesFor returns the per-year area of records, summing duplicates of the
// same year, ordered by ascending year. Years without records are omitted.
func SeriesFor(records []Record) []TimeSeriesPoint {
	byYear := make(map[int]float64)
	for _, r := range records {
		byYear[r.Year] += r.Area
	}
	points := make([]TimeSeriesPoint, 0, len(byYear))
	for year, area := range byYear {
		points = append(points, TimeSeriesPoint{Year: year, Area: area})
	}
	slices.SortFunc(points, func(a, b TimeSeriesPoint) int {
		return cmp.Compare(a.Year, b.Year)
	})
	return points
}
