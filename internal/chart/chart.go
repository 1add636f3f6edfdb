// Package chart turns aggregation results into bar-chart payloads for the
// dashboard front-end. Every builder is a pure function of its inputs; the
// browser owns the chart instances and replaces them on each response.
package chart

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/floreser-dashboard/internal/domain"
)

// RankingDatasetLabel is the series label of the ranking chart.
const RankingDatasetLabel = "Área Acumulada"

// Dataset is one labeled bar series. Data is aligned with Chart.Labels.
type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// Chart is a bar chart: x-axis labels plus one or more series.
type Chart struct {
	Title    string    `json:"title"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type seriesKey struct {
	label string
	year  int
}

// BuildAreaChart charts accumulated area per year for the records selected
// by q. The x-axis holds the distinct years present, ascending, with gap
// years omitted. Series are keyed by the municipality when one is selected,
// by the state when only a state is, and by every state otherwise. A point
// is the summed area for its (label, year) pair, or 0 when there is none.
func BuildAreaChart(records []domain.Record, q domain.SeriesQuery) Chart {
	filtered := domain.FilteredSeries(records, q)
	municipality := strings.TrimSpace(q.Municipality)
	state := strings.TrimSpace(q.State)

	var labels []string
	keyOf := func(r domain.Record) string { return strings.TrimSpace(r.State) }
	switch {
	case municipality != "":
		labels = []string{municipality}
		keyOf = func(r domain.Record) string { return strings.TrimSpace(r.Name) }
	case state != "":
		labels = []string{state}
	default:
		labels = domain.DistinctStates(filtered)
	}

	years := make([]int, 0)
	seenYear := make(map[int]struct{})
	sums := make(map[seriesKey]float64)
	for _, r := range filtered {
		if _, ok := seenYear[r.Year]; !ok {
			seenYear[r.Year] = struct{}{}
			years = append(years, r.Year)
		}
		sums[seriesKey{label: keyOf(r), year: r.Year}] += r.Area
	}
	slices.Sort(years)

	datasets := make([]Dataset, 0, len(labels))
	for _, label := range labels {
		data := make([]float64, len(years))
		for i, y := range years {
			data[i] = sums[seriesKey{label: label, year: y}]
		}
		datasets = append(datasets, Dataset{Label: label, Data: data})
	}

	return Chart{
		Title:    areaTitle(q.Years, municipality, state),
		Labels:   yearLabels(years),
		Datasets: datasets,
	}
}

// BuildRankingChart charts the first limit entries of totals, which must
// already be ranked. A limit of zero or less keeps every entry. The title
// names the requested limit even when fewer entries exist.
func BuildRankingChart(totals []domain.MunicipalityTotal, state string, years domain.YearRange, limit int) Chart {
	if limit <= 0 {
		limit = len(totals)
	}
	top := totals[:min(limit, len(totals))]

	labels := make([]string, len(top))
	data := make([]float64, len(top))
	for i, mt := range top {
		labels[i] = mt.Municipality
		data[i] = mt.TotalArea
	}

	scope := strings.TrimSpace(state)
	if scope == "" {
		scope = "Geral"
	}
	return Chart{
		Title:    fmt.Sprintf("Top %d Municípios (%d-%d) - %s", limit, years.Start, years.End, scope),
		Labels:   labels,
		Datasets: []Dataset{{Label: RankingDatasetLabel, Data: data}},
	}
}

func areaTitle(years domain.YearRange, municipality, state string) string {
	span := fmt.Sprintf("(%d-%d)", years.Start, years.End)
	switch {
	case municipality != "":
		return "Área Acumulada " + span + " - " + municipality
	case state != "":
		return "Área Acumulada " + span + " - " + state
	default:
		return "Área Acumulada por Estado " + span
	}
}

func yearLabels(years []int) []string {
	out := make([]string, len(years))
	for i, y := range years {
		out[i] = strconv.Itoa(y)
	}
	return out
}
