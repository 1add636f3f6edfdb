package domain

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fullRange = YearRange{Start: 2008, End: 2023}

func exampleRecords() []Record {
	return []Record{
		{State: "PA", Name: "Altamira", Year: 2020, Area: 100},
		{State: "PA", Name: "Altamira", Year: 2021, Area: 50},
		{State: "AM", Name: "Manaus", Year: 2020, Area: 30},
	}
}

func mixedRecords() []Record {
	return []Record{
		{State: " PA ", Name: "Altamira", Year: 2007, Area: 999},
		{State: "PA", Name: " Altamira", Year: 2008, Area: 10},
		{State: "PA", Name: "Marabá", Year: 2010, Area: 40},
		{State: "AM", Name: "Lábrea", Year: 2015, Area: 25},
		{State: "AM", Name: "Altamira", Year: 2016, Area: 5},
		{State: "", Name: "Sem Estado", Year: 2016, Area: 7},
		{State: "  ", Name: "Espaço", Year: 2016, Area: 3},
		{State: "MT", Name: "", Year: 2018, Area: 12},
		{State: "PA", Name: "Altamira", Year: 2023, Area: 20},
		{State: "PA", Name: "Altamira", Year: 2024, Area: 500},
		{State: "PA", Name: "Altamira", Year: 2023, Area: 1},
	}
}

func TestDistinctStates(t *testing.T) {
	states := DistinctStates(mixedRecords())
	assert.Equal(t, []string{"PA", "AM", "MT"}, states)

	for _, s := range states {
		assert.NotEmpty(t, s)
	}
}

func TestDistinctStates_Empty(t *testing.T) {
	states := DistinctStates(nil)
	require.NotNil(t, states)
	assert.Empty(t, states)
}

func TestDistinctMunicipalities(t *testing.T) {
	t.Run("example", func(t *testing.T) {
		assert.Equal(t, []string{"Altamira"}, DistinctMunicipalities(exampleRecords(), "PA"))
	})

	t.Run("trims keys and drops duplicates", func(t *testing.T) {
		assert.Equal(t, []string{"Altamira", "Marabá"}, DistinctMunicipalities(mixedRecords(), " PA"))
	})

	t.Run("case sensitive", func(t *testing.T) {
		assert.Empty(t, DistinctMunicipalities(mixedRecords(), "pa"))
	})

	t.Run("skips empty names", func(t *testing.T) {
		assert.Empty(t, DistinctMunicipalities(mixedRecords(), "MT"))
	})
}

func TestFilteredSeries(t *testing.T) {
	records := mixedRecords()

	t.Run("year range is inclusive", func(t *testing.T) {
		got := FilteredSeries(records, SeriesQuery{Years: YearRange{Start: 2008, End: 2023}})
		for _, r := range got {
			assert.GreaterOrEqual(t, r.Year, 2008)
			assert.LessOrEqual(t, r.Year, 2023)
		}
		assert.Len(t, got, 9)
	})

	t.Run("state only", func(t *testing.T) {
		got := FilteredSeries(records, SeriesQuery{State: "AM", Years: fullRange})
		require.Len(t, got, 2)
		assert.Equal(t, "Lábrea", got[0].Name)
		assert.Equal(t, "Altamira", got[1].Name)
	})

	t.Run("municipality matches across states", func(t *testing.T) {
		got := FilteredSeries(records, SeriesQuery{Municipality: "Altamira", Years: fullRange})
		years := make([]int, 0, len(got))
		for _, r := range got {
			years = append(years, r.Year)
		}
		assert.Equal(t, []int{2008, 2016, 2023, 2023}, years)
	})

	t.Run("municipality overrides state", func(t *testing.T) {
		withState := FilteredSeries(records, SeriesQuery{State: "MT", Municipality: "Altamira", Years: fullRange})
		without := FilteredSeries(records, SeriesQuery{Municipality: "Altamira", Years: fullRange})
		if diff := cmp.Diff(without, withState); diff != "" {
			t.Fatalf("state should be ignored when a municipality is set (-want +got):\n%s", diff)
		}
	})

	t.Run("inverted range is empty", func(t *testing.T) {
		got := FilteredSeries(records, SeriesQuery{Years: YearRange{Start: 2023, End: 2008}})
		assert.Empty(t, got)
	})
}

func TestRankedMunicipalityTotals_Example(t *testing.T) {
	got := RankedMunicipalityTotals(exampleRecords(), TotalsQuery{Years: YearRange{Start: 2020, End: 2021}})
	want := []MunicipalityTotal{
		{Municipality: "Altamira", State: "PA", TotalArea: 150},
		{Municipality: "Manaus", State: "AM", TotalArea: 30},
	}
	assert.Equal(t, want, got)
}

func TestRankedMunicipalityTotals_SortedAndConserved(t *testing.T) {
	records := mixedRecords()
	q := TotalsQuery{Years: fullRange}

	got := RankedMunicipalityTotals(records, q)
	require.NotEmpty(t, got)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].TotalArea, got[i].TotalArea, "totals must be non-increasing")
	}

	var wantSum float64
	for _, r := range records {
		if fullRange.Contains(r.Year) && strings.TrimSpace(r.State) != "" && strings.TrimSpace(r.Name) != "" {
			wantSum += r.Area
		}
	}
	var gotSum float64
	for _, mt := range got {
		gotSum += mt.TotalArea
	}
	assert.InDelta(t, wantSum, gotSum, 1e-9)
}

func TestRankedMunicipalityTotals_KeyIsStateAndName(t *testing.T) {
	got := RankedMunicipalityTotals(mixedRecords(), TotalsQuery{Years: fullRange})

	want := []MunicipalityTotal{
		{Municipality: "Marabá", State: "PA", TotalArea: 40},
		{Municipality: "Altamira", State: "PA", TotalArea: 31},
		{Municipality: "Lábrea", State: "AM", TotalArea: 25},
		{Municipality: "Altamira", State: "AM", TotalArea: 5},
	}
	assert.Equal(t, want, got)
}

func TestRankedMunicipalityTotals_StateFilter(t *testing.T) {
	got := RankedMunicipalityTotals(mixedRecords(), TotalsQuery{State: "AM", Years: fullRange})
	require.Len(t, got, 2)
	for _, mt := range got {
		assert.Equal(t, "AM", mt.State)
	}
}

func TestRankedMunicipalityTotals_TiesKeepFirstSeenOrder(t *testing.T) {
	records := []Record{
		{State: "PA", Name: "Zeta", Year: 2010, Area: 10},
		{State: "PA", Name: "Alfa", Year: 2010, Area: 10},
		{State: "AM", Name: "Meio", Year: 2010, Area: 10},
	}
	got := RankedMunicipalityTotals(records, TotalsQuery{Years: fullRange})
	names := []string{got[0].Municipality, got[1].Municipality, got[2].Municipality}
	assert.Equal(t, []string{"Zeta", "Alfa", "Meio"}, names)
}

func TestAggregations_Idempotent(t *testing.T) {
	records := mixedRecords()
	q := SeriesQuery{State: "PA", Years: fullRange}
	tq := TotalsQuery{Years: fullRange}

	assert.Equal(t, DistinctStates(records), DistinctStates(records))
	assert.Equal(t, DistinctMunicipalities(records, "PA"), DistinctMunicipalities(records, "PA"))
	assert.Equal(t, FilteredSeries(records, q), FilteredSeries(records, q))
	assert.Equal(t, RankedMunicipalityTotals(records, tq), RankedMunicipalityTotals(records, tq))
	assert.Equal(t, mixedRecords(), records, "input must not be mutated")
}

func TestSeriesFor(t *testing.T) {
	records := []Record{
		{Year: 2012, Area: 3},
		{Year: 2009, Area: 1},
		{Year: 2012, Area: 4},
	}
	got := SeriesFor(records)
	assert.Equal(t, []TimeSeriesPoint{{Year: 2009, Area: 1}, {Year: 2012, Area: 7}}, got)
}

func TestYearRange_Contains(t *testing.T) {
	r := YearRange{Start: 2008, End: 2010}
	assert.True(t, r.Contains(2008))
	assert.True(t, r.Contains(2010))
	assert.False(t, r.Contains(2007))
	assert.False(t, r.Contains(2011))
}
