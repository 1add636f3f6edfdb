package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/floreser-dashboard/internal/domain"
)

func TestSelectionFromFeature(t *testing.T) {
	props := map[string]any{"NM_MUN": " Altamira ", "NM_UF": "PA", "AREA_KM2": 159533.3}

	sel, ok := SelectionFromFeature(props, years)
	assert.True(t, ok)
	assert.Equal(t, Selection{State: "PA", Municipality: "Altamira", Years: years}, sel)

	assert.Equal(t, domain.SeriesQuery{State: "PA", Municipality: "Altamira", Years: years}, sel.SeriesQuery())
	assert.Equal(t, domain.TotalsQuery{State: "PA", Years: years}, sel.TotalsQuery())
}

func TestSelectionFromFeature_MissingProperties(t *testing.T) {
	_, ok := SelectionFromFeature(map[string]any{"NM_MUN": 42}, years)
	assert.False(t, ok)

	_, ok = SelectionFromFeature(nil, years)
	assert.False(t, ok)
}

func TestSelection_DrivesBothCharts(t *testing.T) {
	sel, ok := SelectionFromFeature(map[string]any{"NM_MUN": "Altamira", "NM_UF": "PA"}, years)
	assert.True(t, ok)

	area := BuildAreaChart(sampleRecords(), sel.SeriesQuery())
	assert.Equal(t, []string{"Altamira"}, []string{area.Datasets[0].Label})

	ranking := BuildRankingChart(domain.RankedMunicipalityTotals(sampleRecords(), sel.TotalsQuery()), sel.State, years, 10)
	assert.Equal(t, []string{"Altamira", "Marabá"}, ranking.Labels)
}
