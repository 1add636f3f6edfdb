package chart

import (
	"strings"

	"github.com/couchcryptid/floreser-dashboard/internal/domain"
)

// Boundary feature property names carrying the municipality and state.
const (
	PropertyMunicipality = "NM_MUN"
	PropertyState        = "NM_UF"
)

// Selection is the filter state shared by the map and both charts.
type Selection struct {
	State        string           `json:"state"`
	Municipality string           `json:"municipio"`
	Years        domain.YearRange `json:"years"`
}

// SelectionFromFeature builds the selection made by clicking a boundary
// feature. It reports false when the feature names neither a municipality
// nor a state.
func SelectionFromFeature(properties map[string]any, years domain.YearRange) (Selection, bool) {
	sel := Selection{
		State:        stringProperty(properties, PropertyState),
		Municipality: stringProperty(properties, PropertyMunicipality),
		Years:        years,
	}
	return sel, sel.State != "" || sel.Municipality != ""
}

// SeriesQuery returns the area chart query. The municipality, when present,
// suppresses the state-only view.
func (s Selection) SeriesQuery() domain.SeriesQuery {
	return domain.SeriesQuery{State: s.State, Municipality: s.Municipality, Years: s.Years}
}

// TotalsQuery returns the ranking query, scoped to the selected state.
func (s Selection) TotalsQuery() domain.TotalsQuery {
	return domain.TotalsQuery{State: s.State, Years: s.Years}
}

func stringProperty(properties map[string]any, key string) string {
	v, ok := properties[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}
