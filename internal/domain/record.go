package domain

import "time"

// Record is one (state, municipality, year, area) observation read from the
// source dataset. State and Name are stored trimmed.
type Record struct {
	State string  `json:"state"`
	Name  string  `json:"name"`
	Year  int     `json:"year"`
	Area  float64 `json:"area"` // hectares
}

// TimeSeriesPoint is the area attributed to one entity for one year.
type TimeSeriesPoint struct {
	Year int     `json:"year"`
	Area float64 `json:"area"`
}

// MunicipalityTotal is the area accumulated by one (state, municipality) pair
// across a year range.
type MunicipalityTotal struct {
	Municipality string  `json:"municipio"`
	State        string  `json:"state"`
	TotalArea    float64 `json:"area"`
}

// YearRange is an inclusive [Start, End] interval of years.
type YearRange struct {
	Start int `json:"start_year"`
	End   int `json:"end_year"`
}

// Contains reports whether Start <= year <= End.
func (r YearRange) Contains(year int) bool {
	return year >= r.Start && year <= r.End
}

// SeriesQuery selects records for a time series. Municipality, when set,
// takes precedence over State.
type SeriesQuery struct {
	State        string
	Municipality string
	Years        YearRange
}

// TotalsQuery selects records for the ranked municipality totals.
type TotalsQuery struct {
	State string
	Years YearRange
}

// DatasetEvent announces that a new dataset snapshot was loaded.
type DatasetEvent struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Records     int       `json:"records"`
	States      int       `json:"states"`
	MinYear     int       `json:"min_year"`
	MaxYear     int       `json:"max_year"`
	RowWarnings int       `json:"row_warnings"`
	ModifiedAt  time.Time `json:"modified_at"`
	LoadedAt    time.Time `json:"loaded_at"`
}
