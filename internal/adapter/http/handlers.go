package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/couchcryptid/floreser-dashboard/internal/chart"
	"github.com/couchcryptid/floreser-dashboard/internal/domain"
)

const maxSelectionBody = 1 << 20

var errNoSelection = errors.New("feature has no NM_MUN or NM_UF property")

// Query parameter names.
const (
	paramState        = "state"
	paramMunicipality = "municipio"
	paramStartYear    = "startYear"
	paramEndYear      = "endYear"
)

func (s *Server) handleStates(w http.ResponseWriter, r *http.Request) {
	records, err := s.deps.Records.Records(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to load states", err)
		return
	}
	writeJSON(w, http.StatusOK, domain.DistinctStates(records))
}

func (s *Server) handleMunicipalities(w http.ResponseWriter, r *http.Request) {
	state := chi.URLParam(r, "estado")
	if unescaped, err := url.PathUnescape(state); err == nil {
		state = unescaped
	}

	records, err := s.deps.Records.Records(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to load municipalities", err)
		return
	}
	writeJSON(w, http.StatusOK, domain.DistinctMunicipalities(records, strings.TrimSpace(state)))
}

// handleAreaData returns every record when called without filters, and the
// filtered series otherwise.
func (s *Server) handleAreaData(w http.ResponseWriter, r *http.Request) {
	records, err := s.deps.Records.Records(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to load area data", err)
		return
	}

	q := r.URL.Query()
	if !hasAny(q, paramState, paramMunicipality, paramStartYear, paramEndYear) {
		writeJSON(w, http.StatusOK, records)
		return
	}
	writeJSON(w, http.StatusOK, domain.FilteredSeries(records, s.seriesQuery(q)))
}

func (s *Server) handleMunicipalityTotals(w http.ResponseWriter, r *http.Request) {
	records, err := s.deps.Records.Records(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to load municipality totals", err)
		return
	}
	writeJSON(w, http.StatusOK, domain.RankedMunicipalityTotals(records, s.totalsQuery(r.URL.Query())))
}

func (s *Server) handleAreaChart(w http.ResponseWriter, r *http.Request) {
	records, err := s.deps.Records.Records(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to build area chart", err)
		return
	}
	writeJSON(w, http.StatusOK, chart.BuildAreaChart(records, s.seriesQuery(r.URL.Query())))
}

func (s *Server) handleRankingChart(w http.ResponseWriter, r *http.Request) {
	records, err := s.deps.Records.Records(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to build municipality chart", err)
		return
	}
	tq := s.totalsQuery(r.URL.Query())
	totals := domain.RankedMunicipalityTotals(records, tq)
	writeJSON(w, http.StatusOK, chart.BuildRankingChart(totals, tq.State, tq.Years, s.topN))
}

type selectionRequest struct {
	Properties map[string]any `json:"properties"`
	StartYear  int            `json:"startYear"`
	EndYear    int            `json:"endYear"`
}

type selectionResponse struct {
	Selection chart.Selection `json:"selection"`
	Area      chart.Chart     `json:"area"`
	Ranking   chart.Chart     `json:"ranking"`
}

// handleSelection rebuilds both charts for a clicked boundary feature.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSelectionBody))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid selection body", err)
		return
	}

	years := domain.YearRange{Start: orDefault(req.StartYear, s.defaults.Start), End: orDefault(req.EndYear, s.defaults.End)}
	sel, ok := chart.SelectionFromFeature(req.Properties, years)
	if !ok {
		s.writeError(w, r, http.StatusBadRequest, errNoSelection.Error(), errNoSelection)
		return
	}

	records, err := s.deps.Records.Records(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to build charts", err)
		return
	}
	tq := sel.TotalsQuery()
	writeJSON(w, http.StatusOK, selectionResponse{
		Selection: sel,
		Area:      chart.BuildAreaChart(records, sel.SeriesQuery()),
		Ranking:   chart.BuildRankingChart(domain.RankedMunicipalityTotals(records, tq), tq.State, tq.Years, s.topN),
	})
}

func (s *Server) handleTileURL(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Imagery.TileURL(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to retrieve imagery tile URL", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": u})
}

// handleBoundary passes the upstream feature collection through unchanged.
func (s *Server) handleBoundary(w http.ResponseWriter, r *http.Request) {
	body, err := s.deps.Boundary.Fetch(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to retrieve municipality boundaries", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck // client went away
}

func (s *Server) seriesQuery(q url.Values) domain.SeriesQuery {
	return domain.SeriesQuery{
		State:        strings.TrimSpace(q.Get(paramState)),
		Municipality: strings.TrimSpace(q.Get(paramMunicipality)),
		Years:        s.years(q),
	}
}

func (s *Server) totalsQuery(q url.Values) domain.TotalsQuery {
	return domain.TotalsQuery{
		State: strings.TrimSpace(q.Get(paramState)),
		Years: s.years(q),
	}
}

// years reads startYear and endYear, falling back to the configured
// defaults for absent, non-numeric, or zero values.
func (s *Server) years(q url.Values) domain.YearRange {
	return domain.YearRange{
		Start: parseYear(q.Get(paramStartYear), s.defaults.Start),
		End:   parseYear(q.Get(paramEndYear), s.defaults.End),
	}
}

func parseYear(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return orDefault(n, def)
}

func orDefault(n, def int) int {
	if n == 0 {
		return def
	}
	return n
}

func hasAny(q url.Values, keys ...string) bool {
	for _, k := range keys {
		if _, ok := q[k]; ok {
			return true
		}
	}
	return false
}
