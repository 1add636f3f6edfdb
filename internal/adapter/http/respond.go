package http

import (
	"net/http"

	"github.com/goccy/go-json"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

// writeError logs err and responds with {"error": msg}.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	level := s.logger.Error
	if status < http.StatusInternalServerError {
		level = s.logger.Warn
	}
	level("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	writeJSON(w, status, map[string]string{"error": msg})
}
