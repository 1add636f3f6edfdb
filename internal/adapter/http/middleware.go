package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// instrument records request metrics and writes one access log line per
// request. The route label is the matched chi pattern, never the raw path.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		elapsed := time.Since(start)

		s.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", elapsed.Milliseconds(),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}
