package middleware

import (
	"net/http"
	"time"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/observability"
)

// Metrics records request count and duration per mux pattern. When metrics is nil,
// recording is skipped. The route label is r.Pattern, which ServeMux sets on the request it
// receives, so Metrics must wrap the mux directly.
func Metrics(metrics observability.APIMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if metrics == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			metrics.RecordRequest(r.Context(), r.Method, r.Pattern, rw.statusCode, time.Since(start))
		})
	}
}
