package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mmynk/settleup/internal/metrics"
)

// Metrics records request counts and latency per route. It wraps individual
// handlers rather than the mux so r.Pattern is populated, keeping the label
// cardinality bounded to registered routes.
func Metrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	}
}
