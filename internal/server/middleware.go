package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"igdownloader/pkg/logger"
)

// statusWriter records the status code written by a handler
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{w, http.StatusOK}
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.statusCode = code
	sw.ResponseWriter.WriteHeader(code)
}

// withObservability wraps a handler with request logging and Prometheus
// metrics. Each request gets a uuid echoed in X-Request-ID.
func withObservability(log logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		sw := newStatusWriter(w)
		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		status := strconv.Itoa(sw.statusCode)

		// Label by the matched route pattern, not the raw path, so
		// arbitrary request paths cannot inflate label cardinality
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(duration.Seconds())

		log.InfoWithFields("http request", map[string]interface{}{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      sw.statusCode,
			"duration_ms": duration.Milliseconds(),
			"remote_addr": r.RemoteAddr,
		})
	})
}
