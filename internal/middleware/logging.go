package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hongminglow/fraudpulse-be/internal/metrics"
)

// RequestLogger logs every request and records HTTP metrics.
func RequestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	httpLogger := logger.With("component", "http")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := newStatusWriter(w)

		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(sw.statusCode)).Inc()
		metrics.HTTPLatency.WithLabelValues(r.Method).Observe(elapsed.Seconds())

		level := slog.LevelInfo
		if sw.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		httpLogger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.statusCode,
			"duration_ms", elapsed.Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}
