package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the audit correlation id back to the client.
const RequestIDHeader = "X-Request-ID"

const maxAuditBodyBytes = 1024

var redactedFields = []string{"password"}

type auditKey struct{}

// auditRecord is filled in by inner middleware once the caller is known.
type auditRecord struct {
	user string
}

func noteAuditUser(ctx context.Context, user string) {
	if rec, ok := ctx.Value(auditKey{}).(*auditRecord); ok {
		rec.user = user
	}
}

// Audit logs all mutating (POST/PUT/DELETE) requests with a request id.
// Password fields in JSON bodies are redacted.
func Audit(logger *slog.Logger, next http.Handler) http.Handler {
	auditLogger := logger.With("component", "audit")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
		default:
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set(RequestIDHeader, requestID)

		var bodySummary string
		if r.Body != nil {
			bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, maxAuditBodyBytes+1))
			if err == nil {
				bodySummary = summarize(bodyBytes)
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(bodyBytes), r.Body))
			}
		}

		rec := &auditRecord{}
		r = r.WithContext(context.WithValue(r.Context(), auditKey{}, rec))
		sw := newStatusWriter(w)

		next.ServeHTTP(sw, r)

		auditLogger.Info("api audit",
			"request_id", requestID,
			"timestamp", start.UTC().Format(time.RFC3339),
			"user", rec.user,
			"remote_addr", r.RemoteAddr,
			"method", r.Method,
			"path", r.URL.Path,
			"body_summary", bodySummary,
			"response_status", sw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func summarize(body []byte) string {
	if len(body) > maxAuditBodyBytes {
		return "(body omitted: too large)"
	}
	var fields map[string]any
	if json.Unmarshal(body, &fields) == nil {
		for _, name := range redactedFields {
			if _, ok := fields[name]; ok {
				fields[name] = "[REDACTED]"
			}
		}
		if out, err := json.Marshal(fields); err == nil {
			return string(out)
		}
	}
	if bytes.Contains(body, []byte("password")) {
		return "(body omitted: unparseable)"
	}
	return string(body)
}
