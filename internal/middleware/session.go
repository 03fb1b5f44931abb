package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/fraudpulse-be/internal/auth"
	"github.com/hongminglow/fraudpulse-be/internal/http/respond"
)

// Sessions guards routes with bearer tokens issued at login.
type Sessions struct {
	tokens  *auth.TokenManager
	revoker auth.Revoker
	logger  *slog.Logger
}

func NewSessions(tokens *auth.TokenManager, revoker auth.Revoker, logger *slog.Logger) *Sessions {
	return &Sessions{tokens: tokens, revoker: revoker, logger: logger.With("component", "sessions")}
}

// Require rejects requests without a valid, unrevoked token with 401 and
// otherwise places the session on the request context.
func (s *Sessions) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		session, err := s.tokens.Parse(token)
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		revoked, err := s.revoker.IsRevoked(r.Context(), session.TokenID)
		if err != nil {
			s.logger.Error("revocation lookup failed", "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to verify session")
			return
		}
		if revoked {
			respond.Error(w, http.StatusUnauthorized, "session has been logged out")
			return
		}
		noteAuditUser(r.Context(), session.Username)
		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
	})
}

// RequireAdmin is Require plus a 403 for non-admin sessions.
func (s *Sessions) RequireAdmin(next http.Handler) http.Handler {
	return s.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := auth.SessionFrom(r.Context())
		if !session.IsAdmin {
			s.logger.Warn("admin route denied", "user", session.Username, "path", r.URL.Path)
			respond.Error(w, http.StatusForbidden, "access denied")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
