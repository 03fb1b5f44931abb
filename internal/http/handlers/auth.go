package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hongminglow/fraudpulse-be/internal/accounts"
	"github.com/hongminglow/fraudpulse-be/internal/auth"
	"github.com/hongminglow/fraudpulse-be/internal/http/respond"
	"github.com/hongminglow/fraudpulse-be/internal/metrics"
	"github.com/hongminglow/fraudpulse-be/internal/models"
	"github.com/hongminglow/fraudpulse-be/internal/models/dto"
)

// Authenticator checks employee credentials. *accounts.Service satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (models.Employee, error)
}

// AuthHandler owns the login, logout and session endpoints.
type AuthHandler struct {
	accounts Authenticator
	tokens   *auth.TokenManager
	revoker  auth.Revoker
	limit    func(http.Handler) http.Handler
	logger   *slog.Logger
}

// NewAuthHandler constructs the handler. limit wraps the login route; nil disables it.
func NewAuthHandler(accounts Authenticator, tokens *auth.TokenManager, revoker auth.Revoker, limit func(http.Handler) http.Handler, logger *slog.Logger) *AuthHandler {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}
	return &AuthHandler{
		accounts: accounts,
		tokens:   tokens,
		revoker:  revoker,
		limit:    limit,
		logger:   logger.With("component", "auth_handler"),
	}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux, guard Guard) {
	mux.Handle("POST /login", h.limit(http.HandlerFunc(h.handleLogin)))
	mux.Handle("POST /logout", guard.Require(http.HandlerFunc(h.handleLogout)))
	mux.Handle("GET /me", guard.Require(http.HandlerFunc(h.handleMe)))
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Username == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}
	employee, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		h.logger.Error("login failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}
	token, _, err := h.tokens.Generate(employee)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		h.logger.Error("generate token", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token, User: employee})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFrom(r.Context())
	if err := h.revoker.Revoke(r.Context(), session.TokenID, session.ExpiresAt); err != nil {
		h.logger.Error("revoke token", "error", err, "user", session.Username)
		respond.Error(w, http.StatusInternalServerError, "failed to log out")
		return
	}
	h.logger.Info("logged out", "user", session.Username)
	respond.JSON(w, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFrom(r.Context())
	respond.JSON(w, http.StatusOK, "ok", dto.SessionResponse{
		ID:       session.UserID,
		Username: session.Username,
		IsAdmin:  session.IsAdmin,
		Role:     models.RoleOf(session.IsAdmin),
	})
}
