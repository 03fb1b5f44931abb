package handlers

import (
	"context"
	"net/http"

	"github.com/hongminglow/fraudpulse-be/internal/auth"
	"github.com/hongminglow/fraudpulse-be/internal/http/respond"
	"github.com/hongminglow/fraudpulse-be/internal/reports"
)

// DashboardBuilder assembles dashboards. *reports.Builder satisfies it.
type DashboardBuilder interface {
	Build(ctx context.Context, viewer string) reports.Dashboard
}

// DashboardHandler serves the admin performance dashboard.
type DashboardHandler struct {
	reports DashboardBuilder
}

func NewDashboardHandler(reports DashboardBuilder) *DashboardHandler {
	return &DashboardHandler{reports: reports}
}

// Register attaches the dashboard route to the mux.
func (h *DashboardHandler) Register(mux *http.ServeMux, guard Guard) {
	mux.Handle("GET /dashboard", guard.RequireAdmin(http.HandlerFunc(h.handle)))
}

func (h *DashboardHandler) handle(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFrom(r.Context())
	respond.JSON(w, http.StatusOK, "ok", h.reports.Build(r.Context(), session.Username))
}
