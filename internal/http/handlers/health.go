package handlers

import (
	"net/http"
	"time"

	"github.com/hongminglow/fraudpulse-be/internal/http/respond"
)

// HealthHandler returns uptime, basic status and the loaded model version.
type HealthHandler struct {
	startedAt    time.Time
	modelVersion string
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, modelVersion string) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, modelVersion: modelVersion}
}

// Register wires the handler into a ServeMux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "ok", map[string]string{
		"status":        "ok",
		"uptime":        time.Since(h.startedAt).Truncate(time.Second).String(),
		"model_version": h.modelVersion,
	})
}
