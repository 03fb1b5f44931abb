package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hongminglow/fraudpulse-be/internal/accounts"
	"github.com/hongminglow/fraudpulse-be/internal/auth"
	"github.com/hongminglow/fraudpulse-be/internal/http/respond"
	"github.com/hongminglow/fraudpulse-be/internal/metrics"
	"github.com/hongminglow/fraudpulse-be/internal/models"
	"github.com/hongminglow/fraudpulse-be/internal/models/dto"
	"github.com/hongminglow/fraudpulse-be/internal/storage"
)

// Directory manages employee accounts. *accounts.Service satisfies it.
type Directory interface {
	Create(ctx context.Context, username, password string, isAdmin bool) (models.Employee, error)
	List(ctx context.Context) ([]models.Employee, error)
	Update(ctx context.Context, id int64, username, password string, isAdmin bool) (models.Employee, error)
	Delete(ctx context.Context, actorID, id int64) error
}

// EmployeeHandler exposes the admin-only employee directory.
type EmployeeHandler struct {
	directory Directory
	logger    *slog.Logger
}

func NewEmployeeHandler(directory Directory, logger *slog.Logger) *EmployeeHandler {
	return &EmployeeHandler{directory: directory, logger: logger.With("component", "employee_handler")}
}

// Register attaches employee routes to the mux.
func (h *EmployeeHandler) Register(mux *http.ServeMux, guard Guard) {
	mux.Handle("GET /employees", guard.RequireAdmin(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /employees", guard.RequireAdmin(http.HandlerFunc(h.handleCreate)))
	mux.Handle("PUT /employees/{id}", guard.RequireAdmin(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("DELETE /employees/{id}", guard.RequireAdmin(http.HandlerFunc(h.handleDelete)))
}

func (h *EmployeeHandler) handleList(w http.ResponseWriter, r *http.Request) {
	employees, err := h.directory.List(r.Context())
	if err != nil {
		h.logger.Error("list employees", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list employees")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", employees)
}

func (h *EmployeeHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEmployeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	created, err := h.directory.Create(r.Context(), req.Username, req.Password, req.IsAdmin)
	if err != nil {
		h.fail(w, "create", err)
		return
	}
	metrics.EmployeeMutations.WithLabelValues("create", "ok").Inc()
	respond.JSON(w, http.StatusCreated, "employee created", created)
}

func (h *EmployeeHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req dto.UpdateEmployeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	updated, err := h.directory.Update(r.Context(), id, req.Username, req.Password, req.IsAdmin)
	if err != nil {
		h.fail(w, "update", err)
		return
	}
	metrics.EmployeeMutations.WithLabelValues("update", "ok").Inc()
	respond.JSON(w, http.StatusOK, "employee updated", updated)
}

func (h *EmployeeHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	session, _ := auth.SessionFrom(r.Context())
	if err := h.directory.Delete(r.Context(), session.UserID, id); err != nil {
		h.fail(w, "delete", err)
		return
	}
	metrics.EmployeeMutations.WithLabelValues("delete", "ok").Inc()
	respond.JSON(w, http.StatusOK, "employee deleted", nil)
}

func (h *EmployeeHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, accounts.ErrInvalidInput):
		metrics.EmployeeMutations.WithLabelValues(op, "invalid").Inc()
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrAlreadyExists):
		metrics.EmployeeMutations.WithLabelValues(op, "conflict").Inc()
		respond.Error(w, http.StatusConflict, "user already exists")
	case errors.Is(err, accounts.ErrSelfDeletion):
		metrics.EmployeeMutations.WithLabelValues(op, "conflict").Inc()
		respond.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		metrics.EmployeeMutations.WithLabelValues(op, "not_found").Inc()
		respond.Error(w, http.StatusNotFound, "employee not found")
	default:
		metrics.EmployeeMutations.WithLabelValues(op, "error").Inc()
		h.logger.Error(op+" employee", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to "+op+" employee")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid employee id")
		return 0, false
	}
	return id, true
}
