package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/fraudpulse-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// EmployeeStore captures persistence operations for staff accounts.
type EmployeeStore interface {
	CreateEmployee(ctx context.Context, employee models.Employee) (models.Employee, error)
	FindEmployeeByID(ctx context.Context, id int64) (models.Employee, error)
	FindEmployeeByUsername(ctx context.Context, username string) (models.Employee, error)
	// ListEmployees returns every account in insertion order.
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	// UpdateEmployee writes username, admin flag and password hash for employee.ID.
	UpdateEmployee(ctx context.Context, employee models.Employee) (models.Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error
}

// PredictionLogStore is the append-only audit trail of scored transactions.
type PredictionLogStore interface {
	InsertPredictionLog(ctx context.Context, entry models.PredictionLog) (models.PredictionLog, error)
	// RecentPredictionLogs returns up to limit rows, newest first.
	RecentPredictionLogs(ctx context.Context, limit int) ([]models.PredictionLog, error)
}

// Store is the full data-access layer used by the service.
type Store interface {
	EmployeeStore
	PredictionLogStore
	Ping(ctx context.Context) error
	Close()
}
