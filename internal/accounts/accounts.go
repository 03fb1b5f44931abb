// Package accounts authenticates staff and manages the employee directory.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/fraudpulse-be/internal/models"
	"github.com/hongminglow/fraudpulse-be/internal/storage"
)

var (
	// ErrInvalidCredentials is returned for unknown users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSelfDeletion is returned when an employee tries to delete their own account.
	ErrSelfDeletion = errors.New("cannot delete your own account")
	// ErrInvalidInput is returned for blank usernames or passwords.
	ErrInvalidInput = errors.New("username and password are required")
)

// Service implements authentication and admin CRUD over employee accounts.
type Service struct {
	store     storage.EmployeeStore
	logger    *slog.Logger
	cost      int
	dummyHash []byte
}

// Option configures a Service.
type Option func(*Service)

// WithHashCost overrides the bcrypt cost (tests use bcrypt.MinCost). Costs
// outside bcrypt's range fall back to bcrypt.DefaultCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService builds the account service on top of store.
func NewService(store storage.EmployeeStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logger.With("component", "accounts"),
		cost:   bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cost < bcrypt.MinCost || s.cost > bcrypt.MaxCost {
		s.logger.Warn("bcrypt cost out of range, using default", "cost", s.cost, "default", bcrypt.DefaultCost)
		s.cost = bcrypt.DefaultCost
	}
	// Compared against when the username is unknown so both failure paths
	// spend the same bcrypt time.
	var err error
	if s.dummyHash, err = bcrypt.GenerateFromPassword([]byte("fraudpulse-dummy-password"), s.cost); err != nil {
		s.logger.Error("generate dummy hash; unknown-user logins will answer faster", "error", err)
	}
	return s
}

// Authenticate checks username and password. Both failure modes return
// ErrInvalidCredentials; the real reason only goes to the audit log.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.Employee, error) {
	employee, err := s.store.FindEmployeeByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			s.logger.Info("authentication failed", "username", username, "reason", "unknown_user")
			return models.Employee{}, ErrInvalidCredentials
		}
		return models.Employee{}, fmt.Errorf("find employee: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("authentication failed", "username", username, "reason", "bad_password")
		return models.Employee{}, ErrInvalidCredentials
	}
	s.logger.Info("authentication succeeded", "username", username, "employee_id", employee.ID)
	return employee, nil
}

// Create registers a new employee. Usernames are matched case-sensitively.
func (s *Service) Create(ctx context.Context, username, password string, isAdmin bool) (models.Employee, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.Employee{}, ErrInvalidInput
	}
	if _, err := s.store.FindEmployeeByUsername(ctx, username); err == nil {
		return models.Employee{}, storage.ErrAlreadyExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.Employee{}, fmt.Errorf("find employee: %w", err)
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return models.Employee{}, err
	}
	created, err := s.store.CreateEmployee(ctx, models.Employee{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.Employee{}, err
		}
		return models.Employee{}, fmt.Errorf("create employee: %w", err)
	}
	s.logger.Info("employee created", "employee_id", created.ID, "username", created.Username, "role", created.Role())
	return created, nil
}

// List returns all employees in insertion order.
func (s *Service) List(ctx context.Context) ([]models.Employee, error) {
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return employees, nil
}

// Update rewrites username and admin flag, and the password only when a
// non-empty replacement is given.
func (s *Service) Update(ctx context.Context, id int64, username, password string, isAdmin bool) (models.Employee, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.Employee{}, ErrInvalidInput
	}
	employee, err := s.store.FindEmployeeByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Employee{}, err
		}
		return models.Employee{}, fmt.Errorf("find employee: %w", err)
	}

	employee.Username = username
	employee.IsAdmin = isAdmin
	if password != "" {
		if employee.PasswordHash, err = s.hashPassword(password); err != nil {
			return models.Employee{}, err
		}
	}

	updated, err := s.store.UpdateEmployee(ctx, employee)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrAlreadyExists) {
			return models.Employee{}, err
		}
		return models.Employee{}, fmt.Errorf("update employee: %w", err)
	}
	s.logger.Info("employee updated", "employee_id", id, "password_changed", password != "", "role", updated.Role())
	return updated, nil
}

// Delete removes employee id on behalf of actorID. Deleting yourself is always
// refused, whatever your role.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		s.logger.Warn("self-deletion refused", "employee_id", id)
		return ErrSelfDeletion
	}
	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete employee: %w", err)
	}
	s.logger.Info("employee deleted", "employee_id", id, "actor_id", actorID)
	return nil
}

// EnsureBootstrapAdmin creates the initial administrator if no account with
// that username exists. It reports whether an account was created.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.store.FindEmployeeByUsername(ctx, username)
	if err == nil {
		s.logger.Info("bootstrap admin already exists", "username", username)
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("find bootstrap admin: %w", err)
	}
	if _, err := s.Create(ctx, username, password, true); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", "username", username)
	return true, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
