package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/fraudpulse-be/internal/models"
	"github.com/hongminglow/fraudpulse-be/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const uniqueViolation = "23505"

// Store provides Postgres-backed persistence for employees and prediction logs.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new Store and runs migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS employees (
			id BIGSERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			hashed_password TEXT NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS prediction_logs (
			id BIGSERIAL PRIMARY KEY,
			transaction_type TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			"oldbalanceOrg" DOUBLE PRECISION NOT NULL,
			"newbalanceOrig" DOUBLE PRECISION NOT NULL,
			risk_score DOUBLE PRECISION NOT NULL CHECK (risk_score >= 0 AND risk_score <= 1),
			predicted_class SMALLINT NOT NULL CHECK (predicted_class IN (0, 1)),
			model_version TEXT NOT NULL DEFAULT '1.0_Stacking_Ensemble',
			timestamp TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS prediction_logs_timestamp_idx ON prediction_logs (timestamp DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

const employeeColumns = `id, username, hashed_password, is_admin, created_at`

// CreateEmployee inserts a new employee row.
func (s *Store) CreateEmployee(ctx context.Context, employee models.Employee) (models.Employee, error) {
	const query = `
		INSERT INTO employees (username, hashed_password, is_admin)
		VALUES ($1, $2, $3)
		RETURNING ` + employeeColumns
	row := s.pool.QueryRow(ctx, query, employee.Username, employee.PasswordHash, employee.IsAdmin)
	return scanEmployee(row)
}

// FindEmployeeByID fetches an employee by primary key.
func (s *Store) FindEmployeeByID(ctx context.Context, id int64) (models.Employee, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	return scanEmployee(row)
}

// FindEmployeeByUsername fetches an employee by exact username.
func (s *Store) FindEmployeeByUsername(ctx context.Context, username string) (models.Employee, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE username = $1`, username)
	return scanEmployee(row)
}

// ListEmployees returns all employees ordered by id.
func (s *Store) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	out := []models.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateEmployee overwrites the mutable columns of an employee.
func (s *Store) UpdateEmployee(ctx context.Context, employee models.Employee) (models.Employee, error) {
	const query = `
		UPDATE employees SET username = $2, hashed_password = $3, is_admin = $4
		WHERE id = $1
		RETURNING ` + employeeColumns
	row := s.pool.QueryRow(ctx, query, employee.ID, employee.Username, employee.PasswordHash, employee.IsAdmin)
	return scanEmployee(row)
}

// DeleteEmployee removes an employee row.
func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// InsertPredictionLog appends one audit row.
func (s *Store) InsertPredictionLog(ctx context.Context, entry models.PredictionLog) (models.PredictionLog, error) {
	const query = `
		INSERT INTO prediction_logs (transaction_type, amount, "oldbalanceOrg", "newbalanceOrig", risk_score, predicted_class, model_version, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := s.pool.QueryRow(ctx, query,
		entry.TransactionType, entry.Amount, entry.OldBalanceOrg, entry.NewBalanceOrig,
		entry.RiskScore, entry.PredictedClass, entry.ModelVersion, entry.Timestamp,
	).Scan(&entry.ID)
	if err != nil {
		return models.PredictionLog{}, fmt.Errorf("insert prediction log: %w", err)
	}
	return entry, nil
}

// RecentPredictionLogs returns the newest rows first.
func (s *Store) RecentPredictionLogs(ctx context.Context, limit int) ([]models.PredictionLog, error) {
	const query = `
		SELECT id, transaction_type, amount, "oldbalanceOrg", "newbalanceOrig", risk_score, predicted_class, model_version, timestamp
		FROM prediction_logs
		ORDER BY timestamp DESC, id DESC
		LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query prediction logs: %w", err)
	}
	defer rows.Close()

	out := []models.PredictionLog{}
	for rows.Next() {
		var l models.PredictionLog
		if err := rows.Scan(&l.ID, &l.TransactionType, &l.Amount, &l.OldBalanceOrg, &l.NewBalanceOrig,
			&l.RiskScore, &l.PredictedClass, &l.ModelVersion, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("scan prediction log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanEmployee(row pgx.Row) (models.Employee, error) {
	var e models.Employee
	if err := row.Scan(&e.ID, &e.Username, &e.PasswordHash, &e.IsAdmin, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, storage.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.Employee{}, storage.ErrAlreadyExists
		}
		return models.Employee{}, err
	}
	return e, nil
}
