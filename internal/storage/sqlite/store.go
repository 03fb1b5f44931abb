// Package sqlite is the embedded storage backend used for local runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/hongminglow/fraudpulse-be/internal/models"
	"github.com/hongminglow/fraudpulse-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store provides SQLite-backed persistence for employees and prediction logs.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens the database at path (":memory:" for a private in-memory
// database) and runs migrations.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serialises writers anyway, and an in-memory database only
	// exists on the connection that created it.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func dsn(path string) string {
	if path == ":memory:" {
		return "file::memory:?_busy_timeout=5000"
	}
	return "file:" + path + "?_busy_timeout=5000"
}

// Close releases database resources.
func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS employees (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			hashed_password TEXT NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS prediction_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transaction_type TEXT NOT NULL,
			amount REAL NOT NULL,
			oldbalanceOrg REAL NOT NULL,
			newbalanceOrig REAL NOT NULL,
			risk_score REAL NOT NULL CHECK (risk_score >= 0 AND risk_score <= 1),
			predicted_class INTEGER NOT NULL CHECK (predicted_class IN (0, 1)),
			model_version TEXT NOT NULL DEFAULT '1.0_Stacking_Ensemble',
			timestamp DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS prediction_logs_timestamp_idx ON prediction_logs (timestamp DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

const employeeColumns = `id, username, hashed_password, is_admin, created_at`

// CreateEmployee inserts a new employee row.
func (s *Store) CreateEmployee(ctx context.Context, employee models.Employee) (models.Employee, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO employees (username, hashed_password, is_admin, created_at) VALUES (?, ?, ?, ?)`,
		employee.Username, employee.PasswordHash, employee.IsAdmin, s.now().UTC(),
	)
	if err != nil {
		return models.Employee{}, mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Employee{}, fmt.Errorf("read employee id: %w", err)
	}
	return s.FindEmployeeByID(ctx, id)
}

// FindEmployeeByID fetches an employee by primary key.
func (s *Store) FindEmployeeByID(ctx context.Context, id int64) (models.Employee, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	return scanEmployee(row)
}

// FindEmployeeByUsername fetches an employee by exact, case-sensitive username.
func (s *Store) FindEmployeeByUsername(ctx context.Context, username string) (models.Employee, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE username = ?`, username)
	return scanEmployee(row)
}

// ListEmployees returns all employees ordered by id.
func (s *Store) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY id`)
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
	res, err := s.db.ExecContext(ctx,
		`UPDATE employees SET username = ?, hashed_password = ?, is_admin = ? WHERE id = ?`,
		employee.Username, employee.PasswordHash, employee.IsAdmin, employee.ID,
	)
	if err != nil {
		return models.Employee{}, mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Employee{}, fmt.Errorf("update employee: %w", err)
	}
	if n == 0 {
		return models.Employee{}, storage.ErrNotFound
	}
	return s.FindEmployeeByID(ctx, employee.ID)
}

// DeleteEmployee removes an employee row.
func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// InsertPredictionLog appends one audit row.
func (s *Store) InsertPredictionLog(ctx context.Context, entry models.PredictionLog) (models.PredictionLog, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO prediction_logs (transaction_type, amount, oldbalanceOrg, newbalanceOrig, risk_score, predicted_class, model_version, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.TransactionType, entry.Amount, entry.OldBalanceOrg, entry.NewBalanceOrig,
		entry.RiskScore, entry.PredictedClass, entry.ModelVersion, entry.Timestamp.UTC(),
	)
	if err != nil {
		return models.PredictionLog{}, fmt.Errorf("insert prediction log: %w", err)
	}
	if entry.ID, err = res.LastInsertId(); err != nil {
		return models.PredictionLog{}, fmt.Errorf("read prediction log id: %w", err)
	}
	return entry, nil
}

// RecentPredictionLogs returns the newest rows first.
func (s *Store) RecentPredictionLogs(ctx context.Context, limit int) ([]models.PredictionLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, transaction_type, amount, oldbalanceOrg, newbalanceOrig, risk_score, predicted_class, model_version, timestamp
		 FROM prediction_logs
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ?`, limit)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (models.Employee, error) {
	var e models.Employee
	if err := row.Scan(&e.ID, &e.Username, &e.PasswordHash, &e.IsAdmin, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Employee{}, storage.ErrNotFound
		}
		return models.Employee{}, fmt.Errorf("scan employee: %w", err)
	}
	return e, nil
}

func mapError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return storage.ErrAlreadyExists
	}
	return err
}
