// Package backend picks a storage implementation from a database URL.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hongminglow/fraudpulse-be/internal/storage"
	"github.com/hongminglow/fraudpulse-be/internal/storage/postgres"
	"github.com/hongminglow/fraudpulse-be/internal/storage/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Parse returns the driver name and the driver-specific connection string.
// postgres:// and postgresql:// URLs go to pgx; sqlite://path, file:path and
// bare paths go to SQLite.
func Parse(databaseURL string) (driver, dsn string, err error) {
	url := strings.TrimSpace(databaseURL)
	switch {
	case url == "":
		return "", "", errors.New("database url is empty")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, url, nil
	case strings.HasPrefix(url, "sqlite://"):
		return DriverSQLite, strings.TrimPrefix(url, "sqlite://"), nil
	case strings.HasPrefix(url, "file:"):
		return DriverSQLite, strings.TrimPrefix(url, "file:"), nil
	case strings.Contains(url, "://"):
		return "", "", fmt.Errorf("unsupported database url scheme in %q", url)
	default:
		return DriverSQLite, url, nil
	}
}

// Open connects to the database, creating tables if absent.
func Open(ctx context.Context, databaseURL string) (storage.Store, error) {
	driver, dsn, err := Parse(databaseURL)
	if err != nil {
		return nil, err
	}
	switch driver {
	case DriverPostgres:
		return postgres.New(ctx, dsn)
	default:
		return sqlite.New(ctx, dsn)
	}
}
