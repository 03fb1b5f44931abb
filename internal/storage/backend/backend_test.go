package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		driver string
		dsn    string
	}{
		{"postgres://u:p@localhost:5432/db", DriverPostgres, "postgres://u:p@localhost:5432/db"},
		{"postgresql://localhost/db?sslmode=disable", DriverPostgres, "postgresql://localhost/db?sslmode=disable"},
		{"sqlite://fraudpulse_data.db", DriverSQLite, "fraudpulse_data.db"},
		{"sqlite://:memory:", DriverSQLite, ":memory:"},
		{"file:/var/lib/fp.db", DriverSQLite, "/var/lib/fp.db"},
		{"./data/fp.db", DriverSQLite, "./data/fp.db"},
	}
	for _, tt := range tests {
		driver, dsn, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.driver, driver, tt.in)
		assert.Equal(t, tt.dsn, dsn, tt.in)
	}

	_, _, err := Parse("")
	assert.Error(t, err)
	_, _, err = Parse("mysql://localhost/db")
	assert.Error(t, err)
}

func TestOpenSQLiteMemory(t *testing.T) {
	s, err := Open(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	defer s.Close()
	assert.NoError(t, s.Ping(context.Background()))
}
