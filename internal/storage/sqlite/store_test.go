package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hongminglow/fraudpulse-be/internal/models"
	"github.com/hongminglow/fraudpulse-be/internal/storage"
	"github.com/hongminglow/fraudpulse-be/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, err := New(context.Background(), ":memory:")
		require.NoError(t, err)
		t.Cleanup(s.Close)
		return s
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fraudpulse.db")

	s, err := New(ctx, path)
	require.NoError(t, err)
	_, err = s.CreateEmployee(ctx, models.Employee{Username: "admin", PasswordHash: "h", IsAdmin: true})
	require.NoError(t, err)
	s.Close()

	reopened, err := New(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.FindEmployeeByUsername(ctx, "admin")
	require.NoError(t, err)
	require.True(t, got.IsAdmin)
}
