// Package storagetest holds the behavioural checks every storage backend must pass.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/fraudpulse-be/internal/models"
	"github.com/hongminglow/fraudpulse-be/internal/storage"
)

// Run exercises a fresh, empty store returned by open.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Run("EmployeeLifecycle", func(t *testing.T) { employeeLifecycle(t, open(t)) })
	t.Run("DuplicateUsername", func(t *testing.T) { duplicateUsername(t, open(t)) })
	t.Run("MissingEmployee", func(t *testing.T) { missingEmployee(t, open(t)) })
	t.Run("PredictionLogs", func(t *testing.T) { predictionLogs(t, open(t)) })
}

func employeeLifecycle(t *testing.T, s storage.Store) {
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	alice, err := s.CreateEmployee(ctx, models.Employee{Username: "alice", PasswordHash: "h1"})
	require.NoError(t, err)
	bob, err := s.CreateEmployee(ctx, models.Employee{Username: "bob", PasswordHash: "h2", IsAdmin: true})
	require.NoError(t, err)

	assert.NotZero(t, alice.ID)
	assert.Greater(t, bob.ID, alice.ID)
	assert.False(t, alice.IsAdmin)
	assert.True(t, bob.IsAdmin)
	assert.WithinDuration(t, time.Now(), alice.CreatedAt, time.Minute)

	got, err := s.FindEmployeeByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "h1", got.PasswordHash)

	_, err = s.FindEmployeeByUsername(ctx, "Alice")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].Username)
	assert.Equal(t, "bob", list[1].Username)

	alice.Username = "alice2"
	alice.IsAdmin = true
	updated, err := s.UpdateEmployee(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	assert.True(t, updated.IsAdmin)
	assert.Equal(t, "h1", updated.PasswordHash)

	byID, err := s.FindEmployeeByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", byID.Username)

	require.NoError(t, s.DeleteEmployee(ctx, bob.ID))
	_, err = s.FindEmployeeByID(ctx, bob.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func duplicateUsername(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, err := s.CreateEmployee(ctx, models.Employee{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)
	carol, err := s.CreateEmployee(ctx, models.Employee{Username: "carol", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = s.CreateEmployee(ctx, models.Employee{Username: "alice", PasswordHash: "other"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	carol.Username = "alice"
	_, err = s.UpdateEmployee(ctx, carol)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func missingEmployee(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, err := s.FindEmployeeByID(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.UpdateEmployee(ctx, models.Employee{ID: 999, Username: "ghost", PasswordHash: "h"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteEmployee(ctx, 999), storage.ErrNotFound)

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func predictionLogs(t *testing.T, s storage.Store) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry, err := s.InsertPredictionLog(ctx, models.PredictionLog{
			TransactionType: "TRANSFER",
			Amount:          float64(1000 * (i + 1)),
			OldBalanceOrg:   5000,
			NewBalanceOrig:  4000,
			RiskScore:       0.1 * float64(i),
			PredictedClass:  i % 2,
			ModelVersion:    "v-test",
			Timestamp:       base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		assert.NotZero(t, entry.ID)
	}

	recent, err := s.RecentPredictionLogs(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, 5000.0, recent[0].Amount)
	assert.Equal(t, 4000.0, recent[1].Amount)
	assert.Equal(t, 3000.0, recent[2].Amount)
	assert.Equal(t, 1, recent[1].PredictedClass)
	assert.Equal(t, 0, recent[2].PredictedClass)
	assert.Equal(t, "v-test", recent[0].ModelVersion)
	assert.True(t, recent[0].Timestamp.Equal(base.Add(4*time.Minute)), "timestamp %v", recent[0].Timestamp)
	assert.InDelta(t, 0.4, recent[0].RiskScore, 1e-9)
}
