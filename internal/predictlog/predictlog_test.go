package predictlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/fraudpulse-be/internal/models"
	"github.com/hongminglow/fraudpulse-be/internal/storage/sqlite"
)

func f(v float64) *float64 { return &v }

func request() models.TransactionRequest {
	step := 300
	return models.TransactionRequest{
		Step:           &step,
		Type:           models.TypeTransfer,
		Amount:         f(9999),
		OldBalanceOrg:  f(10000),
		NewBalanceOrig: f(1),
		OldBalanceDest: f(100),
		NewBalanceDest: f(10099),
		NameDest:       "C_TEST_RECEIVER",
	}
}

func TestLogAssignsTimestampAndVersion(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	fixed := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	l := New(store, "2.0_test")
	l.now = func() time.Time { return fixed }

	entry, err := l.Log(ctx, request(), 1, 0.93)
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.Equal(t, "TRANSFER", entry.TransactionType)
	assert.Equal(t, 9999.0, entry.Amount)
	assert.Equal(t, 10000.0, entry.OldBalanceOrg)
	assert.Equal(t, 1.0, entry.NewBalanceOrig)
	assert.Equal(t, 1, entry.PredictedClass)
	assert.Equal(t, 0.93, entry.RiskScore)
	assert.Equal(t, "2.0_test", entry.ModelVersion)
	assert.True(t, fixed.Equal(entry.Timestamp))

	recent, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, entry.ID, recent[0].ID)
	assert.True(t, fixed.Equal(recent[0].Timestamp))
}

func TestDefaultModelVersion(t *testing.T) {
	l := New(nil, "")
	assert.Equal(t, models.DefaultModelVersion, l.modelVersion)
}

type failingStore struct{}

func (failingStore) InsertPredictionLog(context.Context, models.PredictionLog) (models.PredictionLog, error) {
	return models.PredictionLog{}, errors.New("database is locked")
}

func (failingStore) RecentPredictionLogs(context.Context, int) ([]models.PredictionLog, error) {
	return nil, errors.New("database is locked")
}

func TestLogWrapsStoreErrors(t *testing.T) {
	l := New(failingStore{}, "v")
	_, err := l.Log(context.Background(), request(), 0, 0.1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log prediction")

	_, err = l.Recent(context.Background(), 10)
	assert.Error(t, err)
}
