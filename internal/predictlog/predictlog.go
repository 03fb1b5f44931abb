// Package predictlog records every completed inference as an audit row.
package predictlog

import (
	"context"
	"fmt"
	"time"

	"github.com/hongminglow/fraudpulse-be/internal/models"
	"github.com/hongminglow/fraudpulse-be/internal/storage"
)

// DashboardLimit is how many recent rows the admin dashboard shows.
const DashboardLimit = 100

// Logger writes prediction logs stamped with its own clock and the model version.
type Logger struct {
	store        storage.PredictionLogStore
	modelVersion string
	now          func() time.Time
}

// New returns a Logger for predictions made by the given model version.
func New(store storage.PredictionLogStore, modelVersion string) *Logger {
	if modelVersion == "" {
		modelVersion = models.DefaultModelVersion
	}
	return &Logger{store: store, modelVersion: modelVersion, now: time.Now}
}

// Log persists one row for a scored request. Callers must validate req first.
func (l *Logger) Log(ctx context.Context, req models.TransactionRequest, predictedClass int, riskScore float64) (models.PredictionLog, error) {
	entry := models.PredictionLog{
		TransactionType: string(req.Type),
		Amount:          models.Value(req.Amount),
		OldBalanceOrg:   models.Value(req.OldBalanceOrg),
		NewBalanceOrig:  models.Value(req.NewBalanceOrig),
		RiskScore:       riskScore,
		PredictedClass:  predictedClass,
		ModelVersion:    l.modelVersion,
		Timestamp:       l.now().UTC(),
	}
	saved, err := l.store.InsertPredictionLog(ctx, entry)
	if err != nil {
		return models.PredictionLog{}, fmt.Errorf("log prediction: %w", err)
	}
	return saved, nil
}

// Recent returns up to limit rows, newest first.
func (l *Logger) Recent(ctx context.Context, limit int) ([]models.PredictionLog, error) {
	if limit <= 0 {
		limit = DashboardLimit
	}
	logs, err := l.store.RecentPredictionLogs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent predictions: %w", err)
	}
	return logs, nil
}
