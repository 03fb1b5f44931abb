package reports

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/fraudpulse-be/internal/models"
)

type fakeLogs struct {
	logs  []models.PredictionLog
	err   error
	limit int
}

func (f *fakeLogs) Recent(_ context.Context, limit int) ([]models.PredictionLog, error) {
	f.limit = limit
	return f.logs, f.err
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestFormatAmount(t *testing.T) {
	cases := map[float64]string{
		0:           "0.00",
		9.999:       "10.00",
		999.5:       "999.50",
		1000:        "1,000.00",
		9999:        "9,999.00",
		1234567.891: "1,234,567.89",
		-12345.6:    "-12,345.60",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatAmount(in), "amount %v", in)
	}
}

func TestFeatureImportanceSortedDescending(t *testing.T) {
	got := FeatureImportance()
	require.Len(t, got, 4)
	assert.Equal(t, "balanceDiffOrig", got[0].Feature)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestVolumeFlagsHighRiskTypes(t *testing.T) {
	for _, p := range Volume() {
		want := p.Type == "TRANSFER" || p.Type == "CASH_OUT"
		assert.Equal(t, want, p.HighRisk, p.Type)
	}
	assert.Equal(t, 2.23, Volume()[1].Millions)
}

func TestSummaryColumnsMatchMetrics(t *testing.T) {
	s := Summary()
	for name, values := range s.Columns {
		assert.Len(t, values, len(s.Metrics), name)
	}
}

func TestBuildFormatsRecentLogs(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	src := &fakeLogs{logs: []models.PredictionLog{
		{ID: 2, TransactionType: "TRANSFER", Amount: 9999, RiskScore: 0.912345, PredictedClass: 1, Timestamp: ts},
		{ID: 1, TransactionType: "PAYMENT", Amount: 12.5, RiskScore: 0.00001, PredictedClass: 0, Timestamp: ts},
	}}

	d := NewBuilder(src, discard()).Build(context.Background(), "admin")
	assert.Equal(t, 100, src.limit)
	assert.Len(t, d.KPIs, 3)
	assert.Empty(t, d.Warnings)
	require.Len(t, d.RecentLogs, 2)

	assert.Equal(t, LogRow{
		ID:        2,
		Timestamp: "2026-01-02 03:04:05",
		User:      "admin",
		Type:      "TRANSFER",
		Amount:    "9,999.00",
		RiskScore: "0.9123",
		Predicted: "FRAUD",
	}, d.RecentLogs[0])
	assert.Equal(t, "0.0000", d.RecentLogs[1].RiskScore)
	assert.Equal(t, "SAFE", d.RecentLogs[1].Predicted)
}

func TestBuildKeepsStaticSectionsWhenLogsFail(t *testing.T) {
	d := NewBuilder(&fakeLogs{err: errors.New("no such table")}, discard()).Build(context.Background(), "")
	assert.NotEmpty(t, d.Volume)
	assert.NotEmpty(t, d.FeatureImportance)
	assert.Empty(t, d.RecentLogs)
	assert.Equal(t, []string{"could not load prediction logs"}, d.Warnings)
}

func TestRowsDefaultsViewer(t *testing.T) {
	rows := Rows([]models.PredictionLog{{ID: 1}}, "")
	require.Len(t, rows, 1)
	assert.Equal(t, "N/A", rows[0].User)
}
