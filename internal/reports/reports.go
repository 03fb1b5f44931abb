// Package reports assembles the admin performance dashboard.
package reports

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/fraudpulse-be/internal/models"
	"github.com/hongminglow/fraudpulse-be/internal/predictlog"
)

const timestampLayout = "2006-01-02 15:04:05"

// KPI is one headline figure from offline model validation.
type KPI struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Note  string `json:"note"`
}

// VolumePoint is the dataset transaction count for one type, in millions.
type VolumePoint struct {
	Type     string  `json:"type"`
	Millions float64 `json:"volume_millions"`
	HighRisk bool    `json:"high_risk"`
}

// ImportancePoint is one bar of the feature importance chart.
type ImportancePoint struct {
	Feature string  `json:"feature"`
	Score   float64 `json:"importance"`
}

// SummaryTable mirrors a dataframe describe() over the training data.
type SummaryTable struct {
	Metrics []string             `json:"metrics"`
	Columns map[string][]float64 `json:"columns"`
}

// LogRow is a prediction log formatted for display.
type LogRow struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	RiskScore string `json:"risk_score"`
	Predicted string `json:"predicted"`
}

// Dashboard is everything the admin dashboard renders.
type Dashboard struct {
	KPIs              []KPI             `json:"kpis"`
	Volume            []VolumePoint     `json:"volume"`
	FeatureImportance []ImportancePoint `json:"feature_importance"`
	Summary           SummaryTable      `json:"summary"`
	RecentLogs        []LogRow          `json:"recent_logs"`
	Warnings          []string          `json:"warnings,omitempty"`
}

// Recent lists prediction logs newest first.
type Recent interface {
	Recent(ctx context.Context, limit int) ([]models.PredictionLog, error)
}

// Builder produces dashboards from the prediction log.
type Builder struct {
	logs   Recent
	logger *slog.Logger
}

func NewBuilder(logs Recent, logger *slog.Logger) *Builder {
	return &Builder{logs: logs, logger: logger.With("component", "reports")}
}

// Build assembles the dashboard for viewer. A failed log read still returns
// the static sections with a warning.
func (b *Builder) Build(ctx context.Context, viewer string) Dashboard {
	d := Dashboard{
		KPIs:              KPIs(),
		Volume:            Volume(),
		FeatureImportance: FeatureImportance(),
		Summary:           Summary(),
		RecentLogs:        []LogRow{},
	}
	logs, err := b.logs.Recent(ctx, predictlog.DashboardLimit)
	if err != nil {
		b.logger.Error("load prediction logs", "error", err)
		d.Warnings = append(d.Warnings, "could not load prediction logs")
		return d
	}
	d.RecentLogs = Rows(logs, viewer)
	return d
}

func KPIs() []KPI {
	return []KPI{
		{Name: "Final Precision (Correct Flags)", Value: "89%", Note: "44.5x Improvement vs. Legacy"},
		{Name: "Final Recall (Fraud Catch Rate)", Value: "80%", Note: "Minimal Loss for Max Precision"},
		{Name: "False Alarms (FP in Test)", Value: "23", Note: "Minimal Operational Overhead"},
	}
}

// Volume returns the per-type volumes in dataset order.
// TRANSFER and CASH_OUT are the only types fraud was observed in.
func Volume() []VolumePoint {
	millions := map[models.TransactionType]float64{
		models.TypePayment:  2.15,
		models.TypeCashOut:  2.23,
		models.TypeCashIn:   1.40,
		models.TypeTransfer: 0.53,
		models.TypeDebit:    0.17,
	}
	out := make([]VolumePoint, 0, len(models.TransactionTypes))
	for _, t := range models.TransactionTypes {
		out = append(out, VolumePoint{
			Type:     string(t),
			Millions: millions[t],
			HighRisk: t == models.TypeTransfer || t == models.TypeCashOut,
		})
	}
	return out
}

// FeatureImportance returns the importance series sorted descending.
func FeatureImportance() []ImportancePoint {
	out := []ImportancePoint{
		{Feature: "balanceDiffOrig", Score: 0.45},
		{Feature: "Orig_Count_1step", Score: 0.25},
		{Feature: "is_merchant", Score: 0.15},
		{Feature: "amount", Score: 0.10},
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func Summary() SummaryTable {
	return SummaryTable{
		Metrics: []string{"Count", "Mean", "Std Dev", "Min", "25%", "50% (Median)", "75%", "Max"},
		Columns: map[string][]float64{
			"Amount":           {6362620, 179861, 603858, 0, 13389, 74871, 208721, 92445516},
			"Old Balance Org":  {6362620, 83387, 862410, 0, 0, 14208, 107315, 59585040},
			"New Balance Dest": {6362620, 119991, 600670, 0, 0, 14660, 292837, 356015889},
		},
	}
}

// Rows formats logs for display, attributing them to viewer.
func Rows(logs []models.PredictionLog, viewer string) []LogRow {
	if viewer == "" {
		viewer = "N/A"
	}
	rows := make([]LogRow, 0, len(logs))
	for _, l := range logs {
		predicted := "SAFE"
		if l.PredictedClass == 1 {
			predicted = "FRAUD"
		}
		rows = append(rows, LogRow{
			ID:        l.ID,
			Timestamp: l.Timestamp.UTC().Format(timestampLayout),
			User:      viewer,
			Type:      l.TransactionType,
			Amount:    FormatAmount(l.Amount),
			RiskScore: decimal.NewFromFloat(l.RiskScore).StringFixed(4),
			Predicted: predicted,
		})
	}
	return rows
}

// FormatAmount renders v with two decimals and comma thousands separators.
func FormatAmount(v float64) string {
	fixed := decimal.NewFromFloat(v).StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
