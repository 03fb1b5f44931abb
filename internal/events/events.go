// Package events streams scored transactions to downstream consumers.
package events

import (
	"context"
	"time"
)

// PredictionEvent is published once per scored transaction.
type PredictionEvent struct {
	LogID           int64     `json:"log_id,omitempty"`
	TransactionType string    `json:"type"`
	Amount          float64   `json:"amount"`
	NameOrig        string    `json:"nameOrig"`
	NameDest        string    `json:"nameDest"`
	Step            int       `json:"step"`
	RiskScore       float64   `json:"risk_score"`
	PredictedClass  int       `json:"predicted_class"`
	ModelVersion    string    `json:"model_version"`
	ScoredBy        string    `json:"scored_by"`
	ScoredAt        time.Time `json:"scored_at"`
}

// Publisher sends events somewhere. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event PredictionEvent) error
	Close()
}

// Nop discards events; it is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, PredictionEvent) error { return nil }

func (Nop) Close() {}
