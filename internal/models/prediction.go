package models

import "time"

// DefaultModelVersion is recorded when the loaded artifact does not name itself.
const DefaultModelVersion = "1.0_Stacking_Ensemble"

// PredictionLog is the append-only audit row written for every scored transaction.
type PredictionLog struct {
	ID              int64     `json:"id"`
	TransactionType string    `json:"transaction_type"`
	Amount          float64   `json:"amount"`
	OldBalanceOrg   float64   `json:"oldbalanceOrg"`
	NewBalanceOrig  float64   `json:"newbalanceOrig"`
	RiskScore       float64   `json:"risk_score"`
	PredictedClass  int       `json:"predicted_class"`
	ModelVersion    string    `json:"model_version"`
	Timestamp       time.Time `json:"timestamp"`
}
