package models

// TransactionType enumerates the payment categories the model was trained on.
type TransactionType string

const (
	TypePayment  TransactionType = "PAYMENT"
	TypeCashOut  TransactionType = "CASH_OUT"
	TypeCashIn   TransactionType = "CASH_IN"
	TypeTransfer TransactionType = "TRANSFER"
	TypeDebit    TransactionType = "DEBIT"
)

// TransactionTypes lists every known category in the order the dashboards show them.
var TransactionTypes = []TransactionType{TypePayment, TypeCashOut, TypeCashIn, TypeTransfer, TypeDebit}

// Valid reports whether t is one of the known categories.
func (t TransactionType) Valid() bool {
	for _, known := range TransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// TransactionRequest carries the raw fields an analyst submits for scoring.
// Numeric fields are pointers so a missing value can be told apart from zero.
type TransactionRequest struct {
	Step           *int            `json:"step"`
	Type           TransactionType `json:"type"`
	Amount         *float64        `json:"amount"`
	OldBalanceOrg  *float64        `json:"oldbalanceOrg"`
	NewBalanceOrig *float64        `json:"newbalanceOrig"`
	OldBalanceDest *float64        `json:"oldbalanceDest"`
	NewBalanceDest *float64        `json:"newbalanceDest"`
	NameOrig       string          `json:"nameOrig"`
	NameDest       string          `json:"nameDest"`
}

// Value dereferences an optional numeric field, treating nil as zero.
func Value(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
