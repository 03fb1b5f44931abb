// Package features turns raw transaction fields into the vector the scoring
// pipeline was fit on.
package features

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hongminglow/fraudpulse-be/internal/models"
)

// Column names, in the order the pipeline expects them.
const (
	ColType            = "type"
	ColAmount          = "amount"
	ColOldBalanceOrg   = "oldbalanceOrg"
	ColNewBalanceOrig  = "newbalanceOrig"
	ColOldBalanceDest  = "oldbalanceDest"
	ColNewBalanceDest  = "newbalanceDest"
	ColBalanceDiffOrig = "balanceDiffOrig"
	ColBalanceDiffDest = "balanceDiffDest"
	ColIsMerchant      = "is_merchant"
	ColOrigCount1Step  = "Orig_Count_1step"
)

var columns = []string{
	ColType,
	ColAmount,
	ColOldBalanceOrg,
	ColNewBalanceOrig,
	ColOldBalanceDest,
	ColNewBalanceDest,
	ColBalanceDiffOrig,
	ColBalanceDiffDest,
	ColIsMerchant,
	ColOrigCount1Step,
}

// Columns returns a copy of the feature column order.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// ErrInvalidTransaction is wrapped by every validation failure.
var ErrInvalidTransaction = errors.New("invalid transaction")

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidTransaction
}

// Vector is the engineered feature row. The zero value is not usable; build
// one with Engineer.
type Vector struct {
	category string
	numeric  map[string]float64
}

// Columns reports the vector's column order.
func (v Vector) Columns() []string {
	return Columns()
}

// Category returns the raw transaction type.
func (v Vector) Category() string {
	return v.category
}

// Numeric returns a numeric column and whether it exists.
func (v Vector) Numeric(name string) (float64, bool) {
	val, ok := v.numeric[name]
	return val, ok
}

// Validate rejects requests with missing, non-finite or negative numbers, a
// step below 1, or an unknown transaction type.
func Validate(req models.TransactionRequest) error {
	if req.Step == nil {
		return &ValidationError{Field: "step", Reason: "is required"}
	}
	if *req.Step < 1 {
		return &ValidationError{Field: "step", Reason: "must be at least 1"}
	}
	if !req.Type.Valid() {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown transaction type %q", req.Type)}
	}
	amounts := []struct {
		name  string
		value *float64
	}{
		{ColAmount, req.Amount},
		{ColOldBalanceOrg, req.OldBalanceOrg},
		{ColNewBalanceOrig, req.NewBalanceOrig},
		{ColOldBalanceDest, req.OldBalanceDest},
		{ColNewBalanceDest, req.NewBalanceDest},
	}
	for _, a := range amounts {
		if a.value == nil {
			return &ValidationError{Field: a.name, Reason: "is required"}
		}
		if math.IsNaN(*a.value) || math.IsInf(*a.value, 0) {
			return &ValidationError{Field: a.name, Reason: "must be a finite number"}
		}
		if *a.value < 0 {
			return &ValidationError{Field: a.name, Reason: "must not be negative"}
		}
	}
	return nil
}

// Engineer validates req and derives the feature vector.
//
// Orig_Count_1step is always 0: the velocity feature was never computed from
// account history when the model was trained, so the placeholder is kept as is.
func Engineer(req models.TransactionRequest) (Vector, error) {
	if err := Validate(req); err != nil {
		return Vector{}, err
	}

	oldOrg := *req.OldBalanceOrg
	newOrig := *req.NewBalanceOrig
	oldDest := *req.OldBalanceDest
	newDest := *req.NewBalanceDest

	return Vector{
		category: string(req.Type),
		numeric: map[string]float64{
			ColAmount:          *req.Amount,
			ColOldBalanceOrg:   oldOrg,
			ColNewBalanceOrig:  newOrig,
			ColOldBalanceDest:  oldDest,
			ColNewBalanceDest:  newDest,
			ColBalanceDiffOrig: oldOrg - newOrig,
			ColBalanceDiffDest: newDest - oldDest,
			ColIsMerchant:      IsMerchant(req.NameDest),
			ColOrigCount1Step:  0,
		},
	}, nil
}

// IsMerchant returns 1 when the destination account id starts with an
// upper-case M.
func IsMerchant(nameDest string) float64 {
	if strings.HasPrefix(nameDest, "M") {
		return 1
	}
	return 0
}
