package scoring

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/fraudpulse-be/internal/features"
	"github.com/hongminglow/fraudpulse-be/internal/models"
)

func f(v float64) *float64 { return &v }

func vector(t *testing.T, typ models.TransactionType, amount, oldOrg, newOrig float64, nameDest string) features.Vector {
	t.Helper()
	step := 1
	v, err := features.Engineer(models.TransactionRequest{
		Step:           &step,
		Type:           typ,
		Amount:         f(amount),
		OldBalanceOrg:  f(oldOrg),
		NewBalanceOrig: f(newOrig),
		OldBalanceDest: f(100),
		NewBalanceDest: f(100 + amount),
		NameDest:       nameDest,
	})
	require.NoError(t, err)
	return v
}

func logisticArtifact() Artifact {
	return Artifact{
		FeatureColumns: features.Columns(),
		Preprocessor: PreprocessorSpec{
			Categorical: map[string]CategoricalSpec{"type": {Categories: []string{"CASH_IN", "CASH_OUT", "DEBIT", "PAYMENT", "TRANSFER"}}},
			Numeric:     map[string]ScalerSpec{"amount": {Mean: 0, Scale: 10000}},
		},
		Classifier: ClassifierSpec{
			Kind:         KindLogistic,
			Intercept:    -3,
			Coefficients: map[string]float64{"type_TRANSFER": 1.5, "type_CASH_OUT": 1.0, "amount": 1.0, "is_merchant": -2},
		},
	}
}

func TestLoadJSONLogistic(t *testing.T) {
	p, err := Load(filepath.Join("testdata", "logistic.json"))
	require.NoError(t, err)
	assert.Equal(t, "test_logistic", p.Version())
	assert.Equal(t, 0.5, p.Threshold())
	assert.Equal(t, features.Columns(), p.Columns())

	low, err := p.Predict(vector(t, models.TypeTransfer, 9999, 10000, 1, "C_TEST_RECEIVER"))
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(-3+1.5+0.9999), low.RiskScore, 1e-12)
	assert.Equal(t, 0, low.Class)

	high, err := p.Predict(vector(t, models.TypeTransfer, 50000, 50000, 0, "C1"))
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(3.5), high.RiskScore, 1e-12)
	assert.Equal(t, 1, high.Class)

	merchant, err := p.Predict(vector(t, models.TypePayment, 10000, 10000, 0, "M77"))
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(-3+1-2), merchant.RiskScore, 1e-12)
}

func TestLoadYAMLBoosting(t *testing.T) {
	p, err := Load(filepath.Join("testdata", "boosting.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "test_boosting", p.Version())

	transfer, err := p.Predict(vector(t, models.TypeTransfer, 9999, 10000, 1, "C"))
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(3), transfer.RiskScore, 1e-12)
	assert.Equal(t, 1, transfer.Class)

	payment, err := p.Predict(vector(t, models.TypePayment, 9999, 10000, 1, "C"))
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(0.5), payment.RiskScore, 1e-12)

	small, err := p.Predict(vector(t, models.TypeTransfer, 10, 100, 90, "C"))
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(-2), small.RiskScore, 1e-12)
	assert.Equal(t, 0, small.Class)
}

func TestStacking(t *testing.T) {
	art := logisticArtifact()
	lr := art.Classifier
	lr.Name = "lr"
	leafLow, leafHigh := -1.0, 2.0
	gbm := ClassifierSpec{
		Kind: KindGradientBoosting,
		Name: "gbm",
		Trees: []TreeSpec{{Nodes: []NodeSpec{
			{Feature: "is_merchant", Threshold: 0.5, Left: 1, Right: 2},
			{Leaf: &leafHigh},
			{Leaf: &leafLow},
		}}},
	}
	art.Classifier = ClassifierSpec{
		Kind:       KindStacking,
		Estimators: []ClassifierSpec{lr, gbm},
		FinalEstimator: &ClassifierSpec{
			Kind:         KindLogistic,
			Intercept:    -2,
			Coefficients: map[string]float64{"lr": 2, "gbm": 2},
		},
	}
	p, err := New(art)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultModelVersion, p.Version())

	pred, err := p.Predict(vector(t, models.TypeTransfer, 9999, 10000, 1, "C"))
	require.NoError(t, err)
	pLR := sigmoid(-3 + 1.5 + 0.9999)
	pGBM := sigmoid(2)
	assert.InDelta(t, sigmoid(-2+2*pLR+2*pGBM), pred.RiskScore, 1e-12)
}

func TestStackingPassthrough(t *testing.T) {
	art := logisticArtifact()
	base := art.Classifier
	art.Classifier = ClassifierSpec{
		Kind:        KindStacking,
		Estimators:  []ClassifierSpec{base},
		Passthrough: true,
		FinalEstimator: &ClassifierSpec{
			Kind:         KindLogistic,
			Coefficients: map[string]float64{"estimator_0": 1, "is_merchant": 3},
		},
	}
	p, err := New(art)
	require.NoError(t, err)

	pred, err := p.Predict(vector(t, models.TypePayment, 0, 0, 0, "M1"))
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(sigmoid(-3-2)+3), pred.RiskScore, 1e-12)
}

func TestThresholdIsStrict(t *testing.T) {
	art := logisticArtifact()
	art.Classifier = ClassifierSpec{Kind: KindLogistic, Intercept: 0, Coefficients: map[string]float64{"Orig_Count_1step": 1}}
	p, err := New(art)
	require.NoError(t, err)

	pred, err := p.Predict(vector(t, models.TypeTransfer, 1, 1, 0, "C"))
	require.NoError(t, err)
	assert.Equal(t, 0.5, pred.RiskScore)
	assert.Equal(t, 0, pred.Class)

	th := 0.4
	art.Threshold = &th
	p, err = New(art)
	require.NoError(t, err)
	pred, err = p.Predict(vector(t, models.TypeTransfer, 1, 1, 0, "C"))
	require.NoError(t, err)
	assert.Equal(t, 1, pred.Class)
}

func TestPredictSchemaMismatch(t *testing.T) {
	art := logisticArtifact()
	art.FeatureColumns = []string{"type", "amount", "oldbalanceOrg", "newbalanceOrig", "oldbalanceDest", "newbalanceDest", "step"}
	art.Classifier.Coefficients = map[string]float64{"amount": 1}
	p, err := New(art)
	require.NoError(t, err)

	_, err = p.Predict(vector(t, models.TypeTransfer, 1, 1, 0, "C"))
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
}

func TestPredictUnknownCategory(t *testing.T) {
	art := logisticArtifact()
	art.Preprocessor.Categorical["type"] = CategoricalSpec{Categories: []string{"TRANSFER", "CASH_OUT"}}
	art.Classifier.Coefficients = map[string]float64{"type_TRANSFER": 1}
	p, err := New(art)
	require.NoError(t, err)

	_, err = p.Predict(vector(t, models.TypeDebit, 1, 1, 0, "C"))
	assert.True(t, errors.Is(err, ErrUnknownCategory))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, errors.Is(err, ErrArtifactNotFound))
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"model_version": `), 0o600))
	_, err := Load(path)
	assert.True(t, errors.Is(err, ErrInvalidArtifact))
}

func TestNewRejectsInconsistentArtifacts(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Artifact)
	}{
		{"no columns", func(a *Artifact) { a.FeatureColumns = nil }},
		{"duplicate column", func(a *Artifact) { a.FeatureColumns = append(a.FeatureColumns, "amount") }},
		{"type not encoded", func(a *Artifact) { a.Preprocessor.Categorical = nil }},
		{"scaler for unknown column", func(a *Artifact) { a.Preprocessor.Numeric["step"] = ScalerSpec{Scale: 1} }},
		{"unknown weight", func(a *Artifact) { a.Classifier.Coefficients["type_WIRE"] = 1 }},
		{"missing kind", func(a *Artifact) { a.Classifier.Kind = "" }},
		{"bad kind", func(a *Artifact) { a.Classifier.Kind = "svm" }},
		{"empty boosting", func(a *Artifact) { a.Classifier = ClassifierSpec{Kind: KindGradientBoosting} }},
		{"backwards tree", func(a *Artifact) {
			leaf := 1.0
			a.Classifier = ClassifierSpec{Kind: KindGradientBoosting, Trees: []TreeSpec{{Nodes: []NodeSpec{
				{Feature: "amount", Threshold: 1, Left: 0, Right: 1},
				{Leaf: &leaf},
			}}}}
		}},
		{"stacking without final", func(a *Artifact) {
			a.Classifier = ClassifierSpec{Kind: KindStacking, Estimators: []ClassifierSpec{a.Classifier}}
		}},
		{"threshold out of range", func(a *Artifact) { th := 1.5; a.Threshold = &th }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			art := logisticArtifact()
			tt.mod(&art)
			_, err := New(art)
			assert.True(t, errors.Is(err, ErrInvalidArtifact), "got %v", err)
		})
	}
}

func TestPredictConcurrentUse(t *testing.T) {
	p, err := New(logisticArtifact())
	require.NoError(t, err)
	v := vector(t, models.TypeCashOut, 2500, 3000, 500, "C")
	want, err := p.Predict(v)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := p.Predict(v)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, filepath.Join("/srv/app", "models", "p.json"), ResolvePath("/srv/app", "models/p.json"))
	assert.Equal(t, "/abs/p.json", ResolvePath("/srv/app", "/abs/p.json"))
	assert.Equal(t, "models/p.json", ResolvePath("", "models/p.json"))
}

func TestBundledArtifactLoads(t *testing.T) {
	p, err := Load(filepath.Join("..", "..", "models", "fraud_detection_pipeline.json"))
	require.NoError(t, err)
	assert.Equal(t, models.DefaultModelVersion, p.Version())

	pred, err := p.Predict(vector(t, models.TypeTransfer, 9999, 10000, 1, "C_TEST_RECEIVER"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pred.RiskScore, 0.0)
	assert.LessOrEqual(t, pred.RiskScore, 1.0)
}
