package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictionCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(PredictionsTotal.WithLabelValues("TRANSFER", "1"))
	PredictionsTotal.WithLabelValues("TRANSFER", "1").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(PredictionsTotal.WithLabelValues("TRANSFER", "1")))

	failures := testutil.ToFloat64(PredictionLogFailures)
	PredictionLogFailures.Inc()
	assert.Equal(t, failures+1, testutil.ToFloat64(PredictionLogFailures))
}

func TestPredictionLogFailuresName(t *testing.T) {
	PredictionLogFailures.Add(0)
	n, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "fraudpulse_prediction_log_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
