package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scoring
	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fraudpulse",
		Subsystem: "scoring",
		Name:      "predictions_total",
		Help:      "Total scored transactions by transaction type and predicted class",
	}, []string{"type", "class"})

	PredictionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fraudpulse",
		Subsystem: "scoring",
		Name:      "errors_total",
		Help:      "Total rejected or failed prediction requests",
	}, []string{"reason"})

	PredictionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fraudpulse",
		Subsystem: "scoring",
		Name:      "duration_seconds",
		Help:      "Feature engineering plus model scoring duration",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	RiskScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fraudpulse",
		Subsystem: "scoring",
		Name:      "risk_score",
		Help:      "Distribution of model risk scores",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})

	// Prediction log
	PredictionLogFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fraudpulse",
		Name:      "prediction_log_failures_total",
		Help:      "Prediction log writes that failed after a successful prediction",
	})

	EventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fraudpulse",
		Subsystem: "events",
		Name:      "publish_failures_total",
		Help:      "Scored-transaction events that could not be published",
	})

	// Accounts
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fraudpulse",
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Login attempts by result",
	}, []string{"result"})

	EmployeeMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fraudpulse",
		Subsystem: "accounts",
		Name:      "mutations_total",
		Help:      "Employee directory writes by operation and result",
	}, []string{"op", "result"})

	// HTTP
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fraudpulse",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method and status code",
	}, []string{"method", "code"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fraudpulse",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fraudpulse",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	}, []string{"endpoint"})
)
