// Package fraud runs the assessment flow: feature engineering, scoring,
// audit logging and event publishing.
package fraud

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hongminglow/fraudpulse-be/internal/events"
	"github.com/hongminglow/fraudpulse-be/internal/features"
	"github.com/hongminglow/fraudpulse-be/internal/metrics"
	"github.com/hongminglow/fraudpulse-be/internal/models"
	"github.com/hongminglow/fraudpulse-be/internal/scoring"
	"github.com/hongminglow/fraudpulse-be/internal/tracing"
)

const (
	LabelFraud = "FRAUD"
	LabelSafe  = "SAFE"
)

// Predictor scores an engineered vector. *scoring.Pipeline satisfies it.
type Predictor interface {
	Predict(v features.Vector) (scoring.Prediction, error)
	Version() string
}

// PredictionLogger persists a completed prediction.
type PredictionLogger interface {
	Log(ctx context.Context, req models.TransactionRequest, predictedClass int, riskScore float64) (models.PredictionLog, error)
}

// Assessment is what an analyst sees after submitting a transaction.
type Assessment struct {
	PredictedClass int      `json:"predicted_class"`
	RiskScore      float64  `json:"risk_score"`
	Label          string   `json:"label"`
	ModelVersion   string   `json:"model_version"`
	Logged         bool     `json:"logged"`
	LogID          int64    `json:"log_id,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// Service ties the scoring pipeline to the prediction log.
type Service struct {
	predictor Predictor
	log       PredictionLogger
	publisher events.Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService wires a Service. publisher may be nil.
func NewService(predictor Predictor, log PredictionLogger, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		predictor: predictor,
		log:       log,
		publisher: publisher,
		logger:    logger.With("component", "fraud"),
		tracer:    tracing.Tracer("fraud"),
		now:       time.Now,
	}
}

// Assess validates and scores req on behalf of username. Validation and
// scoring errors are returned; failures to log or publish only add warnings.
func (s *Service) Assess(ctx context.Context, username string, req models.TransactionRequest) (Assessment, error) {
	ctx, span := s.tracer.Start(ctx, "fraud.Assess", trace.WithAttributes(
		attribute.String("transaction.type", string(req.Type)),
	))
	defer span.End()

	start := s.now()
	vector, err := features.Engineer(req)
	if err != nil {
		metrics.PredictionErrors.WithLabelValues("validation").Inc()
		span.SetStatus(codes.Error, "validation")
		return Assessment{}, err
	}
	pred, err := s.predictor.Predict(vector)
	if err != nil {
		metrics.PredictionErrors.WithLabelValues("scoring").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring")
		s.logger.Error("scoring failed", "error", err, "type", req.Type)
		return Assessment{}, fmt.Errorf("score transaction: %w", err)
	}
	metrics.PredictionLatency.Observe(s.now().Sub(start).Seconds())
	metrics.RiskScores.Observe(pred.RiskScore)
	metrics.PredictionsTotal.WithLabelValues(string(req.Type), strconv.Itoa(pred.Class)).Inc()
	span.SetAttributes(
		attribute.Int("prediction.class", pred.Class),
		attribute.Float64("prediction.risk_score", pred.RiskScore),
	)

	out := Assessment{
		PredictedClass: pred.Class,
		RiskScore:      pred.RiskScore,
		Label:          Label(pred.Class),
		ModelVersion:   s.predictor.Version(),
	}

	entry, err := s.log.Log(ctx, req, pred.Class, pred.RiskScore)
	if err != nil {
		metrics.PredictionLogFailures.Inc()
		span.RecordError(err)
		s.logger.Warn("prediction not logged", "error", err, "type", req.Type, "risk_score", pred.RiskScore)
		out.Warnings = append(out.Warnings, "could not log prediction to database")
	} else {
		out.Logged = true
		out.LogID = entry.ID
	}

	event := events.PredictionEvent{
		LogID:           out.LogID,
		TransactionType: string(req.Type),
		Amount:          *req.Amount,
		NameOrig:        req.NameOrig,
		NameDest:        req.NameDest,
		Step:            *req.Step,
		RiskScore:       pred.RiskScore,
		PredictedClass:  pred.Class,
		ModelVersion:    out.ModelVersion,
		ScoredBy:        username,
		ScoredAt:        s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		metrics.EventPublishFailures.Inc()
		s.logger.Warn("prediction event not published", "error", err)
		out.Warnings = append(out.Warnings, "could not publish prediction event")
	}

	s.logger.Info("transaction assessed",
		"type", req.Type,
		"predicted_class", pred.Class,
		"risk_score", pred.RiskScore,
		"logged", out.Logged,
		"user", username,
	)
	return out, nil
}

// Label renders a predicted class for display.
func Label(class int) string {
	if class == 1 {
		return LabelFraud
	}
	return LabelSafe
}
