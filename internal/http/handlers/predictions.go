package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hongminglow/fraudpulse-be/internal/auth"
	"github.com/hongminglow/fraudpulse-be/internal/features"
	"github.com/hongminglow/fraudpulse-be/internal/fraud"
	"github.com/hongminglow/fraudpulse-be/internal/http/respond"
	"github.com/hongminglow/fraudpulse-be/internal/models"
)

// Assessor scores transactions. *fraud.Service satisfies it.
type Assessor interface {
	Assess(ctx context.Context, username string, req models.TransactionRequest) (fraud.Assessment, error)
}

// PredictionHandler scores submitted transactions.
type PredictionHandler struct {
	assessor Assessor
	logger   *slog.Logger
}

func NewPredictionHandler(assessor Assessor, logger *slog.Logger) *PredictionHandler {
	return &PredictionHandler{assessor: assessor, logger: logger.With("component", "prediction_handler")}
}

// Register attaches the prediction route to the mux.
func (h *PredictionHandler) Register(mux *http.ServeMux, guard Guard) {
	mux.Handle("POST /predictions", guard.Require(http.HandlerFunc(h.handlePredict)))
}

func (h *PredictionHandler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req models.TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	session, _ := auth.SessionFrom(r.Context())
	assessment, err := h.assessor.Assess(r.Context(), session.Username, req)
	if err != nil {
		if errors.Is(err, features.ErrInvalidTransaction) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("assess transaction", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to score transaction")
		return
	}
	message := "transaction approved"
	if assessment.PredictedClass == 1 {
		message = "transaction flagged as high risk"
	}
	respond.JSON(w, http.StatusOK, message, assessment)
}
