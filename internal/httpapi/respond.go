package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safar/tradein-store/internal/database"
	"github.com/safar/tradein-store/internal/models"
	"github.com/safar/tradein-store/internal/tradein"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Rule  string `json:"rule,omitempty"`
	SKU   string `json:"sku,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("encode JSON response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondServiceError maps lifecycle errors onto HTTP statuses. Anything
// unrecognised is logged and reported as a 500 without detail.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *tradein.ValidationError
		rule       *tradein.BusinessRuleViolation
		short      *database.InsufficientInventoryError
		illegal    *models.IllegalTransitionError
		badState   *models.InvalidStateError
	)

	switch {
	case errors.As(err, &validation):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Message, Field: validation.Field})
	case errors.As(err, &rule):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: rule.Message, Rule: rule.Rule})
	case errors.As(err, &short):
		respondJSON(w, http.StatusConflict, errorResponse{Error: short.Error(), SKU: short.SKU})
	case errors.As(err, &illegal), errors.As(err, &badState):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrTradeInNotFound),
		errors.Is(err, database.ErrCustomerNotFound),
		errors.Is(err, database.ErrStaffNotFound),
		errors.Is(err, database.ErrInventoryNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
