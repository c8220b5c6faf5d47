// Package rest provides the HTTP handlers for inventory, orders, categories
// and customers.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/stockdesk/stockdesk/pkg/storeerr"
	"github.com/stockdesk/stockdesk/pkg/web"
)

// statusFor maps repository errors to HTTP status codes. Anything outside
// the taxonomy is a server fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storeerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storeerr.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, storeerr.ErrForeignKey):
		return http.StatusConflict
	case errors.Is(err, storeerr.ErrConstraint):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storeerr.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeValid decodes the request body into dto and runs struct validation,
// writing the error response itself on failure.
func decodeValid(w http.ResponseWriter, r *http.Request, validate *validator.Validate, logger *slog.Logger, dto any) bool {
	if err := json.NewDecoder(r.Body).Decode(dto); err != nil {
		logger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			logger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, logger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// HealthCheck is a simple liveness endpoint.
func HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
