package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avolkov/cryptofolio/internal/models"
)

// statusFor maps a service error to an HTTP status. Storage errors fall
// through to 500 and are never reclassified.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrPasswordTooShort),
		errors.Is(err, models.ErrInvalidEmail),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidPassword),
		errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrInsufficientHoldings):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, models.ErrMissingToken),
		errors.Is(err, models.ErrInvalidToken),
		errors.Is(err, models.ErrInvalidSecret):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrInsufficientRole),
		errors.Is(err, models.ErrNotWhitelisted):
		return http.StatusForbidden
	case errors.Is(err, models.ErrUnknownAsset),
		errors.Is(err, models.ErrUnknownPortfolio):
		return http.StatusNotFound
	case errors.Is(err, models.ErrEmailTaken),
		errors.Is(err, models.ErrNameTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports an error with its mapped status. Internal errors
// keep their detail out of the response body.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

// writeJSON writes the payload with the given status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
