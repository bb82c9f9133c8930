// Package respond centralizes JSON responses and the mapping from the
// service error taxonomy to HTTP status codes.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/addismart/storefront/internal/service/errs"
	"github.com/addismart/storefront/internal/service/models/currency"
)

// JSON writes a JSON body with the given status code.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error writing response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Error maps a service error to a status code and a single descriptive error
// field. Unrecognized errors become a bare 500 so driver details never reach
// the caller.
func Error(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		JSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, errs.ErrInvalidState),
		errors.Is(err, errs.ErrEmptyCart),
		errors.Is(err, errs.ErrNoCart),
		errors.Is(err, errs.ErrUnsupportedProvider),
		errors.Is(err, errs.ErrConfiguration),
		errors.Is(err, errs.ErrProviderCommunication),
		errors.Is(err, errs.ErrConcurrencyConflict),
		errors.Is(err, currency.ErrInvalidCurrency):
		JSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		slog.Error("Unhandled service error", "error", err)
		JSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
