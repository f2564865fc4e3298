package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/startupnamer/vitals/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func writeValidationErrors(w http.ResponseWriter, errs []validation.FieldError) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "errors": errs})
}

// writeQueryError maps read-path failures onto HTTP statuses. Timeouts and
// cancellations are retryable; anything else is a plain server error.
// Analytics reads fail loud, unlike ingestion.
func writeQueryError(w http.ResponseWriter, log zerolog.Logger, err error) {
	log.Error().Err(err).Msg("Query failed")
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success":   false,
			"error":     "query timed out",
			"retryable": true,
		})
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}
