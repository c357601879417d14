package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"pbx-api/internal/apperr"
)

// errorBody is the shape the frontend reads error messages from.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// statusFor maps the error taxonomy onto HTTP statuses. Conflicts are 400,
// which is what clients of the queue endpoints expect for duplicate names.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// reportError answers a failed read-only report. Internal failures get a
// generic body; the cause only goes to the log.
func reportError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		requestLogger(r).Error("report failed", "op", op, "error", err)
		writeError(w, status, "query error")
		return
	}
	writeError(w, status, err.Error())
}
