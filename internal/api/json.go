package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/notesd/internal/apperr"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 4 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON: "+err.Error()))
		return false
	}
	return true
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
	Kind  string `json:"kind,omitempty" example:"not_found"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps a facade error onto a status code. Storage failures are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrCapacityExceeded):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrTypeMismatch), errors.Is(err, apperr.ErrInvariantViolation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrInvalidArgument), errors.Is(err, apperr.ErrInvalidCursor):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		writeJSON(w, status, errResponse{Error: "internal error", Kind: apperr.Kind(err)})
		return
	}
	writeJSON(w, status, errResponse{Error: err.Error(), Kind: apperr.Kind(err)})
}
