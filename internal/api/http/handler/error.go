package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dtroode/authgate-server/internal/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleError translates typed failures into HTTP responses. Anything
// unrecognized is surfaced generically so internal details never leak to
// the caller.
func handleError(w http.ResponseWriter, err error) {
	var authErr *model.AuthError
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case model.KindUnauthenticated:
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: authErr.Message})
		case model.KindBadRequest:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: authErr.Message})
		case model.KindNotFound:
			writeJSON(w, http.StatusNotFound, errorResponse{Error: authErr.Message})
		case model.KindRateLimited:
			w.Header().Set("Retry-After", strconv.Itoa(authErr.RetryAfterSeconds))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: authErr.Message})
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		}
		return
	}

	if errors.Is(err, model.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}
