package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-systems/custodia-backend/internal/domain"
	"github.com/custodia-systems/custodia-backend/internal/logger"
)

// errorResponse is the JSON body returned for every failed request
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// mapError translates domain error kinds to HTTP status codes.
// Unknown errors are logged and reported as a bare 500 so internal
// details never leak to clients.
func mapError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var kind string

	switch {
	case errors.Is(err, domain.ErrValidation):
		status, kind = http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrUnauthorized):
		status, kind = http.StatusForbidden, "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidState):
		status, kind = http.StatusConflict, "invalid_state"
	case errors.Is(err, domain.ErrConflict):
		status, kind = http.StatusConflict, "conflict"
	default:
		logger.FromContext(r.Context()).Error("Unhandled error", "path", r.URL.Path, "error", err)
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Kind: "internal"})
		return
	}

	sendJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func sendJSONError(w http.ResponseWriter, message string, status int) {
	kind := "error"
	switch status {
	case http.StatusBadRequest:
		kind = "validation"
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = "unauthorized"
	case http.StatusNotFound:
		kind = "not_found"
	}
	sendJSON(w, status, errorResponse{Error: message, Kind: kind})
}

func sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
