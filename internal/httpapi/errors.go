package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/nikolayk812/storefront/internal/domain"
	"go.uber.org/zap"
)

type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, jsonError{Error: message, Details: details})
}

// writeError maps the engine error taxonomy onto HTTP statuses. Storage
// failures are logged and their cause is not echoed to the client.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *domain.ValidationError
		cerr *domain.ConflictError
	)

	switch {
	case errors.As(err, &verr):
		WriteJSONError(w, http.StatusBadRequest, "validation failed", verr.Error())
	case errors.As(err, &cerr):
		WriteJSONError(w, http.StatusConflict, "conflict", cerr.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, "not found", err.Error())
	case errors.Is(err, context.Canceled):
		// client went away
		w.WriteHeader(499)
	default:
		h.logger.Error("request failed",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		WriteJSONError(w, http.StatusInternalServerError, "internal error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
