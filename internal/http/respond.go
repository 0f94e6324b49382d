package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"familyfinance/internal/core"
	"familyfinance/internal/log"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondFailure maps a service error to its status code. Server-side
// failures are logged with the request-scoped logger and answered with a
// generic message.
func (s *Server) respondFailure(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, errType := classify(err)
	ctx := r.Context()
	switch {
	case status >= 500:
		fields := log.NewFields().WithErrorType(errType)
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Request failed", err, operation, fields)
	default:
		log.FromContext(ctx).DebugContext(ctx, "Request rejected",
			log.FieldOperation, operation,
			log.FieldError, err.Error(),
			log.FieldErrorType, errType)
	}

	switch status {
	case http.StatusBadRequest, http.StatusNotFound:
		respondError(w, status, err.Error())
	case http.StatusServiceUnavailable:
		respondError(w, status, "Request timed out")
	default:
		respondError(w, status, "Internal server error")
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalid):
		return http.StatusBadRequest, log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, log.ErrorTypeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, log.ErrorTypeTimeout
	default:
		return http.StatusInternalServerError, log.ErrorTypeDatabase
	}
}

// decodeBody reads one JSON document of at most maxBodyBytes into v.
// Unknown fields are ignored.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) (int, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return http.StatusRequestEntityTooLarge, "Request body too large", false
		}
		return http.StatusBadRequest, "Invalid request body", false
	}
	return 0, "", true
}
