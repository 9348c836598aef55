package handlers

import (
	"dispatch-board-service/internal/platform/obs"
	"dispatch-board-service/internal/ports"
	"dispatch-board-service/internal/services"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

var validate = validator.New()

type errorResponse struct {
	Error   string       `json:"error"`
	Details []fieldError `json:"details,omitempty"`
}

type fieldError struct {
	Field string `json:"field"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// decodeJSON reads exactly one JSON object into dst and validates it.
// It writes the error response itself and reports whether to continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return false
		}
		details := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fieldError{Field: fe.Namespace(), Code: fe.Tag()})
		}
		writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Details: details})
		return false
	}
	return true
}

// writeServiceError maps service and backend errors to a status code.
// Anything unrecognized is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotInitialized):
		writeError(w, r, http.StatusServiceUnavailable, "board is not loaded yet")
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrUnknownTab),
		errors.Is(err, services.ErrUnknownResourceType),
		errors.Is(err, services.ErrInvalidStatus):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrLockedResource),
		errors.Is(err, services.ErrUnknownEntity),
		errors.Is(err, services.ErrMissingEntity),
		errors.Is(err, services.ErrRowNotFound),
		errors.Is(err, services.ErrInvalidStop),
		errors.Is(err, services.ErrUnknownDispatchGroup):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		zap.L().Error("request failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// Preferences and board defaults are kept per board user.
func scopeOf(r *http.Request) string {
	if s := r.Header.Get("X-Board-User"); s != "" {
		return s
	}
	return "default"
}
