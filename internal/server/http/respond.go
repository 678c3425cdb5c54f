package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/family-office/internal/errs"
)

const maxBody = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP statuses and client-safe messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, errs.ErrUnauthorized), errors.Is(err, errs.ErrTokenInvalid):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, errs.ErrEmailUnverified):
		return http.StatusForbidden, "email not verified"
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusConflict, "already exists"
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests, "too many attempts, try again later"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError answers with {"error": ...}; unexpected errors are logged and masked.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeJSON reads a single JSON value into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("malformed JSON body: %w", errs.ErrValidation)
	}
	return nil
}
