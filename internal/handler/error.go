// Package handler contains the HTTP handlers for the LanceCerto API.
//
// All endpoints speak JSON. Error bodies are flat: {"error": message} with
// an optional stable "code" field the client matches on.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lancecerto/lancecerto/internal/domain"
	"github.com/lancecerto/lancecerto/internal/metrics"
)

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// ErrorResponse writes an error response to the client, mapping domain error
// codes to HTTP status codes. Policy denials are counted.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		ValidationErrorResponse(w, r, logger, ve)
		return
	}

	code := domain.ErrorCode(err)
	clientCode := domain.ErrorClientCode(err)
	message := domain.ErrorMessage(err)
	status := ErrorCodeToHTTPStatus(code)

	logError(logger, r, err, code, domain.ErrorOp(err), status)

	if code == domain.EFORBIDDEN && clientCode != "" {
		metrics.PolicyDenials.WithLabelValues(clientCode).Inc()
	}

	payload := map[string]string{"error": message}
	if clientCode != "" {
		payload["code"] = clientCode
	}
	writeJSON(w, status, payload)
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable // 503
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// ValidationErrorResponse writes field-level validation errors as a 400 with
// a details map keyed by field name.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, ve *domain.ValidationError) {
	logger.Info("validation error",
		"op", ve.Op,
		"field_count", len(ve.Fields),
		"path", r.URL.Path,
	)

	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "Dados inválidos",
		"details": ve.Fields,
	})
}

// BadRequestResponse is a convenience wrapper for malformed request bodies.
func BadRequestResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string) {
	ErrorResponse(w, r, logger, domain.Invalid("", message))
}

// logError logs with a level chosen by status: 5xx are server faults, 4xx are
// expected client errors.
func logError(logger *slog.Logger, r *http.Request, err error, code, op string, status int) {
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
	}
	if op != "" {
		attrs = append(attrs, "op", op)
	}

	if status >= 500 {
		logger.Error("server error", attrs...)
	} else if status >= 400 {
		logger.Info("client error", attrs...)
	}
}

// decodeJSON decodes a JSON request body into dst, limiting it to 1MB.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
