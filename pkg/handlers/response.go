package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/projectvault/projectvault/pkg/apperrors"
	"github.com/projectvault/projectvault/pkg/logging"
)

// ApiResponse is the envelope of every successful JSON response.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeData wraps data in a successful ApiResponse.
func writeData(w http.ResponseWriter, statusCode int, data any, logger *zap.Logger) {
	if err := WriteJSON(w, statusCode, ApiResponse{Success: true, Data: data}); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, statusCode int, errorCode, message string, logger *zap.Logger) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// errorMapping pairs a domain error with its stable client-facing signal.
type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperrors.ErrAlreadyLocked, http.StatusConflict, "already_locked"},
	{apperrors.ErrNotLocked, http.StatusConflict, "not_locked"},
	{apperrors.ErrConflict, http.StatusConflict, "conflict"},
	{apperrors.ErrNotAFriend, http.StatusForbidden, "not_a_friend"},
	{apperrors.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperrors.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
}

// writeServiceError maps a service error to a response. Unclassified errors
// are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, err error, action string, logger *zap.Logger, fields ...zap.Field) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			logger.Debug(action+" rejected", append(fields, zap.Error(err))...)
			writeError(w, m.status, m.code, err.Error(), logger)
			return
		}
	}

	logger.Error(action+" failed", append(fields, zap.String("error", logging.SanitizeError(err)))...)
	writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error", logger)
}

// decodeBody decodes a JSON request body into dst. An empty body is
// accepted when optional is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool, logger *zap.Logger) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", logger)
	return false
}
