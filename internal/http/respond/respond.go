// Package respond writes every API response inside one JSON envelope.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/fintrack-be/internal/apperr"
	"github.com/hongminglow/fintrack-be/internal/logger"
)

// Envelope is the standard API response wrapper used across handlers.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes a success or informational response using the common envelope.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Code: status, Message: message, Data: data})
}

// Error writes an error response with the shared envelope structure.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Code: status, Message: message})
}

// Validation writes a 400 carrying the message of a validation error and
// reports whether err was one.
func Validation(w http.ResponseWriter, err error) bool {
	var v *apperr.ValidationError
	if !errors.As(err, &v) {
		return false
	}
	Error(w, http.StatusBadRequest, v.Message)
	return true
}

func write(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Get().Warn("encode response", zap.Int("status", status), zap.Error(err))
	}
}
