package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"journal-ai/internal/contextutil"
	"journal-ai/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleServiceError maps service errors to HTTP status codes and responses.
func handleServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)
	status := service.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "service error", "error", err)
	} else {
		logger.WarnContext(ctx, "request rejected", "error", err)
	}

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, status, fmt.Sprintf("Validation error: %s", validationErr.Error()))
	case status == http.StatusBadRequest:
		writeError(w, status, "Invalid input")
	case status == http.StatusNotFound:
		writeError(w, status, "Resource not found")
	case status == http.StatusBadGateway:
		writeError(w, status, "External service error")
	default:
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
