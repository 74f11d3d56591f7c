package handler

import (
	"context"
	"encoding/json"
	"errors"
	apperrors "it-asset-tracker/pkg/errors"
	"log"
	"net/http"

	"github.com/google/uuid"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Field   string                 `json:"field,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps replies that carry a message.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorHandler provides centralized error handling functionality for handlers
type ErrorHandler struct {
	Logger *log.Logger
}

// NewErrorHandler creates a new ErrorHandler instance
func NewErrorHandler(logger *log.Logger) *ErrorHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &ErrorHandler{
		Logger: logger,
	}
}

// SendErrorResponse sends a structured error response
func (e *ErrorHandler) SendErrorResponse(w http.ResponseWriter, statusCode int, response ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		e.Logger.Printf("Failed to encode error response: %v", err)
	}
}

// SendSuccessResponse sends a structured success response
func (e *ErrorHandler) SendSuccessResponse(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	e.SendJSONResponse(w, statusCode, SuccessResponse{
		Message: message,
		Data:    data,
	})
}

// SendJSONResponse sends a generic JSON response
func (e *ErrorHandler) SendJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		e.Logger.Printf("Failed to encode JSON response: %v", err)
		e.SendErrorResponse(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to encode response", Code: "ENCODING_ERROR"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	body = append(body, '\n')
	if _, err := w.Write(body); err != nil {
		e.Logger.Printf("Failed to write JSON response: %v", err)
	}
}

// HandleServiceError maps service errors to HTTP responses. Server-side
// failures are logged with their cause and answered without it.
func (e *ErrorHandler) HandleServiceError(w http.ResponseWriter, err error, operation string) {
	if errors.Is(err, context.DeadlineExceeded) {
		e.Logger.Printf("Timeout during %s: %v", operation, err)
		e.SendErrorResponse(w, http.StatusRequestTimeout, ErrorResponse{Error: "Operation timed out", Code: string(apperrors.ErrorCodeTimeout)})
		return
	}

	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.WrapError(err, "Failed to "+operation)
	}

	status := appErr.GetHTTPStatus()
	if status >= http.StatusInternalServerError {
		e.Logger.Printf("Error during %s: %v", operation, err)
	}

	e.SendErrorResponse(w, status, ErrorResponse{
		Error:   appErr.Message,
		Code:    string(appErr.Code),
		Field:   appErr.Field,
		Details: appErr.Details,
	})
}

// HandleJSONDecodeError handles JSON decoding errors
func (e *ErrorHandler) HandleJSONDecodeError(w http.ResponseWriter, err error) {
	e.Logger.Printf("JSON decode error: %v", err)
	e.SendErrorResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON format", Code: string(apperrors.ErrorCodeInvalidJSON)})
}

// ParseAndValidateUUID parses and validates UUID from string
func (e *ErrorHandler) ParseAndValidateUUID(w http.ResponseWriter, idStr string) (uuid.UUID, bool) {
	if idStr == "" {
		e.SendErrorResponse(w, http.StatusBadRequest, ErrorResponse{Error: "ID is required", Code: "INVALID_UUID", Field: "id"})
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		e.SendErrorResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid UUID format", Code: "INVALID_UUID", Field: "id"})
		return uuid.Nil, false
	}

	return id, true
}

// DecodeJSON decodes the request body into dst. On failure it writes the
// error response and returns false.
func (e *ErrorHandler) DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		e.HandleJSONDecodeError(w, err)
		return false
	}
	return true
}
