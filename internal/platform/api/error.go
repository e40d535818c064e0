package api

import (
	"net/http"
)

// Error codes shared by the comments API.
const (
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeMissingID        = "MISSING_ID"
	CodeInvalidJSON      = "INVALID_JSON"
	CodeValidation       = "VALIDATION_FAILED"
	CodeDuplicate        = "DUPLICATE"
	CodeDuplicateRequest = "DUPLICATE_REQUEST"
	CodeTimeout          = "TIMEOUT"
	CodeInternal         = "INTERNAL"
)

// ErrorResponse is the envelope of every non-2xx JSON body.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, code, message, requestID string, details map[string]any) {
	WriteJSON(w, status, ErrorResponse{Error: APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: requestID,
	}})
}

func BadRequest(w http.ResponseWriter, code, message, requestID string, details map[string]any) {
	WriteError(w, http.StatusBadRequest, code, message, requestID, details)
}

func Unauthorized(w http.ResponseWriter, message, requestID string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message, requestID, nil)
}

// Forbidden is also used for writes that match no owned comment; the
// caller cannot tell a missing comment from someone else's.
func Forbidden(w http.ResponseWriter, message, requestID string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message, requestID, nil)
}

func NotFound(w http.ResponseWriter, message, requestID string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message, requestID, nil)
}

func Conflict(w http.ResponseWriter, code, message, requestID string, details map[string]any) {
	WriteError(w, http.StatusConflict, code, message, requestID, details)
}

func GatewayTimeout(w http.ResponseWriter, requestID string) {
	WriteError(w, http.StatusGatewayTimeout, CodeTimeout, "comment store timed out", requestID, nil)
}

func Internal(w http.ResponseWriter, requestID string) {
	WriteError(w, http.StatusInternalServerError, CodeInternal, "internal server error", requestID, nil)
}
