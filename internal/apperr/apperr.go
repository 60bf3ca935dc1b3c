package apperr

import (
	"errors"
	"net/http"
)

// Code is a stable error code exposed to API callers. Presentation layers
// branch on the code, never on message text.
type Code string

const (
	CodeBadParam      Code = "BAD_PARAM"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeNotFound      Code = "NOT_FOUND"
	CodeEnded         Code = "ENDED"
	CodeTokenMismatch Code = "TOKEN_MISMATCH"
	CodeFull          Code = "FULL"
	CodeForbidden     Code = "FORBIDDEN"
	CodeConflict      Code = "CONFLICT"
	CodeInternal      Code = "INTERNAL"
)

// Error is a structured error carrying a stable code and a human message.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// New creates a structured error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the stable code from err, or INTERNAL for plain errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Is supports errors.Is matching on the code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus maps a code to the HTTP status used by the REST layer.
func HTTPStatus(code Code) int {
	switch code {
	case CodeBadParam:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeEnded, CodeFull, CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
