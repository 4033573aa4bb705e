// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package so internal details
// (stack traces, SQL errors) never leak.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
// Redirect is set by the access guard to point the client at the page it
// should fall back to.
type APIError struct {
	Detail   string `json:"detail"`
	Redirect string `json:"redirect,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

func NewRedirect(msg, redirect string) *APIError {
	return &APIError{Detail: msg, Redirect: redirect}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation error", Fields: fields}
}
