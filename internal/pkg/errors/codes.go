package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternal        = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrUnauthorized    = 1003
	ErrForbidden       = 1004
	ErrConflict        = 1005
	ErrTooManyRequests = 1006
	ErrBadRequest      = 1007
	ErrServiceUnavail  = 1008

	// Auth errors (2000-2999)
	ErrAuthSignupFailed = 2000
	ErrAuthLoginFailed  = 2001
	ErrAuthNoToken      = 2002
	ErrAuthInvalidInput = 2003

	// Client-side errors (6000-6999)
	ErrNetwork       = 6000
	ErrMalformedData = 6001
	ErrStorage       = 6002
	ErrConfig        = 6003

	// Execution errors (7000-7999)
	ErrExecutionNotFound    = 7000
	ErrExecutionFetchFailed = 7001
	ErrReExecuteFailed      = 7002
)

var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	ErrInternal:        {ErrInternal, http.StatusInternalServerError, "Internal error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrUnauthorized:    {ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	ErrForbidden:       {ErrForbidden, http.StatusForbidden, "Forbidden"},
	ErrConflict:        {ErrConflict, http.StatusConflict, "Resource conflict"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail:  {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	ErrAuthSignupFailed: {ErrAuthSignupFailed, http.StatusBadRequest, "Signup failed. Please try again."},
	ErrAuthLoginFailed:  {ErrAuthLoginFailed, http.StatusUnauthorized, "Login failed. Please try again."},
	ErrAuthNoToken:      {ErrAuthNoToken, http.StatusBadGateway, "No token in authentication response"},
	ErrAuthInvalidInput: {ErrAuthInvalidInput, http.StatusBadRequest, "Invalid form input"},

	ErrNetwork:       {ErrNetwork, http.StatusBadGateway, "Network error"},
	ErrMalformedData: {ErrMalformedData, http.StatusUnprocessableEntity, "Malformed data"},
	ErrStorage:       {ErrStorage, http.StatusInternalServerError, "Token storage error"},
	ErrConfig:        {ErrConfig, http.StatusInternalServerError, "Invalid configuration"},

	ErrExecutionNotFound:    {ErrExecutionNotFound, http.StatusNotFound, "Execution not found"},
	ErrExecutionFetchFailed: {ErrExecutionFetchFailed, http.StatusBadGateway, "Failed to fetch execution"},
	ErrReExecuteFailed:      {ErrReExecuteFailed, http.StatusBadGateway, "Failed to re-execute"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternal]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// FromHTTPStatus maps a response status to the closest common code.
func FromHTTPStatus(status int) int {
	switch status {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrTooManyRequests
	case http.StatusServiceUnavailable:
		return ErrServiceUnavail
	}
	if status >= 200 && status < 300 {
		return Success
	}
	if status >= 400 && status < 500 {
		return ErrBadRequest
	}
	return ErrInternal
}

// IsClientError checks if the code represents a client error (4xx)
func IsClientError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
