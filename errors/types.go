package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigWrite    ErrorCode = "CONFIG_WRITE"

	// Process inspection errors
	ErrCodeProcessInspect ErrorCode = "PROCESS_INSPECT"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// StreamerError represents a structured error with context
type StreamerError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *StreamerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *StreamerError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *StreamerError) WithDetail(key string, value interface{}) *StreamerError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *StreamerError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new StreamerError
func New(code ErrorCode, message string) *StreamerError {
	return &StreamerError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a StreamerError
func Wrap(err error, code ErrorCode, message string) *StreamerError {
	return &StreamerError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific StreamerError code
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, walking the Unwrap chain.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	streamerErr, ok := err.(*StreamerError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return streamerErr.Code
}

// AsStreamerError returns the first StreamerError in err's chain.
func AsStreamerError(err error) (*StreamerError, bool) {
	for err != nil {
		if streamerErr, ok := err.(*StreamerError); ok {
			return streamerErr, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}
