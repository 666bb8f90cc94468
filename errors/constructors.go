package errors

import "fmt"

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *StreamerError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("settings file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *StreamerError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid settings: %s", reason))
}

// ConfigWriteFailed wraps a failure to persist a setting at a given scope.
func ConfigWriteFailed(err error, key, scope string) *StreamerError {
	return Wrap(err, ErrCodeConfigWrite, fmt.Sprintf("failed to update %s", key)).
		WithDetail("key", key).
		WithDetail("scope", scope)
}

// ProcessInspectFailed wraps a process enumeration failure
func ProcessInspectFailed(err error) *StreamerError {
	return Wrap(err, ErrCodeProcessInspect, "failed to enumerate running processes")
}

// InvalidInput creates an invalid input error for a named field
func InvalidInput(field, reason string) *StreamerError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("invalid %s: %s", field, reason)).
		WithDetail("field", field)
}
