package core

import (
	"errors"
	"fmt"
)

// ConfigError marks a failure caused by missing or invalid service configuration
// rather than by the request or the upstream model.
type ConfigError struct {
	Setting string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Setting)
}

// UpstreamError wraps a failed or unusable call to the hosted model.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("model request failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

var (
	// ErrMissingAPIKey is returned by every model call when no API key was configured.
	ErrMissingAPIKey error = &ConfigError{Setting: "GEMINI_API_KEY"}

	ErrNotAuthenticated = errors.New("user not authenticated")
	ErrInvalidReport    = errors.New("only successful analyses can be saved")
)
