package models

import (
	"errors"
	"fmt"
)

// ErrNotFound returned by stores when a key or row does not exist
var ErrNotFound = errors.New("not found")

// ConfigurationError startup configuration problem (bad ROI file, missing
// env var, missing certificate). Callers treat it as fatal.
type ConfigurationError struct {
	Source string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := e.Reason
	if e.Source != "" {
		msg = fmt.Sprintf("%s: %s", e.Source, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "configuration error: " + msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError helper
func NewConfigurationError(source, reason string, err error) *ConfigurationError {
	return &ConfigurationError{Source: source, Reason: reason, Err: err}
}
