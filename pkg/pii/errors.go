package pii

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching.
var (
	// ErrConfiguration indicates the pattern registry could not be built.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidEncoding indicates the input text is not valid UTF-8.
	ErrInvalidEncoding = errors.New("input is not valid UTF-8")
)

// ConfigurationError reports a pattern pack that failed to load or compile.
// It is fatal: no registry or governance instance is produced.
type ConfigurationError struct {
	Pack      string // Pack name ("core", "ae", "finance", or a file path)
	PatternID string // Offending pattern, empty for pack-level failures
	Cause     error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.PatternID != "" {
		return fmt.Sprintf("configuration error [pack=%s, pattern=%s]: %v", e.Pack, e.PatternID, e.Cause)
	}
	return fmt.Sprintf("configuration error [pack=%s]: %v", e.Pack, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(pack, patternID string, cause error) *ConfigurationError {
	return &ConfigurationError{Pack: pack, PatternID: patternID, Cause: cause}
}

// InputEncodingError reports input that is not valid UTF-8. Only the failing
// call is affected.
type InputEncodingError struct {
	Offset int // Byte offset of the first invalid sequence
}

// Error implements the error interface.
func (e *InputEncodingError) Error() string {
	return fmt.Sprintf("%v at byte offset %d", ErrInvalidEncoding, e.Offset)
}

// Is matches ErrInvalidEncoding.
func (e *InputEncodingError) Is(target error) bool {
	return target == ErrInvalidEncoding
}
