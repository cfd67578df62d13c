// Package apperr defines the error kinds that callers of the conversion
// pipeline report differently: bad input versus a missing runtime capability.
package apperr

import (
	"errors"
	"fmt"
)

// InputError is a user-facing validation failure detected before any work starts.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

// Input returns an InputError with a formatted message.
func Input(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// DependencyError reports that an optional capability (OCR, deck storage)
// is not available in this build or on this host.
type DependencyError struct {
	Capability string
	Hint       string
	Err        error
}

func (e *DependencyError) Error() string {
	msg := e.Capability + " unavailable"
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	if e.Err != nil {
		msg += " (" + e.Err.Error() + ")"
	}
	return msg
}

func (e *DependencyError) Unwrap() error { return e.Err }

// IsInput reports whether err is, or wraps, an InputError.
func IsInput(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsDependency reports whether err is, or wraps, a DependencyError.
func IsDependency(err error) bool {
	var de *DependencyError
	return errors.As(err, &de)
}
