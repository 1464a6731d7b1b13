package games

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by the engine when a game id is unknown.
var ErrNotFound = errors.New("game not found")

// ValidationError is bad player-facing input. It never mutates state and its
// message is safe to show to the player.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// RuleViolation is an internal invariant an effect handler refused to break.
// Handlers recover from it locally and surface it as feedback.
type RuleViolation struct {
	Message string
}

func (e *RuleViolation) Error() string { return e.Message }

// IntegrityFailure is fatal to the current operation: a missing catalog entry
// or a malformed snapshot.
type IntegrityFailure struct {
	Message string
	Err     error
}

func (e *IntegrityFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("integrity failure: %s: %v", e.Message, e.Err)
	}
	return "integrity failure: " + e.Message
}

func (e *IntegrityFailure) Unwrap() error { return e.Err }

func invalidf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func integrityf(format string, args ...interface{}) error {
	return &IntegrityFailure{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsIntegrity reports whether err is (or wraps) an IntegrityFailure.
func IsIntegrity(err error) bool {
	var v *IntegrityFailure
	return errors.As(err, &v)
}
