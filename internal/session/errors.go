package session

import (
	"errors"
	"fmt"
)

// ErrAuthRequired signals that no usable session exists. It is recoverable
// only by an out-of-band interactive step; the session layer never retries
// it and never blocks waiting for a human.
var ErrAuthRequired = errors.New("authentication required")

// AuthRequiredError carries the reason a session could not be established.
// It matches ErrAuthRequired under errors.Is.
type AuthRequiredError struct {
	Reason string
	Cause  error
}

func (e *AuthRequiredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authentication required: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("authentication required: %s", e.Reason)
}

func (e *AuthRequiredError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrAuthRequired
}

func (e *AuthRequiredError) Is(target error) bool {
	return target == ErrAuthRequired
}
