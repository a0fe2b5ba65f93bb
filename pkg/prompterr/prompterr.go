// Package prompterr defines the error taxonomy shared by the prompt
// rendering pipeline. Success is a nil error.
package prompterr

import "errors"

var (
	// ErrInvalidParameter reports a nil or out-of-range argument.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidState reports an operation attempted in the wrong
	// lifecycle state (e.g. submitting to a stopped worker).
	ErrInvalidState = errors.New("invalid state")

	// ErrResourceExhausted reports a full queue or exhausted buffer.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrSystemCall reports a failed operating system interaction.
	ErrSystemCall = errors.New("system call failed")

	// ErrNotInitialized reports use of a subsystem before setup.
	ErrNotInitialized = errors.New("not initialized")

	// ErrFeatureNotAvailable reports a request type or capability that
	// has no handler.
	ErrFeatureNotAvailable = errors.New("feature not available")
)
