package errors

import "errors"

var (
	// ErrUnauthorized is a generic sentinel for unidentified callers.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is a generic sentinel for callers lacking a role or
	// mutating an assignment they do not own.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrPreconditionFailed signals a pipeline phase invoked out of order.
	// The wrapping message names the phase the operator has to run first.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrValidationFailed is a generic sentinel for malformed input.
	ErrValidationFailed = errors.New("validation failed")
)

func Is(err, target error) bool {
	return errors.Is(err, target)
}
