package domain

import "errors"

// Sentinel errors for the error kinds every operation can report.
// Services wrap these with fmt.Errorf("%w: ...") so callers can match
// the kind with errors.Is while still getting a human-readable message.
var (
	// ErrValidation indicates malformed input: non-positive quantity,
	// negative price, malformed security identifier, missing required field.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates an unknown holding, user, or price key.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the actor's role does not permit the
	// requested operation.
	ErrUnauthorized = errors.New("not authorized")

	// ErrInvalidState indicates a transition or edit attempted on a
	// holding that is no longer pending, including the loser of a
	// concurrent double-review.
	ErrInvalidState = errors.New("invalid state")

	// ErrConflict indicates a duplicate unique key, e.g. a username
	// that is already registered.
	ErrConflict = errors.New("conflict")
)
