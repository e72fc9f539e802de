package domain

import "errors"

// Sentinel errors shared across the admission core. Callers match them with
// errors.Is; services attach a human-readable reason by wrapping, e.g.
// fmt.Errorf("duplicate request: %w", ErrForbidden).
var (
	// ErrNotFound is returned when a referenced user, event, or request does
	// not exist, or when an organizer asks about an event they do not own.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the references are valid but the
	// operation violates a business rule.
	ErrForbidden = errors.New("forbidden")

	// ErrContention is returned when an optimistic-concurrency conflict was
	// detected on the guarded event. It is the only error a caller should
	// retry.
	ErrContention = errors.New("concurrent admission detected")

	// ErrInvalidInput is returned when the request itself is malformed.
	ErrInvalidInput = errors.New("invalid input")
)
