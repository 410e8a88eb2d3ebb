package errors

import "errors"

// This package defines the centralized sentinel errors for the application.
// Services return these (wrapped with %w) instead of HTTP status codes; the
// API layer maps them with errors.Is(). Internal error text never crosses
// the API boundary; every client-facing message is hand-authored.

var (
	// ErrNotFound signifies that a requested resource could not be located.
	// Mapped to 404 Not Found.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that client input failed business-rule
	// validation. Mapped to 400 Bad Request.
	ErrValidation = errors.New("validation failed")

	// ErrPrecondition signifies that a guarded operation was dispatched
	// before its upstream requirements were satisfied (e.g. generating an
	// offer before a niche is chosen). Mapped to 409 Conflict.
	ErrPrecondition = errors.New("precondition not met")

	// ErrGeneration signifies that an upstream model call failed or kept
	// producing output that the quality gates rejected after all retries.
	// Surfaced to the user as a generic, retryable failure.
	ErrGeneration = errors.New("generation failed")

	// ErrInternal signifies an unexpected server error. Generic by design
	// to avoid leaking implementation detail. Mapped to 500.
	ErrInternal = errors.New("internal server error")
)
