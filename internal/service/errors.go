package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent conditions that callers check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped with context via fmt.Errorf("%w", ...)
// 3. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrCredentialMissing indicates the user has not stored a provider API
	// key yet. API layer should map this to HTTP 400.
	ErrCredentialMissing = errors.New("no API credential stored for user")

	// ErrCredentialInvalid indicates the stored credential could not be
	// decrypted or was rejected by the provider. API layer should map this
	// to HTTP 400.
	ErrCredentialInvalid = errors.New("stored API credential is invalid")

	// ErrInsufficientCredits indicates the user's balance cannot cover the
	// requested operation. API layer should map this to HTTP 402.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrQuizNotFound indicates the referenced quiz does not exist.
	// API layer should map this to HTTP 404.
	ErrQuizNotFound = errors.New("quiz not found")

	// ErrNotOwned indicates a resource is owned by a different user than
	// the one making the request. API layer should map this to HTTP 403.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrNotAQuiz indicates the referenced generation result is not a quiz
	// and cannot be graded.
	ErrNotAQuiz = errors.New("generation result is not a quiz")
)
