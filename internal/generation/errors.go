package generation

import (
	"errors"
	"fmt"
)

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate content")

	// ErrUnparsableResponse is returned when the model response cannot be
	// parsed into the expected structure
	ErrUnparsableResponse = errors.New("unparsable response from language model")

	// ErrInvalidCredential is returned when the backend rejects the
	// provided API credential
	ErrInvalidCredential = errors.New("provider rejected the API credential")

	// ErrAllCandidatesFailed is returned when every model candidate in the
	// fallback list was tried without success
	ErrAllCandidatesFailed = errors.New("all model candidates failed")

	// ErrInvalidConfig is returned when the gateway configuration is invalid
	ErrInvalidConfig = errors.New("invalid gateway configuration")

	// ErrEmptyPrompt is returned when asked to generate from an empty prompt
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
)

// FailureCategory distinguishes upstream failures that may resolve on a
// different candidate or a later retry from those that cannot.
type FailureCategory string

const (
	// FailureTransient covers timeouts, server errors and rate limiting.
	// The fallback loop advances to the next candidate.
	FailureTransient FailureCategory = "transient"

	// FailurePermanent covers invalid credentials and exhausted quotas.
	// Trying further candidates with a dead credential cannot succeed, so
	// the loop aborts immediately.
	FailurePermanent FailureCategory = "permanent"
)

// GatewayError wraps an upstream failure with its category and the model
// candidate that produced it.
type GatewayError struct {
	Category FailureCategory
	Model    string
	Err      error
}

// Error implements the error interface for GatewayError.
func (e *GatewayError) Error() string {
	return fmt.Sprintf("model %s failed (%s): %v", e.Model, e.Category, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError creates a GatewayError for the given candidate.
func NewGatewayError(model string, category FailureCategory, err error) *GatewayError {
	return &GatewayError{
		Category: category,
		Model:    model,
		Err:      err,
	}
}

// IsPermanent reports whether err carries a permanent failure category.
func IsPermanent(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr) && gwErr.Category == FailurePermanent
}

// IsTransient reports whether err carries a transient failure category.
func IsTransient(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr) && gwErr.Category == FailureTransient
}
