package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mentora-learn/mentora-api/internal/api/shared"
	"github.com/mentora-learn/mentora-api/internal/domain"
	"github.com/mentora-learn/mentora-api/internal/generation"
	"github.com/mentora-learn/mentora-api/internal/service"
	"github.com/mentora-learn/mentora-api/internal/service/auth"
	"github.com/mentora-learn/mentora-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	// Payment-required errors
	case errors.Is(err, service.ErrInsufficientCredits):
		return http.StatusPaymentRequired

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrGenerationResultNotFound),
		errors.Is(err, store.ErrProgressNotFound),
		errors.Is(err, service.ErrQuizNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrCredentialMissing),
		errors.Is(err, service.ErrCredentialInvalid),
		errors.Is(err, service.ErrNotAQuiz),
		errors.Is(err, store.ErrInvalidEntity),
		isValidationError(err):
		return http.StatusBadRequest

	// Upstream model errors: an unparsable response is a bad gateway, a
	// failed generation (timeouts, exhausted candidates) is temporary.
	case errors.Is(err, generation.ErrUnparsableResponse):
		return http.StatusBadGateway

	case errors.Is(err, generation.ErrGenerationFailed),
		errors.Is(err, generation.ErrAllCandidatesFailed):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password"

	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"

	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this resource"

	case errors.Is(err, service.ErrInsufficientCredits):
		return "Insufficient credits"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrGenerationResultNotFound):
		return "Generation result not found"

	case errors.Is(err, service.ErrQuizNotFound):
		return "Quiz not found"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, service.ErrCredentialMissing):
		return "No API key configured; add one before generating content"

	case errors.Is(err, service.ErrCredentialInvalid):
		return "The configured API key was rejected; update it and try again"

	case errors.Is(err, service.ErrNotAQuiz):
		return "The referenced content is not a quiz"

	case errors.Is(err, generation.ErrUnparsableResponse):
		return "The model returned an unusable response; please try again"

	case errors.Is(err, generation.ErrGenerationFailed),
		errors.Is(err, generation.ErrAllCandidatesFailed):
		return "Content generation is temporarily unavailable; please try again"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case isValidationError(err):
		return "Validation error: " + err.Error()

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the standard error response for err: the status
// from MapErrorToStatusCode and the sanitized message, with the raw error
// redacted into the logs. An empty userMessage falls back to the mapped
// safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}

// SanitizeValidationError removes sensitive details from validator errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// isValidationError reports whether err originates from domain validation.
// Validation failures carry safe, field-level messages that can be shown
// to clients verbatim.
func isValidationError(err error) bool {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return true
	}

	for _, sentinel := range []error{
		domain.ErrValidation,
		domain.ErrInvalidID,
		domain.ErrInvalidEmail,
		domain.ErrInvalidPassword,
		domain.ErrEmptyContent,
		domain.ErrInvalidKind,
		domain.ErrSubjectIDEmpty,
		domain.ErrTopicEmpty,
		domain.ErrInvalidDifficulty,
		domain.ErrQuizIDEmpty,
		domain.ErrNoAnswers,
		domain.ErrAnswerQuestionIDEmpty,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
