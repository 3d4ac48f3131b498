// Package redact provides utilities for redacting sensitive information from
// strings before they are logged. Raw upstream errors can carry provider API
// keys, bearer tokens, or database connection strings; everything written to
// the attempt log or the structured log passes through here first.
package redact

import "regexp"

// Redaction placeholders.
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
)

// Precompiled redaction patterns.
var (
	// Database connection strings with embedded credentials.
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@`)

	// Google API keys (the provider keys this system stores) and generic
	// key/token assignments.
	googleKeyRegex = regexp.MustCompile(`AIza[0-9A-Za-z_-]{10,}`)
	apiKeyRegex    = regexp.MustCompile(`(?i)(api[_-]?key|token|secret|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`)

	// Standard three-part base64url JWT tokens.
	jwtTokenRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)

	// Email addresses.
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// replacements pairs each pattern with its placeholder, applied in order.
// JWTs and provider keys run before the generic key pattern so they get
// their specific placeholders.
var replacements = []struct {
	pattern     *regexp.Regexp
	placeholder string
}{
	{dbConnRegex, RedactedCredentialPlaceholder + "@"},
	{jwtTokenRegex, RedactedJWTPlaceholder},
	{googleKeyRegex, RedactedKeyPlaceholder},
	{apiKeyRegex, "${1}${2}" + RedactedKeyPlaceholder},
	{emailRegex, RedactedEmailPlaceholder},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range replacements {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
// Returns an empty string for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
