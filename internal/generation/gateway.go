package generation

import (
	"context"
	"time"
)

// AttemptOutcome classifies a single model attempt for the attempt log.
type AttemptOutcome string

const (
	// OutcomeSuccess means the candidate returned usable text.
	OutcomeSuccess AttemptOutcome = "success"

	// OutcomeTransientFailure means the candidate failed in a way the next
	// candidate might not (timeout, 5xx, rate limit).
	OutcomeTransientFailure AttemptOutcome = "transient_failure"

	// OutcomePermanentFailure means the failure applies to every candidate
	// (invalid credential, exhausted quota).
	OutcomePermanentFailure AttemptOutcome = "permanent_failure"
)

// Attempt records one model invocation for diagnostics. Attempts are
// recorded for every candidate tried, regardless of the overall outcome.
// Error holds a redacted message, never the raw upstream body.
type Attempt struct {
	Model   string         `json:"model"`
	Outcome AttemptOutcome `json:"outcome"`
	Latency time.Duration  `json:"latency"`
	Error   string         `json:"error,omitempty"`
}

// Gateway is the boundary to the generative backend. Implementations
// maintain an ordered list of model candidates and try them in order:
// transient failures advance to the next candidate, permanent failures
// abort immediately, and the first success wins.
//
// The returned attempt log always covers every candidate that was tried,
// including when the overall call fails.
type Gateway interface {
	// Generate produces raw model output for the prompt using the given
	// provider API key. On failure the error is a *GatewayError carrying
	// the category of the final attempt.
	Generate(ctx context.Context, prompt, apiKey string) (text string, attempts []Attempt, err error)
}
