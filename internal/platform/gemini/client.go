// Package gemini implements the generation.Gateway boundary using Google's
// Gemini API. The client walks an ordered list of model candidates with a
// bounded per-attempt timeout: transient failures advance to the next
// candidate, permanent failures (dead credential, exhausted quota) abort
// immediately.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/mentora-learn/mentora-api/internal/config"
	"github.com/mentora-learn/mentora-api/internal/generation"
	"github.com/mentora-learn/mentora-api/internal/platform/logger"
	"github.com/mentora-learn/mentora-api/internal/redact"
	"google.golang.org/genai"
)

// maxCandidates caps the fallback list so a single request has a hard
// worst-case latency ceiling.
const maxCandidates = 3

// invokeFn performs one model call. It is a field on Client so tests can
// substitute a stub without reaching the network.
type invokeFn func(ctx context.Context, model, apiKey, prompt string) (string, error)

// Client implements generation.Gateway against the Gemini API.
//
// Clients are cheap to construct and hold no connection state: each call
// builds a genai client around the per-user API key supplied by the
// caller, so one Client instance serves all users.
type Client struct {
	models  []string
	timeout time.Duration
	logger  *slog.Logger
	invoke  invokeFn
}

// Compile-time check that Client implements generation.Gateway.
var _ generation.Gateway = (*Client)(nil)

// NewClient creates a gateway client from LLM configuration.
// Returns generation.ErrInvalidConfig if the candidate list is empty or
// exceeds the candidate cap, or the timeout is not positive.
func NewClient(cfg config.LLMConfig, log *slog.Logger) (*Client, error) {
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("%w: candidate list cannot be empty", generation.ErrInvalidConfig)
	}
	if len(cfg.Models) > maxCandidates {
		return nil, fmt.Errorf("%w: at most %d candidates allowed, got %d",
			generation.ErrInvalidConfig, maxCandidates, len(cfg.Models))
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("%w: request timeout must be positive", generation.ErrInvalidConfig)
	}

	if log == nil {
		log = slog.Default()
	}

	c := &Client{
		models:  cfg.Models,
		timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		logger:  log.With(slog.String("component", "gemini_gateway")),
	}
	c.invoke = c.callGemini

	return c, nil
}

// Generate implements generation.Gateway.Generate. Candidates are tried in
// order; the first success wins and remaining candidates are not tried.
// Every attempt is recorded in the returned log regardless of outcome.
func (c *Client) Generate(
	ctx context.Context,
	prompt, apiKey string,
) (string, []generation.Attempt, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	if prompt == "" {
		return "", nil, generation.ErrEmptyPrompt
	}
	if apiKey == "" {
		return "", nil, generation.NewGatewayError("", generation.FailurePermanent,
			generation.ErrInvalidCredential)
	}

	attempts := make([]generation.Attempt, 0, len(c.models))
	var lastErr *generation.GatewayError

	for _, model := range c.models {
		start := time.Now()

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		text, err := c.invoke(attemptCtx, model, apiKey, prompt)
		cancel()

		latency := time.Since(start)

		if err == nil {
			attempts = append(attempts, generation.Attempt{
				Model:   model,
				Outcome: generation.OutcomeSuccess,
				Latency: latency,
			})
			log.Debug("model candidate succeeded",
				slog.String("model", model),
				slog.Duration("latency", latency),
				slog.Int("attempt", len(attempts)))
			return text, attempts, nil
		}

		category := classifyError(err)
		outcome := generation.OutcomeTransientFailure
		if category == generation.FailurePermanent {
			outcome = generation.OutcomePermanentFailure
		}

		attempts = append(attempts, generation.Attempt{
			Model:   model,
			Outcome: outcome,
			Latency: latency,
			Error:   redact.Error(err),
		})
		lastErr = generation.NewGatewayError(model, category, err)

		log.Warn("model candidate failed",
			slog.String("model", model),
			slog.String("category", string(category)),
			slog.Duration("latency", latency),
			slog.String("error", redact.Error(err)))

		// A dead credential fails identically on every candidate; trying
		// more models only wastes latency.
		if category == generation.FailurePermanent {
			return "", attempts, lastErr
		}
	}

	return "", attempts, fmt.Errorf("%w: %w", generation.ErrAllCandidatesFailed, lastErr)
}

// callGemini performs a single request against the Gemini API using the
// given model candidate and per-user API key.
func (c *Client) callGemini(ctx context.Context, model, apiKey, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("empty response from model")
	}
	return text, nil
}

// classifyError maps an upstream failure to a fallback category.
//
// Timeouts, server errors and rate limiting are transient: a different
// candidate (or a later retry) may succeed. Credential rejections and
// exhausted quotas are permanent: they apply to every candidate. Unknown
// errors default to transient so the fallback list still gets a chance.
func classifyError(err error) generation.FailureCategory {
	if err == nil {
		return generation.FailureTransient
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return generation.FailureTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return generation.FailureTransient
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401 || apiErr.Code == 403:
			return generation.FailurePermanent
		case apiErr.Code == 400 && strings.Contains(strings.ToLower(apiErr.Message), "api key"):
			return generation.FailurePermanent
		case apiErr.Status == "RESOURCE_EXHAUSTED" && strings.Contains(strings.ToLower(apiErr.Message), "quota"):
			// Out of quota on the account, not just rate limited.
			return generation.FailurePermanent
		case apiErr.Code == 429:
			return generation.FailureTransient
		case apiErr.Code >= 500:
			return generation.FailureTransient
		}
	}

	return generation.FailureTransient
}
