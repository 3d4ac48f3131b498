package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/mentora-learn/mentora-api/internal/config"
	"github.com/mentora-learn/mentora-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func testConfig(models ...string) config.LLMConfig {
	return config.LLMConfig{
		Models:                models,
		RequestTimeoutSeconds: 5,
		MaxContextChars:       1000,
	}
}

func newTestClient(t *testing.T, invoke invokeFn, models ...string) *Client {
	t.Helper()
	client, err := NewClient(testConfig(models...), nil)
	require.NoError(t, err)
	client.invoke = invoke
	return client
}

func TestNewClientValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := NewClient(testConfig(), nil)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewClient(testConfig("a", "b", "c", "d"), nil)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	cfg := testConfig("gemini-2.0-flash")
	cfg.RequestTimeoutSeconds = 0
	_, err = NewClient(cfg, nil)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestGenerateFirstCandidateWins(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(ctx context.Context, model, apiKey, prompt string) (string, error) {
		return "text from " + model, nil
	}, "model-a", "model-b")

	text, attempts, err := client.Generate(context.Background(), "prompt", "key")
	require.NoError(t, err)
	assert.Equal(t, "text from model-a", text)
	require.Len(t, attempts, 1)
	assert.Equal(t, generation.OutcomeSuccess, attempts[0].Outcome)
}

func TestGenerateFallsBackOnTransientFailure(t *testing.T) {
	t.Parallel()

	serverErr := genai.APIError{Code: 503, Message: "service unavailable"}

	client := newTestClient(t, func(ctx context.Context, model, apiKey, prompt string) (string, error) {
		if model == "model-a" {
			return "", serverErr
		}
		return "recovered text", nil
	}, "model-a", "model-b")

	text, attempts, err := client.Generate(context.Background(), "prompt", "key")
	require.NoError(t, err)
	assert.Equal(t, "recovered text", text)

	// The attempt log records both candidates, in order.
	require.Len(t, attempts, 2)
	assert.Equal(t, "model-a", attempts[0].Model)
	assert.Equal(t, generation.OutcomeTransientFailure, attempts[0].Outcome)
	assert.Equal(t, "model-b", attempts[1].Model)
	assert.Equal(t, generation.OutcomeSuccess, attempts[1].Outcome)
}

func TestGeneratePermanentFailureShortCircuits(t *testing.T) {
	t.Parallel()

	calls := 0
	client := newTestClient(t, func(ctx context.Context, model, apiKey, prompt string) (string, error) {
		calls++
		return "", genai.APIError{Code: 403, Message: "permission denied"}
	}, "model-a", "model-b", "model-c")

	_, attempts, err := client.Generate(context.Background(), "prompt", "key")
	require.Error(t, err)

	assert.Equal(t, 1, calls, "remaining candidates must not be tried after a permanent failure")
	require.Len(t, attempts, 1)
	assert.Equal(t, generation.OutcomePermanentFailure, attempts[0].Outcome)
	assert.True(t, generation.IsPermanent(err))
}

func TestGenerateAllCandidatesExhausted(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(ctx context.Context, model, apiKey, prompt string) (string, error) {
		return "", genai.APIError{Code: 500, Message: "internal error"}
	}, "model-a", "model-b")

	_, attempts, err := client.Generate(context.Background(), "prompt", "key")
	require.Error(t, err)

	assert.ErrorIs(t, err, generation.ErrAllCandidatesFailed)
	assert.True(t, generation.IsTransient(err), "exhaustion error carries the final attempt's category")
	assert.Len(t, attempts, 2)
}

func TestGenerateRejectsEmptyInputs(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(ctx context.Context, model, apiKey, prompt string) (string, error) {
		t.Fatal("invoke must not be called")
		return "", nil
	}, "model-a")

	_, _, err := client.Generate(context.Background(), "", "key")
	assert.ErrorIs(t, err, generation.ErrEmptyPrompt)

	_, _, err = client.Generate(context.Background(), "prompt", "")
	assert.True(t, generation.IsPermanent(err), "a missing credential is a permanent failure")
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want generation.FailureCategory
	}{
		{"deadline exceeded", context.DeadlineExceeded, generation.FailureTransient},
		{"server error", genai.APIError{Code: 503}, generation.FailureTransient},
		{"rate limited", genai.APIError{Code: 429, Message: "slow down"}, generation.FailureTransient},
		{"invalid credential", genai.APIError{Code: 401}, generation.FailurePermanent},
		{"permission denied", genai.APIError{Code: 403}, generation.FailurePermanent},
		{"bad api key", genai.APIError{Code: 400, Message: "API key not valid"}, generation.FailurePermanent},
		{
			"quota exhausted",
			genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota exceeded for project"},
			generation.FailurePermanent,
		},
		{"unknown error", errors.New("connection reset"), generation.FailureTransient},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, classifyError(tc.err))
		})
	}
}
