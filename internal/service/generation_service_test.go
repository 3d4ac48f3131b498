package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/config"
	"github.com/mentora-learn/mentora-api/internal/domain"
	"github.com/mentora-learn/mentora-api/internal/generation"
	"github.com/mentora-learn/mentora-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCosts() config.CreditConfig {
	return config.CreditConfig{
		CourseCost:  10,
		QuizCost:    5,
		MindmapCost: 3,
	}
}

const validQuizJSON = `{"questions":[{"id":"q1","question":"What is 2+2?",` +
	`"options":["1","2","3","4"],"correctAnswer":3,"explanation":"basic arithmetic"}]}`

func quizRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		Kind:      domain.KindQuiz,
		SubjectID: uuid.New(),
		Topic:     "Arithmetic",
	}
}

func successAttempts(model string) []generation.Attempt {
	return []generation.Attempt{
		{Model: model, Outcome: generation.OutcomeSuccess, Latency: 120 * time.Millisecond},
	}
}

func TestGenerationService_ReturnsStoredResultWithoutCharging(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	req := quizRequest()

	existing, err := domain.NewGenerationResult(
		userID, req.SubjectID, req.Kind, json.RawMessage(validQuizJSON), "gemini-2.0-flash")
	require.NoError(t, err)

	genStore := new(MockGenerationStore)
	genStore.On("GetByKey", mock.Anything, userID, req.SubjectID, req.Kind).
		Return(existing, nil)

	gateway := &fakeGateway{}
	credits := &fakeCredits{balance: 100}

	svc := NewGenerationService(
		genStore, &fakeCredentials{key: "k"}, credits, gateway, testCosts(), 0, testLogger())

	outcome, err := svc.Generate(context.Background(), userID, req)
	require.NoError(t, err)

	assert.True(t, outcome.Cached)
	assert.Equal(t, existing.ID, outcome.Result.ID)
	assert.Zero(t, outcome.CreditsUsed)
	assert.Equal(t, int64(100), outcome.RemainingBalance)
	assert.Zero(t, gateway.calls, "gateway must not be called for a stored result")
	assert.Zero(t, credits.deductCalls, "a stored result must not be charged")
}

func TestGenerationService_RejectsInsufficientBalanceBeforeGenerating(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	req := quizRequest()

	genStore := new(MockGenerationStore)
	genStore.On("GetByKey", mock.Anything, userID, req.SubjectID, req.Kind).
		Return(nil, store.ErrGenerationResultNotFound)

	gateway := &fakeGateway{}
	credits := &fakeCredits{balance: 2} // quiz costs 5

	svc := NewGenerationService(
		genStore, &fakeCredentials{key: "k"}, credits, gateway, testCosts(), 0, testLogger())

	_, err := svc.Generate(context.Background(), userID, req)
	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.Zero(t, gateway.calls)
	genStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGenerationService_SuccessPersistsThenCharges(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	req := quizRequest()

	genStore := new(MockGenerationStore)
	genStore.On("GetByKey", mock.Anything, userID, req.SubjectID, req.Kind).
		Return(nil, store.ErrGenerationResultNotFound)
	genStore.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.GenerationResult) bool {
		return r.UserID == userID && r.SubjectID == req.SubjectID && r.Kind == domain.KindQuiz
	})).Return(nil)

	gateway := &fakeGateway{
		text:     "```json\n" + validQuizJSON + "\n```",
		attempts: successAttempts("gemini-2.0-flash"),
	}
	credits := &fakeCredits{balance: 100}

	svc := NewGenerationService(
		genStore, &fakeCredentials{key: "k"}, credits, gateway, testCosts(), 0, testLogger())

	outcome, err := svc.Generate(context.Background(), userID, req)
	require.NoError(t, err)

	assert.False(t, outcome.Cached)
	assert.Equal(t, int64(5), outcome.CreditsUsed)
	assert.Equal(t, int64(95), outcome.RemainingBalance)
	assert.Equal(t, "gemini-2.0-flash", outcome.Result.ModelUsed)
	assert.Equal(t, 1, credits.deductCalls)
	genStore.AssertExpectations(t)

	var payload domain.QuizPayload
	require.NoError(t, json.Unmarshal(outcome.Result.Payload, &payload))
	assert.Len(t, payload.Questions, 1)
}

func TestGenerationService_PermanentGatewayFailureLeavesNoTrace(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	req := quizRequest()

	genStore := new(MockGenerationStore)
	genStore.On("GetByKey", mock.Anything, userID, req.SubjectID, req.Kind).
		Return(nil, store.ErrGenerationResultNotFound)

	gateway := &fakeGateway{
		attempts: []generation.Attempt{
			{Model: "gemini-2.0-flash", Outcome: generation.OutcomePermanentFailure, Error: "401"},
		},
		err: generation.NewGatewayError(
			"gemini-2.0-flash", generation.FailurePermanent, errors.New("unauthorized")),
	}
	credits := &fakeCredits{balance: 100}

	svc := NewGenerationService(
		genStore, &fakeCredentials{key: "k"}, credits, gateway, testCosts(), 0, testLogger())

	_, err := svc.Generate(context.Background(), userID, req)
	assert.ErrorIs(t, err, ErrCredentialInvalid)
	assert.Zero(t, credits.deductCalls)
	genStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGenerationService_UnparsableResponseLeavesNoTrace(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	req := quizRequest()

	genStore := new(MockGenerationStore)
	genStore.On("GetByKey", mock.Anything, userID, req.SubjectID, req.Kind).
		Return(nil, store.ErrGenerationResultNotFound)

	gateway := &fakeGateway{
		text:     "I cannot help with that.",
		attempts: successAttempts("gemini-2.0-flash"),
	}
	credits := &fakeCredits{balance: 100}

	svc := NewGenerationService(
		genStore, &fakeCredentials{key: "k"}, credits, gateway, testCosts(), 0, testLogger())

	_, err := svc.Generate(context.Background(), userID, req)
	assert.ErrorIs(t, err, generation.ErrUnparsableResponse)
	assert.Zero(t, credits.deductCalls)
	genStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGenerationService_MindmapFallbackStillPersists(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	req := domain.GenerationRequest{
		Kind:      domain.KindMindmap,
		SubjectID: uuid.New(),
		Topic:     "Photosynthesis",
	}

	genStore := new(MockGenerationStore)
	genStore.On("GetByKey", mock.Anything, userID, req.SubjectID, req.Kind).
		Return(nil, store.ErrGenerationResultNotFound)
	genStore.On("Create", mock.Anything, mock.Anything).Return(nil)

	gateway := &fakeGateway{
		text:     "not json at all",
		attempts: successAttempts("gemini-2.0-flash"),
	}
	credits := &fakeCredits{balance: 100}

	svc := NewGenerationService(
		genStore, &fakeCredentials{key: "k"}, credits, gateway, testCosts(), 0, testLogger())

	outcome, err := svc.Generate(context.Background(), userID, req)
	require.NoError(t, err)

	var payload domain.MindmapPayload
	require.NoError(t, json.Unmarshal(outcome.Result.Payload, &payload))
	assert.Equal(t, "Photosynthesis", payload.Root.Label)
	assert.Empty(t, payload.Root.Children)
	assert.Equal(t, int64(3), outcome.CreditsUsed, "a degraded mindmap is still a billable result")
	assert.Equal(t, 1, credits.deductCalls)
}

func TestGenerationService_ConcurrentDuplicateReturnsWinnerWithoutCharge(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	req := quizRequest()

	winner, err := domain.NewGenerationResult(
		userID, req.SubjectID, req.Kind, json.RawMessage(validQuizJSON), "gemini-1.5-flash")
	require.NoError(t, err)

	genStore := new(MockGenerationStore)
	// First lookup misses, the insert collides, the second lookup finds the
	// row the concurrent request wrote.
	genStore.On("GetByKey", mock.Anything, userID, req.SubjectID, req.Kind).
		Return(nil, store.ErrGenerationResultNotFound).Once()
	genStore.On("Create", mock.Anything, mock.Anything).Return(store.ErrDuplicate)
	genStore.On("GetByKey", mock.Anything, userID, req.SubjectID, req.Kind).
		Return(winner, nil)

	gateway := &fakeGateway{
		text:     validQuizJSON,
		attempts: successAttempts("gemini-2.0-flash"),
	}
	credits := &fakeCredits{balance: 100}

	svc := NewGenerationService(
		genStore, &fakeCredentials{key: "k"}, credits, gateway, testCosts(), 0, testLogger())

	outcome, err := svc.Generate(context.Background(), userID, req)
	require.NoError(t, err)

	assert.True(t, outcome.Cached)
	assert.Equal(t, winner.ID, outcome.Result.ID)
	assert.Zero(t, credits.deductCalls, "the losing request must not charge")
}

func TestGenerationService_DeductFailureStillReturnsResult(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	req := quizRequest()

	genStore := new(MockGenerationStore)
	genStore.On("GetByKey", mock.Anything, userID, req.SubjectID, req.Kind).
		Return(nil, store.ErrGenerationResultNotFound)
	genStore.On("Create", mock.Anything, mock.Anything).Return(nil)

	gateway := &fakeGateway{
		text:     validQuizJSON,
		attempts: successAttempts("gemini-2.0-flash"),
	}
	credits := &fakeCredits{balance: 100, deductErr: errors.New("ledger unavailable")}

	svc := NewGenerationService(
		genStore, &fakeCredentials{key: "k"}, credits, gateway, testCosts(), 0, testLogger())

	outcome, err := svc.Generate(context.Background(), userID, req)
	require.NoError(t, err, "a persisted result is returned even when the charge fails")
	require.NotNil(t, outcome.Result)
	assert.Equal(t, int64(5), outcome.CreditsUsed)
	assert.Equal(t, 1, credits.deductCalls)
}

func TestGenerationService_MissingCredential(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	req := quizRequest()

	genStore := new(MockGenerationStore)
	genStore.On("GetByKey", mock.Anything, userID, req.SubjectID, req.Kind).
		Return(nil, store.ErrGenerationResultNotFound)

	credits := &fakeCredits{balance: 100}
	svc := NewGenerationService(
		genStore,
		&fakeCredentials{err: ErrCredentialMissing},
		credits,
		&fakeGateway{},
		testCosts(),
		0,
		testLogger())

	_, err := svc.Generate(context.Background(), userID, req)
	assert.ErrorIs(t, err, ErrCredentialMissing)
	assert.Zero(t, credits.deductCalls)
}

func TestGenerationService_InvalidRequest(t *testing.T) {
	t.Parallel()

	svc := NewGenerationService(
		new(MockGenerationStore),
		&fakeCredentials{key: "k"},
		&fakeCredits{balance: 100},
		&fakeGateway{},
		testCosts(),
		0,
		testLogger())

	_, err := svc.Generate(context.Background(), uuid.New(), domain.GenerationRequest{
		Kind:      "poem",
		SubjectID: uuid.New(),
		Topic:     "x",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidKind)
}

func TestGenerationService_GetResultOwnership(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	other := uuid.New()

	result, err := domain.NewGenerationResult(
		owner, uuid.New(), domain.KindQuiz, json.RawMessage(validQuizJSON), "m")
	require.NoError(t, err)

	genStore := new(MockGenerationStore)
	genStore.On("GetByID", mock.Anything, result.ID).Return(result, nil)

	svc := NewGenerationService(
		genStore, &fakeCredentials{key: "k"}, &fakeCredits{}, &fakeGateway{},
		testCosts(), 0, testLogger())

	got, err := svc.GetResult(context.Background(), owner, result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, got.ID)

	_, err = svc.GetResult(context.Background(), other, result.ID)
	assert.ErrorIs(t, err, ErrNotOwned)
}
