package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/config"
	"github.com/mentora-learn/mentora-api/internal/domain"
	"github.com/mentora-learn/mentora-api/internal/generation"
	"github.com/mentora-learn/mentora-api/internal/store"
)

// GenerationOutcome is the result of a generation request, cached or fresh.
type GenerationOutcome struct {
	Result           *domain.GenerationResult `json:"result"`
	Cached           bool                     `json:"cached"`
	CreditsUsed      int64                    `json:"credits_used"`
	RemainingBalance int64                    `json:"remaining_balance"`
	Attempts         []generation.Attempt     `json:"attempts,omitempty"`
}

// GenerationService orchestrates content generation end to end: balance
// check, credential resolution, model invocation, payload validation,
// persistence and the credit charge.
type GenerationService interface {
	// Generate runs the full pipeline for the request.
	//
	// A result already stored for (user, subject, kind) is returned as-is
	// at zero cost. Any failure before the result row is written leaves no
	// trace and charges nothing. The charge follows persistence; if the
	// charge itself fails the stored result is still returned and the
	// discrepancy is logged for reconciliation.
	Generate(ctx context.Context, userID uuid.UUID, req domain.GenerationRequest) (*GenerationOutcome, error)

	// GetResult retrieves a stored generation result owned by the user.
	GetResult(ctx context.Context, userID, resultID uuid.UUID) (*domain.GenerationResult, error)
}

// GenerationServiceImpl implements the GenerationService interface
type GenerationServiceImpl struct {
	genStore        store.GenerationStore
	credentials     CredentialService
	credits         CreditService
	gateway         generation.Gateway
	costs           config.CreditConfig
	maxContextChars int
	logger          *slog.Logger
}

// Ensure GenerationServiceImpl implements GenerationService interface
var _ GenerationService = (*GenerationServiceImpl)(nil)

// NewGenerationService creates a new GenerationService.
func NewGenerationService(
	genStore store.GenerationStore,
	credentials CredentialService,
	credits CreditService,
	gateway generation.Gateway,
	costs config.CreditConfig,
	maxContextChars int,
	logger *slog.Logger,
) *GenerationServiceImpl {
	if maxContextChars <= 0 {
		maxContextChars = generation.DefaultMaxContextChars
	}

	return &GenerationServiceImpl{
		genStore:        genStore,
		credentials:     credentials,
		credits:         credits,
		gateway:         gateway,
		costs:           costs,
		maxContextChars: maxContextChars,
		logger:          logger.With("component", "generation_service"),
	}
}

// CostFor returns the credit price of generating the given kind.
func (s *GenerationServiceImpl) CostFor(kind domain.Kind) int64 {
	switch kind {
	case domain.KindCourse:
		return s.costs.CourseCost
	case domain.KindQuiz:
		return s.costs.QuizCost
	case domain.KindMindmap:
		return s.costs.MindmapCost
	default:
		return 0
	}
}

// Generate runs the full generation pipeline for the request.
func (s *GenerationServiceImpl) Generate(
	ctx context.Context,
	userID uuid.UUID,
	req domain.GenerationRequest,
) (*GenerationOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log := s.logger.With(
		slog.String("user_id", userID.String()),
		slog.String("subject_id", req.SubjectID.String()),
		slog.String("kind", string(req.Kind)))

	// Idempotency short-circuit: a stored result for this key is returned
	// unchanged and nothing is charged.
	if existing, err := s.genStore.GetByKey(ctx, userID, req.SubjectID, req.Kind); err == nil {
		log.Info("returning stored generation result", "result_id", existing.ID)
		return s.cachedOutcome(ctx, userID, existing), nil
	} else if !errors.Is(err, store.ErrGenerationResultNotFound) {
		log.Error("failed idempotency lookup", "error", err)
		return nil, fmt.Errorf("failed idempotency lookup: %w", err)
	}

	cost := s.CostFor(req.Kind)

	// Pre-flight balance check. This is advisory: the binding decision is
	// the conditional update inside Deduct. It exists so an obviously
	// broke user fails before we spend a model call on them.
	balance, err := s.credits.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check balance: %w", err)
	}
	if balance < cost {
		log.Info("generation rejected for insufficient credits",
			"balance", balance,
			"cost", cost)
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientCredits, balance, cost)
	}

	apiKey, err := s.credentials.ResolveKey(ctx, userID)
	if err != nil {
		return nil, err
	}

	prompt, err := generation.BuildPrompt(req, s.maxContextChars)
	if err != nil {
		return nil, err
	}

	// From here on the pipeline must survive a client disconnect: once the
	// model produces content we persist and charge regardless, otherwise a
	// dropped connection would hand out free generations.
	genCtx := context.WithoutCancel(ctx)

	text, attempts, err := s.gateway.Generate(genCtx, prompt, apiKey)
	if err != nil {
		log.Warn("model generation failed",
			"error", err,
			"attempts", len(attempts))
		if generation.IsPermanent(err) {
			return nil, fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
		}
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	payload, err := generation.ParsePayload(text, req)
	if err != nil {
		log.Warn("model response failed validation", "error", err)
		return nil, err
	}

	modelUsed := modelFromAttempts(attempts)
	result, err := domain.NewGenerationResult(userID, req.SubjectID, req.Kind, payload, modelUsed)
	if err != nil {
		return nil, err
	}

	if err := s.genStore.Create(genCtx, result); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// A concurrent request for the same key won the insert. Return
			// its row; this request charges nothing.
			existing, getErr := s.genStore.GetByKey(genCtx, userID, req.SubjectID, req.Kind)
			if getErr != nil {
				return nil, fmt.Errorf("failed to load concurrent result: %w", getErr)
			}
			log.Info("concurrent generation won the key, returning its result",
				"result_id", existing.ID)
			return s.cachedOutcome(genCtx, userID, existing), nil
		}
		log.Error("failed to persist generation result", "error", err)
		return nil, fmt.Errorf("failed to persist generation result: %w", err)
	}

	outcome := &GenerationOutcome{
		Result:      result,
		CreditsUsed: cost,
		Attempts:    attempts,
	}

	newBalance, err := s.credits.Deduct(genCtx, userID, cost, chargeDescription(req.Kind))
	if err != nil {
		// The result is already durable, so the user keeps it. The missed
		// charge is logged loudly for offline reconciliation.
		log.Error("credit deduction failed after result was persisted; reconciliation required",
			"error", err,
			"result_id", result.ID,
			"cost", cost)
		outcome.RemainingBalance = balance
		return outcome, nil
	}

	outcome.RemainingBalance = newBalance
	log.Info("generation completed",
		"result_id", result.ID,
		"model_used", modelUsed,
		"credits_used", cost,
		"remaining_balance", newBalance)
	return outcome, nil
}

// GetResult retrieves a stored generation result owned by the user.
func (s *GenerationServiceImpl) GetResult(
	ctx context.Context,
	userID, resultID uuid.UUID,
) (*domain.GenerationResult, error) {
	result, err := s.genStore.GetByID(ctx, resultID)
	if err != nil {
		return nil, err
	}

	if result.UserID != userID {
		return nil, ErrNotOwned
	}

	return result, nil
}

// cachedOutcome wraps a stored result in a zero-cost outcome. The balance
// read is best effort; a failure leaves it at zero rather than failing the
// whole request.
func (s *GenerationServiceImpl) cachedOutcome(
	ctx context.Context,
	userID uuid.UUID,
	result *domain.GenerationResult,
) *GenerationOutcome {
	outcome := &GenerationOutcome{
		Result: result,
		Cached: true,
	}

	if balance, err := s.credits.Balance(ctx, userID); err == nil {
		outcome.RemainingBalance = balance
	}

	return outcome
}

func modelFromAttempts(attempts []generation.Attempt) string {
	for _, a := range attempts {
		if a.Outcome == generation.OutcomeSuccess {
			return a.Model
		}
	}
	return ""
}

func chargeDescription(kind domain.Kind) string {
	return fmt.Sprintf("%s generation", kind)
}
