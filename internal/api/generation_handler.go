package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/mentora-learn/mentora-api/internal/api/shared"
	"github.com/mentora-learn/mentora-api/internal/domain"
	"github.com/mentora-learn/mentora-api/internal/service"
)

// GenerationHandler handles content generation requests.
type GenerationHandler struct {
	generationService service.GenerationService
	validator         *validator.Validate
}

// NewGenerationHandler creates a new GenerationHandler with the given dependencies.
func NewGenerationHandler(generationService service.GenerationService) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		validator:         validator.New(),
	}
}

// Generate handles POST /generations.
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	outcome, err := h.generationService.Generate(r.Context(), userID, domain.GenerationRequest{
		Kind:           domain.Kind(req.Kind),
		SubjectID:      req.SubjectID,
		Topic:          req.Topic,
		Difficulty:     req.Difficulty,
		SectionContext: req.SectionContext,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	status := http.StatusCreated
	if outcome.Cached {
		status = http.StatusOK
	}

	shared.RespondWithJSON(w, r, status, GenerateResponse{
		ResultID:         outcome.Result.ID,
		Kind:             string(outcome.Result.Kind),
		Payload:          outcome.Result.Payload,
		ModelUsed:        outcome.Result.ModelUsed,
		Cached:           outcome.Cached,
		CreditsUsed:      outcome.CreditsUsed,
		RemainingBalance: outcome.RemainingBalance,
		CreatedAt:        outcome.Result.CreatedAt,
	})
}

// GetResult handles GET /generations/{id}.
func (h *GenerationHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	resultID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.generationService.GetResult(r.Context(), userID, resultID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, GenerateResponse{
		ResultID:  result.ID,
		Kind:      string(result.Kind),
		Payload:   result.Payload,
		ModelUsed: result.ModelUsed,
		Cached:    true,
		CreatedAt: result.CreatedAt,
	})
}
