package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/mentora-learn/mentora-api/internal/api/shared"
	"github.com/mentora-learn/mentora-api/internal/domain"
	"github.com/mentora-learn/mentora-api/internal/service"
)

// QuizHandler handles quiz submission and progress requests.
type QuizHandler struct {
	quizService service.QuizService
	validator   *validator.Validate
}

// NewQuizHandler creates a new QuizHandler with the given dependencies.
func NewQuizHandler(quizService service.QuizService) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		validator:   validator.New(),
	}
}

// Submit handles POST /quizzes/{id}/submissions.
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	quizID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req SubmitQuizRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	grade, progress, err := h.quizService.SubmitQuiz(r.Context(), userID, domain.QuizSubmission{
		QuizID:  quizID,
		Answers: req.Answers,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SubmitQuizResponse{
		Grade:    grade,
		Progress: progress,
	})
}

// GetProgress handles GET /progress.
func (h *QuizHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	progress, err := h.quizService.GetProgress(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progress)
}
