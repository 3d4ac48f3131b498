package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/domain"
	"github.com/mentora-learn/mentora-api/internal/store"
)

// QuizService grades quiz submissions and applies them to the user's
// progress record.
type QuizService interface {
	// SubmitQuiz grades the submission against the stored quiz and records
	// the outcome: the graded submission is appended and the user's streak
	// and counters are updated, all in one transaction.
	SubmitQuiz(ctx context.Context, userID uuid.UUID, submission domain.QuizSubmission) (*domain.QuizGrade, *domain.Progress, error)

	// GetProgress returns the user's progress record, or an empty one if
	// the user has no recorded activity yet.
	GetProgress(ctx context.Context, userID uuid.UUID) (*domain.Progress, error)
}

// QuizServiceImpl implements the QuizService interface
type QuizServiceImpl struct {
	genStore      store.GenerationStore
	progressStore store.ProgressStore
	db            *sql.DB
	timeFunc      func() time.Time // Injectable for testing
	logger        *slog.Logger
}

// Ensure QuizServiceImpl implements QuizService interface
var _ QuizService = (*QuizServiceImpl)(nil)

// NewQuizService creates a new QuizService.
func NewQuizService(
	genStore store.GenerationStore,
	progressStore store.ProgressStore,
	db *sql.DB,
	logger *slog.Logger,
) *QuizServiceImpl {
	return &QuizServiceImpl{
		genStore:      genStore,
		progressStore: progressStore,
		db:            db,
		timeFunc:      time.Now,
		logger:        logger.With("component", "quiz_service"),
	}
}

// Grade scores a submission against the quiz's answer key.
//
// The denominator is always the quiz's own question count: a question the
// submission skipped counts as wrong, so answering only the questions you
// know cannot inflate the score. An answer whose question ID is absent
// from the key counts as wrong and reports domain.NoAnswerKey as the
// correct answer instead of guessing, and repeated answers for the same
// question are graded once. The score is the percentage of correct
// answers rounded to the nearest integer, and passing requires
// domain.PassingScore or better.
func Grade(submission domain.QuizSubmission, quiz domain.QuizPayload) *domain.QuizGrade {
	key := make(map[string]domain.QuizQuestion, len(quiz.Questions))
	for _, q := range quiz.Questions {
		key[q.ID] = q
	}

	grade := &domain.QuizGrade{
		TotalQuestions: len(quiz.Questions),
		PerQuestion:    make([]domain.QuestionResult, 0, len(quiz.Questions)),
	}

	seen := make(map[string]bool, len(submission.Answers))
	for _, answer := range submission.Answers {
		if seen[answer.QuestionID] {
			continue
		}
		seen[answer.QuestionID] = true

		question, found := key[answer.QuestionID]
		if !found {
			grade.PerQuestion = append(grade.PerQuestion, domain.QuestionResult{
				QuestionID:    answer.QuestionID,
				Correct:       false,
				CorrectAnswer: domain.NoAnswerKey,
			})
			continue
		}

		correct := answer.SelectedAnswer == question.CorrectAnswer
		if correct {
			grade.CorrectCount++
		}

		grade.PerQuestion = append(grade.PerQuestion, domain.QuestionResult{
			QuestionID:    answer.QuestionID,
			Correct:       correct,
			CorrectAnswer: question.CorrectAnswer,
			Explanation:   question.Explanation,
		})
	}

	for _, q := range quiz.Questions {
		if seen[q.ID] {
			continue
		}
		grade.PerQuestion = append(grade.PerQuestion, domain.QuestionResult{
			QuestionID:    q.ID,
			Correct:       false,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}

	if grade.TotalQuestions > 0 {
		grade.Score = int(math.Round(
			float64(grade.CorrectCount) / float64(grade.TotalQuestions) * 100))
	}
	grade.Passed = grade.Score >= domain.PassingScore

	return grade
}

// SubmitQuiz grades the submission and records the outcome.
func (s *QuizServiceImpl) SubmitQuiz(
	ctx context.Context,
	userID uuid.UUID,
	submission domain.QuizSubmission,
) (*domain.QuizGrade, *domain.Progress, error) {
	if err := submission.Validate(); err != nil {
		return nil, nil, err
	}

	result, err := s.genStore.GetByID(ctx, submission.QuizID)
	if err != nil {
		if errors.Is(err, store.ErrGenerationResultNotFound) {
			return nil, nil, ErrQuizNotFound
		}
		s.logger.Error("failed to load quiz",
			"error", err,
			"quiz_id", submission.QuizID)
		return nil, nil, fmt.Errorf("failed to load quiz: %w", err)
	}

	if result.UserID != userID {
		return nil, nil, ErrNotOwned
	}

	if result.Kind != domain.KindQuiz {
		return nil, nil, ErrNotAQuiz
	}

	var quiz domain.QuizPayload
	if err := json.Unmarshal(result.Payload, &quiz); err != nil {
		s.logger.Error("stored quiz payload failed to decode",
			"error", err,
			"quiz_id", submission.QuizID)
		return nil, nil, fmt.Errorf("stored quiz payload is corrupt: %w", err)
	}

	grade := Grade(submission, quiz)
	now := s.timeFunc()

	var progress *domain.Progress
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txProgress := s.progressStore.WithTx(tx)

		progress, err = txProgress.Get(ctx, userID)
		if err != nil {
			if !errors.Is(err, store.ErrProgressNotFound) {
				return err
			}
			progress, err = domain.NewProgress(userID)
			if err != nil {
				return err
			}
		}

		progress.RecordQuizCompletion(grade.Passed, now)

		if err := txProgress.Upsert(ctx, progress); err != nil {
			return err
		}

		return txProgress.RecordSubmission(ctx, userID, submission.QuizID, grade)
	})

	if err != nil {
		s.logger.Error("failed to record quiz submission",
			"error", err,
			"user_id", userID,
			"quiz_id", submission.QuizID)
		return nil, nil, fmt.Errorf("failed to record quiz submission: %w", err)
	}

	s.logger.Info("quiz submission graded",
		"user_id", userID,
		"quiz_id", submission.QuizID,
		"score", grade.Score,
		"passed", grade.Passed,
		"current_streak", progress.CurrentStreak)
	return grade, progress, nil
}

// GetProgress returns the user's progress record. A user with no activity
// yet gets a zero-valued record rather than a not-found error.
func (s *QuizServiceImpl) GetProgress(ctx context.Context, userID uuid.UUID) (*domain.Progress, error) {
	progress, err := s.progressStore.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrProgressNotFound) {
			return domain.NewProgress(userID)
		}
		s.logger.Error("failed to load progress",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	return progress, nil
}
