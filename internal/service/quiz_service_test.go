package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/domain"
	"github.com/mentora-learn/mentora-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func twoQuestionQuiz() domain.QuizPayload {
	return domain.QuizPayload{
		Questions: []domain.QuizQuestion{
			{
				ID:            "q1",
				Question:      "What is 2+2?",
				Options:       []string{"1", "2", "3", "4"},
				CorrectAnswer: 3,
				Explanation:   "basic arithmetic",
			},
			{
				ID:            "q2",
				Question:      "What is 3*3?",
				Options:       []string{"6", "9", "12", "27"},
				CorrectAnswer: 1,
			},
		},
	}
}

func TestGrade_OneCorrectOfTwo(t *testing.T) {
	t.Parallel()

	submission := domain.QuizSubmission{
		QuizID: uuid.New(),
		Answers: []domain.SubmittedAnswer{
			{QuestionID: "q1", SelectedAnswer: 3},
			{QuestionID: "q2", SelectedAnswer: 0},
		},
	}

	grade := Grade(submission, twoQuestionQuiz())

	assert.Equal(t, 50, grade.Score)
	assert.False(t, grade.Passed)
	assert.Equal(t, 1, grade.CorrectCount)
	assert.Equal(t, 2, grade.TotalQuestions)

	require.Len(t, grade.PerQuestion, 2)
	assert.True(t, grade.PerQuestion[0].Correct)
	assert.Equal(t, 3, grade.PerQuestion[0].CorrectAnswer)
	assert.Equal(t, "basic arithmetic", grade.PerQuestion[0].Explanation)
	assert.False(t, grade.PerQuestion[1].Correct)
	assert.Equal(t, 1, grade.PerQuestion[1].CorrectAnswer)
}

func TestGrade_MissingAnswerKey(t *testing.T) {
	t.Parallel()

	submission := domain.QuizSubmission{
		QuizID: uuid.New(),
		Answers: []domain.SubmittedAnswer{
			{QuestionID: "q1", SelectedAnswer: 3},
			{QuestionID: "unknown", SelectedAnswer: 0},
		},
	}

	grade := Grade(submission, twoQuestionQuiz())

	require.Len(t, grade.PerQuestion, 3)
	assert.False(t, grade.PerQuestion[1].Correct, "an unmatched question counts as wrong")
	assert.Equal(t, domain.NoAnswerKey, grade.PerQuestion[1].CorrectAnswer)
	assert.Equal(t, 2, grade.TotalQuestions)
	assert.Equal(t, 50, grade.Score)
}

func TestGrade_PartialSubmissionCannotInflateScore(t *testing.T) {
	t.Parallel()

	questions := make([]domain.QuizQuestion, 5)
	for i := range questions {
		questions[i] = domain.QuizQuestion{
			ID:            uuid.New().String(),
			Question:      "?",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: 0,
		}
	}

	// Answering only the one known question must not score 100 on a
	// five-question quiz.
	submission := domain.QuizSubmission{
		QuizID: uuid.New(),
		Answers: []domain.SubmittedAnswer{
			{QuestionID: questions[0].ID, SelectedAnswer: 0},
		},
	}

	grade := Grade(submission, domain.QuizPayload{Questions: questions})

	assert.Equal(t, 5, grade.TotalQuestions)
	assert.Equal(t, 1, grade.CorrectCount)
	assert.Equal(t, 20, grade.Score)
	assert.False(t, grade.Passed)

	require.Len(t, grade.PerQuestion, 5)
	assert.True(t, grade.PerQuestion[0].Correct)
	for _, result := range grade.PerQuestion[1:] {
		assert.False(t, result.Correct, "skipped questions count as wrong")
		assert.Equal(t, 0, result.CorrectAnswer)
	}
}

func TestGrade_RepeatedAnswersGradedOnce(t *testing.T) {
	t.Parallel()

	submission := domain.QuizSubmission{
		QuizID: uuid.New(),
		Answers: []domain.SubmittedAnswer{
			{QuestionID: "q1", SelectedAnswer: 3},
			{QuestionID: "q1", SelectedAnswer: 3},
		},
	}

	grade := Grade(submission, twoQuestionQuiz())

	assert.Equal(t, 2, grade.TotalQuestions)
	assert.Equal(t, 1, grade.CorrectCount)
	assert.Equal(t, 50, grade.Score)
	require.Len(t, grade.PerQuestion, 2)
}

func TestGrade_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		correct    int
		total      int
		wantScore  int
		wantPassed bool
	}{
		{name: "all correct", correct: 2, total: 2, wantScore: 100, wantPassed: true},
		{name: "none correct", correct: 0, total: 2, wantScore: 0, wantPassed: false},
		{name: "exactly passing", correct: 7, total: 10, wantScore: 70, wantPassed: true},
		{name: "just below passing", correct: 13, total: 20, wantScore: 65, wantPassed: false},
		{name: "rounds to nearest", correct: 2, total: 3, wantScore: 67, wantPassed: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			questions := make([]domain.QuizQuestion, tc.total)
			answers := make([]domain.SubmittedAnswer, tc.total)
			for i := range questions {
				id := uuid.New().String()
				questions[i] = domain.QuizQuestion{
					ID:            id,
					Question:      "?",
					Options:       []string{"a", "b", "c", "d"},
					CorrectAnswer: 0,
				}
				selected := 1
				if i < tc.correct {
					selected = 0
				}
				answers[i] = domain.SubmittedAnswer{QuestionID: id, SelectedAnswer: selected}
			}

			grade := Grade(
				domain.QuizSubmission{QuizID: uuid.New(), Answers: answers},
				domain.QuizPayload{Questions: questions},
			)

			assert.Equal(t, tc.wantScore, grade.Score)
			assert.Equal(t, tc.wantPassed, grade.Passed)
		})
	}
}

func quizResult(t *testing.T, userID uuid.UUID) *domain.GenerationResult {
	t.Helper()
	payload, err := json.Marshal(twoQuestionQuiz())
	require.NoError(t, err)
	result, err := domain.NewGenerationResult(
		userID, uuid.New(), domain.KindQuiz, payload, "gemini-2.0-flash")
	require.NoError(t, err)
	return result
}

func TestSubmitQuiz_FirstActivity(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	result := quizResult(t, userID)

	genStore := new(MockGenerationStore)
	genStore.On("GetByID", mock.Anything, result.ID).Return(result, nil)

	progressStore := new(MockProgressStore)
	progressStore.On("Get", mock.Anything, userID).Return(nil, store.ErrProgressNotFound)
	progressStore.On("Upsert", mock.Anything, mock.MatchedBy(func(p *domain.Progress) bool {
		return p.UserID == userID &&
			p.CurrentStreak == 1 &&
			p.QuizzesCompleted == 1 &&
			p.LessonsCompleted == 1
	})).Return(nil)
	progressStore.On("RecordSubmission", mock.Anything, userID, result.ID, mock.Anything).
		Return(nil)

	svc := NewQuizService(genStore, progressStore, stubDB(t), testLogger())

	grade, progress, err := svc.SubmitQuiz(context.Background(), userID, domain.QuizSubmission{
		QuizID: result.ID,
		Answers: []domain.SubmittedAnswer{
			{QuestionID: "q1", SelectedAnswer: 3},
			{QuestionID: "q2", SelectedAnswer: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 100, grade.Score)
	assert.True(t, grade.Passed)
	assert.Equal(t, 1, progress.CurrentStreak)
	assert.Equal(t, 1, progress.QuizzesCompleted)
	assert.Equal(t, 1, progress.LessonsCompleted, "a passing quiz completes the lesson")
	progressStore.AssertExpectations(t)
}

func TestSubmitQuiz_FailingGradeStillCountsQuiz(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	result := quizResult(t, userID)

	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	existing := &domain.Progress{
		UserID:           userID,
		CurrentStreak:    3,
		LongestStreak:    5,
		LessonsCompleted: 4,
		QuizzesCompleted: 6,
		LastAccessedAt:   yesterday,
		CreatedAt:        yesterday,
		UpdatedAt:        yesterday,
	}

	genStore := new(MockGenerationStore)
	genStore.On("GetByID", mock.Anything, result.ID).Return(result, nil)

	progressStore := new(MockProgressStore)
	progressStore.On("Get", mock.Anything, userID).Return(existing, nil)
	progressStore.On("Upsert", mock.Anything, mock.MatchedBy(func(p *domain.Progress) bool {
		return p.CurrentStreak == 4 &&
			p.QuizzesCompleted == 7 &&
			p.LessonsCompleted == 4 // unchanged on a fail
	})).Return(nil)
	progressStore.On("RecordSubmission", mock.Anything, userID, result.ID, mock.Anything).
		Return(nil)

	svc := NewQuizService(genStore, progressStore, stubDB(t), testLogger())

	grade, _, err := svc.SubmitQuiz(context.Background(), userID, domain.QuizSubmission{
		QuizID: result.ID,
		Answers: []domain.SubmittedAnswer{
			{QuestionID: "q1", SelectedAnswer: 0},
			{QuestionID: "q2", SelectedAnswer: 0},
		},
	})
	require.NoError(t, err)

	assert.False(t, grade.Passed)
	progressStore.AssertExpectations(t)
}

func TestSubmitQuiz_Errors(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	quiz := quizResult(t, owner)

	course, err := domain.NewGenerationResult(
		owner, uuid.New(), domain.KindCourse,
		json.RawMessage(`{"title":"T","sections":[{"title":"s","content":"c"}]}`), "m")
	require.NoError(t, err)

	answers := []domain.SubmittedAnswer{{QuestionID: "q1", SelectedAnswer: 0}}

	tests := []struct {
		name    string
		userID  uuid.UUID
		quizID  uuid.UUID
		setup   func(*MockGenerationStore)
		wantErr error
	}{
		{
			name:   "quiz not found",
			userID: owner,
			quizID: uuid.New(),
			setup: func(m *MockGenerationStore) {
				m.On("GetByID", mock.Anything, mock.Anything).
					Return(nil, store.ErrGenerationResultNotFound)
			},
			wantErr: ErrQuizNotFound,
		},
		{
			name:   "not owned",
			userID: uuid.New(),
			quizID: quiz.ID,
			setup: func(m *MockGenerationStore) {
				m.On("GetByID", mock.Anything, quiz.ID).Return(quiz, nil)
			},
			wantErr: ErrNotOwned,
		},
		{
			name:   "not a quiz",
			userID: owner,
			quizID: course.ID,
			setup: func(m *MockGenerationStore) {
				m.On("GetByID", mock.Anything, course.ID).Return(course, nil)
			},
			wantErr: ErrNotAQuiz,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			genStore := new(MockGenerationStore)
			tc.setup(genStore)

			svc := NewQuizService(genStore, new(MockProgressStore), stubDB(t), testLogger())

			_, _, err := svc.SubmitQuiz(context.Background(), tc.userID, domain.QuizSubmission{
				QuizID:  tc.quizID,
				Answers: answers,
			})
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSubmitQuiz_EmptySubmission(t *testing.T) {
	t.Parallel()

	svc := NewQuizService(
		new(MockGenerationStore), new(MockProgressStore), stubDB(t), testLogger())

	_, _, err := svc.SubmitQuiz(context.Background(), uuid.New(), domain.QuizSubmission{
		QuizID: uuid.New(),
	})
	assert.ErrorIs(t, err, domain.ErrNoAnswers)
}

func TestGetProgress_DefaultsWhenMissing(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	progressStore := new(MockProgressStore)
	progressStore.On("Get", mock.Anything, userID).Return(nil, store.ErrProgressNotFound)

	svc := NewQuizService(
		new(MockGenerationStore), progressStore, stubDB(t), testLogger())

	progress, err := svc.GetProgress(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, progress.UserID)
	assert.Zero(t, progress.CurrentStreak)
	assert.Zero(t, progress.QuizzesCompleted)
}
