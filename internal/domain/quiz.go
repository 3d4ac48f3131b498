package domain

import (
	"errors"

	"github.com/google/uuid"
)

// QuizOptionCount is the required number of answer options per question.
const QuizOptionCount = 4

// PassingScore is the minimum percentage score that counts as passing.
const PassingScore = 70

// NoAnswerKey is the sentinel correct-answer index recorded when a
// submitted question ID has no matching entry in the answer key. It is
// deliberately distinct from any valid option index so "no key" can never
// be confused with "wrong answer".
const NoAnswerKey = -1

// Quiz validation errors
var (
	// ErrQuizIDEmpty is returned when a submission's quiz ID is nil.
	ErrQuizIDEmpty = errors.New("quiz ID cannot be empty")

	// ErrNoAnswers is returned when a submission contains no answers.
	ErrNoAnswers = errors.New("submission must contain at least one answer")

	// ErrAnswerQuestionIDEmpty is returned when a submitted answer has no question ID.
	ErrAnswerQuestionIDEmpty = errors.New("answer question ID cannot be empty")
)

// QuizQuestion is one question of a generated quiz, as stored in a
// quiz GenerationResult payload.
type QuizQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// QuizPayload is the structured payload of a quiz GenerationResult.
type QuizPayload struct {
	Questions []QuizQuestion `json:"questions"`
}

// SubmittedAnswer is a single answer within a quiz submission.
type SubmittedAnswer struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer int    `json:"selectedAnswer"`
}

// QuizSubmission is a user's set of answers to a generated quiz.
// QuizID references the GenerationResult holding the answer key.
type QuizSubmission struct {
	QuizID  uuid.UUID         `json:"quizId"`
	Answers []SubmittedAnswer `json:"answers"`
}

// Validate checks if the QuizSubmission has valid data.
func (s QuizSubmission) Validate() error {
	if s.QuizID == uuid.Nil {
		return ErrQuizIDEmpty
	}

	if len(s.Answers) == 0 {
		return ErrNoAnswers
	}

	for _, a := range s.Answers {
		if a.QuestionID == "" {
			return ErrAnswerQuestionIDEmpty
		}
	}

	return nil
}

// QuestionResult is the graded outcome for a single submitted answer.
// CorrectAnswer is NoAnswerKey when the question was absent from the key.
type QuestionResult struct {
	QuestionID    string `json:"questionId"`
	Correct       bool   `json:"correct"`
	CorrectAnswer int    `json:"correctAnswer"`
	Explanation   string `json:"explanation,omitempty"`
}

// QuizGrade is the computed result of grading a submission.
type QuizGrade struct {
	Score          int              `json:"score"`
	Passed         bool             `json:"passed"`
	CorrectCount   int              `json:"correctCount"`
	TotalQuestions int              `json:"totalQuestions"`
	PerQuestion    []QuestionResult `json:"perQuestion"`
}
