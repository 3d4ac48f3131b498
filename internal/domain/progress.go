package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Progress validation errors
var (
	// ErrProgressUserIDEmpty is returned when a progress record's user ID is nil.
	ErrProgressUserIDEmpty = errors.New("progress user ID cannot be empty")

	// ErrNegativeStreak is returned when a streak counter is negative.
	ErrNegativeStreak = errors.New("streak counters cannot be negative")

	// ErrNegativeCounter is returned when a completion counter is negative.
	ErrNegativeCounter = errors.New("completion counters cannot be negative")
)

// Progress tracks a user's learning activity: daily streaks and completion
// counters. One record exists per user.
type Progress struct {
	UserID           uuid.UUID `json:"user_id"`
	CurrentStreak    int       `json:"current_streak"`
	LongestStreak    int       `json:"longest_streak"`
	LessonsCompleted int       `json:"lessons_completed"`
	QuizzesCompleted int       `json:"quizzes_completed"`
	LastAccessedAt   time.Time `json:"last_accessed_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewProgress creates an empty progress record for the given user.
func NewProgress(userID uuid.UUID) (*Progress, error) {
	progress := &Progress{
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := progress.Validate(); err != nil {
		return nil, err
	}

	return progress, nil
}

// Validate checks if the Progress record has valid data.
func (p *Progress) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrProgressUserIDEmpty
	}

	if p.CurrentStreak < 0 || p.LongestStreak < 0 {
		return ErrNegativeStreak
	}

	if p.LessonsCompleted < 0 || p.QuizzesCompleted < 0 {
		return ErrNegativeCounter
	}

	return nil
}

// RecordQuizCompletion applies a graded quiz to the progress record.
//
// QuizzesCompleted always increments; LessonsCompleted increments only on a
// passing grade. The streak continues (increments) when at most one
// calendar day has elapsed since the last recorded activity, otherwise it
// resets to 1. LongestStreak tracks the high-water mark and LastAccessedAt
// is set to now.
func (p *Progress) RecordQuizCompletion(passed bool, now time.Time) {
	now = now.UTC()

	if p.LastAccessedAt.IsZero() || daysBetween(p.LastAccessedAt, now) > 1 {
		p.CurrentStreak = 1
	} else {
		p.CurrentStreak++
	}

	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}

	p.QuizzesCompleted++
	if passed {
		p.LessonsCompleted++
	}

	p.LastAccessedAt = now
	p.UpdatedAt = now
}

// daysBetween returns the number of whole calendar days (UTC) between two
// instants. Same-day activity yields 0; activity yesterday yields 1.
func daysBetween(earlier, later time.Time) int {
	earlierDate := time.Date(
		earlier.UTC().Year(), earlier.UTC().Month(), earlier.UTC().Day(),
		0, 0, 0, 0, time.UTC,
	)
	laterDate := time.Date(
		later.UTC().Year(), later.UTC().Month(), later.UTC().Day(),
		0, 0, 0, 0, time.UTC,
	)
	return int(laterDate.Sub(earlierDate).Hours() / 24)
}
