package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/domain"
)

// ProgressStore defines the interface for progress and quiz submission
// persistence.
type ProgressStore interface {
	// Get retrieves the user's progress record.
	// Returns ErrProgressNotFound if none exists yet.
	Get(ctx context.Context, userID uuid.UUID) (*domain.Progress, error)

	// Upsert creates or updates the user's progress record.
	Upsert(ctx context.Context, progress *domain.Progress) error

	// RecordSubmission appends a graded quiz submission for auditing.
	RecordSubmission(ctx context.Context, userID, quizID uuid.UUID, grade *domain.QuizGrade) error

	// WithTx returns a ProgressStore bound to the given transaction.
	WithTx(tx *sql.Tx) ProgressStore
}
