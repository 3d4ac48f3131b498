package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/domain"
)

// GenerationStore defines the interface for generation result persistence.
// Results are unique per (user, subject, kind); that key backs the
// pipeline's idempotency guarantee.
type GenerationStore interface {
	// Create saves a new generation result.
	// Returns ErrDuplicate if a result already exists for the same
	// (user, subject, kind) key.
	Create(ctx context.Context, result *domain.GenerationResult) error

	// GetByID retrieves a result by its unique ID.
	// Returns ErrGenerationResultNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationResult, error)

	// GetByKey retrieves the result for an idempotency key.
	// Returns ErrGenerationResultNotFound if none exists.
	GetByKey(ctx context.Context, userID, subjectID uuid.UUID, kind domain.Kind) (*domain.GenerationResult, error)

	// WithTx returns a GenerationStore bound to the given transaction.
	WithTx(tx *sql.Tx) GenerationStore
}
