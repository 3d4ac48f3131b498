package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/domain"
)

// CreditStore defines the interface for credit balance and transaction
// persistence. Transaction rows are append-only: corrections are new
// transactions, never edits.
type CreditStore interface {
	// Balance returns the user's current credit balance.
	// Returns ErrUserNotFound if the user does not exist.
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)

	// ApplyTransaction atomically adjusts the cached balance and appends
	// the transaction row, returning the new balance. For deductions the
	// balance update is conditional on sufficient funds and fails with
	// ErrInsufficientCredits otherwise, deciding races at commit time.
	//
	// The two writes span statements; callers run this inside
	// RunInTransaction via WithTx.
	ApplyTransaction(ctx context.Context, txn *domain.CreditTransaction) (int64, error)

	// ListByUserID returns the user's transactions, newest first.
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.CreditTransaction, error)

	// WithTx returns a CreditStore bound to the given transaction.
	WithTx(tx *sql.Tx) CreditStore
}
