package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/domain"
)

// CredentialStore defines the interface for API credential persistence.
// Each user owns at most one credential row; it is mutated only through
// explicit key updates (including the automatic re-wrap of legacy
// plaintext rows).
type CredentialStore interface {
	// Upsert creates or replaces the user's stored credential.
	Upsert(ctx context.Context, cred *domain.APICredential) error

	// GetByUserID retrieves the credential owned by the given user.
	// Returns ErrCredentialNotFound if the user has none.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.APICredential, error)

	// WithTx returns a CredentialStore bound to the given transaction.
	WithTx(tx *sql.Tx) CredentialStore
}
