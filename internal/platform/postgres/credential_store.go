package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/domain"
	"github.com/mentora-learn/mentora-api/internal/platform/logger"
	"github.com/mentora-learn/mentora-api/internal/store"
)

// PostgresCredentialStore implements the store.CredentialStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCredentialStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCredentialStore creates a new PostgreSQL implementation of the
// CredentialStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresCredentialStore(db store.DBTX, logger *slog.Logger) *PostgresCredentialStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCredentialStore{
		db:     db,
		logger: logger.With(slog.String("component", "credential_store")),
	}
}

// Ensure PostgresCredentialStore implements store.CredentialStore interface
var _ store.CredentialStore = (*PostgresCredentialStore)(nil)

// WithTx implements store.CredentialStore.WithTx
func (s *PostgresCredentialStore) WithTx(tx *sql.Tx) store.CredentialStore {
	return &PostgresCredentialStore{
		db:     tx,
		logger: s.logger,
	}
}

// Upsert implements store.CredentialStore.Upsert
// It creates the user's credential row or replaces the stored key if one
// exists. The stored value is never logged.
func (s *PostgresCredentialStore) Upsert(ctx context.Context, cred *domain.APICredential) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := cred.Validate(); err != nil {
		log.Warn("credential validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("user_id", cred.UserID.String()))
		return err
	}

	query := `
		INSERT INTO api_credentials (id, user_id, encrypted_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET encrypted_key = EXCLUDED.encrypted_key,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		cred.ID,
		cred.UserID,
		cred.EncryptedKey,
		cred.CreatedAt,
		cred.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during credential upsert",
				slog.String("user_id", cred.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, cred.UserID)
		}

		log.Error("failed to upsert credential",
			slog.String("error", err.Error()),
			slog.String("user_id", cred.UserID.String()))
		return err
	}

	log.Info("credential stored",
		slog.String("user_id", cred.UserID.String()))
	return nil
}

// GetByUserID implements store.CredentialStore.GetByUserID
// Returns store.ErrCredentialNotFound if the user has no stored credential.
func (s *PostgresCredentialStore) GetByUserID(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.APICredential, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, encrypted_key, created_at, updated_at
		FROM api_credentials
		WHERE user_id = $1
	`

	var cred domain.APICredential
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&cred.ID,
		&cred.UserID,
		&cred.EncryptedKey,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("credential not found",
				slog.String("user_id", userID.String()))
			return nil, store.ErrCredentialNotFound
		}
		log.Error("failed to get credential",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	return &cred, nil
}
