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

// PostgresGenerationStore implements the store.GenerationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresGenerationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGenerationStore creates a new PostgreSQL implementation of the
// GenerationStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresGenerationStore(db store.DBTX, logger *slog.Logger) *PostgresGenerationStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresGenerationStore{
		db:     db,
		logger: logger.With(slog.String("component", "generation_store")),
	}
}

// Ensure PostgresGenerationStore implements store.GenerationStore interface
var _ store.GenerationStore = (*PostgresGenerationStore)(nil)

// WithTx implements store.GenerationStore.WithTx
func (s *PostgresGenerationStore) WithTx(tx *sql.Tx) store.GenerationStore {
	return &PostgresGenerationStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.GenerationStore.Create
// The (user_id, subject_id, kind) unique index enforces the idempotency
// key; a violation maps to store.ErrDuplicate so callers can fall back to
// the stored row.
func (s *PostgresGenerationStore) Create(ctx context.Context, result *domain.GenerationResult) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := result.Validate(); err != nil {
		log.Warn("generation result validation failed during create",
			slog.String("error", err.Error()),
			slog.String("result_id", result.ID.String()))
		return err
	}

	query := `
		INSERT INTO generation_results (id, user_id, subject_id, kind, payload, model_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		result.ID,
		result.UserID,
		result.SubjectID,
		result.Kind,
		[]byte(result.Payload),
		result.ModelUsed,
		result.CreatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Info("generation result already exists for key",
				slog.String("user_id", result.UserID.String()),
				slog.String("subject_id", result.SubjectID.String()),
				slog.String("kind", string(result.Kind)))
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		}

		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during generation result creation",
				slog.String("user_id", result.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, result.UserID)
		}

		log.Error("failed to create generation result",
			slog.String("error", err.Error()),
			slog.String("result_id", result.ID.String()))
		return err
	}

	log.Info("generation result created",
		slog.String("result_id", result.ID.String()),
		slog.String("user_id", result.UserID.String()),
		slog.String("subject_id", result.SubjectID.String()),
		slog.String("kind", string(result.Kind)),
		slog.String("model_used", result.ModelUsed))
	return nil
}

// GetByID implements store.GenerationStore.GetByID
// Returns store.ErrGenerationResultNotFound if the result does not exist.
func (s *PostgresGenerationStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.GenerationResult, error) {
	query := `
		SELECT id, user_id, subject_id, kind, payload, model_used, created_at
		FROM generation_results
		WHERE id = $1
	`
	return s.scanOne(ctx, query, id)
}

// GetByKey implements store.GenerationStore.GetByKey
// Returns store.ErrGenerationResultNotFound if no result exists for the key.
func (s *PostgresGenerationStore) GetByKey(
	ctx context.Context,
	userID, subjectID uuid.UUID,
	kind domain.Kind,
) (*domain.GenerationResult, error) {
	query := `
		SELECT id, user_id, subject_id, kind, payload, model_used, created_at
		FROM generation_results
		WHERE user_id = $1 AND subject_id = $2 AND kind = $3
	`
	return s.scanOne(ctx, query, userID, subjectID, kind)
}

func (s *PostgresGenerationStore) scanOne(
	ctx context.Context,
	query string,
	args ...any,
) (*domain.GenerationResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var result domain.GenerationResult
	var kind string
	var payload []byte

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&result.ID,
		&result.UserID,
		&result.SubjectID,
		&kind,
		&payload,
		&result.ModelUsed,
		&result.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrGenerationResultNotFound
		}
		log.Error("failed to get generation result",
			slog.String("error", err.Error()))
		return nil, err
	}

	result.Kind = domain.Kind(kind)
	result.Payload = payload
	return &result, nil
}
