package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/domain"
	"github.com/mentora-learn/mentora-api/internal/platform/logger"
	"github.com/mentora-learn/mentora-api/internal/store"
)

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the
// ProgressStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// WithTx implements store.ProgressStore.WithTx
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &PostgresProgressStore{
		db:     tx,
		logger: s.logger,
	}
}

// Get implements store.ProgressStore.Get
// Returns store.ErrProgressNotFound if the user has no progress record yet.
func (s *PostgresProgressStore) Get(ctx context.Context, userID uuid.UUID) (*domain.Progress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, current_streak, longest_streak, lessons_completed,
		       quizzes_completed, last_accessed_at, created_at, updated_at
		FROM user_progress
		WHERE user_id = $1
	`

	var progress domain.Progress
	var lastAccessed sql.NullTime

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&progress.UserID,
		&progress.CurrentStreak,
		&progress.LongestStreak,
		&progress.LessonsCompleted,
		&progress.QuizzesCompleted,
		&lastAccessed,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("progress record not found",
				slog.String("user_id", userID.String()))
			return nil, store.ErrProgressNotFound
		}
		log.Error("failed to get progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	if lastAccessed.Valid {
		progress.LastAccessedAt = lastAccessed.Time
	}

	return &progress, nil
}

// Upsert implements store.ProgressStore.Upsert
func (s *PostgresProgressStore) Upsert(ctx context.Context, progress *domain.Progress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		log.Warn("progress validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()))
		return err
	}

	var lastAccessed any
	if !progress.LastAccessedAt.IsZero() {
		lastAccessed = progress.LastAccessedAt
	}

	query := `
		INSERT INTO user_progress (user_id, current_streak, longest_streak,
			lessons_completed, quizzes_completed, last_accessed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE
		SET current_streak = EXCLUDED.current_streak,
		    longest_streak = EXCLUDED.longest_streak,
		    lessons_completed = EXCLUDED.lessons_completed,
		    quizzes_completed = EXCLUDED.quizzes_completed,
		    last_accessed_at = EXCLUDED.last_accessed_at,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		progress.UserID,
		progress.CurrentStreak,
		progress.LongestStreak,
		progress.LessonsCompleted,
		progress.QuizzesCompleted,
		lastAccessed,
		progress.CreatedAt,
		progress.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during progress upsert",
				slog.String("user_id", progress.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, progress.UserID)
		}

		log.Error("failed to upsert progress",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()))
		return err
	}

	log.Debug("progress upserted",
		slog.String("user_id", progress.UserID.String()),
		slog.Int("current_streak", progress.CurrentStreak))
	return nil
}

// RecordSubmission implements store.ProgressStore.RecordSubmission
// The grade is stored as a JSON document alongside the quiz reference.
func (s *PostgresProgressStore) RecordSubmission(
	ctx context.Context,
	userID, quizID uuid.UUID,
	grade *domain.QuizGrade,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	gradeJSON, err := json.Marshal(grade)
	if err != nil {
		return fmt.Errorf("failed to marshal grade: %w", err)
	}

	query := `
		INSERT INTO quiz_submissions (id, user_id, quiz_id, score, passed, grade, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		uuid.New(),
		userID,
		quizID,
		grade.Score,
		grade.Passed,
		gradeJSON,
		time.Now().UTC(),
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during submission insert",
				slog.String("user_id", userID.String()),
				slog.String("quiz_id", quizID.String()))
			return fmt.Errorf("%w: quiz or user not found", store.ErrInvalidEntity)
		}

		log.Error("failed to record quiz submission",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("quiz_id", quizID.String()))
		return err
	}

	log.Info("quiz submission recorded",
		slog.String("user_id", userID.String()),
		slog.String("quiz_id", quizID.String()),
		slog.Int("score", grade.Score),
		slog.Bool("passed", grade.Passed))
	return nil
}
