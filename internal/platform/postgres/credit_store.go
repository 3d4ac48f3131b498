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

// PostgresCreditStore implements the store.CreditStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCreditStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCreditStore creates a new PostgreSQL implementation of the
// CreditStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresCreditStore(db store.DBTX, logger *slog.Logger) *PostgresCreditStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCreditStore{
		db:     db,
		logger: logger.With(slog.String("component", "credit_store")),
	}
}

// Ensure PostgresCreditStore implements store.CreditStore interface
var _ store.CreditStore = (*PostgresCreditStore)(nil)

// WithTx implements store.CreditStore.WithTx
func (s *PostgresCreditStore) WithTx(tx *sql.Tx) store.CreditStore {
	return &PostgresCreditStore{
		db:     tx,
		logger: s.logger,
	}
}

// Balance implements store.CreditStore.Balance
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresCreditStore) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT credit_balance FROM users WHERE id = $1`

	var balance int64
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrUserNotFound
		}
		log.Error("failed to get credit balance",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, err
	}

	return balance, nil
}

// ApplyTransaction implements store.CreditStore.ApplyTransaction
//
// The balance update for a deduction is conditional on sufficient funds, so
// concurrent deductions race on the row update rather than on a stale read:
// whichever commits first wins and the loser fails here with
// store.ErrInsufficientCredits.
func (s *PostgresCreditStore) ApplyTransaction(
	ctx context.Context,
	txn *domain.CreditTransaction,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := txn.Validate(); err != nil {
		log.Warn("transaction validation failed",
			slog.String("error", err.Error()),
			slog.String("user_id", txn.UserID.String()))
		return 0, err
	}

	updateQuery := `
		UPDATE users
		SET credit_balance = credit_balance + $1,
		    updated_at = $2
		WHERE id = $3 AND credit_balance + $1 >= 0
		RETURNING credit_balance
	`

	var newBalance int64
	err := s.db.QueryRowContext(
		ctx,
		updateQuery,
		txn.Amount,
		txn.CreatedAt,
		txn.UserID,
	).Scan(&newBalance)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the user is missing or the balance would go negative.
			// Distinguish so callers can surface the right error.
			var exists bool
			checkErr := s.db.QueryRowContext(
				ctx,
				`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`,
				txn.UserID,
			).Scan(&exists)
			if checkErr != nil {
				log.Error("failed to check user existence after conditional update",
					slog.String("error", checkErr.Error()),
					slog.String("user_id", txn.UserID.String()))
				return 0, checkErr
			}
			if !exists {
				return 0, store.ErrUserNotFound
			}

			log.Info("deduction rejected for insufficient credits",
				slog.String("user_id", txn.UserID.String()),
				slog.Int64("amount", txn.Amount))
			return 0, fmt.Errorf("%w: balance below %d",
				store.ErrInsufficientCredits, -txn.Amount)
		}

		log.Error("failed to update credit balance",
			slog.String("error", err.Error()),
			slog.String("user_id", txn.UserID.String()))
		return 0, err
	}

	insertQuery := `
		INSERT INTO credit_transactions (id, user_id, amount, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(
		ctx,
		insertQuery,
		txn.ID,
		txn.UserID,
		txn.Amount,
		txn.Type,
		txn.Description,
		txn.CreatedAt,
	)
	if err != nil {
		log.Error("failed to append credit transaction",
			slog.String("error", err.Error()),
			slog.String("user_id", txn.UserID.String()),
			slog.String("transaction_id", txn.ID.String()))
		return 0, err
	}

	log.Info("credit transaction applied",
		slog.String("user_id", txn.UserID.String()),
		slog.String("transaction_id", txn.ID.String()),
		slog.String("type", string(txn.Type)),
		slog.Int64("amount", txn.Amount),
		slog.Int64("new_balance", newBalance))
	return newBalance, nil
}

// ListByUserID implements store.CreditStore.ListByUserID
func (s *PostgresCreditStore) ListByUserID(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.CreditTransaction, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, user_id, amount, type, description, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		log.Error("failed to list credit transactions",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var txns []*domain.CreditTransaction
	for rows.Next() {
		var txn domain.CreditTransaction
		var txType string
		if err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.Amount,
			&txType,
			&txn.Description,
			&txn.CreatedAt,
		); err != nil {
			log.Error("failed to scan credit transaction",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
			return nil, err
		}
		txn.Type = domain.TransactionType(txType)
		txns = append(txns, &txn)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating credit transactions",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	return txns, nil
}
