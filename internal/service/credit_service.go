package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/domain"
	"github.com/mentora-learn/mentora-api/internal/platform/cache"
	"github.com/mentora-learn/mentora-api/internal/store"
)

// CreditService provides balance reads and the append-only credit ledger.
// All writes run in their own transaction; the deduction is decided by a
// conditional update at commit time, so two racing requests can never
// drive a balance negative.
type CreditService interface {
	// Balance returns the user's current credit balance. Reads are served
	// from a short-lived cache that every write invalidates.
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)

	// Deduct debits amount credits from the user.
	// Returns ErrInsufficientCredits if the balance cannot cover it.
	Deduct(ctx context.Context, userID uuid.UUID, amount int64, description string) (int64, error)

	// Grant credits amount to the user.
	Grant(ctx context.Context, userID uuid.UUID, amount int64, description string) (int64, error)

	// ListTransactions returns the user's transaction history, newest first.
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.CreditTransaction, error)
}

// CreditServiceImpl implements the CreditService interface
type CreditServiceImpl struct {
	creditStore store.CreditStore
	balances    *cache.TTL[uuid.UUID, int64]
	db          *sql.DB
	logger      *slog.Logger
}

// Ensure CreditServiceImpl implements CreditService interface
var _ CreditService = (*CreditServiceImpl)(nil)

// NewCreditService creates a new CreditService.
func NewCreditService(
	creditStore store.CreditStore,
	balances *cache.TTL[uuid.UUID, int64],
	db *sql.DB,
	logger *slog.Logger,
) *CreditServiceImpl {
	return &CreditServiceImpl{
		creditStore: creditStore,
		balances:    balances,
		db:          db,
		logger:      logger.With("component", "credit_service"),
	}
}

// Balance returns the user's current credit balance.
func (s *CreditServiceImpl) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	if balance, ok := s.balances.Get(userID); ok {
		return balance, nil
	}

	balance, err := s.creditStore.Balance(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.logger.Error("failed to read credit balance",
				"error", err,
				"user_id", userID)
		}
		return 0, err
	}

	s.balances.Set(userID, balance)
	return balance, nil
}

// Deduct debits amount credits from the user.
func (s *CreditServiceImpl) Deduct(
	ctx context.Context,
	userID uuid.UUID,
	amount int64,
	description string,
) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrTransactionAmountSign
	}

	txn, err := domain.NewCreditTransaction(userID, -amount, domain.TransactionTypeDeduct, description)
	if err != nil {
		return 0, err
	}

	return s.apply(ctx, txn)
}

// Grant credits amount to the user.
func (s *CreditServiceImpl) Grant(
	ctx context.Context,
	userID uuid.UUID,
	amount int64,
	description string,
) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrTransactionAmountSign
	}

	txn, err := domain.NewCreditTransaction(userID, amount, domain.TransactionTypeAdd, description)
	if err != nil {
		return 0, err
	}

	return s.apply(ctx, txn)
}

// apply runs the transaction against the ledger and keeps the balance
// cache coherent: the cached value is replaced on success and dropped on
// an insufficient-funds rejection, whose cached reading was evidently stale.
func (s *CreditServiceImpl) apply(ctx context.Context, txn *domain.CreditTransaction) (int64, error) {
	var newBalance int64

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		newBalance, err = s.creditStore.WithTx(tx).ApplyTransaction(ctx, txn)
		return err
	})

	if err != nil {
		if errors.Is(err, store.ErrInsufficientCredits) {
			s.balances.Invalidate(txn.UserID)
			return 0, fmt.Errorf("%w: %v", ErrInsufficientCredits, err)
		}
		s.logger.Error("failed to apply credit transaction",
			"error", err,
			"user_id", txn.UserID,
			"type", string(txn.Type))
		return 0, fmt.Errorf("failed to apply credit transaction: %w", err)
	}

	s.balances.Set(txn.UserID, newBalance)
	return newBalance, nil
}

// ListTransactions returns the user's transaction history, newest first.
func (s *CreditServiceImpl) ListTransactions(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.CreditTransaction, error) {
	txns, err := s.creditStore.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list credit transactions",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to list credit transactions: %w", err)
	}
	return txns, nil
}
