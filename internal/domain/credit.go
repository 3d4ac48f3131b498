package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a credit transaction.
type TransactionType string

const (
	// TransactionTypeAdd credits the user's balance (positive amount).
	TransactionTypeAdd TransactionType = "add"

	// TransactionTypeDeduct debits the user's balance (negative amount).
	TransactionTypeDeduct TransactionType = "deduct"
)

// Credit transaction validation errors
var (
	// ErrTransactionUserIDEmpty is returned when a transaction's user ID is nil.
	ErrTransactionUserIDEmpty = errors.New("transaction user ID cannot be empty")

	// ErrTransactionAmountZero is returned when a transaction's amount is zero.
	ErrTransactionAmountZero = errors.New("transaction amount cannot be zero")

	// ErrTransactionAmountSign is returned when a transaction's amount sign
	// does not match its type (add must be positive, deduct negative).
	ErrTransactionAmountSign = errors.New("transaction amount sign does not match type")

	// ErrInvalidTransactionType is returned for unknown transaction types.
	ErrInvalidTransactionType = errors.New("invalid transaction type")
)

// CreditTransaction records a single change to a user's credit balance.
//
// Rows are append-only and immutable once written: corrections are new
// transactions, never edits. The transaction log is the source of truth
// for auditing; User.CreditBalance is a derived cache of its sum.
type CreditTransaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Amount      int64           `json:"amount"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewCreditTransaction creates a transaction for the given user. The amount
// is signed: positive for add, negative for deduct. Returns an error if
// validation fails.
func NewCreditTransaction(
	userID uuid.UUID,
	amount int64,
	txType TransactionType,
	description string,
) (*CreditTransaction, error) {
	txn := &CreditTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	if err := txn.Validate(); err != nil {
		return nil, err
	}

	return txn, nil
}

// Validate checks if the CreditTransaction has valid data.
func (t *CreditTransaction) Validate() error {
	if t.ID == uuid.Nil {
		return ErrInvalidID
	}

	if t.UserID == uuid.Nil {
		return ErrTransactionUserIDEmpty
	}

	if t.Amount == 0 {
		return ErrTransactionAmountZero
	}

	switch t.Type {
	case TransactionTypeAdd:
		if t.Amount < 0 {
			return ErrTransactionAmountSign
		}
	case TransactionTypeDeduct:
		if t.Amount > 0 {
			return ErrTransactionAmountSign
		}
	default:
		return ErrInvalidTransactionType
	}

	return nil
}
