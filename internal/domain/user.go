package domain

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// User-specific validation errors
var (
	// ErrUserIDEmpty is returned when a user ID is empty or nil.
	ErrUserIDEmpty = errors.New("user ID cannot be empty")

	// ErrUserEmailEmpty is returned when a user's email is empty.
	ErrUserEmailEmpty = errors.New("user email cannot be empty")

	// ErrUserPasswordHashEmpty is returned when a user's password hash is empty.
	ErrUserPasswordHashEmpty = errors.New("user password hash cannot be empty")

	// ErrNegativeBalance is returned when a user's credit balance would be
	// negative. The balance is a derived cache of the transaction sum and
	// must never go below zero.
	ErrNegativeBalance = errors.New("credit balance cannot be negative")
)

// emailRegex is a pragmatic email shape check; deliverability is not
// verified here.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User represents a registered platform user.
//
// CreditBalance is a derived cache of the sum of the user's credit
// transactions; the transaction log is the source of truth for auditing.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	CreditBalance  int64     `json:"credit_balance"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a new User with the given email and password hash.
// It generates a new UUID for the user ID and sets the timestamps.
// Returns an error if validation fails.
func NewUser(email, hashedPassword string) (*User, error) {
	user := &User{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: hashedPassword,
		CreditBalance:  0,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrUserIDEmpty
	}

	if u.Email == "" {
		return ErrUserEmailEmpty
	}

	if !emailRegex.MatchString(u.Email) {
		return ErrInvalidEmail
	}

	if u.HashedPassword == "" {
		return ErrUserPasswordHashEmpty
	}

	if u.CreditBalance < 0 {
		return ErrNegativeBalance
	}

	return nil
}
