package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/domain"
	"github.com/mentora-learn/mentora-api/internal/service/auth"
	"github.com/mentora-learn/mentora-api/internal/store"
)

// UserService provides user registration, authentication and lookup.
type UserService interface {
	// Register creates a new user with the given email and password and
	// issues the signup credit grant in the same transaction.
	// Returns store.ErrEmailExists if the email is already registered.
	Register(ctx context.Context, email, password string) (*domain.User, error)

	// Authenticate verifies an email/password pair.
	// Returns auth.ErrInvalidCredentials for an unknown email or a wrong
	// password, without distinguishing the two.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetUser retrieves a user by their ID.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore   store.UserStore
	creditStore store.CreditStore
	hasher      auth.PasswordHasher
	verifier    auth.PasswordVerifier
	signupGrant int64
	db          *sql.DB
	logger      *slog.Logger
}

// Ensure UserServiceImpl implements UserService interface
var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService. signupGrant is the number of
// credits granted to each new user; zero disables the grant.
func NewUserService(
	userStore store.UserStore,
	creditStore store.CreditStore,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	signupGrant int64,
	db *sql.DB,
	logger *slog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userStore:   userStore,
		creditStore: creditStore,
		hasher:      hasher,
		verifier:    verifier,
		signupGrant: signupGrant,
		db:          db,
		logger:      logger.With("component", "user_service"),
	}
}

// Register creates a new user and issues the signup grant atomically: a
// failure in either step rolls back both, so no user exists without their
// grant and no grant exists without its user.
func (s *UserServiceImpl) Register(ctx context.Context, email, password string) (*domain.User, error) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := domain.NewUser(email, hashed)
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txUsers := s.userStore.WithTx(tx)
		if err := txUsers.Create(ctx, user); err != nil {
			return err
		}

		if s.signupGrant <= 0 {
			return nil
		}

		grant, err := domain.NewCreditTransaction(
			user.ID,
			s.signupGrant,
			domain.TransactionTypeAdd,
			"signup grant",
		)
		if err != nil {
			return err
		}

		newBalance, err := s.creditStore.WithTx(tx).ApplyTransaction(ctx, grant)
		if err != nil {
			return err
		}
		user.CreditBalance = newBalance
		return nil
	})

	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("attempted to register with existing email")
			return nil, store.ErrEmailExists
		}
		s.logger.Error("failed to register user", "error", err)
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered",
		"user_id", user.ID,
		"signup_grant", s.signupGrant)
	return user, nil
}

// Authenticate verifies an email/password pair.
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("authentication failed: unknown email")
			return nil, auth.ErrInvalidCredentials
		}
		s.logger.Error("failed to retrieve user by email", "error", err)
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		s.logger.Debug("authentication failed: wrong password",
			"user_id", user.ID)
		return nil, auth.ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by their ID.
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.logger.Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, err
	}
	return user, nil
}
