package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/domain"
	"github.com/mentora-learn/mentora-api/internal/service/auth"
	"github.com/mentora-learn/mentora-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUserService(
	userStore *MockUserStore,
	creditStore *MockCreditStore,
	grant int64,
	t *testing.T,
) *UserServiceImpl {
	return NewUserService(
		userStore,
		creditStore,
		auth.NewBcryptHasher(4), // minimum cost keeps tests fast
		auth.NewBcryptVerifier(),
		grant,
		stubDB(t),
		testLogger(),
	)
}

func TestUserService_RegisterWithSignupGrant(t *testing.T) {
	t.Parallel()

	userStore := new(MockUserStore)
	userStore.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "learner@example.com" && u.HashedPassword != "secure-password-123"
	})).Return(nil)

	creditStore := new(MockCreditStore)
	creditStore.On("ApplyTransaction", mock.Anything, mock.MatchedBy(func(txn *domain.CreditTransaction) bool {
		return txn.Amount == 25 && txn.Type == domain.TransactionTypeAdd
	})).Return(int64(25), nil)

	svc := newUserService(userStore, creditStore, 25, t)

	user, err := svc.Register(context.Background(), "learner@example.com", "secure-password-123")
	require.NoError(t, err)

	assert.Equal(t, int64(25), user.CreditBalance)
	userStore.AssertExpectations(t)
	creditStore.AssertExpectations(t)
}

func TestUserService_RegisterWithoutGrant(t *testing.T) {
	t.Parallel()

	userStore := new(MockUserStore)
	userStore.On("Create", mock.Anything, mock.Anything).Return(nil)

	creditStore := new(MockCreditStore)

	svc := newUserService(userStore, creditStore, 0, t)

	user, err := svc.Register(context.Background(), "learner@example.com", "secure-password-123")
	require.NoError(t, err)

	assert.Zero(t, user.CreditBalance)
	creditStore.AssertNotCalled(t, "ApplyTransaction", mock.Anything, mock.Anything)
}

func TestUserService_RegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	userStore := new(MockUserStore)
	userStore.On("Create", mock.Anything, mock.Anything).Return(store.ErrEmailExists)

	svc := newUserService(userStore, new(MockCreditStore), 25, t)

	_, err := svc.Register(context.Background(), "learner@example.com", "secure-password-123")
	assert.ErrorIs(t, err, store.ErrEmailExists)
}

func TestUserService_Authenticate(t *testing.T) {
	t.Parallel()

	hasher := auth.NewBcryptHasher(4)
	hashed, err := hasher.Hash("secure-password-123")
	require.NoError(t, err)

	user, err := domain.NewUser("learner@example.com", hashed)
	require.NoError(t, err)

	userStore := new(MockUserStore)
	userStore.On("GetByEmail", mock.Anything, "learner@example.com").Return(user, nil)
	userStore.On("GetByEmail", mock.Anything, "nobody@example.com").
		Return(nil, store.ErrUserNotFound)

	svc := newUserService(userStore, new(MockCreditStore), 0, t)

	got, err := svc.Authenticate(context.Background(), "learner@example.com", "secure-password-123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(context.Background(), "learner@example.com", "wrong-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "secure-password-123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials,
		"unknown email and wrong password must be indistinguishable")
}

func TestUserService_GetUser(t *testing.T) {
	t.Parallel()

	userStore := new(MockUserStore)
	missing := uuid.New()
	userStore.On("GetByID", mock.Anything, missing).Return(nil, store.ErrUserNotFound)

	svc := newUserService(userStore, new(MockCreditStore), 0, t)

	_, err := svc.GetUser(context.Background(), missing)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}
