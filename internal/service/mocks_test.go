package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/domain"
	"github.com/mentora-learn/mentora-api/internal/generation"
	"github.com/mentora-learn/mentora-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// stubDB returns a *sql.DB whose transactions begin, commit and roll back
// without a real database. Store calls never reach it because the mocked
// stores ignore the transaction handed to WithTx.
func stubDB(t *testing.T) *sql.DB {
	t.Helper()
	db := sql.OpenDB(stubConnector{})
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type stubConnector struct{}

func (stubConnector) Connect(context.Context) (driver.Conn, error) { return stubConn{}, nil }
func (stubConnector) Driver() driver.Driver                        { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

// MockGenerationStore mocks the store.GenerationStore interface
type MockGenerationStore struct {
	mock.Mock
}

var _ store.GenerationStore = (*MockGenerationStore)(nil)

func (m *MockGenerationStore) Create(ctx context.Context, result *domain.GenerationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockGenerationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GenerationResult), args.Error(1)
}

func (m *MockGenerationStore) GetByKey(
	ctx context.Context,
	userID, subjectID uuid.UUID,
	kind domain.Kind,
) (*domain.GenerationResult, error) {
	args := m.Called(ctx, userID, subjectID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GenerationResult), args.Error(1)
}

func (m *MockGenerationStore) WithTx(tx *sql.Tx) store.GenerationStore { return m }

// MockProgressStore mocks the store.ProgressStore interface
type MockProgressStore struct {
	mock.Mock
}

var _ store.ProgressStore = (*MockProgressStore)(nil)

func (m *MockProgressStore) Get(ctx context.Context, userID uuid.UUID) (*domain.Progress, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Progress), args.Error(1)
}

func (m *MockProgressStore) Upsert(ctx context.Context, progress *domain.Progress) error {
	args := m.Called(ctx, progress)
	return args.Error(0)
}

func (m *MockProgressStore) RecordSubmission(
	ctx context.Context,
	userID, quizID uuid.UUID,
	grade *domain.QuizGrade,
) error {
	args := m.Called(ctx, userID, quizID, grade)
	return args.Error(0)
}

func (m *MockProgressStore) WithTx(tx *sql.Tx) store.ProgressStore { return m }

// MockCreditStore mocks the store.CreditStore interface
type MockCreditStore struct {
	mock.Mock
}

var _ store.CreditStore = (*MockCreditStore)(nil)

func (m *MockCreditStore) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCreditStore) ApplyTransaction(
	ctx context.Context,
	txn *domain.CreditTransaction,
) (int64, error) {
	args := m.Called(ctx, txn)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCreditStore) ListByUserID(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.CreditTransaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CreditTransaction), args.Error(1)
}

func (m *MockCreditStore) WithTx(tx *sql.Tx) store.CreditStore { return m }

// MockCredentialStore mocks the store.CredentialStore interface
type MockCredentialStore struct {
	mock.Mock
}

var _ store.CredentialStore = (*MockCredentialStore)(nil)

func (m *MockCredentialStore) Upsert(ctx context.Context, cred *domain.APICredential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *MockCredentialStore) GetByUserID(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.APICredential, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APICredential), args.Error(1)
}

func (m *MockCredentialStore) WithTx(tx *sql.Tx) store.CredentialStore { return m }

// MockUserStore mocks the store.UserStore interface
type MockUserStore struct {
	mock.Mock
}

var _ store.UserStore = (*MockUserStore)(nil)

func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) WithTx(tx *sql.Tx) store.UserStore { return m }

// fakeGateway implements generation.Gateway with a scripted response.
type fakeGateway struct {
	text     string
	attempts []generation.Attempt
	err      error
	calls    int
}

var _ generation.Gateway = (*fakeGateway)(nil)

func (g *fakeGateway) Generate(
	ctx context.Context,
	prompt, apiKey string,
) (string, []generation.Attempt, error) {
	g.calls++
	return g.text, g.attempts, g.err
}

// fakeCredentials implements CredentialService with a fixed key.
type fakeCredentials struct {
	key string
	err error
}

var _ CredentialService = (*fakeCredentials)(nil)

func (f *fakeCredentials) StoreKey(ctx context.Context, userID uuid.UUID, plaintextKey string) error {
	return nil
}

func (f *fakeCredentials) ResolveKey(ctx context.Context, userID uuid.UUID) (string, error) {
	return f.key, f.err
}

// fakeCredits implements CreditService over an in-memory balance.
type fakeCredits struct {
	balance     int64
	balanceErr  error
	deductErr   error
	deductCalls int
}

var _ CreditService = (*fakeCredits)(nil)

func (f *fakeCredits) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return f.balance, f.balanceErr
}

func (f *fakeCredits) Deduct(
	ctx context.Context,
	userID uuid.UUID,
	amount int64,
	description string,
) (int64, error) {
	f.deductCalls++
	if f.deductErr != nil {
		return 0, f.deductErr
	}
	f.balance -= amount
	return f.balance, f.deductErr
}

func (f *fakeCredits) Grant(
	ctx context.Context,
	userID uuid.UUID,
	amount int64,
	description string,
) (int64, error) {
	f.balance += amount
	return f.balance, nil
}

func (f *fakeCredits) ListTransactions(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.CreditTransaction, error) {
	return nil, nil
}
