package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mentora-learn/mentora-api/internal/domain"
	"github.com/mentora-learn/mentora-api/internal/platform/vault"
	"github.com/mentora-learn/mentora-api/internal/store"
)

// CredentialService manages users' provider API keys. Keys are encrypted
// by the vault before they reach the store and decrypted only transiently
// for gateway calls; plaintext never appears in logs or responses.
type CredentialService interface {
	// StoreKey encrypts and saves the user's provider API key, replacing
	// any previously stored key.
	StoreKey(ctx context.Context, userID uuid.UUID, plaintextKey string) error

	// ResolveKey returns the user's decrypted provider API key.
	// Returns ErrCredentialMissing if no key is stored and
	// ErrCredentialInvalid if the stored value cannot be decrypted.
	ResolveKey(ctx context.Context, userID uuid.UUID) (string, error)
}

// CredentialServiceImpl implements the CredentialService interface
type CredentialServiceImpl struct {
	credStore store.CredentialStore
	vault     *vault.Vault
	logger    *slog.Logger
}

// Ensure CredentialServiceImpl implements CredentialService interface
var _ CredentialService = (*CredentialServiceImpl)(nil)

// NewCredentialService creates a new CredentialService.
func NewCredentialService(
	credStore store.CredentialStore,
	v *vault.Vault,
	logger *slog.Logger,
) *CredentialServiceImpl {
	return &CredentialServiceImpl{
		credStore: credStore,
		vault:     v,
		logger:    logger.With("component", "credential_service"),
	}
}

// StoreKey encrypts and saves the user's provider API key.
func (s *CredentialServiceImpl) StoreKey(ctx context.Context, userID uuid.UUID, plaintextKey string) error {
	encrypted, err := s.vault.Encrypt(plaintextKey)
	if err != nil {
		s.logger.Error("failed to encrypt credential",
			"error", err,
			"user_id", userID)
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}

	cred, err := domain.NewAPICredential(userID, encrypted)
	if err != nil {
		return err
	}

	if err := s.credStore.Upsert(ctx, cred); err != nil {
		s.logger.Error("failed to store credential",
			"error", err,
			"user_id", userID)
		return fmt.Errorf("failed to store credential: %w", err)
	}

	return nil
}

// ResolveKey returns the user's decrypted provider API key. Rows written
// before encryption was introduced hold raw plaintext; those are detected
// on read and re-wrapped here so the plaintext copy is replaced on first
// use rather than lingering until the user next updates their key.
func (s *CredentialServiceImpl) ResolveKey(ctx context.Context, userID uuid.UUID) (string, error) {
	cred, err := s.credStore.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrCredentialNotFound) {
			return "", ErrCredentialMissing
		}
		s.logger.Error("failed to load credential",
			"error", err,
			"user_id", userID)
		return "", fmt.Errorf("failed to load credential: %w", err)
	}

	plaintext, needsRewrap, err := s.vault.DecryptCredential(cred.EncryptedKey)
	if err != nil {
		s.logger.Warn("stored credential failed decryption",
			"error", err,
			"user_id", userID)
		return "", fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
	}

	if needsRewrap {
		s.rewrap(ctx, userID, plaintext)
	}

	return plaintext, nil
}

// rewrap re-encrypts a legacy plaintext credential in place. Failures are
// logged and swallowed: the caller already has a usable key and the next
// read retries the re-wrap.
func (s *CredentialServiceImpl) rewrap(ctx context.Context, userID uuid.UUID, plaintext string) {
	encrypted, err := s.vault.Encrypt(plaintext)
	if err != nil {
		s.logger.Error("failed to re-encrypt legacy credential",
			"error", err,
			"user_id", userID)
		return
	}

	cred, err := domain.NewAPICredential(userID, encrypted)
	if err != nil {
		s.logger.Error("failed to build re-wrapped credential",
			"error", err,
			"user_id", userID)
		return
	}

	if err := s.credStore.Upsert(ctx, cred); err != nil {
		s.logger.Error("failed to persist re-wrapped credential",
			"error", err,
			"user_id", userID)
		return
	}

	s.logger.Info("legacy plaintext credential re-wrapped",
		"user_id", userID)
}
