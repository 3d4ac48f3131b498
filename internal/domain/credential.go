package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Credential-specific validation errors
var (
	// ErrCredentialUserIDEmpty is returned when a credential's user ID is nil.
	ErrCredentialUserIDEmpty = errors.New("credential user ID cannot be empty")

	// ErrCredentialValueEmpty is returned when a credential's stored value is empty.
	ErrCredentialValueEmpty = errors.New("credential value cannot be empty")
)

// APICredential is a user's provider API key as stored at rest.
//
// EncryptedKey holds the vault's authenticated-encryption package (version
// tag, nonce, ciphertext and authentication tag, text-safe encoded) or, for
// rows written before encryption was introduced, a raw plaintext key. The
// vault detects legacy rows on read and they are re-wrapped on the next
// write. The plaintext key is never stored on this struct and never logged.
type APICredential struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	EncryptedKey string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewAPICredential creates a new APICredential owned by the given user.
// The encryptedKey must already be a vault package; callers go through the
// vault, never store plaintext here.
func NewAPICredential(userID uuid.UUID, encryptedKey string) (*APICredential, error) {
	cred := &APICredential{
		ID:           uuid.New(),
		UserID:       userID,
		EncryptedKey: encryptedKey,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := cred.Validate(); err != nil {
		return nil, err
	}

	return cred, nil
}

// Validate checks if the APICredential has valid data.
func (c *APICredential) Validate() error {
	if c.ID == uuid.Nil {
		return ErrInvalidID
	}

	if c.UserID == uuid.Nil {
		return ErrCredentialUserIDEmpty
	}

	if c.EncryptedKey == "" {
		return ErrCredentialValueEmpty
	}

	return nil
}
