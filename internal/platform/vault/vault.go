// Package vault implements authenticated encryption for stored provider
// API keys. Values at rest are AES-256-GCM packages; the GCM tag makes
// tampering detectable, so a corrupted ciphertext is rejected instead of
// being "decrypted" to garbage.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// packagePrefix tags values written in the current ciphertext format.
// Stored values without it are legacy plaintext rows from before
// encryption was introduced.
const packagePrefix = "v1"

// packageSeparator separates the version, nonce and ciphertext fields of
// an encoded package.
const packageSeparator = ":"

// keySize is the AES-256 key length in bytes.
const keySize = 32

// Vault errors
var (
	// ErrInvalidKeySize is returned when the master key is not exactly
	// 32 bytes. The vault refuses to construct rather than degrade.
	ErrInvalidKeySize = errors.New("master key must be exactly 32 bytes")

	// ErrMalformedPackage is returned when a stored value claims the
	// package format but cannot be decoded.
	ErrMalformedPackage = errors.New("malformed ciphertext package")

	// ErrDecryptionFailed is returned when the authentication tag does not
	// verify: wrong master key or tampered data.
	ErrDecryptionFailed = errors.New("decryption failed: authentication tag mismatch")

	// ErrEmptyPlaintext is returned when asked to encrypt an empty value.
	ErrEmptyPlaintext = errors.New("plaintext cannot be empty")
)

// Vault encrypts and decrypts credential values with a process-wide
// AES-256 master key loaded once at startup.
type Vault struct {
	aead cipher.AEAD
}

// New creates a Vault from the given master key. Returns ErrInvalidKeySize
// unless the key is exactly 32 bytes.
func New(masterKey []byte) (*Vault, error) {
	if len(masterKey) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(masterKey))
	}

	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// Encrypt seals the plaintext into a text-safe package:
//
//	v1:<base64 nonce>:<base64 ciphertext+tag>
//
// A fresh random nonce is drawn for every call; the same plaintext
// encrypts to a different package each time.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPlaintext
	}

	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := v.aead.Seal(nil, nonce, []byte(plaintext), nil)

	return strings.Join([]string{
		packagePrefix,
		base64.StdEncoding.EncodeToString(nonce),
		base64.StdEncoding.EncodeToString(ciphertext),
	}, packageSeparator), nil
}

// Decrypt opens a package produced by Encrypt. Returns
// ErrDecryptionFailed if the authentication tag does not verify and
// ErrMalformedPackage if the value is not a well-formed package.
func (v *Vault) Decrypt(encoded string) (string, error) {
	parts := strings.SplitN(encoded, packageSeparator, 3)
	if len(parts) != 3 || parts[0] != packagePrefix {
		return "", ErrMalformedPackage
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: bad nonce encoding", ErrMalformedPackage)
	}
	if len(nonce) != v.aead.NonceSize() {
		return "", fmt.Errorf("%w: bad nonce length", ErrMalformedPackage)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext encoding", ErrMalformedPackage)
	}

	plaintext, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// IsPackaged reports whether a stored value is in the current ciphertext
// package format. Stored values that are not packaged are legacy plaintext.
func IsPackaged(stored string) bool {
	return strings.HasPrefix(stored, packagePrefix+packageSeparator)
}

// DecryptCredential resolves a stored credential value to its plaintext.
//
// Packaged values are decrypted normally. Legacy rows written before
// encryption was introduced are returned as-is with needsRewrap=true so
// the caller can re-encrypt them on the next write; the migration signal
// is explicit rather than overloaded onto the returned value.
func (v *Vault) DecryptCredential(stored string) (plaintext string, needsRewrap bool, err error) {
	if stored == "" {
		return "", false, ErrMalformedPackage
	}

	if !IsPackaged(stored) {
		return stored, true, nil
	}

	plaintext, err = v.Decrypt(stored)
	if err != nil {
		return "", false, err
	}
	return plaintext, false, nil
}
