// Package crypto provides symmetric encryption for candidate PII fields.
//
// Tokens are AES-256-GCM sealed and base64 URL-safe encoded, with the nonce
// prepended to the ciphertext. The key is a 32-byte base64 URL-safe string,
// typically loaded from the ENCRYPTION_KEY environment variable or a key file.
package crypto

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

const keySize = 32

var (
	// ErrInvalidKey is returned when the configured key is missing or malformed.
	ErrInvalidKey = errors.New("encryption key must be a 32-byte base64 URL-safe string")
	// ErrInvalidToken is returned when a ciphertext token cannot be decrypted.
	ErrInvalidToken = errors.New("invalid ciphertext token")
)

// Cipher encrypts and decrypts short text values.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a base64 URL-safe encoded 32-byte key.
func NewCipher(key string) (*Cipher, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrInvalidKey
	}

	raw, err := base64.URLEncoding.DecodeString(key)
	if err != nil {
		// Keys generated without padding are accepted too.
		raw, err = base64.RawURLEncoding.DecodeString(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
	}

	if len(raw) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKey, len(raw))
	}

	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals the plaintext and returns a base64 URL-safe token.
// An empty plaintext returns an empty token.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt.
func (c *Cipher) Decrypt(token string) (string, error) {
	if token == "" {
		return "", nil
	}

	sealed, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if len(sealed) < c.aead.NonceSize() {
		return "", ErrInvalidToken
	}

	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return string(plaintext), nil
}
