package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrInvalidKeyLength  = errors.New("credentials key must decode to 32 bytes")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrDecryptionFailed  = errors.New("decryption failed: authentication error")
	ErrMissingKey        = errors.New("EXCHANGE_CREDENTIALS_KEY is not set")
)

// Sealer encrypts exchange credentials with XChaCha20-Poly1305.
// Output is base64(nonce || ciphertext || tag).
type Sealer struct {
	key []byte
}

// NewSealer builds a Sealer from a raw 32 byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKeyLength
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Sealer{key: k}, nil
}

// NewSealerFromBase64 decodes a base64 key such as EXCHANGE_CREDENTIALS_KEY.
func NewSealerFromBase64(encoded string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode credentials key: %w", err)
	}
	return NewSealer(key)
}

// NewSealerFromEnv builds a Sealer from the package config.
func NewSealerFromEnv() (*Sealer, error) {
	key := GetConfig().CredentialsKey
	if key == "" {
		return nil, ErrMissingKey
	}
	return NewSealerFromBase64(key)
}

func (s *Sealer) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *Sealer) Decrypt(encoded string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", ErrInvalidCiphertext
	}

	nonce, body := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, body, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// EncryptString seals plaintext with the configured credentials key.
func EncryptString(plaintext string) (string, error) {
	s, err := NewSealerFromEnv()
	if err != nil {
		return "", err
	}
	return s.Encrypt(plaintext)
}

// DecryptString opens a value produced by EncryptString. The control plane itself never
// calls this; it exists for the execution engine and operators.
func DecryptString(encoded string) (string, error) {
	s, err := NewSealerFromEnv()
	if err != nil {
		return "", err
	}
	return s.Decrypt(encoded)
}

// GenerateKey returns a fresh base64 encoded key suitable for EXCHANGE_CREDENTIALS_KEY.
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
