package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/kerjalink/kerjalink-backend/pkg/config"
	"golang.org/x/crypto/argon2"
)

const (
	keyLen   = 32
	nonceLen = 12
)

// ErrInvalidCiphertext signals a malformed or tampered ciphertext.
var ErrInvalidCiphertext = fmt.Errorf("invalid ciphertext")

// Cipher encrypts withdraw account numbers at rest with AES-256-GCM.
// The key is derived once from the configured passphrase via Argon2id.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives the data key and prepares the AEAD.
func NewCipher(cfg config.EncryptionConfig) (*Cipher, error) {
	if cfg.Passphrase == "" {
		return nil, fmt.Errorf("encryption passphrase is required")
	}
	if cfg.Salt == "" {
		return nil, fmt.Errorf("encryption salt is required")
	}

	key := argon2.IDKey([]byte(cfg.Passphrase), []byte(cfg.Salt), 1, 64*1024, 4, keyLen)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals the plaintext and returns base64(nonce || ciphertext || tag).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Tampered or truncated input yields ErrInvalidCiphertext.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(raw) < nonceLen {
		return "", ErrInvalidCiphertext
	}
	nonce, ciphertext := raw[:nonceLen], raw[nonceLen:]
	plain, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plain), nil
}
