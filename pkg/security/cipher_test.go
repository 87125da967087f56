package security

import (
	"testing"

	"github.com/kerjalink/kerjalink-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher(config.EncryptionConfig{
		Passphrase: "test-passphrase",
		Salt:       "test-salt",
	})
	require.NoError(t, err)
	return c
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := testCipher(t)

	sealed, err := c.Encrypt("1234567890")
	require.NoError(t, err)
	assert.NotEqual(t, "1234567890", sealed)

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "1234567890", plain)
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	c := testCipher(t)

	first, err := c.Encrypt("same-input")
	require.NoError(t, err)
	second, err := c.Encrypt("same-input")
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "fresh nonce per encryption")
}

func TestDecryptRejectsTamperedInput(t *testing.T) {
	c := testCipher(t)

	sealed, err := c.Encrypt("1234567890")
	require.NoError(t, err)

	tampered := []byte(sealed)
	tampered[len(tampered)-5] ^= 'x'
	_, err = c.Decrypt(string(tampered))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = c.Decrypt("not base64 at all!!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = c.Decrypt("c2hvcnQ=")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNewCipherRequiresSecrets(t *testing.T) {
	_, err := NewCipher(config.EncryptionConfig{Salt: "only-salt"})
	assert.Error(t, err)
	_, err = NewCipher(config.EncryptionConfig{Passphrase: "only-pass"})
	assert.Error(t, err)
}
