package security

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealer_RoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	s, err := NewSealerFromBase64(key)
	require.NoError(t, err)

	sealed, err := s.Encrypt("binance-api-secret")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "binance-api-secret")

	again, err := s.Encrypt("binance-api-secret")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per call")

	plain, err := s.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "binance-api-secret", plain)
}

func TestSealer_RejectsTampering(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	s, err := NewSealerFromBase64(key)
	require.NoError(t, err)

	sealed, err := s.Encrypt("key")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff

	_, err = s.Decrypt(base64.StdEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = s.Decrypt("not base64 !")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = s.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNewSealer_KeyLength(t *testing.T) {
	_, err := NewSealer(make([]byte, 16))
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestEncryptString_UsesEnvKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	t.Setenv("EXCHANGE_CREDENTIALS_KEY", key)

	sealed, err := EncryptString("abc")
	require.NoError(t, err)

	plain, err := DecryptString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "abc", plain)
}

func TestNewSealerFromEnv_MissingKey(t *testing.T) {
	t.Setenv("EXCHANGE_CREDENTIALS_KEY", "")

	_, err := NewSealerFromEnv()
	assert.ErrorIs(t, err, ErrMissingKey)
}
