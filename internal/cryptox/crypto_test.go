package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	plaintext := []byte(`{"amount":10,"status":"completed"}`)

	ciphertext, nonce, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)
	assert.Len(t, nonce, 12)

	decrypted, err := Decrypt(ciphertext, nonce, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestDecryptWrongKey(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	other := []byte("fedcba9876543210fedcba9876543210")

	ciphertext, nonce, err := Encrypt([]byte("secret"), key)
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, nonce, other)
	assert.Error(t, err)
}

func TestEncryptBadKeyLength(t *testing.T) {
	_, _, err := Encrypt([]byte("x"), []byte("short"))
	assert.Error(t, err)
}

func TestHash(t *testing.T) {
	h := Hash("hello")
	assert.Len(t, h, 64)
	assert.Equal(t, h, Hash("hello"))
	assert.NotEqual(t, h, Hash("hello2"))
}

func TestGenerateToken(t *testing.T) {
	t1, err := GenerateToken(32)
	require.NoError(t, err)
	t2, err := GenerateToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
	assert.NotContains(t, t1, "=")
}

func TestPasswordHashRoundTrip(t *testing.T) {
	encoded, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.Contains(t, encoded, "$argon2id$")

	ok, err := VerifyPassword("s3cret-pass", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordMalformed(t *testing.T) {
	_, err := VerifyPassword("x", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHashFormat)

	_, err = VerifyPassword("x", "$bcrypt$v=19$m=1,t=1,p=1$aa$bb")
	assert.ErrorIs(t, err, ErrInvalidHashFormat)
}
