package services

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(seed byte) string {
	key := make([]byte, 32)
	for i := range key {
		key[i] = seed
	}
	return base64.StdEncoding.EncodeToString(key)
}

func TestMaskResidentID(t *testing.T) {
	assert.Equal(t, "***-**-1234", MaskResidentID("900101-1231234"))
	assert.Equal(t, "***-**-4567", MaskResidentID("8812024564567"))
	assert.Equal(t, "***-**-****", MaskResidentID("12"))
	assert.Equal(t, "***-**-****", MaskResidentID("no digits"))
}

func TestKeyringRoundTrip(t *testing.T) {
	kr, err := NewKeyring([]string{testKey(1)})
	require.NoError(t, err)
	require.True(t, kr.HasKeys())

	token, err := kr.Encrypt("900101-1234567")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "enc:"))

	plain, err := kr.Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, "900101-1234567", plain)

	// Nonce makes every token distinct.
	again, err := kr.Encrypt("900101-1234567")
	require.NoError(t, err)
	assert.NotEqual(t, token, again)
}

func TestKeyringRotation(t *testing.T) {
	old, err := NewKeyring([]string{testKey(1)})
	require.NoError(t, err)
	token, err := old.Encrypt("850505-2345678")
	require.NoError(t, err)

	// The new keyring carries the fresh key first and the old key behind it.
	rotated, err := NewKeyring([]string{testKey(2), testKey(1)})
	require.NoError(t, err)
	plain, err := rotated.Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, "850505-2345678", plain)

	// Dropping the old key makes the token unreadable.
	fresh, err := NewKeyring([]string{testKey(2)})
	require.NoError(t, err)
	_, err = fresh.Decrypt(token)
	require.Error(t, err)
}

func TestKeyringNoKeysMasks(t *testing.T) {
	kr := &Keyring{}
	stored, err := kr.Encrypt("900101-1234567")
	require.NoError(t, err)
	assert.Equal(t, "***-**-4567", stored)
}

func TestMaskStored(t *testing.T) {
	kr, err := NewKeyring([]string{testKey(7)})
	require.NoError(t, err)

	token, err := kr.Encrypt("770707-7654321")
	require.NoError(t, err)
	assert.Equal(t, "***-**-4321", kr.MaskStored(token))

	// Already-masked legacy values are stable.
	assert.Equal(t, "***-**-4321", kr.MaskStored("***-**-4321"))
	assert.Equal(t, "", kr.MaskStored(""))

	// Undecryptable tokens degrade to a full mask, never an error leak.
	other, err := NewKeyring([]string{testKey(8)})
	require.NoError(t, err)
	assert.Equal(t, "***-**-****", other.MaskStored(token))
}

func TestNewKeyringRejectsBadKeys(t *testing.T) {
	_, err := NewKeyring([]string{"not-base64!!"})
	require.Error(t, err)

	short := base64.StdEncoding.EncodeToString([]byte("short"))
	_, err = NewKeyring([]string{short})
	require.Error(t, err)
}
