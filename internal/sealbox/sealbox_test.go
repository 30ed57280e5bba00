package sealbox

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	box, err := New("server-secret")
	require.NoError(t, err)

	sealed, err := box.Seal("AIza-user-key")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "AIza")

	again, err := box.Seal("AIza-user-key")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "AIza-user-key", plain)
}

func TestOpen_Rejects(t *testing.T) {
	box, err := New("server-secret")
	require.NoError(t, err)
	other, err := New("another-secret")
	require.NoError(t, err)

	sealed, err := box.Seal("key")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrTampered)

	raw, _ := base64.StdEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0xff
	_, err = box.Open(base64.StdEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrTampered)

	_, err = box.Open("not base64 !!")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = box.Open(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptySecret)
}
