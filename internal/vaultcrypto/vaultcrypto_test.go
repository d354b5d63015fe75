package vaultcrypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joojf/passworder/internal/vaultcrypto"
)

func TestWrapUnwrapDEKRoundtrip(t *testing.T) {
	salt, err := vaultcrypto.RandomBytes(16)
	require.NoError(t, err)

	kdfOut := vaultcrypto.DeriveKDFOut([]byte("correct horse battery staple"), salt, vaultcrypto.TestParams())
	kek, err := vaultcrypto.DeriveKEK(kdfOut)
	require.NoError(t, err)

	dek, err := vaultcrypto.GenerateDEK()
	require.NoError(t, err)

	nonce, err := vaultcrypto.RandomBytes(vaultcrypto.NonceLen)
	require.NoError(t, err)
	aad := []byte("header-bytes")

	ct, err := vaultcrypto.WrapDEK(kek, nonce, aad, dek)
	require.NoError(t, err)

	unwrapped, err := vaultcrypto.UnwrapDEK(kek, nonce, aad, ct)
	require.NoError(t, err)
	assert.Equal(t, dek, unwrapped)
}

func TestUnwrapDEKFailsOnTamper(t *testing.T) {
	salt, err := vaultcrypto.RandomBytes(16)
	require.NoError(t, err)
	kdfOut := vaultcrypto.DeriveKDFOut([]byte("pw"), salt, vaultcrypto.TestParams())
	kek, err := vaultcrypto.DeriveKEK(kdfOut)
	require.NoError(t, err)

	dek := make([]byte, vaultcrypto.DEKLen)
	for i := range dek {
		dek[i] = 42
	}
	nonce, err := vaultcrypto.RandomBytes(vaultcrypto.NonceLen)
	require.NoError(t, err)
	aad := []byte("header")

	ct, err := vaultcrypto.WrapDEK(kek, nonce, aad, dek)
	require.NoError(t, err)
	ct[0] ^= 0x01

	_, err = vaultcrypto.UnwrapDEK(kek, nonce, aad, ct)
	require.ErrorIs(t, err, vaultcrypto.ErrAuthenticationFailed)
}

func TestDecryptPayloadFailsOnAADMismatch(t *testing.T) {
	dek, err := vaultcrypto.GenerateDEK()
	require.NoError(t, err)
	nonce, err := vaultcrypto.RandomBytes(vaultcrypto.NonceLen)
	require.NoError(t, err)

	plaintext := []byte(`{"k":"v"}`)
	ct, err := vaultcrypto.EncryptPayload(dek, nonce, []byte("header-v1"), plaintext)
	require.NoError(t, err)

	_, err = vaultcrypto.DecryptPayload(dek, nonce, []byte("header-v2"), ct)
	require.ErrorIs(t, err, vaultcrypto.ErrAuthenticationFailed)
}

func TestEncryptDecryptPayloadRoundtrip(t *testing.T) {
	dek, err := vaultcrypto.GenerateDEK()
	require.NoError(t, err)
	nonce, err := vaultcrypto.RandomBytes(vaultcrypto.NonceLen)
	require.NoError(t, err)
	aad := []byte("header")
	plaintext := []byte("payload")

	ct, err := vaultcrypto.EncryptPayload(dek, nonce, aad, plaintext)
	require.NoError(t, err)
	pt, err := vaultcrypto.DecryptPayload(dek, nonce, aad, ct)
	require.NoError(t, err)
	assert.Equal(t, plaintext, pt)
}

func TestZeroize(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	vaultcrypto.Zeroize(buf)
	for _, b := range buf {
		assert.Zero(t, b)
	}
}

func TestDeriveKDFOutIsDeterministicForSameSalt(t *testing.T) {
	salt, err := vaultcrypto.RandomBytes(16)
	require.NoError(t, err)
	params := vaultcrypto.TestParams()
	out1 := vaultcrypto.DeriveKDFOut([]byte("hunter2"), salt, params)
	out2 := vaultcrypto.DeriveKDFOut([]byte("hunter2"), salt, params)
	assert.Equal(t, out1, out2)

	out3 := vaultcrypto.DeriveKDFOut([]byte("different"), salt, params)
	assert.NotEqual(t, out1, out3)
}
