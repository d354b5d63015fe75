package vaultformat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joojf/passworder/internal/vaultcrypto"
	"github.com/joojf/passworder/internal/vaultformat"
)

func sampleHeader(t *testing.T) vaultformat.Header {
	t.Helper()
	salt, err := vaultcrypto.RandomBytes(vaultformat.KdfSaltLen)
	require.NoError(t, err)
	wrapNonce, err := vaultcrypto.RandomBytes(vaultcrypto.NonceLen)
	require.NoError(t, err)
	payloadNonce, err := vaultcrypto.RandomBytes(vaultcrypto.NonceLen)
	require.NoError(t, err)
	wrappedDEK, err := vaultcrypto.RandomBytes(vaultformat.WrappedDEKCiphertextLen)
	require.NoError(t, err)

	return vaultformat.Header{
		KdfParams:    vaultcrypto.TestParams(),
		KdfSalt:      salt,
		WrapNonce:    wrapNonce,
		WrappedDEK:   wrappedDEK,
		PayloadNonce: payloadNonce,
	}
}

func TestEncodeDecodeHeaderRoundtrip(t *testing.T) {
	h := sampleHeader(t)
	encoded := vaultformat.EncodeHeader(h)

	fixed, err := vaultformat.ParseFixedHeader(encoded)
	require.NoError(t, err)
	assert.Equal(t, vaultformat.VersionV1, fixed.Version)
	assert.Equal(t, len(encoded), int(fixed.HeaderLen))

	decoded, err := vaultformat.DecodeHeader(encoded)
	require.NoError(t, err)
	assert.Equal(t, h.KdfParams, decoded.KdfParams)
	assert.Equal(t, h.KdfSalt, decoded.KdfSalt)
	assert.Equal(t, h.WrapNonce, decoded.WrapNonce)
	assert.Equal(t, h.WrappedDEK, decoded.WrappedDEK)
	assert.Equal(t, h.PayloadNonce, decoded.PayloadNonce)
}

func TestParseFixedHeaderRejectsBadMagic(t *testing.T) {
	h := sampleHeader(t)
	encoded := vaultformat.EncodeHeader(h)
	encoded[0] ^= 0xFF

	_, err := vaultformat.ParseFixedHeader(encoded)
	require.Error(t, err)
}

func TestParseFixedHeaderRejectsTooSmall(t *testing.T) {
	_, err := vaultformat.ParseFixedHeader([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestParseFixedHeaderRejectsUnsupportedVersion(t *testing.T) {
	h := sampleHeader(t)
	encoded := vaultformat.EncodeHeader(h)
	encoded[8] = 0x09
	encoded[9] = 0x00

	_, err := vaultformat.ParseFixedHeader(encoded)
	require.Error(t, err)
}

func TestDecodeHeaderToleratesUnknownTLVType(t *testing.T) {
	h := sampleHeader(t)
	encoded := vaultformat.EncodeHeader(h)

	// Append a well-formed but unknown TLV entry and fix up header_len.
	extra := []byte{0xEE, 0xEE, 0x03, 0x00, 0x00, 0x00, 'x', 'y', 'z'}
	patched := append([]byte(nil), encoded...)
	patched = append(patched, extra...)
	newLen := uint32(len(patched))
	patched[10] = byte(newLen)
	patched[11] = byte(newLen >> 8)
	patched[12] = byte(newLen >> 16)
	patched[13] = byte(newLen >> 24)

	decoded, err := vaultformat.DecodeHeader(patched)
	require.NoError(t, err)
	assert.Equal(t, h.KdfSalt, decoded.KdfSalt)
}

func TestDecodeHeaderRejectsEmptyPayloadNonce(t *testing.T) {
	h := sampleHeader(t)
	h.PayloadNonce = nil
	// Encoding with a nil payload nonce produces a zero-length TLV value for
	// that field, which still round-trips length-wise but fails the
	// required-length check on decode since PayloadNonce must be NonceLen.
	encoded := vaultformat.EncodeHeader(h)

	_, err := vaultformat.DecodeHeader(encoded)
	require.Error(t, err)
}

func TestParseFixedHeaderRejectsTruncatedData(t *testing.T) {
	h := sampleHeader(t)
	encoded := vaultformat.EncodeHeader(h)
	truncated := encoded[:len(encoded)-5]
	// header_len still claims the full original length, so ParseFixedHeader
	// rejects it outright.
	_, err := vaultformat.ParseFixedHeader(truncated)
	require.Error(t, err)
}
