// Package vaultcrypto provides the cryptographic primitives the vault
// container builds on: Argon2id key derivation from the master password,
// HKDF-SHA256 subkey separation, DEK generation, and XChaCha20-Poly1305
// AEAD wrap/unwrap and encrypt/decrypt operations.
//
// Security notes:
//
//   - Never reuse a (key, nonce) pair with XChaCha20-Poly1305.
//   - Callers pass associated data (the full header bytes) to bind
//     ciphertexts to the header's parameters; any AAD change must fail
//     decryption.
//   - Plaintext and key material returned by this package is sensitive;
//     callers should call Zeroize on it once done.
package vaultcrypto

import (
	"crypto/hkdf"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/joojf/passworder/internal/vaulterr"
)

// ErrAuthenticationFailed is returned by UnwrapDEK and DecryptPayload when
// AEAD authentication fails: tampered ciphertext, wrong master password, or
// an AAD mismatch. It aliases vaulterr.ErrAuthFailed so callers can compare
// with errors.Is against either name.
var ErrAuthenticationFailed = vaulterr.ErrAuthFailed

const (
	// KDFOutLen is the output size in bytes of Argon2id in the v1 format.
	KDFOutLen = 32
	// DEKLen is the size in bytes of the data encryption key.
	DEKLen = 32
	// NonceLen is the size in bytes of an XChaCha20-Poly1305 nonce.
	NonceLen = chacha20poly1305.NonceSizeX
)

// hkdfInfoKEK is the HKDF info label used to derive the key-encryption-key,
// providing domain separation from any other key derived from the same
// kdf_out in the future.
const hkdfInfoKEK = "passworder/vault/v1/kek"

// KdfParams are the Argon2id tuning parameters persisted in the vault
// header. They are policy, not truth: the header of a given vault file is
// the source of record for the parameters used to encrypt it.
type KdfParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// RecommendedParams returns the default Argon2id parameters for an
// interactive local CLI tool.
func RecommendedParams() KdfParams {
	return KdfParams{MemoryKiB: 256 * 1024, Iterations: 3, Parallelism: 1}
}

// TestParams returns deliberately weak parameters for use only when
// PASSWORDER_VAULT_TEST_KDF is set, so test suites don't pay the real KDF
// cost on every run.
func TestParams() KdfParams {
	return KdfParams{MemoryKiB: 32 * 1024, Iterations: 1, Parallelism: 1}
}

// RandomBytes returns n cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("vaultcrypto: read random bytes: %w", err)
	}
	return buf, nil
}

// GenerateDEK returns a fresh, randomly generated data encryption key. It is
// never derived from the password.
func GenerateDEK() ([]byte, error) {
	return RandomBytes(DEKLen)
}

// DeriveKDFOut derives kdf_out (32 bytes) from the master password using
// Argon2id. Callers are expected to persist params and salt in the vault
// header.
func DeriveKDFOut(masterPassword, salt []byte, params KdfParams) []byte {
	return argon2.IDKey(masterPassword, salt, params.Iterations, params.MemoryKiB, params.Parallelism, KDFOutLen)
}

// DeriveKEK derives the vault key-encryption-key from kdf_out using
// HKDF-SHA256. The KEK wraps/unwraps the randomly generated DEK.
func DeriveKEK(kdfOut []byte) ([]byte, error) {
	kek, err := hkdf.Key(sha256.New, kdfOut, nil, hkdfInfoKEK, 32)
	if err != nil {
		return nil, fmt.Errorf("vaultcrypto: derive KEK: %w", err)
	}
	return kek, nil
}

// WrapDEK wraps (encrypts) the DEK with the KEK using XChaCha20-Poly1305.
// wrapNonce must be unique per KEK. aad should be the full header bytes (with
// wrapped_dek zeroed), binding the wrapped DEK to the header's parameters.
func WrapDEK(kek, wrapNonce, aad, dek []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return nil, fmt.Errorf("vaultcrypto: new AEAD: %w", err)
	}
	return aead.Seal(nil, wrapNonce, dek, aad), nil
}

// UnwrapDEK unwraps (decrypts) the DEK with the KEK using
// XChaCha20-Poly1305. It returns an error if authentication fails: tamper
// detected, wrong password, or AAD mismatch.
func UnwrapDEK(kek, wrapNonce, aad, wrappedDEK []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return nil, fmt.Errorf("vaultcrypto: new AEAD: %w", err)
	}
	dek, err := aead.Open(nil, wrapNonce, wrappedDEK, aad)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return dek, nil
}

// EncryptPayload encrypts the vault payload using the DEK with
// XChaCha20-Poly1305. payloadNonce must be unique per DEK.
func EncryptPayload(dek, payloadNonce, aad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(dek)
	if err != nil {
		return nil, fmt.Errorf("vaultcrypto: new AEAD: %w", err)
	}
	return aead.Seal(nil, payloadNonce, plaintext, aad), nil
}

// DecryptPayload decrypts the vault payload using the DEK with
// XChaCha20-Poly1305.
func DecryptPayload(dek, payloadNonce, aad, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(dek)
	if err != nil {
		return nil, fmt.Errorf("vaultcrypto: new AEAD: %w", err)
	}
	plaintext, err := aead.Open(nil, payloadNonce, ciphertext, aad)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// Zeroize overwrites buf with zero bytes. Call it on key material and
// decrypted plaintext once the caller is done with it.
func Zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
