// Package vaultformat encodes and decodes the container format v1 header:
// an 8-byte magic, a little-endian version and header length, followed by a
// block of type-length-value fields carrying the KDF parameters, the
// wrapped data encryption key, and the nonces used by the AEAD layer.
//
// This package only deals in bytes; it performs no I/O and knows nothing
// about passwords or plaintext.
package vaultformat

import (
	"encoding/binary"
	"fmt"

	"github.com/joojf/passworder/internal/vaultcrypto"
	"github.com/joojf/passworder/internal/vaulterr"
)

// Magic is the 8-byte sentinel at the start of every vault container file.
var Magic = [8]byte{'P', 'W', 'D', 'E', 'R', 'V', 'L', 'T'}

const (
	// VersionV1 is the only supported container format version.
	VersionV1 = uint16(1)
	// FixedHeaderLen is the length of magic + version + header_len.
	FixedHeaderLen = 8 + 2 + 4

	// KdfSaltLen is the fixed length of the Argon2id salt.
	KdfSaltLen = 16
	// WrappedDEKCiphertextLen is the length of the wrapped DEK ciphertext:
	// DEKLen plaintext bytes plus the Poly1305 tag.
	WrappedDEKCiphertextLen = vaultcrypto.DEKLen + 16
)

const (
	tlvArgon2Params  uint16 = 0x0001
	tlvKDFSalt       uint16 = 0x0002
	tlvKDFAlg        uint16 = 0x0003
	tlvAEADAlg       uint16 = 0x0010
	tlvHKDFAlg       uint16 = 0x0020
	tlvWrappedDEK    uint16 = 0x0100
	tlvPayloadNonce  uint16 = 0x0200
)

var (
	kdfAlgArgon2id          = []byte("argon2id")
	aeadAlgXChaCha20Poly1305 = []byte("xchacha20poly1305")
	hkdfAlgSHA256           = []byte("hkdf-sha256")
)

// FixedHeader is the parsed prefix of a container file, before the TLV block.
type FixedHeader struct {
	Version   uint16
	HeaderLen uint32
}

// ParseFixedHeader validates and parses the fixed 14-byte prefix of a vault
// container.
func ParseFixedHeader(data []byte) (FixedHeader, error) {
	if len(data) < FixedHeaderLen {
		return FixedHeader{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "vault file too small")
	}
	if string(data[0:8]) != string(Magic[:]) {
		return FixedHeader{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "invalid magic")
	}
	version := binary.LittleEndian.Uint16(data[8:10])
	if version != VersionV1 {
		return FixedHeader{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "unsupported vault version %d", version)
	}
	headerLen := binary.LittleEndian.Uint32(data[10:14])
	if int(headerLen) < FixedHeaderLen || int(headerLen) > len(data) {
		return FixedHeader{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "invalid header length")
	}
	return FixedHeader{Version: version, HeaderLen: headerLen}, nil
}

// Header is the fully decoded container header (v1).
type Header struct {
	KdfParams    vaultcrypto.KdfParams
	KdfSalt      []byte // 16 bytes
	WrapNonce    []byte // 24 bytes
	WrappedDEK   []byte // ciphertext, DEKLen+16 bytes
	PayloadNonce []byte // 24 bytes
}

// EncodeHeader serializes h into the fixed header plus TLV block.
func EncodeHeader(h Header) []byte {
	var tlvs []byte

	params := make([]byte, 0, 16)
	params = binary.LittleEndian.AppendUint32(params, h.KdfParams.MemoryKiB)
	params = binary.LittleEndian.AppendUint32(params, h.KdfParams.Iterations)
	params = append(params, h.KdfParams.Parallelism, 0, 0, 0)
	params = binary.LittleEndian.AppendUint32(params, uint32(vaultcrypto.KDFOutLen))
	tlvs = pushTLV(tlvs, tlvArgon2Params, params)

	tlvs = pushTLV(tlvs, tlvKDFSalt, h.KdfSalt)
	tlvs = pushTLV(tlvs, tlvKDFAlg, kdfAlgArgon2id)
	tlvs = pushTLV(tlvs, tlvAEADAlg, aeadAlgXChaCha20Poly1305)
	tlvs = pushTLV(tlvs, tlvHKDFAlg, hkdfAlgSHA256)

	wrapped := make([]byte, 0, vaultcrypto.NonceLen+4+len(h.WrappedDEK))
	wrapped = append(wrapped, h.WrapNonce...)
	wrapped = binary.LittleEndian.AppendUint32(wrapped, uint32(len(h.WrappedDEK)))
	wrapped = append(wrapped, h.WrappedDEK...)
	tlvs = pushTLV(tlvs, tlvWrappedDEK, wrapped)

	tlvs = pushTLV(tlvs, tlvPayloadNonce, h.PayloadNonce)

	headerLen := uint32(FixedHeaderLen + len(tlvs))

	out := make([]byte, 0, headerLen)
	out = append(out, Magic[:]...)
	out = binary.LittleEndian.AppendUint16(out, VersionV1)
	out = binary.LittleEndian.AppendUint32(out, headerLen)
	out = append(out, tlvs...)
	return out
}

func pushTLV(buf []byte, typ uint16, value []byte) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, typ)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(value)))
	buf = append(buf, value...)
	return buf
}

// DecodeHeader parses the fixed header and TLV block from data. Unknown TLV
// types are tolerated (skipped) for forward compatibility. Every required
// field must appear exactly once; a missing or duplicated required field, or
// a field with an unexpected length, is an error.
func DecodeHeader(data []byte) (Header, error) {
	fixed, err := ParseFixedHeader(data)
	if err != nil {
		return Header{}, err
	}

	block := data[FixedHeaderLen:fixed.HeaderLen]

	var (
		haveParams, haveSalt, haveKDFAlg, haveAEADAlg, haveHKDFAlg, haveWrapped, havePayloadNonce bool
		h                                                                                         Header
	)

	for len(block) > 0 {
		if len(block) < 6 {
			return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "truncated TLV entry")
		}
		typ := binary.LittleEndian.Uint16(block[0:2])
		length := binary.LittleEndian.Uint32(block[2:6])
		block = block[6:]
		if uint64(length) > uint64(len(block)) {
			return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "truncated TLV value")
		}
		value := block[:length]
		block = block[length:]

		switch typ {
		case tlvArgon2Params:
			if haveParams {
				return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "duplicate argon2 params field")
			}
			if len(value) != 16 {
				return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "invalid argon2 params field length")
			}
			h.KdfParams = vaultcrypto.KdfParams{
				MemoryKiB:   binary.LittleEndian.Uint32(value[0:4]),
				Iterations:  binary.LittleEndian.Uint32(value[4:8]),
				Parallelism: value[8],
			}
			kdfOutLen := binary.LittleEndian.Uint32(value[12:16])
			if int(kdfOutLen) != vaultcrypto.KDFOutLen {
				return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "unsupported kdf output length %d", kdfOutLen)
			}
			haveParams = true
		case tlvKDFSalt:
			if haveSalt {
				return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "duplicate kdf salt field")
			}
			if len(value) != KdfSaltLen {
				return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "invalid kdf salt length")
			}
			h.KdfSalt = append([]byte(nil), value...)
			haveSalt = true
		case tlvKDFAlg:
			if haveKDFAlg {
				return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "duplicate kdf alg field")
			}
			if string(value) != string(kdfAlgArgon2id) {
				return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "unsupported kdf algorithm %q", value)
			}
			haveKDFAlg = true
		case tlvAEADAlg:
			if haveAEADAlg {
				return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "duplicate aead alg field")
			}
			if string(value) != string(aeadAlgXChaCha20Poly1305) {
				return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "unsupported aead algorithm %q", value)
			}
			haveAEADAlg = true
		case tlvHKDFAlg:
			if haveHKDFAlg {
				return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "duplicate hkdf alg field")
			}
			if string(value) != string(hkdfAlgSHA256) {
				return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "unsupported hkdf algorithm %q", value)
			}
			haveHKDFAlg = true
		case tlvWrappedDEK:
			if haveWrapped {
				return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "duplicate wrapped dek field")
			}
			if len(value) < vaultcrypto.NonceLen+4 {
				return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "invalid wrapped dek field")
			}
			nonce := value[:vaultcrypto.NonceLen]
			dekLen := binary.LittleEndian.Uint32(value[vaultcrypto.NonceLen : vaultcrypto.NonceLen+4])
			dekCT := value[vaultcrypto.NonceLen+4:]
			if uint64(dekLen) != uint64(len(dekCT)) {
				return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "invalid wrapped dek length")
			}
			h.WrapNonce = append([]byte(nil), nonce...)
			h.WrappedDEK = append([]byte(nil), dekCT...)
			haveWrapped = true
		case tlvPayloadNonce:
			if havePayloadNonce {
				return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "duplicate payload nonce field")
			}
			if len(value) != vaultcrypto.NonceLen {
				return Header{}, vaulterr.Errorf(vaulterr.KindSoftware, "vaultformat", "invalid payload nonce length")
			}
			h.PayloadNonce = append([]byte(nil), value...)
			havePayloadNonce = true
		default:
			// Unknown TLV type: tolerated for forward compatibility, skip.
		}
	}

	missing := func(name string, ok bool) error {
		if ok {
			return nil
		}
		return fmt.Errorf("missing required field %q", name)
	}
	for _, m := range []struct {
		name string
		ok   bool
	}{
		{"argon2_params", haveParams},
		{"kdf_salt", haveSalt},
		{"kdf_alg", haveKDFAlg},
		{"aead_alg", haveAEADAlg},
		{"hkdf_alg", haveHKDFAlg},
		{"wrapped_dek", haveWrapped},
		{"payload_nonce", havePayloadNonce},
	} {
		if err := missing(m.name, m.ok); err != nil {
			return Header{}, vaulterr.New(vaulterr.KindSoftware, "vaultformat", err)
		}
	}

	return h, nil
}

// PlaceholderWrappedDEKLen returns the length used for the zero-filled
// wrapped_dek field when building the AAD placeholder header: the same
// length the real wrapped DEK ciphertext will have, so the header_len does
// not change once the real ciphertext is substituted in.
func PlaceholderWrappedDEKLen() int {
	return WrappedDEKCiphertextLen
}
