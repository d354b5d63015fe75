// Package vault orchestrates the container format, crypto primitives, and
// locked atomic I/O into the vault's lifecycle operations: status, init,
// add, get, list, search, edit, and remove. Every mutating operation
// rewrites the whole file with freshly sampled nonces and a freshly
// generated DEK; the KDF parameters and salt are carried forward from the
// existing file so the master password need not change.
package vault

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/joojf/passworder/internal/config"
	"github.com/joojf/passworder/internal/item"
	"github.com/joojf/passworder/internal/vaultcrypto"
	"github.com/joojf/passworder/internal/vaultformat"
	"github.com/joojf/passworder/internal/vaulterr"
	"github.com/joojf/passworder/internal/vaultio"
)

// Status is the on-disk lifecycle state of a vault file.
type Status int

const (
	StatusMissing Status = iota
	StatusLocked
)

func (s Status) String() string {
	switch s {
	case StatusMissing:
		return "missing"
	case StatusLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// Path resolves the vault file path the way internal/config does: an
// explicit override first, then PASSWORDER_VAULT, then the platform config
// directory.
func Path(override string) (string, error) {
	return config.VaultPath(override)
}

// StatusOf reports whether a vault file exists and, if so, its format
// version.
func StatusOf(vaultPath string) (Status, *uint16, error) {
	if _, err := os.Stat(vaultPath); err != nil {
		if os.IsNotExist(err) {
			return StatusMissing, nil, nil
		}
		return StatusMissing, nil, vaulterr.New(vaulterr.KindIO, "vault", err)
	}

	data, err := vaultio.ReadBytes(vaultPath)
	if err != nil {
		return StatusMissing, nil, err
	}
	fixed, err := vaultformat.ParseFixedHeader(data)
	if err != nil {
		return StatusMissing, nil, err
	}
	version := fixed.Version
	return StatusLocked, &version, nil
}

// Init creates a new, empty vault at vaultPath under masterPassword. It
// fails if a file already exists there.
func Init(vaultPath string, masterPassword []byte) error {
	if _, err := os.Stat(vaultPath); err == nil {
		return vaulterr.New(vaulterr.KindUsage, "vault", fmt.Errorf("%w at %s", vaulterr.ErrAlreadyExists, vaultPath))
	} else if !os.IsNotExist(err) {
		return vaulterr.New(vaulterr.KindIO, "vault", err)
	}

	kdfParams := config.InitKdfParams()
	kdfSalt, err := vaultcrypto.RandomBytes(vaultformat.KdfSaltLen)
	if err != nil {
		return vaulterr.New(vaulterr.KindSoftware, "vault", err)
	}

	vaultBytes, err := seal(masterPassword, kdfParams, kdfSalt, item.NewPayload())
	if err != nil {
		return err
	}
	return vaultio.WriteBytesAtomic(vaultPath, vaultBytes)
}

// Get returns the item with the given id.
func Get(vaultPath string, masterPassword []byte, id uuid.UUID) (item.Item, error) {
	_, payload, err := openForRead(vaultPath, masterPassword)
	if err != nil {
		return item.Item{}, err
	}
	for _, it := range payload.Items {
		if it.ID == id {
			return it, nil
		}
	}
	return item.Item{}, vaulterr.New(vaulterr.KindUsage, "vault", vaulterr.ErrItemNotFound)
}

// List returns every item in the vault, sorted.
func List(vaultPath string, masterPassword []byte) ([]item.Item, error) {
	_, payload, err := openForRead(vaultPath, masterPassword)
	if err != nil {
		return nil, err
	}
	items := append([]item.Item(nil), payload.Items...)
	item.Sort(items)
	return items, nil
}

// Search returns the items matching query, sorted.
func Search(vaultPath string, masterPassword []byte, query string) ([]item.Item, error) {
	_, payload, err := openForRead(vaultPath, masterPassword)
	if err != nil {
		return nil, err
	}
	return item.Search(payload.Items, query), nil
}

// AddInput is the set of fields supplied when adding a new item.
type AddInput struct {
	Type     item.Type
	Name     string
	Path     string
	Tags     []string
	Username string
	Secret   string
	URLs     []string
	Notes    string
}

// Add appends a new item to the vault and returns its freshly generated id.
func Add(vaultPath string, masterPassword []byte, in AddInput) (uuid.UUID, error) {
	header, payload, err := openForRead(vaultPath, masterPassword)
	if err != nil {
		return uuid.Nil, err
	}

	now := time.Now().Unix()
	newItem := item.Item{
		ID:        uuid.New(),
		Type:      in.Type,
		Name:      in.Name,
		Path:      in.Path,
		Tags:      item.NormalizeTags(in.Tags),
		Username:  in.Username,
		Secret:    in.Secret,
		URLs:      item.NormalizeURLs(in.URLs),
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	payload.Items = append(payload.Items, newItem)
	item.Sort(payload.Items)

	if err := reseal(vaultPath, masterPassword, header, payload); err != nil {
		return uuid.Nil, err
	}
	return newItem.ID, nil
}

// EditInput carries a tri-state (keep / set / clear) per mutable field.
// Clear takes precedence over set for the same field. Type, Name, and
// Secret have no clear state: they can only be kept or set.
type EditInput struct {
	ID uuid.UUID

	Type   *item.Type
	Name   *string
	Secret *string

	Path          *string
	ClearPath     bool
	Tags          *[]string
	ClearTags     bool
	Username      *string
	ClearUsername bool
	URLs          *[]string
	ClearURLs     bool
	Notes         *string
	ClearNotes    bool
}

// Edit mutates an existing item in place according to in's tri-state
// fields.
func Edit(vaultPath string, masterPassword []byte, in EditInput) error {
	header, payload, err := openForRead(vaultPath, masterPassword)
	if err != nil {
		return err
	}

	idx := indexOf(payload.Items, in.ID)
	if idx < 0 {
		return vaulterr.New(vaulterr.KindUsage, "vault", vaulterr.ErrItemNotFound)
	}

	it := payload.Items[idx]
	if in.Type != nil {
		it.Type = *in.Type
	}
	if in.Name != nil {
		it.Name = *in.Name
	}
	if in.Secret != nil {
		it.Secret = *in.Secret
	}

	switch {
	case in.ClearPath:
		it.Path = ""
	case in.Path != nil:
		it.Path = *in.Path
	}
	switch {
	case in.ClearTags:
		it.Tags = nil
	case in.Tags != nil:
		it.Tags = item.NormalizeTags(*in.Tags)
	}
	switch {
	case in.ClearUsername:
		it.Username = ""
	case in.Username != nil:
		it.Username = *in.Username
	}
	switch {
	case in.ClearURLs:
		it.URLs = nil
	case in.URLs != nil:
		it.URLs = item.NormalizeURLs(*in.URLs)
	}
	switch {
	case in.ClearNotes:
		it.Notes = ""
	case in.Notes != nil:
		it.Notes = *in.Notes
	}

	it.UpdatedAt = time.Now().Unix()
	payload.Items[idx] = it
	item.Sort(payload.Items)

	return reseal(vaultPath, masterPassword, header, payload)
}

// Remove deletes the item with the given id.
func Remove(vaultPath string, masterPassword []byte, id uuid.UUID) error {
	header, payload, err := openForRead(vaultPath, masterPassword)
	if err != nil {
		return err
	}

	idx := indexOf(payload.Items, id)
	if idx < 0 {
		return vaulterr.New(vaulterr.KindUsage, "vault", vaulterr.ErrItemNotFound)
	}
	payload.Items = append(payload.Items[:idx], payload.Items[idx+1:]...)

	return reseal(vaultPath, masterPassword, header, payload)
}

func indexOf(items []item.Item, id uuid.UUID) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// openForRead reads, authenticates, and decodes the vault at vaultPath,
// returning the decoded header (needed by mutators to preserve kdf_params
// and kdf_salt on reseal) and the decrypted payload.
func openForRead(vaultPath string, masterPassword []byte) (vaultformat.Header, item.Payload, error) {
	if _, err := os.Stat(vaultPath); err != nil {
		if os.IsNotExist(err) {
			return vaultformat.Header{}, item.Payload{}, vaulterr.New(vaulterr.KindUsage, "vault", vaulterr.ErrNotInitialized)
		}
		return vaultformat.Header{}, item.Payload{}, vaulterr.New(vaulterr.KindIO, "vault", err)
	}

	raw, err := vaultio.ReadBytes(vaultPath)
	if err != nil {
		return vaultformat.Header{}, item.Payload{}, err
	}

	fixed, err := vaultformat.ParseFixedHeader(raw)
	if err != nil {
		return vaultformat.Header{}, item.Payload{}, err
	}
	headerBytes := raw[:fixed.HeaderLen]
	ciphertext := raw[fixed.HeaderLen:]

	header, err := vaultformat.DecodeHeader(raw)
	if err != nil {
		return vaultformat.Header{}, item.Payload{}, err
	}

	kdfOut := vaultcrypto.DeriveKDFOut(masterPassword, header.KdfSalt, header.KdfParams)
	defer vaultcrypto.Zeroize(kdfOut)
	kek, err := vaultcrypto.DeriveKEK(kdfOut)
	if err != nil {
		return vaultformat.Header{}, item.Payload{}, vaulterr.New(vaulterr.KindSoftware, "vault", err)
	}
	defer vaultcrypto.Zeroize(kek)

	wrapAAD := placeholderHeaderBytes(header)
	dek, err := vaultcrypto.UnwrapDEK(kek, header.WrapNonce, wrapAAD, header.WrappedDEK)
	if err != nil {
		return vaultformat.Header{}, item.Payload{}, vaulterr.New(vaulterr.KindUsage, "vault", vaulterr.ErrAuthFailed)
	}
	defer vaultcrypto.Zeroize(dek)

	plaintext, err := vaultcrypto.DecryptPayload(dek, header.PayloadNonce, headerBytes, ciphertext)
	if err != nil {
		return vaultformat.Header{}, item.Payload{}, vaulterr.New(vaulterr.KindUsage, "vault", vaulterr.ErrAuthFailed)
	}
	defer vaultcrypto.Zeroize(plaintext)

	var payload item.Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return vaultformat.Header{}, item.Payload{}, vaulterr.New(vaulterr.KindSoftware, "vault", err)
	}
	if payload.SchemaVersion != item.CurrentSchemaVersion {
		return vaultformat.Header{}, item.Payload{}, vaulterr.New(vaulterr.KindSoftware, "vault", vaulterr.ErrUnsupportedSchema)
	}

	return header, payload, nil
}

// reseal re-encrypts payload under masterPassword, preserving the existing
// header's kdf_params and kdf_salt but sampling fresh nonces and a fresh
// DEK, and writes the result atomically.
func reseal(vaultPath string, masterPassword []byte, existing vaultformat.Header, payload item.Payload) error {
	vaultBytes, err := seal(masterPassword, existing.KdfParams, existing.KdfSalt, payload)
	if err != nil {
		return err
	}
	return vaultio.WriteBytesAtomic(vaultPath, vaultBytes)
}

// seal builds a full container file: derives the KEK from masterPassword
// and kdfSalt, generates a fresh DEK and nonces, wraps the DEK (AAD is the
// placeholder header with wrapped_dek zeroed, since the real wrapped_dek
// ciphertext does not exist yet), then encrypts the JSON payload (AAD is
// the final header's exact bytes, now that the real wrapped_dek is known).
func seal(masterPassword []byte, kdfParams vaultcrypto.KdfParams, kdfSalt []byte, payload item.Payload) ([]byte, error) {
	wrapNonce, err := vaultcrypto.RandomBytes(vaultcrypto.NonceLen)
	if err != nil {
		return nil, vaulterr.New(vaulterr.KindSoftware, "vault", err)
	}
	payloadNonce, err := vaultcrypto.RandomBytes(vaultcrypto.NonceLen)
	if err != nil {
		return nil, vaulterr.New(vaulterr.KindSoftware, "vault", err)
	}

	kdfOut := vaultcrypto.DeriveKDFOut(masterPassword, kdfSalt, kdfParams)
	defer vaultcrypto.Zeroize(kdfOut)
	kek, err := vaultcrypto.DeriveKEK(kdfOut)
	if err != nil {
		return nil, vaulterr.New(vaulterr.KindSoftware, "vault", err)
	}
	defer vaultcrypto.Zeroize(kek)

	dek, err := vaultcrypto.GenerateDEK()
	if err != nil {
		return nil, vaulterr.New(vaulterr.KindSoftware, "vault", err)
	}
	defer vaultcrypto.Zeroize(dek)

	placeholder := vaultformat.Header{
		KdfParams:    kdfParams,
		KdfSalt:      kdfSalt,
		WrapNonce:    wrapNonce,
		WrappedDEK:   make([]byte, vaultformat.PlaceholderWrappedDEKLen()),
		PayloadNonce: payloadNonce,
	}
	wrapAAD := vaultformat.EncodeHeader(placeholder)

	wrappedDEK, err := vaultcrypto.WrapDEK(kek, wrapNonce, wrapAAD, dek)
	if err != nil {
		return nil, vaulterr.New(vaulterr.KindSoftware, "vault", err)
	}

	finalHeader := placeholder
	finalHeader.WrappedDEK = wrappedDEK
	headerBytes := vaultformat.EncodeHeader(finalHeader)

	payloadPlaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, vaulterr.New(vaulterr.KindSoftware, "vault", err)
	}

	ciphertext, err := vaultcrypto.EncryptPayload(dek, payloadNonce, headerBytes, payloadPlaintext)
	if err != nil {
		return nil, vaulterr.New(vaulterr.KindSoftware, "vault", err)
	}

	out := make([]byte, 0, len(headerBytes)+len(ciphertext))
	out = append(out, headerBytes...)
	out = append(out, ciphertext...)
	return out, nil
}

// placeholderHeaderBytes rebuilds the AAD used at wrap time from a decoded
// header: the same header with wrapped_dek replaced by zeroes of the
// observed ciphertext length.
func placeholderHeaderBytes(h vaultformat.Header) []byte {
	placeholder := h
	placeholder.WrappedDEK = make([]byte, len(h.WrappedDEK))
	return vaultformat.EncodeHeader(placeholder)
}
