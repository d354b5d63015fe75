package vault_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joojf/passworder/internal/item"
	"github.com/joojf/passworder/internal/vault"
)

func newVaultPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "vault.pwder")
}

func TestInitThenStatus(t *testing.T) {
	path := newVaultPath(t)

	status, version, err := vault.StatusOf(path)
	require.NoError(t, err)
	assert.Equal(t, vault.StatusMissing, status)
	assert.Nil(t, version)

	require.NoError(t, vault.Init(path, []byte("pw")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw), 14)
	assert.Equal(t, "PWDERVLT", string(raw[0:8]))
	assert.Equal(t, byte(1), raw[8])
	assert.Equal(t, byte(0), raw[9])

	status, version, err = vault.StatusOf(path)
	require.NoError(t, err)
	assert.Equal(t, vault.StatusLocked, status)
	require.NotNil(t, version)
	assert.Equal(t, uint16(1), *version)
}

func TestInitRejectsExistingVault(t *testing.T) {
	path := newVaultPath(t)
	require.NoError(t, vault.Init(path, []byte("pw")))
	err := vault.Init(path, []byte("pw"))
	assert.Error(t, err)
}

func TestCRUDRoundTrip(t *testing.T) {
	path := newVaultPath(t)
	pw := []byte("pw")
	require.NoError(t, vault.Init(path, pw))

	id, err := vault.Add(path, pw, vault.AddInput{
		Type:     item.TypeLogin,
		Name:     "github",
		Username: "octocat",
		Secret:   "s3cr3t",
		Tags:     []string{"work"},
	})
	require.NoError(t, err)

	items, err := vault.List(path, pw)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, "github", items[0].Name)

	got, err := vault.Get(path, pw, id)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", got.Secret)

	newName := "github.com"
	require.NoError(t, vault.Edit(path, pw, vault.EditInput{ID: id, Name: &newName}))

	got, err = vault.Get(path, pw, id)
	require.NoError(t, err)
	assert.Equal(t, "github.com", got.Name)

	require.NoError(t, vault.Remove(path, pw, id))

	items, err = vault.List(path, pw)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSearch(t *testing.T) {
	path := newVaultPath(t)
	pw := []byte("pw")
	require.NoError(t, vault.Init(path, pw))

	_, err := vault.Add(path, pw, vault.AddInput{Type: item.TypeLogin, Name: "github", Path: "dev", Secret: "x"})
	require.NoError(t, err)
	_, err = vault.Add(path, pw, vault.AddInput{Type: item.TypeLogin, Name: "gitlab", Path: "dev", Secret: "y"})
	require.NoError(t, err)

	results, err := vault.Search(path, pw, "git")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = vault.Search(path, pw, "hub")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "github", results[0].Name)

	results, err = vault.Search(path, pw, "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = vault.Search(path, pw, "dev")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = vault.Search(path, pw, "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGetMissingItemFails(t *testing.T) {
	path := newVaultPath(t)
	pw := []byte("pw")
	require.NoError(t, vault.Init(path, pw))

	_, err := vault.Get(path, pw, item.Item{}.ID)
	assert.Error(t, err)
}

func TestWrongPasswordFailsAuth(t *testing.T) {
	path := newVaultPath(t)
	require.NoError(t, vault.Init(path, []byte("correct horse")))

	_, err := vault.List(path, []byte("wrong password"))
	assert.Error(t, err)
}

func TestTamperedHeaderFailsAuth(t *testing.T) {
	path := newVaultPath(t)
	pw := []byte("pw")
	require.NoError(t, vault.Init(path, pw))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[20] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err = vault.List(path, pw)
	assert.Error(t, err)
}

func TestEditKeepStateOnlyUpdatesTimestamp(t *testing.T) {
	path := newVaultPath(t)
	pw := []byte("pw")
	require.NoError(t, vault.Init(path, pw))

	id, err := vault.Add(path, pw, vault.AddInput{Type: item.TypeLogin, Name: "svc", Secret: "x"})
	require.NoError(t, err)

	before, err := vault.Get(path, pw, id)
	require.NoError(t, err)

	require.NoError(t, vault.Edit(path, pw, vault.EditInput{ID: id}))

	after, err := vault.Get(path, pw, id)
	require.NoError(t, err)
	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.Secret, after.Secret)
	assert.GreaterOrEqual(t, after.UpdatedAt, before.CreatedAt)
}

func TestEditClearTakesPrecedenceOverSet(t *testing.T) {
	path := newVaultPath(t)
	pw := []byte("pw")
	require.NoError(t, vault.Init(path, pw))

	id, err := vault.Add(path, pw, vault.AddInput{Type: item.TypeLogin, Name: "svc", Notes: "old notes", Secret: "x"})
	require.NoError(t, err)

	newNotes := "new notes"
	require.NoError(t, vault.Edit(path, pw, vault.EditInput{ID: id, Notes: &newNotes, ClearNotes: true}))

	got, err := vault.Get(path, pw, id)
	require.NoError(t, err)
	assert.Empty(t, got.Notes)
}

func TestConcurrentExclusiveWritersSerialize(t *testing.T) {
	path := newVaultPath(t)
	pw := []byte("pw")
	require.NoError(t, vault.Init(path, pw))

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = vault.Add(path, pw, vault.AddInput{
				Type:   item.TypeLogin,
				Name:   "concurrent",
				Secret: "x",
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	items, err := vault.List(path, pw)
	require.NoError(t, err)
	assert.Len(t, items, n)
}
