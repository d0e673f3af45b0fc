package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := &Account{Username: "meme_lord", Password: "hunter2-but-longer"}
	require.NoError(t, manager.Store(account))
	assert.False(t, account.LastModified.IsZero(), "Store stamps LastModified")

	retrieved, err := manager.Retrieve("meme_lord")
	require.NoError(t, err)
	assert.Equal(t, "hunter2-but-longer", retrieved.Password)

	accounts, err := manager.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	require.NoError(t, manager.Delete("meme_lord"))
	_, err = manager.Retrieve("meme_lord")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.Equal(t, 0, mockStore.Count())
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	assert.Error(t, manager.Store(&Account{Password: "x"}))
	assert.Error(t, manager.Store(&Account{Username: "u"}))
	assert.Error(t, manager.Store(nil))
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	fallback := NewMockStore()

	manager := NewManagerWithStores(broken, fallback)
	require.NoError(t, manager.Store(&Account{Username: "u", Password: "p"}))

	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, fallback.Count())
}

func TestManagerResolve(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()
	require.NoError(t, older.Store(&Account{Username: "old", Password: "p", LastModified: time.Unix(100, 0)}))
	require.NoError(t, newer.Store(&Account{Username: "new", Password: "p", LastModified: time.Unix(200, 0)}))

	manager := NewManagerWithStores(older, newer)

	account, err := manager.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "new", account.Username)

	account, err = manager.Resolve("old")
	require.NoError(t, err)
	assert.Equal(t, "old", account.Username)

	empty := NewManagerWithStores(NewMockStore())
	_, err = empty.Resolve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerDeleteMissing(t *testing.T) {
	manager := NewManagerWithStores(NewMockStore(), &EnvironmentStore{lookup: func(string) string { return "" }})
	err := manager.Delete("ghost")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{Username: "user", Password: "a-very-secret-password"}
	sanitized := SanitizeAccount(account)

	assert.Equal(t, "user", sanitized.Username)
	assert.NotEqual(t, account.Password, sanitized.Password)
	assert.Equal(t, "********", SanitizeAccount(&Account{Password: "short"}).Password)
	assert.Nil(t, SanitizeAccount(nil))
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")
	store := NewEncryptedFileStoreWithPassphrase(path, "test-passphrase")

	account := &Account{Username: "meme_lord", Password: "plaintext-password"}
	require.NoError(t, store.Store(account))
	require.NoError(t, store.Store(&Account{Username: "second", Password: "pw"}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(content, []byte("plaintext-password")), "vault must not hold plaintext")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened := NewEncryptedFileStoreWithPassphrase(path, "test-passphrase")
	retrieved, err := reopened.Retrieve("meme_lord")
	require.NoError(t, err)
	assert.Equal(t, "plaintext-password", retrieved.Password)
	assert.True(t, reopened.Exists("second"))

	list, err := reopened.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	wrong := NewEncryptedFileStoreWithPassphrase(path, "wrong")
	_, err = wrong.Retrieve("meme_lord")
	assert.ErrorContains(t, err, "failed to decrypt vault")

	require.NoError(t, store.Delete("meme_lord"))
	require.NoError(t, store.Delete("second"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "vault removed with the last account")

	assert.ErrorIs(t, store.Delete("second"), ErrCredentialsNotFound)
}

func TestEncryptedFileStorePassphraseFile(t *testing.T) {
	t.Setenv(PassphraseEnv, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Account{Username: "u", Password: "p"}))

	_, err = os.Stat(filepath.Join(dir, ".passphrase"))
	require.NoError(t, err)

	again, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	assert.True(t, again.Exists("u"))
}

func TestEnvironmentStore(t *testing.T) {
	env := map[string]string{}
	store := &EnvironmentStore{lookup: func(k string) string { return env[k] }}

	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	env["USERNAME"] = "legacy"
	env["PASSWORD"] = "legacy-pass"
	account, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "legacy", account.Username)

	env["GAGSYNC_USERNAME"] = "prefixed"
	account, err = store.Retrieve("prefixed")
	require.NoError(t, err)
	assert.Equal(t, "legacy-pass", account.Password)

	assert.False(t, store.Exists("someone-else"))
	assert.ErrorIs(t, store.Store(account), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("prefixed"), ErrStoreUnavailable)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, store.Store(&Account{Username: "a", Password: "pa"}))
	require.NoError(t, store.Store(&Account{Username: "b", Password: "pb"}))
	require.NoError(t, store.Store(&Account{Username: "a", Password: "pa2"}))

	list, err := store.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	account, err := store.Retrieve("a")
	require.NoError(t, err)
	assert.Equal(t, "pa2", account.Password)

	require.NoError(t, store.Delete("a"))
	assert.False(t, store.Exists("a"))
	assert.ErrorIs(t, store.Delete("a"), ErrCredentialsNotFound)

	list, err = store.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].Username)
}
