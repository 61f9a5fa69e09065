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

func TestManagerSaveAndLookup(t *testing.T) {
	store := NewMemoryStore()
	manager := NewManagerWith(store)

	require.NoError(t, manager.Save(" abc123 ", "s3cr3t-value"))
	assert.Equal(t, 1, store.Len())

	secret, err := manager.Lookup("abc123")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t-value", secret.Value)
	assert.Equal(t, "memory", secret.Source)
	assert.False(t, secret.Saved.IsZero())

	value, err := manager.Secret("abc123")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t-value", value)

	_, err = manager.Secret("unknown")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestManagerSaveValidation(t *testing.T) {
	manager := NewManagerWith(NewMemoryStore())

	assert.Error(t, manager.Save("", "secret"))
	assert.Error(t, manager.Save("id", ""))
}

func TestManagerSaveSkipsFailingBackend(t *testing.T) {
	locked := NewMemoryStore()
	locked.PutErr = errors.New("keyring locked")
	fallback := NewMemoryStore()
	manager := NewManagerWith(NewEnvironmentStore(), locked, fallback)

	require.NoError(t, manager.Save("id", "secret"))
	assert.Equal(t, 0, locked.Len())
	assert.Equal(t, 1, fallback.Len())
}

func TestManagerSaveAllBackendsFail(t *testing.T) {
	full := NewMemoryStore()
	full.PutErr = errors.New("disk full")

	err := NewManagerWith(full).Save("id", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	err = NewManagerWith(NewEnvironmentStore()).Save("id", "secret")
	assert.EqualError(t, err, "no writable secret backend")
}

func TestManagerSecretsNewestWins(t *testing.T) {
	older := NewMemoryStore()
	newer := NewMemoryStore()
	now := time.Now()
	require.NoError(t, older.Put(Secret{ClientID: "a", Value: "old", Saved: now.Add(-time.Hour)}))
	require.NoError(t, newer.Put(Secret{ClientID: "a", Value: "new", Saved: now}))
	require.NoError(t, newer.Put(Secret{ClientID: "b", Value: "b", Saved: now}))

	secrets := NewManagerWith(older, newer).Secrets()
	require.Len(t, secrets, 2)
	assert.Equal(t, "a", secrets[0].ClientID)
	assert.Equal(t, "new", secrets[0].Value)
	assert.Equal(t, "b", secrets[1].ClientID)
}

func TestManagerForget(t *testing.T) {
	first := NewMemoryStore()
	second := NewMemoryStore()
	manager := NewManagerWith(first, second, NewEnvironmentStore())
	require.NoError(t, first.Put(Secret{ClientID: "id", Value: "x"}))
	require.NoError(t, second.Put(Secret{ClientID: "id", Value: "y"}))

	require.NoError(t, manager.Forget("id"))
	assert.Equal(t, 0, first.Len())
	assert.Equal(t, 0, second.Len())

	assert.ErrorIs(t, manager.Forget("id"), ErrSecretNotFound)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	_, err = store.Get("id")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	require.NoError(t, store.Put(Secret{ClientID: "id", Value: "from-keychain"}))
	secret, err := store.Get("id")
	require.NoError(t, err)
	assert.Equal(t, "from-keychain", secret.Value)

	require.NoError(t, store.Remove("id"))
	assert.ErrorIs(t, store.Remove("id"), ErrSecretNotFound)

	_, isLister := interface{}(store).(Lister)
	assert.False(t, isLister)
}

func TestKeyringStoreUnavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("no dbus session"))
	t.Cleanup(keyring.MockInit)

	_, err := NewKeyringStore()
	assert.ErrorContains(t, err, "keyring not available")
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Setenv(EnvClientSecret, "")
	_, err := store.Get("id")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	t.Setenv(EnvClientSecret, "env-secret")
	t.Setenv(EnvClientID, "")
	secret, err := store.Get("id")
	require.NoError(t, err)
	assert.Equal(t, "id", secret.ClientID)
	assert.Equal(t, "env-secret", secret.Value)

	secrets, err := store.Secrets()
	require.NoError(t, err)
	assert.Empty(t, secrets)

	t.Setenv(EnvClientID, "other")
	_, err = store.Get("id")
	assert.ErrorIs(t, err, ErrSecretNotFound, "secret of another app must not be returned")

	secrets, err = store.Secrets()
	require.NoError(t, err)
	require.Len(t, secrets, 1)
	assert.Equal(t, "other", secrets[0].ClientID)

	assert.ErrorIs(t, store.Put(Secret{ClientID: "x", Value: "y"}), ErrReadOnly)
	assert.ErrorIs(t, store.Remove("x"), ErrReadOnly)
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv(EnvPassphrase, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "secrets.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, passphraseFile))
	assert.NoFileExists(t, path)

	_, err = store.Get("id")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	require.NoError(t, store.Put(Secret{ClientID: "id", Value: "plain-secret-value"}))
	require.NoError(t, store.Put(Secret{ClientID: "id2", Value: "another"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "plain-secret-value")

	// a second store over the same file reuses the saved passphrase
	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	secret, err := reopened.Get("id")
	require.NoError(t, err)
	assert.Equal(t, "plain-secret-value", secret.Value)

	secrets, err := reopened.Secrets()
	require.NoError(t, err)
	require.Len(t, secrets, 2)
	assert.Equal(t, "id", secrets[0].ClientID)

	require.NoError(t, reopened.Remove("id"))
	assert.ErrorIs(t, reopened.Remove("id"), ErrSecretNotFound)
	require.NoError(t, reopened.Remove("id2"))
	assert.NoFileExists(t, path)
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secrets.enc")

	t.Setenv(EnvPassphrase, "first")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(Secret{ClientID: "id", Value: "secret"}))

	t.Setenv(EnvPassphrase, "second")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Get("id")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSecretNotFound)
	assert.Error(t, other.Put(Secret{ClientID: "id2", Value: "x"}), "a file sealed under another passphrase is not overwritten")
}

func TestMaskString(t *testing.T) {
	assert.Equal(t, "", MaskString(""))
	assert.Equal(t, "********", MaskString("short"))
	assert.Equal(t, "abcd...mnop", MaskString("abcdefghijklmnop"))
}

func TestShowAppSetupGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowAppSetupGuide(&buf)
	assert.Contains(t, buf.String(), "https://www.reddit.com/prefs/apps")
	assert.Contains(t, buf.String(), "credentials.client_id")
}
