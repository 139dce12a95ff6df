package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutricontrol/nutricontrol/internal/models"
)

var testProfile = models.UserProfile{Name: "A", Email: "a@b.com", Role: "nutri"}

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	fileBackend, err := NewFileBackend(filepath.Join(t.TempDir(), "session"))
	require.NoError(t, err)

	boltBackend, err := OpenBoltBackend(filepath.Join(t.TempDir(), "session.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = boltBackend.Close() })

	return map[string]Backend{
		"file":   fileBackend,
		"bolt":   boltBackend,
		"memory": NewMemoryBackend(),
	}
}

func TestStore_SaveLoad(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := NewStore(backend)

			require.NoError(t, store.Save("header.payload.sig", testProfile))

			creds, ok := store.Load()
			require.True(t, ok)
			assert.Equal(t, "header.payload.sig", creds.Token)
			require.NotNil(t, creds.Profile)
			assert.Equal(t, testProfile, *creds.Profile)
		})
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := NewStore(backend)

			require.NoError(t, store.Save("first", testProfile))
			second := models.UserProfile{Name: "B", Email: "b@b.com", Role: "admin"}
			require.NoError(t, store.Save("second", second))

			creds, ok := store.Load()
			require.True(t, ok)
			assert.Equal(t, "second", creds.Token)
			assert.Equal(t, second, *creds.Profile)
		})
	}
}

func TestStore_SaveRejectsEmptyToken(t *testing.T) {
	store := NewStore(NewMemoryBackend())

	err := store.Save("  ", testProfile)
	assert.ErrorIs(t, err, ErrEmptyToken)

	_, ok := store.Load()
	assert.False(t, ok)
}

func TestStore_LoadEmpty(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok := NewStore(backend).Load()
			assert.False(t, ok)
		})
	}
}

func TestStore_LoadPurgesCorruptProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile string
	}{
		{name: "invalid json", profile: "{not json"},
		{name: "null", profile: "null"},
		{name: "undefined", profile: "undefined"},
		{name: "empty", profile: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := NewMemoryBackend()
			require.NoError(t, backend.Put(TokenKey, []byte("header.payload.sig")))
			require.NoError(t, backend.Put(UserKey, []byte(tt.profile)))

			creds, ok := NewStore(backend).Load()
			require.True(t, ok)
			assert.Nil(t, creds.Profile)

			_, err := backend.Get(UserKey)
			assert.ErrorIs(t, err, ErrNotFound, "corrupt profile should be purged")
		})
	}
}

func TestStore_Clear(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := NewStore(backend)
			require.NoError(t, store.Save("header.payload.sig", testProfile))

			require.NoError(t, store.Clear())
			_, ok := store.Load()
			assert.False(t, ok)

			// idempotent
			require.NoError(t, store.Clear())
			_, ok = store.Load()
			assert.False(t, ok)
		})
	}
}

func TestFileBackend_Permissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "session")
	backend, err := NewFileBackend(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())

	require.NoError(t, NewStore(backend).Save("header.payload.sig", testProfile))

	for _, key := range []string{TokenKey, UserKey} {
		info, err := os.Stat(filepath.Join(dir, key))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	// no temp files left behind
	_, err = os.Stat(filepath.Join(dir, TokenKey+".tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileBackend_RejectsPathKeys(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	err = backend.Put("../escape", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credential key")
}

func TestFingerprint(t *testing.T) {
	assert.Empty(t, Fingerprint(""))

	fp := Fingerprint("header.payload.sig")
	assert.Len(t, fp, 12)
	assert.Equal(t, fp, Fingerprint("header.payload.sig"))
	assert.NotEqual(t, fp, Fingerprint("other.payload.sig"))
	assert.NotContains(t, fp, "payload")
}
