package crypto

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store, err := NewMemoryStore()
	require.NoError(t, err)

	_, _, err = store.Load("1")
	assert.ErrorIs(t, err, ErrNoWrappedKey)

	key := DeriveKey("pw", "1", testIterations)
	expiresAt := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(key, "1", expiresAt))

	loaded, exp, err := store.Load("1")
	require.NoError(t, err)
	assert.True(t, key.Equal(loaded))
	assert.True(t, expiresAt.Equal(exp))

	require.NoError(t, store.Clear())
	_, _, err = store.Load("1")
	assert.ErrorIs(t, err, ErrNoWrappedKey)
}

func TestMemoryStore_OtherSalt(t *testing.T) {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	require.NoError(t, store.Save(DeriveKey("pw", "1", testIterations), "1", time.Now().Add(time.Minute)))

	_, _, err = store.Load("2")
	assert.Error(t, err)

	_, _, err = store.Load("1")
	assert.ErrorIs(t, err, ErrNoWrappedKey, "copy is dropped after a failed unwrap")
}

func TestRuntimeStore_Lifecycle(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenRuntimeStore(dir, "")
	require.NoError(t, err)

	key := DeriveKey("pw", "1", testIterations)
	expiresAt := time.Now().Add(time.Minute)

	t.Run("Save_WritesPrivateFile", func(t *testing.T) {
		require.NoError(t, store.Save(key, "1", expiresAt))

		info, err := os.Stat(store.path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(sessionPermissions), info.Mode().Perm())

		data, err := os.ReadFile(store.path())
		require.NoError(t, err)
		assert.NotContains(t, string(data), store.Secret())
	})

	t.Run("Load_SameShell", func(t *testing.T) {
		same, err := OpenRuntimeStore(dir, store.Secret())
		require.NoError(t, err)

		loaded, exp, err := same.Load("1")
		require.NoError(t, err)
		assert.True(t, key.Equal(loaded))
		assert.True(t, expiresAt.Equal(exp))
	})

	t.Run("Load_NewShell", func(t *testing.T) {
		other, err := OpenRuntimeStore(dir, "")
		require.NoError(t, err)

		_, _, err = other.Load("1")
		assert.ErrorIs(t, err, ErrNoWrappedKey)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Clear())

		_, err := os.Stat(store.path())
		assert.True(t, os.IsNotExist(err))
		assert.NoError(t, store.Clear(), "clearing twice is fine")
	})
}

func TestRuntimeStore_LoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, s *RuntimeStore)
	}{
		{
			name: "CorruptJSON",
			setup: func(t *testing.T, s *RuntimeStore) {
				require.NoError(t, os.WriteFile(s.path(), []byte("{not json"), sessionPermissions))
			},
		},
		{
			name: "EditedExpiry",
			setup: func(t *testing.T, s *RuntimeStore) {
				require.NoError(t, s.Save(DeriveKey("pw", "1", testIterations), "1", time.Now().Add(time.Minute)))

				var w wrappedKey
				data, err := os.ReadFile(s.path())
				require.NoError(t, err)
				require.NoError(t, json.Unmarshal(data, &w))
				w.ExpiresAt = w.ExpiresAt.Add(24 * time.Hour)
				data, err = json.Marshal(w)
				require.NoError(t, err)
				require.NoError(t, os.WriteFile(s.path(), data, sessionPermissions))
			},
		},
		{
			name: "OtherSalt",
			setup: func(t *testing.T, s *RuntimeStore) {
				require.NoError(t, s.Save(DeriveKey("pw", "2", testIterations), "2", time.Now().Add(time.Minute)))
			},
		},
		{
			name: "TruncatedBlob",
			setup: func(t *testing.T, s *RuntimeStore) {
				data, err := json.Marshal(wrappedKey{ExpiresAt: time.Now(), Blob: []byte("xx")})
				require.NoError(t, err)
				require.NoError(t, os.WriteFile(s.path(), data, sessionPermissions))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := OpenRuntimeStore(t.TempDir(), "")
			require.NoError(t, err)
			tt.setup(t, s)

			_, _, err = s.Load("1")
			assert.Error(t, err)

			_, statErr := os.Stat(s.path())
			assert.True(t, os.IsNotExist(statErr), "broken session file must be removed")
		})
	}
}

func TestOpenRuntimeStore_BadSecret(t *testing.T) {
	_, err := OpenRuntimeStore(t.TempDir(), "not-a-secret")
	assert.Error(t, err)
}

func TestOpenRuntimeStore_SweepsExpired(t *testing.T) {
	dir := t.TempDir()
	key := DeriveKey("pw", "1", testIterations)

	live, err := OpenRuntimeStore(dir, "")
	require.NoError(t, err)
	require.NoError(t, live.Save(key, "1", time.Now().Add(time.Minute)))

	stale, err := OpenRuntimeStore(dir, "")
	require.NoError(t, err)
	require.NoError(t, stale.Save(key, "1", time.Now().Add(-time.Minute)))

	garbage := filepath.Join(dir, "session-0000000000000000.json")
	require.NoError(t, os.WriteFile(garbage, []byte("{not json"), sessionPermissions))
	unrelated := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), sessionPermissions))

	_, err = OpenRuntimeStore(dir, "")
	require.NoError(t, err)

	assert.FileExists(t, live.path())
	assert.NoFileExists(t, stale.path())
	assert.NoFileExists(t, garbage)
	assert.FileExists(t, unrelated)
}

func TestDefaultRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	assert.Equal(t, filepath.Join("/run/user/1000", "vaultkeeper"), DefaultRuntimeDir())

	t.Setenv("XDG_RUNTIME_DIR", "")
	assert.Empty(t, DefaultRuntimeDir(), "no shared temp dir fallback")
}
