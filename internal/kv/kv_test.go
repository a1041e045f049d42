package kv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFile(filepath.Join(dir, "files"))
	require.NoError(t, err)
	sqlite, err := NewSQLite(filepath.Join(dir, "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"file":   file,
		"sqlite": sqlite,
	}
}

func TestStoreContract(t *testing.T) {
	for name, s := range backends(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			t.Run("it reports missing keys as absent", func(t *testing.T) {
				v, ok, err := s.Get("missing")
				require.NoError(t, err)
				assert.False(t, ok)
				assert.Empty(t, v)
			})

			t.Run("it round-trips values and overwrites", func(t *testing.T) {
				require.NoError(t, s.Set("a", `{"x":1}`))
				require.NoError(t, s.Set("a", `{"x":2}`))
				v, ok, err := s.Get("a")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, `{"x":2}`, v)
			})

			t.Run("it stores keys containing separators", func(t *testing.T) {
				require.NoError(t, s.Set("termtodo:v1:tasks", "[]"))
				v, ok, err := s.Get("termtodo:v1:tasks")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, "[]", v)
			})

			t.Run("it lists keys in order", func(t *testing.T) {
				keys, err := s.Keys()
				require.NoError(t, err)
				assert.Equal(t, []string{"a", "termtodo:v1:tasks"}, keys)
			})

			t.Run("it removes keys and tolerates missing ones", func(t *testing.T) {
				require.NoError(t, s.Remove("a"))
				require.NoError(t, s.Remove("a"))
				_, ok, err := s.Get("a")
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("it clears everything", func(t *testing.T) {
				require.NoError(t, s.Set("b", "1"))
				require.NoError(t, s.Clear())
				keys, err := s.Keys()
				require.NoError(t, err)
				assert.Empty(t, keys)
			})
		})
	}
}

func TestNamespace(t *testing.T) {
	for name, s := range backends(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			t.Run("it prefixes keys and clears only its own", func(t *testing.T) {
				require.NoError(t, s.Set("other:key", "keep"))
				ns := Namespace(s, DefaultNamespace)
				require.NoError(t, ns.Set("tasks", "[]"))
				require.NoError(t, ns.Set("username", "ada"))

				raw, ok, err := s.Get("termtodo:v1:username")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, "ada", raw)

				keys, err := ns.Keys()
				require.NoError(t, err)
				assert.Equal(t, []string{"tasks", "username"}, keys)

				require.NoError(t, ns.Clear())
				keys, err = ns.Keys()
				require.NoError(t, err)
				assert.Empty(t, keys)

				v, ok, err := s.Get("other:key")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, "keep", v)
			})
		})
	}
}

func TestFileAtomicWrite(t *testing.T) {
	t.Run("it leaves no temp files behind", func(t *testing.T) {
		dir := t.TempDir()
		f, err := NewFile(dir)
		require.NoError(t, err)
		require.NoError(t, f.Set("k", "v"))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "k.kv", entries[0].Name())
	})
}

func TestSQLiteRecovery(t *testing.T) {
	t.Run("it recreates a corrupted database", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "store.db")
		require.NoError(t, os.WriteFile(path, []byte("this is not a sqlite database at all, not even close"), 0o644))

		s, err := NewSQLiteWithRecovery(path)
		require.NoError(t, err)
		defer s.Close()

		require.NoError(t, s.Set("k", "v"))
		v, ok, err := s.Get("k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", v)
	})
}

func TestOpen(t *testing.T) {
	t.Run("it opens each named backend", func(t *testing.T) {
		for _, b := range Backends {
			s, err := Open(b, t.TempDir())
			require.NoError(t, err, b)
			require.NoError(t, s.Close())
		}
	})

	t.Run("it rejects an unknown backend", func(t *testing.T) {
		_, err := Open("redis", t.TempDir())
		var unknown *UnknownBackendError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "redis", unknown.Name)
		assert.Contains(t, err.Error(), "file, memory, sqlite")
	})
}
