package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "k", "first"))
	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "first", value)

	require.NoError(t, store.Set(ctx, "k", "second"))
	value, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "second", value)

	require.NoError(t, store.Remove(ctx, "k"))
	_, err = store.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Remove(ctx, "k"), "removing an absent key is a no-op")
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "session.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	exerciseStore(t, store)

	t.Run("values survive a reopen", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, "token", "abc"))

		reopened, err := NewFileStore(path)
		require.NoError(t, err)
		value, err := reopened.Get(ctx, "token")
		require.NoError(t, err)
		require.Equal(t, "abc", value)
	})
}

func TestKeysFor(t *testing.T) {
	t.Parallel()

	a := KeysFor("client-a")
	b := KeysFor("client-b")

	require.Equal(t, a, KeysFor("client-a"))
	require.NotEqual(t, a.Token(), b.Token())
	require.NotEqual(t, a.Token(), a.SidebarOpen())
	require.NotEqual(t, a.Token(), a.Notice())
	require.False(t, strings.Contains(a.Token(), "client-a"))
	require.True(t, strings.HasPrefix(a.Token(), "token:"))
}

func TestTokenStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("set then get returns the exact token", func(t *testing.T) {
		tokens := NewTokenStore(NewMemoryStore(), "browser-1")

		_, ok, err := tokens.Get(ctx)
		require.NoError(t, err)
		require.False(t, ok)

		raw := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhQGIuY29tIn0.sig"
		require.NoError(t, tokens.Set(ctx, raw))

		got, ok, err := tokens.Get(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, raw, got)

		require.NoError(t, tokens.Remove(ctx))
		_, ok, err = tokens.Get(ctx)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("browsers do not share tokens", func(t *testing.T) {
		shared := NewMemoryStore()
		require.NoError(t, NewTokenStore(shared, "one").Set(ctx, "t1"))

		_, ok, err := NewTokenStore(shared, "two").Get(ctx)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("backend failures surface as errors", func(t *testing.T) {
		store := new(MockStore)
		store.On("Get", mock.Anything, KeysFor("c").Token()).Return("", errors.New("connection refused"))

		_, ok, err := NewTokenStore(store, "c").Get(ctx)
		require.Error(t, err)
		require.False(t, ok)
		store.AssertExpectations(t)
	})
}
