package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAddAndGet(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	added, err := store.Add(ctx, Entry{
		Prompt:     "a cube",
		SourceKind: "inlineText",
		Source:     "solid cube\nendsolid cube",
		Triangles:  12,
		Scale:      0.9,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.False(t, added.CreatedAt.IsZero())

	got, err := store.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, added, got)
}

func TestAddRequiresSource(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Add(context.Background(), Entry{Prompt: "nothing"})
	require.Error(t, err)
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, src := range []string{"https://a.test/1.stl", "https://a.test/2.stl", "https://a.test/3.stl"} {
		_, err := store.Add(ctx, Entry{
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
			SourceKind: "url",
			Source:     src,
		})
		require.NoError(t, err)
	}

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "https://a.test/3.stl", all[0].Source)
	assert.Equal(t, "https://a.test/1.stl", all[2].Source)
	assert.Equal(t, 1.0, all[0].Scale)

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	e, err := store.Add(ctx, Entry{SourceKind: "url", Source: "https://a.test/x.stl"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, e.ID))

	_, err = store.Get(ctx, e.ID)
	require.ErrorIs(t, err, ErrNotFound)

	err = store.Delete(ctx, e.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	e, err := store.Add(ctx, Entry{SourceKind: "url", Source: "https://a.test/keep.stl"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://a.test/keep.stl", got.Source)
}
