package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aquilass/tcnr01/storage"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.NoError(t, store.Set(ctx, "k", "v1"))
	val, err := store.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Equal(t, "v1", val)

	assert.NoError(t, store.Set(ctx, "k", "v2"))
	val, _ = store.Get(ctx, "k")
	assert.Equal(t, "v2", val)

	assert.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting a missing key is a no-op.
	assert.NoError(t, store.Delete(ctx, "k"))
}

func TestFileStorePersistsAcrossReloads(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := storage.NewFileStore(path)
	assert.NoError(t, err)
	assert.NoError(t, store.Set(ctx, "session", "abc"))

	reloaded, err := storage.NewFileStore(path)
	assert.NoError(t, err)
	val, err := reloaded.Get(ctx, "session")
	assert.NoError(t, err)
	assert.Equal(t, "abc", val)
}

func TestFileStoreCorruptDocumentStartsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	assert.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := storage.NewFileStore(path)
	assert.NoError(t, err)
	_, err = store.Get(ctx, "anything")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestWithPrefixIsolatesSessions(t *testing.T) {
	ctx := context.Background()
	base := storage.NewMemoryStore()

	a := storage.WithPrefix(base, "session-a")
	b := storage.WithPrefix(base, "session-b")

	assert.NoError(t, a.Set(ctx, "tokens", "pair-a"))
	assert.NoError(t, b.Set(ctx, "tokens", "pair-b"))

	valA, err := a.Get(ctx, "tokens")
	assert.NoError(t, err)
	assert.Equal(t, "pair-a", valA)

	valB, err := b.Get(ctx, "tokens")
	assert.NoError(t, err)
	assert.Equal(t, "pair-b", valB)

	assert.NoError(t, a.Delete(ctx, "tokens"))
	_, err = a.Get(ctx, "tokens")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// The other session's value survives.
	valB, err = b.Get(ctx, "tokens")
	assert.NoError(t, err)
	assert.Equal(t, "pair-b", valB)
}
