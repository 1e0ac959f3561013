package blobstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taxgo/internal/fs"
)

// storeUnderTest runs the shared BlobStore contract against an
// implementation.
func storeUnderTest(t *testing.T, newStore func(t *testing.T) BlobStore) {
	ctx := context.Background()

	t.Run("put and open", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "snap/nt.00.nsq", []byte("0123456789")))

		blob, err := store.Open(ctx, "snap/nt.00.nsq")
		require.NoError(t, err)
		defer blob.Close()

		assert.Equal(t, int64(10), blob.Size())

		p := make([]byte, 4)
		n, err := blob.ReadAt(ctx, p, 3)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, "3456", string(p))
	})

	t.Run("open missing", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Open(ctx, "absent")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("read range", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "blob", []byte("0123456789")))

		blob, err := store.Open(ctx, "blob")
		require.NoError(t, err)
		defer blob.Close()

		rc, err := blob.ReadRange(ctx, 2, 5)
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, "23456", string(data))
	})

	t.Run("read range truncates at end", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "blob", []byte("0123456789")))

		blob, err := store.Open(ctx, "blob")
		require.NoError(t, err)
		defer blob.Close()

		rc, err := blob.ReadRange(ctx, 8, 100)
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "89", string(data))
	})

	t.Run("read range past extent", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "blob", []byte("0123456789")))

		blob, err := store.Open(ctx, "blob")
		require.NoError(t, err)
		defer blob.Close()

		_, err = blob.ReadRange(ctx, 10, 1)
		require.ErrorIs(t, err, ErrInvalidRange)
		_, err = blob.ReadRange(ctx, -1, 1)
		require.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("create then open", func(t *testing.T) {
		store := newStore(t)
		w, err := store.Create(ctx, "created")
		require.NoError(t, err)
		_, err = w.Write([]byte("hello "))
		require.NoError(t, err)
		_, err = w.Write([]byte("world"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		blob, err := store.Open(ctx, "created")
		require.NoError(t, err)
		defer blob.Close()
		assert.Equal(t, int64(11), blob.Size())
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "doomed", []byte("x")))
		require.NoError(t, store.Delete(ctx, "doomed"))
		_, err := store.Open(ctx, "doomed")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list by prefix", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "snap/nt.00.nsq", []byte("a")))
		require.NoError(t, store.Put(ctx, "snap/nt.01.nsq", []byte("b")))
		require.NoError(t, store.Put(ctx, "snap/MANIFEST-000001.json", []byte("c")))
		require.NoError(t, store.Put(ctx, "other/nt.00.nsq", []byte("d")))

		names, err := store.List(ctx, "snap/nt.")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"snap/nt.00.nsq", "snap/nt.01.nsq"}, names)
	})
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, func(t *testing.T) BlobStore {
		return NewMemoryStore()
	})
}

func TestLocalStore(t *testing.T) {
	storeUnderTest(t, func(t *testing.T) BlobStore {
		return NewLocalStore(t.TempDir())
	})
}

func TestLocalStoreMappable(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	require.NoError(t, store.Put(ctx, "artifact", []byte("mapped bytes")))

	blob, err := store.Open(ctx, "artifact")
	require.NoError(t, err)
	defer blob.Close()

	mappable, ok := blob.(Mappable)
	require.True(t, ok)
	data, err := mappable.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "mapped bytes", string(data))
}

func TestLocalStoreAtomicWrite(t *testing.T) {
	ctx := context.Background()

	t.Run("sync failure leaves no blob", func(t *testing.T) {
		faulty := fs.NewFaultyFS(fs.Default)
		faulty.AddRule("halfdone", fs.Fault{FailAfterBytes: -1, FailOnSync: true})

		store := NewLocalStore(t.TempDir(), func(o *LocalStoreOptions) {
			o.FS = faulty
		})

		w, err := store.Create(ctx, "halfdone")
		require.NoError(t, err)
		_, err = w.Write([]byte("partial"))
		require.NoError(t, err)
		require.Error(t, w.Close())

		_, err = store.Open(ctx, "halfdone")
		require.ErrorIs(t, err, ErrNotFound)

		names, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("injected write error surfaces", func(t *testing.T) {
		faulty := fs.NewFaultyFS(fs.Default)
		faulty.AddRule("limited", fs.Fault{FailAfterBytes: 4})

		store := NewLocalStore(t.TempDir(), func(o *LocalStoreOptions) {
			o.FS = faulty
		})

		err := store.Put(ctx, "limited", []byte("more than four"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, fs.ErrInjected))
	})
}
