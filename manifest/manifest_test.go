package manifest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hupe1980/taxgo/blobstore"
	"github.com/hupe1980/taxgo/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManifest() *Manifest {
	m := New()
	m.TaxdumpDate = "2023-03-01"
	m.Databases = []DatabaseInfo{
		{Name: "nt", Snapshot: "2023-03-14-01-05-02", Volumes: 97},
	}
	m.Artifacts = []ArtifactInfo{
		{Name: "taxa.trie", Kind: KindTrie, Entity: "taxa", Size: 1 << 20, CRC32C: 0xDEADBEEF, Format: 1},
		{Name: "taxa.records", Kind: KindRecords, Entity: "taxa", Size: 28 << 10, CRC32C: 0xCAFEBABE, Format: 1},
		{Name: "names.sci.trie", Kind: KindTrie, Entity: "names", Namespace: "sci", Size: 2 << 20, CRC32C: 7, Format: 1},
		{Name: "acc.nt.trie", Kind: KindTrie, Entity: "accessions", Database: "nt", Size: 4 << 20, CRC32C: 9, Format: 1},
	}

	return m
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	ms := blobstore.NewMemoryStore()
	store := NewStore(ms)

	// 1. Save a manifest (increments ID)
	m := testManifest()
	err := store.Save(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m.ID)

	// 2. Load it back
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, loaded.Version)
	assert.Equal(t, uint64(1), loaded.ID)
	assert.Equal(t, "2023-03-01", loaded.TaxdumpDate)
	assert.Equal(t, m.Databases, loaded.Databases)
	assert.Equal(t, m.Artifacts, loaded.Artifacts)

	// 3. CURRENT points at the versioned file
	names, err := ms.List(ctx, ManifestFileName)
	require.NoError(t, err)
	assert.Equal(t, []string{"MANIFEST-000001.json"}, names)

	// 4. Save again
	err = store.Save(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), m.ID)

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), loaded.ID)
}

func TestManifestVersioning(t *testing.T) {
	ctx := context.Background()
	ms := blobstore.NewMemoryStore()
	store := NewStore(ms)

	// 1. Save a manifest
	err := store.Save(ctx, testManifest())
	require.NoError(t, err)

	// 2. Rewrite it with a future format version
	loaded, err := store.Load(ctx)
	require.NoError(t, err)

	loaded.Version = 999
	data, err := json.Marshal(loaded)
	require.NoError(t, err)

	err = ms.Put(ctx, "MANIFEST-000001.json", data)
	require.NoError(t, err)

	// 3. Load should refuse it
	_, err = store.Load(ctx)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompatibleVersion)

	// 4. ListVersions skips it
	manifests, err := store.ListVersions(ctx)
	require.NoError(t, err)
	assert.Empty(t, manifests)
}

func TestStore_LoadMissing(t *testing.T) {
	ctx := context.Background()
	store := NewStore(blobstore.NewMemoryStore())

	// No CURRENT pointer yet
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	// A specific version that was never written
	_, err = store.LoadVersion(ctx, 7)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_LoadVersion(t *testing.T) {
	ctx := context.Background()
	store := NewStore(blobstore.NewMemoryStore())

	m := New()
	for i, date := range []string{"2023-01-01", "2023-02-01", "2023-03-01"} {
		m.TaxdumpDate = date
		require.NoError(t, store.Save(ctx, m))
		require.Equal(t, uint64(i+1), m.ID)
	}

	// Load an older version directly
	old, err := store.LoadVersion(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), old.ID)
	assert.Equal(t, "2023-02-01", old.TaxdumpDate)

	// Latest still wins through CURRENT
	latest, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), latest.ID)
}

func TestStore_ListVersions(t *testing.T) {
	ctx := context.Background()
	ms := blobstore.NewMemoryStore()
	store := NewStore(ms)

	m := New()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, m))
	}

	// Garbage that should be skipped, not fail the listing
	require.NoError(t, ms.Put(ctx, "MANIFEST-000099.json", []byte("{not json")))
	require.NoError(t, ms.Put(ctx, "MANIFEST-000100.txt", []byte("wrong extension")))

	manifests, err := store.ListVersions(ctx)
	require.NoError(t, err)
	require.Len(t, manifests, 3)

	for i, got := range manifests {
		assert.Equal(t, uint64(i+1), got.ID)
	}
}

func TestStore_DeleteVersion(t *testing.T) {
	ctx := context.Background()
	store := NewStore(blobstore.NewMemoryStore())

	m := New()
	require.NoError(t, store.Save(ctx, m))
	require.NoError(t, store.Save(ctx, m))

	err := store.DeleteVersion(ctx, 1)
	require.NoError(t, err)

	_, err = store.LoadVersion(ctx, 1)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	// CURRENT still resolves to the surviving version
	latest, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), latest.ID)
}

func TestManifestLookups(t *testing.T) {
	m := testManifest()

	a, ok := m.Artifact("taxa.records")
	require.True(t, ok)
	assert.Equal(t, KindRecords, a.Kind)

	_, ok = m.Artifact("missing.trie")
	assert.False(t, ok)

	a, ok = m.Find("names", "sci")
	require.True(t, ok)
	assert.Equal(t, "names.sci.trie", a.Name)

	_, ok = m.Find("names", "common")
	assert.False(t, ok)

	// FindKind separates the two taxa artifacts that share entity and namespace
	a, ok = m.FindKind(KindTrie, "taxa", "", "")
	require.True(t, ok)
	assert.Equal(t, "taxa.trie", a.Name)

	a, ok = m.FindKind(KindRecords, "taxa", "", "")
	require.True(t, ok)
	assert.Equal(t, "taxa.records", a.Name)

	a, ok = m.FindKind(KindTrie, "accessions", "", "nt")
	require.True(t, ok)
	assert.Equal(t, "acc.nt.trie", a.Name)

	_, ok = m.FindKind(KindRecords, "accessions", "", "nt")
	assert.False(t, ok)

	d, ok := m.Database("nt")
	require.True(t, ok)
	assert.Equal(t, 97, d.Volumes)

	_, ok = m.Database("nr")
	assert.False(t, ok)
}

func TestStore_SaveAtomicity(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fsys := fs.NewFaultyFS(nil)
	ls := blobstore.NewLocalStore(dir, func(o *blobstore.LocalStoreOptions) {
		o.FS = fsys
	})
	store := NewStore(ls)

	require.NoError(t, store.Save(ctx, testManifest()))

	t.Run("ManifestWrite", func(t *testing.T) {
		// Fail the fsync of the second manifest blob
		fsys.AddRule("MANIFEST-000002", fs.Fault{FailAfterBytes: -1, FailOnSync: true})

		m := testManifest()
		m.ID = 1 // Save bumps to 2
		err := store.Save(ctx, m)
		assert.ErrorIs(t, err, fs.ErrInjected)

		// The previous catalog is untouched
		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), loaded.ID)
	})

	t.Run("CurrentPointer", func(t *testing.T) {
		// Fail the pointer update after the manifest blob landed
		fsys.AddRule(CurrentFileName, fs.Fault{FailAfterBytes: -1, FailOnSync: true})

		m := testManifest()
		m.ID = 2 // Save bumps to 3, clear of the rule above
		err := store.Save(ctx, m)
		assert.ErrorIs(t, err, fs.ErrInjected)

		// Readers keep seeing the old catalog
		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), loaded.ID)
	})
}
