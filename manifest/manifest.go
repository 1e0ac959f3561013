package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/taxgo/blobstore"
)

const (
	// ManifestFileName is the filename prefix of versioned manifest files.
	ManifestFileName = "MANIFEST"
	// CurrentFileName is the pointer file naming the active manifest.
	CurrentFileName = "CURRENT"
	// CurrentVersion is the version of the manifest format.
	// Version 1: JSON catalog of artifact files
	CurrentVersion = 1
)

// ArtifactKind names the container format of an artifact file.
type ArtifactKind string

const (
	// KindTrie marks a key trie artifact.
	KindTrie ArtifactKind = "trie"
	// KindRecords marks a fixed-width record store artifact.
	KindRecords ArtifactKind = "records"
	// KindPool marks a newline-delimited string pool artifact.
	KindPool ArtifactKind = "pool"
)

// Artifact entities and namespaces. Builders stamp these on the artifacts
// they write; loaders resolve artifacts through them instead of file names.
const (
	EntityTaxa       = "taxa"
	EntityNames      = "names"
	EntityHosts      = "hosts"
	EntityRefSeq     = "refseq"
	EntityDistances  = "distances"
	EntityAccessions = "accessions"

	NamespaceScientific = "sci"
	NamespaceCommon     = "common"
)

// ArtifactInfo describes a single artifact file in the catalog.
//
// Loaders resolve artifacts by (Entity, Namespace, Database) and skip
// entries they do not understand, so a catalog can carry artifacts for
// newer readers without breaking older ones.
type ArtifactInfo struct {
	// Name is the file name relative to the catalog root.
	Name string `json:"name"`
	// Kind is the container format of the file.
	Kind ArtifactKind `json:"kind"`
	// Entity names what the artifact indexes, e.g. "taxa", "names",
	// "accessions", "distances", "hosts", "refseq".
	Entity string `json:"entity"`
	// Namespace distinguishes key spaces within an entity, e.g. the
	// "sci" and "common" name tries.
	Namespace string `json:"namespace,omitempty"`
	// Database is the sequence database an accession artifact belongs to.
	Database string `json:"database,omitempty"`
	// Size is the file size in bytes.
	Size int64 `json:"size"`
	// CRC32C is the checksum of the whole file.
	CRC32C uint32 `json:"crc32c"`
	// Format is the container format version the file was written with.
	Format int `json:"format"`
}

// DatabaseInfo describes a sequence database covered by the catalog.
type DatabaseInfo struct {
	// Name is the database name, e.g. "nt".
	Name string `json:"name"`
	// Snapshot is the dated snapshot the volumes were ingested from,
	// e.g. "2023-03-14-01-05-02".
	Snapshot string `json:"snapshot"`
	// Volumes is the number of volumes in the snapshot.
	Volumes int `json:"volumes"`
}

// Manifest is the catalog of one published artifact set.
type Manifest struct {
	Version   int       `json:"version"`
	ID        uint64    `json:"id"`
	CreatedAt time.Time `json:"created_at"` // Timestamp of publication
	// TaxdumpDate is the release date of the NCBI taxdump the taxonomy
	// artifacts were built from, in YYYY-MM-DD form.
	TaxdumpDate string         `json:"taxdump_date,omitempty"`
	Databases   []DatabaseInfo `json:"databases,omitempty"`
	Artifacts   []ArtifactInfo `json:"artifacts"`
}

// New creates a new empty manifest.
func New() *Manifest {
	return &Manifest{
		Version:   CurrentVersion,
		ID:        0,
		CreatedAt: time.Now(),
	}
}

// Artifact returns the catalog entry with the given file name.
func (m *Manifest) Artifact(name string) (ArtifactInfo, bool) {
	for _, a := range m.Artifacts {
		if a.Name == name {
			return a, true
		}
	}

	return ArtifactInfo{}, false
}

// Find returns the first artifact matching entity and namespace.
// Namespace "" matches artifacts without a namespace.
func (m *Manifest) Find(entity, namespace string) (ArtifactInfo, bool) {
	for _, a := range m.Artifacts {
		if a.Entity == entity && a.Namespace == namespace {
			return a, true
		}
	}

	return ArtifactInfo{}, false
}

// FindKind returns the first artifact matching kind, entity, namespace and
// database. It disambiguates entities that publish more than one artifact
// kind, like the taxa trie and record store.
func (m *Manifest) FindKind(kind ArtifactKind, entity, namespace, database string) (ArtifactInfo, bool) {
	for _, a := range m.Artifacts {
		if a.Kind == kind && a.Entity == entity && a.Namespace == namespace && a.Database == database {
			return a, true
		}
	}

	return ArtifactInfo{}, false
}

// Database returns the catalog entry for the given database name.
func (m *Manifest) Database(name string) (DatabaseInfo, bool) {
	for _, d := range m.Databases {
		if d.Name == name {
			return d, true
		}
	}

	return DatabaseInfo{}, false
}

// Store manages manifest files and atomic updates on a blob store.
type Store struct {
	store blobstore.BlobStore
	mu    sync.Mutex
}

// NewStore creates a new manifest store.
func NewStore(store blobstore.BlobStore) *Store {
	return &Store{store: store}
}

// Load loads the current manifest.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	return s.LoadVersion(ctx, 0)
}

// LoadVersion loads a specific version ID. 0 means latest.
func (s *Store) LoadVersion(ctx context.Context, versionID uint64) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var manifestFilename string
	if versionID == 0 {
		b, err := s.store.Open(ctx, CurrentFileName)
		if err != nil {
			// A missing CURRENT pointer means no manifest has ever been
			// published. Map the store's "not found" to ErrNotFound so
			// callers can distinguish an empty catalog from a broken one.
			if os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
				return nil, ErrNotFound
			}
			return nil, err
		}

		content, err := readAll(ctx, b)
		b.Close()
		if err != nil {
			return nil, err
		}

		manifestFilename = strings.TrimSpace(string(content))
	} else {
		manifestFilename = versionFilename(versionID)
	}

	b, err := s.store.Open(ctx, manifestFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest %s: %w", manifestFilename, err)
	}
	defer b.Close()

	content, err := readAll(ctx, b)
	if err != nil {
		return nil, err
	}

	return decode(manifestFilename, content)
}

// ListVersions returns all available manifest versions in ascending ID order.
// Note: This method intentionally skips corrupted or unreadable manifests
// to provide a best-effort listing of available versions.
func (s *Store) ListVersions(ctx context.Context) ([]*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.store.List(ctx, ManifestFileName)
	if err != nil {
		return nil, err
	}

	var manifests []*Manifest

	for _, f := range files {
		if filepath.Ext(f) != ".json" {
			continue
		}

		b, err := s.store.Open(ctx, f)
		if err != nil {
			continue // Skip unreadable files
		}

		content, err := readAll(ctx, b)
		b.Close()
		if err != nil {
			continue
		}

		m, err := decode(f, content)
		if err != nil {
			continue // Skip corrupted manifests
		}

		manifests = append(manifests, m)
	}

	return manifests, nil
}

// Save atomically publishes a new manifest version.
func (s *Store) Save(ctx context.Context, m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.Version = CurrentVersion
	m.ID++
	m.CreatedAt = time.Now()

	filename := versionFilename(m.ID)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write of the manifest blob
	if err := s.store.Put(ctx, filename, data); err != nil {
		return err
	}

	// Atomic update of CURRENT
	// S3: Strong consistency on overwrites
	// Local: Atomic rename inside Put
	return s.store.Put(ctx, CurrentFileName, []byte(filename))
}

// DeleteVersion deletes the manifest file for the given version.
func (s *Store) DeleteVersion(ctx context.Context, versionID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Delete(ctx, versionFilename(versionID))
}

func versionFilename(versionID uint64) string {
	return fmt.Sprintf("%s-%06d.json", ManifestFileName, versionID)
}

func decode(filename string, content []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := json.Unmarshal(content, m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", filename, err)
	}

	if m.Version > CurrentVersion {
		return nil, fmt.Errorf("manifest %s has format version %d: %w", filename, m.Version, ErrIncompatibleVersion)
	}

	return m, nil
}

func readAll(ctx context.Context, b blobstore.Blob) ([]byte, error) {
	if b.Size() == 0 {
		return nil, nil
	}

	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
