package taxgo

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hupe1980/taxgo/blastdb"
	"github.com/hupe1980/taxgo/blobstore"
	s3blob "github.com/hupe1980/taxgo/blobstore/s3"
	"github.com/hupe1980/taxgo/fetch"
	"github.com/hupe1980/taxgo/keytrie"
	"github.com/hupe1980/taxgo/manifest"
	"github.com/hupe1980/taxgo/recordstore"
	"github.com/hupe1980/taxgo/taxonomy"
)

// DB is an opened artifact set: the taxonomy, its name indexes and the
// accession indexes of whichever sequence databases the catalog covers.
// Every lookup is a lock-free read over immutable data, safe for arbitrary
// concurrent use. Close releases the underlying mappings.
type DB struct {
	manifest *manifest.Manifest

	taxa        *keytrie.Trie
	tree        *taxonomy.Tree
	sciNames    *keytrie.Trie
	sciPool     *recordstore.StringPool
	commonNames *keytrie.Trie           // nil when the catalog has no common names
	commonPool  *recordstore.StringPool // nil when the catalog has no common names
	hostsPool   *recordstore.StringPool // nil when the catalog has no host lists
	refseqPool  *recordstore.StringPool // nil when the catalog has no rep genomes

	resolver *blastdb.Resolver // nil without accession artifacts
	fetcher  *fetch.Fetcher    // nil without a volume store

	logger  *slog.Logger
	closers []io.Closer
}

// Open opens the artifact set rooted at path.
//
// The CURRENT pointer in the directory names the active manifest; whichever
// artifacts that manifest lists are loaded, memory-mapped where possible.
// Taxonomy-only artifact sets are legal, as are sets carrying accession
// indexes for several sequence databases.
func Open(ctx context.Context, path string, optFns ...Option) (*DB, error) {
	return OpenStore(ctx, blobstore.NewLocalStore(path), optFns...)
}

// OpenStore opens the artifact set published on the given blob store.
func OpenStore(ctx context.Context, store blobstore.BlobStore, optFns ...Option) (*DB, error) {
	opts := applyOptions(optFns)

	db := &DB{logger: opts.logger}
	if err := db.load(ctx, store, opts); err != nil {
		_ = db.Close()
		return nil, translateError(err)
	}

	if db.logger != nil {
		db.logger.Info("artifact set opened",
			"manifest_id", db.manifest.ID,
			"taxdump", db.manifest.TaxdumpDate,
			"taxa", db.tree.Len(),
			"databases", len(db.Databases()))
	}

	return db, nil
}

func (db *DB) load(ctx context.Context, store blobstore.BlobStore, opts options) error {
	m, err := manifest.NewStore(store).Load(ctx)
	if err != nil {
		return err
	}
	db.manifest = m

	if err := db.loadTaxonomy(ctx, store, m); err != nil {
		return err
	}
	if err := db.loadNames(ctx, store, m); err != nil {
		return err
	}
	if err := db.loadAccessions(ctx, store, m, opts.databases); err != nil {
		return err
	}

	return db.configureFetcher(ctx, opts)
}

func (db *DB) loadTaxonomy(ctx context.Context, store blobstore.BlobStore, m *manifest.Manifest) error {
	info, ok := m.FindKind(manifest.KindTrie, manifest.EntityTaxa, "", "")
	if !ok {
		return fmt.Errorf("taxgo: catalog %d lists no taxa trie", m.ID)
	}
	data, err := db.loadArtifact(ctx, store, info)
	if err != nil {
		return err
	}
	if db.taxa, err = keytrie.Load(data); err != nil {
		return err
	}

	info, ok = m.FindKind(manifest.KindRecords, manifest.EntityTaxa, "", "")
	if !ok {
		return fmt.Errorf("taxgo: catalog %d lists no taxa record store", m.ID)
	}
	if data, err = db.loadArtifact(ctx, store, info); err != nil {
		return err
	}
	records, err := recordstore.Load(data)
	if err != nil {
		return err
	}

	var treeOptFns []func(o *taxonomy.Options)
	if info, ok := m.FindKind(manifest.KindRecords, manifest.EntityDistances, "", ""); ok {
		data, err := db.loadArtifact(ctx, store, info)
		if err != nil {
			return err
		}
		edges, err := recordstore.Load(data)
		if err != nil {
			return err
		}
		treeOptFns = append(treeOptFns, func(o *taxonomy.Options) {
			o.EdgeWeights = edges
		})
	}

	db.tree, err = taxonomy.NewTree(records, db.taxa, treeOptFns...)
	return err
}

func (db *DB) loadNames(ctx context.Context, store blobstore.BlobStore, m *manifest.Manifest) error {
	info, ok := m.FindKind(manifest.KindTrie, manifest.EntityNames, manifest.NamespaceScientific, "")
	if !ok {
		return fmt.Errorf("taxgo: catalog %d lists no scientific name trie", m.ID)
	}
	data, err := db.loadArtifact(ctx, store, info)
	if err != nil {
		return err
	}
	if db.sciNames, err = keytrie.Load(data); err != nil {
		return err
	}

	info, ok = m.FindKind(manifest.KindPool, manifest.EntityNames, manifest.NamespaceScientific, "")
	if !ok {
		return fmt.Errorf("taxgo: catalog %d lists no scientific name pool", m.ID)
	}
	if data, err = db.loadArtifact(ctx, store, info); err != nil {
		return err
	}
	if db.sciPool, err = recordstore.LoadPool(data); err != nil {
		return err
	}

	// Everything below is optional: catalogs without common names, host
	// lists or representative genomes simply skip the artifacts.
	if info, ok := m.FindKind(manifest.KindTrie, manifest.EntityNames, manifest.NamespaceCommon, ""); ok {
		if data, err = db.loadArtifact(ctx, store, info); err != nil {
			return err
		}
		if db.commonNames, err = keytrie.Load(data); err != nil {
			return err
		}
	}
	if info, ok := m.FindKind(manifest.KindPool, manifest.EntityNames, manifest.NamespaceCommon, ""); ok {
		if data, err = db.loadArtifact(ctx, store, info); err != nil {
			return err
		}
		if db.commonPool, err = recordstore.LoadPool(data); err != nil {
			return err
		}
	}
	if info, ok := m.FindKind(manifest.KindPool, manifest.EntityHosts, "", ""); ok {
		if data, err = db.loadArtifact(ctx, store, info); err != nil {
			return err
		}
		if db.hostsPool, err = recordstore.LoadPool(data); err != nil {
			return err
		}
	}
	if info, ok := m.FindKind(manifest.KindPool, manifest.EntityRefSeq, "", ""); ok {
		if data, err = db.loadArtifact(ctx, store, info); err != nil {
			return err
		}
		if db.refseqPool, err = recordstore.LoadPool(data); err != nil {
			return err
		}
	}

	return nil
}

func (db *DB) loadAccessions(ctx context.Context, store blobstore.BlobStore, m *manifest.Manifest, names []string) error {
	dbs := m.Databases
	if len(names) > 0 {
		dbs = make([]manifest.DatabaseInfo, 0, len(names))
		for _, name := range names {
			d, ok := m.Database(name)
			if !ok {
				return fmt.Errorf("taxgo: catalog %d covers no database %q", m.ID, name)
			}
			dbs = append(dbs, d)
		}
	}

	var sources []blastdb.Source
	for _, d := range dbs {
		id, err := blastdb.ParseDatabaseID(d.Name)
		if err != nil {
			if len(names) > 0 {
				return fmt.Errorf("taxgo: %w", err)
			}
			// Catalogs may cover databases this reader does not know.
			if db.logger != nil {
				db.logger.Warn("skipping unknown database", "database", d.Name)
			}
			continue
		}

		info, ok := m.FindKind(manifest.KindTrie, manifest.EntityAccessions, "", d.Name)
		if !ok {
			return fmt.Errorf("taxgo: catalog %d covers database %s but lists no accession trie", m.ID, d.Name)
		}
		data, err := db.loadArtifact(ctx, store, info)
		if err != nil {
			return err
		}
		trie, err := keytrie.Load(data)
		if err != nil {
			return err
		}

		info, ok = m.FindKind(manifest.KindRecords, manifest.EntityAccessions, "", d.Name)
		if !ok {
			return fmt.Errorf("taxgo: catalog %d covers database %s but lists no accession record store", m.ID, d.Name)
		}
		if data, err = db.loadArtifact(ctx, store, info); err != nil {
			return err
		}
		records, err := recordstore.Load(data)
		if err != nil {
			return err
		}

		sources = append(sources, blastdb.Source{
			Database: blastdb.Database{ID: id, Snapshot: d.Snapshot, Volumes: d.Volumes},
			Index:    trie,
			Records:  records,
		})
	}

	if len(sources) == 0 {
		return nil
	}

	var err error
	db.resolver, err = blastdb.NewResolver(sources...)
	return err
}

func (db *DB) configureFetcher(ctx context.Context, opts options) error {
	vs := opts.volumeStore
	if vs == nil && opts.ncbiVolumes {
		store, err := s3blob.NewNCBIStore(ctx)
		if err != nil {
			return err
		}
		vs = store
	}
	if vs == nil {
		return nil
	}

	fetchOptFns := opts.fetchOptFns
	if db.logger != nil {
		fetchOptFns = append([]func(o *fetch.Options){func(o *fetch.Options) {
			o.Logger = db.logger
		}}, fetchOptFns...)
	}
	db.fetcher = fetch.New(vs, fetchOptFns...)

	return nil
}

// loadArtifact reads one artifact blob, zero-copy when the store supports
// memory mapping. Mapped blobs stay open until Close unmaps them.
func (db *DB) loadArtifact(ctx context.Context, store blobstore.BlobStore, info manifest.ArtifactInfo) ([]byte, error) {
	b, err := store.Open(ctx, info.Name)
	if err != nil {
		return nil, fmt.Errorf("taxgo: failed to open artifact %s: %w", info.Name, err)
	}

	if b.Size() != info.Size {
		_ = b.Close()
		return nil, fmt.Errorf("taxgo: artifact %s is %d bytes, catalog says %d", info.Name, b.Size(), info.Size)
	}

	if mb, ok := b.(blobstore.Mappable); ok {
		data, err := mb.Bytes()
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		db.closers = append(db.closers, b)
		return data, nil
	}

	rc, err := b.ReadRange(ctx, 0, info.Size)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	_ = b.Close()
	if err != nil {
		return nil, fmt.Errorf("taxgo: failed to read artifact %s: %w", info.Name, err)
	}

	return data, nil
}

// TaxonByID returns the taxon with the given NCBI taxon ID. IDs that NCBI
// merged into another taxon resolve to the merged-into taxon.
func (db *DB) TaxonByID(id uint32) (*Taxon, error) {
	rec, err := db.tree.Record(id)
	if err != nil {
		return nil, translateError(err)
	}

	return &Taxon{db: db, rec: rec}, nil
}

// TaxonByName returns the taxon carrying the given name, consulting the
// scientific names first and the common names second.
func (db *DB) TaxonByName(name string) (*Taxon, error) {
	id, ok := db.sciNames.Lookup(name)
	if !ok && db.commonNames != nil {
		id, ok = db.commonNames.Lookup(name)
	}
	if !ok {
		return nil, fmt.Errorf("%w: taxon named %q", ErrNotFound, name)
	}

	return db.TaxonByID(id)
}

// TaxonByAccession returns the taxon a sequence accession is classified
// under.
func (db *DB) TaxonByAccession(accession string) (*Taxon, error) {
	acc, err := db.AccessionByID(accession)
	if err != nil {
		return nil, err
	}

	return acc.Taxon()
}

// AccessionByID returns the sequence accession with the given identifier.
// A trailing ".1" version suffix is optional: NC_052986 and NC_052986.1
// name the same record. When several databases mirror the accession, the
// record comes from the highest-priority one.
func (db *DB) AccessionByID(accession string) (*Accession, error) {
	if db.resolver == nil {
		return nil, fmt.Errorf("%w: accession %q (no sequence databases loaded)", ErrNotFound, accession)
	}

	rec, d, err := db.resolver.Lookup(accession)
	if err != nil {
		return nil, translateError(err)
	}

	return &Accession{db: db, id: accession, rec: rec, database: d}, nil
}

// LCA returns the lowest common ancestor of the given taxa. A single taxon
// is its own ancestor.
func (db *DB) LCA(ids ...uint32) (*Taxon, error) {
	id, err := db.tree.LCAList(ids)
	if err != nil {
		return nil, translateError(err)
	}

	return db.TaxonByID(id)
}

// Distance returns the evolutionary distance between two taxa: the sum of
// branch lengths along the path through their lowest common ancestor.
// Pairs whose path crosses a branch without a known length return a
// taxonomy.ErrDistanceUnknown.
func (db *DB) Distance(a, b uint32) (float64, error) {
	d, err := db.tree.Distance(a, b)
	if err != nil {
		return 0, translateError(err)
	}

	return d, nil
}

// Manifest returns the catalog the DB was opened from.
func (db *DB) Manifest() *manifest.Manifest { return db.manifest }

// Tree returns the materialized taxonomy for direct traversal, like
// Descendants or AtRank queries.
func (db *DB) Tree() *taxonomy.Tree { return db.tree }

// Databases returns the loaded sequence databases in accession lookup
// priority order.
func (db *DB) Databases() []blastdb.Database {
	if db.resolver == nil {
		return nil
	}
	return db.resolver.Databases()
}

// Fetcher returns the configured sequence fetcher, or nil when the DB was
// opened without a volume store.
func (db *DB) Fetcher() *fetch.Fetcher { return db.fetcher }
