package build

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/hupe1980/taxgo/blastdb"
	"github.com/hupe1980/taxgo/blobstore"
	"github.com/hupe1980/taxgo/codec"
	"github.com/hupe1980/taxgo/fetch"
	"github.com/hupe1980/taxgo/internal/hash"
	"github.com/hupe1980/taxgo/keytrie"
	"github.com/hupe1980/taxgo/manifest"
	"github.com/hupe1980/taxgo/recordstore"
	"github.com/hupe1980/taxgo/taxonomy"
)

// ErrUnknownTaxon is returned when an input references a taxon the nodes
// table does not define, directly or through a merge alias.
type ErrUnknownTaxon struct {
	TaxID uint32
	Ref   string
}

func (e *ErrUnknownTaxon) Error() string {
	return fmt.Sprintf("build: unknown taxon %d referenced by %s", e.TaxID, e.Ref)
}

// ErrDuplicateAccession is returned when one database claims an accession
// twice. The same accession in different databases is fine; those become
// independent per-database records.
type ErrDuplicateAccession struct {
	Accession string
	Database  blastdb.DatabaseID
}

func (e *ErrDuplicateAccession) Error() string {
	return fmt.Sprintf("build: duplicate accession %s in database %s", e.Accession, e.Database)
}

// ErrAmbiguousName is returned when several taxa claim one scientific name
// and the dump provides no unique variant to tell them apart.
type ErrAmbiguousName struct {
	Name   string
	TaxIDs []uint32
}

func (e *ErrAmbiguousName) Error() string {
	return fmt.Sprintf("build: scientific name %q claimed by taxa %v with no unique variant", e.Name, e.TaxIDs)
}

// Artifact file names within a catalog.
const (
	nameTaxaTrie    = "taxa.trie"
	nameTaxaRecords = "taxa.records"
	nameSciTrie     = "names.sci.trie"
	nameSciPool     = "names.sci.pool"
	nameCommonTrie  = "names.common.trie"
	nameCommonPool  = "names.common.pool"
	nameHostsPool   = "hosts.pool"
	nameRefSeqPool  = "refseq.pool"
	nameDistances   = "distances.records"
)

// Options configures a Builder.
type Options struct {
	// Codec compresses string pool artifacts (codec.Default if nil).
	Codec codec.Codec
	// TaxdumpDate stamps the manifest with the dump release date.
	TaxdumpDate string
	// Logger receives build progress diagnostics.
	Logger *slog.Logger
}

// DefaultOptions are the default Builder options.
var DefaultOptions = Options{}

// Builder accumulates taxonomy dump tables and database volume inputs, then
// serializes the artifact set. Inputs may arrive in any order; Run validates
// cross references and writes. Not safe for concurrent use.
type Builder struct {
	codec       codec.Codec
	taxdumpDate string
	logger      *slog.Logger

	nodes         map[uint32]Node
	sciName       map[uint32]string
	sciUnique     map[uint32]string
	commonByClass map[uint32]map[string]string
	merged        map[uint32]uint32
	hosts         map[uint32]string
	edges         map[uint32]float32
	repGenomes    map[uint32][]string

	dbs map[blastdb.DatabaseID]*dbState
}

type dbState struct {
	snapshot string
	volumes  map[int]bool
	entries  []accessionEntry
	seen     map[string]bool
}

type accessionEntry struct {
	key string
	rec blastdb.AccessionRecord
}

// New creates an empty Builder.
func New(optFns ...func(o *Options)) *Builder {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Builder{
		codec:         opts.Codec,
		taxdumpDate:   opts.TaxdumpDate,
		logger:        opts.Logger,
		nodes:         make(map[uint32]Node),
		sciName:       make(map[uint32]string),
		sciUnique:     make(map[uint32]string),
		commonByClass: make(map[uint32]map[string]string),
		merged:        make(map[uint32]uint32),
		hosts:         make(map[uint32]string),
		edges:         make(map[uint32]float32),
		repGenomes:    make(map[uint32][]string),
		dbs:           make(map[blastdb.DatabaseID]*dbState),
	}
}

// AddNodes ingests a nodes.dmp table.
func (b *Builder) AddNodes(r io.Reader) error {
	n := 0
	for node, err := range Nodes(r) {
		if err != nil {
			return fmt.Errorf("nodes: %w", err)
		}
		if _, ok := b.nodes[node.TaxID]; ok {
			return fmt.Errorf("build: duplicate taxon %d in nodes table", node.TaxID)
		}
		b.nodes[node.TaxID] = node

		n++
		if n%100000 == 0 && b.logger != nil {
			b.logger.Info("loading taxa", "rows", humanize.Comma(int64(n)))
		}
	}

	if b.logger != nil {
		b.logger.Info("loaded taxa", "rows", humanize.Comma(int64(n)))
	}
	return nil
}

// AddNames ingests a names.dmp table. Per taxon, the first scientific name
// row wins, and the first row of each common-name class wins; other name
// classes are ignored.
func (b *Builder) AddNames(r io.Reader) error {
	n := 0
	for name, err := range Names(r) {
		if err != nil {
			return fmt.Errorf("names: %w", err)
		}
		n++

		switch name.Class {
		case ClassScientificName:
			if _, ok := b.sciName[name.TaxID]; ok {
				continue
			}
			b.sciName[name.TaxID] = name.Name
			if name.UniqueName != "" {
				b.sciUnique[name.TaxID] = name.UniqueName
			}
		case ClassBlastName, ClassGenbankCommonName, ClassCommonName:
			classes := b.commonByClass[name.TaxID]
			if classes == nil {
				classes = make(map[string]string)
				b.commonByClass[name.TaxID] = classes
			}
			if _, ok := classes[name.Class]; !ok {
				classes[name.Class] = name.Name
			}
		}
	}

	if b.logger != nil {
		b.logger.Info("loaded names", "rows", humanize.Comma(int64(n)))
	}
	return nil
}

// AddMerged ingests a merged.dmp table. Old IDs become lookup aliases for
// their merge targets.
func (b *Builder) AddMerged(r io.Reader) error {
	for m, err := range MergedNodes(r) {
		if err != nil {
			return fmt.Errorf("merged: %w", err)
		}
		if _, ok := b.merged[m.OldTaxID]; ok {
			return fmt.Errorf("build: taxon %d merged twice", m.OldTaxID)
		}
		b.merged[m.OldTaxID] = m.NewTaxID
	}
	return nil
}

// AddHosts ingests a host.dmp table.
func (b *Builder) AddHosts(r io.Reader) error {
	for h, err := range Hosts(r) {
		if err != nil {
			return fmt.Errorf("hosts: %w", err)
		}
		if _, ok := b.hosts[h.TaxID]; ok {
			return fmt.Errorf("build: host list for taxon %d defined twice", h.TaxID)
		}
		b.hosts[h.TaxID] = h.PotentialHosts
	}
	return nil
}

// AddEdgeLengths ingests a phylogenomic edge length export.
func (b *Builder) AddEdgeLengths(r io.Reader) error {
	for e, err := range EdgeLengths(r) {
		if err != nil {
			return fmt.Errorf("edge lengths: %w", err)
		}
		if _, ok := b.edges[e.TaxID]; ok {
			return fmt.Errorf("build: edge length for taxon %d defined twice", e.TaxID)
		}
		b.edges[e.TaxID] = e.Length
	}
	return nil
}

// AddVolume ingests one database volume: its native index bytes and its
// accession table. All volumes of a database must come from one snapshot,
// and a database must not claim an accession twice.
func (b *Builder) AddVolume(db blastdb.DatabaseID, snapshot string, nin []byte, accessions io.Reader) error {
	if !db.Valid() {
		return &blastdb.ErrUnknownDatabase{Name: db.String()}
	}

	vi, err := blastdb.ParseVolumeIndex(nin)
	if err != nil {
		return err
	}
	if vi.Volume > 255 {
		return fmt.Errorf("build: %s volume %d exceeds the record range", db, vi.Volume)
	}

	st := b.dbs[db]
	if st == nil {
		st = &dbState{
			snapshot: snapshot,
			volumes:  make(map[int]bool),
			seen:     make(map[string]bool),
		}
		b.dbs[db] = st
	}
	if st.snapshot != snapshot {
		return fmt.Errorf("build: %s volume %d snapshot %q does not match %q", db, vi.Volume, snapshot, st.snapshot)
	}
	if st.volumes[vi.Volume] {
		return fmt.Errorf("build: %s volume %d ingested twice", db, vi.Volume)
	}
	st.volumes[vi.Volume] = true

	rows := 0
	for row, err := range AccessionRows(accessions) {
		if err != nil {
			return fmt.Errorf("%s volume %d: %w", db, vi.Volume, err)
		}

		offset, packedLen, err := vi.Extent(row.OID)
		if err != nil {
			return fmt.Errorf("%s volume %d accession %s: %w", db, vi.Volume, row.Accession, err)
		}
		if want := fetch.PackedLen(int(row.SeqLen)); int(packedLen) != want {
			return fmt.Errorf("build: %s volume %d accession %s: extent is %d bytes, length %d needs %d",
				db, vi.Volume, row.Accession, packedLen, row.SeqLen, want)
		}

		key := blastdb.PackAccession(row.Accession)
		if st.seen[key] {
			return &ErrDuplicateAccession{Accession: row.Accession, Database: db}
		}
		st.seen[key] = true

		st.entries = append(st.entries, accessionEntry{
			key: key,
			rec: blastdb.AccessionRecord{
				TaxID:     row.TaxID,
				Database:  db,
				Volume:    uint8(vi.Volume),
				Offset:    offset,
				PackedLen: packedLen,
				SeqLen:    row.SeqLen,
			},
		})
		if db.RepGenomes() {
			b.repGenomes[row.TaxID] = append(b.repGenomes[row.TaxID], row.Accession)
		}
		rows++
	}

	if b.logger != nil {
		b.logger.Info("ingested volume", "database", db.String(), "volume", vi.Volume,
			"accessions", humanize.Comma(int64(rows)))
	}
	return nil
}

// Run validates the accumulated inputs, writes the artifact set to dst, and
// publishes the manifest. Referential breaks and key collisions abort the
// build.
func (b *Builder) Run(ctx context.Context, dst blobstore.BlobStore) (*manifest.Manifest, error) {
	if len(b.nodes) == 0 {
		return nil, errors.New("build: no taxonomy nodes loaded")
	}

	order := sortedTaxIDs(b.nodes)
	idx := make(map[uint32]uint32, len(order))
	for i, id := range order {
		idx[id] = uint32(i)
	}

	if err := b.validate(order); err != nil {
		return nil, err
	}

	hostsByID, err := resolveByTaxon(b, b.hosts, "host list")
	if err != nil {
		return nil, err
	}
	edgeByID, err := resolveByTaxon(b, b.edges, "edge length table")
	if err != nil {
		return nil, err
	}
	refseqByID, err := b.resolveRepGenomes()
	if err != nil {
		return nil, err
	}

	m := manifest.New()
	m.TaxdumpDate = b.taxdumpDate

	artifacts, err := b.taxonomyArtifacts(order, idx, hostsByID, edgeByID, refseqByID)
	if err != nil {
		return nil, err
	}
	dbArtifacts, err := b.accessionArtifacts(m)
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, dbArtifacts...)

	for _, a := range artifacts {
		if err := b.writeArtifact(ctx, dst, m, a); err != nil {
			return nil, err
		}
	}

	if err := manifest.NewStore(dst).Save(ctx, m); err != nil {
		return nil, err
	}

	if b.logger != nil {
		b.logger.Info("published manifest", "id", m.ID, "artifacts", len(m.Artifacts))
	}
	return m, nil
}

// validate checks the tree shape: every parent must exist, every taxon must
// carry a scientific name, and merge aliases must point at live taxa.
func (b *Builder) validate(order []uint32) error {
	for _, id := range order {
		node := b.nodes[id]
		if node.ParentTaxID != id {
			if _, ok := b.nodes[node.ParentTaxID]; !ok {
				return &ErrUnknownTaxon{TaxID: node.ParentTaxID, Ref: fmt.Sprintf("parent of taxon %d", id)}
			}
		}
		if _, ok := b.sciName[id]; !ok {
			return fmt.Errorf("build: taxon %d has no scientific name", id)
		}
	}

	for _, old := range sortedTaxIDs(b.merged) {
		if _, ok := b.nodes[old]; ok {
			return fmt.Errorf("build: merged taxon %d is still present in the nodes table", old)
		}
		if _, ok := b.nodes[b.merged[old]]; !ok {
			return &ErrUnknownTaxon{TaxID: b.merged[old], Ref: fmt.Sprintf("merge target of taxon %d", old)}
		}
	}
	return nil
}

// resolveTaxon maps a raw input taxon ID onto a live taxon, following one
// merge hop.
func (b *Builder) resolveTaxon(id uint32) (uint32, bool) {
	if _, ok := b.nodes[id]; ok {
		return id, true
	}
	if to, ok := b.merged[id]; ok {
		if _, ok := b.nodes[to]; ok {
			return to, true
		}
	}
	return 0, false
}

// resolveByTaxon rewrites a per-taxon table onto live taxon IDs. An entry
// for an unknown taxon, or two entries landing on the same live taxon,
// aborts the build.
func resolveByTaxon[V any](b *Builder, in map[uint32]V, ref string) (map[uint32]V, error) {
	out := make(map[uint32]V, len(in))
	for _, raw := range sortedTaxIDs(in) {
		to, ok := b.resolveTaxon(raw)
		if !ok {
			return nil, &ErrUnknownTaxon{TaxID: raw, Ref: ref}
		}
		if _, dup := out[to]; dup {
			return nil, fmt.Errorf("build: %s entries for taxon %d and its merge alias collide", ref, to)
		}
		out[to] = in[raw]
	}
	return out, nil
}

// resolveRepGenomes folds the per-database representative genome claims into
// one sorted, comma-joined accession list per live taxon.
func (b *Builder) resolveRepGenomes() (map[uint32]string, error) {
	byID := make(map[uint32][]string, len(b.repGenomes))
	for _, raw := range sortedTaxIDs(b.repGenomes) {
		to, ok := b.resolveTaxon(raw)
		if !ok {
			return nil, &ErrUnknownTaxon{TaxID: raw, Ref: "representative genome list"}
		}
		byID[to] = append(byID[to], b.repGenomes[raw]...)
	}

	out := make(map[uint32]string, len(byID))
	for id, accs := range byID {
		sort.Strings(accs)
		out[id] = strings.Join(accs, ",")
	}
	return out, nil
}

// artifact pairs a manifest entry with its serializer. Size and checksum are
// filled in while writing.
type artifact struct {
	info manifest.ArtifactInfo
	src  io.WriterTo
}

func (b *Builder) taxonomyArtifacts(
	order []uint32,
	idx map[uint32]uint32,
	hostsByID map[uint32]string,
	edgeByID map[uint32]float32,
	refseqByID map[uint32]string,
) ([]artifact, error) {
	sciPool := recordstore.NewPoolBuilder(b.codec)
	commonPool := recordstore.NewPoolBuilder(b.codec)
	hostsPool := recordstore.NewPoolBuilder(b.codec)
	refseqPool := recordstore.NewPoolBuilder(b.codec)
	records := recordstore.NewWriter(taxonomy.TaxonRecordSize)

	commonByID := make(map[uint32]string, len(b.commonByClass))

	for _, id := range order {
		node := b.nodes[id]

		sciOff, err := sciPool.Add(b.sciName[id])
		if err != nil {
			return nil, err
		}

		commonOff := recordstore.NoString
		if name, ok := pickCommonName(b.commonByClass[id]); ok {
			if commonOff, err = commonPool.Add(name); err != nil {
				return nil, err
			}
			commonByID[id] = name
		}

		hostsOff := recordstore.NoString
		if s, ok := hostsByID[id]; ok {
			if hostsOff, err = hostsPool.Add(s); err != nil {
				return nil, err
			}
		}

		refseqOff := recordstore.NoString
		if s, ok := refseqByID[id]; ok {
			if refseqOff, err = refseqPool.Add(s); err != nil {
				return nil, err
			}
		}

		var flags uint8
		if node.SpecifiedSpecies {
			flags |= taxonomy.FlagSpecifiedSpecies
		}

		rec := taxonomy.TaxonRecord{
			TaxID:            id,
			ParentTaxID:      node.ParentTaxID,
			Rank:             node.Rank,
			Division:         node.Division,
			Flags:            flags,
			SciNameOffset:    sciOff,
			CommonNameOffset: commonOff,
			HostsOffset:      hostsOff,
			RefSeqOffset:     refseqOff,
		}
		if err := records.Append(rec.Encode()); err != nil {
			return nil, err
		}
	}

	taxaTrie, err := b.buildTaxaTrie(order, idx)
	if err != nil {
		return nil, err
	}
	sciTrie, err := b.buildSciTrie(order)
	if err != nil {
		return nil, err
	}
	commonTrie, err := b.buildCommonTrie(order, commonByID)
	if err != nil {
		return nil, err
	}

	artifacts := []artifact{
		{trieInfo(nameTaxaTrie, manifest.EntityTaxa, ""), taxaTrie},
		{recordsInfo(nameTaxaRecords, manifest.EntityTaxa), records},
		{trieInfo(nameSciTrie, manifest.EntityNames, manifest.NamespaceScientific), sciTrie},
		{poolInfo(nameSciPool, manifest.EntityNames, manifest.NamespaceScientific), sciPool},
	}
	if len(commonByID) > 0 {
		artifacts = append(artifacts,
			artifact{trieInfo(nameCommonTrie, manifest.EntityNames, manifest.NamespaceCommon), commonTrie},
			artifact{poolInfo(nameCommonPool, manifest.EntityNames, manifest.NamespaceCommon), commonPool},
		)
	}
	if len(hostsByID) > 0 {
		artifacts = append(artifacts, artifact{poolInfo(nameHostsPool, manifest.EntityHosts, ""), hostsPool})
	}
	if len(refseqByID) > 0 {
		artifacts = append(artifacts, artifact{poolInfo(nameRefSeqPool, manifest.EntityRefSeq, ""), refseqPool})
	}
	if len(edgeByID) > 0 {
		artifacts = append(artifacts, artifact{
			recordsInfo(nameDistances, manifest.EntityDistances),
			edgeWeightWriter(order, edgeByID),
		})
	}
	return artifacts, nil
}

// buildTaxaTrie maps decimal taxon IDs, merge aliases included, to record
// indexes.
func (b *Builder) buildTaxaTrie(order []uint32, idx map[uint32]uint32) (*keytrie.Builder, error) {
	t := keytrie.NewBuilder()
	for _, id := range order {
		if err := t.InsertUint32(id, idx[id]); err != nil {
			return nil, err
		}
	}
	for _, old := range sortedTaxIDs(b.merged) {
		if err := t.InsertUint32(old, idx[b.merged[old]]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// buildSciTrie maps scientific names to taxon IDs. A name claimed by several
// taxa falls back to each claimant's unique variant; a claimant without one
// aborts the build.
func (b *Builder) buildSciTrie(order []uint32) (*keytrie.Builder, error) {
	claims := make(map[string][]uint32)
	for _, id := range order {
		name := b.sciName[id]
		claims[name] = append(claims[name], id)
	}

	names := make([]string, 0, len(claims))
	for name := range claims {
		names = append(names, name)
	}
	sort.Strings(names)

	t := keytrie.NewBuilder()
	for _, name := range names {
		ids := claims[name]
		if len(ids) == 1 {
			if err := t.Insert(name, ids[0]); err != nil {
				return nil, err
			}
			continue
		}
		for _, id := range ids {
			unique, ok := b.sciUnique[id]
			if !ok {
				return nil, &ErrAmbiguousName{Name: name, TaxIDs: ids}
			}
			if err := t.Insert(unique, id); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// buildCommonTrie maps common names to taxon IDs. A common name shared by
// several taxa names none of them and is left out of the lookup; the record
// store still carries it for display.
func (b *Builder) buildCommonTrie(order []uint32, commonByID map[uint32]string) (*keytrie.Builder, error) {
	claims := make(map[string][]uint32)
	for _, id := range order {
		if name, ok := commonByID[id]; ok {
			claims[name] = append(claims[name], id)
		}
	}

	names := make([]string, 0, len(claims))
	for name := range claims {
		names = append(names, name)
	}
	sort.Strings(names)

	t := keytrie.NewBuilder()
	ambiguous := 0
	for _, name := range names {
		ids := claims[name]
		if len(ids) > 1 {
			ambiguous++
			continue
		}
		if err := t.Insert(name, ids[0]); err != nil {
			return nil, err
		}
	}

	if ambiguous > 0 && b.logger != nil {
		b.logger.Warn("ambiguous common names excluded from lookup", "count", ambiguous)
	}
	return t, nil
}

func (b *Builder) accessionArtifacts(m *manifest.Manifest) ([]artifact, error) {
	ids := make([]blastdb.DatabaseID, 0, len(b.dbs))
	for id := range b.dbs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var artifacts []artifact
	for _, db := range ids {
		st := b.dbs[db]

		for v := 0; v < len(st.volumes); v++ {
			if !st.volumes[v] {
				return nil, fmt.Errorf("build: %s volume %d missing from snapshot %s", db, v, st.snapshot)
			}
		}

		entries := st.entries
		sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

		trie := keytrie.NewBuilder()
		records := recordstore.NewWriter(blastdb.AccessionRecordSize)
		for i, e := range entries {
			to, ok := b.resolveTaxon(e.rec.TaxID)
			if !ok {
				return nil, &ErrUnknownTaxon{TaxID: e.rec.TaxID, Ref: fmt.Sprintf("accession %s", e.key)}
			}
			e.rec.TaxID = to

			if err := trie.Insert(e.key, uint32(i)); err != nil {
				return nil, err
			}
			if err := records.Append(e.rec.Encode()); err != nil {
				return nil, err
			}
		}

		name := db.String()
		m.Databases = append(m.Databases, manifest.DatabaseInfo{
			Name:     name,
			Snapshot: st.snapshot,
			Volumes:  len(st.volumes),
		})

		trieArt := trieInfo(fmt.Sprintf("acc.%s.trie", name), manifest.EntityAccessions, "")
		trieArt.Database = name
		recArt := recordsInfo(fmt.Sprintf("acc.%s.records", name), manifest.EntityAccessions)
		recArt.Database = name

		artifacts = append(artifacts, artifact{trieArt, trie}, artifact{recArt, records})
	}
	return artifacts, nil
}

// writeArtifact streams one artifact into the store, checksumming as it
// goes, and appends the completed entry to the manifest.
func (b *Builder) writeArtifact(ctx context.Context, dst blobstore.BlobStore, m *manifest.Manifest, a artifact) error {
	w, err := dst.Create(ctx, a.info.Name)
	if err != nil {
		return err
	}

	h := hash.NewCRC32C()
	n, err := a.src.WriteTo(io.MultiWriter(w, h))
	if err != nil {
		w.Close()
		return fmt.Errorf("build: writing %s: %w", a.info.Name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("build: writing %s: %w", a.info.Name, err)
	}

	a.info.Size = n
	a.info.CRC32C = h.Sum32()
	m.Artifacts = append(m.Artifacts, a.info)

	if b.logger != nil {
		b.logger.Info("wrote artifact", "name", a.info.Name, "size", humanize.Bytes(uint64(n)))
	}
	return nil
}

// edgeWeightWriter serializes the per-record parent edge lengths. Taxa the
// export does not cover get NaN, the unknown marker.
func edgeWeightWriter(order []uint32, edgeByID map[uint32]float32) *recordstore.Writer {
	w := recordstore.NewWriter(taxonomy.EdgeWeightRecordSize)
	unknown := math.Float32bits(float32(math.NaN()))
	var buf [taxonomy.EdgeWeightRecordSize]byte
	for _, id := range order {
		bits := unknown
		if weight, ok := edgeByID[id]; ok {
			bits = math.Float32bits(weight)
		}
		binary.LittleEndian.PutUint32(buf[:], bits)
		// The scratch buffer always matches the record width.
		_ = w.Append(buf[:])
	}
	return w
}

var commonNamePrecedence = []string{ClassBlastName, ClassGenbankCommonName, ClassCommonName}

func pickCommonName(classes map[string]string) (string, bool) {
	for _, class := range commonNamePrecedence {
		if name, ok := classes[class]; ok {
			return name, true
		}
	}
	return "", false
}

func trieInfo(name, entity, namespace string) manifest.ArtifactInfo {
	return manifest.ArtifactInfo{
		Name:      name,
		Kind:      manifest.KindTrie,
		Entity:    entity,
		Namespace: namespace,
		Format:    keytrie.Version,
	}
}

func recordsInfo(name, entity string) manifest.ArtifactInfo {
	return manifest.ArtifactInfo{
		Name:   name,
		Kind:   manifest.KindRecords,
		Entity: entity,
		Format: recordstore.RecordVersion,
	}
}

func poolInfo(name, entity, namespace string) manifest.ArtifactInfo {
	return manifest.ArtifactInfo{
		Name:      name,
		Kind:      manifest.KindPool,
		Entity:    entity,
		Namespace: namespace,
		Format:    recordstore.PoolVersion,
	}
}

func sortedTaxIDs[V any](m map[uint32]V) []uint32 {
	ids := make([]uint32, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
