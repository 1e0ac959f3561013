package testutil

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/hupe1980/taxgo/blastdb"
	"github.com/hupe1980/taxgo/blobstore"
	"github.com/hupe1980/taxgo/build"
	"github.com/hupe1980/taxgo/manifest"
)

// FixtureSnapshot is the database snapshot name all fixture volumes carry.
const FixtureSnapshot = "2023-03-14-01-05-02"

const (
	// The E. coli K-12 MG1655 genome (NC_000913.3) is reproduced at its real
	// length with its real leading bases; the rest is seeded randomness.
	ecoliGenomeLen    = 4641652
	ecoliGenomePrefix = "AGCTTTTCATTCTGACTGCAACGGGCAATATGTCTCTGTGTGGATTAAAAAAAGAGTGTCTGATAGCAGCT"
)

type fixtureSeq struct {
	accession string
	taxID     uint32
	bases     string
}

type fixtureVolume struct {
	start uint32
	seqs  []fixtureSeq
}

// Fixture is a fully built in-memory index over a small synthetic corpus:
// twenty-one taxa spanning bacteria, primates and viruses, three databases
// with packed sequence volumes, a merge alias, hosts and edge lengths.
type Fixture struct {
	// Artifacts holds the built artifact set and its manifest.
	Artifacts *blobstore.MemoryStore
	// Volumes holds the packed sequence volumes under their object keys.
	Volumes *blobstore.MemoryStore
	// Manifest is the build result, as published into Artifacts.
	Manifest *manifest.Manifest
	// Sequences maps each accession to its nucleotide sequence.
	Sequences map[string]string
}

// NewFixture builds the fixture corpus. Two calls yield byte-identical
// artifacts.
func NewFixture() (*Fixture, error) {
	ctx := context.Background()

	rng := NewRNG(1)
	genome := ecoliGenomePrefix + rng.Bases(ecoliGenomeLen-len(ecoliGenomePrefix))

	sets := []struct {
		db   blastdb.DatabaseID
		vols []fixtureVolume
	}{
		{blastdb.DatabaseNT, []fixtureVolume{
			{start: 0, seqs: []fixtureSeq{
				{"NC_900001.1", 562, rng.Bases(40)},
			}},
			{start: 16, seqs: []fixtureSeq{
				{"NC_900002.1", 9606, rng.Bases(33)},
			}},
			{start: 8, seqs: []fixtureSeq{
				{"NC_900003.1", 83333, rng.Bases(20)},
				{"NC_900004.1", 666, "TGGTTACAAC"},
			}},
			{start: 1000, seqs: []fixtureSeq{
				{"NC_000913.3", 511145, genome},
			}},
		}},
		{blastdb.DatabaseRefViruses, []fixtureVolume{
			{start: 0, seqs: []fixtureSeq{
				{"NC_045512.2", 2697049, rng.Bases(29903)},
			}},
		}},
		{blastdb.DatabaseRefProk, []fixtureVolume{
			{start: 4, seqs: []fixtureSeq{
				{"NZ_CP009685.1", 562, rng.Bases(24)},
				{"NZ_CP010438.1", 511145, rng.Bases(36)},
			}},
		}},
	}

	b := build.New(func(o *build.Options) {
		o.TaxdumpDate = "2023-03-01"
	})

	if err := b.AddNodes(strings.NewReader(fixtureNodes())); err != nil {
		return nil, err
	}
	if err := b.AddNames(strings.NewReader(fixtureNames())); err != nil {
		return nil, err
	}
	if err := b.AddMerged(strings.NewReader(row("666", "562"))); err != nil {
		return nil, err
	}
	if err := b.AddHosts(strings.NewReader(row("2697049", "human,vertebrates"))); err != nil {
		return nil, err
	}
	if err := b.AddEdgeLengths(strings.NewReader(fixtureEdges())); err != nil {
		return nil, err
	}

	vols := blobstore.NewMemoryStore()
	seqs := make(map[string]string)

	for _, set := range sets {
		d := blastdb.Database{ID: set.db, Snapshot: FixtureSnapshot, Volumes: len(set.vols)}
		for vol, v := range set.vols {
			nin, table, blob, err := buildVolume(vol, v)
			if err != nil {
				return nil, err
			}
			if err := b.AddVolume(set.db, FixtureSnapshot, nin, strings.NewReader(table)); err != nil {
				return nil, err
			}
			if err := vols.Put(ctx, d.VolumeKey(vol), blob); err != nil {
				return nil, err
			}
			for _, s := range v.seqs {
				seqs[s.accession] = s.bases
			}
		}
	}

	arts := blobstore.NewMemoryStore()
	m, err := b.Run(ctx, arts)
	if err != nil {
		return nil, err
	}

	return &Fixture{
		Artifacts: arts,
		Volumes:   vols,
		Manifest:  m,
		Sequences: seqs,
	}, nil
}

// row renders one dump table row from its fields.
func row(fields ...string) string {
	return strings.Join(fields, "\t|\t") + "\t|\n"
}

func classic(taxID, parent, rank, division string) string {
	return row(taxID, parent, rank, "", division)
}

// specified renders an extended-flavor nodes row with the specified species
// flag set.
func specified(taxID, parent, rank, division string) string {
	return row(taxID, parent, rank, "", division,
		"1", "11", "1", "0", "1", "1", "0", "", "0", "1", "1", "0", "1")
}

func sci(taxID, name, unique string) string {
	return row(taxID, name, unique, "scientific name")
}

func common(taxID, name, class string) string {
	return row(taxID, name, "", class)
}

// fixtureNodes covers the full E. coli strain lineage, the human lineage and
// a SARS-CoV-2 stub, so ranked lineages cross every standard rank.
func fixtureNodes() string {
	return classic("1", "1", "no rank", "8") +
		classic("131567", "1", "no rank", "8") +
		classic("2", "131567", "superkingdom", "0") +
		classic("1224", "2", "phylum", "0") +
		classic("1236", "1224", "class", "0") +
		classic("91347", "1236", "order", "0") +
		classic("543", "91347", "family", "0") +
		classic("561", "543", "genus", "0") +
		specified("562", "561", "species", "0") +
		classic("83333", "562", "strain", "0") +
		classic("511145", "83333", "no rank", "0") +
		classic("2759", "131567", "superkingdom", "1") +
		classic("33208", "2759", "kingdom", "1") +
		classic("7711", "33208", "phylum", "10") +
		classic("40674", "7711", "class", "2") +
		classic("9443", "40674", "order", "5") +
		classic("9604", "9443", "family", "5") +
		classic("9605", "9604", "genus", "5") +
		specified("9606", "9605", "species", "5") +
		classic("10239", "1", "superkingdom", "9") +
		specified("2697049", "10239", "species", "9")
}

func fixtureNames() string {
	return sci("1", "root", "") +
		sci("131567", "cellular organisms", "") +
		sci("2", "Bacteria", "Bacteria <bacteria>") +
		common("2", "eubacteria", "blast name") +
		sci("1224", "Pseudomonadota", "") +
		sci("1236", "Gammaproteobacteria", "") +
		sci("91347", "Enterobacterales", "") +
		sci("543", "Enterobacteriaceae", "") +
		common("543", "enterobacteria", "blast name") +
		sci("561", "Escherichia", "") +
		sci("562", "Escherichia coli", "") +
		common("562", "E. coli", "genbank common name") +
		sci("83333", "Escherichia coli K-12", "") +
		sci("511145", "Escherichia coli str. K-12 substr. MG1655", "") +
		sci("2759", "Eukaryota", "") +
		common("2759", "eucaryotes", "blast name") +
		sci("33208", "Metazoa", "") +
		common("33208", "animals", "blast name") +
		sci("7711", "Chordata", "") +
		common("7711", "chordates", "blast name") +
		sci("40674", "Mammalia", "") +
		common("40674", "mammals", "blast name") +
		sci("9443", "Primates", "") +
		common("9443", "primates", "blast name") +
		sci("9604", "Hominidae", "") +
		common("9604", "great apes", "genbank common name") +
		sci("9605", "Homo", "") +
		sci("9606", "Homo sapiens", "") +
		common("9606", "human", "genbank common name") +
		sci("10239", "Viruses", "") +
		sci("2697049", "Severe acute respiratory syndrome coronavirus 2", "") +
		common("2697049", "SARS-CoV-2", "genbank common name")
}

// fixtureEdges leaves the viral taxa out, so their distances stay unknown.
func fixtureEdges() string {
	var sb strings.Builder
	for _, e := range []struct {
		taxID  uint32
		length string
	}{
		{1, "0"},
		{2, "0.3"},
		{543, "0.11"},
		{561, "0.1"},
		{562, "0.05"},
		{1224, "0.2"},
		{1236, "0.15"},
		{2759, "0.5"},
		{7711, "0.2"},
		{9443, "0.15"},
		{9604, "0.12"},
		{9605, "0.1"},
		{9606, "0.02"},
		{33208, "0.25"},
		{40674, "0.18"},
		{83333, "0.03"},
		{91347, "0.12"},
		{131567, "0.4"},
		{511145, "0.01"},
	} {
		fmt.Fprintf(&sb, "%d\t%s\n", e.taxID, e.length)
	}
	return sb.String()
}

// buildVolume renders one volume: native index bytes, the accession table and
// the packed sequence blob laid out at the extents the index declares.
func buildVolume(vol int, v fixtureVolume) (nin []byte, table string, blob []byte, err error) {
	blob = bytes.Repeat([]byte{0xA5}, int(v.start))

	var rows strings.Builder
	seqOffsets := make([]uint32, 1, len(v.seqs)+1)
	seqOffsets[0] = v.start
	maxLen := 0

	for oid, s := range v.seqs {
		packed, err := PackNa2(s.bases)
		if err != nil {
			return nil, "", nil, fmt.Errorf("%s: %w", s.accession, err)
		}
		blob = append(blob, packed...)
		seqOffsets = append(seqOffsets, seqOffsets[oid]+uint32(len(packed)))
		fmt.Fprintf(&rows, "%s\t%d\t%d\t%d\n", s.accession, oid, len(s.bases), s.taxID)
		if len(s.bases) > maxLen {
			maxLen = len(s.bases)
		}
	}

	return encodeVolumeIndex(vol, seqOffsets, maxLen), rows.String(), blob, nil
}

func encodeVolumeIndex(vol int, seqOffsets []uint32, maxLen int) []byte {
	var b []byte
	b = binary.BigEndian.AppendUint32(b, blastdb.VolumeIndexVersion)
	b = binary.BigEndian.AppendUint32(b, 0) // nucleotide
	b = binary.BigEndian.AppendUint32(b, uint32(vol))
	b = appendIndexString(b, "taxgo fixture volume")
	b = appendIndexString(b, fmt.Sprintf("fixture.%02d.ndb", vol))
	b = appendIndexString(b, "Mar 14, 2023  1:05 AM")
	b = binary.BigEndian.AppendUint32(b, uint32(len(seqOffsets)-1))
	b = binary.LittleEndian.AppendUint64(b, uint64(seqOffsets[len(seqOffsets)-1]))
	b = binary.BigEndian.AppendUint32(b, uint32(maxLen))
	for range seqOffsets { // header offsets, unused
		b = binary.BigEndian.AppendUint32(b, 0)
	}
	for _, off := range seqOffsets {
		b = binary.BigEndian.AppendUint32(b, off)
	}
	return b
}

func appendIndexString(b []byte, s string) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}
