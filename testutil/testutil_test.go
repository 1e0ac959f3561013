package testutil

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taxgo/fetch"
)

func TestPackNa2(t *testing.T) {
	packed, err := PackNa2("TGGTTACAAC")
	require.NoError(t, err)

	assert.Equal(t, []byte{0xEB, 0xC4, 0x12}, packed)

	lower, err := PackNa2("tggttacaac")
	require.NoError(t, err)
	assert.Equal(t, packed, lower)
}

func TestPackNa2RoundTrip(t *testing.T) {
	rng := NewRNG(4711)

	for _, n := range []int{0, 1, 4, 5, 71} {
		seq := rng.Bases(n)

		packed, err := PackNa2(seq)
		require.NoError(t, err)
		assert.Equal(t, fetch.PackedLen(n), len(packed))

		decoded, err := fetch.Decode(packed, n)
		require.NoError(t, err)
		assert.Equal(t, seq, string(decoded))
	}
}

func TestPackNa2InvalidBase(t *testing.T) {
	_, err := PackNa2("ACGN")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position 3")
}

func TestBases(t *testing.T) {
	rng := NewRNG(4711)

	seq := rng.Bases(256)

	assert.Equal(t, 256, len(seq))
	for i := 0; i < len(seq); i++ {
		assert.Contains(t, "ACGT", string(seq[i]))
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	s1 := rng.Bases(64)

	rng.Reset()
	s2 := rng.Bases(64)

	assert.Equal(t, s1, s2)
}

func TestNewFixture(t *testing.T) {
	fx, err := NewFixture()
	require.NoError(t, err)

	assert.Equal(t, "2023-03-01", fx.Manifest.TaxdumpDate)
	assert.Len(t, fx.Manifest.Artifacts, 15)
	assert.Len(t, fx.Manifest.Databases, 3)
	assert.Len(t, fx.Sequences, 8)

	nt, ok := fx.Manifest.Database("nt")
	require.True(t, ok)
	assert.Equal(t, FixtureSnapshot, nt.Snapshot)
	assert.Equal(t, 4, nt.Volumes)

	genome := fx.Sequences["NC_000913.3"]
	assert.Equal(t, ecoliGenomeLen, len(genome))
	assert.True(t, strings.HasPrefix(genome, ecoliGenomePrefix))

	// The genome volume is its start padding plus the packed genome.
	blob := readVolume(t, fx, FixtureSnapshot+"/nt.03.nsq")
	assert.Equal(t, 1000+fetch.PackedLen(ecoliGenomeLen), len(blob))

	// Single-volume databases use unnumbered object keys.
	readVolume(t, fx, FixtureSnapshot+"/ref_prok_rep_genomes.nsq")

	// NC_900004.1 sits behind NC_900003.1 in nt volume 2.
	blob = readVolume(t, fx, FixtureSnapshot+"/nt.02.nsq")
	off := 8 + fetch.PackedLen(20)
	assert.Equal(t, []byte{0xEB, 0xC4, 0x12}, blob[off:off+3])
}

func TestNewFixtureDeterminism(t *testing.T) {
	fx1, err := NewFixture()
	require.NoError(t, err)
	fx2, err := NewFixture()
	require.NoError(t, err)

	require.Equal(t, len(fx1.Manifest.Artifacts), len(fx2.Manifest.Artifacts))
	for i, a := range fx1.Manifest.Artifacts {
		b := fx2.Manifest.Artifacts[i]
		assert.Equal(t, a.Name, b.Name)
		assert.Equal(t, a.Size, b.Size, a.Name)
		assert.Equal(t, a.CRC32C, b.CRC32C, a.Name)
	}
}

func readVolume(t *testing.T, fx *Fixture, key string) []byte {
	t.Helper()
	ctx := context.Background()

	b, err := fx.Volumes.Open(ctx, key)
	require.NoError(t, err, key)
	defer b.Close()

	rc, err := b.ReadRange(ctx, 0, b.Size())
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)

	return data
}
