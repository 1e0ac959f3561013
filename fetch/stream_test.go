package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taxgo/blastdb"
	"github.com/hupe1980/taxgo/blobstore"
)

func collectStream(t *testing.T, f *Fetcher, loc blastdb.Locator, optFns ...func(o *StreamOptions)) [][]byte {
	t.Helper()

	var chunks [][]byte
	for chunk, err := range f.Stream(context.Background(), loc, optFns...) {
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
	return chunks
}

func concat(chunks [][]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func TestStream(t *testing.T) {
	store := blobstore.NewMemoryStore()
	seq := syntheticSequence(1003)
	loc := seedVolume(t, store, 0, 512, seq)

	metrics := &recordingMetrics{}
	f := New(store, fastRetry, func(o *Options) {
		o.ChunkBases = 64
		o.Metrics = metrics
	})

	chunks := collectStream(t, f, loc)
	assert.Equal(t, seq, concat(chunks))

	// 250 full packed bytes in 64-base chunks, then the 3 remainder bases.
	require.Len(t, chunks, 17)
	for _, c := range chunks[:15] {
		assert.Len(t, c, 64)
	}
	assert.Len(t, chunks[15], 40)
	assert.Len(t, chunks[16], 3)

	stats := metrics.snapshot()
	assert.Equal(t, 1, stats.streams)
	assert.Equal(t, 1003, stats.streamBytes)
}

func TestStreamMatchesFetch(t *testing.T) {
	store := blobstore.NewMemoryStore()
	f := New(store, fastRetry)

	for _, n := range []int{0, 1, 4, 63, 64, 65, 4096, 4099} {
		seq := syntheticSequence(n)
		loc := seedVolume(t, store, n%10, 0, seq)

		fetched, err := f.Fetch(context.Background(), loc)
		require.NoError(t, err, "length %d", n)
		streamed := concat(collectStream(t, f, loc, func(o *StreamOptions) { o.ChunkBases = 256 }))
		assert.Equal(t, fetched, streamed, "length %d", n)
	}
}

func TestStreamChunkOption(t *testing.T) {
	store := blobstore.NewMemoryStore()
	seq := syntheticSequence(100)
	loc := seedVolume(t, store, 0, 0, seq)

	f := New(store, fastRetry)
	chunks := collectStream(t, f, loc, func(o *StreamOptions) { o.ChunkBases = 8 })

	assert.Equal(t, seq, concat(chunks))
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 8, "chunk %d", i)
	}
}

func TestStreamEarlyTermination(t *testing.T) {
	store := blobstore.NewMemoryStore()
	seq := syntheticSequence(4096)
	loc := seedVolume(t, store, 0, 0, seq)

	metrics := &recordingMetrics{}
	f := New(store, fastRetry, func(o *Options) {
		o.ChunkBases = 64
		o.Metrics = metrics
	})

	var got []byte
	for chunk, err := range f.Stream(context.Background(), loc) {
		require.NoError(t, err)
		got = append(got, chunk...)
		if len(got) >= 128 {
			break
		}
	}

	assert.Equal(t, seq[:128], got)
	stats := metrics.snapshot()
	assert.Equal(t, 1, stats.streams)
	assert.Equal(t, 128, stats.streamBytes)
}

func TestStreamCancellationMidStream(t *testing.T) {
	store := blobstore.NewMemoryStore()
	seq := syntheticSequence(4096)
	loc := seedVolume(t, store, 0, 0, seq)

	f := New(store, fastRetry, func(o *Options) { o.ChunkBases = 64 })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var chunks int
	var streamErr error
	for chunk, err := range f.Stream(ctx, loc) {
		if err != nil {
			streamErr = err
			break
		}
		require.NotEmpty(t, chunk)
		chunks++
		cancel()
	}

	assert.Equal(t, 1, chunks, "one chunk before the cancellation lands")
	require.ErrorIs(t, streamErr, context.Canceled)
}

func TestStreamOpenRetried(t *testing.T) {
	inner := blobstore.NewMemoryStore()
	seq := syntheticSequence(500)
	loc := seedVolume(t, inner, 0, 0, seq)

	metrics := &recordingMetrics{}
	store := &failingStore{BlobStore: inner, failures: 1}
	f := New(store, fastRetry, func(o *Options) { o.Metrics = metrics })

	chunks := collectStream(t, f, loc)
	assert.Equal(t, seq, concat(chunks))
	assert.Equal(t, 1, metrics.snapshot().retries)
}

func TestStreamRangeError(t *testing.T) {
	store := blobstore.NewMemoryStore()
	seq := syntheticSequence(100)
	loc := seedVolume(t, store, 0, 0, seq)
	loc.Offset = 1 << 20

	f := New(store, fastRetry)

	var streamErr error
	for _, err := range f.Stream(context.Background(), loc) {
		streamErr = err
		break
	}
	var rangeErr *ErrRange
	require.ErrorAs(t, streamErr, &rangeErr)
}

func TestStreamTrailingMismatch(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	// Final byte declares 1 remainder base; the locator expects 2 more.
	require.NoError(t, store.Put(ctx, testDB.VolumeKey(0), []byte{0xEB, 0xC4, 0x11}))
	loc := blastdb.Locator{Database: testDB, Volume: 0, Offset: 0, PackedLen: 3, SeqLen: 10}

	f := New(store, fastRetry, func(o *Options) { o.ChunkBases = 4 })

	var bases int
	var streamErr error
	for chunk, err := range f.Stream(ctx, loc) {
		if err != nil {
			streamErr = err
			break
		}
		bases += len(chunk)
	}

	assert.Equal(t, 8, bases, "full bytes decode before the trailer check")
	var mismatchErr *ErrDecodeMismatch
	require.ErrorAs(t, streamErr, &mismatchErr)
	assert.Equal(t, 10, mismatchErr.Declared)
	assert.Equal(t, 9, mismatchErr.Decoded)
}
