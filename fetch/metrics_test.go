package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taxgo/blobstore"
)

func TestBasicMetricsCollector(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	seq := syntheticSequence(64)
	loc := seedVolume(t, store, 0, 0, seq)

	metrics := &BasicMetricsCollector{}
	f := New(&failingStore{BlobStore: store, failures: 1}, fastRetry, func(o *Options) {
		o.Metrics = metrics
	})

	got, err := f.Fetch(ctx, loc)
	require.NoError(t, err)
	require.Equal(t, seq, got)

	var streamed int
	for chunk, err := range f.Stream(ctx, loc) {
		require.NoError(t, err)
		streamed += len(chunk)
	}
	require.Equal(t, len(seq), streamed)

	stats := metrics.Stats()
	assert.Equal(t, int64(1), stats.FetchCount)
	assert.Zero(t, stats.FetchErrors)
	assert.Equal(t, int64(64), stats.FetchBytes)
	assert.Equal(t, int64(1), stats.StreamCount)
	assert.Zero(t, stats.StreamErrors)
	assert.Equal(t, int64(64), stats.StreamBytes)
	assert.Equal(t, int64(1), stats.RetryCount)
}
