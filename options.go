package taxgo

import (
	"log/slog"

	"github.com/hupe1980/taxgo/blobstore"
	"github.com/hupe1980/taxgo/fetch"
)

type options struct {
	databases   []string
	volumeStore blobstore.BlobStore
	ncbiVolumes bool
	fetchOptFns []func(o *fetch.Options)
	logger      *slog.Logger
}

// Option configures Open behavior.
type Option func(*options)

// WithDatabases restricts and orders the sequence databases loaded from the
// catalog. The given order is the accession lookup priority. By default
// every database the catalog covers is loaded, in catalog order.
//
// Naming a database the catalog does not cover fails the open.
func WithDatabases(names ...string) Option {
	return func(o *options) {
		o.databases = names
	}
}

// WithVolumeStore configures the blob store holding the BLAST volume
// objects sequences are fetched from. Without one the DB answers metadata
// queries only and sequence retrieval returns ErrNoVolumeStore.
func WithVolumeStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.volumeStore = store
	}
}

// WithNCBIVolumes fetches sequences from the public NCBI mirror bucket
// with anonymous credentials. Shorthand for WithVolumeStore with an
// s3blob.NewNCBIStore. WithVolumeStore wins when both are given.
func WithNCBIVolumes() Option {
	return func(o *options) {
		o.ncbiVolumes = true
	}
}

// WithFetchOptions forwards options to the sequence fetcher, like the
// retry policy or a bytes/sec throttle.
//
// Example:
//
//	db, err := taxgo.Open(ctx, "./artifacts",
//	    taxgo.WithNCBIVolumes(),
//	    taxgo.WithFetchOptions(func(o *fetch.Options) {
//	        o.Retry.MaxAttempts = 8
//	        o.Throttle = fetch.NewThrottle(fetch.ThrottleConfig{BytesPerSec: 4 << 20})
//	    }))
func WithFetchOptions(optFns ...func(o *fetch.Options)) Option {
	return func(o *options) {
		o.fetchOptFns = append(o.fetchOptFns, optFns...)
	}
}

// WithLogger configures structured logging for open and fetch diagnostics.
// The logger is handed down to the sequence fetcher. Nil disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func applyOptions(optFns []Option) options {
	o := options{}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
