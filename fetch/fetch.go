// Package fetch retrieves packed sequences from remote database volumes via
// ranged reads and decodes them into nucleotide strings.
//
// Every fetch is a single bounded ranged read: the locator carries the exact
// byte extent, so no volume is ever downloaded whole. Transient transport
// failures are retried with jittered exponential backoff; corruption-class
// failures (ranges beyond the volume extent, length disagreements after
// decode) are surfaced immediately.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jpillora/backoff"

	"github.com/hupe1980/taxgo/blastdb"
	"github.com/hupe1980/taxgo/blobstore"
)

// ErrTransport wraps the last transport failure after the retry budget is
// exhausted.
type ErrTransport struct {
	Key      string
	Attempts int
	Err      error
}

func (e *ErrTransport) Error() string {
	return fmt.Sprintf("fetch: %s failed after %d attempts: %v", e.Key, e.Attempts, e.Err)
}

func (e *ErrTransport) Unwrap() error { return e.Err }

// ErrRange indicates a locator whose byte extent falls outside its volume
// object. The artifacts disagree with the remote volume; retrying cannot
// help.
type ErrRange struct {
	Key    string
	Offset int64
	Length int64
	Size   int64
}

func (e *ErrRange) Error() string {
	return fmt.Sprintf("fetch: range %d+%d beyond %s (%d bytes)", e.Offset, e.Length, e.Key, e.Size)
}

// RetryPolicy bounds the retry behavior of a single fetch call.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, the first included.
	MaxAttempts int
	// MinBackoff is the delay before the first retry.
	MinBackoff time.Duration
	// MaxBackoff caps the delay between retries.
	MaxBackoff time.Duration
	// Factor is the backoff multiplier between retries.
	Factor float64
	// Jitter randomizes the delays to spread retry bursts.
	Jitter bool
}

// DefaultRetryPolicy is the retry policy used when none is configured.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 4,
	MinBackoff:  100 * time.Millisecond,
	MaxBackoff:  5 * time.Second,
	Factor:      2,
	Jitter:      true,
}

func (p RetryPolicy) backoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    p.MinBackoff,
		Max:    p.MaxBackoff,
		Factor: p.Factor,
		Jitter: p.Jitter,
	}
}

// Options configures a Fetcher.
type Options struct {
	// Retry bounds per-call retry behavior.
	Retry RetryPolicy
	// Throttle bounds the load on the remote mirror. Nil enforces nothing.
	Throttle *Throttle
	// ChunkBases is the number of bases decoded per streamed chunk.
	ChunkBases int
	// Logger receives fetch diagnostics.
	Logger *slog.Logger
	// Metrics receives fetch metrics.
	Metrics MetricsCollector
}

// DefaultOptions are the default Fetcher options.
var DefaultOptions = Options{
	Retry:      DefaultRetryPolicy,
	ChunkBases: 1 << 16,
}

// Fetcher retrieves sequences addressed by locators from a blob store.
// Safe for concurrent use; each call owns its request lifecycle.
type Fetcher struct {
	store      blobstore.BlobStore
	retry      RetryPolicy
	throttle   *Throttle
	chunkBases int
	logger     *slog.Logger
	metrics    MetricsCollector
}

// New creates a Fetcher reading volume objects from the given store.
func New(store blobstore.BlobStore, optFns ...func(o *Options)) *Fetcher {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry.MaxAttempts = 1
	}
	if opts.ChunkBases <= 0 {
		opts.ChunkBases = DefaultOptions.ChunkBases
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetricsCollector{}
	}

	return &Fetcher{
		store:      store,
		retry:      opts.Retry,
		throttle:   opts.Throttle,
		chunkBases: opts.ChunkBases,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// Fetch retrieves and decodes the sequence addressed by loc. The decoded
// length must match the locator's declared length exactly.
func (f *Fetcher) Fetch(ctx context.Context, loc blastdb.Locator) ([]byte, error) {
	start := time.Now()

	seq, err := f.fetch(ctx, loc)

	f.metrics.RecordFetch(len(seq), time.Since(start), err)
	if err != nil {
		if f.logger != nil {
			f.logger.Debug("fetch failed", "key", loc.ObjectKey(), "offset", loc.Offset, "error", err)
		}
		return nil, err
	}
	return seq, nil
}

func (f *Fetcher) fetch(ctx context.Context, loc blastdb.Locator) ([]byte, error) {
	if err := validateLocator(loc); err != nil {
		return nil, err
	}

	packed, err := f.fetchPacked(ctx, loc)
	if err != nil {
		return nil, err
	}
	return Decode(packed, loc.SeqLen)
}

// fetchPacked performs the ranged read under the retry budget. The whole
// attempt restarts on transient failure, short body reads included.
func (f *Fetcher) fetchPacked(ctx context.Context, loc blastdb.Locator) ([]byte, error) {
	key := loc.ObjectKey()

	var packed []byte
	err := f.retryLoop(ctx, key, func(ctx context.Context) error {
		var err error
		packed, err = f.readRange(ctx, loc, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return packed, nil
}

// retryLoop runs op under the retry budget with jittered exponential
// backoff. Non-retryable failures surface immediately; exhausting the
// budget yields ErrTransport wrapping the last failure.
func (f *Fetcher) retryLoop(ctx context.Context, key string, op func(ctx context.Context) error) error {
	b := f.retry.backoff()

	var lastErr error
	for attempt := 1; attempt <= f.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			f.metrics.RecordRetry()
			if err := sleep(ctx, b.Duration()); err != nil {
				return err
			}
			if f.logger != nil {
				f.logger.Debug("retrying fetch", "key", key, "attempt", attempt, "error", lastErr)
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}
	return &ErrTransport{Key: key, Attempts: f.retry.MaxAttempts, Err: lastErr}
}

// readRange performs one ranged read attempt of the locator's full extent.
func (f *Fetcher) readRange(ctx context.Context, loc blastdb.Locator, key string) ([]byte, error) {
	size := int64(loc.PackedLen)
	if err := f.throttle.Acquire(ctx, size); err != nil {
		return nil, err
	}
	defer f.throttle.Release(size)

	blob, rc, err := f.tryOpenRange(ctx, loc, key)
	if err != nil {
		return nil, err
	}
	defer blob.Close()
	defer rc.Close()

	packed := make([]byte, loc.PackedLen)
	if _, err := io.ReadFull(rc, packed); err != nil {
		return nil, err
	}
	return packed, nil
}

func validateLocator(loc blastdb.Locator) error {
	if loc.PackedLen <= 0 || loc.SeqLen < 0 || loc.Offset < 0 {
		return &ErrMalformedSequence{Reason: fmt.Sprintf("locator %s declares no extent", loc)}
	}
	if PackedLen(loc.SeqLen) != loc.PackedLen {
		return &ErrMalformedSequence{
			Reason: fmt.Sprintf("%d packed bytes cannot hold %d bases", loc.PackedLen, loc.SeqLen),
		}
	}
	return nil
}

// retryable reports whether another attempt could succeed. Cancellation,
// missing volumes, extent violations and decode disagreements are final.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, blobstore.ErrInvalidRange) {
		return false
	}
	var rangeErr *ErrRange
	return !errors.As(err, &rangeErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
