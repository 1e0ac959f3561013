package fetch

import (
	"context"
	"errors"
	"io"
	"iter"
	"time"

	"github.com/hupe1980/taxgo/blastdb"
	"github.com/hupe1980/taxgo/blobstore"
)

// StreamOptions configures a single streamed fetch.
type StreamOptions struct {
	// ChunkBases overrides the fetcher's chunk size for this stream.
	ChunkBases int
}

// Stream returns an iterator over the sequence addressed by loc, decoded in
// chunks. Chunks are yielded in sequence order and the iterator is finite.
// The iterator supports early termination - stop iterating to abandon the
// rest of the range.
//
// Only the opening phase retries: once bases have been yielded, a failure is
// final, because resuming a ranged read could duplicate or drop bases. Each
// returned iterator is single-use.
//
// Example:
//
//	for chunk, err := range fetcher.Stream(ctx, loc) {
//	    if err != nil {
//	        return err
//	    }
//	    if _, err := w.Write(chunk); err != nil {
//	        return err
//	    }
//	}
func (f *Fetcher) Stream(ctx context.Context, loc blastdb.Locator, optFns ...func(o *StreamOptions)) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		start := time.Now()
		produced := 0

		fail := func(err error) {
			f.metrics.RecordStream(produced, time.Since(start), err)
			if f.logger != nil {
				f.logger.Debug("stream failed", "key", loc.ObjectKey(), "produced", produced, "error", err)
			}
			yield(nil, err)
		}

		opts := StreamOptions{ChunkBases: f.chunkBases}
		for _, fn := range optFns {
			fn(&opts)
		}
		chunkPacked := opts.ChunkBases / 4
		if chunkPacked < 1 {
			chunkPacked = 1
		}

		if err := validateLocator(loc); err != nil {
			fail(err)
			return
		}

		size := int64(loc.PackedLen)
		if err := f.throttle.Acquire(ctx, size); err != nil {
			fail(err)
			return
		}
		defer f.throttle.Release(size)

		key := loc.ObjectKey()
		blob, rc, err := f.openRange(ctx, loc, key)
		if err != nil {
			fail(err)
			return
		}
		defer blob.Close()
		defer rc.Close()

		buf := make([]byte, chunkPacked)
		remaining := loc.PackedLen

		// All but the final byte carry four bases each.
		for remaining > 1 {
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}

			n := min(chunkPacked, remaining-1)
			if _, err := io.ReadFull(rc, buf[:n]); err != nil {
				fail(err)
				return
			}

			out := decodeFull(make([]byte, 0, n*4), buf[:n])
			produced += len(out)
			if !yield(out, nil) {
				f.metrics.RecordStream(produced, time.Since(start), nil)
				return
			}
			remaining -= n
		}

		// The final byte holds the remainder bases and their count.
		if _, err := io.ReadFull(rc, buf[:1]); err != nil {
			fail(err)
			return
		}
		rem := int(buf[0] & 0x3)
		if produced+rem != loc.SeqLen {
			fail(&ErrDecodeMismatch{Declared: loc.SeqLen, Decoded: produced + rem})
			return
		}
		if rem > 0 {
			out := append(make([]byte, 0, rem), na2Table[buf[0]][:rem]...)
			produced += rem
			if !yield(out, nil) {
				f.metrics.RecordStream(produced, time.Since(start), nil)
				return
			}
		}
		f.metrics.RecordStream(produced, time.Since(start), nil)
	}
}

// openRange opens the volume blob and starts the ranged read, retrying
// transient failures. Nothing is consumed from the body here, so retrying
// is safe.
func (f *Fetcher) openRange(ctx context.Context, loc blastdb.Locator, key string) (blobstore.Blob, io.ReadCloser, error) {
	var (
		blob blobstore.Blob
		rc   io.ReadCloser
	)
	err := f.retryLoop(ctx, key, func(ctx context.Context) error {
		var err error
		blob, rc, err = f.tryOpenRange(ctx, loc, key)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return blob, rc, nil
}

func (f *Fetcher) tryOpenRange(ctx context.Context, loc blastdb.Locator, key string) (blobstore.Blob, io.ReadCloser, error) {
	blob, err := f.store.Open(ctx, key)
	if err != nil {
		return nil, nil, err
	}

	size := int64(loc.PackedLen)
	if end := loc.Offset + size; end > blob.Size() {
		blob.Close()
		return nil, nil, &ErrRange{Key: key, Offset: loc.Offset, Length: size, Size: blob.Size()}
	}

	rc, err := blob.ReadRange(ctx, loc.Offset, size)
	if err != nil {
		rangeErr := &ErrRange{Key: key, Offset: loc.Offset, Length: size, Size: blob.Size()}
		blob.Close()
		if errors.Is(err, blobstore.ErrInvalidRange) {
			return nil, nil, rangeErr
		}
		return nil, nil, err
	}
	return blob, rc, nil
}
