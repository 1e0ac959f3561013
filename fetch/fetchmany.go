package fetch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/taxgo/blastdb"
)

// FetchManyOptions configures a FetchMany call.
type FetchManyOptions struct {
	// Parallelism is the number of concurrent fetches.
	Parallelism int
}

// DefaultFetchManyOptions are the default FetchMany options.
var DefaultFetchManyOptions = FetchManyOptions{
	Parallelism: 8,
}

// FetchMany retrieves multiple sequences concurrently. Result i corresponds
// to locs[i]; completion order across locators is unspecified, each fetch
// being fully independent. The first failure cancels the remaining fetches
// and is returned.
func (f *Fetcher) FetchMany(ctx context.Context, locs []blastdb.Locator, optFns ...func(o *FetchManyOptions)) ([][]byte, error) {
	opts := DefaultFetchManyOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultFetchManyOptions.Parallelism
	}

	out := make([][]byte, len(locs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallelism)
	for i, loc := range locs {
		g.Go(func() error {
			seq, err := f.Fetch(ctx, loc)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", loc, err)
			}
			out[i] = seq
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
