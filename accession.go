package taxgo

import (
	"context"
	"iter"

	"github.com/hupe1980/taxgo/blastdb"
	"github.com/hupe1980/taxgo/fetch"
)

// Accession is a read-only view of one sequence accession record.
type Accession struct {
	db       *DB
	id       string
	rec      blastdb.AccessionRecord
	database blastdb.Database
}

// ID returns the accession as it was queried.
func (a *Accession) ID() string { return a.id }

// TaxID returns the taxon ID the sequence is classified under.
func (a *Accession) TaxID() uint32 { return a.rec.TaxID }

// Taxon returns the taxon the sequence is classified under.
func (a *Accession) Taxon() (*Taxon, error) {
	return a.db.TaxonByID(a.rec.TaxID)
}

// Database returns the sequence database the record came from.
func (a *Accession) Database() blastdb.Database { return a.database }

// SequenceLength returns the length of the sequence in bases.
func (a *Accession) SequenceLength() int { return int(a.rec.SeqLen) }

// Locate returns the locator of the sequence bytes in the highest-priority
// database holding the accession.
func (a *Accession) Locate() blastdb.Locator {
	return blastdb.Locator{
		Database:  a.database,
		Volume:    int(a.rec.Volume),
		Offset:    int64(a.rec.Offset),
		PackedLen: int(a.rec.PackedLen),
		SeqLen:    int(a.rec.SeqLen),
	}
}

// LocateAll returns a locator for every database mirroring the accession,
// in lookup priority order.
func (a *Accession) LocateAll() ([]blastdb.Locator, error) {
	locs, err := a.db.resolver.ResolveAll(a.id)
	if err != nil {
		return nil, translateError(err)
	}
	return locs, nil
}

// Fetch retrieves and decodes the whole sequence with a single ranged read
// against the volume object.
func (a *Accession) Fetch(ctx context.Context) ([]byte, error) {
	if a.db.fetcher == nil {
		return nil, ErrNoVolumeStore
	}
	return a.db.fetcher.Fetch(ctx, a.Locate())
}

// Stream returns an iterator over decoded sequence chunks. The volume is
// read lazily; breaking out of the iteration abandons the rest of the
// sequence. The iterator is single-use.
func (a *Accession) Stream(ctx context.Context, optFns ...func(o *fetch.StreamOptions)) iter.Seq2[[]byte, error] {
	if a.db.fetcher == nil {
		return func(yield func([]byte, error) bool) {
			yield(nil, ErrNoVolumeStore)
		}
	}
	return a.db.fetcher.Stream(ctx, a.Locate(), optFns...)
}

func (a *Accession) String() string {
	return a.id + "@" + a.database.String()
}
