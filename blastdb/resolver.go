package blastdb

import (
	"fmt"

	"github.com/hupe1980/taxgo/keytrie"
	"github.com/hupe1980/taxgo/recordstore"
)

// Locator addresses one packed sequence: a byte range within a named volume
// object of a database snapshot. It carries everything a ranged read and the
// subsequent decode need.
type Locator struct {
	Database  Database
	Volume    int
	Offset    int64
	PackedLen int
	SeqLen    int
}

// ObjectKey returns the object key of the volume holding the sequence.
func (l Locator) ObjectKey() string {
	return l.Database.VolumeKey(l.Volume)
}

func (l Locator) String() string {
	return fmt.Sprintf("%s+%d:%d", l.ObjectKey(), l.Offset, l.PackedLen)
}

// ErrAccessionNotFound indicates an accession absent from every configured
// database.
type ErrAccessionNotFound struct {
	Accession string
}

func (e *ErrAccessionNotFound) Error() string {
	return fmt.Sprintf("blastdb: accession %q not found", e.Accession)
}

// Source is the loaded artifact pair of one database: the accession trie and
// the record store it indexes into.
type Source struct {
	Database Database
	Index    *keytrie.Trie
	Records  *recordstore.Store
}

// lookup resolves an accession within this source, trying the verbatim key
// first and the packed form second.
func (s *Source) lookup(accession string) (uint32, bool) {
	if idx, ok := s.Index.Lookup(accession); ok {
		return idx, true
	}
	if packed := PackAccession(accession); packed != accession {
		return s.Index.Lookup(packed)
	}
	return 0, false
}

func (s *Source) record(idx uint32) (AccessionRecord, error) {
	rec, err := s.Records.Record(int(idx))
	if err != nil {
		return AccessionRecord{}, err
	}
	return DecodeAccessionRecord(rec)
}

func (s *Source) locator(rec AccessionRecord) Locator {
	return Locator{
		Database:  s.Database,
		Volume:    int(rec.Volume),
		Offset:    int64(rec.Offset),
		PackedLen: int(rec.PackedLen),
		SeqLen:    int(rec.SeqLen),
	}
}

// Resolver maps accessions to locators across one or more databases,
// consulted in the order they were configured. Safe for concurrent readers.
type Resolver struct {
	sources []Source
}

// NewResolver creates a Resolver over the given sources. Source order is
// lookup priority.
func NewResolver(sources ...Source) (*Resolver, error) {
	for _, s := range sources {
		if s.Records.RecordSize() != AccessionRecordSize {
			return nil, fmt.Errorf("blastdb: %s store has %d-byte records, want %d", s.Database, s.Records.RecordSize(), AccessionRecordSize)
		}
	}
	return &Resolver{sources: sources}, nil
}

// Databases returns the configured databases in priority order.
func (r *Resolver) Databases() []Database {
	out := make([]Database, len(r.sources))
	for i, s := range r.sources {
		out[i] = s.Database
	}
	return out
}

// Lookup returns the accession record from the highest-priority database
// holding the accession, along with that database.
func (r *Resolver) Lookup(accession string) (AccessionRecord, Database, error) {
	for i := range r.sources {
		s := &r.sources[i]
		idx, ok := s.lookup(accession)
		if !ok {
			continue
		}
		rec, err := s.record(idx)
		if err != nil {
			return AccessionRecord{}, Database{}, err
		}
		return rec, s.Database, nil
	}
	return AccessionRecord{}, Database{}, &ErrAccessionNotFound{Accession: accession}
}

// Resolve returns the locator from the highest-priority database holding the
// accession.
func (r *Resolver) Resolve(accession string) (Locator, error) {
	for i := range r.sources {
		s := &r.sources[i]
		idx, ok := s.lookup(accession)
		if !ok {
			continue
		}
		rec, err := s.record(idx)
		if err != nil {
			return Locator{}, err
		}
		return s.locator(rec), nil
	}
	return Locator{}, &ErrAccessionNotFound{Accession: accession}
}

// ResolveAll returns one locator per database holding the accession, in
// priority order. Mirrored accessions yield multiple locators that agree on
// the sequence length.
func (r *Resolver) ResolveAll(accession string) ([]Locator, error) {
	var out []Locator
	for i := range r.sources {
		s := &r.sources[i]
		idx, ok := s.lookup(accession)
		if !ok {
			continue
		}
		rec, err := s.record(idx)
		if err != nil {
			return nil, err
		}
		out = append(out, s.locator(rec))
	}
	if len(out) == 0 {
		return nil, &ErrAccessionNotFound{Accession: accession}
	}
	return out, nil
}
