package taxgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/taxgo/blastdb"
	"github.com/hupe1980/taxgo/manifest"
	"github.com/hupe1980/taxgo/taxonomy"
)

var (
	// ErrNotFound is returned when a taxon, a name or an accession is not
	// indexed in the loaded artifact set.
	ErrNotFound = errors.New("not found")

	// ErrNoValue is returned when a taxon exists but the requested attribute
	// was never indexed for it, like a common name or a host list. Distinct
	// from ErrNotFound: the taxon itself is known.
	ErrNoValue = errors.New("no value recorded")

	// ErrNoVolumeStore is returned by sequence retrieval when the DB was
	// opened without a volume store.
	ErrNoVolumeStore = errors.New("no volume store configured")
)

// translateError unifies subsystem lookup misses onto the package sentinels
// so callers can match with errors.Is without importing the subpackages.
// Everything else passes through unchanged, typed errors included.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	var tnf *taxonomy.ErrTaxonNotFound
	if errors.As(err, &tnf) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var anf *blastdb.ErrAccessionNotFound
	if errors.As(err, &anf) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, manifest.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return err
}
