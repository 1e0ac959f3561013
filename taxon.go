package taxgo

import (
	"fmt"
	"strings"

	"github.com/hupe1980/taxgo/recordstore"
	"github.com/hupe1980/taxgo/taxonomy"
)

// Taxon is a read-only view of one taxonomy node.
type Taxon struct {
	db  *DB
	rec taxonomy.TaxonRecord
}

// ID returns the NCBI taxon ID.
func (t *Taxon) ID() uint32 { return t.rec.TaxID }

// Rank returns the taxon's rank.
func (t *Taxon) Rank() taxonomy.Rank { return t.rec.Rank }

// SpecifiedSpecies reports whether the taxon's species is fully specified,
// as opposed to placeholder names like "Bacteria sp.".
func (t *Taxon) SpecifiedSpecies() bool { return t.rec.SpecifiedSpecies() }

// ScientificName returns the taxon's scientific name.
func (t *Taxon) ScientificName() (string, error) {
	if t.rec.SciNameOffset == recordstore.NoString {
		return "", fmt.Errorf("%w: taxon %d has no scientific name", ErrNoValue, t.rec.TaxID)
	}
	return t.db.sciPool.At(t.rec.SciNameOffset)
}

// CommonName returns the taxon's common name, or ErrNoValue when none was
// indexed for it.
func (t *Taxon) CommonName() (string, error) {
	if t.db.commonPool == nil || t.rec.CommonNameOffset == recordstore.NoString {
		return "", fmt.Errorf("%w: taxon %d has no common name", ErrNoValue, t.rec.TaxID)
	}
	return t.db.commonPool.At(t.rec.CommonNameOffset)
}

// Hosts returns the known hosts of a pathogen taxon, or ErrNoValue when no
// host list was indexed for it.
func (t *Taxon) Hosts() ([]string, error) {
	if t.db.hostsPool == nil || t.rec.HostsOffset == recordstore.NoString {
		return nil, fmt.Errorf("%w: taxon %d has no host list", ErrNoValue, t.rec.TaxID)
	}
	s, err := t.db.hostsPool.At(t.rec.HostsOffset)
	if err != nil {
		return nil, err
	}
	return strings.Split(s, ","), nil
}

// RepresentativeGenomeAccessions returns the accessions of the taxon's
// RefSeq representative genomes, or ErrNoValue when the taxon has none.
func (t *Taxon) RepresentativeGenomeAccessions() ([]string, error) {
	if t.db.refseqPool == nil || t.rec.RefSeqOffset == recordstore.NoString {
		return nil, fmt.Errorf("%w: taxon %d has no representative genome", ErrNoValue, t.rec.TaxID)
	}
	s, err := t.db.refseqPool.At(t.rec.RefSeqOffset)
	if err != nil {
		return nil, err
	}
	return strings.Split(s, ","), nil
}

// Parent returns the parent taxon, or nil at the root.
func (t *Taxon) Parent() (*Taxon, error) {
	if t.rec.IsRoot() {
		return nil, nil
	}
	return t.db.TaxonByID(t.rec.ParentTaxID)
}

// Children returns the direct child taxa.
func (t *Taxon) Children() ([]*Taxon, error) {
	ids, err := t.db.tree.Children(t.rec.TaxID)
	if err != nil {
		return nil, translateError(err)
	}
	return t.db.taxonViews(ids)
}

// Lineage returns the taxa from this taxon up to the root, self first.
func (t *Taxon) Lineage() ([]*Taxon, error) {
	ids, err := t.db.tree.Lineage(t.rec.TaxID)
	if err != nil {
		return nil, translateError(err)
	}
	return t.db.taxonViews(ids)
}

// RankedLineage returns the lineage filtered to the standard ranks, species
// through superkingdom, most specific first.
func (t *Taxon) RankedLineage() ([]*Taxon, error) {
	ids, err := t.db.tree.RankedLineage(t.rec.TaxID)
	if err != nil {
		return nil, translateError(err)
	}
	return t.db.taxonViews(ids)
}

func (t *Taxon) String() string {
	if name, err := t.ScientificName(); err == nil {
		return fmt.Sprintf("%d (%s)", t.rec.TaxID, name)
	}
	return fmt.Sprintf("%d", t.rec.TaxID)
}

func (db *DB) taxonViews(ids []uint32) ([]*Taxon, error) {
	out := make([]*Taxon, len(ids))
	for i, id := range ids {
		t, err := db.TaxonByID(id)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
