package taxonomy

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned when an aggregate operation receives no taxa.
var ErrEmptyQuery = errors.New("taxonomy: empty taxon set")

// ErrTaxonNotFound indicates a taxon ID absent from the tree.
//
// Absent taxa always surface as this error, never as zero-valued records.
type ErrTaxonNotFound struct {
	TaxID uint32
}

func (e *ErrTaxonNotFound) Error() string {
	return fmt.Sprintf("taxonomy: taxon %d not found", e.TaxID)
}

// ErrDistanceUnknown indicates that no distance is defined between two taxa,
// because edge weights are absent for some edge on the connecting path or the
// tree carries no edge weights at all. A partial sum is never returned.
type ErrDistanceUnknown struct {
	A, B uint32
}

func (e *ErrDistanceUnknown) Error() string {
	return fmt.Sprintf("taxonomy: distance between %d and %d is unknown", e.A, e.B)
}

// ErrNoCommonAncestor indicates two taxa in disconnected components. Cannot
// happen with a well-formed single-root taxonomy; it guards against broken
// artifacts.
type ErrNoCommonAncestor struct {
	A, B uint32
}

func (e *ErrNoCommonAncestor) Error() string {
	return fmt.Sprintf("taxonomy: taxa %d and %d share no ancestor", e.A, e.B)
}

// ErrBrokenTree indicates referentially broken artifact data: a dangling
// parent reference, a parent cycle, or a record index out of range.
type ErrBrokenTree struct {
	TaxID  uint32
	Reason string
}

func (e *ErrBrokenTree) Error() string {
	return fmt.Sprintf("taxonomy: broken tree at taxon %d: %s", e.TaxID, e.Reason)
}
