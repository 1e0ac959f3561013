package build

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/hupe1980/taxgo/taxonomy"
)

// ErrMalformedRow is returned when a dump table row cannot be parsed.
type ErrMalformedRow struct {
	Line   int
	Reason string
}

func (e *ErrMalformedRow) Error() string {
	return fmt.Sprintf("build: malformed row at line %d: %s", e.Line, e.Reason)
}

// Node is one nodes.dmp row, reduced to the fields the index keeps.
type Node struct {
	TaxID            uint32
	ParentTaxID      uint32
	Rank             taxonomy.Rank
	Division         uint8
	SpecifiedSpecies bool
}

// Name is one names.dmp row. UniqueName is the disambiguated variant NCBI
// assigns when Name alone is claimed by several taxa, empty otherwise.
type Name struct {
	TaxID      uint32
	Name       string
	UniqueName string
	Class      string
}

// Name classes the index keeps. Common-name precedence for the record store
// is blast name, then GenBank common name, then common name.
const (
	ClassScientificName    = "scientific name"
	ClassBlastName         = "blast name"
	ClassGenbankCommonName = "genbank common name"
	ClassCommonName        = "common name"
)

// MergedNode is one merged.dmp row: OldTaxID was folded into NewTaxID.
type MergedNode struct {
	OldTaxID uint32
	NewTaxID uint32
}

// Host is one host.dmp row. PotentialHosts is the comma-separated host list
// exactly as published.
type Host struct {
	TaxID          uint32
	PotentialHosts string
}

// Nodes iterates nodes.dmp rows. Iteration stops at the first malformed row,
// which is yielded as an error.
func Nodes(r io.Reader) iter.Seq2[Node, error] {
	return func(yield func(Node, error) bool) {
		sc := newDmpScanner(r)
		line := 0
		for sc.Scan() {
			line++
			fields := splitDmpRow(sc.Text())
			if len(fields) < 5 {
				yield(Node{}, &ErrMalformedRow{Line: line, Reason: fmt.Sprintf("nodes row has %d fields", len(fields))})
				return
			}

			taxID, err := parseTaxID(fields[0])
			if err != nil {
				yield(Node{}, &ErrMalformedRow{Line: line, Reason: err.Error()})
				return
			}
			parent, err := parseTaxID(fields[1])
			if err != nil {
				yield(Node{}, &ErrMalformedRow{Line: line, Reason: err.Error()})
				return
			}
			rank, err := taxonomy.ParseRank(fields[2])
			if err != nil {
				yield(Node{}, &ErrMalformedRow{Line: line, Reason: err.Error()})
				return
			}
			division, err := strconv.ParseUint(fields[4], 10, 8)
			if err != nil {
				yield(Node{}, &ErrMalformedRow{Line: line, Reason: "division: " + err.Error()})
				return
			}

			// The specified_species flag exists only in the extended dump
			// flavor; its absence means unspecified.
			specified := len(fields) > 15 && fields[15] == "1"

			n := Node{
				TaxID:            taxID,
				ParentTaxID:      parent,
				Rank:             rank,
				Division:         uint8(division),
				SpecifiedSpecies: specified,
			}
			if !yield(n, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(Node{}, err)
		}
	}
}

// Names iterates names.dmp rows.
func Names(r io.Reader) iter.Seq2[Name, error] {
	return func(yield func(Name, error) bool) {
		sc := newDmpScanner(r)
		line := 0
		for sc.Scan() {
			line++
			fields := splitDmpRow(sc.Text())
			if len(fields) < 4 {
				yield(Name{}, &ErrMalformedRow{Line: line, Reason: fmt.Sprintf("names row has %d fields", len(fields))})
				return
			}

			taxID, err := parseTaxID(fields[0])
			if err != nil {
				yield(Name{}, &ErrMalformedRow{Line: line, Reason: err.Error()})
				return
			}

			n := Name{
				TaxID:      taxID,
				Name:       fields[1],
				UniqueName: fields[2],
				Class:      fields[3],
			}
			if !yield(n, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(Name{}, err)
		}
	}
}

// MergedNodes iterates merged.dmp rows.
func MergedNodes(r io.Reader) iter.Seq2[MergedNode, error] {
	return func(yield func(MergedNode, error) bool) {
		sc := newDmpScanner(r)
		line := 0
		for sc.Scan() {
			line++
			fields := splitDmpRow(sc.Text())
			if len(fields) < 2 {
				yield(MergedNode{}, &ErrMalformedRow{Line: line, Reason: fmt.Sprintf("merged row has %d fields", len(fields))})
				return
			}

			oldID, err := parseTaxID(fields[0])
			if err != nil {
				yield(MergedNode{}, &ErrMalformedRow{Line: line, Reason: err.Error()})
				return
			}
			newID, err := parseTaxID(fields[1])
			if err != nil {
				yield(MergedNode{}, &ErrMalformedRow{Line: line, Reason: err.Error()})
				return
			}

			if !yield(MergedNode{OldTaxID: oldID, NewTaxID: newID}, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(MergedNode{}, err)
		}
	}
}

// Hosts iterates host.dmp rows.
func Hosts(r io.Reader) iter.Seq2[Host, error] {
	return func(yield func(Host, error) bool) {
		sc := newDmpScanner(r)
		line := 0
		for sc.Scan() {
			line++
			fields := splitDmpRow(sc.Text())
			if len(fields) < 2 {
				yield(Host{}, &ErrMalformedRow{Line: line, Reason: fmt.Sprintf("host row has %d fields", len(fields))})
				return
			}

			taxID, err := parseTaxID(fields[0])
			if err != nil {
				yield(Host{}, &ErrMalformedRow{Line: line, Reason: err.Error()})
				return
			}

			if !yield(Host{TaxID: taxID, PotentialHosts: fields[1]}, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(Host{}, err)
		}
	}
}

func newDmpScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	return sc
}

// splitDmpRow splits a dump table row. Fields are separated by "\t|\t" and
// the row ends with a bare "\t|" terminator.
func splitDmpRow(row string) []string {
	fields := strings.Split(row, "\t|\t")
	if n := len(fields); n > 0 {
		fields[n-1] = strings.TrimSuffix(fields[n-1], "\t|")
	}
	return fields
}

func parseTaxID(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("tax id %q: %w", s, err)
	}
	return uint32(v), nil
}
