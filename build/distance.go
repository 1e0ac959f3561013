package build

import (
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
)

// EdgeLength is one row of the phylogenomic tree export: the branch length
// between a taxon and its parent.
type EdgeLength struct {
	TaxID  uint32
	Length float32
}

// EdgeLengths iterates a tab-separated (tax_id, edge_length) export.
// Blank lines and #-comment lines are skipped.
func EdgeLengths(r io.Reader) iter.Seq2[EdgeLength, error] {
	return func(yield func(EdgeLength, error) bool) {
		sc := newDmpScanner(r)
		line := 0
		for sc.Scan() {
			line++
			row := strings.TrimSpace(sc.Text())
			if row == "" || strings.HasPrefix(row, "#") {
				continue
			}

			fields := strings.Fields(row)
			if len(fields) < 2 {
				yield(EdgeLength{}, &ErrMalformedRow{Line: line, Reason: fmt.Sprintf("edge length row has %d fields", len(fields))})
				return
			}

			taxID, err := parseTaxID(fields[0])
			if err != nil {
				yield(EdgeLength{}, &ErrMalformedRow{Line: line, Reason: err.Error()})
				return
			}
			length, err := strconv.ParseFloat(fields[1], 32)
			if err != nil {
				yield(EdgeLength{}, &ErrMalformedRow{Line: line, Reason: "edge length: " + err.Error()})
				return
			}

			if !yield(EdgeLength{TaxID: taxID, Length: float32(length)}, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(EdgeLength{}, err)
		}
	}
}
