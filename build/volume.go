package build

import (
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
)

// AccessionRow is one row of a volume's accession table: the per-sequence
// export (accession, ordinal ID, sequence length, taxon ID) produced
// alongside each volume.
type AccessionRow struct {
	Accession string
	OID       int
	SeqLen    uint32
	TaxID     uint32
}

// AccessionRows iterates an accession table. Columns are whitespace
// separated; blank lines and #-comment lines are skipped.
func AccessionRows(r io.Reader) iter.Seq2[AccessionRow, error] {
	return func(yield func(AccessionRow, error) bool) {
		sc := newDmpScanner(r)
		line := 0
		for sc.Scan() {
			line++
			row := strings.TrimSpace(sc.Text())
			if row == "" || strings.HasPrefix(row, "#") {
				continue
			}

			fields := strings.Fields(row)
			if len(fields) < 4 {
				yield(AccessionRow{}, &ErrMalformedRow{Line: line, Reason: fmt.Sprintf("accession row has %d fields", len(fields))})
				return
			}

			oid, err := strconv.Atoi(fields[1])
			if err != nil || oid < 0 {
				yield(AccessionRow{}, &ErrMalformedRow{Line: line, Reason: fmt.Sprintf("ordinal id %q", fields[1])})
				return
			}
			seqLen, err := strconv.ParseUint(fields[2], 10, 32)
			if err != nil {
				yield(AccessionRow{}, &ErrMalformedRow{Line: line, Reason: "sequence length: " + err.Error()})
				return
			}
			taxID, err := parseTaxID(fields[3])
			if err != nil {
				yield(AccessionRow{}, &ErrMalformedRow{Line: line, Reason: err.Error()})
				return
			}

			a := AccessionRow{
				Accession: fields[0],
				OID:       oid,
				SeqLen:    uint32(seqLen),
				TaxID:     taxID,
			}
			if !yield(a, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(AccessionRow{}, err)
		}
	}
}
