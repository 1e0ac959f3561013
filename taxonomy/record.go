package taxonomy

import (
	"encoding/binary"
	"fmt"
)

// TaxonRecordSize is the fixed width of a serialized taxon record.
const TaxonRecordSize = 28

// Taxon record flags.
const (
	// FlagSpecifiedSpecies marks taxa whose species is fully specified
	// (nodes.dmp specified_species column).
	FlagSpecifiedSpecies = 0x01
)

// TaxonRecord is one row of the taxa record store.
//
// Layout (little-endian):
//
//	0  taxID       u32
//	4  parentTaxID u32   equal to taxID at the root
//	8  rank        u8
//	9  division    u8
//	10 flags       u8
//	11 pad         u8
//	12 sciName     u32   scientific name pool offset
//	16 commonName  u32   common name pool offset, NoString when unnamed
//	20 hosts       u32   hosts pool offset, NoString when absent
//	24 refseq      u32   refseq accession pool offset, NoString when absent
type TaxonRecord struct {
	TaxID            uint32
	ParentTaxID      uint32
	Rank             Rank
	Division         uint8
	Flags            uint8
	SciNameOffset    uint32
	CommonNameOffset uint32
	HostsOffset      uint32
	RefSeqOffset     uint32
}

// SpecifiedSpecies reports whether the specified-species flag is set.
func (r TaxonRecord) SpecifiedSpecies() bool {
	return r.Flags&FlagSpecifiedSpecies != 0
}

// IsRoot reports whether the record is its own parent.
func (r TaxonRecord) IsRoot() bool {
	return r.TaxID == r.ParentTaxID
}

// Encode serializes the record.
func (r TaxonRecord) Encode() []byte {
	b := make([]byte, TaxonRecordSize)
	binary.LittleEndian.PutUint32(b[0:4], r.TaxID)
	binary.LittleEndian.PutUint32(b[4:8], r.ParentTaxID)
	b[8] = uint8(r.Rank)
	b[9] = r.Division
	b[10] = r.Flags
	binary.LittleEndian.PutUint32(b[12:16], r.SciNameOffset)
	binary.LittleEndian.PutUint32(b[16:20], r.CommonNameOffset)
	binary.LittleEndian.PutUint32(b[20:24], r.HostsOffset)
	binary.LittleEndian.PutUint32(b[24:28], r.RefSeqOffset)
	return b
}

// DecodeTaxonRecord deserializes a record view.
func DecodeTaxonRecord(b []byte) (TaxonRecord, error) {
	if len(b) != TaxonRecordSize {
		return TaxonRecord{}, fmt.Errorf("taxonomy: taxon record is %d bytes, want %d", len(b), TaxonRecordSize)
	}
	return TaxonRecord{
		TaxID:            binary.LittleEndian.Uint32(b[0:4]),
		ParentTaxID:      binary.LittleEndian.Uint32(b[4:8]),
		Rank:             Rank(b[8]),
		Division:         b[9],
		Flags:            b[10],
		SciNameOffset:    binary.LittleEndian.Uint32(b[12:16]),
		CommonNameOffset: binary.LittleEndian.Uint32(b[16:20]),
		HostsOffset:      binary.LittleEndian.Uint32(b[20:24]),
		RefSeqOffset:     binary.LittleEndian.Uint32(b[24:28]),
	}, nil
}
