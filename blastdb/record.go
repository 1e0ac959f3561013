package blastdb

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// AccessionRecordSize is the fixed width of a serialized accession record.
const AccessionRecordSize = 20

// AccessionRecord is one row of a per-database accession record store.
//
// Layout (little-endian):
//
//	0  taxID     u32
//	4  db        u8
//	5  volume    u8
//	6  pad       u16
//	8  offset    u32  byte offset of the packed sequence within the volume
//	12 packedLen u32  packed byte length, seqLen/4 + 1
//	16 seqLen    u32  declared sequence length in bases
type AccessionRecord struct {
	TaxID     uint32
	Database  DatabaseID
	Volume    uint8
	Offset    uint32
	PackedLen uint32
	SeqLen    uint32
}

// Encode serializes the record.
func (r AccessionRecord) Encode() []byte {
	b := make([]byte, AccessionRecordSize)
	binary.LittleEndian.PutUint32(b[0:4], r.TaxID)
	b[4] = uint8(r.Database)
	b[5] = r.Volume
	binary.LittleEndian.PutUint32(b[8:12], r.Offset)
	binary.LittleEndian.PutUint32(b[12:16], r.PackedLen)
	binary.LittleEndian.PutUint32(b[16:20], r.SeqLen)
	return b
}

// DecodeAccessionRecord deserializes a record view.
func DecodeAccessionRecord(b []byte) (AccessionRecord, error) {
	if len(b) != AccessionRecordSize {
		return AccessionRecord{}, fmt.Errorf("blastdb: accession record is %d bytes, want %d", len(b), AccessionRecordSize)
	}
	return AccessionRecord{
		TaxID:     binary.LittleEndian.Uint32(b[0:4]),
		Database:  DatabaseID(b[4]),
		Volume:    b[5],
		Offset:    binary.LittleEndian.Uint32(b[8:12]),
		PackedLen: binary.LittleEndian.Uint32(b[12:16]),
		SeqLen:    binary.LittleEndian.Uint32(b[16:20]),
	}, nil
}

// PackAccession returns the storage form of an accession: a trailing ".1"
// version suffix is dropped, so the overwhelmingly common first version
// costs no key bytes. Later versions keep their suffix and stay distinct
// keys.
func PackAccession(accession string) string {
	if s, ok := strings.CutSuffix(accession, ".1"); ok {
		return s
	}
	return accession
}
