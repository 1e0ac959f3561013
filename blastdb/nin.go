package blastdb

import (
	"encoding/binary"
	"fmt"
)

// VolumeIndexVersion is the only native volume index format version this
// package reads.
const VolumeIndexVersion = 5

// ErrIndexVersion is returned for volume index format versions other than
// VolumeIndexVersion.
type ErrIndexVersion struct {
	Got uint32
}

func (e *ErrIndexVersion) Error() string {
	return fmt.Sprintf("blastdb: unsupported volume index version %d (want %d)", e.Got, VolumeIndexVersion)
}

// ErrNotNucleotide is returned when a volume index describes a non-nucleotide
// database. Protein volumes cannot be decoded.
type ErrNotNucleotide struct {
	SeqType uint32
}

func (e *ErrNotNucleotide) Error() string {
	return fmt.Sprintf("blastdb: volume index sequence type %d is not nucleotide", e.SeqType)
}

// ErrMalformedIndex is returned when volume index bytes contradict their own
// structure.
type ErrMalformedIndex struct {
	Reason string
}

func (e *ErrMalformedIndex) Error() string {
	return "blastdb: malformed volume index: " + e.Reason
}

// VolumeIndex is a parsed native volume index file. It is a build-time
// input: construction re-encodes its offsets into accession records, and the
// native format is never consulted at query time.
type VolumeIndex struct {
	Title    string
	LMDBFile string
	Date     string
	Volume   int

	NumOIDs      int
	VolumeLength int64
	MaxSeqLen    int

	// HeaderOffsets and SeqOffsets each hold NumOIDs+1 entries; the byte
	// span of OID i is [SeqOffsets[i], SeqOffsets[i+1]).
	HeaderOffsets []uint32
	SeqOffsets    []uint32
}

// Extent returns the byte offset and packed length of the sequence at oid.
func (v *VolumeIndex) Extent(oid int) (offset, length uint32, err error) {
	if oid < 0 || oid >= v.NumOIDs {
		return 0, 0, &ErrMalformedIndex{Reason: fmt.Sprintf("oid %d out of range (%d oids)", oid, v.NumOIDs)}
	}
	start, end := v.SeqOffsets[oid], v.SeqOffsets[oid+1]
	if end < start {
		return 0, 0, &ErrMalformedIndex{Reason: fmt.Sprintf("oid %d spans backwards (%d..%d)", oid, start, end)}
	}
	return start, end - start, nil
}

// ParseVolumeIndex parses native volume index bytes.
//
// The format is big-endian throughout with one exception: the volume byte
// length is stored little-endian.
func ParseVolumeIndex(data []byte) (*VolumeIndex, error) {
	r := &ninReader{data: data}

	version, err := r.u32()
	if err != nil {
		return nil, err
	}
	if version != VolumeIndexVersion {
		return nil, &ErrIndexVersion{Got: version}
	}

	seqType, err := r.u32()
	if err != nil {
		return nil, err
	}
	if seqType != 0 {
		return nil, &ErrNotNucleotide{SeqType: seqType}
	}

	volume, err := r.u32()
	if err != nil {
		return nil, err
	}

	title, err := r.str()
	if err != nil {
		return nil, err
	}
	lmdbFile, err := r.str()
	if err != nil {
		return nil, err
	}
	date, err := r.str()
	if err != nil {
		return nil, err
	}

	numOIDs, err := r.u32()
	if err != nil {
		return nil, err
	}
	volumeLength, err := r.i64le()
	if err != nil {
		return nil, err
	}
	maxSeqLen, err := r.u32()
	if err != nil {
		return nil, err
	}

	headerOffsets, err := r.u32s(int(numOIDs) + 1)
	if err != nil {
		return nil, err
	}
	seqOffsets, err := r.u32s(int(numOIDs) + 1)
	if err != nil {
		return nil, err
	}

	return &VolumeIndex{
		Title:         title,
		LMDBFile:      lmdbFile,
		Date:          date,
		Volume:        int(volume),
		NumOIDs:       int(numOIDs),
		VolumeLength:  volumeLength,
		MaxSeqLen:     int(maxSeqLen),
		HeaderOffsets: headerOffsets,
		SeqOffsets:    seqOffsets,
	}, nil
}

// ninReader is a bounds-checked cursor over volume index bytes.
type ninReader struct {
	data []byte
	off  int
}

func (r *ninReader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, &ErrMalformedIndex{Reason: fmt.Sprintf("truncated at byte %d", r.off)}
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *ninReader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *ninReader) i64le() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (r *ninReader) str() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *ninReader) u32s(n int) ([]uint32, error) {
	b, err := r.take(n * 4)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.BigEndian.Uint32(b[i*4:])
	}
	return out, nil
}
