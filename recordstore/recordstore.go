// Package recordstore implements the two flat storage primitives behind the
// taxonomy artifacts: fixed-width record arrays addressed by index, and
// newline-delimited string pools addressed by byte offset.
//
// Record arrays are consumed directly from memory-mapped bytes with no parse
// pass. String pools are stored compressed (the header names the codec) and
// are decompressed once at load; offsets address the decompressed blob.
package recordstore

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

const (
	// RecordMagic identifies record array artifacts (ASCII: "TGRS").
	RecordMagic = 0x54475253
	// RecordVersion is the current record array format version.
	RecordVersion = 1
	// RecordHeaderSize is the record array header length in bytes.
	RecordHeaderSize = 20

	// NoString marks a record field with no pool entry. Readers surface it as
	// a typed no-value error, never as an empty string.
	NoString = uint32(0xFFFFFFFF)
)

// Record array header layout (little-endian):
//
//	0  magic      u32
//	4  version    u16
//	6  flags      u16
//	8  recordSize u32
//	12 count      u32
//	16 crc        u32  CRC32 (IEEE) of the record data
//
// Records follow back to back; record i occupies
// [i*recordSize, (i+1)*recordSize) of the data section.

// ErrInvalidMagic is returned when the artifact does not carry the expected magic.
type ErrInvalidMagic struct {
	Want, Got uint32
}

func (e *ErrInvalidMagic) Error() string {
	return fmt.Sprintf("recordstore: invalid magic number 0x%08x (want 0x%08x)", e.Got, e.Want)
}

// ErrInvalidVersion is returned for format versions this package cannot read.
type ErrInvalidVersion struct {
	Got uint16
}

func (e *ErrInvalidVersion) Error() string {
	return fmt.Sprintf("recordstore: unsupported format version %d", e.Got)
}

// ErrMalformed is returned when the artifact shape contradicts its header.
type ErrMalformed struct {
	Reason string
}

func (e *ErrMalformed) Error() string {
	return "recordstore: malformed artifact: " + e.Reason
}

// ErrChecksum is returned when stored and computed CRCs disagree.
type ErrChecksum struct {
	Want, Got uint32
}

func (e *ErrChecksum) Error() string {
	return fmt.Sprintf("recordstore: checksum mismatch: header 0x%08x, data 0x%08x", e.Want, e.Got)
}

// ErrOutOfBounds is returned for record or pool offsets outside the artifact.
type ErrOutOfBounds struct {
	Index, Count int
}

func (e *ErrOutOfBounds) Error() string {
	return fmt.Sprintf("recordstore: index %d out of bounds (count %d)", e.Index, e.Count)
}

// Store is a read-only fixed-width record array. It does not own the backing
// bytes. Safe for concurrent readers.
type Store struct {
	data       []byte
	recordSize int
	count      int
	crc        uint32
}

// Load wraps serialized record array bytes. The header and total size are
// validated; use Verify for a full checksum pass.
func Load(data []byte) (*Store, error) {
	if len(data) < RecordHeaderSize {
		return nil, &ErrMalformed{Reason: fmt.Sprintf("short artifact (%d bytes)", len(data))}
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != RecordMagic {
		return nil, &ErrInvalidMagic{Want: RecordMagic, Got: magic}
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != RecordVersion {
		return nil, &ErrInvalidVersion{Got: v}
	}
	recordSize := int(binary.LittleEndian.Uint32(data[8:12]))
	count := int(binary.LittleEndian.Uint32(data[12:16]))
	crc := binary.LittleEndian.Uint32(data[16:20])

	if recordSize <= 0 {
		return nil, &ErrMalformed{Reason: "record size is zero"}
	}
	body := data[RecordHeaderSize:]
	if len(body) != recordSize*count {
		return nil, &ErrMalformed{
			Reason: fmt.Sprintf("data length %d does not match %d records of %d bytes", len(body), count, recordSize),
		}
	}

	return &Store{data: body, recordSize: recordSize, count: count, crc: crc}, nil
}

// Count returns the number of records.
func (s *Store) Count() int { return s.count }

// RecordSize returns the fixed record width in bytes.
func (s *Store) RecordSize() int { return s.recordSize }

// Record returns a view of record i. The slice aliases the backing bytes and
// must not be modified.
func (s *Store) Record(i int) ([]byte, error) {
	if i < 0 || i >= s.count {
		return nil, &ErrOutOfBounds{Index: i, Count: s.count}
	}
	off := i * s.recordSize
	return s.data[off : off+s.recordSize], nil
}

// Verify recomputes the data checksum against the header.
func (s *Store) Verify() error {
	got := crc32.ChecksumIEEE(s.data)
	if got != s.crc {
		return &ErrChecksum{Want: s.crc, Got: got}
	}
	return nil
}

// Writer accumulates fixed-width records and serializes them with a header.
// Not safe for concurrent use.
type Writer struct {
	recordSize int
	buf        []byte
	count      uint32
}

// NewWriter creates a Writer for records of the given width.
func NewWriter(recordSize int) *Writer {
	return &Writer{recordSize: recordSize}
}

// Append adds one record. The record must be exactly the configured width.
func (w *Writer) Append(rec []byte) error {
	if len(rec) != w.recordSize {
		return &ErrMalformed{
			Reason: fmt.Sprintf("record length %d does not match record size %d", len(rec), w.recordSize),
		}
	}
	w.buf = append(w.buf, rec...)
	w.count++
	return nil
}

// Count returns the number of records appended so far.
func (w *Writer) Count() int { return int(w.count) }

// Build serializes the record array, header included.
func (w *Writer) Build() []byte {
	out := make([]byte, RecordHeaderSize+len(w.buf))
	binary.LittleEndian.PutUint32(out[0:4], RecordMagic)
	binary.LittleEndian.PutUint16(out[4:6], RecordVersion)
	binary.LittleEndian.PutUint16(out[6:8], 0)
	binary.LittleEndian.PutUint32(out[8:12], uint32(w.recordSize))
	binary.LittleEndian.PutUint32(out[12:16], w.count)
	binary.LittleEndian.PutUint32(out[16:20], crc32.ChecksumIEEE(w.buf))
	copy(out[RecordHeaderSize:], w.buf)
	return out
}

// WriteTo serializes the record array to w.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	data := w.Build()
	n, err := dst.Write(data)
	return int64(n), err
}
