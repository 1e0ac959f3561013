package recordstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/hupe1980/taxgo/codec"
)

const (
	// PoolMagic identifies string pool artifacts (ASCII: "TGSP").
	PoolMagic = 0x54475350
	// PoolVersion is the current string pool format version.
	PoolVersion = 1
	// PoolHeaderSize is the string pool header length in bytes.
	PoolHeaderSize = 24

	poolCodecNameLen = 8
)

// String pool header layout (little-endian):
//
//	0  magic   u32
//	4  version u16
//	6  flags   u16
//	8  codec   8 bytes, zero-padded codec name
//	16 rawSize u32  decompressed blob length
//	20 crc     u32  CRC32 (IEEE) of the compressed payload
//
// The compressed payload follows. The decompressed blob is a sequence of
// newline-terminated UTF-8 strings; offsets address the decompressed bytes.

// ErrUnknownCodec is returned when the header names a codec this build does
// not provide.
type ErrUnknownCodec struct {
	Name string
}

func (e *ErrUnknownCodec) Error() string {
	return fmt.Sprintf("recordstore: unknown pool codec %q", e.Name)
}

// StringPool is a read-only, loaded string pool. Safe for concurrent readers.
type StringPool struct {
	blob []byte
}

// LoadPool decodes a string pool artifact. The compressed payload is verified
// against the header CRC and decompressed; the decompressed size must match
// the header.
func LoadPool(data []byte) (*StringPool, error) {
	if len(data) < PoolHeaderSize {
		return nil, &ErrMalformed{Reason: fmt.Sprintf("short pool artifact (%d bytes)", len(data))}
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != PoolMagic {
		return nil, &ErrInvalidMagic{Want: PoolMagic, Got: magic}
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != PoolVersion {
		return nil, &ErrInvalidVersion{Got: v}
	}
	name := string(bytes.TrimRight(data[8:8+poolCodecNameLen], "\x00"))
	rawSize := int(binary.LittleEndian.Uint32(data[16:20]))
	crc := binary.LittleEndian.Uint32(data[20:24])

	c, ok := codec.ByName(name)
	if !ok {
		return nil, &ErrUnknownCodec{Name: name}
	}

	payload := data[PoolHeaderSize:]
	if got := crc32.ChecksumIEEE(payload); got != crc {
		return nil, &ErrChecksum{Want: crc, Got: got}
	}

	blob, err := c.Decompress(payload, rawSize)
	if err != nil {
		return nil, &ErrMalformed{Reason: fmt.Sprintf("pool payload does not decompress: %v", err)}
	}
	if len(blob) != rawSize {
		return nil, &ErrMalformed{
			Reason: fmt.Sprintf("decompressed pool is %d bytes, header says %d", len(blob), rawSize),
		}
	}

	return &StringPool{blob: blob}, nil
}

// At returns the string starting at byte offset off, which runs to the next
// newline. Offsets come from record fields; anything outside the blob or not
// at a string boundary produced by the builder is an error.
func (p *StringPool) At(off uint32) (string, error) {
	if off == NoString || int64(off) >= int64(len(p.blob)) {
		return "", &ErrOutOfBounds{Index: int(off), Count: len(p.blob)}
	}
	rest := p.blob[off:]
	i := bytes.IndexByte(rest, '\n')
	if i < 0 {
		return "", &ErrMalformed{Reason: fmt.Sprintf("unterminated string at offset %d", off)}
	}
	return string(rest[:i]), nil
}

// Size returns the decompressed blob length in bytes.
func (p *StringPool) Size() int { return len(p.blob) }

// PoolBuilder accumulates strings, deduplicating by content, and serializes
// them compressed. Not safe for concurrent use.
type PoolBuilder struct {
	codec   codec.Codec
	blob    []byte
	offsets map[string]uint32
}

// NewPoolBuilder creates a PoolBuilder using the given codec
// (codec.Default if nil).
func NewPoolBuilder(c codec.Codec) *PoolBuilder {
	if c == nil {
		c = codec.Default
	}
	return &PoolBuilder{codec: c, offsets: make(map[string]uint32)}
}

// Add appends s to the pool and returns its byte offset. Adding an
// already-present string returns the existing offset. Strings must not
// contain newlines.
func (b *PoolBuilder) Add(s string) (uint32, error) {
	if off, ok := b.offsets[s]; ok {
		return off, nil
	}
	if bytes.IndexByte([]byte(s), '\n') >= 0 {
		return 0, &ErrMalformed{Reason: fmt.Sprintf("pool string %q contains newline", s)}
	}
	off := uint32(len(b.blob))
	b.blob = append(b.blob, s...)
	b.blob = append(b.blob, '\n')
	b.offsets[s] = off
	return off, nil
}

// Build serializes the pool, header included.
func (b *PoolBuilder) Build() ([]byte, error) {
	if len(b.codec.Name()) > poolCodecNameLen {
		return nil, &ErrMalformed{Reason: fmt.Sprintf("codec name %q exceeds %d bytes", b.codec.Name(), poolCodecNameLen)}
	}
	payload, err := b.codec.Compress(b.blob)
	if err != nil {
		return nil, err
	}

	out := make([]byte, PoolHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], PoolMagic)
	binary.LittleEndian.PutUint16(out[4:6], PoolVersion)
	binary.LittleEndian.PutUint16(out[6:8], 0)
	copy(out[8:8+poolCodecNameLen], b.codec.Name())
	binary.LittleEndian.PutUint32(out[16:20], uint32(len(b.blob)))
	binary.LittleEndian.PutUint32(out[20:24], crc32.ChecksumIEEE(payload))
	copy(out[PoolHeaderSize:], payload)
	return out, nil
}

// WriteTo serializes the pool to w.
func (b *PoolBuilder) WriteTo(w io.Writer) (int64, error) {
	data, err := b.Build()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}
