// Package keytrie implements a static, serialized byte trie for exact-match
// key lookup.
//
// A trie maps byte-string keys (accessions, names, decimal taxon IDs) to
// uint32 values (record indices). The serialized form is position-independent
// and consumed directly from a memory-mapped file: loading validates the
// header and does no parse pass, so open time is independent of key count.
//
// Lookups walk one node per key byte and binary-search the child block at
// each step, giving O(len(key) * log(fanout)) regardless of how many keys
// the trie holds.
package keytrie

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strconv"
)

const (
	// MagicNumber identifies serialized trie artifacts (ASCII: "TGTR").
	MagicNumber = 0x54475452
	// Version is the current trie format version.
	Version = 1

	// HeaderSize is the fixed artifact header length in bytes.
	HeaderSize = 16

	hasValueBit = 0x8000
	childSize   = 5 // label u8 + node offset u32
)

// Header layout (little-endian):
//
//	0  magic   u32
//	4  version u16
//	6  flags   u16
//	8  count   u32  number of keys
//	12 crc     u32  CRC32 (IEEE) of the node arena
//
// The node arena follows, root node at arena offset 0. Each node is
//
//	meta u16           low 15 bits child count, top bit value flag
//	value u32          present iff the value flag is set
//	children           count * (label u8, arena offset u32), sorted by label

// ErrInvalidMagic is returned when the artifact does not start with MagicNumber.
type ErrInvalidMagic struct {
	Got uint32
}

func (e *ErrInvalidMagic) Error() string {
	return fmt.Sprintf("keytrie: invalid magic number 0x%08x", e.Got)
}

// ErrInvalidVersion is returned for format versions this package cannot read.
type ErrInvalidVersion struct {
	Got uint16
}

func (e *ErrInvalidVersion) Error() string {
	return fmt.Sprintf("keytrie: unsupported format version %d", e.Got)
}

// ErrTruncated is returned when the artifact is shorter than its header demands.
type ErrTruncated struct {
	Size int
}

func (e *ErrTruncated) Error() string {
	return fmt.Sprintf("keytrie: truncated artifact (%d bytes)", e.Size)
}

// ErrChecksum is returned by Verify when the arena does not match the header CRC.
type ErrChecksum struct {
	Want, Got uint32
}

func (e *ErrChecksum) Error() string {
	return fmt.Sprintf("keytrie: checksum mismatch: header 0x%08x, arena 0x%08x", e.Want, e.Got)
}

// Trie is a read-only serialized trie. It does not own the backing bytes;
// when they come from a memory mapping the caller keeps the mapping open for
// the Trie's lifetime. Safe for concurrent readers.
type Trie struct {
	arena []byte
	count uint32
	crc   uint32
}

// Load wraps serialized trie bytes. Only the header is validated; use Verify
// for a full checksum pass.
func Load(data []byte) (*Trie, error) {
	if len(data) < HeaderSize {
		return nil, &ErrTruncated{Size: len(data)}
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != MagicNumber {
		return nil, &ErrInvalidMagic{Got: magic}
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != Version {
		return nil, &ErrInvalidVersion{Got: v}
	}
	count := binary.LittleEndian.Uint32(data[8:12])
	crc := binary.LittleEndian.Uint32(data[12:16])

	arena := data[HeaderSize:]
	if count > 0 && len(arena) < 2 {
		return nil, &ErrTruncated{Size: len(data)}
	}

	return &Trie{arena: arena, count: count, crc: crc}, nil
}

// Count returns the number of keys in the trie.
func (t *Trie) Count() int { return int(t.count) }

// Verify recomputes the arena checksum against the header.
// Cost is linear in the artifact size.
func (t *Trie) Verify() error {
	got := crc32.ChecksumIEEE(t.arena)
	if got != t.crc {
		return &ErrChecksum{Want: t.crc, Got: got}
	}
	return nil
}

// Lookup returns the value stored for key. Exact match only: prefixes of
// stored keys do not match. The bool reports whether the key is present.
func (t *Trie) Lookup(key string) (uint32, bool) {
	if t.count == 0 {
		return 0, false
	}

	off := 0
	for i := 0; i < len(key); i++ {
		next, ok := t.child(off, key[i])
		if !ok {
			return 0, false
		}
		off = next
	}
	return t.value(off)
}

// LookupUint32 looks up the decimal rendering of id. Taxon IDs share the trie
// machinery with string keys by storing their decimal form.
func (t *Trie) LookupUint32(id uint32) (uint32, bool) {
	var buf [10]byte
	key := strconv.AppendUint(buf[:0], uint64(id), 10)
	return t.Lookup(string(key))
}

// child binary-searches the child block of the node at off for label.
// Returns the child's arena offset.
func (t *Trie) child(off int, label byte) (int, bool) {
	if off < 0 || off+2 > len(t.arena) {
		return 0, false
	}
	meta := binary.LittleEndian.Uint16(t.arena[off:])
	n := int(meta &^ hasValueBit)
	off += 2
	if meta&hasValueBit != 0 {
		off += 4
	}
	if off+n*childSize > len(t.arena) {
		return 0, false
	}

	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		c := t.arena[off+mid*childSize]
		switch {
		case c == label:
			next := binary.LittleEndian.Uint32(t.arena[off+mid*childSize+1:])
			return int(next), true
		case c < label:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, false
}

// value returns the value stored at the node at off, if any.
func (t *Trie) value(off int) (uint32, bool) {
	if off < 0 || off+2 > len(t.arena) {
		return 0, false
	}
	meta := binary.LittleEndian.Uint16(t.arena[off:])
	if meta&hasValueBit == 0 {
		return 0, false
	}
	if off+6 > len(t.arena) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(t.arena[off+2:]), true
}
