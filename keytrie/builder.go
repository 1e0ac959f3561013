package keytrie

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"sort"
	"strconv"
)

// ErrDuplicateKey is returned when a key is inserted twice.
// Key collisions indicate broken input data and abort the build.
type ErrDuplicateKey struct {
	Key string
}

func (e *ErrDuplicateKey) Error() string {
	return fmt.Sprintf("keytrie: duplicate key %q", e.Key)
}

type buildNode struct {
	children map[byte]*buildNode
	value    uint32
	hasValue bool
	offset   int
}

// Builder accumulates key/value pairs and serializes them into trie form.
// Keys may be inserted in any order; output is deterministic.
// Not safe for concurrent use.
type Builder struct {
	root  *buildNode
	count uint32
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{root: &buildNode{}}
}

// Insert adds a key. Inserting the same key twice fails with ErrDuplicateKey,
// even with an equal value.
func (b *Builder) Insert(key string, value uint32) error {
	n := b.root
	for i := 0; i < len(key); i++ {
		c := key[i]
		if n.children == nil {
			n.children = make(map[byte]*buildNode)
		}
		next, ok := n.children[c]
		if !ok {
			next = &buildNode{}
			n.children[c] = next
		}
		n = next
	}
	if n.hasValue {
		return &ErrDuplicateKey{Key: key}
	}
	n.value = value
	n.hasValue = true
	b.count++
	return nil
}

// InsertUint32 adds the decimal rendering of id as a key.
func (b *Builder) InsertUint32(id uint32, value uint32) error {
	return b.Insert(strconv.FormatUint(uint64(id), 10), value)
}

// Count returns the number of keys inserted so far.
func (b *Builder) Count() int { return int(b.count) }

// Build serializes the trie, header included.
func (b *Builder) Build() []byte {
	arenaSize := assignOffsets(b.root, 0)

	out := make([]byte, HeaderSize+arenaSize)
	writeNode(b.root, out[HeaderSize:])

	binary.LittleEndian.PutUint32(out[0:4], MagicNumber)
	binary.LittleEndian.PutUint16(out[4:6], Version)
	binary.LittleEndian.PutUint16(out[6:8], 0)
	binary.LittleEndian.PutUint32(out[8:12], b.count)
	binary.LittleEndian.PutUint32(out[12:16], crc32.ChecksumIEEE(out[HeaderSize:]))
	return out
}

// WriteTo serializes the trie to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	data := b.Build()
	n, err := w.Write(data)
	return int64(n), err
}

// assignOffsets lays nodes out in pre-order and returns the total arena size.
// Recursion depth is bounded by the longest key.
func assignOffsets(n *buildNode, off int) int {
	n.offset = off
	size := 2
	if n.hasValue {
		size += 4
	}
	size += len(n.children) * childSize
	off += size

	for _, c := range sortedLabels(n.children) {
		off = assignOffsets(n.children[c], off)
	}
	return off
}

func writeNode(n *buildNode, arena []byte) {
	off := n.offset
	meta := uint16(len(n.children))
	if n.hasValue {
		meta |= hasValueBit
	}
	binary.LittleEndian.PutUint16(arena[off:], meta)
	off += 2
	if n.hasValue {
		binary.LittleEndian.PutUint32(arena[off:], n.value)
		off += 4
	}
	for _, c := range sortedLabels(n.children) {
		child := n.children[c]
		arena[off] = c
		binary.LittleEndian.PutUint32(arena[off+1:], uint32(child.offset))
		off += childSize
		writeNode(child, arena)
	}
}

func sortedLabels(children map[byte]*buildNode) []byte {
	labels := make([]byte, 0, len(children))
	for c := range children {
		labels = append(labels, c)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}
