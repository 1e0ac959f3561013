package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/taxgo/fetch"
)

var na2Symbols = [4]byte{'A', 'C', 'G', 'T'}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Bases returns n random nucleotide symbols.
// Locks only once per call (preferred over calling Intn in a loop).
func (r *RNG) Bases(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := make([]byte, n)
	for i := range b {
		b[i] = na2Symbols[r.rand.Intn(4)]
	}
	return string(b)
}

// PackNa2 packs a nucleotide sequence into the 2-bit wire encoding: four
// bases per byte, most significant pair first, the remaining bases and their
// count in the final byte. The result is always len(seq)/4 + 1 bytes, the
// exact inverse of fetch.Decode.
func PackNa2(seq string) ([]byte, error) {
	out := make([]byte, 0, fetch.PackedLen(len(seq)))

	var cur byte
	n := 0
	for i := 0; i < len(seq); i++ {
		code, err := na2Code(seq[i])
		if err != nil {
			return nil, fmt.Errorf("testutil: position %d: %w", i, err)
		}
		cur = cur<<2 | code
		n++
		if n == 4 {
			out = append(out, cur)
			cur, n = 0, 0
		}
	}

	trailer := byte(n)
	if n > 0 {
		trailer |= cur << (2 * (4 - n))
	}
	return append(out, trailer), nil
}

func na2Code(base byte) (byte, error) {
	switch base {
	case 'A', 'a':
		return 0, nil
	case 'C', 'c':
		return 1, nil
	case 'G', 'g':
		return 2, nil
	case 'T', 't':
		return 3, nil
	}
	return 0, fmt.Errorf("base %q has no 2-bit code", base)
}
