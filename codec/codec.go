// Package codec centralizes compression of persisted string pools.
//
// Taxgo intentionally treats codec selection as a breaking-change boundary:
// if you change codecs, artifacts created by older codecs may no longer decode.
// Artifact headers store the codec name, so readers select the codec by name.
package codec

import "fmt"

// Codec compresses/decompresses artifact payloads.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Compress returns the compressed form of src.
	Compress(src []byte) ([]byte, error)

	// Decompress expands src. If the original size is known it is passed as a
	// capacity hint; implementations may ignore it.
	Decompress(src []byte, sizeHint int) ([]byte, error)

	// Name returns the stable name recorded in artifact headers.
	Name() string
}

// ByName returns a built-in codec by its stable name.
//
// This is used by self-describing artifacts (string pools) that store the
// codec name in their header.
func ByName(name string) (Codec, bool) {
	switch name {
	case "zstd":
		return Zstd{}, true
	case "lz4":
		return LZ4{}, true
	case "none":
		return None{}, true
	default:
		return nil, false
	}
}

// Default is the codec used for newly-built artifacts.
//
// Existing artifacts are self-describing (they store the codec name in their
// header) and are opened by selecting the appropriate codec by name.
var Default Codec = Zstd{}

// None is the identity codec. Useful for debugging artifact contents.
type None struct{}

// Compress returns src unchanged.
func (None) Compress(src []byte) ([]byte, error) { return src, nil }

// Decompress returns src unchanged.
func (None) Decompress(src []byte, _ int) ([]byte, error) { return src, nil }

// Name returns the unique name of the codec ("none").
func (None) Name() string { return "none" }

// MustCompress is a helper for internal tests/benchmarks.
func MustCompress(c Codec, src []byte) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Compress(src)
	if err != nil {
		panic(fmt.Errorf("codec %s compress failed: %w", c.Name(), err))
	}
	return b
}
