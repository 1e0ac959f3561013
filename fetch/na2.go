package fetch

import "fmt"

// The packed nucleotide encoding stores four bases per byte, two bits each,
// most significant pair first: A=0, C=1, G=2, T=3. The final byte carries
// the remaining 0 to 3 bases in its high bits and the remainder count in its
// low two bits, so a sequence of n bases always packs into n/4 + 1 bytes
// (a lone zero byte follows when n is a multiple of four).

// ErrDecodeMismatch indicates packed bytes whose encoded length disagrees
// with the declared sequence length. The sequence is never truncated or
// padded to fit.
type ErrDecodeMismatch struct {
	Declared, Decoded int
}

func (e *ErrDecodeMismatch) Error() string {
	return fmt.Sprintf("fetch: decoded %d bases, locator declares %d", e.Decoded, e.Declared)
}

// ErrMalformedSequence indicates packed bytes that cannot carry a sequence
// at all.
type ErrMalformedSequence struct {
	Reason string
}

func (e *ErrMalformedSequence) Error() string {
	return "fetch: malformed packed sequence: " + e.Reason
}

var na2Symbols = [4]byte{'A', 'C', 'G', 'T'}

// na2Table expands one packed byte to its four symbols.
var na2Table = func() (t [256][4]byte) {
	for b := 0; b < 256; b++ {
		for i := 0; i < 4; i++ {
			t[b][i] = na2Symbols[(b>>(6-2*i))&0x3]
		}
	}
	return t
}()

// PackedLen returns the packed byte length of a sequence of seqLen bases.
func PackedLen(seqLen int) int {
	return seqLen/4 + 1
}

// DecodedLen returns the base count encoded in packed bytes.
func DecodedLen(packed []byte) (int, error) {
	if len(packed) == 0 {
		return 0, &ErrMalformedSequence{Reason: "empty payload"}
	}
	rem := int(packed[len(packed)-1] & 0x3)
	return (len(packed)-1)*4 + rem, nil
}

// Decode unpacks a complete packed sequence. The encoded length must equal
// the declared seqLen exactly.
func Decode(packed []byte, seqLen int) ([]byte, error) {
	decoded, err := DecodedLen(packed)
	if err != nil {
		return nil, err
	}
	if decoded != seqLen {
		return nil, &ErrDecodeMismatch{Declared: seqLen, Decoded: decoded}
	}

	out := decodeFull(make([]byte, 0, len(packed)*4), packed)
	return out[:seqLen], nil
}

// decodeFull expands packed bytes that carry four bases each, appending the
// symbols to dst.
func decodeFull(dst, packed []byte) []byte {
	for _, b := range packed {
		dst = append(dst, na2Table[b][:]...)
	}
	return dst
}
