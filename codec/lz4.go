package codec

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4 compresses with the LZ4 frame format.
//
// Faster to decompress than zstd at a worse ratio. Some mirror pipelines ship
// pools in lz4; both decode transparently since the header names the codec.
type LZ4 struct{}

// Compress returns the LZ4-framed form of src.
func (LZ4) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress expands src into a freshly allocated buffer.
func (LZ4) Decompress(src []byte, sizeHint int) ([]byte, error) {
	if sizeHint < 0 {
		sizeHint = 0
	}
	zr := lz4.NewReader(bytes.NewReader(src))
	buf := bytes.NewBuffer(make([]byte, 0, sizeHint))
	if _, err := io.Copy(buf, zr); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Name returns the unique name of the codec ("lz4").
func (LZ4) Name() string { return "lz4" }
