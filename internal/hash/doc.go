// Package hash provides the CRC32-Castagnoli checksums used for transfer
// and manifest integrity.
//
// Artifact containers carry their own embedded checksums; this package
// covers the layer above them, where whole files are checksummed while
// being written by the builder and validated server side by S3 during
// upload. CRC32C is the polynomial the S3 API speaks, with hardware
// support on x86 (SSE4.2) and ARM (CRC extension).
//
// For one-shot checksums:
//
//	checksum := hash.CRC32C(data)
//
// For streaming checksums:
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	checksum := h.Sum32()
package hash
