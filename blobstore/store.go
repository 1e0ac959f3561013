package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrInvalidRange is returned when a ranged read starts at or beyond the end
// of the blob. For immutable volume objects this signals a broken locator,
// not a transient failure; callers must not retry.
var ErrInvalidRange = errors.New("blobstore: range start beyond blob size")

// ErrReadOnly is returned by write methods of read-only stores.
var ErrReadOnly = errors.New("blobstore: store is read-only")

// BlobStore is an abstraction for accessing immutable data blobs (index
// artifacts, sequence database volumes).
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates a blob for writing. The blob becomes visible on Close.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob.
	Delete(ctx context.Context, name string) error
	// List returns the names of blobs with the given prefix, in lexical
	// order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	// ReadAt reads len(p) bytes starting at off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange streams length bytes starting at off. A range starting past
	// the end of the blob fails with ErrInvalidRange; a range ending past the
	// end is truncated, matching ranged-request semantics of object stores.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
	// Close releases the handle.
	Close() error
}

// WritableBlob is a write handle created by BlobStore.Create.
type WritableBlob interface {
	io.WriteCloser
	// Sync forces buffered data to durable storage where the backend
	// supports it.
	Sync() error
}

// Mappable is an optional interface for Blobs that expose their backing
// bytes without copying. Artifact loaders use it to consume memory-mapped
// files in place.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}
