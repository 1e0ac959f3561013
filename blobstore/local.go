package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/taxgo/internal/fs"
	"github.com/hupe1980/taxgo/internal/mmap"
)

// LocalStoreOptions configures a LocalStore.
type LocalStoreOptions struct {
	// FS handles the write paths. Reads memory-map files directly and bypass
	// it. Swapped out in tests for fault injection.
	FS fs.FileSystem
}

// LocalStore implements BlobStore on the local file system. Blobs are
// memory-mapped for reading; writes go through a temp file and rename so a
// blob is never visible half-written.
type LocalStore struct {
	root string
	fs   fs.FileSystem
}

// NewLocalStore creates a LocalStore rooted at the given directory.
func NewLocalStore(root string, optFns ...func(o *LocalStoreOptions)) *LocalStore {
	opts := LocalStoreOptions{FS: fs.Default}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &LocalStore{root: root, fs: opts.FS}
}

// Open opens a blob for reading. The blob is memory-mapped: random access
// over artifact files costs no read syscalls.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	m, err := mmap.Open(filepath.Join(s.root, name))
	if err != nil {
		return nil, err
	}
	return &localBlob{m: m}, nil
}

// Create creates a blob for writing. The data lands in a temp file that
// Close syncs and renames into place.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	path := filepath.Join(s.root, name)
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	tmp := path + ".tmp"
	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{f: f, fs: s.fs, tmp: tmp, path: path}, nil
}

// Put writes a blob atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Delete removes a blob.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	return s.fs.Remove(filepath.Join(s.root, name))
}

// List returns the names of blobs under root with the given prefix, sorted.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := s.fs.ReadDir(filepath.Join(s.root, dir))
		if err != nil {
			return err
		}
		for _, e := range entries {
			rel := filepath.ToSlash(filepath.Join(dir, e.Name()))
			if e.IsDir() {
				if err := walk(rel); err != nil {
					return err
				}
				continue
			}
			if strings.HasSuffix(rel, ".tmp") {
				continue
			}
			if strings.HasPrefix(rel, prefix) {
				names = append(names, rel)
			}
		}
		return nil
	}
	if err := walk(""); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return b.m.ReadAt(p, off)
}

func (b *localBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	data := b.m.Bytes()
	if off < 0 || length < 0 || off >= int64(len(data)) {
		return nil, ErrInvalidRange
	}
	end := off + length
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return io.NopCloser(bytes.NewReader(data[off:end])), nil
}

func (b *localBlob) Size() int64 {
	return int64(b.m.Size())
}

func (b *localBlob) Close() error {
	return b.m.Close()
}

// Bytes exposes the mapped bytes without copying.
func (b *localBlob) Bytes() ([]byte, error) {
	return b.m.Bytes(), nil
}

type localWritableBlob struct {
	f        fs.File
	fs       fs.FileSystem
	tmp      string
	path     string
	writeErr error
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		w.writeErr = err
	}
	return n, err
}

func (w *localWritableBlob) Sync() error {
	return w.f.Sync()
}

// Close syncs the temp file and renames it into place. After any failure,
// the write included, the temp file is removed and the blob stays absent.
func (w *localWritableBlob) Close() error {
	if w.writeErr != nil {
		w.f.Close()
		w.fs.Remove(w.tmp)
		return w.writeErr
	}
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		w.fs.Remove(w.tmp)
		return err
	}
	if err := w.f.Close(); err != nil {
		w.fs.Remove(w.tmp)
		return err
	}
	return w.fs.Rename(w.tmp, w.path)
}
