// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: An open file with read/write/sync capabilities
//   - [FileSystem]: Filesystem operations (open, remove, rename, etc.)
//
// # Implementations
//
//   - [LocalFS]: Production implementation using the standard os package
//   - [FaultyFS]: Test utility for fault injection (simulate I/O errors)
//
// Production code should use fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
//
// Tests inject [FaultyFS] to exercise crash paths in the manifest writer:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("MANIFEST", fs.Fault{FailOnSync: true})
//
// The interfaces intentionally carry no context.Context: local filesystem
// calls are fast and non-interruptible at the syscall level. Slow remote
// operations go through blobstore, which is context-aware.
package fs
