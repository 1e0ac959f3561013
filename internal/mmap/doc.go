// Package mmap provides read-only memory-mapped file access.
//
// Index artifacts (tries, record stores) are loaded by mapping the file and
// handing the raw bytes to the format readers; nothing is parsed into heap
// structures beyond small headers. This keeps load time proportional to the
// header size, not the artifact size, and lets the kernel share pages across
// processes.
//
//	m, err := mmap.Open("taxa.trie")
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// Unix uses mmap(2) with madvise(2) for access hints; Windows uses
// CreateFileMapping/MapViewOfFile (advice is a no-op).
//
// Mapping is safe for concurrent readers. Close is idempotent, but callers
// must ensure no goroutine touches Bytes() after Close returns.
package mmap
