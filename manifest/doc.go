// Package manifest implements the versioned artifact catalog.
//
// # Overview
//
// A manifest is a snapshot of one published artifact set: the list of
// index files (tries, record stores, string pools) together with the
// sequence databases they cover and the taxdump release they were built
// from. Loaders read the manifest to discover which artifacts exist and
// how to verify them; builders publish a new manifest after writing a
// fresh artifact set.
//
// # Format
//
// Manifests are JSON documents named MANIFEST-NNNNNN.json, where N is
// the zero-padded version ID. Each artifact entry carries the container
// kind, the entity and namespace it indexes, the byte size, a CRC32C
// checksum of the whole file, and the container format version it was
// written with. Artifacts version independently: a loader opens only
// the entries it understands, a missing optional entry is not an error,
// and unknown entries are ignored.
//
// # Atomic Protocol
//
// Save follows a two-phase commit protocol for atomic updates:
//
//  1. Write the manifest blob to MANIFEST-NNNNNN.json
//  2. Update the CURRENT pointer file to reference the new manifest
//
// Both phases go through the blob store's Put, which is atomic per
// object: local stores write a temp file, fsync, and rename; S3 relies
// on strong read-after-write consistency. A reader therefore always
// sees either the previous catalog or the new one, never a torn state.
// Old manifest versions remain loadable via LoadVersion until they are
// deleted, which allows inspecting or rolling back to an earlier
// artifact set.
//
// # Thread Safety
//
// Store serializes Load, Save, and ListVersions with an internal mutex.
// Coordination between processes is the blob store's concern; see the
// s3 ReleaseStore for a fenced multi-writer CURRENT.
package manifest
