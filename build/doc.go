// Package build turns NCBI taxonomy dumps and BLAST database volume indexes
// into the artifact set the lookup packages serve.
//
// # Inputs
//
// The Builder accepts five input kinds, in any order:
//
//   - Nodes: the nodes.dmp tree table (taxon, parent, rank, division)
//   - Names: the names.dmp table (scientific and common names)
//   - MergedNodes: the merged.dmp alias table
//   - Hosts: the host.dmp potential-host table
//   - EdgeLengths: a phylogenomic edge length export
//
// Database volumes arrive as AddVolume calls carrying the volume's native
// .nin index bytes plus an accession table mapping accessions to ordinal IDs,
// sequence lengths, and taxa.
//
// # Outputs
//
// Run validates cross references, serializes tries, record arrays, and
// string pools, and publishes a manifest naming them all. Output is
// deterministic: one input set always produces byte-identical artifacts.
//
// # Validation
//
// Referential breaks abort the build: a parent or merge target outside the
// nodes table, a taxon without a scientific name, an accession resolving to
// no live taxon, a database snapshot gap. Scientific names claimed by
// several taxa fall back to the dump's unique variants; common names shared
// by several taxa are dropped from the reverse lookup and logged.
package build
