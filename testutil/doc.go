// Package testutil provides testing utilities for Taxgo.
//
// This package is intended for use in tests and examples only.
// It provides helpers for generating random nucleotide sequences, packing
// them into the 2-bit volume encoding, and building a small synthetic
// index corpus.
//
// # Random Sequences
//
//	rng := testutil.NewRNG(seed)
//	seq := rng.Bases(4096)
//
// # Packed Encoding
//
//	packed, err := testutil.PackNa2("TGGTTACAAC")
//
// # Fixture Corpus
//
//	fx, err := testutil.NewFixture()
//	db, err := taxgo.OpenStore(ctx, fx.Artifacts, taxgo.WithVolumeStore(fx.Volumes))
package testutil
