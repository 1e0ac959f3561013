// Package taxgo provides fast, offline lookups against the NCBI taxonomy
// and the sequence accessions of the BLAST databases cross-referencing it.
//
// A DB is opened from a prebuilt artifact set: static tries, fixed-width
// record stores and compressed string pools published under a versioned
// manifest. Opening memory-maps the artifacts; every lookup after that is
// a lock-free read with no network access, safe for arbitrary concurrent
// use. Sequence bytes are the one remote concern: they are retrieved on
// demand with single ranged reads against BLAST volume objects, never
// whole-volume downloads.
//
// # Quick Start
//
// Metadata lookups against local artifacts:
//
//	ctx := context.Background()
//	db, err := taxgo.Open(ctx, "./artifacts")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	taxon, _ := db.TaxonByName("Homo sapiens")
//	lineage, _ := taxon.RankedLineage()
//	for _, t := range lineage {
//	    name, _ := t.ScientificName()
//	    fmt.Println(t.Rank(), name)
//	}
//
// Sequence retrieval from the public NCBI mirror bucket:
//
//	db, err := taxgo.Open(ctx, "./artifacts", taxgo.WithNCBIVolumes())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	acc, _ := db.AccessionByID("NC_000913.3")
//	seq, _ := acc.Fetch(ctx)
//
// Large sequences can be streamed chunk by chunk instead:
//
//	for chunk, err := range acc.Stream(ctx) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    process(chunk)
//	}
//
// # Errors
//
// Lookup misses unify onto ErrNotFound; attributes that were never indexed
// for an otherwise known taxon surface as ErrNoValue:
//
//	if _, err := db.TaxonByID(999999999); errors.Is(err, taxgo.ErrNotFound) {
//	    // unknown taxon
//	}
//
// Typed subsystem errors pass through for errors.As, like
// taxonomy.ErrDistanceUnknown or fetch.ErrTransport.
//
// # Artifact Sets
//
// Artifact sets are built offline by the build package from NCBI taxdump
// files and BLAST volume indexes, and published atomically as a versioned
// MANIFEST with a CURRENT pointer. Catalogs are forward-compatible:
// loaders skip entries they do not understand, and optional artifacts
// (common names, host lists, representative genomes, branch lengths,
// per-database accession indexes) may be absent.
package taxgo
