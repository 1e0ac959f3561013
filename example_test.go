package taxgo_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/taxgo"
	"github.com/hupe1980/taxgo/testutil"
)

// Example_lookup demonstrates resolving a taxon by name.
func Example_lookup() {
	ctx := context.Background()

	fx, err := testutil.NewFixture()
	if err != nil {
		log.Fatal(err)
	}

	db, err := taxgo.OpenStore(ctx, fx.Artifacts)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	taxon, err := db.TaxonByName("Homo sapiens")
	if err != nil {
		log.Fatal(err)
	}

	name, _ := taxon.ScientificName()
	common, _ := taxon.CommonName()
	fmt.Printf("%d %s (%s), commonly %q\n", taxon.ID(), name, taxon.Rank(), common)
	// Output: 9606 Homo sapiens (species), commonly "human"
}

// Example_rankedLineage demonstrates walking a lineage at the standard
// ranks.
func Example_rankedLineage() {
	ctx := context.Background()

	fx, err := testutil.NewFixture()
	if err != nil {
		log.Fatal(err)
	}

	db, err := taxgo.OpenStore(ctx, fx.Artifacts)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	taxon, err := db.TaxonByID(9606)
	if err != nil {
		log.Fatal(err)
	}

	lineage, err := taxon.RankedLineage()
	if err != nil {
		log.Fatal(err)
	}

	for _, t := range lineage {
		name, _ := t.ScientificName()
		fmt.Printf("%s: %s\n", t.Rank(), name)
	}
	// Output:
	// species: Homo sapiens
	// genus: Homo
	// family: Hominidae
	// order: Primates
	// class: Mammalia
	// phylum: Chordata
	// kingdom: Metazoa
	// superkingdom: Eukaryota
}

// Example_lca demonstrates finding the lowest common ancestor of two taxa.
func Example_lca() {
	ctx := context.Background()

	fx, err := testutil.NewFixture()
	if err != nil {
		log.Fatal(err)
	}

	db, err := taxgo.OpenStore(ctx, fx.Artifacts)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Homo sapiens and E. coli K-12 MG1655
	lca, err := db.LCA(9606, 511145)
	if err != nil {
		log.Fatal(err)
	}

	name, _ := lca.ScientificName()
	fmt.Println(name)
	// Output: cellular organisms
}

// Example_fetch demonstrates retrieving sequence bytes through a volume
// store.
func Example_fetch() {
	ctx := context.Background()

	fx, err := testutil.NewFixture()
	if err != nil {
		log.Fatal(err)
	}

	db, err := taxgo.OpenStore(ctx, fx.Artifacts, taxgo.WithVolumeStore(fx.Volumes))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	acc, err := db.AccessionByID("NC_900004.1")
	if err != nil {
		log.Fatal(err)
	}

	seq, err := acc.Fetch(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s: %s (%d bases)\n", acc.ID(), seq, acc.SequenceLength())
	// Output: NC_900004.1: TGGTTACAAC (10 bases)
}
