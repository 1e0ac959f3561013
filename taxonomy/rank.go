// Package taxonomy implements the taxonomic tree: ranks, parent/child
// structure, lineages, lowest common ancestor queries and evolutionary
// distances, all backed by the flat record artifacts.
package taxonomy

import (
	"fmt"
	"strings"
)

// Rank is an NCBI taxonomic rank. The numbering matches the standard artifact
// encoding; zero is not a valid rank.
type Rank uint8

const (
	RankBiotype Rank = iota + 1
	RankClade
	RankClass
	RankCohort
	RankFamily
	RankForma
	RankFormaSpecialis
	RankGenotype
	RankGenus
	RankInfraclass
	RankInfraorder
	RankIsolate
	RankKingdom
	RankMorph
	RankOrder
	RankParvorder
	RankPathogroup
	RankPhylum
	RankSection
	RankSeries
	RankSerogroup
	RankSerotype
	RankSpecies
	RankSpeciesGroup
	RankSpeciesSubgroup
	RankStrain
	RankSubclass
	RankSubcohort
	RankSubfamily
	RankSubgenus
	RankSubkingdom
	RankSuborder
	RankSubphylum
	RankSubsection
	RankSubspecies
	RankSubtribe
	RankSubvariety
	RankSuperclass
	RankSuperfamily
	RankSuperkingdom
	RankSuperorder
	RankSuperphylum
	RankTribe
	RankVarietas
	RankNoRank
)

var rankNames = [...]string{
	RankBiotype:         "biotype",
	RankClade:           "clade",
	RankClass:           "class",
	RankCohort:          "cohort",
	RankFamily:          "family",
	RankForma:           "forma",
	RankFormaSpecialis:  "forma specialis",
	RankGenotype:        "genotype",
	RankGenus:           "genus",
	RankInfraclass:      "infraclass",
	RankInfraorder:      "infraorder",
	RankIsolate:         "isolate",
	RankKingdom:         "kingdom",
	RankMorph:           "morph",
	RankOrder:           "order",
	RankParvorder:       "parvorder",
	RankPathogroup:      "pathogroup",
	RankPhylum:          "phylum",
	RankSection:         "section",
	RankSeries:          "series",
	RankSerogroup:       "serogroup",
	RankSerotype:        "serotype",
	RankSpecies:         "species",
	RankSpeciesGroup:    "species group",
	RankSpeciesSubgroup: "species subgroup",
	RankStrain:          "strain",
	RankSubclass:        "subclass",
	RankSubcohort:       "subcohort",
	RankSubfamily:       "subfamily",
	RankSubgenus:        "subgenus",
	RankSubkingdom:      "subkingdom",
	RankSuborder:        "suborder",
	RankSubphylum:       "subphylum",
	RankSubsection:      "subsection",
	RankSubspecies:      "subspecies",
	RankSubtribe:        "subtribe",
	RankSubvariety:      "subvariety",
	RankSuperclass:      "superclass",
	RankSuperfamily:     "superfamily",
	RankSuperkingdom:    "superkingdom",
	RankSuperorder:      "superorder",
	RankSuperphylum:     "superphylum",
	RankTribe:           "tribe",
	RankVarietas:        "varietas",
	RankNoRank:          "no rank",
}

var ranksByName = func() map[string]Rank {
	m := make(map[string]Rank, len(rankNames))
	for r, name := range rankNames {
		if name != "" {
			m[name] = Rank(r)
		}
	}
	return m
}()

// StandardRanks are the well-established ranks used for ranked lineages,
// ordered from most to least specific.
var StandardRanks = [...]Rank{
	RankSpecies,
	RankGenus,
	RankFamily,
	RankOrder,
	RankClass,
	RankPhylum,
	RankKingdom,
	RankSuperkingdom,
}

// ErrUnknownRank is returned when parsing an unrecognized rank name.
type ErrUnknownRank struct {
	Name string
}

func (e *ErrUnknownRank) Error() string {
	return fmt.Sprintf("taxonomy: unknown rank %q", e.Name)
}

// ParseRank maps an NCBI rank name to its Rank. Both the dump spelling
// ("species group") and the underscore form ("species_group") are accepted.
func ParseRank(name string) (Rank, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", " ")
	if r, ok := ranksByName[normalized]; ok {
		return r, nil
	}
	return 0, &ErrUnknownRank{Name: name}
}

// Valid reports whether r is a defined rank value.
func (r Rank) Valid() bool {
	return r >= RankBiotype && r <= RankNoRank
}

// IsStandard reports whether r participates in ranked lineages.
func (r Rank) IsStandard() bool {
	for _, s := range StandardRanks {
		if r == s {
			return true
		}
	}
	return false
}

// String returns the NCBI dump spelling of the rank.
func (r Rank) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Rank(%d)", uint8(r))
	}
	return rankNames[r]
}
