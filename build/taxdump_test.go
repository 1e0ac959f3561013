package build

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taxgo/taxonomy"
)

// dmpRow assembles one dump table row in the published framing: fields
// separated by "\t|\t", row closed by "\t|".
func dmpRow(fields ...string) string {
	return strings.Join(fields, "\t|\t") + "\t|\n"
}

func TestSplitDmpRow(t *testing.T) {
	assert.Equal(t, []string{"562", "561", "species"}, splitDmpRow("562\t|\t561\t|\tspecies\t|"))

	// Empty fields survive the framing.
	assert.Equal(t, []string{"9606", "Homo sapiens", "", "scientific name"},
		splitDmpRow("9606\t|\tHomo sapiens\t|\t\t|\tscientific name\t|"))

	// A bare pipe inside a field is data, not framing.
	assert.Equal(t, []string{"1", "a|b"}, splitDmpRow("1\t|\ta|b\t|"))
}

func TestNodes(t *testing.T) {
	// 1. One classic-flavor row, one extended-flavor row with the
	// specified_species flag set.
	input := dmpRow("1", "1", "no rank", "", "8", "0", "1", "0", "0", "0", "0", "0", "") +
		dmpRow("562", "561", "species", "EC", "0", "1", "11", "1", "0", "1", "1", "0", "", "0", "1", "1", "0", "1")

	var nodes []Node
	for n, err := range Nodes(strings.NewReader(input)) {
		require.NoError(t, err)
		nodes = append(nodes, n)
	}

	// 2. Both rows parse; only the extended row carries the flag.
	require.Len(t, nodes, 2)
	assert.Equal(t, Node{TaxID: 1, ParentTaxID: 1, Rank: taxonomy.RankNoRank, Division: 8}, nodes[0])
	assert.Equal(t, Node{TaxID: 562, ParentTaxID: 561, Rank: taxonomy.RankSpecies, SpecifiedSpecies: true}, nodes[1])
}

func TestNodesMalformed(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"too few fields", "562\t|\t561\t|\tspecies\t|\n"},
		{"bad tax id", dmpRow("x", "561", "species", "", "0")},
		{"bad parent", dmpRow("562", "y", "species", "", "0")},
		{"unknown rank", dmpRow("562", "561", "imperial", "", "0")},
		{"bad division", dmpRow("562", "561", "species", "", "abc")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A valid first row pins the error to line 2.
			input := dmpRow("1", "1", "no rank", "", "8") + tt.row

			var rowErr *ErrMalformedRow
			for _, err := range Nodes(strings.NewReader(input)) {
				if err != nil {
					require.ErrorAs(t, err, &rowErr)
				}
			}
			require.NotNil(t, rowErr)
			assert.Equal(t, 2, rowErr.Line)
		})
	}
}

func TestNames(t *testing.T) {
	input := dmpRow("562", "Escherichia coli", "", "scientific name") +
		dmpRow("562", "E. coli", "", "genbank common name") +
		dmpRow("2", "Bacteria", "Bacteria <bacteria>", "scientific name")

	var names []Name
	for n, err := range Names(strings.NewReader(input)) {
		require.NoError(t, err)
		names = append(names, n)
	}

	require.Len(t, names, 3)
	assert.Equal(t, Name{TaxID: 562, Name: "Escherichia coli", Class: ClassScientificName}, names[0])
	assert.Equal(t, Name{TaxID: 562, Name: "E. coli", Class: ClassGenbankCommonName}, names[1])
	assert.Equal(t, Name{TaxID: 2, Name: "Bacteria", UniqueName: "Bacteria <bacteria>", Class: ClassScientificName}, names[2])
}

func TestNamesMalformed(t *testing.T) {
	input := dmpRow("562", "Escherichia coli", "", "scientific name") +
		"562\t|\tE. coli\t|\n"

	var rowErr *ErrMalformedRow
	for _, err := range Names(strings.NewReader(input)) {
		if err != nil {
			require.ErrorAs(t, err, &rowErr)
		}
	}
	require.NotNil(t, rowErr)
	assert.Equal(t, 2, rowErr.Line)
}

func TestMergedNodes(t *testing.T) {
	input := dmpRow("666", "562") + dmpRow("80981", "29341")

	var merged []MergedNode
	for m, err := range MergedNodes(strings.NewReader(input)) {
		require.NoError(t, err)
		merged = append(merged, m)
	}

	require.Len(t, merged, 2)
	assert.Equal(t, MergedNode{OldTaxID: 666, NewTaxID: 562}, merged[0])
	assert.Equal(t, MergedNode{OldTaxID: 80981, NewTaxID: 29341}, merged[1])

	var rowErr *ErrMalformedRow
	for _, err := range MergedNodes(strings.NewReader(dmpRow("abc", "562"))) {
		require.ErrorAs(t, err, &rowErr)
	}
	assert.Equal(t, 1, rowErr.Line)
}

func TestHosts(t *testing.T) {
	input := dmpRow("562", "human,vertebrates") + dmpRow("11137", "human")

	var hosts []Host
	for h, err := range Hosts(strings.NewReader(input)) {
		require.NoError(t, err)
		hosts = append(hosts, h)
	}

	require.Len(t, hosts, 2)
	assert.Equal(t, Host{TaxID: 562, PotentialHosts: "human,vertebrates"}, hosts[0])
	assert.Equal(t, Host{TaxID: 11137, PotentialHosts: "human"}, hosts[1])
}

func TestEdgeLengths(t *testing.T) {
	input := "# phylogenomic export\n" +
		"\n" +
		"2\t0.25\n" +
		"562 1.5\n"

	var edges []EdgeLength
	for e, err := range EdgeLengths(strings.NewReader(input)) {
		require.NoError(t, err)
		edges = append(edges, e)
	}

	// Comment and blank lines are skipped; both tab and space separated
	// rows parse.
	require.Len(t, edges, 2)
	assert.Equal(t, EdgeLength{TaxID: 2, Length: 0.25}, edges[0])
	assert.Equal(t, EdgeLength{TaxID: 562, Length: 1.5}, edges[1])

	var rowErr *ErrMalformedRow
	for _, err := range EdgeLengths(strings.NewReader(input + "562\tabc\n")) {
		if err != nil {
			require.ErrorAs(t, err, &rowErr)
		}
	}
	require.NotNil(t, rowErr)
	assert.Equal(t, 5, rowErr.Line)
}

func TestAccessionRows(t *testing.T) {
	input := "# accession oid length taxid\n" +
		"NC_000913.3\t0\t4641652\t511145\n" +
		"NC_045512.2 1 29903 2697049\n"

	var rows []AccessionRow
	for a, err := range AccessionRows(strings.NewReader(input)) {
		require.NoError(t, err)
		rows = append(rows, a)
	}

	require.Len(t, rows, 2)
	assert.Equal(t, AccessionRow{Accession: "NC_000913.3", OID: 0, SeqLen: 4641652, TaxID: 511145}, rows[0])
	assert.Equal(t, AccessionRow{Accession: "NC_045512.2", OID: 1, SeqLen: 29903, TaxID: 2697049}, rows[1])
}

func TestAccessionRowsMalformed(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"too few fields", "NC_000913.3\t0\t4641652\n"},
		{"negative oid", "NC_000913.3\t-1\t4641652\t511145\n"},
		{"bad oid", "NC_000913.3\tx\t4641652\t511145\n"},
		{"bad length", "NC_000913.3\t0\tx\t511145\n"},
		{"bad taxid", "NC_000913.3\t0\t4641652\tx\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rowErr *ErrMalformedRow
			for _, err := range AccessionRows(strings.NewReader(tt.row)) {
				require.ErrorAs(t, err, &rowErr)
			}
			require.NotNil(t, rowErr)
			assert.Equal(t, 1, rowErr.Line)
		})
	}
}
