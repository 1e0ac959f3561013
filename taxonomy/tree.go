package taxonomy

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/taxgo/recordstore"
)

// EdgeWeightRecordSize is the width of one edge weight record: a float32
// distance from the taxon to its parent. Negative values mean unknown.
const EdgeWeightRecordSize = 4

// IDIndex resolves taxon IDs to record indices. The taxa trie satisfies it.
type IDIndex interface {
	LookupUint32(id uint32) (uint32, bool)
}

// Options configures tree construction.
type Options struct {
	// EdgeWeights is the optional per-record parent edge length store.
	// Record i holds the distance from taxon record i to its parent.
	EdgeWeights *recordstore.Store
}

// DefaultOptions are the default tree construction options.
var DefaultOptions = Options{}

// Tree is the materialized taxonomy. Construction derives the depth array,
// the children adjacency and the binary-lifting ancestor table from the
// record store; all queries after that are lock-free reads over immutable
// slices, safe for arbitrary concurrent use.
type Tree struct {
	store *recordstore.Store
	ids   IDIndex

	taxID  []uint32 // record -> taxon ID
	parent []int32  // record -> parent record, -1 at the root
	rank   []Rank
	depth  []int32

	// children in CSR form: records childList[childStart[i]:childStart[i+1]]
	// are the children of record i, in record order.
	childStart []int32
	childList  []int32

	// up[k][i] is the 2^k-th ancestor of record i, -1 past the root.
	up [][]int32

	edge []float32 // nil when no edge weights are loaded
}

// NewTree materializes the taxonomy from a taxa record store and its ID index.
func NewTree(store *recordstore.Store, ids IDIndex, optFns ...func(o *Options)) (*Tree, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if store.RecordSize() != TaxonRecordSize {
		return nil, fmt.Errorf("taxonomy: taxa store has %d-byte records, want %d", store.RecordSize(), TaxonRecordSize)
	}

	n := store.Count()
	t := &Tree{
		store:  store,
		ids:    ids,
		taxID:  make([]uint32, n),
		parent: make([]int32, n),
		rank:   make([]Rank, n),
		depth:  make([]int32, n),
	}

	for i := 0; i < n; i++ {
		rec, err := store.Record(i)
		if err != nil {
			return nil, err
		}
		r, err := DecodeTaxonRecord(rec)
		if err != nil {
			return nil, err
		}
		t.taxID[i] = r.TaxID
		t.rank[i] = r.Rank

		if r.IsRoot() {
			t.parent[i] = -1
			continue
		}
		p, ok := ids.LookupUint32(r.ParentTaxID)
		if !ok || int(p) >= n {
			return nil, &ErrBrokenTree{TaxID: r.TaxID, Reason: fmt.Sprintf("dangling parent %d", r.ParentTaxID)}
		}
		t.parent[i] = int32(p)
	}

	if err := t.computeDepths(); err != nil {
		return nil, err
	}
	t.buildChildren()
	t.buildLifting()

	if opts.EdgeWeights != nil {
		if err := t.loadEdgeWeights(opts.EdgeWeights); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// computeDepths fills t.depth by chasing parent chains, memoizing along the
// way. A chain longer than the record count means a parent cycle.
func (t *Tree) computeDepths() error {
	n := len(t.parent)
	for i := range t.depth {
		t.depth[i] = -1
	}

	var path []int32
	for i := 0; i < n; i++ {
		if t.depth[i] >= 0 {
			continue
		}
		path = path[:0]
		cur := int32(i)
		for t.depth[cur] < 0 && t.parent[cur] >= 0 {
			path = append(path, cur)
			cur = t.parent[cur]
			if len(path) > n {
				return &ErrBrokenTree{TaxID: t.taxID[i], Reason: "parent cycle"}
			}
		}
		base := t.depth[cur]
		if base < 0 {
			// cur is an unvisited root
			t.depth[cur] = 0
			base = 0
		}
		for j := len(path) - 1; j >= 0; j-- {
			base++
			t.depth[path[j]] = base
		}
	}
	return nil
}

func (t *Tree) buildChildren() {
	n := len(t.parent)
	t.childStart = make([]int32, n+1)
	for _, p := range t.parent {
		if p >= 0 {
			t.childStart[p+1]++
		}
	}
	for i := 1; i <= n; i++ {
		t.childStart[i] += t.childStart[i-1]
	}
	t.childList = make([]int32, t.childStart[n])
	fill := make([]int32, n)
	copy(fill, t.childStart[:n])
	for i, p := range t.parent {
		if p >= 0 {
			t.childList[fill[p]] = int32(i)
			fill[p]++
		}
	}
}

func (t *Tree) buildLifting() {
	n := len(t.parent)
	maxDepth := int32(0)
	for _, d := range t.depth {
		if d > maxDepth {
			maxDepth = d
		}
	}
	levels := 1
	if maxDepth > 0 {
		levels = bits.Len(uint(maxDepth)) + 1
	}

	t.up = make([][]int32, levels)
	t.up[0] = t.parent
	for k := 1; k < levels; k++ {
		prev := t.up[k-1]
		cur := make([]int32, n)
		for i := 0; i < n; i++ {
			if prev[i] < 0 {
				cur[i] = -1
			} else {
				cur[i] = prev[prev[i]]
			}
		}
		t.up[k] = cur
	}
}

func (t *Tree) loadEdgeWeights(store *recordstore.Store) error {
	if store.RecordSize() != EdgeWeightRecordSize {
		return fmt.Errorf("taxonomy: edge weight store has %d-byte records, want %d", store.RecordSize(), EdgeWeightRecordSize)
	}
	if store.Count() != len(t.parent) {
		return fmt.Errorf("taxonomy: edge weight store has %d records, taxa store has %d", store.Count(), len(t.parent))
	}
	t.edge = make([]float32, store.Count())
	for i := range t.edge {
		rec, err := store.Record(i)
		if err != nil {
			return err
		}
		t.edge[i] = math.Float32frombits(binary.LittleEndian.Uint32(rec))
	}
	return nil
}

// Len returns the number of taxa.
func (t *Tree) Len() int { return len(t.taxID) }

// HasEdgeWeights reports whether evolutionary distances are available.
func (t *Tree) HasEdgeWeights() bool { return t.edge != nil }

// node resolves a taxon ID to its record index.
func (t *Tree) node(id uint32) (int32, error) {
	rec, ok := t.ids.LookupUint32(id)
	if !ok {
		return 0, &ErrTaxonNotFound{TaxID: id}
	}
	if int(rec) >= len(t.taxID) {
		return 0, &ErrBrokenTree{TaxID: id, Reason: fmt.Sprintf("record index %d out of range", rec)}
	}
	return int32(rec), nil
}

// Contains reports whether the tree holds the taxon ID.
func (t *Tree) Contains(id uint32) bool {
	_, err := t.node(id)
	return err == nil
}

// Record returns the full taxon record for id.
func (t *Tree) Record(id uint32) (TaxonRecord, error) {
	i, err := t.node(id)
	if err != nil {
		return TaxonRecord{}, err
	}
	rec, err := t.store.Record(int(i))
	if err != nil {
		return TaxonRecord{}, err
	}
	return DecodeTaxonRecord(rec)
}

// Rank returns the rank of id.
func (t *Tree) Rank(id uint32) (Rank, error) {
	i, err := t.node(id)
	if err != nil {
		return 0, err
	}
	return t.rank[i], nil
}

// Depth returns the number of edges between id and the root.
func (t *Tree) Depth(id uint32) (int, error) {
	i, err := t.node(id)
	if err != nil {
		return 0, err
	}
	return int(t.depth[i]), nil
}

// Parent returns the parent taxon of id. The bool is false at the root.
func (t *Tree) Parent(id uint32) (uint32, bool, error) {
	i, err := t.node(id)
	if err != nil {
		return 0, false, err
	}
	p := t.parent[i]
	if p < 0 {
		return 0, false, nil
	}
	return t.taxID[p], true, nil
}

// Children returns the direct children of id, in record order.
func (t *Tree) Children(id uint32) ([]uint32, error) {
	i, err := t.node(id)
	if err != nil {
		return nil, err
	}
	span := t.childList[t.childStart[i]:t.childStart[i+1]]
	out := make([]uint32, len(span))
	for j, c := range span {
		out[j] = t.taxID[c]
	}
	return out, nil
}

// Lineage returns the taxon IDs from id up to and including the root.
func (t *Tree) Lineage(id uint32) ([]uint32, error) {
	i, err := t.node(id)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, 0, t.depth[i]+1)
	for cur := i; cur >= 0; cur = t.parent[cur] {
		out = append(out, t.taxID[cur])
	}
	return out, nil
}

// RankedLineage returns the lineage of id restricted to the standard ranks
// (species through superkingdom), most specific first.
func (t *Tree) RankedLineage(id uint32) ([]uint32, error) {
	i, err := t.node(id)
	if err != nil {
		return nil, err
	}
	var out []uint32
	for cur := i; cur >= 0; cur = t.parent[cur] {
		if t.rank[cur].IsStandard() {
			out = append(out, t.taxID[cur])
		}
	}
	return out, nil
}

// AtRank returns the nearest ancestor-or-self of id with the given rank.
// The bool is false when no such ancestor exists.
func (t *Tree) AtRank(id uint32, r Rank) (uint32, bool, error) {
	i, err := t.node(id)
	if err != nil {
		return 0, false, err
	}
	for cur := i; cur >= 0; cur = t.parent[cur] {
		if t.rank[cur] == r {
			return t.taxID[cur], true, nil
		}
	}
	return 0, false, nil
}

// Ancestor returns the n-th ancestor of id (n=0 is id itself). The bool is
// false when n exceeds the depth of id.
func (t *Tree) Ancestor(id uint32, n int) (uint32, bool, error) {
	i, err := t.node(id)
	if err != nil {
		return 0, false, err
	}
	if n < 0 || int32(n) > t.depth[i] {
		return 0, false, nil
	}
	cur := t.lift(i, int32(n))
	if cur < 0 {
		return 0, false, nil
	}
	return t.taxID[cur], true, nil
}

// lift jumps n ancestors up from record i using the lifting table.
func (t *Tree) lift(i, n int32) int32 {
	for k := 0; n > 0 && i >= 0; k++ {
		if n&1 != 0 {
			i = t.up[k][i]
		}
		n >>= 1
	}
	return i
}

// LCA returns the lowest common ancestor of a and b.
func (t *Tree) LCA(a, b uint32) (uint32, error) {
	ia, err := t.node(a)
	if err != nil {
		return 0, err
	}
	ib, err := t.node(b)
	if err != nil {
		return 0, err
	}
	l, err := t.lcaRecords(ia, ib)
	if err != nil {
		return 0, err
	}
	return t.taxID[l], nil
}

func (t *Tree) lcaRecords(ia, ib int32) (int32, error) {
	// Equalize depths.
	if t.depth[ia] < t.depth[ib] {
		ia, ib = ib, ia
	}
	ia = t.lift(ia, t.depth[ia]-t.depth[ib])
	if ia == ib {
		return ia, nil
	}

	// Descend together from the highest jump.
	for k := len(t.up) - 1; k >= 0; k-- {
		ua, ub := t.up[k][ia], t.up[k][ib]
		if ua != ub {
			ia, ib = ua, ub
		}
	}
	pa := t.parent[ia]
	if pa < 0 || pa != t.parent[ib] {
		return 0, &ErrNoCommonAncestor{A: t.taxID[ia], B: t.taxID[ib]}
	}
	return pa, nil
}

// LCAList folds LCA over a set of taxa. A single taxon is its own LCA;
// an empty set is an error.
func (t *Tree) LCAList(ids []uint32) (uint32, error) {
	if len(ids) == 0 {
		return 0, ErrEmptyQuery
	}
	cur, err := t.node(ids[0])
	if err != nil {
		return 0, err
	}
	for _, id := range ids[1:] {
		i, err := t.node(id)
		if err != nil {
			return 0, err
		}
		cur, err = t.lcaRecords(cur, i)
		if err != nil {
			return 0, err
		}
	}
	return t.taxID[cur], nil
}

// Distance returns the evolutionary distance between a and b: the sum of
// edge weights along the path through their lowest common ancestor. If any
// edge on the path has no weight, or the tree carries no weights, the
// distance is unknown; a partial sum is never returned.
func (t *Tree) Distance(a, b uint32) (float64, error) {
	ia, err := t.node(a)
	if err != nil {
		return 0, err
	}
	ib, err := t.node(b)
	if err != nil {
		return 0, err
	}
	if t.edge == nil {
		return 0, &ErrDistanceUnknown{A: a, B: b}
	}

	l, err := t.lcaRecords(ia, ib)
	if err != nil {
		return 0, err
	}

	var sum float64
	for _, start := range []int32{ia, ib} {
		for cur := start; cur != l; cur = t.parent[cur] {
			w := t.edge[cur]
			if w < 0 || math.IsNaN(float64(w)) {
				return 0, &ErrDistanceUnknown{A: a, B: b}
			}
			sum += float64(w)
		}
	}
	return sum, nil
}

// Descendants returns the taxon IDs of the subtree rooted at id, the root
// included, as a roaring bitmap for set algebra with other ID sets.
func (t *Tree) Descendants(id uint32) (*roaring.Bitmap, error) {
	i, err := t.node(id)
	if err != nil {
		return nil, err
	}
	bm := roaring.New()
	stack := []int32{i}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		bm.Add(t.taxID[cur])
		stack = append(stack, t.childList[t.childStart[cur]:t.childStart[cur+1]]...)
	}
	return bm, nil
}
