// Package dynamic implements the runtime relation storage and dataflow
// evaluator of §4.6-§4.8: DynamicRelation's stable/recent/to-add staging,
// semi-naive batch evaluation over a ram.Dataflow tree, and the reduction
// operators.
package dynamic

import (
	"sort"

	"github.com/ramonfmir/scallop/internal/provenance"
	"github.com/ramonfmir/scallop/internal/value"
)

// Row is one tagged tuple flowing through the dataflow graph: a flat,
// column-ordered value vector aligned with some ram.Dataflow node's Vars
// slice, paired with its provenance tag.
type Row struct {
	Cols []value.Value
	Tag  any
}

func (r Row) key() string {
	var sb []byte
	for i, c := range r.Cols {
		if i > 0 {
			sb = append(sb, ',')
		}
		sb = append(sb, c.String()...)
	}
	return string(sb)
}

// taggedTuple is one committed fact in a DynamicRelation.
type taggedTuple struct {
	row Row
}

// DynamicRelation holds the three sorted, deduplicated batches of §4.6:
// stable (everything committed before the current iteration), recent (the
// previous iteration's additions), and to-add (this iteration's staging
// area, merged into recent by Changed).
type DynamicRelation struct {
	Name string
	Prov provenance.Context

	stable []taggedTuple
	recent []taggedTuple
	toAdd  []Row
}

func NewDynamicRelation(name string, prov provenance.Context) *DynamicRelation {
	return &DynamicRelation{Name: name, Prov: prov}
}

// Stage enqueues one tuple into to-add; it is not visible to any read
// until the next Changed() call rotates it into recent.
func (d *DynamicRelation) Stage(row Row) { d.toAdd = append(d.toAdd, row) }

// Stable returns the relation's committed, pre-this-iteration batch.
func (d *DynamicRelation) Stable() []Row { return extractRows(d.stable) }

// Recent returns the batch added by the most recently committed iteration.
func (d *DynamicRelation) Recent() []Row { return extractRows(d.recent) }

func extractRows(tuples []taggedTuple) []Row {
	out := make([]Row, len(tuples))
	for i, t := range tuples {
		out[i] = t.row
	}
	return out
}

// Changed is the commit step (§4.6): recent is merged into stable (a key
// already in stable takes recent's tag), duplicate to-add tuples are
// combined via the provenance's add, tuples whose tag is discardable are
// dropped, the processed to-add batch becomes the new recent, and it
// reports whether that new recent is non-empty.
//
// A to-add tuple that already exists in stable does not get re-emitted as
// recent merely because it was re-derived -- re-deriving an existing fact
// every iteration forever is normal for a recursive rule (§8 S1) and must
// not prevent the fixpoint from terminating. It is re-emitted only when
// merging its tag produces a tag the provenance does not yet consider
// Saturated against the old one, so that downstream consumers depending on
// its weight (not just its presence) still see the update.
func (d *DynamicRelation) Changed() bool {
	groups := map[string]Row{}
	order := make([]string, 0, len(d.toAdd))
	for _, row := range d.toAdd {
		k := row.key()
		if existing, ok := groups[k]; ok {
			existing.Tag = d.Prov.Add(existing.Tag, row.Tag)
			groups[k] = existing
		} else {
			groups[k] = row
			order = append(order, k)
		}
	}
	d.toAdd = nil

	stableIndex := make(map[string]int, len(d.stable)+len(d.recent))
	for i, t := range d.stable {
		stableIndex[t.row.key()] = i
	}
	for _, t := range d.recent {
		k := t.row.key()
		if idx, ok := stableIndex[k]; ok {
			d.stable[idx].row.Tag = t.row.Tag
			continue
		}
		stableIndex[k] = len(d.stable)
		d.stable = append(d.stable, t)
	}

	var newRecent []taggedTuple
	for _, k := range order {
		row := groups[k]
		if idx, ok := stableIndex[k]; ok {
			old := d.stable[idx].row.Tag
			merged := d.Prov.Add(old, row.Tag)
			d.stable[idx].row.Tag = merged
			if !d.Prov.Saturated(old, merged) && !d.Prov.Discard(merged) {
				newRecent = append(newRecent, taggedTuple{row: Row{Cols: row.Cols, Tag: merged}})
			}
			continue
		}
		if d.Prov.Discard(row.Tag) {
			continue
		}
		newRecent = append(newRecent, taggedTuple{row: row})
	}

	sortTuples(d.stable)
	d.recent = newRecent
	sortTuples(d.recent)

	return len(d.recent) > 0
}

func sortTuples(tuples []taggedTuple) {
	sort.Slice(tuples, func(i, j int) bool {
		return compareCols(tuples[i].row.Cols, tuples[j].row.Cols) < 0
	})
}

func compareCols(a, b []value.Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// LoadEDB seeds the relation with a set of input facts (§4.9 step 1,
// "first_time" flag). The loaded rows land in recent, not stable: the
// first fixpoint iteration's semi-naive delta evaluation only ever reads a
// leaf relation's recent batch, so an EDB relation whose facts were placed
// straight into stable would look empty to every rule depending on it
// until a second iteration -- there may never be one, since the rule could
// otherwise have already reached its fixpoint. Changed's own dedup/discard
// logic is reused by routing the load through Stage+Changed rather than
// writing to the slices directly.
func (d *DynamicRelation) LoadEDB(rows []Row) {
	for _, r := range rows {
		d.Stage(r)
	}
	d.Changed()
}
