package dynamic

import (
	"fmt"
	"sort"

	"github.com/ramonfmir/scallop/internal/expr"
	"github.com/ramonfmir/scallop/internal/provenance"
	"github.com/ramonfmir/scallop/internal/ram"
	"github.com/ramonfmir/scallop/internal/value"
)

// maxExactSubsetEnumeration bounds the `count`/`sum`/`prod` subset
// enumeration of §4.8 ("enumerate 2^n subsets, emit (k, tag_of_subset_k)"):
// past this many group members the exact 2^n walk is infeasible, and the
// aggregator falls back to folding every member's value/tag deterministically
// rather than enumerating which subset is "present" in a given possible
// world -- a disclosed approximation, not a silent one (see DESIGN.md).
const maxExactSubsetEnumeration = 16

type groupMember struct {
	cols []value.Value
	tag  any
}

// EvalReduce evaluates one aggregation leaf (§4.8). Source is read in full
// (stable ∪ recent) regardless of the caller's semi-naive mode map: a
// reduce node's dependency always lands in an earlier, already-completed
// stratum (Stratify rejects any same-stratum aggregate edge, S5's sibling
// rule), so there is never a "delta" to speak of -- only "has this already
// been computed" versus "recompute from scratch".
func EvalReduce(r *ram.ReduceNode, store *Store, _ map[string]Batch, prov provenance.Context, fp ForeignPredicates, ff expr.ForeignFunctions) ([]Row, error) {
	full := map[string]Batch{}
	for _, name := range leafRelations(r.Source) {
		full[name] = BatchAll
	}
	sourceRows, err := Eval(r.Source, store, full, prov, fp, ff)
	if err != nil {
		return nil, err
	}

	groups := groupRows(r, sourceRows)
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Row
	for _, k := range keys {
		g := groups[k]
		rows, err := applyReduceOp(r, g.members, prov)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			cols := append(append([]value.Value{}, g.keyCols...), row.Cols...)
			out = append(out, Row{Cols: cols, Tag: row.Tag})
		}
	}
	return out, nil
}

type groupKeyed struct {
	keyCols []value.Value
	members []groupMember
}

func varIndexIn(vars []string, name string) (int, bool) {
	for i, v := range vars {
		if v == name {
			return i, true
		}
	}
	return 0, false
}

func selectCols(sourceVars, want []string, cols []value.Value) []value.Value {
	out := make([]value.Value, len(want))
	for i, w := range want {
		if idx, ok := varIndexIn(sourceVars, w); ok {
			out[i] = cols[idx]
		}
	}
	return out
}

// implicitKeyVars names every variable Source binds that is not one of the
// reduction's own binding variables, used only to group GroupByJoin
// correctly internally (see groupRows) since lower.go does not expose a
// Join group-by's key as output columns.
func implicitKeyVars(r *ram.ReduceNode) []string {
	skip := map[string]bool{}
	for _, b := range r.BindingVars {
		skip[b] = true
	}
	var out []string
	for _, v := range r.Source.Vars {
		if v != "" && !skip[v] {
			out = append(out, v)
		}
	}
	return out
}

// groupRows partitions Source's rows into aggregation groups, matching
// lower.go's Vars shape for the dataflow node it is producing rows for
// (internal/ram/lower.go's lowerReduce: Vars = groupVars ++ ResultVars).
// GroupByNone has no key columns at all (one global group). GroupByImplicit
// exposes its key as r.GroupBy.Vars, exactly the columns lower.go placed
// ahead of ResultVars. GroupByJoin currently carries no key variable list
// in the lowered IR (ram.GroupBy only names the auxiliary relation, not its
// shared columns) -- grouping still happens, using every non-binding
// Source variable as an internal-only key, but no key column is emitted,
// matching node.Vars's declared shape for this case (disclosed
// simplification, see DESIGN.md: the auxiliary relation's own empty-group
// inclusion semantics are not reproduced).
func groupRows(r *ram.ReduceNode, sourceRows []Row) map[string]*groupKeyed {
	switch r.GroupBy.Kind {
	case ram.GroupByNone:
		g := &groupKeyed{}
		for _, row := range sourceRows {
			g.members = append(g.members, groupMember{cols: selectCols(r.Source.Vars, r.BindingVars, row.Cols), tag: row.Tag})
		}
		return map[string]*groupKeyed{"": g}
	case ram.GroupByImplicit:
		groups := map[string]*groupKeyed{}
		for _, row := range sourceRows {
			keyCols := selectCols(r.Source.Vars, r.GroupBy.Vars, row.Cols)
			k := Row{Cols: keyCols}.key()
			g, ok := groups[k]
			if !ok {
				g = &groupKeyed{keyCols: keyCols}
				groups[k] = g
			}
			g.members = append(g.members, groupMember{cols: selectCols(r.Source.Vars, r.BindingVars, row.Cols), tag: row.Tag})
		}
		return groups
	default: // ram.GroupByJoin
		groups := map[string]*groupKeyed{}
		keyVars := implicitKeyVars(r)
		for _, row := range sourceRows {
			internalKey := selectCols(r.Source.Vars, keyVars, row.Cols)
			k := Row{Cols: internalKey}.key()
			g, ok := groups[k]
			if !ok {
				g = &groupKeyed{}
				groups[k] = g
			}
			g.members = append(g.members, groupMember{cols: selectCols(r.Source.Vars, r.BindingVars, row.Cols), tag: row.Tag})
		}
		return groups
	}
}

func applyReduceOp(r *ram.ReduceNode, members []groupMember, prov provenance.Context) ([]Row, error) {
	switch r.Op {
	case "count":
		return reduceCount(members, prov), nil
	case "sum":
		return reduceFold(members, prov, sumFold, value.I64(0)), nil
	case "prod":
		return reduceFold(members, prov, prodFold, value.I64(1)), nil
	case "min":
		return reduceMinMax(members, prov, false), nil
	case "max":
		return reduceMinMax(members, prov, true), nil
	case "exists":
		return reduceExists(r, members, prov)
	case "unique":
		return reduceUnique(members)
	case "top_k":
		return reduceTopK(r, members, prov), nil
	default:
		return nil, fmt.Errorf("dynamic: unknown reduction operator %q", r.Op)
	}
}

type enumEntry struct {
	value value.Value
	tag   any
}

// enumerateByKey walks every subset of tags (capped at
// maxExactSubsetEnumeration members), computing each subset's tag as the
// product of its included members' tags and the negation of every excluded
// member's tag -- "this exact subset, and nothing else, is present" -- then
// folds same-key subsets' tags together with Add (§4.8 count/sum/prod row).
func enumerateByKey(tags []any, prov provenance.Context, keyFn func(included []int) value.Value) ([]enumEntry, bool) {
	n := len(tags)
	if n > maxExactSubsetEnumeration {
		return nil, false
	}
	// A unit tag and its negation are the same value, so every subset would
	// carry the same tag and every key would be reported; fold instead.
	if _, isUnit := prov.(provenance.UnitContext); isUnit {
		return nil, false
	}
	negated := make([]any, n)
	for i, t := range tags {
		neg, ok := prov.Negate(t)
		if !ok {
			return nil, false
		}
		negated[i] = neg
	}
	byKey := map[string]*enumEntry{}
	var order []string
	for mask := 0; mask < (1 << uint(n)); mask++ {
		tag := prov.One()
		var included []int
		for i := 0; i < n; i++ {
			if mask&(1<<uint(i)) != 0 {
				tag = prov.Mult(tag, tags[i])
				included = append(included, i)
			} else {
				tag = prov.Mult(tag, negated[i])
			}
		}
		v := keyFn(included)
		k := v.Type().String() + ":" + v.String()
		if e, ok := byKey[k]; ok {
			e.tag = prov.Add(e.tag, tag)
		} else {
			byKey[k] = &enumEntry{value: v, tag: tag}
			order = append(order, k)
		}
	}
	out := make([]enumEntry, len(order))
	for i, k := range order {
		out[i] = *byKey[k]
	}
	return out, true
}

func tagsOf(members []groupMember) []any {
	out := make([]any, len(members))
	for i, m := range members {
		out[i] = m.tag
	}
	return out
}

func entriesToRows(entries []enumEntry) []Row {
	out := make([]Row, len(entries))
	for i, e := range entries {
		out[i] = Row{Cols: []value.Value{e.value}, Tag: e.tag}
	}
	return out
}

func reduceCount(members []groupMember, prov provenance.Context) []Row {
	entries, ok := enumerateByKey(tagsOf(members), prov, func(included []int) value.Value {
		return value.I64(int64(len(included)))
	})
	if !ok {
		tag := prov.One()
		for _, m := range members {
			tag = prov.Mult(tag, m.tag)
		}
		return []Row{{Cols: []value.Value{value.I64(int64(len(members)))}, Tag: tag}}
	}
	return entriesToRows(entries)
}

func sumFold(vals []value.Value) value.Value {
	if len(vals) == 0 {
		return value.I64(0)
	}
	ty := vals[0].Type()
	if ty.IsFloat() {
		var s float64
		for _, v := range vals {
			s += v.AsF64()
		}
		if ty == value.TypeF32 {
			return value.F32(float32(s))
		}
		return value.F64(s)
	}
	var s int64
	for _, v := range vals {
		s += v.AsI64()
	}
	out, _ := value.I64(s).CastTo(ty)
	return out
}

func prodFold(vals []value.Value) value.Value {
	if len(vals) == 0 {
		return value.I64(1)
	}
	ty := vals[0].Type()
	if ty.IsFloat() {
		p := 1.0
		for _, v := range vals {
			p *= v.AsF64()
		}
		if ty == value.TypeF32 {
			return value.F32(float32(p))
		}
		return value.F64(p)
	}
	p := int64(1)
	for _, v := range vals {
		p *= v.AsI64()
	}
	out, _ := value.I64(p).CastTo(ty)
	return out
}

func reduceFold(members []groupMember, prov provenance.Context, fold func([]value.Value) value.Value, empty value.Value) []Row {
	if len(members) == 0 {
		return []Row{{Cols: []value.Value{empty}, Tag: prov.One()}}
	}
	entries, ok := enumerateByKey(tagsOf(members), prov, func(included []int) value.Value {
		vals := make([]value.Value, len(included))
		for i, idx := range included {
			vals[i] = members[idx].cols[0]
		}
		return fold(vals)
	})
	if !ok {
		vals := make([]value.Value, len(members))
		tag := prov.One()
		for i, m := range members {
			vals[i] = m.cols[0]
			tag = prov.Mult(tag, m.tag)
		}
		return []Row{{Cols: []value.Value{fold(vals)}, Tag: tag}}
	}
	return entriesToRows(entries)
}

// reduceMinMax picks the single extremal value among members (by §3 tuple
// ordering) and combines the tags of every member tied at that value with
// Add. The full per-possible-world "am I the smallest one actually present"
// reasoning §4.8 describes is not reproduced: it requires a provenance able
// to tell presence from absence at the single-tag level, which UnitContext
// cannot (its tag has exactly one value for both), so this engine instead
// reports the extremal value unconditionally and folds ties -- correct for
// the unit/boolean provenances and a documented approximation for the
// weighted ones (see DESIGN.md).
func reduceMinMax(members []groupMember, prov provenance.Context, isMax bool) []Row {
	if len(members) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(members); i++ {
		c := compareCols(members[i].cols, members[best].cols)
		if (isMax && c > 0) || (!isMax && c < 0) {
			best = i
		}
	}
	tag := members[best].tag
	cols := append([]value.Value{}, members[best].cols...)
	for i, m := range members {
		if i == best {
			continue
		}
		if compareCols(m.cols, cols) == 0 {
			tag = prov.Add(tag, m.tag)
		}
	}
	return []Row{{Cols: cols, Tag: tag}}
}

// reduceTopK returns up to K distinct tuples in ascending tuple order,
// folding exact duplicates' tags with Add. K<=0 means unbounded.
func reduceTopK(r *ram.ReduceNode, members []groupMember, prov provenance.Context) []Row {
	order := make([]int, len(members))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return compareCols(members[order[a]].cols, members[order[b]].cols) < 0
	})
	var out []Row
	for _, idx := range order {
		m := members[idx]
		merged := false
		for i := range out {
			if compareCols(out[i].Cols, m.cols) == 0 {
				out[i].Tag = prov.Add(out[i].Tag, m.tag)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, Row{Cols: append([]value.Value{}, m.cols...), Tag: m.tag})
		}
		if r.K > 0 && len(out) >= r.K {
			break
		}
	}
	return out
}

func reduceExists(r *ram.ReduceNode, members []groupMember, prov provenance.Context) ([]Row, error) {
	trueTag := prov.Zero()
	for _, m := range members {
		trueTag = prov.Add(trueTag, m.tag)
	}
	final := trueTag
	if r.NegateResult {
		neg, ok := prov.Negate(trueTag)
		if !ok {
			return nil, fmt.Errorf("dynamic: forall requires a negation-capable provenance")
		}
		final = neg
	}
	if prov.Discard(final) {
		return nil, nil
	}
	return []Row{{Cols: []value.Value{value.Bool(true)}, Tag: final}}, nil
}

func reduceUnique(members []groupMember) ([]Row, error) {
	if len(members) != 1 {
		return nil, fmt.Errorf("dynamic: unique aggregation expected exactly one group member, got %d", len(members))
	}
	m := members[0]
	return []Row{{Cols: append([]value.Value{}, m.cols...), Tag: m.tag}}, nil
}
