package dynamic

import (
	"fmt"

	"github.com/ramonfmir/scallop/internal/expr"
	"github.com/ramonfmir/scallop/internal/provenance"
	"github.com/ramonfmir/scallop/internal/ram"
	"github.com/ramonfmir/scallop/internal/value"
)

// Batch selects which staging area of a relation leaf an evaluation reads.
type Batch int

const (
	BatchStable Batch = iota
	BatchRecent
	BatchAll
)

// Store is the set of live relations one compiled program reads and
// writes, keyed by name.
type Store struct {
	Relations map[string]*DynamicRelation
}

func NewStore() *Store { return &Store{Relations: map[string]*DynamicRelation{}} }

func (s *Store) Get(name string) *DynamicRelation { return s.Relations[name] }

// Eval is a dataflow tree's batch evaluator (§4.7): it reads node's leaves
// according to mode and returns every tuple the tree currently derives.
// Tags compose per the §4.7 table: Project/Filter/Find/ForeignConstraint
// preserve the source tag, Join/ForeignJoin multiply, Union leaves
// combination to the caller (DynamicRelation.Changed already folds
// duplicate to-add rows together via the provenance's Add), Antijoin keeps
// the surviving left tag unchanged (a non-match contributes the implicit
// One() of the negated atom), and Exclusion/OverwriteOne force One().
func Eval(node *ram.Dataflow, store *Store, mode map[string]Batch, prov provenance.Context, fp ForeignPredicates, ff expr.ForeignFunctions) ([]Row, error) {
	switch node.Kind {
	case ram.NodeRelation:
		return batchRows(store, node.RelationName, mode), nil
	case ram.NodeUnion:
		left, err := Eval(node.Left, store, mode, prov, fp, ff)
		if err != nil {
			return nil, err
		}
		right, err := Eval(node.Right, store, mode, prov, fp, ff)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	case ram.NodeJoin:
		return evalJoin(node, store, mode, prov, fp, ff)
	case ram.NodeAntijoin:
		return evalAntijoin(node, store, mode, prov, fp, ff)
	case ram.NodeDifference:
		return evalDifference(node, store, mode, prov, fp, ff)
	case ram.NodeProject:
		return evalProject(node, store, mode, prov, fp, ff)
	case ram.NodeFilter:
		return evalFilter(node, store, mode, prov, fp, ff)
	case ram.NodeFind:
		return evalFind(node, store, mode, prov, fp, ff)
	case ram.NodeReduce:
		return EvalReduce(node.Reduce, store, mode, prov, fp, ff)
	case ram.NodeForeignGround, ram.NodeForeignJoin:
		return evalForeignStandalone(node, fp, ff)
	case ram.NodeForeignConstraint:
		return evalForeignConstraint(node, store, mode, prov, fp, ff)
	case ram.NodeExclusion:
		return evalExclusion(node, store, mode, prov, fp, ff)
	case ram.NodeOverwriteOne:
		return evalOverwriteOne(node, store, mode, prov, fp, ff)
	default:
		return nil, fmt.Errorf("dynamic: eval: unhandled node kind %v", node.Kind)
	}
}

func batchRows(store *Store, name string, mode map[string]Batch) []Row {
	rel := store.Get(name)
	if rel == nil {
		return nil
	}
	switch mode[name] {
	case BatchStable:
		return rel.Stable()
	case BatchRecent:
		return rel.Recent()
	default:
		return append(rel.Stable(), rel.Recent()...)
	}
}

func bindingOf(vars []string, cols []value.Value) map[string]value.Value {
	m := make(map[string]value.Value, len(vars))
	for i, v := range vars {
		if v != "" {
			m[v] = cols[i]
		}
	}
	return m
}

func rowFromBinding(vars []string, binding map[string]value.Value, tag any) Row {
	cols := make([]value.Value, len(vars))
	for i, v := range vars {
		if v != "" {
			cols[i] = binding[v]
		}
	}
	return Row{Cols: cols, Tag: tag}
}

func joinKey(joinVars []string, binding map[string]value.Value) string {
	var sb []byte
	for _, v := range joinVars {
		sb = append(sb, binding[v].String()...)
		sb = append(sb, '\x00')
	}
	return string(sb)
}

func isForeignLeaf(n *ram.Dataflow) bool {
	return n.Kind == ram.NodeForeignGround || n.Kind == ram.NodeForeignJoin
}

// evalJoin special-cases a foreign-predicate side: a ForeignGround/Join
// node has no independent row set of its own, it is evaluated once per row
// of the other side using that row's bindings as the call's bound
// arguments (§6, "the engine guarantees all bound positions arrive with
// concrete values" -- those values come from whatever already-bound
// conjunct precedes it in the rule body).
func evalJoin(node *ram.Dataflow, store *Store, mode map[string]Batch, prov provenance.Context, fp ForeignPredicates, ff expr.ForeignFunctions) ([]Row, error) {
	if isForeignLeaf(node.Right) {
		left, err := Eval(node.Left, store, mode, prov, fp, ff)
		if err != nil {
			return nil, err
		}
		return joinForeign(node, left, node.Left.Vars, node.Right, prov, fp, ff)
	}
	if isForeignLeaf(node.Left) {
		right, err := Eval(node.Right, store, mode, prov, fp, ff)
		if err != nil {
			return nil, err
		}
		return joinForeign(node, right, node.Right.Vars, node.Left, prov, fp, ff)
	}
	left, err := Eval(node.Left, store, mode, prov, fp, ff)
	if err != nil {
		return nil, err
	}
	right, err := Eval(node.Right, store, mode, prov, fp, ff)
	if err != nil {
		return nil, err
	}
	return hashJoin(node, left, right, prov), nil
}

func joinForeign(node *ram.Dataflow, rows []Row, sideVars []string, foreignNode *ram.Dataflow, prov provenance.Context, fp ForeignPredicates, ff expr.ForeignFunctions) ([]Row, error) {
	var out []Row
rowLoop:
	for _, row := range rows {
		binding := bindingOf(sideVars, row.Cols)
		args := make([]value.Value, len(foreignNode.ForeignArgs))
		for i, a := range foreignNode.ForeignArgs {
			v, err := expr.Eval(a, expr.Context(binding), ff)
			if err != nil {
				if err == expr.ErrSuppressed {
					continue rowLoop
				}
				return nil, err
			}
			args[i] = v
		}
		results, err := fp.Call(foreignNode.ForeignPredicate, args)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			merged := map[string]value.Value{}
			for k, v := range binding {
				merged[k] = v
			}
			for i, fv := range foreignNode.ForeignFreeVars {
				merged[fv] = r.FreeVals[i]
			}
			out = append(out, rowFromBinding(node.Vars, merged, prov.Mult(row.Tag, r.Tag)))
		}
	}
	return out, nil
}

func hashJoin(node *ram.Dataflow, left, right []Row, prov provenance.Context) []Row {
	index := map[string][]Row{}
	for _, r := range right {
		b := bindingOf(node.Right.Vars, r.Cols)
		k := joinKey(node.JoinVars, b)
		index[k] = append(index[k], r)
	}
	var out []Row
	for _, l := range left {
		lb := bindingOf(node.Left.Vars, l.Cols)
		k := joinKey(node.JoinVars, lb)
		for _, r := range index[k] {
			rb := bindingOf(node.Right.Vars, r.Cols)
			merged := map[string]value.Value{}
			for kk, vv := range lb {
				merged[kk] = vv
			}
			for kk, vv := range rb {
				merged[kk] = vv
			}
			out = append(out, rowFromBinding(node.Vars, merged, prov.Mult(l.Tag, r.Tag)))
		}
	}
	return out
}

func evalAntijoin(node *ram.Dataflow, store *Store, mode map[string]Batch, prov provenance.Context, fp ForeignPredicates, ff expr.ForeignFunctions) ([]Row, error) {
	left, err := Eval(node.Left, store, mode, prov, fp, ff)
	if err != nil {
		return nil, err
	}
	right, err := Eval(node.Right, store, mode, prov, fp, ff)
	if err != nil {
		return nil, err
	}
	excluded := map[string]bool{}
	for _, r := range right {
		b := bindingOf(node.Right.Vars, r.Cols)
		excluded[joinKey(node.JoinVars, b)] = true
	}
	var out []Row
	for _, l := range left {
		b := bindingOf(node.Left.Vars, l.Cols)
		if excluded[joinKey(node.JoinVars, b)] {
			continue
		}
		out = append(out, rowFromBinding(node.Vars, b, l.Tag))
	}
	return out, nil
}

// evalDifference implements full-tuple set difference: left rows whose
// every column matches some right row are dropped. Unlike Antijoin it
// compares the complete schema rather than a join-key subset; lower.go
// does not currently emit this node, but the engine still evaluates it
// should a future lowering need full-row exclusion.
func evalDifference(node *ram.Dataflow, store *Store, mode map[string]Batch, prov provenance.Context, fp ForeignPredicates, ff expr.ForeignFunctions) ([]Row, error) {
	left, err := Eval(node.Left, store, mode, prov, fp, ff)
	if err != nil {
		return nil, err
	}
	right, err := Eval(node.Right, store, mode, prov, fp, ff)
	if err != nil {
		return nil, err
	}
	excluded := map[string]bool{}
	for _, r := range right {
		excluded[Row{Cols: r.Cols}.key()] = true
	}
	var out []Row
	for _, l := range left {
		if excluded[Row{Cols: l.Cols}.key()] {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func evalProject(node *ram.Dataflow, store *Store, mode map[string]Batch, prov provenance.Context, fp ForeignPredicates, ff expr.ForeignFunctions) ([]Row, error) {
	source, err := Eval(node.Source, store, mode, prov, fp, ff)
	if err != nil {
		return nil, err
	}
	var out []Row
	for _, row := range source {
		binding := bindingOf(node.Source.Vars, row.Cols)
		cols := make([]value.Value, len(node.ProjectExprs))
		suppressed := false
		for i, e := range node.ProjectExprs {
			v, err := expr.Eval(e, expr.Context(binding), ff)
			if err != nil {
				if err == expr.ErrSuppressed {
					suppressed = true
					break
				}
				return nil, err
			}
			cols[i] = v
		}
		if suppressed {
			continue
		}
		out = append(out, Row{Cols: cols, Tag: row.Tag})
	}
	return out, nil
}

func evalFilter(node *ram.Dataflow, store *Store, mode map[string]Batch, prov provenance.Context, fp ForeignPredicates, ff expr.ForeignFunctions) ([]Row, error) {
	source, err := Eval(node.Source, store, mode, prov, fp, ff)
	if err != nil {
		return nil, err
	}
	var out []Row
	for _, row := range source {
		binding := bindingOf(node.Source.Vars, row.Cols)
		v, err := expr.Eval(node.FilterExpr, expr.Context(binding), ff)
		if err != nil {
			if err == expr.ErrSuppressed {
				continue
			}
			return nil, err
		}
		if v.AsBool() {
			out = append(out, row)
		}
	}
	return out, nil
}

// evalFind is a degenerate Filter: it keeps Source tuples whose columns
// equal FindKey's evaluated expressions, positionally. It exists for
// completeness with §4.7's node table; the current lowering never needs a
// point lookup distinct from the ordinary Filter path, so it is not
// exercised by LowerProgram today.
func evalFind(node *ram.Dataflow, store *Store, mode map[string]Batch, prov provenance.Context, fp ForeignPredicates, ff expr.ForeignFunctions) ([]Row, error) {
	source, err := Eval(node.Source, store, mode, prov, fp, ff)
	if err != nil {
		return nil, err
	}
	var out []Row
	for _, row := range source {
		binding := bindingOf(node.Source.Vars, row.Cols)
		match := true
		for i, e := range node.FindKey {
			v, err := expr.Eval(e, expr.Context(binding), ff)
			if err != nil {
				return nil, err
			}
			if i >= len(row.Cols) || v.Compare(row.Cols[i]) != 0 {
				match = false
				break
			}
		}
		if match {
			out = append(out, row)
		}
	}
	return out, nil
}

func evalForeignStandalone(node *ram.Dataflow, fp ForeignPredicates, ff expr.ForeignFunctions) ([]Row, error) {
	args := make([]value.Value, len(node.ForeignArgs))
	for i, a := range node.ForeignArgs {
		v, err := expr.Eval(a, expr.Context{}, ff)
		if err != nil {
			if err == expr.ErrSuppressed {
				return nil, nil
			}
			return nil, err
		}
		args[i] = v
	}
	results, err := fp.Call(node.ForeignPredicate, args)
	if err != nil {
		return nil, err
	}
	out := make([]Row, len(results))
	for i, r := range results {
		out[i] = Row{Cols: r.FreeVals, Tag: r.Tag}
	}
	return out, nil
}

func evalForeignConstraint(node *ram.Dataflow, store *Store, mode map[string]Batch, prov provenance.Context, fp ForeignPredicates, ff expr.ForeignFunctions) ([]Row, error) {
	source, err := Eval(node.Source, store, mode, prov, fp, ff)
	if err != nil {
		return nil, err
	}
	var out []Row
	for _, row := range source {
		binding := bindingOf(node.Source.Vars, row.Cols)
		args := make([]value.Value, len(node.ForeignArgs))
		for i, a := range node.ForeignArgs {
			v, err := expr.Eval(a, expr.Context(binding), ff)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		results, err := fp.Call(node.ForeignPredicate, args)
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			out = append(out, row)
		}
	}
	return out, nil
}

func evalExclusion(node *ram.Dataflow, store *Store, mode map[string]Batch, prov provenance.Context, fp ForeignPredicates, ff expr.ForeignFunctions) ([]Row, error) {
	source, err := Eval(node.Source, store, mode, prov, fp, ff)
	if err != nil {
		return nil, err
	}
	excluded := map[string]bool{}
	for _, tuple := range node.Excluded {
		excluded[Row{Cols: tuple}.key()] = true
	}
	var out []Row
	for _, row := range source {
		if excluded[Row{Cols: row.Cols}.key()] {
			continue
		}
		out = append(out, Row{Cols: row.Cols, Tag: prov.One()})
	}
	return out, nil
}

func evalOverwriteOne(node *ram.Dataflow, store *Store, mode map[string]Batch, prov provenance.Context, fp ForeignPredicates, ff expr.ForeignFunctions) ([]Row, error) {
	source, err := Eval(node.Source, store, mode, prov, fp, ff)
	if err != nil {
		return nil, err
	}
	out := make([]Row, len(source))
	for i, row := range source {
		out[i] = Row{Cols: row.Cols, Tag: prov.One()}
	}
	return out, nil
}

// leafRelations returns the distinct relation names node reads, in the
// order they are first encountered walking the tree (deterministic across
// calls against the same compiled dataflow), stopping at Reduce boundaries:
// a reduction's own body is
// re-evaluated in full every time the reduction itself runs (see
// EvalReduce), so its interior relation leaves are not candidates for the
// outer rule's own semi-naive delta split.
func leafRelations(node *ram.Dataflow) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(*ram.Dataflow)
	walk = func(n *ram.Dataflow) {
		if n == nil {
			return
		}
		switch n.Kind {
		case ram.NodeRelation:
			if !seen[n.RelationName] {
				seen[n.RelationName] = true
				out = append(out, n.RelationName)
			}
		case ram.NodeReduce:
			return
		default:
			walk(n.Left)
			walk(n.Right)
			walk(n.Source)
		}
	}
	walk(node)
	return out
}

// EvalUpdateDelta evaluates one stratum update's dataflow using the
// semi-naive leftmost-delta schedule (§4.7). Only relation leaves that
// belong to the stratum currently being evaluated (stratumRelations)
// participate in the delta split -- a leaf from any earlier, already
// completed stratum is read in full (Stable+Recent, i.e. BatchAll) every
// time, since that relation has no "this iteration's novelty" left once
// its own stratum finished (§4.9 step 5, "each relation is completed").
// Among the in-stratum leaves (in a fixed order), one pass evaluates that
// leaf's Recent batch against every earlier leaf's Stable batch and every
// later leaf's Stable+Recent batch, and the passes are unioned. Reduce
// leaves are not part of this split -- they are always evaluated against
// the full state of whatever they read (see EvalReduce), since their
// dependency is by construction from an earlier, completed stratum.
// Duplicate derivations across passes are harmless: DynamicRelation.Changed
// folds them together with the provenance's idempotent Add before they
// reach a relation's stable set.
func EvalUpdateDelta(u ram.Update, stratumRelations map[string]bool, store *Store, prov provenance.Context, fp ForeignPredicates, ff expr.ForeignFunctions) ([]Row, error) {
	allLeaves := leafRelations(u.Dataflow)
	base := map[string]Batch{}
	var deltaLeaves []string
	for _, n := range allLeaves {
		base[n] = BatchAll
		if stratumRelations[n] {
			deltaLeaves = append(deltaLeaves, n)
		}
	}
	if len(deltaLeaves) == 0 {
		return Eval(u.Dataflow, store, base, prov, fp, ff)
	}
	var all []Row
	for i, name := range deltaLeaves {
		mode := map[string]Batch{}
		for k, v := range base {
			mode[k] = v
		}
		for j, other := range deltaLeaves {
			switch {
			case j < i:
				mode[other] = BatchStable
			case j == i:
				mode[other] = BatchRecent
			default:
				mode[other] = BatchAll
			}
		}
		rows, err := Eval(u.Dataflow, store, mode, prov, fp, ff)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	return all, nil
}
