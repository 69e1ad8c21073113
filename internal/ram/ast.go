// Package ram implements the Relational Algebra Machine: the dataflow IR
// that rule bodies lower into (§4.5), the stratification pass that orders
// relations into a schedule the fixpoint scheduler can run (§4.5 step 2),
// and a debug JSON codec for inspecting the lowered IR (`dump-ram`).
package ram

import (
	"github.com/ramonfmir/scallop/internal/expr"
	"github.com/ramonfmir/scallop/internal/value"
)

// NodeKind tags the Dataflow union (§4.5 step 3, §4.7's node table).
type NodeKind int

const (
	NodeRelation NodeKind = iota
	NodeUnion
	NodeJoin
	NodeAntijoin
	NodeDifference
	NodeProject
	NodeFilter
	NodeFind
	NodeReduce
	NodeForeignGround
	NodeForeignJoin
	NodeForeignConstraint
	NodeExclusion
	NodeOverwriteOne
)

func (k NodeKind) String() string {
	switch k {
	case NodeRelation:
		return "Relation"
	case NodeUnion:
		return "Union"
	case NodeJoin:
		return "Join"
	case NodeAntijoin:
		return "Antijoin"
	case NodeDifference:
		return "Difference"
	case NodeProject:
		return "Project"
	case NodeFilter:
		return "Filter"
	case NodeFind:
		return "Find"
	case NodeReduce:
		return "Reduce"
	case NodeForeignGround:
		return "ForeignGround"
	case NodeForeignJoin:
		return "ForeignJoin"
	case NodeForeignConstraint:
		return "ForeignConstraint"
	case NodeExclusion:
		return "Exclusion"
	case NodeOverwriteOne:
		return "OverwriteOne"
	default:
		return "<invalid>"
	}
}

// Dataflow is one node of the lowered rule-body tree. Exactly one payload
// field group is populated, selected by Kind. Vars records the variable
// name bound to each column of the tuple stream this node produces ("" for
// a column with no bound name, e.g. a wildcard argument) -- every
// evaluator in internal/runtime/dynamic locates a join/filter/project key
// by looking it up in Vars rather than by a separately threaded schema
// type, the same role the teacher's AST nodes give their own Loc field:
// one small piece of bookkeeping carried on every node rather than computed
// out-of-band.
type Dataflow struct {
	Kind NodeKind
	Vars []string

	// NodeRelation: a leaf reading a named relation's current batches.
	RelationName string

	// NodeUnion / NodeJoin / NodeAntijoin / NodeDifference: binary nodes.
	// JoinVars names the shared columns the join/antijoin keys on (for
	// Union, unused; both sides already share Vars by construction, see
	// lowerDisjunction).
	Left     *Dataflow
	Right    *Dataflow
	JoinVars []string

	// NodeProject / NodeFilter / NodeFind / NodeExclusion / NodeOverwriteOne:
	// unary nodes wrapping a single Source.
	Source *Dataflow

	// NodeProject: ProjectVars[i] names the output column computed by
	// evaluating ProjectExprs[i] against Source's current variable bindings.
	ProjectVars  []string
	ProjectExprs []*expr.Expr

	// NodeFilter: Source tuples are kept where FilterExpr evaluates true.
	FilterExpr *expr.Expr

	// NodeFind: point lookup of Source for the ground key FindKey
	// (evaluated against the outer binding context, not Source's own
	// columns), used when every column of a join side is already bound.
	FindKey []*expr.Expr

	// NodeForeignGround / NodeForeignJoin / NodeForeignConstraint: a call
	// into a declared foreign predicate (§6). ForeignArgs supplies the
	// bound-position argument expressions in declaration order;
	// ForeignFreeVars names the output variables bound to the free
	// positions, in declaration order. NodeForeignConstraint additionally
	// wraps Source, filtering it by a ground (no free positions) call.
	ForeignPredicate string
	ForeignArgs      []*expr.Expr
	ForeignFreeVars  []string

	// NodeExclusion: Source tuples whose JoinVars-projection matches no row
	// of Excluded are kept, tagged with one() -- the constant-set analogue
	// of Antijoin (§4.7).
	Excluded [][]value.Value

	// NodeReduce: an aggregation leaf (§4.8).
	Reduce *ReduceNode
}

// GroupByKind mirrors ast.GroupByKind for the lowered IR (kept as a
// distinct type so internal/ram does not need to import ast's full surface
// just for this one enum; the two are translated 1:1 in lower.go).
type GroupByKind int

const (
	GroupByNone GroupByKind = iota
	GroupByImplicit
	GroupByJoin
)

// GroupBy is the lowered form of ast.GroupBy.
type GroupBy struct {
	Kind     GroupByKind
	Relation string
	Vars     []string
}

// ReduceNode is the lowered form of ast.Reduction (§4.8): Source is the
// dataflow tree for the reduction's body, already restricted to the
// binding variables' scope.
type ReduceNode struct {
	Op           string
	ResultVars   []string
	BindingVars  []string
	Args         []*expr.Expr
	Source       *Dataflow
	GroupBy      GroupBy
	NegateResult bool
	K            int // top_k width; 0 for every other operator
}

// Update is one `target <- dataflow` entry in a stratum's update list
// (§4.5 step 4).
type Update struct {
	Target   string
	Dataflow *Dataflow
}

// Stratum is one fixpoint unit (§4.5 step 2, §4.9): every relation named in
// Relations is evaluated together because their defining rules form a
// cycle (IsRecursive) or, for a singleton non-recursive stratum, simply
// because nothing downstream depends on it yet.
type Stratum struct {
	Relations   []string
	Updates     []Update
	IsRecursive bool
}

// Program is the fully lowered RAM form of an ast.Program: strata in
// scheduling order (§4.9 "for each stratum in program order").
type Program struct {
	Strata []Stratum
}
