package ast

import "github.com/ramonfmir/scallop/internal/expr"

// GroupByKind selects how a reduction's group key is computed (§4.8).
type GroupByKind int

const (
	GroupByNone     GroupByKind = iota // one global group
	GroupByImplicit                    // key = non-binding/non-argument head vars shared with the enclosing rule
	GroupByJoin                        // key = tuple produced by an auxiliary relation
)

// GroupBy describes a reduction's grouping discriminator.
type GroupBy struct {
	Kind GroupByKind
	// Relation is populated for GroupByJoin: the auxiliary relation whose
	// tuples supply the group key, evaluated earlier in the stratum.
	Relation string
	// Vars is populated for GroupByImplicit: the outer head variables that
	// form the key, discovered by the enclosing rule's boundness context.
	Vars []string
}

// Reduction is an aggregation (§2.3, §4.2 "Aggregation boundness", §4.3,
// §4.8): `result = op(bindings : body)[group_by]` with optional arguments.
type Reduction struct {
	Op           string
	ResultVars   []string
	BindingVars  []string // locally scoped to Body
	Args         []*expr.Expr
	Body         *Formula
	GroupBy      *GroupBy
	NegateResult bool // `forall` is internally `¬exists(¬body)`; see ast.Normalize
	Loc          Location
}

// KnownAggregators lists the aggregator names the engine recognizes (§4.3,
// §4.4). Names outside this set are rejected with UnknownAggregator at
// type-inference time per the Open Question resolution in §9.
var KnownAggregators = map[string]bool{
	"count":  true,
	"sum":    true,
	"prod":   true,
	"min":    true,
	"max":    true,
	"exists": true,
	"forall": true,
	"unique": true,
	"top_k":  true,
}

// IsMinMax reports whether op is `min` or `max`, the only aggregators
// permitted to carry arguments (§4.3).
func IsMinMax(op string) bool { return op == "min" || op == "max" }
