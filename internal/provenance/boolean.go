package provenance

import "github.com/ramonfmir/scallop/internal/ast"

// BooleanContext is the two-valued provenance: a tag is simply "is this
// tuple derivable at all", with add = OR and mult = AND. It differs from
// UnitContext in that `false`-tagged tuples are meaningful (and discarded),
// which matters once a rule introduces an explicit disjunctive/exclusive
// input tag that can resolve to "known absent".
type BooleanContext struct{}

func (BooleanContext) Name() string { return "boolean" }

func (BooleanContext) Zero() any { return false }
func (BooleanContext) One() any  { return true }

func (BooleanContext) Add(a, b any) any  { return a.(bool) || b.(bool) }
func (BooleanContext) Mult(a, b any) any { return a.(bool) && b.(bool) }

func (BooleanContext) Negate(a any) (any, bool) { return !a.(bool), true }

func (BooleanContext) Discard(a any) bool { return !a.(bool) }

func (BooleanContext) Saturated(old, new any) bool { return old.(bool) == new.(bool) }

func (BooleanContext) Weight(a any) float64 {
	if a.(bool) {
		return 1
	}
	return 0
}

func (BooleanContext) TagOfInput(kind ast.InputTagKind, disjID int, prob float64) any {
	switch kind {
	case ast.InputTagProbability, ast.InputTagExclusiveProbability:
		return prob > 0
	default:
		return true
	}
}

func (BooleanContext) String(a any) string {
	if a.(bool) {
		return "true"
	}
	return "false"
}
