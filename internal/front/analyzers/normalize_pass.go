package analyzers

import (
	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/front"
)

// NormalizePass rewrites every rule body to ast.Normalize's base forms
// (§4.5 step 1) in place. It must run after AggregationPass, which validates
// `forall`/`exists` against their raw surface syntax, and before
// BoundnessPass, which assumes the disjunction-of-conjunctions shape
// Normalize produces (§4.2).
type NormalizePass struct{}

func (NormalizePass) Name() string { return "normalize" }

func (NormalizePass) Run(p *ast.Program, ctx *front.Context) error {
	for _, rule := range p.Rules {
		rule.Body = ast.Normalize(rule.Body)
	}
	return nil
}
