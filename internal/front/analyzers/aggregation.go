package analyzers

import (
	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/front"
)

// AggregationPass validates reduction well-formedness independently of
// types (§4.3).
type AggregationPass struct{}

func (AggregationPass) Name() string { return "aggregation" }

func (AggregationPass) Run(p *ast.Program, ctx *front.Context) error {
	for _, rule := range p.Rules {
		rule.Body.Walk(func(f *ast.Formula) {
			// Aggregation analysis runs before normalization (§4.5), so a
			// bare `forall`/`exists` still carries its raw
			// FormulaForallExistsReduce shape here; every other aggregator
			// is already a plain FormulaReduce.
			switch f.Kind {
			case ast.FormulaReduce, ast.FormulaForallExistsReduce:
				checkReduction(f.Reduce, ctx)
			}
		})
	}
	return nil
}

func checkReduction(r *ast.Reduction, ctx *front.Context) {
	if !ast.KnownAggregators[r.Op] {
		ctx.Diagnostics.Warnf("UnknownAggregator", r.Loc, "unknown aggregator %q", r.Op)
		// Continue validating: an unknown aggregator still gets the
		// argument/binding shape checks below. §9 Open Questions resolves
		// this to a hard error only at type-inference time, once every
		// other pass has had a chance to report its own findings (§7); a
		// warning here just records the name for that later failure.
	}

	if len(r.Args) > 0 && !ast.IsMinMax(r.Op) {
		ctx.Diagnostics.Errorf("NonMinMaxAggregationHasArgument", r.Loc,
			"aggregator %q does not accept arguments", r.Op)
	}

	if r.Op == "forall" && r.Body.Kind != ast.FormulaImplies {
		ctx.Diagnostics.Errorf("ForallBodyNotImplies", r.Loc, "forall body must be an implication")
	}

	if len(r.BindingVars) == 0 && r.Op != "exists" && r.Op != "forall" && ast.KnownAggregators[r.Op] {
		ctx.Diagnostics.Errorf("EmptyBinding", r.Loc, "aggregator %q requires a non-empty binding list", r.Op)
	}

	if r.Op == "unique" && len(r.ResultVars) != len(r.BindingVars) {
		ctx.Diagnostics.Errorf("UniqueArityMismatch", r.Loc,
			"unique requires |result| == |binding|, got %d and %d", len(r.ResultVars), len(r.BindingVars))
	}
}
