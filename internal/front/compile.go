package front

import "github.com/ramonfmir/scallop/internal/ast"

// AnalyzerPasses lets internal/front build the standard pipeline without
// importing internal/front/analyzers directly (analyzers already imports
// front, and front must not import it back). Compile's caller supplies the
// four analysis passes plus the normalization pass, which Compile runs in a
// fixed order; Compile only adds
// the PassManager sequencing and the NewContext bookkeeping around them.
type AnalyzerPasses struct {
	ConstantDecl Pass // §4.1
	Aggregation  Pass // §4.3, validated against raw (pre-normalize) bodies
	Normalize    Pass // §4.5 step 1, desugars `implies`/`forall`/`exists`
	Boundness    Pass // §4.2, assumes Normalize has already run
	TypeInfer    Pass // §4.4
}

// Compile runs the front end's fixed pass pipeline over p and returns the
// resulting Context. The order matters and is not configurable:
// ConstantDecl must run first since every other pass consults ctx.Constants;
// Aggregation must see the program's raw forall/exists syntax before
// Normalize rewrites it away; Boundness and TypeInfer both assume a
// normalized body. Every pass runs even after an earlier one reports
// errors; if any Error-severity diagnostic was reported, Compile then
// returns ctx.Diagnostics as the error (§7). Only a pass's own Go error
// stops the pipeline early.
func Compile(p *ast.Program, passes AnalyzerPasses) (*Context, error) {
	ctx := NewContext(p)
	pm := NewPassManager(
		passes.ConstantDecl,
		passes.Aggregation,
		passes.Normalize,
		passes.Boundness,
		passes.TypeInfer,
	)
	if err := pm.RunAll(p, ctx); err != nil {
		return ctx, err
	}
	if ctx.Diagnostics.HasErrors() {
		return ctx, &ctx.Diagnostics
	}
	return ctx, nil
}
