package analyzers

import (
	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/expr"
	"github.com/ramonfmir/scallop/internal/front"
)

// BoundnessPass proves that every variable in a rule head (and every
// reduction argument) is range-restricted under the rule body (§4.2). It
// assumes Normalize has already run: a bare FormulaForallExistsReduce
// reaching this pass is the internal invariant violation described in §9
// Open Questions.
type BoundnessPass struct {
	// ForeignPredicates resolves a foreign-predicate atom's binding
	// pattern; relation atoms are always fully free (every argument
	// becomes bound).
	ForeignPredicates map[string]*ast.ForeignPredicateDecl
}

func (BoundnessPass) Name() string { return "boundness" }

func (bp BoundnessPass) Run(p *ast.Program, ctx *front.Context) error {
	fps := bp.ForeignPredicates
	if fps == nil {
		fps = ctx.ForeignPredicates
	}
	for _, rule := range p.Rules {
		bound := boundSetOfFormula(rule.Body, fps, ctx)
		ctx.BoundVars[rule] = bound
		for _, h := range rule.Heads {
			for _, v := range h.Variables() {
				if !bound[v] {
					ctx.Diagnostics.Errorf("HeadExprUnbound", h.Loc,
						"head variable %q is not range-restricted by the rule body", v)
				}
			}
		}
	}
	return nil
}

// boundSetOfFormula computes the bounded-variable set for a (normalized)
// formula used as a rule body or reduction body (§4.2 algorithm).
func boundSetOfFormula(f *ast.Formula, fps map[string]*ast.ForeignPredicateDecl, ctx *front.Context) map[string]bool {
	switch f.Kind {
	case ast.FormulaDisjunction:
		if len(f.Disjuncts) == 0 {
			return map[string]bool{}
		}
		result := cloneSet(boundSetOfFormula(f.Disjuncts[0], fps, ctx))
		for _, d := range f.Disjuncts[1:] {
			result = intersect(result, boundSetOfFormula(d, fps, ctx))
		}
		return result
	default:
		// A single conjunct (possibly a lone atom/constraint/reduce) is
		// treated as a one-element conjunction context.
		return boundSetOfConjunction(flattenConjuncts(f), fps, ctx)
	}
}

// flattenConjuncts returns f's top-level conjuncts, or []{f} if f is not
// itself a conjunction.
func flattenConjuncts(f *ast.Formula) []*ast.Formula {
	if f.Kind == ast.FormulaConjunction {
		return f.Conjuncts
	}
	return []*ast.Formula{f}
}

// boundSetOfConjunction runs the five-step algorithm of §4.2 over one
// conjunction context.
func boundSetOfConjunction(conjuncts []*ast.Formula, fps map[string]*ast.ForeignPredicateDecl, ctx *front.Context) map[string]bool {
	bound := map[string]bool{}

	// Step 2: embedded aggregations contribute their result+argument vars.
	for _, c := range conjuncts {
		if c.Kind == ast.FormulaReduce {
			publishReductionBoundness(c.Reduce, fps, ctx, bound)
		}
		if c.Kind == ast.FormulaForallExistsReduce {
			panic("front: boundness analysis encountered an un-normalized forall/exists reduction")
		}
	}

	// Step 3: positive atoms bind every argument position (relations bind
	// unconditionally; foreign predicates only bind their `free` slots and
	// require `bound` slots to already be bound). A conjunct that is itself
	// a nested conjunction or disjunction is a positive term too -- exactly
	// as ram/lower.go's lowerConjunction treats anything that isn't a
	// negated atom or a constraint as a "positive" formula to join against
	// -- so its own (recursively computed) bound set is contributed
	// unconditionally, the same way an atom's variables are.
	for _, c := range conjuncts {
		switch c.Kind {
		case ast.FormulaAtom:
			bindPositiveAtom(c.Atom, fps, ctx, bound)
		case ast.FormulaConjunction, ast.FormulaDisjunction:
			for v := range boundSetOfFormula(c, fps, ctx) {
				bound[v] = true
			}
		}
	}

	// Step 4: propagate through equality/assignment constraints to a
	// fixpoint. `x = expr` binds x once every variable of expr is bound;
	// iterate since later equalities can depend on earlier ones.
	for changed := true; changed; {
		changed = false
		for _, c := range conjuncts {
			if c.Kind != ast.FormulaConstraint {
				continue
			}
			if bindAssignment(c.Constraint, bound) {
				changed = true
			}
		}
	}

	return bound
}

func publishReductionBoundness(r *ast.Reduction, fps map[string]*ast.ForeignPredicateDecl, ctx *front.Context, outer map[string]bool) {
	bodyBound := boundSetOfFormula(r.Body, fps, ctx)
	local := cloneSet(bodyBound)
	for _, b := range r.BindingVars {
		delete(local, b)
	}
	for _, a := range r.Args {
		for _, v := range a.Variables() {
			if !local[v] && !bodyBound[v] {
				ctx.Diagnostics.Errorf("ReduceArgUnbound", r.Loc,
					"reduction argument variable %q is not bound by the reduction body", v)
			}
		}
	}
	for _, rv := range r.ResultVars {
		outer[rv] = true
	}
	for _, a := range r.Args {
		for _, v := range a.Variables() {
			outer[v] = true
		}
	}
}

func bindPositiveAtom(a *ast.Atom, fps map[string]*ast.ForeignPredicateDecl, ctx *front.Context, bound map[string]bool) {
	decl, isForeign := fps[a.Predicate]
	if !isForeign {
		for _, v := range a.Variables() {
			bound[v] = true
		}
		return
	}
	for i, arg := range a.Args {
		if arg.Kind != ast.ArgVariable {
			continue
		}
		mode := ast.Bound
		if i < len(decl.Bindings) {
			mode = decl.Bindings[i]
		}
		if mode == ast.Free {
			bound[arg.Var] = true
			continue
		}
		if !bound[arg.Var] {
			ctx.Diagnostics.Errorf("BoundnessAnalysisError", a.Loc,
				"foreign predicate %q argument %q must be bound before the call", a.Predicate, arg.Var)
		}
	}
}

// bindAssignment binds the variable side of an equality expression once the
// other side is fully bound. Returns true if it made progress (drives step
// 4's fixpoint loop). Only direct `var == expr` or `expr == var` shapes
// bind; other comparisons/constraints never bind (§4.2: "Variables
// appearing only in negated atoms, inequality constraints, or non-assigning
// comparisons are not bounded by them").
func bindAssignment(e *expr.Expr, bound map[string]bool) bool {
	if e.Kind != expr.KindBinary || e.BinOp != expr.Eq {
		return false
	}
	lhs, rhs := e.Left, e.Right
	if lhs.Kind != expr.KindVar {
		lhs, rhs = rhs, lhs
	}
	if lhs.Kind != expr.KindVar || bound[lhs.Var] {
		return false
	}
	for _, v := range rhs.Variables() {
		if !bound[v] {
			return false
		}
	}
	bound[lhs.Var] = true
	return true
}

func cloneSet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func intersect(a, b map[string]bool) map[string]bool {
	out := map[string]bool{}
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}
