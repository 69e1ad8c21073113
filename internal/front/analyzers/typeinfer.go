package analyzers

import (
	"fmt"
	"sort"

	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/expr"
	"github.com/ramonfmir/scallop/internal/front"
	"github.com/ramonfmir/scallop/internal/value"
)

// TypeInferencePass assigns a concrete primitive type to every rule variable
// and expression node (§4.4). Each inference variable starts as a TypeSet --
// the family of types it could still resolve to -- and every structural
// constraint (a relation's declared column type, an arithmetic operator's
// numeric requirement, an if-then-else's branches agreeing, a foreign
// function's generic bound) narrows that set by intersection until a
// fixpoint. A rule variable whose TypeSet narrows to empty, or is still
// ambiguous outside the numeric-literal-defaulting rule, is
// CannotUnifyVariables; an expression node in the same state is
// CannotUnifyTypes.
//
// Runs after BoundnessPass: it does not itself require boundness, but
// reusing the same normalized, disjunction-of-conjunctions body shape keeps
// the walk logic identical to boundness.go.
type TypeInferencePass struct {
	Relations         map[string]*ast.RelationDecl
	ForeignFunctions  map[string]*ast.ForeignFunctionDecl
	ForeignPredicates map[string]*ast.ForeignPredicateDecl
}

func (TypeInferencePass) Name() string { return "typeinfer" }

func (tp TypeInferencePass) Run(p *ast.Program, ctx *front.Context) error {
	rels := tp.Relations
	if rels == nil {
		rels = p.RelationByName()
	}
	ffs := tp.ForeignFunctions
	if ffs == nil {
		ffs = ctx.ForeignFunctions
	}
	fps := tp.ForeignPredicates
	if fps == nil {
		fps = ctx.ForeignPredicates
	}

	for _, rule := range p.Rules {
		s := newSolver()

		constrainByRelation := func(a *ast.Atom) {
			decl, ok := rels[a.Predicate]
			if !ok {
				return
			}
			cols := decl.ArgTypes.Flatten()
			for i, arg := range a.Args {
				if i >= len(cols) || arg.Kind != ast.ArgVariable {
					continue
				}
				s.narrowVar(arg.Var, setOf(cols[i]))
			}
		}
		constrainByForeignPredicate := func(a *ast.Atom) {
			decl, ok := fps[a.Predicate]
			if !ok {
				return
			}
			for i, arg := range a.Args {
				if i >= len(decl.ArgTypes) || arg.Kind != ast.ArgVariable {
					continue
				}
				s.narrowVar(arg.Var, setOf(decl.ArgTypes[i]))
			}
		}

		// Step 1: seed from declared shapes -- relation columns and foreign
		// predicate argument types bind every variable that touches them.
		for _, h := range rule.Heads {
			constrainByRelation(h)
		}
		walkAllFormulas(rule.Body, func(f *ast.Formula) {
			switch f.Kind {
			case ast.FormulaAtom, ast.FormulaNegAtom:
				constrainByRelation(f.Atom)
				constrainByForeignPredicate(f.Atom)
			case ast.FormulaReduce:
				// AggregationPass only warns on an unknown aggregator name
				// (§9 Open Questions) so every later pass still runs and
				// reports its own findings (§7); type inference is where
				// that warning becomes the actual hard failure, since an
				// aggregator with no known result type can't be typed.
				if !ast.KnownAggregators[f.Reduce.Op] {
					ctx.Diagnostics.Errorf("UnknownAggregator", f.Reduce.Loc,
						"unknown aggregator %q", f.Reduce.Op)
				}
			}
		})

		// Step 2: propagate through expression structure and reductions to a
		// fixpoint (comparisons, arithmetic, casts, foreign calls, result
		// vars).
		for changed := true; changed; {
			changed = false
			walkAllFormulas(rule.Body, func(f *ast.Formula) {
				switch f.Kind {
				case ast.FormulaConstraint:
					if s.visitExpr(f.Constraint, ffs) {
						changed = true
					}
					if s.narrowNode(f.Constraint, setOf(value.TypeBool)) {
						changed = true
					}
				case ast.FormulaReduce:
					if visitReduction(s, f.Reduce, ffs) {
						changed = true
					}
				}
			})
		}

		tp.finalize(rule, s, ctx)
	}
	return nil
}

// walkAllFormulas is Formula.Walk extended to also descend into every
// Reduce's own Body, which plain Walk deliberately skips (formula.go) since
// most passes treat a reduction's body as a separately scoped sub-formula.
// Type inference wants every atom and constraint in the whole rule, reduction
// bodies included, in one pass.
func walkAllFormulas(f *ast.Formula, visit func(*ast.Formula)) {
	f.Walk(func(inner *ast.Formula) {
		visit(inner)
		if inner.Kind == ast.FormulaReduce {
			walkAllFormulas(inner.Reduce.Body, visit)
		}
	})
}

// --- TypeSet ---

type typeSet map[value.Type]bool

func setOf(ts ...value.Type) typeSet {
	s := make(typeSet, len(ts))
	for _, t := range ts {
		s[t] = true
	}
	return s
}

func numericSet() typeSet {
	s := setOf(value.AllIntegerTypes...)
	for _, t := range value.AllFloatTypes {
		s[t] = true
	}
	return s
}

func universalSet() typeSet {
	s := numericSet()
	s[value.TypeBool] = true
	s[value.TypeChar] = true
	s[value.TypeString] = true
	s[value.TypeSymbol] = true
	return s
}

func (s typeSet) clone() typeSet {
	out := make(typeSet, len(s))
	for t := range s {
		out[t] = true
	}
	return out
}

func (s typeSet) intersect(o typeSet) typeSet {
	out := make(typeSet)
	for t := range s {
		if o[t] {
			out[t] = true
		}
	}
	return out
}

func (s typeSet) only() (value.Type, bool) {
	if len(s) != 1 {
		return value.TypeInvalid, false
	}
	for t := range s {
		return t, true
	}
	return value.TypeInvalid, false
}

func (s typeSet) sorted() []value.Type {
	out := make([]value.Type, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// --- solver ---

// solver holds one rule's inference variables: one per free variable name,
// one per expression node (keyed by pointer identity, matching
// front.Context.ExprTypes), and one per generic slot of a foreign-function
// call site.
type solver struct {
	vars  map[string]typeSet
	nodes map[*expr.Expr]typeSet
	gens  map[string]typeSet
}

func newSolver() *solver {
	return &solver{vars: map[string]typeSet{}, nodes: map[*expr.Expr]typeSet{}, gens: map[string]typeSet{}}
}

func (s *solver) varSet(name string) typeSet {
	ts, ok := s.vars[name]
	if !ok {
		ts = universalSet()
		s.vars[name] = ts
	}
	return ts
}

func (s *solver) narrowVar(name string, with typeSet) bool {
	cur := s.varSet(name)
	next := cur.intersect(with)
	if len(next) == len(cur) {
		return false
	}
	s.vars[name] = next
	return true
}

func (s *solver) nodeSet(e *expr.Expr) typeSet {
	ts, ok := s.nodes[e]
	if !ok {
		ts = initialNodeSet(e)
		s.nodes[e] = ts
	}
	return ts
}

func initialNodeSet(e *expr.Expr) typeSet {
	switch e.Kind {
	case expr.KindConst:
		if e.ConstAmbiguous {
			if e.Const.Type().IsFloat() {
				return setOf(value.AllFloatTypes...)
			}
			return setOf(value.AllIntegerTypes...)
		}
		return setOf(e.Const.Type())
	case expr.KindCast:
		return setOf(e.CastTarget)
	default:
		return universalSet()
	}
}

func (s *solver) narrowNode(e *expr.Expr, with typeSet) bool {
	cur := s.nodeSet(e)
	next := cur.intersect(with)
	if len(next) == len(cur) {
		return false
	}
	s.nodes[e] = next
	return true
}

func (s *solver) narrowGen(key string, with typeSet) bool {
	cur, ok := s.gens[key]
	if !ok {
		s.gens[key] = with.clone()
		return true
	}
	next := cur.intersect(with)
	if len(next) == len(cur) {
		return false
	}
	s.gens[key] = next
	return true
}

func (s *solver) genSet(key string) typeSet {
	ts, ok := s.gens[key]
	if !ok {
		return universalSet()
	}
	return ts
}

// visitExpr links e's node set with its children's and its variable's (for a
// KindVar leaf), returning whether any inference variable changed this call.
func (s *solver) visitExpr(e *expr.Expr, ffs map[string]*ast.ForeignFunctionDecl) bool {
	if e == nil {
		return false
	}
	changed := false

	switch e.Kind {
	case expr.KindVar:
		if s.narrowVar(e.Var, s.nodeSet(e)) {
			changed = true
		}
		if s.narrowNode(e, s.varSet(e.Var)) {
			changed = true
		}

	case expr.KindBinary:
		if s.visitExpr(e.Left, ffs) {
			changed = true
		}
		if s.visitExpr(e.Right, ffs) {
			changed = true
		}
		switch e.BinOp {
		case expr.Add, expr.Sub, expr.Mul, expr.Div, expr.Mod:
			merged := s.nodeSet(e.Left).intersect(s.nodeSet(e.Right)).intersect(numericSet())
			if s.narrowNode(e.Left, merged) {
				changed = true
			}
			if s.narrowNode(e.Right, merged) {
				changed = true
			}
			if s.narrowNode(e, merged) {
				changed = true
			}
		case expr.Lt, expr.Leq, expr.Gt, expr.Geq, expr.Eq, expr.Neq:
			merged := s.nodeSet(e.Left).intersect(s.nodeSet(e.Right))
			if s.narrowNode(e.Left, merged) {
				changed = true
			}
			if s.narrowNode(e.Right, merged) {
				changed = true
			}
			if s.narrowNode(e, setOf(value.TypeBool)) {
				changed = true
			}
		case expr.And, expr.Or:
			if s.narrowNode(e.Left, setOf(value.TypeBool)) {
				changed = true
			}
			if s.narrowNode(e.Right, setOf(value.TypeBool)) {
				changed = true
			}
			if s.narrowNode(e, setOf(value.TypeBool)) {
				changed = true
			}
		}

	case expr.KindUnary:
		if s.visitExpr(e.Operand, ffs) {
			changed = true
		}
		switch e.UnOp {
		case expr.Neg, expr.Pos:
			merged := s.nodeSet(e.Operand).intersect(numericSet())
			if s.narrowNode(e.Operand, merged) {
				changed = true
			}
			if s.narrowNode(e, merged) {
				changed = true
			}
		case expr.Not:
			if s.narrowNode(e.Operand, setOf(value.TypeBool)) {
				changed = true
			}
			if s.narrowNode(e, setOf(value.TypeBool)) {
				changed = true
			}
		}

	case expr.KindCast:
		if s.visitExpr(e.CastFrom, ffs) {
			changed = true
		}
		if s.narrowNode(e, setOf(e.CastTarget)) {
			changed = true
		}

	case expr.KindIfThenElse:
		if s.visitExpr(e.Cond, ffs) {
			changed = true
		}
		if s.visitExpr(e.Then, ffs) {
			changed = true
		}
		if s.visitExpr(e.Else, ffs) {
			changed = true
		}
		if s.narrowNode(e.Cond, setOf(value.TypeBool)) {
			changed = true
		}
		merged := s.nodeSet(e.Then).intersect(s.nodeSet(e.Else))
		if s.narrowNode(e.Then, merged) {
			changed = true
		}
		if s.narrowNode(e.Else, merged) {
			changed = true
		}
		if s.narrowNode(e, merged) {
			changed = true
		}

	case expr.KindCall:
		decl := ffs[e.CallFunc]
		if decl == nil {
			break // unknown foreign function: reported by a separate check
		}
		callKey := fmt.Sprintf("%p", e)
		for i, a := range e.CallArgs {
			if s.visitExpr(a, ffs) {
				changed = true
			}
			bound := boundAt(decl, i)
			if s.linkBound(callKey, bound, decl, a) {
				changed = true
			}
		}
		if s.linkBound(callKey, decl.Return, decl, e) {
			changed = true
		}
	}
	return changed
}

// linkBound narrows target's node set against a foreign declaration's
// TypeBound, routing FamilyGeneric bounds through a per-call-site generic
// slot shared by every argument/return position that names the same
// GenericID (§6 Foreign function contract).
func (s *solver) linkBound(callKey string, b ast.TypeBound, decl *ast.ForeignFunctionDecl, target *expr.Expr) bool {
	if b.Family == ast.FamilyAny {
		return false
	}
	if b.Family != ast.FamilyGeneric {
		return s.narrowNode(target, familyBaseSet(b, decl))
	}
	gk := fmt.Sprintf("%s#%d", callKey, b.GenericID)
	changed := s.narrowGen(gk, familyBaseSet(b, decl))
	if s.narrowGen(gk, s.nodeSet(target)) {
		changed = true
	}
	if s.narrowNode(target, s.genSet(gk)) {
		changed = true
	}
	return changed
}

func boundAt(decl *ast.ForeignFunctionDecl, i int) ast.TypeBound {
	if i < len(decl.Required) {
		return decl.Required[i]
	}
	j := i - len(decl.Required)
	if j < len(decl.Optional) {
		return decl.Optional[j]
	}
	if decl.Variadic != nil {
		return *decl.Variadic
	}
	return ast.TypeBound{Family: ast.FamilyAny}
}

func familyBaseSet(b ast.TypeBound, decl *ast.ForeignFunctionDecl) typeSet {
	switch b.Family {
	case ast.FamilyConcrete:
		return setOf(b.Concrete)
	case ast.FamilyInteger:
		return setOf(value.AllIntegerTypes...)
	case ast.FamilyFloat:
		return setOf(value.AllFloatTypes...)
	case ast.FamilyNumber:
		return numericSet()
	case ast.FamilyGeneric:
		if b.GenericID < len(decl.GenericFamilies) {
			switch decl.GenericFamilies[b.GenericID] {
			case ast.FamilyInteger:
				return setOf(value.AllIntegerTypes...)
			case ast.FamilyFloat:
				return setOf(value.AllFloatTypes...)
			case ast.FamilyNumber:
				return numericSet()
			}
		}
		return universalSet()
	default:
		return universalSet()
	}
}

// visitReduction links a reduction's result/binding/argument variables
// according to its aggregator semantics (§4.8): count always yields an
// integer; sum/prod/min/max share the numeric type of what they fold over;
// unique/top_k copy each binding variable's type positionally to the
// matching result variable; exists (and forall, normalized to exists by
// ast.Normalize) always yields bool.
func visitReduction(s *solver, r *ast.Reduction, ffs map[string]*ast.ForeignFunctionDecl) bool {
	changed := false
	for _, a := range r.Args {
		if s.visitExpr(a, ffs) {
			changed = true
		}
	}
	switch r.Op {
	case "count":
		if len(r.ResultVars) > 0 {
			if s.narrowVar(r.ResultVars[0], setOf(value.AllIntegerTypes...)) {
				changed = true
			}
		}
	case "sum", "prod":
		if len(r.ResultVars) > 0 && len(r.BindingVars) > 0 {
			merged := s.varSet(r.ResultVars[0]).intersect(s.varSet(r.BindingVars[0])).intersect(numericSet())
			if s.narrowVar(r.ResultVars[0], merged) {
				changed = true
			}
			if s.narrowVar(r.BindingVars[0], merged) {
				changed = true
			}
		}
	case "min", "max":
		if len(r.ResultVars) > 0 && len(r.Args) > 0 {
			merged := s.varSet(r.ResultVars[0]).intersect(s.nodeSet(r.Args[0])).intersect(numericSet())
			if s.narrowVar(r.ResultVars[0], merged) {
				changed = true
			}
			if s.narrowNode(r.Args[0], merged) {
				changed = true
			}
		}
	case "exists":
		if len(r.ResultVars) > 0 {
			if s.narrowVar(r.ResultVars[0], setOf(value.TypeBool)) {
				changed = true
			}
		}
	case "unique", "top_k":
		for i := 0; i < len(r.ResultVars) && i < len(r.BindingVars); i++ {
			merged := s.varSet(r.ResultVars[i]).intersect(s.varSet(r.BindingVars[i]))
			if s.narrowVar(r.ResultVars[i], merged) {
				changed = true
			}
			if s.narrowVar(r.BindingVars[i], merged) {
				changed = true
			}
		}
	}
	return changed
}

// finalize resolves every inference variable of rule to a concrete type and
// records it on ctx, reporting CannotUnifyTypes/CannotUnifyVariables for
// anything left empty or ambiguous outside the literal-defaulting rule.
func (tp TypeInferencePass) finalize(rule *ast.Rule, s *solver, ctx *front.Context) {
	resolved := map[string]value.Type{}
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t, ok := resolveSet(s.vars[name])
		if !ok {
			ctx.Diagnostics.Errorf("CannotUnifyVariables", rule.Loc,
				"variable %q has no consistent type (candidates: %v)", name, s.vars[name].sorted())
			continue
		}
		resolved[name] = t
	}
	ctx.VarTypes[rule] = resolved

	for node, set := range s.nodes {
		t, ok := resolveSet(set)
		if !ok {
			ctx.Diagnostics.Errorf("CannotUnifyTypes", node.Loc,
				"expression has no consistent type (candidates: %v)", set.sorted())
			continue
		}
		ctx.ExprTypes[node] = t
	}
}

// resolveSet collapses a TypeSet to one concrete type. An empty set is a
// hard unification failure. A set with more than one candidate defaults via
// value.DefaultInteger/value.DefaultFloat when every remaining candidate is
// in the same numeric family (the unsuffixed-literal case, §4.4); any other
// multi-candidate set is reported rather than guessed at.
func resolveSet(set typeSet) (value.Type, bool) {
	if len(set) == 0 {
		return value.TypeInvalid, false
	}
	if t, ok := set.only(); ok {
		return t, true
	}
	allInt, allFloat := true, true
	for t := range set {
		if !t.IsInteger() {
			allInt = false
		}
		if !t.IsFloat() {
			allFloat = false
		}
	}
	if allInt && set[value.DefaultInteger] {
		return value.DefaultInteger, true
	}
	if allFloat && set[value.DefaultFloat] {
		return value.DefaultFloat, true
	}
	return value.TypeInvalid, false
}
