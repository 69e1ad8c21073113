package ram

import (
	"fmt"
	"sort"

	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/expr"
	"github.com/ramonfmir/scallop/internal/front"
)

// env is the accumulator lowerFormula folds a rule body into: the dataflow
// tree built so far, and the variable binding each of its output columns
// carries ("" for an unbound column, e.g. a wildcard argument).
type env struct {
	df   *Dataflow
	vars []string
}

func varIndex(vars []string, name string) (int, bool) {
	for i, v := range vars {
		if v == name {
			return i, true
		}
	}
	return 0, false
}

func containsVar(vars []string, name string) bool {
	_, ok := varIndex(vars, name)
	return ok
}

// intersectVars returns the names common to both lists, in a's order.
func intersectVars(a, b []string) []string {
	var out []string
	for _, v := range a {
		if v != "" && containsVar(b, v) {
			out = append(out, v)
		}
	}
	return out
}

// LowerRule translates one rule's (already Normalize-d) body into one
// dataflow tree per head atom (§4.5 step 3). ctx must hold the completed
// front-end analysis for the program the rule belongs to; boundness
// analysis having accepted the rule is what guarantees every negation and
// constraint in the body has its free variables already bound by a
// preceding positive conjunct, which lowerConjunction relies on.
func LowerRule(rule *ast.Rule, ctx *front.Context) ([]Update, error) {
	body, err := lowerFormula(rule.Body, ctx)
	if err != nil {
		return nil, err
	}
	updates := make([]Update, len(rule.Heads))
	for i, h := range rule.Heads {
		df, err := projectHead(h, body)
		if err != nil {
			return nil, err
		}
		updates[i] = Update{Target: h.Predicate, Dataflow: df}
	}
	return updates, nil
}

func lowerFormula(f *ast.Formula, ctx *front.Context) (*env, error) {
	switch f.Kind {
	case ast.FormulaAtom:
		return lowerAtomLeaf(f.Atom, ctx)
	case ast.FormulaConjunction:
		return lowerConjunction(f.Conjuncts, ctx)
	case ast.FormulaDisjunction:
		return lowerDisjunction(f.Disjuncts, ctx)
	case ast.FormulaReduce:
		return lowerReduce(f.Reduce, ctx)
	default:
		return nil, fmt.Errorf("ram: lowerFormula: body is not normalized (unexpected formula kind %d)", f.Kind)
	}
}

// lowerAtomLeaf builds the leaf for one atom: a Relation(name) leaf for a
// declared relation, or a NodeForeignGround/NodeForeignJoin node when the
// predicate is a declared foreign predicate (§4.5 step 3, §6 "Foreign
// predicate contract"). Constant arguments and repeated variables (e.g.
// `edge(x, x)`) fold into Filter nodes over synthesized column names -- a
// join's key-matching only ever compares named columns, so a repeated or
// constant argument gets a fresh name plus an equality constraint rather
// than special-cased matching logic threaded through every later stage.
func lowerAtomLeaf(a *ast.Atom, ctx *front.Context) (*env, error) {
	if decl, ok := ctx.ForeignPredicates[a.Predicate]; ok {
		return lowerForeignPredicateLeaf(a, decl)
	}
	return lowerRelationLeaf(a)
}

// lowerForeignPredicateLeaf builds the node for a call to a declared
// foreign predicate: bound positions supply argument expressions, free
// positions become new output variables the engine binds from the
// predicate's returned tuples (§6, "the engine guarantees all bound
// positions arrive with concrete values"). A call with no free positions
// is ground -- it behaves as a boolean test rather than a join source --
// and is represented the same NodeForeignGround way whether it is used
// standalone or as a late filter, since both only ever need the call's
// bound-argument expressions, not an enclosing Source.
func lowerForeignPredicateLeaf(a *ast.Atom, decl *ast.ForeignPredicateDecl) (*env, error) {
	if len(a.Args) != len(decl.Bindings) {
		return nil, fmt.Errorf("ram: foreign predicate %q called with %d arguments, declared with %d", a.Predicate, len(a.Args), len(decl.Bindings))
	}
	var args []*expr.Expr
	var freeVars []string
	for i, arg := range a.Args {
		if decl.Bindings[i] == ast.Free {
			if arg.Kind != ast.ArgVariable {
				return nil, fmt.Errorf("ram: foreign predicate %q free position %d must be a variable", a.Predicate, i)
			}
			freeVars = append(freeVars, arg.Var)
			continue
		}
		switch arg.Kind {
		case ast.ArgVariable:
			args = append(args, expr.Variable(arg.Var))
		case ast.ArgConstant:
			args = append(args, expr.Constant(arg.Const))
		case ast.ArgWildcard:
			return nil, fmt.Errorf("ram: foreign predicate %q bound position %d cannot be a wildcard", a.Predicate, i)
		}
	}
	kind := NodeForeignJoin
	if len(freeVars) == 0 {
		kind = NodeForeignGround
	}
	df := &Dataflow{Kind: kind, ForeignPredicate: a.Predicate, ForeignArgs: args, ForeignFreeVars: freeVars, Vars: freeVars}
	return &env{df: df, vars: freeVars}, nil
}

func lowerRelationLeaf(a *ast.Atom) (*env, error) {
	vars := make([]string, len(a.Args))
	var filters []*expr.Expr
	seen := map[string]bool{}
	for i, arg := range a.Args {
		switch arg.Kind {
		case ast.ArgVariable:
			if seen[arg.Var] {
				fresh := fmt.Sprintf("$dup%d_%s", i, arg.Var)
				vars[i] = fresh
				filters = append(filters, expr.Binary(expr.Eq, expr.Variable(fresh), expr.Variable(arg.Var)))
			} else {
				vars[i] = arg.Var
				seen[arg.Var] = true
			}
		case ast.ArgWildcard:
			vars[i] = ""
		case ast.ArgConstant:
			fresh := fmt.Sprintf("$const%d", i)
			vars[i] = fresh
			filters = append(filters, expr.Binary(expr.Eq, expr.Variable(fresh), expr.Constant(arg.Const)))
		}
	}
	e := &env{df: &Dataflow{Kind: NodeRelation, RelationName: a.Predicate, Vars: vars}, vars: vars}
	for _, f := range filters {
		e = filterEnv(e, f)
	}
	return e, nil
}

func filterEnv(e *env, cond *expr.Expr) *env {
	return &env{df: &Dataflow{Kind: NodeFilter, Source: e.df, FilterExpr: cond, Vars: e.vars}, vars: e.vars}
}

// joinEnvs combines two envs on their shared variable names, widening the
// schema with b's columns that a doesn't already carry.
func joinEnvs(a, b *env) *env {
	shared := intersectVars(a.vars, b.vars)
	outVars := append([]string{}, a.vars...)
	for _, v := range b.vars {
		if v == "" || containsVar(outVars, v) {
			continue
		}
		outVars = append(outVars, v)
	}
	return &env{
		df:   &Dataflow{Kind: NodeJoin, Left: a.df, Right: b.df, JoinVars: shared, Vars: outVars},
		vars: outVars,
	}
}

// antijoinEnv removes from a every tuple whose shared-column projection
// matches a tuple of b (§4.7 Antijoin); the output schema is unchanged
// since b contributes no new bindings.
func antijoinEnv(a, b *env) *env {
	shared := intersectVars(a.vars, b.vars)
	return &env{
		df:   &Dataflow{Kind: NodeAntijoin, Left: a.df, Right: b.df, JoinVars: shared, Vars: a.vars},
		vars: a.vars,
	}
}

// lowerConjunction processes positive conjuncts first (establishing bound
// variables via Join) and then negations/constraints (Antijoin/Filter),
// regardless of their source order: boundness analysis (§4.2) has already
// verified every negation's and constraint's free variables are bound by
// some positive conjunct or reduction in the same formula, and join/filter
// are order-independent at the stream-semantics level (§4.7), so this
// reordering changes nothing observable while keeping the lowering itself
// simple.
func lowerConjunction(fs []*ast.Formula, ctx *front.Context) (*env, error) {
	var positives, negatives, constraints []*ast.Formula
	for _, f := range fs {
		switch f.Kind {
		case ast.FormulaNegAtom:
			negatives = append(negatives, f)
		case ast.FormulaConstraint:
			constraints = append(constraints, f)
		default:
			positives = append(positives, f)
		}
	}
	if len(positives) == 0 {
		return nil, fmt.Errorf("ram: conjunction has no positive conjunct to bind its variables")
	}
	cur, err := lowerFormula(positives[0], ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range positives[1:] {
		next, err := lowerFormula(f, ctx)
		if err != nil {
			return nil, err
		}
		cur = joinEnvs(cur, next)
	}
	for _, f := range negatives {
		neg, err := lowerAtomLeaf(f.Atom, ctx)
		if err != nil {
			return nil, err
		}
		cur = antijoinEnv(cur, neg)
	}
	for _, f := range constraints {
		cur = filterEnv(cur, f.Constraint)
	}
	return cur, nil
}

// lowerDisjunction unions its disjuncts' dataflows after projecting each
// onto the variables common to every disjunct: boundness analysis only
// guarantees that intersection is available past a disjunction (it is
// itself defined as the intersection over disjuncts, §4.2), so that is the
// widest schema a Union can soundly expose upward.
func lowerDisjunction(fs []*ast.Formula, ctx *front.Context) (*env, error) {
	envs := make([]*env, len(fs))
	for i, f := range fs {
		e, err := lowerFormula(f, ctx)
		if err != nil {
			return nil, err
		}
		envs[i] = e
	}
	shared := envs[0].vars
	for _, e := range envs[1:] {
		shared = intersectVars(shared, e.vars)
	}
	sort.Strings(shared)

	var out *Dataflow
	for _, e := range envs {
		projected := projectOnto(e, shared)
		if out == nil {
			out = projected
			continue
		}
		out = &Dataflow{Kind: NodeUnion, Left: out, Right: projected, Vars: shared}
	}
	return &env{df: out, vars: shared}, nil
}

func projectOnto(e *env, target []string) *Dataflow {
	exprs := make([]*expr.Expr, len(target))
	for i, v := range target {
		exprs[i] = expr.Variable(v)
	}
	return &Dataflow{Kind: NodeProject, Source: e.df, ProjectVars: target, ProjectExprs: exprs, Vars: target}
}

// lowerReduce lowers a reduction's body independently (its binding
// variables are scoped to the reduction, §4.8) and wraps the result in a
// ReduceNode leaf whose output columns are the group key followed by the
// aggregator's result variables -- the shape every GroupBy kind in §4.8
// produces, so the enclosing conjunction can join against it exactly like
// any other relation leaf.
func lowerReduce(r *ast.Reduction, ctx *front.Context) (*env, error) {
	bodyEnv, err := lowerFormula(r.Body, ctx)
	if err != nil {
		return nil, err
	}
	node := &ReduceNode{
		Op:           r.Op,
		ResultVars:   r.ResultVars,
		BindingVars:  r.BindingVars,
		Args:         r.Args,
		Source:       bodyEnv.df,
		NegateResult: r.NegateResult,
	}
	if r.Op == "top_k" && len(r.Args) > 0 && r.Args[0].Kind == expr.KindConst {
		node.K = int(r.Args[0].Const.AsI64())
	}

	var groupVars []string
	if r.GroupBy != nil {
		switch r.GroupBy.Kind {
		case ast.GroupByNone:
			node.GroupBy = GroupBy{Kind: GroupByNone}
		case ast.GroupByImplicit:
			node.GroupBy = GroupBy{Kind: GroupByImplicit, Vars: r.GroupBy.Vars}
			groupVars = r.GroupBy.Vars
		case ast.GroupByJoin:
			node.GroupBy = GroupBy{Kind: GroupByJoin, Relation: r.GroupBy.Relation}
		}
	}

	vars := append(append([]string{}, groupVars...), r.ResultVars...)
	leaf := &Dataflow{Kind: NodeReduce, Reduce: node, Vars: vars}
	return &env{df: leaf, vars: vars}, nil
}

// projectHead builds the final Project node that turns the body's bound
// columns into the head atom's tuple, in head argument order.
func projectHead(h *ast.Atom, body *env) (*Dataflow, error) {
	exprs := make([]*expr.Expr, len(h.Args))
	vars := make([]string, len(h.Args))
	for i, arg := range h.Args {
		switch arg.Kind {
		case ast.ArgVariable:
			if !containsVar(body.vars, arg.Var) {
				return nil, fmt.Errorf("ram: head variable %q is not bound by the rule body", arg.Var)
			}
			exprs[i] = expr.Variable(arg.Var)
			vars[i] = arg.Var
		case ast.ArgConstant:
			exprs[i] = expr.Constant(arg.Const)
			vars[i] = fmt.Sprintf("$head_const%d", i)
		case ast.ArgWildcard:
			return nil, fmt.Errorf("ram: head atom %q cannot contain a wildcard argument", h.Predicate)
		}
	}
	return &Dataflow{Kind: NodeProject, Source: body.df, ProjectVars: vars, ProjectExprs: exprs, Vars: vars}, nil
}

// LowerProgram stratifies p and lowers every rule into its stratum's
// update list (§4.5 steps 2-4).
func LowerProgram(p *ast.Program, ctx *front.Context) (*Program, error) {
	strata, _, err := Stratify(p)
	if err != nil {
		return nil, err
	}
	rulesByHead := p.RulesByHead()
	for i, s := range strata {
		seen := map[*ast.Rule]bool{}
		for _, name := range s.Relations {
			for _, rule := range rulesByHead[name] {
				if seen[rule] {
					continue
				}
				seen[rule] = true
				updates, err := LowerRule(rule, ctx)
				if err != nil {
					return nil, err
				}
				strata[i].Updates = append(strata[i].Updates, updates...)
			}
		}
	}
	return &Program{Strata: strata}, nil
}
