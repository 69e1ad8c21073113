package analyzers

import (
	"testing"

	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/front"
)

func mkRule(heads []*ast.Atom, body *ast.Formula) *ast.Rule {
	return &ast.Rule{Heads: heads, Body: body}
}

func atom(pred string, vars ...string) *ast.Atom {
	args := make([]ast.Arg, len(vars))
	for i, v := range vars {
		args[i] = ast.Var(v)
	}
	return &ast.Atom{Predicate: pred, Args: args}
}

func TestBoundnessTransitiveClosure(t *testing.T) {
	// path(a,c) = path(a,b), edge(b,c).
	body := ast.Conjunction(
		ast.AtomFormula(atom("path", "a", "b")),
		ast.AtomFormula(atom("edge", "b", "c")),
	)
	rule := mkRule([]*ast.Atom{atom("path", "a", "c")}, body)
	p := &ast.Program{Rules: []*ast.Rule{rule}}
	ctx := front.NewContext(p)

	if err := (BoundnessPass{}).Run(p, ctx); err != nil {
		t.Fatal(err)
	}
	if ctx.Diagnostics.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Diagnostics.All())
	}
}

func TestBoundnessHeadUnbound(t *testing.T) {
	// bad(x, y) = edge(x, x). -- y never appears in the body
	body := ast.AtomFormula(atom("edge", "x", "x"))
	rule := mkRule([]*ast.Atom{atom("bad", "x", "y")}, body)
	p := &ast.Program{Rules: []*ast.Rule{rule}}
	ctx := front.NewContext(p)

	if err := (BoundnessPass{}).Run(p, ctx); err != nil {
		t.Fatal(err)
	}
	if !ctx.Diagnostics.HasErrors() {
		t.Fatal("expected HeadExprUnbound diagnostic")
	}
	if ctx.Diagnostics.All()[0].Kind != "HeadExprUnbound" {
		t.Fatalf("got %v", ctx.Diagnostics.All()[0])
	}
}

func TestBoundnessNegationDoesNotBind(t *testing.T) {
	// bad(t) = move(s), !win(t). -- t only appears in a negated atom
	body := ast.Conjunction(
		ast.AtomFormula(atom("move", "s")),
		ast.NegAtomFormula(atom("win", "t")),
	)
	rule := mkRule([]*ast.Atom{atom("bad", "t")}, body)
	p := &ast.Program{Rules: []*ast.Rule{rule}}
	ctx := front.NewContext(p)

	if err := (BoundnessPass{}).Run(p, ctx); err != nil {
		t.Fatal(err)
	}
	if !ctx.Diagnostics.HasErrors() {
		t.Fatal("expected t to remain unbound through negation")
	}
}

func TestBoundnessDisjunctionIntersection(t *testing.T) {
	// ok(x) = a(x) ; ok(x) = b(x), c(y). -- as one disjunctive body x is
	// bound in both disjuncts, y only in one; only x should be bound.
	body := ast.Disjunction(
		ast.AtomFormula(atom("a", "x")),
		ast.Conjunction(ast.AtomFormula(atom("b", "x")), ast.AtomFormula(atom("c", "y"))),
	)
	rule := mkRule([]*ast.Atom{atom("ok", "x")}, body)
	p := &ast.Program{Rules: []*ast.Rule{rule}}
	ctx := front.NewContext(p)

	if err := (BoundnessPass{}).Run(p, ctx); err != nil {
		t.Fatal(err)
	}
	if ctx.Diagnostics.HasErrors() {
		t.Fatalf("x should be bound via disjunction intersection: %v", ctx.Diagnostics.All())
	}
	if !ctx.BoundVars[rule]["x"] {
		t.Fatal("expected x bound")
	}
	if ctx.BoundVars[rule]["y"] {
		t.Fatal("expected y not bound (only appears in one disjunct)")
	}
}

func TestBoundnessDisjunctionNestedInConjunction(t *testing.T) {
	// ok(x,y) = p(x), (q(x,y) ; r(x,y)). -- a disjunction as one conjunct of
	// an outer conjunction, not the whole body; y is bound in every disjunct
	// of the nested disjunction, so it should be bound in the outer
	// conjunction's result too.
	body := ast.Conjunction(
		ast.AtomFormula(atom("p", "x")),
		ast.Disjunction(
			ast.AtomFormula(atom("q", "x", "y")),
			ast.AtomFormula(atom("r", "x", "y")),
		),
	)
	rule := mkRule([]*ast.Atom{atom("ok", "x", "y")}, body)
	p := &ast.Program{Rules: []*ast.Rule{rule}}
	ctx := front.NewContext(p)

	if err := (BoundnessPass{}).Run(p, ctx); err != nil {
		t.Fatal(err)
	}
	if ctx.Diagnostics.HasErrors() {
		t.Fatalf("x and y should both be bound through the nested disjunction: %v", ctx.Diagnostics.All())
	}
	if !ctx.BoundVars[rule]["x"] || !ctx.BoundVars[rule]["y"] {
		t.Fatalf("expected x and y bound, got %v", ctx.BoundVars[rule])
	}
}
