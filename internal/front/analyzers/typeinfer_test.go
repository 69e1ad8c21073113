package analyzers

import (
	"testing"

	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/expr"
	"github.com/ramonfmir/scallop/internal/front"
	"github.com/ramonfmir/scallop/internal/value"
)

func TestTypeInferenceFromRelationColumns(t *testing.T) {
	// edge(i32, i32). path(a,c) = path(a,b), edge(b,c).
	edge := &ast.RelationDecl{Name: "edge", ArgTypes: value.CompoundType(value.LeafType(value.TypeI32), value.LeafType(value.TypeI32))}
	path := &ast.RelationDecl{Name: "path", ArgTypes: value.CompoundType(value.LeafType(value.TypeI32), value.LeafType(value.TypeI32))}

	body := ast.Conjunction(
		ast.AtomFormula(atom("path", "a", "b")),
		ast.AtomFormula(atom("edge", "b", "c")),
	)
	rule := mkRule([]*ast.Atom{atom("path", "a", "c")}, body)
	p := &ast.Program{Relations: []*ast.RelationDecl{edge, path}, Rules: []*ast.Rule{rule}}
	ctx := front.NewContext(p)

	if err := (TypeInferencePass{}).Run(p, ctx); err != nil {
		t.Fatal(err)
	}
	if ctx.Diagnostics.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Diagnostics.All())
	}
	types := ctx.VarTypes[rule]
	for _, v := range []string{"a", "b", "c"} {
		if types[v] != value.TypeI32 {
			t.Fatalf("expected %s: i32, got %v", v, types[v])
		}
	}
}

func TestTypeInferenceArithmeticNarrowsToFloat(t *testing.T) {
	// score(f32). good(x) = score(x), x > 0.0.
	score := &ast.RelationDecl{Name: "score", ArgTypes: value.CompoundType(value.LeafType(value.TypeF32))}
	cmp := expr.Binary(expr.Gt, expr.Variable("x"), expr.Constant(value.F32(0)))
	body := ast.Conjunction(
		ast.AtomFormula(atom("score", "x")),
		ast.Constraint(cmp),
	)
	rule := mkRule([]*ast.Atom{atom("good", "x")}, body)
	p := &ast.Program{Relations: []*ast.RelationDecl{score}, Rules: []*ast.Rule{rule}}
	ctx := front.NewContext(p)

	if err := (TypeInferencePass{}).Run(p, ctx); err != nil {
		t.Fatal(err)
	}
	if ctx.Diagnostics.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Diagnostics.All())
	}
	if ctx.VarTypes[rule]["x"] != value.TypeF32 {
		t.Fatalf("expected x: f32, got %v", ctx.VarTypes[rule]["x"])
	}
	if ctx.ExprTypes[cmp] != value.TypeBool {
		t.Fatalf("expected comparison: bool, got %v", ctx.ExprTypes[cmp])
	}
}

func TestTypeInferenceAmbiguousLiteralDefaults(t *testing.T) {
	// n(i32). r(y) = n(x), y = x + 1 /* unsuffixed literal */.
	n := &ast.RelationDecl{Name: "n", ArgTypes: value.CompoundType(value.LeafType(value.TypeI32))}
	one := expr.AmbiguousConstant(value.I32(1))
	sum := expr.Binary(expr.Add, expr.Variable("x"), one)
	eq := expr.Binary(expr.Eq, expr.Variable("y"), sum)
	body := ast.Conjunction(
		ast.AtomFormula(atom("n", "x")),
		ast.Constraint(eq),
	)
	rule := mkRule([]*ast.Atom{atom("r", "y")}, body)
	p := &ast.Program{Relations: []*ast.RelationDecl{n}, Rules: []*ast.Rule{rule}}
	ctx := front.NewContext(p)

	if err := (TypeInferencePass{}).Run(p, ctx); err != nil {
		t.Fatal(err)
	}
	if ctx.Diagnostics.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Diagnostics.All())
	}
	if ctx.ExprTypes[one] != value.TypeI32 {
		t.Fatalf("expected ambiguous literal to default/narrow to i32, got %v", ctx.ExprTypes[one])
	}
}

func TestTypeInferenceCannotUnify(t *testing.T) {
	// a(i32). b(string). bad(x) = a(x), b(x). -- x can't be both i32 and String
	a := &ast.RelationDecl{Name: "a", ArgTypes: value.CompoundType(value.LeafType(value.TypeI32))}
	b := &ast.RelationDecl{Name: "b", ArgTypes: value.CompoundType(value.LeafType(value.TypeString))}
	body := ast.Conjunction(
		ast.AtomFormula(atom("a", "x")),
		ast.AtomFormula(atom("b", "x")),
	)
	rule := mkRule([]*ast.Atom{atom("bad", "x")}, body)
	p := &ast.Program{Relations: []*ast.RelationDecl{a, b}, Rules: []*ast.Rule{rule}}
	ctx := front.NewContext(p)

	if err := (TypeInferencePass{}).Run(p, ctx); err != nil {
		t.Fatal(err)
	}
	if !ctx.Diagnostics.HasErrors() {
		t.Fatal("expected CannotUnifyVariables")
	}
}

func TestTypeInferenceCountYieldsInteger(t *testing.T) {
	// edge(i32, i32). deg(a, c) = edge(a, b), c = count(b : edge(a, b)).
	edge := &ast.RelationDecl{Name: "edge", ArgTypes: value.CompoundType(value.LeafType(value.TypeI32), value.LeafType(value.TypeI32))}
	reduceBody := ast.AtomFormula(atom("edge", "a", "b"))
	red := &ast.Reduction{Op: "count", ResultVars: []string{"c"}, BindingVars: []string{"b"}, Body: reduceBody}
	body := ast.Conjunction(
		ast.AtomFormula(atom("edge", "a", "b")),
		ast.ReduceFormula(red),
	)
	rule := mkRule([]*ast.Atom{atom("deg", "a", "c")}, body)
	p := &ast.Program{Relations: []*ast.RelationDecl{edge}, Rules: []*ast.Rule{rule}}
	ctx := front.NewContext(p)

	if err := (TypeInferencePass{}).Run(p, ctx); err != nil {
		t.Fatal(err)
	}
	if ctx.Diagnostics.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Diagnostics.All())
	}
	if !ctx.VarTypes[rule]["c"].IsInteger() {
		t.Fatalf("expected c to resolve to an integer type, got %v", ctx.VarTypes[rule]["c"])
	}
}
