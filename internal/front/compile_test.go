package front_test

import (
	"testing"

	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/front"
	"github.com/ramonfmir/scallop/internal/front/analyzers"
	"github.com/ramonfmir/scallop/internal/value"
)

func varAtom(pred string, vars ...string) *ast.Atom {
	args := make([]ast.Arg, len(vars))
	for i, v := range vars {
		args[i] = ast.Var(v)
	}
	return &ast.Atom{Predicate: pred, Args: args}
}

func TestCompileTransitiveClosure(t *testing.T) {
	edge := &ast.RelationDecl{Name: "edge", IsInput: true,
		ArgTypes: value.CompoundType(value.LeafType(value.TypeI32), value.LeafType(value.TypeI32))}
	path := &ast.RelationDecl{Name: "path",
		ArgTypes: value.CompoundType(value.LeafType(value.TypeI32), value.LeafType(value.TypeI32))}

	base := &ast.Rule{
		Heads: []*ast.Atom{varAtom("path", "a", "b")},
		Body:  ast.AtomFormula(varAtom("edge", "a", "b")),
	}
	step := &ast.Rule{
		Heads: []*ast.Atom{varAtom("path", "a", "c")},
		Body: ast.Conjunction(
			ast.AtomFormula(varAtom("path", "a", "b")),
			ast.AtomFormula(varAtom("edge", "b", "c")),
		),
	}
	p := &ast.Program{
		Relations: []*ast.RelationDecl{edge, path},
		Rules:     []*ast.Rule{base, step},
	}

	ctx, err := front.Compile(p, front.AnalyzerPasses{
		ConstantDecl: analyzers.ConstantDeclPass{},
		Aggregation:  analyzers.AggregationPass{},
		Normalize:    analyzers.NormalizePass{},
		Boundness:    analyzers.BoundnessPass{},
		TypeInfer:    analyzers.TypeInferencePass{},
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	for _, v := range []string{"a", "b", "c"} {
		if ctx.VarTypes[step][v] != value.TypeI32 {
			t.Fatalf("expected %s: i32, got %v", v, ctx.VarTypes[step][v])
		}
	}
	if !ctx.BoundVars[step]["a"] || !ctx.BoundVars[step]["c"] {
		t.Fatal("expected head variables bound")
	}
}

func TestCompileReportsHeadUnbound(t *testing.T) {
	edge := &ast.RelationDecl{Name: "edge", ArgTypes: value.CompoundType(value.LeafType(value.TypeI32), value.LeafType(value.TypeI32))}
	bad := &ast.Rule{
		Heads: []*ast.Atom{varAtom("bad", "x", "y")},
		Body:  ast.AtomFormula(varAtom("edge", "x", "x")),
	}
	p := &ast.Program{Relations: []*ast.RelationDecl{edge}, Rules: []*ast.Rule{bad}}

	_, err := front.Compile(p, front.AnalyzerPasses{
		ConstantDecl: analyzers.ConstantDeclPass{},
		Aggregation:  analyzers.AggregationPass{},
		Normalize:    analyzers.NormalizePass{},
		Boundness:    analyzers.BoundnessPass{},
		TypeInfer:    analyzers.TypeInferencePass{},
	})
	if err == nil {
		t.Fatal("expected a diagnostics error for the unbound head variable")
	}
}
