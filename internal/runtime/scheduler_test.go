package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/database"
	scallopErrors "github.com/ramonfmir/scallop/internal/errors"
	"github.com/ramonfmir/scallop/internal/front"
	"github.com/ramonfmir/scallop/internal/front/analyzers"
	"github.com/ramonfmir/scallop/internal/provenance"
	"github.com/ramonfmir/scallop/internal/ram"
	"github.com/ramonfmir/scallop/internal/runtime"
	"github.com/ramonfmir/scallop/internal/value"
)

func varAtom(pred string, vars ...string) *ast.Atom {
	args := make([]ast.Arg, len(vars))
	for i, v := range vars {
		args[i] = ast.Var(v)
	}
	return &ast.Atom{Predicate: pred, Args: args}
}

func i32pairType() value.TupleType {
	return value.CompoundType(value.LeafType(value.TypeI32), value.LeafType(value.TypeI32))
}

func compileAndLower(t *testing.T, p *ast.Program) *ram.Program {
	t.Helper()
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
	prog, err := ram.LowerProgram(p, ctx)
	if err != nil {
		t.Fatalf("LowerProgram failed: %v", err)
	}
	return prog
}

func transitiveClosureProgram() *ast.Program {
	i32pair := i32pairType()
	edge := &ast.RelationDecl{
		Name: "edge", IsInput: true, ArgTypes: i32pair,
		Facts: []ast.Fact{
			{Tuple: []ast.Arg{ast.Lit(value.I32(0)), ast.Lit(value.I32(1))}},
			{Tuple: []ast.Arg{ast.Lit(value.I32(1)), ast.Lit(value.I32(2))}},
			{Tuple: []ast.Arg{ast.Lit(value.I32(2)), ast.Lit(value.I32(3))}},
		},
	}
	path := &ast.RelationDecl{Name: "path", ArgTypes: i32pair}
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
	return &ast.Program{Relations: []*ast.RelationDecl{edge, path}, Rules: []*ast.Rule{base, step}}
}

func TestRunTransitiveClosure(t *testing.T) {
	p := transitiveClosureProgram()
	prog := compileAndLower(t, p)

	db := database.NewContext(p, provenance.UnitContext{})
	if err := runtime.Run(context.Background(), prog, db, runtime.Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := map[[2]int32]bool{
		{0, 1}: true, {0, 2}: true, {0, 3}: true,
		{1, 2}: true, {1, 3}: true,
		{2, 3}: true,
	}
	got := db.Relations["path"].Dynamic.Stable()
	if len(got) != len(want) {
		t.Fatalf("expected %d path tuples, got %d: %v", len(want), len(got), got)
	}
	for _, row := range got {
		key := [2]int32{int32(row.Cols[0].AsI64()), int32(row.Cols[1].AsI64())}
		if !want[key] {
			t.Fatalf("unexpected path tuple %v", key)
		}
	}
}

func TestRunRespectsAlreadyCancelledContext(t *testing.T) {
	p := transitiveClosureProgram()
	prog := compileAndLower(t, p)
	db := database.NewContext(p, provenance.UnitContext{})

	goCtx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runtime.Run(goCtx, prog, db, runtime.Options{})
	if err == nil {
		t.Fatalf("expected Run to fail on an already-cancelled context")
	}
	var rtErr *scallopErrors.RuntimeError
	if !errors.As(err, &rtErr) || rtErr.Category != scallopErrors.CategoryCancelled {
		t.Fatalf("expected a Cancelled-category RuntimeError, got %v (%T)", err, err)
	}
}

func TestRunFreezesContext(t *testing.T) {
	p := transitiveClosureProgram()
	prog := compileAndLower(t, p)
	db := database.NewContext(p, provenance.UnitContext{})

	if err := runtime.Run(context.Background(), prog, db, runtime.Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !db.Frozen() {
		t.Fatalf("expected Run to freeze the execution context")
	}
}
