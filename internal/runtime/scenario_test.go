package runtime_test

// End-to-end scenario tests covering the reference programs used to
// describe the engine's semantics: a transitive closure, a count
// aggregation, a foreign function call, and a probabilistic top-k
// derivation. These run the full pipeline -- front-end compile, RAM
// lowering, and the fixpoint scheduler -- the way a user's program would,
// snapshotting the observable output the way the teacher's fixture tests
// do, with a pretty-printed diagnostics dump on failure.

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/kr/pretty"

	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/database"
	"github.com/ramonfmir/scallop/internal/expr"
	"github.com/ramonfmir/scallop/internal/front"
	"github.com/ramonfmir/scallop/internal/front/analyzers"
	"github.com/ramonfmir/scallop/internal/provenance"
	"github.com/ramonfmir/scallop/internal/ram"
	"github.com/ramonfmir/scallop/internal/runtime"
	"github.com/ramonfmir/scallop/internal/runtime/dynamic"
	"github.com/ramonfmir/scallop/internal/value"
)

// scenarioPasses is the fixed front-end pipeline every scenario compiles
// through, matching compileAndLower's pass selection.
func scenarioPasses() front.AnalyzerPasses {
	return front.AnalyzerPasses{
		ConstantDecl: analyzers.ConstantDeclPass{},
		Aggregation:  analyzers.AggregationPass{},
		Normalize:    analyzers.NormalizePass{},
		Boundness:    analyzers.BoundnessPass{},
		TypeInfer:    analyzers.TypeInferencePass{},
	}
}

// dumpDiagnostics pretty-prints ctx's diagnostics so a failing scenario
// test shows exactly what the front end reported, not just "compile
// failed".
func dumpDiagnostics(t *testing.T, label string, ctx *front.Context) {
	t.Helper()
	if len(ctx.Diagnostics.All()) > 0 {
		t.Logf("%s diagnostics:\n%s", label, pretty.Sprint(ctx.Diagnostics.All()))
	}
}

// sortedRows renders rel's stable rows as a deterministic, snapshot-stable
// slice of strings.
func sortedRows(rel *dynamic.DynamicRelation) []string {
	rows := rel.Stable()
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = fmt.Sprint(r.Cols)
	}
	sort.Strings(out)
	return out
}

func TestScenarioTransitiveClosure(t *testing.T) {
	p := transitiveClosureProgram()
	ctx, err := front.Compile(p, scenarioPasses())
	if err != nil {
		dumpDiagnostics(t, "transitive closure", ctx)
		t.Fatalf("Compile failed: %v", err)
	}
	prog, err := ram.LowerProgram(p, ctx)
	if err != nil {
		t.Fatalf("LowerProgram failed: %v", err)
	}

	db := database.NewContext(p, provenance.UnitContext{})
	if err := runtime.Run(context.Background(), prog, db, runtime.Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snaps.MatchSnapshot(t, "path_tuples", sortedRows(db.Relations["path"].Dynamic))
}

func TestScenarioAggregationCount(t *testing.T) {
	i32pair := i32pairType()
	r := &ast.RelationDecl{
		Name: "r", IsInput: true, ArgTypes: i32pair,
		Facts: []ast.Fact{
			{Tuple: []ast.Arg{ast.Lit(value.I32(0)), ast.Lit(value.I32(1))}},
			{Tuple: []ast.Arg{ast.Lit(value.I32(1)), ast.Lit(value.I32(2))}},
			{Tuple: []ast.Arg{ast.Lit(value.I32(3)), ast.Lit(value.I32(4))}},
			{Tuple: []ast.Arg{ast.Lit(value.I32(3)), ast.Lit(value.I32(5))}},
		},
	}
	s := &ast.RelationDecl{
		Name: "s", IsInput: true, ArgTypes: i32pair,
		Facts: []ast.Fact{
			{Tuple: []ast.Arg{ast.Lit(value.I32(1)), ast.Lit(value.I32(1))}},
			{Tuple: []ast.Arg{ast.Lit(value.I32(1)), ast.Lit(value.I32(2))}},
			{Tuple: []ast.Arg{ast.Lit(value.I32(3)), ast.Lit(value.I32(5))}},
		},
	}
	tRel := &ast.RelationDecl{Name: "t", ArgTypes: i32pair}
	cnt := &ast.RelationDecl{Name: "cnt", ArgTypes: value.CompoundType(value.LeafType(value.TypeI32))}

	tRule := &ast.Rule{
		Heads: []*ast.Atom{varAtom("t", "x", "y")},
		Body: ast.Conjunction(
			ast.AtomFormula(varAtom("r", "x", "y")),
			ast.AtomFormula(varAtom("s", "x", "y")),
		),
	}
	countRule := &ast.Rule{
		Heads: []*ast.Atom{varAtom("cnt", "n")},
		Body: ast.ReduceFormula(&ast.Reduction{
			Op:          "count",
			ResultVars:  []string{"n"},
			BindingVars: []string{"x", "y"},
			Body:        ast.AtomFormula(varAtom("t", "x", "y")),
		}),
	}

	p := &ast.Program{
		Relations: []*ast.RelationDecl{r, s, tRel, cnt},
		Rules:     []*ast.Rule{tRule, countRule},
	}
	ctx, err := front.Compile(p, scenarioPasses())
	if err != nil {
		dumpDiagnostics(t, "aggregation count", ctx)
		t.Fatalf("Compile failed: %v", err)
	}
	prog, err := ram.LowerProgram(p, ctx)
	if err != nil {
		t.Fatalf("LowerProgram failed: %v", err)
	}

	db := database.NewContext(p, provenance.UnitContext{})
	if err := runtime.Run(context.Background(), prog, db, runtime.Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snaps.MatchSnapshot(t, "cnt_tuples", sortedRows(db.Relations["cnt"].Dynamic))
}

func TestScenarioForeignFunctionFib(t *testing.T) {
	i32leaf := value.CompoundType(value.LeafType(value.TypeI32))
	i32pair := i32pairType()

	rRel := &ast.RelationDecl{
		Name: "R", IsInput: true, ArgTypes: i32leaf,
		Facts: []ast.Fact{
			{Tuple: []ast.Arg{ast.Lit(value.I32(0))}},
			{Tuple: []ast.Arg{ast.Lit(value.I32(3))}},
			{Tuple: []ast.Arg{ast.Lit(value.I32(5))}},
			{Tuple: []ast.Arg{ast.Lit(value.I32(8))}},
		},
	}
	sRel := &ast.RelationDecl{Name: "S", ArgTypes: i32pair}

	fibDecl := &ast.ForeignFunctionDecl{
		Name:     "fib",
		Required: []ast.TypeBound{{Family: ast.FamilyConcrete, Concrete: value.TypeI32}},
		Return:   ast.TypeBound{Family: ast.FamilyConcrete, Concrete: value.TypeI32},
	}

	// S(x, y) = R(x), y = $fib(x). -- $fib is a call expression, so the
	// head's second column is desugared into an equality constraint that
	// binds a fresh variable y, the same way surface syntax without a
	// call-argument AST node would have to lower it.
	rule := &ast.Rule{
		Heads: []*ast.Atom{varAtom("S", "x", "y")},
		Body: ast.Conjunction(
			ast.AtomFormula(varAtom("R", "x")),
			ast.Constraint(expr.Binary(expr.Eq, expr.Variable("y"), expr.Call("fib", expr.Variable("x")))),
		),
	}

	p := &ast.Program{
		Relations:        []*ast.RelationDecl{rRel, sRel},
		Rules:            []*ast.Rule{rule},
		ForeignFunctions: []*ast.ForeignFunctionDecl{fibDecl},
	}
	ctx, err := front.Compile(p, scenarioPasses())
	if err != nil {
		dumpDiagnostics(t, "foreign function fib", ctx)
		t.Fatalf("Compile failed: %v", err)
	}
	prog, err := ram.LowerProgram(p, ctx)
	if err != nil {
		t.Fatalf("LowerProgram failed: %v", err)
	}

	db := database.NewContext(p, provenance.UnitContext{})
	db.Functions.Register("fib", fibImpl)

	if err := runtime.Run(context.Background(), prog, db, runtime.Options{ForeignFunctions: db.Functions}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snaps.MatchSnapshot(t, "S_tuples", sortedRows(db.Relations["S"].Dynamic))
}

// fibImpl returns 1 for n = 0 and the n-th Fibonacci number for n >= 1
// (fib(3) = 2, fib(5) = 5, fib(8) = 21); a negative input suppresses
// the tuple instead of erroring (§6: returning ok=false is how a foreign
// function signals "no result" for a given input).
func fibImpl(args []value.Value) (value.Value, bool, error) {
	n := args[0].AsI64()
	if n < 0 {
		return value.Value{}, false, nil
	}
	a, b := int64(0), int64(1)
	for i := int64(1); i < n; i++ {
		a, b = b, a+b
	}
	return value.I32(int32(b)), true, nil
}

func TestScenarioProbabilisticTopK(t *testing.T) {
	// Two independent pieces of evidence for the same 0-ary fact a(), with
	// probabilities 0.9 and 0.8: a() is true if either holds, so under
	// top-bottom-k-clauses its combined weight should land in
	// [0.96, 0.99], matching the exact noisy-or combination
	// 1 - (1-0.9)(1-0.8) = 0.98 computed under k = infinity.
	a := &ast.RelationDecl{
		Name: "a", IsInput: true, ArgTypes: value.CompoundType(),
		Facts: []ast.Fact{
			{Tag: ast.InputTagProbability, DisjID: 0, Prob: 0.9},
			{Tag: ast.InputTagProbability, DisjID: 1, Prob: 0.8},
		},
	}
	q := &ast.RelationDecl{Name: "q", ArgTypes: value.CompoundType()}
	rule := &ast.Rule{
		Heads: []*ast.Atom{{Predicate: "q"}},
		Body:  ast.AtomFormula(&ast.Atom{Predicate: "a"}),
	}

	p := &ast.Program{Relations: []*ast.RelationDecl{a, q}, Rules: []*ast.Rule{rule}}
	ctx, err := front.Compile(p, scenarioPasses())
	if err != nil {
		dumpDiagnostics(t, "probabilistic top-k", ctx)
		t.Fatalf("Compile failed: %v", err)
	}
	prog, err := ram.LowerProgram(p, ctx)
	if err != nil {
		t.Fatalf("LowerProgram failed: %v", err)
	}

	provCtx := provenance.NewTopBottomKContext(3)
	db := database.NewContext(p, provCtx)
	if err := runtime.Run(context.Background(), prog, db, runtime.Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	rows := db.Relations["q"].Dynamic.Stable()
	if len(rows) != 1 {
		t.Fatalf("expected exactly one q() tuple, got %d", len(rows))
	}
	weight := provCtx.Weight(rows[0].Tag)
	if weight < 0.96 || weight > 0.99 {
		t.Fatalf("expected weight(q) in [0.96, 0.99], got %v (tag %v)", weight, rows[0].Tag)
	}
}
