package database_test

import (
	"testing"

	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/database"
	"github.com/ramonfmir/scallop/internal/provenance"
	"github.com/ramonfmir/scallop/internal/value"
)

func i32pairType() value.TupleType {
	return value.CompoundType(value.LeafType(value.TypeI32), value.LeafType(value.TypeI32))
}

func TestLoadEDBPopulatesRecent(t *testing.T) {
	edge := &ast.RelationDecl{
		Name:     "edge",
		IsInput:  true,
		ArgTypes: i32pairType(),
		Facts: []ast.Fact{
			{Tag: ast.InputTagNone, Tuple: []ast.Arg{ast.Lit(value.I32(0)), ast.Lit(value.I32(1))}},
			{Tag: ast.InputTagNone, Tuple: []ast.Arg{ast.Lit(value.I32(1)), ast.Lit(value.I32(2))}},
		},
	}
	path := &ast.RelationDecl{Name: "path", ArgTypes: i32pairType()}
	prog := &ast.Program{Relations: []*ast.RelationDecl{edge, path}}

	ctx := database.NewContext(prog, provenance.UnitContext{})
	if err := ctx.LoadEDB("edge"); err != nil {
		t.Fatalf("LoadEDB: %v", err)
	}
	if err := ctx.LoadEDB("path"); err != nil {
		t.Fatalf("LoadEDB(non-input): %v", err)
	}

	got := ctx.Relations["edge"].Dynamic.Recent()
	if len(got) != 2 {
		t.Fatalf("expected 2 recent edge facts, got %d", len(got))
	}
	if len(ctx.Relations["path"].Dynamic.Recent()) != 0 {
		t.Fatalf("non-input relation should not gain facts from LoadEDB")
	}
}

func TestFreezeRejectsMutation(t *testing.T) {
	r := &ast.RelationDecl{Name: "r", IsInput: true, ArgTypes: i32pairType()}
	prog := &ast.Program{Relations: []*ast.RelationDecl{r}}
	ctx := database.NewContext(prog, provenance.UnitContext{})

	if err := ctx.AddFact("r", []value.Value{value.I32(1), value.I32(2)}, ast.InputTagNone, 0, 0); err != nil {
		t.Fatalf("AddFact before freeze: %v", err)
	}
	ctx.Freeze()
	if err := ctx.AddFact("r", []value.Value{value.I32(3), value.I32(4)}, ast.InputTagNone, 0, 0); err == nil {
		t.Fatalf("expected AddFact to fail after Freeze")
	}
	if err := ctx.RegisterForeignFunction("fib", nil); err == nil {
		t.Fatalf("expected RegisterForeignFunction to fail after Freeze")
	}
	if len(r.Facts) != 1 {
		t.Fatalf("expected exactly the pre-freeze fact to be recorded, got %d", len(r.Facts))
	}
}

func TestOutputsSkipsHidden(t *testing.T) {
	visible := &ast.RelationDecl{Name: "visible", ArgTypes: i32pairType(), Output: ast.OutputDefault}
	hidden := &ast.RelationDecl{Name: "hidden", ArgTypes: i32pairType(), Output: ast.OutputHidden}
	prog := &ast.Program{Relations: []*ast.RelationDecl{visible, hidden}}
	ctx := database.NewContext(prog, provenance.UnitContext{})

	outs := ctx.Outputs()
	if len(outs) != 1 || outs[0].Decl.Name != "visible" {
		t.Fatalf("expected only visible relation in Outputs, got %v", outs)
	}
}
