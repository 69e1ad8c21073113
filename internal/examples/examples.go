// Package examples ships small, complete ast.Program values the cmd/scallop
// CLI can run or dump without a surface-syntax front end, the same role the
// teacher's examples/ directory of sample scripts plays for dwscript's own
// run/compile commands.
package examples

import (
	"fmt"
	"sort"

	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/value"
)

// Program is a named, ready-to-run example plus the EDB facts it ships
// with, so `scallop run <name>` needs no external input file.
type Program struct {
	Name        string
	Description string
	Build       func() *ast.Program
}

func varAtom(pred string, vars ...string) *ast.Atom {
	args := make([]ast.Arg, len(vars))
	for i, v := range vars {
		args[i] = ast.Var(v)
	}
	return &ast.Atom{Predicate: pred, Args: args}
}

func i32(n int32) ast.Arg { return ast.Lit(value.I32(n)) }

func i32pair() value.TupleType {
	return value.CompoundType(value.LeafType(value.TypeI32), value.LeafType(value.TypeI32))
}

func transitiveClosure() *ast.Program {
	edge := &ast.RelationDecl{
		Name: "edge", IsInput: true, ArgTypes: i32pair(),
		Facts: []ast.Fact{
			{Tuple: []ast.Arg{i32(0), i32(1)}},
			{Tuple: []ast.Arg{i32(1), i32(2)}},
			{Tuple: []ast.Arg{i32(2), i32(3)}},
			{Tuple: []ast.Arg{i32(3), i32(4)}},
		},
	}
	path := &ast.RelationDecl{Name: "path", ArgTypes: i32pair()}
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

func successorCount() *ast.Program {
	edge := &ast.RelationDecl{
		Name: "edge", IsInput: true, ArgTypes: i32pair(),
		Facts: []ast.Fact{
			{Tuple: []ast.Arg{i32(0), i32(1)}},
			{Tuple: []ast.Arg{i32(0), i32(2)}},
			{Tuple: []ast.Arg{i32(1), i32(2)}},
		},
	}
	cnt := &ast.RelationDecl{
		Name:     "successor_count",
		ArgTypes: value.CompoundType(value.LeafType(value.TypeI32)),
	}
	rule := &ast.Rule{
		Heads: []*ast.Atom{varAtom("successor_count", "n")},
		Body: ast.ReduceFormula(&ast.Reduction{
			Op:          "count",
			ResultVars:  []string{"n"},
			BindingVars: []string{"a", "b"},
			Body:        ast.AtomFormula(varAtom("edge", "a", "b")),
			GroupBy:     &ast.GroupBy{Kind: ast.GroupByNone},
		}),
	}
	return &ast.Program{Relations: []*ast.RelationDecl{edge, cnt}, Rules: []*ast.Rule{rule}}
}

// All is the registry `cmd/scallop` consults by name.
var All = map[string]Program{
	"transitive-closure": {
		Name:        "transitive-closure",
		Description: "edge/path transitive closure over a 5-node chain",
		Build:       transitiveClosure,
	},
	"successor-count": {
		Name:        "successor-count",
		Description: "count of edge tuples, via a global count aggregation",
		Build:       successorCount,
	},
}

// Names returns the registry's keys in sorted order.
func Names() []string {
	names := make([]string, 0, len(All))
	for n := range All {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves name or returns an error listing the known names.
func Lookup(name string) (*ast.Program, error) {
	ex, ok := All[name]
	if !ok {
		return nil, fmt.Errorf("unknown example %q (known: %v)", name, Names())
	}
	return ex.Build(), nil
}
