package io_test

import (
	"strings"
	"testing"

	"github.com/ramonfmir/scallop/internal/ast"
	scallopio "github.com/ramonfmir/scallop/internal/io"
	"github.com/ramonfmir/scallop/internal/provenance"
	"github.com/ramonfmir/scallop/internal/runtime/dynamic"
	"github.com/ramonfmir/scallop/internal/value"
)

func i32pairDecl(name string) *ast.RelationDecl {
	return &ast.RelationDecl{
		Name:     name,
		IsInput:  true,
		ArgTypes: value.CompoundType(value.LeafType(value.TypeI32), value.LeafType(value.TypeI32)),
	}
}

func TestLoadCSVWithoutProbability(t *testing.T) {
	rel := i32pairDecl("edge")
	rows, err := scallopio.LoadCSV(strings.NewReader("0,1\n1,2\n"), rel, ast.CSVOptions{Delimiter: ','}, provenance.UnitContext{})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Cols[0].AsI64() != 0 || rows[0].Cols[1].AsI64() != 1 {
		t.Fatalf("unexpected first row: %v", rows[0].Cols)
	}
}

func TestLoadCSVWithHeaderAndProbability(t *testing.T) {
	rel := i32pairDecl("p")
	data := "prob,x,y\n0.9,0,1\n,1,2\n"
	rows, err := scallopio.LoadCSV(strings.NewReader(data), rel, ast.CSVOptions{Delimiter: ',', HasHeader: true, HasProbability: true}, provenance.MinMaxProbContext{})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if got := provenance.MinMaxProbContext{}.Weight(rows[0].Tag); got != 0.9 {
		t.Fatalf("expected first row weight 0.9, got %v", got)
	}
}

func TestLoadCSVArityMismatch(t *testing.T) {
	rel := i32pairDecl("edge")
	_, err := scallopio.LoadCSV(strings.NewReader("0,1,2\n"), rel, ast.CSVOptions{Delimiter: ','}, provenance.UnitContext{})
	if err == nil {
		t.Fatalf("expected an arity mismatch error")
	}
}

func TestWriteCSVQuotesDelimiter(t *testing.T) {
	rows := []dynamic.Row{
		{Cols: []value.Value{value.String("a,b"), value.I32(1)}},
	}
	var sb strings.Builder
	if err := scallopio.WriteCSV(&sb, rows, ','); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.Contains(sb.String(), `"a,b"`) {
		t.Fatalf("expected quoted field in output, got %q", sb.String())
	}
}
