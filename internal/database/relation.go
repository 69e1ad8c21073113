// Package database implements §3's Relation/Stratum registry and the
// execution Context that owns it: the relation declarations, their static
// facts, and the foreign-function/predicate registries a compiled program
// runs against. internal/runtime drives the fixpoint scheduler over the
// Context this package builds; internal/runtime/dynamic supplies the
// per-relation storage and dataflow evaluator this package wires facts
// into.
package database

import (
	"fmt"

	scallopErrors "github.com/ramonfmir/scallop/internal/errors"
	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/provenance"
	"github.com/ramonfmir/scallop/internal/runtime/dynamic"
	"github.com/ramonfmir/scallop/internal/value"
)

// Relation pairs one relation's static declaration (§3 Relation: arity,
// tuple type, input-source descriptor, output disposition, immutability)
// with its live dynamic storage.
type Relation struct {
	Decl    *ast.RelationDecl
	Dynamic *dynamic.DynamicRelation
}

// NewRelation builds a Relation with fresh, empty dynamic storage under
// the given provenance.
func NewRelation(decl *ast.RelationDecl, prov provenance.Context) *Relation {
	return &Relation{Decl: decl, Dynamic: dynamic.NewDynamicRelation(decl.Name, prov)}
}

// IsEDB reports whether this relation is user-provided input rather than
// rule-derived (§3 "EDB, user-loaded").
func (r *Relation) IsEDB() bool { return r.Decl.IsInput }

// FactsToRows converts the relation declaration's statically listed facts
// (§3 Fact: dynamic input tag x tuple) into dynamic.Row values tagged via
// the running provenance's TagOfInput (§6 "Input tags (dynamic)").
// Constant arguments must already be resolved to literal values by
// constant-decl analysis (§4.1) -- a variable or wildcard argument in a
// fact's tuple is a front-end invariant violation, not a runtime
// possibility, and is reported as an IO-category error rather than
// panicking.
func FactsToRows(decl *ast.RelationDecl, prov provenance.Context) ([]dynamic.Row, error) {
	rows := make([]dynamic.Row, 0, len(decl.Facts))
	for _, fact := range decl.Facts {
		cols := make([]value.Value, len(fact.Tuple))
		for i, arg := range fact.Tuple {
			if arg.Kind != ast.ArgConstant {
				return nil, scallopErrors.NewIOError(decl.Name, fmt.Sprintf("fact tuple argument %d is not a resolved constant", i), nil)
			}
			cols[i] = arg.Const
		}
		tag := prov.TagOfInput(fact.Tag, fact.DisjID, fact.Prob)
		rows = append(rows, dynamic.Row{Cols: cols, Tag: tag})
	}
	return rows, nil
}
