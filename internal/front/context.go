package front

import (
	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/expr"
	"github.com/ramonfmir/scallop/internal/value"
)

// ConstantInfo is what constant-decl analysis (§4.1) records for one
// declared name.
type ConstantInfo struct {
	Loc       ast.Location
	Type      *ast.TypeExpr
	Value     value.Value
	IsEnumVar bool
}

// Context is the shared state threaded through every front-end pass,
// mirroring the teacher's semantic.PassContext / Analyzer field grouping:
// each pass reads what earlier passes produced and adds its own section.
type Context struct {
	Diagnostics Diagnostics

	// --- constant-decl analysis (§4.1) ---
	Constants map[string]*ConstantInfo

	// --- boundness analysis (§4.2) ---
	// BoundVars records, per rule, the final bounded-variable set computed
	// for that rule's body (the intersection over disjuncts).
	BoundVars map[*ast.Rule]map[string]bool

	// --- type inference (§4.4) ---
	// VarTypes records the concrete type resolved for each variable, keyed
	// by (rule, variable name) since a variable name is scoped to its rule.
	VarTypes map[*ast.Rule]map[string]value.Type
	// ExprTypes records the concrete type resolved for each expression
	// node, keyed by the node's own pointer identity (§9 Design Notes:
	// acceptable alternative to a location side-table since Expr nodes are
	// already heap-allocated and unique).
	ExprTypes map[*expr.Expr]value.Type

	// ForeignFunctions / ForeignPredicates index the program's declared
	// foreign contracts by name for quick lookup during analysis.
	ForeignFunctions  map[string]*ast.ForeignFunctionDecl
	ForeignPredicates map[string]*ast.ForeignPredicateDecl
}

func NewContext(p *ast.Program) *Context {
	ctx := &Context{
		Constants:         map[string]*ConstantInfo{},
		BoundVars:         map[*ast.Rule]map[string]bool{},
		VarTypes:          map[*ast.Rule]map[string]value.Type{},
		ExprTypes:         map[*expr.Expr]value.Type{},
		ForeignFunctions:  map[string]*ast.ForeignFunctionDecl{},
		ForeignPredicates: map[string]*ast.ForeignPredicateDecl{},
	}
	for _, f := range p.ForeignFunctions {
		ctx.ForeignFunctions[f.Name] = f
	}
	for _, fp := range p.ForeignPredicates {
		ctx.ForeignPredicates[fp.Name] = fp
	}
	return ctx
}

// IsForeignPredicate reports whether name refers to a declared foreign
// predicate rather than a relation, given the program's foreign-predicate
// index.
func IsForeignPredicate(ctx *Context, name string) bool {
	_, ok := ctx.ForeignPredicates[name]
	return ok
}
