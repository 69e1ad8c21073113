// Package expr implements the pure Expression IR (§2.2): arithmetic,
// logical, comparison, type-cast, if-then-else, and call expressions
// evaluated against a tuple binding context.
package expr

import (
	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/value"
)

// BinOp identifies a binary arithmetic/logical/comparison operator.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	Lt
	Leq
	Gt
	Geq
	Eq
	Neq
	And
	Or
)

// UnOp identifies a unary operator.
type UnOp int

const (
	Neg UnOp = iota // -x
	Pos             // +x
	Not             // !x
)

// Expr is the pure expression tree. Exactly one field group is populated per
// node, selected by Kind.
type Expr struct {
	Kind ExprKind
	Loc  ast.Location

	// Constant
	Const value.Value
	// ConstAmbiguous marks an unsuffixed numeric literal (`3` or `3.0`)
	// whose width the parser has not pinned down: type inference (§4.4)
	// starts its TypeSet from value.AllIntegerTypes/AllFloatTypes instead
	// of the single type Const.Type() happens to hold, and narrows from
	// there the same as any other inference variable.
	ConstAmbiguous bool

	// Variable
	Var string

	// Binary
	BinOp BinOp
	Left  *Expr
	Right *Expr

	// Unary
	UnOp    UnOp
	Operand *Expr

	// Cast
	CastTarget value.Type
	CastFrom   *Expr

	// IfThenElse
	Cond *Expr
	Then *Expr
	Else *Expr

	// Call
	CallFunc string
	CallArgs []*Expr
}

type ExprKind int

const (
	KindConst ExprKind = iota
	KindVar
	KindBinary
	KindUnary
	KindCast
	KindIfThenElse
	KindCall
)

func Constant(v value.Value) *Expr { return &Expr{Kind: KindConst, Const: v} }

// AmbiguousConstant builds an unsuffixed numeric literal: v carries the
// parser's default width (value.DefaultInteger/value.DefaultFloat) but type
// inference is free to narrow it to any type in the same family.
func AmbiguousConstant(v value.Value) *Expr {
	return &Expr{Kind: KindConst, Const: v, ConstAmbiguous: true}
}
func Variable(name string) *Expr   { return &Expr{Kind: KindVar, Var: name} }

func Binary(op BinOp, l, r *Expr) *Expr {
	return &Expr{Kind: KindBinary, BinOp: op, Left: l, Right: r}
}

func Unary(op UnOp, e *Expr) *Expr {
	return &Expr{Kind: KindUnary, UnOp: op, Operand: e}
}

func Cast(target value.Type, e *Expr) *Expr {
	return &Expr{Kind: KindCast, CastTarget: target, CastFrom: e}
}

func IfThenElse(cond, then, els *Expr) *Expr {
	return &Expr{Kind: KindIfThenElse, Cond: cond, Then: then, Else: els}
}

func Call(name string, args ...*Expr) *Expr {
	return &Expr{Kind: KindCall, CallFunc: name, CallArgs: args}
}

// Variables returns the set of free variable names referenced by e, used by
// boundness analysis (§4.2).
func (e *Expr) Variables() []string {
	seen := map[string]bool{}
	var out []string
	var walk func(*Expr)
	walk = func(n *Expr) {
		if n == nil {
			return
		}
		switch n.Kind {
		case KindVar:
			if !seen[n.Var] {
				seen[n.Var] = true
				out = append(out, n.Var)
			}
		case KindBinary:
			walk(n.Left)
			walk(n.Right)
		case KindUnary:
			walk(n.Operand)
		case KindCast:
			walk(n.CastFrom)
		case KindIfThenElse:
			walk(n.Cond)
			walk(n.Then)
			walk(n.Else)
		case KindCall:
			for _, a := range n.CallArgs {
				walk(a)
			}
		}
	}
	walk(e)
	return out
}
