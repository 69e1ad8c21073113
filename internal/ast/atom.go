package ast

import "github.com/ramonfmir/scallop/internal/value"

// ArgKind identifies the shape of one atom argument position.
type ArgKind int

const (
	ArgVariable ArgKind = iota
	ArgWildcard         // `_`
	ArgConstant
)

// Arg is one positional argument of an atom: a variable reference, the
// wildcard `_` (never bound, never checked for boundness), or a literal
// constant value (possibly a named constant, resolved by constant-decl
// analysis before this field is read).
type Arg struct {
	Kind  ArgKind
	Var   string
	Const value.Value
	Loc   Location
}

func Var(name string) Arg       { return Arg{Kind: ArgVariable, Var: name} }
func Wildcard() Arg             { return Arg{Kind: ArgWildcard} }
func Lit(v value.Value) Arg     { return Arg{Kind: ArgConstant, Const: v} }

// Atom is a predicate applied to positional arguments: `name(args...)`.
type Atom struct {
	Predicate string
	Args      []Arg
	Loc       Location
}

// Variables returns the distinct variable names referenced by the atom's
// argument list, in left-to-right order.
func (a *Atom) Variables() []string {
	seen := map[string]bool{}
	var out []string
	for _, arg := range a.Args {
		if arg.Kind == ArgVariable && !seen[arg.Var] {
			seen[arg.Var] = true
			out = append(out, arg.Var)
		}
	}
	return out
}
