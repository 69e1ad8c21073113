// Package analyzers implements the four front-end semantic analyses of
// §4.1-§4.4 as front.Pass implementations.
package analyzers

import (
	"github.com/ramonfmir/scallop/internal/ast"
	"github.com/ramonfmir/scallop/internal/front"
	"github.com/ramonfmir/scallop/internal/value"
)

// ConstantDeclPass resolves named constant declarations and enum variants
// (§4.1).
type ConstantDeclPass struct{}

func (ConstantDeclPass) Name() string { return "constant-decl" }

func (ConstantDeclPass) Run(p *ast.Program, ctx *front.Context) error {
	declare := func(name string, loc ast.Location, ty *ast.TypeExpr, v front.ConstantInfo) {
		if existing, dup := ctx.Constants[name]; dup {
			ctx.Diagnostics.Errorf("DuplicatedConstant", loc,
				"constant %q already declared at %s", name, existing.Loc)
			return
		}
		info := v
		info.Loc = loc
		info.Type = ty
		ctx.Constants[name] = &info
	}

	for _, c := range p.Consts {
		declare(c.Name, c.Loc, c.Type, front.ConstantInfo{Value: c.Value})
	}

	for _, e := range p.Enums {
		var prev int64 = -1
		havePrev := false
		for i, m := range e.Members {
			var id int64
			switch {
			case m.ExplicitAssign != nil:
				id = *m.ExplicitAssign
				if havePrev && id <= prev {
					ctx.Diagnostics.Errorf("EnumIDAlreadyAssigned", m.Loc,
						"enum member %q assigns id %d, which is not strictly greater than the previous id %d",
						m.Name, id, prev)
				}
			case i == 0:
				id = 0
			default:
				id = prev + 1
			}
			e.Members[i].ResolvedID = id
			declare(m.Name, m.Loc, nil, front.ConstantInfo{
				Value:     value.I64(id),
				IsEnumVar: true,
			})
			prev, havePrev = id, true
		}
	}

	checkBindings(p, ctx)

	// Resolve every variable-shaped argument across rule heads/bodies and
	// fact tuples that names a declared constant into a literal constant,
	// flagging unresolved names used where a literal is mandatory (fact
	// arguments, constant-set tuples).
	resolveConstUses(p, ctx)

	return nil
}

// checkBindings rejects a constant name reused as a reduction binding
// variable (§4.1 ConstantVarInBinding): bindings introduce a fresh local
// scope and shadowing a constant there is rejected rather than silently
// allowed, since it would make every other use of the name in the same
// rule ambiguous between the constant and the local binding.
func checkBindings(p *ast.Program, ctx *front.Context) {
	for _, rule := range p.Rules {
		rule.Body.Walk(func(f *ast.Formula) {
			if f.Kind != ast.FormulaReduce && f.Kind != ast.FormulaForallExistsReduce {
				return
			}
			for _, b := range f.Reduce.BindingVars {
				if _, ok := ctx.Constants[b]; ok {
					ctx.Diagnostics.Errorf("ConstantVarInBinding", f.Reduce.Loc,
						"binding variable %q shadows a declared constant", b)
				}
			}
		})
	}
}

// resolveConstUses walks every atom argument list in the program. An
// ArgVariable whose name matches a declared constant is rewritten in place
// to ArgConstant (the "substitute at use site" contract of §4.1). An
// ArgVariable used as a fact argument that does *not* resolve to a bound
// rule variable and does not match a declared constant is an
// UnknownConstantVariable error, since fact arguments must be literals.
func resolveConstUses(p *ast.Program, ctx *front.Context) {
	substitute := func(args []ast.Arg) {
		for i := range args {
			if args[i].Kind != ast.ArgVariable {
				continue
			}
			if info, ok := ctx.Constants[args[i].Var]; ok {
				args[i] = ast.Lit(info.Value)
			}
		}
	}

	for _, r := range p.Relations {
		for fi := range r.Facts {
			for ai, a := range r.Facts[fi].Tuple {
				if a.Kind != ast.ArgVariable {
					continue
				}
				info, ok := ctx.Constants[a.Var]
				if !ok {
					ctx.Diagnostics.Errorf("UnknownConstantVariable", a.Loc,
						"fact argument %q in relation %q is not a declared constant", a.Var, r.Name)
					continue
				}
				r.Facts[fi].Tuple[ai] = ast.Lit(info.Value)
			}
		}
	}

	for _, rule := range p.Rules {
		for _, h := range rule.Heads {
			substitute(h.Args)
		}
		rule.Body.Walk(func(f *ast.Formula) {
			switch f.Kind {
			case ast.FormulaAtom, ast.FormulaNegAtom:
				substitute(f.Atom.Args)
			}
		})
	}
}
