package ast

import "github.com/ramonfmir/scallop/internal/expr"

// Normalize rewrites f into the base forms later stages consume: only
// FormulaConjunction, FormulaDisjunction, FormulaAtom, FormulaNegAtom,
// FormulaConstraint, and FormulaReduce remain (§4.5 step 1). `implies` and
// `forall`/`exists` aggregations are desugared using the standard rewrites:
//
//	A -> B  ≡  ¬A ∨ B
//	∀x.φ    ≡  ¬∃x.¬φ
//
// Normalize is idempotent: running it again on its own output is a no-op
// (§8 Round-trip / idempotence), since none of its output kinds match a
// rewrite rule other than recursing into already-normalized children.
func Normalize(f *Formula) *Formula {
	switch f.Kind {
	case FormulaAtom, FormulaNegAtom, FormulaConstraint:
		return f
	case FormulaConjunction:
		out := make([]*Formula, len(f.Conjuncts))
		for i, c := range f.Conjuncts {
			out[i] = Normalize(c)
		}
		return &Formula{Kind: FormulaConjunction, Conjuncts: out, Loc: f.Loc}
	case FormulaDisjunction:
		out := make([]*Formula, len(f.Disjuncts))
		for i, d := range f.Disjuncts {
			out[i] = Normalize(d)
		}
		return &Formula{Kind: FormulaDisjunction, Disjuncts: out, Loc: f.Loc}
	case FormulaImplies:
		left := negateNormalized(Normalize(f.Left))
		right := Normalize(f.Right)
		return &Formula{Kind: FormulaDisjunction, Disjuncts: []*Formula{left, right}, Loc: f.Loc}
	case FormulaReduce:
		r := *f.Reduce
		r.Body = Normalize(r.Body)
		return ReduceFormula(&r)
	case FormulaForallExistsReduce:
		return normalizeForallExists(f)
	default:
		panic("ast: Normalize: unexpected formula kind")
	}
}

// normalizeForallExists applies ∀x.φ ≡ ¬∃x.¬φ, producing a plain `exists`
// FormulaReduce in both cases (the runtime has no `forall` dataflow
// operator, §4.8): `exists` passes its (normalized) body through directly;
// `forall` normalizes and negates its body, then asks for the exists
// result to be negated in turn (Reduction.NegateResult).
func normalizeForallExists(f *Formula) *Formula {
	r := *f.Reduce
	normalizedBody := Normalize(r.Body)
	switch r.Op {
	case "exists":
		r.Body = normalizedBody
		r.Op = "exists"
		return &Formula{Kind: FormulaReduce, Reduce: &r, Loc: f.Loc}
	case "forall":
		r.Body = negateNormalized(normalizedBody)
		r.Op = "exists"
		r.NegateResult = !r.NegateResult
		return &Formula{Kind: FormulaReduce, Reduce: &r, Loc: f.Loc}
	default:
		panic("ast: normalizeForallExists: unexpected aggregator " + r.Op)
	}
}

// negateNormalized logically negates an already-normalized formula. It only
// needs to handle the base forms Normalize produces.
func negateNormalized(f *Formula) *Formula {
	switch f.Kind {
	case FormulaAtom:
		return NegAtomFormula(f.Atom)
	case FormulaNegAtom:
		return AtomFormula(f.Atom)
	case FormulaConjunction:
		out := make([]*Formula, len(f.Conjuncts))
		for i, c := range f.Conjuncts {
			out[i] = negateNormalized(c)
		}
		return &Formula{Kind: FormulaDisjunction, Disjuncts: out, Loc: f.Loc}
	case FormulaDisjunction:
		out := make([]*Formula, len(f.Disjuncts))
		for i, d := range f.Disjuncts {
			out[i] = negateNormalized(d)
		}
		return &Formula{Kind: FormulaConjunction, Conjuncts: out, Loc: f.Loc}
	case FormulaConstraint:
		return &Formula{Kind: FormulaConstraint, Constraint: expr.Unary(expr.Not, f.Constraint), Loc: f.Loc}
	case FormulaReduce:
		r := *f.Reduce
		r.NegateResult = !r.NegateResult
		return &Formula{Kind: FormulaReduce, Reduce: &r, Loc: f.Loc}
	default:
		panic("ast: negateNormalized: cannot negate formula kind")
	}
}
