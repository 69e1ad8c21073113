package ast

import "github.com/ramonfmir/scallop/internal/expr"

// FormulaKind tags the Formula union (§3 rule bodies as formulas).
type FormulaKind int

const (
	FormulaAtom FormulaKind = iota
	FormulaNegAtom
	FormulaConjunction
	FormulaDisjunction
	FormulaConstraint
	FormulaImplies
	FormulaReduce
	// FormulaForallExistsReduce is the raw surface form of a `forall`/`exists`
	// aggregation (§4.3, §9 Open Questions): unlike every other aggregator,
	// these two need a rewrite (∀x.φ ≡ ¬∃x.¬φ) before the runtime's single
	// `exists` operator (§4.8) can execute them. Normalize eliminates every
	// FormulaForallExistsReduce into a plain FormulaReduce; the boundness
	// pass treats encountering one as an internal invariant violation, since
	// it means normalization was skipped.
	FormulaForallExistsReduce
)

// Formula is the tagged union of rule-body forms. Exactly one payload field
// group is populated, selected by Kind.
type Formula struct {
	Kind FormulaKind
	Loc  Location

	Atom *Atom // FormulaAtom / FormulaNegAtom

	Conjuncts []*Formula // FormulaConjunction
	Disjuncts []*Formula // FormulaDisjunction

	Constraint *expr.Expr // FormulaConstraint (must type to bool)

	Left  *Formula // FormulaImplies antecedent
	Right *Formula // FormulaImplies consequent

	Reduce *Reduction // FormulaReduce / FormulaForallExistsReduce
}

func AtomFormula(a *Atom) *Formula    { return &Formula{Kind: FormulaAtom, Atom: a, Loc: a.Loc} }
func NegAtomFormula(a *Atom) *Formula { return &Formula{Kind: FormulaNegAtom, Atom: a, Loc: a.Loc} }

func Conjunction(fs ...*Formula) *Formula { return &Formula{Kind: FormulaConjunction, Conjuncts: fs} }
func Disjunction(fs ...*Formula) *Formula { return &Formula{Kind: FormulaDisjunction, Disjuncts: fs} }

func Constraint(e *expr.Expr) *Formula { return &Formula{Kind: FormulaConstraint, Constraint: e} }

func Implies(antecedent, consequent *Formula) *Formula {
	return &Formula{Kind: FormulaImplies, Left: antecedent, Right: consequent}
}

func ReduceFormula(r *Reduction) *Formula {
	k := FormulaReduce
	if r.Op == "forall" || r.Op == "exists" {
		k = FormulaForallExistsReduce
	}
	return &Formula{Kind: k, Reduce: r, Loc: r.Loc}
}

// Walk calls visit on f and, recursively, on every formula it contains.
// Order matches source order (left-to-right, outer-to-inner). It does not
// descend into a Reduce's own Body -- that formula is scoped to the
// reduction, not the enclosing conjunction, and callers that need it use
// Reduce.Body directly.
func (f *Formula) Walk(visit func(*Formula)) {
	if f == nil {
		return
	}
	visit(f)
	switch f.Kind {
	case FormulaConjunction:
		for _, c := range f.Conjuncts {
			c.Walk(visit)
		}
	case FormulaDisjunction:
		for _, d := range f.Disjuncts {
			d.Walk(visit)
		}
	case FormulaImplies:
		f.Left.Walk(visit)
		f.Right.Walk(visit)
	}
}
