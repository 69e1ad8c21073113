package ast

// Rule is `head(s) = body` (§2.3). The head is either a single atom or a
// disjunction of atoms (each disjunct independently derives the relation
// when the shared body holds).
type Rule struct {
	Heads []*Atom // len == 1 for a plain rule; > 1 for a head disjunction
	Body  *Formula
	Loc   Location
}

// HeadPredicates returns the distinct predicate names this rule derives
// into, used to build the predicate dependency graph for stratification.
func (r *Rule) HeadPredicates() []string {
	seen := map[string]bool{}
	var out []string
	for _, h := range r.Heads {
		if !seen[h.Predicate] {
			seen[h.Predicate] = true
			out = append(out, h.Predicate)
		}
	}
	return out
}

// BodyPredicates returns, for every atom appearing (positively or
// negatively) in the body, the predicate name and whether the reference is
// negated. Atoms inside a Reduce formula's body are included with
// InAggregate set, as is a join group-by's relation. Foreign-predicate
// atoms are included like any other atom; ram's dependency graph skips
// them.
type PredicateRef struct {
	Predicate  string
	Negated    bool
	InAggregate bool
}

func (r *Rule) BodyPredicates() []PredicateRef {
	var out []PredicateRef
	r.Body.Walk(func(f *Formula) {
		switch f.Kind {
		case FormulaAtom:
			out = append(out, PredicateRef{Predicate: f.Atom.Predicate})
		case FormulaNegAtom:
			out = append(out, PredicateRef{Predicate: f.Atom.Predicate, Negated: true})
		case FormulaReduce, FormulaForallExistsReduce:
			f.Reduce.Body.Walk(func(inner *Formula) {
				switch inner.Kind {
				case FormulaAtom:
					out = append(out, PredicateRef{Predicate: inner.Atom.Predicate, InAggregate: true})
				case FormulaNegAtom:
					out = append(out, PredicateRef{Predicate: inner.Atom.Predicate, Negated: true, InAggregate: true})
				}
			})
			if f.Reduce.GroupBy != nil && f.Reduce.GroupBy.Kind == GroupByJoin {
				out = append(out, PredicateRef{Predicate: f.Reduce.GroupBy.Relation, InAggregate: true})
			}
		}
	})
	return out
}
