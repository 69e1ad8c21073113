package ast

// Program is the whole parsed input (§3): declarations, rules, and the
// registries of constants/enums/foreign functions/foreign predicates the
// later compiler stages resolve against.
type Program struct {
	Relations         []*RelationDecl
	Rules             []*Rule
	Consts            []*ConstDecl
	Enums             []*EnumDecl
	TypeAliases       []*TypeAliasDecl
	Queries           []*QueryDecl
	ForeignFunctions  []*ForeignFunctionDecl
	ForeignPredicates []*ForeignPredicateDecl
}

// RelationByName indexes relation declarations by name for O(1) lookup; the
// caller should rebuild this after mutating Relations.
func (p *Program) RelationByName() map[string]*RelationDecl {
	m := make(map[string]*RelationDecl, len(p.Relations))
	for _, r := range p.Relations {
		m[r.Name] = r
	}
	return m
}

// RulesByHead groups rules by the single predicate they are declared to
// derive, in source order. A rule with a head disjunction appears under
// every predicate it derives into.
func (p *Program) RulesByHead() map[string][]*Rule {
	m := map[string][]*Rule{}
	for _, r := range p.Rules {
		for _, pred := range r.HeadPredicates() {
			m[pred] = append(m[pred], r)
		}
	}
	return m
}
