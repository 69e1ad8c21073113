package ram

import (
	"fmt"
	"sort"

	"github.com/ramonfmir/scallop/internal/ast"
)

// StratifyError reports the S5 hard error: a predicate that depends on
// itself, directly or transitively, through a negated or aggregated edge
// (§4.5 step 2, "violation is a hard error").
type StratifyError struct {
	Predicate string
	Cycle     []string
}

func (e *StratifyError) Error() string {
	return fmt.Sprintf("predicate %q has a negative or aggregate dependency cycle through %v; this program cannot be stratified", e.Predicate, e.Cycle)
}

type depEdge struct {
	to          string
	negated     bool
	inAggregate bool
}

type depGraph struct {
	nodes map[string]bool
	edges map[string][]depEdge
}

// buildDependencyGraph materializes the predicate dependency graph of
// §4.5 step 2: an edge p -> q exists when q appears in any rule defining
// p, marked negative/aggregate when that occurrence is through negation or
// inside a reduction's body.
func buildDependencyGraph(p *ast.Program) *depGraph {
	foreign := map[string]bool{}
	for _, fp := range p.ForeignPredicates {
		foreign[fp.Name] = true
	}

	g := &depGraph{nodes: map[string]bool{}, edges: map[string][]depEdge{}}
	for _, r := range p.Relations {
		g.nodes[r.Name] = true
	}
	for _, r := range p.Rules {
		refs := r.BodyPredicates()
		for _, h := range r.HeadPredicates() {
			g.nodes[h] = true
			for _, ref := range refs {
				if foreign[ref.Predicate] {
					continue // foreign predicates execute synchronously, no stratum of their own (§5)
				}
				g.nodes[ref.Predicate] = true
				g.edges[h] = append(g.edges[h], depEdge{to: ref.Predicate, negated: ref.Negated, inAggregate: ref.InAggregate})
			}
		}
	}
	return g
}

// tarjan implements Tarjan's strongly-connected-components algorithm over
// depGraph. Traversal order is sorted at every branch point so the
// resulting component order is a pure function of the program text,
// matching §5's determinism requirement.
type tarjan struct {
	g       *depGraph
	index   map[string]int
	lowlink map[string]int
	onStack map[string]bool
	stack   []string
	counter int
	sccs    [][]string
}

func (t *tarjan) run() {
	names := make([]string, 0, len(t.g.nodes))
	for n := range t.g.nodes {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if _, ok := t.index[n]; !ok {
			t.strongConnect(n)
		}
	}
}

// strongConnect's recursive structure guarantees a useful ordering
// property for free: a component is appended to t.sccs only after every
// component reachable from it has already been appended. Since an edge
// p -> q means "p depends on q", that is exactly the schedule order the
// fixpoint scheduler needs (§4.9 "for each stratum in program order"):
// dependencies are evaluated before the predicates that use them.
func (t *tarjan) strongConnect(v string) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	edges := append([]depEdge{}, t.g.edges[v]...)
	sort.Slice(edges, func(i, j int) bool { return edges[i].to < edges[j].to })
	for _, e := range edges {
		w := e.to
		if _, ok := t.index[w]; !ok {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}
	var scc []string
	for {
		n := len(t.stack) - 1
		w := t.stack[n]
		t.stack = t.stack[:n]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	t.sccs = append(t.sccs, scc)
}

// Stratify assigns every relation named in p to a stratum (§4.5 step 2).
// The returned strata are in scheduling order. An error is returned when a
// negative or aggregate edge lands inside a single stratum (S5).
func Stratify(p *ast.Program) ([]Stratum, map[string]int, error) {
	g := buildDependencyGraph(p)
	t := &tarjan{g: g, index: map[string]int{}, lowlink: map[string]int{}, onStack: map[string]bool{}}
	t.run()

	stratumOf := map[string]int{}
	for i, scc := range t.sccs {
		for _, name := range scc {
			stratumOf[name] = i
		}
	}

	for v, edges := range g.edges {
		for _, e := range edges {
			if (e.negated || e.inAggregate) && stratumOf[v] == stratumOf[e.to] {
				return nil, nil, &StratifyError{Predicate: v, Cycle: append([]string{}, t.sccs[stratumOf[v]]...)}
			}
		}
	}

	strata := make([]Stratum, len(t.sccs))
	for i, scc := range t.sccs {
		sort.Strings(scc)
		recursive := len(scc) > 1
		if !recursive {
			for _, e := range g.edges[scc[0]] {
				if e.to == scc[0] {
					recursive = true
				}
			}
		}
		strata[i] = Stratum{Relations: scc, IsRecursive: recursive}
	}
	return strata, stratumOf, nil
}
