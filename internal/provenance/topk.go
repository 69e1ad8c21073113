package provenance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ramonfmir/scallop/internal/ast"
)

// literal is one atomic input fact reference inside a proof, signed by
// whether the proof relies on the fact holding (neg == false) or not
// holding (neg == true, produced by Negate).
type literal struct {
	id  int64
	neg bool
}

func (l literal) key() int64 {
	if l.neg {
		return -l.id - 1
	}
	return l.id
}

// clause is one derivation: a conjunction of literals and the probability
// weight of that conjunction (the product of the underlying input
// probabilities, assuming independence -- the same simplification real
// top-k-proofs implementations make when they don't track a shared
// disjunction table; neither this variant nor TopBottomKContext keeps
// one).
type clause struct {
	lits   []literal
	weight float64
}

func (c clause) signature() string {
	keys := make([]int64, len(c.lits))
	for i, l := range c.lits {
		keys[i] = l.key()
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprint(k)
	}
	return strings.Join(parts, ",")
}

func mergeClauses(a, b clause) (clause, bool) {
	lits := append(append([]literal{}, a.lits...), b.lits...)
	// Contradiction check: the same fact id appearing both asserted and
	// negated makes the merged clause impossible.
	signs := map[int64]bool{}
	for _, l := range lits {
		if existing, ok := signs[l.id]; ok && existing != l.neg {
			return clause{}, false
		}
		signs[l.id] = l.neg
	}
	return clause{lits: dedupeLits(lits), weight: a.weight * b.weight}, true
}

func dedupeLits(lits []literal) []literal {
	seen := map[literal]bool{}
	out := lits[:0:0]
	for _, l := range lits {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

// truncateTopK sorts clauses by descending weight, drops duplicate proofs
// (same literal set, keeping the higher weight -- merges can rederive an
// identical proof from different join orders), and keeps the best k.
func truncateTopK(clauses []clause, k int) []clause {
	best := map[string]clause{}
	for _, c := range clauses {
		sig := c.signature()
		if existing, ok := best[sig]; !ok || c.weight > existing.weight {
			best[sig] = c
		}
	}
	out := make([]clause, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].weight != out[j].weight {
			return out[i].weight > out[j].weight
		}
		return out[i].signature() < out[j].signature()
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// noisyOrWeight estimates the probability that at least one proof holds,
// treating the clauses as independent events (a standard top-k-proofs
// approximation when proofs are not tracked against a shared disjunction
// table).
func noisyOrWeight(clauses []clause) float64 {
	prodNotAny := 1.0
	for _, c := range clauses {
		prodNotAny *= 1 - c.weight
	}
	return 1 - prodNotAny
}

// TopKProofsContext tags a tuple with its k best proofs by weight (§9
// Design Notes "top-k proofs"). Negation is not supported: De Morgan's dual
// of a truncated proof set is not itself expressible as a proof set without
// the disproof (CNF) list TopBottomKContext carries, so Negate returns
// ok=false. No compile-time check rejects a program that needs it: a
// `forall` reduction fails at run time with an error, and count/sum/prod
// fall back to a fold over the group's tags.
type TopKProofsContext struct {
	k      int
	nextID *int64
}

func NewTopKProofsContext(k int) *TopKProofsContext {
	var id int64
	return &TopKProofsContext{k: k, nextID: &id}
}

func (c *TopKProofsContext) Name() string { return "top-k-proofs" }

func (*TopKProofsContext) Zero() any { return []clause{} }
func (*TopKProofsContext) One() any  { return []clause{{weight: 1}} }

func (c *TopKProofsContext) Add(a, b any) any {
	merged := append(append([]clause{}, a.([]clause)...), b.([]clause)...)
	return truncateTopK(merged, c.k)
}

func (c *TopKProofsContext) Mult(a, b any) any {
	var out []clause
	for _, x := range a.([]clause) {
		for _, y := range b.([]clause) {
			if m, ok := mergeClauses(x, y); ok {
				out = append(out, m)
			}
		}
	}
	return truncateTopK(out, c.k)
}

func (*TopKProofsContext) Negate(a any) (any, bool) { return nil, false }

func (*TopKProofsContext) Discard(a any) bool { return len(a.([]clause)) == 0 }

func (*TopKProofsContext) Saturated(old, new any) bool {
	oc, nc := old.([]clause), new.([]clause)
	if len(oc) != len(nc) {
		return false
	}
	return abs(noisyOrWeight(oc)-noisyOrWeight(nc)) < saturationEpsilon
}

func (*TopKProofsContext) Weight(a any) float64 { return noisyOrWeight(a.([]clause)) }

func (c *TopKProofsContext) TagOfInput(kind ast.InputTagKind, disjID int, prob float64) any {
	*c.nextID++
	w := 1.0
	if kind == ast.InputTagProbability || kind == ast.InputTagExclusiveProbability {
		w = prob
	}
	return []clause{{lits: []literal{{id: *c.nextID}}, weight: w}}
}

func (*TopKProofsContext) String(a any) string {
	clauses := a.([]clause)
	parts := make([]string, len(clauses))
	for i, c := range clauses {
		parts[i] = fmt.Sprintf("%s@%.4f", c.signature(), c.weight)
	}
	return "{" + strings.Join(parts, "; ") + "}"
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
