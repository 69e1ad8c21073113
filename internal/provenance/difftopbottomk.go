package provenance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ramonfmir/scallop/internal/ast"
)

// diffTag extends topBottomTag with a derivative map from input-variable id
// to the partial derivative of this tag's weight with respect to that
// variable's probability (§9 Design Notes "differentiable top-bottom-k ...
// carries a dual-number derivative map"). The map is the dual-number part;
// combining two diffTags follows the product/sum rule on their weights.
type diffTag struct {
	base topBottomTag
	grad map[int64]float64
}

// DiffTopBottomKContext layers gradient tracking on top of
// TopBottomKContext's clause bookkeeping, giving callers a per-input-fact
// sensitivity alongside the probability bounds -- the provenance a
// gradient-based learning loop over Scallop programs would select.
type DiffTopBottomKContext struct {
	inner TopBottomKContext
}

func NewDiffTopBottomKContext(k int) DiffTopBottomKContext {
	return DiffTopBottomKContext{inner: NewTopBottomKContext(k)}
}

func (DiffTopBottomKContext) Name() string { return "diff-top-bottom-k-clauses" }

func (DiffTopBottomKContext) Zero() any {
	return diffTag{base: TopBottomKContext{}.Zero().(topBottomTag), grad: map[int64]float64{}}
}

func (DiffTopBottomKContext) One() any {
	return diffTag{base: TopBottomKContext{}.One().(topBottomTag), grad: map[int64]float64{}}
}

// Add follows the sum rule: d/dx (w1 + w2) = dw1/dx + dw2/dx. The two
// derivative maps are summed as they are; the result is not projected
// through the noisy-or that Weight applies to the combined clauses.
func (c DiffTopBottomKContext) Add(a, b any) any {
	x, y := a.(diffTag), b.(diffTag)
	base := c.inner.Add(x.base, y.base).(topBottomTag)
	return diffTag{base: base, grad: sumGrad(x.grad, y.grad)}
}

// Mult follows the product rule: d/dx (w1*w2) = w1'*w2 + w1*w2'.
func (c DiffTopBottomKContext) Mult(a, b any) any {
	x, y := a.(diffTag), b.(diffTag)
	base := c.inner.Mult(x.base, y.base).(topBottomTag)
	w1, _ := topBottomBounds(x.base)
	w2, _ := topBottomBounds(y.base)
	grad := map[int64]float64{}
	for id, d := range x.grad {
		grad[id] += d * w2
	}
	for id, d := range y.grad {
		grad[id] += d * w1
	}
	return diffTag{base: base, grad: grad}
}

func sumGrad(a, b map[int64]float64) map[int64]float64 {
	out := make(map[int64]float64, len(a)+len(b))
	for id, d := range a {
		out[id] += d
	}
	for id, d := range b {
		out[id] += d
	}
	return out
}

func (c DiffTopBottomKContext) Negate(a any) (any, bool) {
	x := a.(diffTag)
	base, _ := c.inner.Negate(x.base)
	grad := make(map[int64]float64, len(x.grad))
	for id, d := range x.grad {
		grad[id] = -d
	}
	return diffTag{base: base.(topBottomTag), grad: grad}, true
}

func (c DiffTopBottomKContext) Discard(a any) bool { return c.inner.Discard(a.(diffTag).base) }

func (c DiffTopBottomKContext) Saturated(old, new any) bool {
	return c.inner.Saturated(old.(diffTag).base, new.(diffTag).base)
}

func (c DiffTopBottomKContext) Weight(a any) float64 { return c.inner.Weight(a.(diffTag).base) }

func (c DiffTopBottomKContext) TagOfInput(kind ast.InputTagKind, disjID int, prob float64) any {
	base := c.inner.TagOfInput(kind, disjID, prob).(topBottomTag)
	id := int64(disjID)<<32 | int64(kind)
	grad := map[int64]float64{}
	if kind == ast.InputTagProbability || kind == ast.InputTagExclusiveProbability {
		grad[id] = 1 // d(weight)/d(this fact's own probability) = 1 at the leaf
	}
	return diffTag{base: base, grad: grad}
}

func (c DiffTopBottomKContext) String(a any) string {
	t := a.(diffTag)
	ids := make([]int64, 0, len(t.grad))
	for id := range t.grad {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("d/d%d=%.4f", id, t.grad[id])
	}
	return fmt.Sprintf("%s {%s}", c.inner.String(t.base), strings.Join(parts, ", "))
}
