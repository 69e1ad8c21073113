package provenance

import (
	"math"
	"testing"

	"github.com/ramonfmir/scallop/internal/ast"
)

func TestUnitTagLaws(t *testing.T) {
	u := UnitContext{}
	if u.Add(u.Zero(), u.Zero()) != u.Zero() {
		t.Fatal("add(zero, zero) should be zero")
	}
	if u.Mult(u.One(), u.One()) != u.One() {
		t.Fatal("mult(one, one) should be one")
	}
}

func TestBooleanTagLaws(t *testing.T) {
	b := BooleanContext{}
	if b.Mult(true, b.Zero()) != false {
		t.Fatal("mult(x, zero) should be zero")
	}
	if b.Add(false, b.Zero()) != false {
		t.Fatal("add(x, zero) should be x")
	}
	neg, ok := b.Negate(true)
	if !ok || neg != false {
		t.Fatal("negate(true) should be false")
	}
	if b.Mult(true, neg).(bool) != false {
		t.Fatal("mult(t, negate(t)) should be zero (false)")
	}
}

// min-max-prob's negation is the standard 1-p fuzzy complement; it is a
// deliberate approximation that does not satisfy the strict
// mult(t, negate(t)) = zero tag law except at the boundary values 0 and 1
// (documented in DESIGN.md) -- this test checks the complement arithmetic
// itself, not that stronger law.
func TestMinMaxProbNegateComplement(t *testing.T) {
	p := MinMaxProbContext{}
	neg, ok := p.Negate(0.7)
	if !ok {
		t.Fatal("min-max-prob must support negation")
	}
	if math.Abs(neg.(float64)-0.3) > 1e-12 {
		t.Fatalf("expected negate(0.7) == 0.3, got %v", neg)
	}
	zero, ok := p.Negate(1.0)
	if !ok || zero.(float64) != 0 {
		t.Fatalf("expected negate(1.0) == 0, got %v", zero)
	}
}

func TestTopBottomKIndependentOr(t *testing.T) {
	// Mirrors S4: two independent facts with weight 0.9 and 0.8 combined by
	// Add (OR); expected weight 1-(1-0.9)(1-0.8) = 0.98.
	ctx := NewTopBottomKContext(3)
	a := ctx.TagOfInput(ast.InputTagProbability, 0, 0.9)
	b := ctx.TagOfInput(ast.InputTagProbability, 1, 0.8)
	combined := ctx.Add(a, b)
	w := ctx.Weight(combined)
	if w < 0.96 || w > 0.99 {
		t.Fatalf("expected weight in [0.96, 0.99], got %v", w)
	}
}

func TestTopKProofsDiscardsEmpty(t *testing.T) {
	ctx := NewTopKProofsContext(3)
	if !ctx.Discard(ctx.Zero()) {
		t.Fatal("zero tag (no proofs) should be discarded")
	}
	if ctx.Discard(ctx.One()) {
		t.Fatal("one tag (trivial proof) should not be discarded")
	}
}

func TestDiffTopBottomKGradient(t *testing.T) {
	ctx := NewDiffTopBottomKContext(3)
	a := ctx.TagOfInput(ast.InputTagProbability, 0, 0.9)
	if math.Abs(ctx.Weight(a)-0.9) > 1e-9 {
		t.Fatalf("expected weight 0.9, got %v", ctx.Weight(a))
	}
	if g := a.(diffTag).grad; len(g) != 1 || g[int64(ast.InputTagProbability)] != 1 {
		t.Fatalf("expected d(weight)/d(own probability) = 1, got %v", g)
	}
}
