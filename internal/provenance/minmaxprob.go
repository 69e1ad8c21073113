package provenance

import (
	"fmt"
	"math"

	"github.com/ramonfmir/scallop/internal/ast"
)

// saturationEpsilon bounds the probability-weight change the numeric
// provenance variants treat as converged (§9 Design Notes: "some use strict
// equality, others numeric epsilon -- this is intentional latitude").
const saturationEpsilon = 1e-9

// MinMaxProbContext is the min-max probability semiring: a derivation's
// weight is the minimum of its conjuncts' weights (the weakest link in a
// proof) and alternative derivations combine by maximum (the best proof
// wins). This is the simplest probabilistic provenance that still needs a
// real negate (1-p) and a real saturation check.
type MinMaxProbContext struct{}

func (MinMaxProbContext) Name() string { return "min-max-prob" }

func (MinMaxProbContext) Zero() any { return 0.0 }
func (MinMaxProbContext) One() any  { return 1.0 }

func (MinMaxProbContext) Add(a, b any) any  { return math.Max(a.(float64), b.(float64)) }
func (MinMaxProbContext) Mult(a, b any) any { return math.Min(a.(float64), b.(float64)) }

func (MinMaxProbContext) Negate(a any) (any, bool) { return 1 - a.(float64), true }

func (MinMaxProbContext) Discard(a any) bool { return a.(float64) <= 0 }

func (MinMaxProbContext) Saturated(old, new any) bool {
	return math.Abs(old.(float64)-new.(float64)) < saturationEpsilon
}

func (MinMaxProbContext) Weight(a any) float64 { return a.(float64) }

func (MinMaxProbContext) TagOfInput(kind ast.InputTagKind, disjID int, prob float64) any {
	switch kind {
	case ast.InputTagNone, ast.InputTagNewVariable:
		return 1.0
	default:
		return prob
	}
}

func (MinMaxProbContext) String(a any) string { return fmt.Sprintf("%.6f", a.(float64)) }
