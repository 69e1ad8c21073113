package provenance

import "github.com/ramonfmir/scallop/internal/ast"

// unitTag is the sole value of the unit provenance's tag type -- presence,
// nothing more. Declared as a named empty struct rather than using struct{}
// directly so Context.String/Weight can type-switch on it unambiguously.
type unitTag struct{}

// UnitContext is the degenerate provenance (§9 Design Notes "unit
// (Tag=())"): every derivation is equally "present", so add/mult/negate all
// collapse to the single tag value. This is the provenance every
// determinism property in §8 is stated against.
type UnitContext struct{}

func (UnitContext) Name() string { return "unit" }

func (UnitContext) Zero() any { return unitTag{} }
func (UnitContext) One() any  { return unitTag{} }

func (UnitContext) Add(a, b any) any  { return unitTag{} }
func (UnitContext) Mult(a, b any) any { return unitTag{} }

// Negate is supported trivially: stratified negation only needs to know
// whether a left-hand tuple's match set on the right is empty, never what
// the negated tag's "value" is, so the single unit value stands in for both
// polarities.
func (UnitContext) Negate(a any) (any, bool) { return unitTag{}, true }

func (UnitContext) Discard(a any) bool { return false }

// Saturated always holds: the unit tag carries no information, so merging a
// re-derived tuple's tag never changes anything and DynamicRelation.Changed
// does not re-emit it; a stratum's fixpoint is reached on tuple-set
// stability alone.
func (UnitContext) Saturated(old, new any) bool { return true }

func (UnitContext) Weight(a any) float64 { return 1 }

func (UnitContext) TagOfInput(ast.InputTagKind, int, float64) any { return unitTag{} }

func (UnitContext) String(a any) string { return "()" }
