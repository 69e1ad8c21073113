// Package provenance implements the provenance trait of §4.6/§4.8/§9: a
// capability record every dataflow operator (internal/runtime/dynamic) is
// polymorphic over, plus the concrete tag algebras the engine ships.
//
// A tag is carried as `any` rather than threaded through the dataflow and
// relation types as a Go type parameter. The spec's provenance record is a
// genuinely open set (users may register a custom Context), and the
// dataflow graph in internal/ram is built once per compiled program and
// shared across every relation regardless of which provenance the caller
// selected at runtime -- making the tag type itself a runtime choice, not a
// compile-time one, the same tradeoff the original Rust implementation
// makes with a trait object. Generics would pin the tag type into
// ram.Program's signature for no benefit: every consumer immediately goes
// back through the Context to do anything with a tag, so the static type
// never constrains a caller the way it would for, say, a container type.
package provenance

import "github.com/ramonfmir/scallop/internal/ast"

// Context is the provenance capability record (§9 Design Notes): the full
// set of operations the dataflow and reduction engines perform on tags,
// independent of what a tag concretely is.
type Context interface {
	// Name identifies the variant, used by internal/config to select one.
	Name() string

	// Zero and One are the semiring identities: add(x, Zero()) == x,
	// mult(x, One()) == x, mult(x, Zero()) == Zero() (§8 Tag laws).
	Zero() any
	One() any

	// Add and Mult implement the two semiring operations tuples and joins
	// use respectively (§4.7 tag composition table).
	Add(a, b any) any
	Mult(a, b any) any

	// Negate implements negation for antijoin/difference and the `exists`
	// reduction (§4.7, §4.8). ok is false for provenances that do not
	// support negation (§8: "provenances without negation must return None
	// and any rule needing it is rejected at compile time").
	Negate(a any) (tag any, ok bool)

	// Discard reports whether a tuple carrying tag should be dropped from
	// further propagation during DynamicRelation.changed() (§4.6).
	Discard(a any) bool

	// Saturated reports whether merging a re-derived tuple's tag (old into
	// new) left nothing worth propagating (§4.9). DynamicRelation.Changed
	// re-emits an existing tuple only when this is false; a new tuple is
	// always emitted, so a stratum's loop does not end while new tuples
	// still appear, whatever the tags do.
	Saturated(old, new any) bool

	// Weight projects a tag to a scalar score, used by top-k-style
	// variants to rank/truncate and by callers wanting a single number out
	// of a probabilistic run.
	Weight(a any) float64

	// TagOfInput builds an input tag from a fact's static/dynamic tag
	// annotation (§6 "Input tags (dynamic)").
	TagOfInput(kind ast.InputTagKind, disjID int, prob float64) any

	// String renders a tag for debug/log output.
	String(a any) string
}

// ByName is the registry internal/config consults to select a Context from
// a configuration string.
var ByName = map[string]func(k int) Context{
	"unit":                    func(int) Context { return UnitContext{} },
	"boolean":                 func(int) Context { return BooleanContext{} },
	"min-max-prob":            func(int) Context { return MinMaxProbContext{} },
	"top-k-proofs":            func(k int) Context { return NewTopKProofsContext(k) },
	"top-bottom-k-clauses":    func(k int) Context { return NewTopBottomKContext(k) },
	"diff-top-bottom-k-clauses": func(k int) Context { return NewDiffTopBottomKContext(k) },
}
