package dynamic

import (
	"fmt"

	"github.com/ramonfmir/scallop/internal/value"
)

// ForeignFunctionImpl is one foreign function's native Go body, invoked
// once the front-end has already checked its declared arity/type contract
// (§6 Foreign function contract). Returning ok=false suppresses the tuple
// the call was part of, matching expr.Eval's KindCall handling.
type ForeignFunctionImpl func(args []value.Value) (result value.Value, ok bool, err error)

// ForeignFunctionRegistry implements expr.ForeignFunctions by dispatching
// to registered native implementations by name.
type ForeignFunctionRegistry struct {
	impls map[string]ForeignFunctionImpl
}

func NewForeignFunctionRegistry() *ForeignFunctionRegistry {
	return &ForeignFunctionRegistry{impls: map[string]ForeignFunctionImpl{}}
}

func (r *ForeignFunctionRegistry) Register(name string, impl ForeignFunctionImpl) {
	r.impls[name] = impl
}

func (r *ForeignFunctionRegistry) Execute(name string, args []value.Value) (value.Value, bool, error) {
	impl, ok := r.impls[name]
	if !ok {
		return value.Value{}, false, fmt.Errorf("dynamic: no foreign function registered for %q", name)
	}
	return impl(args)
}

// ForeignResult is one row a foreign predicate call contributes to its free
// positions, together with the tag the call earns that row (§6 Foreign
// predicate contract).
type ForeignResult struct {
	FreeVals []value.Value
	Tag      any
}

// ForeignPredicateImpl is one foreign predicate's native body: given the
// bound-position argument values in declaration order, it yields every
// matching tuple of free-position values.
type ForeignPredicateImpl func(args []value.Value) ([]ForeignResult, error)

// ForeignPredicates resolves a foreign predicate call by name.
type ForeignPredicates interface {
	Call(name string, args []value.Value) ([]ForeignResult, error)
}

// ForeignPredicateRegistry is the default ForeignPredicates implementation.
// A result a native impl leaves untagged (Tag == nil) is stamped with the
// running provenance's One(): most foreign predicates (e.g. range, string
// split) are simple ground facts the call either produces or doesn't, with
// no tag of their own to contribute beyond "this call succeeded".
type ForeignPredicateRegistry struct {
	impls map[string]ForeignPredicateImpl
	one   any
}

func NewForeignPredicateRegistry(one any) *ForeignPredicateRegistry {
	return &ForeignPredicateRegistry{impls: map[string]ForeignPredicateImpl{}, one: one}
}

func (r *ForeignPredicateRegistry) Register(name string, impl ForeignPredicateImpl) {
	r.impls[name] = impl
}

func (r *ForeignPredicateRegistry) Call(name string, args []value.Value) ([]ForeignResult, error) {
	impl, ok := r.impls[name]
	if !ok {
		return nil, fmt.Errorf("dynamic: no foreign predicate registered for %q", name)
	}
	results, err := impl(args)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if results[i].Tag == nil {
			results[i].Tag = r.one
		}
	}
	return results, nil
}
