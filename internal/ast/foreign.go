package ast

import "github.com/ramonfmir/scallop/internal/value"

// TypeFamily classifies a foreign function/predicate parameter or generic
// type bound (§4.4, §6).
type TypeFamily int

const (
	FamilyConcrete TypeFamily = iota // a single fixed value.Type
	FamilyInteger
	FamilyFloat
	FamilyNumber // Integer ∪ Float
	FamilyAny
	FamilyGeneric // refers to one of the declaration's generic type parameters
)

// TypeBound is either a concrete type or a type family/generic reference.
type TypeBound struct {
	Family    TypeFamily
	Concrete  value.Type
	GenericID int
}

// ForeignFunctionDecl declares a foreign function's calling contract
// (§6 Foreign function contract).
type ForeignFunctionDecl struct {
	Name            string
	NumGenerics     int
	GenericFamilies []TypeFamily // len == NumGenerics
	Required        []TypeBound
	Optional        []TypeBound
	Variadic        *TypeBound // nil if not variadic
	Return          TypeBound
	Loc             Location
}

// Arity bounds (min, max) a call must satisfy; max is -1 if variadic.
func (d *ForeignFunctionDecl) Arity() (min, max int) {
	min = len(d.Required)
	if d.Variadic != nil {
		return min, -1
	}
	return min, min + len(d.Optional)
}

// BindingMode selects free/bound for one foreign-predicate argument
// position (§4.2 step 3, §6 Foreign predicate contract).
type BindingMode int

const (
	Bound BindingMode = iota
	Free
)

// ForeignPredicateDecl declares a foreign predicate's argument types,
// binding pattern, and whether it supports ground queries.
type ForeignPredicateDecl struct {
	Name        string
	ArgTypes    []value.Type
	Bindings    []BindingMode // len == len(ArgTypes)
	Groundable  bool
	Loc         Location
}

// FreeIndices returns the argument positions marked Free.
func (d *ForeignPredicateDecl) FreeIndices() []int {
	var out []int
	for i, b := range d.Bindings {
		if b == Free {
			out = append(out, i)
		}
	}
	return out
}

// BoundIndices returns the argument positions marked Bound.
func (d *ForeignPredicateDecl) BoundIndices() []int {
	var out []int
	for i, b := range d.Bindings {
		if b == Bound {
			out = append(out, i)
		}
	}
	return out
}
