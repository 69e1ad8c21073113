package value

import "strings"

// TupleType mirrors the shape of a Tuple: a leaf names a primitive Type, an
// internal node is an ordered sequence of TupleTypes (§3). The invariant a
// tuple must satisfy its declared type is checked by CheckShape.
type TupleType struct {
	leaf     bool
	ty       Type
	elements []TupleType
}

func LeafType(t Type) TupleType { return TupleType{leaf: true, ty: t} }

func CompoundType(elements ...TupleType) TupleType {
	return TupleType{leaf: false, elements: elements}
}

func (t TupleType) IsLeaf() bool { return t.leaf }

func (t TupleType) Type() Type {
	if !t.leaf {
		panic("value: TupleType.Type called on a compound type")
	}
	return t.ty
}

func (t TupleType) Elements() []TupleType {
	if t.leaf {
		panic("value: TupleType.Elements called on a leaf type")
	}
	return t.elements
}

func (t TupleType) Arity() int {
	if t.leaf {
		return 0
	}
	return len(t.elements)
}

// CheckShape verifies the leaf-for-leaf, arity-for-arity, and primitive-type
// invariant between a tuple and its declared type (§3).
func (t TupleType) CheckShape(v Tuple) bool {
	if t.leaf != v.IsLeaf() {
		return false
	}
	if t.leaf {
		return v.Value().Type() == t.ty
	}
	if len(t.elements) != len(v.Elements()) {
		return false
	}
	for i, et := range t.elements {
		if !et.CheckShape(v.Elements()[i]) {
			return false
		}
	}
	return true
}

// Flatten returns the leaf primitive types in left-to-right order, the shape
// most relation/CSV code needs (arity, column types).
func (t TupleType) Flatten() []Type {
	if t.leaf {
		return []Type{t.ty}
	}
	var out []Type
	for _, e := range t.elements {
		out = append(out, e.Flatten()...)
	}
	return out
}

func (t TupleType) String() string {
	if t.leaf {
		return t.ty.String()
	}
	parts := make([]string, len(t.elements))
	for i, e := range t.elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (t TupleType) Equal(o TupleType) bool {
	if t.leaf != o.leaf {
		return false
	}
	if t.leaf {
		return t.ty == o.ty
	}
	if len(t.elements) != len(o.elements) {
		return false
	}
	for i := range t.elements {
		if !t.elements[i].Equal(o.elements[i]) {
			return false
		}
	}
	return true
}
