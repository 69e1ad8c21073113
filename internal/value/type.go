// Package value implements the primitive Value model and the Tuple/TupleType
// shapes built from it.
package value

// Type identifies a primitive value kind.
type Type int

const (
	TypeInvalid Type = iota
	TypeI8
	TypeI16
	TypeI32
	TypeI64
	TypeI128
	TypeU8
	TypeU16
	TypeU32
	TypeU64
	TypeU128
	TypeF32
	TypeF64
	TypeBool
	TypeChar
	TypeString
	TypeSymbol // symbolic id, interned string compared by identity of name
)

func (t Type) String() string {
	switch t {
	case TypeI8:
		return "i8"
	case TypeI16:
		return "i16"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeI128:
		return "i128"
	case TypeU8:
		return "u8"
	case TypeU16:
		return "u16"
	case TypeU32:
		return "u32"
	case TypeU64:
		return "u64"
	case TypeU128:
		return "u128"
	case TypeF32:
		return "f32"
	case TypeF64:
		return "f64"
	case TypeBool:
		return "bool"
	case TypeChar:
		return "char"
	case TypeString:
		return "String"
	case TypeSymbol:
		return "Symbol"
	default:
		return "<invalid>"
	}
}

// IsInteger reports whether t is a signed or unsigned integer width.
func (t Type) IsInteger() bool {
	switch t {
	case TypeI8, TypeI16, TypeI32, TypeI64, TypeI128,
		TypeU8, TypeU16, TypeU32, TypeU64, TypeU128:
		return true
	}
	return false
}

// IsSignedInteger reports whether t is a signed integer width.
func (t Type) IsSignedInteger() bool {
	switch t {
	case TypeI8, TypeI16, TypeI32, TypeI64, TypeI128:
		return true
	}
	return false
}

// IsFloat reports whether t is a floating point width.
func (t Type) IsFloat() bool {
	return t == TypeF32 || t == TypeF64
}

// IsNumeric reports whether t is an integer or float type.
func (t Type) IsNumeric() bool {
	return t.IsInteger() || t.IsFloat()
}

// AllIntegerTypes is the full set of integer primitive types, used as the
// starting TypeSet for an unsuffixed integer literal during type inference.
var AllIntegerTypes = []Type{
	TypeI8, TypeI16, TypeI32, TypeI64, TypeI128,
	TypeU8, TypeU16, TypeU32, TypeU64, TypeU128,
}

// AllFloatTypes is the starting TypeSet for an unsuffixed float literal.
var AllFloatTypes = []Type{TypeF32, TypeF64}

// DefaultInteger is the type chosen for an integer TypeSet still ambiguous
// after unification (§4.4).
const DefaultInteger = TypeI32

// DefaultFloat is the type chosen for a float TypeSet still ambiguous after
// unification.
const DefaultFloat = TypeF64
