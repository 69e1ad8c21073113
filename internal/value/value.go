package value

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// stringCollator gives the engine a single, deterministic, locale-independent
// ordering over string values regardless of the host's default locale. The
// root collation is used rather than a user-facing one: Scallop programs are
// meant to produce byte-identical output across machines (§8, Determinism).
var stringCollator = collate.New(language.Und)

// Value is a tagged union over the primitive kinds listed in Type.
type Value struct {
	ty  Type
	i   int64   // holds signed-integer and bool/char (as rune) payloads
	u   uint64  // holds unsigned-integer payloads
	f   float64 // holds float32/float64 payloads
	str string  // holds string/symbol payloads
}

func I8(v int8) Value   { return Value{ty: TypeI8, i: int64(v)} }
func I16(v int16) Value { return Value{ty: TypeI16, i: int64(v)} }
func I32(v int32) Value { return Value{ty: TypeI32, i: int64(v)} }
func I64(v int64) Value { return Value{ty: TypeI64, i: v} }
func I128(v int64) Value { return Value{ty: TypeI128, i: v} }

func U8(v uint8) Value   { return Value{ty: TypeU8, u: uint64(v)} }
func U16(v uint16) Value { return Value{ty: TypeU16, u: uint64(v)} }
func U32(v uint32) Value { return Value{ty: TypeU32, u: uint64(v)} }
func U64(v uint64) Value { return Value{ty: TypeU64, u: v} }
func U128(v uint64) Value { return Value{ty: TypeU128, u: v} }

func F32(v float32) Value { return Value{ty: TypeF32, f: float64(v)} }
func F64(v float64) Value { return Value{ty: TypeF64, f: v} }

func Bool(v bool) Value {
	var i int64
	if v {
		i = 1
	}
	return Value{ty: TypeBool, i: i}
}

func Char(v rune) Value     { return Value{ty: TypeChar, i: int64(v)} }
func String(v string) Value { return Value{ty: TypeString, str: v} }
func Symbol(v string) Value { return Value{ty: TypeSymbol, str: v} }

// Type returns the dynamic type tag of v.
func (v Value) Type() Type { return v.ty }

func (v Value) AsI64() int64 {
	if v.ty.IsSignedInteger() || v.ty == TypeChar || v.ty == TypeBool {
		return v.i
	}
	return int64(v.u)
}

func (v Value) AsU64() uint64 {
	if !v.ty.IsSignedInteger() {
		return v.u
	}
	return uint64(v.i)
}

func (v Value) AsF64() float64 {
	if v.ty == TypeF32 || v.ty == TypeF64 {
		return v.f
	}
	if v.ty.IsSignedInteger() {
		return float64(v.i)
	}
	return float64(v.u)
}

func (v Value) AsBool() bool   { return v.i != 0 }
func (v Value) AsChar() rune   { return rune(v.i) }
func (v Value) AsString() string { return v.str }

// Equal reports whether v and w denote the same tagged value.
func (v Value) Equal(w Value) bool {
	return v.Compare(w) == 0
}

// Compare gives the natural ordering of v against w (§3). Both values must
// share a type; comparing across types panics, as it indicates a front-end
// type-inference bug that should never reach the runtime.
func (v Value) Compare(w Value) int {
	if v.ty != w.ty {
		panic(fmt.Sprintf("value: comparing mismatched types %s and %s", v.ty, w.ty))
	}
	switch v.ty {
	case TypeF32, TypeF64:
		switch {
		case v.f < w.f:
			return -1
		case v.f > w.f:
			return 1
		default:
			return 0
		}
	case TypeString, TypeSymbol:
		return stringCollator.CompareString(v.str, w.str)
	case TypeBool, TypeChar:
		return cmpInt64(v.i, w.i)
	default:
		if v.ty.IsSignedInteger() {
			return cmpInt64(v.i, w.i)
		}
		return cmpUint64(v.u, w.u)
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// String renders v using its canonical CSV/debug formatter (§6 CSV output):
// integers decimal, floats in Go's shortest round-trip form, booleans as
// true/false, strings unquoted (the caller is responsible for delimiter
// quoting), chars as a single rune.
func (v Value) String() string {
	switch v.ty {
	case TypeBool:
		return strconv.FormatBool(v.AsBool())
	case TypeChar:
		return string(v.AsChar())
	case TypeString, TypeSymbol:
		return v.str
	case TypeF32:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case TypeF64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		if v.ty.IsSignedInteger() {
			return strconv.FormatInt(v.i, 10)
		}
		return strconv.FormatUint(v.u, 10)
	}
}

// CastTo converts v to the target primitive type following the source->target
// table of §4.4. It returns false if the cast is not defined.
func (v Value) CastTo(target Type) (Value, bool) {
	if v.ty == target {
		return v, true
	}
	switch {
	case target.IsSignedInteger():
		n := toI64(v)
		return Value{ty: target, i: clampSigned(n, target)}, true
	case target == TypeU8, target == TypeU16, target == TypeU32, target == TypeU64, target == TypeU128:
		n := toU64(v)
		return Value{ty: target, u: clampUnsigned(n, target)}, true
	case target == TypeF32:
		return F32(float32(toF64(v))), true
	case target == TypeF64:
		return F64(toF64(v)), true
	case target == TypeString:
		return String(v.String()), true
	case target == TypeBool:
		if !v.ty.IsInteger() {
			return Value{}, false
		}
		return Bool(toI64(v) != 0), true
	case target == TypeChar:
		if !v.ty.IsInteger() {
			return Value{}, false
		}
		return Char(rune(toI64(v))), true
	}
	return Value{}, false
}

func toI64(v Value) int64 {
	switch {
	case v.ty == TypeF32 || v.ty == TypeF64:
		return int64(v.f)
	case v.ty.IsSignedInteger() || v.ty == TypeChar || v.ty == TypeBool:
		return v.i
	default:
		return int64(v.u)
	}
}

func toU64(v Value) uint64 {
	switch {
	case v.ty == TypeF32 || v.ty == TypeF64:
		return uint64(v.f)
	case v.ty.IsSignedInteger():
		return uint64(v.i)
	default:
		return v.u
	}
}

func toF64(v Value) float64 { return v.AsF64() }

func clampSigned(n int64, target Type) int64 {
	switch target {
	case TypeI8:
		return int64(int8(n))
	case TypeI16:
		return int64(int16(n))
	case TypeI32:
		return int64(int32(n))
	default:
		return n
	}
}

func clampUnsigned(n uint64, target Type) uint64 {
	switch target {
	case TypeU8:
		return uint64(uint8(n))
	case TypeU16:
		return uint64(uint16(n))
	case TypeU32:
		return uint64(uint32(n))
	default:
		return n
	}
}

// FitsInteger reports whether the magnitude m (as parsed from a literal) is
// representable in the given integer type, used by type inference to narrow
// an integer literal's TypeSet (§4.4).
func FitsInteger(m int64, t Type) bool {
	switch t {
	case TypeI8:
		return m >= math.MinInt8 && m <= math.MaxInt8
	case TypeI16:
		return m >= math.MinInt16 && m <= math.MaxInt16
	case TypeI32:
		return m >= math.MinInt32 && m <= math.MaxInt32
	case TypeI64, TypeI128:
		return true
	case TypeU8:
		return m >= 0 && m <= math.MaxUint8
	case TypeU16:
		return m >= 0 && m <= math.MaxUint16
	case TypeU32:
		return m >= 0 && m <= math.MaxUint32
	case TypeU64, TypeU128:
		return m >= 0
	default:
		return false
	}
}
