// Package symbols implements AtomC's type representation, arithmetic-type
// promotion, convertibility rules, and the nested-scope symbol table
// ("domains").
package symbols

import "fmt"

// Base is the scalar/struct/void base of a Type.
type Base int

const (
	TypeInt Base = iota
	TypeDouble
	TypeChar
	TypeVoid
	TypeStruct
)

func (b Base) String() string {
	switch b {
	case TypeInt:
		return "int"
	case TypeDouble:
		return "double"
	case TypeChar:
		return "char"
	case TypeVoid:
		return "void"
	case TypeStruct:
		return "struct"
	default:
		return fmt.Sprintf("Base(%d)", b)
	}
}

// ScalarArrayLen marks a non-array (scalar) type.
const ScalarArrayLen = -1

// UnknownArrayLen marks a fixed-element-type array whose length is left
// unspecified; legal only as a function parameter.
const UnknownArrayLen = 0

// Type is AtomC's type representation. StructSym is non-nil only when
// Base == TypeStruct; it is a non-owning reference to the struct's defining
// Symbol, never a by-value copy, to break the cycle between a struct's
// Type and the Symbol that Type itself points back to.
type Type struct {
	Base      Base
	StructSym *Symbol
	ArrayLen  int
}

// IsArray reports whether t denotes an array (fixed or unknown length).
func (t Type) IsArray() bool { return t.ArrayLen >= 0 }

// CanBeScalar reports whether a derivation of this type may appear where a
// scalar value is required: not an array, not void, not a struct.
func (t Type) CanBeScalar() bool {
	return !t.IsArray() && t.Base != TypeVoid && t.Base != TypeStruct
}

func (t Type) String() string {
	name := t.Base.String()
	if t.Base == TypeStruct && t.StructSym != nil {
		name = "struct " + t.StructSym.Name
	}
	switch {
	case t.ArrayLen == ScalarArrayLen:
		return name
	case t.ArrayLen == UnknownArrayLen:
		return name + "[]"
	default:
		return fmt.Sprintf("%s[%d]", name, t.ArrayLen)
	}
}

// Scalar base sizes, in bytes.
const (
	SizeInt    = 4
	SizeDouble = 8
	SizeChar   = 1
)

// TypeSize computes t's size in bytes: scalar sizes are fixed, a struct sums
// its members' sizes in declaration order without padding, an array is its
// element size times max(ArrayLen, 1), and void is zero.
func TypeSize(t Type) uint {
	if t.IsArray() {
		elem := t
		elem.ArrayLen = ScalarArrayLen
		n := t.ArrayLen
		if n < 1 {
			n = 1
		}
		return TypeSize(elem) * uint(n)
	}
	switch t.Base {
	case TypeInt:
		return SizeInt
	case TypeDouble:
		return SizeDouble
	case TypeChar:
		return SizeChar
	case TypeVoid:
		return 0
	case TypeStruct:
		var size uint
		if t.StructSym != nil {
			for _, m := range t.StructSym.Members {
				size += TypeSize(m.Type)
			}
		}
		return size
	}
	return 0
}

// rank orders the arithmetic dominance used by both ArithTypeTo and ConvTo:
// DOUBLE dominates INT dominates CHAR.
func rank(b Base) int {
	switch b {
	case TypeChar:
		return 0
	case TypeInt:
		return 1
	case TypeDouble:
		return 2
	default:
		return -1
	}
}

// ArithTypeTo yields the arithmetic result type of combining a and b: the
// higher-ranked of the two scalar numeric types. Both operands must be
// scalar, numeric (not STRUCT, not VOID); ok is false otherwise.
func ArithTypeTo(a, b Type) (Type, bool) {
	if a.IsArray() || b.IsArray() {
		return Type{}, false
	}
	ra, rb := rank(a.Base), rank(b.Base)
	if ra < 0 || rb < 0 {
		return Type{}, false
	}
	if ra >= rb {
		return Type{ArrayLen: ScalarArrayLen, Base: a.Base}, true
	}
	return Type{ArrayLen: ScalarArrayLen, Base: b.Base}, true
}

// ConvTo reports whether a value of type src may convert to dst: both
// scalar numeric (any direction along the dominance ladder), both arrays of
// identical element type, or both the same STRUCT type. No scalar↔array
// conversion and no VOID conversions are ever permitted.
func ConvTo(src, dst Type) bool {
	if src.IsArray() != dst.IsArray() {
		return false
	}
	if src.IsArray() {
		if src.Base != dst.Base {
			return false
		}
		srcElem, dstElem := src, dst
		srcElem.ArrayLen, dstElem.ArrayLen = ScalarArrayLen, ScalarArrayLen
		return ConvTo(srcElem, dstElem)
	}
	if src.Base == TypeStruct || dst.Base == TypeStruct {
		return src.Base == TypeStruct && dst.Base == TypeStruct && src.StructSym == dst.StructSym
	}
	if src.Base == TypeVoid || dst.Base == TypeVoid {
		return false
	}
	return rank(src.Base) >= 0 && rank(dst.Base) >= 0
}
