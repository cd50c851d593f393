package symbols

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func scalarInt() Type    { return Type{Base: TypeInt, ArrayLen: ScalarArrayLen} }
func scalarDouble() Type { return Type{Base: TypeDouble, ArrayLen: ScalarArrayLen} }
func scalarChar() Type   { return Type{Base: TypeChar, ArrayLen: ScalarArrayLen} }
func scalarVoid() Type   { return Type{Base: TypeVoid, ArrayLen: ScalarArrayLen} }

func TestArithTypeToIdempotent(t *testing.T) {
	for _, ty := range []Type{scalarInt(), scalarDouble(), scalarChar()} {
		got, ok := ArithTypeTo(ty, ty)
		require.True(t, ok)
		require.Equal(t, ty.Base, got.Base)
	}
}

func TestArithTypeToPromotionLattice(t *testing.T) {
	got, ok := ArithTypeTo(scalarInt(), scalarDouble())
	require.True(t, ok)
	require.Equal(t, TypeDouble, got.Base)

	got, ok = ArithTypeTo(scalarChar(), scalarInt())
	require.True(t, ok)
	require.Equal(t, TypeInt, got.Base)

	got, ok = ArithTypeTo(scalarChar(), scalarDouble())
	require.True(t, ok)
	require.Equal(t, TypeDouble, got.Base)
}

func TestArithTypeToRejectsNonScalar(t *testing.T) {
	_, ok := ArithTypeTo(scalarVoid(), scalarInt())
	require.False(t, ok)

	arr := scalarInt()
	arr.ArrayLen = 4
	_, ok = ArithTypeTo(arr, scalarInt())
	require.False(t, ok)

	strct := Type{Base: TypeStruct, ArrayLen: ScalarArrayLen, StructSym: &Symbol{Name: "P", Kind: KindStruct}}
	_, ok = ArithTypeTo(strct, scalarInt())
	require.False(t, ok)
}

func TestConvToIdempotent(t *testing.T) {
	for _, ty := range []Type{scalarInt(), scalarDouble(), scalarChar()} {
		require.True(t, ConvTo(ty, ty))
	}
}

func TestConvToScalarNumericBothDirections(t *testing.T) {
	require.True(t, ConvTo(scalarInt(), scalarDouble()))
	require.True(t, ConvTo(scalarDouble(), scalarInt()))
	require.True(t, ConvTo(scalarChar(), scalarInt()))
}

func TestConvToRejectsScalarArrayMismatch(t *testing.T) {
	arr := scalarInt()
	arr.ArrayLen = 3
	require.False(t, ConvTo(arr, scalarInt()))
	require.False(t, ConvTo(scalarInt(), arr))
}

func TestConvToArraysRequireSameElementType(t *testing.T) {
	arrInt := scalarInt()
	arrInt.ArrayLen = 3
	arrDouble := scalarDouble()
	arrDouble.ArrayLen = 3
	require.False(t, ConvTo(arrInt, arrDouble))

	arrInt2 := scalarInt()
	arrInt2.ArrayLen = 5
	require.True(t, ConvTo(arrInt, arrInt2))
}

func TestConvToStructRequiresIdenticalSymbol(t *testing.T) {
	p := &Symbol{Name: "P", Kind: KindStruct}
	q := &Symbol{Name: "Q", Kind: KindStruct}
	tp := Type{Base: TypeStruct, ArrayLen: ScalarArrayLen, StructSym: p}
	tp2 := Type{Base: TypeStruct, ArrayLen: ScalarArrayLen, StructSym: p}
	tq := Type{Base: TypeStruct, ArrayLen: ScalarArrayLen, StructSym: q}
	require.True(t, ConvTo(tp, tp2))
	require.False(t, ConvTo(tp, tq))
}

func TestConvToNeverAllowsVoid(t *testing.T) {
	require.False(t, ConvTo(scalarVoid(), scalarInt()))
	require.False(t, ConvTo(scalarInt(), scalarVoid()))
}

func TestCanBeScalar(t *testing.T) {
	require.True(t, scalarInt().CanBeScalar())
	require.False(t, scalarVoid().CanBeScalar())

	arr := scalarInt()
	arr.ArrayLen = 2
	require.False(t, arr.CanBeScalar())

	strct := Type{Base: TypeStruct, ArrayLen: ScalarArrayLen, StructSym: &Symbol{Name: "P", Kind: KindStruct}}
	require.False(t, strct.CanBeScalar())
}

func TestTypeSizeScalars(t *testing.T) {
	require.EqualValues(t, 4, TypeSize(scalarInt()))
	require.EqualValues(t, 8, TypeSize(scalarDouble()))
	require.EqualValues(t, 1, TypeSize(scalarChar()))
	require.EqualValues(t, 0, TypeSize(scalarVoid()))
}

func TestTypeSizeArray(t *testing.T) {
	arr := scalarInt()
	arr.ArrayLen = 10
	require.EqualValues(t, 40, TypeSize(arr))
}

func TestTypeSizeStructSumsMembersNoPadding(t *testing.T) {
	p := &Symbol{Name: "P", Kind: KindStruct}
	p.Members = []*Symbol{
		{Name: "x", Kind: KindVar, Type: scalarInt(), Owner: p},
		{Name: "y", Kind: KindVar, Type: scalarInt(), Owner: p},
		{Name: "tag", Kind: KindVar, Type: scalarChar(), Owner: p},
	}
	st := Type{Base: TypeStruct, ArrayLen: ScalarArrayLen, StructSym: p}
	require.EqualValues(t, 9, TypeSize(st))
}
