package compiler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"atomc/symbols"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Run(src, Options{Stdout: &out})
	return out.String(), err
}

// TestIntegerLoop is end-to-end scenario 1: a while loop calling put_i.
func TestIntegerLoop(t *testing.T) {
	src := `
void f(int n) { int i; i=0; while(i<n) { put_i(i); i=i+1; } }
void main() { f(3); }
`
	out, err := run(t, src)
	require.NoError(t, err)
	require.Equal(t, "=> 0=> 1=> 2", out)
}

// TestDoubleArithmetic is end-to-end scenario 2: int/double promotion
// inserts CONV_I_F before the ADD_F, and put_d formats with six decimals.
func TestDoubleArithmetic(t *testing.T) {
	src := `void main() { double x; x = 1.5 + 2; put_d(x); }`
	out, err := run(t, src)
	require.NoError(t, err)
	require.Equal(t, "=> 3.500000", out)
}

// TestIfElse is end-to-end scenario 3.
func TestIfElse(t *testing.T) {
	src := `void main() { int x; x = 10; if(x<5) put_i(1); else put_i(2); }`
	out, err := run(t, src)
	require.NoError(t, err)
	require.Equal(t, "=> 2", out)
}

// TestStructMember is end-to-end scenario 4: field access through a
// struct-typed local, laid out with no padding (typeSize(P) = 8).
func TestStructMember(t *testing.T) {
	src := `
struct P { int x; int y; };
void main() { struct P p; p.x = 7; put_i(p.x); }
`
	res, err := Compile(src, Options{Stdout: &bytes.Buffer{}})
	require.NoError(t, err)
	p := res.Table.Find("P")
	require.NotNil(t, p)
	pType := symbols.Type{Base: symbols.TypeStruct, StructSym: p, ArrayLen: symbols.ScalarArrayLen}
	require.EqualValues(t, 8, symbols.TypeSize(pType))

	out, err := run(t, src)
	require.NoError(t, err)
	require.Equal(t, "=> 7", out)
}

// TestShadowing is end-to-end scenario 5: a function-local `v` shadows the
// global `v` for the duration of main, without disturbing the global's
// own storage.
func TestShadowing(t *testing.T) {
	src := `
int v;
void main() { int v; v = 1; put_i(v); }
`
	out, err := run(t, src)
	require.NoError(t, err)
	require.Equal(t, "=> 1", out)
}

// TestUndefinedSymbol is end-to-end scenario 6.
func TestUndefinedSymbol(t *testing.T) {
	src := `void main() { put_i(missing); }`
	_, err := run(t, src)
	require.Error(t, err)
	require.Equal(t, "error in line 1: undefined id: missing", err.Error())
}

func TestEmptyInputHasNoMain(t *testing.T) {
	_, err := Compile("", Options{})
	require.Error(t, err)
}

func TestSynthesizedEntryCallsMainWithNoArgs(t *testing.T) {
	res, err := Compile("void main() {}", Options{Stdout: &bytes.Buffer{}})
	require.NoError(t, err)
	require.NotNil(t, res.Entry)
	require.NoError(t, res.Machine.Run(res.Entry))
	require.Zero(t, res.Machine.SP, "frame discipline: SP returns to the pre-call SP of the synthesized entry")
}
