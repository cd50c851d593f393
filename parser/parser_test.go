package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"atomc/lexer"
	"atomc/memory"
	"atomc/symbols"
	"atomc/vm"
)

func parse(t *testing.T, src string) (*symbols.Table, error) {
	t.Helper()
	toks, err := lexer.Lex(src)
	require.NoError(t, err)
	return Parse(toks, memory.NewStore())
}

func mustParse(t *testing.T, src string) *symbols.Table {
	t.Helper()
	table, err := parse(t, src)
	require.NoError(t, err)
	return table
}

// countInstrs walks a function's instruction list and returns its length.
func countInstrs(head *vm.Instruction) int {
	n := 0
	for i := head; i != nil; i = i.Next {
		n++
	}
	return n
}

func opcodes(head *vm.Instruction) []vm.Opcode {
	var ops []vm.Opcode
	for i := head; i != nil; i = i.Next {
		ops = append(ops, i.Op)
	}
	return ops
}

func TestParserDeterminism(t *testing.T) {
	src := `
int g;
int add(int a, int b) {
	return a + b;
}
void main() {
	g = add(1, 2);
}
`
	table1 := mustParse(t, src)
	table2 := mustParse(t, src)

	add1 := table1.Find("add")
	add2 := table2.Find("add")
	require.NotNil(t, add1)
	require.NotNil(t, add2)
	require.Equal(t, opcodes(add1.FirstInstr), opcodes(add2.FirstInstr),
		"re-parsing identical source must emit an identical opcode sequence")
}

// TestGuardCompletenessOnOrFallback exercises exprAssign's
// only backtracking production: exprUnary ASSIGN exprAssign is tried first
// and, when it fails past the unary prefix (e.g. the left side parses as a
// unary expression but is not followed by '='), the parser must fall back
// to exprOr having emitted nothing extra — the instruction list right
// after the fallback parse must be indistinguishable from one that never
// attempted the assignment alternative.
func TestGuardCompletenessOnOrFallback(t *testing.T) {
	// "1 + 2;" can never satisfy exprUnary ASSIGN ..., so the assignment
	// guard is taken and restored before falling through to exprOr/exprAdd.
	withGuardAttempt := mustParse(t, `
void main() {
	1 + 2;
}
`)
	// The body emitted by the exprOr alternative alone, with nothing left
	// over from the abandoned assignment attempt.
	neverAttempted := []vm.Opcode{vm.ENTER, vm.PUSH_I, vm.PUSH_I, vm.ADD_I, vm.DROP, vm.RET_VOID}
	m1 := withGuardAttempt.Find("main")
	require.Equal(t, neverAttempted, opcodes(m1.FirstInstr))
	// The statement is a bare expression: its value must be dropped.
	require.Contains(t, opcodes(m1.FirstInstr), vm.DROP)
}

func TestUndefinedIdentifierIsSemanticError(t *testing.T) {
	_, err := parse(t, `
void main() {
	missing = 1;
}
`)
	require.Error(t, err)
	require.Equal(t, "error in line 3: undefined id: missing", err.Error())
}

func TestRedefinitionInSameDomainIsSemanticError(t *testing.T) {
	_, err := parse(t, `
int x;
int x;
void main() {}
`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "redefinition")
}

func TestCallArityMismatchIsSemanticError(t *testing.T) {
	_, err := parse(t, `
int f(int a) { return a; }
void main() {
	f(1, 2);
}
`)
	require.Error(t, err)
}

func TestCallArgTypeMismatchIsSemanticError(t *testing.T) {
	_, err := parse(t, `
struct P { int x; };
void f(struct P p) {}
void main() {
	int n;
	f(n);
}
`)
	require.Error(t, err)
}

func TestNakedFunctionNameCannotBeUsedAsExpression(t *testing.T) {
	_, err := parse(t, `
int f() { return 1; }
void main() {
	int x;
	x = f;
}
`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "a function can only be called")
}

func TestUndefinedStructIsSemanticError(t *testing.T) {
	_, err := parse(t, `
void main() {
	struct Missing v;
}
`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined structure")
}

func TestUnknownLengthArrayRejectedOutsideParam(t *testing.T) {
	_, err := parse(t, `
int v[];
void main() {}
`)
	require.Error(t, err)
}

func TestArrayIndexingEmitsIdxOpcode(t *testing.T) {
	table := mustParse(t, `
void main() {
	int v[5];
	v[0] = 1;
}
`)
	m := table.Find("main")
	require.NotNil(t, m)
	require.Contains(t, opcodes(m.FirstInstr), vm.IDX)
}

func TestStructMemberAccessEmitsFieldOpcode(t *testing.T) {
	table := mustParse(t, `
struct P { int x; int y; };
void main() {
	struct P p;
	p.x = 1;
}
`)
	m := table.Find("main")
	require.NotNil(t, m)
	require.Contains(t, opcodes(m.FirstInstr), vm.FIELD)
}

func TestArithmeticPromotionInsertsConversion(t *testing.T) {
	table := mustParse(t, `
void main() {
	double d;
	d = 1 + 2.5;
}
`)
	m := table.Find("main")
	require.NotNil(t, m)
	require.Contains(t, opcodes(m.FirstInstr), vm.CONV_I_F)
}

func TestRelationalOperatorsEmitDistinctOpcodes(t *testing.T) {
	table := mustParse(t, `
void main() {
	int a;
	int b;
	int r;
	r = a <= b;
	r = a >= b;
	r = a > b;
	r = a < b;
}
`)
	m := table.Find("main")
	require.NotNil(t, m)
	ops := opcodes(m.FirstInstr)
	require.Contains(t, ops, vm.LESSEQ_I)
	require.Contains(t, ops, vm.GREATEREQ_I)
	require.Contains(t, ops, vm.GREATER_I)
	require.Contains(t, ops, vm.LESS_I)
}

func TestFunctionBodySharesParamDomainWithLocals(t *testing.T) {
	table := mustParse(t, `
int f(int a) {
	int a2;
	return a + a2;
}
void main() {}
`)
	f := table.Find("f")
	require.NotNil(t, f)
	require.Len(t, f.Params, 1)
	require.Len(t, f.Locals, 1)
}

func TestShadowingLocalHidesGlobalDuringEmission(t *testing.T) {
	table := mustParse(t, `
int v;
void main() {
	int v;
	v = 1;
}
`)
	global := table.Find("v")
	require.NotNil(t, global)
	require.True(t, global.IsGlobal())
	m := table.Find("main")
	require.NotEmpty(t, m.Locals)
	require.False(t, m.Locals[0].IsGlobal())
}

func TestEveryFunctionEndsWithReturn(t *testing.T) {
	table := mustParse(t, `
void f() {
}
void main() {}
`)
	f := table.Find("f")
	require.NotNil(t, f)
	ops := opcodes(f.FirstInstr)
	require.Equal(t, vm.RET_VOID, ops[len(ops)-1])
}

func TestInstructionCountIsStableAcrossReparse(t *testing.T) {
	src := `
int fib(int n) {
	if (n <= 1) {
		return n;
	}
	return fib(n - 1) + fib(n - 2);
}
void main() {
	int r;
	r = fib(5);
}
`
	a := mustParse(t, src).Find("fib")
	b := mustParse(t, src).Find("fib")
	require.Equal(t, countInstrs(a.FirstInstr), countInstrs(b.FirstInstr))
}
