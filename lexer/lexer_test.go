package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeywordsMapExactly(t *testing.T) {
	cases := []struct {
		src  string
		kind Kind
	}{
		{"char", TYPE_CHAR}, {"double", TYPE_DOUBLE}, {"else", ELSE},
		{"if", IF}, {"int", TYPE_INT}, {"return", RETURN},
		{"struct", STRUCT}, {"void", VOID}, {"while", WHILE},
	}
	for _, tc := range cases {
		toks, err := Lex(tc.src)
		require.NoError(t, err)
		require.Equal(t, tc.kind, toks[0].Kind, "keyword %q", tc.src)
	}

	toks, err := Lex("charlie")
	require.NoError(t, err)
	require.Equal(t, ID, toks[0].Kind, "identifier with a keyword prefix must lex as ID")
}

func TestPunctuatorsMapUniquely(t *testing.T) {
	src := "; ( ) [ ] { } , + - * / . == != <= >= && ||"
	toks, err := Lex(src)
	require.NoError(t, err)
	want := []Kind{
		SEMICOLON, LPAR, RPAR, LBRACKET, RBRACKET, LACC, RACC, COMMA,
		ADD, SUB, MUL, DIV, DOT, EQUAL, NOTEQ, LESSEQ, GREATEREQ, AND, OR, END,
	}
	require.Len(t, toks, len(want))
	for i, k := range want {
		require.Equal(t, k, toks[i].Kind, "token %d", i)
	}
}

func TestSingleCharVsTwoCharOperators(t *testing.T) {
	toks, err := Lex("< <= = == ! !=")
	require.NoError(t, err)
	want := []Kind{LESS, LESSEQ, ASSIGN, EQUAL, NOT, NOTEQ, END}
	for i, k := range want {
		require.Equal(t, k, toks[i].Kind)
	}
}

func TestIntVsDoubleDisambiguation(t *testing.T) {
	toks, err := Lex("42 3.14 5. 2e3 7e 9")
	require.NoError(t, err)
	require.Len(t, toks, 8)
	require.Equal(t, INT, toks[0].Kind)
	require.Equal(t, int64(42), toks[0].IntVal)
	require.Equal(t, DOUBLE, toks[1].Kind)
	require.InDelta(t, 3.14, toks[1].DoubleVal, 1e-9)
	// "5." without a following digit: a double parser still consumes the
	// '.', so this lexes as the single DOUBLE 5.0.
	require.Equal(t, DOUBLE, toks[2].Kind)
	require.InDelta(t, 5.0, toks[2].DoubleVal, 1e-9)
	require.Equal(t, DOUBLE, toks[3].Kind)
	require.InDelta(t, 2000.0, toks[3].DoubleVal, 1e-9)
	// "7e" has no exponent digits, so the trailing 'e' is not consumed and
	// lexes as a separate identifier.
	require.Equal(t, INT, toks[4].Kind)
	require.Equal(t, int64(7), toks[4].IntVal)
	require.Equal(t, ID, toks[5].Kind)
	require.Equal(t, "e", toks[5].Literal)
	require.Equal(t, INT, toks[6].Kind)
	require.Equal(t, int64(9), toks[6].IntVal)
}

func TestCharAndStringLiterals(t *testing.T) {
	toks, err := Lex(`'a' "hello"`)
	require.NoError(t, err)
	require.Equal(t, CHAR, toks[0].Kind)
	require.Equal(t, byte('a'), toks[0].CharVal)
	require.Equal(t, STRING, toks[1].Kind)
	require.Equal(t, "hello", toks[1].Literal)
}

func TestLineCommentsAndLineCounting(t *testing.T) {
	toks, err := Lex("int x; // a comment\nint y;")
	require.NoError(t, err)
	require.Equal(t, uint(1), toks[0].Line)
	var secondLine uint
	for _, tok := range toks {
		if tok.Kind == TYPE_INT && tok.Line == 2 {
			secondLine = tok.Line
		}
	}
	require.Equal(t, uint(2), secondLine)
}

func TestTokenStreamTerminatesWithEnd(t *testing.T) {
	toks, err := Lex("int x;")
	require.NoError(t, err)
	require.Equal(t, END, toks[len(toks)-1].Kind)
}

func TestInvalidCharIsFatal(t *testing.T) {
	_, err := Lex("int x = @;")
	require.Error(t, err)
	require.Equal(t, "[ERROR] Invalid char: @ (64)", err.Error())
}

func TestAmpersandRequiresPair(t *testing.T) {
	_, err := Lex("a & b")
	require.Error(t, err)
}

func TestTokenRoundTripOnValidInput(t *testing.T) {
	src := `
struct Point { int x; int y; }
int g;
void main() {
	struct Point p;
	p.x = 1;
	while (p.x < 10) { p.x = p.x + 1; }
}
`
	_, err := Lex(src)
	require.NoError(t, err, "every valid input must lex without error")
}
