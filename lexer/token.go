package lexer

import "fmt"

// Kind is the closed set of lexical classes AtomC recognizes.
type Kind int

const (
	ILLEGAL Kind = iota

	ID
	TYPE_CHAR
	TYPE_DOUBLE
	ELSE
	IF
	TYPE_INT
	RETURN
	STRUCT
	VOID
	WHILE

	SEMICOLON
	LPAR
	RPAR
	LBRACKET
	RBRACKET
	LACC
	RACC
	COMMA

	END

	ADD
	SUB
	MUL
	DIV
	DOT
	AND
	OR
	NOT
	ASSIGN
	EQUAL
	NOTEQ
	LESS
	LESSEQ
	GREATER
	GREATEREQ

	INT
	DOUBLE
	CHAR
	STRING
)

var names = map[Kind]string{
	ILLEGAL: "ILLEGAL", ID: "ID", TYPE_CHAR: "TYPE_CHAR", TYPE_DOUBLE: "TYPE_DOUBLE",
	ELSE: "ELSE", IF: "IF", TYPE_INT: "TYPE_INT", RETURN: "RETURN", STRUCT: "STRUCT",
	VOID: "VOID", WHILE: "WHILE", SEMICOLON: "SEMICOLON", LPAR: "LPAR", RPAR: "RPAR",
	LBRACKET: "LBRACKET", RBRACKET: "RBRACKET", LACC: "LACC", RACC: "RACC", COMMA: "COMMA",
	END: "END", ADD: "ADD", SUB: "SUB", MUL: "MUL", DIV: "DIV", DOT: "DOT", AND: "AND",
	OR: "OR", NOT: "NOT", ASSIGN: "ASSIGN", EQUAL: "EQUAL", NOTEQ: "NOTEQ", LESS: "LESS",
	LESSEQ: "LESSEQ", GREATER: "GREATER", GREATEREQ: "GREATEREQ", INT: "INT",
	DOUBLE: "DOUBLE", CHAR: "CHAR", STRING: "STRING",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", k)
}

var keywords = map[string]Kind{
	"char":   TYPE_CHAR,
	"double": TYPE_DOUBLE,
	"else":   ELSE,
	"if":     IF,
	"int":    TYPE_INT,
	"return": RETURN,
	"struct": STRUCT,
	"void":   VOID,
	"while":  WHILE,
}

// Token is one lexical unit. Payload is whichever of IntVal/DoubleVal/CharVal
// carries meaning for Kind; Literal carries an identifier or string payload.
type Token struct {
	Kind      Kind
	Line      uint
	Literal   string
	IntVal    int64
	DoubleVal float64
	CharVal   byte
}

func (t Token) String() string {
	switch t.Kind {
	case INT:
		return fmt.Sprintf("{%v %d L%d}", t.Kind, t.IntVal, t.Line)
	case DOUBLE:
		return fmt.Sprintf("{%v %g L%d}", t.Kind, t.DoubleVal, t.Line)
	case CHAR:
		return fmt.Sprintf("{%v %q L%d}", t.Kind, t.CharVal, t.Line)
	case ID, STRING:
		return fmt.Sprintf("{%v %q L%d}", t.Kind, t.Literal, t.Line)
	default:
		return fmt.Sprintf("{%v L%d}", t.Kind, t.Line)
	}
}
