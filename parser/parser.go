// Package parser is AtomC's combined recursive-descent parser, semantic
// analyzer, and code emitter (spec §4.4). The three are inseparable: every
// grammar production that accepts also type-checks and emits instructions as
// a side effect, and productions that try more than one alternative take a
// Guard so a failed alternative can roll back both the token cursor and the
// tail of whichever function's instruction list it had started emitting
// into.
package parser

import (
	"atomc/diag"
	"atomc/lexer"
	"atomc/memory"
	"atomc/symbols"
	"atomc/vm"
)

// Parser threads the state the source kept as module globals (spec §9
// "Process-wide state") through an explicit value instead: the token
// cursor, the domain stack, the function currently being defined (nil at
// top level), and the struct currently being defined (nil outside a
// structDef).
type Parser struct {
	toks []lexer.Token
	pos  int

	table *symbols.Table
	store *memory.Store

	fn      *symbols.Symbol // enclosing FN while parsing its body; nil at top level
	fnRets  []*vm.Instruction // RET/RET_VOID instructions emitted so far in fn's body
	strct   *symbols.Symbol // enclosing STRUCT while collecting its members
	strctOff uint
}

// Parse runs the parser/analyzer/emitter over tokens, returning the
// populated symbol table (spec §3's "Domain") or the first fatal diagnostic.
// store backs every global variable's storage (spec §3 VAR: "given a
// freshly allocated backing block") and is shared with the VM that later
// executes the emitted code.
func Parse(tokens []lexer.Token, store *memory.Store) (*symbols.Table, error) {
	p := &Parser{toks: tokens, table: symbols.NewTable(), store: store}
	p.registerExternals()
	for !p.check(lexer.END) {
		if err := p.topLevelDecl(); err != nil {
			return nil, err
		}
	}
	return p.table, nil
}

// registerExternals installs put_i/put_d into the global domain (spec §6):
// the closed set of host-provided functions reachable only via CALL_EXT.
func (p *Parser) registerExternals() {
	def := func(name string, paramType symbols.Type, impl *vm.ExternalFunction) {
		sym := &symbols.Symbol{
			Name: name, Kind: symbols.KindFn,
			Type:        symbols.Type{Base: symbols.TypeVoid, ArrayLen: symbols.ScalarArrayLen},
			IsExternal:  true,
			ExternalPtr: impl,
		}
		param := &symbols.Symbol{Name: "v", Kind: symbols.KindParam, Type: paramType, Owner: sym, ParamIndex: 0}
		sym.Params = []*symbols.Symbol{param}
		_ = p.table.AddToDomain(sym)
	}
	def("put_i", intType(), vm.PutI)
	def("put_d", doubleType(), vm.PutD)
}

// --- token cursor -----------------------------------------------------

func (p *Parser) cur() lexer.Token { return p.toks[p.pos] }

func (p *Parser) check(k lexer.Kind) bool { return p.toks[p.pos].Kind == k }

func (p *Parser) peekKind(n int) lexer.Kind {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return lexer.END
	}
	return p.toks[idx].Kind
}

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k lexer.Kind, label string) (lexer.Token, error) {
	if !p.check(k) {
		return lexer.Token{}, p.synErr("expected " + label)
	}
	return p.advance(), nil
}

// errLine is the line used by a diagnostic raised right here: spec §7 says
// "line taken from the most recently consumed token", falling back to the
// current token when nothing has been consumed yet.
func (p *Parser) errLine() uint {
	if p.pos > 0 {
		return p.toks[p.pos-1].Line
	}
	return p.toks[p.pos].Line
}

func (p *Parser) synErr(msg string) error {
	return &diag.SyntaxError{Line: p.errLine(), Msg: msg}
}

func (p *Parser) semErr(msg string) error {
	return &diag.SemanticError{Line: p.errLine(), Msg: msg}
}

func (p *Parser) semErrAt(line uint, msg string) error {
	return &diag.SemanticError{Line: line, Msg: msg}
}

func (p *Parser) isTypeStart() bool { return isTypeKind(p.cur().Kind) }

func (p *Parser) isTypeStartAt(n int) bool { return isTypeKind(p.peekKind(n)) }

func isTypeKind(k lexer.Kind) bool {
	switch k {
	case lexer.TYPE_INT, lexer.TYPE_DOUBLE, lexer.TYPE_CHAR, lexer.STRUCT:
		return true
	}
	return false
}

// --- instruction emission & Guard --------------------------------------

// curList returns the instruction list code is currently emitted into: the
// body of whichever function is being parsed. Emission never happens outside
// a function (the grammar has no executable global-scope statements), so
// this is nil only when no production should be calling emit.
func (p *Parser) curList() *vm.List {
	if p.fn == nil {
		return nil
	}
	return p.fn.Code
}

func (p *Parser) emit(op vm.Opcode) *vm.Instruction {
	instr := vm.NewInstr(op)
	p.curList().Append(instr)
	return instr
}

// guard is the backtracking checkpoint of spec §3: a saved token cursor plus
// the saved tail of whatever instruction list is currently being emitted
// into. Only exprAssign's "exprUnary ASSIGN exprAssign | exprOr" alternative
// needs one in this grammar — every other tentative choice is resolvable by
// one-token lookahead because the grammar's FIRST sets don't overlap there.
type guard struct {
	pos  int
	list *vm.List
	tail *vm.Instruction
}

func (p *Parser) takeGuard() guard {
	return guard{pos: p.pos, list: p.curList(), tail: vm.LastOf(p.curList())}
}

// restore rewinds the token cursor and truncates the instruction list back
// to the saved tail, discarding every instruction emitted since the guard
// was taken (spec §3's Guard semantics).
func (p *Parser) restore(g guard) {
	p.pos = g.pos
	if g.list != nil {
		g.list.TruncateAfter(g.tail)
	}
}

// insertConvIfNeeded emits a scalar conversion immediately after `after`
// when src and dst differ (spec §4.3). int<->char never needs one (both are
// represented as the same 32-bit cell); double<->int does.
func (p *Parser) insertConvIfNeeded(after *vm.Instruction, src, dst symbols.Type) {
	if src.Base == dst.Base || src.IsArray() || dst.IsArray() {
		return
	}
	if src.Base == symbols.TypeStruct || dst.Base == symbols.TypeStruct {
		return
	}
	var conv *vm.Instruction
	switch {
	case dst.Base == symbols.TypeDouble:
		conv = vm.NewInstr(vm.CONV_I_F)
	case src.Base == symbols.TypeDouble:
		conv = vm.NewInstr(vm.CONV_F_I)
	default:
		return
	}
	p.curList().InsertAfter(after, conv)
}

// addRVal loads the value an lvalue derivation addresses (spec §4.4's
// addRVal(lval, type) helper), encoding the char-width case so a struct
// char field or global char variable reads one byte instead of four.
func (p *Parser) addRVal(d Derivation) Derivation {
	if !d.IsLValue {
		return d
	}
	if d.Type.Base == symbols.TypeDouble {
		p.emit(vm.LOAD_F)
	} else {
		instr := p.emit(vm.LOAD_I)
		if d.Type.Base == symbols.TypeChar {
			instr.Width = symbols.SizeChar
		}
	}
	d.IsLValue = false
	return d
}

func intType() symbols.Type    { return symbols.Type{Base: symbols.TypeInt, ArrayLen: symbols.ScalarArrayLen} }
func doubleType() symbols.Type { return symbols.Type{Base: symbols.TypeDouble, ArrayLen: symbols.ScalarArrayLen} }
func charType() symbols.Type   { return symbols.Type{Base: symbols.TypeChar, ArrayLen: symbols.ScalarArrayLen} }
