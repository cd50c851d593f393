package parser

import (
	"atomc/lexer"
	"atomc/symbols"
	"atomc/vm"
)

// stm parses one statement alternative of spec §4.4's grammar. LACC starts a
// nested compound statement that pushes its own block domain; every other
// alternative is resolved by its leading keyword or, for exprStm, by
// default.
func (p *Parser) stm() error {
	switch {
	case p.check(lexer.LACC):
		return p.stmCompound(true)
	case p.check(lexer.IF):
		return p.ifStm()
	case p.check(lexer.WHILE):
		return p.whileStm()
	case p.check(lexer.RETURN):
		return p.returnStm()
	case p.check(lexer.SEMICOLON):
		p.advance()
		return nil
	default:
		return p.exprStm()
	}
}

// stmCompound parses LACC (varDefStmt|stm)* RACC. pushDomain is false for a
// function body (its locals share the parameter domain already pushed by
// fnDef, per spec §4.4) and true for every nested block.
func (p *Parser) stmCompound(pushDomain bool) error {
	if _, err := p.expect(lexer.LACC, "'{'"); err != nil {
		return err
	}
	if pushDomain {
		p.table.PushBlockDomain()
		defer p.table.DropDomain()
	}
	for !p.check(lexer.RACC) {
		if p.isTypeStart() {
			if err := p.varDeclStmt(); err != nil {
				return err
			}
			continue
		}
		if err := p.stm(); err != nil {
			return err
		}
	}
	_, err := p.expect(lexer.RACC, "'}'")
	return err
}

// ifStm parses IF LPAR expr RPAR stm (ELSE stm)?, emitting the standard
// compare-and-branch shape (spec §4.5's "Control-flow emission contracts"):
//
//	<cond>  JF Lelse
//	<then>  JMP Lend      (omitted if there's no else)
//	Lelse:  <else>
//	Lend:
func (p *Parser) ifStm() error {
	p.advance() // IF
	if _, err := p.expect(lexer.LPAR, "'('"); err != nil {
		return err
	}
	condLine := p.errLine()
	cond, err := p.exprAssign()
	if err != nil {
		return err
	}
	cond = p.addRVal(cond)
	if cond.Type.Base == symbols.TypeStruct || cond.Type.IsArray() {
		return p.semErrAt(condLine, "condition must have a scalar type")
	}
	if _, err := p.expect(lexer.RPAR, "')'"); err != nil {
		return err
	}
	p.coerceCondToInt(cond.Type)
	jf := p.emit(vm.JF)
	if err := p.stm(); err != nil {
		return err
	}
	if p.check(lexer.ELSE) {
		p.advance()
		jmp := p.emit(vm.JMP)
		jf.Target = p.emit(vm.NOP)
		if err := p.stm(); err != nil {
			return err
		}
		jmp.Target = p.emit(vm.NOP)
	} else {
		jf.Target = p.emit(vm.NOP)
	}
	return nil
}

// whileStm parses WHILE LPAR expr RPAR stm:
//
//	Ltest: <cond>  JF Lend
//	       <body>  JMP Ltest
//	Lend:
func (p *Parser) whileStm() error {
	p.advance() // WHILE
	if _, err := p.expect(lexer.LPAR, "'('"); err != nil {
		return err
	}
	test := p.emit(vm.NOP)
	condLine := p.errLine()
	cond, err := p.exprAssign()
	if err != nil {
		return err
	}
	cond = p.addRVal(cond)
	if cond.Type.Base == symbols.TypeStruct || cond.Type.IsArray() {
		return p.semErrAt(condLine, "condition must have a scalar type")
	}
	if _, err := p.expect(lexer.RPAR, "')'"); err != nil {
		return err
	}
	p.coerceCondToInt(cond.Type)
	jf := p.emit(vm.JF)
	if err := p.stm(); err != nil {
		return err
	}
	p.emit(vm.JMP).Target = test
	jf.Target = p.emit(vm.NOP)
	return nil
}

// returnStm parses RETURN expr? SEMICOLON, type-checking against the
// enclosing function's declared return type (spec §4.4's assignability
// rule, reused here since a return is effectively an implicit assignment
// into the caller's result slot) and recording the emitted RET/RET_VOID so
// fnDef can patch its Aggregates list once the whole body is known.
func (p *Parser) returnStm() error {
	tok := p.advance() // RETURN
	retType := p.fn.Type

	if p.check(lexer.SEMICOLON) {
		p.advance()
		if retType.Base != symbols.TypeVoid {
			return p.semErrAt(tok.Line, "a non-void function must return a value")
		}
		ret := p.emit(vm.RET_VOID)
		ret.IntArg = int64(len(p.fn.Params))
		p.fnRets = append(p.fnRets, ret)
		return nil
	}

	if retType.Base == symbols.TypeVoid {
		return p.semErrAt(tok.Line, "a void function cannot return a value")
	}
	exprLine := p.errLine()
	d, err := p.exprAssign()
	if err != nil {
		return err
	}
	d = p.addRVal(d)
	if !assignable(d.Type, retType) {
		return p.semErrAt(exprLine, "returned value's type does not match the function's return type")
	}
	last := vm.LastOf(p.curList())
	p.insertConvIfNeeded(last, d.Type, retType)
	if _, err := p.expect(lexer.SEMICOLON, "';'"); err != nil {
		return err
	}
	ret := p.emit(vm.RET)
	ret.IntArg = int64(len(p.fn.Params))
	p.fnRets = append(p.fnRets, ret)
	return nil
}

// exprStm parses expr? SEMICOLON, dropping whatever value the expression
// left on the stack since no statement context consumes it (spec §4.5).
func (p *Parser) exprStm() error {
	if p.check(lexer.SEMICOLON) {
		p.advance()
		return nil
	}
	d, err := p.exprAssign()
	if err != nil {
		return err
	}
	if _, err := p.expect(lexer.SEMICOLON, "';'"); err != nil {
		return err
	}
	d = p.addRVal(d)
	if d.Type.Base != symbols.TypeVoid {
		p.emit(vm.DROP)
	}
	return nil
}

// coerceCondToInt implements the "convert to INT" step of spec §4.4's
// if/while emission contract ("evaluate cond → convert to INT → JF ..."): a
// double condition is narrowed with CONV_F_I so JF's AsInt() reads the
// converted value instead of reinterpreting the float64's low bits. int and
// char conditions are already int-sized cells and need no conversion.
func (p *Parser) coerceCondToInt(t symbols.Type) {
	if t.Base == symbols.TypeDouble {
		p.emit(vm.CONV_F_I)
	}
}

// assignable implements spec §4.3's assignment compatibility: a struct
// matches only the same struct, an array matches an array of the same
// element type whatever the two lengths, any scalar numeric type converts to
// any other, nothing converts to or from void.
func assignable(src, dst symbols.Type) bool {
	if dst.Base == symbols.TypeVoid {
		return false
	}
	return symbols.ConvTo(src, dst)
}
