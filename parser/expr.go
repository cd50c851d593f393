package parser

import (
	"atomc/lexer"
	"atomc/symbols"
	"atomc/vm"
)

// exprAssign parses exprUnary ASSIGN exprAssign | exprOr (spec §4.4). The two
// alternatives share an arbitrarily long overlapping prefix (any lvalue-
// shaped exprOr can start like an exprUnary), so this is the one production
// in the grammar that genuinely needs a Guard: try the assignment shape
// first, and on any failure roll back token cursor and emitted code and
// fall through to a plain exprOr.
func (p *Parser) exprAssign() (Derivation, error) {
	g := p.takeGuard()
	if d, ok, err := p.tryAssign(); err != nil {
		return Derivation{}, err
	} else if ok {
		return d, nil
	}
	p.restore(g)
	return p.exprOr()
}

func (p *Parser) tryAssign() (Derivation, bool, error) {
	lhs, ok, err := p.tryUnary()
	if err != nil || !ok {
		return Derivation{}, false, nil
	}
	if !p.check(lexer.ASSIGN) {
		return Derivation{}, false, nil
	}
	assignLine := p.errLine()
	p.advance()
	if !lhs.IsLValue {
		return Derivation{}, false, p.semErrAt(assignLine, "left side of assignment must be an lvalue")
	}
	if lhs.IsConst {
		return Derivation{}, false, p.semErrAt(assignLine, "cannot assign to a const expression")
	}
	rhs, err := p.exprAssign()
	if err != nil {
		return Derivation{}, false, err
	}
	rhs = p.addRVal(rhs)
	if !assignable(rhs.Type, lhs.Type) {
		return Derivation{}, false, p.semErrAt(assignLine, "incompatible types in assignment")
	}
	last := vm.LastOf(p.curList())
	p.insertConvIfNeeded(last, rhs.Type, lhs.Type)
	instr := p.emit(vm.STORE_I)
	if lhs.Type.Base == symbols.TypeDouble {
		instr.Op = vm.STORE_F
	} else if lhs.Type.Base == symbols.TypeChar {
		instr.Width = symbols.SizeChar
	}
	return Derivation{Type: lhs.Type, IsLValue: false, IsConst: false}, true, nil
}

// tryUnary attempts exprUnary as the left side of an assignment, reporting
// ok=false (without error) on any parse failure so exprAssign's Guard can
// fall back to exprOr instead of surfacing a spurious diagnostic.
func (p *Parser) tryUnary() (Derivation, bool, error) {
	d, err := p.exprUnary()
	if err != nil {
		return Derivation{}, false, nil
	}
	return d, true, nil
}

// binOp is one row of a uniform left-associative binary-operator table
// (exprOr/And/Eq/Rel/Add/Mul all share this shape, spec §4.4).
type binOp struct {
	kind      lexer.Kind
	intOp     vm.Opcode
	floatOp   vm.Opcode
	forceBool bool // result type is always int (relational/equality operators)
}

// parseLeftAssoc implements one left-recursive grammar level: next (...)*
// where each iteration matches one row of ops, promoting both operand types
// via ArithTypeTo and inserting conversions on each tail (spec §4.3) before
// choosing the opcode matching the promoted common type.
func (p *Parser) parseLeftAssoc(next func() (Derivation, error), ops []binOp) (Derivation, error) {
	lhs, err := next()
	if err != nil {
		return Derivation{}, err
	}
	for {
		var matched *binOp
		for i := range ops {
			if p.check(ops[i].kind) {
				matched = &ops[i]
				break
			}
		}
		if matched == nil {
			return lhs, nil
		}
		opLine := p.errLine()
		p.advance()
		lhs = p.addRVal(lhs)
		if lhs.Type.Base == symbols.TypeStruct || lhs.Type.IsArray() {
			return Derivation{}, p.semErrAt(opLine, "operand must have a scalar type")
		}
		lhsTail := vm.LastOf(p.curList())

		rhs, err := next()
		if err != nil {
			return Derivation{}, err
		}
		rhs = p.addRVal(rhs)
		if rhs.Type.Base == symbols.TypeStruct || rhs.Type.IsArray() {
			return Derivation{}, p.semErrAt(opLine, "operand must have a scalar type")
		}

		common, ok := symbols.ArithTypeTo(lhs.Type, rhs.Type)
		if !ok {
			return Derivation{}, p.semErrAt(opLine, "incompatible operand types")
		}
		p.insertConvIfNeeded(lhsTail, lhs.Type, common)
		p.insertConvIfNeeded(vm.LastOf(p.curList()), rhs.Type, common)

		instr := matched.intOp
		if common.Base == symbols.TypeDouble {
			instr = matched.floatOp
		}
		p.emit(instr)

		resultType := common
		if matched.forceBool {
			resultType = intType()
		}
		lhs = Derivation{Type: resultType}
	}
}

func (p *Parser) exprMul() (Derivation, error) {
	return p.parseLeftAssoc(p.exprCast, []binOp{
		{lexer.MUL, vm.MUL_I, vm.MUL_F, false},
		{lexer.DIV, vm.DIV_I, vm.DIV_F, false},
	})
}

func (p *Parser) exprAdd() (Derivation, error) {
	return p.parseLeftAssoc(p.exprMul, []binOp{
		{lexer.ADD, vm.ADD_I, vm.ADD_F, false},
		{lexer.SUB, vm.SUB_I, vm.SUB_F, false},
	})
}

func (p *Parser) exprRel() (Derivation, error) {
	return p.parseLeftAssoc(p.exprAdd, []binOp{
		{lexer.LESS, vm.LESS_I, vm.LESS_F, true},
		{lexer.LESSEQ, vm.LESSEQ_I, vm.LESSEQ_F, true},
		{lexer.GREATER, vm.GREATER_I, vm.GREATER_F, true},
		{lexer.GREATEREQ, vm.GREATEREQ_I, vm.GREATEREQ_F, true},
	})
}

func (p *Parser) exprEq() (Derivation, error) {
	return p.parseLeftAssoc(p.exprRel, []binOp{
		{lexer.EQUAL, vm.EQUAL_I, vm.EQUAL_F, true},
		{lexer.NOTEQ, vm.NOTEQ_I, vm.NOTEQ_F, true},
	})
}

// toBoolInt coerces a scalar derivation already on the stack to an int 0/1
// truthiness value: "!= 0-of-matching-type", then addRVal folds nothing
// further since EQUAL_I/F/NOTEQ_I/F already leave an int result.
func (p *Parser) toBoolInt(d Derivation) Derivation {
	if d.Type.Base == symbols.TypeDouble {
		p.emit(vm.PUSH_F)
		p.emit(vm.NOTEQ_F)
	} else {
		p.emit(vm.PUSH_I)
		p.emit(vm.NOTEQ_I)
	}
	return Derivation{Type: intType()}
}

// logicalChain implements exprAnd/exprOr: next (op next)*, each operand
// coerced to int 0/1 truthiness before combining with AND_I/OR_I. Not
// short-circuited (see vm.AND_I's doc comment).
func (p *Parser) logicalChain(next func() (Derivation, error), kind lexer.Kind, combine vm.Opcode) (Derivation, error) {
	lhs, err := next()
	if err != nil {
		return Derivation{}, err
	}
	if !p.check(kind) {
		return lhs, nil
	}
	opLine := p.errLine()
	lhs = p.addRVal(lhs)
	if lhs.Type.Base == symbols.TypeStruct || lhs.Type.IsArray() {
		return Derivation{}, p.semErrAt(opLine, "operand must have a scalar type")
	}
	p.toBoolInt(lhs)
	for p.check(kind) {
		p.advance()
		rhs, err := next()
		if err != nil {
			return Derivation{}, err
		}
		rhs = p.addRVal(rhs)
		if rhs.Type.Base == symbols.TypeStruct || rhs.Type.IsArray() {
			return Derivation{}, p.semErrAt(opLine, "operand must have a scalar type")
		}
		p.toBoolInt(rhs)
		p.emit(combine)
	}
	return Derivation{Type: intType()}, nil
}

func (p *Parser) exprAnd() (Derivation, error) {
	return p.logicalChain(p.exprEq, lexer.AND, vm.AND_I)
}

func (p *Parser) exprOr() (Derivation, error) {
	return p.logicalChain(p.exprAnd, lexer.OR, vm.OR_I)
}

// exprCast parses LPAR typeBase arrayDecl? RPAR exprCast | exprUnary. No
// Guard is needed: AtomC's type keywords can never start an exprPrimary, so
// one token of lookahead past '(' deterministically tells a cast from a
// parenthesized expression.
func (p *Parser) exprCast() (Derivation, error) {
	if p.check(lexer.LPAR) && p.isTypeStartAt(1) {
		castLine := p.errLine()
		p.advance() // LPAR
		t, err := p.typeBase()
		if err != nil {
			return Derivation{}, err
		}
		present, hasLen, length, err := p.arrayDecl()
		if err != nil {
			return Derivation{}, err
		}
		if present {
			if hasLen {
				t.ArrayLen = length
			} else {
				t.ArrayLen = symbols.UnknownArrayLen
			}
		}
		if _, err := p.expect(lexer.RPAR, "')'"); err != nil {
			return Derivation{}, err
		}
		operand, err := p.exprCast()
		if err != nil {
			return Derivation{}, err
		}
		operand = p.addRVal(operand)
		if !symbols.ConvTo(operand.Type, t) {
			return Derivation{}, p.semErrAt(castLine, "invalid cast from "+operand.Type.String()+" to "+t.String())
		}
		last := vm.LastOf(p.curList())
		p.insertConvIfNeeded(last, operand.Type, t)
		return Derivation{Type: t, IsConst: true}, nil
	}
	return p.exprUnary()
}

// exprUnary parses (SUB|NOT) exprUnary | exprPostfix. Neither the spec's
// opcode table nor the source carries dedicated negation/logical-not
// opcodes, so both are synthesized from existing arithmetic/comparison
// opcodes: -x is (-1)*x, !x is (x == 0).
func (p *Parser) exprUnary() (Derivation, error) {
	switch {
	case p.check(lexer.SUB):
		opLine := p.errLine()
		p.advance()
		d, err := p.exprUnary()
		if err != nil {
			return Derivation{}, err
		}
		d = p.addRVal(d)
		if d.Type.Base == symbols.TypeStruct || d.Type.IsArray() {
			return Derivation{}, p.semErrAt(opLine, "operand must have a scalar type")
		}
		if d.Type.Base == symbols.TypeDouble {
			p.emit(vm.PUSH_F).DoubleArg = -1
			p.emit(vm.MUL_F)
		} else {
			p.emit(vm.PUSH_I).IntArg = -1
			p.emit(vm.MUL_I)
		}
		return Derivation{Type: d.Type}, nil
	case p.check(lexer.NOT):
		opLine := p.errLine()
		p.advance()
		d, err := p.exprUnary()
		if err != nil {
			return Derivation{}, err
		}
		d = p.addRVal(d)
		if d.Type.Base == symbols.TypeStruct || d.Type.IsArray() {
			return Derivation{}, p.semErrAt(opLine, "operand must have a scalar type")
		}
		if d.Type.Base == symbols.TypeDouble {
			p.emit(vm.PUSH_F)
			p.emit(vm.EQUAL_F)
		} else {
			p.emit(vm.PUSH_I)
			p.emit(vm.EQUAL_I)
		}
		return Derivation{Type: intType()}, nil
	default:
		return p.exprPostfix()
	}
}

// exprPostfix parses exprPrimary (LBRACKET expr RBRACKET | DOT ID)*,
// emitting IDX/FIELD address arithmetic (spec §9's mandated fix) after
// dereferencing the base to an address-on-stack lvalue.
func (p *Parser) exprPostfix() (Derivation, error) {
	d, err := p.exprPrimary()
	if err != nil {
		return Derivation{}, err
	}
	for {
		switch {
		case p.check(lexer.LBRACKET):
			idxLine := p.errLine()
			p.advance()
			if !d.Type.IsArray() {
				return Derivation{}, p.semErrAt(idxLine, "only an array may be indexed")
			}
			if !d.IsLValue {
				return Derivation{}, p.semErrAt(idxLine, "indexed expression must be an lvalue")
			}
			idx, err := p.exprAssign()
			if err != nil {
				return Derivation{}, err
			}
			idx = p.addRVal(idx)
			if idx.Type.Base != symbols.TypeInt && idx.Type.Base != symbols.TypeChar {
				return Derivation{}, p.semErrAt(idxLine, "array index must be an int")
			}
			if _, err := p.expect(lexer.RBRACKET, "']'"); err != nil {
				return Derivation{}, err
			}
			elem := d.Type
			elem.ArrayLen = symbols.ScalarArrayLen
			instr := p.emit(vm.IDX)
			instr.IntArg = int64(symbols.TypeSize(elem))
			d = Derivation{Type: elem, IsLValue: true}
		case p.check(lexer.DOT):
			p.advance()
			nameTok, err := p.expect(lexer.ID, "a member name")
			if err != nil {
				return Derivation{}, err
			}
			if d.Type.Base != symbols.TypeStruct || d.Type.StructSym == nil {
				return Derivation{}, p.semErrAt(nameTok.Line, "'.' applied to a non-struct value")
			}
			member := findMember(d.Type.StructSym, nameTok.Literal)
			if member == nil {
				return Derivation{}, p.semErrAt(nameTok.Line, "structure "+d.Type.StructSym.Name+" has no member "+nameTok.Literal)
			}
			if !d.IsLValue {
				return Derivation{}, p.semErrAt(nameTok.Line, "member access requires an lvalue")
			}
			instr := p.emit(vm.FIELD)
			instr.IntArg = int64(member.StorageIndex)
			d = Derivation{Type: member.Type, IsLValue: true}
		default:
			return d, nil
		}
	}
}

func findMember(strct *symbols.Symbol, name string) *symbols.Symbol {
	for _, m := range strct.Members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// exprPrimary parses ID (LPAR ...RPAR)? | INT | DOUBLE | CHAR | STRING |
// LPAR expr RPAR (spec §4.4). A following LPAR after ID means a call;
// otherwise the ID denotes a variable reference.
func (p *Parser) exprPrimary() (Derivation, error) {
	switch {
	case p.check(lexer.ID):
		nameTok := p.advance()
		if p.check(lexer.LPAR) {
			return p.callExpr(nameTok)
		}
		return p.emitVarRef(nameTok)
	case p.check(lexer.INT):
		tok := p.advance()
		instr := p.emit(vm.PUSH_I)
		instr.IntArg = tok.IntVal
		return Derivation{Type: intType(), IsConst: true}, nil
	case p.check(lexer.DOUBLE):
		tok := p.advance()
		instr := p.emit(vm.PUSH_F)
		instr.DoubleArg = tok.DoubleVal
		return Derivation{Type: doubleType(), IsConst: true}, nil
	case p.check(lexer.CHAR):
		tok := p.advance()
		instr := p.emit(vm.PUSH_I)
		instr.IntArg = int64(tok.CharVal)
		return Derivation{Type: charType(), IsConst: true}, nil
	case p.check(lexer.STRING):
		tok := p.advance()
		return Derivation{}, p.semErrAt(tok.Line, "string constants are not supported as expression values")
	case p.check(lexer.LPAR):
		p.advance()
		d, err := p.exprAssign()
		if err != nil {
			return Derivation{}, err
		}
		if _, err := p.expect(lexer.RPAR, "')'"); err != nil {
			return Derivation{}, err
		}
		return d, nil
	default:
		return Derivation{}, p.synErr("expected an expression")
	}
}

// callExpr parses the call-argument tail once ID LPAR has been recognized,
// type-checking arity and per-argument assignability against the callee's
// declared parameter list (spec §4.4) and emitting either CALL or CALL_EXT.
func (p *Parser) callExpr(nameTok lexer.Token) (Derivation, error) {
	sym := p.table.Find(nameTok.Literal)
	if sym == nil || sym.Kind != symbols.KindFn {
		return Derivation{}, p.semErrAt(nameTok.Line, "undefined function: "+nameTok.Literal)
	}
	p.advance() // LPAR

	var argc int
	if !p.check(lexer.RPAR) {
		for {
			argLine := p.errLine()
			if argc >= len(sym.Params) {
				return Derivation{}, p.semErrAt(argLine, "too many arguments in call to "+nameTok.Literal)
			}
			arg, err := p.exprAssign()
			if err != nil {
				return Derivation{}, err
			}
			arg = p.addRVal(arg)
			want := sym.Params[argc].Type
			if !assignable(arg.Type, want) {
				return Derivation{}, p.semErrAt(argLine, "argument type mismatch in call to "+nameTok.Literal)
			}
			last := vm.LastOf(p.curList())
			p.insertConvIfNeeded(last, arg.Type, want)
			argc++
			if p.check(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(lexer.RPAR, "')'"); err != nil {
		return Derivation{}, err
	}
	if argc != len(sym.Params) {
		return Derivation{}, p.semErrAt(nameTok.Line, "too few arguments in call to "+nameTok.Literal)
	}

	if sym.IsExternal {
		p.emit(vm.CALL_EXT).ExtFn = sym.ExternalPtr
	} else {
		p.emit(vm.CALL).Target = sym.FirstInstr
	}
	return Derivation{Type: sym.Type}, nil
}

// emitVarRef resolves a bare identifier to its storage and emits the
// address-producing instruction matching that storage's shape: ADDR for a
// global (a compile-time-constant pointer baked into the instruction),
// FPADDR_I/F for a local scalar or param, or FPADDR_I/F followed by LOAD_I for
// a local struct/array, whose frame slot holds a pointer to storage
// allocated at ENTER rather than the value itself.
func (p *Parser) emitVarRef(nameTok lexer.Token) (Derivation, error) {
	sym := p.table.Find(nameTok.Literal)
	if sym == nil {
		return Derivation{}, p.semErrAt(nameTok.Line, "undefined id: "+nameTok.Literal)
	}
	if sym.Kind == symbols.KindFn {
		return Derivation{}, p.semErrAt(nameTok.Line, "a function can only be called")
	}
	if sym.Kind != symbols.KindVar && sym.Kind != symbols.KindParam {
		return Derivation{}, p.semErrAt(nameTok.Line, nameTok.Literal+" is not a variable")
	}

	aggregate := sym.Type.IsArray() || sym.Type.Base == symbols.TypeStruct

	if sym.Kind == symbols.KindVar && sym.Owner == nil {
		instr := p.emit(vm.ADDR)
		instr.AddrArg = sym.Addr
		return Derivation{Type: sym.Type, IsLValue: true}, nil
	}

	offset := frameOffset(sym)
	op := vm.FPADDR_I
	if sym.Type.Base == symbols.TypeDouble {
		op = vm.FPADDR_F
	}
	instr := p.emit(op)
	instr.IntArg = int64(offset)
	if aggregate {
		p.emit(vm.LOAD_I)
	}
	return Derivation{Type: sym.Type, IsLValue: true}, nil
}

// frameOffset computes the FP-relative slot a local or param symbol lives
// in (spec §4.5's frame layout): a local's slot is FP+1..FP+k by storage
// index, a param's is FP-p-1..FP-2 by its position among the p declared
// parameters.
func frameOffset(sym *symbols.Symbol) int {
	if sym.Kind == symbols.KindParam {
		return sym.ParamIndex - len(sym.Owner.Params) - 1
	}
	return sym.StorageIndex + 1
}
