package parser

import (
	"atomc/lexer"
	"atomc/symbols"
	"atomc/vm"
)

// topLevelDecl parses one of unit's three alternatives (spec §4.4 grammar):
// structDef, fnDef, or varDef. structDef is the only one needing more than
// one token of lookahead to disambiguate (STRUCT ID LACC vs. STRUCT ID used
// as a typeBase); fnDef vs. varDef is resolved by peeking past the shared
// "typeBase ID" prefix for a following '('.
func (p *Parser) topLevelDecl() error {
	if p.check(lexer.STRUCT) && p.peekKind(1) == lexer.ID && p.peekKind(2) == lexer.LACC {
		return p.structDef()
	}

	var retType symbols.Type
	isVoid := p.check(lexer.VOID)
	if isVoid {
		p.advance()
	} else {
		t, err := p.typeBase()
		if err != nil {
			return err
		}
		retType = t
	}

	nameTok, err := p.expect(lexer.ID, "an identifier")
	if err != nil {
		return err
	}

	if p.check(lexer.LPAR) {
		return p.fnDef(nameTok, retType, isVoid)
	}
	if isVoid {
		return p.semErrAt(nameTok.Line, "void is not a valid variable type")
	}
	return p.varDeclRest(nameTok, retType)
}

// typeBase parses typeBase := TYPE_INT | TYPE_DOUBLE | TYPE_CHAR | STRUCT ID.
func (p *Parser) typeBase() (symbols.Type, error) {
	switch {
	case p.check(lexer.TYPE_INT):
		p.advance()
		return intType(), nil
	case p.check(lexer.TYPE_DOUBLE):
		p.advance()
		return doubleType(), nil
	case p.check(lexer.TYPE_CHAR):
		p.advance()
		return charType(), nil
	case p.check(lexer.STRUCT):
		p.advance()
		nameTok, err := p.expect(lexer.ID, "a struct name")
		if err != nil {
			return symbols.Type{}, err
		}
		sym := p.table.Find(nameTok.Literal)
		if sym == nil || sym.Kind != symbols.KindStruct {
			return symbols.Type{}, p.semErrAt(nameTok.Line, "undefined structure: "+nameTok.Literal)
		}
		return symbols.Type{Base: symbols.TypeStruct, StructSym: sym, ArrayLen: symbols.ScalarArrayLen}, nil
	default:
		return symbols.Type{}, p.synErr("expected a type")
	}
}

// arrayDecl parses an optional arrayDecl := LBRACKET INT? RBRACKET,
// distinguishing "absent" from "present with no length" (legal only as a
// fnParam, spec §3) from "present with an explicit length".
func (p *Parser) arrayDecl() (present, hasLen bool, length int, err error) {
	if !p.check(lexer.LBRACKET) {
		return false, false, 0, nil
	}
	p.advance()
	if p.check(lexer.INT) {
		length = int(p.cur().IntVal)
		p.advance()
		hasLen = true
	}
	if _, err := p.expect(lexer.RBRACKET, "']'"); err != nil {
		return false, false, 0, err
	}
	return true, hasLen, length, nil
}

// structDef parses STRUCT ID LACC varDef* RACC SEMICOLON, pushing a domain
// to collect members and computing each member's byte offset as it goes
// (spec §4.2 typeSize: a struct sums its members' sizes in declaration
// order, no padding).
func (p *Parser) structDef() error {
	p.advance() // STRUCT
	nameTok, err := p.expect(lexer.ID, "a struct name")
	if err != nil {
		return err
	}
	if p.table.FindInDomain(nameTok.Literal) != nil {
		return p.semErrAt(nameTok.Line, "struct redefinition: "+nameTok.Literal)
	}
	sym := &symbols.Symbol{Name: nameTok.Literal, Kind: symbols.KindStruct}
	if err := p.table.AddToDomain(sym); err != nil {
		return p.semErrAt(nameTok.Line, err.Error())
	}
	if _, err := p.expect(lexer.LACC, "'{'"); err != nil {
		return err
	}

	p.table.PushDomain()
	prevOwner, prevOff := p.strct, p.strctOff
	p.strct, p.strctOff = sym, 0
	for !p.check(lexer.RACC) {
		if err := p.varDeclStmt(); err != nil {
			return err
		}
	}
	p.strct, p.strctOff = prevOwner, prevOff
	p.table.DropDomain()

	if _, err := p.expect(lexer.RACC, "'}'"); err != nil {
		return err
	}
	_, err = p.expect(lexer.SEMICOLON, "';'")
	return err
}

// varDeclStmt parses varDef := typeBase ID arrayDecl? SEMICOLON; used for
// globals (via varDeclRest below), struct members, and locals.
func (p *Parser) varDeclStmt() error {
	t, err := p.typeBase()
	if err != nil {
		return err
	}
	nameTok, err := p.expect(lexer.ID, "an identifier")
	if err != nil {
		return err
	}
	return p.varDeclRest(nameTok, t)
}

// varDeclRest continues a varDef once typeBase and the name are already
// consumed (topLevelDecl peeks past both to disambiguate fnDef first).
func (p *Parser) varDeclRest(nameTok lexer.Token, t symbols.Type) error {
	present, hasLen, length, err := p.arrayDecl()
	if err != nil {
		return err
	}
	if present {
		if !hasLen {
			return p.semErrAt(nameTok.Line, "array length required")
		}
		if length == 0 {
			return p.semErrAt(nameTok.Line, "array length must be greater than 0")
		}
		t.ArrayLen = length
	}
	if _, err := p.expect(lexer.SEMICOLON, "';'"); err != nil {
		return err
	}
	_, err = p.registerVar(nameTok.Literal, t, nameTok.Line)
	return err
}

// registerVar implements spec §4.4's "Variable and function registration":
// storage discipline depends on the enclosing owner — struct member (byte
// offset), function local (slot index), or global (a freshly allocated
// backing block).
func (p *Parser) registerVar(name string, t symbols.Type, line uint) (*symbols.Symbol, error) {
	if p.table.FindInDomain(name) != nil {
		return nil, p.semErrAt(line, "symbol redefinition: "+name)
	}
	sym := &symbols.Symbol{Name: name, Kind: symbols.KindVar, Type: t}
	switch {
	case p.strct != nil:
		sym.Owner = p.strct
		sym.StorageIndex = int(p.strctOff)
		p.strctOff += symbols.TypeSize(t)
		p.strct.Members = append(p.strct.Members, sym)
	case p.fn != nil:
		sym.Owner = p.fn
		sym.StorageIndex = len(p.fn.Locals)
		p.fn.Locals = append(p.fn.Locals, sym)
	default:
		addr, err := p.store.Alloc(symbols.TypeSize(t))
		if err != nil {
			return nil, p.semErrAt(line, err.Error())
		}
		sym.Addr = addr
	}
	if err := p.table.AddToDomain(sym); err != nil {
		return nil, p.semErrAt(line, err.Error())
	}
	return sym, nil
}

// fnParam parses fnParam := typeBase ID arrayDecl?, registering a PARAM
// symbol in the function's (already pushed) domain. An explicit "[]" with no
// length is normalized to arrayLen 0 here (spec boundary case); an explicit
// "[0]" is still fatal.
func (p *Parser) fnParam() error {
	t, err := p.typeBase()
	if err != nil {
		return err
	}
	nameTok, err := p.expect(lexer.ID, "an identifier")
	if err != nil {
		return err
	}
	present, hasLen, length, err := p.arrayDecl()
	if err != nil {
		return err
	}
	if present {
		if hasLen {
			if length == 0 {
				return p.semErrAt(nameTok.Line, "array length must be greater than 0")
			}
			t.ArrayLen = length
		} else {
			t.ArrayLen = symbols.UnknownArrayLen
		}
	}
	if p.table.FindInDomain(nameTok.Literal) != nil {
		return p.semErrAt(nameTok.Line, "symbol redefinition: "+nameTok.Literal)
	}
	sym := &symbols.Symbol{
		Name: nameTok.Literal, Kind: symbols.KindParam, Type: t,
		Owner: p.fn, ParamIndex: len(p.fn.Params),
	}
	p.fn.Params = append(p.fn.Params, sym)
	return p.table.AddToDomain(sym)
}

// fnDef parses fnDef := (typeBase|VOID) ID LPAR (fnParam (COMMA fnParam)*)?
// RPAR stmCompound, emitting the ENTER that begins the body and patching its
// local count once the body is fully parsed (spec's "Code emission
// contracts" table).
func (p *Parser) fnDef(nameTok lexer.Token, retType symbols.Type, isVoid bool) error {
	if isVoid {
		retType = symbols.Type{Base: symbols.TypeVoid, ArrayLen: symbols.ScalarArrayLen}
	}
	if p.table.FindInDomain(nameTok.Literal) != nil {
		return p.semErrAt(nameTok.Line, "function redefinition: "+nameTok.Literal)
	}
	fn := &symbols.Symbol{Name: nameTok.Literal, Kind: symbols.KindFn, Type: retType}
	if err := p.table.AddToDomain(fn); err != nil {
		return p.semErrAt(nameTok.Line, err.Error())
	}

	prevFn, prevRets := p.fn, p.fnRets
	p.fn, p.fnRets = fn, nil
	defer func() { p.fn, p.fnRets = prevFn, prevRets }()

	p.table.PushFnDomain()
	if _, err := p.expect(lexer.LPAR, "'('"); err != nil {
		return err
	}
	if !p.check(lexer.RPAR) {
		for {
			if err := p.fnParam(); err != nil {
				return err
			}
			if p.check(lexer.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(lexer.RPAR, "')'"); err != nil {
		return err
	}

	fn.Code = &vm.List{}
	enter := vm.NewInstr(vm.ENTER)
	fn.Code.Append(enter)
	fn.FirstInstr = fn.Code.Head

	if err := p.stmCompound(false); err != nil {
		return err
	}

	enter.IntArg = int64(len(fn.Locals))
	var aggregates []vm.AggregateSlot
	for _, loc := range fn.Locals {
		if loc.Type.IsArray() || loc.Type.Base == symbols.TypeStruct {
			aggregates = append(aggregates, vm.AggregateSlot{
				Index: loc.StorageIndex + 1,
				Size:  symbols.TypeSize(loc.Type),
			})
		}
	}
	enter.Aggregates = aggregates
	for _, ret := range p.fnRets {
		ret.Aggregates = aggregates
	}

	if retType.Base == symbols.TypeVoid {
		ret := p.emit(vm.RET_VOID)
		ret.IntArg = int64(len(fn.Params))
		ret.Aggregates = aggregates
	}

	p.table.DropDomain()
	return nil
}
