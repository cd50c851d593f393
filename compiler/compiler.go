// Package compiler wires the lexer, parser, and VM into the single
// load-lex-parse-locate-main-run pipeline the command line drives.
package compiler

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"atomc/diag"
	"atomc/lexer"
	"atomc/memory"
	"atomc/parser"
	"atomc/symbols"
	"atomc/vm"
)

// Options configures a Run, mirroring the CLI's flag set.
type Options struct {
	Stdout          io.Writer
	StackSize       int
	MaxInstructions int64
	Log             *logrus.Logger // non-nil enables the VM's --trace output
}

// Result carries everything a caller might want to inspect after a
// successful compile, ahead of (or instead of) running it: the symbol table
// for --dump-symbols, the entry instruction for --dump-ir.
type Result struct {
	Tokens  []lexer.Token
	Table   *symbols.Table
	Entry   *vm.Instruction
	Store   *memory.Store
	Machine *vm.VM
}

// Compile runs load->lex->parse->locate-main->synthesize-entry but does not
// execute anything, so callers can inspect tokens/symbols/IR before deciding
// whether to Run.
func Compile(source string, opts Options) (*Result, error) {
	tokens, err := lexer.Lex(source)
	if err != nil {
		return nil, err
	}

	store := memory.NewStore()
	table, err := parser.Parse(tokens, store)
	if err != nil {
		return nil, err
	}

	mainSym := table.Find("main")
	if mainSym == nil || mainSym.Kind != symbols.KindFn {
		return nil, &diag.SemanticError{Msg: "undefined id: main"}
	}
	if len(mainSym.Params) != 0 {
		return nil, &diag.SemanticError{Msg: "main must take no parameters"}
	}

	// Synthesize the driver entry: main takes no parameters, so zero args
	// are pushed before the call — "CALL main; HALT" with an empty
	// argument-push sequence, not a literal PUSH_I.
	entryList := &vm.List{}
	call := vm.NewInstr(vm.CALL)
	call.Target = mainSym.FirstInstr
	entryList.Append(call)
	entryList.Append(vm.NewInstr(vm.HALT))

	stackSize := opts.StackSize
	if stackSize <= 0 {
		stackSize = 4096
	}
	machine := vm.New(store, opts.Stdout, stackSize, opts.MaxInstructions)
	machine.Log = opts.Log

	return &Result{
		Tokens:  tokens,
		Table:   table,
		Entry:   entryList.Head,
		Store:   store,
		Machine: machine,
	}, nil
}

// Run compiles source and executes it to completion.
func Run(source string, opts Options) error {
	res, err := Compile(source, opts)
	if err != nil {
		return err
	}
	if err := res.Machine.Run(res.Entry); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
