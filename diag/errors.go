// Package diag defines the closed taxonomy of fatal AtomC diagnostics
// (spec §7) and how each is rendered to stderr (spec §6).
package diag

import "fmt"

// LexError is a fatal lexical diagnostic: an unexpected byte or malformed
// literal. Printed with the bare "[ERROR]" prefix (no colon — spec's own
// invalid-char example reads "[ERROR] Invalid char: ...", not "[ERROR]:
// Invalid char: ..."), not the parser's line-prefixed form, since the lexer
// runs ahead of any committed parse position.
type LexError struct {
	Line uint
	Msg  string
}

func (e *LexError) Error() string { return fmt.Sprintf("[ERROR] %s", e.Msg) }

// SyntaxError is a fatal grammar violation at a point the parser has already
// committed to (spec §4.4 "Recognition discipline"). Line is the last
// consumed token's line.
type SyntaxError struct {
	Line uint
	Msg  string
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("error in line %d: %s", e.Line, e.Msg) }

// SemanticError covers undefined symbols, redefinitions, type mismatches,
// arity mismatches and the other checks in spec §4.4's semantic rules.
type SemanticError struct {
	Line uint
	Msg  string
}

func (e *SemanticError) Error() string { return fmt.Sprintf("error in line %d: %s", e.Line, e.Msg) }

// RuntimeError is raised by the VM itself: stack overflow/underflow, a call
// through an unresolved external function pointer. It carries no source line
// (spec §7: "no line context").
type RuntimeError struct {
	Msg string
}

func (e *RuntimeError) Error() string { return fmt.Sprintf("[ERROR]: %s", e.Msg) }

// HostError covers failures outside the compiler/VM's own logic: file not
// found, out of memory, mmap failure.
type HostError struct {
	Msg string
}

func (e *HostError) Error() string { return fmt.Sprintf("[ERROR]: %s", e.Msg) }
