package parser

import "atomc/symbols"

// Derivation is the semantic return value of every expression production:
// its type, whether it denotes a memory location (IsLValue), and whether it
// is const (IsConst). IsConst is set for literals and casts only; the
// results of arithmetic, relational, logical, unary and assignment operators
// leave it false, and are kept from being assigned to because their
// IsLValue is false.
//
// When IsLValue is true, the expression has so far left an *address* on the
// VM's value stack rather than a value — addRVal loads it when a value is
// actually needed; an assignment target uses the address directly.
type Derivation struct {
	Type     symbols.Type
	IsLValue bool
	IsConst  bool
}
