package symbols

import "atomc/vm"

// Kind is the closed set of symbol kinds AtomC's table holds: VAR, PARAM,
// FN, STRUCT. A tagged union over one Go struct is the right model here,
// not a shared interface with down-casts — every caller that looks a
// symbol up already knows which kind it expects.
type Kind int

const (
	KindVar Kind = iota
	KindParam
	KindFn
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindVar:
		return "VAR"
	case KindParam:
		return "PARAM"
	case KindFn:
		return "FN"
	case KindStruct:
		return "STRUCT"
	default:
		return "?"
	}
}

// Symbol is one entry in a Domain. Owner is the enclosing FN (for a PARAM or
// local VAR) or STRUCT (for a member VAR); it is nil for a global VAR, a
// top-level FN, or a top-level STRUCT.
type Symbol struct {
	Name  string
	Kind  Kind
	Type  Type
	Owner *Symbol

	// VAR
	StorageIndex int     // local slot index (owner is FN) or byte offset (owner is STRUCT)
	Addr         uintptr // valid iff Kind == KindVar && Owner == nil: backing store address

	// PARAM
	ParamIndex int // order of declaration, 0-based

	// FN
	Params      []*Symbol
	Locals      []*Symbol
	Code        *vm.List // owns this function's instruction list
	FirstInstr  *vm.Instruction
	IsExternal  bool
	ExternalPtr *vm.ExternalFunction

	// STRUCT
	Members []*Symbol
}

// IsGlobal reports whether a VAR symbol denotes a global (no owner).
func (s *Symbol) IsGlobal() bool { return s.Kind == KindVar && s.Owner == nil }
