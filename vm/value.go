package vm

import (
	"fmt"
	"math"
)

// valueTag records which variant a cell holds. Value.String prints by it,
// and LOAD_*/STORE_* branch on it (through IsFrameAddr) to tell a stack-slot
// address from a store pointer; everywhere else the opcode alone decides
// which field of a cell is meaningful.
type valueTag byte

const (
	tagInt valueTag = iota
	tagDouble
	tagPtr
	tagFrame
	tagRet
	tagSavedFP
)

// Value is the VM's runtime cell: a 64-bit union of {int, double,
// genericPtr} (spec §3), plus three VM-internal variants (tagFrame, tagRet,
// tagSavedFP) used only for frame bookkeeping on the same stack — never produced by
// PUSH_I/PUSH_F and never visible to AtomC source.
type Value struct {
	tag   valueTag
	raw   uint64
	ptr   uintptr
	instr *Instruction
}

// IntValue wraps an int32 runtime value.
func IntValue(v int32) Value { return Value{tag: tagInt, raw: uint64(uint32(v))} }

// DoubleValue wraps a float64 runtime value.
func DoubleValue(v float64) Value { return Value{tag: tagDouble, raw: math.Float64bits(v)} }

// PtrValue wraps a generic pointer runtime value (a byte address into a
// memory.Store block).
func PtrValue(p uintptr) Value { return Value{tag: tagPtr, ptr: p} }

// frameValue wraps an absolute index into the VM's value stack, produced
// only by FPADDR_I/F addressing a scalar local or parameter.
func frameValue(idx int) Value { return Value{tag: tagFrame, raw: uint64(uint32(idx))} }

// retValue wraps the instruction CALL will resume at, pushed beneath a
// callee's frame per spec §4.5's frame layout.
func retValue(instr *Instruction) Value { return Value{tag: tagRet, instr: instr} }

// savedFPValue wraps the caller's FP, pushed by ENTER at frame offset 0.
func savedFPValue(fp int) Value { return Value{tag: tagSavedFP, raw: uint64(uint32(fp))} }

// asSavedFP reinterprets the cell as a frame index.
func (v Value) asSavedFP() int { return int(int32(uint32(v.raw))) }

// asFrameIndex reinterprets a tagFrame address cell as a stack index.
func (v Value) asFrameIndex() int { return int(int32(uint32(v.raw))) }

// asRetInstr reinterprets a tagRet cell as the instruction to resume at.
func (v Value) asRetInstr() *Instruction { return v.instr }

// IsFrameAddr reports whether v is a tagFrame cell (a stack-slot address).
func (v Value) IsFrameAddr() bool { return v.tag == tagFrame }

// AsInt reinterprets the cell as an int32.
func (v Value) AsInt() int32 { return int32(uint32(v.raw)) }

// AsDouble reinterprets the cell as a float64.
func (v Value) AsDouble() float64 { return math.Float64frombits(v.raw) }

// AsPtr reinterprets the cell as a generic pointer.
func (v Value) AsPtr() uintptr { return v.ptr }

func (v Value) String() string {
	switch v.tag {
	case tagInt:
		return fmt.Sprintf("%d", v.AsInt())
	case tagDouble:
		return fmt.Sprintf("%f", v.AsDouble())
	case tagPtr:
		return fmt.Sprintf("@%d", v.ptr)
	case tagFrame:
		return fmt.Sprintf("fp[%d]", int32(uint32(v.raw)))
	case tagRet:
		return "<return address>"
	default:
		return fmt.Sprintf("<raw 0x%x>", v.raw)
	}
}
