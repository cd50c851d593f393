package vm

import (
	"io"

	"github.com/sirupsen/logrus"

	"atomc/diag"
	"atomc/memory"
)

// VM is the stack interpreter of spec §4.5: a single instruction pointer, a
// fixed-capacity value stack, and a frame pointer. It reads the instruction
// list produced by package parser strictly read-only (spec §5).
type VM struct {
	Stack []Value
	SP    int
	FP    int

	Store  *memory.Store
	Stdout io.Writer

	// MaxInstructions bounds total dispatch iterations; zero means
	// unbounded. This is the grading-time runaway-loop backstop the CLI's
	// --max-instructions flag controls (AtomC has no timeout model per spec
	// §5, but an interpreter driven by arbitrary student `while` loops still
	// wants one).
	MaxInstructions int64

	// Log receives one structured entry per executed instruction when the
	// CLI's --trace flag is set; nil disables tracing entirely so the hot
	// loop pays nothing for it.
	Log *logrus.Logger
}

// New creates a VM with a stackSize-cell value stack.
func New(store *memory.Store, stdout io.Writer, stackSize int, maxInstructions int64) *VM {
	return &VM{
		Stack:           make([]Value, stackSize),
		Store:           store,
		Stdout:          stdout,
		MaxInstructions: maxInstructions,
	}
}

func (m *VM) push(v Value) error {
	if m.SP >= len(m.Stack) {
		return &diag.RuntimeError{Msg: "stack overflow"}
	}
	m.Stack[m.SP] = v
	m.SP++
	return nil
}

func (m *VM) pop() (Value, error) {
	if m.SP <= 0 {
		return Value{}, &diag.RuntimeError{Msg: "stack underflow"}
	}
	m.SP--
	return m.Stack[m.SP], nil
}

// Run executes the instruction stream starting at entry until HALT.
func (m *VM) Run(entry *Instruction) error {
	ip := entry
	var executed int64
	for ip != nil {
		if m.MaxInstructions > 0 {
			executed++
			if executed > m.MaxInstructions {
				return &diag.RuntimeError{Msg: "instruction budget exceeded"}
			}
		}
		if m.Log != nil {
			m.Log.WithFields(logrus.Fields{
				"op": ip.Op.String(), "sp": m.SP, "fp": m.FP,
			}).Trace("exec")
		}
		next, err := m.step(ip)
		if err != nil {
			return err
		}
		if next == stepHalt {
			return nil
		}
		ip = next.instr
	}
	return &diag.RuntimeError{Msg: "fell off the end of the instruction stream"}
}

// stepResult distinguishes "advance to ip.Next" (the common case) from an
// explicit jump target or HALT without allocating per dispatch.
type stepResult struct {
	instr *Instruction
}

var stepHalt = stepResult{}

func (m *VM) step(ip *Instruction) (stepResult, error) {
	switch ip.Op {
	case HALT:
		return stepResult{}, nil

	case NOP:
		return stepResult{ip.Next}, nil

	case PUSH_I:
		if err := m.push(IntValue(int32(ip.IntArg))); err != nil {
			return stepResult{}, err
		}
		return stepResult{ip.Next}, nil

	case PUSH_F:
		if err := m.push(DoubleValue(ip.DoubleArg)); err != nil {
			return stepResult{}, err
		}
		return stepResult{ip.Next}, nil

	case ADDR:
		if err := m.push(PtrValue(ip.AddrArg)); err != nil {
			return stepResult{}, err
		}
		return stepResult{ip.Next}, nil

	case FPADDR_I, FPADDR_F:
		if err := m.push(frameValue(m.FP + int(ip.IntArg))); err != nil {
			return stepResult{}, err
		}
		return stepResult{ip.Next}, nil

	case LOAD_I:
		return stepResult{ip.Next}, m.execLoadInt(ip)
	case LOAD_F:
		return stepResult{ip.Next}, m.execLoadDouble()
	case STORE_I:
		return stepResult{ip.Next}, m.execStoreInt(ip)
	case STORE_F:
		return stepResult{ip.Next}, m.execStoreDouble()

	case DROP:
		_, err := m.pop()
		return stepResult{ip.Next}, err

	case ENTER:
		return stepResult{ip.Next}, m.execEnter(ip)

	case CALL:
		if err := m.push(retValue(ip.Next)); err != nil {
			return stepResult{}, err
		}
		return stepResult{ip.Target}, nil

	case CALL_EXT:
		if err := ip.ExtFn.Call(m); err != nil {
			return stepResult{}, err
		}
		return stepResult{ip.Next}, nil

	case RET:
		next, err := m.execRet(ip, true)
		return stepResult{next}, err
	case RET_VOID:
		next, err := m.execRet(ip, false)
		return stepResult{next}, err

	case JMP:
		return stepResult{ip.Target}, nil

	case JF:
		cond, err := m.pop()
		if err != nil {
			return stepResult{}, err
		}
		if cond.AsInt() == 0 {
			return stepResult{ip.Target}, nil
		}
		return stepResult{ip.Next}, nil

	case ADD_I:
		return stepResult{ip.Next}, m.binInt(func(a, b int32) int32 { return a + b })
	case SUB_I:
		return stepResult{ip.Next}, m.binInt(func(a, b int32) int32 { return a - b })
	case MUL_I:
		return stepResult{ip.Next}, m.binInt(func(a, b int32) int32 { return a * b })
	case DIV_I:
		return stepResult{ip.Next}, m.divInt()
	case ADD_F:
		return stepResult{ip.Next}, m.binDouble(func(a, b float64) float64 { return a + b })
	case SUB_F:
		return stepResult{ip.Next}, m.binDouble(func(a, b float64) float64 { return a - b })
	case MUL_F:
		return stepResult{ip.Next}, m.binDouble(func(a, b float64) float64 { return a * b })
	case DIV_F:
		return stepResult{ip.Next}, m.divDouble()

	case LESS_I:
		return stepResult{ip.Next}, m.cmpInt(func(a, b int32) bool { return a < b })
	case LESSEQ_I:
		return stepResult{ip.Next}, m.cmpInt(func(a, b int32) bool { return a <= b })
	case GREATER_I:
		return stepResult{ip.Next}, m.cmpInt(func(a, b int32) bool { return a > b })
	case GREATEREQ_I:
		return stepResult{ip.Next}, m.cmpInt(func(a, b int32) bool { return a >= b })
	case EQUAL_I:
		return stepResult{ip.Next}, m.cmpInt(func(a, b int32) bool { return a == b })
	case NOTEQ_I:
		return stepResult{ip.Next}, m.cmpInt(func(a, b int32) bool { return a != b })

	case LESS_F:
		return stepResult{ip.Next}, m.cmpDouble(func(a, b float64) bool { return a < b })
	case LESSEQ_F:
		return stepResult{ip.Next}, m.cmpDouble(func(a, b float64) bool { return a <= b })
	case GREATER_F:
		return stepResult{ip.Next}, m.cmpDouble(func(a, b float64) bool { return a > b })
	case GREATEREQ_F:
		return stepResult{ip.Next}, m.cmpDouble(func(a, b float64) bool { return a >= b })
	case EQUAL_F:
		return stepResult{ip.Next}, m.cmpDouble(func(a, b float64) bool { return a == b })
	case NOTEQ_F:
		return stepResult{ip.Next}, m.cmpDouble(func(a, b float64) bool { return a != b })

	case CONV_F_I:
		v, err := m.pop()
		if err != nil {
			return stepResult{}, err
		}
		if err := m.push(IntValue(int32(v.AsDouble()))); err != nil {
			return stepResult{}, err
		}
		return stepResult{ip.Next}, nil

	case CONV_I_F:
		v, err := m.pop()
		if err != nil {
			return stepResult{}, err
		}
		if err := m.push(DoubleValue(float64(v.AsInt()))); err != nil {
			return stepResult{}, err
		}
		return stepResult{ip.Next}, nil

	case AND_I:
		return stepResult{ip.Next}, m.binInt(func(a, b int32) int32 {
			if a != 0 && b != 0 {
				return 1
			}
			return 0
		})
	case OR_I:
		return stepResult{ip.Next}, m.binInt(func(a, b int32) int32 {
			if a != 0 || b != 0 {
				return 1
			}
			return 0
		})

	case IDX:
		return stepResult{ip.Next}, m.execIndex(ip)
	case FIELD:
		return stepResult{ip.Next}, m.execField(ip)

	default:
		return stepResult{}, &diag.RuntimeError{Msg: "unimplemented opcode: " + ip.Op.String()}
	}
}

func (m *VM) binInt(f func(a, b int32) int32) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	return m.push(IntValue(f(a.AsInt(), b.AsInt())))
}

func (m *VM) binDouble(f func(a, b float64) float64) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	return m.push(DoubleValue(f(a.AsDouble(), b.AsDouble())))
}

func (m *VM) divInt() error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	if b.AsInt() == 0 {
		return &diag.RuntimeError{Msg: "integer division by zero"}
	}
	return m.push(IntValue(a.AsInt() / b.AsInt()))
}

func (m *VM) divDouble() error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	return m.push(DoubleValue(a.AsDouble() / b.AsDouble()))
}

func (m *VM) cmpInt(f func(a, b int32) bool) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	v := int32(0)
	if f(a.AsInt(), b.AsInt()) {
		v = 1
	}
	return m.push(IntValue(v))
}

func (m *VM) cmpDouble(f func(a, b float64) bool) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	v := int32(0)
	if f(a.AsDouble(), b.AsDouble()) {
		v = 1
	}
	return m.push(IntValue(v))
}

// execLoadInt pops an address and pushes the int (or char, widened to int)
// it denotes: a tagFrame address reads straight off the value stack (a
// scalar local/param IS its frame slot); a tagPtr address reads through the
// byte-addressable global/aggregate store, honoring ip.Width so a char field
// reads one byte instead of four.
func (m *VM) execLoadInt(ip *Instruction) error {
	addr, err := m.pop()
	if err != nil {
		return err
	}
	if addr.IsFrameAddr() {
		return m.push(m.Stack[addr.asFrameIndex()])
	}
	if ip.Width == 1 {
		b, err := m.Store.LoadByte(addr.AsPtr())
		if err != nil {
			return &diag.RuntimeError{Msg: err.Error()}
		}
		return m.push(IntValue(int32(b)))
	}
	v, err := m.Store.LoadInt(addr.AsPtr())
	if err != nil {
		return &diag.RuntimeError{Msg: err.Error()}
	}
	return m.push(IntValue(v))
}

func (m *VM) execLoadDouble() error {
	addr, err := m.pop()
	if err != nil {
		return err
	}
	if addr.IsFrameAddr() {
		return m.push(m.Stack[addr.asFrameIndex()])
	}
	v, err := m.Store.LoadDouble(addr.AsPtr())
	if err != nil {
		return &diag.RuntimeError{Msg: err.Error()}
	}
	return m.push(DoubleValue(v))
}

// execStoreInt pops the value then the destination address (pushed first by
// lvalue evaluation) and re-pushes the value so assignment expressions yield
// a result (spec §4.5 STORE_T).
func (m *VM) execStoreInt(ip *Instruction) error {
	val, err := m.pop()
	if err != nil {
		return err
	}
	addr, err := m.pop()
	if err != nil {
		return err
	}
	if addr.IsFrameAddr() {
		m.Stack[addr.asFrameIndex()] = val
		return m.push(val)
	}
	if ip.Width == 1 {
		if err := m.Store.StoreByte(addr.AsPtr(), byte(val.AsInt())); err != nil {
			return &diag.RuntimeError{Msg: err.Error()}
		}
	} else if err := m.Store.StoreInt(addr.AsPtr(), val.AsInt()); err != nil {
		return &diag.RuntimeError{Msg: err.Error()}
	}
	return m.push(val)
}

func (m *VM) execStoreDouble() error {
	val, err := m.pop()
	if err != nil {
		return err
	}
	addr, err := m.pop()
	if err != nil {
		return err
	}
	if addr.IsFrameAddr() {
		m.Stack[addr.asFrameIndex()] = val
		return m.push(val)
	}
	if err := m.Store.StoreDouble(addr.AsPtr(), val.AsDouble()); err != nil {
		return &diag.RuntimeError{Msg: err.Error()}
	}
	return m.push(val)
}

// execIndex implements array element addressing (spec §9 open question):
// pop an int index and a base pointer, push base + index*ip.IntArg
// (ip.IntArg is the element's typeSize, filled in by the code generator).
func (m *VM) execIndex(ip *Instruction) error {
	idx, err := m.pop()
	if err != nil {
		return err
	}
	base, err := m.pop()
	if err != nil {
		return err
	}
	return m.push(PtrValue(base.AsPtr() + uintptr(idx.AsInt())*uintptr(ip.IntArg)))
}

// execField implements struct field addressing: pop a base pointer, push
// base + ip.IntArg (the member's byte offset).
func (m *VM) execField(ip *Instruction) error {
	base, err := m.pop()
	if err != nil {
		return err
	}
	return m.push(PtrValue(base.AsPtr() + uintptr(ip.IntArg)))
}

// execEnter implements spec §4.5's ENTER k: the new frame's FP is fixed at
// the current SP (so the saved FP lands at FP+0, matching the frame
// diagram), the caller's FP is pushed there, and k locals are reserved.
// Locals of struct or fixed-array type additionally get a freshly allocated
// memory.Store block whose address is left in their slot.
func (m *VM) execEnter(ip *Instruction) error {
	newFP := m.SP
	if err := m.push(savedFPValue(m.FP)); err != nil {
		return err
	}
	m.FP = newFP
	for i := int64(0); i < ip.IntArg; i++ {
		if err := m.push(IntValue(0)); err != nil {
			return err
		}
	}
	for _, agg := range ip.Aggregates {
		addr, err := m.Store.Alloc(agg.Size)
		if err != nil {
			return &diag.RuntimeError{Msg: err.Error()}
		}
		m.Stack[m.FP+agg.Index] = PtrValue(addr)
	}
	return nil
}

// execRet implements RET/RET_VOID's frame teardown: discard the n
// argument cells, the return address, the saved FP, and any locals in
// one shot by resetting SP to the index of the first argument slot
// (FP-n-1), then restore FP and, for RET, push the return value.
func (m *VM) execRet(ip *Instruction, hasValue bool) (*Instruction, error) {
	var retVal Value
	var err error
	if hasValue {
		retVal, err = m.pop()
		if err != nil {
			return nil, err
		}
	}
	retAddr := m.Stack[m.FP-1]
	for _, agg := range ip.Aggregates {
		if err := m.Store.Free(m.Stack[m.FP+agg.Index].AsPtr()); err != nil {
			return nil, &diag.RuntimeError{Msg: err.Error()}
		}
	}
	savedFP := m.Stack[m.FP].asSavedFP()
	m.SP = m.FP - int(ip.IntArg) - 1
	m.FP = savedFP
	if hasValue {
		if err := m.push(retVal); err != nil {
			return nil, err
		}
	}
	return retAddr.asRetInstr(), nil
}
