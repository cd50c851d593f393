package vm

import "fmt"

// ExternalFunction is a host-provided function reachable only via CALL_EXT
// (exactly put_i and put_d, which the parser registers into the global
// domain before it reads the first declaration). Call pops its own arguments directly off the running VM's
// stack — CALL_EXT opens no ENTER/RET frame, so the callee must clean up
// exactly what it consumes.
type ExternalFunction struct {
	Name  string
	Arity int
	Call  func(m *VM) error
}

// PutI implements put_i(int i): prints "=> <n>" with no trailing newline,
// matching spec §6/§8's end-to-end scenarios exactly (successive calls
// concatenate, e.g. "=> 0=> 1=> 2").
var PutI = &ExternalFunction{
	Name:  "put_i",
	Arity: 1,
	Call: func(m *VM) error {
		arg, err := m.pop()
		if err != nil {
			return err
		}
		fmt.Fprintf(m.Stdout, "=> %d", arg.AsInt())
		return nil
	},
}

// PutD implements put_d(double d): prints "=> <f>" with no trailing newline.
var PutD = &ExternalFunction{
	Name:  "put_d",
	Arity: 1,
	Call: func(m *VM) error {
		arg, err := m.pop()
		if err != nil {
			return err
		}
		fmt.Fprintf(m.Stdout, "=> %f", arg.AsDouble())
		return nil
	},
}
