package symbols

import "fmt"

// domain is one frame in the scope stack: an ordered name -> Symbol mapping.
// Order is kept (alongside the map) purely so --dump-symbols output is
// deterministic rather than Go's randomized map iteration.
type domain struct {
	names map[string]*Symbol
	order []string
}

func newDomain() *domain {
	return &domain{names: make(map[string]*Symbol)}
}

// Table is the domain stack: a nested sequence of scopes. One domain (the
// global one) exists for the table's whole lifetime; fnDef/structDef/compound
// statements push and pop additional ones.
type Table struct {
	stack []*domain
}

// NewTable creates a table with just the global domain pushed.
func NewTable() *Table {
	t := &Table{}
	t.stack = append(t.stack, newDomain())
	return t
}

// PushDomain opens a nested scope.
func (t *Table) PushDomain() {
	t.stack = append(t.stack, newDomain())
}

// PushFnDomain opens the scope a fnDef's parameters and body share.
func (t *Table) PushFnDomain() {
	t.stack = append(t.stack, newDomain())
}

// PushBlockDomain opens the scope for a nested compound statement.
func (t *Table) PushBlockDomain() {
	t.stack = append(t.stack, newDomain())
}

// DropDomain closes the innermost scope, releasing the symbols defined in it.
func (t *Table) DropDomain() {
	t.stack = t.stack[:len(t.stack)-1]
}

// AddToDomain inserts sym into the current domain. It is an error for a
// symbol with the same name to already exist there.
func (t *Table) AddToDomain(sym *Symbol) error {
	d := t.stack[len(t.stack)-1]
	if _, exists := d.names[sym.Name]; exists {
		return fmt.Errorf("symbol redefinition: %s", sym.Name)
	}
	d.names[sym.Name] = sym
	d.order = append(d.order, sym.Name)
	return nil
}

// FindInDomain looks up name in the current domain only.
func (t *Table) FindInDomain(name string) *Symbol {
	d := t.stack[len(t.stack)-1]
	return d.names[name]
}

// Find looks up name starting at the current domain and walking outward.
func (t *Table) Find(name string) *Symbol {
	for i := len(t.stack) - 1; i >= 0; i-- {
		if sym, ok := t.stack[i].names[name]; ok {
			return sym
		}
	}
	return nil
}

// AllGlobals returns every symbol defined in the outermost (global) domain,
// in declaration order, for --dump-symbols.
func (t *Table) AllGlobals() []*Symbol {
	d := t.stack[0]
	syms := make([]*Symbol, 0, len(d.order))
	for _, name := range d.order {
		syms = append(syms, d.names[name])
	}
	return syms
}
