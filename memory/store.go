// Package memory provides the byte-addressable backing storage for AtomC
// global variables and for local variables of struct or array type.
package memory

import (
	"encoding/binary"
	"fmt"
	"math"
	"syscall"
	"unsafe"
)

// Store hands out blocks of anonymous, page-backed memory. Each Alloc
// call mmaps its own region, mirroring the teacher heap's one-mmap-per-block
// discipline; AtomC never frees a global (it lives until process exit per
// spec) and frees a local aggregate's region only when its owning frame is
// popped (see Store.Free, called from the VM's RET/RET_VOID handling).
type Store struct {
	blocks map[uintptr][]byte
}

// NewStore creates an empty backing store.
func NewStore() *Store {
	return &Store{blocks: make(map[uintptr][]byte)}
}

// Alloc reserves size bytes of zeroed, page-backed memory and returns its
// base address. size may be zero (e.g. typeSize of an empty struct is
// nonsensical but a zero-length fixed array is never legal per spec, so this
// only happens defensively); a zero-size request still gets a one-byte page
// so the returned address is valid to compare against others.
func (s *Store) Alloc(size uint) (uintptr, error) {
	if size == 0 {
		size = 1
	}
	pageSize := uintptr(syscall.Getpagesize())
	pages := (uintptr(size) + pageSize - 1) / pageSize
	mem, err := syscall.Mmap(
		-1, 0,
		int(pages*pageSize),
		syscall.PROT_READ|syscall.PROT_WRITE,
		syscall.MAP_ANON|syscall.MAP_PRIVATE,
	)
	if err != nil {
		return 0, fmt.Errorf("mmap failed: %w", err)
	}
	base := uintptr(unsafe.Pointer(&mem[0]))
	s.blocks[base] = mem
	return base, nil
}

// Free releases the block starting at base, if one exists. Freeing an
// address that isn't a block base (e.g. a field or element address) is a
// no-op; only frame teardown calls this, and it always passes a base it
// allocated itself.
func (s *Store) Free(base uintptr) error {
	mem, ok := s.blocks[base]
	if !ok {
		return nil
	}
	delete(s.blocks, base)
	return syscall.Munmap(mem)
}

func (s *Store) blockFor(addr uintptr) ([]byte, uintptr, error) {
	for base, mem := range s.blocks {
		if addr >= base && addr < base+uintptr(len(mem)) {
			return mem, addr - base, nil
		}
	}
	return nil, 0, fmt.Errorf("invalid memory address: %d", addr)
}

// StoreInt writes a little-endian 4-byte int at addr.
func (s *Store) StoreInt(addr uintptr, v int32) error {
	mem, off, err := s.blockFor(addr)
	if err != nil {
		return err
	}
	if off+4 > uintptr(len(mem)) {
		return fmt.Errorf("memory access out of bounds at address %d", addr)
	}
	binary.LittleEndian.PutUint32(mem[off:], uint32(v))
	return nil
}

// LoadInt reads a 4-byte int at addr.
func (s *Store) LoadInt(addr uintptr) (int32, error) {
	mem, off, err := s.blockFor(addr)
	if err != nil {
		return 0, err
	}
	if off+4 > uintptr(len(mem)) {
		return 0, fmt.Errorf("memory access out of bounds at address %d", addr)
	}
	return int32(binary.LittleEndian.Uint32(mem[off:])), nil
}

// StoreDouble writes an 8-byte float at addr.
func (s *Store) StoreDouble(addr uintptr, v float64) error {
	mem, off, err := s.blockFor(addr)
	if err != nil {
		return err
	}
	if off+8 > uintptr(len(mem)) {
		return fmt.Errorf("memory access out of bounds at address %d", addr)
	}
	binary.LittleEndian.PutUint64(mem[off:], math.Float64bits(v))
	return nil
}

// LoadDouble reads an 8-byte float at addr.
func (s *Store) LoadDouble(addr uintptr) (float64, error) {
	mem, off, err := s.blockFor(addr)
	if err != nil {
		return 0, err
	}
	if off+8 > uintptr(len(mem)) {
		return 0, fmt.Errorf("memory access out of bounds at address %d", addr)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(mem[off:])), nil
}

// StoreByte writes a single byte at addr (used for char).
func (s *Store) StoreByte(addr uintptr, v byte) error {
	mem, off, err := s.blockFor(addr)
	if err != nil {
		return err
	}
	if off+1 > uintptr(len(mem)) {
		return fmt.Errorf("memory access out of bounds at address %d", addr)
	}
	mem[off] = v
	return nil
}

// LoadByte reads a single byte at addr.
func (s *Store) LoadByte(addr uintptr) (byte, error) {
	mem, off, err := s.blockFor(addr)
	if err != nil {
		return 0, err
	}
	if off+1 > uintptr(len(mem)) {
		return 0, fmt.Errorf("memory access out of bounds at address %d", addr)
	}
	return mem[off], nil
}
