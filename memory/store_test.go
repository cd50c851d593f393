package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocZeroesMemory(t *testing.T) {
	s := NewStore()
	addr, err := s.Alloc(4)
	require.NoError(t, err)
	v, err := s.LoadInt(addr)
	require.NoError(t, err)
	require.EqualValues(t, 0, v)
}

func TestStoreLoadInt(t *testing.T) {
	s := NewStore()
	addr, err := s.Alloc(4)
	require.NoError(t, err)
	require.NoError(t, s.StoreInt(addr, -42))
	v, err := s.LoadInt(addr)
	require.NoError(t, err)
	require.EqualValues(t, -42, v)
}

func TestStoreLoadDouble(t *testing.T) {
	s := NewStore()
	addr, err := s.Alloc(8)
	require.NoError(t, err)
	require.NoError(t, s.StoreDouble(addr, 3.5))
	v, err := s.LoadDouble(addr)
	require.NoError(t, err)
	require.InDelta(t, 3.5, v, 1e-12)
}

func TestStoreLoadByte(t *testing.T) {
	s := NewStore()
	addr, err := s.Alloc(1)
	require.NoError(t, err)
	require.NoError(t, s.StoreByte(addr, 'z'))
	b, err := s.LoadByte(addr)
	require.NoError(t, err)
	require.Equal(t, byte('z'), b)
}

func TestTwoBlocksAreIndependentlyAddressable(t *testing.T) {
	s := NewStore()
	a1, err := s.Alloc(4)
	require.NoError(t, err)
	a2, err := s.Alloc(4)
	require.NoError(t, err)
	require.NoError(t, s.StoreInt(a1, 1))
	require.NoError(t, s.StoreInt(a2, 2))
	v1, err := s.LoadInt(a1)
	require.NoError(t, err)
	v2, err := s.LoadInt(a2)
	require.NoError(t, err)
	require.EqualValues(t, 1, v1)
	require.EqualValues(t, 2, v2)
}

func TestLoadInvalidAddressFails(t *testing.T) {
	s := NewStore()
	_, err := s.LoadInt(0xdeadbeef)
	require.Error(t, err)
}

func TestFreeThenLoadFails(t *testing.T) {
	s := NewStore()
	addr, err := s.Alloc(4)
	require.NoError(t, err)
	require.NoError(t, s.Free(addr))
	_, err = s.LoadInt(addr)
	require.Error(t, err)
}

func TestOutOfBoundsAccessFails(t *testing.T) {
	s := NewStore()
	addr, err := s.Alloc(4)
	require.NoError(t, err)
	// The logical block is 4 bytes; the bounds check is relative to the
	// underlying mmap'd region (page-rounded), but an address computed past
	// any block entirely must still fail rather than reading another
	// block's memory.
	_, err = s.LoadInt(addr + 1<<20)
	require.Error(t, err)
}
