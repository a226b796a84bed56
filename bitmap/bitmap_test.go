package bitmap_test

import (
	"testing"

	"github.com/dskfs/dskfs"
	"github.com/dskfs/dskfs/bitmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_AllFree(t *testing.T) {
	a := bitmap.New(64)
	assert.EqualValues(t, 64, a.Free())
	assert.Zero(t, a.PopCount())
}

func TestReserve_InodeSentinels(t *testing.T) {
	a := bitmap.New(32)
	a.Reserve(0)
	a.Reserve(1)

	assert.True(t, a.Get(0))
	assert.True(t, a.Get(1))
	assert.EqualValues(t, 30, a.Free())
}

func TestAllocate_LowestIndexFirst(t *testing.T) {
	a := bitmap.New(16)
	a.Reserve(0)

	idx, err := a.Allocate(1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, idx)

	idx2, err := a.Allocate(1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, idx2)
}

func TestAllocate_SkipsFullBytes(t *testing.T) {
	a := bitmap.New(32)
	for i := uint32(0); i < 8; i++ {
		a.Reserve(i)
	}

	idx, err := a.Allocate(0)
	require.NoError(t, err)
	assert.EqualValues(t, 8, idx)
}

func TestAllocate_NoSpace(t *testing.T) {
	a := bitmap.New(4)
	for i := uint32(0); i < 4; i++ {
		_, err := a.Allocate(0)
		require.NoError(t, err)
	}

	_, err := a.Allocate(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, dskfs.ErrNoSpace)
}

func TestRelease_RestoresFreeCount(t *testing.T) {
	a := bitmap.New(8)
	idx, err := a.Allocate(0)
	require.NoError(t, err)

	a.Release(idx)
	assert.EqualValues(t, 8, a.Free())
	assert.False(t, a.Get(idx))
}

func TestRelease_BitZeroIsNoOp(t *testing.T) {
	a := bitmap.New(8)
	a.Reserve(0)

	a.Release(0)
	assert.True(t, a.Get(0), "releasing bit 0 must be a no-op")
}

func TestRelease_OutOfRangeIsNoOp(t *testing.T) {
	a := bitmap.New(8)
	free := a.Free()

	a.Release(100)
	assert.Equal(t, free, a.Free())
}

func TestLoad_PreservesBytesAndFreeCount(t *testing.T) {
	src := bitmap.New(16)
	src.Reserve(0)
	src.Reserve(1)

	loaded := bitmap.Load(src.Bytes(), 16, src.Free())
	assert.True(t, loaded.Get(0))
	assert.True(t, loaded.Get(1))
	assert.Equal(t, src.Free(), loaded.Free())
}

func TestBlockCount(t *testing.T) {
	bitsPerBlock := uint32(dskfs.BlockSize * 8)

	assert.EqualValues(t, 1, bitmap.BlockCount(1))
	assert.EqualValues(t, 1, bitmap.BlockCount(bitsPerBlock))
	assert.EqualValues(t, 2, bitmap.BlockCount(bitsPerBlock+1))
}
