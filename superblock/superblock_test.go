package superblock_test

import (
	"testing"

	"github.com/dskfs/dskfs"
	"github.com/dskfs/dskfs/blockdev"
	"github.com/dskfs/dskfs/internal/dskfstest"
	"github.com/dskfs/dskfs/superblock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDevice(t *testing.T, totalBlocks uint32) *blockdev.Device {
	return dskfstest.NewDevice(t, totalBlocks)
}

func TestComputeLayout_OrdersRegionsStrictly(t *testing.T) {
	layout, err := superblock.ComputeLayout(256, 64)
	require.NoError(t, err)

	sb := layout.Superblock
	assert.EqualValues(t, dskfs.MagicNumber, sb.Magic)
	assert.Less(t, sb.InodeBitmapStart, sb.BlockBitmapStart)
	assert.Less(t, sb.BlockBitmapStart, sb.InodeTableStart)
	assert.Less(t, sb.InodeTableStart, sb.DataBlockStart)
	assert.EqualValues(t, 64-2, sb.FreeInodes)
}

func TestComputeLayout_TooSmallReturnsNoSpace(t *testing.T) {
	_, err := superblock.ComputeLayout(2, 64)
	require.Error(t, err)
	assert.ErrorIs(t, err, dskfs.ErrNoSpace)
}

func TestSyncThenLoad_RoundTrips(t *testing.T) {
	dev := newTestDevice(t, 256)

	layout, err := superblock.ComputeLayout(256, 64)
	require.NoError(t, err)
	sb := layout.Superblock

	require.NoError(t, sb.Sync(dev))

	loaded, err := superblock.Load(dev)
	require.NoError(t, err)
	assert.Equal(t, sb, *loaded)
}

func TestLoad_RejectsBadMagic(t *testing.T) {
	dev := newTestDevice(t, 16)

	_, err := superblock.Load(dev)
	require.Error(t, err)
	assert.ErrorIs(t, err, dskfs.ErrBadFormat)
}
