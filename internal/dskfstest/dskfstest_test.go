package dskfstest_test

import (
	"testing"

	"github.com/dskfs/dskfs"
	"github.com/dskfs/dskfs/internal/dskfstest"
	"github.com/dskfs/dskfs/superblock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMountedVolume_IsFormattedAndMountedClean(t *testing.T) {
	v := dskfstest.NewMountedVolume(t, 256, 32)

	layout, err := superblock.ComputeLayout(256, 32)
	require.NoError(t, err)

	stat := v.Stat()
	assert.EqualValues(t, 256-layout.Superblock.DataBlockStart, stat.TotalBlocks)
	assert.EqualValues(t, 32, stat.TotalInodes)
}

func TestNewMountedOps_CanCreateAFile(t *testing.T) {
	ops := dskfstest.NewMountedOps(t, 256, 32)

	_, err := ops.Create("/a.txt", 0o644)
	require.NoError(t, err)
}

func TestNewDevice_ReadsBackZeroed(t *testing.T) {
	dev := dskfstest.NewDevice(t, 2)

	buf, err := dev.ReadBlock(0)
	require.NoError(t, err)
	assert.Len(t, buf, dskfs.BlockSize)
	for _, b := range buf {
		assert.Zero(t, b)
	}
}
