package mount_test

import (
	"testing"

	"github.com/dskfs/dskfs"
	"github.com/dskfs/dskfs/internal/dskfstest"
	"github.com/dskfs/dskfs/mount"
	"github.com/dskfs/dskfs/superblock"
	"github.com/dskfs/dskfs/volume"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAndMount_ThenUseOps(t *testing.T) {
	stream := dskfstest.NewBackingStream(t, 512)

	d, err := mount.FormatAndMount(stream, 64, 0)
	require.NoError(t, err)

	_, err = d.Ops().Create("/a.txt", 0o644)
	require.NoError(t, err)

	layout, err := superblock.ComputeLayout(512, 64)
	require.NoError(t, err)

	stat := d.GetFSInfo()
	assert.EqualValues(t, 512-layout.Superblock.DataBlockStart, stat.TotalBlocks)

	require.NoError(t, d.Unmount())
}

func TestMount_ReadOnlyRejectsWrites(t *testing.T) {
	stream := dskfstest.NewBackingStream(t, 512)

	d, err := mount.FormatAndMount(stream, 64, 0)
	require.NoError(t, err)
	require.NoError(t, d.Unmount())

	ro, err := mount.Mount(stream, dskfs.MountReadOnly)
	require.NoError(t, err)
	assert.True(t, ro.CurrentMountFlags().ReadOnly())

	_, err = ro.Ops().Create("/nope.txt", 0o644)
	assert.Error(t, err)
}

func TestMount_CheckRepairsSkewedCounters(t *testing.T) {
	stream := dskfstest.NewBackingStream(t, 512)

	d, err := mount.FormatAndMount(stream, 64, 0)
	require.NoError(t, err)
	require.NoError(t, d.Unmount())

	skewed, err := volume.Mount(stream, false)
	require.NoError(t, err)
	skewed.Superblock().FreeInodes = 999
	require.NoError(t, skewed.SyncMetadata())

	d2, err := mount.Mount(stream, dskfs.MountCheck)
	require.NoError(t, err)
	assert.EqualValues(t, 64-2, d2.GetFSInfo().FreeInodes)
	require.NoError(t, d2.Unmount())
}
