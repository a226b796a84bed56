// Package dskfstest holds the backing-store and mounted-volume fixtures
// every package's tests were otherwise each re-deriving by hand: an
// in-memory io.ReadWriteSeeker via xaionaro-go/bytesextra, a *blockdev.Device
// over it, and (for the higher layers) a freshly formatted and mounted
// *volume.Volume or *fsops.Ops. Grounded on the shape every one of those
// per-package newTestDevice/newFixture/newMountedVolume helpers already had
// in common.
package dskfstest

import (
	"io"
	"testing"

	"github.com/dskfs/dskfs"
	"github.com/dskfs/dskfs/blockdev"
	"github.com/dskfs/dskfs/fsops"
	"github.com/dskfs/dskfs/volume"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// NewBackingStream allocates a zeroed in-memory stream sized for totalBlocks
// blocks.
func NewBackingStream(t *testing.T, totalBlocks uint32) io.ReadWriteSeeker {
	t.Helper()
	backing := make([]byte, int64(totalBlocks)*dskfs.BlockSize)
	return bytesextra.NewReadWriteSeeker(backing)
}

// NewDevice wraps a fresh backing stream in a blockdev.Device.
func NewDevice(t *testing.T, totalBlocks uint32) *blockdev.Device {
	t.Helper()
	return blockdev.New(NewBackingStream(t, totalBlocks), totalBlocks)
}

// NewMountedVolume formats a fresh backing stream and mounts it read-write.
func NewMountedVolume(t *testing.T, totalBlocks, totalInodes uint32) *volume.Volume {
	t.Helper()
	stream := NewBackingStream(t, totalBlocks)
	require.NoError(t, volume.Format(stream, totalInodes))

	v, err := volume.Mount(stream, false)
	require.NoError(t, err)
	return v
}

// NewMountedOps formats and mounts a fresh volume and binds an fsops.Ops to
// it, for tests that only care about the POSIX-shaped operation surface.
func NewMountedOps(t *testing.T, totalBlocks, totalInodes uint32) *fsops.Ops {
	t.Helper()
	return fsops.New(NewMountedVolume(t, totalBlocks, totalInodes))
}
