//go:build linux

package blockdev

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// blockDeviceSize queries the kernel for a raw block device's size via the
// BLKGETSIZE64 ioctl. It reports ok=false for anything that isn't an
// *os.File backed by a device node (ordinary files and in-memory streams
// fall back to the portable Seek-based sizing in DetermineBlockCount).
func blockDeviceSize(stream io.Seeker) (int64, bool) {
	f, ok := stream.(*os.File)
	if !ok {
		return 0, false
	}
	size, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKGETSIZE64)
	if err != nil {
		return 0, false
	}
	return int64(size), true
}
