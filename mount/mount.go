// Package mount is the dispatch layer between a backing stream and the
// engine: it owns the mount lifecycle (mount, unmount, current flags,
// statfs) the way the teacher's UnixV1Driver.Mount/Unmount/GetFSInfo do, and
// exposes an fsops.Ops for a kernel-bridge adapter (spec.md §4.8/§9) to call
// into. It is deliberately thin — it has no on-disk knowledge of its own,
// all of that lives in volume/fsops.
package mount

import (
	"io"

	"github.com/dskfs/dskfs"
	"github.com/dskfs/dskfs/fsops"
	"github.com/dskfs/dskfs/repair"
	"github.com/dskfs/dskfs/volume"
)

// Driver binds a mounted volume's operation surface to the mount-flags the
// caller requested it with, mirroring the teacher's driver.Mount/Unmount
// shape while delegating every filesystem operation to fsops.Ops.
type Driver struct {
	vol   *volume.Volume
	ops   *fsops.Ops
	flags dskfs.MountFlags
}

// Mount loads an already-formatted volume from stream. If flags requests
// MountCheck, the mount-time "trust the bitmap" repair pass (spec.md §4.8)
// runs and, if it found anything, its correction is flushed before Mount
// returns.
func Mount(stream io.ReadWriteSeeker, flags dskfs.MountFlags) (*Driver, error) {
	v, err := volume.Mount(stream, flags.ReadOnly())
	if err != nil {
		return nil, err
	}

	if flags.CheckFsck() {
		if reports := repair.Repair(v); len(reports) > 0 {
			if err := v.SyncMetadata(); err != nil {
				return nil, err
			}
		}
	}

	return &Driver{vol: v, ops: fsops.New(v), flags: flags}, nil
}

// FormatAndMount formats stream fresh with totalInodes inodes, then mounts
// it — the "-F" / MountFormat path (spec.md §6's CLI surface, SPEC_FULL.md
// §10).
func FormatAndMount(stream io.ReadWriteSeeker, totalInodes uint32, flags dskfs.MountFlags) (*Driver, error) {
	if err := volume.Format(stream, totalInodes); err != nil {
		return nil, err
	}
	return Mount(stream, flags&^dskfs.MountFormat)
}

// CurrentMountFlags reports the flags this driver was mounted with.
func (d *Driver) CurrentMountFlags() dskfs.MountFlags {
	return d.flags
}

// Ops exposes the bound operation surface for a kernel-bridge adapter to
// dispatch onto.
func (d *Driver) Ops() *fsops.Ops {
	return d.ops
}

// GetFSInfo reports volume-level statistics (spec.md §4.8 statfs).
func (d *Driver) GetFSInfo() dskfs.FSStat {
	return d.ops.Statfs()
}

// Check runs the bitmap-accounting consistency pass without correcting
// anything it finds (spec.md §4.8's state-machine note), for fsck's
// read-only report mode.
func (d *Driver) Check() ([]repair.Report, error) {
	return repair.Check(d.vol)
}

// Repair runs the same pass and corrects any drift it finds, leaving the
// volume dirty until the caller's Unmount flushes it back to stream.
func (d *Driver) Repair() []repair.Report {
	return repair.Repair(d.vol)
}

// Unmount flushes pending metadata and transitions the volume to unmounted.
func (d *Driver) Unmount() error {
	return d.vol.Teardown()
}
