// Package volume owns the mounted-volume state: the backing device, the two
// resident bitmaps, and the in-memory superblock, all behind a single coarse
// mutex (spec §5). It implements the mount-state machine of spec §4.8:
// Unmounted, Mounted(clean), Mounted(dirty).
package volume

import (
	"io"
	"sync"
	"time"

	"github.com/dskfs/dskfs"
	"github.com/dskfs/dskfs/bitmap"
	"github.com/dskfs/dskfs/blockdev"
	"github.com/dskfs/dskfs/blockmap"
	"github.com/dskfs/dskfs/directory"
	"github.com/dskfs/dskfs/inode"
	"github.com/dskfs/dskfs/superblock"
)

func defaultNow() time.Time { return time.Now() }

// State is one of the three mount states of spec §4.8.
type State int

const (
	Unmounted State = iota
	MountedClean
	MountedDirty
)

func (s State) String() string {
	switch s {
	case Unmounted:
		return "unmounted"
	case MountedClean:
		return "mounted (clean)"
	case MountedDirty:
		return "mounted (dirty)"
	default:
		return "unknown"
	}
}

// Volume is the single owning value for a mounted filesystem image: the
// backing device, both bitmaps, and the superblock. Operations take
// exclusive access to the whole volume for their duration via mu (spec §5:
// "a single coarse mutex suffices; no per-inode locking").
type Volume struct {
	mu sync.Mutex

	dev       *blockdev.Device
	sb        *superblock.Superblock
	inodes    *bitmap.Allocator
	blocks    *bitmap.Allocator
	resolver  *blockmap.Resolver
	state     State
	readOnly  bool
}

// Format builds a fresh volume on stream: it computes region sizes from the
// backing store's block count and the requested inode count, writes a fresh
// superblock, reserves inodes 0 and 1 in the inode bitmap, and writes the
// root directory inode as an empty directory whose first data block (block
// bitmap bit 0) holds "." and ".." (spec §4.2). Format does not mount the
// volume; call Mount to bring it up.
func Format(stream io.ReadWriteSeeker, totalInodes uint32) error {
	totalBlocks, err := blockdev.DetermineBlockCount(stream)
	if err != nil {
		return err
	}

	layout, err := superblock.ComputeLayout(totalBlocks, totalInodes)
	if err != nil {
		return err
	}
	sb := layout.Superblock

	dev := blockdev.New(stream, totalBlocks)

	inodeBits := bitmap.New(totalInodes)
	inodeBits.Reserve(0)
	inodeBits.Reserve(dskfs.RootInode)

	blockBits := bitmap.New(totalBlocks - sb.DataBlockStart)
	resolver := blockmap.New(dev, blockBits, sb.DataBlockStart)

	now := inode.TimeToUnix(nowFunc())
	root := &inode.Raw{
		Mode:  dskfs.ModeDir | 0o755,
		Atime: now,
		Mtime: now,
		Ctime: now,
	}
	if err := directory.WriteInitialBlock(dev, resolver, root, dskfs.RootInode, dskfs.RootInode); err != nil {
		return err
	}
	if err := inode.Sync(dev, sb.InodeTableStart, sb.TotalInodes, dskfs.RootInode, root); err != nil {
		return err
	}

	if err := syncBitmaps(dev, &sb, inodeBits, blockBits); err != nil {
		return err
	}
	return sb.Sync(dev)
}

// nowFunc exists so tests could substitute a fixed clock; production always
// uses time.Now via the default below.
var nowFunc = defaultNow

// Mount loads the superblock and both bitmaps from stream and returns a
// mounted Volume ready to serve operations. readOnly disables every
// mutating operation at the fsops layer.
func Mount(stream io.ReadWriteSeeker, readOnly bool) (*Volume, error) {
	totalBlocks, err := blockdev.DetermineBlockCount(stream)
	if err != nil {
		return nil, err
	}
	dev := blockdev.New(stream, totalBlocks)

	sb, err := superblock.Load(dev)
	if err != nil {
		return nil, err
	}

	inodeBitsBuf, err := readBitmapBytes(dev, sb.InodeBitmapStart, sb.BlockBitmapStart-sb.InodeBitmapStart)
	if err != nil {
		return nil, err
	}
	blockBitsBuf, err := readBitmapBytes(dev, sb.BlockBitmapStart, sb.InodeTableStart-sb.BlockBitmapStart)
	if err != nil {
		return nil, err
	}

	inodeBits := bitmap.Load(inodeBitsBuf, sb.TotalInodes, sb.FreeInodes)
	blockBits := bitmap.Load(blockBitsBuf, sb.TotalBlocks, sb.FreeBlocks)
	resolver := blockmap.New(dev, blockBits, sb.DataBlockStart)

	return &Volume{
		dev:      dev,
		sb:       sb,
		inodes:   inodeBits,
		blocks:   blockBits,
		resolver: resolver,
		state:    MountedClean,
		readOnly: readOnly,
	}, nil
}

func readBitmapBytes(dev *blockdev.Device, start, count uint32) ([]byte, error) {
	buf := make([]byte, 0, int64(count)*dskfs.BlockSize)
	for i := uint32(0); i < count; i++ {
		block, err := dev.ReadBlock(start + i)
		if err != nil {
			return nil, err
		}
		buf = append(buf, block...)
	}
	return buf, nil
}

func syncBitmaps(dev *blockdev.Device, sb *superblock.Superblock, inodeBits, blockBits *bitmap.Allocator) error {
	if err := writeBitmapBytes(dev, sb.InodeBitmapStart, sb.BlockBitmapStart-sb.InodeBitmapStart, inodeBits.Bytes()); err != nil {
		return err
	}
	return writeBitmapBytes(dev, sb.BlockBitmapStart, sb.InodeTableStart-sb.BlockBitmapStart, blockBits.Bytes())
}

func writeBitmapBytes(dev *blockdev.Device, start, count uint32, data []byte) error {
	for i := uint32(0); i < count; i++ {
		lo := int64(i) * dskfs.BlockSize
		hi := lo + dskfs.BlockSize
		block := make([]byte, dskfs.BlockSize)
		if lo < int64(len(data)) {
			end := hi
			if end > int64(len(data)) {
				end = int64(len(data))
			}
			copy(block, data[lo:end])
		}
		if err := dev.WriteBlock(start+i, block); err != nil {
			return err
		}
	}
	return nil
}

// Lock acquires exclusive access to the volume for the duration of one
// operation. Every fsops entry point calls Lock/Unlock around its body.
func (v *Volume) Lock()   { v.mu.Lock() }
func (v *Volume) Unlock() { v.mu.Unlock() }

// ReadOnly reports whether the volume was mounted read-only.
func (v *Volume) ReadOnly() bool { return v.readOnly }

// State returns the current mount state.
func (v *Volume) State() State { return v.state }

// Dirty transitions Mounted(clean) to Mounted(dirty); called by any
// operation that mutates an allocator, inode, or data block (spec §4.8).
func (v *Volume) Dirty() {
	if v.state == MountedClean {
		v.state = MountedDirty
	}
}

// Device exposes the underlying block device for the fsops and directory
// layers.
func (v *Volume) Device() *blockdev.Device { return v.dev }

// Resolver exposes the block-map walker bound to this volume's block
// allocator and data region offset.
func (v *Volume) Resolver() *blockmap.Resolver { return v.resolver }

// Superblock returns the in-memory superblock. Callers must not mutate it
// except through Volume's own accounting methods.
func (v *Volume) Superblock() *superblock.Superblock { return v.sb }

// InodeBitmap and BlockBitmap expose the resident allocators.
func (v *Volume) InodeBitmap() *bitmap.Allocator { return v.inodes }
func (v *Volume) BlockBitmap() *bitmap.Allocator { return v.blocks }

// LoadInode loads inode i's record, satisfying pathresolver.InodeLoader.
func (v *Volume) LoadInode(i uint32) (*inode.Raw, error) {
	return inode.Load(v.dev, v.sb.InodeTableStart, v.sb.TotalInodes, i)
}

// SyncInode writes inode i's record back. The block-map walker allocates
// data and pointer blocks straight from the block bitmap, so SyncInode also
// brings the superblock's free-block count up to date with the allocator
// (marking the volume dirty if it changed).
func (v *Volume) SyncInode(i uint32, raw *inode.Raw) error {
	if free := v.blocks.Free(); free != v.sb.FreeBlocks {
		v.sb.FreeBlocks = free
		v.Dirty()
	}
	return inode.Sync(v.dev, v.sb.InodeTableStart, v.sb.TotalInodes, i, raw)
}

// AllocateInode reserves a free inode number. The scan starts at bit 1 per
// spec §4.3; bit 1 is always already reserved for the root directory, so in
// practice the first free candidate returned is 2 or higher.
func (v *Volume) AllocateInode() (uint32, error) {
	i, err := v.inodes.Allocate(1)
	if err != nil {
		return 0, err
	}
	v.sb.FreeInodes = v.inodes.Free()
	v.Dirty()
	return i, nil
}

// FreeInode releases an inode number back to the bitmap.
func (v *Volume) FreeInode(i uint32) {
	v.inodes.Release(i)
	v.sb.FreeInodes = v.inodes.Free()
	v.Dirty()
}

// FreeDataBlock releases an absolute physical block number back to the block
// bitmap, zeroing it first so freed space never leaks stale content (spec
// §4.8 unlink/truncate).
func (v *Volume) FreeDataBlock(physical uint32) error {
	if err := v.dev.ZeroBlock(physical); err != nil {
		return err
	}
	v.blocks.Release(physical - v.sb.DataBlockStart)
	v.sb.FreeBlocks = v.blocks.Free()
	v.Dirty()
	return nil
}

// SyncMetadata writes the superblock and both bitmaps back to disk and
// transitions the volume back to Mounted(clean) (spec §4.8's state machine:
// "fsync/flush/teardown transitions back to clean").
func (v *Volume) SyncMetadata() error {
	if err := syncBitmaps(v.dev, v.sb, v.inodes, v.blocks); err != nil {
		return err
	}
	if err := v.sb.Sync(v.dev); err != nil {
		return err
	}
	v.state = MountedClean
	return nil
}

// Flush pushes the backing store's buffered writes to stable storage, after
// first resyncing metadata if the volume is dirty.
func (v *Volume) Flush(datasync bool) error {
	if v.state == MountedDirty {
		if err := v.SyncMetadata(); err != nil {
			return err
		}
	}
	return v.dev.Flush(datasync)
}

// Teardown resyncs metadata, flushes the backing store, and transitions to
// Unmounted.
func (v *Volume) Teardown() error {
	if err := v.Flush(false); err != nil {
		return err
	}
	v.state = Unmounted
	return nil
}

// Stat reports the volume-level statfs data (spec §4.8 statfs).
func (v *Volume) Stat() dskfs.FSStat {
	return dskfs.FSStat{
		BlockSize:     dskfs.BlockSize,
		TotalBlocks:   uint64(v.sb.TotalBlocks),
		FreeBlocks:    uint64(v.sb.FreeBlocks),
		TotalInodes:   uint64(v.sb.TotalInodes),
		FreeInodes:    uint64(v.sb.FreeInodes),
		MaxNameLength: dskfs.NameMax,
	}
}
