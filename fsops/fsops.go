// Package fsops composes the block device, bitmap allocators, inode codec,
// block-map walker, directory layer, and path resolver into the POSIX-shaped
// operation set of spec §4.8: getattr, readdir, open, read, write, create,
// mkdir, unlink, rmdir, rename, truncate, utimens, flush, fsync, statfs, and
// the xattr stubs.
package fsops

import (
	"errors"
	"time"

	"github.com/dskfs/dskfs"
	"github.com/dskfs/dskfs/blockmap"
	"github.com/dskfs/dskfs/directory"
	"github.com/dskfs/dskfs/inode"
	"github.com/dskfs/dskfs/pathresolver"
	"github.com/dskfs/dskfs/volume"
)

// Ops is the operation surface bound to one mounted volume. Every method
// takes the volume's coarse lock for its duration and releases it before
// returning (spec §5: operations are exclusive and never suspend except on
// backing-store I/O).
type Ops struct {
	Volume *volume.Volume
}

// New binds an operation surface to a mounted volume.
func New(v *volume.Volume) *Ops {
	return &Ops{Volume: v}
}

func (o *Ops) resolve(path string) (uint32, error) {
	return pathresolver.Resolve(o.Volume.Device(), o.Volume, path)
}

func (o *Ops) resolveParent(path string) (uint32, string, error) {
	return pathresolver.ResolveParent(o.Volume.Device(), o.Volume, path)
}

func (o *Ops) checkWritable() error {
	if o.Volume.ReadOnly() {
		return dskfs.ErrNotSupported.WithMessage("volume is mounted read-only")
	}
	return nil
}

// Getattr resolves path and emits its stat record (spec §4.8 getattr).
func (o *Ops) Getattr(path string) (dskfs.FileStat, error) {
	o.Volume.Lock()
	defer o.Volume.Unlock()

	ino, err := o.resolve(path)
	if err != nil {
		return dskfs.FileStat{}, err
	}
	raw, err := o.Volume.LoadInode(ino)
	if err != nil {
		return dskfs.FileStat{}, err
	}
	return inode.ToFileStat(ino, raw), nil
}

// Access resolves path and returns success; permission enforcement is
// delegated to the bridge (spec §4.8 access).
func (o *Ops) Access(path string, _ int) error {
	o.Volume.Lock()
	defer o.Volume.Unlock()

	_, err := o.resolve(path)
	return err
}

// Readdir resolves path and lists its directory entries. "." and ".." come
// back as ordinary entries since WriteInitialBlock wrote them to disk when
// the directory was created (spec §4.6/§4.8).
func (o *Ops) Readdir(path string) ([]dskfs.DirectoryEntry, error) {
	o.Volume.Lock()
	defer o.Volume.Unlock()

	ino, err := o.resolve(path)
	if err != nil {
		return nil, err
	}
	raw, err := o.Volume.LoadInode(ino)
	if err != nil {
		return nil, err
	}
	if !dskfs.IsDir(raw.Mode) {
		return nil, dskfs.ErrNotDirectory
	}

	entries, err := directory.List(o.Volume.Device(), raw)
	if err != nil {
		return nil, err
	}

	out := make([]dskfs.DirectoryEntry, 0, len(entries)+2)
	for _, e := range entries {
		childRaw, err := o.Volume.LoadInode(e.Inode)
		if err != nil {
			return nil, err
		}
		out = append(out, dskfs.DirectoryEntry{Name: e.Name, Inode: uint64(e.Inode), Mode: childRaw.Mode})
	}
	return out, nil
}

// Open resolves path and returns its inode number as the handle identifier
// (spec §4.8 open).
func (o *Ops) Open(path string, flags dskfs.IOFlags) (uint64, error) {
	o.Volume.Lock()
	defer o.Volume.Unlock()

	if flags.Write() {
		if err := o.checkWritable(); err != nil {
			return 0, err
		}
	}

	ino, err := o.resolve(path)
	if err == nil {
		if flags.Create() && flags.Excl() {
			return 0, dskfs.ErrExists
		}
		if flags.Truncate() && flags.Write() {
			raw, err := o.Volume.LoadInode(ino)
			if err != nil {
				return 0, err
			}
			if err := o.truncateLocked(ino, raw, 0); err != nil {
				return 0, err
			}
		}
		return uint64(ino), nil
	}
	if !flags.Create() || !errors.Is(err, dskfs.ErrNotFound) {
		return 0, err
	}

	created, err := o.createLocked(path, dskfs.ModeRegular|0o644)
	if err != nil {
		return 0, err
	}
	return uint64(created), nil
}

// Read loads the inode for path and copies up to size bytes starting at
// offset into the return slice, clipped against the file's size. Holes read
// as zero bytes (spec §4.5/§4.8 read).
func (o *Ops) Read(path string, size int, offset int64) ([]byte, error) {
	o.Volume.Lock()
	defer o.Volume.Unlock()

	ino, err := o.resolve(path)
	if err != nil {
		return nil, err
	}
	raw, err := o.Volume.LoadInode(ino)
	if err != nil {
		return nil, err
	}
	if dskfs.IsDir(raw.Mode) {
		return nil, dskfs.ErrIsDirectory
	}

	if offset >= int64(raw.Size) {
		return []byte{}, nil
	}
	if offset+int64(size) > int64(raw.Size) {
		size = int(int64(raw.Size) - offset)
	}

	out := make([]byte, size)
	resolver := o.Volume.Resolver()

	for remaining := size; remaining > 0; {
		logical := uint32(offset / dskfs.BlockSize)
		inBlock := int(offset % dskfs.BlockSize)
		toCopy := dskfs.BlockSize - int64(inBlock)
		if int64(remaining) < toCopy {
			toCopy = int64(remaining)
		}

		phys, err := resolver.Resolve(raw, logical, false)
		if err != nil {
			return nil, err
		}

		dst := out[int64(size-remaining) : int64(size-remaining)+toCopy]
		if phys == 0 {
			// Hole: leave dst zeroed.
		} else {
			block, err := o.Volume.Device().ReadBlock(phys)
			if err != nil {
				return nil, err
			}
			copy(dst, block[inBlock:int64(inBlock)+toCopy])
		}

		offset += toCopy
		remaining -= int(toCopy)
	}

	return out, nil
}

// Write resolves path, writes buf at offset (allocating blocks as needed),
// extends size if the write grows the file, and updates mtime/ctime (spec
// §4.8 write). On a mid-write allocation failure it returns the number of
// bytes already written as a short write, per spec's no-rollback policy for
// write.
func (o *Ops) Write(path string, buf []byte, offset int64) (int, error) {
	o.Volume.Lock()
	defer o.Volume.Unlock()

	if err := o.checkWritable(); err != nil {
		return 0, err
	}

	ino, err := o.resolve(path)
	if err != nil {
		return 0, err
	}
	raw, err := o.Volume.LoadInode(ino)
	if err != nil {
		return 0, err
	}
	if dskfs.IsDir(raw.Mode) {
		return 0, dskfs.ErrIsDirectory
	}

	resolver := o.Volume.Resolver()
	written := 0
	cur := offset

	for written < len(buf) {
		logical := uint32(cur / dskfs.BlockSize)
		inBlock := int(cur % dskfs.BlockSize)
		toCopy := dskfs.BlockSize - int64(inBlock)
		if remaining := len(buf) - written; int64(remaining) < toCopy {
			toCopy = int64(remaining)
		}

		phys, resolveErr := resolver.Resolve(raw, logical, true)
		if resolveErr != nil {
			if written > 0 {
				o.finishWrite(ino, raw, offset, written)
				return written, resolveErr
			}
			return 0, resolveErr
		}

		block, err := o.Volume.Device().ReadBlock(phys)
		if err != nil {
			return written, err
		}
		copy(block[inBlock:int64(inBlock)+toCopy], buf[written:int64(written)+toCopy])
		if err := o.Volume.Device().WriteBlock(phys, block); err != nil {
			return written, err
		}

		cur += toCopy
		written += int(toCopy)
	}

	if err := o.finishWrite(ino, raw, offset, written); err != nil {
		return written, err
	}
	return written, nil
}

func (o *Ops) finishWrite(ino uint32, raw *inode.Raw, offset int64, written int) error {
	if offset+int64(written) > int64(raw.Size) {
		raw.Size = uint32(offset + int64(written))
	}
	now := inode.TimeToUnix(time.Now())
	raw.Mtime = now
	raw.Ctime = now
	o.Volume.Dirty()
	return o.Volume.SyncInode(ino, raw)
}

// Create and Mkdir share the same allocate-initialize-link-rollback shape
// (spec §4.8); Open's O_CREAT path and the exported Create/Mkdir entry
// points all funnel through createLocked/mkdirLocked, which assume the
// volume lock is already held.

// Create resolves path's parent, allocates a regular-file inode, and links
// it into the parent directory (spec §4.8 create).
func (o *Ops) Create(path string, mode uint32) (uint64, error) {
	o.Volume.Lock()
	defer o.Volume.Unlock()

	if err := o.checkWritable(); err != nil {
		return 0, err
	}
	ino, err := o.createLocked(path, dskfs.ModeRegular|(mode&dskfs.ModePermMask))
	return uint64(ino), err
}

func (o *Ops) createLocked(path string, mode uint32) (uint32, error) {
	parentIno, name, err := o.resolveParent(path)
	if err != nil {
		return 0, err
	}
	if name == "" {
		return 0, dskfs.ErrInvalid.WithMessage("empty file name")
	}

	parentRaw, err := o.Volume.LoadInode(parentIno)
	if err != nil {
		return 0, err
	}
	if !dskfs.IsDir(parentRaw.Mode) {
		return 0, dskfs.ErrNotDirectory
	}
	if _, err := directory.Lookup(o.Volume.Device(), parentRaw, name); err == nil {
		return 0, dskfs.ErrExists
	}

	childIno, err := o.Volume.AllocateInode()
	if err != nil {
		return 0, err
	}

	now := inode.TimeToUnix(time.Now())
	child := &inode.Raw{Mode: mode, Atime: now, Mtime: now, Ctime: now}
	if err := o.Volume.SyncInode(childIno, child); err != nil {
		o.Volume.FreeInode(childIno)
		return 0, err
	}

	if err := directory.Insert(o.Volume.Device(), o.Volume.Resolver(), parentRaw, name, childIno); err != nil {
		o.Volume.FreeInode(childIno)
		return 0, err
	}

	parentRaw.Mtime = now
	parentRaw.Ctime = now
	if err := o.Volume.SyncInode(parentIno, parentRaw); err != nil {
		return 0, err
	}

	return childIno, nil
}

// Mkdir resolves path's parent, allocates a directory inode, writes its "."
// and ".." entries, and links it into the parent (spec §4.8 mkdir).
func (o *Ops) Mkdir(path string, mode uint32) error {
	o.Volume.Lock()
	defer o.Volume.Unlock()

	if err := o.checkWritable(); err != nil {
		return err
	}

	parentIno, name, err := o.resolveParent(path)
	if err != nil {
		return err
	}
	if name == "" {
		return dskfs.ErrInvalid.WithMessage("empty directory name")
	}

	parentRaw, err := o.Volume.LoadInode(parentIno)
	if err != nil {
		return err
	}
	if !dskfs.IsDir(parentRaw.Mode) {
		return dskfs.ErrNotDirectory
	}
	if _, err := directory.Lookup(o.Volume.Device(), parentRaw, name); err == nil {
		return dskfs.ErrExists
	}

	childIno, err := o.Volume.AllocateInode()
	if err != nil {
		return err
	}

	now := inode.TimeToUnix(time.Now())
	child := &inode.Raw{Mode: dskfs.ModeDir | (mode & dskfs.ModePermMask), Atime: now, Mtime: now, Ctime: now}

	// rollback undoes the inode and, if WriteInitialBlock got far enough to
	// set it, the data block it allocated for "."/".." — spec §7 requires
	// mid-operation allocations to be rolled back on mkdir failure.
	rollback := func() {
		if child.Direct[0] != 0 {
			o.Volume.FreeDataBlock(child.Direct[0])
		}
		o.Volume.FreeInode(childIno)
	}

	if err := directory.WriteInitialBlock(o.Volume.Device(), o.Volume.Resolver(), child, childIno, parentIno); err != nil {
		rollback()
		return err
	}
	if err := o.Volume.SyncInode(childIno, child); err != nil {
		rollback()
		return err
	}

	if err := directory.Insert(o.Volume.Device(), o.Volume.Resolver(), parentRaw, name, childIno); err != nil {
		rollback()
		return err
	}

	parentRaw.Mtime = now
	parentRaw.Ctime = now
	return o.Volume.SyncInode(parentIno, parentRaw)
}

// freeInodeBlocks frees every data block referenced by raw's direct array,
// single-indirect tree, and double-indirect tree, per spec §4.8 unlink.
func (o *Ops) freeInodeBlocks(raw *inode.Raw) error {
	resolver := o.Volume.Resolver()

	for i, p := range raw.Direct {
		if p == 0 {
			continue
		}
		if err := o.Volume.FreeDataBlock(p); err != nil {
			return err
		}
		raw.Direct[i] = 0
	}

	if raw.Indirect != 0 {
		ptrs, err := resolver.ReadPointers(raw.Indirect)
		if err != nil {
			return err
		}
		for _, p := range ptrs {
			if p != 0 {
				if err := o.Volume.FreeDataBlock(p); err != nil {
					return err
				}
			}
		}
		if err := o.Volume.FreeDataBlock(raw.Indirect); err != nil {
			return err
		}
		raw.Indirect = 0
	}

	if raw.DoubleIndirect != 0 {
		outer, err := resolver.ReadPointers(raw.DoubleIndirect)
		if err != nil {
			return err
		}
		for _, inner := range outer {
			if inner == 0 {
				continue
			}
			innerPtrs, err := resolver.ReadPointers(inner)
			if err != nil {
				return err
			}
			for _, p := range innerPtrs {
				if p != 0 {
					if err := o.Volume.FreeDataBlock(p); err != nil {
						return err
					}
				}
			}
			if err := o.Volume.FreeDataBlock(inner); err != nil {
				return err
			}
		}
		if err := o.Volume.FreeDataBlock(raw.DoubleIndirect); err != nil {
			return err
		}
		raw.DoubleIndirect = 0
	}

	return nil
}

// Unlink resolves path, frees all of its data, frees its inode, and removes
// its entry from the parent directory (spec §4.8 unlink).
func (o *Ops) Unlink(path string) error {
	o.Volume.Lock()
	defer o.Volume.Unlock()

	if err := o.checkWritable(); err != nil {
		return err
	}
	return o.unlinkLocked(path, false)
}

// Rmdir resolves path, rejects non-empty directories, then proceeds exactly
// as unlink (spec §4.8 rmdir).
func (o *Ops) Rmdir(path string) error {
	o.Volume.Lock()
	defer o.Volume.Unlock()

	if err := o.checkWritable(); err != nil {
		return err
	}
	return o.unlinkLocked(path, true)
}

func (o *Ops) unlinkLocked(path string, wantDir bool) error {
	parentIno, name, err := o.resolveParent(path)
	if err != nil {
		return err
	}
	parentRaw, err := o.Volume.LoadInode(parentIno)
	if err != nil {
		return err
	}

	ino, err := directory.Lookup(o.Volume.Device(), parentRaw, name)
	if err != nil {
		return err
	}
	raw, err := o.Volume.LoadInode(ino)
	if err != nil {
		return err
	}

	isDir := dskfs.IsDir(raw.Mode)
	if wantDir && !isDir {
		return dskfs.ErrNotDirectory
	}
	if !wantDir && isDir {
		return dskfs.ErrIsDirectory
	}
	if wantDir {
		empty, err := directory.IsEmpty(o.Volume.Device(), raw)
		if err != nil {
			return err
		}
		if !empty {
			return dskfs.ErrNotEmpty
		}
	}

	if err := directory.Remove(o.Volume.Device(), parentRaw, name); err != nil {
		return err
	}

	now := inode.TimeToUnix(time.Now())
	parentRaw.Mtime = now
	parentRaw.Ctime = now
	if err := o.Volume.SyncInode(parentIno, parentRaw); err != nil {
		return err
	}

	if err := o.freeInodeBlocks(raw); err != nil {
		return err
	}
	if err := inode.Zero(o.Volume.Device(), o.Volume.Superblock().InodeTableStart, o.Volume.Superblock().TotalInodes, ino); err != nil {
		return err
	}
	o.Volume.FreeInode(ino)

	return nil
}

// Rename resolves from, requires to be non-existent (this engine does not
// implement atomic replace), and relinks the entry from the source parent
// into the destination parent (spec §4.8 rename).
func (o *Ops) Rename(from, to string) error {
	o.Volume.Lock()
	defer o.Volume.Unlock()

	if err := o.checkWritable(); err != nil {
		return err
	}

	ino, err := o.resolve(from)
	if err != nil {
		return err
	}
	if _, err := o.resolve(to); err == nil {
		return dskfs.ErrExists
	}

	fromParentIno, fromName, err := o.resolveParent(from)
	if err != nil {
		return err
	}
	toParentIno, toName, err := o.resolveParent(to)
	if err != nil {
		return err
	}

	fromParentRaw, err := o.Volume.LoadInode(fromParentIno)
	if err != nil {
		return err
	}
	if err := directory.Remove(o.Volume.Device(), fromParentRaw, fromName); err != nil {
		return err
	}

	var toParentRaw *inode.Raw
	if toParentIno == fromParentIno {
		toParentRaw = fromParentRaw
	} else {
		toParentRaw, err = o.Volume.LoadInode(toParentIno)
		if err != nil {
			return err
		}
	}
	if err := directory.Insert(o.Volume.Device(), o.Volume.Resolver(), toParentRaw, toName, ino); err != nil {
		return err
	}

	now := inode.TimeToUnix(time.Now())
	fromParentRaw.Mtime = now
	fromParentRaw.Ctime = now
	if err := o.Volume.SyncInode(fromParentIno, fromParentRaw); err != nil {
		return err
	}
	if toParentIno != fromParentIno {
		toParentRaw.Mtime = now
		toParentRaw.Ctime = now
		if err := o.Volume.SyncInode(toParentIno, toParentRaw); err != nil {
			return err
		}
	}

	raw, err := o.Volume.LoadInode(ino)
	if err != nil {
		return err
	}
	raw.Ctime = now
	return o.Volume.SyncInode(ino, raw)
}

// Truncate resolves path and grows or shrinks it to newSize (spec §4.8
// truncate).
func (o *Ops) Truncate(path string, newSize int64) error {
	o.Volume.Lock()
	defer o.Volume.Unlock()

	if err := o.checkWritable(); err != nil {
		return err
	}

	ino, err := o.resolve(path)
	if err != nil {
		return err
	}
	raw, err := o.Volume.LoadInode(ino)
	if err != nil {
		return err
	}
	if dskfs.IsDir(raw.Mode) {
		return dskfs.ErrIsDirectory
	}

	return o.truncateLocked(ino, raw, newSize)
}

// truncateLocked assumes the volume lock is already held; Truncate and
// Open's O_TRUNC path both funnel through it.
func (o *Ops) truncateLocked(ino uint32, raw *inode.Raw, newSize int64) error {
	switch {
	case newSize == int64(raw.Size):
		return nil
	case newSize < int64(raw.Size):
		if err := o.shrink(raw, newSize); err != nil {
			return err
		}
		raw.Size = uint32(newSize)
	default:
		// Growing never allocates: the new range reads back as zeros
		// through Resolve's hole handling until something actually
		// writes into it (spec §4.8 truncate).
		raw.Size = uint32(newSize)
	}

	now := inode.TimeToUnix(time.Now())
	raw.Mtime = now
	raw.Ctime = now
	return o.Volume.SyncInode(ino, raw)
}

func (o *Ops) shrink(raw *inode.Raw, newSize int64) error {
	boundary := uint32((newSize + dskfs.BlockSize - 1) / dskfs.BlockSize)
	resolver := o.Volume.Resolver()

	for k := boundary; k < dskfs.DirectPointers; k++ {
		if raw.Direct[k] != 0 {
			if err := o.Volume.FreeDataBlock(raw.Direct[k]); err != nil {
				return err
			}
			raw.Direct[k] = 0
		}
	}

	indirectStart := uint32(dskfs.DirectPointers)
	indirectEnd := indirectStart + blockmap.PointersPerBlock
	if boundary < indirectEnd && raw.Indirect != 0 {
		ptrs, err := resolver.ReadPointers(raw.Indirect)
		if err != nil {
			return err
		}
		start := uint32(0)
		if boundary > indirectStart {
			start = boundary - indirectStart
		}
		changed := false
		for i := start; i < uint32(len(ptrs)); i++ {
			if ptrs[i] != 0 {
				if err := o.Volume.FreeDataBlock(ptrs[i]); err != nil {
					return err
				}
				ptrs[i] = 0
				changed = true
			}
		}
		if changed {
			if err := resolver.WritePointers(raw.Indirect, ptrs); err != nil {
				return err
			}
		}
		allZero, err := resolver.IsAllZero(raw.Indirect)
		if err != nil {
			return err
		}
		if allZero {
			if err := o.Volume.FreeDataBlock(raw.Indirect); err != nil {
				return err
			}
			raw.Indirect = 0
		}
	}

	doubleStart := indirectEnd
	if boundary < doubleStart+blockmap.PointersPerBlock*blockmap.PointersPerBlock && raw.DoubleIndirect != 0 {
		outer, err := resolver.ReadPointers(raw.DoubleIndirect)
		if err != nil {
			return err
		}
		outerChanged := false
		for oi, innerBlock := range outer {
			if innerBlock == 0 {
				continue
			}
			innerBase := doubleStart + uint32(oi)*blockmap.PointersPerBlock
			if boundary >= innerBase+blockmap.PointersPerBlock {
				continue
			}

			ptrs, err := resolver.ReadPointers(innerBlock)
			if err != nil {
				return err
			}
			start := uint32(0)
			if boundary > innerBase {
				start = boundary - innerBase
			}
			changed := false
			for i := start; i < uint32(len(ptrs)); i++ {
				if ptrs[i] != 0 {
					if err := o.Volume.FreeDataBlock(ptrs[i]); err != nil {
						return err
					}
					ptrs[i] = 0
					changed = true
				}
			}
			if changed {
				if err := resolver.WritePointers(innerBlock, ptrs); err != nil {
					return err
				}
			}

			allZero, err := resolver.IsAllZero(innerBlock)
			if err != nil {
				return err
			}
			if allZero {
				if err := o.Volume.FreeDataBlock(innerBlock); err != nil {
					return err
				}
				outer[oi] = 0
				outerChanged = true
			}
		}
		if outerChanged {
			if err := resolver.WritePointers(raw.DoubleIndirect, outer); err != nil {
				return err
			}
		}
		allZero, err := resolver.IsAllZero(raw.DoubleIndirect)
		if err != nil {
			return err
		}
		if allZero {
			if err := o.Volume.FreeDataBlock(raw.DoubleIndirect); err != nil {
				return err
			}
			raw.DoubleIndirect = 0
		}
	}

	return nil
}

// Utimens sets atime/mtime from the given values; nil means "leave
// unchanged" (the FUSE adapter maps UTIME_OMIT to nil and UTIME_NOW to a
// freshly-taken time.Now() before calling this). ctime is always set to
// now, matching spec §4.8 utimens (this expansion's *time.Time signature is
// documented in SPEC_FULL.md §11).
func (o *Ops) Utimens(path string, atime, mtime *time.Time) error {
	o.Volume.Lock()
	defer o.Volume.Unlock()

	if err := o.checkWritable(); err != nil {
		return err
	}

	ino, err := o.resolve(path)
	if err != nil {
		return err
	}
	raw, err := o.Volume.LoadInode(ino)
	if err != nil {
		return err
	}

	if atime != nil {
		raw.Atime = inode.TimeToUnix(*atime)
	}
	if mtime != nil {
		raw.Mtime = inode.TimeToUnix(*mtime)
	}
	raw.Ctime = inode.TimeToUnix(time.Now())

	o.Volume.Dirty()
	return o.Volume.SyncInode(ino, raw)
}

// Flush and Fsync push the backing store's buffered writes to stable
// storage; neither traverses inodes (spec §4.8).
func (o *Ops) Flush() error {
	o.Volume.Lock()
	defer o.Volume.Unlock()
	return o.Volume.Flush(false)
}

func (o *Ops) Fsync(datasync bool) error {
	o.Volume.Lock()
	defer o.Volume.Unlock()
	return o.Volume.Flush(datasync)
}

// Statfs emits volume-level metadata (spec §4.8 statfs).
func (o *Ops) Statfs() dskfs.FSStat {
	o.Volume.Lock()
	defer o.Volume.Unlock()
	return o.Volume.Stat()
}

// Listxattr, Getxattr, Setxattr, and Removexattr always report "not
// supported" (spec §1 non-goals, §9 open question 2, §6 wire surface).
func (o *Ops) Listxattr(string) ([]string, error)         { return nil, dskfs.ErrNotSupported }
func (o *Ops) Getxattr(string, string) ([]byte, error)    { return nil, dskfs.ErrNotSupported }
func (o *Ops) Setxattr(string, string, []byte) error      { return dskfs.ErrNotSupported }
func (o *Ops) Removexattr(string, string) error           { return dskfs.ErrNotSupported }
