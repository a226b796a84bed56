package dskfs

import (
	"os"
	"syscall"
	"time"
)

// BlockSize is the fixed block size of the on-disk format (spec.md §6).
const BlockSize = 4096

// MagicNumber identifies the on-disk format (spec.md §6).
const MagicNumber = 0xEF53

// NameMax is the maximum directory entry name length, including the null
// terminator (spec.md §3/§6).
const NameMax = 256

// DirectPointers is the number of direct block pointers in an inode
// (spec.md §3).
const DirectPointers = 12

// RootInode is the inode number of the root directory (spec.md §3).
const RootInode = 1

// FileStat is the platform-independent result of a getattr call (spec.md
// §4.8).
type FileStat struct {
	InodeNumber  uint64
	Mode         uint32
	Nlink        uint32
	Uid          uint32
	Gid          uint32
	Size         int64
	AccessedAt   time.Time
	ModifiedAt   time.Time
	ChangedAt    time.Time
	BlockSize    int64
	NumBlocks    int64
}

func (s *FileStat) IsDir() bool {
	return IsDir(s.Mode)
}

func (s *FileStat) IsRegular() bool {
	return IsRegular(s.Mode)
}

// FSStat is the platform-independent result of a statfs call (spec.md §4.8).
type FSStat struct {
	BlockSize     int64
	TotalBlocks   uint64
	FreeBlocks    uint64
	TotalInodes   uint64
	FreeInodes    uint64
	MaxNameLength int64
}

// IOFlags mirror the subset of POSIX open(2) flags the engine understands.
// The values are the host's own open(2) flag bits, so kernel-supplied flags
// convert directly with IOFlags(flags).
type IOFlags int

const (
	O_RDONLY IOFlags = syscall.O_RDONLY
	O_WRONLY IOFlags = syscall.O_WRONLY
	O_RDWR   IOFlags = syscall.O_RDWR
	O_CREATE IOFlags = syscall.O_CREAT
	O_EXCL   IOFlags = syscall.O_EXCL
	O_TRUNC  IOFlags = syscall.O_TRUNC
	O_APPEND IOFlags = syscall.O_APPEND
)

func (f IOFlags) Write() bool   { return f&(O_WRONLY|O_RDWR) != 0 }
func (f IOFlags) Read() bool    { return f&O_WRONLY == 0 }
func (f IOFlags) Create() bool  { return f&O_CREATE != 0 }
func (f IOFlags) Excl() bool    { return f&O_EXCL != 0 }
func (f IOFlags) Truncate() bool { return f&O_TRUNC != 0 }
func (f IOFlags) Append() bool  { return f&O_APPEND != 0 }

// DirectoryEntry is one entry yielded by readdir (spec.md §4.6/§4.8).
type DirectoryEntry struct {
	Name  string
	Inode uint64
	Mode  uint32
}

func (d DirectoryEntry) IsDir() bool {
	return IsDir(d.Mode)
}

// timeToUnix32/unix32ToTime convert between the 32-bit second-resolution
// on-disk timestamp fields (spec.md §6) and time.Time.
func timeToUnix32(t time.Time) uint32 {
	if t.IsZero() {
		return 0
	}
	return uint32(t.Unix())
}

func unix32ToTime(sec uint32) time.Time {
	return time.Unix(int64(sec), 0).UTC()
}

var _ = os.ModeDir // keep os imported for FileMode interop in callers
