// Package bitmap implements the two allocation bitmaps of spec §4.3: a
// byte-packed, LSB-first array where bit i records whether object i is
// allocated. Both the inode bitmap and the block bitmap are instances of the
// same Allocator type; the caller supplies the starting bit to honor the
// "bit 0/1 reserved" rule for each (spec §3).
package bitmap

import (
	"github.com/boljen/go-bitmap"
	"github.com/dskfs/dskfs"
)

// Allocator holds one bitmap resident in memory while the volume is
// mounted, along with a running free-bit counter so free_inodes/free_blocks
// never require a full rescan.
type Allocator struct {
	bits      bitmap.Bitmap
	totalBits uint32
	free      uint32
}

// New creates a fresh, all-clear allocator over totalBits bits. Every bit
// starts free; callers reserve the sentinel bits (object 0, and object 1 for
// the root directory's inode) explicitly with Reserve.
func New(totalBits uint32) *Allocator {
	return &Allocator{
		bits:      bitmap.New(int(totalBits)),
		totalBits: totalBits,
		free:      totalBits,
	}
}

// Load wraps raw, already-decoded bitmap bytes read from disk, alongside the
// free-bit count recorded in the superblock. It does not recompute the free
// count from the bits; repair.Check cross-checks it against the bitmap's
// PopCount at mount time.
func Load(data []byte, totalBits uint32, freeCount uint32) *Allocator {
	buf := make(bitmap.Bitmap, len(data))
	copy(buf, data)
	return &Allocator{bits: buf, totalBits: totalBits, free: freeCount}
}

// Bytes returns the raw byte-packed bitmap buffer, for writing to disk via
// Sync.
func (a *Allocator) Bytes() []byte {
	return a.bits
}

// TotalBits returns the number of addressable bits (inodes or blocks).
func (a *Allocator) TotalBits() uint32 {
	return a.totalBits
}

// Free returns the number of currently-clear bits.
func (a *Allocator) Free() uint32 {
	return a.free
}

// Get reports whether bit i is set (object i is allocated).
func (a *Allocator) Get(i uint32) bool {
	if i >= a.totalBits {
		return false
	}
	return a.bits.Get(int(i))
}

// Reserve marks bit i allocated and decrements the free counter, without
// Allocate's scan; used only at format time to reserve the sentinel bits
// (object 0, and object 1 for the root inode). Reserving a bit that is
// already set, or an out-of-range bit, is a no-op.
func (a *Allocator) Reserve(i uint32) {
	if i >= a.totalBits || a.bits.Get(int(i)) {
		return
	}
	a.bits.Set(int(i), true)
	a.free--
}

// Allocate scans from startBit one byte at a time, skipping any byte equal
// to 0xFF, and returns the lowest clear bit whose index is < total bits
// (spec §4.3). On success the bit is set and the free counter decremented.
func (a *Allocator) Allocate(startBit uint32) (uint32, error) {
	raw := a.bits

	startByte := startBit / 8
	for byteIdx := int(startByte); byteIdx < len(raw); byteIdx++ {
		if raw[byteIdx] == 0xFF {
			continue
		}

		base := uint32(byteIdx) * 8
		for bit := 0; bit < 8; bit++ {
			idx := base + uint32(bit)
			if idx < startBit || idx >= a.totalBits {
				continue
			}
			if raw[byteIdx]&(1<<uint(bit)) == 0 {
				raw[byteIdx] |= 1 << uint(bit)
				a.free--
				return idx, nil
			}
		}
	}

	return 0, dskfs.ErrNoSpace
}

// Release clears bit index and increments the free counter. Releasing bit
// 0, or an out-of-range index, is a no-op (spec §4.3).
func (a *Allocator) Release(index uint32) {
	if index == 0 || index >= a.totalBits {
		return
	}
	if !a.bits.Get(int(index)) {
		return
	}
	a.bits.Set(int(index), false)
	a.free++
}

// PopCount returns the number of set bits, used by the repair pass and by
// tests to verify popcount(bitmap) == total - free (spec §8 property 1).
func (a *Allocator) PopCount() uint32 {
	var count uint32
	for i := uint32(0); i < a.totalBits; i++ {
		if a.bits.Get(int(i)) {
			count++
		}
	}
	return count
}

// SetFree overwrites the free counter, used by the repair pass once it has
// recomputed the true count from the bitmap bits.
func (a *Allocator) SetFree(free uint32) {
	a.free = free
}

// BlockCount returns the number of whole dskfs.BlockSize blocks occupied by
// a bitmap covering totalBits bits, rounded up.
func BlockCount(totalBits uint32) uint32 {
	bytesNeeded := (totalBits + 7) / 8
	bitsPerBlock := uint32(dskfs.BlockSize)
	bytesPerBlock := bitsPerBlock / 8
	return (bytesNeeded + bytesPerBlock - 1) / bytesPerBlock
}
