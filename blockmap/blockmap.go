// Package blockmap translates a file-relative logical block index into a
// physical block number by walking an inode's direct, single-indirect, and
// double-indirect pointers (spec §3/§4.5), allocating pointer and data
// blocks on demand when the walk is performed for a write.
package blockmap

import (
	"encoding/binary"

	"github.com/dskfs/dskfs"
	"github.com/dskfs/dskfs/bitmap"
	"github.com/dskfs/dskfs/blockdev"
	"github.com/dskfs/dskfs/inode"
)

// PointersPerBlock is the number of u32 pointers that fit in one block
// (spec §3: P = B/4).
const PointersPerBlock = dskfs.BlockSize / 4

// MaxLogicalBlocks is the highest logical block index (exclusive) reachable
// through direct + single-indirect + double-indirect pointers, the
// addressable extent beyond which writes fail with dskfs.ErrTooBig.
const MaxLogicalBlocks = dskfs.DirectPointers + PointersPerBlock + PointersPerBlock*PointersPerBlock

// Resolver walks the block-map tree of a single inode against a backing
// store and a block allocator.
type Resolver struct {
	dev            *blockdev.Device
	blocks         *bitmap.Allocator
	dataBlockStart uint32
}

// New builds a Resolver over dev, using blocks as the block bitmap allocator
// and dataBlockStart as the first absolute block number of the data region
// (pointer values are absolute volume block numbers, not region-relative;
// spec §3/§9 open question 1).
func New(dev *blockdev.Device, blocks *bitmap.Allocator, dataBlockStart uint32) *Resolver {
	return &Resolver{dev: dev, blocks: blocks, dataBlockStart: dataBlockStart}
}

// locate returns (outer index into a pointer block array, inner index) for
// logical block k that falls in the single- or double-indirect range, along
// with which level it falls in: 0 = direct, 1 = single-indirect, 2 =
// double-indirect.
func locate(k uint32) (level int, idx1, idx2 uint32) {
	if k < dskfs.DirectPointers {
		return 0, k, 0
	}
	k -= dskfs.DirectPointers
	if k < PointersPerBlock {
		return 1, k, 0
	}
	k -= PointersPerBlock
	return 2, k / PointersPerBlock, k % PointersPerBlock
}

func (r *Resolver) readPointerBlock(blockNo uint32) ([]uint32, error) {
	raw, err := r.dev.ReadBlock(blockNo)
	if err != nil {
		return nil, dskfs.CastToError(err)
	}
	ptrs := make([]uint32, PointersPerBlock)
	for i := range ptrs {
		ptrs[i] = binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
	}
	return ptrs, nil
}

func (r *Resolver) writePointerBlock(blockNo uint32, ptrs []uint32) error {
	raw := make([]byte, dskfs.BlockSize)
	for i, p := range ptrs {
		binary.LittleEndian.PutUint32(raw[i*4:i*4+4], p)
	}
	return r.dev.WriteBlock(blockNo, raw)
}

// allocateDataBlock allocates a free bit from the block bitmap and converts
// it to an absolute physical block number.
func (r *Resolver) allocateDataBlock() (uint32, error) {
	rel, err := r.blocks.Allocate(0)
	if err != nil {
		return 0, err
	}
	return r.dataBlockStart + rel, nil
}

// Resolve maps logical block k of raw to a physical block number. If write
// is false, a hole (an unset pointer anywhere along the path) yields
// physical block 0 with no error — the caller treats that as "read zeros".
// If write is true, any unset pointer along the path is allocated, an
// enclosing indirect or double-indirect pointer block is persisted, and
// raw's in-memory pointer fields (direct array, indirect, double-indirect)
// are updated; the caller is responsible for syncing the inode record
// exactly once at the end of its own operation (spec §4.5).
func (r *Resolver) Resolve(raw *inode.Raw, k uint32, write bool) (uint32, error) {
	if k >= MaxLogicalBlocks {
		return 0, dskfs.ErrTooBig
	}

	level, idx1, idx2 := locate(k)

	switch level {
	case 0:
		return r.resolveDirect(raw, idx1, write)
	case 1:
		return r.resolveIndirect(&raw.Indirect, idx1, write)
	default:
		return r.resolveDoubleIndirect(&raw.DoubleIndirect, idx1, idx2, write)
	}
}

func (r *Resolver) resolveDirect(raw *inode.Raw, idx uint32, write bool) (uint32, error) {
	if raw.Direct[idx] != 0 {
		return raw.Direct[idx], nil
	}
	if !write {
		return 0, nil
	}

	phys, err := r.allocateDataBlock()
	if err != nil {
		return 0, err
	}
	raw.Direct[idx] = phys
	return phys, nil
}

// resolveIndirect resolves idx within the single-indirect pointer block
// referenced by *ptrField, allocating the pointer block itself and/or the
// target data block as needed on a write.
func (r *Resolver) resolveIndirect(ptrField *uint32, idx uint32, write bool) (uint32, error) {
	if *ptrField == 0 {
		if !write {
			return 0, nil
		}
		blockNo, err := r.allocateDataBlock()
		if err != nil {
			return 0, err
		}
		if err := r.dev.ZeroBlock(blockNo); err != nil {
			return 0, err
		}
		*ptrField = blockNo
	}

	ptrs, err := r.readPointerBlock(*ptrField)
	if err != nil {
		return 0, err
	}

	if ptrs[idx] != 0 {
		return ptrs[idx], nil
	}
	if !write {
		return 0, nil
	}

	phys, err := r.allocateDataBlock()
	if err != nil {
		return 0, err
	}
	ptrs[idx] = phys
	if err := r.writePointerBlock(*ptrField, ptrs); err != nil {
		return 0, err
	}
	return phys, nil
}

// resolveDoubleIndirect resolves (outer, inner) within the double-indirect
// tree referenced by *ptrField.
func (r *Resolver) resolveDoubleIndirect(ptrField *uint32, outer, inner uint32, write bool) (uint32, error) {
	if *ptrField == 0 {
		if !write {
			return 0, nil
		}
		blockNo, err := r.allocateDataBlock()
		if err != nil {
			return 0, err
		}
		if err := r.dev.ZeroBlock(blockNo); err != nil {
			return 0, err
		}
		*ptrField = blockNo
	}

	outerPtrs, err := r.readPointerBlock(*ptrField)
	if err != nil {
		return 0, err
	}

	before := outerPtrs[outer]
	phys, err := r.resolveIndirect(&outerPtrs[outer], inner, write)
	if err != nil {
		return 0, err
	}
	if outerPtrs[outer] != before {
		if err := r.writePointerBlock(*ptrField, outerPtrs); err != nil {
			return 0, err
		}
	}
	return phys, nil
}

// IsAllZero reports whether every pointer in a block read from blockNo is
// zero, used by truncate to decide whether an indirect or double-indirect
// pointer block can itself be freed (spec §4.8 truncate).
func (r *Resolver) IsAllZero(blockNo uint32) (bool, error) {
	ptrs, err := r.readPointerBlock(blockNo)
	if err != nil {
		return false, err
	}
	for _, p := range ptrs {
		if p != 0 {
			return false, nil
		}
	}
	return true, nil
}

// ReadPointers exposes the decoded pointer array of an indirect or
// double-indirect block, used by unlink/truncate to enumerate and free the
// blocks it references.
func (r *Resolver) ReadPointers(blockNo uint32) ([]uint32, error) {
	return r.readPointerBlock(blockNo)
}

// WritePointers persists a pointer array back to blockNo, used by truncate
// after it has zeroed some of an indirect or double-indirect block's entries.
func (r *Resolver) WritePointers(blockNo uint32, ptrs []uint32) error {
	return r.writePointerBlock(blockNo, ptrs)
}

// ToPhysical converts a data-region-relative index into an absolute block
// number (spec §4.5 write path).
func (r *Resolver) ToPhysical(relative uint32) uint32 {
	return r.dataBlockStart + relative
}
