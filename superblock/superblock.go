// Package superblock implements the persistent volume header of spec §3/§4.2:
// magic number, object counts, free counts, and the block offsets of the
// four on-disk regions. It is read at a fixed offset at mount time and
// rewritten on teardown and after allocator mutations.
package superblock

import (
	"bytes"
	"encoding/binary"

	"github.com/dskfs/dskfs"
	"github.com/dskfs/dskfs/bitmap"
	"github.com/dskfs/dskfs/blockdev"
	"github.com/dskfs/dskfs/inode"
	"github.com/noxer/bytewriter"
)

// EncodedSize is the on-disk byte length of a superblock record: nine
// little-endian uint32 fields (spec §6).
const EncodedSize = 9 * 4

// Superblock is the in-memory mirror of the on-disk header. Field order
// matches the bit-exact layout of spec §6.
type Superblock struct {
	Magic             uint32
	TotalInodes       uint32
	TotalBlocks       uint32
	FreeInodes        uint32
	FreeBlocks        uint32
	InodeBitmapStart  uint32
	BlockBitmapStart  uint32
	InodeTableStart   uint32
	DataBlockStart    uint32
}

// Load reads and validates the superblock from block 0 of dev. Returns
// dskfs.ErrBadFormat if the magic number doesn't match.
func Load(dev *blockdev.Device) (*Superblock, error) {
	buf, err := dev.ReadBlock(0)
	if err != nil {
		return nil, dskfs.CastToError(err)
	}

	sb := &Superblock{}
	r := bytes.NewReader(buf[:EncodedSize])
	if err := binary.Read(r, binary.LittleEndian, sb); err != nil {
		return nil, dskfs.ErrIOError.Wrap(err)
	}

	if sb.Magic != dskfs.MagicNumber {
		return nil, dskfs.ErrBadFormat
	}
	if !(sb.InodeBitmapStart < sb.BlockBitmapStart &&
		sb.BlockBitmapStart < sb.InodeTableStart &&
		sb.InodeTableStart < sb.DataBlockStart) {
		return nil, dskfs.ErrBadFormat.WithMessage("region offsets are not strictly ordered")
	}

	return sb, nil
}

// Sync writes the superblock back to block 0 of dev.
func (sb *Superblock) Sync(dev *blockdev.Device) error {
	buf := make([]byte, dskfs.BlockSize)
	w := bytewriter.New(buf[:EncodedSize])
	if err := binary.Write(w, binary.LittleEndian, sb); err != nil {
		return dskfs.ErrIOError.Wrap(err)
	}
	return dev.WriteBlock(0, buf)
}

// Layout is the result of computing region sizes for a fresh volume of a
// given total block and inode count (spec §4.2 format).
type Layout struct {
	Superblock        Superblock
	InodeBitmapBlocks uint32
	BlockBitmapBlocks uint32
	InodeTableBlocks  uint32
}

// ComputeLayout derives the four region offsets from totalBlocks and
// totalInodes, rounding bitmap and inode-table sizes up to whole blocks, and
// reports dskfs.ErrNoSpace if the backing store is too small to hold even
// the metadata regions plus one data block for the root directory.
func ComputeLayout(totalBlocks, totalInodes uint32) (*Layout, error) {
	bi := bitmap.BlockCount(totalInodes)
	bb := bitmap.BlockCount(totalBlocks)
	t := inode.TableBlocks(totalInodes)

	inodeBitmapStart := uint32(1)
	blockBitmapStart := inodeBitmapStart + bi
	inodeTableStart := blockBitmapStart + bb
	dataBlockStart := inodeTableStart + t

	if dataBlockStart+1 > totalBlocks {
		return nil, dskfs.ErrNoSpace.WithMessage("backing store too small for requested geometry")
	}

	sb := Superblock{
		Magic:            dskfs.MagicNumber,
		TotalInodes:      totalInodes,
		TotalBlocks:      totalBlocks - dataBlockStart,
		FreeInodes:       totalInodes - 2,
		FreeBlocks:       totalBlocks - dataBlockStart - 1,
		InodeBitmapStart: inodeBitmapStart,
		BlockBitmapStart: blockBitmapStart,
		InodeTableStart:  inodeTableStart,
		DataBlockStart:   dataBlockStart,
	}

	return &Layout{
		Superblock:        sb,
		InodeBitmapBlocks: bi,
		BlockBitmapBlocks: bb,
		InodeTableBlocks:  t,
	}, nil
}
