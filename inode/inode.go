// Package inode implements the fixed-size inode record codec of spec §3/§4.4:
// computing an inode's byte offset within the inode table and loading or
// storing its record by number.
package inode

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/dskfs/dskfs"
	"github.com/dskfs/dskfs/blockdev"
)

// UnixToTime converts a 32-bit seconds-since-epoch timestamp field into a
// time.Time.
func UnixToTime(sec uint32) time.Time {
	return time.Unix(int64(sec), 0).UTC()
}

// TimeToUnix converts a time.Time into the 32-bit seconds-since-epoch
// timestamp fields stored on disk.
func TimeToUnix(t time.Time) uint32 {
	if t.IsZero() {
		return 0
	}
	return uint32(t.Unix())
}

// RecordSize is the on-disk size of one inode record, in bytes. The encoded
// fields take the first 84 bytes; the remainder pads the record out to a
// size that divides the block size evenly.
const RecordSize = 128

// EncodedFieldsSize is the number of bytes the fields of Raw occupy within a
// record: 21 little-endian uint32 values (7 scalar fields, 12 direct
// pointers, the indirect and the double-indirect pointer).
const EncodedFieldsSize = 21 * 4

// PerBlock is the number of inode records packed into one block.
const PerBlock = dskfs.BlockSize / RecordSize

// Raw is the bit-exact on-disk inode record (spec §6): mode, uid, gid, size,
// three timestamps, 12 direct pointers, one single-indirect pointer, one
// double-indirect pointer.
type Raw struct {
	Mode           uint32
	Uid            uint32
	Gid            uint32
	Size           uint32
	Atime          uint32
	Mtime          uint32
	Ctime          uint32
	Direct         [dskfs.DirectPointers]uint32
	Indirect       uint32
	DoubleIndirect uint32
}

// tableBlock returns the block number within the inode table (relative, not
// absolute) that contains inode number i's record, along with i's byte
// offset within that block.
func tableBlock(i uint32) (relativeBlock uint32, offsetInBlock int) {
	return i / PerBlock, int(i%PerBlock) * RecordSize
}

// validate rejects inode 0 and any number outside [1, totalInodes) (spec
// §4.4).
func validate(i, totalInodes uint32) error {
	if i == 0 || i >= totalInodes {
		return dskfs.ErrInvalid.WithMessage("inode number out of range")
	}
	return nil
}

// Load reads inode i's record. Rather than issue a sub-block transfer, it
// reads the whole block containing the record (the block device only deals
// in whole blocks outside the superblock, spec §4.1) and decodes the slice
// at the record's offset within it.
func Load(dev *blockdev.Device, inodeTableStart, totalInodes, i uint32) (*Raw, error) {
	if err := validate(i, totalInodes); err != nil {
		return nil, err
	}

	relBlock, off := tableBlock(i)
	block, err := dev.ReadBlock(inodeTableStart + relBlock)
	if err != nil {
		return nil, dskfs.CastToError(err)
	}

	raw := &Raw{}
	r := bytes.NewReader(block[off : off+EncodedFieldsSize])
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return nil, dskfs.ErrIOError.Wrap(err)
	}
	return raw, nil
}

// Sync writes inode i's record back, read-modify-write on the containing
// block so every other record in that block is preserved.
func Sync(dev *blockdev.Device, inodeTableStart, totalInodes, i uint32, raw *Raw) error {
	if err := validate(i, totalInodes); err != nil {
		return err
	}

	relBlock, off := tableBlock(i)
	blockNo := inodeTableStart + relBlock
	block, err := dev.ReadBlock(blockNo)
	if err != nil {
		return dskfs.CastToError(err)
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, raw); err != nil {
		return dskfs.ErrIOError.Wrap(err)
	}
	copy(block[off:off+EncodedFieldsSize], buf.Bytes())

	return dev.WriteBlock(blockNo, block)
}

// Zero overwrites inode i's record with all-zero bytes, used when an inode
// is freed by unlink/rmdir (spec §4.8) so no stale metadata survives reuse.
func Zero(dev *blockdev.Device, inodeTableStart, totalInodes, i uint32) error {
	return Sync(dev, inodeTableStart, totalInodes, i, &Raw{})
}

// TableBlocks returns the number of whole blocks needed to hold totalInodes
// records, rounded up (spec §4.2 format).
func TableBlocks(totalInodes uint32) uint32 {
	return (totalInodes + PerBlock - 1) / PerBlock
}

// ToFileStat converts a decoded Raw record plus its inode number into the
// public dskfs.FileStat shape returned by getattr (spec §4.8).
func ToFileStat(i uint32, raw *Raw) dskfs.FileStat {
	nlink := uint32(1)
	if dskfs.IsDir(raw.Mode) {
		nlink = 2
	}

	size := int64(raw.Size)
	return dskfs.FileStat{
		InodeNumber: uint64(i),
		Mode:        raw.Mode,
		Nlink:       nlink,
		Uid:         raw.Uid,
		Gid:         raw.Gid,
		Size:        size,
		AccessedAt:  UnixToTime(raw.Atime),
		ModifiedAt:  UnixToTime(raw.Mtime),
		ChangedAt:   UnixToTime(raw.Ctime),
		BlockSize:   dskfs.BlockSize,
		NumBlocks:   (size + dskfs.BlockSize - 1) / dskfs.BlockSize,
	}
}
