// Package directory implements the directory entry format and the
// lookup/list/insert/remove operations of spec §3/§4.6. Directories use
// only the 12 direct pointers; a directory is therefore bounded to 12 ×
// entries-per-block entries.
package directory

import (
	"bytes"
	"encoding/binary"

	"github.com/dskfs/dskfs"
	"github.com/dskfs/dskfs/blockdev"
	"github.com/dskfs/dskfs/blockmap"
	"github.com/dskfs/dskfs/inode"
)

// EntrySize is the on-disk size of one directory entry: a u32 inode number
// plus a fixed NAME_MAX-byte name buffer (spec §6).
const EntrySize = 4 + dskfs.NameMax

// EntriesPerBlock is the number of directory entries packed into one block.
const EntriesPerBlock = dskfs.BlockSize / EntrySize

// MaxEntries is the highest number of entries a directory can hold, bounded
// by the 12 direct pointers (spec §4.6).
const MaxEntries = dskfs.DirectPointers * EntriesPerBlock

// Entry is a decoded directory entry. Inode == 0 marks a free slot.
type Entry struct {
	Inode uint32
	Name  string
}

func encodeEntry(e Entry) []byte {
	buf := make([]byte, EntrySize)
	binary.LittleEndian.PutUint32(buf[:4], e.Inode)

	name := e.Name
	if len(name) > dskfs.NameMax-1 {
		name = name[:dskfs.NameMax-1]
	}
	copy(buf[4:], name)
	// buf is zero-initialized past len(name), which null-terminates it.
	return buf
}

func decodeEntry(buf []byte) Entry {
	ino := binary.LittleEndian.Uint32(buf[:4])
	nameBuf := buf[4:EntrySize]
	end := bytes.IndexByte(nameBuf, 0)
	if end < 0 {
		end = len(nameBuf)
	}
	return Entry{Inode: ino, Name: string(nameBuf[:end])}
}

// forEachBlock calls fn with the decoded contents of every allocated direct
// block of raw, in pointer order, stopping early if fn returns false.
func forEachBlock(dev *blockdev.Device, raw *inode.Raw, fn func(blockNo uint32, entries []Entry) (cont bool, err error)) error {
	for _, blockNo := range raw.Direct {
		if blockNo == 0 {
			continue
		}
		buf, err := dev.ReadBlock(blockNo)
		if err != nil {
			return dskfs.CastToError(err)
		}

		entries := make([]Entry, EntriesPerBlock)
		for i := range entries {
			entries[i] = decodeEntry(buf[i*EntrySize : (i+1)*EntrySize])
		}

		cont, err := fn(blockNo, entries)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

func writeBlockEntries(dev *blockdev.Device, blockNo uint32, entries []Entry) error {
	buf := make([]byte, dskfs.BlockSize)
	for i, e := range entries {
		copy(buf[i*EntrySize:(i+1)*EntrySize], encodeEntry(e))
	}
	return dev.WriteBlock(blockNo, buf)
}

// Lookup scans every allocated direct block of dirRaw for an entry named
// name and returns its inode number. The first match wins (spec §4.6); this
// engine never produces duplicate names.
func Lookup(dev *blockdev.Device, dirRaw *inode.Raw, name string) (uint32, error) {
	var found uint32
	err := forEachBlock(dev, dirRaw, func(_ uint32, entries []Entry) (bool, error) {
		for _, e := range entries {
			if e.Inode != 0 && e.Name == name {
				found = e.Inode
				return false, nil
			}
		}
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	if found == 0 {
		return 0, dskfs.ErrNotFound
	}
	return found, nil
}

// List yields every entry with inode ≠ 0 across dirRaw's allocated direct
// blocks, in block order. Callers needing "." and ".." synthesized (readdir,
// spec §4.6) should prepend them; WriteInitialBlock already writes them as
// real entries for bridges that expect them on disk.
func List(dev *blockdev.Device, dirRaw *inode.Raw) ([]Entry, error) {
	var out []Entry
	err := forEachBlock(dev, dirRaw, func(_ uint32, entries []Entry) (bool, error) {
		for _, e := range entries {
			if e.Inode != 0 && e.Name != "" {
				out = append(out, e)
			}
		}
		return true, nil
	})
	return out, err
}

// Insert finds a free slot (inode == 0) in any allocated block of dirRaw, or
// grows the directory by one block if every existing block is full, then
// writes {name, childIno} into that slot.
func Insert(dev *blockdev.Device, resolver *blockmap.Resolver, dirRaw *inode.Raw, name string, childIno uint32) error {
	found := false
	err := forEachBlock(dev, dirRaw, func(blockNo uint32, entries []Entry) (bool, error) {
		for i, e := range entries {
			if e.Inode == 0 {
				entries[i] = Entry{Inode: childIno, Name: name}
				if err := writeBlockEntries(dev, blockNo, entries); err != nil {
					return false, err
				}
				found = true
				return false, nil
			}
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	// Every allocated block is full (or none are allocated yet): grow the
	// directory by one block (spec §4.6).
	nextSlot := -1
	for i, blockNo := range dirRaw.Direct {
		if blockNo == 0 {
			nextSlot = i
			break
		}
	}
	if nextSlot < 0 {
		return dskfs.ErrNoSpace.WithMessage("directory has exhausted its direct pointers")
	}

	phys, err := resolver.Resolve(dirRaw, uint32(nextSlot), true)
	if err != nil {
		return err
	}

	entries := make([]Entry, EntriesPerBlock)
	entries[0] = Entry{Inode: childIno, Name: name}
	if err := writeBlockEntries(dev, phys, entries); err != nil {
		return err
	}

	dirRaw.Size += dskfs.BlockSize
	return nil
}

// Remove zeroes the entry named name in place. The block itself is retained
// (not freed); later inserts may reuse the slot (spec §4.6).
func Remove(dev *blockdev.Device, dirRaw *inode.Raw, name string) error {
	removed := false
	err := forEachBlock(dev, dirRaw, func(blockNo uint32, entries []Entry) (bool, error) {
		for i, e := range entries {
			if e.Inode != 0 && e.Name == name {
				entries[i] = Entry{}
				if err := writeBlockEntries(dev, blockNo, entries); err != nil {
					return false, err
				}
				removed = true
				return false, nil
			}
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	if !removed {
		return dskfs.ErrNotFound
	}
	return nil
}

// IsEmpty reports whether dirRaw has no entries besides "." and "..".
func IsEmpty(dev *blockdev.Device, dirRaw *inode.Raw) (bool, error) {
	empty := true
	err := forEachBlock(dev, dirRaw, func(_ uint32, entries []Entry) (bool, error) {
		for _, e := range entries {
			if e.Inode != 0 && e.Name != "." && e.Name != ".." {
				empty = false
				return false, nil
			}
		}
		return true, nil
	})
	return empty, err
}

// WriteInitialBlock allocates a directory's first data block and writes "."
// and ".." into it as ordinary entries (spec §3: "when a directory is
// created its first block is populated with '.' and '..' as ordinary
// entries"). selfIno is the new directory's own inode number, parentIno its
// parent's.
func WriteInitialBlock(dev *blockdev.Device, resolver *blockmap.Resolver, dirRaw *inode.Raw, selfIno, parentIno uint32) error {
	phys, err := resolver.Resolve(dirRaw, 0, true)
	if err != nil {
		return err
	}

	entries := make([]Entry, EntriesPerBlock)
	entries[0] = Entry{Inode: selfIno, Name: "."}
	entries[1] = Entry{Inode: parentIno, Name: ".."}
	if err := writeBlockEntries(dev, phys, entries); err != nil {
		return err
	}

	dirRaw.Size = dskfs.BlockSize
	return nil
}
