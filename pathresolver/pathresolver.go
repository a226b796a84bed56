// Package pathresolver walks a slash-separated absolute path from the root
// directory, one component at a time, via the directory layer (spec §4.7).
// There is no symlink following: this engine has none (spec §1 non-goals).
package pathresolver

import (
	"strings"

	"github.com/dskfs/dskfs"
	"github.com/dskfs/dskfs/blockdev"
	"github.com/dskfs/dskfs/directory"
	"github.com/dskfs/dskfs/inode"
)

// InodeLoader loads an inode's decoded record by number; volume.Volume
// satisfies this so the resolver doesn't need to know about mount state.
type InodeLoader interface {
	LoadInode(i uint32) (*inode.Raw, error)
}

// split breaks path into its non-empty components, discarding a trailing
// slash.
func split(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Resolve walks path from the root (inode 1) and returns the inode number of
// the final component. "/" resolves to the root directory itself.
func Resolve(dev *blockdev.Device, loader InodeLoader, path string) (uint32, error) {
	ino := uint32(dskfs.RootInode)
	for _, component := range split(path) {
		raw, err := loader.LoadInode(ino)
		if err != nil {
			return 0, err
		}
		if !dskfs.IsDir(raw.Mode) {
			return 0, dskfs.ErrNotDirectory
		}

		next, err := directory.Lookup(dev, raw, component)
		if err != nil {
			return 0, err
		}
		ino = next
	}
	return ino, nil
}

// ResolveParent splits path into its parent directory and final component,
// resolves the parent, and returns (parentInode, lastComponent). Empty
// components (including a trailing slash) are dropped first, so the last
// component is never empty. It fails with dskfs.ErrInvalid if path names
// the root itself (no parent).
func ResolveParent(dev *blockdev.Device, loader InodeLoader, path string) (uint32, string, error) {
	components := split(path)
	if len(components) == 0 {
		return 0, "", dskfs.ErrInvalid.WithMessage("path has no parent")
	}

	parentPath := "/" + strings.Join(components[:len(components)-1], "/")
	parentIno, err := Resolve(dev, loader, parentPath)
	if err != nil {
		return 0, "", err
	}
	return parentIno, components[len(components)-1], nil
}
