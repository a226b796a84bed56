package pathresolver_test

import (
	"testing"

	"github.com/dskfs/dskfs"
	"github.com/dskfs/dskfs/bitmap"
	"github.com/dskfs/dskfs/blockdev"
	"github.com/dskfs/dskfs/blockmap"
	"github.com/dskfs/dskfs/directory"
	"github.com/dskfs/dskfs/inode"
	"github.com/dskfs/dskfs/internal/dskfstest"
	"github.com/dskfs/dskfs/pathresolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDataBlockStart = 10

// fakeVolume is a minimal pathresolver.InodeLoader backed by an in-memory
// map, standing in for volume.Volume in isolated tests of this package.
type fakeVolume struct {
	inodes map[uint32]*inode.Raw
}

func (v *fakeVolume) LoadInode(i uint32) (*inode.Raw, error) {
	raw, ok := v.inodes[i]
	if !ok {
		return nil, dskfs.ErrInvalid
	}
	return raw, nil
}

func newFixture(t *testing.T) (*blockdev.Device, *blockmap.Resolver, *fakeVolume) {
	t.Helper()
	const totalBlocks = 64
	dev := blockdev.New(dskfstest.NewBackingStream(t, totalBlocks), totalBlocks)
	blocks := bitmap.New(totalBlocks - testDataBlockStart)
	resolver := blockmap.New(dev, blocks, testDataBlockStart)
	return dev, resolver, &fakeVolume{inodes: map[uint32]*inode.Raw{}}
}

func TestResolve_Root(t *testing.T) {
	dev, resolver, fv := newFixture(t)
	root := &inode.Raw{Mode: dskfs.ModeDir}
	require.NoError(t, directory.WriteInitialBlock(dev, resolver, root, 1, 1))
	fv.inodes[1] = root

	ino, err := pathresolver.Resolve(dev, fv, "/")
	require.NoError(t, err)
	assert.EqualValues(t, 1, ino)
}

func TestResolve_NestedPath(t *testing.T) {
	dev, resolver, fv := newFixture(t)
	root := &inode.Raw{Mode: dskfs.ModeDir}
	require.NoError(t, directory.WriteInitialBlock(dev, resolver, root, 1, 1))
	fv.inodes[1] = root

	sub := &inode.Raw{Mode: dskfs.ModeDir}
	require.NoError(t, directory.WriteInitialBlock(dev, resolver, sub, 2, 1))
	fv.inodes[2] = sub
	require.NoError(t, directory.Insert(dev, resolver, root, "d", 2))

	file := &inode.Raw{Mode: dskfs.ModeRegular}
	fv.inodes[3] = file
	require.NoError(t, directory.Insert(dev, resolver, sub, "f.txt", 3))

	ino, err := pathresolver.Resolve(dev, fv, "/d/f.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 3, ino)
}

func TestResolve_TrailingSlashIgnored(t *testing.T) {
	dev, resolver, fv := newFixture(t)
	root := &inode.Raw{Mode: dskfs.ModeDir}
	require.NoError(t, directory.WriteInitialBlock(dev, resolver, root, 1, 1))
	fv.inodes[1] = root

	sub := &inode.Raw{Mode: dskfs.ModeDir}
	require.NoError(t, directory.WriteInitialBlock(dev, resolver, sub, 2, 1))
	fv.inodes[2] = sub
	require.NoError(t, directory.Insert(dev, resolver, root, "d", 2))

	ino, err := pathresolver.Resolve(dev, fv, "/d/")
	require.NoError(t, err)
	assert.EqualValues(t, 2, ino)
}

func TestResolve_MissingComponent(t *testing.T) {
	dev, resolver, fv := newFixture(t)
	root := &inode.Raw{Mode: dskfs.ModeDir}
	require.NoError(t, directory.WriteInitialBlock(dev, resolver, root, 1, 1))
	fv.inodes[1] = root

	_, err := pathresolver.Resolve(dev, fv, "/nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, dskfs.ErrNotFound)
}

func TestResolveParent(t *testing.T) {
	dev, resolver, fv := newFixture(t)
	root := &inode.Raw{Mode: dskfs.ModeDir}
	require.NoError(t, directory.WriteInitialBlock(dev, resolver, root, 1, 1))
	fv.inodes[1] = root

	parentIno, name, err := pathresolver.ResolveParent(dev, fv, "/a.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 1, parentIno)
	assert.Equal(t, "a.txt", name)
}
