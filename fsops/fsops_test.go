package fsops_test

import (
	"testing"
	"time"

	"github.com/dskfs/dskfs"
	"github.com/dskfs/dskfs/fsops"
	"github.com/dskfs/dskfs/internal/dskfstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMountedOps(t *testing.T, totalBlocks, totalInodes uint32) *fsops.Ops {
	return dskfstest.NewMountedOps(t, totalBlocks, totalInodes)
}

// Scenario A: create a file, write to it, read it back.
func TestScenario_CreateWriteRead(t *testing.T) {
	ops := newMountedOps(t, 512, 64)

	ino, err := ops.Create("/a.txt", 0o644)
	require.NoError(t, err)
	assert.NotZero(t, ino)

	n, err := ops.Write("/a.txt", []byte("hello world"), 0)
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	data, err := ops.Read("/a.txt", 11, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	st, err := ops.Getattr("/a.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 11, st.Size)
	assert.True(t, st.IsRegular())
}

// Scenario B: write past the end leaves a hole that reads back as zeros.
func TestScenario_WriteCreatesHole(t *testing.T) {
	ops := newMountedOps(t, 512, 64)

	_, err := ops.Create("/h.txt", 0o644)
	require.NoError(t, err)

	_, err = ops.Write("/h.txt", []byte("tail"), 5000)
	require.NoError(t, err)

	data, err := ops.Read("/h.txt", 4, 5000)
	require.NoError(t, err)
	assert.Equal(t, "tail", string(data))

	hole, err := ops.Read("/h.txt", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 10), hole)
}

// Scenario C: a write spanning several direct blocks round-trips correctly.
func TestScenario_MultiBlockWriteRead(t *testing.T) {
	ops := newMountedOps(t, 512, 64)

	_, err := ops.Create("/big.txt", 0o644)
	require.NoError(t, err)

	buf := make([]byte, dskfs.BlockSize*3+17)
	for i := range buf {
		buf[i] = byte(i % 251)
	}
	n, err := ops.Write("/big.txt", buf, 0)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)

	got, err := ops.Read("/big.txt", len(buf), 0)
	require.NoError(t, err)
	assert.Equal(t, buf, got)
}

// Scenario D: mkdir, populate, and list a directory tree.
func TestScenario_MkdirAndReaddir(t *testing.T) {
	ops := newMountedOps(t, 512, 64)

	require.NoError(t, ops.Mkdir("/sub", 0o755))
	_, err := ops.Create("/sub/one.txt", 0o644)
	require.NoError(t, err)
	_, err = ops.Create("/sub/two.txt", 0o644)
	require.NoError(t, err)

	entries, err := ops.Readdir("/sub")
	require.NoError(t, err)

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = true
	}
	assert.True(t, names["."])
	assert.True(t, names[".."])
	assert.True(t, names["one.txt"])
	assert.True(t, names["two.txt"])
}

// Scenario E: unlink frees the inode and removes the directory entry.
func TestScenario_UnlinkRemovesEntryAndFreesInode(t *testing.T) {
	ops := newMountedOps(t, 512, 64)

	_, err := ops.Create("/gone.txt", 0o644)
	require.NoError(t, err)

	require.NoError(t, ops.Unlink("/gone.txt"))

	_, err = ops.Getattr("/gone.txt")
	assert.ErrorIs(t, err, dskfs.ErrNotFound)

	entries, err := ops.Readdir("/")
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, "gone.txt", e.Name)
	}
}

// Scenario F: rmdir rejects a non-empty directory and succeeds once emptied.
func TestScenario_RmdirRequiresEmpty(t *testing.T) {
	ops := newMountedOps(t, 512, 64)

	require.NoError(t, ops.Mkdir("/d", 0o755))
	_, err := ops.Create("/d/f.txt", 0o644)
	require.NoError(t, err)

	err = ops.Rmdir("/d")
	assert.ErrorIs(t, err, dskfs.ErrNotEmpty)

	require.NoError(t, ops.Unlink("/d/f.txt"))
	require.NoError(t, ops.Rmdir("/d"))

	_, err = ops.Getattr("/d")
	assert.ErrorIs(t, err, dskfs.ErrNotFound)
}

func TestCreate_ExistingNameFails(t *testing.T) {
	ops := newMountedOps(t, 512, 64)

	_, err := ops.Create("/x.txt", 0o644)
	require.NoError(t, err)

	_, err = ops.Create("/x.txt", 0o644)
	assert.ErrorIs(t, err, dskfs.ErrExists)
}

func TestOpen_CreateExclOnExistingFails(t *testing.T) {
	ops := newMountedOps(t, 512, 64)

	_, err := ops.Create("/x.txt", 0o644)
	require.NoError(t, err)

	_, err = ops.Open("/x.txt", dskfs.O_CREATE|dskfs.O_EXCL|dskfs.O_WRONLY)
	assert.ErrorIs(t, err, dskfs.ErrExists)
}

func TestOpen_TruncateFlagZeroesExistingFile(t *testing.T) {
	ops := newMountedOps(t, 512, 64)

	_, err := ops.Create("/x.txt", 0o644)
	require.NoError(t, err)
	_, err = ops.Write("/x.txt", []byte("data"), 0)
	require.NoError(t, err)

	_, err = ops.Open("/x.txt", dskfs.O_WRONLY|dskfs.O_TRUNC)
	require.NoError(t, err)

	st, err := ops.Getattr("/x.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 0, st.Size)
}

func TestRename_MovesEntryAndRejectsExistingDestination(t *testing.T) {
	ops := newMountedOps(t, 512, 64)

	_, err := ops.Create("/a.txt", 0o644)
	require.NoError(t, err)
	_, err = ops.Create("/b.txt", 0o644)
	require.NoError(t, err)

	err = ops.Rename("/a.txt", "/b.txt")
	assert.ErrorIs(t, err, dskfs.ErrExists)

	require.NoError(t, ops.Rename("/a.txt", "/c.txt"))
	_, err = ops.Getattr("/a.txt")
	assert.ErrorIs(t, err, dskfs.ErrNotFound)
	_, err = ops.Getattr("/c.txt")
	require.NoError(t, err)
}

func TestTruncate_ShrinkFreesTrailingBlocks(t *testing.T) {
	ops := newMountedOps(t, 512, 64)

	_, err := ops.Create("/t.txt", 0o644)
	require.NoError(t, err)

	buf := make([]byte, dskfs.BlockSize*2)
	_, err = ops.Write("/t.txt", buf, 0)
	require.NoError(t, err)

	before := ops.Statfs()

	require.NoError(t, ops.Truncate("/t.txt", dskfs.BlockSize/2))

	st, err := ops.Getattr("/t.txt")
	require.NoError(t, err)
	assert.EqualValues(t, dskfs.BlockSize/2, st.Size)

	after := ops.Statfs()
	assert.Greater(t, after.FreeBlocks, before.FreeBlocks)
}

func TestTruncate_GrowLeavesHole(t *testing.T) {
	ops := newMountedOps(t, 512, 64)

	_, err := ops.Create("/g.txt", 0o644)
	require.NoError(t, err)

	require.NoError(t, ops.Truncate("/g.txt", 4096))

	st, err := ops.Getattr("/g.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 4096, st.Size)

	data, err := ops.Read("/g.txt", 4096, 0)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 4096), data)
}

func TestUtimens_NilLeavesFieldUnchanged(t *testing.T) {
	ops := newMountedOps(t, 512, 64)

	_, err := ops.Create("/u.txt", 0o644)
	require.NoError(t, err)

	before, err := ops.Getattr("/u.txt")
	require.NoError(t, err)

	newAtime := time.Unix(1000000, 0)
	require.NoError(t, ops.Utimens("/u.txt", &newAtime, nil))

	after, err := ops.Getattr("/u.txt")
	require.NoError(t, err)
	assert.True(t, after.AccessedAt.Equal(newAtime))
	assert.True(t, after.ModifiedAt.Equal(before.ModifiedAt))
}

func TestWrite_RejectsDirectory(t *testing.T) {
	ops := newMountedOps(t, 512, 64)
	require.NoError(t, ops.Mkdir("/d", 0o755))

	_, err := ops.Write("/d", []byte("x"), 0)
	assert.ErrorIs(t, err, dskfs.ErrIsDirectory)
}

func TestRead_RejectsDirectory(t *testing.T) {
	ops := newMountedOps(t, 512, 64)
	require.NoError(t, ops.Mkdir("/d", 0o755))

	_, err := ops.Read("/d", 10, 0)
	assert.ErrorIs(t, err, dskfs.ErrIsDirectory)
}

func TestXattrStubsReturnNotSupported(t *testing.T) {
	ops := newMountedOps(t, 512, 64)

	_, err := ops.Listxattr("/")
	assert.ErrorIs(t, err, dskfs.ErrNotSupported)
	_, err = ops.Getxattr("/", "user.x")
	assert.ErrorIs(t, err, dskfs.ErrNotSupported)
	assert.ErrorIs(t, ops.Setxattr("/", "user.x", []byte("v")), dskfs.ErrNotSupported)
	assert.ErrorIs(t, ops.Removexattr("/", "user.x"), dskfs.ErrNotSupported)
}
