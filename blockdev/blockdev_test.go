package blockdev_test

import (
	"testing"

	"github.com/dskfs/dskfs"
	"github.com/dskfs/dskfs/blockdev"
	"github.com/dskfs/dskfs/internal/dskfstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

func newTestDevice(t *testing.T, totalBlocks uint32) *blockdev.Device {
	return dskfstest.NewDevice(t, totalBlocks)
}

func TestReadBlock_FreshDeviceIsZeroed(t *testing.T) {
	dev := newTestDevice(t, 4)

	buf, err := dev.ReadBlock(1)
	require.NoError(t, err)
	assert.Len(t, buf, dskfs.BlockSize)
	for _, b := range buf {
		assert.Zero(t, b)
	}
}

func TestWriteBlockThenReadBlock_RoundTrips(t *testing.T) {
	dev := newTestDevice(t, 4)

	data := make([]byte, dskfs.BlockSize)
	for i := range data {
		data[i] = byte(i)
	}

	require.NoError(t, dev.WriteBlock(2, data))

	got, err := dev.ReadBlock(2)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestReadBlock_OutOfRange(t *testing.T) {
	dev := newTestDevice(t, 4)

	_, err := dev.ReadBlock(4)
	require.Error(t, err)
	assert.ErrorIs(t, err, dskfs.ErrInvalid)
}

func TestWriteBlock_WrongSize(t *testing.T) {
	dev := newTestDevice(t, 4)

	err := dev.WriteBlock(0, make([]byte, dskfs.BlockSize-1))
	require.Error(t, err)
	assert.ErrorIs(t, err, dskfs.ErrInvalid)
}

func TestReadAtWriteAt_ArbitraryByteRange(t *testing.T) {
	dev := newTestDevice(t, 2)

	payload := []byte{1, 2, 3, 4, 5}
	require.NoError(t, dev.WriteAt(payload, 10))

	got := make([]byte, len(payload))
	require.NoError(t, dev.ReadAt(got, 10))
	assert.Equal(t, payload, got)
}

func TestDetermineBlockCount_FallsBackToSeekForInMemoryStream(t *testing.T) {
	backing := make([]byte, 7*dskfs.BlockSize)
	stream := bytesextra.NewReadWriteSeeker(backing)

	n, err := blockdev.DetermineBlockCount(stream)
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
}

func TestZeroBlock(t *testing.T) {
	dev := newTestDevice(t, 2)

	data := make([]byte, dskfs.BlockSize)
	for i := range data {
		data[i] = 0xFF
	}
	require.NoError(t, dev.WriteBlock(0, data))

	require.NoError(t, dev.ZeroBlock(0))

	got, err := dev.ReadBlock(0)
	require.NoError(t, err)
	for _, b := range got {
		assert.Zero(t, b)
	}
}
