package blockdev_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/dargueta/crowfs/blockdev"
)

func newDevice(t *testing.T, totalBlocks uint32) *blockdev.FileDevice {
	t.Helper()
	buf := make([]byte, int(totalBlocks)*blockdev.BlockSize)
	return blockdev.NewFileDevice(bytesextra.NewReadWriteSeeker(buf), totalBlocks)
}

func TestWriteThenReadBlock(t *testing.T) {
	device := newDevice(t, 4)

	block := bytes.Repeat([]byte{0xAB}, blockdev.BlockSize)
	require.NoError(t, device.WriteBlock(2, block))

	out := make([]byte, blockdev.BlockSize)
	require.NoError(t, device.ReadBlock(2, out))
	require.Equal(t, block, out)
}

func TestReadBlockRejectsOutOfRangeIndex(t *testing.T) {
	device := newDevice(t, 4)
	out := make([]byte, blockdev.BlockSize)
	err := device.ReadBlock(4, out)
	require.Error(t, err)
}

func TestWriteBlockRejectsWrongSizedBuffer(t *testing.T) {
	device := newDevice(t, 4)
	err := device.WriteBlock(0, make([]byte, blockdev.BlockSize-1))
	require.Error(t, err)
}

func TestTotalBlocks(t *testing.T) {
	device := newDevice(t, 7)
	n, err := device.TotalBlocks()
	require.NoError(t, err)
	require.Equal(t, uint32(7), n)
}

func TestDetermineBlockCountRoundsDown(t *testing.T) {
	buf := make([]byte, blockdev.BlockSize*3+10)
	n, err := blockdev.DetermineBlockCount(bytesextra.NewReadWriteSeeker(buf))
	require.NoError(t, err)
	require.Equal(t, uint32(3), n)
}
