package ondisk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStructSizes(t *testing.T) {
	require.Equal(t, 264, int(HeaderSize))
	// encodeIntoBlock always zero-pads its output to a full block, so every
	// struct here produces exactly BlockSize bytes regardless of its own
	// (smaller, for the superblock) encoded size.
	require.Equal(t, BlockSize, encodedSize(t, &RawSuperblock{}))
	require.Equal(t, BlockSize, encodedSize(t, &RawFileBlock{}))
	require.Equal(t, BlockSize, encodedSize(t, &RawDirectoryBlock{}))
	require.Equal(t, BlockSize, encodedSize(t, &RawIndirectBlock{}))
}

func encodedSize(t *testing.T, v any) int {
	t.Helper()
	buf, err := encodeIntoBlock(v)
	require.NoError(t, err)
	return len(buf)
}

func TestHeaderSetNameGetName(t *testing.T) {
	var h RawHeader
	h.SetName("hello.txt")
	require.Equal(t, "hello.txt", h.GetName())
}

func TestHeaderSetNameTruncates(t *testing.T) {
	var h RawHeader
	long := make([]byte, MaxNameLength+50)
	for i := range long {
		long[i] = 'x'
	}
	h.SetName(string(long))
	require.Len(t, h.GetName(), MaxNameLength)
}

func TestFileBlockRoundTrip(t *testing.T) {
	fb := RawFileBlock{Size: 42, Indirect: 7}
	fb.Header.Type = uint8(TypeFile)
	fb.Header.SetName("f")
	fb.Direct[0] = 100
	fb.Direct[1] = 101

	buf, err := EncodeFileBlock(&fb)
	require.NoError(t, err)

	decoded, err := DecodeFileBlock(buf)
	require.NoError(t, err)
	require.Equal(t, fb, decoded)
}

func TestDirectoryBlockRoundTrip(t *testing.T) {
	db := RawDirectoryBlock{Parent: 3}
	db.Header.Type = uint8(TypeFolder)
	db.Header.SetName("d")
	db.Content[0] = 10
	db.Content[1] = 11

	buf, err := EncodeDirectoryBlock(&db)
	require.NoError(t, err)

	decoded, err := DecodeDirectoryBlock(buf)
	require.NoError(t, err)
	require.Equal(t, db, decoded)
}

func TestDecodeHeaderPrefixMatchesFullDecode(t *testing.T) {
	fb := RawFileBlock{Size: 99}
	fb.Header.Type = uint8(TypeFile)
	fb.Header.SetName("abc")
	buf, err := EncodeFileBlock(&fb)
	require.NoError(t, err)

	h, err := DecodeHeaderPrefix(buf)
	require.NoError(t, err)
	require.Equal(t, fb.Header, h)
}
