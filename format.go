package crowfs

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"

	"github.com/dargueta/crowfs/bitmap"
	"github.com/dargueta/crowfs/blockdev"
	"github.com/dargueta/crowfs/clock"
	crowfserrors "github.com/dargueta/crowfs/errors"
	"github.com/dargueta/crowfs/ondisk"
)

// Format writes a fresh superblock, free-block bitmap, and empty root
// directory to device, per spec.md §3.8 and original_source/crowfs.c's
// crowfs_new. now supplies the root directory's creation timestamp.
//
// The superblock, bitmap blocks, and root directory block are built in one
// contiguous byte slice, each with its own bytewriter.Writer started at that
// structure's block offset, the way file_systems/unixv1/format.go assembles
// its boot region before splitting it into fixed-size blocks, then written
// out block by block in ascending order.
func Format(device blockdev.Device, now clock.Clock) error {
	totalBlocks, err := device.TotalBlocks()
	if err != nil {
		return wrapIOError(err)
	}
	if totalBlocks <= 4 {
		return crowfserrors.TooSmall
	}

	bitmapBlocks := bitmap.NumBitmapBlocks(totalBlocks)
	rootDnode := rootDnodeFor(bitmapBlocks)
	if totalBlocks <= reservedBlockCount(rootDnode) {
		return crowfserrors.TooSmall
	}

	headerBlocks := 2 + bitmapBlocks + 1 // superblock + bitmap + root
	region := make([]byte, int(headerBlocks)*blockdev.BlockSize)
	writer := bytewriter.New(region[blockdev.BlockSize:]) // skip block 0 (bootloader)

	sb := ondisk.RawSuperblock{Version: ondisk.Version, Blocks: totalBlocks}
	copy(sb.Magic[:], ondisk.Magic)
	if err := binary.Write(writer, binary.LittleEndian, &sb); err != nil {
		return crowfserrors.Argument.WrapError(err)
	}

	bitmapBytes := bitmap.InitialBitmapBytes(bitmapBlocks, totalBlocks, reservedBlockCount(rootDnode))
	// The rest of the superblock block is already zero (region is freshly
	// allocated); the bitmap starts at its own block boundary.
	bitmapWriter := bytewriter.New(region[2*blockdev.BlockSize:])
	if _, err := bitmapWriter.Write(bitmapBytes); err != nil {
		return crowfserrors.Argument.WrapError(err)
	}

	root := ondisk.RawDirectoryBlock{Parent: rootDnode}
	root.Header.Type = uint8(ondisk.TypeFolder)
	root.Header.SetName("/")
	root.Header.CreationDate = now.Now().Unix()
	rootWriter := bytewriter.New(region[int(2+bitmapBlocks)*blockdev.BlockSize:])
	if err := binary.Write(rootWriter, binary.LittleEndian, &root); err != nil {
		return crowfserrors.Argument.WrapError(err)
	}

	for i := uint32(1); i < headerBlocks; i++ {
		start := int(i) * blockdev.BlockSize
		if err := device.WriteBlock(i, region[start:start+blockdev.BlockSize]); err != nil {
			return wrapIOError(err)
		}
	}
	return nil
}
