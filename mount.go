package crowfs

import (
	"github.com/dargueta/crowfs/bitmap"
	"github.com/dargueta/crowfs/blockdev"
	"github.com/dargueta/crowfs/clock"
	crowfserrors "github.com/dargueta/crowfs/errors"
	"github.com/dargueta/crowfs/ondisk"
)

// Mount reads device's superblock and free-block bitmap into memory and
// returns a usable *FileSystem, per spec.md §3.1's mount invariants: magic
// must match, version must be supported, and the persisted block count must
// leave room for bootloader + superblock + bitmap + root.
func Mount(device blockdev.Device, now clock.Clock) (*FileSystem, error) {
	buf := make([]byte, blockdev.BlockSize)
	if err := device.ReadBlock(1, buf); err != nil {
		return nil, wrapIOError(err)
	}
	sb, err := ondisk.DecodeSuperblock(buf)
	if err != nil {
		return nil, crowfserrors.InitInvalidFS.WrapError(err)
	}
	if string(sb.Magic[:]) != ondisk.Magic {
		return nil, crowfserrors.InitInvalidFS.WithMessage("bad magic")
	}
	if sb.Version != ondisk.Version {
		return nil, crowfserrors.InitInvalidFS.WithMessage("unsupported format version")
	}

	bitmapBlocks := bitmap.NumBitmapBlocks(sb.Blocks)
	rootDnode := rootDnodeFor(bitmapBlocks)
	if sb.Blocks <= reservedBlockCount(rootDnode) {
		return nil, crowfserrors.InitInvalidFS.WithMessage("superblock block count too small for its own layout")
	}

	alloc, err := bitmap.Load(device, 2, bitmapBlocks, sb.Blocks)
	if err != nil {
		return nil, wrapIOError(err)
	}

	return &FileSystem{
		device:     device,
		clock:      now,
		superblock: sb,
		alloc:      alloc,
		rootDnode:  rootDnode,
	}, nil
}
