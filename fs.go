// Package crowfs implements the namespace and file-data operations of
// spec.md §4.4-§4.10 on top of the ondisk, bitmap, and blockdev packages: a
// small block-structured filesystem meant to sit directly on a raw block
// device, the way original_source/crowfs.c sits on a bare array of memory
// blocks with no intervening OS filesystem.
//
// Grounded on original_source/crowfs.c end to end for the exact semantics of
// every operation; the package's shape (a single driver type wrapping a
// block stream plus a cached superblock, Go error returns) follows
// drivers/unixv1/driver.go's UnixV1Driver and
// drivers/common/basedriver/driver.go's CommonDriver. Scratch block buffers
// are ordinary per-call allocations left to the garbage collector.
package crowfs

import (
	"time"

	"github.com/dargueta/crowfs/bitmap"
	"github.com/dargueta/crowfs/blockdev"
	"github.com/dargueta/crowfs/clock"
	crowfserrors "github.com/dargueta/crowfs/errors"
	"github.com/dargueta/crowfs/ondisk"
)

// reservedParent is the sentinel parent dnode for the root directory, which
// has no parent of its own to report to a caller.
const reservedParent = 0

// FileSystem is a mounted CrowFS volume: a block device plus the in-memory
// state needed to serve namespace and file operations against it. The only
// cached state is the superblock and the bitmap allocator (spec.md §2);
// every directory and file block is read fresh from the device on each use.
type FileSystem struct {
	device     blockdev.Device
	clock      clock.Clock
	superblock ondisk.RawSuperblock
	alloc      *bitmap.Allocator
	rootDnode  uint32
}

// Stat describes one entity: either a file or a directory.
//
// Parent isn't part of any on-disk file block (only directories carry a
// cached parent field, per spec.md §3.6), so every Stat-producing operation
// here takes the parent as an input alongside the dnode, the same way
// Delete and Move do — the caller already knows it from path resolution or
// directory enumeration.
type Stat struct {
	Type         ondisk.EntityType
	Name         string
	CreationDate time.Time
	Size         uint32
	Parent       uint32
	Dnode        uint32
}

// RootDnode returns the dnode of the mounted volume's root directory.
func (fs *FileSystem) RootDnode() uint32 {
	return fs.rootDnode
}

// TotalBlocks returns the device's total block count, as recorded in the
// superblock at format time.
func (fs *FileSystem) TotalBlocks() uint32 {
	return fs.superblock.Blocks
}

// FreeBlocks sums the 1-bits across every bitmap block (spec.md §4.10).
func (fs *FileSystem) FreeBlocks() uint32 {
	return fs.alloc.FreeCount()
}

func rootDnodeFor(bitmapBlocks uint32) uint32 {
	return 2 + bitmapBlocks
}

func reservedBlockCount(rootDnode uint32) uint32 {
	// Blocks [0, rootDnode] are bootloader, superblock, the bitmap itself,
	// and the root directory: all reserved before any entity is created.
	return rootDnode + 1
}

func wrapIOError(err error) error {
	if err == nil {
		return nil
	}
	return crowfserrors.IO.WrapError(err)
}
