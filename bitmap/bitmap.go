// Package bitmap implements CrowFS's free-block allocator: a contiguous run
// of on-disk blocks whose bits track per-block allocation state, with bit
// value 1 meaning free and 0 meaning allocated (spec.md §3.2).
//
// The scanning strategy mirrors disko's drivers/common/allocatormap.go and
// drivers/common/blockmanager.go Allocator/BlockManager types (a bitmap-
// backed allocator offering AllocateBlock/FreeBlock), but the bit polarity
// and the byte-then-CTZ scan order are taken from
// original_source/crowfs.c's block_alloc/block_free/bitmap_set/bitmap_clear,
// since the teacher's polarity (1 = allocated) is the opposite of CrowFS's.
//
// Every bit flip an Allocator makes goes through gobitmap.Bitmap's own
// Get/Set, the same calls allocatormap.go makes; only the *search* for a
// free bit — which the library has no primitive for — falls back to a raw
// byte scan with CTZ. InitialBitmapBytes, which builds a fresh bitmap before
// any Allocator exists, clears its reserved and tail bits directly.
package bitmap

import (
	"fmt"
	"math/bits"

	gobitmap "github.com/boljen/go-bitmap"

	"github.com/dargueta/crowfs/blockdev"
	crowfserrors "github.com/dargueta/crowfs/errors"
)

// Allocator is an in-memory mirror of the on-disk free-block bitmap region,
// kept in sync by persisting exactly the bitmap block touched by each
// Allocate/Free call.
type Allocator struct {
	device      blockdev.Device
	startBlock  uint32
	numBlocks   uint32
	totalUnits  uint32
	bits        gobitmap.Bitmap
}

// Load reads the numBlocks bitmap blocks starting at startBlock from device
// into memory. totalUnits is the number of block indices the bitmap
// actually describes (device.TotalBlocks()); bits at or beyond it are tail
// padding and must already be 0 (allocated) on disk.
func Load(device blockdev.Device, startBlock, numBlocks, totalUnits uint32) (*Allocator, error) {
	raw := make([]byte, int(numBlocks)*blockdev.BlockSize)
	for i := uint32(0); i < numBlocks; i++ {
		start := int(i) * blockdev.BlockSize
		if err := device.ReadBlock(startBlock+i, raw[start:start+blockdev.BlockSize]); err != nil {
			return nil, err
		}
	}
	return &Allocator{
		device:     device,
		startBlock: startBlock,
		numBlocks:  numBlocks,
		totalUnits: totalUnits,
		bits:       gobitmap.Bitmap(raw),
	}, nil
}

// NumBitmapBlocks returns ceil(totalBlocks / (blockdev.BlockSize*8)), the
// number of blocks needed to hold one bit per block index.
func NumBitmapBlocks(totalBlocks uint32) uint32 {
	bitsPerBlock := uint32(blockdev.BlockSize * 8)
	return (totalBlocks + bitsPerBlock - 1) / bitsPerBlock
}

// InitialBitmapBytes builds the raw bytes for a freshly formatted bitmap
// region: every bit in [0, totalBlocks) is free (1) except the first
// reservedCount indices (bootloader, superblock, the bitmap blocks
// themselves, and the root directory, which are always contiguous starting
// at block 0), and every bit at or beyond totalBlocks is forced to 0 so the
// allocator never hands out an out-of-range index.
func InitialBitmapBytes(numBitmapBlocks, totalBlocks, reservedCount uint32) []byte {
	raw := make([]byte, int(numBitmapBlocks)*blockdev.BlockSize)
	for i := range raw {
		raw[i] = 0xFF
	}
	for i := uint32(0); i < reservedCount; i++ {
		clearBit(raw, i)
	}
	totalBits := numBitmapBlocks * uint32(blockdev.BlockSize*8)
	for i := totalBlocks; i < totalBits; i++ {
		clearBit(raw, i)
	}
	return raw
}

func clearBit(raw []byte, index uint32) {
	raw[index/8] &^= 1 << (index % 8)
}

// Allocate returns a fresh block index with its bit flipped from 1 (free) to
// 0 (allocated), persisting the bitmap block that holds it. It returns
// errors.Full if no free block exists.
//
// Scanning proceeds byte by byte in ascending order; within a byte the
// lowest set bit (lowest-index free block) is found via CTZ, matching
// spec.md §4.1's "lowest-free-first" allocation policy exactly. gobitmap has
// no scan-for-set-bit primitive, so the search itself reads the backing
// bytes directly; the flip that follows goes through gobitmap.Bitmap.Set.
func (a *Allocator) Allocate() (uint32, error) {
	raw := []byte(a.bits)
	for byteIndex := 0; byteIndex < len(raw); byteIndex++ {
		b := raw[byteIndex]
		if b == 0 {
			continue
		}

		bitIndex := bits.TrailingZeros8(b)
		global := uint32(byteIndex)*8 + uint32(bitIndex)
		if global >= a.totalUnits {
			continue
		}

		a.bits.Set(int(global), false)
		if err := a.persistByte(byteIndex); err != nil {
			a.bits.Set(int(global), true)
			return 0, err
		}
		return global, nil
	}
	return 0, crowfserrors.Full
}

// Free flips dnode's bit from 0 (allocated) to 1 (free) and persists the
// bitmap block that holds it.
func (a *Allocator) Free(dnode uint32) error {
	if dnode >= a.totalUnits {
		return crowfserrors.Argument.WithMessage(
			fmt.Sprintf("block %d not in range [0, %d)", dnode, a.totalUnits))
	}

	if a.bits.Get(int(dnode)) {
		return crowfserrors.Argument.WithMessage(fmt.Sprintf("block %d is already free", dnode))
	}

	a.bits.Set(int(dnode), true)
	if err := a.persistByte(int(dnode / 8)); err != nil {
		a.bits.Set(int(dnode), false)
		return err
	}
	return nil
}

// FreeCount sums the 1-bits across every bitmap block (spec.md §4.10).
func (a *Allocator) FreeCount() uint32 {
	raw := []byte(a.bits)
	var count uint32
	for _, b := range raw {
		count += uint32(bits.OnesCount8(b))
	}
	return count
}

// IsFree reports whether dnode's bit is currently 1 (free). Used by the
// invariant checker in crowfstest.
func (a *Allocator) IsFree(dnode uint32) bool {
	return a.bits.Get(int(dnode))
}

func (a *Allocator) persistByte(byteIndex int) error {
	blockOrdinal := uint32(byteIndex) / blockdev.BlockSize
	start := int(blockOrdinal) * blockdev.BlockSize
	raw := []byte(a.bits)
	return a.device.WriteBlock(a.startBlock+blockOrdinal, raw[start:start+blockdev.BlockSize])
}
