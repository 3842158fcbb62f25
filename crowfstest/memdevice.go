// Package crowfstest provides an in-memory blockdev.Device and a checker
// for the invariants of spec.md §3.7, for use in this module's own tests
// and by any external caller that wants to exercise a FileSystem without a
// real disk image.
//
// Grounded on testing/images.go's LoadDiskImage (a byte slice wrapped as an
// io.ReadWriteSeeker via bytesextra for tests) and
// drivers/common/basedriver/driver.go's recursive tree-walk idiom, adapted
// here into an invariant checker rather than a deletion routine.
package crowfstest

import (
	"github.com/xaionaro-go/bytesextra"

	"github.com/dargueta/crowfs/blockdev"
)

// NewMemoryDevice returns a blockdev.Device backed by an in-memory buffer
// sized for totalBlocks blocks of blockdev.BlockSize bytes each, with every
// byte initially zero.
func NewMemoryDevice(totalBlocks uint32) *blockdev.FileDevice {
	buf := make([]byte, int(totalBlocks)*blockdev.BlockSize)
	stream := bytesextra.NewReadWriteSeeker(buf)
	return blockdev.NewFileDevice(stream, totalBlocks)
}
