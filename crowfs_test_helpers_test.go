package crowfs_test

import (
	"testing"

	"github.com/dargueta/crowfs/blockdev"
	"github.com/dargueta/crowfs/crowfstest"
)

// crowfstestDevice returns a fresh in-memory device of totalBlocks blocks,
// shared by every test file in this package.
func crowfstestDevice(t *testing.T, totalBlocks uint32) *blockdev.FileDevice {
	t.Helper()
	return crowfstest.NewMemoryDevice(totalBlocks)
}
