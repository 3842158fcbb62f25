package crowfs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dargueta/crowfs"
	"github.com/dargueta/crowfs/crowfstest"
	"github.com/dargueta/crowfs/ondisk"
)

func TestInvariantsHoldAfterFormat(t *testing.T) {
	fs := mountFresh(t, 256)
	require.NoError(t, crowfstest.CheckInvariants(fs))
}

func TestInvariantsHoldAfterMixedOperations(t *testing.T) {
	fs := mountFresh(t, 2048)

	d, _, err := fs.Open("/d", crowfs.OpenCreate|crowfs.OpenDirectory)
	require.NoError(t, err)
	f, _, err := fs.Open("/d/f", crowfs.OpenCreate)
	require.NoError(t, err)

	// Past the direct-block range, so this exercises the indirect block too.
	payload := make([]byte, ondisk.DirectBlockCount*ondisk.BlockSize+10)
	require.NoError(t, fs.Write(f, payload, 0))

	require.NoError(t, crowfstest.CheckInvariants(fs))

	require.NoError(t, fs.Delete(f, d))
	require.NoError(t, crowfstest.CheckInvariants(fs))
}
