package crowfs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dargueta/crowfs"
	"github.com/dargueta/crowfs/clock"
	crowfserrors "github.com/dargueta/crowfs/errors"
)

func TestFormatAndMount(t *testing.T) {
	device := crowfstestDevice(t, 256)
	require.NoError(t, crowfs.Format(device, clock.Fixed{}))

	fs, err := crowfs.Mount(device, clock.Fixed{})
	require.NoError(t, err)
	require.Equal(t, uint32(256), fs.TotalBlocks())

	root := fs.RootDnode()
	stat, err := fs.Stat(root, 0)
	require.NoError(t, err)
	require.Equal(t, "/", stat.Name)
	require.Equal(t, uint32(0), stat.Size)
}

func TestFormatRejectsTinyDevice(t *testing.T) {
	device := crowfstestDevice(t, 4)
	err := crowfs.Format(device, clock.Fixed{})
	require.ErrorIs(t, err, crowfserrors.TooSmall)
}

func TestMountRejectsBadMagic(t *testing.T) {
	device := crowfstestDevice(t, 32)
	require.NoError(t, crowfs.Format(device, clock.Fixed{}))

	garbage := make([]byte, 4096)
	require.NoError(t, device.WriteBlock(1, garbage))

	_, err := crowfs.Mount(device, clock.Fixed{})
	require.ErrorIs(t, err, crowfserrors.InitInvalidFS)
}
