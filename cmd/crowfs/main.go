// Command crowfs is a host-side utility for creating and inspecting CrowFS
// disk images: new, copyin, copyout, ls (spec.md §1's "host-facing
// command-line utility").
//
// Grounded on cmd/main.go's urfave/cli/v2 cli.App/cli.Command skeleton,
// generalized from its single "format" command to these four.
package main

import (
	"fmt"
	"log"
	"os"
	"path"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/dargueta/crowfs"
	"github.com/dargueta/crowfs/blockdev"
	"github.com/dargueta/crowfs/clock"
	"github.com/dargueta/crowfs/ondisk"
)

func main() {
	app := cli.App{
		Usage: "Create and inspect CrowFS disk images",
		Commands: []*cli.Command{
			{
				Name:      "new",
				Usage:     "Create a fresh CrowFS image of the given size",
				Action:    newImage,
				ArgsUsage: "IMAGE_FILE TOTAL_BLOCKS",
			},
			{
				Name:      "copyin",
				Usage:     "Copy a host file into the image",
				Action:    copyIn,
				ArgsUsage: "IMAGE_FILE HOST_FILE CROWFS_PATH",
			},
			{
				Name:      "copyout",
				Usage:     "Copy a file from the image to the host",
				Action:    copyOut,
				ArgsUsage: "IMAGE_FILE CROWFS_PATH HOST_FILE",
			},
			{
				Name:      "ls",
				Usage:     "List a directory's contents",
				Action:    listDir,
				ArgsUsage: "IMAGE_FILE CROWFS_PATH",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("crowfs: %s", err.Error())
	}
}

func newImage(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: crowfs new IMAGE_FILE TOTAL_BLOCKS", 1)
	}
	totalBlocks, err := strconv.ParseUint(c.Args().Get(1), 10, 32)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid block count: %s", err), 1)
	}

	f, err := os.Create(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer f.Close()

	size := int64(totalBlocks) * blockdev.BlockSize
	if err := f.Truncate(size); err != nil {
		return err
	}

	device := blockdev.NewFileDevice(f, uint32(totalBlocks))
	if err := crowfs.Format(device, clock.System{}); err != nil {
		return err
	}
	fmt.Printf("File system created with %d blocks\n", totalBlocks)
	return nil
}

func copyIn(c *cli.Context) error {
	if c.NArg() != 3 {
		return cli.Exit("usage: crowfs copyin IMAGE_FILE HOST_FILE CROWFS_PATH", 1)
	}
	fs, f, err := openImageReadWrite(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer f.Close()

	hostFile, err := os.ReadFile(c.Args().Get(1))
	if err != nil {
		return err
	}

	dnode, _, err := fs.Open(c.Args().Get(2), crowfs.OpenCreate)
	if err != nil {
		return err
	}
	return fs.Write(dnode, hostFile, 0)
}

func copyOut(c *cli.Context) error {
	if c.NArg() != 3 {
		return cli.Exit("usage: crowfs copyout IMAGE_FILE CROWFS_PATH HOST_FILE", 1)
	}
	fs, f, err := openImageReadWrite(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer f.Close()

	dnode, parent, err := fs.Open(c.Args().Get(1), 0)
	if err != nil {
		return err
	}
	stat, err := fs.Stat(dnode, parent)
	if err != nil {
		return err
	}

	buf := make([]byte, stat.Size)
	if _, err := fs.Read(dnode, buf, 0); err != nil {
		return err
	}
	return os.WriteFile(c.Args().Get(2), buf, 0o644)
}

func listDir(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: crowfs ls IMAGE_FILE CROWFS_PATH", 1)
	}
	fs, f, err := openImageReadWrite(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer f.Close()

	dnode, _, err := fs.Open(c.Args().Get(1), 0)
	if err != nil {
		return err
	}

	for offset := 0; ; offset++ {
		entry, err := fs.ReadDir(dnode, offset)
		if err != nil {
			break
		}
		kind := "F"
		if entry.Type == ondisk.TypeFolder {
			kind = "D"
		}
		fmt.Printf("%s\t%s\t%d\t%d\n", kind, path.Clean(entry.Name), entry.Size, entry.CreationDate.Unix())
	}
	return nil
}

func openImageReadWrite(imagePath string) (*crowfs.FileSystem, *os.File, error) {
	f, err := os.OpenFile(imagePath, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, err
	}
	totalBlocks, err := blockdev.DetermineBlockCount(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	device := blockdev.NewFileDevice(f, totalBlocks)
	fs, err := crowfs.Mount(device, clock.System{})
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return fs, f, nil
}
