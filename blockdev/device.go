// Package blockdev provides the fixed-size block read/write abstraction
// CrowFS's core is built against, modeled on disko's
// drivers/common/blockstream.go BlockStream type.
package blockdev

import (
	"fmt"
	"io"

	crowfserrors "github.com/dargueta/crowfs/errors"
)

// BlockSize is the fixed size, in bytes, of every block CrowFS reads or
// writes. Every on-disk structure occupies exactly one block.
const BlockSize = 4096

// Device is the block-device adapter CrowFS's core is built against. A
// Device always reads and writes whole BlockSize-byte blocks; there is no
// partial-block I/O.
type Device interface {
	// ReadBlock fills buf (which must be exactly BlockSize bytes) with the
	// contents of the block at index.
	ReadBlock(index uint32, buf []byte) error

	// WriteBlock writes buf (which must be exactly BlockSize bytes) to the
	// block at index.
	WriteBlock(index uint32, buf []byte) error

	// TotalBlocks returns the total number of blocks the device holds.
	TotalBlocks() (uint32, error)
}

// FileDevice adapts an io.ReadWriteSeeker (typically an *os.File) into a
// Device, the same seek-then-read/write-fixed-chunk shape as disko's
// BlockStream.
type FileDevice struct {
	stream      io.ReadWriteSeeker
	totalBlocks uint32
}

// NewFileDevice wraps stream as a Device with totalBlocks blocks of
// BlockSize bytes each.
func NewFileDevice(stream io.ReadWriteSeeker, totalBlocks uint32) *FileDevice {
	return &FileDevice{stream: stream, totalBlocks: totalBlocks}
}

// DetermineBlockCount returns the number of whole BlockSize-byte blocks in
// stream, rounded down.
func DetermineBlockCount(stream io.Seeker) (uint32, error) {
	offset, err := stream.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	return uint32(offset / BlockSize), nil
}

func (d *FileDevice) checkBounds(index uint32, bufLen int) error {
	if index >= d.totalBlocks {
		return fmt.Errorf("block index %d out of range [0, %d)", index, d.totalBlocks)
	}
	if bufLen != BlockSize {
		return fmt.Errorf("buffer must be exactly %d bytes, got %d", BlockSize, bufLen)
	}
	return nil
}

func (d *FileDevice) seekToBlock(index uint32) error {
	_, err := d.stream.Seek(int64(index)*BlockSize, io.SeekStart)
	return err
}

func (d *FileDevice) ReadBlock(index uint32, buf []byte) error {
	if err := d.checkBounds(index, len(buf)); err != nil {
		return crowfserrors.IO.WrapError(err)
	}
	if err := d.seekToBlock(index); err != nil {
		return crowfserrors.IO.WrapError(err)
	}
	if _, err := io.ReadFull(d.stream, buf); err != nil {
		return crowfserrors.IO.WrapError(err)
	}
	return nil
}

func (d *FileDevice) WriteBlock(index uint32, buf []byte) error {
	if err := d.checkBounds(index, len(buf)); err != nil {
		return crowfserrors.IO.WrapError(err)
	}
	if err := d.seekToBlock(index); err != nil {
		return crowfserrors.IO.WrapError(err)
	}
	if _, err := d.stream.Write(buf); err != nil {
		return crowfserrors.IO.WrapError(err)
	}
	return nil
}

func (d *FileDevice) TotalBlocks() (uint32, error) {
	return d.totalBlocks, nil
}
