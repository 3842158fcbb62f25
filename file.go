package crowfs

import (
	crowfserrors "github.com/dargueta/crowfs/errors"
	"github.com/dargueta/crowfs/ondisk"
)

// Read copies up to len(buf) bytes of the file at dnode, starting at
// offset, into buf, per spec.md §4.5. It returns 0 when offset is at or
// past the current size (EOF), and otherwise at most
// min(len(buf), size-offset) bytes.
func (fs *FileSystem) Read(dnode uint32, buf []byte, offset uint32) (int, error) {
	fb, err := fs.readFileBlock(dnode)
	if err != nil {
		return 0, err
	}
	if offset >= fb.Size {
		return 0, nil
	}

	toRead := fb.Size - offset
	if uint32(len(buf)) < toRead {
		toRead = uint32(len(buf))
	}

	var indirect *ondisk.RawIndirectBlock
	read := uint32(0)
	for read < toRead {
		blockIndex := (offset + read) / ondisk.BlockSize
		inBlockOffset := (offset + read) % ondisk.BlockSize
		chunk := toRead - read
		if remaining := ondisk.BlockSize - inBlockOffset; chunk > remaining {
			chunk = remaining
		}

		dataBlock, err := fs.dataBlockPointer(&fb, &indirect, blockIndex)
		if err != nil {
			return int(read), err
		}
		if dataBlock == 0 {
			return int(read), crowfserrors.IO.WithMessage("file is missing a data block within its own size")
		}

		raw, err := fs.readRawBlock(dataBlock)
		if err != nil {
			return int(read), err
		}
		copy(buf[read:read+chunk], raw[inBlockOffset:inBlockOffset+chunk])
		read += chunk
	}
	return int(read), nil
}

// Write overwrites bytes [offset, offset+len(data)) of the file at dnode
// with data, per spec.md §4.5. offset must not exceed the file's current
// size (no sparse holes); the write must not extend the file past
// ondisk.MaxFileSize.
//
// The file's size becomes max(currentSize, offset+len(data)). The original
// crowfs_write instead does `size += write_size` unconditionally, which
// double-counts any overwrite that doesn't extend the file; this is
// corrected here (see DESIGN.md's Open Question decisions).
func (fs *FileSystem) Write(dnode uint32, data []byte, offset uint32) error {
	fb, err := fs.readFileBlock(dnode)
	if err != nil {
		return err
	}
	if offset > fb.Size {
		return crowfserrors.Argument.WithMessage("write would leave a sparse hole")
	}
	end := uint64(offset) + uint64(len(data))
	if end > ondisk.MaxFileSize {
		return crowfserrors.Limit.WithMessage("write would exceed the maximum file size")
	}

	var indirect *ondisk.RawIndirectBlock
	indirectDirty := false
	written := uint32(0)
	total := uint32(len(data))
	for written < total {
		blockIndex := (offset + written) / ondisk.BlockSize
		inBlockOffset := (offset + written) % ondisk.BlockSize
		chunk := total - written
		if remaining := ondisk.BlockSize - inBlockOffset; chunk > remaining {
			chunk = remaining
		}

		dataBlock, err := fs.ensureDataBlockPointer(&fb, &indirect, &indirectDirty, blockIndex)
		if err != nil {
			return err
		}

		var raw []byte
		// Skip the read only when this fragment covers the whole block. Any
		// partial fragment, wherever it starts, reads the block first so the
		// bytes it doesn't cover survive; the original decided this on
		// offset > 0 alone (see DESIGN.md's Open Question decisions).
		if inBlockOffset == 0 && chunk == ondisk.BlockSize {
			raw = make([]byte, ondisk.BlockSize)
		} else {
			raw, err = fs.readRawBlock(dataBlock)
			if err != nil {
				return err
			}
		}
		copy(raw[inBlockOffset:inBlockOffset+chunk], data[written:written+chunk])
		if err := fs.device.WriteBlock(dataBlock, raw); err != nil {
			return wrapIOError(err)
		}
		written += chunk
	}

	if indirectDirty {
		if err := fs.writeIndirectBlock(fb.Indirect, indirect); err != nil {
			return err
		}
	}
	if uint32(end) > fb.Size {
		fb.Size = uint32(end)
	}
	return fs.writeFileBlock(dnode, &fb)
}

// dataBlockPointer returns the data block index covering blockIndex,
// reading the indirect block into *indirect on first use beyond the direct
// pointers. It returns 0 for a pointer that's legitimately unallocated
// (callers reading within the file's size should never see this).
func (fs *FileSystem) dataBlockPointer(fb *ondisk.RawFileBlock, indirect **ondisk.RawIndirectBlock, blockIndex uint32) (uint32, error) {
	if blockIndex < ondisk.DirectBlockCount {
		return fb.Direct[blockIndex], nil
	}
	if *indirect == nil {
		if fb.Indirect == 0 {
			return 0, nil
		}
		ib, err := fs.readIndirectBlock(fb.Indirect)
		if err != nil {
			return 0, err
		}
		*indirect = &ib
	}
	return (*indirect).Pointers[blockIndex-ondisk.DirectBlockCount], nil
}

// ensureDataBlockPointer is dataBlockPointer's write-side counterpart: it
// allocates the indirect block and/or the data block itself if either is
// currently unallocated, marking indirectDirty when the indirect block's
// own contents changed.
func (fs *FileSystem) ensureDataBlockPointer(
	fb *ondisk.RawFileBlock,
	indirect **ondisk.RawIndirectBlock,
	indirectDirty *bool,
	blockIndex uint32,
) (uint32, error) {
	if blockIndex < ondisk.DirectBlockCount {
		if fb.Direct[blockIndex] == 0 {
			block, err := fs.alloc.Allocate()
			if err != nil {
				return 0, err
			}
			fb.Direct[blockIndex] = block
		}
		return fb.Direct[blockIndex], nil
	}

	if *indirect == nil {
		if fb.Indirect == 0 {
			newIndirect, err := fs.alloc.Allocate()
			if err != nil {
				return 0, err
			}
			fb.Indirect = newIndirect
			ib := ondisk.RawIndirectBlock{}
			*indirect = &ib
			*indirectDirty = true
		} else {
			ib, err := fs.readIndirectBlock(fb.Indirect)
			if err != nil {
				return 0, err
			}
			*indirect = &ib
		}
	}

	slot := blockIndex - ondisk.DirectBlockCount
	if (*indirect).Pointers[slot] == 0 {
		block, err := fs.alloc.Allocate()
		if err != nil {
			return 0, err
		}
		(*indirect).Pointers[slot] = block
		*indirectDirty = true
	}
	return (*indirect).Pointers[slot], nil
}
