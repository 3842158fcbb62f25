package crowfs

// IsBlockFree reports whether block's bitmap bit currently reads 1 (free).
// Exported for crowfstest's invariant checker; ordinary callers never need
// to inspect the bitmap directly.
func (fs *FileSystem) IsBlockFree(block uint32) bool {
	return fs.alloc.IsFree(block)
}

// IsMetadataBlock reports whether block is part of the fixed layout that
// exists before any entity is created: the bootloader, the superblock, the
// bitmap itself, or the root directory.
func (fs *FileSystem) IsMetadataBlock(block uint32) bool {
	return block < reservedBlockCount(fs.rootDnode)
}

// FileBlockPointers returns dnode's direct data-block pointers, the dnode
// of its indirect block (0 if it has none), and that indirect block's own
// data pointers. Exported for crowfstest's invariant checker.
func (fs *FileSystem) FileBlockPointers(dnode uint32) (direct []uint32, indirectBlock uint32, indirectPointers []uint32, err error) {
	fb, err := fs.readFileBlock(dnode)
	if err != nil {
		return nil, 0, nil, err
	}
	direct = append(direct, fb.Direct[:]...)
	if fb.Indirect == 0 {
		return direct, 0, nil, nil
	}
	ib, err := fs.readIndirectBlock(fb.Indirect)
	if err != nil {
		return nil, 0, nil, err
	}
	indirectPointers = append(indirectPointers, ib.Pointers[:]...)
	return direct, fb.Indirect, indirectPointers, nil
}
