// Package dirops implements the directory operations of spec.md §4.3:
// count, find, insert, remove over a decoded directory block held in
// memory. None of these functions touch the block device; callers are
// responsible for reading the directory block before calling in, and
// writing it back out afterward if it was mutated.
//
// Grounded on original_source/crowfs.c's folder_content_count and
// folder_remove_content, restructured as small pure functions the way
// disko's drivers/common/basedriver/driver.go structures its helpers
// around a handle rather than a monolithic method.
package dirops

import "github.com/dargueta/crowfs/ondisk"

// Count returns the index of the first zero slot in dir's child list, or
// ondisk.MaxDirContents if the directory is full (no terminator).
func Count(dir *ondisk.RawDirectoryBlock) int {
	for i, dnode := range dir.Content {
		if dnode == 0 {
			return i
		}
	}
	return ondisk.MaxDirContents
}

// Find looks for a child named name, reading each child's header via
// readHeader (typically a closure over the caller's block device). It
// returns the slot index and dnode of the first match, or ok=false if no
// child has that name.
//
// Name comparison is bytewise and case-sensitive, per spec.md §4.3.
func Find(
	dir *ondisk.RawDirectoryBlock,
	name string,
	readHeader func(dnode uint32) (ondisk.RawHeader, error),
) (slot int, dnode uint32, ok bool, err error) {
	count := Count(dir)
	for i := 0; i < count; i++ {
		childDnode := dir.Content[i]
		header, readErr := readHeader(childDnode)
		if readErr != nil {
			return 0, 0, false, readErr
		}
		if header.GetName() == name {
			return i, childDnode, true, nil
		}
	}
	return 0, 0, false, nil
}

// Insert places dnode at the first free slot. It reports ok=false (no
// mutation performed) if the directory is already full.
func Insert(dir *ondisk.RawDirectoryBlock, dnode uint32) bool {
	count := Count(dir)
	if count >= ondisk.MaxDirContents {
		return false
	}
	dir.Content[count] = dnode
	return true
}

// Remove deletes dnode from dir's child list, swapping the last nonzero
// slot into the removed slot's place to keep the prefix-dense invariant
// (spec.md P3) with O(1) slots touched. It reports ok=false if dnode isn't
// one of dir's children.
func Remove(dir *ondisk.RawDirectoryBlock, dnode uint32) bool {
	slot := -1
	for i, child := range dir.Content {
		if child == dnode {
			slot = i
			break
		}
	}
	if slot == -1 {
		return false
	}

	count := Count(dir)
	lastIndex := count - 1
	if lastIndex == slot {
		dir.Content[slot] = 0
	} else {
		dir.Content[slot] = dir.Content[lastIndex]
		dir.Content[lastIndex] = 0
	}
	return true
}
