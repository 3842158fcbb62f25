package crowfstest

import (
	"errors"
	"fmt"

	"github.com/dargueta/crowfs"
	crowfserrors "github.com/dargueta/crowfs/errors"
	"github.com/dargueta/crowfs/ondisk"
)

// CheckInvariants walks fs's entire reachable entity graph from its root
// and verifies spec.md §3.7's P1-P4 invariants: every reachable block's
// bitmap bit is allocated, the graph is a tree with no shared children or
// cycles, directories are prefix-dense, and file pointers are prefix-dense
// and consistent with the recorded size. It returns the first violation
// found, or nil if none.
func CheckInvariants(fs *crowfs.FileSystem) error {
	reachable := make(map[uint32]bool)
	if err := walk(fs, fs.RootDnode(), reachable); err != nil {
		return err
	}

	total := fs.TotalBlocks()
	for b := uint32(0); b < total; b++ {
		isFree := fs.IsBlockFree(b)
		isReachableOrMetadata := reachable[b] || fs.IsMetadataBlock(b)
		if isFree && isReachableOrMetadata {
			return fmt.Errorf("P1 violated: block %d is marked free but is metadata or reachable", b)
		}
		if !isFree && !isReachableOrMetadata {
			return fmt.Errorf("P1 violated: block %d is marked allocated but is neither metadata nor reachable", b)
		}
	}
	return nil
}

func walk(fs *crowfs.FileSystem, dnode uint32, seen map[uint32]bool) error {
	if seen[dnode] {
		return fmt.Errorf("P2 violated: dnode %d reached more than once", dnode)
	}
	seen[dnode] = true

	stat, err := fs.Stat(dnode, 0)
	if err != nil {
		return err
	}

	switch stat.Type {
	case ondisk.TypeFolder:
		return walkDirectory(fs, dnode, seen)
	case ondisk.TypeFile:
		return walkFile(fs, dnode, stat.Size, seen)
	default:
		return fmt.Errorf("dnode %d has corrupt type %d", dnode, stat.Type)
	}
}

func walkDirectory(fs *crowfs.FileSystem, dnode uint32, seen map[uint32]bool) error {
	sawUnused := false
	for i := 0; i < ondisk.MaxDirContents; i++ {
		child, err := fs.ReadDir(dnode, i)
		if errors.Is(err, crowfserrors.Limit) {
			// An unused slot: every later slot must be unused too (P3).
			sawUnused = true
			continue
		}
		if err != nil {
			return err
		}
		if sawUnused {
			return fmt.Errorf("P3 violated: directory %d has a child in slot %d after an unused slot", dnode, i)
		}
		if err := walk(fs, child.Dnode, seen); err != nil {
			return err
		}
	}
	return nil
}

func walkFile(fs *crowfs.FileSystem, dnode uint32, size uint32, seen map[uint32]bool) error {
	direct, indirectBlock, indirectPointers, err := fs.FileBlockPointers(dnode)
	if err != nil {
		return err
	}

	if err := markDensePrefix(direct, seen); err != nil {
		return fmt.Errorf("P4 violated: file %d's direct pointers: %w", dnode, err)
	}

	if indirectBlock != 0 {
		seen[indirectBlock] = true
		if err := markDensePrefix(indirectPointers, seen); err != nil {
			return fmt.Errorf("P4 violated: file %d's indirect pointers: %w", dnode, err)
		}
	}

	used := uint32(0)
	for _, ptr := range append(direct, indirectPointers...) {
		if ptr != 0 {
			used++
		}
	}
	if want := (size + ondisk.BlockSize - 1) / ondisk.BlockSize; used != want {
		return fmt.Errorf("P4 violated: file %d has %d data blocks for size %d, want %d", dnode, used, size, want)
	}
	return nil
}

// markDensePrefix marks every nonzero pointer in ptrs as reachable, failing
// if a zero pointer is followed by a nonzero one.
func markDensePrefix(ptrs []uint32, seen map[uint32]bool) error {
	sawZero := false
	for _, ptr := range ptrs {
		if ptr == 0 {
			sawZero = true
			continue
		}
		if sawZero {
			return fmt.Errorf("gap after a zero pointer")
		}
		seen[ptr] = true
	}
	return nil
}
