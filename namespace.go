package crowfs

import (
	"time"

	"github.com/hashicorp/go-multierror"

	crowfserrors "github.com/dargueta/crowfs/errors"
	"github.com/dargueta/crowfs/internal/dirops"
	"github.com/dargueta/crowfs/ondisk"
	"github.com/dargueta/crowfs/pathutil"
)

// OpenFlags controls Open's behavior when the requested path isn't found.
type OpenFlags uint32

const (
	// OpenCreate creates the entity named by the final path component if it
	// doesn't already exist.
	OpenCreate OpenFlags = 1 << iota
	// OpenDirectory, combined with OpenCreate, creates a directory instead
	// of a file.
	OpenDirectory
)

// Open resolves path to a dnode, per spec.md §4.4. It returns the dnode and
// its parent's dnode; the root path "/" resolves to (fs.RootDnode(), 0),
// since the root has no parent worth reporting to a caller.
func (fs *FileSystem) Open(path string, flags OpenFlags) (dnode uint32, parent uint32, err error) {
	if len(path) == 0 || path[0] != '/' {
		return 0, 0, crowfserrors.Argument.WithMessage("path is not absolute: " + path)
	}
	components, ok := pathutil.Split(path)
	if !ok {
		return 0, 0, crowfserrors.NotFound.WithMessage("malformed path: " + path)
	}
	if pathutil.IsRoot(path) {
		return fs.rootDnode, reservedParent, nil
	}

	currentDnode := fs.rootDnode
	for _, component := range components {
		dir, err := fs.readDirBlock(currentDnode)
		if err != nil {
			return 0, 0, err
		}

		_, childDnode, found, err := dirops.Find(&dir, component.Name, fs.readHeader)
		if err != nil {
			return 0, 0, err
		}

		if found {
			if component.IsLast {
				return childDnode, currentDnode, nil
			}
			childHeader, err := fs.readHeader(childDnode)
			if err != nil {
				return 0, 0, err
			}
			if ondisk.EntityType(childHeader.Type) != ondisk.TypeFolder {
				return 0, 0, crowfserrors.NotFound.WithMessage(component.Name + " is not a directory")
			}
			currentDnode = childDnode
			continue
		}

		if flags&OpenCreate == 0 || !component.IsLast {
			return 0, 0, crowfserrors.NotFound.WithMessage("no such path: " + path)
		}

		var newDnode uint32
		var createErr error
		if flags&OpenDirectory != 0 {
			newDnode, createErr = fs.createDirectory(component.Name, currentDnode)
		} else {
			newDnode, createErr = fs.createFile(component.Name)
		}
		if createErr != nil {
			return 0, 0, createErr
		}

		if !dirops.Insert(&dir, newDnode) {
			_ = fs.alloc.Free(newDnode)
			return 0, 0, crowfserrors.Limit.WithMessage("directory is full: " + path)
		}
		if err := fs.writeDirBlock(currentDnode, &dir); err != nil {
			return 0, 0, err
		}
		return newDnode, currentDnode, nil
	}

	// Split never returns an empty component list, so every path through
	// the loop above returns; this is unreachable.
	return 0, 0, crowfserrors.NotFound
}

// Stat describes the entity at dnode, whose parent is parentDnode (spec.md
// §4.6). parentDnode isn't re-derived from disk: the caller already has it
// from Open or ReadDir, and files carry no parent field of their own.
func (fs *FileSystem) Stat(dnode uint32, parentDnode uint32) (Stat, error) {
	header, err := fs.readHeader(dnode)
	if err != nil {
		return Stat{}, err
	}

	var size uint32
	switch ondisk.EntityType(header.Type) {
	case ondisk.TypeFile:
		fb, err := fs.readFileBlock(dnode)
		if err != nil {
			return Stat{}, err
		}
		size = fb.Size
	case ondisk.TypeFolder:
		db, err := fs.readDirBlock(dnode)
		if err != nil {
			return Stat{}, err
		}
		size = uint32(dirops.Count(&db))
	default:
		return Stat{}, crowfserrors.Argument.WithMessage("corrupt entity type")
	}

	return Stat{
		Type:         ondisk.EntityType(header.Type),
		Name:         header.GetName(),
		CreationDate: time.Unix(header.CreationDate, 0).UTC(),
		Size:         size,
		Parent:       parentDnode,
		Dnode:        dnode,
	}, nil
}

// ReadDir returns the Stat of the offset-th child of the directory at
// dnode, per spec.md §4.7. It returns errors.Limit once offset reaches the
// directory's capacity or its first unused slot.
func (fs *FileSystem) ReadDir(dnode uint32, offset int) (Stat, error) {
	db, err := fs.readDirBlock(dnode)
	if err != nil {
		return Stat{}, err
	}
	if offset < 0 || offset >= ondisk.MaxDirContents || db.Content[offset] == 0 {
		return Stat{}, crowfserrors.Limit
	}
	return fs.Stat(db.Content[offset], dnode)
}

// Delete removes the entity at dnode from parentDnode's children and frees
// its block(s), per spec.md §4.8. Deleting the root, or passing the
// reserved parent value, is rejected.
func (fs *FileSystem) Delete(dnode uint32, parentDnode uint32) error {
	if parentDnode == reservedParent || dnode == fs.rootDnode {
		return crowfserrors.Argument.WithMessage("cannot delete the root directory")
	}

	header, err := fs.readHeader(dnode)
	if err != nil {
		return err
	}

	switch ondisk.EntityType(header.Type) {
	case ondisk.TypeFile:
		fb, err := fs.readFileBlock(dnode)
		if err != nil {
			return err
		}
		if err := fs.freeFileBlocks(&fb); err != nil {
			return err
		}
	case ondisk.TypeFolder:
		db, err := fs.readDirBlock(dnode)
		if err != nil {
			return err
		}
		if dirops.Count(&db) != 0 {
			return crowfserrors.NotEmpty
		}
	default:
		return crowfserrors.Argument.WithMessage("corrupt entity type")
	}

	parentDir, err := fs.readDirBlock(parentDnode)
	if err != nil {
		return err
	}
	if !dirops.Remove(&parentDir, dnode) {
		return crowfserrors.Argument.WithMessage("dnode is not a child of parentDnode")
	}
	if err := fs.writeDirBlock(parentDnode, &parentDir); err != nil {
		return err
	}
	return fs.alloc.Free(dnode)
}

// freeFileBlocks frees every nonzero indirect-block slot and the indirect
// block itself, then every nonzero direct block, per spec.md §4.8.
//
// A failure freeing one block (e.g. a corrupt bitmap byte) shouldn't stop
// the rest from being freed too, so every attempt is made and any failures
// are aggregated with go-multierror rather than aborting at the first one.
func (fs *FileSystem) freeFileBlocks(fb *ondisk.RawFileBlock) error {
	var result *multierror.Error

	if fb.Indirect != 0 {
		if ib, err := fs.readIndirectBlock(fb.Indirect); err != nil {
			result = multierror.Append(result, err)
		} else {
			for _, ptr := range ib.Pointers {
				if ptr == 0 {
					break
				}
				if err := fs.alloc.Free(ptr); err != nil {
					result = multierror.Append(result, err)
				}
			}
		}
		if err := fs.alloc.Free(fb.Indirect); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for _, ptr := range fb.Direct {
		if ptr == 0 {
			break
		}
		if err := fs.alloc.Free(ptr); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Move relocates and/or renames the entity at dnode, per spec.md §4.9.
// newName may be nil, meaning "keep the current name". A same-name sibling
// of the destination is replaced; if that sibling is a non-empty directory
// the whole operation fails with NotEmpty and nothing is mutated — so the
// collision is checked, and rejected if unsafe, before any write happens.
func (fs *FileSystem) Move(dnode uint32, oldParent uint32, newParent uint32, newName *string) error {
	header, err := fs.readHeader(dnode)
	if err != nil {
		return err
	}
	targetName := header.GetName()
	if newName != nil {
		targetName = *newName
	}

	newParentDir, err := fs.readDirBlock(newParent)
	if err != nil {
		return err
	}
	_, siblingDnode, collides, err := dirops.Find(&newParentDir, targetName, fs.readHeader)
	if err != nil {
		return err
	}
	replacesOther := collides && siblingDnode != dnode
	if replacesOther {
		if err := fs.rejectIfNonEmptyDirectory(siblingDnode); err != nil {
			return err
		}
	}

	if oldParent == newParent {
		if newName != nil {
			if err := fs.relocateEntity(dnode, newParent, newName); err != nil {
				return err
			}
		}
		if replacesOther {
			return fs.Delete(siblingDnode, newParent)
		}
		return nil
	}

	// A same-name sibling frees the slot it occupies when replaced, so a
	// nominally full directory can still accept the move in that case;
	// otherwise a full directory fails before any mutation is made.
	if dirops.Count(&newParentDir) >= ondisk.MaxDirContents && !collides {
		return crowfserrors.Limit
	}

	if err := fs.relocateEntity(dnode, newParent, newName); err != nil {
		return err
	}

	if replacesOther {
		if err := fs.Delete(siblingDnode, newParent); err != nil {
			return err
		}
		// Delete mutated newParentDir on disk; re-read so Count/Insert
		// reflect the freed slot.
		newParentDir, err = fs.readDirBlock(newParent)
		if err != nil {
			return err
		}
	}

	if !dirops.Insert(&newParentDir, dnode) {
		return crowfserrors.Limit
	}
	if err := fs.writeDirBlock(newParent, &newParentDir); err != nil {
		return err
	}

	oldParentDir, err := fs.readDirBlock(oldParent)
	if err != nil {
		return err
	}
	if !dirops.Remove(&oldParentDir, dnode) {
		return crowfserrors.Argument.WithMessage("dnode is not a child of oldParent")
	}
	return fs.writeDirBlock(oldParent, &oldParentDir)
}

// rejectIfNonEmptyDirectory returns errors.NotEmpty if dnode is a non-empty
// directory, without mutating anything; nil otherwise (a file, or an empty
// directory, is always safe to replace).
func (fs *FileSystem) rejectIfNonEmptyDirectory(dnode uint32) error {
	header, err := fs.readHeader(dnode)
	if err != nil {
		return err
	}
	if ondisk.EntityType(header.Type) != ondisk.TypeFolder {
		return nil
	}
	db, err := fs.readDirBlock(dnode)
	if err != nil {
		return err
	}
	if dirops.Count(&db) != 0 {
		return crowfserrors.NotEmpty
	}
	return nil
}

// relocateEntity rewrites dnode's name field (if newName is non-nil) and,
// for directories, refreshes the cached parent pointer to newParent so it
// reflects where the entity actually lives after the move. Called only
// after the destination collision has already been cleared for safety.
func (fs *FileSystem) relocateEntity(dnode uint32, newParent uint32, newName *string) error {
	header, err := fs.readHeader(dnode)
	if err != nil {
		return err
	}
	switch ondisk.EntityType(header.Type) {
	case ondisk.TypeFile:
		if newName == nil {
			return nil
		}
		fb, err := fs.readFileBlock(dnode)
		if err != nil {
			return err
		}
		fb.Header.SetName(*newName)
		return fs.writeFileBlock(dnode, &fb)
	case ondisk.TypeFolder:
		db, err := fs.readDirBlock(dnode)
		if err != nil {
			return err
		}
		if newName != nil {
			db.Header.SetName(*newName)
		}
		db.Parent = newParent
		return fs.writeDirBlock(dnode, &db)
	default:
		return crowfserrors.Argument.WithMessage("corrupt entity type")
	}
}
