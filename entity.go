package crowfs

import (
	crowfserrors "github.com/dargueta/crowfs/errors"
	"github.com/dargueta/crowfs/ondisk"
)

func (fs *FileSystem) readRawBlock(dnode uint32) ([]byte, error) {
	buf := make([]byte, blockSize)
	if err := fs.device.ReadBlock(dnode, buf); err != nil {
		return nil, wrapIOError(err)
	}
	return buf, nil
}

const blockSize = ondisk.BlockSize

func (fs *FileSystem) readHeader(dnode uint32) (ondisk.RawHeader, error) {
	buf, err := fs.readRawBlock(dnode)
	if err != nil {
		return ondisk.RawHeader{}, err
	}
	h, err := ondisk.DecodeHeaderPrefix(buf)
	if err != nil {
		return ondisk.RawHeader{}, crowfserrors.IO.WrapError(err)
	}
	return h, nil
}

func (fs *FileSystem) readFileBlock(dnode uint32) (ondisk.RawFileBlock, error) {
	buf, err := fs.readRawBlock(dnode)
	if err != nil {
		return ondisk.RawFileBlock{}, err
	}
	fb, err := ondisk.DecodeFileBlock(buf)
	if err != nil {
		return ondisk.RawFileBlock{}, crowfserrors.IO.WrapError(err)
	}
	if ondisk.EntityType(fb.Header.Type) != ondisk.TypeFile {
		return ondisk.RawFileBlock{}, crowfserrors.Argument.WithMessage("dnode is not a file")
	}
	return fb, nil
}

func (fs *FileSystem) writeFileBlock(dnode uint32, fb *ondisk.RawFileBlock) error {
	buf, err := ondisk.EncodeFileBlock(fb)
	if err != nil {
		return crowfserrors.IO.WrapError(err)
	}
	return wrapIOError(fs.device.WriteBlock(dnode, buf))
}

func (fs *FileSystem) readDirBlock(dnode uint32) (ondisk.RawDirectoryBlock, error) {
	buf, err := fs.readRawBlock(dnode)
	if err != nil {
		return ondisk.RawDirectoryBlock{}, err
	}
	db, err := ondisk.DecodeDirectoryBlock(buf)
	if err != nil {
		return ondisk.RawDirectoryBlock{}, crowfserrors.IO.WrapError(err)
	}
	if ondisk.EntityType(db.Header.Type) != ondisk.TypeFolder {
		return ondisk.RawDirectoryBlock{}, crowfserrors.Argument.WithMessage("dnode is not a directory")
	}
	return db, nil
}

func (fs *FileSystem) writeDirBlock(dnode uint32, db *ondisk.RawDirectoryBlock) error {
	buf, err := ondisk.EncodeDirectoryBlock(db)
	if err != nil {
		return crowfserrors.IO.WrapError(err)
	}
	return wrapIOError(fs.device.WriteBlock(dnode, buf))
}

func (fs *FileSystem) readIndirectBlock(dnode uint32) (ondisk.RawIndirectBlock, error) {
	buf, err := fs.readRawBlock(dnode)
	if err != nil {
		return ondisk.RawIndirectBlock{}, err
	}
	ib, err := ondisk.DecodeIndirectBlock(buf)
	if err != nil {
		return ondisk.RawIndirectBlock{}, crowfserrors.IO.WrapError(err)
	}
	return ib, nil
}

func (fs *FileSystem) writeIndirectBlock(dnode uint32, ib *ondisk.RawIndirectBlock) error {
	buf, err := ondisk.EncodeIndirectBlock(ib)
	if err != nil {
		return crowfserrors.IO.WrapError(err)
	}
	return wrapIOError(fs.device.WriteBlock(dnode, buf))
}

// createFile allocates a dnode and writes an empty file entity: the caller
// is responsible for linking it into a parent directory afterward.
func (fs *FileSystem) createFile(name string) (uint32, error) {
	dnode, err := fs.alloc.Allocate()
	if err != nil {
		return 0, err
	}
	fb := ondisk.RawFileBlock{}
	fb.Header.Type = uint8(ondisk.TypeFile)
	fb.Header.SetName(name)
	fb.Header.CreationDate = fs.clock.Now().Unix()
	if err := fs.writeFileBlock(dnode, &fb); err != nil {
		_ = fs.alloc.Free(dnode)
		return 0, err
	}
	return dnode, nil
}

// createDirectory allocates a dnode and writes an empty directory entity
// with parent set to parentDnode.
func (fs *FileSystem) createDirectory(name string, parentDnode uint32) (uint32, error) {
	dnode, err := fs.alloc.Allocate()
	if err != nil {
		return 0, err
	}
	db := ondisk.RawDirectoryBlock{Parent: parentDnode}
	db.Header.Type = uint8(ondisk.TypeFolder)
	db.Header.SetName(name)
	db.Header.CreationDate = fs.clock.Now().Unix()
	if err := fs.writeDirBlock(dnode, &db); err != nil {
		_ = fs.alloc.Free(dnode)
		return 0, err
	}
	return dnode, nil
}

