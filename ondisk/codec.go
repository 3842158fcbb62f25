package ondisk

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// EncodeSuperblock serializes sb into a freshly zeroed BlockSize-byte block.
func EncodeSuperblock(sb *RawSuperblock) ([]byte, error) {
	return encodeIntoBlock(sb)
}

// DecodeSuperblock reads a RawSuperblock from the first bytes of buf.
func DecodeSuperblock(buf []byte) (RawSuperblock, error) {
	var sb RawSuperblock
	err := decodeFromBlock(buf, &sb)
	return sb, err
}

// EncodeFileBlock serializes fb into a BlockSize-byte block. The caller is
// responsible for ensuring fb.Header.Type is TypeFile.
func EncodeFileBlock(fb *RawFileBlock) ([]byte, error) {
	return encodeIntoBlock(fb)
}

// DecodeFileBlock reads a RawFileBlock from buf.
func DecodeFileBlock(buf []byte) (RawFileBlock, error) {
	var fb RawFileBlock
	err := decodeFromBlock(buf, &fb)
	return fb, err
}

// EncodeDirectoryBlock serializes db into a BlockSize-byte block.
func EncodeDirectoryBlock(db *RawDirectoryBlock) ([]byte, error) {
	return encodeIntoBlock(db)
}

// DecodeDirectoryBlock reads a RawDirectoryBlock from buf.
func DecodeDirectoryBlock(buf []byte) (RawDirectoryBlock, error) {
	var db RawDirectoryBlock
	err := decodeFromBlock(buf, &db)
	return db, err
}

// EncodeIndirectBlock serializes ib into a BlockSize-byte block.
func EncodeIndirectBlock(ib *RawIndirectBlock) ([]byte, error) {
	return encodeIntoBlock(ib)
}

// DecodeIndirectBlock reads a RawIndirectBlock from buf.
func DecodeIndirectBlock(buf []byte) (RawIndirectBlock, error) {
	var ib RawIndirectBlock
	err := decodeFromBlock(buf, &ib)
	return ib, err
}

// DecodeHeaderPrefix reads just the RawHeader prefix of buf, for callers
// that only need the type/name/creation-date and not a whole entity block.
func DecodeHeaderPrefix(buf []byte) (RawHeader, error) {
	var h RawHeader
	if len(buf) < HeaderSize {
		return h, fmt.Errorf("block too short to contain a header: got %d bytes, need %d", len(buf), HeaderSize)
	}
	err := binary.Read(bytes.NewReader(buf[:HeaderSize]), binary.LittleEndian, &h)
	return h, err
}

// PeekHeaderType reads just the one-byte type tag from a raw block without
// decoding the rest of it, for callers that need to dispatch on type before
// picking a concrete decode function.
func PeekHeaderType(buf []byte) (EntityType, error) {
	if len(buf) < 1 {
		return 0, fmt.Errorf("block too short to contain a header")
	}
	return EntityType(buf[0]), nil
}

func encodeIntoBlock(v any) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(BlockSize)
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	if buf.Len() > BlockSize {
		return nil, fmt.Errorf("encoded %T is %d bytes, exceeds block size %d", v, buf.Len(), BlockSize)
	}
	out := make([]byte, BlockSize)
	copy(out, buf.Bytes())
	return out, nil
}

func decodeFromBlock(block []byte, v any) error {
	if len(block) != BlockSize {
		return fmt.Errorf("block must be exactly %d bytes, got %d", BlockSize, len(block))
	}
	return binary.Read(bytes.NewReader(block), binary.LittleEndian, v)
}
