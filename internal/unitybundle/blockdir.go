package unitybundle

import (
	"fmt"

	"github.com/voxelbound/unitybundle/internal/byteio"
)

// blockFlagCompressionMask is the low 6 bits of a BlockInfo.Flags field,
// identifying that block's own compression type.
const blockFlagCompressionMask uint16 = 0x3F

// blockFlagPlaceholder marks a block record written by Write
// before its final size is known.
const blockFlagPlaceholder uint16 = 0x40

// BlockInfo describes one compressed block in the data region. Block
// order defines concatenation order of blocks in the data region.
type BlockInfo struct {
	DecompressedSize uint32
	CompressedSize   uint32
	Flags            uint16
}

// CompressionType returns this block's own compression type (the low 6
// bits of Flags).
func (b BlockInfo) CompressionType() CompressionType {
	return CompressionType(b.Flags & blockFlagCompressionMask)
}

// DirectoryInfo locates one embedded file within the logical decompressed
// data region, plus an optional attached edit intent applied by Write.
type DirectoryInfo struct {
	Offset           int64
	DecompressedSize int64
	Flags            uint32
	Name             string

	// Replacer is nil for an entry read as-is, or a capability that
	// substitutes or removes this entry's content on the next Write.
	Replacer Replacer
}

// BlockAndDirInfo is the parsed block/directory listing: a hash carried
// through unmodified, the ordered list of compressed blocks, and the
// directory of embedded files.
type BlockAndDirInfo struct {
	Hash           Hash128
	BlockInfos     []BlockInfo
	DirectoryInfos []DirectoryInfo
}

// ReadBlockAndDirInfo parses the big-endian listing layout: hash, block
// count + records, directory count + records.
func ReadBlockAndDirInfo(r *byteio.Reader) (*BlockAndDirInfo, error) {
	var hash Hash128
	hashBytes, err := r.ReadBytes(len(hash))
	if err != nil {
		return nil, fmt.Errorf("reading listing hash: %w", err)
	}
	copy(hash[:], hashBytes)

	blockCount, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading block count: %w", err)
	}
	blocks := make([]BlockInfo, blockCount)
	for i := range blocks {
		dsize, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("reading block %d decompressed size: %w", i, err)
		}
		csize, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("reading block %d compressed size: %w", i, err)
		}
		flags, err := r.ReadU16()
		if err != nil {
			return nil, fmt.Errorf("reading block %d flags: %w", i, err)
		}
		blocks[i] = BlockInfo{DecompressedSize: dsize, CompressedSize: csize, Flags: flags}
	}

	dirCount, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading directory count: %w", err)
	}
	dirs := make([]DirectoryInfo, dirCount)
	for i := range dirs {
		offset, err := r.ReadI64()
		if err != nil {
			return nil, fmt.Errorf("reading directory %d offset: %w", i, err)
		}
		decompressedSize, err := r.ReadI64()
		if err != nil {
			return nil, fmt.Errorf("reading directory %d decompressed size: %w", i, err)
		}
		flags, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("reading directory %d flags: %w", i, err)
		}
		name, err := r.ReadNullTerminated()
		if err != nil {
			return nil, fmt.Errorf("reading directory %d name: %w", i, err)
		}
		dirs[i] = DirectoryInfo{Offset: offset, DecompressedSize: decompressedSize, Flags: flags, Name: name}
	}

	return &BlockAndDirInfo{Hash: hash, BlockInfos: blocks, DirectoryInfos: dirs}, nil
}

// Write emits the listing in the layout ReadBlockAndDirInfo expects.
func (b *BlockAndDirInfo) Write(w *byteio.Writer) error {
	if err := w.WriteExact(b.Hash[:]); err != nil {
		return err
	}

	if err := w.WriteU32(uint32(len(b.BlockInfos))); err != nil {
		return err
	}
	for _, blk := range b.BlockInfos {
		if err := w.WriteU32(blk.DecompressedSize); err != nil {
			return err
		}
		if err := w.WriteU32(blk.CompressedSize); err != nil {
			return err
		}
		if err := w.WriteU16(blk.Flags); err != nil {
			return err
		}
	}

	if err := w.WriteU32(uint32(len(b.DirectoryInfos))); err != nil {
		return err
	}
	for _, dir := range b.DirectoryInfos {
		if err := w.WriteI64(dir.Offset); err != nil {
			return err
		}
		if err := w.WriteI64(dir.DecompressedSize); err != nil {
			return err
		}
		if err := w.WriteU32(dir.Flags); err != nil {
			return err
		}
		if err := w.WriteNullTerminated(dir.Name); err != nil {
			return err
		}
	}
	return nil
}
