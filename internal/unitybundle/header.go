// Package unitybundle reads, rewrites, repacks, and unpacks Unity
// AssetBundle (UnityFS) container files: a layered header → block/directory
// listing → logical decompressed data stream of embedded entries.
package unitybundle

import (
	"fmt"

	"github.com/voxelbound/unitybundle/internal/bundleerrs"
	"github.com/voxelbound/unitybundle/internal/byteio"
)

// CompressionType identifies how a block or listing is compressed. The
// same encoding is used for the FSHeader's listing-compression field and
// for each BlockInfo's per-block flags.
type CompressionType uint8

const (
	CompressionNone  CompressionType = 0
	CompressionLZMA  CompressionType = 1
	CompressionLZ4   CompressionType = 2
	CompressionLZ4HC CompressionType = 3
)

// FSHeader flag bits, per the UnityFS format.
const (
	flagCompressionMask           uint32 = 0x3F
	flagHasDirectoryInfo          uint32 = 0x40
	flagBlockAndDirAtEnd          uint32 = 0x80
	flagBlockInfoNeedsPaddingHead uint32 = 0x200
)

const (
	minSupportedVersion = 6
	maxSupportedVersion = 8
	alignmentVersion    = 7
)

// Hash128 is an opaque 16-byte identifier carried through unmodified.
type Hash128 [16]byte

// FSHeader is the fixed-layout tail of BundleHeader describing the size
// and framing of the block/directory listing and data region.
type FSHeader struct {
	TotalFileSize     int64
	CompressedSize    uint32
	DecompressedSize  uint32
	Flags             uint32
}

// CompressionType returns the low 6 bits of Flags: the listing's own
// compression type.
func (h FSHeader) CompressionType() CompressionType {
	return CompressionType(h.Flags & flagCompressionMask)
}

// HasDirectoryInfo reports whether the 0x40 flag bit is set.
func (h FSHeader) HasDirectoryInfo() bool {
	return h.Flags&flagHasDirectoryInfo != 0
}

// BlockAndDirAtEnd reports whether the listing is stored at end-of-file
// (0x80) rather than immediately after the header.
func (h FSHeader) BlockAndDirAtEnd() bool {
	return h.Flags&flagBlockAndDirAtEnd != 0
}

// BlockInfoNeedsPaddingAtStart reports whether the data region must be
// 16-byte aligned before the first block (0x200).
func (h FSHeader) BlockInfoNeedsPaddingAtStart() bool {
	return h.Flags&flagBlockInfoNeedsPaddingHead != 0
}

// Header is the UnityFS bundle header: signature, version, the two
// free-form version strings, and the embedded FSHeader.
type Header struct {
	Signature         string
	Version           uint32
	GenerationVersion string
	EngineVersion     string
	FS                FSHeader

	// headerEnd is the stream offset immediately after the header (and
	// any version>=7 alignment padding), recorded by Read/Write.
	headerEnd int64
}

// ReadHeader parses a Header starting at the reader's current position.
func ReadHeader(r *byteio.Reader) (*Header, error) {
	sig, err := r.ReadNullTerminated()
	if err != nil {
		return nil, fmt.Errorf("reading bundle signature: %w", err)
	}
	if sig != "UnityFS" {
		return nil, fmt.Errorf("%w: signature %q", bundleerrs.ErrUnsupportedSignature, sig)
	}

	version, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading bundle version: %w", err)
	}
	if version < minSupportedVersion || version > maxSupportedVersion {
		return nil, fmt.Errorf("%w: version %d", bundleerrs.ErrUnsupportedVersion, version)
	}

	genVer, err := r.ReadNullTerminated()
	if err != nil {
		return nil, fmt.Errorf("reading generation version: %w", err)
	}
	engineVer, err := r.ReadNullTerminated()
	if err != nil {
		return nil, fmt.Errorf("reading engine version: %w", err)
	}

	totalSize, err := r.ReadI64()
	if err != nil {
		return nil, fmt.Errorf("reading total file size: %w", err)
	}
	compressedSize, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading fs header compressed size: %w", err)
	}
	decompressedSize, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading fs header decompressed size: %w", err)
	}
	flags, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading fs header flags: %w", err)
	}

	h := &Header{
		Signature:         sig,
		Version:           version,
		GenerationVersion: genVer,
		EngineVersion:     engineVer,
		FS: FSHeader{
			TotalFileSize:    totalSize,
			CompressedSize:   compressedSize,
			DecompressedSize: decompressedSize,
			Flags:            flags,
		},
	}

	if version >= alignmentVersion {
		if err := r.Align16(); err != nil {
			return nil, fmt.Errorf("aligning after header: %w", err)
		}
	}

	pos, err := r.Pos()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bundleerrs.ErrIoError, err)
	}
	h.headerEnd = pos

	return h, nil
}

// Write emits the header at the writer's current position and records
// where the header (plus any alignment) ends, for GetFileDataOffset and
// GetBundleInfoOffset to use on a freshly-written bundle.
func (h *Header) Write(w *byteio.Writer) error {
	if err := w.WriteNullTerminated("UnityFS"); err != nil {
		return err
	}
	if err := w.WriteU32(h.Version); err != nil {
		return err
	}
	if err := w.WriteNullTerminated(h.GenerationVersion); err != nil {
		return err
	}
	if err := w.WriteNullTerminated(h.EngineVersion); err != nil {
		return err
	}
	if err := w.WriteI64(h.FS.TotalFileSize); err != nil {
		return err
	}
	if err := w.WriteU32(h.FS.CompressedSize); err != nil {
		return err
	}
	if err := w.WriteU32(h.FS.DecompressedSize); err != nil {
		return err
	}
	if err := w.WriteU32(h.FS.Flags); err != nil {
		return err
	}
	if h.Version >= alignmentVersion {
		if err := w.Align16(); err != nil {
			return err
		}
	}
	pos, err := w.Pos()
	if err != nil {
		return fmt.Errorf("%w: %v", bundleerrs.ErrIoError, err)
	}
	h.headerEnd = pos
	return nil
}

// GetBundleInfoOffset returns the file offset where the block/directory
// listing is stored.
func (h *Header) GetBundleInfoOffset() int64 {
	if h.FS.BlockAndDirAtEnd() {
		return h.FS.TotalFileSize - int64(h.FS.CompressedSize)
	}
	return h.headerEnd
}

// GetFileDataOffset returns the file offset where the data region
// begins.
func (h *Header) GetFileDataOffset() int64 {
	if h.FS.BlockAndDirAtEnd() {
		return h.headerEnd
	}
	offset := h.headerEnd + int64(h.FS.CompressedSize)
	if h.FS.BlockInfoNeedsPaddingAtStart() {
		pad := (16 - (offset % 16)) % 16
		offset += pad
	}
	return offset
}

// GetCompressionType returns the listing's own compression type (the low
// 6 bits of FS.Flags).
func (h *Header) GetCompressionType() CompressionType {
	return h.FS.CompressionType()
}
