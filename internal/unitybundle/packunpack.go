package unitybundle

import (
	"bytes"
	"fmt"
	"io"

	"github.com/voxelbound/unitybundle/internal/bundleerrs"
	"github.com/voxelbound/unitybundle/internal/byteio"
	"github.com/voxelbound/unitybundle/internal/codec"
)

// Unpack writes a copy of b to w with both the listing and the data
// region stored uncompressed, preserving directory offsets, sizes and
// names exactly. Each source block is read raw from the input and decoded
// according to its own BlockInfo.CompressionType() — copied verbatim for
// type 0, LZ4/LZ4HC block-decoded for types 2/3, LZMA stream-decoded for
// type 1 — rather than through DataReader. A block whose type disagrees
// with the bundle-level classification (the first non-None block type)
// fails with ErrUnsupportedCompression.
func Unpack(b *Bundle, w io.WriteSeeker) error {
	if err := b.checkOpen(); err != nil {
		return err
	}

	bw := byteio.NewWriter(w)

	headerPos, err := bw.Pos()
	if err != nil {
		return fmt.Errorf("%w: %v", bundleerrs.ErrIoError, err)
	}

	header := *b.Header
	header.FS.Flags &^= flagCompressionMask | flagBlockAndDirAtEnd
	if err := header.Write(bw); err != nil {
		return fmt.Errorf("writing placeholder header: %w", err)
	}

	total := totalDataSize(b.Info.BlockInfos, b.Header)
	blockCount := int((total + int64(maxBlockSize) - 1) / int64(maxBlockSize))
	if blockCount < 1 {
		blockCount = 1
	}
	blocks := make([]BlockInfo, blockCount)
	for i := range blocks {
		blocks[i] = BlockInfo{Flags: blockFlagPlaceholder}
	}

	listing := &BlockAndDirInfo{
		Hash:           b.Info.Hash,
		BlockInfos:     blocks,
		DirectoryInfos: append([]DirectoryInfo(nil), b.Info.DirectoryInfos...),
	}
	for i := range listing.DirectoryInfos {
		listing.DirectoryInfos[i].Replacer = nil
	}

	listingPos, err := bw.Pos()
	if err != nil {
		return fmt.Errorf("%w: %v", bundleerrs.ErrIoError, err)
	}
	if err := listing.Write(bw); err != nil {
		return fmt.Errorf("writing placeholder listing: %w", err)
	}

	if header.FS.BlockInfoNeedsPaddingAtStart() {
		if err := bw.Align16(); err != nil {
			return fmt.Errorf("aligning data region start: %w", err)
		}
	}
	dataPos, err := bw.Pos()
	if err != nil {
		return fmt.Errorf("%w: %v", bundleerrs.ErrIoError, err)
	}

	if err := decodeSourceBlocks(bw, b); err != nil {
		return fmt.Errorf("decoding source data blocks: %w", err)
	}

	finalPos, err := bw.Pos()
	if err != nil {
		return fmt.Errorf("%w: %v", bundleerrs.ErrIoError, err)
	}

	remaining := finalPos - dataPos
	for i := range listing.BlockInfos {
		take := remaining
		if take > int64(maxBlockSize) {
			take = int64(maxBlockSize)
		}
		listing.BlockInfos[i] = BlockInfo{
			DecompressedSize: uint32(take),
			CompressedSize:   uint32(take),
		}
		remaining -= take
	}

	if _, err := bw.Seek(listingPos, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seeking back to listing: %v", bundleerrs.ErrIoError, err)
	}
	if err := listing.Write(bw); err != nil {
		return fmt.Errorf("rewriting final listing: %w", err)
	}

	header.FS.TotalFileSize = finalPos
	header.FS.CompressedSize = uint32(dataPos - listingPos)
	header.FS.DecompressedSize = uint32(dataPos - listingPos)

	if _, err := bw.Seek(headerPos, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seeking back to header: %v", bundleerrs.ErrIoError, err)
	}
	if err := header.Write(bw); err != nil {
		return fmt.Errorf("rewriting final header: %w", err)
	}

	if _, err := bw.Seek(finalPos, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", bundleerrs.ErrIoError, err)
	}
	return nil
}

// decodeSourceBlocks walks b's raw, still-compressed data region block by
// block and writes each block's decoded bytes to w, dispatching on that
// block's own BlockInfo.CompressionType(). Blocks whose type (LZ4HC
// counted as LZ4) differs from the bundle-level classification are
// rejected with ErrUnsupportedCompression.
func decodeSourceBlocks(w *byteio.Writer, b *Bundle) error {
	bundleType := classifyDataCompression(b.Info.BlockInfos)
	offset := b.Header.GetFileDataOffset()
	for i, blk := range b.Info.BlockInfos {
		t := blk.CompressionType()
		blockType := t
		if blockType == CompressionLZ4HC {
			blockType = CompressionLZ4
		}
		if blockType != bundleType {
			return fmt.Errorf("%w: block %d has compression type %d in a bundle classified as type %d",
				bundleerrs.ErrUnsupportedCompression, i, t, bundleType)
		}

		compressed := make([]byte, blk.CompressedSize)
		if _, err := b.readerAt.ReadAt(compressed, offset); err != nil {
			return fmt.Errorf("%w: reading source block %d: %v", bundleerrs.ErrIoError, i, err)
		}
		offset += int64(blk.CompressedSize)

		switch t {
		case CompressionNone:
			if err := w.WriteExact(compressed); err != nil {
				return err
			}
		case CompressionLZ4, CompressionLZ4HC:
			decoded := make([]byte, blk.DecompressedSize)
			if err := codec.LZ4DecompressBlock(compressed, decoded); err != nil {
				return fmt.Errorf("decoding lz4 block %d: %w", i, err)
			}
			if err := w.WriteExact(decoded); err != nil {
				return err
			}
		case CompressionLZMA:
			var decoded bytes.Buffer
			decoded.Grow(int(blk.DecompressedSize))
			if err := codec.LZMADecompressStream(bytes.NewReader(compressed), &decoded,
				int64(blk.DecompressedSize), int64(blk.CompressedSize)); err != nil {
				return fmt.Errorf("decoding lzma block %d: %w", i, err)
			}
			if err := w.WriteExact(decoded.Bytes()); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: block %d has compression type %d", bundleerrs.ErrUnsupportedCompression, i, t)
		}
	}
	return nil
}

// PackOptions configures Pack.
type PackOptions struct {
	// Compression selects the payload codec: CompressionNone or
	// CompressionLZMA. The block/directory listing is always stored
	// LZ4HC-compressed regardless of this setting.
	Compression CompressionType
	// BlockDirAtEnd stores the listing after the data region (flag
	// 0x80) instead of immediately after the header.
	BlockDirAtEnd bool
	// OnBlockComplete, if set, is invoked once after the single data
	// block has been compressed and written. Advisory and report-only;
	// Pack does not inspect or act on its return.
	OnBlockComplete func(compressedSize int64)
}

// Pack writes b to w as a freshly compressed bundle: a single data block
// under Compression, and an LZ4HC-compressed listing. b.DataIsCompressed
// must be false (Unpack first if it came from an LZMA source).
func Pack(b *Bundle, w io.WriteSeeker, opts PackOptions) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if b.DataIsCompressed {
		return bundleerrs.ErrMustDecompressFirst
	}
	if opts.Compression != CompressionNone && opts.Compression != CompressionLZMA {
		return fmt.Errorf("%w: pack compression %d", bundleerrs.ErrUnsupportedCompression, opts.Compression)
	}

	kept, total := collectKeptEntries(b.Info)

	payload := bytes.NewBuffer(make([]byte, 0, total))
	for i := range kept {
		d := &kept[i]
		start := int64(payload.Len())
		if d.Replacer != nil {
			bw := byteio.NewWriter(&sizeTrackingWriteSeeker{buf: payload})
			if err := d.Replacer.WriteContent(bw); err != nil {
				return fmt.Errorf("writing replacement content for %q: %w", d.Name, err)
			}
		} else {
			if err := copyDataRangeToBuffer(payload, b, d.Offset, d.DecompressedSize); err != nil {
				return fmt.Errorf("copying content for %q: %w", d.Name, err)
			}
		}
		d.Offset = start
		d.DecompressedSize = int64(payload.Len()) - start
		d.Replacer = nil
	}

	var compressedPayload []byte
	var payloadFlags uint16
	switch opts.Compression {
	case CompressionNone:
		compressedPayload = payload.Bytes()
		payloadFlags = 0x00
	case CompressionLZMA:
		var out bytes.Buffer
		if err := codec.LZMACompressStream(bytes.NewReader(payload.Bytes()), &out); err != nil {
			return fmt.Errorf("compressing payload: %w", err)
		}
		compressedPayload = out.Bytes()
		payloadFlags = 0x41
	}

	if len(payload.Bytes()) > int(maxBlockSize) {
		return fmt.Errorf("%w: packed payload exceeds single-block capacity", bundleerrs.ErrMalformedInput)
	}

	listing := &BlockAndDirInfo{
		Hash: b.Info.Hash,
		BlockInfos: []BlockInfo{
			{
				DecompressedSize: uint32(payload.Len()),
				CompressedSize:   uint32(len(compressedPayload)),
				Flags:            payloadFlags,
			},
		},
		DirectoryInfos: kept,
	}

	var rawListing bytes.Buffer
	if err := listing.Write(byteio.NewWriter(&sizeTrackingWriteSeeker{buf: &rawListing})); err != nil {
		return fmt.Errorf("serializing listing: %w", err)
	}

	compressedListing, err := codec.LZ4CompressBlock(rawListing.Bytes(), codec.LZ4HCMax)
	if err != nil {
		return fmt.Errorf("compressing listing: %w", err)
	}

	flags := uint32(CompressionLZ4HC) | flagHasDirectoryInfo
	if opts.BlockDirAtEnd {
		flags |= flagBlockAndDirAtEnd
	}

	header := Header{
		Signature:         "UnityFS",
		Version:           b.Header.Version,
		GenerationVersion: b.Header.GenerationVersion,
		EngineVersion:     b.Header.EngineVersion,
		FS: FSHeader{
			CompressedSize:   uint32(len(compressedListing)),
			DecompressedSize: uint32(rawListing.Len()),
			Flags:            flags,
		},
	}

	bw := byteio.NewWriter(w)
	if opts.BlockDirAtEnd {
		if err := header.Write(bw); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		if err := bw.WriteExact(compressedPayload); err != nil {
			return fmt.Errorf("writing payload: %w", err)
		}
		if err := bw.WriteExact(compressedListing); err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
		pos, err := bw.Pos()
		if err != nil {
			return fmt.Errorf("%w: %v", bundleerrs.ErrIoError, err)
		}
		header.FS.TotalFileSize = pos
	} else {
		if err := header.Write(bw); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		if err := bw.WriteExact(compressedListing); err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
		if err := bw.WriteExact(compressedPayload); err != nil {
			return fmt.Errorf("writing payload: %w", err)
		}
		pos, err := bw.Pos()
		if err != nil {
			return fmt.Errorf("%w: %v", bundleerrs.ErrIoError, err)
		}
		header.FS.TotalFileSize = pos
	}
	if opts.OnBlockComplete != nil {
		opts.OnBlockComplete(int64(len(compressedPayload)))
	}

	if _, err := bw.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seeking back to header: %v", bundleerrs.ErrIoError, err)
	}
	if err := header.Write(bw); err != nil {
		return fmt.Errorf("rewriting final header: %w", err)
	}
	if _, err := bw.Seek(header.FS.TotalFileSize, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", bundleerrs.ErrIoError, err)
	}
	return nil
}

func copyDataRangeToBuffer(dst *bytes.Buffer, b *Bundle, offset, length int64) error {
	const chunkSize = 256 * 1024
	buf := make([]byte, chunkSize)

	remaining := length
	pos := offset
	for remaining > 0 {
		n := int64(len(buf))
		if n > remaining {
			n = remaining
		}
		read, err := b.ReadData(buf[:n], pos)
		if err != nil && read == 0 {
			return fmt.Errorf("%w: %v", bundleerrs.ErrIoError, err)
		}
		dst.Write(buf[:read])
		pos += int64(read)
		remaining -= int64(read)
	}
	return nil
}

// sizeTrackingWriteSeeker adapts a bytes.Buffer into an io.WriteSeeker for
// byteio.Writer, since buffer-backed listings are always written linearly
// from position 0 and never seeked.
type sizeTrackingWriteSeeker struct {
	buf *bytes.Buffer
}

func (s *sizeTrackingWriteSeeker) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

func (s *sizeTrackingWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	if offset == 0 && (whence == io.SeekCurrent || whence == io.SeekEnd) {
		return int64(s.buf.Len()), nil
	}
	return 0, fmt.Errorf("%w: buffer writer does not support arbitrary seeks", bundleerrs.ErrIoError)
}
