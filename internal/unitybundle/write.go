package unitybundle

import (
	"fmt"
	"io"

	"github.com/voxelbound/unitybundle/internal/bundleerrs"
	"github.com/voxelbound/unitybundle/internal/byteio"
)

const maxBlockSize = uint32(0xFFFFFFFF) // largest decompressed size a single BlockInfo record can carry

// Write emits a fresh, uncompressed UnityFS bundle reflecting b's current
// DirectoryInfos (applying any attached Replacer edits) to w, starting at
// w's current position. b.DataIsCompressed must be false.
func (b *Bundle) Write(w io.WriteSeeker) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if b.DataIsCompressed {
		return bundleerrs.ErrMustDecompressFirst
	}

	bw := byteio.NewWriter(w)

	headerPos, err := bw.Pos()
	if err != nil {
		return fmt.Errorf("%w: %v", bundleerrs.ErrIoError, err)
	}

	header := *b.Header
	if err := header.Write(bw); err != nil {
		return fmt.Errorf("writing placeholder header: %w", err)
	}

	kept, total := collectKeptEntries(b.Info)

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
		DirectoryInfos: kept,
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
	assetDataPos, err := bw.Pos()
	if err != nil {
		return fmt.Errorf("%w: %v", bundleerrs.ErrIoError, err)
	}

	for i := range listing.DirectoryInfos {
		d := &listing.DirectoryInfos[i]
		start, err := bw.Pos()
		if err != nil {
			return fmt.Errorf("%w: %v", bundleerrs.ErrIoError, err)
		}

		if d.Replacer != nil {
			if err := d.Replacer.WriteContent(bw); err != nil {
				return fmt.Errorf("writing replacement content for %q: %w", d.Name, err)
			}
		} else {
			if err := copyDataRange(bw, b, d.Offset, d.DecompressedSize); err != nil {
				return fmt.Errorf("copying content for %q: %w", d.Name, err)
			}
		}

		end, err := bw.Pos()
		if err != nil {
			return fmt.Errorf("%w: %v", bundleerrs.ErrIoError, err)
		}
		d.Offset = start - assetDataPos
		d.DecompressedSize = end - start
		d.Replacer = nil
	}

	finalPos, err := bw.Pos()
	if err != nil {
		return fmt.Errorf("%w: %v", bundleerrs.ErrIoError, err)
	}
	assetSize := finalPos - assetDataPos

	remaining := assetSize
	for i := range listing.BlockInfos {
		take := remaining
		if take > int64(maxBlockSize) {
			take = int64(maxBlockSize)
		}
		listing.BlockInfos[i] = BlockInfo{
			DecompressedSize: uint32(take),
			CompressedSize:   uint32(take),
			Flags:            0,
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
	header.FS.CompressedSize = uint32(assetDataPos - listingPos)
	header.FS.DecompressedSize = uint32(assetDataPos - listingPos)
	header.FS.Flags &^= flagCompressionMask | flagBlockAndDirAtEnd

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

// collectKeptEntries applies each DirectoryInfo's attached Replacer (if
// any) to decide which entries survive a rewrite and what size each will
// occupy, returning the surviving entries in original order and their
// total occupied size.
func collectKeptEntries(info *BlockAndDirInfo) ([]DirectoryInfo, int64) {
	kept := make([]DirectoryInfo, 0, len(info.DirectoryInfos))
	var total int64
	for _, d := range info.DirectoryInfos {
		if d.Replacer != nil && d.Replacer.Remove() {
			continue
		}
		size := d.DecompressedSize
		if d.Replacer != nil {
			size = d.Replacer.Size()
		}
		total += size
		kept = append(kept, d)
	}
	return kept, total
}

// copyDataRange copies length bytes from b's data reader at offset into w,
// in chunks, to avoid buffering an entire replaced-or-copied entry.
func copyDataRange(w *byteio.Writer, b *Bundle, offset, length int64) error {
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
		if err := w.WriteExact(buf[:read]); err != nil {
			return err
		}
		pos += int64(read)
		remaining -= int64(read)
	}
	return nil
}
