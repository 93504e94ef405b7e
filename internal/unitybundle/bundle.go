package unitybundle

import (
	"fmt"
	"io"

	"github.com/voxelbound/unitybundle/internal/bundleerrs"
	"github.com/voxelbound/unitybundle/internal/byteio"
	"github.com/voxelbound/unitybundle/internal/codec"
	"github.com/voxelbound/unitybundle/internal/streamio"
)

// dataReader is what Bundle exposes as its logical decompressed data
// region: a seekable, randomly-readable stream.
type dataReader interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// Bundle is a parsed UnityFS container: its header, its block/directory
// listing (with any attached Replacer edits), and a façade over the
// logical decompressed data region.
//
// A Bundle is not safe for concurrent use: DataReader, the underlying
// input stream, and the LZ4 block cache are all mutable seek-state
// holders exclusive to this instance.
type Bundle struct {
	Header          *Header
	Info            *BlockAndDirInfo
	DataReader      dataReader
	DataIsCompressed bool

	reader   io.ReadSeeker
	readerAt io.ReaderAt
	closed   bool
}

// Read parses a UnityFS bundle from r: the header, the block/directory
// listing (decompressing it first if required), and installs the
// appropriate random-access strategy as DataReader (C7, "UnpackInfoOnly").
func Read(r io.ReadSeeker) (*Bundle, error) {
	br := byteio.NewReader(r)

	header, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}

	if _, err := br.Seek(header.GetBundleInfoOffset(), io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: seeking to listing: %v", bundleerrs.ErrIoError, err)
	}

	info, err := readListing(br, header)
	if err != nil {
		return nil, err
	}

	readerAt, ok := r.(io.ReaderAt)
	if !ok {
		return nil, fmt.Errorf("%w: input stream does not support ReadAt", bundleerrs.ErrIoError)
	}

	b := &Bundle{Header: header, Info: info, reader: r, readerAt: readerAt}

	dataCompression := classifyDataCompression(info.BlockInfos)

	switch dataCompression {
	case CompressionNone:
		b.DataReader = streamio.NewSegmentReader(readerAt, header.GetFileDataOffset(), totalDataSize(info.BlockInfos, header))
		b.DataIsCompressed = false
	case CompressionLZMA:
		b.DataReader = streamio.NewSegmentReader(readerAt, header.GetFileDataOffset(), totalCompressedDataSize(info.BlockInfos))
		b.DataIsCompressed = true
	case CompressionLZ4, CompressionLZ4HC:
		spans, err := lz4BlockSpans(info.BlockInfos, header.GetFileDataOffset())
		if err != nil {
			return nil, err
		}
		b.DataReader = streamio.NewLZ4BlockReader(readerAt, spans, lz4Decode)
		b.DataIsCompressed = false
	default:
		return nil, fmt.Errorf("%w: data compression type %d", bundleerrs.ErrUnsupportedCompression, dataCompression)
	}

	return b, nil
}

// readListing reads and, if needed, decompresses the block/directory
// listing described by header.
func readListing(br *byteio.Reader, header *Header) (*BlockAndDirInfo, error) {
	listingCompression := header.GetCompressionType()
	if listingCompression == CompressionNone {
		return ReadBlockAndDirInfo(br)
	}

	compressed, err := br.ReadBytes(int(header.FS.CompressedSize))
	if err != nil {
		return nil, fmt.Errorf("reading compressed listing: %w", err)
	}

	decompressed, err := decompressListing(compressed, listingCompression, int(header.FS.DecompressedSize))
	if err != nil {
		return nil, err
	}

	return ReadBlockAndDirInfo(byteio.NewReader(newByteReadSeeker(decompressed)))
}

func decompressListing(compressed []byte, t CompressionType, decompressedSize int) ([]byte, error) {
	switch t {
	case CompressionLZ4, CompressionLZ4HC:
		out := make([]byte, decompressedSize)
		if err := codec.LZ4DecompressBlock(compressed, out); err != nil {
			return nil, fmt.Errorf("decompressing lz4 listing: %w", err)
		}
		return out, nil
	case CompressionLZMA:
		out, err := codec.LZMADecompressBytes(compressed, int64(decompressedSize))
		if err != nil {
			return nil, fmt.Errorf("decompressing lzma listing: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: listing compression type %d", bundleerrs.ErrUnsupportedCompression, t)
	}
}

// classifyDataCompression scans blocks in order and returns the first
// non-None compression type encountered (LZ4HC is reported as LZ4). A
// block whose type disagrees with this classification is rejected with
// ErrUnsupportedCompression: by Read itself for LZ4 bundles (when the
// block spans are built), and by Unpack for LZMA bundles.
func classifyDataCompression(blocks []BlockInfo) CompressionType {
	for _, b := range blocks {
		t := b.CompressionType()
		if t == CompressionLZ4HC {
			return CompressionLZ4
		}
		if t != CompressionNone {
			return t
		}
	}
	return CompressionNone
}

func totalDataSize(blocks []BlockInfo, header *Header) int64 {
	var total int64
	for _, b := range blocks {
		total += int64(b.DecompressedSize)
	}
	if total == 0 {
		return header.FS.TotalFileSize - header.GetFileDataOffset()
	}
	return total
}

func totalCompressedDataSize(blocks []BlockInfo) int64 {
	var total int64
	for _, b := range blocks {
		total += int64(b.CompressedSize)
	}
	return total
}

func lz4BlockSpans(blocks []BlockInfo, dataStart int64) ([]streamio.BlockSpan, error) {
	spans := make([]streamio.BlockSpan, len(blocks))
	offset := dataStart
	for i, b := range blocks {
		t := b.CompressionType()
		if t != CompressionLZ4 && t != CompressionLZ4HC {
			return nil, fmt.Errorf("%w: block %d has compression type %d in an LZ4 bundle",
				bundleerrs.ErrUnsupportedCompression, i, t)
		}
		spans[i] = streamio.BlockSpan{
			CompressedOffset: offset,
			CompressedSize:   int64(b.CompressedSize),
			DecompressedSize: int64(b.DecompressedSize),
		}
		offset += int64(b.CompressedSize)
	}
	return spans, nil
}

func lz4Decode(compressed []byte, decompressedSize int64) ([]byte, error) {
	out := make([]byte, decompressedSize)
	if err := codec.LZ4DecompressBlock(compressed, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadData reads len(p) bytes from the logical decompressed data region
// at offset off. Fails with ErrClosedStream if called after Close.
func (b *Bundle) ReadData(p []byte, off int64) (int, error) {
	if err := b.checkOpen(); err != nil {
		return 0, err
	}
	return b.DataReader.ReadAt(p, off)
}

// GetFileName returns the name of directory entry i, or "" if i is out
// of range.
func (b *Bundle) GetFileName(i int) string {
	if i < 0 || i >= len(b.Info.DirectoryInfos) {
		return ""
	}
	return b.Info.DirectoryInfos[i].Name
}

// GetFileRange returns the (offset, length) of directory entry i within
// the logical decompressed data region, or (-1, 0) if i is out of range.
func (b *Bundle) GetFileRange(i int) (int64, int64) {
	if i < 0 || i >= len(b.Info.DirectoryInfos) {
		return -1, 0
	}
	d := b.Info.DirectoryInfos[i]
	return d.Offset, d.DecompressedSize
}

// FindFile returns the index of the directory entry named name, or -1
// if none matches.
func (b *Bundle) FindFile(name string) int {
	for i, d := range b.Info.DirectoryInfos {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// Close releases the reader and data reader. Any read after Close fails
// with ErrClosedStream.
func (b *Bundle) Close() error {
	b.closed = true
	if closer, ok := b.reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (b *Bundle) checkOpen() error {
	if b.closed {
		return bundleerrs.ErrClosedStream
	}
	if b.Header == nil {
		return bundleerrs.ErrHeaderNotLoaded
	}
	return nil
}

// byteReadSeeker adapts an in-memory byte slice into an io.ReadSeeker
// plus io.ReaderAt, for parsing an already-decompressed listing buffer.
type byteReadSeeker struct {
	data []byte
	pos  int64
}

func newByteReadSeeker(data []byte) *byteReadSeeker {
	return &byteReadSeeker{data: data}
}

func (b *byteReadSeeker) Read(p []byte) (int, error) {
	if b.pos >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += int64(n)
	return n, nil
}

func (b *byteReadSeeker) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	return n, nil
}

func (b *byteReadSeeker) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = b.pos + offset
	case io.SeekEnd:
		target = int64(len(b.data)) + offset
	}
	b.pos = target
	return b.pos, nil
}
