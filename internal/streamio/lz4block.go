package streamio

import (
	"container/list"
	"fmt"
	"io"
	"sort"

	"github.com/voxelbound/unitybundle/internal/bundleerrs"
)

// BlockSpan describes one LZ4-compressed block: its compressed byte range
// in the parent stream and its decompressed length.
type BlockSpan struct {
	CompressedOffset int64
	CompressedSize   int64
	DecompressedSize int64
}

// BlockDecoder decodes a single compressed block into a buffer of exactly
// BlockSpan.DecompressedSize bytes.
type BlockDecoder func(compressed []byte, decompressedSize int64) ([]byte, error)

// defaultLRUSize is the default number of decoded blocks an LZ4BlockReader
// keeps warm, enough to cover a forward scan crossing a couple of block
// boundaries without re-decoding.
const defaultLRUSize = 8

// LZ4BlockReader presents a seekable, random-access view over the logical
// concatenation of a list of independently LZ4-compressed blocks (C4). It
// decodes on cache miss and serves repeat reads of the same block from an
// LRU cache of decoded bytes.
type LZ4BlockReader struct {
	parent  io.ReaderAt
	spans   []BlockSpan
	prefix  []int64 // prefix[i] = decompressed offset of spans[i]
	total   int64
	decode  BlockDecoder
	pos     int64
	lruSize int

	cache   map[int]*list.Element
	order   *list.List // front = most recently used
}

type lruEntry struct {
	index int
	data  []byte
}

// NewLZ4BlockReader builds a random-access reader over spans, decoding
// blocks on demand with decode. parent must support ReadAt at the
// compressed offsets named by spans.
func NewLZ4BlockReader(parent io.ReaderAt, spans []BlockSpan, decode BlockDecoder) *LZ4BlockReader {
	prefix := make([]int64, len(spans))
	var total int64
	for i, sp := range spans {
		prefix[i] = total
		total += sp.DecompressedSize
	}
	return &LZ4BlockReader{
		parent:  parent,
		spans:   spans,
		prefix:  prefix,
		total:   total,
		decode:  decode,
		lruSize: defaultLRUSize,
		cache:   make(map[int]*list.Element),
		order:   list.New(),
	}
}

// Len returns the total decompressed length of the data region.
func (r *LZ4BlockReader) Len() int64 { return r.total }

// Seek implements io.Seeker. Seeking never triggers decoding.
func (r *LZ4BlockReader) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.pos + offset
	case io.SeekEnd:
		target = r.total + offset
	default:
		return 0, fmt.Errorf("%w: invalid whence %d", bundleerrs.ErrIoError, whence)
	}
	if target < 0 || target > r.total {
		return 0, fmt.Errorf("%w: seek out of bounds: %d", bundleerrs.ErrIoError, target)
	}
	r.pos = target
	return r.pos, nil
}

// Read implements io.Reader over the logical decompressed stream,
// transparently crossing block boundaries.
func (r *LZ4BlockReader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.pos)
	r.pos += int64(n)
	return n, err
}

// ReadAt implements io.ReaderAt over the logical decompressed stream,
// without disturbing the sequential read position.
func (r *LZ4BlockReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= r.total {
		return 0, io.EOF
	}
	want := r.total - off
	if int64(len(p)) > want {
		p = p[:want]
	}

	total := 0
	for total < len(p) {
		pos := off + int64(total)
		blkIdx := r.blockContaining(pos)
		if blkIdx < 0 {
			break
		}
		decoded, err := r.blockBytes(blkIdx)
		if err != nil {
			return total, err
		}

		blkOff := int(pos - r.prefix[blkIdx])
		n := copy(p[total:], decoded[blkOff:])
		total += n
	}
	return total, nil
}

// blockContaining returns the index of the block whose decompressed range
// contains pos, found by binary search on the prefix-sum table.
func (r *LZ4BlockReader) blockContaining(pos int64) int {
	i := sort.Search(len(r.prefix), func(i int) bool {
		return r.prefix[i] > pos
	})
	if i == 0 {
		return -1
	}
	return i - 1
}

// blockBytes returns the decoded bytes of block idx, decoding on cache
// miss. Cached entries are read-only snapshots; decoding the same block
// twice yields identical bytes since the source span never changes.
func (r *LZ4BlockReader) blockBytes(idx int) ([]byte, error) {
	if elem, ok := r.cache[idx]; ok {
		r.order.MoveToFront(elem)
		return elem.Value.(*lruEntry).data, nil
	}

	sp := r.spans[idx]
	compressed := make([]byte, sp.CompressedSize)
	if _, err := r.parent.ReadAt(compressed, sp.CompressedOffset); err != nil {
		return nil, fmt.Errorf("%w: reading compressed block %d: %v", bundleerrs.ErrIoError, idx, err)
	}

	decoded, err := r.decode(compressed, sp.DecompressedSize)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding block %d: %v", bundleerrs.ErrCodecError, idx, err)
	}
	if int64(len(decoded)) != sp.DecompressedSize {
		return nil, fmt.Errorf("%w: block %d decoded to %d bytes, expected %d",
			bundleerrs.ErrCodecError, idx, len(decoded), sp.DecompressedSize)
	}

	elem := r.order.PushFront(&lruEntry{index: idx, data: decoded})
	r.cache[idx] = elem
	if r.order.Len() > r.lruSize {
		oldest := r.order.Back()
		if oldest != nil {
			r.order.Remove(oldest)
			delete(r.cache, oldest.Value.(*lruEntry).index)
		}
	}

	return decoded, nil
}
