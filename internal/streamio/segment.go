// Package streamio provides seekable stream façades over compressed or
// windowed byte ranges: a plain sub-stream window (SegmentReader) and a
// random-access reader over a list of independently LZ4-compressed
// blocks with an LRU cache of decoded blocks (LZ4BlockReader).
package streamio

import (
	"fmt"
	"io"

	"github.com/voxelbound/unitybundle/internal/bundleerrs"
)

// SegmentReader exposes the byte range [start, start+length) of parent as
// an independently-positioned io.ReadSeeker. parent must support reads at
// arbitrary offsets (io.ReaderAt); the segment holds no lock of its own
// and is assumed thread-exclusive while in use.
type SegmentReader struct {
	parent io.ReaderAt
	start  int64
	length int64
	pos    int64
}

// NewSegmentReader returns a SegmentReader over [start, start+length) of
// parent.
func NewSegmentReader(parent io.ReaderAt, start, length int64) *SegmentReader {
	return &SegmentReader{parent: parent, start: start, length: length}
}

// Len returns the logical length of the segment.
func (s *SegmentReader) Len() int64 { return s.length }

// Read implements io.Reader, bounds-checked to the segment length.
func (s *SegmentReader) Read(p []byte) (int, error) {
	if s.pos >= s.length {
		return 0, io.EOF
	}
	max := s.length - s.pos
	if int64(len(p)) > max {
		p = p[:max]
	}
	n, err := s.parent.ReadAt(p, s.start+s.pos)
	s.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// Seek implements io.Seeker relative to the segment's own bounds.
func (s *SegmentReader) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.pos + offset
	case io.SeekEnd:
		target = s.length + offset
	default:
		return 0, fmt.Errorf("%w: invalid whence %d", bundleerrs.ErrIoError, whence)
	}
	if target < 0 || target > s.length {
		return 0, fmt.Errorf("%w: seek out of bounds: %d", bundleerrs.ErrIoError, target)
	}
	s.pos = target
	return s.pos, nil
}

// ReadAt implements io.ReaderAt relative to the segment's own bounds,
// without disturbing the sequential read position.
func (s *SegmentReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= s.length {
		return 0, io.EOF
	}
	max := s.length - off
	if int64(len(p)) > max {
		p = p[:max]
	}
	n, err := s.parent.ReadAt(p, s.start+off)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}
