package classdb

import (
	"bytes"
	"fmt"
	"io"

	"github.com/voxelbound/unitybundle/internal/bundleerrs"
)

// byteReadSeeker adapts an in-memory byte slice into an io.ReadSeeker for
// parsing an already-decompressed payload.
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

// bufWriteSeeker adapts a bytes.Buffer into an io.WriteSeeker for
// byteio.Writer, for linear, never-seeked-backwards serialization.
type bufWriteSeeker struct {
	buf *bytes.Buffer
}

func (w *bufWriteSeeker) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *bufWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	if offset == 0 && (whence == io.SeekCurrent || whence == io.SeekEnd) {
		return int64(w.buf.Len()), nil
	}
	return 0, fmt.Errorf("%w: buffer writer does not support arbitrary seeks", bundleerrs.ErrIoError)
}
