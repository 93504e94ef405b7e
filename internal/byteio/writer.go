package byteio

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/voxelbound/unitybundle/internal/bundleerrs"
)

// Writer is a big-endian cursor over an io.WriteSeeker.
type Writer struct {
	w io.WriteSeeker
}

// NewWriter wraps w for big-endian structured writes.
func NewWriter(w io.WriteSeeker) *Writer {
	return &Writer{w: w}
}

// Pos returns the current stream position.
func (w *Writer) Pos() (int64, error) {
	return w.w.Seek(0, io.SeekCurrent)
}

// Seek repositions the underlying stream, same semantics as io.Seeker.
func (w *Writer) Seek(offset int64, whence int) (int64, error) {
	return w.w.Seek(offset, whence)
}

// WriteExact writes all of buf, failing with IoError on a short write.
func (w *Writer) WriteExact(buf []byte) error {
	n, err := w.w.Write(buf)
	if err != nil {
		return fmt.Errorf("%w: writing %d bytes: %v", bundleerrs.ErrIoError, len(buf), err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: short write: wrote %d of %d bytes", bundleerrs.ErrIoError, n, len(buf))
	}
	return nil
}

// WriteU8 writes a single byte.
func (w *Writer) WriteU8(v uint8) error {
	return w.WriteExact([]byte{v})
}

// WriteU16 writes a big-endian uint16.
func (w *Writer) WriteU16(v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return w.WriteExact(buf[:])
}

// WriteU32 writes a big-endian uint32.
func (w *Writer) WriteU32(v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return w.WriteExact(buf[:])
}

// WriteU64 writes a big-endian uint64.
func (w *Writer) WriteU64(v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return w.WriteExact(buf[:])
}

// WriteI32 writes a big-endian int32.
func (w *Writer) WriteI32(v int32) error {
	return w.WriteU32(uint32(v))
}

// WriteI64 writes a big-endian int64.
func (w *Writer) WriteI64(v int64) error {
	return w.WriteU64(uint64(v))
}

// WriteNullTerminated writes s followed by a single NUL byte.
func (w *Writer) WriteNullTerminated(s string) error {
	if err := w.WriteExact([]byte(s)); err != nil {
		return err
	}
	return w.WriteU8(0)
}

// Align16 advances the cursor up to the next multiple of 16 by writing
// zero padding bytes.
func (w *Writer) Align16() error {
	pos, err := w.Pos()
	if err != nil {
		return fmt.Errorf("%w: align16: %v", bundleerrs.ErrIoError, err)
	}
	pad := (16 - (pos % 16)) % 16
	if pad == 0 {
		return nil
	}
	return w.WriteExact(make([]byte, pad))
}
