// Package byteio provides big-endian read/write primitives over a seekable
// byte stream, matching the framing UnityFS and the class database file use.
package byteio

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/voxelbound/unitybundle/internal/bundleerrs"
)

// Reader is a big-endian cursor over an io.ReadSeeker. All multi-byte
// reads fail with a wrapped MalformedInput error on short reads instead
// of returning io.ErrUnexpectedEOF, so callers can errors.Is against a
// single sentinel kind.
type Reader struct {
	r io.ReadSeeker
}

// NewReader wraps r for big-endian structured reads.
func NewReader(r io.ReadSeeker) *Reader {
	return &Reader{r: r}
}

// Pos returns the current stream position.
func (r *Reader) Pos() (int64, error) {
	return r.r.Seek(0, io.SeekCurrent)
}

// Seek repositions the underlying stream, same semantics as io.Seeker.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	return r.r.Seek(offset, whence)
}

// ReadExact reads exactly len(buf) bytes into buf.
func (r *Reader) ReadExact(buf []byte) error {
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return fmt.Errorf("%w: reading %d bytes: %v", bundleerrs.ErrMalformedInput, len(buf), err)
	}
	return nil
}

// ReadBytes reads and returns n freshly allocated bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := r.ReadExact(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadU8 reads a single byte.
func (r *Reader) ReadU8() (uint8, error) {
	var buf [1]byte
	if err := r.ReadExact(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadU16 reads a big-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	var buf [2]byte
	if err := r.ReadExact(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// ReadU32 reads a big-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	var buf [4]byte
	if err := r.ReadExact(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// ReadU64 reads a big-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	var buf [8]byte
	if err := r.ReadExact(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// ReadI32 reads a big-endian int32.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadI64 reads a big-endian int64.
func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

// ReadNullTerminated reads bytes up to and consuming a NUL terminator,
// returning the string without the terminator. Fails with MalformedInput
// if end-of-stream is reached before a terminator is found.
func (r *Reader) ReadNullTerminated() (string, error) {
	var out []byte
	var b [1]byte
	for {
		if _, err := io.ReadFull(r.r, b[:]); err != nil {
			return "", fmt.Errorf("%w: unterminated string: %v", bundleerrs.ErrMalformedInput, err)
		}
		if b[0] == 0 {
			return string(out), nil
		}
		out = append(out, b[0])
	}
}

// Align16 advances the cursor up to the next multiple of 16 by reading
// and discarding padding bytes.
func (r *Reader) Align16() error {
	pos, err := r.Pos()
	if err != nil {
		return fmt.Errorf("%w: align16: %v", bundleerrs.ErrIoError, err)
	}
	pad := (16 - (pos % 16)) % 16
	if pad == 0 {
		return nil
	}
	if _, err := r.ReadBytes(int(pad)); err != nil {
		return err
	}
	return nil
}
