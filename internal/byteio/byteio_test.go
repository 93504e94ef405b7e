package byteio

import (
	"errors"
	"io"
	"testing"

	"github.com/voxelbound/unitybundle/internal/bundleerrs"
)

// seekBuf adapts a growable byte slice into an io.ReadSeeker/io.WriteSeeker
// pair for round-trip testing.
type seekBuf struct {
	data []byte
	pos  int64
}

func (s *seekBuf) Read(p []byte) (int, error) {
	if s.pos >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += int64(n)
	return n, nil
}

func (s *seekBuf) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.data)) {
		grown := make([]byte, end)
		copy(grown, s.data)
		s.data = grown
	}
	n := copy(s.data[s.pos:], p)
	s.pos += int64(n)
	return n, nil
}

func (s *seekBuf) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case 0:
		base = 0
	case 1:
		base = s.pos
	case 2:
		base = int64(len(s.data))
	}
	s.pos = base + offset
	return s.pos, nil
}

func TestReadWriteIntegers(t *testing.T) {
	buf := &seekBuf{}
	w := NewWriter(buf)
	if err := w.WriteU32(0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteI64(-1234567890123); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteU16(0xBEEF); err != nil {
		t.Fatal(err)
	}

	buf.pos = 0
	r := NewReader(buf)
	u32, err := r.ReadU32()
	if err != nil || u32 != 0xDEADBEEF {
		t.Fatalf("ReadU32 = %x, %v", u32, err)
	}
	i64, err := r.ReadI64()
	if err != nil || i64 != -1234567890123 {
		t.Fatalf("ReadI64 = %d, %v", i64, err)
	}
	u16, err := r.ReadU16()
	if err != nil || u16 != 0xBEEF {
		t.Fatalf("ReadU16 = %x, %v", u16, err)
	}
}

func TestNullTerminatedStrings(t *testing.T) {
	buf := &seekBuf{}
	w := NewWriter(buf)
	if err := w.WriteNullTerminated("UnityFS"); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteNullTerminated(""); err != nil {
		t.Fatal(err)
	}

	buf.pos = 0
	r := NewReader(buf)
	s, err := r.ReadNullTerminated()
	if err != nil || s != "UnityFS" {
		t.Fatalf("ReadNullTerminated = %q, %v", s, err)
	}
	s2, err := r.ReadNullTerminated()
	if err != nil || s2 != "" {
		t.Fatalf("ReadNullTerminated (empty) = %q, %v", s2, err)
	}
}

func TestNullTerminatedMissingTerminatorFails(t *testing.T) {
	buf := &seekBuf{data: []byte("no-terminator")}
	r := NewReader(buf)
	_, err := r.ReadNullTerminated()
	if !errors.Is(err, bundleerrs.ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
}

func TestWriterAlign16(t *testing.T) {
	buf := &seekBuf{}
	w := NewWriter(buf)
	if err := w.WriteExact([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	if err := w.Align16(); err != nil {
		t.Fatal(err)
	}
	pos, _ := w.Pos()
	if pos != 16 {
		t.Fatalf("expected aligned position 16, got %d", pos)
	}

	if err := w.WriteExact([]byte("exactly16bytes!!")); err != nil {
		t.Fatal(err)
	}
	if err := w.Align16(); err != nil {
		t.Fatal(err)
	}
	pos, _ = w.Pos()
	if pos != 32 {
		t.Fatalf("expected no padding added at an aligned boundary, got %d", pos)
	}
}

func TestReadExactShortReadIsMalformed(t *testing.T) {
	buf := &seekBuf{data: []byte{1, 2}}
	r := NewReader(buf)
	_, err := r.ReadU32()
	if !errors.Is(err, bundleerrs.ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
}
