package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/itchio/lzma"

	"github.com/voxelbound/unitybundle/internal/bundleerrs"
)

// LZMACompressStream compresses all of in and writes the result to out as
// a 5-byte LZMA properties header, an 8-byte little-endian uncompressed
// size field, then the LZMA stream itself — Unity's convention, and
// exactly the "classic"/alone LZMA header github.com/itchio/lzma's writer
// produces.
func LZMACompressStream(in io.Reader, out io.Writer) error {
	w := lzma.NewWriter(out)
	if _, err := io.Copy(w, in); err != nil {
		_ = w.Close()
		return fmt.Errorf("%w: lzma stream compress: %v", bundleerrs.ErrCodecError, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: lzma stream compress: finalizing: %v", bundleerrs.ErrCodecError, err)
	}
	return nil
}

// LZMADecompressStream decodes an LZMA stream carrying the 5-byte
// properties header + 8-byte size prefix in as produced by
// LZMACompressStream, writing exactly decompressedSize bytes to out. If
// compressedSize is positive, reading stops after that many input bytes
// have been consumed even if fewer than decompressedSize bytes were
// produced (treated as a truncation error).
func LZMADecompressStream(in io.Reader, out io.Writer, decompressedSize int64, compressedSize int64) error {
	var src io.Reader = in
	if compressedSize > 0 {
		src = io.LimitReader(in, compressedSize)
	}

	r := lzma.NewReader(src)
	defer r.Close()

	n, err := io.CopyN(out, r, decompressedSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("%w: lzma stream decompress: %v", bundleerrs.ErrCodecError, err)
	}
	if n != decompressedSize {
		return fmt.Errorf("%w: lzma stream decompressed %d bytes, expected %d",
			bundleerrs.ErrCodecError, n, decompressedSize)
	}
	return nil
}

// LZMADecompressBytes is a convenience wrapper over LZMADecompressStream
// for callers that already have the whole compressed payload in memory.
func LZMADecompressBytes(compressed []byte, decompressedSize int64) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(int(decompressedSize))
	if err := LZMADecompressStream(bytes.NewReader(compressed), &out, decompressedSize, int64(len(compressed))); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
