// Package bundleerrs defines the error kinds shared by every layer of the
// UnityFS bundle and class database codecs. Callers match a specific kind
// with errors.Is; every wrapping site uses fmt.Errorf("...: %w", ...) so
// the original kind and context both survive.
package bundleerrs

import "errors"

var (
	// ErrUnsupportedVersion is returned when a bundle header version is
	// outside the supported [6,8] range.
	ErrUnsupportedVersion = errors.New("unsupported version")
	// ErrUnsupportedSignature is returned when a bundle signature is not
	// "UnityFS".
	ErrUnsupportedSignature = errors.New("unsupported signature")
	// ErrUnsupportedCompression is returned for a compression type code
	// outside {None, LZMA, LZ4, LZ4HC}.
	ErrUnsupportedCompression = errors.New("unsupported compression")
	// ErrMalformedInput is returned for short reads, bad length prefixes,
	// or strings missing their NUL terminator.
	ErrMalformedInput = errors.New("malformed input")
	// ErrCodecError is returned when an LZ4/LZMA adapter rejects its
	// input or produces fewer bytes than declared.
	ErrCodecError = errors.New("codec error")
	// ErrMustDecompressFirst is returned by Write/Pack when the bundle's
	// data reader still exposes compressed bytes.
	ErrMustDecompressFirst = errors.New("must decompress first")
	// ErrHeaderNotLoaded is returned by an accessor or write called
	// before Read.
	ErrHeaderNotLoaded = errors.New("header not loaded")
	// ErrIndexOutOfRange names the bad-directory-index kind. The Bundle
	// accessors do not return it: they report a bad index with sentinel
	// values instead ("" name, (-1, 0) range, -1 find index).
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrClosedStream is returned by any read after Close.
	ErrClosedStream = errors.New("closed stream")
	// ErrIoError wraps an underlying stream failure.
	ErrIoError = errors.New("io error")
)
