package codec

import (
	"bytes"
	"testing"
)

func TestLZ4BlockRoundTrip(t *testing.T) {
	input := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 64)

	for _, level := range []LZ4Level{LZ4Fast, LZ4HC, LZ4HCMax} {
		compressed, err := LZ4CompressBlock(input, level)
		if err != nil {
			t.Fatalf("level %d: compress: %v", level, err)
		}

		decoded := make([]byte, len(input))
		if err := LZ4DecompressBlock(compressed, decoded); err != nil {
			t.Fatalf("level %d: decompress: %v", level, err)
		}
		if !bytes.Equal(decoded, input) {
			t.Fatalf("level %d: round trip mismatch", level)
		}
	}
}

func TestLZ4DecompressBlockLengthMismatch(t *testing.T) {
	input := []byte("short payload")
	compressed, err := LZ4CompressBlock(input, LZ4Fast)
	if err != nil {
		t.Fatal(err)
	}

	wrongSize := make([]byte, len(input)+5)
	if err := LZ4DecompressBlock(compressed, wrongSize); err == nil {
		t.Fatal("expected a length mismatch error")
	}
}

func TestLZMAStreamRoundTrip(t *testing.T) {
	input := bytes.Repeat([]byte("UnityFS payload bytes for the LZMA codec adapter test. "), 128)

	var compressed bytes.Buffer
	if err := LZMACompressStream(bytes.NewReader(input), &compressed); err != nil {
		t.Fatalf("compress: %v", err)
	}

	// Unity's convention: 5-byte properties header + 8-byte size prefix.
	if compressed.Len() < 13 {
		t.Fatalf("compressed stream too short to carry the properties+size header: %d bytes", compressed.Len())
	}

	decoded, err := LZMADecompressBytes(compressed.Bytes(), int64(len(input)))
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(decoded, input) {
		t.Fatal("lzma round trip mismatch")
	}
}
