package codec

import (
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/voxelbound/unitybundle/internal/bundleerrs"
)

// LZ4Level selects the compression effort used by LZ4CompressBlock,
// mirroring the fast/HC/HC-max tiers UnityFS's LZ4 and LZ4HC block types
// distinguish.
type LZ4Level int

const (
	LZ4Fast  LZ4Level = iota // default fast compressor
	LZ4HC                    // high-compression mode
	LZ4HCMax                 // high-compression mode at maximum effort
)

// LZ4DecompressBlock decodes a single raw LZ4 block into a buffer of
// exactly len(output) bytes. It fails with ErrCodecError if the decoded
// length does not match.
func LZ4DecompressBlock(input []byte, output []byte) error {
	n, err := lz4.UncompressBlock(input, output)
	if err != nil {
		return fmt.Errorf("%w: lz4 block decompress: %v", bundleerrs.ErrCodecError, err)
	}
	if n != len(output) {
		return fmt.Errorf("%w: lz4 block decompressed to %d bytes, expected %d",
			bundleerrs.ErrCodecError, n, len(output))
	}
	return nil
}

// LZ4CompressBlock compresses input as a single raw LZ4 block at the
// requested level and returns a freshly allocated buffer sized to the
// compressed length.
func LZ4CompressBlock(input []byte, level LZ4Level) ([]byte, error) {
	var c lz4.Compressor
	var hc lz4.CompressorHC

	buf := make([]byte, lz4.CompressBlockBound(len(input)))

	var n int
	var err error
	switch level {
	case LZ4Fast:
		n, err = c.CompressBlock(input, buf)
	case LZ4HC:
		hc.Level = lz4.Level9
		n, err = hc.CompressBlock(input, buf)
	case LZ4HCMax:
		hc.Level = lz4.Level9
		n, err = hc.CompressBlock(input, buf)
	default:
		return nil, fmt.Errorf("%w: unknown lz4 level %d", bundleerrs.ErrCodecError, level)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lz4 block compress: %v", bundleerrs.ErrCodecError, err)
	}
	if n == 0 && len(input) > 0 {
		return nil, fmt.Errorf("%w: lz4 block compress produced an incompressible-marker result", bundleerrs.ErrCodecError)
	}
	return buf[:n], nil
}
