package classdb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxelbound/unitybundle/internal/byteio"
)

func sampleFile(compression CompressionType) *File {
	return &File{
		Header: Header{Version: 1, Compression: compression},
		Classes: []ClassType{
			{ID: 1, NameIdx: 0, BaseID: -1, Fields: []Field{
				{TypeNameIdx: 1, NameIdx: 1, Size: 4, Flags: 0},
			}},
			{ID: 0x72, NameIdx: 1, BaseID: 1, Fields: nil},
		},
		StringTable:               []string{"A", "B"},
		CommonStringBufferIndices: []uint16{0},
	}
}

func TestRoundTripAllCompressionTypes(t *testing.T) {
	for _, compression := range []CompressionType{Uncompressed, Lz4, Lzma} {
		f := sampleFile(compression)

		var buf bytes.Buffer
		w := byteio.NewWriter(&bufWriteSeeker{buf: &buf})
		require.NoError(t, f.Write(w))

		read, err := Read(byteio.NewReader(newByteReadSeeker(buf.Bytes())))
		require.NoError(t, err)

		require.Equal(t, f.Classes, read.Classes)
		require.Equal(t, f.StringTable, read.StringTable)
		require.Equal(t, f.CommonStringBufferIndices, read.CommonStringBufferIndices)
	}
}

func TestFindAssetClassByIdLegacyRewrite(t *testing.T) {
	f := sampleFile(Uncompressed)

	byLegacy := f.FindAssetClassById(0x72)
	byNegative := f.FindAssetClassById(-1)

	require.NotNil(t, byLegacy)
	require.NotNil(t, byNegative)
	require.Equal(t, byLegacy, byNegative)
}

func TestFindAssetClassByName(t *testing.T) {
	f := sampleFile(Uncompressed)
	got := f.FindAssetClassByName("B")
	require.NotNil(t, got)
	require.Equal(t, int32(0x72), got.ID)

	require.Nil(t, f.FindAssetClassByName("nonexistent"))
}

func TestGetStringOutOfRange(t *testing.T) {
	f := sampleFile(Uncompressed)
	require.Equal(t, "", f.GetString(99))
}
