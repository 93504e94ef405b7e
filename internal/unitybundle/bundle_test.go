package unitybundle

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxelbound/unitybundle/internal/byteio"
	"github.com/voxelbound/unitybundle/internal/codec"
)

func byteioWriterFor(buf *bytes.Buffer) *byteio.Writer {
	return byteio.NewWriter(&sizeTrackingWriteSeeker{buf: buf})
}

// memFile is a growable in-memory io.ReadWriteSeeker, used as the backing
// store for round-trip tests that both write and then re-read a bundle.
type memFile struct {
	data []byte
	pos  int64
}

func (m *memFile) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	n := copy(m.data[m.pos:end], p)
	m.pos = end
	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = m.pos + offset
	case io.SeekEnd:
		target = int64(len(m.data)) + offset
	}
	m.pos = target
	return m.pos, nil
}

// buildUncompressedBundle assembles a minimal, well-formed UnityFS bundle
// with a single uncompressed data block and the given entries, returning
// its encoded bytes.
func buildUncompressedBundle(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}

	var data bytes.Buffer
	dirs := make([]DirectoryInfo, 0, len(names))
	for _, name := range names {
		off := int64(data.Len())
		data.Write(entries[name])
		dirs = append(dirs, DirectoryInfo{
			Offset:           off,
			DecompressedSize: int64(len(entries[name])),
			Name:             name,
		})
	}

	listing := &BlockAndDirInfo{
		BlockInfos: []BlockInfo{
			{DecompressedSize: uint32(data.Len()), CompressedSize: uint32(data.Len())},
		},
		DirectoryInfos: dirs,
	}

	var rawListing bytes.Buffer
	require.NoError(t, listing.Write(byteioWriterFor(&rawListing)))

	header := Header{
		Signature:         "UnityFS",
		Version:           7,
		GenerationVersion: "5.x.x",
		EngineVersion:     "2021.3.0f1",
		FS: FSHeader{
			CompressedSize:   uint32(rawListing.Len()),
			DecompressedSize: uint32(rawListing.Len()),
			Flags:            flagHasDirectoryInfo,
		},
	}

	var out bytes.Buffer
	hw := byteioWriterFor(&out)
	require.NoError(t, header.Write(hw))
	require.NoError(t, hw.WriteExact(rawListing.Bytes()))
	out.Write(data.Bytes())

	total := int64(out.Len())
	finalHeader := header
	finalHeader.FS.TotalFileSize = total
	var final bytes.Buffer
	fw := byteioWriterFor(&final)
	require.NoError(t, finalHeader.Write(fw))
	require.NoError(t, fw.WriteExact(rawListing.Bytes()))
	final.Write(data.Bytes())

	return final.Bytes()
}

func TestReadUncompressedRoundTrip(t *testing.T) {
	raw := buildUncompressedBundle(t, map[string][]byte{
		"CAB-aaa.resource": []byte("hello world"),
		"assets/level0":    bytes.Repeat([]byte{0xAB}, 37),
	})

	b, err := Read(&memFile{data: raw})
	require.NoError(t, err)
	require.False(t, b.DataIsCompressed)

	for i := 0; i < 2; i++ {
		name := b.GetFileName(i)
		off, size := b.GetFileRange(i)
		got := make([]byte, size)
		n, err := b.ReadData(got, off)
		require.NoError(t, err)
		require.Equal(t, int(size), n)
		require.NotEmpty(t, name)
	}

	require.Equal(t, -1, b.FindFile("does-not-exist"))
}

func TestReadRejectsBadSignature(t *testing.T) {
	var buf bytes.Buffer
	w := byteioWriterFor(&buf)
	require.NoError(t, w.WriteNullTerminated("NotUnityFS"))
	_, err := Read(&memFile{data: buf.Bytes()})
	require.Error(t, err)
}

func TestWriteRemoveReplacer(t *testing.T) {
	raw := buildUncompressedBundle(t, map[string][]byte{
		"keep.bin":   []byte("keep me"),
		"remove.bin": []byte("drop me"),
	})
	b, err := Read(&memFile{data: raw})
	require.NoError(t, err)

	idx := b.FindFile("remove.bin")
	require.GreaterOrEqual(t, idx, 0)
	b.Info.DirectoryInfos[idx].Replacer = RemoveReplacer()

	out := &memFile{}
	require.NoError(t, b.Write(out))

	rewritten, err := Read(&memFile{data: out.data})
	require.NoError(t, err)
	require.Equal(t, -1, rewritten.FindFile("remove.bin"))
	require.GreaterOrEqual(t, rewritten.FindFile("keep.bin"), 0)
}

func TestWriteAddOrModifyReplacer(t *testing.T) {
	raw := buildUncompressedBundle(t, map[string][]byte{
		"keep.bin": []byte("original content"),
	})
	b, err := Read(&memFile{data: raw})
	require.NoError(t, err)

	idx := b.FindFile("keep.bin")
	b.Info.DirectoryInfos[idx].Replacer = BytesReplacer([]byte("replaced!"))

	out := &memFile{}
	require.NoError(t, b.Write(out))

	rewritten, err := Read(&memFile{data: out.data})
	require.NoError(t, err)

	i := rewritten.FindFile("keep.bin")
	off, size := rewritten.GetFileRange(i)
	got := make([]byte, size)
	_, err = rewritten.ReadData(got, off)
	require.NoError(t, err)
	require.Equal(t, "replaced!", string(got))
}

func TestUnpackPassesThroughUncompressedData(t *testing.T) {
	raw := buildUncompressedBundle(t, map[string][]byte{
		"a.bin": []byte("alpha"),
		"b.bin": []byte("bravo"),
	})
	b, err := Read(&memFile{data: raw})
	require.NoError(t, err)

	out := &memFile{}
	require.NoError(t, Unpack(b, out))

	unpacked, err := Read(&memFile{data: out.data})
	require.NoError(t, err)
	require.False(t, unpacked.DataIsCompressed)

	i := unpacked.FindFile("a.bin")
	off, size := unpacked.GetFileRange(i)
	got := make([]byte, size)
	_, err = unpacked.ReadData(got, off)
	require.NoError(t, err)
	require.Equal(t, "alpha", string(got))
}

func TestPackNoneThenReadBack(t *testing.T) {
	raw := buildUncompressedBundle(t, map[string][]byte{
		"only.bin": bytes.Repeat([]byte("xyz"), 100),
	})
	b, err := Read(&memFile{data: raw})
	require.NoError(t, err)

	out := &memFile{}
	require.NoError(t, Pack(b, out, PackOptions{Compression: CompressionNone}))

	packed, err := Read(&memFile{data: out.data})
	require.NoError(t, err)

	i := packed.FindFile("only.bin")
	require.GreaterOrEqual(t, i, 0)
	off, size := packed.GetFileRange(i)
	got := make([]byte, size)
	_, err = packed.ReadData(got, off)
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte("xyz"), 100), got)
}

func TestPackLZMAThenReadBack(t *testing.T) {
	raw := buildUncompressedBundle(t, map[string][]byte{
		"only.bin": bytes.Repeat([]byte("compressme"), 500),
	})
	b, err := Read(&memFile{data: raw})
	require.NoError(t, err)

	out := &memFile{}
	require.NoError(t, Pack(b, out, PackOptions{Compression: CompressionLZMA}))

	packed, err := Read(&memFile{data: out.data})
	require.NoError(t, err)
	require.True(t, packed.DataIsCompressed)

	unpackedOut := &memFile{}
	require.NoError(t, Unpack(packed, unpackedOut))

	unpacked, err := Read(&memFile{data: unpackedOut.data})
	require.NoError(t, err)
	i := unpacked.FindFile("only.bin")
	off, size := unpacked.GetFileRange(i)
	got := make([]byte, size)
	_, err = unpacked.ReadData(got, off)
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte("compressme"), 500), got)
}

func TestReadRejectsMixedBlockCompression(t *testing.T) {
	listing := &BlockAndDirInfo{
		BlockInfos: []BlockInfo{
			{DecompressedSize: 4, CompressedSize: 4, Flags: uint16(CompressionLZ4)},
			{DecompressedSize: 4, CompressedSize: 4, Flags: uint16(CompressionLZMA)},
		},
		DirectoryInfos: []DirectoryInfo{
			{Offset: 0, DecompressedSize: 8, Name: "mixed.bin"},
		},
	}

	var rawListing bytes.Buffer
	require.NoError(t, listing.Write(byteioWriterFor(&rawListing)))

	header := Header{
		Signature:         "UnityFS",
		Version:           7,
		GenerationVersion: "5.x.x",
		EngineVersion:     "2021.3.0f1",
		FS: FSHeader{
			CompressedSize:   uint32(rawListing.Len()),
			DecompressedSize: uint32(rawListing.Len()),
			Flags:            flagHasDirectoryInfo,
		},
	}

	var out bytes.Buffer
	hw := byteioWriterFor(&out)
	require.NoError(t, header.Write(hw))
	require.NoError(t, hw.WriteExact(rawListing.Bytes()))
	out.Write(bytes.Repeat([]byte{0x00}, 8))

	finalHeader := header
	finalHeader.FS.TotalFileSize = int64(out.Len())
	var final bytes.Buffer
	fw := byteioWriterFor(&final)
	require.NoError(t, finalHeader.Write(fw))
	require.NoError(t, fw.WriteExact(rawListing.Bytes()))
	final.Write(bytes.Repeat([]byte{0x00}, 8))

	_, err := Read(&memFile{data: final.Bytes()})
	require.Error(t, err)
}

func TestLZMACodecHeaderShape(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, codec.LZMACompressStream(bytes.NewReader([]byte("sanity")), &out))
	require.GreaterOrEqual(t, out.Len(), 13)
}
