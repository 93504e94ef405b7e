// Package classdb reads and writes class database files: a compressed
// record of known Unity class types, their field layouts, and a shared
// string table, used to resolve asset class IDs and names independent
// of any single bundle.
package classdb

import (
	"bytes"
	"fmt"

	"github.com/voxelbound/unitybundle/internal/bundleerrs"
	"github.com/voxelbound/unitybundle/internal/byteio"
	"github.com/voxelbound/unitybundle/internal/codec"
)

// CompressionType identifies how the payload following Header is stored.
type CompressionType uint8

const (
	Uncompressed CompressionType = 0
	Lz4          CompressionType = 1
	Lzma         CompressionType = 2
)

// legacyClassID is substituted for any negative class ID on lookup, a
// compatibility rewrite for pre-5.5 Unity class databases that used -1
// for MonoBehaviour-derived types now identified as 0x72.
const legacyClassID = 0x72

// Header is the fixed-layout record at the start of a class database
// file.
type Header struct {
	Version          uint32
	Compression      CompressionType
	CompressedSize   uint32
	DecompressedSize uint32
}

// Field describes one member of a ClassType.
type Field struct {
	TypeNameIdx uint16
	NameIdx     uint16
	Size        int32
	Flags       uint32
}

// ClassType is one entry of the class table: its numeric ID, its name
// (by string-table index), its base class ID, and its fields.
type ClassType struct {
	ID       int32
	NameIdx  uint16
	BaseID   int32
	Fields   []Field
}

// File is a fully parsed class database: the header, the class table,
// the shared string table, and the subset of string-table indices
// treated as well-known ("common") strings.
type File struct {
	Header                    Header
	Classes                   []ClassType
	StringTable               []string
	CommonStringBufferIndices []uint16
}

// GetString returns the string-table entry at idx, or "" if out of
// range.
func (f *File) GetString(idx uint16) string {
	if int(idx) >= len(f.StringTable) {
		return ""
	}
	return f.StringTable[idx]
}

// FindAssetClassById returns the ClassType with the given ID, or nil if
// none matches. Negative IDs are rewritten to the legacy MonoBehaviour
// class ID 0x72 before the scan, so FindAssetClassById(-1) and
// FindAssetClassById(0x72) always agree.
func (f *File) FindAssetClassById(id int32) *ClassType {
	if id < 0 {
		id = legacyClassID
	}
	for i := range f.Classes {
		if f.Classes[i].ID == id {
			return &f.Classes[i]
		}
	}
	return nil
}

// FindAssetClassByName returns the ClassType whose name resolves to
// name in the string table, or nil if none matches.
func (f *File) FindAssetClassByName(name string) *ClassType {
	for i := range f.Classes {
		if f.GetString(f.Classes[i].NameIdx) == name {
			return &f.Classes[i]
		}
	}
	return nil
}

// Read parses a class database file from r.
func Read(r *byteio.Reader) (*File, error) {
	version, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading class database version: %w", err)
	}
	compression, err := r.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("reading class database compression type: %w", err)
	}
	compressedSize, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading class database compressed size: %w", err)
	}
	decompressedSize, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading class database decompressed size: %w", err)
	}

	header := Header{
		Version:          version,
		Compression:      CompressionType(compression),
		CompressedSize:   compressedSize,
		DecompressedSize: decompressedSize,
	}

	payload, err := r.ReadBytes(int(compressedSize))
	if err != nil {
		return nil, fmt.Errorf("reading class database payload: %w", err)
	}

	decompressed, err := decompressPayload(payload, header.Compression, int(decompressedSize))
	if err != nil {
		return nil, err
	}

	return parsePayload(header, decompressed)
}

// Write serializes f to w, compressing the payload per f.Header.Compression.
func (f *File) Write(w *byteio.Writer) error {
	raw, err := serializePayload(f)
	if err != nil {
		return err
	}

	compressed, err := compressPayload(raw, f.Header.Compression)
	if err != nil {
		return err
	}

	f.Header.CompressedSize = uint32(len(compressed))
	f.Header.DecompressedSize = uint32(len(raw))

	if err := w.WriteU32(f.Header.Version); err != nil {
		return err
	}
	if err := w.WriteU8(uint8(f.Header.Compression)); err != nil {
		return err
	}
	if err := w.WriteU32(f.Header.CompressedSize); err != nil {
		return err
	}
	if err := w.WriteU32(f.Header.DecompressedSize); err != nil {
		return err
	}
	return w.WriteExact(compressed)
}

func decompressPayload(payload []byte, t CompressionType, decompressedSize int) ([]byte, error) {
	switch t {
	case Uncompressed:
		return payload, nil
	case Lz4:
		out := make([]byte, decompressedSize)
		if err := codec.LZ4DecompressBlock(payload, out); err != nil {
			return nil, fmt.Errorf("decompressing lz4 class database payload: %w", err)
		}
		return out, nil
	case Lzma:
		out, err := codec.LZMADecompressBytes(payload, int64(decompressedSize))
		if err != nil {
			return nil, fmt.Errorf("decompressing lzma class database payload: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: class database compression type %d", bundleerrs.ErrUnsupportedCompression, t)
	}
}

func compressPayload(raw []byte, t CompressionType) ([]byte, error) {
	switch t {
	case Uncompressed:
		return raw, nil
	case Lz4:
		return codec.LZ4CompressBlock(raw, codec.LZ4HC)
	case Lzma:
		var out bytes.Buffer
		if err := codec.LZMACompressStream(bytes.NewReader(raw), &out); err != nil {
			return nil, fmt.Errorf("compressing lzma class database payload: %w", err)
		}
		return out.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: class database compression type %d", bundleerrs.ErrUnsupportedCompression, t)
	}
}

func parsePayload(header Header, data []byte) (*File, error) {
	r := byteio.NewReader(newByteReadSeeker(data))

	classCount, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading class count: %w", err)
	}
	classes := make([]ClassType, classCount)
	for i := range classes {
		id, err := r.ReadI32()
		if err != nil {
			return nil, fmt.Errorf("reading class %d id: %w", i, err)
		}
		nameIdx, err := r.ReadU16()
		if err != nil {
			return nil, fmt.Errorf("reading class %d name index: %w", i, err)
		}
		baseID, err := r.ReadI32()
		if err != nil {
			return nil, fmt.Errorf("reading class %d base id: %w", i, err)
		}
		fieldCount, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("reading class %d field count: %w", i, err)
		}
		var fields []Field
		if fieldCount > 0 {
			fields = make([]Field, fieldCount)
		}
		for j := range fields {
			typeNameIdx, err := r.ReadU16()
			if err != nil {
				return nil, fmt.Errorf("reading class %d field %d type name index: %w", i, j, err)
			}
			fieldNameIdx, err := r.ReadU16()
			if err != nil {
				return nil, fmt.Errorf("reading class %d field %d name index: %w", i, j, err)
			}
			size, err := r.ReadI32()
			if err != nil {
				return nil, fmt.Errorf("reading class %d field %d size: %w", i, j, err)
			}
			flags, err := r.ReadU32()
			if err != nil {
				return nil, fmt.Errorf("reading class %d field %d flags: %w", i, j, err)
			}
			fields[j] = Field{TypeNameIdx: typeNameIdx, NameIdx: fieldNameIdx, Size: size, Flags: flags}
		}
		classes[i] = ClassType{ID: id, NameIdx: nameIdx, BaseID: baseID, Fields: fields}
	}

	stringCount, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading string table count: %w", err)
	}
	strs := make([]string, stringCount)
	for i := range strs {
		s, err := r.ReadNullTerminated()
		if err != nil {
			return nil, fmt.Errorf("reading string table entry %d: %w", i, err)
		}
		strs[i] = s
	}

	commonCount, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading common string count: %w", err)
	}
	common := make([]uint16, commonCount)
	for i := range common {
		idx, err := r.ReadU16()
		if err != nil {
			return nil, fmt.Errorf("reading common string index %d: %w", i, err)
		}
		common[i] = idx
	}

	return &File{
		Header:                    header,
		Classes:                   classes,
		StringTable:               strs,
		CommonStringBufferIndices: common,
	}, nil
}

func serializePayload(f *File) ([]byte, error) {
	var buf bytes.Buffer
	w := byteio.NewWriter(&bufWriteSeeker{buf: &buf})

	if err := w.WriteU32(uint32(len(f.Classes))); err != nil {
		return nil, err
	}
	for _, c := range f.Classes {
		if err := w.WriteI32(c.ID); err != nil {
			return nil, err
		}
		if err := w.WriteU16(c.NameIdx); err != nil {
			return nil, err
		}
		if err := w.WriteI32(c.BaseID); err != nil {
			return nil, err
		}
		if err := w.WriteU32(uint32(len(c.Fields))); err != nil {
			return nil, err
		}
		for _, fld := range c.Fields {
			if err := w.WriteU16(fld.TypeNameIdx); err != nil {
				return nil, err
			}
			if err := w.WriteU16(fld.NameIdx); err != nil {
				return nil, err
			}
			if err := w.WriteI32(fld.Size); err != nil {
				return nil, err
			}
			if err := w.WriteU32(fld.Flags); err != nil {
				return nil, err
			}
		}
	}

	if err := w.WriteU32(uint32(len(f.StringTable))); err != nil {
		return nil, err
	}
	for _, s := range f.StringTable {
		if err := w.WriteNullTerminated(s); err != nil {
			return nil, err
		}
	}

	if err := w.WriteU32(uint32(len(f.CommonStringBufferIndices))); err != nil {
		return nil, err
	}
	for _, idx := range f.CommonStringBufferIndices {
		if err := w.WriteU16(idx); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}
