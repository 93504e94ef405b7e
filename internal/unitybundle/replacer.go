package unitybundle

import "github.com/voxelbound/unitybundle/internal/byteio"

// Replacer is a caller-supplied capability attached to a DirectoryInfo
// that substitutes or removes its content on the next Write. There is no
// dynamic dispatch beyond the three methods below: a Replacer either
// reports Remove()==true (the entry is dropped), or reports a Size() and
// streams exactly that many bytes via WriteContent.
type Replacer interface {
	// Remove reports whether this entry should be dropped on the next
	// Write, instead of having its content substituted.
	Remove() bool
	// Size returns the byte length the replacement content will occupy.
	// Only consulted when Remove() is false.
	Size() int64
	// WriteContent streams exactly Size() bytes of replacement content.
	// Only consulted when Remove() is false.
	WriteContent(w *byteio.Writer) error
}

// removeReplacer is the Remove variant of Replacer.
type removeReplacer struct{}

func (removeReplacer) Remove() bool                           { return true }
func (removeReplacer) Size() int64                            { return 0 }
func (removeReplacer) WriteContent(w *byteio.Writer) error { return nil }

// RemoveReplacer returns a Replacer that drops its directory entry on the
// next Write.
func RemoveReplacer() Replacer {
	return removeReplacer{}
}

// bytesReplacer is an AddOrModify variant backed by an in-memory buffer.
type bytesReplacer struct {
	content []byte
}

func (r bytesReplacer) Remove() bool { return false }
func (r bytesReplacer) Size() int64  { return int64(len(r.content)) }
func (r bytesReplacer) WriteContent(w *byteio.Writer) error {
	return w.WriteExact(r.content)
}

// BytesReplacer returns an AddOrModify Replacer that substitutes content
// verbatim.
func BytesReplacer(content []byte) Replacer {
	return bytesReplacer{content: content}
}
