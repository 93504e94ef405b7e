package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	files map[string][]byte
}

func (f *fakeLoader) GetFile(name string) ([]byte, error) {
	data, ok := f.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func TestExportFilesWritesContent(t *testing.T) {
	dir := t.TempDir()
	loader := &fakeLoader{files: map[string][]byte{
		"assets/level0/mesh.bin": []byte("mesh-bytes"),
	}}
	exporter := NewExporter(loader, dir)

	var calls []int
	err := exporter.ExportFiles([]string{"assets/level0/mesh.bin"}, func(current, total int, description string) {
		calls = append(calls, current)
		require.Equal(t, 1, total)
	})
	require.NoError(t, err)
	require.Equal(t, []int{1}, calls)

	got, err := os.ReadFile(filepath.Join(dir, "assets", "level0", "mesh.bin"))
	require.NoError(t, err)
	require.Equal(t, "mesh-bytes", string(got))
}

func TestSanitizePathDropsTraversal(t *testing.T) {
	require.Equal(t, filepath.Join("a", "b"), sanitizePath("../a/./b/.."))
}

func TestExportFilesMissingEntryFails(t *testing.T) {
	dir := t.TempDir()
	loader := &fakeLoader{files: map[string][]byte{}}
	exporter := NewExporter(loader, dir)

	err := exporter.ExportFiles([]string{"missing.bin"}, nil)
	require.Error(t, err)
}
