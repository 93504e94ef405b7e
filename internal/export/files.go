// Package export extracts named directory entries from bundles to disk.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileLoader loads one named entry's content, from wherever it is
// backed (a single open Bundle, or a catalog spanning many bundles).
type FileLoader interface {
	GetFile(name string) ([]byte, error)
}

// Exporter extracts entries from a FileLoader to an output directory.
type Exporter struct {
	loader    FileLoader
	outputDir string
}

// NewExporter creates a new file exporter.
func NewExporter(loader FileLoader, outputDir string) *Exporter {
	return &Exporter{
		loader:    loader,
		outputDir: outputDir,
	}
}

// ProgressCallback is called to report export progress.
type ProgressCallback func(current int, total int, description string)

// ExportFiles writes each named entry's content to outputDir, preserving
// its name as a sanitized relative path.
func (e *Exporter) ExportFiles(names []string, progressCallback ProgressCallback) error {
	if len(names) == 0 {
		return nil
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	total := len(names)
	for i, name := range names {
		data, err := e.loader.GetFile(name)
		if err != nil {
			return fmt.Errorf("loading entry %s: %w", name, err)
		}

		outputPath := filepath.Join(e.outputDir, sanitizePath(name))
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", name, err)
		}
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outputPath, err)
		}
		slog.Debug("extracted entry", "name", name, "output", outputPath)

		if progressCallback != nil {
			progressCallback(i+1, total, sanitizePath(name))
		}
	}

	return nil
}

// sanitizePath sanitizes an entry name for use as a filesystem path,
// dropping empty, "." and ".." segments but otherwise preserving
// directory structure.
func sanitizePath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	parts := strings.Split(name, "/")
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		clean = append(clean, p)
	}
	return filepath.Join(clean...)
}
