package registry

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/specialistvlad/pagegrid/internal/ctxlog"
	"github.com/specialistvlad/pagegrid/internal/fsutil"
)

// DescriptorExt is the file extension of organism descriptors.
const DescriptorExt = ".hcl"

// Source is one descriptor file. Name is used in error messages and should be
// the file's path.
type Source struct {
	Name string
	Body []byte
}

// SourcesFromFS reads the named descriptor files from fsys, in the given
// order. It is used with the embedded descriptor index.
func SourcesFromFS(fsys fs.FS, paths []string) ([]Source, error) {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		body, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading descriptor %s: %w", p, err)
		}
		sources = append(sources, Source{Name: p, Body: body})
	}
	return sources, nil
}

// SourcesFromDir scans dir recursively for descriptor files, sorted by path.
func SourcesFromDir(ctx context.Context, dir string) ([]Source, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Scanning directory for organism descriptors...", "path", dir)

	filePaths, err := fsutil.FindFilesByExtension(dir, DescriptorExt)
	if err != nil {
		logger.Error("Failed to walk descriptors directory", "path", dir, "error", err)
		return nil, err
	}
	if len(filePaths) == 0 {
		logger.Warn("No descriptor files found in path", "path", dir)
		return nil, nil
	}
	logger.Debug("Found descriptor files", "files", filePaths)

	sources := make([]Source, 0, len(filePaths))
	for _, p := range filePaths {
		body, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading descriptor %s: %w", p, err)
		}
		sources = append(sources, Source{Name: p, Body: body})
	}
	return sources, nil
}
