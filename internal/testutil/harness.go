package testutil

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/specialistvlad/pagegrid/internal/ctxlog"
	"github.com/specialistvlad/pagegrid/internal/organism"
	"github.com/specialistvlad/pagegrid/internal/registry"
	"github.com/stretchr/testify/require"
)

// HarnessResult holds the outcome of a discovery run.
type HarnessResult struct {
	LogOutput string
	Err       error
	Registry  *registry.Registry
}

// Sources turns an in-memory file set into descriptor sources sorted by
// name, matching the order of a directory scan.
func Sources(files map[string]string) []registry.Source {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	sources := make([]registry.Source, 0, len(names))
	for _, name := range names {
		sources = append(sources, registry.Source{Name: name, Body: []byte(files[name])})
	}
	return sources
}

// RunDiscovery writes files into a temporary directory, scans it the same
// way `pagegrid check --dir` does and runs discovery with the given modules.
// Debug logs are captured in the result.
func RunDiscovery(t *testing.T, files map[string]string, modules ...organism.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	logBuffer := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(logBuffer, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	sources, err := registry.SourcesFromDir(ctx, tmpDir)
	require.NoError(t, err)

	reg, err := registry.Discover(ctx, sources, modules...)

	if os.Getenv("PAGEGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       err,
		Registry:  reg,
	}
}
