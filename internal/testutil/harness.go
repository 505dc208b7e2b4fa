package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/markbuild/internal/app"
	"github.com/stretchr/testify/require"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Output string
	Err    error
	App    *app.App
	// Dir is the temporary directory holding the test files.
	Dir string
}

// Path returns the absolute path of a file inside the test directory.
func (r *HarnessResult) Path(name string) string {
	return filepath.Join(r.Dir, filepath.FromSlash(name))
}

// WriteFiles creates a temporary directory containing the given files. Names
// are slash-separated paths relative to the directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}
	return dir
}

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, cfg app.Config) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, cfg)
}

// RunIntegrationTestWithContext writes files to a temporary directory and runs
// the application against the build file named by cfg.BuildFile, which is
// relative to that directory.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config) *HarnessResult {
	t.Helper()

	dir := WriteFiles(t, files)
	cfg.BuildFile = filepath.Join(dir, filepath.FromSlash(cfg.BuildFile))
	if cfg.MetricsFile != "" {
		cfg.MetricsFile = filepath.Join(dir, cfg.MetricsFile)
	}

	a, out := app.SetupAppTest(t, &cfg)
	err := a.Run(ctx)

	return &HarnessResult{
		Output: out.String(),
		Err:    err,
		App:    a,
		Dir:    dir,
	}
}
