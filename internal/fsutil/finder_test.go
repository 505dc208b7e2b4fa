package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestFindBuildFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.build.hcl"))
	touch(t, filepath.Join(dir, "a.build.xml"))
	touch(t, filepath.Join(dir, "notes.xml"))
	touch(t, filepath.Join(dir, "sub", "c.build.xml"))

	files, err := FindBuildFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.build.xml"), filepath.Join(dir, "b.build.hcl")}, files)
}

func TestFindBuildFile(t *testing.T) {
	dir := t.TempDir()
	_, err := FindBuildFile(dir)
	assert.ErrorContains(t, err, "no build file")

	touch(t, filepath.Join(dir, "a.build.xml"))
	got, err := FindBuildFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.build.xml"), got)

	touch(t, filepath.Join(dir, "b.build.hcl"))
	_, err = FindBuildFile(dir)
	assert.ErrorContains(t, err, "found 2 build files")

	_, err = FindBuildFile(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
