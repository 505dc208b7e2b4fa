// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// BuildFileSuffixes are the name endings that identify build files.
var BuildFileSuffixes = []string{".build.xml", ".build.hcl"}

// FindBuildFiles returns the build files directly inside dir, sorted by name.
// Subdirectories are not searched.
func FindBuildFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if hasBuildSuffix(d.Name()) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// FindBuildFile returns the single build file in dir.
func FindBuildFile(dir string) (string, error) {
	files, err := FindBuildFiles(dir)
	if err != nil {
		return "", err
	}
	switch len(files) {
	case 0:
		return "", fmt.Errorf("no build file (%s) found in '%s'", strings.Join(BuildFileSuffixes, ", "), dir)
	case 1:
		return files[0], nil
	default:
		return "", fmt.Errorf("found %d build files in '%s', choose one with --file", len(files), dir)
	}
}

func hasBuildSuffix(name string) bool {
	for _, s := range BuildFileSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
