// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package markup

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// ParseFile reads a build file from disk, choosing the front-end by extension:
// files ending in .hcl use HCL, everything else is treated as XML.
func ParseFile(path string) (*Node, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read build file: %w", err)
	}
	if filepath.Ext(path) == ".hcl" {
		return ParseHCL(src, path)
	}
	return ParseXML(bytes.NewReader(src), path)
}
