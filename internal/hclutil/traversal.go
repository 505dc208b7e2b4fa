// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package hclutil holds small helpers shared by the HCL build-file front-end
// and the property expander.
package hclutil

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclwrite"
)

// TraversalKey generates a stable, canonical string representation for an
// hcl.Traversal, e.g. project.name or items[0].
func TraversalKey(t hcl.Traversal) string {
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

// AttrPath returns the root name followed by every attribute step of t,
// stopping at the first step that is not a plain attribute access.
func AttrPath(t hcl.Traversal) []string {
	if len(t) == 0 {
		return nil
	}
	path := []string{t.RootName()}
	for _, step := range t[1:] {
		attr, ok := step.(hcl.TraverseAttr)
		if !ok {
			break
		}
		path = append(path, attr.Name)
	}
	return path
}
