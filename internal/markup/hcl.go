// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package markup

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/markbuild/internal/hclutil"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ParseHCL reads an HCL build file. The file must contain exactly one
// top-level block, which becomes the root element. Nested blocks become child
// elements in source order, attributes become attributes, and the first block
// label becomes the "name" attribute:
//
//	project "demo" {
//	  target "build" {
//	    echo { message = "version ${version}" }
//	  }
//	}
//
// Interpolations are not evaluated here. They are rewritten to the ${...}
// form understood by the binder's property expansion.
func ParseHCL(src []byte, filename string) (*Node, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL build file %s: %w", filename, diags)
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("failed to parse HCL build file %s: unexpected body type %T", filename, file.Body)
	}

	if len(body.Attributes) > 0 {
		attrs := sortedAttributes(body.Attributes)
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unexpected top-level attribute",
			Detail:   fmt.Sprintf("Attribute '%s' must be placed inside the root block.", attrs[0].Name),
			Subject:  attrs[0].SrcRange.Ptr(),
		})
		return nil, fmt.Errorf("failed to parse HCL build file %s: %w", filename, diags)
	}
	if len(body.Blocks) != 1 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid root",
			Detail:   fmt.Sprintf("A build file must contain exactly one top-level block, found %d.", len(body.Blocks)),
			Subject:  body.SrcRange.Ptr(),
		})
		return nil, fmt.Errorf("failed to parse HCL build file %s: %w", filename, diags)
	}

	root, diags := convertHCLBlock(body.Blocks[0], src)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL build file %s: %w", filename, diags)
	}
	return root, nil
}

func convertHCLBlock(b *hclsyntax.Block, src []byte) (*Node, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	n := &Node{
		Kind:     ElementNode,
		Name:     b.Type,
		Location: Location{File: b.TypeRange.Filename, Line: b.TypeRange.Start.Line},
	}

	switch len(b.Labels) {
	case 0:
	case 1:
		n.Attrs = append(n.Attrs, Attr{Name: "name", Value: b.Labels[0]})
	default:
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Too many block labels",
			Detail:   fmt.Sprintf("Block '%s' accepts at most one label, which is used as its name.", b.Type),
			Subject:  b.LabelRanges[1].Ptr(),
		})
	}

	for _, attr := range sortedAttributes(b.Body.Attributes) {
		if attr.Name == "name" && len(b.Labels) == 1 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate name",
				Detail:   fmt.Sprintf("Block '%s' already takes its name from its label.", b.Type),
				Subject:  attr.SrcRange.Ptr(),
			})
			continue
		}
		value, valDiags := attributeText(attr.Expr, src)
		diags = append(diags, valDiags...)
		n.Attrs = append(n.Attrs, Attr{Name: attr.Name, Value: value})
	}

	for _, child := range b.Body.Blocks {
		cn, childDiags := convertHCLBlock(child, src)
		diags = append(diags, childDiags...)
		if cn != nil {
			n.Children = append(n.Children, cn)
		}
	}
	return n, diags
}

// sortedAttributes returns attributes in source order; hclsyntax keeps them in a map.
func sortedAttributes(attrs hclsyntax.Attributes) []*hclsyntax.Attribute {
	out := make([]*hclsyntax.Attribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SrcRange.Start.Byte < out[j].SrcRange.Start.Byte
	})
	return out
}

// attributeText turns an attribute expression into the string an XML file
// would have carried for the same attribute.
func attributeText(expr hclsyntax.Expression, src []byte) (string, hcl.Diagnostics) {
	switch e := expr.(type) {
	case *hclsyntax.TemplateExpr:
		var sb strings.Builder
		var diags hcl.Diagnostics
		for _, part := range e.Parts {
			text, partDiags := templatePart(part, src)
			diags = append(diags, partDiags...)
			sb.WriteString(text)
		}
		return sb.String(), diags
	case *hclsyntax.TemplateWrapExpr:
		return templatePart(e.Wrapped, src)
	case *hclsyntax.ScopeTraversalExpr:
		return "${" + hclutil.TraversalKey(e.Traversal) + "}", nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	return literalText(val, expr.Range())
}

func templatePart(part hclsyntax.Expression, src []byte) (string, hcl.Diagnostics) {
	switch p := part.(type) {
	case *hclsyntax.LiteralValueExpr:
		return literalText(p.Val, p.SrcRange)
	case *hclsyntax.ScopeTraversalExpr:
		return "${" + hclutil.TraversalKey(p.Traversal) + "}", nil
	case *hclsyntax.TemplateJoinExpr, *hclsyntax.ConditionalExpr, *hclsyntax.ForExpr:
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported template directive",
			Detail:   "Template directives are not supported in build files; use ${...} property references.",
			Subject:  part.Range().Ptr(),
		}}
	default:
		rng := part.Range()
		return "${" + string(rng.SliceBytes(src)) + "}", nil
	}
}

func literalText(val cty.Value, rng hcl.Range) (string, hcl.Diagnostics) {
	if val.IsNull() {
		return "", nil
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported attribute value",
			Detail:   fmt.Sprintf("Attribute values must be strings, numbers or booleans: %s.", err),
			Subject:  rng.Ptr(),
		}}
	}
	return str.AsString(), nil
}
