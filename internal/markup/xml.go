// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package markup

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
)

// ParseXML reads an XML build file and returns its root element.
func ParseXML(r io.Reader, filename string) (*Node, error) {
	doc, err := xmlquery.ParseWithOptions(r, xmlquery.ParserOptions{WithLineNumbers: true})
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML build file %s: %w", filename, err)
	}

	for child := doc.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return convertXMLNode(child, filename), nil
		}
	}
	return nil, fmt.Errorf("failed to parse XML build file %s: %w", filename, errors.New("document has no root element"))
}

func convertXMLNode(x *xmlquery.Node, filename string) *Node {
	n := &Node{
		Kind:      ElementNode,
		Name:      x.Data,
		Namespace: x.NamespaceURI,
		Location:  Location{File: filename, Line: x.LineNumber},
	}

	for _, a := range x.Attr {
		if isNamespaceDecl(a.Name.Space, a.Name.Local) {
			continue
		}
		n.Attrs = append(n.Attrs, Attr{
			Name:      a.Name.Local,
			Namespace: a.NamespaceURI,
			Value:     a.Value,
		})
	}

	for c := x.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode:
			n.Children = append(n.Children, convertXMLNode(c, filename))
		case xmlquery.TextNode, xmlquery.CharDataNode:
			n.Children = append(n.Children, &Node{
				Kind:     TextNode,
				Text:     c.Data,
				Location: Location{File: filename, Line: c.LineNumber},
			})
		case xmlquery.CommentNode:
			n.Children = append(n.Children, &Node{
				Kind:     CommentNode,
				Text:     c.Data,
				Location: Location{File: filename, Line: c.LineNumber},
			})
		}
	}
	return n
}

func isNamespaceDecl(space, local string) bool {
	return space == "xmlns" || (space == "" && local == "xmlns") || strings.HasPrefix(space, "xmlns:")
}
