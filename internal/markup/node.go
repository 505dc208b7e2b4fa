// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package markup holds the format-agnostic parse tree of a build file.
//
// Build files can be written as XML or as HCL. Both front-ends produce the
// same Node tree, so the binder never needs to know which syntax a user chose.
// Every node remembers where it came from, which is what makes binding errors
// point at a concrete file and line.
package markup

import "fmt"

// Kind distinguishes the node types the binder cares about.
type Kind int

const (
	ElementNode Kind = iota
	TextNode
	CommentNode
)

func (k Kind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Location points at the source of a node.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	switch {
	case l.File != "" && l.Line > 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	case l.File != "":
		return l.File
	case l.Line > 0:
		return fmt.Sprintf("line %d", l.Line)
	default:
		return "<unknown>"
	}
}

// Attr is a single attribute. Namespace is empty for unqualified attributes.
type Attr struct {
	Name      string
	Namespace string
	Value     string
}

// Node is one node of the markup tree.
type Node struct {
	Kind      Kind
	Name      string
	Namespace string
	Attrs     []Attr
	Children  []*Node
	Text      string
	Location  Location
}

// NewElement creates an element node with the given attributes, supplied as
// name/value pairs. It is mostly useful for building trees in code and tests.
func NewElement(name string, pairs ...string) *Node {
	if len(pairs)%2 != 0 {
		panic("markup: NewElement requires name/value pairs")
	}
	n := &Node{Kind: ElementNode, Name: name}
	for i := 0; i < len(pairs); i += 2 {
		n.Attrs = append(n.Attrs, Attr{Name: pairs[i], Value: pairs[i+1]})
	}
	return n
}

// Append adds children in order and returns n for chaining.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Attr returns the value of the unqualified attribute name.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name && a.Namespace == "" {
			return a.Value, true
		}
	}
	return "", false
}

// AttrMap returns the unqualified attributes as a map.
func (n *Node) AttrMap() map[string]string {
	m := make(map[string]string, len(n.Attrs))
	for _, a := range n.Attrs {
		if a.Namespace == "" {
			m[a.Name] = a.Value
		}
	}
	return m
}

// Elements returns the element children of n in document order.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}
