// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package expand resolves ${...} property references in attribute values and
// in file content.
//
// A reference whose body is a plain property name (letters, digits, '_', '-'
// and '.') is looked up directly in the property store. Anything else is
// evaluated as an HCL expression, with the referenced properties exposed as
// variables and a small function library available:
//
//	${version}                 direct lookup
//	${build-dir}               direct lookup, dashes allowed
//	${upper(project.name)}     HCL expression
//	${defined("release")}      true when the property exists
//
// "$${" produces a literal "${".
package expand

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/markbuild/internal/hclutil"
	"github.com/specialistvlad/markbuild/internal/props"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

var plainName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// Expander expands property references against a property store.
type Expander struct {
	props *props.Store
	funcs map[string]function.Function
}

// New creates an expander reading from store.
func New(store *props.Store) *Expander {
	e := &Expander{props: store}
	e.funcs = map[string]function.Function{
		"upper":     stdlib.UpperFunc,
		"lower":     stdlib.LowerFunc,
		"title":     stdlib.TitleFunc,
		"trimspace": stdlib.TrimSpaceFunc,
		"replace":   stdlib.ReplaceFunc,
		"substr":    stdlib.SubstrFunc,
		"format":    stdlib.FormatFunc,
		"length":    stdlib.LengthFunc,
		"coalesce":  stdlib.CoalesceFunc,
		"join":      stdlib.JoinFunc,
		"split":     stdlib.SplitFunc,
		"defined":   e.definedFunc(),
	}
	return e
}

// Properties returns the underlying store.
func (e *Expander) Properties() *props.Store {
	return e.props
}

// Expand replaces every ${...} reference in s.
func (e *Expander) Expand(s string) (string, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}

	var sb strings.Builder
	rest := s
	for {
		i := strings.Index(rest, "${")
		if i < 0 {
			sb.WriteString(rest)
			return sb.String(), nil
		}
		if i > 0 && rest[i-1] == '$' {
			// "$${" is an escaped literal.
			sb.WriteString(rest[:i-1])
			sb.WriteString("${")
			rest = rest[i+2:]
			continue
		}
		sb.WriteString(rest[:i])

		end := closingBrace(rest[i+2:])
		if end < 0 {
			return "", &ExpressionError{Expression: rest[i:], Detail: "unterminated property reference"}
		}
		body := rest[i+2 : i+2+end]
		val, err := e.Evaluate(body)
		if err != nil {
			return "", err
		}
		sb.WriteString(val)
		rest = rest[i+2+end+1:]
	}
}

// Evaluate resolves the body of a single reference, i.e. the text between
// "${" and "}".
func (e *Expander) Evaluate(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", &ExpressionError{Expression: "${}", Detail: "empty property reference"}
	}
	if plainName.MatchString(body) {
		if v, ok := e.props.Get(body); ok {
			return v, nil
		}
		// Dashes are only meaningful in direct lookups.
		if strings.Contains(body, "-") {
			return "", &UndefinedPropertyError{Name: body}
		}
	}

	expr, diags := hclsyntax.ParseExpression([]byte(body), "<expression>", hcl.InitialPos)
	if diags.HasErrors() {
		return "", &ExpressionError{Expression: "${" + body + "}", Detail: diags.Error()}
	}

	vars, err := e.variablesFor(expr.Variables())
	if err != nil {
		return "", err
	}
	val, diags := expr.Value(&hcl.EvalContext{Variables: vars, Functions: e.funcs})
	if diags.HasErrors() {
		return "", &ExpressionError{Expression: "${" + body + "}", Detail: diags.Error()}
	}
	return stringify(val, body)
}

// variablesFor builds the HCL variable scope for the given traversals. A
// traversal such as project.name is satisfied by the longest defined dotted
// prefix, here the property "project.name".
func (e *Expander) variablesFor(traversals []hcl.Traversal) (map[string]cty.Value, error) {
	tree := map[string]any{}
	for _, t := range traversals {
		path := hclutil.AttrPath(t)
		found := false
		for k := len(path); k > 0; k-- {
			name := strings.Join(path[:k], ".")
			v, ok := e.props.Get(name)
			if !ok {
				continue
			}
			if err := insert(tree, path[:k], v); err != nil {
				return nil, err
			}
			found = true
			break
		}
		if !found {
			return nil, &UndefinedPropertyError{Name: hclutil.TraversalKey(t)}
		}
	}

	vars := make(map[string]cty.Value, len(tree))
	for k, v := range tree {
		vars[k] = toCty(v)
	}
	return vars, nil
}

func insert(tree map[string]any, path []string, value string) error {
	node := tree
	for i, seg := range path {
		last := i == len(path)-1
		existing, ok := node[seg]
		switch {
		case last && !ok:
			node[seg] = value
		case last:
			if s, isLeaf := existing.(string); !isLeaf || s != value {
				return &ExpressionError{
					Expression: strings.Join(path, "."),
					Detail:     fmt.Sprintf("property '%s' conflicts with another referenced property", strings.Join(path, ".")),
				}
			}
		case !ok:
			child := map[string]any{}
			node[seg] = child
			node = child
		default:
			child, isMap := existing.(map[string]any)
			if !isMap {
				return &ExpressionError{
					Expression: strings.Join(path, "."),
					Detail:     fmt.Sprintf("property '%s' conflicts with property '%s'", strings.Join(path, "."), strings.Join(path[:i+1], ".")),
				}
			}
			node = child
		}
	}
	return nil
}

func toCty(v any) cty.Value {
	switch t := v.(type) {
	case string:
		return cty.StringVal(t)
	case map[string]any:
		attrs := make(map[string]cty.Value, len(t))
		for k, child := range t {
			attrs[k] = toCty(child)
		}
		return cty.ObjectVal(attrs)
	default:
		panic(fmt.Sprintf("expand: unexpected variable node %T", v))
	}
}

func stringify(val cty.Value, body string) (string, error) {
	if val.IsNull() {
		return "", nil
	}
	if !val.IsWhollyKnown() {
		return "", &ExpressionError{Expression: "${" + body + "}", Detail: "expression result is unknown"}
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", &ExpressionError{Expression: "${" + body + "}", Detail: fmt.Sprintf("result cannot be used as text: %s", err)}
	}
	return str.AsString(), nil
}

func (e *Expander) definedFunc() function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "name", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.Bool),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			return cty.BoolVal(e.props.Has(args[0].AsString())), nil
		},
	})
}

// closingBrace returns the index of the brace that closes a reference body,
// skipping braces nested in the expression or inside string literals.
func closingBrace(s string) int {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inString && c == '\\':
			i++
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

// UndefinedPropertyError is returned for references to unknown properties.
type UndefinedPropertyError struct {
	Name string
}

func (e *UndefinedPropertyError) Error() string {
	return fmt.Sprintf("property '%s' has not been set", e.Name)
}

// ExpressionError is returned for malformed or failing expressions.
type ExpressionError struct {
	Expression string
	Detail     string
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("invalid expression %s: %s", e.Expression, e.Detail)
}
