// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package binder

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/markbuild/internal/markup"
)

const (
	attrIf     = "if"
	attrUnless = "unless"
)

func reserved(name string) bool {
	return name == attrIf || name == attrUnless
}

// Conditions can be embedded in element types that want to keep the values of
// their if/unless attributes. The binder evaluates both attributes itself
// before an element is instantiated, so embedding is optional.
type Conditions struct {
	If     *bool `build:"if"`
	Unless *bool `build:"unless"`
}

// Enabled reports whether the element is active: if is unset or true, and
// unless is unset or false.
func (c Conditions) Enabled() bool {
	if c.If != nil && !*c.If {
		return false
	}
	if c.Unless != nil && *c.Unless {
		return false
	}
	return true
}

// include evaluates the if/unless attributes of n. Both are expanded first;
// the result must read true or false, ignoring case.
func (b *Binder) include(n *markup.Node) (bool, error) {
	enabled := true
	for _, name := range []string{attrIf, attrUnless} {
		raw, ok := n.Attr(name)
		if !ok {
			continue
		}
		val, err := b.env.Expand(raw)
		if err != nil {
			return false, &ValidationError{Element: n.Name, Attribute: name, Value: raw, Err: err}
		}
		truth, err := parseCondition(val)
		if err != nil {
			return false, &ValidationError{Element: n.Name, Attribute: name, Value: val, Err: err}
		}
		if name == attrIf && !truth || name == attrUnless && truth {
			enabled = false
		}
	}
	return enabled, nil
}

func parseCondition(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("condition must be 'true' or 'false'")
}
