// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package filters

import (
	"errors"
	"io"

	"github.com/specialistvlad/markbuild/internal/binder"
	"github.com/specialistvlad/markbuild/internal/expand"
)

// ExpandProperties replaces ${...} references in the content with values
// from the property store. A reference that cannot be resolved fails the
// read.
type ExpandProperties struct {
	binder.Conditions
}

func (f *ExpandProperties) NewStage(env *binder.Env) Stage {
	s := &expandPropertiesStage{}
	if env != nil {
		s.expander = env.Expander
	}
	return s
}

var errNoExpander = errors.New("expandproperties: no property store is available")

type expandPropertiesStage struct {
	buffer
	expander *expand.Expander
}

func (s *expandPropertiesStage) Initialize() error {
	if s.expander == nil {
		return errNoExpander
	}
	return s.buffer.Initialize()
}

func (s *expandPropertiesStage) ReadRune() (rune, int, error) {
	return s.read(s.fill)
}

func (s *expandPropertiesStage) fill() error {
	r, err := s.next()
	if err != nil {
		return err
	}
	if r != '$' {
		s.emit(r)
		return nil
	}

	open, ok, err := s.match([]rune("{"), false)
	if err != nil {
		return err
	}
	if !ok {
		if len(open) == 1 && open[0] == '$' {
			// "$${" is a literal "${".
			brace, escaped, err := s.match([]rune("{"), false)
			if err != nil {
				return err
			}
			if escaped {
				s.emit('$', '{')
				return nil
			}
			s.unread(brace)
		}
		s.emit(r)
		s.unread(open)
		return nil
	}

	body, closed, err := s.scanBody()
	if err != nil {
		return err
	}
	if !closed {
		s.emit('$', '{')
		s.emit(body...)
		return nil
	}
	value, err := s.expander.Evaluate(string(body))
	if err != nil {
		return err
	}
	s.emit([]rune(value)...)
	return nil
}

// scanBody reads up to the brace closing an opened reference, skipping braces
// inside quoted strings. The closing brace is consumed but not returned.
func (s *expandPropertiesStage) scanBody() ([]rune, bool, error) {
	var body []rune
	depth, quoted, escaped := 0, false, false
	for {
		r, err := s.next()
		if errors.Is(err, io.EOF) {
			return body, false, nil
		}
		if err != nil {
			return body, false, err
		}
		switch {
		case escaped:
			escaped = false
		case quoted && r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case !quoted && r == '{':
			depth++
		case !quoted && r == '}':
			if depth == 0 {
				return body, true, nil
			}
			depth--
		}
		body = append(body, r)
	}
}
