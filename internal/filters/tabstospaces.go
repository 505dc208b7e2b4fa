// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package filters

import (
	"github.com/specialistvlad/markbuild/internal/binder"
)

const defaultTabLength = 8

// TabsToSpaces expands tab characters to spaces, aligning to multiples of
// TabLength.
type TabsToSpaces struct {
	binder.Conditions
	TabLength int `build:"tablength,min=1,max=100"`
}

func (f *TabsToSpaces) NewStage(*binder.Env) Stage {
	width := f.TabLength
	if width <= 0 {
		width = defaultTabLength
	}
	return &tabsToSpacesStage{width: width}
}

type tabsToSpacesStage struct {
	buffer
	width  int
	column int
}

func (s *tabsToSpacesStage) ReadRune() (rune, int, error) {
	return s.read(s.fill)
}

func (s *tabsToSpacesStage) fill() error {
	r, err := s.next()
	if err != nil {
		return err
	}
	switch r {
	case '\t':
		n := s.width - s.column%s.width
		for i := 0; i < n; i++ {
			s.emit(' ')
		}
		s.column += n
	case '\n', '\r':
		s.emit(r)
		s.column = 0
	default:
		s.emit(r)
		s.column++
	}
	return nil
}
