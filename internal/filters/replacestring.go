// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package filters

import (
	"context"
	"errors"

	"github.com/specialistvlad/markbuild/internal/binder"
)

// ReplaceString replaces every occurrence of From with To.
type ReplaceString struct {
	binder.Conditions
	From       string `build:"from,required"`
	To         string `build:"to"`
	IgnoreCase bool   `build:"ignorecase"`
}

func (f *ReplaceString) Initialize(_ context.Context, _ *binder.Env) error {
	if f.From == "" {
		return errors.New("replacestring: 'from' must not be empty")
	}
	return nil
}

func (f *ReplaceString) NewStage(*binder.Env) Stage {
	return &replaceStringStage{from: []rune(f.From), to: []rune(f.To), fold: f.IgnoreCase}
}

type replaceStringStage struct {
	buffer
	from, to []rune
	fold     bool
}

func (s *replaceStringStage) Initialize() error {
	if len(s.from) == 0 {
		return errors.New("replacestring: 'from' must not be empty")
	}
	return s.buffer.Initialize()
}

func (s *replaceStringStage) ReadRune() (rune, int, error) {
	return s.read(s.fill)
}

func (s *replaceStringStage) fill() error {
	r, err := s.next()
	if err != nil {
		return err
	}
	if !sameRune(r, s.from[0], s.fold) {
		s.emit(r)
		return nil
	}
	rest, ok, err := s.match(s.from[1:], s.fold)
	if err != nil {
		return err
	}
	if !ok {
		s.emit(r)
		s.unread(rest)
		return nil
	}
	s.emit(s.to...)
	return nil
}
