// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package filters

import (
	"context"
	"errors"
	"io"

	"github.com/specialistvlad/markbuild/internal/binder"
)

const (
	defaultTokenDelimiter = "@"
	// maxTokenLength bounds the lookahead spent on a begin delimiter that is
	// never closed.
	maxTokenLength = 256
)

// Token is a <token key value> entry of <replacetokens>.
type Token struct {
	Key   string `build:"key,required"`
	Value string `build:"value"`
}

// ReplaceTokens replaces @key@ style tokens with their values. Tokens without
// a value are passed through unchanged.
type ReplaceTokens struct {
	binder.Conditions
	BeginToken string  `build:"begintoken"`
	EndToken   string  `build:"endtoken"`
	Tokens     []Token `build:"token,collection"`
}

func (f *ReplaceTokens) Initialize(_ context.Context, _ *binder.Env) error {
	for _, t := range f.Tokens {
		if t.Key == "" {
			return errors.New("replacetokens: token keys must not be empty")
		}
	}
	return nil
}

func (f *ReplaceTokens) NewStage(*binder.Env) Stage {
	s := &replaceTokensStage{
		begin:  []rune(orDefault(f.BeginToken, defaultTokenDelimiter)),
		end:    []rune(orDefault(f.EndToken, defaultTokenDelimiter)),
		values: make(map[string]string, len(f.Tokens)),
	}
	for _, t := range f.Tokens {
		s.values[t.Key] = t.Value
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

type replaceTokensStage struct {
	buffer
	begin, end []rune
	values     map[string]string
}

func (s *replaceTokensStage) ReadRune() (rune, int, error) {
	return s.read(s.fill)
}

func (s *replaceTokensStage) fill() error {
	r, err := s.next()
	if err != nil {
		return err
	}
	if r != s.begin[0] {
		s.emit(r)
		return nil
	}

	consumed, ok, err := s.match(s.begin[1:], false)
	if err != nil {
		return err
	}
	if ok {
		var key []rune
		key, ok, err = s.scanKey()
		consumed = append(consumed, key...)
		if err != nil {
			return err
		}
		if ok {
			if value, known := s.values[string(key[:len(key)-len(s.end)])]; known {
				s.emit([]rune(value)...)
				return nil
			}
		}
	}
	// Not a known token: emit the first delimiter rune and rescan the rest.
	s.emit(r)
	s.unread(consumed)
	return nil
}

// scanKey reads up to and including the end delimiter.
func (s *replaceTokensStage) scanKey() ([]rune, bool, error) {
	var read []rune
	for len(read) < maxTokenLength {
		r, err := s.next()
		if errors.Is(err, io.EOF) {
			return read, false, nil
		}
		if err != nil {
			return read, false, err
		}
		read = append(read, r)
		if r != s.end[0] {
			continue
		}
		rest, ok, err := s.match(s.end[1:], false)
		read = append(read, rest...)
		if err != nil || ok {
			return read, ok, err
		}
		// The partial delimiter may contain the real one.
		s.unread(rest)
		read = read[:len(read)-len(rest)]
	}
	return read, false, nil
}
