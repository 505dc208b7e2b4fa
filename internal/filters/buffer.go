// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package filters

import (
	"errors"
	"io"
	"unicode"
	"unicode/utf8"
)

var errNotChained = errors.New("filter stage has no predecessor")

// buffer is embedded by stages that need lookahead. It keeps runes pushed
// back onto the input and runes produced but not yet returned.
type buffer struct {
	in   io.RuneReader
	back []rune // read from the end
	out  []rune
}

func (b *buffer) Chain(prev io.RuneReader) {
	b.in = prev
}

func (b *buffer) Initialize() error {
	if b.in == nil {
		return errNotChained
	}
	return nil
}

// read drives fill until output is available.
func (b *buffer) read(fill func() error) (rune, int, error) {
	for len(b.out) == 0 {
		if err := fill(); err != nil {
			return 0, 0, err
		}
	}
	r := b.out[0]
	b.out = b.out[1:]
	return r, utf8.RuneLen(r), nil
}

func (b *buffer) next() (rune, error) {
	if n := len(b.back); n > 0 {
		r := b.back[n-1]
		b.back = b.back[:n-1]
		return r, nil
	}
	r, _, err := b.in.ReadRune()
	return r, err
}

// unread pushes rs back so that rs[0] is the next rune read.
func (b *buffer) unread(rs []rune) {
	for i := len(rs) - 1; i >= 0; i-- {
		b.back = append(b.back, rs[i])
	}
}

func (b *buffer) emit(rs ...rune) {
	b.out = append(b.out, rs...)
}

// match reads len(tok) runes and reports whether they equal tok. The runes
// read are returned either way. Reaching the end of input is a mismatch.
func (b *buffer) match(tok []rune, fold bool) ([]rune, bool, error) {
	consumed := make([]rune, 0, len(tok))
	for _, want := range tok {
		r, err := b.next()
		if errors.Is(err, io.EOF) {
			return consumed, false, nil
		}
		if err != nil {
			return consumed, false, err
		}
		consumed = append(consumed, r)
		if !sameRune(r, want, fold) {
			return consumed, false, nil
		}
	}
	return consumed, true, nil
}

func sameRune(a, b rune, fold bool) bool {
	if a == b {
		return true
	}
	if !fold {
		return false
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}
