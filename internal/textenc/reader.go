// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package textenc

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// Reader decodes a byte stream into runes. It reads straight from a physical
// source and can therefore serve as the base of a filter chain.
type Reader struct {
	runes *bufio.Reader
	enc   Encoding
}

// NewReader opens r as text. A byte-order mark selects UTF-8 or UTF-16 and
// takes precedence over declared; otherwise declared is used, defaulting to
// UTF-8 when it is zero.
func NewReader(r io.Reader, declared Encoding) (*Reader, error) {
	raw := bufio.NewReader(r)
	enc, err := sniff(raw, declared)
	if err != nil {
		return nil, err
	}
	return &Reader{
		runes: bufio.NewReader(transform.NewReader(raw, enc.NewDecoder())),
		enc:   enc,
	}, nil
}

func sniff(raw *bufio.Reader, declared Encoding) (Encoding, error) {
	head, err := raw.Peek(3)
	if err != nil && !errors.Is(err, io.EOF) {
		return Encoding{}, err
	}
	switch {
	case bytes.HasPrefix(head, bomUTF8):
		return utf8BOM, nil
	case bytes.HasPrefix(head, bomUTF16BE):
		return utf16BEBOM, nil
	case bytes.HasPrefix(head, bomUTF16LE):
		return utf16LEBOM, nil
	case !declared.IsZero():
		return declared, nil
	default:
		return UTF8, nil
	}
}

// ReadRune returns the next decoded character.
func (r *Reader) ReadRune() (rune, int, error) {
	return r.runes.ReadRune()
}

// Physical reports that the reader is backed by a byte source.
func (r *Reader) Physical() bool {
	return true
}

// Encoding returns the encoding the source was opened with.
func (r *Reader) Encoding() Encoding {
	return r.enc
}
