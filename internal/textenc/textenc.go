// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package textenc resolves character encodings by their IANA names and opens
// byte streams as text, honouring byte-order marks.
package textenc

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// Encoding is a resolved character encoding. The zero value means "not
// specified".
type Encoding struct {
	Name string
	enc  encoding.Encoding
}

var (
	// UTF8 is the default encoding for sources without a byte-order mark.
	UTF8 = Encoding{Name: "UTF-8", enc: unicode.UTF8}

	utf8BOM    = Encoding{Name: "UTF-8", enc: unicode.UTF8BOM}
	utf16BEBOM = Encoding{Name: "UTF-16BE", enc: unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)}
	utf16LEBOM = Encoding{Name: "UTF-16LE", enc: unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)}
)

// Resolve looks up an encoding by IANA name or alias, ignoring case.
func Resolve(name string) (Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(strings.TrimSpace(name))
	if err != nil {
		return Encoding{}, &InvalidEncodingError{Name: name}
	}
	if enc == nil {
		return Encoding{}, &UnsupportedEncodingError{Name: name}
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		canonical = name
	}
	return Encoding{Name: canonical, enc: enc}, nil
}

// IsZero reports whether e is unspecified.
func (e Encoding) IsZero() bool {
	return e.enc == nil
}

// NewDecoder returns a decoder to UTF-8.
func (e Encoding) NewDecoder() *encoding.Decoder {
	return e.orDefault().NewDecoder()
}

// NewEncoder returns an encoder from UTF-8.
func (e Encoding) NewEncoder() *encoding.Encoder {
	return e.orDefault().NewEncoder()
}

func (e Encoding) orDefault() encoding.Encoding {
	if e.enc == nil {
		return unicode.UTF8
	}
	return e.enc
}

func (e Encoding) String() string {
	if e.Name == "" {
		return "<default>"
	}
	return e.Name
}

// InvalidEncodingError is returned for names that are not registered
// character sets.
type InvalidEncodingError struct {
	Name string
}

func (e *InvalidEncodingError) Error() string {
	return fmt.Sprintf("invalid encoding '%s': not a registered character set name", e.Name)
}

// UnsupportedEncodingError is returned for registered character sets that
// have no implementation.
type UnsupportedEncodingError struct {
	Name string
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("unsupported encoding '%s': registered character set with no available implementation", e.Name)
}
