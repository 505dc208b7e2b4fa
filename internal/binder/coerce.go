// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package binder

import (
	"encoding"
	"fmt"
	"math/big"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// setter stores an already-expanded attribute value into a field.
type setter func(field reflect.Value, raw string) error

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

func newSetter(t reflect.Type) (setter, cty.Type, error) {
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return func(field reflect.Value, raw string) error {
			return field.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw))
		}, cty.String, nil
	}

	if t.Kind() == reflect.Pointer {
		inner, ct, err := newSetter(t.Elem())
		if err != nil {
			return nil, cty.NilType, err
		}
		return func(field reflect.Value, raw string) error {
			v := reflect.New(t.Elem())
			if err := inner(v.Elem(), raw); err != nil {
				return err
			}
			field.Set(v)
			return nil
		}, ct, nil
	}

	ct, err := gocty.ImpliedType(reflect.Zero(t).Interface())
	if err != nil {
		return nil, cty.NilType, fmt.Errorf("unsupported attribute type %s: %w", t, err)
	}
	if !ct.IsPrimitiveType() {
		return nil, cty.NilType, fmt.Errorf("unsupported attribute type %s: only scalar values can be bound", t)
	}

	return func(field reflect.Value, raw string) error {
		switch ct {
		case cty.Bool:
			raw = strings.ToLower(strings.TrimSpace(raw))
		case cty.Number:
			raw = strings.TrimSpace(raw)
		}
		v, err := convert.Convert(cty.StringVal(raw), ct)
		if err != nil {
			return err
		}
		return gocty.FromCtyValue(v, field.Addr().Interface())
	}, ct, nil
}

// assign converts raw, validates it, and stores it into field.
func (f *AttrField) assign(field reflect.Value, raw string, baseDir string) error {
	if f.Path && raw != "" && baseDir != "" && !filepath.IsAbs(raw) {
		raw = filepath.Join(baseDir, raw)
	}
	if err := f.set(field, raw); err != nil {
		return err
	}
	if f.hasMin || f.hasMax {
		return f.checkRange(raw)
	}
	return nil
}

func (f *AttrField) checkRange(raw string) error {
	v, err := convert.Convert(cty.StringVal(strings.TrimSpace(raw)), cty.Number)
	if err != nil {
		return err
	}
	n := v.AsBigFloat()
	if f.hasMin && n.Cmp(big.NewFloat(f.min)) < 0 {
		return fmt.Errorf("must be at least %v", f.min)
	}
	if f.hasMax && n.Cmp(big.NewFloat(f.max)) > 0 {
		return fmt.Errorf("must be at most %v", f.max)
	}
	return nil
}
