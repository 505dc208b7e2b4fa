// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package binder

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// TagName is the struct tag key read by the binder.
const TagName = "build"

// Wildcard is the collection name that accepts any element resolvable through
// the type registry.
const Wildcard = "*"

// AttrField describes one attribute-backed field.
type AttrField struct {
	Name     string
	Index    []int
	Type     reflect.Type
	Required bool
	Path     bool

	hasMin, hasMax bool
	min, max       float64

	ctyType cty.Type
	set     setter
}

// BlockField describes a singular child element slot.
type BlockField struct {
	Name  string
	Index []int
	Type  reflect.Type
}

// CollectionField describes an ordered multi-element slot.
type CollectionField struct {
	Name  string
	Index []int
	Type  reflect.Type
	Elem  reflect.Type
	add   func(coll, item reflect.Value) error
}

// ElementSpec is the binding schema of a Go struct type. It is built once per
// type and cached for the lifetime of the process.
type ElementSpec struct {
	Type        reflect.Type
	Attributes  []*AttrField
	Blocks      map[string]*BlockField
	Collections map[string]*CollectionField
	Wildcard    *CollectionField
	// Remain is the index of the map collecting undeclared attributes; nil
	// when the element is strict.
	Remain []int

	attrs map[string]*AttrField
}

// Attribute returns the descriptor of the named attribute.
func (s *ElementSpec) Attribute(name string) (*AttrField, bool) {
	f, ok := s.attrs[name]
	return f, ok
}

// Strict reports whether undeclared attributes are rejected.
func (s *ElementSpec) Strict() bool {
	return s.Remain == nil
}

type appender struct {
	elem reflect.Type
	fn   func(coll, item reflect.Value) error
}

var (
	specCache sync.Map // reflect.Type -> *ElementSpec
	appenders sync.Map // reflect.Type -> appender
)

// RegisterAppender declares the append capability of collection type C for
// elements of type E. Slices have this capability natively; every other type
// used in a `collection` slot must be registered, normally from an init
// function of the package that defines C.
func RegisterAppender[C any, E any](add func(c *C, e E) error) {
	ct := reflect.TypeOf((*C)(nil)).Elem()
	et := reflect.TypeOf((*E)(nil)).Elem()
	appenders.Store(ct, appender{
		elem: et,
		fn: func(coll, item reflect.Value) error {
			return add(coll.Addr().Interface().(*C), item.Interface().(E))
		},
	})
}

// SpecFor returns the ElementSpec of struct type t, building and caching it on
// first use. Nested element types with a concrete struct type are checked too,
// so a schema defect anywhere below t is reported here.
func SpecFor(t reflect.Type) (*ElementSpec, error) {
	return specFor(t, map[reflect.Type]bool{})
}

func specFor(t reflect.Type, visiting map[reflect.Type]bool) (*ElementSpec, error) {
	if cached, ok := specCache.Load(t); ok {
		return cached.(*ElementSpec), nil
	}
	if visiting[t] {
		// Recursive schema; the outer call finishes it.
		return nil, nil
	}
	visiting[t] = true
	defer delete(visiting, t)

	spec, err := buildSpec(t, visiting)
	if err != nil {
		return nil, err
	}
	actual, _ := specCache.LoadOrStore(t, spec)
	return actual.(*ElementSpec), nil
}

type tagInfo struct {
	name    string
	kind    string
	options map[string]string
}

func parseTag(tag string) tagInfo {
	parts := strings.Split(tag, ",")
	info := tagInfo{name: parts[0], kind: "attr", options: map[string]string{}}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		switch p {
		case "attr", "block", "collection", "remain":
			info.kind = p
		case "":
		default:
			k, v, _ := strings.Cut(p, "=")
			info.options[k] = v
		}
	}
	return info
}

func buildSpec(t reflect.Type, visiting map[reflect.Type]bool) (*ElementSpec, error) {
	if t.Kind() != reflect.Struct {
		return nil, &ConfigurationError{Type: t, Reason: "bound types must be structs"}
	}

	spec := &ElementSpec{
		Type:        t,
		Blocks:      map[string]*BlockField{},
		Collections: map[string]*CollectionField{},
		attrs:       map[string]*AttrField{},
	}

	for _, sf := range reflect.VisibleFields(t) {
		tag, ok := sf.Tag.Lookup(TagName)
		if !ok || tag == "-" || sf.Anonymous {
			continue
		}
		if !sf.IsExported() {
			return nil, &ConfigurationError{Type: t, Field: sf.Name, Reason: "tagged field must be exported"}
		}
		if throughPointer(t, sf.Index) {
			return nil, &ConfigurationError{Type: t, Field: sf.Name, Reason: "fields promoted through embedded pointers are not supported"}
		}

		info := parseTag(tag)
		var err error
		switch info.kind {
		case "attr":
			err = spec.addAttribute(sf, info)
		case "block":
			err = spec.addBlock(sf, info, visiting)
		case "collection":
			err = spec.addCollection(sf, info, visiting)
		case "remain":
			err = spec.addRemain(sf)
		}
		if err != nil {
			return nil, err
		}
	}
	return spec, nil
}

func throughPointer(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Pointer {
			return true
		}
		t = f.Type
	}
	return false
}

func (s *ElementSpec) addAttribute(sf reflect.StructField, info tagInfo) error {
	if info.name == "" || info.name == Wildcard {
		return &ConfigurationError{Type: s.Type, Field: sf.Name, Reason: "attribute fields need a name"}
	}
	if _, dup := s.attrs[info.name]; dup {
		return &ConfigurationError{Type: s.Type, Field: sf.Name, Reason: fmt.Sprintf("attribute '%s' declared twice", info.name)}
	}

	set, ct, err := newSetter(sf.Type)
	if err != nil {
		return &ConfigurationError{Type: s.Type, Field: sf.Name, Reason: err.Error()}
	}
	f := &AttrField{
		Name:    info.name,
		Index:   sf.Index,
		Type:    sf.Type,
		ctyType: ct,
		set:     set,
	}
	for k, v := range info.options {
		switch k {
		case "required":
			f.Required = true
		case "path":
			if baseKind(sf.Type) != reflect.String {
				return &ConfigurationError{Type: s.Type, Field: sf.Name, Reason: "path attributes must be strings"}
			}
			f.Path = true
		case "min", "max":
			if ct != cty.Number {
				return &ConfigurationError{Type: s.Type, Field: sf.Name, Reason: fmt.Sprintf("'%s' requires a numeric field", k)}
			}
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return &ConfigurationError{Type: s.Type, Field: sf.Name, Reason: fmt.Sprintf("invalid %s bound '%s'", k, v)}
			}
			if k == "min" {
				f.hasMin, f.min = true, n
			} else {
				f.hasMax, f.max = true, n
			}
		default:
			return &ConfigurationError{Type: s.Type, Field: sf.Name, Reason: fmt.Sprintf("unknown tag option '%s'", k)}
		}
	}

	s.Attributes = append(s.Attributes, f)
	s.attrs[f.Name] = f
	return nil
}

func (s *ElementSpec) addBlock(sf reflect.StructField, info tagInfo, visiting map[reflect.Type]bool) error {
	if info.name == "" || info.name == Wildcard {
		return &ConfigurationError{Type: s.Type, Field: sf.Name, Reason: "block fields need an element name"}
	}
	if err := s.checkSlotName(sf, info.name); err != nil {
		return err
	}
	if err := checkElementType(sf.Type, visiting); err != nil {
		return &ConfigurationError{Type: s.Type, Field: sf.Name, Reason: err.Error()}
	}
	s.Blocks[info.name] = &BlockField{Name: info.name, Index: sf.Index, Type: sf.Type}
	return nil
}

// inferElemType names the element type a collection type appears to hold:
// the element of an array, map or channel, or the argument of an Add or Append
// method. It falls back to the collection type itself.
func inferElemType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Array, reflect.Map, reflect.Chan:
		return t.Elem().String()
	}
	for _, name := range []string{"Add", "Append"} {
		if m, ok := reflect.PointerTo(t).MethodByName(name); ok && m.Type.NumIn() == 2 {
			return m.Type.In(1).String()
		}
	}
	return "element of " + t.String()
}

func (s *ElementSpec) addCollection(sf reflect.StructField, info tagInfo, visiting map[reflect.Type]bool) error {
	if info.name == "" {
		return &ConfigurationError{Type: s.Type, Field: sf.Name, Reason: "collection fields need an element name or '*'"}
	}
	if err := s.checkSlotName(sf, info.name); err != nil {
		return err
	}

	coll := &CollectionField{Name: info.name, Index: sf.Index, Type: sf.Type}
	if sf.Type.Kind() == reflect.Slice {
		coll.Elem = sf.Type.Elem()
		coll.add = func(c, item reflect.Value) error {
			c.Set(reflect.Append(c, item))
			return nil
		}
	} else {
		a, ok := appenders.Load(sf.Type)
		if !ok {
			return &ConfigurationError{
				Type:        s.Type,
				Field:       sf.Name,
				Collection:  info.name,
				ElementType: inferElemType(sf.Type),
				Reason:      fmt.Sprintf("%s is not a slice and no appender was registered for it", sf.Type),
			}
		}
		coll.Elem = a.(appender).elem
		coll.add = a.(appender).fn
	}

	if err := checkElementType(coll.Elem, visiting); err != nil {
		return &ConfigurationError{
			Type:        s.Type,
			Field:       sf.Name,
			Collection:  info.name,
			ElementType: coll.Elem.String(),
			Reason:      err.Error(),
		}
	}

	if info.name == Wildcard {
		if coll.Elem.Kind() != reflect.Interface {
			return &ConfigurationError{Type: s.Type, Field: sf.Name, Reason: "wildcard collections must hold an interface type"}
		}
		s.Wildcard = coll
		return nil
	}
	s.Collections[info.name] = coll
	return nil
}

func (s *ElementSpec) addRemain(sf reflect.StructField) error {
	if sf.Type != reflect.TypeOf(map[string]string(nil)) {
		return &ConfigurationError{Type: s.Type, Field: sf.Name, Reason: "remain fields must be map[string]string"}
	}
	if s.Remain != nil {
		return &ConfigurationError{Type: s.Type, Field: sf.Name, Reason: "only one remain field is allowed"}
	}
	s.Remain = sf.Index
	return nil
}

func (s *ElementSpec) checkSlotName(sf reflect.StructField, name string) error {
	_, isBlock := s.Blocks[name]
	_, isColl := s.Collections[name]
	if isBlock || isColl || (name == Wildcard && s.Wildcard != nil) {
		return &ConfigurationError{Type: s.Type, Field: sf.Name, Reason: fmt.Sprintf("element slot '%s' declared twice", name)}
	}
	return nil
}

// checkElementType verifies that t can hold a bound element: a struct, a
// pointer to a struct, or an interface resolved through the registry.
func checkElementType(t reflect.Type, visiting map[reflect.Type]bool) error {
	switch {
	case t.Kind() == reflect.Interface:
		return nil
	case t.Kind() == reflect.Struct:
		_, err := specFor(t, visiting)
		return err
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		_, err := specFor(t.Elem(), visiting)
		return err
	default:
		return fmt.Errorf("%s cannot hold a bound element", t)
	}
}

func baseKind(t reflect.Type) reflect.Kind {
	if t.Kind() == reflect.Pointer {
		return t.Elem().Kind()
	}
	return t.Kind()
}
