// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package binder populates Go structs from markup element trees.
//
// The shape of an element is declared with `build` struct tags:
//
//	type Copy struct {
//		File   string            `build:"file,required,path"`
//		ToFile string            `build:"tofile,path"`
//		Chain  *filters.Chain    `build:"filterchain,block"`
//		Extra  map[string]string `build:",remain"`
//	}
//
// Attributes are expanded against the property store and coerced into the
// field type. Nested elements fill singular `block` slots, ordered
// `collection` slots, or the `*` wildcard collection, whose element types are
// resolved by name through a typereg.Registry.
package binder

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/specialistvlad/markbuild/internal/ctxlog"
	"github.com/specialistvlad/markbuild/internal/expand"
	"github.com/specialistvlad/markbuild/internal/markup"
	"github.com/specialistvlad/markbuild/internal/typereg"
)

// Env is the state shared by every element bound in one run.
type Env struct {
	// Expander resolves ${...} references. Nil disables expansion.
	Expander *expand.Expander
	// BaseDir anchors relative `path` attributes.
	BaseDir string
}

// Expand resolves property references in s.
func (e *Env) Expand(s string) (string, error) {
	if e == nil || e.Expander == nil {
		return s, nil
	}
	return e.Expander.Expand(s)
}

// Initializer is implemented by element types that need to validate or
// derive state once all of their attributes and children are bound.
type Initializer interface {
	Initialize(ctx context.Context, env *Env) error
}

// Binder binds markup trees to Go values.
type Binder struct {
	types *typereg.Registry
	env   *Env
}

// New creates a binder resolving wildcard elements through types.
func New(types *typereg.Registry, env *Env) *Binder {
	if env == nil {
		env = &Env{}
	}
	if types == nil {
		types = typereg.New()
	}
	return &Binder{types: types, env: env}
}

// Env returns the environment handed to initializers.
func (b *Binder) Env() *Env {
	return b.env
}

// Check builds the element spec of every registered type so that schema
// defects surface at start-up rather than on the first build file that uses
// the type.
func (b *Binder) Check() error {
	var errs []error
	for _, name := range b.types.Names() {
		entry, _ := b.types.Resolve(name)
		if _, err := SpecFor(entry.Type); err != nil {
			errs = append(errs, fmt.Errorf("element '%s': %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Bind populates target, which must be a non-nil pointer to a struct, from
// the element n. The target is only modified when binding succeeds.
func (b *Binder) Bind(ctx context.Context, n *markup.Node, target any) error {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return &ConfigurationError{Type: reflect.TypeOf(target), Reason: "bind target must be a non-nil pointer to a struct"}
	}
	if n == nil || n.Kind != markup.ElementNode {
		return fmt.Errorf("%w: bind source must be an element", ErrMarkupBinding)
	}

	spec, err := SpecFor(rv.Elem().Type())
	if err != nil {
		return err
	}

	fresh := reflect.New(spec.Type)
	if err := b.bindElement(ctx, n, spec, fresh.Elem()); err != nil {
		return err
	}
	rv.Elem().Set(fresh.Elem())
	return nil
}

func (b *Binder) bindElement(ctx context.Context, n *markup.Node, spec *ElementSpec, v reflect.Value) error {
	ctxlog.FromContext(ctx).Debug("Binding element.", "element", n.Name, "type", spec.Type.String(), "location", n.Location.String())

	if err := b.bindAttributes(n, spec, v); err != nil {
		return locate(n, err)
	}
	if err := b.bindChildren(ctx, n, spec, v); err != nil {
		return locate(n, err)
	}
	if init, ok := v.Addr().Interface().(Initializer); ok {
		if err := init.Initialize(ctx, b.env); err != nil {
			return locate(n, err)
		}
	}
	return nil
}

func (b *Binder) bindAttributes(n *markup.Node, spec *ElementSpec, v reflect.Value) error {
	seen := make(map[string]bool, len(n.Attrs))
	for _, a := range n.Attrs {
		if a.Namespace != "" {
			continue
		}
		f, declared := spec.Attribute(a.Name)
		if !declared {
			if reserved(a.Name) {
				continue
			}
			if spec.Strict() {
				return &UnknownAttributeError{Element: n.Name, Attribute: a.Name}
			}
		}

		val, err := b.env.Expand(a.Value)
		if err != nil {
			return &ValidationError{Element: n.Name, Attribute: a.Name, Value: a.Value, Err: err}
		}

		if !declared {
			remain := v.FieldByIndex(spec.Remain)
			if remain.IsNil() {
				remain.Set(reflect.MakeMap(remain.Type()))
			}
			remain.SetMapIndex(reflect.ValueOf(a.Name), reflect.ValueOf(val))
			continue
		}

		if err := f.assign(v.FieldByIndex(f.Index), val, b.env.BaseDir); err != nil {
			return &ValidationError{Element: n.Name, Attribute: a.Name, Value: val, Err: err}
		}
		seen[a.Name] = true
	}

	for _, f := range spec.Attributes {
		if f.Required && !seen[f.Name] {
			return &MissingAttributeError{Element: n.Name, Attribute: f.Name}
		}
	}
	return nil
}

// slot is the destination resolved for one nested element.
type slot struct {
	block *BlockField
	coll  *CollectionField
	// target is the declared type of the slot value.
	target reflect.Type
	// concrete is the struct type to instantiate.
	concrete reflect.Type
}

func (b *Binder) bindChildren(ctx context.Context, n *markup.Node, spec *ElementSpec, v reflect.Value) error {
	filled := map[string]bool{}
	for _, child := range n.Children {
		if child.Kind != markup.ElementNode || child.Namespace != n.Namespace {
			continue
		}

		s, err := b.resolveSlot(n, child, spec)
		if err != nil {
			return locate(child, err)
		}
		childSpec, err := SpecFor(s.concrete)
		if err != nil {
			return err
		}

		ok, err := b.include(child)
		if err != nil {
			return locate(child, err)
		}
		if !ok {
			ctxlog.FromContext(ctx).Debug("Skipping element excluded by condition.", "element", child.Name, "location", child.Location.String())
			continue
		}

		if s.block != nil && filled[s.block.Name] {
			return locate(child, &DuplicateElementError{Parent: n.Name, Element: child.Name})
		}

		item, err := b.instantiate(ctx, child, childSpec, s.target)
		if err != nil {
			return err
		}

		if s.block != nil {
			v.FieldByIndex(s.block.Index).Set(item)
			filled[s.block.Name] = true
			continue
		}
		if err := s.coll.add(v.FieldByIndex(s.coll.Index), item); err != nil {
			return locate(child, err)
		}
	}
	return nil
}

func (b *Binder) resolveSlot(parent, child *markup.Node, spec *ElementSpec) (slot, error) {
	if f, ok := spec.Blocks[child.Name]; ok {
		concrete, err := b.concreteType(parent, child, f.Type)
		return slot{block: f, target: f.Type, concrete: concrete}, err
	}
	if f, ok := spec.Collections[child.Name]; ok {
		concrete, err := b.concreteType(parent, child, f.Elem)
		return slot{coll: f, target: f.Elem, concrete: concrete}, err
	}
	if spec.Wildcard != nil {
		concrete, err := b.concreteType(parent, child, spec.Wildcard.Elem)
		return slot{coll: spec.Wildcard, target: spec.Wildcard.Elem, concrete: concrete}, err
	}
	return slot{}, &UnknownElementError{Parent: parent.Name, Element: child.Name}
}

// concreteType returns the struct type that satisfies a slot of type target
// for the given child. Interface slots are resolved through the registry.
func (b *Binder) concreteType(parent, child *markup.Node, target reflect.Type) (reflect.Type, error) {
	switch target.Kind() {
	case reflect.Struct:
		return target, nil
	case reflect.Pointer:
		return target.Elem(), nil
	}

	entry, err := b.types.Resolve(child.Name)
	if err != nil {
		return nil, &UnknownElementError{Parent: parent.Name, Element: child.Name, Err: err}
	}
	if !reflect.PointerTo(entry.Type).Implements(target) {
		return nil, &UnknownElementError{
			Parent:  parent.Name,
			Element: child.Name,
			Detail:  fmt.Sprintf("%s does not implement %s", entry.Type, target),
		}
	}
	return entry.Type, nil
}

// instantiate binds child into a new value shaped for a slot of type target.
func (b *Binder) instantiate(ctx context.Context, child *markup.Node, spec *ElementSpec, target reflect.Type) (reflect.Value, error) {
	ptr := reflect.New(spec.Type)
	if err := b.bindElement(ctx, child, spec, ptr.Elem()); err != nil {
		return reflect.Value{}, err
	}
	if target.Kind() == reflect.Struct {
		return ptr.Elem(), nil
	}
	return ptr, nil
}
