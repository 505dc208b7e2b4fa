// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package binder

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/specialistvlad/markbuild/internal/markup"
)

// ErrMarkupBinding is matched (via errors.Is) by every error caused by the
// content of a build file, as opposed to a defect in a bound Go type.
var ErrMarkupBinding = errors.New("markup binding error")

// ConfigurationError reports a defect in the schema of a bound Go type. It
// does not depend on any particular build file and is raised before any
// markup is examined.
type ConfigurationError struct {
	Type        reflect.Type
	Field       string
	Collection  string
	ElementType string
	Reason      string
}

func (e *ConfigurationError) Error() string {
	where := "<nil>"
	if e.Type != nil {
		where = e.Type.String()
	}
	if e.Field != "" {
		where += "." + e.Field
	}
	if e.Collection != "" {
		return fmt.Sprintf("configuration error in %s: collection '%s' has no append capability for element type '%s': %s",
			where, e.Collection, e.ElementType, e.Reason)
	}
	return fmt.Sprintf("configuration error in %s: %s", where, e.Reason)
}

// MissingAttributeError is returned when a required attribute is absent.
type MissingAttributeError struct {
	Element   string
	Attribute string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("<%s> is missing required attribute '%s'", e.Element, e.Attribute)
}

func (e *MissingAttributeError) Is(target error) bool { return target == ErrMarkupBinding }

// UnknownAttributeError is returned for attributes a strict element does not declare.
type UnknownAttributeError struct {
	Element   string
	Attribute string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("<%s> does not support attribute '%s'", e.Element, e.Attribute)
}

func (e *UnknownAttributeError) Is(target error) bool { return target == ErrMarkupBinding }

// UnknownElementError is returned for nested elements that no slot accepts.
// Err carries the registry lookup failure, if there was one.
type UnknownElementError struct {
	Parent  string
	Element string
	Detail  string
	Err     error
}

func (e *UnknownElementError) Error() string {
	msg := fmt.Sprintf("<%s> does not support nested element <%s>", e.Parent, e.Element)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnknownElementError) Unwrap() error { return e.Err }

func (e *UnknownElementError) Is(target error) bool { return target == ErrMarkupBinding }

// DuplicateElementError is returned when a singular slot receives a second element.
type DuplicateElementError struct {
	Parent  string
	Element string
}

func (e *DuplicateElementError) Error() string {
	return fmt.Sprintf("<%s> allows only one nested <%s> element", e.Parent, e.Element)
}

func (e *DuplicateElementError) Is(target error) bool { return target == ErrMarkupBinding }

// ValidationError is returned when an attribute value cannot be coerced or
// fails validation.
type ValidationError struct {
	Element   string
	Attribute string
	Value     string
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value '%s' for attribute '%s' of <%s>: %v", e.Value, e.Attribute, e.Element, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrMarkupBinding }

// BindError attaches the source location of the failing element to an error.
type BindError struct {
	Element  string
	Location markup.Location
	Err      error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("%s: %v", e.Location, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// locate wraps err with the location of n unless it already carries one.
func locate(n *markup.Node, err error) error {
	if err == nil {
		return nil
	}
	var located *BindError
	if errors.As(err, &located) {
		return err
	}
	return &BindError{Element: n.Name, Location: n.Location, Err: err}
}
