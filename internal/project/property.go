// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package project

import (
	"context"
	"errors"

	"github.com/specialistvlad/markbuild/internal/binder"
	"github.com/specialistvlad/markbuild/internal/ctxlog"
)

// Property is a <property> element. It defines its value in the shared store
// as soon as it is bound, so later attributes in the same file can refer to
// it. The definition survives a failure later in the same bind; callers that
// need all-or-nothing semantics checkpoint the store first (see
// props.Store.Checkpoint).
type Property struct {
	Name      string `build:"name,required"`
	Value     string `build:"value"`
	ReadOnly  bool   `build:"readonly"`
	Overwrite bool   `build:"overwrite"`
}

var errNoPropertyStore = errors.New("properties cannot be defined without a property store")

// Initialize stores the property. An existing value is kept unless Overwrite
// is set, and read-only values are never replaced.
func (p *Property) Initialize(ctx context.Context, env *binder.Env) error {
	if env == nil || env.Expander == nil {
		return errNoPropertyStore
	}
	store := env.Expander.Properties()
	logger := ctxlog.FromContext(ctx)

	if store.IsReadOnly(p.Name) {
		logger.Debug("Keeping read-only property.", "name", p.Name)
		return nil
	}
	if store.Has(p.Name) && !p.Overwrite {
		logger.Debug("Keeping existing property.", "name", p.Name)
		return nil
	}
	if p.ReadOnly {
		return store.SetReadOnly(p.Name, p.Value)
	}
	return store.Set(p.Name, p.Value)
}
