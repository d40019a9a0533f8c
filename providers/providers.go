/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package providers holds the registry of element providers.
//
// A provider binds element handles to expressions and re-renders them
// when the Store says that a property they depend on changed.  The
// Store talks to providers only through a Map, which implements
// core.Dispatcher.
package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/Comcast/binder/compiler"
	"github.com/Comcast/binder/core"
	"github.com/Comcast/binder/providers/noop"
	"github.com/Comcast/binder/providers/text"

	"go.uber.org/zap"
)

// Provider is told about changes to the paths an element handle is
// bound to.
type Provider interface {
	Update(ctx context.Context, handle string, paths ...string) error
}

// Clearer is a Provider that wants to know when a handle goes away.
type Clearer interface {
	Clear(handle string)
}

// CollectionUpdater is a Provider that can apply Array deltas.
//
// A Provider without this capability gets a regular Update with the
// Array's path.
type CollectionUpdater interface {
	UpdateCollection(ctx context.Context, handle, path string, delta *core.Delta) error
}

// Loader makes the Provider for a key the first time it's needed.  A
// Loader returns ProviderNotFound if it doesn't know the key.
type Loader func(ctx context.Context, key string) (Provider, error)

// ProviderNotFound is returned by a Loader that doesn't know a key.
var ProviderNotFound = errors.New("provider not found")

// UnknownProvider occurs when a Map has no provider for a key.
type UnknownProvider struct {
	Key string
}

func (e *UnknownProvider) Error() string {
	return "unknown provider: " + e.Key
}

// Map is a registry of Providers by key.
//
// Like the Store, a Map is not safe for concurrent use.
type Map struct {
	// Loader, if not nil, is asked for providers that haven't been
	// added.
	Loader Loader

	providers map[string]Provider
	logger    *zap.Logger
}

// Option configures a Map.
type Option func(*Map)

// WithLogger sets the Map's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Map) {
		m.logger = logger
	}
}

// WithLoader sets the Map's Loader.
func WithLoader(l Loader) Option {
	return func(m *Map) {
		m.Loader = l
	}
}

// NewMap makes an empty Map.
func NewMap(opts ...Option) *Map {
	m := &Map{
		providers: make(map[string]Provider),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add registers a provider, replacing any previous one with that key.
func (m *Map) Add(key string, p Provider) {
	m.providers[key] = p
}

// Keys returns the keys of the providers that have been added or
// loaded so far.
func (m *Map) Keys() []string {
	acc := make([]string, 0, len(m.providers))
	for k := range m.providers {
		acc = append(acc, k)
	}
	return acc
}

// Find returns the provider for the key, loading it if necessary.
func (m *Map) Find(ctx context.Context, key string) (Provider, error) {
	if p, have := m.providers[key]; have {
		return p, nil
	}
	if m.Loader == nil {
		return nil, &UnknownProvider{Key: key}
	}

	p, err := m.Loader(ctx, key)
	if errors.Is(err, ProviderNotFound) {
		return nil, &UnknownProvider{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("loading provider %s: %w", key, err)
	}
	if p == nil {
		return nil, &UnknownProvider{Key: key}
	}

	m.logger.Debug("provider loaded", zap.String("provider", key))
	m.providers[key] = p

	return p, nil
}

// Update implements core.Dispatcher.
func (m *Map) Update(ctx context.Context, key, handle string, paths ...string) error {
	p, err := m.Find(ctx, key)
	if err != nil {
		return err
	}
	return p.Update(ctx, handle, paths...)
}

// UpdateCollection implements core.Dispatcher.
func (m *Map) UpdateCollection(ctx context.Context, key, handle, path string, delta *core.Delta) error {
	p, err := m.Find(ctx, key)
	if err != nil {
		return err
	}
	if cu, is := p.(CollectionUpdater); is {
		return cu.UpdateCollection(ctx, handle, path, delta)
	}
	return p.Update(ctx, handle, path)
}

// Clear implements core.Dispatcher.  Providers that were never loaded
// have nothing to clear.
func (m *Map) Clear(key, handle string) {
	p, have := m.providers[key]
	if !have {
		return
	}
	if c, is := p.(Clearer); is {
		c.Clear(handle)
	}
}

// Standard returns a Loader for the standard providers: "noop" and
// "text".  The text provider renders into the sink and evaluates
// against the Store with the Compiler.
func Standard(s *core.Store, c *compiler.Compiler, sink text.Sink, logger *zap.Logger) Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, key string) (Provider, error) {
		switch key {
		case noop.Key:
			return noop.New(logger), nil
		case text.Key:
			return text.New(s, c, sink, text.WithLogger(logger)), nil
		}
		return nil, ProviderNotFound
	}
}
