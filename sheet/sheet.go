// Package sheet loads binding sheets.
//
// A sheet is a YAML (or JSON) description of binding contexts, their
// initial data, and the elements bound to expressions over that
// data.  Sheets drive bindtool and make handy test fixtures.
package sheet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Comcast/binder/compiler"
	"github.com/Comcast/binder/core"
	"github.com/Comcast/binder/providers"
	"github.com/Comcast/binder/providers/text"

	"github.com/jsccast/yaml"
)

// Sheet describes binding contexts and their bindings.
type Sheet struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Doc is Markdown.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// ContextName is the name of the binding context in generated
	// code.  Empty means expr.DefaultContextName.
	ContextName string `json:"contextName,omitempty" yaml:"contextName,omitempty"`

	Globals  map[string]interface{} `json:"globals,omitempty" yaml:"globals,omitempty"`
	Contexts []*Context             `json:"contexts,omitempty" yaml:"contexts,omitempty"`
}

// Context is one binding context.
type Context struct {
	Name     string                 `json:"name" yaml:"name"`
	Doc      string                 `json:"doc,omitempty" yaml:"doc,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty" yaml:"data,omitempty"`
	Bindings []*Binding             `json:"bindings,omitempty" yaml:"bindings,omitempty"`
}

// Binding binds an element to an expression.
type Binding struct {
	Element string `json:"element" yaml:"element"`

	// Provider is the provider key.  Empty means "text".
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`

	Expression string `json:"expression" yaml:"expression"`
}

// ProviderKey returns the binding's provider key.
func (b *Binding) ProviderKey() string {
	if b.Provider == "" {
		return text.Key
	}
	return b.Provider
}

// Parse parses a sheet.  Input that starts with '{' is JSON.
func Parse(bs []byte) (*Sheet, error) {
	var s Sheet
	var err error
	if 0 < len(bs) && bs[0] == '{' {
		err = json.Unmarshal(bs, &s)
	} else {
		err = yaml.Unmarshal(bs, &s)
	}
	if err != nil {
		return nil, err
	}
	if err = s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Read reads and parses a sheet file after Inlining.
func Read(filename string) (*Sheet, error) {
	bs, err := ReadFileWithInlines(filename)
	if err != nil {
		return nil, err
	}
	s, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// Validate checks that context names are present and distinct and
// that every binding has an element and an expression.
func (s *Sheet) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for i, c := range s.Contexts {
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("context %d has no name", i))
			continue
		}
		if seen[c.Name] {
			errs = append(errs, fmt.Errorf("context %s is defined more than once", c.Name))
		}
		seen[c.Name] = true
		for j, b := range c.Bindings {
			if b.Element == "" {
				errs = append(errs, fmt.Errorf("context %s binding %d has no element", c.Name, j))
			}
			if b.Expression == "" {
				errs = append(errs, fmt.Errorf("context %s binding %d has no expression", c.Name, j))
			}
		}
	}
	return errors.Join(errs...)
}

// Options returns the compiler options for the sheet's expressions.
func (s *Sheet) Options() *compiler.Options {
	return &compiler.Options{
		ContextName: s.ContextName,
	}
}

// Binder is a provider that can bind an expression to a new handle.
//
// text.Provider is a Binder.
type Binder interface {
	Bind(ctx context.Context, id int, expression string, opts *compiler.Options) (string, error)
}

// NotBinder occurs when a binding names a provider that can't bind.
type NotBinder struct {
	Provider string
}

func (e *NotBinder) Error() string {
	return "provider " + e.Provider + " can't bind expressions"
}

// Loaded records what Load did.
type Loaded struct {
	// IDs maps context names to binding context ids.
	IDs map[string]int

	// Handles maps element names to handles.
	Handles map[string]string

	// Elements maps handles to element names.
	Elements map[string]string
}

// Load puts the sheet into the Store: globals first, then each
// context with its data and bindings.  Providers are found in the
// Map.
func (s *Sheet) Load(ctx context.Context, st *core.Store, m *providers.Map) (*Loaded, error) {
	l := &Loaded{
		IDs:      make(map[string]int),
		Handles:  make(map[string]string),
		Elements: make(map[string]string),
	}

	for k, v := range s.Globals {
		if err := st.SetProperty(ctx, core.GlobalsID, k, v); err != nil {
			return nil, err
		}
	}

	for _, c := range s.Contexts {
		data := make(map[string]interface{}, len(c.Data))
		id := st.AddObject(c.Name, data)
		l.IDs[c.Name] = id

		// SetProperty wraps slices in Arrays.
		for k, v := range c.Data {
			if err := st.SetProperty(ctx, id, k, v); err != nil {
				return nil, err
			}
		}

		for _, b := range c.Bindings {
			p, err := m.Find(ctx, b.ProviderKey())
			if err != nil {
				return nil, err
			}
			binder, is := p.(Binder)
			if !is {
				return nil, &NotBinder{Provider: b.ProviderKey()}
			}
			h, err := binder.Bind(ctx, id, b.Expression, s.Options())
			if err != nil {
				return nil, fmt.Errorf("binding %s: %w", b.Element, err)
			}
			l.Handles[b.Element] = h
			l.Elements[h] = b.Element
		}
	}

	return l, nil
}
