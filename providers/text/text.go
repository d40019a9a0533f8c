// Package text has a provider that renders an expression's value as
// text for each bound element.
package text

import (
	"context"
	"fmt"

	"github.com/Comcast/binder/compiler"
	"github.com/Comcast/binder/core"

	"go.uber.org/zap"
)

// Key is the provider key for Provider.
const Key = "text"

// Sink receives rendered text.  Sinks stand in for the elements.
type Sink func(ctx context.Context, handle, text string) error

// Provider renders expressions for element handles.
type Provider struct {
	store    *core.Store
	compiler *compiler.Compiler
	sink     Sink
	logger   *zap.Logger

	bindings map[string]*binding
}

type binding struct {
	id   int
	e    *compiler.Expression
	text string
}

// Option configures a Provider.
type Option func(*Provider)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// New makes a Provider.  The sink can be nil.
func New(s *core.Store, c *compiler.Compiler, sink Sink, opts ...Option) *Provider {
	p := &Provider{
		store:    s,
		compiler: c,
		sink:     sink,
		logger:   zap.NewNop(),
		bindings: make(map[string]*binding),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Bind compiles the expression, subscribes a new handle to the
// expression's dependencies in the binding context, and renders it
// once.
//
// The returned handle identifies the binding in later calls.
func (p *Provider) Bind(ctx context.Context, id int, expression string, opts *compiler.Options) (string, error) {
	e, err := p.compiler.Compile(ctx, expression, nil, opts)
	if err != nil {
		return "", err
	}
	handle := core.NewHandle()
	p.bindings[handle] = &binding{
		id: id,
		e:  e,
	}
	p.store.SetCallback(handle, id, e.Parameters.Properties, Key)

	p.logger.Debug("bound",
		zap.String("handle", handle),
		zap.Int("id", id),
		zap.String("expression", expression),
		zap.Strings("paths", e.Parameters.Properties))

	return handle, p.render(ctx, handle)
}

// Update renders the handle's expression again.
func (p *Provider) Update(ctx context.Context, handle string, paths ...string) error {
	return p.render(ctx, handle)
}

// Clear releases the handle's expression.
func (p *Provider) Clear(handle string) {
	b, have := p.bindings[handle]
	if !have {
		return
	}
	p.compiler.Release(b.e)
	delete(p.bindings, handle)
}

// Text returns what was last rendered for the handle.
func (p *Provider) Text(handle string) (string, bool) {
	b, have := p.bindings[handle]
	if !have {
		return "", false
	}
	return b.text, true
}

// Handles returns the number of bound handles.
func (p *Provider) Handles() int {
	return len(p.bindings)
}

func (p *Provider) render(ctx context.Context, handle string) error {
	b, have := p.bindings[handle]
	if !have {
		return nil
	}
	c := p.store.Container(b.id)
	if c == nil {
		return nil
	}
	x, err := b.e.Call(ctx, c.Data)
	if err != nil {
		return err
	}
	b.text = Render(x)
	if p.sink == nil {
		return nil
	}
	return p.sink(ctx, handle, b.text)
}

// Render formats a value as element text.  Nil is empty.
func Render(x interface{}) string {
	switch vv := x.(type) {
	case nil:
		return ""
	case string:
		return vv
	case float64:
		if vv == float64(int64(vv)) {
			return fmt.Sprintf("%d", int64(vv))
		}
	}
	return fmt.Sprint(x)
}
