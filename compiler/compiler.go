// Package compiler turns binding expressions into callable functions.
//
// Compilation uses expr.Sanitize to generate ECMAScript and Goja
// (https://github.com/dop251/goja) to compile and run it.  Compiled
// expressions are cached by context name and expression text and
// reference-counted: Compile the same thing twice and you get the
// same *Expression back with a Count of 2.  Release it twice and it's
// gone.
//
// A Compiler is not safe for concurrent use.  Like the core.Store
// that usually feeds it, a Compiler belongs to one logical thread of
// execution.
package compiler

import (
	"context"
	"strings"

	"github.com/Comcast/binder/expr"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Func is an executable compiled expression.
//
// The first argument is the binding context's data (the value of
// the variable named by the context name).  Additional arguments
// line up with the parameter names given to Compile.
type Func func(ctx context.Context, args ...interface{}) (interface{}, error)

// Expression is a cached compiled expression.
type Expression struct {
	// Key is the cache key: context name + ":" + expression.
	Key string

	// Func executes the expression.  Nil after the last Release.
	Func Func

	// Parameters is the result of sanitizing the expression.
	Parameters *expr.Result

	// Count is the number of outstanding Compiles.
	Count int

	// Source is the generated function source.
	Source string
}

// Call invokes the expression's Func.
func (e *Expression) Call(ctx context.Context, args ...interface{}) (interface{}, error) {
	if e == nil || e.Func == nil {
		return nil, Released
	}
	return e.Func(ctx, args...)
}

// Options influence how Compile treats an expression.
type Options struct {
	// ContextName is the name of the binding context variable.
	// Defaults to expr.DefaultContextName.
	ContextName string

	// Sanitize, if not nil and false, prevents sanitizing.  The
	// expression is then used verbatim and has no dependency
	// paths.
	Sanitize *bool
}

// DataSource provides the data behind "$globals" and "$data".
//
// core.Store implements this interface.
type DataSource interface {
	Globals() map[string]interface{}
	GetProperty(id int, path string) interface{}
}

// Translator looks up translations for "&{key}" markers.
type Translator interface {
	Translate(ctx context.Context, key string) (string, error)
}

// Compiler compiles and caches expressions.
type Compiler struct {
	rt         *goja.Runtime
	cache      map[string]*Expression
	logger     *zap.Logger
	data       DataSource
	translator Translator

	// depth is the number of evaluations in progress.
	depth int
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the Compiler's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithData sets the DataSource for "$globals" and "$data".
func WithData(data DataSource) Option {
	return func(c *Compiler) {
		c.data = data
	}
}

// WithTranslator sets the Translator for "&{key}" markers.
func WithTranslator(t Translator) Option {
	return func(c *Compiler) {
		c.translator = t
	}
}

// New makes a Compiler with an empty cache and a fresh Goja runtime.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		rt:     goja.New(),
		cache:  make(map[string]*Expression),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key computes the cache key for an expression.
func Key(contextName, expression string) string {
	if contextName == "" {
		contextName = expr.DefaultContextName
	}
	return contextName + ":" + expression
}

// Compile returns the cached Expression for the given expression or
// compiles a new one.
//
// The parameters are additional parameter names for the generated
// function (for example "event" for expressions that use "$event").
// They are not part of the cache key.
//
// A malformed expression results in a *SyntaxError.  Nothing is
// cached in that case.
func (c *Compiler) Compile(ctx context.Context, expression string, parameters []string, opts *Options) (*Expression, error) {
	contextName := expr.DefaultContextName
	if opts != nil && opts.ContextName != "" {
		contextName = opts.ContextName
	}

	key := Key(contextName, expression)
	if e, have := c.cache[key]; have {
		e.Count++
		c.logger.Debug("compiled expression reused",
			zap.String("key", key),
			zap.Int("count", e.Count))
		return e, nil
	}

	var r *expr.Result
	if opts == nil || opts.Sanitize == nil || *opts.Sanitize {
		r = expr.Sanitize(expression, contextName)
	} else {
		r = &expr.Result{
			IsLiteral:  strings.Contains(expression, "${"),
			Expression: expression,
		}
	}

	src := Source(contextName, parameters, r)

	p, err := goja.Compile(key, src, true)
	if err != nil {
		return nil, &SyntaxError{
			Expression: expression,
			Source:     src,
			Err:        err,
		}
	}

	v, err := c.rt.RunProgram(p)
	if err != nil {
		return nil, &SyntaxError{
			Expression: expression,
			Source:     src,
			Err:        err,
		}
	}
	fn, is := goja.AssertFunction(v)
	if !is {
		// Shouldn't happen given the source we generate.
		return nil, &SyntaxError{
			Expression: expression,
			Source:     src,
			Err:        NotAFunction,
		}
	}

	e := &Expression{
		Key:        key,
		Parameters: r,
		Count:      1,
		Source:     src,
	}
	e.Func = func(ctx context.Context, args ...interface{}) (interface{}, error) {
		return c.call(ctx, key, fn, args)
	}
	c.cache[key] = e

	c.logger.Debug("compiled expression",
		zap.String("key", key),
		zap.Strings("properties", r.Properties))

	return e, nil
}

// Source generates the source of the function for a sanitized
// expression.
func Source(contextName string, parameters []string, r *expr.Result) string {
	var body string
	if r.IsLiteral {
		body = "return `" + r.Expression + "`;"
	} else {
		body = "return " + r.Expression + ";"
	}
	params := make([]string, 0, len(parameters)+1)
	params = append(params, contextName)
	params = append(params, parameters...)
	return "(function(" + strings.Join(params, ", ") + ") {\n" + body + "\n})"
}

// Release gives back an Expression obtained from Compile.
//
// When the last reference is released, the Expression is removed from
// the cache and its Func and Parameters are cleared.  Releasing nil,
// or an Expression that is no longer cached, does nothing.
func (c *Compiler) Release(e *Expression) {
	if e == nil {
		return
	}
	cached, have := c.cache[e.Key]
	if !have || cached != e {
		return
	}
	if e.Count--; 0 < e.Count {
		return
	}
	e.Count = 0
	e.Func = nil
	e.Parameters = nil
	delete(c.cache, e.Key)

	c.logger.Debug("compiled expression evicted", zap.String("key", e.Key))
}

// Get returns the cached Expression (if any) for the key.
func (c *Compiler) Get(key string) (*Expression, bool) {
	e, have := c.cache[key]
	return e, have
}

// Len returns the number of cached expressions.
func (c *Compiler) Len() int {
	return len(c.cache)
}
