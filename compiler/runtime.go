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

package compiler

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"github.com/gorhill/cronexpr"
	"go.uber.org/zap"
)

// Sequence is implemented by values that should look like arrays to
// expressions.  core.Array is one.
type Sequence interface {
	Len() int
	At(i int) interface{}
	SetAt(i int, v interface{}) bool
}

// call evaluates a compiled function.
//
// The runtime is interrupted if the context is done before the
// function returns.
func (c *Compiler) call(ctx context.Context, key string, fn goja.Callable, args []interface{}) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return nil, Interrupted
	}

	vals := make([]goja.Value, len(args))
	for i, x := range args {
		vals[i] = c.toValue(x)
	}

	// The helpers are per call because translate needs this
	// call's context.
	previous := c.rt.Get("crs")
	c.rt.Set("crs", c.helpers(ctx))
	defer func() {
		if previous == nil {
			c.rt.Set("crs", goja.Undefined())
		} else {
			c.rt.Set("crs", previous)
		}
	}()

	if c.depth == 0 && ctx.Done() != nil {
		// We want to make sure that the following goroutine
		// is terminated before we return.
		ictx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			<-ictx.Done()
			if ctx.Err() != nil {
				c.rt.Interrupt(InterruptedMessage)
			}
		}()
		defer func() {
			cancel()
			<-done
			// An interrupt that arrived after the function
			// returned must not poison the next call.
			c.rt.ClearInterrupt()
		}()
	}

	c.depth++
	v, err := fn(goja.Undefined(), vals...)
	c.depth--

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return nil, Interrupted
		}
		return nil, fmt.Errorf("evaluating %s: %w", key, err)
	}

	return c.export(v), nil
}

// toValue converts a Go value for use in an expression.
//
// Maps and Sequences are presented live: an expression sees the
// current contents, not a copy.
func (c *Compiler) toValue(x interface{}) goja.Value {
	switch vv := x.(type) {
	case nil:
		return goja.Null()
	case goja.Value:
		return vv
	case map[string]interface{}:
		return c.rt.NewDynamicObject(&mapObject{c: c, m: vv})
	case []interface{}:
		return c.rt.NewDynamicArray(&sliceArray{c: c, s: vv})
	case Sequence:
		return c.rt.NewDynamicArray(&sequence{c: c, seq: vv})
	default:
		return c.rt.ToValue(x)
	}
}

// export converts a value from an expression back to Go.
func (c *Compiler) export(v goja.Value) interface{} {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	switch vv := v.Export().(type) {
	case *mapObject:
		return vv.m
	case *sliceArray:
		return vv.s
	case *sequence:
		return vv.seq
	default:
		return vv
	}
}

// mapObject presents a map as a goja.DynamicObject.
type mapObject struct {
	c *Compiler
	m map[string]interface{}
}

func (o *mapObject) Get(key string) goja.Value {
	x, have := o.m[key]
	if !have {
		return nil
	}
	return o.c.toValue(x)
}

func (o *mapObject) Set(key string, val goja.Value) bool {
	o.m[key] = o.c.export(val)
	return true
}

func (o *mapObject) Has(key string) bool {
	_, have := o.m[key]
	return have
}

func (o *mapObject) Delete(key string) bool {
	delete(o.m, key)
	return true
}

func (o *mapObject) Keys() []string {
	keys := make([]string, 0, len(o.m))
	for k := range o.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sliceArray presents a slice as a goja.DynamicArray.
type sliceArray struct {
	c *Compiler
	s []interface{}
}

func (a *sliceArray) Len() int {
	return len(a.s)
}

func (a *sliceArray) Get(i int) goja.Value {
	if i < 0 || len(a.s) <= i {
		return nil
	}
	return a.c.toValue(a.s[i])
}

func (a *sliceArray) Set(i int, val goja.Value) bool {
	if i < 0 || len(a.s) <= i {
		return false
	}
	a.s[i] = a.c.export(val)
	return true
}

func (a *sliceArray) SetLen(int) bool {
	return false
}

// sequence presents a Sequence as a goja.DynamicArray.
type sequence struct {
	c   *Compiler
	seq Sequence
}

func (a *sequence) Len() int {
	return a.seq.Len()
}

func (a *sequence) Get(i int) goja.Value {
	if i < 0 || a.seq.Len() <= i {
		return nil
	}
	return a.c.toValue(a.seq.At(i))
}

func (a *sequence) Set(i int, val goja.Value) bool {
	return a.seq.SetAt(i, a.c.export(val))
}

func (a *sequence) SetLen(int) bool {
	return false
}

func (c *Compiler) protest(x interface{}) {
	panic(c.rt.ToValue(x))
}

// helpers makes the "crs" object that generated code uses.
//
//    globals: the globals binding context's data ("$globals").
//    getValue(id, path): a property from any binding context ("$data").
//    translate(key): a translation ("&{key}").
//
// Some useful utilities:
//
//    esc(s): URL query-escape the given string.
//    gensym(): a new UUID string.
//    cronNext(s): the next time (RFC3339Nano) for a crontab expression.
//    log(x): log the value at info level.
func (c *Compiler) helpers(ctx context.Context) *goja.Object {
	o := c.rt.NewObject()

	var globals interface{} = map[string]interface{}{}
	if c.data != nil {
		if g := c.data.Globals(); g != nil {
			globals = g
		}
	}
	o.Set("globals", c.toValue(globals))

	o.Set("getValue", func(call goja.FunctionCall) goja.Value {
		if c.data == nil {
			return goja.Undefined()
		}
		id := int(call.Argument(0).ToInteger())
		path := call.Argument(1).String()
		return c.toValue(c.data.GetProperty(id, path))
	})

	o.Set("translate", func(call goja.FunctionCall) goja.Value {
		key := call.Argument(0).String()
		if c.translator == nil {
			return c.rt.ToValue(key)
		}
		s, err := c.translator.Translate(ctx, key)
		if err != nil {
			c.protest(err.Error())
		}
		return c.rt.ToValue(s)
	})

	o.Set("esc", func(call goja.FunctionCall) goja.Value {
		return c.rt.ToValue(url.QueryEscape(call.Argument(0).String()))
	})

	o.Set("gensym", func(call goja.FunctionCall) goja.Value {
		return c.rt.ToValue(uuid.NewString())
	})

	o.Set("cronNext", func(call goja.FunctionCall) goja.Value {
		x, err := cronexpr.Parse(call.Argument(0).String())
		if err != nil {
			c.protest(err.Error())
		}
		return c.rt.ToValue(x.Next(time.Now()).UTC().Format(time.RFC3339Nano))
	})

	o.Set("log", func(call goja.FunctionCall) goja.Value {
		x := c.export(call.Argument(0))
		c.logger.Info("expression log", zap.Any("value", x))
		return call.Argument(0)
	})

	return o
}
