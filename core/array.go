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

package core

import (
	"context"
	"encoding/json"
	"errors"
)

// DeltaOp is the kind of an Array mutation.
type DeltaOp string

const (
	Push    DeltaOp = "push"
	Pop     DeltaOp = "pop"
	Shift   DeltaOp = "shift"
	Unshift DeltaOp = "unshift"
	Splice  DeltaOp = "splice"
)

// Delta describes one Array mutation: at Index, Removed items were
// taken out and Inserted items were put in.
type Delta struct {
	Op       DeltaOp       `json:"op"`
	Index    int           `json:"index"`
	Removed  []interface{} `json:"removed,omitempty"`
	Inserted []interface{} `json:"inserted,omitempty"`
}

// Array is a slice stored by SetProperty.  Mutations through its
// methods notify the subscribers of the property it was stored at
// with a Delta.
//
// An Array that has been detached (by Remove or by NewArray) just
// mutates.
type Array struct {
	store *Store
	id    int
	path  string
	items []interface{}
}

// NewArray makes an Array that isn't stored anywhere yet.
func NewArray(items ...interface{}) *Array {
	return &Array{items: items}
}

func newArray(s *Store, id int, path string, items []interface{}) *Array {
	a := &Array{items: items}
	a.attach(s, id, path)
	return a
}

func (a *Array) attach(s *Store, id int, path string) {
	a.store = s
	a.id = id
	a.path = path
}

func (a *Array) detach() {
	a.store = nil
	a.items = nil
}

// ID returns the id of the binding context the Array is stored in.
func (a *Array) ID() int {
	return a.id
}

// Path returns the property path the Array is stored at.
func (a *Array) Path() string {
	return a.path
}

// Len returns the number of items.
func (a *Array) Len() int {
	return len(a.items)
}

// At returns the item at i (or nil if out of range).
func (a *Array) At(i int) interface{} {
	if i < 0 || len(a.items) <= i {
		return nil
	}
	return a.items[i]
}

// SetAt replaces the item at i without notifying anyone.
func (a *Array) SetAt(i int, v interface{}) bool {
	if i < 0 || len(a.items) <= i {
		return false
	}
	a.items[i] = v
	return true
}

// Items returns a copy of the items.
func (a *Array) Items() []interface{} {
	acc := make([]interface{}, len(a.items))
	copy(acc, a.items)
	return acc
}

func (a *Array) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.items)
}

// Push appends items and returns the new length.
func (a *Array) Push(ctx context.Context, items ...interface{}) (int, error) {
	at := len(a.items)
	a.items = append(a.items, items...)
	err := a.emit(ctx, &Delta{
		Op:       Push,
		Index:    at,
		Inserted: items,
	})
	return len(a.items), err
}

// Pop removes and returns the last item.  Popping an empty Array
// returns nil and notifies nobody.
func (a *Array) Pop(ctx context.Context) (interface{}, error) {
	if len(a.items) == 0 {
		return nil, nil
	}
	at := len(a.items) - 1
	x := a.items[at]
	a.items = a.items[:at]
	return x, a.emit(ctx, &Delta{
		Op:      Pop,
		Index:   at,
		Removed: []interface{}{x},
	})
}

// Shift removes and returns the first item.
func (a *Array) Shift(ctx context.Context) (interface{}, error) {
	if len(a.items) == 0 {
		return nil, nil
	}
	x := a.items[0]
	a.items = append([]interface{}(nil), a.items[1:]...)
	return x, a.emit(ctx, &Delta{
		Op:      Shift,
		Index:   0,
		Removed: []interface{}{x},
	})
}

// Unshift puts items at the front and returns the new length.
func (a *Array) Unshift(ctx context.Context, items ...interface{}) (int, error) {
	acc := make([]interface{}, 0, len(items)+len(a.items))
	acc = append(acc, items...)
	a.items = append(acc, a.items...)
	err := a.emit(ctx, &Delta{
		Op:       Unshift,
		Index:    0,
		Inserted: items,
	})
	return len(a.items), err
}

// Splice removes deleteCount items at start, inserts the given
// items there, and returns the removed items.
//
// As with ECMAScript's splice, a negative start counts from the end,
// and both start and deleteCount are clamped to the Array.
func (a *Array) Splice(ctx context.Context, start, deleteCount int, items ...interface{}) ([]interface{}, error) {
	n := len(a.items)
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if n < start {
		start = n
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if n-start < deleteCount {
		deleteCount = n - start
	}

	removed := make([]interface{}, deleteCount)
	copy(removed, a.items[start:start+deleteCount])

	acc := make([]interface{}, 0, n-deleteCount+len(items))
	acc = append(acc, a.items[:start]...)
	acc = append(acc, items...)
	acc = append(acc, a.items[start+deleteCount:]...)
	a.items = acc

	return removed, a.emit(ctx, &Delta{
		Op:       Splice,
		Index:    start,
		Removed:  removed,
		Inserted: items,
	})
}

// emit sends the Delta to every subscriber of the Array's property.
func (a *Array) emit(ctx context.Context, delta *Delta) error {
	if a.store == nil {
		return nil
	}
	return a.store.emit(ctx, a.id, a.path, delta)
}

func (s *Store) emit(ctx context.Context, id int, path string, delta *Delta) error {
	d := s.deps[id]
	if d == nil {
		return nil
	}
	ss, have := d.subs[path]
	if !have {
		return nil
	}

	var errs []error
	for _, sub := range ss.items() {
		if !sub.IsHandle() {
			var err error
			switch {
			case sub.Callback.Collection != nil:
				err = sub.Callback.Collection(ctx, path, delta)
			case sub.Callback.Func != nil:
				err = sub.Callback.Func(ctx, path)
			}
			if err != nil {
				errs = append(errs, err)
			}
			continue
		}

		keys, have := s.elements[sub.Handle]
		if !have || s.dispatcher == nil {
			continue
		}
		for _, key := range keys.items() {
			if err := s.dispatcher.UpdateCollection(ctx, key, sub.Handle, path, delta); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
