/* Copyright 2018 Comcast Cable Communications Management, LLC
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

// Package testutil has helpers for tests of stores and providers.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/Comcast/binder/core"
)

// JS renders its argument as JSON or as a string indicating an error.
func JS(x interface{}) string {
	bs, err := json.Marshal(&x)
	if err != nil {
		log.Printf("warning: testutil.JS error %s for %#v", err, x)
		return fmt.Sprintf("%#v", x)
	}
	return string(bs)
}

// Dwimjs, when given a string or bytes, parses that data as JSON.
// When given anything else, just returns what's given.
//
// See https://en.wikipedia.org/wiki/DWIM.
func Dwimjs(x interface{}) interface{} {
	switch vv := x.(type) {
	case []byte:
		return Dwimjs(string(vv))
	case string:
		var v interface{}
		if err := json.Unmarshal([]byte(vv), &v); err != nil {
			panic(err)
		}
		return v
	default:
		return x
	}
}

// Call is one call received by a Recorder.
type Call struct {
	Op     string      `json:"op"`
	Handle string      `json:"handle"`
	Paths  []string    `json:"paths,omitempty"`
	Delta  *core.Delta `json:"delta,omitempty"`
}

// Recorder is a provider that remembers every call.
//
// Set Err to make Update and UpdateCollection fail.
type Recorder struct {
	Calls []Call
	Err   error
}

func (r *Recorder) Update(ctx context.Context, handle string, paths ...string) error {
	r.Calls = append(r.Calls, Call{Op: "update", Handle: handle, Paths: paths})
	return r.Err
}

func (r *Recorder) UpdateCollection(ctx context.Context, handle, path string, delta *core.Delta) error {
	r.Calls = append(r.Calls, Call{Op: "collection", Handle: handle, Paths: []string{path}, Delta: delta})
	return r.Err
}

func (r *Recorder) Clear(handle string) {
	r.Calls = append(r.Calls, Call{Op: "clear", Handle: handle})
}

// Reset forgets all calls.
func (r *Recorder) Reset() {
	r.Calls = nil
}

// Updater is a provider without the optional capabilities.
type Updater struct {
	Calls []Call
}

func (u *Updater) Update(ctx context.Context, handle string, paths ...string) error {
	u.Calls = append(u.Calls, Call{Op: "update", Handle: handle, Paths: paths})
	return nil
}
