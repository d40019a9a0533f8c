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

package tools

import (
	"fmt"
	"strings"

	"github.com/Comcast/binder/compiler"
	"github.com/Comcast/binder/core"
	"github.com/Comcast/binder/expr"
	"github.com/Comcast/binder/sheet"

	"github.com/dop251/goja/parser"
)

// SheetAnalysis reports what a sheet's bindings depend on and what
// looks wrong with them.
//
// Paths are written "context:path".
type SheetAnalysis struct {
	sheet *sheet.Sheet

	Errors   []string `json:"errors,omitempty"`
	Contexts int      `json:"contexts"`
	Bindings int      `json:"bindings"`
	Literals int      `json:"literals"`
	HTML     int      `json:"html"`

	Providers         []string `json:"providers"`
	Paths             []string `json:"paths,omitempty"`
	UnknownPaths      []string `json:"unknownPaths,omitempty"`
	Unused            []string `json:"unused,omitempty"`
	DuplicateElements []string `json:"duplicateElements,omitempty"`
}

// Analyze sanitizes every binding expression and parses the generated
// code without running anything.
//
// An expression that doesn't parse is reported in Errors.  A
// dependency path whose first segment isn't in the context's data (or
// the globals, for "$globals." paths) is unknown.  Top-level data that
// no binding depends on is unused.
func Analyze(s *sheet.Sheet) (*SheetAnalysis, error) {
	a := SheetAnalysis{
		sheet:    s,
		Contexts: len(s.Contexts),
		Errors:   make([]string, 0, 8),
	}

	contextName := s.ContextName
	if contextName == "" {
		contextName = expr.DefaultContextName
	}

	providers, paths, unknown := make(map[string]bool), make(map[string]bool), make(map[string]bool)
	elements, duplicates, used := make(map[string]bool), make(map[string]bool), make(map[string]bool)

	for _, c := range s.Contexts {
		for _, b := range c.Bindings {
			a.Bindings++
			providers[b.ProviderKey()] = true

			if elements[b.Element] {
				duplicates[b.Element] = true
			}
			elements[b.Element] = true

			r := expr.Sanitize(b.Expression, contextName)
			if r.IsLiteral {
				a.Literals++
			}
			if r.IsHTML {
				a.HTML++
			}

			src := compiler.Source(contextName, nil, r)
			if _, err := parser.ParseFile(nil, b.Element, src, 0); err != nil {
				a.Errors = append(a.Errors, fmt.Sprintf("%s %s: %v", c.Name, b.Element, err))
				continue
			}

			for _, p := range r.Properties {
				data, name, local := c.Data, c.Name, p
				if strings.HasPrefix(p, core.GlobalsPrefix) {
					data, name, local = s.Globals, core.GlobalsName, p[len(core.GlobalsPrefix):]
				}
				first := strings.SplitN(local, ".", 2)[0]
				key := name + ":" + local
				paths[key] = true
				used[name+":"+first] = true
				if _, have := data[first]; !have {
					unknown[key] = true
				}
			}
		}
	}

	unused := make(map[string]bool)
	for _, c := range s.Contexts {
		for k := range c.Data {
			if !used[c.Name+":"+k] {
				unused[c.Name+":"+k] = true
			}
		}
	}
	for k := range s.Globals {
		if !used[core.GlobalsName+":"+k] {
			unused[core.GlobalsName+":"+k] = true
		}
	}

	a.Providers = keysToStringSlice(providers, "text")
	a.Paths = keysToStringSlice(paths)
	a.UnknownPaths = keysToStringSlice(unknown)
	a.Unused = keysToStringSlice(unused)
	a.DuplicateElements = keysToStringSlice(duplicates)

	return &a, nil
}
