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

package sheet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var inlineRx = regexp.MustCompile(`%inline *\("([^"]*)"\)`)

// Inline replaces each '%inline("NAME")' with the text f(NAME) as a
// quoted string, which is a valid scalar in both JSON and YAML.  A
// trailing newline in the text is dropped.
//
// Long expressions can then live in their own files.
func Inline(bs []byte, f func(string) ([]byte, error)) ([]byte, error) {
	var err error
	acc := inlineRx.ReplaceAllFunc(bs, func(m []byte) []byte {
		if err != nil {
			return nil
		}
		name := string(inlineRx.FindSubmatch(m)[1])
		var text []byte
		if text, err = f(name); err != nil {
			return nil
		}
		var js []byte
		js, err = json.Marshal(strings.TrimSuffix(string(text), "\n"))
		return js
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// ReadFileWithInlines reads a file and Inlines names relative to the
// file's directory.
func ReadFileWithInlines(filename string) ([]byte, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(filename)
	return Inline(bs, func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, name))
	})
}
