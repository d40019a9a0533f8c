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

package core

import (
	"encoding/json"
)

// Canonicalize round-trips x through JSON.  Arrays come back as
// []interface{} and numbers as float64.
func Canonicalize(x interface{}) (interface{}, error) {
	js, err := json.Marshal(&x)
	if err != nil {
		return nil, err
	}
	var y interface{}
	if err = json.Unmarshal(js, &y); err != nil {
		return nil, err
	}
	return y, nil
}

// Snapshot returns a canonicalized copy of the binding context's
// data, or nil if there is no such context.
func (s *Store) Snapshot(id int) (map[string]interface{}, error) {
	c := s.containers[id]
	if c == nil {
		return nil, nil
	}
	x, err := Canonicalize(c.Data)
	if err != nil {
		return nil, err
	}
	m, _ := x.(map[string]interface{})
	return m, nil
}
