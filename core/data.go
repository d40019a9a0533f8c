package core

import (
	"reflect"
	"strconv"
)

// lookup descends into data along the segments.  Missing steps give
// nil.  Numeric segments index into slices and Arrays.
func lookup(data map[string]interface{}, segs []string) interface{} {
	var x interface{} = data
	for _, seg := range segs {
		switch vv := x.(type) {
		case map[string]interface{}:
			y, have := vv[seg]
			if !have {
				return nil
			}
			x = y
		case *Array:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || vv.Len() <= i {
				return nil
			}
			x = vv.At(i)
		case []interface{}:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || len(vv) <= i {
				return nil
			}
			x = vv[i]
		default:
			return nil
		}
	}
	return x
}

// assign writes the value at the end of the segments, creating
// intermediate maps as needed.  Numeric segments index into Arrays
// and slices, and writing past the end of an Array extends it with
// nils.  Any other intermediate value is replaced by a map.
func assign(data map[string]interface{}, segs []string, value interface{}) {
	if len(segs) == 0 {
		return
	}
	var x interface{} = data
	for i, seg := range segs {
		last := i == len(segs)-1
		next, ok := step(x, seg)
		if last {
			put(x, seg, value)
			return
		}
		if _, is := next.(map[string]interface{}); is {
			x = next
			continue
		}
		if ok {
			switch next.(type) {
			case *Array, []interface{}:
				x = next
				continue
			}
		}
		m := make(map[string]interface{})
		put(x, seg, m)
		x = m
	}
}

// step gets the child of x named by seg.  The bool says whether x can
// hold a child at seg at all.
func step(x interface{}, seg string) (interface{}, bool) {
	switch vv := x.(type) {
	case map[string]interface{}:
		y, have := vv[seg]
		return y, have
	case *Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 {
			return nil, false
		}
		return vv.At(i), i < vv.Len()
	case []interface{}:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || len(vv) <= i {
			return nil, false
		}
		return vv[i], true
	}
	return nil, false
}

// put sets the child of x named by seg.  A slice can't grow in place,
// so an out-of-range index into one is dropped.
func put(x interface{}, seg string, value interface{}) {
	switch vv := x.(type) {
	case map[string]interface{}:
		vv[seg] = value
	case *Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 {
			return
		}
		for vv.Len() <= i {
			vv.items = append(vv.items, nil)
		}
		vv.items[i] = value
	case []interface{}:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || len(vv) <= i {
			return
		}
		vv[i] = value
	}
}

// wrap turns slices into Arrays tagged with (id, path).
func (s *Store) wrap(id int, path string, value interface{}) interface{} {
	switch vv := value.(type) {
	case nil:
		return nil
	case *Array:
		vv.attach(s, id, path)
		return vv
	case []interface{}:
		return newArray(s, id, path, vv)
	case []byte:
		return vv
	}

	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice {
		return value
	}
	items := make([]interface{}, v.Len())
	for i := range items {
		items[i] = v.Index(i).Interface()
	}
	return newArray(s, id, path, items)
}

// dispose breaks up a data graph so nothing outside keeps the rest of
// it alive through a stray reference.
func dispose(x interface{}) {
	switch vv := x.(type) {
	case map[string]interface{}:
		for k, y := range vv {
			dispose(y)
			delete(vv, k)
		}
	case *Array:
		for _, y := range vv.items {
			dispose(y)
		}
		vv.detach()
	case []interface{}:
		for i, y := range vv {
			dispose(y)
			vv[i] = nil
		}
	}
}
