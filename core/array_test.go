package core

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestArrayWrap(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := s.AddObject("x", nil)

	if err := s.SetProperty(ctx, id, "tags", []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	a, is := s.GetProperty(id, "tags").(*Array)
	if !is {
		t.Fatalf("got %T", s.GetProperty(id, "tags"))
	}
	if a.ID() != id || a.Path() != "tags" {
		t.Fatalf("tagged %d %s", a.ID(), a.Path())
	}
	if x := s.GetProperty(id, "tags.1"); x != "b" {
		t.Fatalf("got %#v", x)
	}
	if x := s.GetProperty(id, "tags.2"); x != nil {
		t.Fatalf("got %#v", x)
	}

	if err := s.SetProperty(ctx, id, "blob", []byte("hi")); err != nil {
		t.Fatal(err)
	}
	if _, is := s.GetProperty(id, "blob").([]byte); !is {
		t.Fatal("bytes wrapped")
	}

	// Storing an Array elsewhere retags it.
	if err := s.SetProperty(ctx, id, "more", a); err != nil {
		t.Fatal(err)
	}
	if a.Path() != "more" {
		t.Fatalf("path %s", a.Path())
	}
}

func TestArrayDeltas(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := s.AddObject("x", nil)

	var deltas []*Delta
	s.AddCallback(id, "list", &Callback{
		Collection: func(ctx context.Context, path string, delta *Delta) error {
			deltas = append(deltas, delta)
			return nil
		},
	})

	if err := s.SetProperty(ctx, id, "list", []interface{}{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	a := s.GetProperty(id, "list").(*Array)

	if n, err := a.Push(ctx, "c"); err != nil || n != 3 {
		t.Fatalf("push gave %d %v", n, err)
	}
	if x, err := a.Pop(ctx); err != nil || x != "c" {
		t.Fatalf("pop gave %v %v", x, err)
	}
	if x, err := a.Shift(ctx); err != nil || x != "a" {
		t.Fatalf("shift gave %v %v", x, err)
	}
	if n, err := a.Unshift(ctx, "z", "y"); err != nil || n != 3 {
		t.Fatalf("unshift gave %d %v", n, err)
	}
	removed, err := a.Splice(ctx, 1, 1, "q")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]interface{}{"y"}, removed); diff != "" {
		t.Fatal(diff)
	}

	if diff := cmp.Diff([]interface{}{"z", "q", "b"}, a.Items()); diff != "" {
		t.Fatal(diff)
	}

	want := []*Delta{
		{Op: Push, Index: 2, Inserted: []interface{}{"c"}},
		{Op: Pop, Index: 2, Removed: []interface{}{"c"}},
		{Op: Shift, Index: 0, Removed: []interface{}{"a"}},
		{Op: Unshift, Index: 0, Inserted: []interface{}{"z", "y"}},
		{Op: Splice, Index: 1, Removed: []interface{}{"y"}, Inserted: []interface{}{"q"}},
	}
	if diff := cmp.Diff(want, deltas); diff != "" {
		t.Fatal(diff)
	}
}

func TestArrayHandles(t *testing.T) {
	ctx := context.Background()
	r := &recorder{}
	s := NewStore(WithDispatcher(r))
	id := s.AddObject("x", map[string]interface{}{})

	var plain []string
	s.AddCallback(id, "list", counter(&plain))
	s.SetCallback("rows", id, []string{"list"}, "repeat")
	s.SetCallback("other", id, []string{"list.0"}, "text")

	if err := s.SetProperty(ctx, id, "list", []interface{}{}); err != nil {
		t.Fatal(err)
	}
	r.updates = nil
	plain = nil

	a := s.GetProperty(id, "list").(*Array)
	if _, err := a.Push(ctx, 1); err != nil {
		t.Fatal(err)
	}

	// Only exact subscribers hear about deltas.
	want := []update{
		{
			Key:    "repeat",
			Handle: "rows",
			Paths:  []string{"list"},
			Delta:  &Delta{Op: Push, Index: 0, Inserted: []interface{}{1}},
		},
	}
	if diff := cmp.Diff(want, r.updates); diff != "" {
		t.Fatal(diff)
	}
	// A Callback without Collection gets Func.
	if diff := cmp.Diff([]string{"list"}, plain); diff != "" {
		t.Fatal(diff)
	}
}

func TestArrayNoChange(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := s.AddObject("x", nil)

	n := 0
	s.AddCallback(id, "list", &Callback{
		Collection: func(ctx context.Context, path string, delta *Delta) error {
			n++
			return nil
		},
	})
	if err := s.SetProperty(ctx, id, "list", []interface{}{}); err != nil {
		t.Fatal(err)
	}
	a := s.GetProperty(id, "list").(*Array)

	if x, err := a.Pop(ctx); x != nil || err != nil {
		t.Fatalf("pop gave %v %v", x, err)
	}
	if x, err := a.Shift(ctx); x != nil || err != nil {
		t.Fatalf("shift gave %v %v", x, err)
	}
	if n != 0 {
		t.Fatalf("%d deltas", n)
	}
}

func TestSpliceClamping(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		start       int
		deleteCount int
		items       []interface{}
		removed     []interface{}
		result      []interface{}
	}{
		{
			name:        "negative start",
			start:       -2,
			deleteCount: 1,
			removed:     []interface{}{3},
			result:      []interface{}{1, 2, 4},
		},
		{
			name:        "very negative start",
			start:       -10,
			deleteCount: 1,
			removed:     []interface{}{1},
			result:      []interface{}{2, 3, 4},
		},
		{
			name:        "start past end",
			start:       10,
			deleteCount: 1,
			items:       []interface{}{5},
			removed:     []interface{}{},
			result:      []interface{}{1, 2, 3, 4, 5},
		},
		{
			name:        "big delete",
			start:       2,
			deleteCount: 10,
			removed:     []interface{}{3, 4},
			result:      []interface{}{1, 2},
		},
		{
			name:        "negative delete",
			start:       1,
			deleteCount: -1,
			items:       []interface{}{9},
			removed:     []interface{}{},
			result:      []interface{}{1, 9, 2, 3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewArray(1, 2, 3, 4)
			removed, err := a.Splice(ctx, tt.start, tt.deleteCount, tt.items...)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.removed, removed); diff != "" {
				t.Fatal(diff)
			}
			if diff := cmp.Diff(tt.result, a.Items()); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}
