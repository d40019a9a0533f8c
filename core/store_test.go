package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type update struct {
	Key    string
	Handle string
	Paths  []string
	Delta  *Delta
}

// recorder is a Dispatcher that remembers what it was asked to do.
type recorder struct {
	updates []update
	cleared []string
	err     error
}

func (r *recorder) Update(ctx context.Context, key, handle string, paths ...string) error {
	r.updates = append(r.updates, update{Key: key, Handle: handle, Paths: paths})
	return r.err
}

func (r *recorder) UpdateCollection(ctx context.Context, key, handle, path string, delta *Delta) error {
	r.updates = append(r.updates, update{Key: key, Handle: handle, Paths: []string{path}, Delta: delta})
	return r.err
}

func (r *recorder) Clear(key, handle string) {
	r.cleared = append(r.cleared, key+":"+handle)
}

type owner struct {
	changes  []string
	handlers map[string]ChangeFunc
	handles  []string
}

func (o *owner) PropertyChanged(path string, newValue, oldValue interface{}) {
	o.changes = append(o.changes, fmt.Sprintf("%s %v->%v", path, oldValue, newValue))
}

func (o *owner) ChangeHandler(path string) ChangeFunc {
	return o.handlers[path]
}

func (o *owner) BoundElements() []string {
	return o.handles
}

func (o *owner) ClearBoundElements() {
	o.handles = nil
}

type hook struct {
	calls []string
}

func (h *hook) AutomateValues(ctx context.Context, id int, path string) error {
	h.calls = append(h.calls, fmt.Sprintf("values %d %s", id, path))
	return nil
}

func (h *hook) AutomateValidations(ctx context.Context, id int, path string) error {
	h.calls = append(h.calls, fmt.Sprintf("validations %d %s", id, path))
	return nil
}

func (h *hook) Remove(ctx context.Context, id int) error {
	h.calls = append(h.calls, fmt.Sprintf("remove %d", id))
	return nil
}

// counter makes a Callback that counts the paths it hears about.
func counter(heard *[]string) *Callback {
	return &Callback{
		Func: func(ctx context.Context, path string) error {
			*heard = append(*heard, path)
			return nil
		},
	}
}

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	id := s.AddObject("person", map[string]interface{}{"name": "Ann"})
	if id != 1 {
		t.Fatalf("first id is %d", id)
	}
	if x := s.GetProperty(id, "name"); x != "Ann" {
		t.Fatalf("got %#v", x)
	}

	if err := s.SetProperty(ctx, id, "address.city", "Paris"); err != nil {
		t.Fatal(err)
	}
	if x := s.GetProperty(id, "address.city"); x != "Paris" {
		t.Fatalf("got %#v", x)
	}
	if _, is := s.GetProperty(id, "address").(map[string]interface{}); !is {
		t.Fatal("intermediate map not created")
	}

	if x := s.GetProperty(id, "bid"); x != id {
		t.Fatalf("bid is %#v", x)
	}
	if x := s.GetProperty(id, "address.zip"); x != nil {
		t.Fatalf("got %#v", x)
	}
	if x := s.GetProperty(42, "name"); x != nil {
		t.Fatalf("got %#v", x)
	}

	// A missing context is not an error.
	if err := s.SetProperty(ctx, 42, "name", "x"); err != nil {
		t.Fatal(err)
	}

	if id2 := s.AddObject("other", nil); id2 != 2 {
		t.Fatalf("second id is %d", id2)
	}
}

func TestSetThroughArrayIndex(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := s.AddObject("list", nil)

	items := []interface{}{
		map[string]interface{}{"name": "a"},
		map[string]interface{}{"name": "b"},
	}
	if err := s.SetProperty(ctx, id, "items", items); err != nil {
		t.Fatal(err)
	}
	if err := s.SetProperty(ctx, id, "items.0.name", "z"); err != nil {
		t.Fatal(err)
	}

	a, is := s.GetProperty(id, "items").(*Array)
	if !is {
		t.Fatalf("items is a %T", s.GetProperty(id, "items"))
	}
	if a.Len() != 2 {
		t.Fatalf("items has %d", a.Len())
	}
	if x := s.GetProperty(id, "items.0.name"); x != "z" {
		t.Fatalf("items.0.name is %#v", x)
	}
	if x := s.GetProperty(id, "items.1.name"); x != "b" {
		t.Fatalf("items.1.name is %#v", x)
	}

	// Past the end extends the Array.
	if err := s.SetProperty(ctx, id, "items.3.name", "d"); err != nil {
		t.Fatal(err)
	}
	if a.Len() != 4 || a.At(2) != nil {
		t.Fatalf("items %v", a.Items())
	}
	if x := s.GetProperty(id, "items.3.name"); x != "d" {
		t.Fatalf("items.3.name is %#v", x)
	}

	// A scalar element is replaced by a map.
	if err := s.SetProperty(ctx, id, "tags", []interface{}{"x", "y"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetProperty(ctx, id, "tags.1.n", 1); err != nil {
		t.Fatal(err)
	}
	if x := s.GetProperty(id, "tags.0"); x != "x" {
		t.Fatalf("tags.0 is %#v", x)
	}
	if x := s.GetProperty(id, "tags.1.n"); x != 1 {
		t.Fatalf("tags.1.n is %#v", x)
	}
}

func TestGlobalsRedirect(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := s.AddObject("page", nil)

	var heard []string
	s.AddCallback(GlobalsID, "theme", counter(&heard))

	if err := s.SetProperty(ctx, id, "$globals.theme", "dark"); err != nil {
		t.Fatal(err)
	}
	if x := s.Globals()["theme"]; x != "dark" {
		t.Fatalf("globals theme is %#v", x)
	}
	if x := s.GetProperty(id, "$globals.theme"); x != "dark" {
		t.Fatalf("got %#v", x)
	}
	if x := s.GetProperty(id, "theme"); x != nil {
		t.Fatalf("local theme is %#v", x)
	}
	if diff := cmp.Diff([]string{"theme"}, heard); diff != "" {
		t.Fatal(diff)
	}
}

func TestCascadePrefix(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		set  string
		want []string
	}{
		{
			// No subscriber for "person", so every path that
			// starts with "person" hears about it (even
			// "personnel").
			set:  "person",
			want: []string{"person.name", "person.age", "personnel"},
		},
		{
			set:  "person.name",
			want: []string{"person.name"},
		},
		{
			// No upward propagation.
			set:  "person.name.first",
			want: nil,
		},
		{
			set:  "other",
			want: nil,
		},
		{
			set:  "",
			want: []string{"person.name", "person.age", "personnel", "title"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.set, func(t *testing.T) {
			s := NewStore()
			id := s.AddObject("x", nil)
			var heard []string
			cb := counter(&heard)
			for _, p := range []string{"person.name", "person.age", "personnel", "title"} {
				s.AddCallback(id, p, cb)
			}
			if err := s.UpdateUI(ctx, id, tt.set); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, heard); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestCascadeStopsAtSubscribedPath(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := s.AddObject("x", nil)

	var heard []string
	cb := counter(&heard)
	s.AddCallback(id, "person", cb)
	s.AddCallback(id, "person.name", cb)

	if err := s.SetProperty(ctx, id, "person", map[string]interface{}{"name": "Bo"}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"person"}, heard); diff != "" {
		t.Fatal(diff)
	}
}

func TestSubscriptionIdempotent(t *testing.T) {
	ctx := context.Background()
	r := &recorder{}
	s := NewStore(WithDispatcher(r))
	id := s.AddObject("x", nil)

	h := NewHandle()
	s.SetCallback(h, id, []string{"a"}, "text")
	s.SetCallback(h, id, []string{"a"}, "text")

	var heard []string
	cb := counter(&heard)
	s.AddCallback(id, "a", cb)
	s.AddCallback(id, "a", cb)

	if err := s.SetProperty(ctx, id, "a", 1); err != nil {
		t.Fatal(err)
	}
	if len(r.updates) != 1 {
		t.Fatalf("%d updates", len(r.updates))
	}
	if len(heard) != 1 {
		t.Fatalf("callback called %d times", len(heard))
	}
	if n := len(s.Subscribers(id, "a")); n != 2 {
		t.Fatalf("%d subscribers", n)
	}
}

func TestElementUpdate(t *testing.T) {
	ctx := context.Background()
	r := &recorder{}
	s := NewStore(WithDispatcher(r))
	id := s.AddObject("x", nil)

	s.SetCallback("elem-1", id, []string{"status"}, "attr")

	if err := s.SetProperty(ctx, id, "status", "ok"); err != nil {
		t.Fatal(err)
	}

	want := []update{
		{Key: "attr", Handle: "elem-1", Paths: []string{"status"}},
	}
	if diff := cmp.Diff(want, r.updates); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]string{"attr"}, s.Providers("elem-1")); diff != "" {
		t.Fatal(diff)
	}
}

func TestElementMultipleProviders(t *testing.T) {
	ctx := context.Background()
	r := &recorder{}
	s := NewStore(WithDispatcher(r))
	id := s.AddObject("x", nil)

	s.SetCallback("e", id, []string{"a"}, "text")
	s.SetCallback("e", id, []string{"b"}, "attr")

	if err := s.SetProperty(ctx, id, "a", 1); err != nil {
		t.Fatal(err)
	}
	want := []update{
		{Key: "text", Handle: "e", Paths: []string{"a"}},
		{Key: "attr", Handle: "e", Paths: []string{"a"}},
	}
	if diff := cmp.Diff(want, r.updates); diff != "" {
		t.Fatal(diff)
	}
}

func TestRemoveElement(t *testing.T) {
	ctx := context.Background()
	r := &recorder{}
	s := NewStore(WithDispatcher(r))
	id := s.AddObject("x", nil)

	s.SetCallback("e", id, []string{"a", "b", "$globals.theme"}, "text")
	s.SetCallback("f", id, []string{"b"}, "text")
	s.RemoveElement("e")

	if err := s.SetProperty(ctx, id, "a", 1); err != nil {
		t.Fatal(err)
	}
	if len(r.updates) != 0 {
		t.Fatalf("updates %v", r.updates)
	}
	if diff := cmp.Diff([]string{"text:e"}, r.cleared); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]string{"b"}, s.Paths(id)); diff != "" {
		t.Fatal(diff)
	}
	if ps := s.Paths(GlobalsID); len(ps) != 0 {
		t.Fatalf("globals paths %v", ps)
	}
}

func TestOwner(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := s.AddObject("x", map[string]interface{}{"n": 1})

	var handled []string
	o := &owner{
		handlers: map[string]ChangeFunc{
			"n": func(newValue, oldValue interface{}) {
				handled = append(handled, fmt.Sprintf("%v->%v", oldValue, newValue))
			},
		},
	}
	s.AddContext(id, o)
	if s.GetContext(id) != o {
		t.Fatal("owner not associated")
	}

	if err := s.SetProperty(ctx, id, "n", 2); err != nil {
		t.Fatal(err)
	}
	if err := s.SetProperty(ctx, id, "m", 3); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"n 1->2", "m <nil>->3"}, o.changes); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]string{"1->2"}, handled); diff != "" {
		t.Fatal(diff)
	}
}

func TestContextCallbacks(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := s.AddObject("x", nil)

	var heard []string
	cb := &ContextCallback{
		Func: func(ctx context.Context, path string, newValue, oldValue interface{}) error {
			heard = append(heard, fmt.Sprintf("%s=%v", path, newValue))
			return nil
		},
	}
	s.AddContextCallback(id, cb)
	s.AddContextCallback(id, cb)

	if err := s.SetProperty(ctx, id, "a", 1); err != nil {
		t.Fatal(err)
	}
	s.RemoveContextCallback(id, cb)
	if err := s.SetProperty(ctx, id, "a", 2); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"a=1"}, heard); diff != "" {
		t.Fatal(diff)
	}
}

func TestSubscriberErrors(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := s.AddObject("x", nil)

	broken := errors.New("broken")
	var heard []string
	s.AddCallback(id, "a", &Callback{
		Func: func(ctx context.Context, path string) error {
			return broken
		},
	})
	s.AddCallback(id, "a", counter(&heard))

	err := s.SetProperty(ctx, id, "a", 1)
	if !errors.Is(err, broken) {
		t.Fatalf("surprised by %v", err)
	}
	if len(heard) != 1 {
		t.Fatal("second subscriber not called")
	}
	if x := s.GetProperty(id, "a"); x != 1 {
		t.Fatalf("got %#v", x)
	}
}

func TestReentrantCoalesced(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := s.AddObject("x", nil)

	calls := 0
	s.AddCallback(id, "count", &Callback{
		Func: func(ctx context.Context, path string) error {
			calls++
			n := s.GetProperty(id, "count").(int)
			if n < 3 {
				return s.SetProperty(ctx, id, "count", n+1)
			}
			return nil
		},
	})

	if err := s.SetProperty(ctx, id, "count", 1); err != nil {
		t.Fatal(err)
	}
	if x := s.GetProperty(id, "count"); x != 3 {
		t.Fatalf("count is %#v", x)
	}
	if calls != 3 {
		t.Fatalf("%d calls", calls)
	}
}

func TestCycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.MaxUpdateDepth = 5
	id := s.AddObject("x", map[string]interface{}{"n": 0})

	s.AddCallback(id, "n", &Callback{
		Func: func(ctx context.Context, path string) error {
			return s.SetProperty(ctx, id, "n", s.GetProperty(id, "n").(int)+1)
		},
	})

	err := s.SetProperty(ctx, id, "n", 1)
	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("surprised by %v", err)
	}
	if ce.Path != "n" || ce.ID != id {
		t.Fatalf("cycle at %d %s", ce.ID, ce.Path)
	}
}

func TestCycleDepth(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.MaxUpdateDepth = 3
	id := s.AddObject("x", nil)

	// p0 sets p1 sets p2 ...
	for i := 0; i < 10; i++ {
		next := fmt.Sprintf("p%d", i+1)
		s.AddCallback(id, fmt.Sprintf("p%d", i), &Callback{
			Func: func(ctx context.Context, path string) error {
				return s.SetProperty(ctx, id, next, true)
			},
		})
	}

	err := s.SetProperty(ctx, id, "p0", true)
	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("surprised by %v", err)
	}
	if ce.Path != "p3" {
		t.Fatalf("cycle at %s", ce.Path)
	}
	if s.GetProperty(id, "p3") != nil {
		t.Fatal("p3 written")
	}
	if s.depth != 0 {
		t.Fatalf("depth left at %d", s.depth)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	r := &recorder{}
	h := &hook{}
	s := NewStore(WithDispatcher(r), WithDefinitionHook(h))

	data := map[string]interface{}{"a": 1}
	id := s.AddObject("x", data)
	o := &owner{handles: []string{"e1"}}
	s.AddContext(id, o)
	s.SetCallback("e1", id, []string{"a"}, "text")
	s.SetCallback("e2", id, []string{"a"}, "attr")

	if err := s.SetProperty(ctx, id, "list", []interface{}{1, 2}); err != nil {
		t.Fatal(err)
	}
	list := s.GetProperty(id, "list").(*Array)

	r.updates = nil
	h.calls = nil

	if err := s.Remove(ctx, id); err != nil {
		t.Fatal(err)
	}

	if s.Container(id) != nil || s.GetContext(id) != nil {
		t.Fatal("context survived")
	}
	if len(data) != 0 {
		t.Fatalf("data not disposed: %v", data)
	}
	if o.handles != nil {
		t.Fatal("bound elements not cleared")
	}
	if diff := cmp.Diff([]string{"text:e1", "attr:e2"}, r.cleared); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]string{fmt.Sprintf("remove %d", id)}, h.calls); diff != "" {
		t.Fatal(diff)
	}

	// A detached Array doesn't notify.
	if _, err := list.Push(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if len(r.updates) != 0 {
		t.Fatalf("updates %v", r.updates)
	}

	// Removing again, or removing globals, does nothing.
	if err := s.Remove(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(ctx, GlobalsID); err != nil {
		t.Fatal(err)
	}
	if s.Container(GlobalsID) == nil {
		t.Fatal("globals removed")
	}
	if id2 := s.AddObject("y", nil); id2 == id {
		t.Fatal("id reused")
	}
}

func TestDefinitionHook(t *testing.T) {
	ctx := context.Background()
	h := &hook{}
	s := NewStore(WithDefinitionHook(h))
	id := s.AddObject("x", nil)

	if err := s.SetProperty(ctx, id, "a.b", 1); err != nil {
		t.Fatal(err)
	}
	want := []string{
		fmt.Sprintf("values %d a.b", id),
		fmt.Sprintf("validations %d a.b", id),
	}
	if diff := cmp.Diff(want, h.calls); diff != "" {
		t.Fatal(diff)
	}
}

func TestReplays(t *testing.T) {
	ctx := context.Background()
	r := &recorder{}
	s := NewStore(WithDispatcher(r))
	id := s.AddObject("x", nil)

	s.SetCallback("e1", id, []string{"a", "b"}, "text")
	s.SetCallback("e2", id, []string{"b"}, "attr")

	if err := s.UpdateElement(ctx, "e1"); err != nil {
		t.Fatal(err)
	}
	want := []update{
		{Key: "text", Handle: "e1", Paths: []string{"a", "b"}},
	}
	if diff := cmp.Diff(want, r.updates); diff != "" {
		t.Fatal(diff)
	}

	r.updates = nil
	if err := s.UpdateContext(ctx, id); err != nil {
		t.Fatal(err)
	}
	want = []update{
		{Key: "text", Handle: "e1", Paths: []string{"a", "b"}},
		{Key: "attr", Handle: "e2", Paths: []string{"b"}},
	}
	if diff := cmp.Diff(want, r.updates); diff != "" {
		t.Fatal(diff)
	}

	r.updates = nil
	if err := s.UpdateUI(ctx, id, "b"); err != nil {
		t.Fatal(err)
	}
	want = []update{
		{Key: "text", Handle: "e1", Paths: []string{"b"}},
		{Key: "attr", Handle: "e2", Paths: []string{"b"}},
	}
	if diff := cmp.Diff(want, r.updates); diff != "" {
		t.Fatal(diff)
	}
	if s.GetProperty(id, "b") != nil {
		t.Fatal("UpdateUI changed data")
	}
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := s.AddObject("x", nil)
	if err := s.SetProperty(ctx, id, "list", []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	m, err := s.Snapshot(id)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]interface{}{
		"list": []interface{}{"a", "b"},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatal(diff)
	}
}
