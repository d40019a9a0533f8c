package core

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// DefaultMaxUpdateDepth is the MaxUpdateDepth for new Stores.
	DefaultMaxUpdateDepth = 32

	// GlobalsName is the name of the globals binding context.
	GlobalsName = "globals"
)

// Container is the data of one binding context.
type Container struct {
	Name string                 `json:"name"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// Store is the reactive data store.
type Store struct {
	// MaxUpdateDepth limits nested SetProperty calls and repeated
	// cascades for one property.  See SetProperty.
	MaxUpdateDepth int

	logger     *zap.Logger
	dispatcher Dispatcher
	hook       DefinitionHook

	lastID           int
	containers       map[int]*Container
	owners           map[int]interface{}
	deps             map[int]*dependencies
	contextCallbacks map[int]*set[*ContextCallback]

	// elements maps a handle to the keys of the providers that
	// bound it.
	elements map[string]*set[string]

	// bindings maps a handle to the paths it's subscribed to.
	bindings map[string]*set[binding]

	// Reentrancy bookkeeping.
	depth      int
	inProgress map[binding]bool
	pending    map[binding]bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the Store's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithDispatcher sets the Dispatcher for element handles.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Store) {
		s.dispatcher = d
	}
}

// WithDefinitionHook registers a data-definition system.
func WithDefinitionHook(h DefinitionHook) Option {
	return func(s *Store) {
		s.hook = h
	}
}

// NewStore makes a Store with only the globals binding context.
func NewStore(opts ...Option) *Store {
	s := &Store{
		MaxUpdateDepth:   DefaultMaxUpdateDepth,
		logger:           zap.NewNop(),
		containers:       make(map[int]*Container),
		owners:           make(map[int]interface{}),
		deps:             make(map[int]*dependencies),
		contextCallbacks: make(map[int]*set[*ContextCallback]),
		elements:         make(map[string]*set[string]),
		bindings:         make(map[string]*set[binding]),
		inProgress:       make(map[binding]bool),
		pending:          make(map[binding]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.containers[GlobalsID] = &Container{
		Name: GlobalsName,
		Type: "data",
		Data: make(map[string]interface{}),
	}
	s.deps[GlobalsID] = newDependencies()

	return s
}

// NewHandle makes a new element handle.
func NewHandle() string {
	return uuid.NewString()
}

// AddObject allocates a new binding context with the given initial
// data and returns its id.
//
// Ids start at 1 and are never reused.
func (s *Store) AddObject(name string, data map[string]interface{}) int {
	if data == nil {
		data = make(map[string]interface{})
	}
	s.lastID++
	id := s.lastID
	s.containers[id] = &Container{
		Name: name,
		Type: "data",
		Data: data,
	}
	s.deps[id] = newDependencies()

	s.logger.Debug("binding context added", zap.Int("id", id), zap.String("name", name))

	return id
}

// AddContext associates an owner with a binding context.
//
// The Store does not own the owner.  The association ends with
// Remove.
func (s *Store) AddContext(id int, owner interface{}) {
	if _, have := s.containers[id]; !have {
		return
	}
	s.owners[id] = owner
}

// GetContext returns the owner (if any) associated with the binding
// context.
func (s *Store) GetContext(id int) interface{} {
	return s.owners[id]
}

// Container returns the binding context's container (or nil).
func (s *Store) Container(id int) *Container {
	return s.containers[id]
}

// Name returns the binding context's name (or "").
func (s *Store) Name(id int) string {
	if c := s.containers[id]; c != nil {
		return c.Name
	}
	return ""
}

// IDs returns the ids of all binding contexts in order.
func (s *Store) IDs() []int {
	acc := make([]int, 0, len(s.containers))
	for id := range s.containers {
		acc = append(acc, id)
	}
	sort.Ints(acc)
	return acc
}

// Globals returns the data of the globals binding context.
func (s *Store) Globals() map[string]interface{} {
	return s.containers[GlobalsID].Data
}

// GetProperty returns the value at the path in the binding context.
//
// The path "bid" returns the id itself.  A path starting with
// "$globals." is looked up in the globals context.  A missing
// context or path gives nil.
func (s *Store) GetProperty(id int, path string) interface{} {
	if path == SelfPath {
		return id
	}
	id, p := resolve(id, path)
	c := s.containers[id]
	if c == nil {
		return nil
	}
	return lookup(c.Data, p.segs)
}

// SetProperty sets the value at the path in the binding context and
// notifies everybody who cares.
//
// Steps:
//
//  1. The old value is read.
//  2. A "$globals." path is redirected to the globals context.
//  3. A slice is wrapped in an Array (tagged with the id and path).
//  4. The value is written.  Missing intermediate maps are created.
//  5. The cascade update runs.  See UpdateUI.
//  6. The owner (if any, and not for globals) hears about it via
//     PropertyChangedListener and ChangeHandlerProvider.
//  7. Context callbacks are called.
//  8. The DefinitionHook (if any) automates values and validations.
//
// Subscribers may call SetProperty again.  If that happens for the
// (id, path) whose cascade is already running, the value is written
// but the cascade is coalesced: it runs once more after the current
// one.  Nesting (or repeating) deeper than MaxUpdateDepth stops with
// a *CycleError.
//
// A missing binding context is not an error.  Errors from subscribers
// and hooks don't stop the other notifications; they are joined and
// returned.
func (s *Store) SetProperty(ctx context.Context, id int, path string, value interface{}) error {
	old := s.GetProperty(id, path)

	id, p := resolve(id, path)
	c := s.containers[id]
	if c == nil {
		return nil
	}

	if s.maxDepth() <= s.depth {
		s.logger.Warn("update cycle", zap.Int("id", id), zap.String("path", p.String()))
		return &CycleError{ID: id, Path: p.String(), Depth: s.depth}
	}
	s.depth++
	defer func() { s.depth-- }()

	value = s.wrap(id, p.String(), value)
	assign(c.Data, p.segs, value)

	var errs []error
	if err := s.cascade(ctx, id, p); err != nil {
		errs = append(errs, err)
	}

	if id != GlobalsID {
		owner := s.owners[id]
		if l, is := owner.(PropertyChangedListener); is {
			l.PropertyChanged(p.String(), value, old)
		}
		if h, is := owner.(ChangeHandlerProvider); is {
			if f := h.ChangeHandler(p.String()); f != nil {
				f(value, old)
			}
		}
	}

	if cbs, have := s.contextCallbacks[id]; have {
		for _, cb := range cbs.items() {
			if err := cb.Func(ctx, p.String(), value, old); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if s.hook != nil {
		if err := s.hook.AutomateValues(ctx, id, p.String()); err != nil {
			errs = append(errs, err)
		}
		if err := s.hook.AutomateValidations(ctx, id, p.String()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *Store) maxDepth() int {
	if s.MaxUpdateDepth <= 0 {
		return DefaultMaxUpdateDepth
	}
	return s.MaxUpdateDepth
}

// cascade runs performUpdate with the reentrancy policy described at
// SetProperty.
func (s *Store) cascade(ctx context.Context, id int, p Path) error {
	k := binding{id: id, path: p.String()}
	if s.inProgress[k] {
		s.pending[k] = true
		s.logger.Debug("cascade coalesced", zap.Int("id", id), zap.String("path", k.path))
		return nil
	}
	s.inProgress[k] = true
	defer delete(s.inProgress, k)

	var errs []error
	for round := 1; ; round++ {
		if err := s.performUpdate(ctx, id, p); err != nil {
			errs = append(errs, err)
		}
		if !s.pending[k] {
			break
		}
		delete(s.pending, k)
		if s.maxDepth() <= round {
			errs = append(errs, &CycleError{ID: id, Path: k.path, Depth: round})
			break
		}
	}

	return errors.Join(errs...)
}

// performUpdate notifies the subscribers of the path if there are any.
// Otherwise it recurses on every registered path that starts with the
// given path.  There is no upward propagation.
func (s *Store) performUpdate(ctx context.Context, id int, p Path) error {
	d := s.deps[id]
	if d == nil {
		return nil
	}
	if ss, have := d.subs[p.String()]; have {
		return s.notify(ctx, p.String(), ss.items())
	}

	var errs []error
	for _, q := range append([]Path(nil), d.paths...) {
		if q.HasPrefix(p) {
			if err := s.performUpdate(ctx, id, q); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Store) notify(ctx context.Context, path string, subs []Subscriber) error {
	var errs []error
	for _, sub := range subs {
		var err error
		if sub.IsHandle() {
			err = s.dispatch(ctx, sub.Handle, path)
		} else if sub.Callback.Func != nil {
			err = sub.Callback.Func(ctx, path)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// dispatch sends an update for the handle to each provider that bound
// it.
func (s *Store) dispatch(ctx context.Context, handle string, paths ...string) error {
	keys, have := s.elements[handle]
	if !have {
		return nil
	}
	if s.dispatcher == nil {
		s.logger.Warn("no dispatcher for handle update", zap.String("handle", handle))
		return nil
	}
	var errs []error
	for _, key := range keys.items() {
		s.logger.Debug("provider update",
			zap.String("provider", key),
			zap.String("handle", handle),
			zap.Strings("paths", paths))
		if err := s.dispatcher.Update(ctx, key, handle, paths...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetCallback subscribes an element handle to the paths in the
// binding context on behalf of the provider with the given key.
//
// Registering the same handle for the same path again does nothing.
func (s *Store) SetCallback(handle string, id int, paths []string, providerKey string) {
	for _, path := range paths {
		bid, p := resolve(id, path)
		d := s.deps[bid]
		if d == nil {
			continue
		}
		d.add(p, Subscriber{Handle: handle})

		bs, have := s.bindings[handle]
		if !have {
			bs = newSet[binding]()
			s.bindings[handle] = bs
		}
		bs.add(binding{id: bid, path: p.String()})
	}

	if providerKey == "" {
		return
	}
	keys, have := s.elements[handle]
	if !have {
		keys = newSet[string]()
		s.elements[handle] = keys
	}
	keys.add(providerKey)
}

// RemoveElement forgets everything about the element handle.  The
// providers that bound it are told to Clear it.
func (s *Store) RemoveElement(handle string) {
	if bs, have := s.bindings[handle]; have {
		done := make(map[int]bool)
		for _, b := range bs.items() {
			if done[b.id] {
				continue
			}
			done[b.id] = true
			if d := s.deps[b.id]; d != nil {
				d.removeAll(Subscriber{Handle: handle})
			}
		}
	}
	s.clearElement(handle)
}

func (s *Store) clearElement(handle string) {
	if keys, have := s.elements[handle]; have && s.dispatcher != nil {
		for _, key := range keys.items() {
			s.dispatcher.Clear(key, handle)
		}
	}
	delete(s.elements, handle)
	delete(s.bindings, handle)
}

// AddCallback subscribes a Callback to a path in the binding context.
func (s *Store) AddCallback(id int, path string, cb *Callback) {
	if cb == nil {
		return
	}
	id, p := resolve(id, path)
	if d := s.deps[id]; d != nil {
		d.add(p, Subscriber{Callback: cb})
	}
}

// RemoveCallback undoes AddCallback.
func (s *Store) RemoveCallback(id int, path string, cb *Callback) {
	id, p := resolve(id, path)
	if d := s.deps[id]; d != nil {
		d.remove(p, Subscriber{Callback: cb})
	}
}

// AddContextCallback registers a callback for every change in the
// binding context.
func (s *Store) AddContextCallback(id int, cb *ContextCallback) {
	if cb == nil {
		return
	}
	cbs, have := s.contextCallbacks[id]
	if !have {
		cbs = newSet[*ContextCallback]()
		s.contextCallbacks[id] = cbs
	}
	cbs.add(cb)
}

// RemoveContextCallback undoes AddContextCallback.
func (s *Store) RemoveContextCallback(id int, cb *ContextCallback) {
	cbs, have := s.contextCallbacks[id]
	if !have {
		return
	}
	cbs.remove(cb)
	if cbs.len() == 0 {
		delete(s.contextCallbacks, id)
	}
}

// Remove destroys the binding context.
//
// If the owner is a BoundElementsOwner, its bound handles are cleared
// from their providers first.  The data is disposed (maps emptied,
// Arrays detached), and all per-id state is deleted.  Removing an
// unknown id, or the globals context, does nothing.
func (s *Store) Remove(ctx context.Context, id int) error {
	c := s.containers[id]
	if c == nil || id == GlobalsID {
		return nil
	}

	if o, is := s.owners[id].(BoundElementsOwner); is {
		for _, h := range o.BoundElements() {
			s.clearElement(h)
		}
		o.ClearBoundElements()
	}

	if d := s.deps[id]; d != nil {
		for _, ss := range d.subs {
			for _, sub := range ss.items() {
				if sub.IsHandle() {
					s.forgetBindings(sub.Handle, id)
				}
			}
		}
		d.paths = nil
		d.subs = nil
	}

	dispose(c.Data)
	c.Data = nil

	delete(s.containers, id)
	delete(s.owners, id)
	delete(s.deps, id)
	delete(s.contextCallbacks, id)

	s.logger.Debug("binding context removed", zap.Int("id", id), zap.String("name", c.Name))

	if s.hook != nil {
		return s.hook.Remove(ctx, id)
	}
	return nil
}

// forgetBindings removes the handle's registrations in the binding
// context.  A handle left with no registrations is forgotten.
func (s *Store) forgetBindings(handle string, id int) {
	bs, have := s.bindings[handle]
	if !have {
		return
	}
	for _, b := range bs.items() {
		if b.id == id {
			bs.remove(b)
		}
	}
	if bs.len() == 0 {
		s.clearElement(handle)
	}
}

// UpdateElement replays every path the handle is bound to, without
// changing any data.
func (s *Store) UpdateElement(ctx context.Context, handle string) error {
	bs, have := s.bindings[handle]
	if !have {
		return nil
	}
	paths := make([]string, 0, bs.len())
	for _, b := range bs.items() {
		paths = append(paths, b.path)
	}
	return s.dispatch(ctx, handle, paths...)
}

// UpdateContext replays every provider for every handle bound in the
// binding context.
func (s *Store) UpdateContext(ctx context.Context, id int) error {
	d := s.deps[id]
	if d == nil {
		return nil
	}

	handles := newSet[string]()
	paths := make(map[string][]string)
	for _, p := range d.paths {
		for _, sub := range d.subs[p.String()].items() {
			if sub.IsHandle() {
				handles.add(sub.Handle)
				paths[sub.Handle] = append(paths[sub.Handle], p.String())
			}
		}
	}

	var errs []error
	for _, h := range handles.items() {
		if err := s.dispatch(ctx, h, paths[h]...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// UpdateUI runs the cascade update for the path without changing any
// data.
func (s *Store) UpdateUI(ctx context.Context, id int, path string) error {
	id, p := resolve(id, path)
	return s.cascade(ctx, id, p)
}

// Paths returns the registered dependency paths of the binding
// context in registration order.
func (s *Store) Paths(id int) []string {
	d := s.deps[id]
	if d == nil {
		return nil
	}
	acc := make([]string, len(d.paths))
	for i, p := range d.paths {
		acc[i] = p.String()
	}
	return acc
}

// Subscribers returns the subscribers of exactly the path.
func (s *Store) Subscribers(id int, path string) []Subscriber {
	id, p := resolve(id, path)
	d := s.deps[id]
	if d == nil {
		return nil
	}
	ss, have := d.subs[p.String()]
	if !have {
		return nil
	}
	return ss.items()
}

// Providers returns the keys of the providers that bound the handle.
func (s *Store) Providers(handle string) []string {
	keys, have := s.elements[handle]
	if !have {
		return nil
	}
	return keys.items()
}
