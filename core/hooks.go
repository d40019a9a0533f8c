package core

import (
	"context"
)

// Dispatcher delivers updates to the providers that bound element
// handles.
//
// providers.Map implements this interface.
type Dispatcher interface {
	// Update tells the provider that the given paths changed for
	// the handle.
	Update(ctx context.Context, providerKey, handle string, paths ...string) error

	// UpdateCollection tells the provider about an Array mutation.
	UpdateCollection(ctx context.Context, providerKey, handle, path string, delta *Delta) error

	// Clear tells the provider to forget the handle.
	Clear(providerKey, handle string)
}

// DefinitionHook is an optional data-definition system that
// automates values and validations after every SetProperty.
type DefinitionHook interface {
	AutomateValues(ctx context.Context, id int, path string) error
	AutomateValidations(ctx context.Context, id int, path string) error
	Remove(ctx context.Context, id int) error
}

// The following interfaces are optional capabilities of an owner
// associated with a binding context via AddContext.

// PropertyChangedListener hears about every property change in its
// binding context.
type PropertyChangedListener interface {
	PropertyChanged(path string, newValue, oldValue interface{})
}

// ChangeFunc handles a change to one property.
type ChangeFunc func(newValue, oldValue interface{})

// ChangeHandlerProvider can provide a handler for changes to specific
// properties.  ChangeHandler returns nil if the owner has no handler
// for the path.
type ChangeHandlerProvider interface {
	ChangeHandler(path string) ChangeFunc
}

// BoundElementsOwner tracks the element handles bound in its binding
// context.  These handles are cleared when the context is removed.
type BoundElementsOwner interface {
	BoundElements() []string
	ClearBoundElements()
}
