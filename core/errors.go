package core

// These errors are user errors, not internal errors.

import (
	"strconv"
)

// CycleError occurs when SetProperty calls nest (or repeat) deeper
// than the Store's MaxUpdateDepth.
//
// Usually a change handler that keeps changing the property it's
// watching.
type CycleError struct {
	ID    int
	Path  string
	Depth int
}

func (e *CycleError) Error() string {
	return `update cycle at "` + e.Path + `" in context ` + strconv.Itoa(e.ID) +
		` (depth ` + strconv.Itoa(e.Depth) + `)`
}
