package core

import (
	"strings"
)

const (
	// GlobalsID is the id of the binding context for globals.
	GlobalsID = 0

	// GlobalsPrefix redirects a path to the globals context.
	GlobalsPrefix = "$globals."

	// SelfPath is the path that GetProperty resolves to the id
	// itself.
	SelfPath = "bid"
)

// Path is a parsed "."-delimited property path.
//
// The zero value is the empty path.
type Path struct {
	raw  string
	segs []string
}

// ParsePath parses a property path.
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	return Path{
		raw:  s,
		segs: strings.Split(s, "."),
	}
}

func (p Path) String() string {
	return p.raw
}

// Segments returns a copy of the path's segments.
func (p Path) Segments() []string {
	acc := make([]string, len(p.segs))
	copy(acc, p.segs)
	return acc
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segs)
}

// HasPrefix reports whether the path's text starts with the text of
// q.
//
// The comparison is on text, not segments: "ab.c" has the prefix
// "a".  The cascade update depends on exactly this.
func (p Path) HasPrefix(q Path) bool {
	return strings.HasPrefix(p.raw, q.raw)
}

// IsGlobal reports whether the path starts with GlobalsPrefix.
func (p Path) IsGlobal() bool {
	return strings.HasPrefix(p.raw, GlobalsPrefix)
}

// Local removes GlobalsPrefix (if any).
func (p Path) Local() Path {
	if !p.IsGlobal() {
		return p
	}
	return Path{
		raw:  p.raw[len(GlobalsPrefix):],
		segs: p.segs[1:],
	}
}

// resolve applies the globals redirection to an (id, path) pair.
func resolve(id int, path string) (int, Path) {
	p := ParsePath(path)
	if p.IsGlobal() {
		return GlobalsID, p.Local()
	}
	return id, p
}
