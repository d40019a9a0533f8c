package expr

import (
	"strings"
)

var (
	// DefaultContextName is the name of the binding context
	// variable in generated code when none is given.
	DefaultContextName = "context"

	// HTMLPrefix marks an expression whose result is HTML.
	HTMLPrefix = "$html."

	// Rewrites maps the reserved expression vocabulary to the
	// names that generated code uses at runtime.  "$context" is
	// handled separately since it becomes the context name.
	Rewrites = []Rewrite{
		{"$globals", "crs.globals"},
		{"$event", "event"},
		{"$data", "crs.getValue"},
		{"$parent", "parent"},
	}

	// AccessorSuffixes are dropped from the end of a dependency
	// path.
	AccessorSuffixes = []string{".trim", ".toLowerCase", ".toUpperCase"}

	// untracked marks property paths that are never dependencies.
	untracked = []string{"$data", "$event", "[", "]"}
)

// Rewrite replaces a reserved prefix in a property path.
type Rewrite struct {
	Prefix      string
	Replacement string
}

// Result is what Sanitize produces.
type Result struct {
	// IsLiteral says that Expression is template text, which
	// should be evaluated inside backticks.
	IsLiteral bool `json:"isLiteral"`

	// IsHTML says that the expression had the "$html." prefix.
	IsHTML bool `json:"isHTML,omitempty"`

	// Expression is generated code, not the original text.
	Expression string `json:"expression"`

	// Properties are the distinct dependency paths that the
	// expression reads.  These paths are only used for
	// subscriptions.
	Properties []string `json:"properties,omitempty"`
}

// Sanitize turns a binding expression into code that can be
// evaluated against a binding context named contextName.
//
// An empty contextName means DefaultContextName.
func Sanitize(expression, contextName string) *Result {
	if contextName == "" {
		contextName = DefaultContextName
	}

	r := &Result{}

	if strings.HasPrefix(expression, HTMLPrefix) {
		expression = expression[len(HTMLPrefix):]
		r.IsHTML = true
	}

	if isConstant(expression, contextName) {
		r.IsLiteral = true
		r.Expression = expression
		return r
	}

	r.IsLiteral = strings.Contains(expression, "${") || strings.Contains(expression, "&{")

	var (
		tokens = Classify(Tokenize(expression, r.IsLiteral), r.IsLiteral)
		code   strings.Builder
		seen   = make(map[string]bool)
		prefix = contextName + "."
	)

	for _, t := range tokens {
		if t.Type != Property {
			code.WriteString(t.Value)
			continue
		}
		code.WriteString(qualify(t.Value, contextName))

		if dep, ok := dependency(t.Value, prefix); ok && !seen[dep] {
			seen[dep] = true
			r.Properties = append(r.Properties, dep)
		}
	}

	// Array literals and index expressions get qualified along
	// with the word they are glued to.
	s := code.String()
	s = strings.ReplaceAll(s, prefix+"[", "[")
	s = strings.ReplaceAll(s, prefix+"]", "]")

	r.Expression = translateFactory(s, contextName)

	return r
}

// isConstant reports whether the expression can skip tokenization
// entirely.
func isConstant(expression, contextName string) bool {
	switch expression {
	case "null", "undefined", "true", "false", contextName, "${" + contextName + "}":
		return true
	}
	return isNumeric(expression)
}

// qualify rewrites one property path.
func qualify(p, contextName string) string {
	for _, r := range Rewrites {
		if strings.HasPrefix(p, r.Prefix) {
			return r.Replacement + p[len(r.Prefix):]
		}
	}
	if strings.HasPrefix(p, "$context") {
		return contextName + p[len("$context"):]
	}
	if strings.HasPrefix(p, contextName+".") || p == "new" {
		return p
	}
	return contextName + "." + p
}

// dependency derives the dependency path (if any) from a property
// path as written in the expression.
func dependency(p, prefix string) (string, bool) {
	for _, u := range untracked {
		if strings.Contains(p, u) {
			return "", false
		}
	}
	for _, suffix := range AccessorSuffixes {
		if strings.HasSuffix(p, suffix) {
			p = p[:len(p)-len(suffix)]
			break
		}
	}
	p = strings.TrimPrefix(p, prefix)
	if p == "" {
		return "", false
	}
	return p, true
}
