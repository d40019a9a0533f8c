package expr

// TokenType is the kind of a Token.
type TokenType int

const (
	Word     TokenType = iota // Not yet classified.
	Number                    // A numeric literal.
	String                    // A quoted string (or a lone quote).
	Operator                  // A run of operator characters.
	Keyword                   // Punctuation and literal keywords.
	Space                     // Whitespace.
	Literal                   // A backtick.
	Property                  // A property path to qualify.
	Function                  // A function or method name.
	Object                    // Classifier state only.
)

var tokenTypeNames = []string{
	"word",
	"number",
	"string",
	"operator",
	"keyword",
	"space",
	"literal",
	"property",
	"function",
	"object",
}

func (t TokenType) String() string {
	if t < 0 || int(t) >= len(tokenTypeNames) {
		return "unknown"
	}
	return tokenTypeNames[t]
}

// Token is a typed fragment of an expression.
//
// Tokens only live for the duration of one Tokenize and Classify
// pass.
type Token struct {
	Type  TokenType `json:"type"`
	Value string    `json:"value"`
}

func (t *Token) String() string {
	return t.Type.String() + ":" + t.Value
}

// Is reports whether the token has the given type and value.
func (t *Token) Is(typ TokenType, value string) bool {
	return t != nil && t.Type == typ && t.Value == value
}

// IsKeyword reports whether the token is the given keyword.
func (t *Token) IsKeyword(value string) bool {
	return t.Is(Keyword, value)
}

var (
	// keywords are matched against a single character while
	// scanning and against a whole word when flushing.
	keywords = map[string]bool{
		"{":         true,
		"}":         true,
		"(":         true,
		")":         true,
		",":         true,
		"true":      true,
		"false":     true,
		"null":      true,
		"undefined": true,
		"[]":        true,
	}

	operatorStart = map[byte]bool{
		'=': true,
		'!': true,
		'<': true,
		'>': true,
		'+': true,
		'-': true,
		'*': true,
		'/': true,
		'&': true,
		'|': true,
		'?': true,
		':': true,
	}

	// MaxOperatorLength is the longest operator run Tokenize will
	// emit as a single token.
	MaxOperatorLength = 4
)

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
