package expr

import (
	"strings"
)

// Classify makes a second pass over tokens from Tokenize and decides
// which Words are Properties and which are Functions.
//
// There is no grammar.  The decision is made from position and
// punctuation alone, which is enough to tell apart expressions like
// "a.b.trim()", "obj.field" and "fn(x)".  A dotted call chain is
// split into a Property for the object and a Function for the method
// ("a.b.trim" becomes "a.b" and ".trim").
//
// Tokens are modified in place.  Since splitting a call chain can
// insert tokens, the caller must use the returned slice.
func Classify(tokens []*Token, isLiteral bool) []*Token {
	if len(tokens) == 1 && tokens[0].Type == Word {
		tokens[0].Type = Property
		return tokens
	}

	state := make([]TokenType, 0, 4)

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]

		switch t.Type {
		case Keyword:
			switch t.Value {
			case "${":
				state = append(state, Literal)
			case "{":
				state = append(state, Object)
			case "}":
				if 0 < len(state) {
					state = state[:len(state)-1]
				}
			case "(":
				if split(tokens, i) {
					tokens = append(tokens, nil)
					copy(tokens[i+1:], tokens[i:])
					prev := tokens[i-1]
					dot := strings.LastIndex(prev.Value, ".")
					tokens[i] = &Token{
						Type:  Function,
						Value: prev.Value[dot:],
					}
					prev.Value = prev.Value[:dot]
					i++
				}
			}

		case Word:
			if classifyWord(tokens, i, state, isLiteral) {
				// The "(" of a method call off an
				// interpolation needs no attention.
				i++
			}
		}
	}

	if 0 < len(tokens) && tokens[0].Type == Function {
		// A leading call target still has to be looked up.
		tokens[0].Type = Property
	}

	return tokens
}

// split looks at the Property (if any) in front of the "(" at
// tokens[i].
//
// A path without a dot is promoted to a Function in place.  Returns
// true when the path is a call chain that needs to be split at its
// last dot.
func split(tokens []*Token, i int) bool {
	if i == 0 {
		return false
	}
	prev := tokens[i-1]
	if prev.Type != Property || strings.HasPrefix(prev.Value, "$") {
		return false
	}
	dot := strings.LastIndex(prev.Value, ".")
	if dot <= 0 {
		prev.Type = Function
		return false
	}
	return true
}

// classifyWord applies the Word rules to tokens[i].  Returns true if
// the following token was consumed.
func classifyWord(tokens []*Token, i int, state []TokenType, isLiteral bool) bool {
	var (
		t       = tokens[i]
		current TokenType
		nested  = 0 < len(state)
	)
	if nested {
		current = state[len(state)-1]
	}

	at := func(j int) *Token {
		if j < 0 || len(tokens) <= j {
			return nil
		}
		return tokens[j]
	}

	if nested && current == Literal {
		if strings.HasPrefix(t.Value, ".") && at(i+1).IsKeyword("(") {
			t.Type = Function
			return true
		}
		t.Type = Property
		return false
	}

	if dot := strings.Index(t.Value, "."); 0 <= dot {
		if dot == 0 && at(i-1).IsKeyword(")") {
			t.Type = Function
		} else {
			t.Type = Property
		}
		return false
	}

	if !nested || current != Object {
		isOp := func(j int) bool {
			u := at(j)
			return u != nil && u.Type == Operator
		}
		if isOp(i+1) || isOp(i+2) {
			t.Type = Property
			return false
		}
		if !isLiteral && (isOp(i-1) || isOp(i-2)) {
			t.Type = Property
			return false
		}
	}

	if i == 0 && at(i+1).IsKeyword("(") {
		t.Type = Property
	}

	return false
}
