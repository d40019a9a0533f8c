package expr

import (
	"strconv"
)

// Tokenize scans the expression into a flat sequence of Tokens.
//
// Words are left as Word (or Number, or Keyword for the literal
// keywords).  Call Classify to decide which words are properties and
// which are functions.
//
// The isLiteral flag says that the expression is template text (it
// contains "${" or "&{").  Tokenize itself scans template text and
// code the same way; the flag is accepted so that Tokenize and
// Classify can be called with the same arguments.
func Tokenize(expression string, isLiteral bool) []*Token {
	var (
		s      = expression
		tokens = make([]*Token, 0, 16)
		from   = -1 // Start of the pending word, if any.
	)

	emit := func(typ TokenType, value string) {
		tokens = append(tokens, &Token{Type: typ, Value: value})
	}

	// flush must run before any non-word token is emitted so
	// that the token order follows the text.
	flush := func(to int) {
		if from < 0 {
			return
		}
		w := s[from:to]
		from = -1
		switch {
		case keywords[w]:
			emit(Keyword, w)
		case isNumeric(w):
			emit(Number, w)
		default:
			emit(Word, w)
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isSpace(c):
			flush(i)
			emit(Space, string(c))

		case c == '`':
			flush(i)
			emit(Literal, "`")

		case c == '$' && i+1 < len(s) && s[i+1] == '{':
			flush(i)
			emit(Keyword, "${")
			i++

		case c == '\'' || c == '"':
			flush(i)
			end, interpolated := scanQuote(s, i)
			if end < 0 {
				// The string never ends.  Nothing after
				// the lone quote is scanned.
				emit(String, string(c))
				return tokens
			}
			if interpolated {
				// The interpolation gets its own tokens.
				emit(String, string(c))
				continue
			}
			emit(String, s[i:end+1])
			i = end

		case keywords[string(c)]:
			flush(i)
			emit(Keyword, string(c))

		case operatorStart[c]:
			flush(i)
			j := i + 1
			for j < len(s) && j-i < MaxOperatorLength && operatorStart[s[j]] {
				j++
			}
			emit(Operator, s[i:j])
			i = j - 1

		default:
			if from < 0 {
				from = i
			}
		}
	}
	flush(len(s))

	return tokens
}

// scanQuote looks for the quote that closes the one at s[at].
//
// Returns the index of the closing quote (or -1) and whether a "${"
// occurs before it.
func scanQuote(s string, at int) (int, bool) {
	q := s[at]
	for j := at + 1; j < len(s); j++ {
		switch s[j] {
		case q:
			return j, false
		case '$':
			if j+1 < len(s) && s[j+1] == '{' {
				return j, true
			}
		}
	}
	return -1, false
}

// isNumeric reports whether the word is a number.
//
// strconv.ParseFloat also accepts "inf" and "nan", which are
// identifiers here, so the first character has to look like a
// number too.
func isNumeric(w string) bool {
	if w == "" {
		return false
	}
	c := w[0]
	switch {
	case '0' <= c && c <= '9':
	case c == '.' && 1 < len(w) && '0' <= w[1] && w[1] <= '9':
	default:
		return false
	}
	_, err := strconv.ParseFloat(w, 64)
	return err == nil
}
