package expr

import (
	"strconv"
	"strings"
)

// TranslateCall is the function generated code calls to look up a
// translation.
var TranslateCall = "crs.translate"

// TranslateFactory replaces each "&{key}" marker in code with an
// interpolated translation lookup.
//
// A leading "context." is removed from the key, so "&{context.a.b}"
// and "&{a.b}" look up the same thing.  Code without markers is
// returned as is.
func TranslateFactory(code string) string {
	return translateFactory(code, DefaultContextName)
}

func translateFactory(code, contextName string) string {
	start := strings.Index(code, "&{")
	if start < 0 {
		return code
	}
	end := strings.IndexByte(code[start:], '}')
	if end < 0 {
		// Unterminated.  Leave it for the compiler to protest.
		return code
	}
	end += start

	key := strings.TrimPrefix(code[start+2:end], contextName+".")
	call := "${" + TranslateCall + "(" + strconv.Quote(key) + ")}"

	return translateFactory(code[:start]+call+code[end+1:], contextName)
}
