// Package expr turns binding expressions into executable code.
//
// A binding expression is a small piece of ECMAScript-like text found
// in an attribute, such as
//
//    firstName.trim() + " " + lastName
//
// or a template such as
//
//    ${firstName} is &{greeting}
//
// Tokenize scans the text into a flat list of Tokens.  Classify then
// makes a second pass that decides which words are property paths
// and which are function calls.  Sanitize puts these together: it
// qualifies property paths with the binding context's name, rewrites
// the reserved "$" vocabulary ($globals, $event, $context, $data,
// $parent) into runtime accessors, collects the dependency paths
// that the expression reads, and finally runs TranslateFactory to
// turn "&{key}" markers into translation lookups.
//
// This package does not execute anything.  See the compiler package
// for that.
package expr
