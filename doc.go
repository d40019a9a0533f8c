// Package binder provides data binding for declarative UIs.
//
// Binding expressions are tokenized and sanitized by package expr,
// compiled and cached by package compiler, and kept current by the
// reactive store in package core, which tells element providers
// (package providers) when the properties an expression reads have
// changed.  Package sheet loads binding contexts and bindings from
// YAML, and cmd/bindtool exercises all of it from the command line.
package binder
