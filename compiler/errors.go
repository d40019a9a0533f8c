package compiler

import (
	"errors"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by a Func when its context is done
	// before the evaluation completes.
	Interrupted = errors.New(InterruptedMessage)

	// Released is returned by Expression.Call after the last
	// Release.
	Released = errors.New("expression released")

	// NotAFunction occurs when generated code doesn't evaluate to
	// a function.
	NotAFunction = errors.New("not a function")
)

// SyntaxError occurs when the code generated for an expression does
// not compile.
//
// This error is an authoring error, which the caller of Compile
// should not try to recover from.
type SyntaxError struct {
	Expression string
	Source     string
	Err        error
}

func (e *SyntaxError) Error() string {
	return `expression "` + e.Expression + `" does not compile: ` + e.Err.Error()
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
