// Package panics translates a command handler's panic into an error
// string suitable for a WireError's details field. Grounded on
// decthings-model's mod.rs panic_hook/format_panic, but deliberately not a
// literal port: Rust needs a global std::panic::set_hook plus a later
// extraction step because panic unwinding and the code that observes it
// are different stack frames reached through a catch_unwind boundary. Go's
// recover is synchronous in the same deferred call that would otherwise
// propagate the panic, so one function covers both halves of the Rust
// split.
package panics

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// CatchErr runs fn and returns whatever error it returns, or a panic turned
// into an error carrying a formatted stack trace. This is the shape most
// command handlers want: they call a user model method that returns an
// error, and either outcome needs to end up as one error value they can
// fold into a WireError. name identifies the command in the resulting
// message (e.g. "callTrain id=...").
func CatchErr(name string, fn func() error) (err error, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			err = errors.New(format(name, r))
		}
	}()
	return fn(), false
}

// CatchErr1 is CatchErr for a model method that also returns a result
// value alongside its error (InstantiateModel, Evaluate).
func CatchErr1[T any](name string, fn func() (T, error)) (result T, err error, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			err = errors.New(format(name, r))
		}
	}()
	result, err = fn()
	return result, err, false
}

// format reproduces decthings-model's panic_hook/format_panic message shape:
// "Thread '<name>' panicked at <file>:<line>:<col>:\n<msg>\nBacktrace:\n<bt>".
func format(name string, r interface{}) string {
	file, line, col := location()
	bt := string(debug.Stack())
	if bt == "" {
		bt = "<Backtrace not found>"
	}
	return fmt.Sprintf("Thread '%s' panicked at %s:%d:%d:\n%s\nBacktrace:\n%s", name, file, line, col, details(r), bt)
}

// details matches the Rust formatter's fallback: only a string or error
// payload carries a real message, anything else becomes the literal
// "<unknown panic info>" the original emits for non-string/non-error panic
// values (e.g. std::any::Any downcast failures).
func details(r interface{}) string {
	switch v := r.(type) {
	case string:
		return v
	case error:
		return v.Error()
	default:
		return "<unknown panic info>"
	}
}

// location finds the source position of the panicking frame by walking the
// call stack and skipping frames inside the runtime's panic machinery and
// this package's own recovery wrapper, so the reported site is the user
// code that actually panicked rather than recover() itself. Go's
// runtime.Frame carries no column information, so col is always reported as
// 1 (a placeholder, not a real source column).
func location() (file string, line, col int) {
	var pcs [64]uintptr
	n := runtime.Callers(0, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	var last runtime.Frame
	for {
		frame, more := frames.Next()
		last = frame
		if !strings.Contains(frame.Function, "runtime.") && !strings.Contains(frame.Function, "/internal/panics.") {
			return frame.File, frame.Line, 1
		}
		if !more {
			break
		}
	}
	return last.File, last.Line, 1
}
