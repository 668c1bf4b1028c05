// Package invariant provides contract assertions for the e-graph engine.
//
// Use Precondition to express API contracts and Invariant for internal
// consistency checks such as canonicalization after a rebuild. All functions
// panic on violation - these are programming errors, not user errors, and an
// engine that trips one must be discarded.
package invariant

import (
	"fmt"
	"runtime"
)

// Precondition checks an input contract at function entry.
// Panics with PRECONDITION VIOLATION if condition is false.
func Precondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before function return.
// Panics with POSTCONDITION VIOLATION if condition is false.
func Postcondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks an internal invariant during function execution.
// Panics with INVARIANT VIOLATION if condition is false.
//
// Example:
//
//	for len(g.pending) > 0 {
//	    // ... repair one class ...
//	    invariant.Invariant(rounds < maxRounds, "rebuild must make progress")
//	}
func Invariant(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// fail panics with a formatted message including the violation site.
func fail(kind, format string, args ...interface{}) {
	msg := fmt.Sprintf("%s VIOLATION: "+format, append([]interface{}{kind}, args...)...)

	// Capture the frame where the violation occurred (skip fail and wrapper).
	pc := make([]uintptr, 1)
	if n := runtime.Callers(3, pc); n > 0 {
		frames := runtime.CallersFrames(pc)
		if frame, _ := frames.Next(); frame.File != "" {
			msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
		}
	}

	panic(msg)
}
