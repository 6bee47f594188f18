package status

import "fmt"

// StaticAssert checks an invariant over constants as early as possible:
// call it from a package-level var initializer or init(), and a violation
// panics before any other code in the program runs. This catches the
// condition at program-startup time rather than true compile time, which
// Go's type system cannot express for arbitrary boolean conditions.
func StaticAssert(cond bool, msg string) {
	if !cond {
		panic("static assertion failed: " + msg)
	}
}

// DebugHandler receives the assertion message. Installed via
// SetDebugHandler; nil means "no handler", in which case Debug halts in an
// infinite loop on an unrecoverable invariant violation, for an attached
// debugger to catch.
type DebugHandler func(msg string)

var debugHandler DebugHandler

// DebugAssertionsEnabled gates Debug. There is no way to strip code at
// compile time in Go, so this gates at a package variable instead — set
// false for the same no-op behavior a release build would have.
var DebugAssertionsEnabled = true

// SetDebugHandler installs the handler Debug invokes on failure. Passing
// nil reverts to the halt-in-a-loop behavior.
func SetDebugHandler(h DebugHandler) {
	debugHandler = h
}

// Debug checks cond and, on failure, invokes the installed handler or else
// blocks forever. It is a no-op when DebugAssertionsEnabled is false.
func Debug(cond bool, format string, args ...any) {
	if !DebugAssertionsEnabled || cond {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if debugHandler != nil {
		debugHandler(msg)
		return
	}
	select {}
}

// Verify is the always-on counterpart to Debug: it can never be disabled.
// A failed Verify panics with msg; callers that reach an
// unrecoverable internal-state violation (e.g. a corrupted free bitmask)
// should use Verify, never Debug, so the condition is never silently
// compiled away.
func Verify(cond bool, format string, args ...any) {
	if cond {
		return
	}
	panic("verify assertion failed: " + fmt.Sprintf(format, args...))
}
