// Package safeinvoke wraps a closure so a panic inside it is converted
// into status.Fault instead of escaping and crashing whichever goroutine
// called it. The thread pool uses this around every dispatched task, and
// the event bus uses it around every subscriber callback, so a single
// misbehaving task or subscriber cannot take down a worker or a
// publisher's call stack.
package safeinvoke

import "github.com/uniyakcom/cfcore/status"

// Run invokes fn and recovers any panic, logging it through logger (which
// may be status.NopLogger{}) and reporting status.Fault. A normal return
// yields status.OK.
func Run(fn func(), logger status.Logger) (code status.Code) {
	code = status.OK
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("recovered panic: %v", r)
			code = status.Fault
		}
	}()
	fn()
	return
}
