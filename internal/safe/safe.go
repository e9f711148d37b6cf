// Package safe provides panic-safe goroutine launching and recovery helpers
// shared by the scheduler and future packages.
package safe

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"
)

// PanicError represents a recovered panic with additional metadata.
// It stores the time the panic occurred, the original panic value, the
// stack trace, and a cached error message.
type PanicError struct {
	time  time.Time
	info  any
	stack []byte
	cache atomic.Pointer[string]
}

// Error implements the error interface for PanicError.
func (e *PanicError) Error() string {
	if e.cache.Load() == nil {
		msg := fmt.Sprintf("panic: \ntimestamp: %s, \nerror: %+v, \nstack: %s",
			e.time.Format(time.RFC3339Nano), e.info, e.stack)
		e.cache.Store(&msg)
	}
	return *e.cache.Load()
}

// NewPanicError creates a new PanicError from a recovered panic value and stack trace.
func NewPanicError(info any, stack []byte) error {
	return &PanicError{time: time.Now(), info: info, stack: stack}
}

// Go launches fn in a new goroutine with panic recovery. Any recovered panic
// is reported to each of panicFns; if none are given the panic is swallowed.
func Go(fn func(), panicFns ...func(error)) {
	wrapped := WithRecover(fn, panicFns...)
	if wrapped == nil {
		return
	}
	go wrapped()
}

// WithRecover wraps fn so that a panic during its execution is recovered
// and reported to panicFns instead of propagating.
func WithRecover(fn func(), panicFns ...func(error)) func() {
	if fn == nil {
		return nil
	}
	return func() {
		defer func() {
			if r := recover(); r != nil {
				if len(panicFns) == 0 {
					return
				}
				err := NewPanicError(r, debug.Stack())
				for _, panicFn := range panicFns {
					panicFn(err)
				}
			}
		}()
		fn()
	}
}

// Call runs fn and converts a panic into a returned error instead of letting
// it unwind the stack. Used by combinators so that a user-supplied mapper or
// predicate that panics fails the downstream future rather than crashing the
// caller's goroutine.
func Call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewPanicError(r, debug.Stack())
		}
	}()
	return fn()
}
