package future

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. Message text is part of the public contract: callers are
// allowed to match on these strings (via errors.Is or, for the formatted
// ones, via fmt.Errorf wrapping), so wording must stay stable.
var (
	// ErrCancelled is what the default cancellation cause matches via
	// errors.Is when no explicit cause was supplied; GetCause returns the
	// built-in marker (see IsCancellationCause), not ErrCancelled itself.
	ErrCancelled = errors.New("future: cancelled")

	// ErrResultRequired is returned by Obtain when the future is not
	// (yet, or ever going to be) a Success.
	ErrResultRequired = errors.New("Result is required")
)

// timeoutError is the failure a blocking call or the Timeout combinator
// produces when a deadline elapses. It implements net.Error-style Timeout()
// so callers used to that convention can detect it without string matching,
// while still exposing a stable Error() string.
type timeoutError struct {
	msg string
}

func (e *timeoutError) Error() string { return e.msg }
func (e *timeoutError) Timeout() bool { return true }

// IsTimeout reports whether err is (or wraps) a timeout produced by this
// package.
func IsTimeout(err error) bool {
	var te *timeoutError
	return errors.As(err, &te)
}

// blockingTimeoutError builds the stable message used by Get/Join/Block with
// an explicit duration argument.
func blockingTimeoutError(d time.Duration) error {
	return &timeoutError{msg: fmt.Sprintf("Timeout on blocking read for %d ms", d.Milliseconds())}
}

// combinatorTimeoutError builds the stable message used by the Timeout
// combinator. The duration is deliberately truncated to whole seconds,
// matching the historical behavior this package preserves.
func combinatorTimeoutError(d time.Duration) error {
	return &timeoutError{msg: fmt.Sprintf("Timeout, after %d seconds", int64(d.Truncate(time.Second).Seconds()))}
}

// executionError wraps a stored cause the way Get/Get-with-timeout present
// it: as a layer around the original cause, analogous to an
// ExecutionException. Join/Block/Sync instead rethrow the cause unwrapped;
// see Future.Get vs Future.Join.
type executionError struct {
	cause error
}

func (e *executionError) Error() string { return "future: execution failed: " + e.cause.Error() }
func (e *executionError) Unwrap() error { return e.cause }

// wrapExecution builds the wrapped presentation Get/GetWithTimeout/
// Completable().Get return for a non-success terminal cause.
func wrapExecution(cause error) error {
	if cause == nil {
		return nil
	}
	return &executionError{cause: cause}
}

// unwrapExecution peels exactly one layer of execution-wrapping, used by the
// host-standard-completion-handle adapter on the way in so the native cause
// is preserved rather than double-wrapped.
func unwrapExecution(err error) error {
	var ee *executionError
	if errors.As(err, &ee) {
		return ee.cause
	}
	return err
}
