// Package future implements a composable asynchronous result pipeline: a
// Future/Promise pair with listener fan-out, functional combinators,
// multi-future combiners, timeouts, and bridges to a blocking get/join style
// API, to a single-value reactive publisher, and to a context-based
// completion handle.
package future

import (
	"context"
	"errors"
	"time"

	"github.com/kestrel-go/future/scheduler"
)

// Future is the read-only, observable face of a Future Core. It is a small
// value type wrapping a pointer to the shared core, so copying a Future is
// cheap and every copy observes the same completion.
type Future[V any] struct {
	core *core[V]
}

// Optional distinguishes "no value" from "the value happens to be the zero
// value", used by Block so a successful future holding e.g. the empty
// string is never confused with a future that hasn't completed.
type Optional[V any] struct {
	value V
	ok    bool
}

// Get returns the held value and whether one is present.
func (o Optional[V]) Get() (V, bool) { return o.value, o.ok }

// IsSuccess reports whether the future completed with a value.
func (f Future[V]) IsSuccess() bool { return f.core.State() == StateSuccess }

// IsCancelled reports whether the future was cancelled (with or without
// interrupt).
func (f Future[V]) IsCancelled() bool { return f.core.State().IsCancelled() }

// IsFailed reports whether the future reached any terminal state other than
// Success: a plain Failure or a Cancelled/InterruptedCancelled.
func (f Future[V]) IsFailed() bool {
	s := f.core.State()
	return s.IsTerminal() && s != StateSuccess
}

// IsFailure reports whether the future failed with a business error, as
// opposed to having been cancelled. IsFailed() && !IsCancelled().
func (f Future[V]) IsFailure() bool {
	return f.core.State() == StateFailure
}

// IsDone reports whether the future has reached any terminal state.
func (f Future[V]) IsDone() bool { return f.core.State().IsTerminal() }

// State returns the current completion state.
func (f Future[V]) State() State { return f.core.State() }

// GetNow returns the value and true if the future is a Success; otherwise
// the zero value and false. It never blocks.
func (f Future[V]) GetNow() (V, bool) {
	res, done := f.core.peek()
	if !done || f.core.State() != StateSuccess {
		var zero V
		return zero, false
	}
	return res.value, true
}

// Obtain returns the success value or panics with ErrResultRequired. It is
// meant for call sites that have already established, by construction, that
// the future is a Success — the same contract as the teacher's
// ResultNow/ErrorNow panics.
func (f Future[V]) Obtain() V {
	v, ok := f.GetNow()
	if !ok {
		panic(ErrResultRequired)
	}
	return v
}

// GetCause returns the stored cause for any non-success terminal state, or
// nil for Success or Pending.
func (f Future[V]) GetCause() error {
	return f.core.getCause()
}

// Get blocks until the future completes and returns the value, or an error
// wrapping the cause (for Failure/Cancelled) if it did not succeed.
func (f Future[V]) Get() (V, error) {
	<-f.core.done
	res := f.core.res
	if f.core.State() != StateSuccess {
		var zero V
		return zero, wrapExecution(res.err)
	}
	return res.value, nil
}

// GetWithTimeout is Get bounded by d. On timeout it returns a stable
// "Timeout on blocking read" error without cancelling the future.
func (f Future[V]) GetWithTimeout(d time.Duration) (V, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	if !f.core.await(timer.C) {
		var zero V
		return zero, blockingTimeoutError(d)
	}
	return f.Get()
}

// Join blocks until the future completes and returns the value, or the
// original unwrapped cause on failure/cancellation.
func (f Future[V]) Join() (V, error) {
	<-f.core.done
	res := f.core.res
	if f.core.State() != StateSuccess {
		var zero V
		return zero, res.err
	}
	return res.value, nil
}

// JoinWithTimeout is Join bounded by d; a deadline that elapses first is
// non-cancelling and returns a stable timeout error, leaving the future
// running.
func (f Future[V]) JoinWithTimeout(d time.Duration) (V, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	if !f.core.await(timer.C) {
		var zero V
		return zero, blockingTimeoutError(d)
	}
	return f.Join()
}

// JoinWithTimeoutInterrupt is JoinWithTimeout, except a deadline that
// elapses first cancels the future (interrupting it if mayInterrupt is
// true) before returning the timeout error.
func (f Future[V]) JoinWithTimeoutInterrupt(d time.Duration, mayInterrupt bool) (V, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	if !f.core.await(timer.C) {
		f.Cancel(mayInterrupt)
		var zero V
		return zero, blockingTimeoutError(d)
	}
	return f.Join()
}

// Block is Join wrapped in an Optional so the caller can distinguish a
// genuinely absent result from a Success(zero-value).
func (f Future[V]) Block() (Optional[V], error) {
	v, err := f.Join()
	if err != nil {
		return Optional[V]{}, err
	}
	return Optional[V]{value: v, ok: true}, nil
}

// BlockWithTimeout is Block bounded by d, with JoinWithTimeout's
// non-cancelling timeout semantics.
func (f Future[V]) BlockWithTimeout(d time.Duration) (Optional[V], error) {
	v, err := f.JoinWithTimeout(d)
	if err != nil {
		return Optional[V]{}, err
	}
	return Optional[V]{value: v, ok: true}, nil
}

// Await blocks until the future reaches a terminal state or ctx is done,
// whichever happens first, returning f for chaining. A ctx error is
// returned if it won the race; the future itself is left untouched either
// way.
func (f Future[V]) Await(ctx context.Context) (Future[V], error) {
	select {
	case <-f.core.done:
		return f, nil
	case <-ctx.Done():
		return f, ctx.Err()
	}
}

// AwaitWithTimeout is Await bound by a duration instead of a context.
func (f Future[V]) AwaitWithTimeout(d time.Duration) (Future[V], error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	if f.core.await(timer.C) {
		return f, nil
	}
	return f, blockingTimeoutError(d)
}

// AwaitUninterruptibly blocks until the future reaches a terminal state,
// ignoring any surrounding context cancellation, and returns f.
func (f Future[V]) AwaitUninterruptibly() Future[V] {
	<-f.core.done
	return f
}

// Sync awaits completion and, if the terminal state is not Success, returns
// the cause unwrapped (the same presentation as Join).
func (f Future[V]) Sync(ctx context.Context) (Future[V], error) {
	if _, err := f.Await(ctx); err != nil {
		return f, err
	}
	if f.core.State() != StateSuccess {
		return f, f.core.res.err
	}
	return f, nil
}

// SyncUninterruptibly is Sync using AwaitUninterruptibly.
func (f Future[V]) SyncUninterruptibly() (Future[V], error) {
	f.AwaitUninterruptibly()
	if f.core.State() != StateSuccess {
		return f, f.core.res.err
	}
	return f, nil
}

// Cancel requests cancellation of the future with the default cancellation
// cause. mayInterrupt distinguishes StateCancelled from
// StateInterruptedCancelled so a FutureTask worker can tell whether it
// should stop early. It returns true if this call won the transition.
func (f Future[V]) Cancel(mayInterrupt bool) bool {
	state := StateCancelled
	if mayInterrupt {
		state = StateInterruptedCancelled
	}
	cause := defaultCancelCause(mayInterrupt)
	var zero V
	ok := f.core.tryTransition(zero, cause, state)
	if ok && f.core.onCancel != nil {
		f.core.onCancel(mayInterrupt, cause)
	}
	return ok
}

// CancelWithCause cancels the future, storing cause verbatim instead of the
// default marker. GetCause then returns exactly cause.
func (f Future[V]) CancelWithCause(cause error) bool {
	if cause == nil {
		panic("cause is nil")
	}
	var zero V
	ok := f.core.tryTransition(zero, cause, StateCancelled)
	if ok && f.core.onCancel != nil {
		f.core.onCancel(false, cause)
	}
	return ok
}

// OnCompleted registers fn to run, on the future's executor, once the
// future reaches a terminal state. If it already has, fn runs immediately
// (inline under the direct executor). Returns f for chaining.
func (f Future[V]) OnCompleted(fn func(Future[V])) Future[V] {
	f.core.onCompleteRaw(fn, nil)
	return f
}

// OnCompletedSplit is the two-callback convenience form of OnCompleted.
func (f Future[V]) OnCompletedSplit(onSuccess func(V), onFailure func(error)) Future[V] {
	return f.OnCompleted(func(res Future[V]) {
		if res.State() == StateSuccess {
			if onSuccess != nil {
				onSuccess(res.Obtain())
			}
			return
		}
		if onFailure != nil {
			onFailure(res.core.res.err)
		}
	})
}

// OnSuccess registers fn to run with the value if the future succeeds.
func (f Future[V]) OnSuccess(fn func(V)) Future[V] {
	return f.OnCompleted(func(res Future[V]) {
		if res.State() == StateSuccess {
			fn(res.Obtain())
		}
	})
}

// OnFailed registers fn to run for ANY non-success terminal state,
// including cancellation. Contrast with OnFailure.
func (f Future[V]) OnFailed(fn func(error)) Future[V] {
	return f.OnCompleted(func(res Future[V]) {
		if res.IsFailed() {
			fn(res.core.res.err)
		}
	})
}

// OnFailure registers fn to run only for a plain (non-cancellation)
// Failure. Contrast with OnFailed.
func (f Future[V]) OnFailure(fn func(error)) Future[V] {
	return f.OnCompleted(func(res Future[V]) {
		if res.IsFailure() {
			fn(res.core.res.err)
		}
	})
}

// OnFailurePredicate runs fn only when pred(cause) is true for a plain
// Failure.
func (f Future[V]) OnFailurePredicate(pred func(error) bool, fn func(error)) Future[V] {
	return f.OnFailure(func(err error) {
		if pred(err) {
			fn(err)
		}
	})
}

// OnFailureAs runs fn only when the failure cause matches target's type via
// errors.As, mirroring onFailure(Class, listener).
func OnFailureAs[V any, E error](f Future[V], fn func(E)) Future[V] {
	return f.OnFailure(func(err error) {
		var target E
		if errors.As(err, &target) {
			fn(target)
		}
	})
}

// OnCancelled registers fn to run, with the cancellation cause, if the
// future is cancelled (with or without interrupt).
func (f Future[V]) OnCancelled(fn func(cause error)) Future[V] {
	return f.OnCompleted(func(res Future[V]) {
		if res.IsCancelled() {
			fn(res.core.res.err)
		}
	})
}

// OnFinally registers fn to run once the future reaches any terminal state,
// regardless of outcome.
func (f Future[V]) OnFinally(fn func()) Future[V] {
	return f.OnCompleted(func(Future[V]) {
		fn()
	})
}

// WithExecutor attaches executor as the default executor new listeners on f
// run on; it does not affect listeners already registered.
func (f Future[V]) WithExecutor(executor scheduler.Executor) Future[V] {
	f.core.executor = executor
	return f
}
