package future

import "github.com/kestrel-go/future/scheduler"

// Promise is the writable face of a Future Core. Producer code holds the
// Promise; consumer code is handed only the Future returned by its Future()
// method, so it cannot complete the result itself.
type Promise[V any] struct {
	core *core[V]
}

// NewPromise creates a Pending promise. A nil executor defaults to
// scheduler.Default().
func NewPromise[V any](executor scheduler.Executor) Promise[V] {
	return Promise[V]{core: newCore[V](executor)}
}

// Future returns the read-only Future view of this promise.
func (p Promise[V]) Future() Future[V] {
	return Future[V]{core: p.core}
}

// TrySuccess completes the promise with value. It returns false if the
// promise was already terminal.
func (p Promise[V]) TrySuccess(value V) bool {
	return p.core.tryTransition(value, nil, StateSuccess)
}

// TryFailure completes the promise with err. It returns false if the
// promise was already terminal. err must not be nil.
func (p Promise[V]) TryFailure(err error) bool {
	if err == nil {
		panic("err is nil")
	}
	var zero V
	return p.core.tryTransition(zero, err, StateFailure)
}

// SetSuccess is TrySuccess, except the caller is asserting the promise was
// not already complete; a false return typically indicates a programming
// error in the caller, but is still returned rather than panicking so
// callers that want the assertion can choose to enforce it.
func (p Promise[V]) SetSuccess(value V) bool {
	return p.TrySuccess(value)
}

// SetFailure is TryFailure with the same caller-asserts-uniqueness contract
// as SetSuccess.
func (p Promise[V]) SetFailure(err error) bool {
	return p.TryFailure(err)
}

// Cancel is Future.Cancel, exposed on the Promise for producers that only
// hold the writable half.
func (p Promise[V]) Cancel(mayInterrupt bool) bool {
	return p.Future().Cancel(mayInterrupt)
}

// CancelWithCause is Future.CancelWithCause.
func (p Promise[V]) CancelWithCause(cause error) bool {
	return p.Future().CancelWithCause(cause)
}
