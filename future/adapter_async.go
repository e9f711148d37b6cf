package future

import (
	"context"
	"sync"

	"github.com/kestrel-go/future/scheduler"
)

// AsyncResult is a context-governed completion handle: the idiomatic
// promise-like shape this package's surrounding codebase already uses
// outside the combinator pipeline, where cancellation comes from a
// context.Context (Cancel cancels the handle's own context). Completable/
// FromAsyncResult bridge it to Future so the two styles interoperate.
type AsyncResult[V any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	value  V
	err    error
	done   chan struct{}
	once   sync.Once
}

// NewAsyncResult creates a handle governed by ctx: it completes with
// ctx.Err() if ctx is cancelled before SetResult/SetError is called, or if
// Cancel is called directly.
func NewAsyncResult[V any](ctx context.Context) *AsyncResult[V] {
	derived, cancel := context.WithCancel(ctx)
	ar := &AsyncResult[V]{ctx: derived, cancel: cancel, done: make(chan struct{})}
	go ar.awaitContext()
	return ar
}

func (ar *AsyncResult[V]) awaitContext() {
	select {
	case <-ar.ctx.Done():
		var zero V
		ar.complete(zero, ar.ctx.Err())
	case <-ar.done:
	}
}

func (ar *AsyncResult[V]) complete(v V, err error) {
	ar.once.Do(func() {
		ar.mu.Lock()
		ar.value, ar.err = v, err
		ar.mu.Unlock()
		close(ar.done)
		ar.cancel()
	})
}

// Cancel cancels ar's governing context, completing ar with context.Canceled
// if it had not already completed. This is the outbound half of the
// host-standard-completion-handle adapter contract: cancelling the handle
// must cancel it, best effort, without interrupting any in-flight worker.
func (ar *AsyncResult[V]) Cancel() {
	ar.cancel()
}

// SetResult completes the handle with v. A no-op if already complete.
func (ar *AsyncResult[V]) SetResult(v V) { ar.complete(v, nil) }

// SetError completes the handle with err. A no-op if already complete.
func (ar *AsyncResult[V]) SetError(err error) {
	var zero V
	ar.complete(zero, err)
}

// Done reports completion the same way ctx.Done does.
func (ar *AsyncResult[V]) Done() <-chan struct{} { return ar.done }

// Result blocks until the handle completes and returns its value and error.
func (ar *AsyncResult[V]) Result() (V, error) {
	<-ar.done
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	return ar.value, ar.err
}

// Completable bridges f to an AsyncResult governed by ctx. The handle
// completes as soon as f does, with f's unwrapped cause on non-success (the
// same presentation Join uses), or with ctx's own error if ctx is cancelled
// first. Cancelling the completable (i.e. cancelling ctx) cancels f in turn,
// best effort and without interrupting any in-flight worker.
func (f Future[V]) Completable(ctx context.Context) *AsyncResult[V] {
	ar := NewAsyncResult[V](ctx)
	f.OnCompleted(func(res Future[V]) {
		if res.State() == StateSuccess {
			ar.SetResult(res.Obtain())
			return
		}
		ar.SetError(res.core.res.err)
	})
	go func() {
		select {
		case <-f.core.done:
		case <-ctx.Done():
			// Let ar settle with ctx's error first, so the cancellation
			// listener above finds it already complete.
			<-ar.Done()
			f.Cancel(false)
		}
	}()
	return ar
}

// FromAsyncResult adapts ar into a Future so it can be composed with the
// combinator pipeline. Cancelling the returned future cancels ar's
// governing context in turn (best effort, without interrupting any
// in-flight worker).
func FromAsyncResult[V any](ar *AsyncResult[V]) Future[V] {
	p := NewPromise[V](scheduler.Direct)
	p.core.onCancel = func(mayInterrupt bool, cause error) {
		ar.Cancel()
	}
	go func() {
		v, err := ar.Result()
		if err != nil {
			p.TryFailure(unwrapExecution(err))
			return
		}
		p.TrySuccess(v)
	}()
	return p.Future()
}
