package future

import (
	"fmt"
	"sync"

	"github.com/kestrel-go/future/internal/safe"
	"github.com/kestrel-go/future/scheduler"
)

// Callable is the computation a FutureTask executes. It receives an
// interrupt channel that is closed if the task is cancelled with
// mayInterrupt=true, so long-running work can check it periodically and
// stop early.
type Callable[V any] func(interrupt <-chan struct{}) (V, error)

// FutureTask binds a Callable to a Promise. Submitting it to an executor
// runs the callable and completes the underlying future with its result.
type FutureTask[V any] struct {
	promise       Promise[V]
	task          Callable[V]
	interrupt     chan struct{}
	closeInterrupt sync.Once
	runOnce       sync.Once
}

// NewFutureTask creates a FutureTask bound to task, without scheduling it.
// Call Execute to run it on executor (nil selects scheduler.Default()).
func NewFutureTask[V any](task Callable[V], executor scheduler.Executor) *FutureTask[V] {
	if task == nil {
		panic("task is nil")
	}
	t := &FutureTask[V]{
		promise:   NewPromise[V](executor),
		task:      task,
		interrupt: make(chan struct{}),
	}
	t.promise.core.onCancel = func(mayInterrupt bool, cause error) {
		if mayInterrupt {
			t.closeInterrupt.Do(func() { close(t.interrupt) })
		}
	}
	return t
}

// Run wraps a side-effecting Runnable as a Callable producing result once it
// completes, mirroring the Runnable+fixed-result overload of a Java
// ExecutorService.
func Run[V any](runnable func(interrupt <-chan struct{}) error, result V) Callable[V] {
	return func(interrupt <-chan struct{}) (V, error) {
		if err := runnable(interrupt); err != nil {
			var zero V
			return zero, err
		}
		return result, nil
	}
}

// NewFutureTaskAndRun creates a FutureTask and immediately submits it to
// executor (nil selects scheduler.Default()).
func NewFutureTaskAndRun[V any](task Callable[V], executor scheduler.Executor) *FutureTask[V] {
	t := NewFutureTask(task, executor)
	t.Execute()
	return t
}

// Future returns the read-only view of the task's result.
func (t *FutureTask[V]) Future() Future[V] {
	return t.promise.Future()
}

// Execute submits the task's run step to its executor. Safe to call more
// than once; only the first submission has any effect on what runs, though
// Execute itself may be invoked redundantly.
func (t *FutureTask[V]) Execute() {
	t.promise.core.executor.Execute(t.run)
}

// run is the worker body: check for a pre-emptive cancellation, invoke the
// callable, then commit whichever outcome wins the race with a concurrent
// cancellation.
func (t *FutureTask[V]) run() {
	t.runOnce.Do(func() {
		if t.promise.core.State().IsTerminal() {
			return
		}
		v, err := t.invoke()
		if err != nil {
			t.promise.TryFailure(err)
		} else {
			t.promise.TrySuccess(v)
		}
	})
}

func (t *FutureTask[V]) invoke() (v V, err error) {
	err = safe.Call(func() error {
		var callErr error
		v, callErr = t.task(t.interrupt)
		return callErr
	})
	return v, err
}

// Cancel attempts to cancel the task. If mayInterrupt is true and the
// cancellation wins, the interrupt channel is closed so a running worker
// observing it can stop early.
func (t *FutureTask[V]) Cancel(mayInterrupt bool) bool {
	ok := t.Future().Cancel(mayInterrupt)
	if ok && mayInterrupt {
		t.closeInterrupt.Do(func() { close(t.interrupt) })
	}
	return ok
}

func (t *FutureTask[V]) String() string {
	state := t.promise.core.State()
	if state.IsTerminal() {
		return fmt.Sprintf("FutureTask[state=%s]", state)
	}
	return fmt.Sprintf("FutureTask[state=%s, task = %v]", state, t.task)
}
