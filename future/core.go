package future

import (
	"sync/atomic"
	"time"

	"github.com/kestrel-go/future/scheduler"
)

// result holds the terminal payload of a core. It is written exactly once,
// by whichever goroutine wins the state CAS, strictly before done is
// closed. Every reader that needs the value or error gates on done (via a
// blocking receive or a non-blocking select), never on state alone, so the
// channel close is always the happens-before edge that makes the write
// visible.
type result[V any] struct {
	value V
	err   error
}

// core is the shared state machine behind Future, Promise and FutureTask.
// Promise and FutureTask differ only in what closure of state they hold on
// top of a core; the terminal state machine, listener fan-out and blocking
// primitives live here once.
type core[V any] struct {
	state    atomic.Int32
	res      result[V]
	done     chan struct{}
	queue    listenerQueue[V]
	executor scheduler.Executor

	// onCancel, when set by a combinator, propagates a cancellation of this
	// (downstream) core back to whatever upstream core(s) it was derived
	// from. It runs after the local transition has already won.
	onCancel func(mayInterrupt bool, cause error)
}

func newCore[V any](executor scheduler.Executor) *core[V] {
	if executor == nil {
		executor = scheduler.Default()
	}
	return &core[V]{
		done:     make(chan struct{}),
		executor: executor,
	}
}

// State returns the current completion state.
func (c *core[V]) State() State {
	return State(c.state.Load())
}

func (c *core[V]) isDone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// tryTransition is the single entry point every completion operation
// (trySuccess/tryFailure/tryCancel) funnels through. Only the first caller
// observing Pending wins; everyone else gets false and no state change.
func (c *core[V]) tryTransition(value V, err error, state State) bool {
	if !c.state.CompareAndSwap(int32(StatePending), int32(state)) {
		return false
	}
	c.res = result[V]{value: value, err: err}
	close(c.done)
	entries := c.queue.drain()
	for _, e := range entries {
		dispatchListener(e, Future[V]{core: c})
	}
	return true
}

// peek returns the result and a completed flag without blocking.
func (c *core[V]) peek() (result[V], bool) {
	if !c.isDone() {
		return result[V]{}, false
	}
	return c.res, true
}

// await blocks until the core reaches a terminal state, honoring abortCh as
// an early-exit signal (used to implement timeouts); it returns true if the
// core completed first, false if abortCh fired first.
func (c *core[V]) await(abortCh <-chan time.Time) bool {
	select {
	case <-c.done:
		return true
	case <-abortCh:
		return false
	}
}

// onCompleteRaw registers fn to run on executor when the core reaches a
// terminal state: immediately (possibly inline) if it already has, or upon
// transition otherwise. This is the primitive every On* helper builds on.
func (c *core[V]) onCompleteRaw(fn func(Future[V]), executor scheduler.Executor) {
	if executor == nil {
		executor = c.executor
	}
	entry := listenerEntry[V]{fn: fn, executor: executor}
	if c.queue.add(entry) {
		return
	}
	// Queue was already drained: the core completed between our caller
	// deciding to attach and the attempt to enqueue. Run immediately.
	dispatchListener(entry, Future[V]{core: c})
}

// getCause returns the cause to report for a non-success terminal state, or
// nil for Success/Pending.
func (c *core[V]) getCause() error {
	res, done := c.peek()
	if !done {
		return nil
	}
	return res.err
}
