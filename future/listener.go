package future

import (
	"log/slog"
	"sync"

	"github.com/kestrel-go/future/internal/safe"
	"github.com/kestrel-go/future/scheduler"
)

// listenerEntry pairs a completion callback with the executor it must run
// on. The callback always receives the terminal Future; the public
// OnSuccess/OnFailed/... helpers are thin filters layered on top of it.
type listenerEntry[V any] struct {
	fn       func(Future[V])
	executor scheduler.Executor
}

// listenerQueue is an append-only list of listeners, valid only while the
// owning core is Pending. It keeps the first registered listener inline to
// avoid a slice allocation in the (very common) single-listener case, and is
// drained exactly once by the completer.
type listenerQueue[V any] struct {
	mu     sync.Mutex
	drawn  bool // true once drained; queue is read-only from then on
	first  listenerEntry[V]
	hasOne bool
	rest   []listenerEntry[V]
}

// add appends an entry. It returns false if the queue has already been
// drained, in which case the caller is responsible for running the listener
// itself (the future already completed between the caller's check and this
// call).
func (q *listenerQueue[V]) add(entry listenerEntry[V]) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.drawn {
		return false
	}
	if !q.hasOne {
		q.first = entry
		q.hasOne = true
		return true
	}
	q.rest = append(q.rest, entry)
	return true
}

// drain marks the queue drained and returns every entry registered so far,
// in registration order. Only the completer calls this, and only once.
func (q *listenerQueue[V]) drain() []listenerEntry[V] {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.drawn = true
	if !q.hasOne {
		return nil
	}
	entries := make([]listenerEntry[V], 0, 1+len(q.rest))
	entries = append(entries, q.first)
	entries = append(entries, q.rest...)
	q.rest = nil
	return entries
}

// dispatchListener submits entry.fn to entry.executor, recovering a
// panicking listener so it can neither affect the future's own state nor
// stop sibling listeners from running. Executor.Execute has no error
// result; what happens when a pool rejects the submission is up to the
// executor (the pool-backed scheduler falls back to a bare goroutine).
func dispatchListener[V any](entry listenerEntry[V], f Future[V]) {
	run := safe.WithRecover(func() {
		entry.fn(f)
	}, reportListenerPanic)
	entry.executor.Execute(run)
}

func reportListenerPanic(err error) {
	slog.Default().Error("future: listener panicked", "error", err)
}
