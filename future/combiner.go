package future

import (
	"sync"
	"sync/atomic"

	"github.com/kestrel-go/future/scheduler"
)

// CombinerMode selects how a FutureCombiner treats a failing or cancelled
// input.
type CombinerMode int

const (
	// RequireAllSucceed completes the combined future with the first
	// non-success input it observes (mirroring that input's exact state and
	// cause), and best-effort cancels every other still-pending input.
	RequireAllSucceed CombinerMode = iota

	// AcceptFailure waits for every input to reach a terminal state
	// regardless of outcome; a failed or cancelled input contributes its
	// zero value to the combined list rather than failing the whole.
	AcceptFailure
)

// FutureCombiner waits on a fixed set of Future[V], combining them into one
// Future[[]V] per its CombinerMode.
type FutureCombiner[V any] struct {
	mode    CombinerMode
	futures []Future[V]
}

// NewFutureCombiner creates a combiner over futures with the given mode.
func NewFutureCombiner[V any](mode CombinerMode, futures ...Future[V]) *FutureCombiner[V] {
	for _, f := range futures {
		requireCombinerFuture(f)
	}
	return &FutureCombiner[V]{mode: mode, futures: append([]Future[V](nil), futures...)}
}

// With appends more futures to the combiner, returning it for chaining. A
// null future is a programming error.
func (c *FutureCombiner[V]) With(futures ...Future[V]) *FutureCombiner[V] {
	for _, f := range futures {
		requireCombinerFuture(f)
	}
	c.futures = append(c.futures, futures...)
	return c
}

// requireCombinerFuture panics if f is the zero Future, i.e. was never
// produced by a Promise/FutureTask/combinator constructor.
func requireCombinerFuture[V any](f Future[V]) {
	if f.core == nil {
		panic("Next FutureCombiner future is required")
	}
}

// cancelOthers best-effort cancels (without interrupt) every input other
// than except, issuing the Cancel calls concurrently and waiting for all of
// them to return.
func (c *FutureCombiner[V]) cancelOthers(except int) {
	var wg sync.WaitGroup
	for i, f := range c.futures {
		if i == except {
			continue
		}
		f := f
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Cancel(false)
		}()
	}
	wg.Wait()
}

// AsList returns a Future of every input's value, in input order. Under
// RequireAllSucceed the combined future adopts the exact state and cause of
// the first input that does not succeed. Under AcceptFailure it always
// succeeds once every input is terminal, with a zero value standing in for
// any input that didn't.
func (c *FutureCombiner[V]) AsList() Future[[]V] {
	p := NewPromise[[]V](scheduler.Direct)
	n := len(c.futures)
	if n == 0 {
		p.TrySuccess(nil)
		return p.Future()
	}

	// Cancelling the combined future cancels every still-pending input.
	p.core.onCancel = func(mayInterrupt bool, cause error) {
		for _, f := range c.futures {
			f.Cancel(mayInterrupt)
		}
	}

	values := make([]V, n)
	var mu sync.Mutex
	remaining := int32(n)
	var settled atomic.Bool

	finish := func() {
		mu.Lock()
		out := append([]V(nil), values...)
		mu.Unlock()
		p.TrySuccess(out)
	}

	for i, f := range c.futures {
		i, f := i, f
		f.OnCompleted(func(res Future[V]) {
			if res.State() != StateSuccess {
				if c.mode == RequireAllSucceed {
					if settled.CompareAndSwap(false, true) {
						var zero []V
						p.core.tryTransition(zero, res.core.res.err, res.State())
						c.cancelOthers(i)
					}
					return
				}
			} else {
				mu.Lock()
				values[i] = res.Obtain()
				mu.Unlock()
			}
			if atomic.AddInt32(&remaining, -1) == 0 && !settled.Load() {
				finish()
			}
		})
	}
	return p.Future()
}

// AsVoid is AsList with the values discarded, useful when only "did every
// input finish (successfully)" matters.
func (c *FutureCombiner[V]) AsVoid() Future[Unit] {
	return MapNull(c.AsList(), nil)
}

// Call runs fn with the combined values once every input has settled,
// completing the returned future with fn's result.
func (c *FutureCombiner[V]) Call(fn func([]V) (V, error)) Future[V] {
	return Map(c.AsList(), fn)
}

// CallR is Call for a result type that differs from the inputs' type.
func CallR[V, R any](c *FutureCombiner[V], fn func([]V) (R, error)) Future[R] {
	return Map(c.AsList(), fn)
}

// Run runs fn for its side effect once every input has settled, completing
// the returned future with Unit{}.
func (c *FutureCombiner[V]) Run(fn func([]V)) Future[Unit] {
	return MapNull(c.AsList(), fn)
}
