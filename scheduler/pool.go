package scheduler

import (
	"context"
	"sync/atomic"

	"github.com/gammazero/workerpool"
	"github.com/panjf2000/ants/v2"
	conc "github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/semaphore"

	"github.com/kestrel-go/future/internal/safe"
)

// Pool is the common interface for goroutine pool implementations. Any pool
// satisfying it can be turned into a Scheduler with FromPool.
type Pool interface {
	// Submit submits f for concurrent execution. It returns an error if the
	// pool rejects the submission (e.g. it has been shut down).
	Submit(f func()) error
}

// poolAdapter turns a plain submit function into a Pool.
type poolAdapter func(f func()) error

func (p poolAdapter) Submit(f func()) error {
	return p(f)
}

// PoolOfNoPool returns a Pool that launches an unbounded goroutine per task,
// with panic recovery but no concurrency limit or reuse. It is the package
// default.
func PoolOfNoPool() Pool {
	return poolAdapter(func(f func()) error {
		safe.Go(f)
		return nil
	})
}

// PoolOfAnts adapts a panjf2000/ants pool.
func PoolOfAnts(pool *ants.Pool) Pool {
	if pool == nil {
		panic("ants pool is nil")
	}
	return poolAdapter(func(f func()) error {
		return pool.Submit(f)
	})
}

// PoolOfWorkerpool adapts a gammazero/workerpool.
func PoolOfWorkerpool(pool *workerpool.WorkerPool) Pool {
	if pool == nil {
		panic("worker pool is nil")
	}
	return poolAdapter(func(f func()) error {
		pool.Submit(f)
		return nil
	})
}

// PoolOfConc adapts a sourcegraph/conc pool.
func PoolOfConc(pool *conc.Pool) Pool {
	if pool == nil {
		panic("conc pool is nil")
	}
	return poolAdapter(func(f func()) error {
		pool.Go(f)
		return nil
	})
}

// SemaphorePool is the Pool returned by PoolOfSemaphore. It exposes Close so
// callers that built it directly (rather than via PoolOfSemaphore used only
// behind FromPool) can shut it down explicitly.
type SemaphorePool struct {
	sem    *semaphore.Weighted
	closed atomic.Bool
}

// PoolOfSemaphore adapts a golang.org/x/sync/semaphore.Weighted into a Pool
// that bounds the number of concurrently running tasks to n. Unlike the
// other adapters it blocks the submitter when the pool is saturated instead
// of queueing unboundedly, which makes it suitable for bounding fan-out in a
// FutureCombiner with many inputs.
func PoolOfSemaphore(n int64) *SemaphorePool {
	if n <= 0 {
		panic("n must be > 0")
	}
	return &SemaphorePool{sem: semaphore.NewWeighted(n)}
}

// Submit blocks until a slot is free, then runs f with panic recovery on its
// own goroutine. It returns an error without blocking once the pool has been
// closed.
func (p *SemaphorePool) Submit(f func()) error {
	if p.closed.Load() {
		return context.Canceled
	}
	if err := p.sem.Acquire(context.Background(), 1); err != nil {
		return err
	}
	safe.Go(func() {
		defer p.sem.Release(1)
		f()
	})
	return nil
}

// Close marks the pool closed: further Submit calls fail immediately
// without acquiring a slot. Tasks already running are unaffected.
func (p *SemaphorePool) Close() {
	p.closed.Store(true)
}
