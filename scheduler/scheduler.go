// Package scheduler defines the minimal executor contract the future package
// depends on: submitting ready work and scheduling delayed work. It is kept
// separate from the future package so that callers can plug in whichever
// goroutine pool fits their workload without the future package importing it
// directly.
package scheduler

import (
	"sync/atomic"
	"time"

	"github.com/kestrel-go/future/internal/safe"
)

// Executor runs a callback, either inline or on a pooled goroutine.
type Executor interface {
	// Execute submits fn for execution. Implementations must not block the
	// caller waiting for fn to finish, except for the direct executor which
	// runs fn synchronously by design.
	Execute(fn func())
}

// ScheduledTask is the handle returned by Scheduler.Schedule. Cancel prevents
// the delayed callback from running if it has not fired yet.
type ScheduledTask interface {
	// Cancel aborts the scheduled callback. It returns false if the callback
	// already ran or was already cancelled.
	Cancel() bool
}

// Scheduler additionally supports delayed execution, used by the timeout
// combinator.
type Scheduler interface {
	Executor
	// Schedule runs fn after delay elapses, unless the returned task is
	// cancelled first.
	Schedule(fn func(), delay time.Duration) ScheduledTask
}

// directExecutor runs the callback synchronously on the calling goroutine.
// It is used only where a caller passes Direct explicitly; a nil executor
// selects Default() instead.
type directExecutor struct{}

func (directExecutor) Execute(fn func()) {
	if fn != nil {
		fn()
	}
}

// Direct is the synchronous "run on the calling goroutine" executor.
var Direct Executor = directExecutor{}

// poolScheduler adapts a Pool plus the stdlib timer facilities into a full
// Scheduler.
type poolScheduler struct {
	pool Pool
}

func (s *poolScheduler) Execute(fn func()) {
	if fn == nil {
		return
	}
	if err := s.pool.Submit(safe.WithRecover(fn)); err != nil {
		// Submission was rejected by the pool; run with recovery on a bare
		// goroutine rather than silently dropping the callback.
		safe.Go(fn)
	}
}

type timerTask struct {
	timer *time.Timer
	fired atomic.Bool
}

func (t *timerTask) Cancel() bool {
	if t.fired.Load() {
		return false
	}
	return t.timer.Stop()
}

func (s *poolScheduler) Schedule(fn func(), delay time.Duration) ScheduledTask {
	task := &timerTask{}
	task.timer = time.AfterFunc(delay, func() {
		task.fired.Store(true)
		s.Execute(fn)
	})
	return task
}

// FromPool builds a Scheduler around a Pool, using time.AfterFunc for the
// delayed half of the contract.
func FromPool(pool Pool) Scheduler {
	if pool == nil {
		panic("pool is nil")
	}
	return &poolScheduler{pool: pool}
}

// schedulerBox lets defaultScheduler hold any Scheduler implementation
// behind an atomic.Pointer: atomic.Value requires every Store to use the
// same concrete type, which a caller-supplied Scheduler need not satisfy.
type schedulerBox struct {
	s Scheduler
}

var defaultScheduler atomic.Pointer[schedulerBox]

func init() {
	defaultScheduler.Store(&schedulerBox{s: FromPool(PoolOfNoPool())})
}

// Default returns the package-level default scheduler, used whenever a
// combinator receives a nil executor.
func Default() Scheduler {
	return defaultScheduler.Load().s
}

// SetDefault replaces the package-level default scheduler. A nil argument is
// ignored.
func SetDefault(s Scheduler) {
	if s == nil {
		return
	}
	defaultScheduler.Store(&schedulerBox{s: s})
}
