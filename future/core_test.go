package future

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-go/future/scheduler"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "Pending", StatePending.String())
	assert.Equal(t, "Success", StateSuccess.String())
	assert.Equal(t, "Failure", StateFailure.String())
	assert.Equal(t, "Cancelled", StateCancelled.String())
	assert.Equal(t, "InterruptedCancelled", StateInterruptedCancelled.String())
	assert.Equal(t, "Unknown", State(99).String())
}

func TestState_IsTerminalAndCancelled(t *testing.T) {
	assert.False(t, StatePending.IsTerminal())
	assert.True(t, StateSuccess.IsTerminal())
	assert.True(t, StateFailure.IsTerminal())
	assert.True(t, StateCancelled.IsTerminal())

	assert.False(t, StateSuccess.IsCancelled())
	assert.True(t, StateCancelled.IsCancelled())
	assert.True(t, StateInterruptedCancelled.IsCancelled())
}

func TestPromise_TrySuccess_OnlyWinsOnce(t *testing.T) {
	p := NewPromise[int](scheduler.Direct)
	assert.True(t, p.TrySuccess(1))
	assert.False(t, p.TrySuccess(2))
	assert.False(t, p.TryFailure(errors.New("late")))

	v, err := p.Future().Get()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestPromise_TryFailure_RequiresNonNil(t *testing.T) {
	p := NewPromise[int](scheduler.Direct)
	assert.Panics(t, func() { p.TryFailure(nil) })
}

func TestOnCompleted_RunsImmediatelyIfAlreadyDone(t *testing.T) {
	p := NewPromise[int](scheduler.Direct)
	p.TrySuccess(42)

	var got int
	p.Future().OnCompleted(func(f Future[int]) {
		got = f.Obtain()
	})
	assert.Equal(t, 42, got)
}

func TestOnCompleted_RunsOnceTerminal(t *testing.T) {
	p := NewPromise[int](scheduler.Direct)
	var got atomic.Int64
	p.Future().OnCompleted(func(f Future[int]) {
		got.Store(int64(f.Obtain()))
	})
	assert.Equal(t, int64(0), got.Load())
	p.TrySuccess(7)
	assert.Equal(t, int64(7), got.Load())
}

func TestListeners_RunInRegistrationOrder(t *testing.T) {
	p := NewPromise[int](scheduler.Direct)
	var mu sync.Mutex
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		p.Future().OnCompleted(func(Future[int]) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	p.TrySuccess(0)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestListeners_PanicDoesNotAffectSiblingsOrState(t *testing.T) {
	p := NewPromise[int](scheduler.Direct)
	var secondRan atomic.Bool
	p.Future().OnCompleted(func(Future[int]) { panic("listener blew up") })
	p.Future().OnCompleted(func(Future[int]) { secondRan.Store(true) })

	assert.NotPanics(t, func() { p.TrySuccess(1) })
	assert.True(t, secondRan.Load())
	assert.True(t, p.Future().IsSuccess())
}

func TestAwait_RaceWithAbort(t *testing.T) {
	p := NewPromise[int](scheduler.Direct)
	timer := time.NewTimer(10 * time.Millisecond)
	defer timer.Stop()
	assert.False(t, p.core.await(timer.C))

	p.TrySuccess(1)
	c := make(chan time.Time)
	assert.True(t, p.core.await(c))
}

func TestGetNow_NonBlocking(t *testing.T) {
	p := NewPromise[string](scheduler.Direct)
	v, ok := p.Future().GetNow()
	assert.False(t, ok)
	assert.Equal(t, "", v)

	p.TrySuccess("done")
	v, ok = p.Future().GetNow()
	assert.True(t, ok)
	assert.Equal(t, "done", v)
}
