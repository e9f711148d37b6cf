package future

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-go/future/scheduler"
)

func TestCompletable_MirrorsFutureSuccess(t *testing.T) {
	p := NewPromise[int](scheduler.Direct)
	ar := p.Future().Completable(context.Background())
	p.TrySuccess(4)

	v, err := ar.Result()
	require.NoError(t, err)
	assert.Equal(t, 4, v)
}

func TestCompletable_MirrorsFutureFailure(t *testing.T) {
	p := NewPromise[int](scheduler.Direct)
	ar := p.Future().Completable(context.Background())
	p.TryFailure(errBoom)

	_, err := ar.Result()
	assert.Same(t, errBoom, err)
}

func TestCompletable_ContextExpiresFirst(t *testing.T) {
	p := NewPromise[int](scheduler.Direct)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	ar := p.Future().Completable(ctx)

	_, err := ar.Result()
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFromAsyncResult_AdaptsToFuture(t *testing.T) {
	ar := NewAsyncResult[int](context.Background())
	ar.SetResult(8)

	f := FromAsyncResult(ar)
	v, err := f.Get()
	require.NoError(t, err)
	assert.Equal(t, 8, v)
}

func TestFromAsyncResult_Error(t *testing.T) {
	ar := NewAsyncResult[int](context.Background())
	ar.SetError(errBoom)

	f := FromAsyncResult(ar)
	_, err := f.Join()
	assert.Same(t, errBoom, err)
}

func TestCompletable_CancelCancelsFuture(t *testing.T) {
	p := NewPromise[int](scheduler.Direct)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Future().Completable(ctx)

	cancel()
	assert.Eventually(t, func() bool { return p.Future().IsCancelled() }, time.Second, time.Millisecond)
}

func TestFromAsyncResult_CancelCancelsAsyncResult(t *testing.T) {
	ar := NewAsyncResult[int](context.Background())
	f := FromAsyncResult(ar)

	f.Cancel(false)

	_, err := ar.Result()
	assert.ErrorIs(t, err, context.Canceled)
}
