package future

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-go/future/scheduler"
)

func succeed[V any](v V) Future[V] {
	p := NewPromise[V](scheduler.Direct)
	p.TrySuccess(v)
	return p.Future()
}

func fail[V any](err error) Future[V] {
	p := NewPromise[V](scheduler.Direct)
	p.TryFailure(err)
	return p.Future()
}

func TestMap_TransformsSuccess(t *testing.T) {
	down := Map(succeed(2), func(v int) (string, error) {
		return fmt.Sprintf("n=%d", v), nil
	})
	v, err := down.Get()
	require.NoError(t, err)
	assert.Equal(t, "n=2", v)
}

func TestMap_MapperErrorFailsDownstream(t *testing.T) {
	down := Map(succeed(2), func(int) (string, error) {
		return "", errBoom
	})
	_, err := down.Join()
	assert.Same(t, errBoom, err)
}

func TestMap_MapperPanicFailsDownstream(t *testing.T) {
	down := Map(succeed(2), func(int) (string, error) {
		panic("mapper exploded")
	})
	_, err := down.Join()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper exploded")
}

func TestMap_PropagatesUpstreamFailure(t *testing.T) {
	down := Map(fail[int](errBoom), func(v int) (string, error) { return "", nil })
	_, err := down.Join()
	assert.Same(t, errBoom, err)
}

func TestMap_CancelPropagatesUpstream(t *testing.T) {
	p := NewPromise[int](scheduler.Direct)
	down := Map(p.Future(), func(v int) (string, error) { return "", nil })
	down.Cancel(false)
	assert.True(t, p.Future().IsCancelled())
}

func TestMapNull_CollapsesToUnit(t *testing.T) {
	var observed int
	down := MapNull(succeed(5), func(v int) { observed = v })
	v, err := down.Get()
	require.NoError(t, err)
	assert.Equal(t, Unit{}, v)
	assert.Equal(t, 5, observed)
}

func TestFlatMap_ChainsInnerFuture(t *testing.T) {
	down := FlatMap(succeed(2), func(v int) Future[string] {
		return succeed(fmt.Sprintf("inner-%d", v))
	})
	v, err := down.Get()
	require.NoError(t, err)
	assert.Equal(t, "inner-2", v)
}

func TestFlatMap_InnerFailurePropagates(t *testing.T) {
	down := FlatMap(succeed(2), func(int) Future[string] {
		return fail[string](errBoom)
	})
	_, err := down.Join()
	assert.Same(t, errBoom, err)
}

func TestFlatMap_UpstreamFailureShortCircuits(t *testing.T) {
	called := false
	down := FlatMap(fail[int](errBoom), func(int) Future[string] {
		called = true
		return succeed("unused")
	})
	_, err := down.Join()
	assert.Same(t, errBoom, err)
	assert.False(t, called)
}

func TestFlatMap_CancelPropagatesToInnerOnceKnown(t *testing.T) {
	innerPromise := NewPromise[string](scheduler.Direct)
	upstream := succeed(1)
	down := FlatMap(upstream, func(int) Future[string] {
		return innerPromise.Future()
	})
	down.Cancel(false)
	assert.True(t, innerPromise.Future().IsCancelled())
}

func TestZip_CombinesBothValues(t *testing.T) {
	down := Zip(succeed(1), succeed("a"))
	v, err := down.Get()
	require.NoError(t, err)
	assert.Equal(t, Pair[int, string]{First: 1, Second: "a"}, v)
}

func TestZip_FirstFailureWins(t *testing.T) {
	pb := NewPromise[string](scheduler.Direct)
	down := Zip(fail[int](errBoom), pb.Future())
	_, err := down.Join()
	assert.Same(t, errBoom, err)
	assert.True(t, pb.Future().IsCancelled())
}

func TestZipWith_CombinerError(t *testing.T) {
	down := ZipWith(succeed(1), succeed(2), func(a, b int) (int, error) {
		return 0, errBoom
	})
	_, err := down.Join()
	assert.Same(t, errBoom, err)
}

func TestErrorHandling_RecoversFailure(t *testing.T) {
	down := ErrorHandling(fail[int](errBoom), func(err error) (int, error) {
		return 99, nil
	})
	v, err := down.Get()
	require.NoError(t, err)
	assert.Equal(t, 99, v)
}

func TestErrorHandling_DoesNotRecoverCancellation(t *testing.T) {
	p := NewPromise[int](scheduler.Direct)
	down := ErrorHandling(p.Future(), func(error) (int, error) { return 99, nil })
	p.Cancel(false)
	assert.True(t, down.IsCancelled())
}

type wrappedErr struct{ inner error }

func (w *wrappedErr) Error() string { return "wrapped: " + w.inner.Error() }
func (w *wrappedErr) Unwrap() error { return w.inner }

func TestCatching_MatchesPredicate(t *testing.T) {
	down := Catching(fail[int](errBoom), func(err error) bool {
		return errors.Is(err, errBoom)
	}, func(error) (int, error) { return 1, nil })
	v, err := down.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestCatchSpecificCause_UnwrapsOneLayer(t *testing.T) {
	cause := &wrappedErr{inner: errBoom}
	down := CatchSpecificCause[int, error](fail[int](cause), func(err error) (int, error) {
		assert.Same(t, errBoom, err)
		return 2, nil
	})
	v, err := down.Get()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestCatchRootCause_WalksToDeepest(t *testing.T) {
	cause := &wrappedErr{inner: &wrappedErr{inner: errBoom}}
	down := CatchRootCause[int, error](fail[int](cause), func(err error) (int, error) {
		assert.Same(t, errBoom, err)
		return 3, nil
	})
	v, err := down.Get()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestOnErrorResume_SwitchesToAlternative(t *testing.T) {
	down := OnErrorResume[int](fail[int](errBoom), nil, func(error) Future[int] {
		return succeed(42)
	})
	v, err := down.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestOnErrorMap_ReplacesCause(t *testing.T) {
	newErr := errors.New("replacement")
	down := OnErrorMap[int](fail[int](errBoom), nil, func(error) error { return newErr })
	_, err := down.Join()
	assert.Same(t, newErr, err)
}

func TestOnErrorComplete_SwallowsMatchingFailure(t *testing.T) {
	down := OnErrorComplete[int](fail[int](errBoom), nil)
	v, err := down.Get()
	require.NoError(t, err)
	assert.Equal(t, Unit{}, v)
}

func TestOnErrorReturn_SuppliesFallbackValue(t *testing.T) {
	down := OnErrorReturn(fail[int](errBoom), nil, -1)
	v, err := down.Get()
	require.NoError(t, err)
	assert.Equal(t, -1, v)
}

func TestSwitchIfEmpty_ReplacesNilValue(t *testing.T) {
	down := SwitchIfEmpty[*int](succeed[*int](nil), func() (*int, error) {
		n := 7
		return &n, nil
	})
	v, err := down.Get()
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 7, *v)
}

func TestSwitchIfEmpty_LeavesNonEmptyValue(t *testing.T) {
	n := 1
	down := SwitchIfEmpty[*int](succeed(&n), func() (*int, error) {
		t.Fatal("supplier must not run for a non-empty value")
		return nil, nil
	})
	v, err := down.Get()
	require.NoError(t, err)
	assert.Same(t, &n, v)
}

func TestSwitchIfEmpty_NilSupplierPanics(t *testing.T) {
	assert.Panics(t, func() { SwitchIfEmpty[int](succeed(1), nil) })
}

func TestSwitchIfCancelled_SuppliesFallback(t *testing.T) {
	p := NewPromise[int](scheduler.Direct)
	down := SwitchIfCancelled(p.Future(), func() (int, error) { return 5, nil })
	p.Cancel(false)
	v, err := down.Get()
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestCascadeTo_MirrorsTerminalState(t *testing.T) {
	target := NewPromise[int](scheduler.Direct)
	CascadeTo(succeed(10), target)
	v, err := target.Future().Get()
	require.NoError(t, err)
	assert.Equal(t, 10, v)
}

func TestTimeout_FiresWhenUpstreamIsSlow(t *testing.T) {
	p := NewPromise[int](scheduler.Direct)
	down := Timeout(p.Future(), 20*time.Millisecond, scheduler.Default(), nil)
	_, err := down.Join()
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestTimeout_UpstreamWinsRace(t *testing.T) {
	down := Timeout(succeed(1), time.Second, scheduler.Default(), nil)
	v, err := down.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}
