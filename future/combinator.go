package future

import (
	"reflect"
	"sync"
	"time"

	"github.com/kestrel-go/future/internal/safe"
	"github.com/kestrel-go/future/scheduler"
)

// futureBox holds the "currently active inner future" for combinators
// like FlatMap and OnErrorResume, whose cancellation target changes once the
// inner future is known. A mutex is simpler than an atomic.Pointer here
// since Future[V] is a generic struct, not a pointer type.
type futureBox[V any] struct {
	mu    sync.Mutex
	inner Future[V]
	set   bool
}

func (b *futureBox[V]) store(f Future[V]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inner, b.set = f, true
}

func (b *futureBox[V]) load() (Future[V], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inner, b.set
}

// Unit stands in for Java's null/void result: MapNull, OnErrorComplete and
// similar "collapse to no value" operators complete a Future[Unit].
type Unit struct{}

// Pair is the result of Zip.
type Pair[A, B any] struct {
	First  A
	Second B
}

// downstream creates a Promise/Future pair wired to executor (nil selects
// scheduler.Default(), as with NewPromise), wires downstream cancellation to
// call onCancel, and returns both halves: the Promise for the combinator to
// complete and the Future for it to return.
func downstream[V any](executor scheduler.Executor, onCancel func(mayInterrupt bool, cause error)) (Promise[V], Future[V]) {
	p := NewPromise[V](executor)
	p.core.onCancel = onCancel
	return p, p.Future()
}

func callMapper[V, W any](mapper func(V) (W, error), v V) (w W, err error) {
	err = safe.Call(func() error {
		var e error
		w, e = mapper(v)
		return e
	})
	return
}

// Map transforms a successful value with mapper. If mapper returns an error
// (or panics), the downstream future fails instead.
func Map[V, W any](up Future[V], mapper func(V) (W, error)) Future[W] {
	p, down := downstream[W](up.core.executor, func(mayInterrupt bool, cause error) { up.Cancel(mayInterrupt) })
	up.OnCompleted(func(res Future[V]) {
		switch res.State() {
		case StateSuccess:
			w, err := callMapper(mapper, res.Obtain())
			if err != nil {
				p.TryFailure(err)
				return
			}
			p.TrySuccess(w)
		case StateFailure:
			p.TryFailure(res.core.res.err)
		default:
			p.core.tryTransition(w[W](), res.core.res.err, res.State())
		}
	})
	return down
}

// w returns the zero value of W; a tiny helper so Map's cancellation branch
// reads as "forward state and cause" without a separate zero-value line.
func w[W any]() (z W) { return }

// MapNull runs consumer (if non-nil) for its side effect on success, and
// always completes downstream with Unit{} rather than a value.
func MapNull[V any](up Future[V], consumer func(V)) Future[Unit] {
	p, down := downstream[Unit](up.core.executor, func(mayInterrupt bool, cause error) { up.Cancel(mayInterrupt) })
	up.OnCompleted(func(res Future[V]) {
		switch res.State() {
		case StateSuccess:
			if consumer != nil {
				_ = safe.Call(func() error { consumer(res.Obtain()); return nil })
			}
			p.TrySuccess(Unit{})
		case StateFailure:
			p.TryFailure(res.core.res.err)
		default:
			p.core.tryTransition(Unit{}, res.core.res.err, res.State())
		}
	})
	return down
}

// FlatMap subscribes to next(v) once up succeeds and mirrors it downstream.
// Cancelling the downstream cancels whichever inner future is currently
// wired in (the upstream before next runs, the inner future after).
func FlatMap[V, W any](up Future[V], next func(V) Future[W]) Future[W] {
	var inner futureBox[W]
	p, down := downstream[W](up.core.executor, func(mayInterrupt bool, cause error) {
		if f, ok := inner.load(); ok {
			f.Cancel(mayInterrupt)
			return
		}
		up.Cancel(mayInterrupt)
	})
	up.OnCompleted(func(res Future[V]) {
		switch res.State() {
		case StateSuccess:
			nextFuture := next(res.Obtain())
			inner.store(nextFuture)
			nextFuture.OnCompleted(func(innerRes Future[W]) {
				p.core.tryTransition(innerRes.core.res.value, innerRes.core.res.err, innerRes.State())
			})
		case StateFailure:
			p.TryFailure(res.core.res.err)
		default:
			p.core.tryTransition(w[W](), res.core.res.err, res.State())
		}
	})
	return down
}

// Zip completes once both a and b succeed, with the first failure/
// cancellation winning and cancelling the other side.
func Zip[A, B any](a Future[A], b Future[B]) Future[Pair[A, B]] {
	return ZipWith(a, b, func(va A, vb B) (Pair[A, B], error) {
		return Pair[A, B]{First: va, Second: vb}, nil
	})
}

// ZipWith is Zip followed by combiner, with combiner's error (or panic)
// failing the downstream future.
func ZipWith[A, B, R any](a Future[A], b Future[B], combiner func(A, B) (R, error)) Future[R] {
	p, down := downstream[R](a.core.executor, func(mayInterrupt bool, cause error) {
		a.Cancel(mayInterrupt)
		b.Cancel(mayInterrupt)
	})

	a.OnCompleted(func(resA Future[A]) {
		if resA.State() != StateSuccess {
			if p.core.tryTransition(w[R](), resA.core.res.err, resA.State()) {
				b.Cancel(false)
			}
			return
		}
		b.OnCompleted(func(resB Future[B]) {
			if resB.State() != StateSuccess {
				p.core.tryTransition(w[R](), resB.core.res.err, resB.State())
				return
			}
			r, err := safeCombine(combiner, resA.Obtain(), resB.Obtain())
			if err != nil {
				p.TryFailure(err)
				return
			}
			p.TrySuccess(r)
		})
	})
	b.OnCompleted(func(resB Future[B]) {
		if resB.State() == StateSuccess {
			return
		}
		if p.core.tryTransition(w[R](), resB.core.res.err, resB.State()) {
			a.Cancel(false)
		}
	})
	return down
}

func safeCombine[A, B, R any](combiner func(A, B) (R, error), a A, b B) (r R, err error) {
	err = safe.Call(func() error {
		var e error
		r, e = combiner(a, b)
		return e
	})
	return
}

// ErrorHandling recovers from ANY failure (not cancellation) by calling
// handler, completing downstream with the handler's result or its error.
func ErrorHandling[V any](up Future[V], handler func(error) (V, error)) Future[V] {
	p, down := downstream[V](up.core.executor, func(mayInterrupt bool, cause error) { up.Cancel(mayInterrupt) })
	up.OnCompleted(func(res Future[V]) {
		if res.State() != StateFailure {
			p.core.tryTransition(res.core.res.value, res.core.res.err, res.State())
			return
		}
		v, err := callMapper(handler, res.core.res.err)
		if err != nil {
			p.TryFailure(err)
			return
		}
		p.TrySuccess(v)
	})
	return down
}

// Catching recovers from a Failure whose cause matches predicate.
func Catching[V any](up Future[V], predicate func(error) bool, handler func(error) (V, error)) Future[V] {
	return catchAt(up, func(err error) error { return err }, predicate, handler)
}

// CatchingAs recovers from a Failure whose cause is of type E, the
// generic-type-matched form of Catching. The match is a direct type
// assertion on the stored error; errors it wraps are not searched.
func CatchingAs[V any, E error](up Future[V], handler func(E) (V, error)) Future[V] {
	return Catching(up, isType[E], func(err error) (V, error) {
		var target E
		asType(err, &target)
		return handler(target)
	})
}

// CatchSpecificCause recovers based on the immediate cause (one Unwrap
// layer down from the stored error) rather than the error itself.
func CatchSpecificCause[V any, E error](up Future[V], handler func(E) (V, error)) Future[V] {
	return catchAt(up, unwrapOnce, isType[E], func(cause error) (V, error) {
		var target E
		asType(cause, &target)
		return handler(target)
	})
}

// CatchRootCause recovers based on the root cause at the end of the Unwrap
// chain.
func CatchRootCause[V any, E error](up Future[V], handler func(E) (V, error)) Future[V] {
	return catchAt(up, rootCause, isType[E], func(cause error) (V, error) {
		var target E
		asType(cause, &target)
		return handler(target)
	})
}

func catchAt[V any](up Future[V], project func(error) error, predicate func(error) bool, handler func(error) (V, error)) Future[V] {
	p, down := downstream[V](up.core.executor, func(mayInterrupt bool, cause error) { up.Cancel(mayInterrupt) })
	up.OnCompleted(func(res Future[V]) {
		if res.State() != StateFailure || !predicate(project(res.core.res.err)) {
			p.core.tryTransition(res.core.res.value, res.core.res.err, res.State())
			return
		}
		v, err := callMapper(handler, project(res.core.res.err))
		if err != nil {
			p.TryFailure(err)
			return
		}
		p.TrySuccess(v)
	})
	return down
}

func unwrapOnce(err error) error {
	if u, ok := err.(interface{ Unwrap() error }); ok {
		if next := u.Unwrap(); next != nil {
			return next
		}
	}
	return err
}

func isType[E error](err error) bool {
	var target E
	return asType(err, &target)
}

func asType[E error](err error, target *E) bool {
	e, ok := err.(E)
	if !ok {
		return false
	}
	*target = e
	return true
}

// OnErrorResume subscribes to next(err) when pred(err) holds (pred==nil
// means always), mirroring the upstream failure to the result of next
// instead.
func OnErrorResume[V any](up Future[V], pred func(error) bool, next func(error) Future[V]) Future[V] {
	var inner futureBox[V]
	p, down := downstream[V](up.core.executor, func(mayInterrupt bool, cause error) {
		if f, ok := inner.load(); ok {
			f.Cancel(mayInterrupt)
			return
		}
		up.Cancel(mayInterrupt)
	})
	up.OnCompleted(func(res Future[V]) {
		if res.State() != StateFailure || (pred != nil && !pred(res.core.res.err)) {
			p.core.tryTransition(res.core.res.value, res.core.res.err, res.State())
			return
		}
		nextFuture := next(res.core.res.err)
		inner.store(nextFuture)
		nextFuture.OnCompleted(func(innerRes Future[V]) {
			p.core.tryTransition(innerRes.core.res.value, innerRes.core.res.err, innerRes.State())
		})
	})
	return down
}

// OnErrorMap replaces a matching failure's cause with mapper(err).
func OnErrorMap[V any](up Future[V], pred func(error) bool, mapper func(error) error) Future[V] {
	p, down := downstream[V](up.core.executor, func(mayInterrupt bool, cause error) { up.Cancel(mayInterrupt) })
	up.OnCompleted(func(res Future[V]) {
		if res.State() != StateFailure || (pred != nil && !pred(res.core.res.err)) {
			p.core.tryTransition(res.core.res.value, res.core.res.err, res.State())
			return
		}
		newErr := mapper(res.core.res.err)
		if newErr == nil {
			newErr = res.core.res.err
		}
		p.TryFailure(newErr)
	})
	return down
}

// OnErrorComplete turns a matching failure into Success(Unit{}) instead of
// propagating it.
func OnErrorComplete[V any](up Future[V], pred func(error) bool) Future[Unit] {
	p, down := downstream[Unit](up.core.executor, func(mayInterrupt bool, cause error) { up.Cancel(mayInterrupt) })
	up.OnCompleted(func(res Future[V]) {
		if res.State() == StateSuccess {
			p.TrySuccess(Unit{})
			return
		}
		if res.State() == StateFailure && (pred == nil || pred(res.core.res.err)) {
			p.TrySuccess(Unit{})
			return
		}
		p.core.tryTransition(Unit{}, res.core.res.err, res.State())
	})
	return down
}

// OnErrorReturn completes with value instead of propagating a matching
// failure.
func OnErrorReturn[V any](up Future[V], pred func(error) bool, value V) Future[V] {
	p, down := downstream[V](up.core.executor, func(mayInterrupt bool, cause error) { up.Cancel(mayInterrupt) })
	up.OnCompleted(func(res Future[V]) {
		if res.State() == StateFailure && (pred == nil || pred(res.core.res.err)) {
			p.TrySuccess(value)
			return
		}
		p.core.tryTransition(res.core.res.value, res.core.res.err, res.State())
	})
	return down
}

// isNilValue reports whether v is the "empty" value SwitchIfEmpty treats as
// absent: a nil pointer, interface, slice, map, channel or function. Value
// kinds (ints, structs, ...) are never considered empty.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

// SwitchIfEmpty replaces a Success holding an "empty" (nil-ish) value with
// supplier's result. A non-empty success, or any failure, passes through
// unchanged.
func SwitchIfEmpty[V any](up Future[V], supplier func() (V, error)) Future[V] {
	if supplier == nil {
		panic("defaultValue Supplier is required")
	}
	p, down := downstream[V](up.core.executor, func(mayInterrupt bool, cause error) { up.Cancel(mayInterrupt) })
	up.OnCompleted(func(res Future[V]) {
		if res.State() == StateSuccess {
			v := res.Obtain()
			if !isNilValue(v) {
				p.TrySuccess(v)
				return
			}
			dv, err := callMapper(func(struct{}) (V, error) { return supplier() }, struct{}{})
			if err != nil {
				p.TryFailure(err)
				return
			}
			p.TrySuccess(dv)
			return
		}
		p.core.tryTransition(w[V](), res.core.res.err, res.State())
	})
	return down
}

// SwitchIfCancelled swallows a cancellation of up, completing downstream
// with supplier's result instead. Success and Failure pass through
// unchanged. The downstream itself is never reported as cancelled by this
// path.
func SwitchIfCancelled[V any](up Future[V], supplier func() (V, error)) Future[V] {
	p, down := downstream[V](up.core.executor, func(mayInterrupt bool, cause error) { up.Cancel(mayInterrupt) })
	up.OnCompleted(func(res Future[V]) {
		if res.State().IsCancelled() {
			dv, err := callMapper(func(struct{}) (V, error) { return supplier() }, struct{}{})
			if err != nil {
				p.TryFailure(err)
				return
			}
			p.TrySuccess(dv)
			return
		}
		p.core.tryTransition(res.core.res.value, res.core.res.err, res.State())
	})
	return down
}

// CascadeTo mirrors up's terminal state onto target: success, failure and
// cancellation (with cause) are all forwarded.
func CascadeTo[V any](up Future[V], target Promise[V]) {
	up.OnCompleted(func(res Future[V]) {
		switch res.State() {
		case StateSuccess:
			target.TrySuccess(res.Obtain())
		case StateFailure:
			target.TryFailure(res.core.res.err)
		default:
			target.CancelWithCause(res.core.res.err)
		}
	})
}

// Timeout fails downstream with a timeout error if up has not completed by
// d, unless onTimeout is supplied, in which case onTimeout runs instead and
// is responsible for completing downstream. The scheduled timer is
// cancelled as soon as up completes on its own.
func Timeout[V any](up Future[V], d time.Duration, sched scheduler.Scheduler, onTimeout func(Future[V], Promise[V])) Future[V] {
	if sched == nil {
		sched = scheduler.Default()
	}
	p, down := downstream[V](up.core.executor, func(mayInterrupt bool, cause error) { up.Cancel(mayInterrupt) })

	timer := sched.Schedule(func() {
		if onTimeout != nil {
			onTimeout(up, p)
			return
		}
		p.TryFailure(combinatorTimeoutError(d))
	}, d)

	up.OnCompleted(func(res Future[V]) {
		timer.Cancel()
		p.core.tryTransition(res.core.res.value, res.core.res.err, res.State())
	})
	return down
}
