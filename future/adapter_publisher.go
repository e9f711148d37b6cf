package future

import "github.com/kestrel-go/future/scheduler"

// Subscriber is a single-value reactive subscriber, the minimal slice of
// the reactive-streams contract a single-valued Publisher needs: at most
// one of OnNext/OnError is called, ever, optionally preceded by OnSubscribe
// and always followed by OnComplete. An OnComplete with no OnNext/OnError
// before it is an empty completion.
type Subscriber[V any] interface {
	OnSubscribe(sub Subscription)
	OnNext(v V)
	OnError(err error)
	OnComplete()
}

// Subscription lets a Subscriber request demand or cancel. A single-value
// Publisher only ever emits one item, so Request is satisfied by any n >= 1;
// it exists so Subscriber implementations written against a general
// reactive-streams Subscriber compile unchanged against this one.
type Subscription interface {
	Request(n int64)
	Cancel()
}

// Publisher is a single-value reactive source: it emits at most one OnNext
// or OnError, followed by OnComplete, to each Subscriber.
type Publisher[V any] interface {
	Subscribe(sub Subscriber[V])
}

// futurePublisher adapts a Future[V] into a Publisher[V]: ToPublisher is the
// only way to obtain one.
type futurePublisher[V any] struct {
	f Future[V]
}

// ToPublisher exposes f as a single-value Publisher. Subscribing after f
// has already completed still delivers OnNext/OnError immediately on f's
// executor (synchronously from Subscribe under the direct executor),
// matching the "already completed" behavior of OnCompleted.
func ToPublisher[V any](f Future[V]) Publisher[V] {
	return futurePublisher[V]{f: f}
}

func (p futurePublisher[V]) Subscribe(sub Subscriber[V]) {
	cancelled := make(chan struct{})
	sub.OnSubscribe(&futureSubscription[V]{future: p.f, cancelled: cancelled})
	p.f.OnCompleted(func(res Future[V]) {
		select {
		case <-cancelled:
			return
		default:
		}
		if res.State() == StateSuccess {
			sub.OnNext(res.Obtain())
		} else {
			sub.OnError(res.core.res.err)
		}
		sub.OnComplete()
	})
}

type futureSubscription[V any] struct {
	future    Future[V]
	cancelled chan struct{}
}

// Request is a no-op: a single-value Publisher has nothing to hold back
// regardless of the requested amount.
func (s *futureSubscription[V]) Request(int64) {}

// Cancel suppresses delivery of the pending signal and cancels the
// underlying future.
func (s *futureSubscription[V]) Cancel() {
	select {
	case <-s.cancelled:
	default:
		close(s.cancelled)
	}
	s.future.Cancel(false)
}

// FromPublisher subscribes to pub and returns a Future that completes with
// whatever single signal pub delivers. A nil pub is a programming error.
func FromPublisher[V any](pub Publisher[V]) Future[V] {
	if pub == nil {
		panic("Publisher is required")
	}
	p := NewPromise[V](scheduler.Direct)
	pub.Subscribe(&promiseSubscriber[V]{promise: p})
	return p.Future()
}

type promiseSubscriber[V any] struct {
	promise   Promise[V]
	sub       Subscription
	delivered bool
}

func (s *promiseSubscriber[V]) OnSubscribe(sub Subscription) {
	s.sub = sub
	sub.Request(1)
}

func (s *promiseSubscriber[V]) OnNext(v V) {
	s.delivered = true
	s.promise.TrySuccess(v)
}

func (s *promiseSubscriber[V]) OnError(err error) {
	s.delivered = true
	s.promise.TryFailure(err)
}

// OnComplete completes the bridged future with the zero value when the
// publisher finished without ever emitting a value or an error.
func (s *promiseSubscriber[V]) OnComplete() {
	if !s.delivered {
		var zero V
		s.promise.TrySuccess(zero)
	}
}
