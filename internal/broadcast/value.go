package broadcast

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by WaitFor when the value is closed before the
// predicate is satisfied.
var ErrClosed = errors.New("broadcast closed")

// Value is a single-slot, multi-subscriber broadcast with replay-latest
// semantics. Every subscriber receives the current value on subscription and
// then every later Set, in order. Set never blocks.
type Value[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[*Subscription[T]]struct{}
	closed bool
}

// New returns a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		value: initial,
		subs:  make(map[*Subscription[T]]struct{}),
	}
}

// Get returns the latest value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set stores next and fans it out to every attached subscriber.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.value = next
	for sub := range v.subs {
		sub.push(next)
	}
}

// Subscribe attaches a new subscriber. The latest value is queued before
// Subscribe returns, so it is always the first value delivered.
func (v *Value[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		notify: make(chan struct{}, 1),
		out:    make(chan T),
		done:   make(chan struct{}),
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		sub.stop()
		close(sub.out)
		return sub
	}
	sub.owner = v
	sub.push(v.value)
	v.subs[sub] = struct{}{}
	v.mu.Unlock()

	go sub.pump()
	return sub
}

// Close detaches every subscriber and closes their channels. Later Set calls
// are ignored.
func (v *Value[T]) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	subs := v.subs
	v.subs = nil
	v.mu.Unlock()

	for sub := range subs {
		sub.stop()
	}
}

func (v *Value[T]) detach(sub *Subscription[T]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.subs != nil {
		delete(v.subs, sub)
	}
}

// Subscription is one attached consumer of a Value.
type Subscription[T any] struct {
	owner *Value[T]

	mu     sync.Mutex
	queue  []T
	notify chan struct{}
	out    chan T
	done   chan struct{}
	once   sync.Once
}

// C returns the delivery channel. It is closed after Cancel or when the
// owning Value is closed.
func (s *Subscription[T]) C() <-chan T {
	return s.out
}

// Cancel detaches the subscription. Undelivered values are dropped.
func (s *Subscription[T]) Cancel() {
	if s.owner != nil {
		s.owner.detach(s)
	}
	s.stop()
}

func (s *Subscription[T]) stop() {
	s.once.Do(func() {
		close(s.done)
	})
}

func (s *Subscription[T]) push(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) pump() {
	defer close(s.out)

	for {
		select {
		case <-s.notify:
		case <-s.done:
			return
		}

		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			next := s.queue[0]
			var zero T
			s.queue[0] = zero
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case s.out <- next:
			case <-s.done:
				return
			}
		}
	}
}

// WaitFor subscribes to v and blocks until a delivered value satisfies pred,
// ctx is done, or v is closed.
func WaitFor[T any](ctx context.Context, v *Value[T], pred func(T) bool) (T, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}

	sub := v.Subscribe()
	defer sub.Cancel()

	for {
		select {
		case next, ok := <-sub.C():
			if !ok {
				return zero, ErrClosed
			}
			if pred(next) {
				return next, nil
			}
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}
