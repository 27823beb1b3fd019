// Package fanout delivers one event to many independently registered
// observers.
//
// Each observer runs in its own goroutine. A failing observer (returned error
// or panic) is logged and skipped; it never stops delivery to the others and
// is never reported to the code that raised the event. Notify returns only
// after every observer has finished or failed.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ErrObserverPanic wraps a value recovered from a panicking observer.
var ErrObserverPanic = errors.New("fanout: observer panicked")

// Logger is the logging surface used to report observer failures.
type Logger interface {
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}

// Observer receives one event. A non-nil error is logged by Notify.
type Observer[T any] func(ctx context.Context, event T) error

// Set is a concurrency-safe collection of observers for one event type.
// The zero value is ready to use.
type Set[T any] struct {
	mu        sync.RWMutex
	nextID    uint64
	observers map[uint64]Observer[T]
}

// Subscribe registers fn and returns a function that removes it again.
// A nil fn is ignored.
func (s *Set[T]) Subscribe(fn Observer[T]) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	if s.observers == nil {
		s.observers = make(map[uint64]Observer[T])
	}
	s.nextID++
	id := s.nextID
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// Snapshot returns the observers registered at the time of the call.
// Later subscriptions do not affect a snapshot already taken.
func (s *Set[T]) Snapshot() []Observer[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Observer[T], 0, len(s.observers))
	for _, fn := range s.observers {
		out = append(out, fn)
	}
	return out
}

// Len returns the number of registered observers.
func (s *Set[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// Notify invokes every observer in the snapshot with the event produced by
// build, in parallel, and waits for all of them.
//
// build is called at most once, and not at all when the snapshot is empty.
// Failures are logged with module and caller context. The returned count is
// the number of observers that failed; callers normally ignore it.
func Notify[T any](ctx context.Context, log Logger, module, caller string, observers []Observer[T], build func() T) int {
	if len(observers) == 0 {
		return 0
	}
	if log == nil {
		log = noopLogger{}
	}

	event := build()

	var (
		g        errgroup.Group
		failures atomic.Int32
	)
	for _, fn := range observers {
		g.Go(func() error {
			if err := invoke(ctx, fn, event); err != nil {
				failures.Add(1)
				log.Error("event observer failed",
					"module", module,
					"caller", caller,
					"error", err,
				)
			}
			// Never cancel siblings; errors are reported above.
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // goroutines always return nil

	return int(failures.Load())
}

// invoke runs one observer and converts a panic into an error.
func invoke[T any](ctx context.Context, fn Observer[T], event T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrObserverPanic, r)
		}
	}()
	return fn(ctx, event)
}
