package fanout

import "sync"

// Keyed holds one observer Set per key plus a set of observers that receive
// events for every key. The zero value is ready to use.
type Keyed[K comparable, T any] struct {
	mu    sync.RWMutex
	byKey map[K]*Set[T]
	all   Set[T]
}

// Subscribe registers fn for events raised under key.
func (k *Keyed[K, T]) Subscribe(key K, fn Observer[T]) (unsubscribe func()) {
	return k.set(key).Subscribe(fn)
}

// SubscribeAll registers fn for events raised under any key.
func (k *Keyed[K, T]) SubscribeAll(fn Observer[T]) (unsubscribe func()) {
	return k.all.Subscribe(fn)
}

// Snapshot returns the observers for key followed by the catch-all observers.
func (k *Keyed[K, T]) Snapshot(key K) []Observer[T] {
	k.mu.RLock()
	set := k.byKey[key]
	k.mu.RUnlock()

	all := k.all.Snapshot()
	if set == nil {
		return all
	}
	return append(set.Snapshot(), all...)
}

func (k *Keyed[K, T]) set(key K) *Set[T] {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.byKey == nil {
		k.byKey = make(map[K]*Set[T])
	}
	s, ok := k.byKey[key]
	if !ok {
		s = &Set[T]{}
		k.byKey[key] = s
	}
	return s
}
