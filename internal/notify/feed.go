// Package notify provides the single-producer, multi-consumer event channel
// providers use to push purchase and entitlement events.
package notify

import "sync"

type Feed[T any] struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]func(T)
	order     []uint64
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is a no-op.
func (f *Feed[T]) Subscribe(fn func(T)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listeners == nil {
		f.listeners = make(map[uint64]func(T))
	}
	f.nextID++
	id := f.nextID
	f.listeners[id] = fn
	f.order = append(f.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { f.remove(id) })
	}
}

// Emit delivers v to every listener in subscription order on the calling
// goroutine. Listeners may unsubscribe from inside the callback.
func (f *Feed[T]) Emit(v T) {
	for _, fn := range f.snapshot() {
		fn(v)
	}
}

func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *Feed[T]) snapshot() []func(T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]func(T), 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.listeners[id])
	}
	return out
}

func (f *Feed[T]) remove(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.listeners, id)
	for i, candidate := range f.order {
		if candidate == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}
