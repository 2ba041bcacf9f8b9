// Package waiter implements a one-shot, multi-consumer broadcast primitive:
// many goroutines can await a value that is produced exactly once, from
// anywhere in the call graph, whether they started waiting before or after
// it was produced. Grounded on decthings-model's unix/async_waiter.rs,
// adapted from Rust's RwLock<enum{Queue,Value}> + oneshot channels to Go
// generics over a mutex-guarded slice of channels.
package waiter

import (
	"context"
	"sync"
)

// Waiter is the read side: many clones (copies of the struct; the
// underlying state is shared via the pointer it holds) can call Get
// concurrently.
type Waiter[T any] struct {
	state *state[T]
}

// Provider is the write side. Provide must be called at most once; Abandon
// may be called instead, to release every waiter with ok=false.
type Provider[T any] struct {
	state *state[T]
}

type state[T any] struct {
	mu       sync.RWMutex
	resolved bool
	value    T
	queue    []chan T
	done     bool // true once Provide or Abandon has run
}

// New creates a fresh Waiter/Provider pair in the unresolved state.
func New[T any]() (*Waiter[T], *Provider[T]) {
	s := &state[T]{}
	return &Waiter[T]{state: s}, &Provider[T]{state: s}
}

// Provide resolves the waiter with v, delivering it to every goroutine
// already blocked in Get and to every future Get call. Panics if called
// more than once (mirrors the Rust provider's by-value self, which the
// compiler enforces statically; Go enforces it dynamically here).
func (p *Provider[T]) Provide(v T) {
	p.state.mu.Lock()
	if p.state.done {
		p.state.mu.Unlock()
		panic("waiter: Provide called more than once")
	}
	p.state.done = true
	p.state.resolved = true
	p.state.value = v
	queue := p.state.queue
	p.state.queue = nil
	p.state.mu.Unlock()

	for _, ch := range queue {
		ch <- v
		close(ch)
	}
}

// Abandon releases every current and future waiter with ok=false, without
// ever resolving a value. Used when the thing the waiter was for (e.g. an
// in-flight instantiate) is cancelled out from under it.
func (p *Provider[T]) Abandon() {
	p.state.mu.Lock()
	if p.state.done {
		p.state.mu.Unlock()
		return
	}
	p.state.done = true
	queue := p.state.queue
	p.state.queue = nil
	p.state.mu.Unlock()

	for _, ch := range queue {
		close(ch)
	}
}

// Get blocks until the value is provided, the provider is abandoned, or ctx
// is done. ok is false only if the provider was abandoned, or ctx ended
// first. A provider that is discarded without calling Provide or Abandon
// leaves Get blocked until ctx is done.
func (w *Waiter[T]) Get(ctx context.Context) (T, bool) {
	w.state.mu.RLock()
	if w.state.resolved {
		v := w.state.value
		w.state.mu.RUnlock()
		return v, true
	}
	w.state.mu.RUnlock()

	// Re-check under the write lock before enqueueing: no value provided
	// between the read-unlock above and here may be lost (spec §4.B
	// no-lost-wakeup invariant).
	w.state.mu.Lock()
	if w.state.resolved {
		v := w.state.value
		w.state.mu.Unlock()
		return v, true
	}
	if w.state.done {
		// Abandoned before we ever subscribed.
		w.state.mu.Unlock()
		var zero T
		return zero, false
	}
	ch := make(chan T, 1)
	w.state.queue = append(w.state.queue, ch)
	w.state.mu.Unlock()

	select {
	case v, ok := <-ch:
		return v, ok
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

// Clone returns a handle sharing the same underlying state.
func (w *Waiter[T]) Clone() *Waiter[T] {
	return &Waiter[T]{state: w.state}
}
