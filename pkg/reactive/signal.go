// Package reactive provides watchable state values. The map surface keeps
// its viewport in one; watchers drive the surface's "moved" signal.
package reactive

import (
	"sync"
	"sync/atomic"
)

// State represents a reactive state value
type State[T any] struct {
	mu    sync.RWMutex
	value T

	watchersMu sync.RWMutex
	watchers   map[uint64]func(T)
	nextID     uint64
}

// NewState creates a new reactive state
func NewState[T any](initial T) *State[T] {
	return &State[T]{
		value:    initial,
		watchers: make(map[uint64]func(T)),
	}
}

// Get returns the current value
func (s *State[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the value and notifies watchers
func (s *State[T]) Set(value T) {
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()

	s.notify(value)
}

// Update atomically reads, modifies, and writes the value
func (s *State[T]) Update(fn func(T) T) {
	s.mu.Lock()
	s.value = fn(s.value)
	value := s.value
	s.mu.Unlock()

	s.notify(value)
}

// Watch registers a watcher invoked on every change. The returned cancel
// func removes the watcher; calling it more than once is safe.
func (s *State[T]) Watch(fn func(T)) (cancel func()) {
	s.watchersMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.watchersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.watchersMu.Lock()
			delete(s.watchers, id)
			s.watchersMu.Unlock()
		})
	}
}

// WatcherCount returns the number of registered watchers
func (s *State[T]) WatcherCount() int {
	s.watchersMu.RLock()
	defer s.watchersMu.RUnlock()
	return len(s.watchers)
}

// notify invokes watchers outside the value lock to avoid deadlock when a
// watcher reads the state back.
func (s *State[T]) notify(value T) {
	s.watchersMu.RLock()
	fns := make([]func(T), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.watchersMu.RUnlock()

	for _, fn := range fns {
		if batch := currentBatch.Load(); batch != nil && batch.active.Load() {
			batch.add(func() { fn(value) })
		} else {
			fn(value)
		}
	}
}

// currentBatch holds the active batch, if any
var currentBatch atomic.Pointer[Batch]

// Batch defers watcher notifications until the batch commits, collapsing
// bursts of updates into a single notification pass.
type Batch struct {
	mu      sync.Mutex
	queued  []func()
	active  atomic.Bool
}

// RunBatch executes fn within a batch context; notifications queued during
// fn are delivered once it returns.
func RunBatch(fn func()) {
	batch := &Batch{}
	batch.active.Store(true)
	prev := currentBatch.Swap(batch)

	defer func() {
		currentBatch.Store(prev)
		batch.commit()
	}()

	fn()
}

func (b *Batch) add(fn func()) {
	b.mu.Lock()
	b.queued = append(b.queued, fn)
	b.mu.Unlock()
}

func (b *Batch) commit() {
	b.active.Store(false)
	b.mu.Lock()
	queued := b.queued
	b.queued = nil
	b.mu.Unlock()

	for _, fn := range queued {
		fn()
	}
}
