package tasks

import (
	"context"
	"sync"
)

// Observer is notified with every value a [Speculative] publishes.
type Observer[T any] func(T)

// Speculative holds a value that may be updated optimistically.
//
// [Speculative.Apply] publishes the transitioned value before the commit runs and
// restores the snapshot if the commit fails. Applies are serialized.
type Speculative[T any] struct {
	applyMu sync.Mutex

	mu      sync.RWMutex
	value   T
	observe Observer[T]
}

// NewSpeculative creates a [Speculative] holding initial. observe may be nil.
func NewSpeculative[T any](initial T, observe Observer[T]) *Speculative[T] {
	return &Speculative[T]{value: initial, observe: observe}
}

// Value returns the currently published value.
func (s *Speculative[T]) Value() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set publishes v without a commit.
func (s *Speculative[T]) Set(v T) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	s.publish(v)
}

func (s *Speculative[T]) publish(v T) {
	s.mu.Lock()
	s.value = v
	observe := s.observe
	s.mu.Unlock()

	if observe != nil {
		observe(v)
	}
}

// Apply runs transition on a snapshot, publishes the result and commits it.
//
// transition must not mutate its input. On commit success the committed value is
// published and returned; on failure the snapshot is published again and returned
// together with the commit error. A transition error publishes nothing.
func (s *Speculative[T]) Apply(ctx context.Context, transition func(T) (T, error), commit func(context.Context, T) (T, error)) (T, error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	snapshot := s.Value()

	next, err := transition(snapshot)
	if err != nil {
		return snapshot, err
	}
	s.publish(next)

	committed, err := commit(ctx, next)
	if err != nil {
		s.publish(snapshot)
		return snapshot, err
	}

	s.publish(committed)
	return committed, nil
}
