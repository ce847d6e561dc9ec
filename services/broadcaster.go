package services

import (
	"chat-sync/contract"
	"sync"
)

// Broadcaster fans a value out to its listeners in subscription order.
type Broadcaster[T any] struct {
	mu        sync.Mutex
	nextID    int
	listeners []subscription[T]
}

type subscription[T any] struct {
	id       int
	listener contract.Listener[T]
}

// Subscribe registers listener and returns the function that removes it.
func (b *Broadcaster[T]) Subscribe(listener contract.Listener[T]) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, subscription[T]{id: id, listener: listener})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.listeners {
			if s.id == id {
				b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Publish must not be called with the publisher's own lock held.
func (b *Broadcaster[T]) Publish(value T) {
	b.mu.Lock()
	current := make([]subscription[T], len(b.listeners))
	copy(current, b.listeners)
	b.mu.Unlock()

	for _, s := range current {
		s.listener(value)
	}
}
