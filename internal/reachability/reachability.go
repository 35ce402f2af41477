// Package reachability exposes the online/offline state of the host as an observable signal.
package reachability

import (
	"sync"
)

type (
	// A Signal reports the current connectivity and its transitions.
	Signal interface {
		// Online returns true when the remote API is considered reachable.
		Online() bool
		// Subscribe registers fn to be called on every transition.
		// The returned function removes the subscription.
		Subscribe(fn func(online bool)) (unsubscribe func())
	}

	// Manual is a Signal driven by explicit calls to Set.
	Manual struct {
		notify      sync.Mutex
		mu          sync.Mutex
		online      bool
		seq         int
		subscribers map[int]func(bool)
	}
)

// NewManual returns a Manual signal in the given initial state.
func NewManual(online bool) *Manual {
	return &Manual{
		online:      online,
		subscribers: map[int]func(bool){},
	}
}

// Online implements Signal.
func (m *Manual) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.online
}

// Subscribe implements Signal.
func (m *Manual) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	id := m.seq
	m.subscribers[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		delete(m.subscribers, id)
	}
}

// Set updates the state and notifies subscribers when it changes.
// It returns true if a transition occurred.
// Transitions are delivered in order, subscribers must not call Set.
func (m *Manual) Set(online bool) bool {
	m.notify.Lock()
	defer m.notify.Unlock()

	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return false
	}
	m.online = online

	subscribers := make([]func(bool), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subscribers = append(subscribers, fn)
	}
	m.mu.Unlock()

	for _, fn := range subscribers {
		fn(online)
	}
	return true
}
