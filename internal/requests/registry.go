// Package requests tracks in-flight relays per visitor session so they can be
// cancelled when the page is hidden or unloaded.
package requests

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Registry holds cancel functions for one session's in-flight requests.
type Registry struct {
	mu      sync.Mutex
	pending map[string]context.CancelFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{pending: make(map[string]context.CancelFunc)}
}

// Register derives a cancellable context from parent and tracks it. The
// returned done func must be called when the request finishes.
func (r *Registry) Register(parent context.Context) (context.Context, string, func()) {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.NewString()

	r.mu.Lock()
	r.pending[id] = cancel
	r.mu.Unlock()

	return ctx, id, func() {
		r.Unregister(id)
		cancel()
	}
}

// Unregister stops tracking id without cancelling it.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	delete(r.pending, id)
	r.mu.Unlock()
}

// CancelAll cancels and forgets every tracked request, returning how many there were.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	pending := r.pending
	r.pending = make(map[string]context.CancelFunc)
	r.mu.Unlock()

	for _, cancel := range pending {
		cancel()
	}
	return len(pending)
}

// Len reports the number of tracked requests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Manager owns one Registry per session.
type Manager struct {
	mu         sync.Mutex
	registries map[string]*Registry
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{registries: make(map[string]*Registry)}
}

// For returns the registry for sessionID, creating it on first use.
func (m *Manager) For(sessionID string) *Registry {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.registries[sessionID]
	if !ok {
		reg = NewRegistry()
		m.registries[sessionID] = reg
	}
	return reg
}

// Register tracks a request for sessionID. The registry is dropped again
// once its last request finishes, so idle sessions hold nothing.
func (m *Manager) Register(parent context.Context, sessionID string) (context.Context, func()) {
	m.mu.Lock()
	reg, ok := m.registries[sessionID]
	if !ok {
		reg = NewRegistry()
		m.registries[sessionID] = reg
	}
	ctx, _, done := reg.Register(parent)
	m.mu.Unlock()

	return ctx, func() {
		done()
		m.mu.Lock()
		if m.registries[sessionID] == reg && reg.Len() == 0 {
			delete(m.registries, sessionID)
		}
		m.mu.Unlock()
	}
}

// Release cancels everything in flight for sessionID and drops its registry.
func (m *Manager) Release(sessionID string) int {
	m.mu.Lock()
	reg, ok := m.registries[sessionID]
	delete(m.registries, sessionID)
	m.mu.Unlock()
	if !ok {
		return 0
	}
	return reg.CancelAll()
}

// Sessions reports how many sessions currently hold a registry.
func (m *Manager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.registries)
}
