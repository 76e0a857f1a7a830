// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package session

import "sync"

// Registry is the server-owned set of live sessions. It is the only
// component that holds a strong reference to a Session; other
// components (the notifier) borrow references only for the duration
// of a single fan-out pass, per spec.md §3's ownership note and §9's
// one-way-reference design note.
//
// Single-writer/many-reader discipline (spec.md §5): Register and
// Unregister are the only writers and take the lock; Snapshot is the
// read path and also takes the lock only long enough to copy the
// slice, so iteration over the snapshot never blocks concurrent
// registration.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uint64]*Session
}

// NewRegistry builds an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uint64]*Session)}
}

// Register adds a session to the set.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Unregister removes a session from the set. Safe to call multiple
// times or for an ID never registered.
func (r *Registry) Unregister(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Snapshot returns a point-in-time copy of every registered session,
// regardless of lifecycle state. Callers that need only Active peers
// should use ActiveSnapshot.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// ActiveSnapshot returns every currently Active session, for the
// block-mined fan-out (spec.md §4.E) and for the downloader's peer
// selection (spec.md §4.F).
func (r *Registry) ActiveSnapshot() []*Session {
	all := r.Snapshot()
	out := make([]*Session, 0, len(all))
	for _, s := range all {
		if s.Active() {
			out = append(out, s)
		}
	}
	return out
}

// Get looks up a session by its opaque ID.
func (r *Registry) Get(id uint64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len reports the number of registered sessions, any state.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
