// Package registry owns the table mapping an authenticated user identity to
// its single live transport connection. All mutation happens behind the
// registry's lock; no other component touches the table directly.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"onyx/pkg/domain"
)

// Pusher is the transport-side handle used to push a frame to a connection.
// Push must not block: implementations queue the frame and report false when
// the connection cannot accept it.
type Pusher interface {
	Push(frame any) bool
}

// Connection is one live transport session, exclusively owned by the
// registry for its lifetime.
type Connection struct {
	ID            uuid.UUID
	UserID        domain.UserID
	EstablishedAt time.Time

	pusher Pusher
}

// Push forwards a frame to the connection's transport handle.
func (c *Connection) Push(frame any) bool {
	return c.pusher.Push(frame)
}

// Registry is the process-wide connection table. At most one live connection
// exists per user; registering an identity that is already present replaces
// the prior entry. Closing the displaced transport is the transport layer's
// job, so Register hands its pusher back to the caller.
type Registry struct {
	mu        sync.RWMutex
	conns     map[domain.UserID]*Connection
	observers []func()
}

func New() *Registry {
	return &Registry{
		conns: make(map[domain.UserID]*Connection),
	}
}

// OnChange registers a callback invoked after every register/unregister.
// Observers are wired once at startup, before any connection arrives, and
// are called outside the registry lock so they may read the table freely.
func (r *Registry) OnChange(fn func()) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// Register records a live connection for userID, replacing any prior entry.
// The displaced entry's pusher, when present, is returned so the caller can
// tear the stale transport down.
func (r *Registry) Register(userID domain.UserID, pusher Pusher) (*Connection, Pusher) {
	conn := &Connection{
		ID:            uuid.New(),
		UserID:        userID,
		EstablishedAt: time.Now(),
		pusher:        pusher,
	}

	r.mu.Lock()
	var displaced Pusher
	if prior, ok := r.conns[userID]; ok {
		displaced = prior.pusher
	}
	r.conns[userID] = conn
	r.mu.Unlock()

	r.notifyChanged()
	return conn, displaced
}

// Unregister evicts userID's connection. No-op if absent.
func (r *Registry) Unregister(userID domain.UserID) {
	r.mu.Lock()
	_, present := r.conns[userID]
	delete(r.conns, userID)
	r.mu.Unlock()

	if present {
		r.notifyChanged()
	}
}

// Release evicts conn only if it is still the current entry for its user.
// Transports call this from their teardown path so a stale read loop cannot
// evict the replacement connection that raced it.
func (r *Registry) Release(conn *Connection) {
	r.mu.Lock()
	current, ok := r.conns[conn.UserID]
	if ok && current.ID == conn.ID {
		delete(r.conns, conn.UserID)
	} else {
		ok = false
	}
	r.mu.Unlock()

	if ok {
		r.notifyChanged()
	}
}

// Lookup returns the live connection for userID, if any. Pure read.
func (r *Registry) Lookup(userID domain.UserID) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

// SnapshotOnlineIDs returns the identities with a currently live connection.
func (r *Registry) SnapshotOnlineIDs() []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]domain.UserID, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

// Connections returns every live connection. Presence broadcast fans out
// over this set.
func (r *Registry) Connections() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) notifyChanged() {
	r.mu.RLock()
	observers := r.observers
	r.mu.RUnlock()
	for _, fn := range observers {
		fn()
	}
}
