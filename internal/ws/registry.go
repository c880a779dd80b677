package ws

import (
	"sort"
	"sync"
)

// Registry tracks live connections. conns is the broadcast set; byUser maps a
// user to its most recent connection. A reconnect replaces the byUser entry but
// leaves the older connection in conns until it is deregistered.
type Registry struct {
	mu     sync.RWMutex
	conns  map[*Conn]struct{}
	byUser map[string]*Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[*Conn]struct{}),
		byUser: make(map[string]*Conn),
	}
}

// Register adds conn to the broadcast set and points its user at it.
func (r *Registry) Register(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn] = struct{}{}
	r.byUser[conn.UserID()] = conn
}

// Deregister removes conn. The user entry is only dropped if it still points at
// conn. It reports whether conn was still registered and is safe to repeat.
func (r *Registry) Deregister(conn *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, removed := r.conns[conn]
	delete(r.conns, conn)
	if current, ok := r.byUser[conn.UserID()]; ok && current == conn {
		delete(r.byUser, conn.UserID())
	}
	return removed
}

// OnlineUserIDs returns the connected users, sorted.
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.byUser))
	for id := range r.byUser {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// IsOnline reports whether userID has a live connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

// Snapshot copies the broadcast set.
func (r *Registry) Snapshot() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*Conn, 0, len(r.conns))
	for conn := range r.conns {
		conns = append(conns, conn)
	}
	return conns
}

// Len returns the size of the broadcast set.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
