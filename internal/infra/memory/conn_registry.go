package memory

import "sync"

// ConnRegistry maps connection ids to room PINs, implementing
// app.ConnRegistry. Disconnect handling uses it to route a dropped
// connection to its room without scanning every live room.
type ConnRegistry struct {
	mu    sync.RWMutex
	conns map[string]string
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{conns: make(map[string]string)}
}

func (r *ConnRegistry) Bind(connID, pin string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = pin
}

func (r *ConnRegistry) Lookup(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pin, ok := r.conns[connID]
	return pin, ok
}

func (r *ConnRegistry) Unbind(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
}
