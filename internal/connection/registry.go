package connection

import (
	"sort"
	"sync"

	"github.com/elsbrock/smartproxy/internal/config"
	"github.com/elsbrock/smartproxy/internal/log"
)

// Registry shares Connections by name. The configuration passed on the first
// request for a name is the one the connection keeps; later configurations
// for the same name are ignored. Entries are never evicted.
type Registry struct {
	mu          sync.Mutex
	connections map[string]*Connection
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]*Connection),
	}
}

// GetOrCreate returns the connection registered under name, creating it
// from cfg if the name is unseen.
func (r *Registry) GetOrCreate(name string, cfg *config.Config) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.connections[name]; ok {
		return conn
	}

	conn := New(name, cfg)
	r.connections[name] = conn

	log.Info("registry").
		Str("name", name).
		Int("interfaces", len(conn.cfg.Interfaces)).
		Msg("Registered connection")

	return conn
}

// Lookup returns the connection registered under name without creating one
func (r *Registry) Lookup(name string) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.connections[name]
	return conn, ok
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.connections))
	for name := range r.connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered connections
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connections)
}
