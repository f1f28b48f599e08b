package websocket

import "sync"

// connRegistry maps connection ids to live clients.
type connRegistry struct {
	mu      sync.RWMutex
	clients map[string]*client
}

func newConnRegistry() *connRegistry {
	return &connRegistry{
		clients: make(map[string]*client),
	}
}

func (that *connRegistry) add(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clients[c.id] = c
}

func (that *connRegistry) remove(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.clients, id)
}

func (that *connRegistry) get(id string) (*client, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	c, ok := that.clients[id]

	return c, ok
}
