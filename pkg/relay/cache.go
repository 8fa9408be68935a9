package relay

import "sync"

// Cache hands out one Manager per unique ordered agent set. The key is the
// composite name derived from the agent list, so two callers configuring the
// same agents in the same order share a manager, its transport, and its
// pending batch.
type Cache struct {
	mu       sync.Mutex
	managers map[string]*Manager
}

// NewCache creates an empty manager cache.
func NewCache() *Cache {
	return &Cache{managers: make(map[string]*Manager)}
}

// GetManager returns the cached manager for the agent set in cfg, creating
// it on first use. Construction options only apply when the manager is
// actually created.
func (c *Cache) GetManager(cfg Config, opts ...Option) (*Manager, error) {
	reg, err := newRegistry(cfg.Agents)
	if err != nil {
		return nil, err
	}
	name := reg.Name()

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.managers[name]; ok {
		return m, nil
	}
	m, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	c.managers[name] = m
	return m, nil
}

// ReleaseAll retires every cached manager and empties the cache.
func (c *Cache) ReleaseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, m := range c.managers {
		m.Release()
		delete(c.managers, name)
	}
}
