package sendowl

import "sync"

// ProductNameCache memoizes product-name lookups. It is the only state that
// outlives a single report generation, so access is guarded in case the host
// allows concurrent invocations.
type ProductNameCache struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewProductNameCache() *ProductNameCache {
	return &ProductNameCache{names: make(map[string]string)}
}

func (c *ProductNameCache) Get(productID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[productID]
	return name, ok
}

func (c *ProductNameCache) Put(productID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[productID] = name
}
