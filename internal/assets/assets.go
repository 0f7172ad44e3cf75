// Package assets locates, caches and hot-reloads scene dumps.
package assets

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/marionette/internal/logger"
	"github.com/Faultbox/marionette/pkg/dae"
)

// ErrNotFound is returned when no search path holds the requested file.
var ErrNotFound = errors.New("asset not found")

// Manager loads scene dumps from a list of search directories.
type Manager struct {
	paths []string
	cache *Cache
	mu    sync.RWMutex

	watch *watcher
}

// NewManager creates a new asset manager searching paths. Later paths take
// priority over earlier ones.
func NewManager(paths ...string) *Manager {
	return &Manager{
		paths: append([]string(nil), paths...),
		cache: NewCache(),
	}
}

// AddPath adds a search directory with the highest priority.
func (m *Manager) AddPath(dir string) {
	m.mu.Lock()
	m.paths = append(m.paths, dir)
	m.mu.Unlock()
}

// Resolve returns the absolute path of name. Absolute names and names that
// exist relative to the working directory are used as is; otherwise search
// paths are tried from the most recently added.
func (m *Manager) Resolve(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolveLocked(name)
}

// Load returns the raw bytes of a file, from cache when possible.
func (m *Manager) Load(name string) ([]byte, error) {
	path, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}
	return m.loadPath(path)
}

func (m *Manager) loadPath(path string) ([]byte, error) {
	if data, ok := m.cache.Get(path); ok {
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m.cache.Set(path, data)
	return data, nil
}

// LoadDocument loads and parses a scene dump.
func (m *Manager) LoadDocument(name string) (*dae.Document, string, error) {
	path, err := m.Resolve(name)
	if err != nil {
		return nil, "", err
	}
	doc, err := m.parsePath(path)
	if err != nil {
		return nil, "", err
	}
	return doc, path, nil
}

func (m *Manager) parsePath(path string) (*dae.Document, error) {
	data, err := m.loadPath(path)
	if err != nil {
		return nil, err
	}
	doc, err := dae.Parse(data)
	if err != nil {
		// Do not keep bytes that failed to parse; the file may be mid-write.
		m.cache.Delete(path)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Invalidate drops a cached file so the next load reads it from disk.
func (m *Manager) Invalidate(path string) {
	m.cache.Delete(path)
	logger.Debug("asset invalidated", zap.String("path", path))
}

// Cache returns the manager's cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Close stops watching and clears the cache.
func (m *Manager) Close() error {
	m.mu.Lock()
	w := m.watch
	m.watch = nil
	m.mu.Unlock()

	var err error
	if w != nil {
		err = w.close()
	}
	m.cache.Clear()
	return err
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Delete removes an item from cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
