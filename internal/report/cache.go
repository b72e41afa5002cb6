package report

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/couchcryptid/epi-report-service/internal/domain"
)

// cacheKey identifies a parsed report: the same file loaded with different
// options yields different reports.
func cacheKey(path string, opts Options) string {
	return fmt.Sprintf("%s|dates=%t|index=%t", path, opts.ParseDates, opts.DateIsIndex)
}

// fileVersion detects rewritten files so cached reports never go stale.
type fileVersion struct {
	modTime time.Time
	size    int64
}

func statVersion(path string) (fileVersion, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return fileVersion{}, false
	}
	return fileVersion{modTime: fi.ModTime(), size: fi.Size()}, true
}

// lruCache is a thread-safe LRU cache of parsed reports. Cached reports are
// shared between callers and must not be mutated.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key     string
	version fileVersion
	value   *domain.Report
	prev    *entry
	next    *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

// get returns the report cached under key if it was parsed from version.
func (c *lruCache) get(key string, version fileVersion) (*domain.Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.version != version {
		delete(c.entries, key)
		c.remove(e)
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, version fileVersion, value *domain.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.version = version
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, version: version, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
