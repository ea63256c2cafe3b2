// Package selection holds the in-memory cache of seats tentatively
// picked during an in-progress counter transaction.  Selections are
// scoped to the running process: they are never persisted and are
// lost on restart, which is fine because an unfinished counter sale
// does not survive a restart either.
package selection

import (
	"sync"
	"time"

	"github.com/skylight-cinema/box-office/internal/model"
)

// Cache maps a date|show key to the set of currently selected seat
// labels.  All methods are safe for concurrent use.
type Cache struct {
	mu sync.RWMutex
	m  map[string]map[string]struct{}
}

// NewCache returns an empty selection cache.
func NewCache() *Cache {
	return &Cache{m: make(map[string]map[string]struct{})}
}

// Key builds the cache key for a screening.  The date is reduced to
// its calendar day so callers passing timestamps land on the same key.
func Key(date time.Time, show model.Show) string {
	return date.UTC().Format("2006-01-02") + "|" + string(show)
}

// Set replaces the selection set for a screening.  Passing an empty
// slice clears it.
func (c *Cache) Set(date time.Time, show model.Show, seatLabels []string) {
	key := Key(date, show)
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(seatLabels) == 0 {
		delete(c.m, key)
		return
	}
	set := make(map[string]struct{}, len(seatLabels))
	for _, l := range seatLabels {
		if l != "" {
			set[l] = struct{}{}
		}
	}
	c.m[key] = set
}

// Add inserts seats into the selection set for a screening.
func (c *Cache) Add(date time.Time, show model.Show, seatLabels []string) {
	key := Key(date, show)
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.m[key]
	if !ok {
		set = make(map[string]struct{}, len(seatLabels))
		c.m[key] = set
	}
	for _, l := range seatLabels {
		if l != "" {
			set[l] = struct{}{}
		}
	}
}

// Remove drops seats from the selection set, deleting the entry when
// it becomes empty.
func (c *Cache) Remove(date time.Time, show model.Show, seatLabels []string) {
	key := Key(date, show)
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.m[key]
	if !ok {
		return
	}
	for _, l := range seatLabels {
		delete(set, l)
	}
	if len(set) == 0 {
		delete(c.m, key)
	}
}

// Clear removes every selection for a screening.  Called after a
// booking is created so the seats do not linger as selected.
func (c *Cache) Clear(date time.Time, show model.Show) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, Key(date, show))
}

// Get returns a copy of the selected seat labels for a screening.
func (c *Cache) Get(date time.Time, show model.Show) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set, ok := c.m[Key(date, show)]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	return out
}
