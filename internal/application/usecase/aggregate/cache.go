package aggregate

import (
	"sync/atomic"
	"time"

	"feedrelay/internal/domain"
)

// Snapshot is an immutable cache generation. Never mutate a stored snapshot.
type Snapshot struct {
	Quotes    map[string][]domain.PriceQuote // instrument id -> quotes in source order
	LastFetch time.Time
}

func (s *Snapshot) Empty() bool { return len(s.Quotes) == 0 }

// Cache publishes snapshots with a pointer swap so readers never observe a partial refresh.
type Cache struct {
	p atomic.Pointer[Snapshot]
}

func NewCache() *Cache {
	c := &Cache{}
	c.p.Store(&Snapshot{Quotes: map[string][]domain.PriceQuote{}})
	return c
}

func (c *Cache) Load() *Snapshot { return c.p.Load() }

func (c *Cache) Store(s *Snapshot) { c.p.Store(s) }
