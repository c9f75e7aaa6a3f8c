package wizard

import (
	"sync"

	"cloud.google.com/go/civil"

	"github.com/wolfman30/salon-booking-wizard/internal/catalog"
)

// AvailabilityCache holds the background "today" warm-up: bookable times per
// professional for a single date. It is eventually consistent; an unfilled
// cache answers with empty results.
type AvailabilityCache struct {
	mu      sync.RWMutex
	date    civil.Date
	ready   bool
	entries map[catalog.ID][]string
}

// Fill replaces the cache contents for date.
func (c *AvailabilityCache) Fill(date civil.Date, byProfessional map[catalog.ID][]string) {
	entries := make(map[catalog.ID][]string, len(byProfessional))
	for id, times := range byProfessional {
		entries[id] = append([]string(nil), times...)
	}
	c.mu.Lock()
	c.date = date
	c.entries = entries
	c.ready = true
	c.mu.Unlock()
}

// Ready reports whether the warm-up has arrived.
func (c *AvailabilityCache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Times returns the cached times for a professional on date. ok is false
// when the cache holds nothing for that date.
func (c *AvailabilityCache) Times(date civil.Date, professionalID catalog.ID) (times []string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready || c.date != date {
		return nil, false
	}
	cached, found := c.entries[professionalID]
	if !found {
		return nil, true
	}
	return append([]string(nil), cached...), true
}

// Date returns the date the cache was filled for.
func (c *AvailabilityCache) Date() (civil.Date, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.date, c.ready
}

func (c *AvailabilityCache) dateOrZero() (civil.Date, bool) {
	if c == nil {
		return civil.Date{}, false
	}
	return c.Date()
}
