package chat

import (
	"strings"
	"sync"
)

// Collector is a Sink that accumulates fragments into a transcript.
// Safe for concurrent use with the delivering goroutine.
type Collector struct {
	mu    sync.Mutex
	buf   strings.Builder
	count int
}

func NewCollector() *Collector {
	return &Collector{}
}

// Sink returns the fragment callback bound to this collector.
func (c *Collector) Sink() Sink {
	return func(fragment string) {
		c.mu.Lock()
		c.buf.WriteString(fragment)
		c.count++
		c.mu.Unlock()
	}
}

// Text returns everything collected so far.
func (c *Collector) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Fragments returns the number of fragments collected so far.
func (c *Collector) Fragments() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
