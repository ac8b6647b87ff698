package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"PolicyDigest/internal/domain"
)

// Item is a single listing entry as published by a site.
type Item struct {
	Title      string
	URL        string
	Date       string
	Tag        domain.Tag
	Suggestion string
}

// Result is what one adapter run produced. BaseURL is the page (or site root)
// the items were read from. Stale counts well-formed entries older than the
// cutoff.
type Result struct {
	BaseURL string
	Items   []Item
	Skipped int
	Stale   int
}

// Adapter fetches items published on or after since. A zero since disables
// the cutoff. Total failures (network, non-200) are returned as errors;
// malformed entries are skipped and counted.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, since time.Time) (Result, error)
}

// Keep reports whether an entry published at published passes the inclusive
// day cutoff.
func Keep(published, since time.Time) bool {
	if since.IsZero() {
		return true
	}
	py, pm, pd := published.Date()
	sy, sm, sd := since.Date()
	pubDay := time.Date(py, pm, pd, 0, 0, 0, 0, time.UTC)
	cutDay := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	return !pubDay.Before(cutDay)
}

// Collector accumulates parsed entries for one adapter run.
type Collector struct {
	since   time.Time
	items   []Item
	skipped int
	stale   int
}

// NewCollector starts a collection with the given cutoff.
func NewCollector(since time.Time) *Collector {
	return &Collector{since: since}
}

// Skip records an entry that could not be parsed.
func (c *Collector) Skip() {
	c.skipped++
}

// Add keeps the item when published passes the cutoff and reports whether
// it did. withTime selects the date-time rendering of published.
func (c *Collector) Add(item Item, published time.Time, withTime bool) bool {
	if !Keep(published, c.since) {
		c.stale++
		return false
	}
	item.Date = domain.FormatDate(published, withTime)
	c.items = append(c.items, item)
	return true
}

// Merge appends another collection, used by adapters reading several pages.
func (c *Collector) Merge(other *Collector) {
	if other == nil {
		return
	}
	c.items = append(c.items, other.items...)
	c.skipped += other.skipped
	c.stale += other.stale
}

// Len returns the number of kept items.
func (c *Collector) Len() int {
	return len(c.items)
}

// Result finalizes the collection.
func (c *Collector) Result(baseURL string) Result {
	return Result{BaseURL: baseURL, Items: c.items, Skipped: c.skipped, Stale: c.stale}
}

// Registry keeps a mapping from adapter names to their implementations.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[string]Adapter{}}
}

// Register adds or replaces an adapter implementation.
func (r *Registry) Register(adapter Adapter) {
	if r.adapters == nil {
		r.adapters = map[string]Adapter{}
	}
	r.adapters[adapter.Name()] = adapter
}

// Resolve returns an adapter by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Adapter, error) {
	if adapter, ok := r.adapters[name]; ok {
		return adapter, nil
	}
	return nil, fmt.Errorf("adapter %s is not registered", name)
}

// Names lists registered adapters alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
