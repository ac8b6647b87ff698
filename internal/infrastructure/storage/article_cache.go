package storage

import (
	"sync"
	"time"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/ports"
)

type sessionBatches struct {
	batches map[domain.Stage]ports.Batch
	byID    map[domain.Stage]map[string]domain.Article
	touched time.Time
}

// ArticleCache holds fetched payloads per session and stage. Persisted
// session records refer to these articles by id only.
type ArticleCache struct {
	mu       sync.RWMutex
	sessions map[string]*sessionBatches
	now      func() time.Time
}

var _ ports.ArticleCache = (*ArticleCache)(nil)

// NewArticleCache builds an empty cache.
func NewArticleCache() *ArticleCache {
	return &ArticleCache{sessions: map[string]*sessionBatches{}, now: time.Now}
}

// Put replaces the stage payload for session.
func (c *ArticleCache) Put(session string, stage domain.Stage, batch ports.Batch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[session]
	if !ok {
		s = &sessionBatches{
			batches: map[domain.Stage]ports.Batch{},
			byID:    map[domain.Stage]map[string]domain.Article{},
		}
		c.sessions[session] = s
	}

	index := make(map[string]domain.Article, len(batch.Articles))
	for _, a := range batch.Articles {
		index[a.ID] = a
	}
	s.batches[stage] = batch
	s.byID[stage] = index
	s.touched = c.now()
}

// Batch returns the stage payload for session.
func (c *ArticleCache) Batch(session string, stage domain.Stage) (ports.Batch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[session]
	if !ok {
		return ports.Batch{}, false
	}
	batch, ok := s.batches[stage]
	if ok {
		s.touched = c.now()
	}
	return batch, ok
}

// Lookup resolves one fetched article by id. A hit keeps the session's
// payloads alive like any other use.
func (c *ArticleCache) Lookup(session string, stage domain.Stage, id string) (domain.Article, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[session]
	if !ok {
		return domain.Article{}, false
	}
	a, ok := s.byID[stage][id]
	if ok {
		s.touched = c.now()
	}
	return a, ok
}

// Clear drops every payload of session.
func (c *ArticleCache) Clear(session string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.sessions, session)
}

// Sweep drops sessions untouched since olderThan and reports how many.
func (c *ArticleCache) Sweep(olderThan time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, s := range c.sessions {
		if s.touched.Before(olderThan) {
			delete(c.sessions, id)
			removed++
		}
	}
	return removed
}
