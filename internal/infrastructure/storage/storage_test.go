package storage

import (
	"context"
	"testing"
	"time"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/ports"
)

func TestPostgresQueries(t *testing.T) {
	t.Parallel()

	store := NewPostgresSessionStore(nil, "curation_sessions")

	query, args, err := store.loadQuery("abc").ToSql()
	if err != nil {
		t.Fatalf("load ToSql: %v", err)
	}
	if query != `SELECT state FROM "curation_sessions" WHERE id = $1` || len(args) != 1 || args[0] != "abc" {
		t.Fatalf("unexpected load query %q %v", query, args)
	}

	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	query, args, err = store.saveQuery("abc", []byte(`{}`), at).ToSql()
	if err != nil {
		t.Fatalf("save ToSql: %v", err)
	}
	want := `INSERT INTO "curation_sessions" (id,state,updated_at) VALUES ($1,$2,$3) ` +
		`ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`
	if query != want || len(args) != 3 {
		t.Fatalf("unexpected save query %q", query)
	}

	query, _, err = store.sweepQuery(at).ToSql()
	if err != nil {
		t.Fatalf("sweep ToSql: %v", err)
	}
	if query != `DELETE FROM "curation_sessions" WHERE updated_at < $1` {
		t.Fatalf("unexpected sweep query %q", query)
	}
}

func TestMemorySessionStoreLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemorySessionStore()
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	if _, ok, _ := store.Load(ctx, "s1"); ok {
		t.Fatalf("empty store must miss")
	}
	if err := store.Save(ctx, "s1", []byte("one")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	clock = clock.Add(2 * time.Hour)
	_ = store.Save(ctx, "s2", []byte("two"))

	state, ok, err := store.Load(ctx, "s1")
	if err != nil || !ok || string(state) != "one" {
		t.Fatalf("unexpected load %q %v %v", state, ok, err)
	}

	removed, err := store.Sweep(ctx, clock.Add(-time.Hour))
	if err != nil || removed != 1 {
		t.Fatalf("expected one swept record, got %d %v", removed, err)
	}
	if _, ok, _ := store.Load(ctx, "s1"); ok {
		t.Fatalf("s1 must be swept")
	}
	_ = store.Delete(ctx, "s2")
	if _, ok, _ := store.Load(ctx, "s2"); ok {
		t.Fatalf("s2 must be deleted")
	}
}

func TestArticleCacheIsPerSession(t *testing.T) {
	t.Parallel()

	cache := NewArticleCache()
	article := domain.Article{ID: "a1", Title: "CMS Rule X"}
	cache.Put("s1", domain.StageNews, ports.Batch{Articles: []domain.Article{article}})

	if _, ok := cache.Lookup("s2", domain.StageNews, "a1"); ok {
		t.Fatalf("sessions must not share payloads")
	}
	got, ok := cache.Lookup("s1", domain.StageNews, "a1")
	if !ok || got.Title != "CMS Rule X" {
		t.Fatalf("unexpected lookup %+v %v", got, ok)
	}
	if _, ok := cache.Lookup("s1", domain.StageHouse, "a1"); ok {
		t.Fatalf("stages must not share payloads")
	}

	cache.Clear("s1")
	if _, ok := cache.Batch("s1", domain.StageNews); ok {
		t.Fatalf("clear must drop the session")
	}
}

func TestArticleCacheSweep(t *testing.T) {
	t.Parallel()

	cache := NewArticleCache()
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }
	cache.Put("old", domain.StageNews, ports.Batch{})
	clock = clock.Add(3 * time.Hour)
	cache.Put("fresh", domain.StageNews, ports.Batch{})

	if removed := cache.Sweep(clock.Add(-time.Hour)); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok := cache.Batch("fresh", domain.StageNews); !ok {
		t.Fatalf("fresh session must survive")
	}
}

func TestArticleCacheLookupKeepsPayloadAlive(t *testing.T) {
	t.Parallel()

	cache := NewArticleCache()
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }
	cache.Put("review", domain.StageNews, ports.Batch{Articles: []domain.Article{{ID: "a1", Title: "Rule"}}})

	// the editor only reviews and exports for hours after loading
	clock = clock.Add(11 * time.Hour)
	if _, ok := cache.Lookup("review", domain.StageNews, "a1"); !ok {
		t.Fatalf("article must resolve before expiry")
	}
	clock = clock.Add(2 * time.Hour)

	if removed := cache.Sweep(clock.Add(-12 * time.Hour)); removed != 0 {
		t.Fatalf("a recently used payload was swept")
	}
	if _, ok := cache.Lookup("review", domain.StageNews, "a1"); !ok {
		t.Fatalf("article vanished while the session was in use")
	}
}
