package usecase

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/infrastructure/storage"
	"PolicyDigest/internal/pipeline"
	"PolicyDigest/internal/ports"
	"PolicyDigest/internal/scanner"
)

func TestCategorizeHearingSkipsModel(t *testing.T) {
	t.Parallel()

	chat := &countingChat{reply: "Medicare"}
	got := NewCategorizer(chat, nil).Categorize(context.Background(), "Senate Finance Committee Hearing on Drug Pricing", true)
	if got != domain.LabelEvents {
		t.Fatalf("hearing must be labeled %q, got %q", domain.LabelEvents, got)
	}
	if chat.Calls() != 0 {
		t.Fatalf("expected zero model calls, got %d", chat.Calls())
	}
}

func TestCategorizeNeverReturnsEventsForArticles(t *testing.T) {
	t.Parallel()

	cases := map[string]domain.Label{
		"Calendar (HEARINGS ONLY)": domain.LabelCatchAll,
		"pharma":                   domain.LabelPharma,
		"Medicaid":                 domain.LabelMedicaid,
		"something else":           domain.LabelCatchAll,
	}
	for reply, want := range cases {
		got := NewCategorizer(&countingChat{reply: reply}, nil).Categorize(context.Background(), "title", false)
		if got != want {
			t.Fatalf("reply %q: got %q, want %q", reply, got, want)
		}
	}

	failing := NewCategorizer(&countingChat{err: errDown}, nil)
	if got := failing.Categorize(context.Background(), "title", false); got != domain.LabelCatchAll {
		t.Fatalf("failed call must fall back to the catch-all, got %q", got)
	}
}

func TestClassifyReturnsErrorSentinel(t *testing.T) {
	t.Parallel()

	rel := NewCategorizer(&countingChat{err: errDown}, nil).Classify(context.Background(), "x")
	if !rel.IsError() {
		t.Fatalf("expected error sentinel, got %q", rel)
	}
	if rel := NewCategorizer(&countingChat{reply: "maybe\n"}, nil).Classify(context.Background(), "x"); rel != domain.RelevanceMaybe {
		t.Fatalf("unexpected relevance %q", rel)
	}
}

type curationFixture struct {
	svc      *Curation
	chat     *countingChat
	renderer *recordingRenderer
	news     *stubAdapter
	senate   *stubAdapter
}

func newCurationFixture() curationFixture {
	news := &stubAdapter{name: "news/cms", result: scanner.Result{Items: []scanner.Item{
		{Title: "CMS Rule X", URL: "https://cms.gov/a", Date: "2024-03-02"},
		{Title: "CMS Rule Y", URL: "https://cms.gov/b", Date: "2024-03-03"},
	}}}
	senate := &stubAdapter{name: "senate/finance", result: scanner.Result{Items: []scanner.Item{
		{Title: "Drug pricing hearing", URL: "https://finance.senate.gov/h", Date: "2024-03-05T10:00:00", Tag: domain.TagHearing},
	}}}
	chat := &countingChat{reply: "Medicare"}
	renderer := &recordingRenderer{}
	labeler := NewCategorizer(chat, nil)
	bundles := NewBundles(BundleDeps{
		News:   []NewsFeed{{Name: "CMS", Adapter: news}},
		Senate: []CommitteeFeed{{Name: "Finance", Adapter: senate}},
		Mail:   stubMail{},
	})
	svc := NewCuration(CurationDeps{
		Sessions: storage.NewMemorySessionStore(),
		Cache:    storage.NewArticleCache(),
		Loader:   bundles,
		Labeler:  labeler,
		Renderer: renderer,
	})
	return curationFixture{svc: svc, chat: chat, renderer: renderer, news: news, senate: senate}
}

func (f curationFixture) articleID(stage domain.Stage, title string, t *testing.T) string {
	t.Helper()
	view, err := f.svc.Render(context.Background(), "s1", stage)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	for _, g := range view.Groups {
		for _, a := range g.Articles {
			if a.Title == title {
				return a.ID
			}
		}
	}
	t.Fatalf("article %q not rendered on %s", title, stage)
	return ""
}

func TestCurationEndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newCurationFixture()

	if _, err := f.svc.Start(ctx, "s1", "2024-03-01", false); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if _, err := f.svc.Start(ctx, "s1", "March 1", false); !errors.Is(err, pipeline.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}

	if err := f.svc.Load(ctx, "s1", domain.StageNews); err != nil {
		t.Fatalf("Load news error: %v", err)
	}
	view, err := f.svc.Render(ctx, "s1", domain.StageNews)
	if err != nil || !view.Ready || len(view.Groups) != 1 || len(view.Groups[0].Articles) != 2 {
		t.Fatalf("unexpected news view %+v %v", view, err)
	}
	if view.Groups[0].Articles[0].Pretty != "March 2nd" {
		t.Fatalf("unexpected pretty date %q", view.Groups[0].Articles[0].Pretty)
	}

	ruleX := f.articleID(domain.StageNews, "CMS Rule X", t)
	if _, err := f.svc.Submit(ctx, "s1", domain.StageNews, pipeline.ActionNext, Form{
		Checked: []string{ruleX, "not-fetched"},
		Rows:    []pipeline.ManualRow{{Title: "Typed item", URL: "https://example.com/t", Date: "2024-03-04"}},
	}); err != nil {
		t.Fatalf("Submit news error: %v", err)
	}

	if err := f.svc.Load(ctx, "s1", domain.StageSenate); err != nil {
		t.Fatalf("Load senate error: %v", err)
	}
	hearing := f.articleID(domain.StageSenate, "Drug pricing hearing", t)
	if _, err := f.svc.Submit(ctx, "s1", domain.StageSenate, pipeline.ActionNext, Form{Checked: []string{hearing}}); err != nil {
		t.Fatalf("Submit senate error: %v", err)
	}

	if _, err := f.svc.Review(ctx, "s1"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("review before categorize must fail with ErrNotReady, got %v", err)
	}

	res, err := f.svc.Categorize(ctx, "s1")
	if err != nil || !res.Rebuilt || res.Items != 3 {
		t.Fatalf("unexpected categorize result %+v %v", res, err)
	}
	if f.chat.Calls() != 2 {
		t.Fatalf("expected two model calls for the two articles, got %d", f.chat.Calls())
	}

	again, err := f.svc.Categorize(ctx, "s1")
	if err != nil || again.Rebuilt || f.chat.Calls() != 2 {
		t.Fatalf("same selection must not rebuild: %+v calls=%d", again, f.chat.Calls())
	}

	review, err := f.svc.Review(ctx, "s1")
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}
	if review.Count != 3 || review.Sections[0].Label != domain.LabelEvents {
		t.Fatalf("unexpected review %+v", review)
	}
	if review.Sections[0].Items[0].Pretty != "March 5th at 10:00 AM" {
		t.Fatalf("unexpected hearing date %q", review.Sections[0].Items[0].Pretty)
	}

	if err := f.svc.Move(ctx, "s1", ruleX, domain.LabelMedicare, domain.LabelPharma, 0); err != nil {
		t.Fatalf("Move error: %v", err)
	}
	if err := f.svc.Rename(ctx, "s1", ruleX, "Rule X, renamed"); err != nil {
		t.Fatalf("Rename error: %v", err)
	}
	if err := f.svc.AddSublink(ctx, "s1", ruleX, domain.Link{Title: "Fact sheet", URL: "https://cms.gov/f"}); err != nil {
		t.Fatalf("AddSublink error: %v", err)
	}

	// re-entering categorize with the same selection keeps the manual move
	if _, err := f.svc.Categorize(ctx, "s1"); err != nil {
		t.Fatalf("Categorize error: %v", err)
	}

	var buf bytes.Buffer
	if err := f.svc.Export(ctx, "s1", &buf); err != nil {
		t.Fatalf("Export error: %v", err)
	}
	var pharma bool
	for _, section := range f.renderer.digest.Sections {
		if section.Heading != string(domain.LabelPharma) {
			continue
		}
		pharma = true
		entry := section.Entries[0]
		if entry.Title != "Rule X, renamed" || len(entry.Sublinks) != 1 {
			t.Fatalf("export must carry edits: %+v", entry)
		}
	}
	if !pharma {
		t.Fatalf("moved article missing from export: %+v", f.renderer.digest)
	}

	if err := f.svc.Reset(ctx, "s1"); err != nil {
		t.Fatalf("Reset error: %v", err)
	}
	st, _ := f.svc.State(ctx, "s1")
	if st.Stage != domain.StageStart || len(st.Selections) != 0 {
		t.Fatalf("reset must clear state: %+v", st)
	}
	if view, _ := f.svc.Render(ctx, "s1", domain.StageNews); view.Ready {
		t.Fatalf("reset must drop cached payloads")
	}
}

func TestChangedSelectionRebuildsAndKeepsOverrides(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newCurationFixture()
	_, _ = f.svc.Start(ctx, "s1", "", false)
	if err := f.svc.Load(ctx, "s1", domain.StageNews); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	ruleX := f.articleID(domain.StageNews, "CMS Rule X", t)
	ruleY := f.articleID(domain.StageNews, "CMS Rule Y", t)

	_, _ = f.svc.Submit(ctx, "s1", domain.StageNews, pipeline.ActionNext, Form{Checked: []string{ruleX}})
	if _, err := f.svc.Categorize(ctx, "s1"); err != nil {
		t.Fatalf("Categorize error: %v", err)
	}
	if err := f.svc.Move(ctx, "s1", ruleX, domain.LabelMedicare, domain.LabelHealthTech, 0); err != nil {
		t.Fatalf("Move error: %v", err)
	}

	_, _ = f.svc.Submit(ctx, "s1", domain.StageNews, pipeline.ActionNext, Form{Checked: []string{ruleX, ruleY}})
	res, err := f.svc.Categorize(ctx, "s1")
	if err != nil || !res.Rebuilt {
		t.Fatalf("changed selection must rebuild: %+v %v", res, err)
	}
	if f.chat.Calls() != 2 {
		t.Fatalf("overridden article must not be re-sent to the model, got %d calls", f.chat.Calls())
	}

	st, _ := f.svc.State(ctx, "s1")
	if l, _ := st.Index.Find(ruleX); l != domain.LabelHealthTech {
		t.Fatalf("override lost on rebuild, found in %q", l)
	}
}

func TestLoadFailureLeavesStageNotReady(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewCuration(CurationDeps{
		Sessions: storage.NewMemorySessionStore(),
		Cache:    storage.NewArticleCache(),
		Loader:   NewBundles(BundleDeps{Mail: stubMail{err: errDown}}),
		Labeler:  NewCategorizer(nil, nil),
	})

	if err := svc.Load(ctx, "s1", domain.StageGmail); !errors.Is(err, errDown) {
		t.Fatalf("expected mail error, got %v", err)
	}
	st, _ := svc.State(ctx, "s1")
	if st.Ready[domain.StageGmail] {
		t.Fatalf("failed load must not mark the stage ready")
	}
	if err := svc.Load(ctx, "s1", domain.StageReview); !errors.Is(err, pipeline.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSweeperExpiresIdleSessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sessions := storage.NewMemorySessionStore()
	cache := storage.NewArticleCache()
	_ = sessions.Save(ctx, "s1", []byte("{}"))
	cache.Put("s1", domain.StageNews, ports.Batch{})

	sweeper := NewSweeper(nil, sessions, cache, time.Hour, nil)
	gone, payloads, err := sweeper.Sweep(ctx, time.Now().Add(2*time.Hour))
	if err != nil || gone != 1 || payloads != 1 {
		t.Fatalf("unexpected sweep %d %d %v", gone, payloads, err)
	}
	if err := sweeper.Start(ctx); err != nil {
		t.Fatalf("Start without a driver must be a no-op: %v", err)
	}
}
