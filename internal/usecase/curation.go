package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/pipeline"
	"PolicyDigest/internal/ports"
)

// ErrNotReady is returned when a page needs results that were not built yet.
var ErrNotReady = errors.New("stage results are not ready")

// StageLoader fetches the payload of one wizard stage.
type StageLoader interface {
	Load(ctx context.Context, stage domain.Stage, since time.Time, useAI bool) (ports.Batch, error)
}

// Labeler assigns a digest category to a title.
type Labeler interface {
	Categorize(ctx context.Context, title string, isHearing bool) domain.Label
}

// CurationDeps wires the driven adapters into the curation service.
type CurationDeps struct {
	Sessions    ports.SessionStore
	Cache       ports.ArticleCache
	Loader      StageLoader
	Labeler     Labeler
	Renderer    ports.DigestRenderer
	DigestTitle string
	Logger      *slog.Logger
}

// Curation drives the editor wizard over persisted session state.
type Curation struct {
	sessions ports.SessionStore
	cache    ports.ArticleCache
	loader   StageLoader
	labeler  Labeler
	renderer ports.DigestRenderer
	title    string
	logger   *slog.Logger
	group    singleflight.Group
}

// NewCuration constructs the curation service.
func NewCuration(deps CurationDeps) *Curation {
	title := deps.DigestTitle
	if title == "" {
		title = "Policy Digest"
	}
	return &Curation{
		sessions: deps.Sessions,
		cache:    deps.Cache,
		loader:   deps.Loader,
		labeler:  deps.Labeler,
		renderer: deps.Renderer,
		title:    title,
		logger:   deps.Logger,
	}
}

// Form is a submitted stage page.
type Form struct {
	Checked []string
	Rows    []pipeline.ManualRow
}

// ArticleView is an article prepared for a page.
type ArticleView struct {
	domain.Article
	Pretty string
}

// GroupView is one source block of a stage page.
type GroupView struct {
	ports.Group
	Articles []ArticleView
}

// StageView is everything a stage page renders.
type StageView struct {
	Stage     domain.Stage
	Ready     bool
	StartDate string
	UseAI     bool
	Groups    []GroupView
	Checked   map[string]bool
	Rows      []pipeline.ManualRow
}

// ReviewItem is one hydrated entry of the review page.
type ReviewItem struct {
	ID            string
	Stage         domain.Stage
	Title         string
	OriginalTitle string
	URL           string
	Date          string
	Pretty        string
	Manual        bool
	Sublinks      []domain.Link
}

// ReviewSection is one category block of the review page.
type ReviewSection struct {
	Label domain.Label
	Items []ReviewItem
}

// ReviewView is the categorized digest.
type ReviewView struct {
	Sections []ReviewSection
	Count    int
}

// CategorizeResult reports what a categorize step did.
type CategorizeResult struct {
	Items   int
	Rebuilt bool
}

// State returns the session record, or a fresh one for an unknown session.
func (c *Curation) State(ctx context.Context, sid string) (pipeline.State, error) {
	raw, ok, err := c.sessions.Load(ctx, sid)
	if err != nil {
		return pipeline.State{}, fmt.Errorf("load session %s: %w", sid, err)
	}
	if !ok {
		return pipeline.New(), nil
	}
	return pipeline.Decode(raw)
}

func (c *Curation) save(ctx context.Context, sid string, st pipeline.State) error {
	raw, err := st.Encode()
	if err != nil {
		return err
	}
	if err := c.sessions.Save(ctx, sid, raw); err != nil {
		return fmt.Errorf("save session %s: %w", sid, err)
	}
	return nil
}

func (c *Curation) apply(ctx context.Context, sid string, action pipeline.Action) (pipeline.State, error) {
	st, err := c.State(ctx, sid)
	if err != nil {
		return pipeline.State{}, err
	}
	next, err := pipeline.Apply(st, action)
	if err != nil {
		return st, err
	}
	if err := c.save(ctx, sid, next); err != nil {
		return st, err
	}
	return next, nil
}

// Start records the cutoff and AI flag and opens the gmail stage.
func (c *Curation) Start(ctx context.Context, sid, startDate string, useAI bool) (pipeline.State, error) {
	return c.apply(ctx, sid, pipeline.Action{Kind: pipeline.ActionStart, StartDate: startDate, UseAI: useAI})
}

// Load re-fetches stage for the session. Concurrent loads of the same stage
// and session share one fetch.
func (c *Curation) Load(ctx context.Context, sid string, stage domain.Stage) error {
	if !stage.Fetches() {
		return fmt.Errorf("%w: load %s", pipeline.ErrInvalidTransition, stage)
	}
	st, err := c.State(ctx, sid)
	if err != nil {
		return err
	}
	since, err := cutoff(st.StartDate)
	if err != nil {
		return err
	}

	_, err, _ = c.group.Do(sid+"|"+string(stage), func() (any, error) {
		started := time.Now()
		batch, err := c.loader.Load(ctx, stage, since, st.UseAI)
		if err != nil {
			return nil, err
		}
		c.cache.Put(sid, stage, batch)
		c.debug("stage loaded", "stage", stage, "articles", len(batch.Articles), "groups", len(batch.Groups), "took", time.Since(started))
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", stage, err)
	}

	_, err = c.apply(ctx, sid, pipeline.Action{Kind: pipeline.ActionLoad, Stage: stage})
	return err
}

// Submit persists a stage page. kind is add, next or back.
func (c *Curation) Submit(ctx context.Context, sid string, stage domain.Stage, kind pipeline.Kind, form Form) (pipeline.State, error) {
	switch kind {
	case pipeline.ActionAdd, pipeline.ActionNext, pipeline.ActionBack:
	default:
		return pipeline.State{}, fmt.Errorf("%w: %s on %s", pipeline.ErrInvalidTransition, kind, stage)
	}

	st, err := c.State(ctx, sid)
	if err != nil {
		return pipeline.State{}, err
	}

	previous := map[string]pipeline.Selection{}
	for _, sel := range st.Selections[stage] {
		if !sel.Manual {
			previous[sel.ID] = sel
		}
	}

	picked := make([]pipeline.Selection, 0, len(form.Checked))
	for _, id := range form.Checked {
		if a, ok := c.cache.Lookup(sid, stage, id); ok {
			picked = append(picked, pipeline.Selection{ID: a.ID, Source: a.GroupKey()})
			continue
		}
		if sel, ok := previous[id]; ok {
			picked = append(picked, sel)
		}
	}

	next, err := pipeline.Apply(st, pipeline.Action{Kind: kind, Stage: stage, Picked: picked, Rows: form.Rows})
	if err != nil {
		return st, err
	}
	if err := c.save(ctx, sid, next); err != nil {
		return st, err
	}
	return next, nil
}

// Render builds a stage page from cached results and prior selections.
func (c *Curation) Render(ctx context.Context, sid string, stage domain.Stage) (StageView, error) {
	st, err := c.State(ctx, sid)
	if err != nil {
		return StageView{}, err
	}
	view := StageView{
		Stage:     stage,
		StartDate: st.StartDate,
		UseAI:     st.UseAI,
		Checked:   st.Checked(stage),
		Rows:      st.Rows(stage),
	}

	batch, ok := c.cache.Batch(sid, stage)
	view.Ready = ok && st.Ready[stage]
	if !view.Ready {
		return view, nil
	}

	byKey := map[string]int{}
	for _, g := range batch.Groups {
		byKey[g.Key] = len(view.Groups)
		view.Groups = append(view.Groups, GroupView{Group: g})
	}
	for _, a := range batch.Articles {
		key := a.GroupKey()
		i, ok := byKey[key]
		if !ok {
			i = len(view.Groups)
			byKey[key] = i
			view.Groups = append(view.Groups, GroupView{Group: ports.Group{Key: key, Title: key}})
		}
		view.Groups[i].Articles = append(view.Groups[i].Articles, ArticleView{Article: a, Pretty: domain.PrettyDate(a.Date)})
	}
	return view, nil
}

// Categorize labels the union of all stage selections. An unchanged
// signature keeps the existing index and makes no model calls.
func (c *Curation) Categorize(ctx context.Context, sid string) (CategorizeResult, error) {
	v, err, _ := c.group.Do(sid+"|categorize", func() (any, error) {
		st, err := c.State(ctx, sid)
		if err != nil {
			return CategorizeResult{}, err
		}

		items := c.collect(sid, st)
		articles := make([]domain.Article, len(items))
		for i, item := range items {
			articles[i] = item.Article
		}
		sig := pipeline.Signature(articles)

		action := pipeline.Action{Kind: pipeline.ActionCategorized, Signature: sig}
		res := CategorizeResult{Items: len(items)}
		if sig != st.Signature || st.Index == nil {
			action.Index = pipeline.BuildIndex(items, st.Overrides, func(a domain.Article) domain.Label {
				return c.labeler.Categorize(ctx, a.Title, a.IsHearing())
			})
			res.Rebuilt = true
		}

		next, err := pipeline.Apply(st, action)
		if err != nil {
			return CategorizeResult{}, err
		}
		if err := c.save(ctx, sid, next); err != nil {
			return CategorizeResult{}, err
		}
		c.debug("categorized", "items", res.Items, "rebuilt", res.Rebuilt)
		return res, nil
	})
	if err != nil {
		return CategorizeResult{}, err
	}
	return v.(CategorizeResult), nil
}

// collect resolves every selected reference back to its article.
func (c *Curation) collect(sid string, st pipeline.State) []pipeline.Curated {
	var out []pipeline.Curated
	for _, stage := range domain.FetchStages() {
		for _, sel := range st.Selections[stage] {
			if sel.Manual {
				out = append(out, pipeline.Curated{Stage: stage, Article: sel.Article()})
				continue
			}
			a, ok := c.cache.Lookup(sid, stage, sel.ID)
			if !ok {
				c.warn("selected article expired", "stage", stage, "id", sel.ID)
				continue
			}
			out = append(out, pipeline.Curated{Stage: stage, Article: a})
		}
	}
	return out
}

func (c *Curation) resolve(sid string, st pipeline.State, ref pipeline.Ref) (domain.Article, bool) {
	for _, sel := range st.Selections[ref.Stage] {
		if sel.Manual && sel.ID == ref.ID {
			return sel.Article(), true
		}
	}
	return c.cache.Lookup(sid, ref.Stage, ref.ID)
}

// Review hydrates the category index with titles, renames and sublinks.
func (c *Curation) Review(ctx context.Context, sid string) (ReviewView, error) {
	st, err := c.State(ctx, sid)
	if err != nil {
		return ReviewView{}, err
	}
	if !st.Ready[domain.StageCategorize] {
		return ReviewView{}, ErrNotReady
	}

	var view ReviewView
	for _, label := range st.Index.Labels() {
		section := ReviewSection{Label: label}
		for _, ref := range st.Index[label] {
			a, ok := c.resolve(sid, st, ref)
			if !ok {
				c.warn("indexed article expired", "stage", ref.Stage, "id", ref.ID)
				continue
			}
			section.Items = append(section.Items, ReviewItem{
				ID:            a.ID,
				Stage:         ref.Stage,
				Title:         st.Title(a.ID, a.Title),
				OriginalTitle: a.Title,
				URL:           a.URL,
				Date:          a.Date,
				Pretty:        domain.PrettyDate(a.Date),
				Manual:        a.Manual,
				Sublinks:      append([]domain.Link(nil), st.Sublinks[a.ID]...),
			})
		}
		view.Count += len(section.Items)
		view.Sections = append(view.Sections, section)
	}
	return view, nil
}

// Move relocates an article between categories.
func (c *Curation) Move(ctx context.Context, sid, id string, from, to domain.Label, position int) error {
	_, err := c.apply(ctx, sid, pipeline.Action{Kind: pipeline.ActionMove, ID: id, From: from, To: to, Position: position})
	return err
}

// Rename overrides the display title of an article. An empty title restores
// the fetched one.
func (c *Curation) Rename(ctx context.Context, sid, id, title string) error {
	_, err := c.apply(ctx, sid, pipeline.Action{Kind: pipeline.ActionRename, ID: id, Title: title})
	return err
}

// AddSublink attaches a supplementary link to an article.
func (c *Curation) AddSublink(ctx context.Context, sid, id string, link domain.Link) error {
	_, err := c.apply(ctx, sid, pipeline.Action{Kind: pipeline.ActionAddSublink, ID: id, Link: link})
	return err
}

// RemoveSublink drops the sublink at index.
func (c *Curation) RemoveSublink(ctx context.Context, sid, id string, index int) error {
	_, err := c.apply(ctx, sid, pipeline.Action{Kind: pipeline.ActionRemoveSublink, ID: id, Sublink: index})
	return err
}

// Export writes the reviewed digest as a PDF.
func (c *Curation) Export(ctx context.Context, sid string, w io.Writer) error {
	review, err := c.Review(ctx, sid)
	if err != nil {
		return err
	}
	if err := c.renderer.RenderDigest(w, buildDigest(c.title, review)); err != nil {
		return fmt.Errorf("render digest: %w", err)
	}
	return nil
}

// Reset drops all state and fetched payloads of the session.
func (c *Curation) Reset(ctx context.Context, sid string) error {
	c.cache.Clear(sid)
	if err := c.sessions.Delete(ctx, sid); err != nil {
		return fmt.Errorf("reset session %s: %w", sid, err)
	}
	return nil
}

func buildDigest(title string, review ReviewView) ports.Digest {
	doc := ports.Digest{Title: title}
	for _, section := range review.Sections {
		out := ports.DigestSection{Heading: string(section.Label)}
		for _, item := range section.Items {
			out.Entries = append(out.Entries, ports.DigestEntry{
				Title:    item.Title,
				URL:      item.URL,
				Date:     item.Pretty,
				Sublinks: item.Sublinks,
			})
		}
		doc.Sections = append(doc.Sections, out)
	}
	return doc
}

func cutoff(startDate string) (time.Time, error) {
	startDate = strings.TrimSpace(startDate)
	if startDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(domain.DateLayout, startDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", pipeline.ErrInvalidDate, startDate)
	}
	return t, nil
}

func (c *Curation) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Curation) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
