package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/ports"
	"PolicyDigest/internal/scanner"
)

// NewsFeed is one agency adapter of the news bundle.
type NewsFeed struct {
	Name    string
	Adapter scanner.Adapter
}

// CommitteePair is a House committee with separate majority and minority pages.
type CommitteePair struct {
	Name     string
	Majority scanner.Adapter
	Minority scanner.Adapter
}

// CommitteeFeed is a Senate committee whose adapter returns tagged items.
type CommitteeFeed struct {
	Name    string
	Adapter scanner.Adapter
}

// Classifier estimates newsletter relevance of a title.
type Classifier interface {
	Classify(ctx context.Context, title string) domain.Relevance
}

// BundleDeps wires the adapters and optional services of the bundles.
type BundleDeps struct {
	News       []NewsFeed
	House      []CommitteePair
	Senate     []CommitteeFeed
	Mail       ports.MailSource
	Links      func(html string) []domain.Link
	Classifier Classifier
	Disabled   func(name string) bool
	Logger     *slog.Logger
}

// Bundles runs every adapter of a domain and assigns content ids.
type Bundles struct {
	news       []NewsFeed
	house      []CommitteePair
	senate     []CommitteeFeed
	mail       ports.MailSource
	links      func(html string) []domain.Link
	classifier Classifier
	disabled   func(name string) bool
	logger     *slog.Logger
}

// NewBundles constructs the aggregators.
func NewBundles(deps BundleDeps) *Bundles {
	b := &Bundles{
		news:       deps.News,
		house:      deps.House,
		senate:     deps.Senate,
		mail:       deps.Mail,
		links:      deps.Links,
		classifier: deps.Classifier,
		disabled:   deps.Disabled,
		logger:     deps.Logger,
	}
	if b.disabled == nil {
		b.disabled = func(string) bool { return false }
	}
	return b
}

// Load fetches the payload of one wizard stage.
func (b *Bundles) Load(ctx context.Context, stage domain.Stage, since time.Time, useAI bool) (ports.Batch, error) {
	switch stage {
	case domain.StageGmail:
		return b.Gmail(ctx)
	case domain.StageNews:
		return b.News(ctx, since, useAI), nil
	case domain.StageHouse:
		return b.House(ctx, since, useAI), nil
	case domain.StageSenate:
		return b.Senate(ctx, since, useAI), nil
	}
	return ports.Batch{}, fmt.Errorf("stage %s has no source", stage)
}

// News runs the agency adapters. Congress dates are shifted back one day.
func (b *Bundles) News(ctx context.Context, since time.Time, useAI bool) ports.Batch {
	var batch ports.Batch
	for _, feed := range b.news {
		res, ok := b.run(ctx, feed.Name, feed.Adapter, since)
		if !ok {
			continue
		}
		batch.Groups = append(batch.Groups, ports.Group{Key: feed.Name, Title: feed.Name, URL: res.BaseURL})
		for _, item := range res.Items {
			date := item.Date
			if feed.Name == newsCongress {
				date = domain.ShiftBackOneDay(date)
			}
			batch.Articles = append(batch.Articles, domain.Article{
				ID:         domain.ContentID(feed.Name, item.URL),
				Title:      item.Title,
				URL:        item.URL,
				Date:       date,
				Source:     feed.Name,
				Tag:        item.Tag,
				Suggestion: item.Suggestion,
			})
		}
	}
	b.suggest(ctx, batch.Articles, useAI)
	return batch
}

// newsCongress is the feed whose listing dates run one day ahead.
const newsCongress = "Congress"

// House runs both sides of every committee. A committee is omitted when
// either side fails.
func (b *Bundles) House(ctx context.Context, since time.Time, useAI bool) ports.Batch {
	var batch ports.Batch
	for _, committee := range b.house {
		sides := []struct {
			side    domain.Side
			adapter scanner.Adapter
		}{
			{domain.SideMajority, committee.Majority},
			{domain.SideMinority, committee.Minority},
		}

		var (
			articles []domain.Article
			baseURL  string
			failed   bool
		)
		for _, s := range sides {
			if s.adapter == nil {
				continue
			}
			res, ok := b.run(ctx, committee.Name, s.adapter, since)
			if !ok {
				failed = true
				break
			}
			if baseURL == "" {
				baseURL = res.BaseURL
			}
			for _, item := range res.Items {
				articles = append(articles, domain.Article{
					ID:         domain.ContentID(committee.Name, string(s.side), item.URL),
					Title:      item.Title,
					URL:        item.URL,
					Date:       item.Date,
					Committee:  committee.Name,
					Side:       s.side,
					Tag:        domain.Tag(s.side),
					Suggestion: item.Suggestion,
				})
			}
		}
		if failed {
			continue
		}
		batch.Groups = append(batch.Groups, ports.Group{Key: committee.Name, Title: committee.Name, URL: baseURL})
		batch.Articles = append(batch.Articles, articles...)
	}
	b.suggest(ctx, batch.Articles, useAI)
	return batch
}

// Senate runs the committee adapters, keeping each item's tag.
func (b *Bundles) Senate(ctx context.Context, since time.Time, useAI bool) ports.Batch {
	var batch ports.Batch
	for _, committee := range b.senate {
		res, ok := b.run(ctx, committee.Name, committee.Adapter, since)
		if !ok {
			continue
		}
		batch.Groups = append(batch.Groups, ports.Group{Key: committee.Name, Title: committee.Name, URL: res.BaseURL})
		for _, item := range res.Items {
			tag := item.Tag
			if tag == "" {
				tag = domain.TagArticle
			}
			a := domain.Article{
				ID:         domain.ContentID(committee.Name, string(tag), item.URL),
				Title:      item.Title,
				URL:        item.URL,
				Date:       item.Date,
				Committee:  committee.Name,
				Tag:        tag,
				Suggestion: item.Suggestion,
			}
			if tag == domain.TagMajority || tag == domain.TagMinority {
				a.Side = domain.Side(tag)
			}
			batch.Articles = append(batch.Articles, a)
		}
	}
	b.suggest(ctx, batch.Articles, useAI)
	return batch
}

// Gmail reads unread newsletters; each email becomes a group of its links.
func (b *Bundles) Gmail(ctx context.Context) (ports.Batch, error) {
	if b.mail == nil {
		return ports.Batch{}, fmt.Errorf("gmail is not configured")
	}
	messages, err := b.mail.Unread(ctx)
	if err != nil {
		return ports.Batch{}, fmt.Errorf("read unread mail: %w", err)
	}

	var batch ports.Batch
	for _, msg := range messages {
		title := msg.Subject
		if msg.From != "" {
			title = fmt.Sprintf("%s (%s)", msg.Subject, msg.From)
		}
		batch.Groups = append(batch.Groups, ports.Group{Key: msg.ID, Title: title})
		if b.links == nil {
			continue
		}
		for _, link := range b.links(msg.HTML) {
			batch.Articles = append(batch.Articles, domain.Article{
				ID:       domain.ContentID(domain.SourceGmail, msg.ID, link.URL),
				Title:    link.Title,
				URL:      link.URL,
				Source:   domain.SourceGmail,
				OriginID: msg.ID,
			})
		}
	}
	b.debug("gmail bundle", "messages", len(messages), "links", len(batch.Articles))
	return batch, nil
}

func (b *Bundles) run(ctx context.Context, name string, adapter scanner.Adapter, since time.Time) (scanner.Result, bool) {
	if adapter == nil || b.disabled(adapter.Name()) {
		b.debug("adapter disabled", "source", name)
		return scanner.Result{}, false
	}
	res, err := adapter.Fetch(ctx, since)
	if err != nil {
		if b.logger != nil {
			b.logger.Warn("adapter failed", "source", name, "adapter", adapter.Name(), "error", err)
		}
		return scanner.Result{}, false
	}
	b.debug("adapter done", "source", name, "adapter", adapter.Name(), "items", len(res.Items), "skipped", res.Skipped, "stale", res.Stale)
	return res, true
}

func (b *Bundles) suggest(ctx context.Context, articles []domain.Article, useAI bool) {
	if !useAI || b.classifier == nil {
		return
	}
	for i := range articles {
		if articles[i].Suggestion != "" {
			continue
		}
		articles[i].Suggestion = string(b.classifier.Classify(ctx, articles[i].Title))
	}
}

func (b *Bundles) debug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}
