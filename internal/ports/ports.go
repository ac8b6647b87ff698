package ports

import (
	"context"
	"io"
	"time"

	"PolicyDigest/internal/domain"
)

// ChatRequest is a single-turn completion request.
type ChatRequest struct {
	System      string
	User        string
	Temperature float64
}

// ChatClient sends prompts to an LLM chat-completions API.
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// EventExtractor reads hearing details out of page text.
type EventExtractor interface {
	Extract(ctx context.Context, pageText string) (domain.EventDetails, error)
}

// MailSource reads unread newsletter emails.
type MailSource interface {
	Unread(ctx context.Context) ([]domain.Message, error)
}

// PageFetcher returns the visible text of a web page.
type PageFetcher interface {
	Text(ctx context.Context, url string) (string, error)
}

// EventSearch narrows a calendar search around a start time.
type EventSearch struct {
	Query        string
	CalendarID   string
	StartsAfter  time.Time
	StartsBefore time.Time
	PageSize     int
}

// EventListing pages through events between two local wall-clock bounds.
type EventListing struct {
	CalendarID  string
	DatetimeMin string
	DatetimeMax string
	Page        int
	PageSize    int
}

// CalendarAPI is the external calendar provider. Events come back normalized.
type CalendarAPI interface {
	SearchEvents(ctx context.Context, q EventSearch) ([]domain.PulledEvent, error)
	CreateEvent(ctx context.Context, draft domain.EventDraft) (domain.CreatedEvent, error)
	ListEvents(ctx context.Context, q EventListing) ([]domain.PulledEvent, error)
	RetrieveEvent(ctx context.Context, id string) (domain.PulledEvent, error)
	ResolveCalendarID(ctx context.Context, key string) (string, error)
}

// SessionStore persists small per-session wizard records.
type SessionStore interface {
	Load(ctx context.Context, id string) ([]byte, bool, error)
	Save(ctx context.Context, id string, state []byte) error
	Delete(ctx context.Context, id string) error
	Sweep(ctx context.Context, olderThan time.Time) (int, error)
}

// Batch is one stage's fetched payload.
type Batch struct {
	Articles []domain.Article
	Groups   []Group
}

// Group describes a source, committee, or email shown as a block on a stage page.
type Group struct {
	Key   string
	Title string
	URL   string
}

// ArticleCache keeps fetched payloads per session so persisted state only
// carries references.
type ArticleCache interface {
	Put(session string, stage domain.Stage, batch Batch)
	Batch(session string, stage domain.Stage) (Batch, bool)
	Lookup(session string, stage domain.Stage, id string) (domain.Article, bool)
	Clear(session string)
	Sweep(olderThan time.Time) int
}

// DigestRenderer writes the curated digest document.
type DigestRenderer interface {
	RenderDigest(w io.Writer, doc Digest) error
}

// Digest is the printable form of the review page.
type Digest struct {
	Title    string
	Sections []DigestSection
}

// DigestSection is one category block of the digest.
type DigestSection struct {
	Heading string
	Entries []DigestEntry
}

// DigestEntry is one printed item.
type DigestEntry struct {
	Title    string
	URL      string
	Date     string
	Sublinks []domain.Link
}

// EventRenderer writes calendar exports.
type EventRenderer interface {
	RenderICS(w io.Writer, ev domain.PulledEvent, loc *time.Location) error
	RenderDigest(w io.Writer, doc Digest) error
}

// Scheduler controls when background jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
