package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/ports"
	"PolicyDigest/internal/scanner"
)

var errDown = errors.New("site down")

type stubAdapter struct {
	name   string
	result scanner.Result
	err    error
	calls  int
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Fetch(_ context.Context, since time.Time) (scanner.Result, error) {
	s.calls++
	if s.err != nil {
		return scanner.Result{}, s.err
	}
	out := scanner.Result{BaseURL: s.result.BaseURL, Skipped: s.result.Skipped}
	for _, item := range s.result.Items {
		t, _, err := domain.ParseArticleDate(item.Date)
		if err != nil {
			continue
		}
		if !scanner.Keep(t, since) {
			out.Stale++
			continue
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

type countingChat struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (c *countingChat) Complete(context.Context, ports.ChatRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.reply, c.err
}

func (c *countingChat) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type stubMail struct {
	messages []domain.Message
	err      error
}

func (s stubMail) Unread(context.Context) ([]domain.Message, error) {
	return s.messages, s.err
}

type stubPages struct {
	text string
	err  error
}

func (s stubPages) Text(context.Context, string) (string, error) {
	return s.text, s.err
}

type stubExtractor struct {
	details domain.EventDetails
	err     error
}

func (s stubExtractor) Extract(context.Context, string) (domain.EventDetails, error) {
	return s.details, s.err
}

// memoryCalendar stores created events and answers searches the way the
// provider does: a free-text match on title or description within the window.
type memoryCalendar struct {
	mu        sync.Mutex
	events    []domain.PulledEvent
	creates   int
	searchErr error
	pages     [][]domain.PulledEvent
	listed    []ports.EventListing
}

func (m *memoryCalendar) SearchEvents(_ context.Context, q ports.EventSearch) ([]domain.PulledEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var out []domain.PulledEvent
	for _, ev := range m.events {
		if ev.Start.Before(q.StartsAfter) || ev.Start.After(q.StartsBefore) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (m *memoryCalendar) CreateEvent(_ context.Context, draft domain.EventDraft) (domain.CreatedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	id := "ev" + string(rune('0'+m.creates))
	m.events = append(m.events, domain.PulledEvent{
		ID:          id,
		Title:       draft.Title,
		Description: draft.Description,
		Start:       draft.Start,
		End:         draft.End,
		EventURL:    "https://addevent.com/" + id,
	})
	return domain.CreatedEvent{ID: id, URL: "https://addevent.com/" + id}, nil
}

func (m *memoryCalendar) ListEvents(_ context.Context, q ports.EventListing) ([]domain.PulledEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listed = append(m.listed, q)
	if q.Page-1 < len(m.pages) {
		return m.pages[q.Page-1], nil
	}
	return nil, nil
}

func (m *memoryCalendar) RetrieveEvent(_ context.Context, id string) (domain.PulledEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.events {
		if ev.ID == id {
			return ev, nil
		}
	}
	return domain.PulledEvent{}, errors.New("not found")
}

func (m *memoryCalendar) ResolveCalendarID(context.Context, string) (string, error) {
	return "cal-1", nil
}

type recordingRenderer struct {
	digest ports.Digest
	ics    domain.PulledEvent
}

func (r *recordingRenderer) RenderDigest(w io.Writer, doc ports.Digest) error {
	r.digest = doc
	_, err := io.WriteString(w, "%PDF-fake")
	return err
}

func (r *recordingRenderer) RenderICS(w io.Writer, ev domain.PulledEvent, _ *time.Location) error {
	r.ics = ev
	_, err := io.WriteString(w, "BEGIN:VCALENDAR")
	return err
}
