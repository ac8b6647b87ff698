package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/ports"
)

var (
	// ErrMissingURL is returned when no hearing URL was given.
	ErrMissingURL = errors.New("hearing url is required")
	// ErrExtractFailed wraps any failure to read event fields from a page.
	ErrExtractFailed = errors.New("could not extract event details")
	// ErrInvalidRange is returned when a pull range ends before it starts.
	ErrInvalidRange = errors.New("end date is before start date")
	// ErrNoEvents is returned by exports over an empty range.
	ErrNoEvents = errors.New("no events in range")
)

const (
	pullLayout   = "2006-01-02 15:04:05"
	eventLayout  = "2006-01-02 15:04"
	maxPullPages = 50
)

// CalendarDeps wires the calendar service.
type CalendarDeps struct {
	Pages        ports.PageFetcher
	Extractor    ports.EventExtractor
	API          ports.CalendarAPI
	Renderer     ports.EventRenderer
	Location     *time.Location
	Duration     time.Duration
	DedupeWindow time.Duration
	CalendarID   string
	CalendarKey  string
	PageSize     int
	Logger       *slog.Logger
}

// Calendar creates hearing events from pages and pulls events back out.
type Calendar struct {
	pages     ports.PageFetcher
	extractor ports.EventExtractor
	api       ports.CalendarAPI
	renderer  ports.EventRenderer
	loc       *time.Location
	duration  time.Duration
	window    time.Duration
	pageSize  int
	logger    *slog.Logger

	calendarKey string
	mu          sync.Mutex
	calendarID  string
	resolved    bool
}

// NewCalendar constructs the calendar service.
func NewCalendar(deps CalendarDeps) *Calendar {
	c := &Calendar{
		pages:       deps.Pages,
		extractor:   deps.Extractor,
		api:         deps.API,
		renderer:    deps.Renderer,
		loc:         deps.Location,
		duration:    deps.Duration,
		window:      deps.DedupeWindow,
		pageSize:    deps.PageSize,
		logger:      deps.Logger,
		calendarKey: deps.CalendarKey,
		calendarID:  deps.CalendarID,
		resolved:    deps.CalendarID != "" || deps.CalendarKey == "",
	}
	if c.loc == nil {
		c.loc = time.UTC
	}
	if c.duration <= 0 {
		c.duration = time.Hour
	}
	if c.pageSize <= 0 {
		c.pageSize = 20
	}
	return c
}

// Location returns the wall-clock zone of the calendar.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// CreateResult describes a created or matched event.
type CreateResult struct {
	Event domain.CreatedEvent
	Draft domain.EventDraft
}

// CreateFromURL scrapes a hearing page, extracts its fields and creates the
// event. An existing event for the same URL near the same start is returned
// instead with Deduped set. Any failure aborts without creating anything.
func (c *Calendar) CreateFromURL(ctx context.Context, pageURL string) (CreateResult, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return CreateResult{}, ErrMissingURL
	}

	text, err := c.pages.Text(ctx, pageURL)
	if err != nil {
		return CreateResult{}, fmt.Errorf("fetch hearing page: %w", err)
	}
	details, err := c.extractor.Extract(ctx, text)
	if err != nil {
		return CreateResult{}, fmt.Errorf("%w: %w", ErrExtractFailed, err)
	}
	start, err := time.ParseInLocation(eventLayout, strings.TrimSpace(details.Date)+" "+strings.TrimSpace(details.Time), c.loc)
	if err != nil {
		return CreateResult{}, fmt.Errorf("%w: %w", ErrExtractFailed, err)
	}

	draft := domain.EventDraft{
		Title:       details.Title,
		Start:       start,
		End:         start.Add(c.duration),
		Location:    details.Location,
		Description: pageURL,
		Timezone:    c.loc.String(),
	}

	if existing, ok := c.findDuplicate(ctx, pageURL, start); ok {
		c.info("event deduped", "url", pageURL, "id", existing.ID)
		return CreateResult{Event: existing, Draft: draft}, nil
	}

	created, err := c.api.CreateEvent(ctx, draft)
	if err != nil {
		return CreateResult{}, fmt.Errorf("create event: %w", err)
	}
	c.info("event created", "url", pageURL, "id", created.ID)
	return CreateResult{Event: created, Draft: draft}, nil
}

// findDuplicate searches around start for an event whose original link or
// description carries exactly pageURL. Search failures fall through to
// creation.
func (c *Calendar) findDuplicate(ctx context.Context, pageURL string, start time.Time) (domain.CreatedEvent, bool) {
	if c.window <= 0 {
		return domain.CreatedEvent{}, false
	}
	win := c.window
	if win < time.Hour {
		win = time.Hour
	}

	events, err := c.api.SearchEvents(ctx, ports.EventSearch{
		Query:        pageURL,
		CalendarID:   c.resolveCalendar(ctx),
		StartsAfter:  start.Add(-win),
		StartsBefore: start.Add(win),
		PageSize:     20,
	})
	if err != nil {
		c.warn("dedupe search failed", "url", pageURL, "error", err)
		return domain.CreatedEvent{}, false
	}

	for _, ev := range events {
		if ev.Start.IsZero() || !mentionsURL(ev, pageURL) {
			continue
		}
		gap := ev.Start.Sub(start)
		if gap < 0 {
			gap = -gap
		}
		if gap <= win {
			return domain.CreatedEvent{ID: ev.ID, URL: ev.EventURL, Deduped: true}, true
		}
	}
	return domain.CreatedEvent{}, false
}

// mentionsURL matches whole whitespace-separated tokens so a page URL never
// matches a longer URL it prefixes.
func mentionsURL(ev domain.PulledEvent, pageURL string) bool {
	if strings.TrimSpace(ev.OriginalLink) == pageURL {
		return true
	}
	for _, field := range strings.Fields(ev.Description) {
		if strings.TrimRight(field, ".,;)>\"'") == pageURL {
			return true
		}
	}
	return false
}

// resolveCalendar maps the configured calendar key to an id once.
func (c *Calendar) resolveCalendar(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resolved {
		return c.calendarID
	}
	id, err := c.api.ResolveCalendarID(ctx, c.calendarKey)
	if err != nil {
		c.warn("resolve calendar failed", "key", c.calendarKey, "error", err)
		return ""
	}
	c.calendarID = id
	c.resolved = true
	return id
}

// Pull lists events starting between the local midnight of from and the end
// of the local day to, sorted by start.
func (c *Calendar) Pull(ctx context.Context, from, to time.Time) ([]domain.PulledEvent, error) {
	lo := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, c.loc)
	hi := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, c.loc)
	if hi.Before(lo) {
		return nil, ErrInvalidRange
	}
	calendarID := c.resolveCalendar(ctx)

	var (
		out  []domain.PulledEvent
		seen = map[string]bool{}
	)
	for page := 1; page <= maxPullPages; page++ {
		events, err := c.api.ListEvents(ctx, ports.EventListing{
			CalendarID:  calendarID,
			DatetimeMin: lo.Format(pullLayout),
			DatetimeMax: hi.Format(pullLayout),
			Page:        page,
			PageSize:    c.pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("pull page %d: %w", page, err)
		}
		for _, ev := range events {
			if ev.Start.IsZero() || ev.Start.Before(lo) || ev.Start.After(hi) {
				continue
			}
			if calendarID != "" && ev.CalendarID != "" && ev.CalendarID != calendarID {
				continue
			}
			if ev.ID != "" {
				if seen[ev.ID] {
					continue
				}
				seen[ev.ID] = true
			}
			out = append(out, ev)
		}
		if len(events) < c.pageSize {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// Retrieve fetches one event by id.
func (c *Calendar) Retrieve(ctx context.Context, id string) (domain.PulledEvent, error) {
	ev, err := c.api.RetrieveEvent(ctx, id)
	if err != nil {
		return domain.PulledEvent{}, err
	}
	return ev, nil
}

// ICS writes a single-event calendar file.
func (c *Calendar) ICS(ctx context.Context, id string, w io.Writer) error {
	ev, err := c.Retrieve(ctx, id)
	if err != nil {
		return err
	}
	if err := c.renderer.RenderICS(w, ev, c.loc); err != nil {
		return fmt.Errorf("render ics: %w", err)
	}
	return nil
}

// DayGroup is the events of one local day.
type DayGroup struct {
	Day    time.Time
	Label  string
	Events []domain.PulledEvent
}

// GroupByDay buckets sorted events by local calendar day.
func (c *Calendar) GroupByDay(events []domain.PulledEvent) []DayGroup {
	var out []DayGroup
	for _, ev := range events {
		local := ev.Start.In(c.loc)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
		if n := len(out); n == 0 || !out[n-1].Day.Equal(day) {
			out = append(out, DayGroup{
				Day:   day,
				Label: day.Format("Monday") + ", " + domain.PrettyDate(day.Format(domain.DateLayout)),
			})
		}
		out[len(out)-1].Events = append(out[len(out)-1].Events, ev)
	}
	return out
}

// PDF writes the events of a range grouped by day.
func (c *Calendar) PDF(ctx context.Context, from, to time.Time, w io.Writer) error {
	events, err := c.Pull(ctx, from, to)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return ErrNoEvents
	}

	doc := ports.Digest{Title: fmt.Sprintf("Hearings %s to %s", from.Format(domain.DateLayout), to.Format(domain.DateLayout))}
	for _, day := range c.GroupByDay(events) {
		section := ports.DigestSection{Heading: day.Label}
		for _, ev := range day.Events {
			section.Entries = append(section.Entries, ports.DigestEntry{
				Title: ev.Title,
				URL:   firstNonBlank(ev.OriginalLink, ev.EventURL),
				Date:  c.timeRange(ev),
			})
		}
		doc.Sections = append(doc.Sections, section)
	}
	if err := c.renderer.RenderDigest(w, doc); err != nil {
		return fmt.Errorf("render events pdf: %w", err)
	}
	return nil
}

func (c *Calendar) timeRange(ev domain.PulledEvent) string {
	start := ev.Start.In(c.loc).Format("3:04 PM")
	if !ev.HasEnd() {
		return start
	}
	return start + " to " + ev.End.In(c.loc).Format("3:04 PM")
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (c *Calendar) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Calendar) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
