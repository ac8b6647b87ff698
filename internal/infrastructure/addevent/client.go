package addevent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"PolicyDigest/internal/config"
	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/ports"
)

// ErrMissingAPIKey is returned by every call when no key is configured.
var ErrMissingAPIKey = errors.New("addevent api key is not configured")

const (
	maxPageSize    = 20
	searchLayout   = "2006-01-02T15:04:05"
	datetimeLayout = "2006-01-02 15:04"
)

// Client talks to the AddEvent calendar REST API.
type Client struct {
	base   string
	apiKey string
	loc    *time.Location
	http   *http.Client
}

var _ ports.CalendarAPI = (*Client)(nil)

// NewClient creates a reusable HTTP client. A nil httpClient gets a default
// timeout.
func NewClient(cfg config.CalendarConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		base:   strings.TrimRight(cfg.APIBase, "/"),
		apiKey: cfg.APIKey,
		loc:    cfg.Location(),
		http:   httpClient,
	}
}

// SearchEvents runs a free-text query narrowed to a start window.
func (c *Client) SearchEvents(ctx context.Context, q ports.EventSearch) ([]domain.PulledEvent, error) {
	params := url.Values{}
	params.Set("page_size", strconv.Itoa(clampPageSize(q.PageSize)))
	if q.Query != "" {
		params.Set("q", q.Query)
	}
	if q.CalendarID != "" {
		params.Set("calendar_id", q.CalendarID)
	}
	if !q.StartsAfter.IsZero() {
		params.Set("starts_after", q.StartsAfter.Format(searchLayout))
	}
	if !q.StartsBefore.IsZero() {
		params.Set("starts_before", q.StartsBefore.Format(searchLayout))
	}

	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/events", params, nil, &out); err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	return c.shapeAll(listOf(out, "events")), nil
}

// CreateEvent stores a new event and returns its id and public URL.
func (c *Client) CreateEvent(ctx context.Context, draft domain.EventDraft) (domain.CreatedEvent, error) {
	payload := map[string]any{
		"title":          draft.Title,
		"datetime_start": draft.Start.Format(datetimeLayout),
		"datetime_end":   draft.End.Format(datetimeLayout),
		"location":       draft.Location,
		"description":    draft.Description,
		"timezone":       draft.Timezone,
	}

	var out map[string]any
	if err := c.do(ctx, http.MethodPost, "/events", nil, payload, &out); err != nil {
		return domain.CreatedEvent{}, fmt.Errorf("create event: %w", err)
	}

	nested := cast.ToStringMap(out["event"])
	return domain.CreatedEvent{
		ID:  firstNonEmpty(cast.ToString(out["id"]), cast.ToString(nested["id"])),
		URL: firstNonEmpty(cast.ToString(out["url"]), cast.ToString(nested["url"]), cast.ToString(out["link"])),
	}, nil
}

// ListEvents returns one page of events between two local wall-clock bounds,
// ordered by start.
func (c *Client) ListEvents(ctx context.Context, q ports.EventListing) ([]domain.PulledEvent, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(clampPageSize(q.PageSize)))
	params.Set("sort_by", "datetime_start")
	params.Set("sort_order", "asc")
	params.Set("datetime_min", q.DatetimeMin)
	params.Set("datetime_max", q.DatetimeMax)
	if q.CalendarID != "" {
		params.Set("calendar_id", q.CalendarID)
	}

	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/events", params, nil, &out); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return c.shapeAll(listOf(out, "events", "data", "items")), nil
}

// RetrieveEvent fetches one event, unwrapping an "event" envelope if present.
func (c *Client) RetrieveEvent(ctx context.Context, id string) (domain.PulledEvent, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return domain.PulledEvent{}, fmt.Errorf("retrieve event %s: %w", id, err)
	}
	if nested, ok := out["event"].(map[string]any); ok {
		out = nested
	}
	return ShapeEvent(out, c.loc), nil
}

func (c *Client) shapeAll(raw []map[string]any) []domain.PulledEvent {
	out := make([]domain.PulledEvent, 0, len(raw))
	for _, item := range raw {
		out = append(out, ShapeEvent(item, c.loc))
	}
	return out
}

// ResolveCalendarID maps a calendar unique key to its numeric id, trying a
// direct lookup before a search. An unknown key yields an empty id.
func (c *Client) ResolveCalendarID(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	var direct map[string]any
	if err := c.do(ctx, http.MethodGet, "/calendars/"+url.PathEscape(key), nil, nil, &direct); err == nil {
		if cal, ok := direct["calendar"].(map[string]any); ok {
			if id := cast.ToString(cal["id"]); id != "" {
				return id, nil
			}
		}
		if id := cast.ToString(direct["id"]); id != "" {
			return id, nil
		}
	}

	params := url.Values{}
	params.Set("q", key)
	params.Set("page_size", strconv.Itoa(maxPageSize))
	var found map[string]any
	if err := c.do(ctx, http.MethodGet, "/calendars", params, nil, &found); err != nil {
		return "", fmt.Errorf("search calendars: %w", err)
	}
	items := listOf(found, "calendars", "calendar")
	for _, cal := range items {
		if strings.TrimSpace(cast.ToString(cal["unique_key"])) == key {
			return cast.ToString(cal["id"]), nil
		}
	}
	if len(items) > 0 {
		return cast.ToString(items[0]["id"]), nil
	}
	return "", nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, v any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	endpoint := c.base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func clampPageSize(n int) int {
	if n < 1 || n > maxPageSize {
		return maxPageSize
	}
	return n
}

// listOf returns the first non-empty list of objects under one of keys.
func listOf(body map[string]any, keys ...string) []map[string]any {
	for _, key := range keys {
		raw, ok := body[key].([]any)
		if !ok || len(raw) == 0 {
			continue
		}
		out := make([]map[string]any, 0, len(raw))
		for _, item := range raw {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
