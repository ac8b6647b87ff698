package addevent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PolicyDigest/internal/config"
	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.CalendarConfig{APIBase: server.URL, APIKey: "ae-key"}, server.Client())
}

func TestCreateEventPayloadAndNestedID(t *testing.T) {
	t.Parallel()

	var payload map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/events" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer ae-key" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"event":{"id":98765,"url":"https://addevent.com/event/x"}}`))
	})

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	created, err := client.CreateEvent(context.Background(), domain.EventDraft{
		Title:       "Hearing",
		Start:       start,
		End:         start.Add(time.Hour),
		Description: "https://house.gov/hearing1",
		Timezone:    "America/New_York",
	})
	if err != nil {
		t.Fatalf("CreateEvent error: %v", err)
	}
	if created.ID != "98765" || created.URL != "https://addevent.com/event/x" || created.Deduped {
		t.Fatalf("unexpected created %+v", created)
	}
	if payload["datetime_start"] != "2024-03-01 10:00" || payload["datetime_end"] != "2024-03-01 11:00" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestSearchEventsParams(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "https://house.gov/hearing1" || q.Get("starts_after") != "2024-03-01T07:00:00" || q.Get("page_size") != "20" {
			t.Errorf("unexpected query %v", q)
		}
		_, _ = w.Write([]byte(`{"events":[{"id":"e1","description":"See https://house.gov/hearing1"}]}`))
	})

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	events, err := client.SearchEvents(context.Background(), ports.EventSearch{
		Query:        "https://house.gov/hearing1",
		StartsAfter:  start.Add(-3 * time.Hour),
		StartsBefore: start.Add(3 * time.Hour),
		PageSize:     500,
	})
	if err != nil {
		t.Fatalf("SearchEvents error: %v", err)
	}
	if len(events) != 1 || events[0].ID != "e1" || events[0].OriginalLink != "https://house.gov/hearing1" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestListEventsAcceptsAlternateEnvelope(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("sort_by") != "datetime_start" || q.Get("datetime_min") != "2024-03-01 00:00:00" {
			t.Errorf("unexpected query %v", q)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"a"},{"id":"b"}]}`))
	})

	events, err := client.ListEvents(context.Background(), ports.EventListing{
		DatetimeMin: "2024-03-01 00:00:00",
		DatetimeMax: "2024-03-02 23:59:59",
	})
	if err != nil {
		t.Fatalf("ListEvents error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestResolveCalendarIDFallsBackToSearch(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/calendars/GT1":
			http.NotFound(w, r)
		case "/calendars":
			_, _ = w.Write([]byte(`{"calendars":[{"id":1,"unique_key":"OTHER"},{"id":2,"unique_key":"GT1"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	id, err := client.ResolveCalendarID(context.Background(), "GT1")
	if err != nil {
		t.Fatalf("ResolveCalendarID error: %v", err)
	}
	if id != "2" {
		t.Fatalf("expected id 2, got %q", id)
	}
}

func TestMissingKey(t *testing.T) {
	t.Parallel()

	client := NewClient(config.CalendarConfig{APIBase: "http://unused"}, nil)
	if _, err := client.RetrieveEvent(context.Background(), "x"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestShapeEvent(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("EST", -5*60*60)
	ev := ShapeEvent(map[string]any{
		"event_id":         float64(42),
		"name":             "Budget hearing",
		"body":             "Source: https://budget.house.gov/hearing (live)",
		"starts_at":        "2024-03-01 10:00:00",
		"datetime_end":     "2024-03-01T16:00:00Z",
		"calendar":         map[string]any{"id": "7"},
		"landing_page_url": "https://addevent.com/e/42",
	}, loc)

	if ev.ID != "42" || ev.Title != "Budget hearing" || ev.CalendarID != "7" {
		t.Fatalf("unexpected identity %+v", ev)
	}
	if ev.OriginalLink != "https://budget.house.gov/hearing" {
		t.Fatalf("unexpected link %q", ev.OriginalLink)
	}
	if !ev.Start.Equal(time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("naive start must be read in local zone, got %s", ev.Start)
	}
	if !ev.End.Equal(time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end %s", ev.End)
	}

	untitled := ShapeEvent(map[string]any{}, loc)
	if untitled.Title != "(Untitled Event)" || !untitled.Start.IsZero() || untitled.HasEnd() {
		t.Fatalf("unexpected empty shape %+v", untitled)
	}
}
