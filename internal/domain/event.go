package domain

import "time"

// EventDetails is what the model extracts from a hearing page.
type EventDetails struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
}

// EventDraft is a calendar event ready to be created.
type EventDraft struct {
	Title       string
	Start       time.Time
	End         time.Time
	Location    string
	Description string
	Timezone    string
}

// CreatedEvent identifies an event stored by the calendar provider.
type CreatedEvent struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Deduped bool   `json:"deduped"`
}

// PulledEvent is a provider event normalized to one shape.
type PulledEvent struct {
	ID           string
	Title        string
	Description  string
	Start        time.Time
	End          time.Time
	OriginalLink string
	CalendarID   string
	EventURL     string
}

// HasEnd reports whether the provider supplied an end time.
func (e PulledEvent) HasEnd() bool {
	return !e.End.IsZero()
}
