package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"PolicyDigest/internal/domain"
)

// Selection is one chosen item of a stage. Fetched items are stored by
// reference; manual rows carry their own payload because no cache holds them.
type Selection struct {
	ID       string `json:"id"`
	Manual   bool   `json:"manual,omitempty"`
	Source   string `json:"source,omitempty"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
	Date     string `json:"date,omitempty"`
	OriginID string `json:"originId,omitempty"`
}

// Article rebuilds the article of a manual selection.
func (s Selection) Article() domain.Article {
	return domain.Article{
		ID:       s.ID,
		Title:    s.Title,
		URL:      s.URL,
		Date:     s.Date,
		Source:   s.Source,
		Manual:   true,
		OriginID: s.OriginID,
	}
}

// ManualRow is a hand-entered row as typed in the stage form.
type ManualRow struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Date   string `json:"date"`
	Origin string `json:"origin,omitempty"`
}

// Empty reports whether no field was filled in.
func (r ManualRow) Empty() bool {
	return strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.URL) == "" && strings.TrimSpace(r.Date) == ""
}

// Valid reports whether the row can be committed.
func (r ManualRow) Valid() bool {
	return strings.TrimSpace(r.Title) != "" && strings.TrimSpace(r.URL) != ""
}

// State is the persisted wizard record of one editor session. It holds only
// references; fetched payloads live in the article cache.
type State struct {
	Stage      domain.Stage                 `json:"stage"`
	Ready      map[domain.Stage]bool        `json:"ready"`
	StartDate  string                       `json:"startDate,omitempty"`
	UseAI      bool                         `json:"useAI,omitempty"`
	Selections map[domain.Stage][]Selection `json:"selections,omitempty"`
	Drafts     map[domain.Stage][]ManualRow `json:"drafts,omitempty"`
	Index      Index                        `json:"index,omitempty"`
	Signature  string                       `json:"signature,omitempty"`
	Overrides  map[string]domain.Label      `json:"overrides,omitempty"`
	Titles     map[string]string            `json:"titles,omitempty"`
	Sublinks   map[string][]domain.Link     `json:"sublinks,omitempty"`
}

// New returns the initial state pointing at Start.
func New() State {
	return State{
		Stage:      domain.StageStart,
		Ready:      map[domain.Stage]bool{},
		Selections: map[domain.Stage][]Selection{},
		Drafts:     map[domain.Stage][]ManualRow{},
		Overrides:  map[string]domain.Label{},
		Titles:     map[string]string{},
		Sublinks:   map[string][]domain.Link{},
	}
}

// Decode reads a persisted record. An empty record yields New.
func Decode(raw []byte) (State, error) {
	if len(raw) == 0 {
		return New(), nil
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	return st.normalized(), nil
}

// Encode serializes the record for the session store.
func (s State) Encode() ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return raw, nil
}

func (s State) normalized() State {
	if s.Stage == "" {
		s.Stage = domain.StageStart
	}
	if s.Ready == nil {
		s.Ready = map[domain.Stage]bool{}
	}
	if s.Selections == nil {
		s.Selections = map[domain.Stage][]Selection{}
	}
	if s.Drafts == nil {
		s.Drafts = map[domain.Stage][]ManualRow{}
	}
	if s.Overrides == nil {
		s.Overrides = map[string]domain.Label{}
	}
	if s.Titles == nil {
		s.Titles = map[string]string{}
	}
	if s.Sublinks == nil {
		s.Sublinks = map[string][]domain.Link{}
	}
	return s
}

func (s State) clone() State {
	out := s.normalized()

	ready := make(map[domain.Stage]bool, len(out.Ready))
	for k, v := range out.Ready {
		ready[k] = v
	}
	out.Ready = ready

	selections := make(map[domain.Stage][]Selection, len(out.Selections))
	for k, v := range out.Selections {
		selections[k] = append([]Selection(nil), v...)
	}
	out.Selections = selections

	drafts := make(map[domain.Stage][]ManualRow, len(out.Drafts))
	for k, v := range out.Drafts {
		drafts[k] = append([]ManualRow(nil), v...)
	}
	out.Drafts = drafts

	out.Index = out.Index.clone()

	overrides := make(map[string]domain.Label, len(out.Overrides))
	for k, v := range out.Overrides {
		overrides[k] = v
	}
	out.Overrides = overrides

	titles := make(map[string]string, len(out.Titles))
	for k, v := range out.Titles {
		titles[k] = v
	}
	out.Titles = titles

	sublinks := make(map[string][]domain.Link, len(out.Sublinks))
	for k, v := range out.Sublinks {
		sublinks[k] = append([]domain.Link(nil), v...)
	}
	out.Sublinks = sublinks

	return out
}

// Checked returns the ids of fetched items selected on stage.
func (s State) Checked(stage domain.Stage) map[string]bool {
	out := map[string]bool{}
	for _, sel := range s.Selections[stage] {
		if !sel.Manual {
			out[sel.ID] = true
		}
	}
	return out
}

// Rows returns the manual rows to show on stage: pending drafts, or the
// committed manual items when nothing is pending.
func (s State) Rows(stage domain.Stage) []ManualRow {
	if drafts := s.Drafts[stage]; len(drafts) > 0 {
		return append([]ManualRow(nil), drafts...)
	}
	var rows []ManualRow
	for _, sel := range s.Selections[stage] {
		if sel.Manual {
			rows = append(rows, ManualRow{Title: sel.Title, URL: sel.URL, Date: sel.Date, Origin: sel.OriginID})
		}
	}
	return rows
}

// Title returns the display title of id, honoring renames.
func (s State) Title(id, fallback string) string {
	if t, ok := s.Titles[id]; ok && strings.TrimSpace(t) != "" {
		return t
	}
	return fallback
}
