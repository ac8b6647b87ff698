package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"PolicyDigest/internal/domain"
)

var (
	// ErrInvalidDate is returned for a start date that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("start date must be YYYY-MM-DD")
	// ErrInvalidTransition is returned when an action does not apply to its stage.
	ErrInvalidTransition = errors.New("invalid pipeline transition")
)

// Kind names a pipeline action.
type Kind string

const (
	ActionStart         Kind = "start"
	ActionLoad          Kind = "load"
	ActionAdd           Kind = "add"
	ActionNext          Kind = "next"
	ActionBack          Kind = "back"
	ActionCategorized   Kind = "categorized"
	ActionMove          Kind = "move"
	ActionRename        Kind = "rename"
	ActionAddSublink    Kind = "add-sublink"
	ActionRemoveSublink Kind = "remove-sublink"
	ActionReset         Kind = "reset"
)

// Action is one editor step. Only the fields relevant to Kind are read.
type Action struct {
	Kind  Kind
	Stage domain.Stage

	StartDate string
	UseAI     bool

	// Picked are the fetched items checked on the stage, already resolved
	// against the stage payload.
	Picked []Selection
	Rows   []ManualRow

	Index     Index
	Signature string

	ID       string
	From     domain.Label
	To       domain.Label
	Position int
	Title    string
	Link     domain.Link
	Sublink  int
}

// Apply returns the state after action. The input state is never modified;
// on error the returned state is the input unchanged.
func Apply(st State, a Action) (State, error) {
	next := st.clone()

	switch a.Kind {
	case ActionReset:
		return New(), nil

	case ActionStart:
		date := strings.TrimSpace(a.StartDate)
		if date != "" {
			if _, err := time.Parse(domain.DateLayout, date); err != nil {
				return st, fmt.Errorf("%w: %q", ErrInvalidDate, a.StartDate)
			}
		}
		if date != next.StartDate || a.UseAI != next.UseAI {
			for _, s := range domain.FetchStages() {
				next.Ready[s] = false
			}
		}
		next.StartDate = date
		next.UseAI = a.UseAI
		next.Stage = domain.StageGmail
		return next, nil

	case ActionLoad:
		if !a.Stage.Fetches() {
			return st, fmt.Errorf("%w: load %s", ErrInvalidTransition, a.Stage)
		}
		next.Ready[a.Stage] = true
		if downstream, ok := a.Stage.Next(); ok {
			next.Ready[downstream] = false
		}
		next.Stage = a.Stage
		return next, nil

	case ActionAdd:
		if !a.Stage.Fetches() {
			return st, fmt.Errorf("%w: add on %s", ErrInvalidTransition, a.Stage)
		}
		manual := manualSelections(next.Selections[a.Stage])
		next.Selections[a.Stage] = append(append([]Selection(nil), a.Picked...), manual...)
		next.Drafts[a.Stage] = keepRows(a.Rows)
		next.Ready[domain.StageCategorize] = false
		next.Stage = a.Stage
		return next, nil

	case ActionNext, ActionBack:
		if !a.Stage.Fetches() {
			return st, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, a.Kind, a.Stage)
		}
		previous := next.Selections[a.Stage]
		next.Selections[a.Stage] = commit(a.Stage, previous, a.Picked, a.Rows)
		next.dropEdits(previous, next.Selections[a.Stage])
		delete(next.Drafts, a.Stage)
		next.Ready[domain.StageCategorize] = false
		if a.Kind == ActionNext {
			next.Stage, _ = a.Stage.Next()
		} else {
			next.Stage, _ = a.Stage.Prev()
		}
		return next, nil

	case ActionCategorized:
		if a.Index != nil {
			next.Index = a.Index.clone()
		}
		next.Signature = a.Signature
		next.Ready[domain.StageCategorize] = true
		next.Stage = domain.StageReview
		return next, nil

	case ActionMove:
		if next.Index == nil {
			return st, fmt.Errorf("%w: %s", ErrUnknownArticle, a.ID)
		}
		if err := next.Index.Move(a.ID, a.From, a.To, a.Position); err != nil {
			return st, err
		}
		next.Overrides[a.ID] = a.To
		return next, nil

	case ActionRename:
		if _, ok := next.Index.Find(a.ID); !ok {
			return st, fmt.Errorf("%w: %s", ErrUnknownArticle, a.ID)
		}
		title := strings.TrimSpace(a.Title)
		if title == "" {
			delete(next.Titles, a.ID)
		} else {
			next.Titles[a.ID] = title
		}
		return next, nil

	case ActionAddSublink:
		if _, ok := next.Index.Find(a.ID); !ok {
			return st, fmt.Errorf("%w: %s", ErrUnknownArticle, a.ID)
		}
		link := domain.Link{Title: strings.TrimSpace(a.Link.Title), URL: strings.TrimSpace(a.Link.URL)}
		if link.URL == "" {
			return st, fmt.Errorf("%w: sublink needs a url", ErrInvalidTransition)
		}
		if link.Title == "" {
			link.Title = link.URL
		}
		next.Sublinks[a.ID] = append(next.Sublinks[a.ID], link)
		return next, nil

	case ActionRemoveSublink:
		links := next.Sublinks[a.ID]
		if a.Sublink < 0 || a.Sublink >= len(links) {
			return st, fmt.Errorf("%w: no sublink %d on %s", ErrInvalidTransition, a.Sublink, a.ID)
		}
		links = append(links[:a.Sublink:a.Sublink], links[a.Sublink+1:]...)
		if len(links) == 0 {
			delete(next.Sublinks, a.ID)
		} else {
			next.Sublinks[a.ID] = links
		}
		return next, nil
	}

	return st, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, a.Kind)
}

func manualSelections(sels []Selection) []Selection {
	var out []Selection
	for _, s := range sels {
		if s.Manual {
			out = append(out, s)
		}
	}
	return out
}

func keepRows(rows []ManualRow) []ManualRow {
	var out []ManualRow
	for _, r := range rows {
		if !r.Empty() {
			out = append(out, r)
		}
	}
	return out
}

// commit builds the stage selection from checked items and the valid manual
// rows. A row whose url and origin match a previously committed manual item
// keeps that item's id; other rows get synthetic ids that skip every id in
// use, including ones the stage held before.
func commit(stage domain.Stage, previous, picked []Selection, rows []ManualRow) []Selection {
	taken := make(map[string]bool, len(picked)+len(previous))
	out := make([]Selection, 0, len(picked)+len(rows))
	for _, p := range picked {
		if taken[p.ID] {
			continue
		}
		taken[p.ID] = true
		out = append(out, p)
	}

	reusable := map[string][]string{}
	for _, p := range previous {
		if taken[p.ID] {
			continue
		}
		taken[p.ID] = true
		if p.Manual {
			key := manualKey(p.URL, p.OriginID)
			reusable[key] = append(reusable[key], p.ID)
		}
	}

	source := string(stage)
	var fresh []int
	for _, r := range rows {
		if !r.Valid() {
			continue
		}
		origin := strings.TrimSpace(r.Origin)
		sel := Selection{
			Manual:   true,
			Source:   source,
			Title:    strings.TrimSpace(r.Title),
			URL:      strings.TrimSpace(r.URL),
			Date:     strings.TrimSpace(r.Date),
			OriginID: origin,
		}
		key := manualKey(sel.URL, origin)
		if ids := reusable[key]; len(ids) > 0 {
			sel.ID, reusable[key] = ids[0], ids[1:]
		} else {
			fresh = append(fresh, len(out))
		}
		out = append(out, sel)
	}
	for _, i := range fresh {
		out[i].ID = NextManualID(stage, out[i].OriginID, taken)
	}
	return out
}

func manualKey(url, origin string) string {
	return origin + "\x1f" + url
}

// dropEdits forgets category overrides, renames and sublinks of manual items
// that a resubmit removed, so their ids carry nothing if reused later.
func (s State) dropEdits(before, after []Selection) {
	kept := make(map[string]bool, len(after))
	for _, sel := range after {
		kept[sel.ID] = true
	}
	for _, sel := range before {
		if !sel.Manual || kept[sel.ID] {
			continue
		}
		delete(s.Overrides, sel.ID)
		delete(s.Titles, sel.ID)
		delete(s.Sublinks, sel.ID)
	}
}
