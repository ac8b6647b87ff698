package pipeline

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"PolicyDigest/internal/domain"
)

var (
	// ErrUnknownArticle is returned when an edit names an id absent from the index.
	ErrUnknownArticle = errors.New("article is not in the category index")
	// ErrUnknownLabel is returned when a move targets a label outside the fixed set.
	ErrUnknownLabel = errors.New("unknown category label")
)

// Ref points at a curated article without copying it.
type Ref struct {
	ID    string       `json:"id"`
	Stage domain.Stage `json:"stage"`
}

// Curated is an article resolved for categorization along with the stage
// that selected it.
type Curated struct {
	Stage   domain.Stage
	Article domain.Article
}

// Ref returns the reference stored in the index.
func (c Curated) Ref() Ref {
	return Ref{ID: c.Article.ID, Stage: c.Stage}
}

// Index maps each label to its ordered references.
type Index map[domain.Label][]Ref

func (ix Index) clone() Index {
	if ix == nil {
		return nil
	}
	out := make(Index, len(ix))
	for k, v := range ix {
		out[k] = append([]Ref(nil), v...)
	}
	return out
}

// Count returns the number of references across all labels.
func (ix Index) Count() int {
	n := 0
	for _, refs := range ix {
		n += len(refs)
	}
	return n
}

// Labels returns labels with entries in review order.
func (ix Index) Labels() []domain.Label {
	present := make([]domain.Label, 0, len(ix))
	for l, refs := range ix {
		if len(refs) > 0 {
			present = append(present, l)
		}
	}
	sort.Slice(present, func(i, j int) bool { return present[i] < present[j] })
	return domain.OrderLabels(present)
}

// Find returns the label holding id.
func (ix Index) Find(id string) (domain.Label, bool) {
	for _, l := range ix.Labels() {
		for _, ref := range ix[l] {
			if ref.ID == id {
				return l, true
			}
		}
	}
	return "", false
}

// Move relocates id from one label to position within another. The first
// match in from is removed; when from does not hold id, the first match in
// review order is removed instead. position is clamped to the destination.
func (ix Index) Move(id string, from, to domain.Label, position int) error {
	if !to.IsKnown() {
		return fmt.Errorf("%w: %q", ErrUnknownLabel, to)
	}

	ref, ok := ix.remove(from, id)
	if !ok {
		for _, l := range ix.Labels() {
			if ref, ok = ix.remove(l, id); ok {
				break
			}
		}
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownArticle, id)
	}

	dest := ix[to]
	if position < 0 {
		position = 0
	}
	if position > len(dest) {
		position = len(dest)
	}
	dest = append(dest, Ref{})
	copy(dest[position+1:], dest[position:])
	dest[position] = ref
	ix[to] = dest
	return nil
}

func (ix Index) remove(label domain.Label, id string) (Ref, bool) {
	refs := ix[label]
	for i, ref := range refs {
		if ref.ID == id {
			ix[label] = append(refs[:i:i], refs[i+1:]...)
			if len(ix[label]) == 0 {
				delete(ix, label)
			}
			return ref, true
		}
	}
	return Ref{}, false
}

// Labeler assigns a label to one article.
type Labeler func(a domain.Article) domain.Label

// BuildIndex groups items by label. Standing overrides take precedence over
// the labeler; the labeler is not consulted for overridden ids. Duplicate ids
// are indexed once.
func BuildIndex(items []Curated, overrides map[string]domain.Label, label Labeler) Index {
	ix := Index{}
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		id := item.Article.ID
		if seen[id] {
			continue
		}
		seen[id] = true

		l, ok := overrides[id]
		if !ok {
			l = label(item.Article)
		}
		ix[l] = append(ix[l], item.Ref())
	}
	return ix
}

// Signature hashes the sorted (id, title, tag) triples of the curated set.
func Signature(articles []domain.Article) string {
	triples := make([]string, 0, len(articles))
	for _, a := range articles {
		triples = append(triples, strings.Join([]string{a.ID, a.Title, string(a.Tag)}, "\x1f"))
	}
	sort.Strings(triples)
	sum := sha1.Sum([]byte(strings.Join(triples, "\x1e")))
	return hex.EncodeToString(sum[:])
}

// NextManualID returns the first free synthetic id for a manual row of
// stage and marks it taken. Gmail rows are additionally scoped to their
// originating email.
func NextManualID(stage domain.Stage, origin string, taken map[string]bool) string {
	prefix := stage.ManualPrefix()
	if stage == domain.StageGmail && origin != "" {
		prefix += "_" + origin
	}
	for n := 1; ; n++ {
		id := fmt.Sprintf("%s_manual_%d", prefix, n)
		if !taken[id] {
			taken[id] = true
			return id
		}
	}
}
