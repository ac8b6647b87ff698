package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// Side identifies the party caucus publishing a committee release.
type Side string

const (
	SideMajority Side = "majority"
	SideMinority Side = "minority"
)

// Tag classifies senate committee items.
type Tag string

const (
	TagMajority Tag = "majority"
	TagMinority Tag = "minority"
	TagHearing  Tag = "hearing"
	TagArticle  Tag = "article"
)

// SourceGmail marks items extracted from newsletter emails.
const SourceGmail = "gmail"

// Article is a fetched or hand-entered digest item. Fetched articles are
// identified by a content hash and never mutated after the bundle assigns it.
type Article struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Date       string `json:"date,omitempty"`
	Source     string `json:"source,omitempty"`
	Committee  string `json:"committee,omitempty"`
	Side       Side   `json:"side,omitempty"`
	Tag        Tag    `json:"tag,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Manual     bool   `json:"manual,omitempty"`
	OriginID   string `json:"originId,omitempty"`
}

// IsHearing reports whether the article is a scheduled hearing. Only the
// explicit hearing tag counts; a time component in Date does not.
func (a Article) IsHearing() bool {
	return a.Tag == TagHearing
}

// GroupKey returns the key used to group articles on stage pages.
func (a Article) GroupKey() string {
	switch {
	case a.Source == SourceGmail:
		return a.OriginID
	case a.Committee != "":
		return a.Committee
	default:
		return a.Source
	}
}

// ContentID derives a stable identifier from the namespace parts joined by "|".
func ContentID(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:16]
}

// Message is an unread newsletter email.
type Message struct {
	ID      string
	Subject string
	From    string
	HTML    string
}

// Link is an anchor extracted from a newsletter body.
type Link struct {
	Title string
	URL   string
}
