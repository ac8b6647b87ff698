package domain

import (
	"strings"
)

// Relevance is the newsletter-fit estimate for a title.
type Relevance string

const (
	RelevanceYes   Relevance = "YES"
	RelevanceMaybe Relevance = "MAYBE"
	RelevanceNo    Relevance = "NO"
)

const relevanceErrorPrefix = "ERROR: "

// RelevanceError wraps a failed classification as a sentinel value.
func RelevanceError(err error) Relevance {
	if err == nil {
		return Relevance(relevanceErrorPrefix + "unknown")
	}
	return Relevance(relevanceErrorPrefix + err.Error())
}

// IsError reports whether r is an error sentinel.
func (r Relevance) IsError() bool {
	return strings.HasPrefix(string(r), relevanceErrorPrefix)
}

// ParseRelevance upper-cases and trims model output. Unknown answers are
// returned as-is so the editor can see them.
func ParseRelevance(text string) Relevance {
	return Relevance(strings.ToUpper(strings.TrimSpace(text)))
}
