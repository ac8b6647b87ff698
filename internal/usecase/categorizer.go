package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/ports"
)

const categorizeSystem = "You are a precise taxonomy assistant for a healthcare policy newsletter. " +
	"Given an article title, pick exactly ONE category label from the allowed set. " +
	"Respond with ONLY the label text, nothing else."

const classifySystem = "You are a strict and detail-oriented editor for a healthcare policy newsletter. " +
	"Your job is to filter government-related articles and determine whether they are directly relevant to U.S. healthcare policy. " +
	"Only articles related to policy changes, healthcare programs, legislation, regulatory actions, or public health systems should be included. " +
	"Respond only with YES, MAYBE, or NO."

const classifyPrompt = `You are helping curate a healthcare policy newsletter.

This newsletter includes **government-related healthcare news** such as:
- Policy changes or proposals
- Regulatory actions (CMS, HHS, FDA, etc.)
- Legislative or budget updates
- Congressional hearings
- News about Medicare, Medicaid, insurance, hospitals, public health systems, drug pricing, etc.

It does **not include** general entertainment, sports, tech, or unrelated news.

---

Here is the title of the news article:

%s

---

**Your task**:
Estimate the likelihood that this article is relevant to healthcare policy based on the newsletter's focus.

Respond only with one of the following:
- **YES** - if you are over 70%% sure it's relevant
- **MAYBE** - if you are 30-70%% sure it's relevant
- **NO** - if you are less than 30%% sure it's relevant

Do not explain your reasoning. Only reply: YES, MAYBE, or NO.`

// Categorizer labels titles through the chat model.
type Categorizer struct {
	chat   ports.ChatClient
	logger *slog.Logger
}

// NewCategorizer wraps a chat client. A nil client labels every non-hearing
// title with the catch-all.
func NewCategorizer(chat ports.ChatClient, logger *slog.Logger) *Categorizer {
	return &Categorizer{chat: chat, logger: logger}
}

// Categorize returns one label and never fails. Hearings are labeled Events
// without asking the model; the model is never offered Events.
func (c *Categorizer) Categorize(ctx context.Context, title string, isHearing bool) domain.Label {
	if isHearing {
		return domain.LabelEvents
	}
	if c.chat == nil {
		return domain.LabelCatchAll
	}

	reply, err := c.chat.Complete(ctx, ports.ChatRequest{
		System: categorizeSystem,
		User:   categorizePrompt(title),
	})
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("categorize failed", "title", title, "error", err)
		}
		return domain.LabelCatchAll
	}

	label := domain.NormalizeLabel(reply)
	if label == domain.LabelEvents {
		return domain.LabelCatchAll
	}
	return label
}

// Classify estimates relevance. Failures come back as an ERROR sentinel.
func (c *Categorizer) Classify(ctx context.Context, title string) domain.Relevance {
	if c.chat == nil {
		return domain.RelevanceError(fmt.Errorf("classifier is not configured"))
	}
	reply, err := c.chat.Complete(ctx, ports.ChatRequest{
		System: classifySystem,
		User:   fmt.Sprintf(classifyPrompt, title),
	})
	if err != nil {
		return domain.RelevanceError(err)
	}
	return domain.ParseRelevance(reply)
}

func categorizePrompt(title string) string {
	var b strings.Builder
	b.WriteString("Choose ONE category for the article title below.\n\nAllowed categories:\n")
	for _, l := range domain.TopicLabels() {
		b.WriteString("- ")
		b.WriteString(string(l))
		b.WriteString("\n")
	}
	b.WriteString("\nOutput: EXACT label text only. No extra words.\n\nTitle: ")
	b.WriteString(title)
	return b.String()
}
