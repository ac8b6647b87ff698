package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/ports"
)

// ErrIncompleteEvent is returned when the reply lacks a date or time.
var ErrIncompleteEvent = errors.New("extracted event is missing date or time")

// maxPageChars bounds the page text sent to the model.
const maxPageChars = 4000

const extractSystem = "You are a helpful assistant extracting congressional hearing event details."

const extractPrompt = `Extract the following information from the congressional hearing text below:

Return ONLY raw, valid JSON with the following fields:
- "title" (string): If the full title is longer than 100 characters, summarize it to stay under 100 characters while retaining key information (e.g., names, topics, agencies, bill titles, etc.).
- "date" (YYYY-MM-DD)
- "time" (HH:MM in 24-hour format)
- "location" (string or empty)

DO NOT include any explanation, formatting, markdown, or commentary. DO NOT make up or infer any information. ONLY return the JSON object.

Text:
%s`

// EventExtractor asks the chat model for hearing fields.
type EventExtractor struct {
	chat ports.ChatClient
}

var _ ports.EventExtractor = (*EventExtractor)(nil)

// NewEventExtractor wraps a chat client.
func NewEventExtractor(chat ports.ChatClient) *EventExtractor {
	return &EventExtractor{chat: chat}
}

// Extract sends the leading part of pageText and decodes the JSON reply.
func (e *EventExtractor) Extract(ctx context.Context, pageText string) (domain.EventDetails, error) {
	reply, err := e.chat.Complete(ctx, ports.ChatRequest{
		System: extractSystem,
		User:   fmt.Sprintf(extractPrompt, truncate(pageText, maxPageChars)),
	})
	if err != nil {
		return domain.EventDetails{}, fmt.Errorf("extract event: %w", err)
	}

	details, err := ParseJSON[domain.EventDetails](reply)
	if err != nil {
		return domain.EventDetails{}, err
	}
	details.Title = strings.TrimSpace(details.Title)
	if strings.TrimSpace(details.Date) == "" || strings.TrimSpace(details.Time) == "" {
		return domain.EventDetails{}, ErrIncompleteEvent
	}
	return details, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
