// Package transcript derives the ordered, render-ready message sequence of a
// thread from its two persisted message lists and an optional in-flight
// partial. The merge is pure; callers own fetching and streaming.
package transcript

import (
	"sort"
	"time"

	"loomchat/internal/models"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one line of the merged transcript.
type Entry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	MessageID uint      `json:"message_id,omitempty"`
	SourceID  uint      `json:"source_id,omitempty"`
	Partial   bool      `json:"partial,omitempty"`
}

// Partial is the monotonically growing assistant message of a live stream.
type Partial struct {
	Content   string
	SourceID  uint
	StartedAt time.Time
}

// Merge orders user and inference messages by creation time ascending. A
// missing timestamp compares equal to anything, so such messages keep their
// relative insertion order (user list first, then inference list) under the
// stable sort. A non-nil partial is appended last unless a persisted
// inference message already carries the same content with finishedStreaming
// set, in which case the canonical row supersedes it.
func Merge(userMsgs []models.UserMessage, infMsgs []models.InferenceMessage, partial *Partial) []Entry {
	entries := make([]Entry, 0, len(userMsgs)+len(infMsgs)+1)

	for _, m := range userMsgs {
		entries = append(entries, Entry{
			Role:      RoleUser,
			Content:   m.Content.Data().Message,
			CreatedAt: m.CreatedAt,
			MessageID: m.ID,
		})
	}
	for _, m := range infMsgs {
		entries = append(entries, Entry{
			Role:      RoleAssistant,
			Content:   m.Content.Data().Message,
			CreatedAt: m.CreatedAt,
			MessageID: m.ID,
			SourceID:  m.SourceID,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].CreatedAt, entries[j].CreatedAt
		if a.IsZero() || b.IsZero() {
			return false
		}
		return a.Before(b)
	})

	if partial != nil && !superseded(partial, infMsgs) {
		entries = append(entries, Entry{
			Role:      RoleAssistant,
			Content:   partial.Content,
			CreatedAt: partial.StartedAt,
			SourceID:  partial.SourceID,
			Partial:   true,
		})
	}

	return entries
}

func superseded(partial *Partial, infMsgs []models.InferenceMessage) bool {
	for _, m := range infMsgs {
		if m.FinishedStreaming != nil && m.Content.Data().Message == partial.Content {
			return true
		}
	}
	return false
}
