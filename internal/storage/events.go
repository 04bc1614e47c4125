package storage

import (
	"time"
	"unicode/utf8"
)

// EventWriter is the interface for writing chat audit events.
// Write() must NEVER block the caller.
type EventWriter interface {
	Write(event *ChatEvent)
	Close()
}

// ChatEvent records one processed chat request for the audit trail.
type ChatEvent struct {
	RequestID    string
	UserID       string
	Timestamp    time.Time
	Message      string
	Response     string
	ToolNames    []string
	ToolOutcomes []string // "ok" or the error kind, index-aligned with ToolNames
	LatencyMs    float32
	Source       string
}

// MessagePreviewLength caps how much of the user message the audit trail keeps.
const MessagePreviewLength = 200

// TruncateMessage returns at most maxLen bytes of s, cutting on a rune
// boundary so the preview stays valid UTF-8.
func TruncateMessage(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
