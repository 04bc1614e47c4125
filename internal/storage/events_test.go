package storage

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateMessage(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"shorter than limit", "buy milk", 200, "buy milk"},
		{"exactly at limit", "abcde", 5, "abcde"},
		{"ascii cut", "abcdefgh", 5, "abcde"},
		{"empty", "", 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateMessage(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("TruncateMessage(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateMessage_RuneBoundary(t *testing.T) {
	// "héllo" with the cut landing inside the 2-byte é.
	s := "héllo"
	got := TruncateMessage(s, 2)
	if got != "h" {
		t.Errorf("TruncateMessage(%q, 2) = %q, want %q", s, got, "h")
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncated preview is not valid UTF-8: %q", got)
	}

	long := strings.Repeat("日", 100)
	got = TruncateMessage(long, MessagePreviewLength)
	if !utf8.ValidString(got) {
		t.Errorf("truncated preview is not valid UTF-8: %q", got)
	}
	if len(got) > MessagePreviewLength {
		t.Errorf("truncated to %d bytes, limit %d", len(got), MessagePreviewLength)
	}
}
