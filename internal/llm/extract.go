package llm

import (
	"encoding/json"
	"strings"
)

// functionCall is the inline JSON shape some models emit in message content
// instead of structured tool calls: {"function": "name", "arguments": {...}}.
type functionCall struct {
	Function  string         `json:"function"`
	Arguments map[string]any `json:"arguments"`
}

// extractProposals recovers tool-call proposals from plain assistant text.
// It scans every balanced JSON object in the content, in order, and keeps the
// ones carrying a "function" key. That covers compact and pretty-printed
// payloads alike, with or without markdown code fences. Objects that decode
// but carry no "function" key are re-scanned from inside, so a function call
// nested in surrounding JSON is still found.
func extractProposals(text string) []Proposal {
	text = stripCodeFences(text)

	var proposals []Proposal
	for i := 0; i < len(text); {
		start := strings.IndexByte(text[i:], '{')
		if start == -1 {
			break
		}
		start += i
		end := findMatchingBrace(text, start)
		if end == start {
			i = start + 1
			continue
		}

		var fc functionCall
		if err := json.Unmarshal([]byte(text[start:end]), &fc); err == nil && fc.Function != "" {
			args := fc.Arguments
			if args == nil {
				args = map[string]any{}
			}
			proposals = append(proposals, Proposal{Name: fc.Function, Arguments: args})
			i = end
			continue
		}
		i = start + 1
	}
	return proposals
}

// stripCodeFences unwraps ```json ... ``` blocks so the brace scan sees the
// payload directly.
func stripCodeFences(text string) string {
	out := strings.ReplaceAll(text, "```json", "\n")
	return strings.ReplaceAll(out, "```", "\n")
}

// findMatchingBrace returns the index one past the brace matching the one at
// start, honoring JSON string literals and escapes. Returns start if the
// braces never balance.
func findMatchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return i + 1
				}
			}
		}
	}
	return start
}
