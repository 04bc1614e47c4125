package llm

import (
	"context"
	"errors"
)

// ToolDef describes one tool offered to the completion service.
// Parameters is a JSON Schema (type=object) for the tool's arguments.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Proposal is an unvalidated tool invocation as reported by the completion
// service. Arguments are untrusted and must be validated against the tool's
// schema before anything executes.
type Proposal struct {
	Name      string
	Arguments map[string]any
}

// Completion holds whatever the completion service produced for one message:
// zero or more tool-call proposals in the order the model emitted them, plus
// any free-form assistant text.
type Completion struct {
	Text      string
	Proposals []Proposal
}

// ErrUnavailable is returned for transport errors, timeouts, and responses
// that cannot be decoded. Callers must treat it as a request-level failure,
// never as "no tool needed".
var ErrUnavailable = errors.New("completion service unavailable")

// Client proposes tool calls for a user message.
type Client interface {
	Propose(ctx context.Context, message string, tools []ToolDef) (*Completion, error)
}
