package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*OpenAIClient, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := NewOpenAIClient(OpenAIConfig{
		APIBase: srv.URL,
		APIKey:  "test-key",
		Model:   "llama-3.1-8b-instant",
		Timeout: 2 * time.Second,
		Logger:  zap.NewNop(),
	})
	return c, srv.Close
}

func TestOpenAIClient_StructuredToolCalls(t *testing.T) {
	var gotReq chatRequest
	c, cleanup := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {
				"content": "",
				"tool_calls": [
					{"function": {"name": "add_task", "arguments": "{\"title\": \"buy milk\"}"}},
					{"function": {"name": "list_tasks", "arguments": "{}"}}
				]
			}}]
		}`))
	})
	defer cleanup()

	tools := []ToolDef{{Name: "add_task", Parameters: map[string]any{"type": "object"}}}
	comp, err := c.Propose(context.Background(), "add task buy milk then show all", tools)
	if err != nil {
		t.Fatal(err)
	}
	if len(comp.Proposals) != 2 {
		t.Fatalf("expected 2 proposals, got %d", len(comp.Proposals))
	}
	if comp.Proposals[0].Name != "add_task" || comp.Proposals[1].Name != "list_tasks" {
		t.Errorf("proposal order: %q, %q", comp.Proposals[0].Name, comp.Proposals[1].Name)
	}
	if comp.Proposals[0].Arguments["title"] != "buy milk" {
		t.Errorf("title = %v", comp.Proposals[0].Arguments["title"])
	}
	if len(gotReq.Tools) != 1 || gotReq.Tools[0].Function.Name != "add_task" {
		t.Errorf("tool schemas not forwarded: %+v", gotReq.Tools)
	}
}

func TestOpenAIClient_InlineFunctionJSON(t *testing.T) {
	c, cleanup := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {
				"content": "{\"function\": \"complete_task\", \"arguments\": {\"task_id\": 2}}"
			}}]
		}`))
	})
	defer cleanup()

	comp, err := c.Propose(context.Background(), "complete task 2", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(comp.Proposals) != 1 || comp.Proposals[0].Name != "complete_task" {
		t.Fatalf("proposals = %+v", comp.Proposals)
	}
	if comp.Text != "" {
		t.Errorf("text should be cleared when content was a function call, got %q", comp.Text)
	}
}

func TestOpenAIClient_ConversationalText(t *testing.T) {
	c, cleanup := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "Hi there!"}}]}`))
	})
	defer cleanup()

	comp, err := c.Propose(context.Background(), "hello", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(comp.Proposals) != 0 {
		t.Errorf("expected no proposals, got %d", len(comp.Proposals))
	}
	if comp.Text != "Hi there!" {
		t.Errorf("text = %q", comp.Text)
	}
}

func TestOpenAIClient_ProviderError(t *testing.T) {
	c, cleanup := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})
	defer cleanup()

	_, err := c.Propose(context.Background(), "add task x", nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
}

func TestOpenAIClient_TransportError(t *testing.T) {
	c, cleanup := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {})
	cleanup() // server closed before the call

	_, err := c.Propose(context.Background(), "add task x", nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
}

func TestOpenAIClient_MalformedBody(t *testing.T) {
	c, cleanup := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	defer cleanup()

	_, err := c.Propose(context.Background(), "add task x", nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
}
