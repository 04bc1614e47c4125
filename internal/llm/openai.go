package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const systemPrompt = `You are a todo list assistant. You help users manage tasks by calling functions.

When the user wants to manage tasks, call the matching function. A single message
may require several calls (e.g. "add X and mark Y done"). For anything else,
answer conversationally without calling a function.`

// OpenAIClient talks to an OpenAI-compatible /chat/completions endpoint
// (OpenAI, Groq, Ollama, vLLM, ...). Proposals are returned in the order the
// model emitted them, verbatim; argument validation happens upstream.
type OpenAIClient struct {
	apiBase string
	apiKey  string
	model   string
	httpc   *http.Client
	logger  *zap.Logger
}

// OpenAIConfig configures an OpenAIClient. Timeout bounds the full completion
// round-trip so one slow provider call cannot hold a request slot indefinitely.
type OpenAIConfig struct {
	APIBase string
	APIKey  string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewOpenAIClient creates a client for the given endpoint.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 8 * time.Second
	}
	return &OpenAIClient{
		apiBase: cfg.APIBase,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpc:   &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}
}

// Wire types for the chat completions request/response.

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Propose(ctx context.Context, message string, tools []ToolDef) (*Completion, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
		MaxTokens:   512,
		Temperature: 0.1,
	}
	for _, t := range tools {
		reqBody.Tools = append(reqBody.Tools, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("Propose: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("Propose: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn("completion request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("completion provider returned non-200",
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: provider status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrUnavailable)
	}

	msg := parsed.Choices[0].Message
	out := &Completion{Text: msg.Content}

	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			// Undecodable arguments still yield a proposal; schema validation
			// reports them as an error record instead of dropping the call.
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				c.logger.Warn("tool call arguments are not valid JSON",
					zap.String("tool", tc.Function.Name),
					zap.Error(err),
				)
				args = map[string]any{}
			}
		}
		out.Proposals = append(out.Proposals, Proposal{
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	// Smaller models answer with a JSON function call in plain text instead of
	// the structured tool_calls field. Recover those from the content.
	if len(out.Proposals) == 0 && msg.Content != "" {
		if extracted := extractProposals(msg.Content); len(extracted) > 0 {
			out.Proposals = extracted
			out.Text = ""
		}
	}

	return out, nil
}
