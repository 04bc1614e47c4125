package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tasknest-ai/tasknest/internal/agent"
	"github.com/tasknest-ai/tasknest/internal/llm"
	"github.com/tasknest-ai/tasknest/internal/storage"
)

// handleChat implements POST /api/{user_id}/chat.
// Auth middleware has already bound the owner identity into the context.
func (d *Dependencies) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ChatRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "message is required"})
		return
	}

	identity := identityFromContext(r.Context())
	if identity == nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "missing identity context"})
		return
	}

	result, err := d.Agent.Handle(r.Context(), identity.UserID, req.Message)
	if err != nil {
		// Request-level failures carry no tool_calls: either nothing executed
		// (completion transport) or nothing could be attributed.
		if errors.Is(err, llm.ErrUnavailable) {
			writeJSON(w, http.StatusBadGateway, ErrorResp{Detail: "assistant is unavailable, please try again"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "chat processing failed"})
		return
	}

	requestID := uuid.New().String()
	latencyMs := float32(float64(time.Since(start)) / float64(time.Millisecond))

	// Fire-and-forget: audit the request
	d.writeChatEvent(identity.UserID, requestID, req.Message, result, latencyMs)

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:  result.Response,
		ToolCalls: toolCallsResp(result.Records),
	})
}

// toolCallsResp renders the per-proposal records for the wire: one entry per
// proposal, order preserved, failures carried as result.error rather than
// dropped.
func toolCallsResp(records []agent.ToolCallRecord) []ToolCallResp {
	calls := make([]ToolCallResp, 0, len(records))
	for _, rec := range records {
		args := rec.Arguments
		if args == nil {
			args = map[string]any{}
		}
		out := ToolCallResp{Name: rec.Name, Arguments: args}
		if rec.Err != nil {
			out.Result = map[string]any{
				"error":  rec.Err.Kind,
				"detail": rec.Err.Detail,
			}
		} else {
			out.Result = rec.Result
		}
		calls = append(calls, out)
	}
	return calls
}

func (d *Dependencies) writeChatEvent(userID, requestID, message string, result *agent.Result, latencyMs float32) {
	names := make([]string, len(result.Records))
	outcomes := make([]string, len(result.Records))
	for i, rec := range result.Records {
		names[i] = rec.Name
		if rec.Err != nil {
			outcomes[i] = rec.Err.Kind
		} else {
			outcomes[i] = "ok"
		}
	}

	d.Writer.Write(&storage.ChatEvent{
		RequestID:    requestID,
		UserID:       userID,
		Timestamp:    time.Now(),
		Message:      storage.TruncateMessage(message, storage.MessagePreviewLength),
		Response:     result.Response,
		ToolNames:    names,
		ToolOutcomes: outcomes,
		LatencyMs:    latencyMs,
		Source:       "chat",
	})
}
